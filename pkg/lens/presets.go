package lens

import (
	"math"
	"sort"
)

// NewAchromat returns the Edmund Optics NT32-921 achromatic doublet (f = 120 mm) imaging a
// distant scene.
func NewAchromat() *Prescription {
	return &Prescription{
		Name:           "Achromat NT32-921",
		ObjectDistance: 5e6,
		PupilRadius:    19.5,
		Surfaces: []Surface{
			{Kind: Spherical, Radius: 65.22, Thickness: 9.60, Material: "N-SSK8"},
			{Kind: Spherical, Radius: -62.03, Thickness: 4.20, Material: "N-SF10"},
			{Kind: Spherical, Radius: -1240.67, Material: "air"},
		},
	}
}

// NewSinglet returns an N-BK7 plano-convex singlet (f = 100 mm) with strong axial colour
func NewSinglet() *Prescription {
	return &Prescription{
		Name:           "Plano-convex N-BK7",
		ObjectDistance: 1e4,
		PupilRadius:    12.7,
		Surfaces: []Surface{
			{Kind: Spherical, Radius: 51.5, Thickness: 3.6, Material: "N-BK7"},
			{Kind: Flat, Radius: math.Inf(1), Material: "air"},
		},
	}
}

// NewCylinder returns an N-BK7 plano-convex cylindrical lens focusing in x only
func NewCylinder() *Prescription {
	return &Prescription{
		Name:           "Cylindrical N-BK7",
		ObjectDistance: 1e4,
		PupilRadius:    10,
		Surfaces: []Surface{
			{Kind: CylindricalX, Radius: 25.8, Thickness: 5.9, Material: "N-BK7"},
			{Kind: Flat, Radius: math.Inf(1), Material: "air"},
		},
	}
}

var presets = map[string]func() *Prescription{
	"achromat": NewAchromat,
	"singlet":  NewSinglet,
	"cylinder": NewCylinder,
}

// Preset returns a fresh copy of a built-in lens
func Preset(name string) (*Prescription, bool) {
	build, ok := presets[name]
	if !ok {
		return nil, false
	}
	return build(), true
}

// PresetNames returns the built-in lens names in sorted order
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
