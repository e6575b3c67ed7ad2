// Package lens describes compound lenses as lists of refracting surfaces and turns them into
// polynomial ray systems ready for rendering.
package lens

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/df07/go-polynomial-optics/pkg/glass"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
	"github.com/df07/go-polynomial-optics/pkg/optics"
	"github.com/df07/go-polynomial-optics/pkg/poly"
)

// ErrUnknownLens is returned when a name matches neither a preset nor a lens file.
var ErrUnknownLens = errors.New("unknown lens")

// DefaultObjectDistance is used when a prescription does not set one (mm).
const DefaultObjectDistance = 5e6

// Kind is the shape of a refracting surface
type Kind string

const (
	Spherical    Kind = "spherical"
	CylindricalX Kind = "cylindrical-x" // curved in x only
	CylindricalY Kind = "cylindrical-y" // curved in y only
	Flat         Kind = "flat"
)

// Surface is one refracting surface. Material is the medium behind the surface and
// Thickness the distance from its vertex to the next one.
type Surface struct {
	Kind      Kind
	Radius    float64
	Thickness float64
	Material  string
}

// Prescription is a lens seen from an object plane ObjectDistance in front of the first
// vertex. PupilRadius bounds the entrance aperture; 0 means unlimited.
type Prescription struct {
	Name           string
	ObjectDistance float64
	PupilRadius    float64
	Surfaces       []Surface
}

// FromFile converts a parsed prescription file
func FromFile(f *loaders.LensFile) (*Prescription, error) {
	p := &Prescription{
		Name:           f.Name,
		ObjectDistance: f.ObjectDistance,
		PupilRadius:    f.PupilRadius,
	}
	if p.ObjectDistance == 0 {
		p.ObjectDistance = DefaultObjectDistance
	}
	for _, s := range f.Surfaces {
		p.Surfaces = append(p.Surfaces, Surface{
			Kind:      Kind(s.Kind),
			Radius:    s.Radius,
			Thickness: s.Thickness,
			Material:  s.Material,
		})
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the geometry and that every material is in the glass catalogue.
func (p *Prescription) Validate() error {
	if len(p.Surfaces) == 0 {
		return fmt.Errorf("lens %q has no surfaces: %w", p.Name, optics.ErrInvalidElement)
	}
	if !(p.ObjectDistance > 0) || math.IsInf(p.ObjectDistance, 0) {
		return fmt.Errorf("lens %q: object distance %g: %w", p.Name, p.ObjectDistance, optics.ErrInvalidElement)
	}
	if p.PupilRadius < 0 || math.IsNaN(p.PupilRadius) {
		return fmt.Errorf("lens %q: pupil radius %g: %w", p.Name, p.PupilRadius, optics.ErrInvalidElement)
	}
	for i, s := range p.Surfaces {
		if _, err := glass.Lookup(s.Material); err != nil {
			return fmt.Errorf("lens %q surface %d: %w", p.Name, i, err)
		}
		if math.IsNaN(s.Thickness) || math.IsInf(s.Thickness, 0) {
			return fmt.Errorf("lens %q surface %d: thickness %g: %w", p.Name, i, s.Thickness, optics.ErrInvalidElement)
		}
	}
	return nil
}

func (s Surface) element(n1, n2 float64, degree int) (poly.Transform, error) {
	switch s.Kind {
	case Spherical:
		return optics.RefractSpherical(s.Radius, n1, n2, degree)
	case CylindricalX:
		return optics.RefractCylindricalX(s.Radius, n1, n2, degree)
	case CylindricalY:
		return optics.RefractCylindricalY(s.Radius, n1, n2, degree)
	case Flat:
		return optics.RefractFlat(n1, n2, degree)
	default:
		return poly.Transform{}, fmt.Errorf("surface kind %q: %w", s.Kind, optics.ErrInvalidElement)
	}
}

// LensSystem maps rays on the first vertex plane to rays on the plane Thickness behind the
// last surface, at the given wavelength in nanometres. The object side is air.
func (p *Prescription) LensSystem(lambda float64, degree int) (poly.Transform, error) {
	stages := []poly.Transform{poly.Identity(optics.RayVars, degree)}
	n1 := 1.0
	for i, s := range p.Surfaces {
		n2, err := glass.RefractiveIndex(s.Material, lambda)
		if err != nil {
			return poly.Transform{}, fmt.Errorf("lens %q surface %d: %w", p.Name, i, err)
		}
		refract, err := s.element(n1, n2, degree)
		if err != nil {
			return poly.Transform{}, fmt.Errorf("lens %q surface %d: %w", p.Name, i, err)
		}
		stages = append(stages, refract)
		if s.Thickness != 0 {
			gap, err := optics.Propagate(s.Thickness, degree)
			if err != nil {
				return poly.Transform{}, fmt.Errorf("lens %q surface %d: %w", p.Name, i, err)
			}
			stages = append(stages, gap)
		}
		n1 = n2
	}
	return poly.Chain(stages...)
}

// System is the two-plane system of the lens: inputs are the object point and the position
// on the first vertex plane, outputs the ray behind the last surface.
func (p *Prescription) System(lambda float64, degree int) (poly.Transform, error) {
	entry, err := optics.TwoPlane(p.ObjectDistance, degree)
	if err != nil {
		return poly.Transform{}, fmt.Errorf("lens %q: %w", p.Name, err)
	}
	lens, err := p.LensSystem(lambda, degree)
	if err != nil {
		return poly.Transform{}, err
	}
	return entry.Compose(lens)
}

// Paraxial returns the first-order properties of the lens alone at one wavelength.
func (p *Prescription) Paraxial(lambda float64, axis optics.Axis) (optics.Paraxial, error) {
	lens, err := p.LensSystem(lambda, 1)
	if err != nil {
		return optics.Paraxial{}, err
	}
	return optics.AnalyzeParaxial(lens, axis)
}

// Glass is a dispersive material used by a prescription
type Glass struct {
	Name string  `json:"name"`
	Abbe float64 `json:"abbe"` // Abbe number V_d
}

// Glasses lists the dispersive materials of the surfaces in order of first use. Air and
// other materials without dispersion are left out.
func (p *Prescription) Glasses() ([]Glass, error) {
	glasses := []Glass{}
	seen := map[string]bool{}
	for _, surf := range p.Surfaces {
		key := strings.ToLower(surf.Material)
		if seen[key] {
			continue
		}
		seen[key] = true
		abbe, err := glass.AbbeNumber(surf.Material)
		if err != nil {
			return nil, err
		}
		if math.IsInf(abbe, 1) {
			continue
		}
		glasses = append(glasses, Glass{Name: surf.Material, Abbe: abbe})
	}
	return glasses, nil
}
