// Package glass provides refractive indices of optical glasses as a function of wavelength.
package glass

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownMaterial is returned for names missing from the catalogue and for wavelengths
// outside the range the dispersion formulas are fitted for.
var ErrUnknownMaterial = errors.New("glass: unknown material")

// Valid wavelength range in nanometres.
const (
	MinWavelength = 300.0
	MaxWavelength = 2500.0
)

// Fraunhofer lines used for the Abbe number.
const (
	LineD = 587.56
	LineF = 486.13
	LineC = 656.27
)

// Material computes a refractive index from a wavelength in nanometres.
type Material interface {
	Index(lambda float64) float64
}

// Sellmeier is the three-term Sellmeier dispersion formula
// n^2 = 1 + sum_i B_i*l^2/(l^2 - C_i) with l in micrometres and C_i in square micrometres.
type Sellmeier struct {
	B [3]float64
	C [3]float64
}

func (s Sellmeier) Index(lambda float64) float64 {
	l2 := (lambda / 1000) * (lambda / 1000)
	n2 := 1.0
	for i := range s.B {
		n2 += s.B[i] * l2 / (l2 - s.C[i])
	}
	return math.Sqrt(n2)
}

// Constant is a non-dispersive medium.
type Constant float64

func (c Constant) Index(float64) float64 { return float64(c) }

var (
	mu        sync.RWMutex
	catalogue = map[string]Material{
		"AIR":    Constant(1),
		"VACUUM": Constant(1),
		// Schott catalogue
		"N-BK7":   Sellmeier{B: [3]float64{1.03961212, 0.231792344, 1.01046945}, C: [3]float64{0.00600069867, 0.0200179144, 103.560653}},
		"N-SSK8":  Sellmeier{B: [3]float64{1.44857867, 0.117965926, 1.06937528}, C: [3]float64{0.00869310149, 0.0421566593, 111.300666}},
		"N-SF10":  Sellmeier{B: [3]float64{1.62153902, 0.256287842, 1.64447552}, C: [3]float64{0.0122241457, 0.0595736775, 147.468793}},
		"N-SF5":   Sellmeier{B: [3]float64{1.52481889, 0.187085527, 1.42729015}, C: [3]float64{0.011254756, 0.0588995392, 129.141675}},
		"N-SF11":  Sellmeier{B: [3]float64{1.73759695, 0.313747346, 1.89878101}, C: [3]float64{0.013188707, 0.0623068142, 155.23629}},
		"N-BAF10": Sellmeier{B: [3]float64{1.5851495, 0.143559385, 1.08521269}, C: [3]float64{0.00926681282, 0.0424489805, 105.613573}},
		"F2":      Sellmeier{B: [3]float64{1.34533359, 0.209073176, 0.937357162}, C: [3]float64{0.00997743871, 0.0470450767, 111.886764}},
		// Malitson 1965
		"FUSED-SILICA": Sellmeier{B: [3]float64{0.6961663, 0.4079426, 0.8974794}, C: [3]float64{0.004679148, 0.013512063, 97.934003}},
	}
)

func key(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Lookup returns the named material. Names are case-insensitive.
func Lookup(name string) (Material, error) {
	mu.RLock()
	m, ok := catalogue[key(name)]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%q: %w", name, ErrUnknownMaterial)
	}
	return m, nil
}

// RefractiveIndex returns the index of the named material at lambda nanometres.
func RefractiveIndex(name string, lambda float64) (float64, error) {
	m, err := Lookup(name)
	if err != nil {
		return 0, err
	}
	if !(lambda >= MinWavelength && lambda <= MaxWavelength) {
		return 0, fmt.Errorf("%s at %g nm outside [%g, %g]: %w", name, lambda, MinWavelength, MaxWavelength, ErrUnknownMaterial)
	}
	return m.Index(lambda), nil
}

// AbbeNumber returns (nd-1)/(nF-nC) of the named material. Non-dispersive materials have an
// infinite Abbe number.
func AbbeNumber(name string) (float64, error) {
	nd, err := RefractiveIndex(name, LineD)
	if err != nil {
		return 0, err
	}
	nf, _ := RefractiveIndex(name, LineF)
	nc, _ := RefractiveIndex(name, LineC)
	if nf == nc {
		return math.Inf(1), nil
	}
	return (nd - 1) / (nf - nc), nil
}

// Register adds or replaces a material in the catalogue.
func Register(name string, m Material) error {
	k := key(name)
	if k == "" || m == nil {
		return fmt.Errorf("register %q: %w", name, ErrUnknownMaterial)
	}
	mu.Lock()
	catalogue[k] = m
	mu.Unlock()
	return nil
}

// Names returns the catalogue names in sorted order.
func Names() []string {
	mu.RLock()
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	mu.RUnlock()
	sort.Strings(names)
	return names
}
