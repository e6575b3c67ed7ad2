// Package report measures the chromatic behaviour of a lens and writes it out as charts:
// back focus per wavelength, on-axis spot diagrams and their RMS radius.
package report

import (
	"fmt"

	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/optics"
)

// FocusSample is the back focal distance of a lens at one wavelength
type FocusSample struct {
	Lambda    float64 // nm
	BackFocus float64 // mm behind the last surface
}

// ChromaticFocus finds the paraxial focus of p at every wavelength in lambdas
func ChromaticFocus(p *lens.Prescription, degree int, axis optics.Axis, lambdas []float64) ([]FocusSample, error) {
	samples := make([]FocusSample, 0, len(lambdas))
	for _, lambda := range lambdas {
		system, err := p.System(lambda, degree)
		if err != nil {
			return nil, err
		}
		focus, err := optics.FindFocus(system, axis)
		if err != nil {
			return nil, fmt.Errorf("focus at %g nm: %w", lambda, err)
		}
		samples = append(samples, FocusSample{Lambda: lambda, BackFocus: focus})
	}
	return samples, nil
}

// FocusSpread returns the shortest and longest back focus in samples
func FocusSpread(samples []FocusSample) (shortest, longest FocusSample) {
	for i, s := range samples {
		if i == 0 || s.BackFocus < shortest.BackFocus {
			shortest = s
		}
		if i == 0 || s.BackFocus > longest.BackFocus {
			longest = s
		}
	}
	return shortest, longest
}
