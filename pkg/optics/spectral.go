package optics

import (
	"fmt"

	"github.com/df07/go-polynomial-optics/pkg/poly"
)

// SystemFunc builds the ray system of a lens at one wavelength in nanometres.
type SystemFunc func(lambda float64) (poly.Transform, error)

// SpectralSystem builds the system at two anchor wavelengths, appends the shared tail stages
// to both and interpolates between them. The result has one more input than the system,
// VarLambda for a two-plane lens, holding the wavelength in nanometres.
func SpectralSystem(build SystemFunc, lambdaA, lambdaB float64, tail ...poly.Transform) (poly.Transform, error) {
	at := func(lambda float64) (poly.Transform, error) {
		sys, err := build(lambda)
		if err != nil {
			return poly.Transform{}, fmt.Errorf("system at %g nm: %w", lambda, err)
		}
		if len(tail) == 0 {
			return sys, nil
		}
		return poly.Chain(append([]poly.Transform{sys}, tail...)...)
	}

	a, err := at(lambdaA)
	if err != nil {
		return poly.Transform{}, err
	}
	b, err := at(lambdaB)
	if err != nil {
		return poly.Transform{}, err
	}
	return a.LerpWith(b, lambdaA, lambdaB)
}

// LambertSystem rearranges a spectral ray system for rendering: output 2 becomes
// dx^2 + dy^2, the squared sine of the exit angle truncated to lambertDegree, and output 3 is
// dropped. The renderer weighs each sample by sqrt(1 - output 2), the cosine of the exit angle.
func LambertSystem(spectral poly.Transform, lambertDegree int) (poly.Transform, error) {
	if err := checkRaySystem(spectral); err != nil {
		return poly.Transform{}, err
	}
	if err := checkDegree(lambertDegree); err != nil {
		return poly.Transform{}, err
	}
	dx := spectral.Equation(VarDX)
	dy := spectral.Equation(VarDY)
	sin2 := dx.Mul(dx).Add(dy.Mul(dy)).Truncate(lambertDegree)

	out, err := spectral.WithEquation(VarDX, sin2)
	if err != nil {
		return poly.Transform{}, err
	}
	return out.DropEquation(VarDY)
}
