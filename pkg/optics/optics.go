// Package optics builds polynomial transforms for optical elements: the two-plane ray
// parametrisation, free-space propagation and refraction at spherical, cylindrical and flat
// surfaces. It also locates the paraxial focus of a system and measures its magnification.
//
// Every element maps the four ray variables (x, y, dx, dy) to four outputs of the same
// kind: the position on the element's reference plane and the x/y components of the unit
// direction vector. Elements therefore chain with poly.Chain in the order light meets them.
package optics

import (
	"errors"

	"github.com/df07/go-polynomial-optics/pkg/poly"
)

// Variable indices shared by every generator.
const (
	VarX      = 0
	VarY      = 1
	VarDX     = 2
	VarDY     = 3
	VarLambda = 4 // appended by SpectralSystem

	// RayVars is the number of ray variables an element maps.
	RayVars = 4
)

var (
	// ErrInvalidElement reports element parameters that cannot describe a physical surface.
	ErrInvalidElement = errors.New("optics: invalid element")
	// ErrDegenerateSystem reports a system without the linear term needed to focus or
	// measure magnification.
	ErrDegenerateSystem = errors.New("optics: degenerate system")
)

// Axis selects the x or y plane for axis-dependent measurements.
type Axis int

const (
	AxisX Axis = iota
	AxisY
)

func (a Axis) String() string {
	if a == AxisY {
		return "y"
	}
	return "x"
}

// rayVariables returns x, y, dx, dy as polynomials over the ray variables.
func rayVariables(degree int) (x, y, dx, dy poly.Polynomial) {
	return poly.Variable(RayVars, degree, VarX),
		poly.Variable(RayVars, degree, VarY),
		poly.Variable(RayVars, degree, VarDX),
		poly.Variable(RayVars, degree, VarDY)
}

// directionZ returns the series of sqrt(1 - dx^2 - dy^2), the z component of the unit direction.
func directionZ(dx, dy poly.Polynomial) (poly.Polynomial, error) {
	return dx.Mul(dx).Add(dy.Mul(dy)).Neg().AddConstant(1).Sqrt()
}
