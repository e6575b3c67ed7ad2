package optics

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/df07/go-polynomial-optics/pkg/poly"
)

const degenerateTolerance = 1e-12

func checkRaySystem(t poly.Transform) error {
	if t.Inputs() < RayVars || t.Outputs() < RayVars {
		return fmt.Errorf("system %d -> %d is not a ray system: %w", t.Inputs(), t.Outputs(), poly.ErrArity)
	}
	return nil
}

// FindFocus returns the distance behind the last element at which rays leaving one object
// point converge in the given axis. t must be a two-plane system (inputs 2-3 are aperture
// positions). The linear part gives x + d*dx with x and dx both linear in the aperture
// coordinate; the focus is the d that cancels the aperture dependence.
func FindFocus(t poly.Transform, axis Axis) (float64, error) {
	if err := checkRaySystem(t); err != nil {
		return 0, err
	}
	m := t.LinearPart()
	pos, dir := int(axis), int(axis)+2
	spread := m.At(pos, dir)
	tilt := m.At(dir, dir)
	if math.Abs(tilt) < degenerateTolerance {
		return 0, fmt.Errorf("focus in %v: direction does not depend on the aperture: %w", axis, ErrDegenerateSystem)
	}
	return -spread / tilt, nil
}

// FindFocusX returns FindFocus(t, AxisX).
func FindFocusX(t poly.Transform) (float64, error) { return FindFocus(t, AxisX) }

// FindFocusY returns FindFocus(t, AxisY).
func FindFocusY(t poly.Transform) (float64, error) { return FindFocus(t, AxisY) }

// Magnification returns the linear coefficient of the output position with respect to the
// object position in the given axis. t is normally a two-plane system propagated to its focus.
func Magnification(t poly.Transform, axis Axis) (float64, error) {
	if err := checkRaySystem(t); err != nil {
		return 0, err
	}
	i := int(axis)
	mag := t.Equation(i).Coefficient(poly.Unit(i))
	if mag == 0 || math.IsNaN(mag) {
		return 0, fmt.Errorf("magnification in %v is %g: %w", axis, mag, ErrDegenerateSystem)
	}
	return mag, nil
}

// MagnificationX returns Magnification(t, AxisX).
func MagnificationX(t poly.Transform) (float64, error) { return Magnification(t, AxisX) }

// MagnificationY returns Magnification(t, AxisY).
func MagnificationY(t poly.Transform) (float64, error) { return Magnification(t, AxisY) }

// Paraxial holds the first-order properties of a lens in one axis. The lens transform must
// take ordinary rays (position, direction) on the first vertex plane to rays on the last one.
type Paraxial struct {
	Axis Axis
	// ABCD is the 2x2 ray transfer matrix acting on (position, direction).
	ABCD *mat.Dense
	// Determinant equals n_in/n_out for a lens built from refractions and propagations.
	Determinant float64
	// EFL is the effective focal length, -1/C.
	EFL float64
	// BFD is the back focal distance from the last vertex, -A/C.
	BFD float64
	// FFD is the front focal distance before the first vertex, -D/C.
	FFD float64
}

// AnalyzeParaxial extracts the ABCD matrix of a lens in the given axis and derives its focal
// distances. A lens without focusing power (C == 0) returns ErrDegenerateSystem.
func AnalyzeParaxial(t poly.Transform, axis Axis) (Paraxial, error) {
	if err := checkRaySystem(t); err != nil {
		return Paraxial{}, err
	}
	full := t.LinearPart()
	pos, dir := int(axis), int(axis)+2
	abcd := mat.NewDense(2, 2, []float64{
		full.At(pos, pos), full.At(pos, dir),
		full.At(dir, pos), full.At(dir, dir),
	})
	p := Paraxial{Axis: axis, ABCD: abcd, Determinant: mat.Det(abcd)}

	c := abcd.At(1, 0)
	if math.Abs(c) < degenerateTolerance {
		return p, fmt.Errorf("paraxial %v: afocal lens: %w", axis, ErrDegenerateSystem)
	}
	p.EFL = -1 / c
	p.BFD = -abcd.At(0, 0) / c
	p.FFD = -abcd.At(1, 1) / c
	return p, nil
}

// ImageOf applies the ABCD matrix to a paraxial ray (position, direction).
func (p Paraxial) ImageOf(position, direction float64) (float64, float64) {
	var out mat.VecDense
	out.MulVec(p.ABCD, mat.NewVecDense(2, []float64{position, direction}))
	return out.AtVec(0), out.AtVec(1)
}
