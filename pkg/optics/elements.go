package optics

import (
	"fmt"
	"math"

	"github.com/df07/go-polynomial-optics/pkg/poly"
)

func checkDegree(degree int) error {
	if degree < 1 || degree > poly.MaxDegree {
		return fmt.Errorf("degree %d: %w", degree, poly.ErrDegree)
	}
	return nil
}

// TwoPlane parametrises rays by their intersections with two parallel planes: inputs 0-1
// are the position on the object plane and inputs 2-3 the position on the entrance plane
// at distance d0. The outputs are an ordinary ray on the entrance plane: position (xa, ya)
// and the unit direction of (xa-x, ya-y, d0).
func TwoPlane(d0 float64, degree int) (poly.Transform, error) {
	if err := checkDegree(degree); err != nil {
		return poly.Transform{}, err
	}
	if !(d0 > 0) || math.IsInf(d0, 0) {
		return poly.Transform{}, fmt.Errorf("two-plane distance %g: %w", d0, ErrInvalidElement)
	}
	x, y, xa, ya := rayVariables(degree)
	ddx := xa.Sub(x)
	ddy := ya.Sub(y)
	inv, err := ddx.Mul(ddx).Add(ddy.Mul(ddy)).AddConstant(d0 * d0).InvSqrt()
	if err != nil {
		return poly.Transform{}, fmt.Errorf("two-plane direction: %w", err)
	}
	return poly.NewTransform(xa, ya, ddx.Mul(inv), ddy.Mul(inv))
}

// Propagate moves rays a distance d along the optical axis: x' = x + d*dx/dz with dz the
// z component of the unit direction. Directions are unchanged. At degree 1 this is the
// paraxial transfer x + d*dx.
func Propagate(d float64, degree int) (poly.Transform, error) {
	if err := checkDegree(degree); err != nil {
		return poly.Transform{}, err
	}
	if math.IsNaN(d) || math.IsInf(d, 0) {
		return poly.Transform{}, fmt.Errorf("propagation distance %g: %w", d, ErrInvalidElement)
	}
	x, y, dx, dy := rayVariables(degree)
	invDZ, err := dx.Mul(dx).Add(dy.Mul(dy)).Neg().AddConstant(1).InvSqrt()
	if err != nil {
		return poly.Transform{}, fmt.Errorf("propagation: %w", err)
	}
	step := invDZ.Scale(d)
	return poly.NewTransform(x.Add(dx.Mul(step)), y.Add(dy.Mul(step)), dx, dy)
}

// RefractSpherical refracts rays at a sphere of radius R whose vertex lies on the reference
// plane, going from index n1 into index n2. A positive R has its centre behind the vertex.
// The refracted ray is transferred back to the vertex plane so that the next Propagate
// measures from the vertex. R = ±Inf is a flat surface; n1 == n2 returns the identity.
func RefractSpherical(R, n1, n2 float64, degree int) (poly.Transform, error) {
	return refract(R, n1, n2, degree, true, true)
}

// RefractCylindricalX refracts at a cylinder curved in x only (axis along y).
func RefractCylindricalX(R, n1, n2 float64, degree int) (poly.Transform, error) {
	return refract(R, n1, n2, degree, true, false)
}

// RefractCylindricalY refracts at a cylinder curved in y only (axis along x).
func RefractCylindricalY(R, n1, n2 float64, degree int) (poly.Transform, error) {
	return refract(R, n1, n2, degree, false, true)
}

// RefractFlat refracts at a plane perpendicular to the optical axis.
func RefractFlat(n1, n2 float64, degree int) (poly.Transform, error) {
	return refract(math.Inf(1), n1, n2, degree, false, false)
}

func refract(R, n1, n2 float64, degree int, curvedX, curvedY bool) (poly.Transform, error) {
	if err := checkDegree(degree); err != nil {
		return poly.Transform{}, err
	}
	if !(n1 > 0) || !(n2 > 0) || math.IsInf(n1, 0) || math.IsInf(n2, 0) {
		return poly.Transform{}, fmt.Errorf("indices %g -> %g: %w", n1, n2, ErrInvalidElement)
	}
	if R == 0 || math.IsNaN(R) {
		return poly.Transform{}, fmt.Errorf("radius %g: %w", R, ErrInvalidElement)
	}
	if n1 == n2 {
		return poly.Identity(RayVars, degree), nil
	}

	eta := n1 / n2
	x, y, dx, dy := rayVariables(degree)
	if math.IsInf(R, 0) || !(curvedX || curvedY) {
		return poly.NewTransform(x, y, dx.Scale(eta), dy.Scale(eta))
	}

	dz, err := directionZ(dx, dy)
	if err != nil {
		return poly.Transform{}, fmt.Errorf("refraction: %w", err)
	}
	zero := poly.Constant(RayVars, degree, 0)

	// Intersect p + t*d with the surface |h - (0,0,R)|^2 = R^2, restricted to the curved
	// axes: a*t^2 + 2*b*t + c = 0.
	a := dz.Mul(dz)
	b := dz.Scale(-R)
	c := zero
	if curvedX {
		a = a.Add(dx.Mul(dx))
		b = b.Add(x.Mul(dx))
		c = c.Add(x.Mul(x))
	}
	if curvedY {
		a = a.Add(dy.Mul(dy))
		b = b.Add(y.Mul(dy))
		c = c.Add(y.Mul(y))
	}
	disc, err := b.Mul(b).Sub(a.Mul(c)).Sqrt()
	if err != nil {
		return poly.Transform{}, fmt.Errorf("refraction intersection: %w", err)
	}
	// Root nearest the vertex in the cancellation-free form c / (-b ± sqrt(b^2 - ac)).
	denom := b.Neg().Add(disc.Scale(math.Copysign(1, R)))
	invDenom, err := denom.Inverse()
	if err != nil {
		return poly.Transform{}, fmt.Errorf("refraction intersection: %w", err)
	}
	t := c.Mul(invDenom)

	hx := x.Add(t.Mul(dx))
	hy := y.Add(t.Mul(dy))
	hz := t.Mul(dz)

	// Unit normal (h - centre)/R, facing the incoming ray.
	nx, ny := zero, zero
	if curvedX {
		nx = hx.Scale(1 / R)
	}
	if curvedY {
		ny = hy.Scale(1 / R)
	}
	nz := hz.AddConstant(-R).Scale(1 / R)

	cosI := nx.Mul(dx).Add(ny.Mul(dy)).Add(nz.Mul(dz)).Neg()
	k := cosI.Mul(cosI).Neg().AddConstant(1).Scale(-eta * eta).AddConstant(1)
	sqrtK, err := k.Sqrt()
	if err != nil {
		return poly.Transform{}, fmt.Errorf("refraction: %w", err)
	}
	mix := cosI.Scale(eta).Sub(sqrtK)

	outDX := dx.Scale(eta).Add(mix.Mul(nx))
	outDY := dy.Scale(eta).Add(mix.Mul(ny))
	outDZ := dz.Scale(eta).Add(mix.Mul(nz))

	// Transfer from the hit point back to the vertex plane.
	invDZ, err := outDZ.Inverse()
	if err != nil {
		return poly.Transform{}, fmt.Errorf("refraction transfer: %w", err)
	}
	back := hz.Mul(invDZ)
	return poly.NewTransform(hx.Sub(back.Mul(outDX)), hy.Sub(back.Mul(outDY)), outDX, outDY)
}
