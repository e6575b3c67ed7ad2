package poly

import (
	"fmt"
	"math"
)

// PowReal expands p^alpha as a binomial series around p's constant term c0:
//
//	p^alpha = c0^alpha * sum_k binom(alpha, k) * (p/c0 - 1)^k
//
// The remainder p/c0 - 1 has no constant term, so its k-th power starts at degree k and
// the sum is exact up to the truncation degree.
func (p Polynomial) PowReal(alpha float64) (Polynomial, error) {
	c0 := p.ConstantTerm()
	if c0 == 0 {
		return Polynomial{}, fmt.Errorf("power %g of %v: %w", alpha, p, ErrSeriesDomain)
	}
	if c0 < 0 && alpha != math.Trunc(alpha) {
		return Polynomial{}, fmt.Errorf("power %g of negative constant %g: %w", alpha, c0, ErrSeriesDomain)
	}

	q := p.Scale(1 / c0).AddConstant(-1)
	sum := Constant(p.nvars, p.degree, 1)
	qk := Constant(p.nvars, p.degree, 1)
	binom := 1.0
	for k := 1; k <= p.degree; k++ {
		binom *= (alpha - float64(k-1)) / float64(k)
		if binom == 0 {
			break
		}
		qk = mulTrunc(qk, q, p.degree)
		sum = sum.Add(qk.Scale(binom))
	}
	return sum.Scale(math.Pow(c0, alpha)), nil
}

// Sqrt returns the truncated series of sqrt(p).
func (p Polynomial) Sqrt() (Polynomial, error) { return p.PowReal(0.5) }

// InvSqrt returns the truncated series of 1/sqrt(p).
func (p Polynomial) InvSqrt() (Polynomial, error) { return p.PowReal(-0.5) }

// Inverse returns the truncated series of 1/p.
func (p Polynomial) Inverse() (Polynomial, error) { return p.PowReal(-1) }
