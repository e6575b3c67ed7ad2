// Package poly implements truncated multivariate polynomials and the transforms built from
// them. A Transform maps a fixed number of input variables to a fixed number of outputs, each
// output being a Polynomial whose terms never exceed the configured total degree.
package poly

import (
	"fmt"
	"sort"
)

const (
	// MaxVars is the largest number of input variables a polynomial may have.
	MaxVars = 8
	// MaxDegree is the largest supported truncation degree.
	MaxDegree = 12
)

// Exponents holds one exponent per input variable. Slots past the polynomial's
// variable count are always zero.
type Exponents [MaxVars]uint8

// Mono builds an exponent tuple from a list of exponents, one per variable.
func Mono(exps ...int) Exponents {
	var e Exponents
	for i, x := range exps {
		e[i] = uint8(x)
	}
	return e
}

// Unit returns the exponent tuple of the single variable idx.
func Unit(idx int) Exponents {
	var e Exponents
	e[idx] = 1
	return e
}

// Degree returns the total degree of the monomial.
func (e Exponents) Degree() int {
	d := 0
	for _, x := range e {
		d += int(x)
	}
	return d
}

// Add returns the exponents of the product of two monomials.
func (e Exponents) Add(o Exponents) Exponents {
	var r Exponents
	for i := range e {
		r[i] = e[i] + o[i]
	}
	return r
}

// IsConstant reports whether all exponents are zero.
func (e Exponents) IsConstant() bool {
	return e == Exponents{}
}

// remove drops the exponent of variable idx and shifts the following slots down.
func (e Exponents) remove(idx int) Exponents {
	var r Exponents
	copy(r[:idx], e[:idx])
	copy(r[idx:], e[idx+1:])
	return r
}

// compareExponents orders monomials by total degree, then lexicographically with higher
// powers of lower-indexed variables first.
func compareExponents(a, b Exponents) int {
	da, db := a.Degree(), b.Degree()
	if da != db {
		if da < db {
			return -1
		}
		return 1
	}
	for i := range a {
		if a[i] != b[i] {
			if a[i] > b[i] {
				return -1
			}
			return 1
		}
	}
	return 0
}

// Term is a single monomial with its coefficient.
type Term struct {
	Exp   Exponents
	Coeff float64
}

func (t Term) String() string {
	s := fmt.Sprintf("%g", t.Coeff)
	for i, x := range t.Exp {
		switch {
		case x == 1:
			s += fmt.Sprintf("*x%d", i)
		case x > 1:
			s += fmt.Sprintf("*x%d^%d", i, x)
		}
	}
	return s
}

func sortTerms(terms []Term) {
	sort.Slice(terms, func(i, j int) bool {
		return compareExponents(terms[i].Exp, terms[j].Exp) < 0
	})
}
