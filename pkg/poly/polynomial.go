package poly

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// Polynomial is a truncated power series in a fixed number of variables. Values are
// immutable: every operation returns a new Polynomial and never touches its operands.
type Polynomial struct {
	nvars  int
	degree int
	terms  []Term // canonical order, unique exponents, all within degree
}

// NewPolynomial creates a polynomial from terms. Terms with equal exponents are summed and
// terms above the degree bound are dropped.
func NewPolynomial(nvars, degree int, terms ...Term) (Polynomial, error) {
	if nvars < 0 || nvars > MaxVars {
		return Polynomial{}, fmt.Errorf("%d variables: %w", nvars, ErrArity)
	}
	if degree < 1 || degree > MaxDegree {
		return Polynomial{}, fmt.Errorf("degree %d: %w", degree, ErrDegree)
	}
	acc := make(map[Exponents]float64, len(terms))
	for _, t := range terms {
		for i := nvars; i < MaxVars; i++ {
			if t.Exp[i] != 0 {
				return Polynomial{}, fmt.Errorf("term %v uses variable %d of %d: %w", t, i, nvars, ErrVariable)
			}
		}
		acc[t.Exp] += t.Coeff
	}
	return fromMap(nvars, degree, acc), nil
}

// Constant returns the polynomial with the single constant term c.
func Constant(nvars, degree int, c float64) Polynomial {
	return Polynomial{nvars: nvars, degree: degree, terms: []Term{{Coeff: c}}}
}

// Variable returns the polynomial x_idx. It panics if idx is not a valid variable index.
func Variable(nvars, degree, idx int) Polynomial {
	if idx < 0 || idx >= nvars {
		panic(fmt.Sprintf("poly: variable %d out of range [0,%d)", idx, nvars))
	}
	return Polynomial{nvars: nvars, degree: degree, terms: []Term{{Exp: Unit(idx), Coeff: 1}}}
}

func fromMap(nvars, degree int, acc map[Exponents]float64) Polynomial {
	terms := make([]Term, 0, len(acc))
	for e, c := range acc {
		if e.Degree() > degree {
			continue
		}
		terms = append(terms, Term{Exp: e, Coeff: c})
	}
	sortTerms(terms)
	return Polynomial{nvars: nvars, degree: degree, terms: terms}
}

func (p Polynomial) accumulate(acc map[Exponents]float64, scale float64) {
	for _, t := range p.terms {
		acc[t.Exp] += t.Coeff * scale
	}
}

// NumVars returns the number of input variables.
func (p Polynomial) NumVars() int { return p.nvars }

// Degree returns the truncation bound.
func (p Polynomial) Degree() int { return p.degree }

// TotalDegree returns the highest total degree among the non-zero terms.
func (p Polynomial) TotalDegree() int {
	d := 0
	for _, t := range p.terms {
		if t.Coeff != 0 {
			d = max(d, t.Exp.Degree())
		}
	}
	return d
}

// Terms returns a copy of the terms in canonical order.
func (p Polynomial) Terms() []Term {
	out := make([]Term, len(p.terms))
	copy(out, p.terms)
	return out
}

// Len returns the number of stored terms, including explicit zeros.
func (p Polynomial) Len() int { return len(p.terms) }

// Coefficient returns the coefficient of the monomial e, or zero if absent.
func (p Polynomial) Coefficient(e Exponents) float64 {
	i := sort.Search(len(p.terms), func(i int) bool {
		return compareExponents(p.terms[i].Exp, e) >= 0
	})
	if i < len(p.terms) && p.terms[i].Exp == e {
		return p.terms[i].Coeff
	}
	return 0
}

// ConstantTerm returns the coefficient of the constant monomial.
func (p Polynomial) ConstantTerm() float64 {
	if len(p.terms) > 0 && p.terms[0].Exp.IsConstant() {
		return p.terms[0].Coeff
	}
	return 0
}

func (p Polynomial) sameVars(q Polynomial) {
	if p.nvars != q.nvars {
		panic(fmt.Sprintf("poly: operands over %d and %d variables", p.nvars, q.nvars))
	}
}

// Add returns p+q. Both operands must have the same variable count.
func (p Polynomial) Add(q Polynomial) Polynomial {
	p.sameVars(q)
	acc := make(map[Exponents]float64, len(p.terms)+len(q.terms))
	p.accumulate(acc, 1)
	q.accumulate(acc, 1)
	return fromMap(p.nvars, max(p.degree, q.degree), acc)
}

// Sub returns p-q.
func (p Polynomial) Sub(q Polynomial) Polynomial {
	p.sameVars(q)
	acc := make(map[Exponents]float64, len(p.terms)+len(q.terms))
	p.accumulate(acc, 1)
	q.accumulate(acc, -1)
	return fromMap(p.nvars, max(p.degree, q.degree), acc)
}

// AddConstant returns p+c.
func (p Polynomial) AddConstant(c float64) Polynomial {
	return p.Add(Constant(p.nvars, p.degree, c))
}

// Mul returns the product p*q, dropping every term above the larger degree bound.
func (p Polynomial) Mul(q Polynomial) Polynomial {
	p.sameVars(q)
	return mulTrunc(p, q, max(p.degree, q.degree))
}

// mulTrunc multiplies and truncates at degree. Terms are sorted by total degree, which
// lets the inner loop stop at the first product above the bound.
func mulTrunc(p, q Polynomial, degree int) Polynomial {
	acc := make(map[Exponents]float64, len(p.terms)*2)
	for _, a := range p.terms {
		da := a.Exp.Degree()
		if da > degree || a.Coeff == 0 {
			continue
		}
		for _, b := range q.terms {
			if da+b.Exp.Degree() > degree {
				break
			}
			acc[a.Exp.Add(b.Exp)] += a.Coeff * b.Coeff
		}
	}
	return fromMap(p.nvars, degree, acc)
}

// Scale multiplies every coefficient by k.
func (p Polynomial) Scale(k float64) Polynomial {
	terms := make([]Term, len(p.terms))
	for i, t := range p.terms {
		terms[i] = Term{Exp: t.Exp, Coeff: t.Coeff * k}
	}
	return Polynomial{nvars: p.nvars, degree: p.degree, terms: terms}
}

// Neg returns -p.
func (p Polynomial) Neg() Polynomial { return p.Scale(-1) }

// Truncate drops every term above degree d. The bound never increases.
func (p Polynomial) Truncate(d int) Polynomial {
	d = min(d, p.degree)
	terms := make([]Term, 0, len(p.terms))
	for _, t := range p.terms {
		if t.Exp.Degree() <= d {
			terms = append(terms, t)
		}
	}
	return Polynomial{nvars: p.nvars, degree: d, terms: terms}
}

// Pow returns p^k for k >= 0 with truncation after every multiplication.
func (p Polynomial) Pow(k int) Polynomial {
	r := Constant(p.nvars, p.degree, 1)
	for i := 0; i < k; i++ {
		r = mulTrunc(r, p, p.degree)
	}
	return r
}

// Canonical drops zero coefficients.
func (p Polynomial) Canonical() Polynomial {
	terms := make([]Term, 0, len(p.terms))
	for _, t := range p.terms {
		if t.Coeff != 0 {
			terms = append(terms, t)
		}
	}
	return Polynomial{nvars: p.nvars, degree: p.degree, terms: terms}
}

// withVars reinterprets p over n >= p.nvars variables. Exponents of the new variables are zero.
func (p Polynomial) withVars(n int) Polynomial {
	return Polynomial{nvars: n, degree: p.degree, terms: p.terms}
}

// Evaluate computes the value of p at x. len(x) must be at least NumVars().
func (p Polynomial) Evaluate(x []float64) float64 {
	sum := 0.0
	for _, t := range p.terms {
		m := t.Coeff
		for v := 0; v < p.nvars; v++ {
			for k := uint8(0); k < t.Exp[v]; k++ {
				m *= x[v]
			}
		}
		sum += m
	}
	return sum
}

// ApproxEqual compares coefficient-wise after canonicalisation. Coefficients match when
// |a-b| <= tol*max(1, |a|, |b|).
func (p Polynomial) ApproxEqual(q Polynomial, tol float64) bool {
	if p.nvars != q.nvars {
		return false
	}
	acc := make(map[Exponents]struct{}, len(p.terms)+len(q.terms))
	for _, t := range p.terms {
		acc[t.Exp] = struct{}{}
	}
	for _, t := range q.terms {
		acc[t.Exp] = struct{}{}
	}
	for e := range acc {
		a, b := p.Coefficient(e), q.Coefficient(e)
		if math.Abs(a-b) > tol*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
			return false
		}
	}
	return true
}

func (p Polynomial) String() string {
	if len(p.terms) == 0 {
		return "0"
	}
	parts := make([]string, len(p.terms))
	for i, t := range p.terms {
		parts[i] = t.String()
	}
	return strings.Join(parts, " + ")
}
