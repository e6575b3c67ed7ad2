package poly

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Transform maps N input variables to M outputs, one Polynomial per output. Transforms are
// immutable values; Compose, BakeInput, DropEquation and friends build new ones.
type Transform struct {
	inputs int
	eqs    []Polynomial
}

// NewTransform creates a transform from its output equations. All equations must be
// polynomials over the same number of variables.
func NewTransform(eqs ...Polynomial) (Transform, error) {
	if len(eqs) == 0 {
		return Transform{}, fmt.Errorf("transform without equations: %w", ErrArity)
	}
	n := eqs[0].nvars
	for i, e := range eqs {
		if e.nvars != n {
			return Transform{}, fmt.Errorf("equation %d has %d variables, want %d: %w", i, e.nvars, n, ErrArity)
		}
	}
	out := make([]Polynomial, len(eqs))
	copy(out, eqs)
	return Transform{inputs: n, eqs: out}, nil
}

// Identity returns the transform whose output i equals input i.
func Identity(n, degree int) Transform {
	eqs := make([]Polynomial, n)
	for i := range eqs {
		eqs[i] = Variable(n, degree, i)
	}
	return Transform{inputs: n, eqs: eqs}
}

// Inputs returns the number of input variables.
func (t Transform) Inputs() int { return t.inputs }

// Outputs returns the number of output equations.
func (t Transform) Outputs() int { return len(t.eqs) }

// Degree returns the largest truncation bound among the equations.
func (t Transform) Degree() int {
	d := 0
	for _, e := range t.eqs {
		d = max(d, e.degree)
	}
	return d
}

// Equation returns output equation i.
func (t Transform) Equation(i int) Polynomial { return t.eqs[i] }

// Equations returns a copy of the output equations.
func (t Transform) Equations() []Polynomial {
	out := make([]Polynomial, len(t.eqs))
	copy(out, t.eqs)
	return out
}

// TermCount returns the total number of stored terms over all equations.
func (t Transform) TermCount() int {
	n := 0
	for _, e := range t.eqs {
		n += len(e.terms)
	}
	return n
}

// Compose returns the transform that applies t first and then b (t >> b). The outputs of
// t are substituted for the inputs of b and the result is truncated to the smaller of
// the two degrees. Terms of b above that degree still contribute through constant terms
// of t, so they are expanded as well.
func (t Transform) Compose(b Transform) (Transform, error) {
	if t.Outputs() != b.inputs {
		return Transform{}, fmt.Errorf("compose %d outputs into %d inputs: %w", t.Outputs(), b.inputs, ErrArity)
	}
	degree := min(t.Degree(), b.Degree())
	memo := map[Exponents]Polynomial{{}: Constant(t.inputs, degree, 1)}

	// product returns prod_i t.eqs[i]^e[i], built recursively from shorter products.
	var product func(e Exponents) Polynomial
	product = func(e Exponents) Polynomial {
		if p, ok := memo[e]; ok {
			return p
		}
		i := 0
		for e[i] == 0 {
			i++
		}
		rest := e
		rest[i]--
		p := mulTrunc(product(rest), t.eqs[i], degree)
		memo[e] = p
		return p
	}

	eqs := make([]Polynomial, len(b.eqs))
	for j, eq := range b.eqs {
		acc := make(map[Exponents]float64)
		for _, term := range eq.terms {
			product(term.Exp).accumulate(acc, term.Coeff)
		}
		eqs[j] = fromMap(t.inputs, degree, acc)
	}
	return Transform{inputs: t.inputs, eqs: eqs}, nil
}

// Chain composes the transforms left to right: Chain(a, b, c) == a >> b >> c.
func Chain(ts ...Transform) (Transform, error) {
	if len(ts) == 0 {
		return Transform{}, fmt.Errorf("empty chain: %w", ErrArity)
	}
	out := ts[0]
	for i, t := range ts[1:] {
		var err error
		if out, err = out.Compose(t); err != nil {
			return Transform{}, fmt.Errorf("chain stage %d: %w", i+1, err)
		}
	}
	return out, nil
}

// Extend appends k pass-through variables: the new inputs N..N+k-1 are copied unchanged
// to the new outputs M..M+k-1, and the existing equations ignore them.
func (t Transform) Extend(k int) (Transform, error) {
	n := t.inputs + k
	if k < 0 || n > MaxVars {
		return Transform{}, fmt.Errorf("extend %d inputs by %d: %w", t.inputs, k, ErrArity)
	}
	degree := t.Degree()
	eqs := make([]Polynomial, 0, len(t.eqs)+k)
	for _, e := range t.eqs {
		eqs = append(eqs, e.withVars(n))
	}
	for i := t.inputs; i < n; i++ {
		eqs = append(eqs, Variable(n, degree, i))
	}
	return Transform{inputs: n, eqs: eqs}, nil
}

// BakeInput substitutes value for input idx, folding the constants into the coefficients.
// The remaining inputs are renumbered downward; the output count is unchanged.
func (t Transform) BakeInput(idx int, value float64) (Transform, error) {
	if idx < 0 || idx >= t.inputs {
		return Transform{}, fmt.Errorf("bake input %d of %d: %w", idx, t.inputs, ErrVariable)
	}
	eqs := make([]Polynomial, len(t.eqs))
	for j, eq := range t.eqs {
		acc := make(map[Exponents]float64, len(eq.terms))
		for _, term := range eq.terms {
			c := term.Coeff
			for k := uint8(0); k < term.Exp[idx]; k++ {
				c *= value
			}
			acc[term.Exp.remove(idx)] += c
		}
		eqs[j] = fromMap(t.inputs-1, eq.degree, acc)
	}
	return Transform{inputs: t.inputs - 1, eqs: eqs}, nil
}

// DropEquation removes output idx.
func (t Transform) DropEquation(idx int) (Transform, error) {
	if idx < 0 || idx >= len(t.eqs) {
		return Transform{}, fmt.Errorf("drop equation %d of %d: %w", idx, len(t.eqs), ErrVariable)
	}
	eqs := make([]Polynomial, 0, len(t.eqs)-1)
	eqs = append(eqs, t.eqs[:idx]...)
	eqs = append(eqs, t.eqs[idx+1:]...)
	return Transform{inputs: t.inputs, eqs: eqs}, nil
}

// WithEquation returns a copy of t with output idx replaced by p.
func (t Transform) WithEquation(idx int, p Polynomial) (Transform, error) {
	if idx < 0 || idx >= len(t.eqs) {
		return Transform{}, fmt.Errorf("replace equation %d of %d: %w", idx, len(t.eqs), ErrVariable)
	}
	if p.nvars != t.inputs {
		return Transform{}, fmt.Errorf("equation over %d variables for %d inputs: %w", p.nvars, t.inputs, ErrArity)
	}
	eqs := t.Equations()
	eqs[idx] = p
	return Transform{inputs: t.inputs, eqs: eqs}, nil
}

// Truncate lowers the degree bound of every equation to d.
func (t Transform) Truncate(d int) Transform {
	eqs := make([]Polynomial, len(t.eqs))
	for i, e := range t.eqs {
		eqs[i] = e.Truncate(d)
	}
	return Transform{inputs: t.inputs, eqs: eqs}
}

// LerpWith interpolates between t, sampled at parameter pa, and b, sampled at pb. The
// result has one more input, appended last, holding the parameter. For every monomial
// present in either operand the coefficient becomes ca + (cb-ca)*(param-pa)/(pb-pa);
// a monomial missing from one side counts as a zero coefficient there. The degree bound
// grows by one so the parameter-linear terms are kept.
func (t Transform) LerpWith(b Transform, pa, pb float64) (Transform, error) {
	if t.inputs != b.inputs || len(t.eqs) != len(b.eqs) {
		return Transform{}, fmt.Errorf("lerp %dx%d with %dx%d: %w", t.inputs, len(t.eqs), b.inputs, len(b.eqs), ErrArity)
	}
	if pa == pb {
		return Transform{}, fmt.Errorf("lerp at %g: %w", pa, ErrDegenerateLerp)
	}
	n := t.inputs + 1
	if n > MaxVars {
		return Transform{}, fmt.Errorf("lerp adds variable %d: %w", n, ErrArity)
	}
	degree := max(t.Degree(), b.Degree()) + 1
	if degree > MaxDegree {
		return Transform{}, fmt.Errorf("lerp degree %d: %w", degree, ErrDegree)
	}

	param := Unit(t.inputs)
	eqs := make([]Polynomial, len(t.eqs))
	for j := range t.eqs {
		ea, eb := t.eqs[j], b.eqs[j]
		monos := make(map[Exponents]struct{}, len(ea.terms)+len(eb.terms))
		for _, term := range ea.terms {
			monos[term.Exp] = struct{}{}
		}
		for _, term := range eb.terms {
			monos[term.Exp] = struct{}{}
		}
		acc := make(map[Exponents]float64, 2*len(monos))
		for e := range monos {
			ca, cb := ea.Coefficient(e), eb.Coefficient(e)
			slope := (cb - ca) / (pb - pa)
			acc[e] += ca - slope*pa
			acc[e.Add(param)] += slope
		}
		eqs[j] = fromMap(n, degree, acc)
	}
	return Transform{inputs: n, eqs: eqs}, nil
}

// Evaluate computes all outputs at the input vector in. len(in) must be at least Inputs()
// and len(out) at least Outputs(). It does not allocate.
func (t Transform) Evaluate(in, out []float64) {
	var pow [MaxVars][MaxDegree + 1]float64
	degree := t.Degree()
	for v := 0; v < t.inputs; v++ {
		pow[v][0] = 1
		for k := 1; k <= degree; k++ {
			pow[v][k] = pow[v][k-1] * in[v]
		}
	}
	for j, eq := range t.eqs {
		sum := 0.0
		for _, term := range eq.terms {
			m := term.Coeff
			for v := 0; v < t.inputs; v++ {
				if e := term.Exp[v]; e != 0 {
					m *= pow[v][e]
				}
			}
			sum += m
		}
		out[j] = sum
	}
}

// Constants returns the constant term of every output.
func (t Transform) Constants() []float64 {
	out := make([]float64, len(t.eqs))
	for j, e := range t.eqs {
		out[j] = e.ConstantTerm()
	}
	return out
}

// LinearPart returns the degree-1 coefficients as an Outputs() x Inputs() matrix, i.e. the
// Jacobian of the transform at the origin.
func (t Transform) LinearPart() *mat.Dense {
	m := mat.NewDense(len(t.eqs), t.inputs, nil)
	for j, e := range t.eqs {
		for i := 0; i < t.inputs; i++ {
			m.Set(j, i, e.Coefficient(Unit(i)))
		}
	}
	return m
}

// ApproxEqual reports whether both transforms have the same shape and approximately equal
// coefficients (see Polynomial.ApproxEqual).
func (t Transform) ApproxEqual(b Transform, tol float64) bool {
	if t.inputs != b.inputs || len(t.eqs) != len(b.eqs) {
		return false
	}
	for j := range t.eqs {
		if !t.eqs[j].ApproxEqual(b.eqs[j], tol) {
			return false
		}
	}
	return true
}

// MaxAbsDiff evaluates both transforms at in and returns the largest absolute difference
// over the outputs. It is meant for diagnostics and tests.
func (t Transform) MaxAbsDiff(b Transform, in []float64) float64 {
	oa := make([]float64, t.Outputs())
	ob := make([]float64, b.Outputs())
	t.Evaluate(in, oa)
	b.Evaluate(in, ob)
	d := 0.0
	for j := range oa {
		d = math.Max(d, math.Abs(oa[j]-ob[j]))
	}
	return d
}

func (t Transform) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Transform %d -> %d (degree %d)\n", t.inputs, len(t.eqs), t.Degree())
	for j, e := range t.eqs {
		fmt.Fprintf(&sb, "  out[%d] = %v\n", j, e)
	}
	return sb.String()
}
