package poly

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// randomPolynomial builds a polynomial with random coefficients on random monomials.
// When noConstant is set the constant monomial is never used.
func randomPolynomial(random *rand.Rand, nvars, degree, nterms int, noConstant bool) Polynomial {
	terms := make([]Term, 0, nterms)
	for len(terms) < nterms {
		var e Exponents
		budget := random.Intn(degree + 1)
		for k := 0; k < budget; k++ {
			e[random.Intn(nvars)]++
		}
		if noConstant && e.IsConstant() {
			continue
		}
		terms = append(terms, Term{Exp: e, Coeff: random.Float64()*2 - 1})
	}
	p, err := NewPolynomial(nvars, degree, terms...)
	if err != nil {
		panic(err)
	}
	return p
}

func TestPolynomial_AddAssociative(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	for i := 0; i < 20; i++ {
		p := randomPolynomial(random, 3, 4, 8, false)
		q := randomPolynomial(random, 3, 4, 8, false)
		r := randomPolynomial(random, 3, 4, 8, false)

		left := p.Add(q).Add(r)
		right := p.Add(q.Add(r))
		if !left.ApproxEqual(right, 1e-12) {
			t.Fatalf("(p+q)+r != p+(q+r):\n%v\n%v", left, right)
		}
	}
}

func TestPolynomial_CombinesEqualExponents(t *testing.T) {
	p, err := NewPolynomial(2, 3,
		Term{Exp: Mono(1, 1), Coeff: 2},
		Term{Exp: Mono(1, 1), Coeff: 3},
		Term{Exp: Mono(0, 0), Coeff: 1},
	)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}
	if p.Len() != 2 {
		t.Errorf("Expected 2 terms after combining, got %d", p.Len())
	}
	if c := p.Coefficient(Mono(1, 1)); c != 5 {
		t.Errorf("Expected combined coefficient 5, got %f", c)
	}
	if c := p.ConstantTerm(); c != 1 {
		t.Errorf("Expected constant term 1, got %f", c)
	}
}

func TestPolynomial_DropsTermsAboveDegree(t *testing.T) {
	p, err := NewPolynomial(2, 2,
		Term{Exp: Mono(2, 1), Coeff: 1},
		Term{Exp: Mono(1, 0), Coeff: 4},
	)
	if err != nil {
		t.Fatalf("NewPolynomial: %v", err)
	}
	if p.Len() != 1 || p.Coefficient(Mono(1, 0)) != 4 {
		t.Errorf("Expected only the linear term to survive, got %v", p)
	}
}

func TestNewPolynomial_Errors(t *testing.T) {
	tests := []struct {
		name   string
		nvars  int
		degree int
		terms  []Term
		want   error
	}{
		{"zero degree", 2, 0, nil, ErrDegree},
		{"degree too large", 2, MaxDegree + 1, nil, ErrDegree},
		{"too many variables", MaxVars + 1, 3, nil, ErrArity},
		{"term outside variables", 2, 3, []Term{{Exp: Mono(0, 0, 1), Coeff: 1}}, ErrVariable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPolynomial(tt.nvars, tt.degree, tt.terms...)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestPolynomial_MulTruncates(t *testing.T) {
	x := Variable(2, 3, 0)
	y := Variable(2, 3, 1)
	p := x.AddConstant(1).Mul(y.AddConstant(1)) // 1 + x + y + xy
	cube := p.Pow(3)

	if cube.TotalDegree() > 3 {
		t.Errorf("Expected total degree <= 3, got %d", cube.TotalDegree())
	}
	// (1+x)^3 (1+y)^3 has x^2*y coefficient 3*3 = 9
	if c := cube.Coefficient(Mono(2, 1)); math.Abs(c-9) > 1e-12 {
		t.Errorf("Expected x^2*y coefficient 9, got %f", c)
	}
	if c := cube.Coefficient(Mono(2, 2)); c != 0 {
		t.Errorf("Expected degree-4 term to be dropped, got %f", c)
	}
}

func TestPolynomial_TruncateIdempotent(t *testing.T) {
	random := rand.New(rand.NewSource(7))
	for i := 0; i < 10; i++ {
		p := randomPolynomial(random, 3, 5, 10, false)
		q := randomPolynomial(random, 3, 5, 10, false)
		once := p.Mul(q).Truncate(3)
		twice := once.Truncate(3)
		if !once.ApproxEqual(twice, 0) {
			t.Fatalf("Truncating twice changed the polynomial:\n%v\n%v", once, twice)
		}
		if once.Degree() != 3 {
			t.Errorf("Expected bound 3, got %d", once.Degree())
		}
	}
}

func TestPolynomial_TruncateNeverRaises(t *testing.T) {
	p := Variable(1, 2, 0)
	if got := p.Truncate(5).Degree(); got != 2 {
		t.Errorf("Expected bound to stay at 2, got %d", got)
	}
}

func TestPolynomial_MulByOne(t *testing.T) {
	random := rand.New(rand.NewSource(3))
	for i := 0; i < 10; i++ {
		p := randomPolynomial(random, 4, 3, 12, false)
		one := Constant(4, 3, 1)
		if !p.Mul(one).ApproxEqual(p, 0) || !one.Mul(p).ApproxEqual(p, 0) {
			t.Fatalf("Multiplying by 1 changed %v", p)
		}
	}
}

func TestPolynomial_Evaluate(t *testing.T) {
	p, _ := NewPolynomial(2, 3,
		Term{Exp: Mono(0, 0), Coeff: 1},
		Term{Exp: Mono(1, 0), Coeff: 2},
		Term{Exp: Mono(1, 2), Coeff: -0.5},
	)
	x := []float64{3, 2}
	want := 1 + 2*3 - 0.5*3*4
	if got := p.Evaluate(x); math.Abs(got-want) > 1e-12 {
		t.Errorf("Evaluate = %f, expected %f", got, want)
	}
}

func TestPolynomial_CanonicalDropsZeros(t *testing.T) {
	x := Variable(1, 2, 0)
	p := x.Sub(x).AddConstant(2)
	if p.Len() != 2 {
		t.Fatalf("Expected the zero x term to be kept before canonicalisation, got %d terms", p.Len())
	}
	if c := p.Canonical(); c.Len() != 1 {
		t.Errorf("Expected 1 term after Canonical, got %d", c.Len())
	}
	if !p.ApproxEqual(p.Canonical(), 0) {
		t.Error("Canonical changed the value of the polynomial")
	}
}
