package poly

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

func randomTransform(random *rand.Rand, inputs, outputs, degree int, noConstant bool) Transform {
	eqs := make([]Polynomial, outputs)
	for j := range eqs {
		eqs[j] = randomPolynomial(random, inputs, degree, 10, noConstant)
	}
	tr, err := NewTransform(eqs...)
	if err != nil {
		panic(err)
	}
	return tr
}

func TestTransform_ComposeIdentity(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	a := randomTransform(random, 3, 2, 3, false)

	left, err := Identity(3, 3).Compose(a)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !left.ApproxEqual(a, 1e-12) {
		t.Errorf("Identity >> a != a:\n%v\n%v", left, a)
	}

	right, err := a.Compose(Identity(2, 3))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !right.ApproxEqual(a, 1e-12) {
		t.Errorf("a >> Identity != a:\n%v\n%v", right, a)
	}
}

func TestTransform_ComposeAssociative(t *testing.T) {
	random := rand.New(rand.NewSource(5))
	a := randomTransform(random, 3, 3, 3, true)
	b := randomTransform(random, 3, 3, 3, true)
	c := randomTransform(random, 3, 2, 3, true)

	ab, _ := a.Compose(b)
	left, err := ab.Compose(c)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	bc, _ := b.Compose(c)
	right, err := a.Compose(bc)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if !left.ApproxEqual(right, 1e-9) {
		t.Errorf("(a>>b)>>c != a>>(b>>c):\n%v\n%v", left, right)
	}

	// both chains also agree pointwise
	in := make([]float64, 3)
	for k := 0; k < 20; k++ {
		for i := range in {
			in[i] = random.Float64() - 0.5
		}
		if d := left.MaxAbsDiff(right, in); d > 1e-8 {
			t.Errorf("Chains differ by %g at %v", d, in)
		}
	}
}

func TestTransform_ComposeExpandsHigherTermsThroughConstants(t *testing.T) {
	// a: x -> 1 + x, b: y -> y^3 truncated at 3; composing at degree 1 must keep
	// the constant and linear parts of (1+x)^3 = 1 + 3x + ...
	x := Variable(1, 1, 0)
	a, _ := NewTransform(x.AddConstant(1))
	cube, _ := NewPolynomial(1, 3, Term{Exp: Mono(3), Coeff: 1})
	b, _ := NewTransform(cube)

	ab, err := a.Compose(b)
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	eq := ab.Equation(0)
	if eq.Degree() != 1 {
		t.Errorf("Expected degree 1, got %d", eq.Degree())
	}
	if got := eq.ConstantTerm(); math.Abs(got-1) > 1e-12 {
		t.Errorf("Expected constant 1, got %g", got)
	}
	if got := eq.Coefficient(Mono(1)); math.Abs(got-3) > 1e-12 {
		t.Errorf("Expected linear coefficient 3, got %g", got)
	}
}

func TestTransform_ComposeEvaluatesLikeNestedCall(t *testing.T) {
	// Linear maps compose exactly regardless of the truncation degree.
	x := Variable(2, 2, 0)
	y := Variable(2, 2, 1)
	a, _ := NewTransform(x.Scale(2).Add(y), y.Sub(x).AddConstant(0.5))
	b, _ := NewTransform(x.Mul(y), x.Add(y.Scale(3)))

	ab, _ := a.Compose(b)
	in := []float64{0.3, -0.7}
	mid := make([]float64, 2)
	want := make([]float64, 2)
	got := make([]float64, 2)
	a.Evaluate(in, mid)
	b.Evaluate(mid, want)
	ab.Evaluate(in, got)
	for j := range want {
		if math.Abs(got[j]-want[j]) > 1e-12 {
			t.Errorf("out[%d] = %g, expected %g", j, got[j], want[j])
		}
	}
}

func TestTransform_ComposeArityMismatch(t *testing.T) {
	a := Identity(3, 2)
	b := Identity(2, 2)
	if _, err := a.Compose(b); !errors.Is(err, ErrArity) {
		t.Errorf("Expected ErrArity, got %v", err)
	}
}

func TestTransform_Chain(t *testing.T) {
	random := rand.New(rand.NewSource(9))
	a := randomTransform(random, 2, 2, 3, true)
	b := randomTransform(random, 2, 2, 3, true)

	chained, err := Chain(a, b, Identity(2, 3))
	if err != nil {
		t.Fatalf("Chain: %v", err)
	}
	direct, _ := a.Compose(b)
	if !chained.ApproxEqual(direct, 1e-12) {
		t.Errorf("Chain(a, b, I) != a >> b")
	}

	if _, err := Chain(); !errors.Is(err, ErrArity) {
		t.Errorf("Expected ErrArity for an empty chain, got %v", err)
	}
}

func TestTransform_BakeInput(t *testing.T) {
	random := rand.New(rand.NewSource(21))
	tr := randomTransform(random, 4, 3, 3, false)

	for idx := 0; idx < 4; idx++ {
		baked, err := tr.BakeInput(idx, 0.37)
		if err != nil {
			t.Fatalf("BakeInput(%d): %v", idx, err)
		}
		if baked.Inputs() != 3 || baked.Outputs() != 3 {
			t.Fatalf("Expected 3 -> 3 after baking, got %d -> %d", baked.Inputs(), baked.Outputs())
		}

		for trial := 0; trial < 5; trial++ {
			short := []float64{random.Float64(), random.Float64(), random.Float64()}
			full := make([]float64, 0, 4)
			full = append(full, short[:idx]...)
			full = append(full, 0.37)
			full = append(full, short[idx:]...)

			want := make([]float64, 3)
			got := make([]float64, 3)
			tr.Evaluate(full, want)
			baked.Evaluate(short, got)
			for j := range want {
				if math.Abs(got[j]-want[j]) > 1e-12 {
					t.Errorf("idx %d: out[%d] = %g, expected %g", idx, j, got[j], want[j])
				}
			}
		}
	}

	if _, err := tr.BakeInput(4, 1); !errors.Is(err, ErrVariable) {
		t.Errorf("Expected ErrVariable for out-of-range input, got %v", err)
	}
}

func TestTransform_DropEquation(t *testing.T) {
	random := rand.New(rand.NewSource(2))
	tr := randomTransform(random, 2, 3, 2, false)

	dropped, err := tr.DropEquation(1)
	if err != nil {
		t.Fatalf("DropEquation: %v", err)
	}
	if dropped.Outputs() != 2 || dropped.Inputs() != 2 {
		t.Fatalf("Expected 2 -> 2, got %d -> %d", dropped.Inputs(), dropped.Outputs())
	}
	if !dropped.Equation(0).ApproxEqual(tr.Equation(0), 0) || !dropped.Equation(1).ApproxEqual(tr.Equation(2), 0) {
		t.Error("Remaining equations were changed or reordered")
	}
	if tr.Outputs() != 3 {
		t.Error("DropEquation modified its receiver")
	}
	if _, err := tr.DropEquation(3); !errors.Is(err, ErrVariable) {
		t.Errorf("Expected ErrVariable, got %v", err)
	}
}

func TestTransform_WithEquation(t *testing.T) {
	tr := Identity(2, 2)
	p := Variable(2, 2, 0).Mul(Variable(2, 2, 1))

	replaced, err := tr.WithEquation(1, p)
	if err != nil {
		t.Fatalf("WithEquation: %v", err)
	}
	if !replaced.Equation(1).ApproxEqual(p, 0) {
		t.Error("Equation was not replaced")
	}
	if !tr.Equation(1).ApproxEqual(Variable(2, 2, 1), 0) {
		t.Error("WithEquation modified its receiver")
	}
	if _, err := tr.WithEquation(0, Variable(3, 2, 0)); !errors.Is(err, ErrArity) {
		t.Errorf("Expected ErrArity, got %v", err)
	}
}

func TestTransform_Extend(t *testing.T) {
	x := Variable(1, 3, 0)
	tr, _ := NewTransform(x.Mul(x).AddConstant(1))

	ext, err := tr.Extend(2)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if ext.Inputs() != 3 || ext.Outputs() != 3 {
		t.Fatalf("Expected 3 -> 3, got %d -> %d", ext.Inputs(), ext.Outputs())
	}
	out := make([]float64, 3)
	ext.Evaluate([]float64{2, 5, -1}, out)
	want := []float64{5, 5, -1}
	for j := range want {
		if math.Abs(out[j]-want[j]) > 1e-12 {
			t.Errorf("out[%d] = %g, expected %g", j, out[j], want[j])
		}
	}

	if _, err := tr.Extend(MaxVars); !errors.Is(err, ErrArity) {
		t.Errorf("Expected ErrArity beyond MaxVars, got %v", err)
	}
}

func TestTransform_LerpWith(t *testing.T) {
	x := Variable(2, 2, 0)
	y := Variable(2, 2, 1)
	a, _ := NewTransform(x.Add(y.Scale(2)))
	b, _ := NewTransform(x.Scale(3).Add(y.Mul(y)))

	lerp, err := a.LerpWith(b, 10, 20)
	if err != nil {
		t.Fatalf("LerpWith: %v", err)
	}
	if lerp.Inputs() != 3 {
		t.Fatalf("Expected 3 inputs, got %d", lerp.Inputs())
	}
	if lerp.Degree() != 3 {
		t.Errorf("Expected degree 3, got %d", lerp.Degree())
	}

	tests := []struct {
		name  string
		param float64
		want  func(x, y float64) float64
	}{
		{"at first anchor", 10, func(x, y float64) float64 { return x + 2*y }},
		{"at second anchor", 20, func(x, y float64) float64 { return 3*x + y*y }},
		{"midway", 15, func(x, y float64) float64 { return 0.5*(x+2*y) + 0.5*(3*x+y*y) }},
		{"extrapolated", 30, func(x, y float64) float64 { return 2*(3*x+y*y) - (x + 2*y) }},
	}

	out := make([]float64, 1)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lerp.Evaluate([]float64{0.4, -1.2, tt.param}, out)
			if want := tt.want(0.4, -1.2); math.Abs(out[0]-want) > 1e-12 {
				t.Errorf("Got %g, expected %g", out[0], want)
			}
		})
	}
}

func TestTransform_LerpWithErrors(t *testing.T) {
	a := Identity(2, 2)
	if _, err := a.LerpWith(a, 1, 1); !errors.Is(err, ErrDegenerateLerp) {
		t.Errorf("Expected ErrDegenerateLerp, got %v", err)
	}
	if _, err := a.LerpWith(Identity(3, 2), 1, 2); !errors.Is(err, ErrArity) {
		t.Errorf("Expected ErrArity, got %v", err)
	}
	high := Identity(2, MaxDegree)
	if _, err := high.LerpWith(high, 1, 2); !errors.Is(err, ErrDegree) {
		t.Errorf("Expected ErrDegree, got %v", err)
	}
}

func TestTransform_LinearPart(t *testing.T) {
	x := Variable(2, 3, 0)
	y := Variable(2, 3, 1)
	tr, _ := NewTransform(x.Scale(2).Add(x.Mul(y)).AddConstant(4), y.Scale(-1).Add(x.Scale(0.5)))

	m := tr.LinearPart()
	rows, cols := m.Dims()
	if rows != 2 || cols != 2 {
		t.Fatalf("Expected 2x2, got %dx%d", rows, cols)
	}
	want := [2][2]float64{{2, 0}, {0.5, -1}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if m.At(i, j) != want[i][j] {
				t.Errorf("M[%d][%d] = %g, expected %g", i, j, m.At(i, j), want[i][j])
			}
		}
	}
	if c := tr.Constants(); c[0] != 4 || c[1] != 0 {
		t.Errorf("Constants = %v, expected [4 0]", c)
	}
}

func TestTransform_EvaluateMatchesPolynomial(t *testing.T) {
	random := rand.New(rand.NewSource(13))
	tr := randomTransform(random, 5, 4, 4, false)
	in := []float64{0.1, -0.2, 0.3, 0.05, -0.4}
	out := make([]float64, 4)
	tr.Evaluate(in, out)
	for j := range out {
		if want := tr.Equation(j).Evaluate(in); math.Abs(out[j]-want) > 1e-12 {
			t.Errorf("out[%d] = %g, expected %g", j, out[j], want)
		}
	}
}

func TestTransform_EvaluateDoesNotAllocate(t *testing.T) {
	random := rand.New(rand.NewSource(17))
	tr := randomTransform(random, 4, 3, 3, false)
	in := []float64{0.1, 0.2, 0.3, 0.4}
	out := make([]float64, 3)
	allocs := testing.AllocsPerRun(100, func() {
		tr.Evaluate(in, out)
	})
	if allocs != 0 {
		t.Errorf("Evaluate allocated %v times per call", allocs)
	}
}
