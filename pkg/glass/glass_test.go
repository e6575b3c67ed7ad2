package glass

import (
	"errors"
	"math"
	"slices"
	"testing"
)

func TestRefractiveIndex_Catalogue(t *testing.T) {
	// nd from the manufacturer data sheets
	tests := []struct {
		name string
		nd   float64
		abbe float64
	}{
		{"N-BK7", 1.5168, 64.17},
		{"N-SSK8", 1.61773, 49.83},
		{"N-SF10", 1.72828, 28.53},
		{"N-SF5", 1.67271, 32.25},
		{"N-SF11", 1.78472, 25.68},
		{"N-BAF10", 1.67003, 47.11},
		{"F2", 1.62004, 36.37},
		{"fused-silica", 1.45846, 67.82},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, err := RefractiveIndex(tt.name, LineD)
			if err != nil {
				t.Fatalf("RefractiveIndex: %v", err)
			}
			if math.Abs(n-tt.nd) > 1e-4 {
				t.Errorf("nd = %.5f, expected %.5f", n, tt.nd)
			}
			v, err := AbbeNumber(tt.name)
			if err != nil {
				t.Fatalf("AbbeNumber: %v", err)
			}
			if math.Abs(v-tt.abbe) > 0.05 {
				t.Errorf("Abbe number %.2f, expected %.2f", v, tt.abbe)
			}
		})
	}
}

func TestRefractiveIndex_NormalDispersion(t *testing.T) {
	prev := math.Inf(1)
	for lambda := 400.0; lambda <= 700; lambda += 20 {
		n, err := RefractiveIndex("N-SF10", lambda)
		if err != nil {
			t.Fatalf("RefractiveIndex: %v", err)
		}
		if n >= prev {
			t.Errorf("Index %g at %g nm is not below %g", n, lambda, prev)
		}
		prev = n
	}
}

func TestRefractiveIndex_CaseInsensitive(t *testing.T) {
	a, _ := RefractiveIndex("n-bk7", 550)
	b, _ := RefractiveIndex(" N-BK7 ", 550)
	if a != b || a == 0 {
		t.Errorf("Expected equal non-zero indices, got %g and %g", a, b)
	}
}

func TestRefractiveIndex_Errors(t *testing.T) {
	tests := []struct {
		name   string
		glass  string
		lambda float64
	}{
		{"unknown glass", "unobtainium", 550},
		{"below range", "N-BK7", 200},
		{"above range", "N-BK7", 3000},
		{"NaN wavelength", "air", math.NaN()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := RefractiveIndex(tt.glass, tt.lambda); !errors.Is(err, ErrUnknownMaterial) {
				t.Errorf("Expected ErrUnknownMaterial, got %v", err)
			}
		})
	}
}

func TestRegister(t *testing.T) {
	if err := Register("test-water", Constant(1.333)); err != nil {
		t.Fatalf("Register: %v", err)
	}
	n, err := RefractiveIndex("TEST-WATER", 589)
	if err != nil {
		t.Fatalf("RefractiveIndex: %v", err)
	}
	if n != 1.333 {
		t.Errorf("Expected 1.333, got %g", n)
	}
	if !slices.Contains(Names(), "TEST-WATER") {
		t.Error("Registered material missing from Names")
	}
	if v, _ := AbbeNumber("test-water"); !math.IsInf(v, 1) {
		t.Errorf("Expected infinite Abbe number for a constant medium, got %g", v)
	}

	if err := Register("", Constant(1)); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("Expected an error for an empty name, got %v", err)
	}
	if err := Register("nil", nil); !errors.Is(err, ErrUnknownMaterial) {
		t.Errorf("Expected an error for a nil material, got %v", err)
	}
}

func TestNames_Sorted(t *testing.T) {
	names := Names()
	if !slices.IsSorted(names) {
		t.Errorf("Names not sorted: %v", names)
	}
	for _, want := range []string{"AIR", "N-BK7", "N-SF10", "N-SSK8"} {
		if !slices.Contains(names, want) {
			t.Errorf("Missing %s", want)
		}
	}
}
