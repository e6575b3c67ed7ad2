package spectrum

import (
	"math"
	"testing"

	"github.com/df07/go-polynomial-optics/pkg/core"
)

func TestRGBToSpectralPower_White(t *testing.T) {
	for lambda := 380.0; lambda <= 720; lambda += 10 {
		if p := RGBToSpectralPower(lambda, core.Gray(1)); math.Abs(p-1) > 1e-3 {
			t.Errorf("White at %g nm has power %g", lambda, p)
		}
	}
}

func TestRGBToSpectralPower_Linear(t *testing.T) {
	c := core.NewRGB(0.3, 0.7, 0.1)
	for _, lambda := range []float64{450, 550, 650} {
		p1 := RGBToSpectralPower(lambda, c)
		p2 := RGBToSpectralPower(lambda, c.Multiply(2))
		if math.Abs(p2-2*p1) > 1e-12 {
			t.Errorf("%g nm: power of 2c is %g, expected %g", lambda, p2, 2*p1)
		}
	}
	if p := RGBToSpectralPower(550, core.Gray(0)); p != 0 {
		t.Errorf("Black has power %g", p)
	}
}

func TestRGBToSpectralPower_Primaries(t *testing.T) {
	tests := []struct {
		name   string
		color  core.RGB
		bright float64 // wavelength where the spectrum is high
		dark   float64 // wavelength where it is low
	}{
		{"red", core.NewRGB(1, 0, 0), 650, 500},
		{"green", core.NewRGB(0, 1, 0), 540, 440},
		{"blue", core.NewRGB(0, 0, 1), 440, 600},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hi := RGBToSpectralPower(tt.bright, tt.color)
			lo := RGBToSpectralPower(tt.dark, tt.color)
			if hi < 0.9 || lo > 0.1 {
				t.Errorf("Power %g at %g nm and %g at %g nm", hi, tt.bright, lo, tt.dark)
			}
		})
	}
}

func TestWavelengthToRGB(t *testing.T) {
	tests := []struct {
		name     string
		lambda   float64
		dominant int
	}{
		{"blue", 450, 2},
		{"green", 530, 1},
		{"red", 650, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := WavelengthToRGB(tt.lambda, 1)
			for ch := 0; ch < 3; ch++ {
				if ch != tt.dominant && c.Channel(ch) >= c.Channel(tt.dominant) {
					t.Errorf("%g nm = %v, expected channel %d to dominate", tt.lambda, c, tt.dominant)
				}
			}
		})
	}

	// The fitted luminosity function peaks near 1 at 555 nm.
	if _, y, _ := CIEXYZ(555); math.Abs(y-1) > 0.01 {
		t.Errorf("y(555) = %g, expected about 1", y)
	}
	if c := WavelengthToRGB(600, 0); c != (core.RGB{}) {
		t.Errorf("Zero power gave %v", c)
	}
}

func TestWeights_FlatSpectrumIsWhite(t *testing.T) {
	lambdas := SampleWavelengths(12, 440, 660, DefaultWavelength)
	weights := Weights(lambdas)

	var sum core.RGB
	for _, w := range weights {
		sum = sum.Add(w)
	}
	for ch := 0; ch < 3; ch++ {
		if math.Abs(sum.Channel(ch)-1) > 1e-12 {
			t.Errorf("Channel %d sums to %g", ch, sum.Channel(ch))
		}
	}
}

func TestWeights_SingleWavelengthIsGray(t *testing.T) {
	w := Weights([]float64{DefaultWavelength})
	if w[0] != core.Gray(1) {
		t.Errorf("Expected neutral weight, got %v", w[0])
	}
}

func TestWeights_RoundTrip(t *testing.T) {
	lambdas := SampleWavelengths(12, 440, 660, DefaultWavelength)
	weights := Weights(lambdas)

	tests := []struct {
		name      string
		color     core.RGB
		tolerance float64
	}{
		{"white", core.Gray(1), 1e-3},
		{"mixed", core.NewRGB(0.2, 0.5, 0.8), 0.05},
		{"red", core.NewRGB(1, 0, 0), 0.1},
		{"blue", core.NewRGB(0, 0, 1), 0.1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out core.RGB
			for i, l := range lambdas {
				out = out.Add(weights[i].Multiply(RGBToSpectralPower(l, tt.color)))
			}
			for ch := 0; ch < 3; ch++ {
				if math.Abs(out.Channel(ch)-tt.color.Channel(ch)) > tt.tolerance {
					t.Errorf("Channel %d = %g, expected %g", ch, out.Channel(ch), tt.color.Channel(ch))
				}
			}
		})
	}
}

func TestSampleWavelengths(t *testing.T) {
	got := SampleWavelengths(3, 400, 600, 550)
	want := []float64{400, 500, 600}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("lambda[%d] = %g, expected %g", i, got[i], want[i])
		}
	}
	if single := SampleWavelengths(1, 400, 600, 550); len(single) != 1 || single[0] != 550 {
		t.Errorf("Single wavelength mode gave %v", single)
	}
}
