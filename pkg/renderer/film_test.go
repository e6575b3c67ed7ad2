package renderer

import (
	"math"
	"math/rand"
	"testing"

	"github.com/df07/go-polynomial-optics/pkg/core"
)

func TestFilm_AddBilinear(t *testing.T) {
	film := NewFilm(4, 4)
	if !film.AddBilinear(1.25, 2.5, core.Gray(8)) {
		t.Fatal("Splat inside the film reported as missed")
	}

	expected := map[[2]int]float64{
		{1, 2}: 8 * 0.75 * 0.5,
		{2, 2}: 8 * 0.25 * 0.5,
		{1, 3}: 8 * 0.75 * 0.5,
		{2, 3}: 8 * 0.25 * 0.5,
	}
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			if got := film.At(x, y).G; math.Abs(got-expected[[2]int{x, y}]) > 1e-12 {
				t.Errorf("Pixel (%d, %d) = %g, expected %g", x, y, got, expected[[2]int{x, y}])
			}
		}
	}
	if e := film.TotalEnergy(); math.Abs(e.R-8) > 1e-12 {
		t.Errorf("Total energy %g, expected 8", e.R)
	}
}

func TestFilm_AddBilinearEdges(t *testing.T) {
	tests := []struct {
		name   string
		x, y   float64
		hit    bool
		energy float64
	}{
		{"corner pixel", 0, 0, true, 1},
		{"half outside", -0.5, 0, true, 0.5},
		{"right edge", 3.5, 1, true, 0.5},
		{"outside", -2, 1, false, 0},
		{"far away", 1e9, -1e9, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			film := NewFilm(4, 3)
			if hit := film.AddBilinear(tt.x, tt.y, core.Gray(1)); hit != tt.hit {
				t.Errorf("AddBilinear hit = %v, expected %v", hit, tt.hit)
			}
			if e := film.TotalEnergy().B; math.Abs(e-tt.energy) > 1e-12 {
				t.Errorf("Energy on film %g, expected %g", e, tt.energy)
			}
		})
	}
}

func TestFilm_GamutRepair(t *testing.T) {
	tests := []struct {
		name     string
		in       core.RGB
		expected core.RGB
	}{
		{"in gamut", core.NewRGB(1, 0.5, 0.25), core.NewRGB(1, 0.5, 0.25)},
		{"negative channel", core.NewRGB(1, -0.2, 0.5), core.NewRGB(1, 0.02, 0.5)},
		{"small channel", core.NewRGB(0.001, 2, 1), core.NewRGB(0.04, 2, 1)},
		{"all negative", core.NewRGB(-1, -2, -3), core.NewRGB(0, 0, 0)},
		{"black", core.RGB{}, core.RGB{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			film := NewFilm(1, 1)
			film.Pix[0] = tt.in
			film.GamutRepair(0.02)
			got := film.At(0, 0)
			if math.Abs(got.R-tt.expected.R) > 1e-12 || math.Abs(got.G-tt.expected.G) > 1e-12 || math.Abs(got.B-tt.expected.B) > 1e-12 {
				t.Errorf("GamutRepair(%v) = %v, expected %v", tt.in, got, tt.expected)
			}
		})
	}
}

func TestFilm_GamutRepairIdempotent(t *testing.T) {
	random := rand.New(rand.NewSource(42))
	film := NewFilm(16, 16)
	for k := range film.Pix {
		film.Pix[k] = core.NewRGB(random.Float64()*2-0.5, random.Float64()*2-0.5, random.Float64()*2-0.5)
	}

	film.GamutRepair(0.02)
	once := film.Clone()
	film.GamutRepair(0.02)

	for k := range film.Pix {
		if film.Pix[k] != once.Pix[k] {
			t.Fatalf("Pixel %d changed on second repair: %v -> %v", k, once.Pix[k], film.Pix[k])
		}
		c := film.Pix[k]
		if floor := 0.02 * c.MaxChannel(); c.R < floor || c.G < floor || c.B < floor {
			t.Errorf("Pixel %d = %v has a channel below the floor %g", k, c, floor)
		}
	}
}

func TestFilm_MergeAndReset(t *testing.T) {
	a := NewFilm(2, 2)
	b := NewFilm(2, 2)
	a.AddBilinear(0, 0, core.NewRGB(1, 2, 3))
	b.AddBilinear(0, 0, core.NewRGB(1, 1, 1))
	b.AddBilinear(1, 1, core.NewRGB(5, 5, 5))

	a.Merge(b)
	if a.At(0, 0) != core.NewRGB(2, 3, 4) || a.At(1, 1) != core.NewRGB(5, 5, 5) {
		t.Errorf("Unexpected merge result %v", a.Pix)
	}
	if b.At(0, 0) != core.NewRGB(1, 1, 1) {
		t.Error("Merge modified its argument")
	}

	a.Reset()
	if e := a.TotalEnergy(); e != (core.RGB{}) {
		t.Errorf("Reset film has energy %v", e)
	}
}

func TestFilm_AutoExposure(t *testing.T) {
	film := NewFilm(2, 1)
	if exp := film.AutoExposure(); exp != 1 {
		t.Errorf("Black film exposure = %g, expected 1", exp)
	}

	film.Pix[0] = core.Gray(0.72)
	// average luminance 0.36
	if exp := film.AutoExposure(); math.Abs(exp-0.5) > 1e-12 {
		t.Errorf("AutoExposure = %g, expected 0.5", exp)
	}
	if exp := ExposureFor(film, 2); exp != 2 {
		t.Errorf("Explicit exposure ignored: %g", exp)
	}
	if exp := ExposureFor(film, 0); math.Abs(exp-0.5) > 1e-12 {
		t.Errorf("ExposureFor(0) = %g, expected automatic 0.5", exp)
	}

	img := film.ToRGBA(1)
	if img.Bounds().Dx() != 2 || img.Bounds().Dy() != 1 {
		t.Errorf("Preview size %v", img.Bounds())
	}
}
