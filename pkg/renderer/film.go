package renderer

import (
	"image"
	"math"

	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
)

// Film accumulates linear RGB energy on the sensor grid. Pixel centres sit on integer
// coordinates.
type Film struct {
	Width, Height int
	Pix           []core.RGB
}

// NewFilm creates a black film
func NewFilm(width, height int) *Film {
	return &Film{Width: width, Height: height, Pix: make([]core.RGB, width*height)}
}

// At returns pixel (x, y)
func (f *Film) At(x, y int) core.RGB {
	return f.Pix[y*f.Width+x]
}

func (f *Film) add(x, y int, c core.RGB) bool {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return false
	}
	k := y*f.Width + x
	f.Pix[k] = f.Pix[k].Add(c)
	return true
}

// AddBilinear splats c over the four pixels around (x, y). Neighbours outside the film are
// skipped; the result reports whether any energy landed.
func (f *Film) AddBilinear(x, y float64, c core.RGB) bool {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	i, j := int(x0), int(y0)

	hit := f.add(i, j, c.Multiply((1-fx)*(1-fy)))
	hit = f.add(i+1, j, c.Multiply(fx*(1-fy))) || hit
	hit = f.add(i, j+1, c.Multiply((1-fx)*fy)) || hit
	hit = f.add(i+1, j+1, c.Multiply(fx*fy)) || hit
	return hit
}

// Merge adds other into f. Both films must have the same size.
func (f *Film) Merge(other *Film) {
	for k := range f.Pix {
		f.Pix[k] = f.Pix[k].Add(other.Pix[k])
	}
}

// Clone returns a copy of the film
func (f *Film) Clone() *Film {
	c := NewFilm(f.Width, f.Height)
	copy(c.Pix, f.Pix)
	return c
}

// Reset clears the film to black
func (f *Film) Reset() {
	clear(f.Pix)
}

// GamutRepair raises every channel to at least floor times the largest channel of its
// pixel, and never below zero. Negative channels from the spectral weights are removed this
// way. Applying it twice changes nothing.
func (f *Film) GamutRepair(floor float64) {
	for k, c := range f.Pix {
		m := floor * max(c.MaxChannel(), 0)
		f.Pix[k] = core.NewRGB(max(c.R, m), max(c.G, m), max(c.B, m))
	}
}

// TotalEnergy sums each channel over the film
func (f *Film) TotalEnergy() core.RGB {
	var sum core.RGB
	for _, c := range f.Pix {
		sum = sum.Add(c)
	}
	return sum
}

// AverageLuminance returns the mean pixel luminance, used to pick a preview exposure
func (f *Film) AverageLuminance() float64 {
	if len(f.Pix) == 0 {
		return 0
	}
	var total float64
	for _, c := range f.Pix {
		total += c.Luminance()
	}
	return total / float64(len(f.Pix))
}

// AutoExposure returns the exposure that maps the average luminance to middle grey, or 1
// for a black film
func (f *Film) AutoExposure() float64 {
	avg := f.AverageLuminance()
	if !(avg > 0) {
		return 1
	}
	return 0.18 / avg
}

// Image returns the film as loader image data sharing no memory with the film
func (f *Film) Image() *loaders.ImageData {
	img := loaders.NewImageData(f.Width, f.Height)
	copy(img.Pixels, f.Pix)
	return img
}

// ToRGBA converts the film to an 8-bit preview with gamma 2
func (f *Film) ToRGBA(exposure float64) *image.RGBA {
	return f.Image().ToRGBA(exposure)
}
