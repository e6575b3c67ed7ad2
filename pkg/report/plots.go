package report

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/df07/go-polynomial-optics/pkg/spectrum"
)

// wavelengthColor is the displayable colour of monochromatic light: the linear sRGB value
// clipped to the gamut, scaled so the brightest channel is full and gamma encoded.
func wavelengthColor(lambda float64) color.NRGBA {
	c := spectrum.WavelengthToRGB(lambda, 1).Clamp(0, math.Inf(1))
	m := c.MaxChannel()
	if m <= 0 {
		return color.NRGBA{A: 255}
	}
	c = c.Multiply(1 / m).GammaCorrect(2.2)
	return color.NRGBA{
		R: uint8(255 * c.R),
		G: uint8(255 * c.G),
		B: uint8(255 * c.B),
		A: 255,
	}
}

// SpotDiagram plots the spots in sensor millimetres, one colour per wavelength. The image
// format follows the extension of path.
func SpotDiagram(path, lensName string, spots []Spot) error {
	p := plot.New()
	p.Title.Text = "Spot diagram: " + lensName
	p.X.Label.Text = "x (mm)"
	p.Y.Label.Text = "y (mm)"

	for _, s := range spots {
		if len(s.X) == 0 {
			continue
		}
		pts := make(plotter.XYs, len(s.X))
		for k := range s.X {
			pts[k] = plotter.XY{X: s.X[k], Y: s.Y[k]}
		}
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return fmt.Errorf("spot at %g nm: %w", s.Lambda, err)
		}
		scatter.GlyphStyle.Color = wavelengthColor(s.Lambda)
		scatter.GlyphStyle.Radius = vg.Points(1)
		scatter.GlyphStyle.Shape = draw.CircleGlyph{}
		p.Add(scatter)
		p.Legend.Add(fmt.Sprintf("%.0f nm", s.Lambda), scatter)
	}
	p.Add(plotter.NewGrid())

	if err := p.Save(5*vg.Inch, 5*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save spot diagram: %w", err)
	}
	return nil
}

// FocusPlot plots back focus against wavelength
func FocusPlot(path, lensName string, samples []FocusSample) error {
	p := plot.New()
	p.Title.Text = "Chromatic focus shift: " + lensName
	p.X.Label.Text = "wavelength (nm)"
	p.Y.Label.Text = "back focus (mm)"

	pts := make(plotter.XYs, len(samples))
	for i, s := range samples {
		pts[i] = plotter.XY{X: s.Lambda, Y: s.BackFocus}
	}
	if err := plotutil.AddLinePoints(p, "back focus", pts); err != nil {
		return fmt.Errorf("focus curve: %w", err)
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return fmt.Errorf("failed to save focus plot: %w", err)
	}
	return nil
}
