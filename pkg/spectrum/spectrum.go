// Package spectrum converts between RGB colours and spectral power at single wavelengths.
// RGB to spectrum uses Smits' basis spectra; spectrum to RGB goes through the CIE 1931
// colour matching functions into linear sRGB.
package spectrum

import (
	"math"

	"github.com/df07/go-polynomial-optics/pkg/core"
)

// DefaultWavelength is used when a single wavelength is rendered.
const DefaultWavelength = 550.0

// Smits' basis spectra: ten bins of equal width over [smitsStart, smitsEnd] nanometres.
const (
	smitsStart = 380.0
	smitsEnd   = 720.0
	smitsBins  = 10
)

var (
	smitsWhite   = [smitsBins]float64{1.0000, 1.0000, 0.9999, 0.9993, 0.9992, 0.9998, 1.0000, 1.0000, 1.0000, 1.0000}
	smitsCyan    = [smitsBins]float64{0.9710, 0.9426, 1.0007, 1.0007, 1.0007, 1.0007, 0.1564, 0.0000, 0.0000, 0.0000}
	smitsMagenta = [smitsBins]float64{1.0000, 1.0000, 0.9685, 0.2229, 0.0000, 0.0458, 0.8369, 1.0000, 1.0000, 0.9959}
	smitsYellow  = [smitsBins]float64{0.0001, 0.0000, 0.1088, 0.6651, 1.0000, 1.0000, 0.9996, 0.9586, 0.9685, 0.9840}
	smitsRed     = [smitsBins]float64{0.1012, 0.0515, 0.0000, 0.0000, 0.0000, 0.0000, 0.8325, 1.0149, 1.0149, 1.0149}
	smitsGreen   = [smitsBins]float64{0.0000, 0.0000, 0.0273, 0.7937, 1.0000, 0.9418, 0.1719, 0.0000, 0.0000, 0.0025}
	smitsBlue    = [smitsBins]float64{1.0000, 1.0000, 0.8916, 0.3323, 0.0000, 0.0000, 0.0003, 0.0369, 0.0483, 0.0496}
)

func smitsBin(lambda float64) int {
	i := int(math.Floor((lambda - smitsStart) / ((smitsEnd - smitsStart) / smitsBins)))
	return max(0, min(smitsBins-1, i))
}

// RGBToSpectralPower returns the spectral power at lambda nanometres of the smooth spectrum
// that reproduces the linear colour c. Wavelengths outside 380-720 nm use the nearest bin.
func RGBToSpectralPower(lambda float64, c core.RGB) float64 {
	b := smitsBin(lambda)
	r, g, bl := c.R, c.G, c.B
	switch {
	case r <= g && r <= bl:
		p := r * smitsWhite[b]
		if g <= bl {
			return p + (g-r)*smitsCyan[b] + (bl-g)*smitsBlue[b]
		}
		return p + (bl-r)*smitsCyan[b] + (g-bl)*smitsGreen[b]
	case g <= r && g <= bl:
		p := g * smitsWhite[b]
		if r <= bl {
			return p + (r-g)*smitsMagenta[b] + (bl-r)*smitsBlue[b]
		}
		return p + (bl-g)*smitsMagenta[b] + (r-bl)*smitsRed[b]
	default:
		p := bl * smitsWhite[b]
		if r <= g {
			return p + (r-bl)*smitsYellow[b] + (g-r)*smitsGreen[b]
		}
		return p + (g-bl)*smitsYellow[b] + (r-g)*smitsRed[b]
	}
}

// lobe is one asymmetric Gaussian of the multi-lobe colour matching function fit.
func lobe(lambda, mu, sigmaLow, sigmaHigh float64) float64 {
	s := sigmaHigh
	if lambda < mu {
		s = sigmaLow
	}
	t := (lambda - mu) / s
	return math.Exp(-0.5 * t * t)
}

// CIEXYZ returns the CIE 1931 2° colour matching functions at lambda nanometres using the
// multi-lobe Gaussian fit of Wyman, Sloan and Shirley (2013).
func CIEXYZ(lambda float64) (x, y, z float64) {
	x = 1.056*lobe(lambda, 599.8, 37.9, 31.0) + 0.362*lobe(lambda, 442.0, 16.0, 26.7) - 0.065*lobe(lambda, 501.1, 20.4, 26.2)
	y = 0.821*lobe(lambda, 568.8, 46.9, 40.5) + 0.286*lobe(lambda, 530.9, 16.3, 31.1)
	z = 1.217*lobe(lambda, 437.0, 11.8, 36.0) + 0.681*lobe(lambda, 459.0, 26.0, 13.8)
	return x, y, z
}

// XYZToLinearSRGB converts CIE XYZ to linear sRGB (D65 white).
func XYZToLinearSRGB(x, y, z float64) core.RGB {
	return core.RGB{
		R: 3.2404542*x - 1.5371385*y - 0.4985314*z,
		G: -0.9692660*x + 1.8760108*y + 0.0415560*z,
		B: 0.0556434*x - 0.2040259*y + 1.0572252*z,
	}
}

// WavelengthToRGB returns the linear sRGB colour of monochromatic light of the given power.
// Channels may be negative: spectral colours lie outside the sRGB gamut.
func WavelengthToRGB(lambda, power float64) core.RGB {
	return XYZToLinearSRGB(CIEXYZ(lambda)).Multiply(power)
}

// Weights returns one RGB weight per wavelength such that a flat unit spectrum sampled at
// lambdas sums to (1, 1, 1). With a single wavelength every channel weight is 1, so the
// image comes out in neutral grey.
func Weights(lambdas []float64) []core.RGB {
	raw := make([]core.RGB, len(lambdas))
	var sum core.RGB
	for i, l := range lambdas {
		raw[i] = WavelengthToRGB(l, 1)
		sum = sum.Add(raw[i])
	}
	n := float64(len(lambdas))
	norm := func(v, total float64) float64 {
		if math.Abs(total) < 1e-9 {
			return 1 / n
		}
		return v / total
	}
	out := make([]core.RGB, len(lambdas))
	for i, c := range raw {
		out[i] = core.RGB{R: norm(c.R, sum.R), G: norm(c.G, sum.G), B: norm(c.B, sum.B)}
	}
	return out
}

// SampleWavelengths returns n wavelengths spaced evenly over [from, to]. A single
// wavelength is always single.
func SampleWavelengths(n int, from, to, single float64) []float64 {
	if n <= 1 {
		return []float64{single}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = from + (to-from)*float64(i)/float64(n-1)
	}
	return out
}
