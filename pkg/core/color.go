package core

import "math"

// RGB is a linear colour triple
type RGB struct {
	R, G, B float64
}

// NewRGB creates a new RGB
func NewRGB(r, g, b float64) RGB {
	return RGB{R: r, G: g, B: b}
}

// Gray returns the neutral colour with all channels set to v
func Gray(v float64) RGB {
	return RGB{v, v, v}
}

// Add returns the channel-wise sum of two colours
func (c RGB) Add(other RGB) RGB {
	return RGB{c.R + other.R, c.G + other.G, c.B + other.B}
}

// Multiply returns the colour scaled by a scalar
func (c RGB) Multiply(scalar float64) RGB {
	return RGB{c.R * scalar, c.G * scalar, c.B * scalar}
}

// MultiplyRGB returns the channel-wise product of two colours
func (c RGB) MultiplyRGB(other RGB) RGB {
	return RGB{c.R * other.R, c.G * other.G, c.B * other.B}
}

// Channel returns channel i (0 = R, 1 = G, 2 = B)
func (c RGB) Channel(i int) float64 {
	switch i {
	case 0:
		return c.R
	case 1:
		return c.G
	default:
		return c.B
	}
}

// MaxChannel returns the largest channel value
func (c RGB) MaxChannel() float64 {
	return max(c.R, c.G, c.B)
}

// Sum returns R+G+B
func (c RGB) Sum() float64 {
	return c.R + c.G + c.B
}

// Luminance returns the perceptual luminance of an RGB color
// Uses standard luminance weights: 0.299*R + 0.587*G + 0.114*B
func (c RGB) Luminance() float64 {
	return 0.299*c.R + 0.587*c.G + 0.114*c.B
}

// Clamp returns a colour with channels clamped to [min, max]
func (c RGB) Clamp(minVal, maxVal float64) RGB {
	return RGB{
		R: max(minVal, min(maxVal, c.R)),
		G: max(minVal, min(maxVal, c.G)),
		B: max(minVal, min(maxVal, c.B)),
	}
}

// GammaCorrect applies gamma correction to color values
func (c RGB) GammaCorrect(gamma float64) RGB {
	invGamma := 1.0 / gamma
	return RGB{
		R: math.Pow(c.R, invGamma),
		G: math.Pow(c.G, invGamma),
		B: math.Pow(c.B, invGamma),
	}
}

// Linearize undoes GammaCorrect
func (c RGB) Linearize(gamma float64) RGB {
	return RGB{
		R: math.Pow(c.R, gamma),
		G: math.Pow(c.G, gamma),
		B: math.Pow(c.B, gamma),
	}
}
