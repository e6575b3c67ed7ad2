package loaders

import "github.com/df07/go-polynomial-optics/pkg/core"

// NewPointChart creates a black test chart with a white point every spacing pixels.
// Point sources show the blur and colour fringes of a lens directly.
func NewPointChart(width, height, spacing int) *ImageData {
	img := NewImageData(width, height)
	if spacing < 1 {
		spacing = 1
	}
	for y := spacing / 2; y < height; y += spacing {
		for x := spacing / 2; x < width; x += spacing {
			img.Set(x, y, core.Gray(1))
		}
	}
	return img
}

// NewCheckerboard creates a checkerboard of two colours with squares of checkSize pixels
func NewCheckerboard(width, height, checkSize int, color1, color2 core.RGB) *ImageData {
	img := NewImageData(width, height)
	if checkSize < 1 {
		checkSize = 1
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if (x/checkSize+y/checkSize)%2 == 0 {
				img.Set(x, y, color1)
			} else {
				img.Set(x, y, color2)
			}
		}
	}
	return img
}
