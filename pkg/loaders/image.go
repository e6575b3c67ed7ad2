package loaders

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg" // JPEG decoder
	"image/png"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-polynomial-optics/pkg/core"
)

// ErrInvalidFormat reports malformed image or lens files.
var ErrInvalidFormat = errors.New("invalid format")

// displayGamma is the gamma assumed for 8-bit source images and applied to previews.
const displayGamma = 2.0

// ImageData contains a linear RGB image in row-major order, top row first
type ImageData struct {
	Width  int
	Height int
	Pixels []core.RGB
}

// NewImageData creates a black image
func NewImageData(width, height int) *ImageData {
	return &ImageData{Width: width, Height: height, Pixels: make([]core.RGB, width*height)}
}

// At returns pixel (i, j), or black outside the image
func (d *ImageData) At(i, j int) core.RGB {
	if i < 0 || j < 0 || i >= d.Width || j >= d.Height {
		return core.RGB{}
	}
	return d.Pixels[j*d.Width+i]
}

// Set stores pixel (i, j)
func (d *ImageData) Set(i, j int, c core.RGB) {
	d.Pixels[j*d.Width+i] = c
}

// Bilinear interpolates the four pixels around (x, y). Pixel centres sit on integer
// coordinates and neighbours outside the image count as black.
func (d *ImageData) Bilinear(x, y float64) core.RGB {
	x0, y0 := math.Floor(x), math.Floor(y)
	fx, fy := x-x0, y-y0
	i, j := int(x0), int(y0)

	c := d.At(i, j).Multiply((1 - fx) * (1 - fy))
	c = c.Add(d.At(i+1, j).Multiply(fx * (1 - fy)))
	c = c.Add(d.At(i, j+1).Multiply((1 - fx) * fy))
	return c.Add(d.At(i+1, j+1).Multiply(fx * fy))
}

// LoadImage loads a source image as linear RGB. PFM files are read as-is; PNG and JPEG
// files are decoded and linearised with gamma 2.
func LoadImage(filename string) (*ImageData, error) {
	if strings.EqualFold(filepath.Ext(filename), ".pfm") {
		return LoadPFM(filename)
	}

	// Open file
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open image file: %w", err)
	}
	defer file.Close()

	// Decode image (auto-detects PNG/JPEG from file header)
	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image: %v: %w", err, ErrInvalidFormat)
	}

	bounds := img.Bounds()
	data := NewImageData(bounds.Dx(), bounds.Dy())
	for y := 0; y < data.Height; y++ {
		for x := 0; x < data.Width; x++ {
			r, g, b, _ := img.At(x+bounds.Min.X, y+bounds.Min.Y).RGBA()
			// RGBA returns uint32 in [0, 65535], convert to [0, 1]
			c := core.NewRGB(float64(r)/65535.0, float64(g)/65535.0, float64(b)/65535.0)
			data.Set(x, y, c.Linearize(displayGamma))
		}
	}
	return data, nil
}

// ToRGBA converts linear RGB to an 8-bit image with gamma 2, scaling by exposure first
func (d *ImageData) ToRGBA(exposure float64) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, d.Width, d.Height))
	for j := 0; j < d.Height; j++ {
		for i := 0; i < d.Width; i++ {
			c := d.At(i, j).Multiply(exposure).Clamp(0, 1).GammaCorrect(displayGamma)
			k := img.PixOffset(i, j)
			img.Pix[k+0] = uint8(255 * c.R)
			img.Pix[k+1] = uint8(255 * c.G)
			img.Pix[k+2] = uint8(255 * c.B)
			img.Pix[k+3] = 255
		}
	}
	return img
}

// SavePNG writes an image as PNG
func SavePNG(filename string, img image.Image) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := png.Encode(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to encode PNG: %w", err)
	}
	return file.Close()
}
