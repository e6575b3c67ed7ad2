package loaders

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"

	"github.com/df07/go-polynomial-optics/pkg/core"
)

// Portable float map: a text header "PF" (colour) or "Pf" (grey), "width height" and a
// scale whose sign gives the byte order (negative = little endian), followed by float32
// samples with the bottom row first.

// readToken returns the next whitespace-separated header token and consumes exactly one
// whitespace byte after it.
func readToken(r *bufio.Reader) (string, error) {
	var tok []byte
	for {
		b, err := r.ReadByte()
		if err != nil {
			return "", err
		}
		switch b {
		case ' ', '\t', '\n', '\r':
			if len(tok) > 0 {
				return string(tok), nil
			}
		default:
			tok = append(tok, b)
		}
	}
}

// Largest accepted PFM dimensions
const (
	maxPFMSide   = 1 << 15
	maxPFMPixels = 1 << 26
)

// ReadPFM decodes a PFM stream. Headers larger than maxPFMSide per side or maxPFMPixels
// in total are rejected with ErrInvalidFormat.
func ReadPFM(reader io.Reader) (*ImageData, error) {
	r := bufio.NewReader(reader)
	magic, err := readToken(r)
	if err != nil {
		return nil, fmt.Errorf("pfm header: %v: %w", err, ErrInvalidFormat)
	}
	channels := 0
	switch magic {
	case "PF":
		channels = 3
	case "Pf":
		channels = 1
	default:
		return nil, fmt.Errorf("pfm magic %q: %w", magic, ErrInvalidFormat)
	}

	var fields [3]string
	for i := range fields {
		if fields[i], err = readToken(r); err != nil {
			return nil, fmt.Errorf("pfm header: %v: %w", err, ErrInvalidFormat)
		}
	}
	width, errW := strconv.Atoi(fields[0])
	height, errH := strconv.Atoi(fields[1])
	scale, errS := strconv.ParseFloat(fields[2], 64)
	if errW != nil || errH != nil || errS != nil || width <= 0 || height <= 0 || scale == 0 {
		return nil, fmt.Errorf("pfm header %q %q %q: %w", fields[0], fields[1], fields[2], ErrInvalidFormat)
	}
	if width > maxPFMSide || height > maxPFMSide || width*height > maxPFMPixels {
		return nil, fmt.Errorf("pfm size %dx%d too large: %w", width, height, ErrInvalidFormat)
	}

	var order binary.ByteOrder = binary.BigEndian
	if scale < 0 {
		order = binary.LittleEndian
	}

	// rows are collected before the image is allocated, so memory follows the input
	// actually read rather than the header
	rows := make([][]float32, 0, min(height, 64))
	for y := height - 1; y >= 0; y-- {
		row := make([]float32, width*channels)
		if err := binary.Read(r, order, row); err != nil {
			return nil, fmt.Errorf("pfm row %d: %v: %w", y, err, ErrInvalidFormat)
		}
		rows = append(rows, row)
	}

	data := NewImageData(width, height)
	for k, row := range rows {
		y := height - 1 - k
		for x := 0; x < width; x++ {
			if channels == 1 {
				data.Set(x, y, core.Gray(float64(row[x])))
				continue
			}
			data.Set(x, y, core.NewRGB(float64(row[3*x]), float64(row[3*x+1]), float64(row[3*x+2])))
		}
	}
	return data, nil
}

// LoadPFM reads a PFM file
func LoadPFM(filename string) (*ImageData, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open PFM file: %w", err)
	}
	defer file.Close()
	return ReadPFM(file)
}

// WritePFM encodes a colour PFM in little-endian byte order
func WritePFM(w io.Writer, img *ImageData) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "PF\n%d %d\n-1.0\n", img.Width, img.Height); err != nil {
		return err
	}
	row := make([]float32, 3*img.Width)
	for y := img.Height - 1; y >= 0; y-- {
		for x := 0; x < img.Width; x++ {
			c := img.At(x, y)
			row[3*x], row[3*x+1], row[3*x+2] = toFloat32(c.R), toFloat32(c.G), toFloat32(c.B)
		}
		if err := binary.Write(bw, binary.LittleEndian, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func toFloat32(v float64) float32 {
	if math.IsNaN(v) {
		return 0
	}
	return float32(v)
}

// SavePFM writes img to filename as PFM
func SavePFM(filename string, img *ImageData) error {
	file, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", filename, err)
	}
	if err := WritePFM(file, img); err != nil {
		file.Close()
		return fmt.Errorf("failed to write PFM: %w", err)
	}
	return file.Close()
}
