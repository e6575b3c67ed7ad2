package loaders

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

// LensFile is a parsed lens prescription.
//
// The format is line based; '#' starts a comment:
//
//	name Edmund NT32-921
//	object 5e6
//	pupil 19.5
//	surface spherical radius=65.22 thickness=9.6 material=N-SSK8
//	surface flat thickness=2 material=air
type LensFile struct {
	Name           string
	ObjectDistance float64
	PupilRadius    float64
	Surfaces       []SurfaceStatement
}

// SurfaceStatement is one "surface" line. The material is the medium behind the surface
// and the thickness the distance to the next surface.
type SurfaceStatement struct {
	Kind      string // spherical, cylindrical-x, cylindrical-y or flat
	Radius    float64
	Thickness float64
	Material  string
	Line      int
}

var surfaceKinds = map[string]bool{
	"spherical":     true,
	"cylindrical-x": true,
	"cylindrical-y": true,
	"flat":          true,
}

// lensParser holds the state of a prescription being parsed
type lensParser struct {
	lens   *LensFile
	lineNo int
}

// ParseLens parses a lens prescription from an io.Reader
func ParseLens(reader io.Reader) (*LensFile, error) {
	parser := &lensParser{lens: &LensFile{}}

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {
		parser.lineNo++
		if err := parser.processLine(scanner.Text()); err != nil {
			return nil, err
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading input: %v", err)
	}
	if len(parser.lens.Surfaces) == 0 {
		return nil, fmt.Errorf("lens %q has no surfaces: %w", parser.lens.Name, ErrInvalidFormat)
	}
	return parser.lens, nil
}

// LoadLens loads and parses a lens prescription file
func LoadLens(filename string) (*LensFile, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open lens file: %w", err)
	}
	defer file.Close()

	lens, err := ParseLens(file)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filename, err)
	}
	return lens, nil
}

func (p *lensParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("line %d: %s: %w", p.lineNo, fmt.Sprintf(format, args...), ErrInvalidFormat)
}

func (p *lensParser) processLine(line string) error {
	if i := strings.IndexByte(line, '#'); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" {
		return nil
	}

	keyword := strings.Fields(line)[0]
	rest := strings.TrimSpace(line[len(keyword):])
	switch keyword {
	case "name":
		p.lens.Name = strings.Trim(rest, `"`)
		return nil
	case "object":
		return p.parseNumber(rest, &p.lens.ObjectDistance)
	case "pupil":
		return p.parseNumber(rest, &p.lens.PupilRadius)
	case "surface":
		return p.processSurface(rest)
	default:
		return p.errorf("unknown statement %q", keyword)
	}
}

func (p *lensParser) parseNumber(field string, dst *float64) error {
	v, err := strconv.ParseFloat(field, 64)
	if err != nil {
		return p.errorf("invalid number %q", field)
	}
	*dst = v
	return nil
}

func (p *lensParser) processSurface(rest string) error {
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return p.errorf("surface without kind")
	}
	s := SurfaceStatement{
		Kind:     strings.ToLower(fields[0]),
		Radius:   math.Inf(1),
		Material: "air",
		Line:     p.lineNo,
	}
	if !surfaceKinds[s.Kind] {
		return p.errorf("unknown surface kind %q", fields[0])
	}

	hasRadius := false
	for _, f := range fields[1:] {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return p.errorf("expected key=value, got %q", f)
		}
		switch key {
		case "radius":
			if err := p.parseNumber(value, &s.Radius); err != nil {
				return err
			}
			hasRadius = true
		case "thickness":
			if err := p.parseNumber(value, &s.Thickness); err != nil {
				return err
			}
		case "material":
			s.Material = value
		default:
			return p.errorf("unknown surface parameter %q", key)
		}
	}
	if s.Kind != "flat" && !hasRadius {
		return p.errorf("%s surface needs a radius", s.Kind)
	}
	p.lens.Surfaces = append(p.lens.Surfaces, s)
	return nil
}
