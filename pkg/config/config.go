// Package config holds the render settings shared by the command line, the lens pipeline
// and the renderer.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"

	"github.com/df07/go-polynomial-optics/pkg/poly"
	"github.com/df07/go-polynomial-optics/pkg/spectrum"
)

// ErrConfiguration is returned for settings that cannot produce a render.
var ErrConfiguration = errors.New("configuration error")

// Render contains all settings of a spectral lens render
type Render struct {
	Degree        int `json:"degree"`        // Truncation degree of the lens system
	LambertDegree int `json:"lambertDegree"` // Truncation degree of the exit-angle helper

	SampleMul        float64 `json:"sampleMul"`        // Samples per unit of spectral power
	PupilRadius      float64 `json:"pupilRadius"`      // Entrance pupil radius in mm
	MaxApertureTries int     `json:"maxApertureTries"` // Rejection cap before the concentric fallback

	NumLambdas   int     `json:"numLambdas"`
	LambdaFrom   float64 `json:"lambdaFrom"`   // nm
	LambdaTo     float64 `json:"lambdaTo"`     // nm
	SingleLambda float64 `json:"singleLambda"` // used when NumLambdas == 1
	FocusLambda  float64 `json:"focusLambda"`  // wavelength the back focus is computed at
	AnchorA      float64 `json:"anchorA"`      // spectral interpolation anchors
	AnchorB      float64 `json:"anchorB"`

	SensorWidth float64 `json:"sensorWidth"` // mm
	SensorXRes  int     `json:"sensorXRes"`
	SensorYRes  int     `json:"sensorYRes"`
	Defocus     float64 `json:"defocus"` // added to the back focal distance, mm

	Workers    int     `json:"workers"`    // 0 = use CPU count
	BandHeight int     `json:"bandHeight"` // source rows per worker task
	Seed       int64   `json:"seed"`
	GamutFloor float64 `json:"gamutFloor"` // minimum channel as a fraction of the pixel's max
}

// Default returns the settings of the reference achromat render.
func Default() Render {
	return Render{
		Degree:           3,
		LambertDegree:    2,
		SampleMul:        1000,
		PupilRadius:      19.5,
		MaxApertureTries: 64,
		NumLambdas:       12,
		LambdaFrom:       440,
		LambdaTo:         660,
		SingleLambda:     spectrum.DefaultWavelength,
		FocusLambda:      550,
		AnchorA:          500,
		AnchorB:          600,
		SensorWidth:      36,
		SensorXRes:       1920,
		SensorYRes:       1080,
		Workers:          0,
		BandHeight:       8,
		Seed:             42,
		GamutFloor:       0.02,
	}
}

// Load reads a JSON settings file. Fields missing from the file keep their Default values.
func Load(path string) (Render, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config %s: %v: %w", path, err, ErrConfiguration)
	}
	return cfg, cfg.Validate()
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 1)
}

// Validate reports every invalid setting, each wrapped with ErrConfiguration.
func (c Render) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...interface{}) {
		if !ok {
			errs = append(errs, fmt.Errorf("%s: %w", fmt.Sprintf(format, args...), ErrConfiguration))
		}
	}

	check(c.Degree >= 1 && c.Degree <= poly.MaxDegree, "degree %d outside [1, %d]", c.Degree, poly.MaxDegree)
	check(c.LambertDegree >= 1 && c.LambertDegree <= poly.MaxDegree, "lambert degree %d outside [1, %d]", c.LambertDegree, poly.MaxDegree)
	check(positive(c.SampleMul), "sample multiplier %g must be positive", c.SampleMul)
	check(positive(c.PupilRadius), "pupil radius %g must be positive", c.PupilRadius)
	check(c.MaxApertureTries > 0, "aperture tries %d must be positive", c.MaxApertureTries)
	check(c.NumLambdas >= 1, "need at least one wavelength, got %d", c.NumLambdas)
	if c.NumLambdas > 1 {
		check(positive(c.LambdaFrom) && c.LambdaFrom < c.LambdaTo, "empty wavelength range [%g, %g]", c.LambdaFrom, c.LambdaTo)
	} else {
		check(positive(c.SingleLambda), "single wavelength %g must be positive", c.SingleLambda)
	}
	check(positive(c.FocusLambda), "focus wavelength %g must be positive", c.FocusLambda)
	check(positive(c.AnchorA) && positive(c.AnchorB) && c.AnchorA != c.AnchorB, "interpolation anchors %g and %g", c.AnchorA, c.AnchorB)
	check(positive(c.SensorWidth), "sensor width %g must be positive", c.SensorWidth)
	check(c.SensorXRes > 0 && c.SensorYRes > 0, "sensor resolution %dx%d", c.SensorXRes, c.SensorYRes)
	check(!math.IsNaN(c.Defocus) && !math.IsInf(c.Defocus, 0), "defocus %g", c.Defocus)
	check(c.Workers >= 0, "workers %d must not be negative", c.Workers)
	check(c.BandHeight > 0, "band height %d must be positive", c.BandHeight)
	check(c.GamutFloor >= 0 && c.GamutFloor <= 1, "gamut floor %g outside [0, 1]", c.GamutFloor)

	return errors.Join(errs...)
}

// Wavelengths returns the rendered wavelengths in nanometres.
func (c Render) Wavelengths() []float64 {
	return spectrum.SampleWavelengths(c.NumLambdas, c.LambdaFrom, c.LambdaTo, c.SingleLambda)
}

// SensorScale returns sensor pixels per millimetre.
func (c Render) SensorScale() float64 {
	return float64(c.SensorXRes) / c.SensorWidth
}
