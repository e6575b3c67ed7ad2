package server

import (
	"math"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/optics"
)

// InspectResponse describes one ray traced through the lens polynomial
type InspectResponse struct {
	Lens        string     `json:"lens"`
	Lambda      float64    `json:"lambda"`
	Object      [2]float64 `json:"object"`      // mm on the object plane
	Aperture    [2]float64 `json:"aperture"`    // mm on the entrance pupil
	InsidePupil bool       `json:"insidePupil"` // the renderer only samples inside the pupil
	Sensor      [2]float64 `json:"sensor"`      // mm on the sensor
	Direction   [2]float64 `json:"direction"`   // x and y of the unit exit direction
	SinSquared  float64    `json:"sinSquared"`  // squared sine of the exit angle
	Pixel       [2]float64 `json:"pixel"`       // sensor position in pixels
	OnSensor    bool       `json:"onSensor"`
	Focus       float64    `json:"focus"` // back focal distance, mm
}

// loadLens resolves a preset or a lens file in the server's lens directory. Paths are
// rejected so clients cannot read arbitrary files.
func (s *Server) loadLens(name string) (*lens.Prescription, error) {
	if strings.ContainsAny(name, `/\`) || filepath.Ext(name) != "" || strings.HasPrefix(name, ".") {
		return nil, lens.ErrUnknownLens
	}
	return lens.Load(name, s.lensDir)
}

// inspectRay traces (x, y) through the pupil point (xa, ya) at lambda
func inspectRay(setup *lens.Setup, cfg config.Render, lambda, x, y, xa, ya float64) InspectResponse {
	in := []float64{x, y, xa, ya, lambda}
	ray := make([]float64, setup.Spectral.Outputs())
	setup.Spectral.Evaluate(in, ray)
	helper := make([]float64, setup.Lambert.Outputs())
	setup.Lambert.Evaluate(in, helper)

	scale := cfg.SensorScale()
	pixel := [2]float64{
		ray[optics.VarX]*scale + float64(cfg.SensorXRes)/2,
		ray[optics.VarY]*scale + float64(cfg.SensorYRes)/2,
	}
	return InspectResponse{
		Lambda:      lambda,
		Object:      [2]float64{x, y},
		Aperture:    [2]float64{xa, ya},
		InsidePupil: core.NewVec2(xa, ya).LengthSquared() <= setup.PupilRadius*setup.PupilRadius,
		Sensor:      [2]float64{ray[optics.VarX], ray[optics.VarY]},
		Direction:   [2]float64{ray[optics.VarDX], ray[optics.VarDY]},
		SinSquared:  helper[2],
		Pixel:       pixel,
		OnSensor: pixel[0] >= 0 && pixel[0] < float64(cfg.SensorXRes) &&
			pixel[1] >= 0 && pixel[1] < float64(cfg.SensorYRes),
		Focus: setup.Focus,
	}
}

// handleInspect traces a single ray through the focused lens
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lensName := q.Get("lens")
	if lensName == "" {
		lensName = "achromat" // Default lens
	}

	cfg := config.Default()
	var err error
	if cfg.Degree, err = intParam(q, "degree", cfg.Degree); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.Defocus, err = floatParam(q, "defocus", cfg.Defocus); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.PupilRadius, err = floatParam(q, "pupil", cfg.PupilRadius); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.SensorXRes, err = intParam(q, "width", 640); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if cfg.SensorYRes, err = intParam(q, "height", 360); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	coords := map[string]float64{}
	for _, key := range []string{"x", "y", "xa", "ya"} {
		if coords[key], err = parseFloatParam(q, key, 0, -1e6, 1e6); err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	lambda, err := parseFloatParam(q, "lambda", cfg.FocusLambda, 380, 780)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	p, err := s.loadLens(lensName)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	setup, err := lens.Pipeline(p, cfg, core.NopLogger{})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	response := inspectRay(setup, cfg, lambda, coords["x"], coords["y"], coords["xa"], coords["ya"])
	response.Lens = p.Name
	if !finiteResponse(response) {
		writeJSONError(w, http.StatusUnprocessableEntity, "ray left the valid range of the lens polynomial")
		return
	}
	writeJSON(w, http.StatusOK, response)
}

// finiteResponse reports whether the response can be encoded as JSON
func finiteResponse(r InspectResponse) bool {
	for _, v := range []float64{r.Sensor[0], r.Sensor[1], r.Direction[0], r.Direction[1], r.SinSquared, r.Pixel[0], r.Pixel[1]} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
