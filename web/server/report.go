package server

import (
	"bytes"
	"net/http"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/report"
)

// handleReport serves the chromatic focus and spot size charts of a lens as HTML
func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lensName := q.Get("lens")
	if lensName == "" {
		lensName = "achromat" // Default lens
	}

	cfg := config.Default()
	var err error
	if cfg.NumLambdas, err = intParam(q, "lambdas", cfg.NumLambdas); err != nil {
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
	rays, err := parseIntParam(q, "rays", 1000, 10, 100000)
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

	lambdas := cfg.Wavelengths()
	focus, err := report.ChromaticFocus(p, cfg.Degree, setup.Axis, lambdas)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	spots, err := report.TraceSpots(setup, lambdas, rays, cfg.Degree, cfg.Seed, cfg.MaxApertureTries)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Render fully before writing so a failure can still become a JSON error
	var buf bytes.Buffer
	if err := report.WriteCharts(&buf, p.Name, focus, spots); err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
