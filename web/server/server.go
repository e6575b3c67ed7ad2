package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/optics"
)

// Server handles web requests for the spectral lens renderer
type Server struct {
	port      int
	lensDir   string
	staticDir string
	logger    core.Logger
}

// NewServer creates a new web server that finds lens files in lensDir
func NewServer(port int, lensDir, staticDir string) *Server {
	return &Server{
		port:      port,
		lensDir:   lensDir,
		staticDir: staticDir,
		logger:    core.NewDefaultLogger(),
	}
}

// Handler returns the routes of the server
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/", http.FileServer(http.Dir(s.staticDir)))

	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/lenses", s.handleLenses)
	mux.HandleFunc("/api/lens-config", s.handleLensConfig)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/report", s.handleReport)
	return mux
}

// Start starts the web server
func (s *Server) Start() error {
	addr := fmt.Sprintf(":%d", s.port)
	log.Printf("Starting web server on http://localhost%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleLenses lists the presets and lens files
func (s *Server) handleLenses(w http.ResponseWriter, r *http.Request) {
	lenses, err := lens.ListAll(s.lensDir)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"lenses": lenses})
}

// SurfaceInfo describes one surface of a prescription in JSON
type SurfaceInfo struct {
	Kind      string  `json:"kind"`
	Radius    float64 `json:"radius"` // 0 for flat surfaces
	Thickness float64 `json:"thickness"`
	Material  string  `json:"material"`
}

func surfaceInfo(p *lens.Prescription) []SurfaceInfo {
	surfaces := make([]SurfaceInfo, len(p.Surfaces))
	for i, surf := range p.Surfaces {
		radius := surf.Radius
		if surf.Kind == lens.Flat {
			radius = 0
		}
		surfaces[i] = SurfaceInfo{Kind: string(surf.Kind), Radius: radius, Thickness: surf.Thickness, Material: surf.Material}
	}
	return surfaces
}

// handleLensConfig returns a lens prescription, its first-order properties, and the
// render defaults with validation limits
func (s *Server) handleLensConfig(w http.ResponseWriter, r *http.Request) {
	lensName := r.URL.Query().Get("lens")
	if lensName == "" {
		lensName = "achromat" // Default lens
	}

	p, err := s.loadLens(lensName)
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	glasses, err := p.Glasses()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	defaults := config.Default()
	paraxial := map[string]interface{}{}
	for _, axis := range []optics.Axis{optics.AxisX, optics.AxisY} {
		px, err := p.Paraxial(defaults.FocusLambda, axis)
		if errors.Is(err, optics.ErrDegenerateSystem) {
			paraxial[axis.String()] = nil
			continue
		}
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		paraxial[axis.String()] = map[string]float64{"efl": px.EFL, "bfd": px.BFD, "ffd": px.FFD}
	}

	response := map[string]interface{}{
		"lens":           lensName,
		"name":           p.Name,
		"objectDistance": p.ObjectDistance,
		"pupilRadius":    p.PupilRadius,
		"surfaces":       surfaceInfo(p),
		"glasses":        glasses,
		"paraxial":       paraxial,
		"defaults": map[string]interface{}{
			"degree":      defaults.Degree,
			"sampleMul":   defaults.SampleMul,
			"numLambdas":  defaults.NumLambdas,
			"pupilRadius": defaults.PupilRadius,
			"defocus":     defaults.Defocus,
			"focusLambda": defaults.FocusLambda,
		},
		"limits": requestLimits,
	}
	writeJSON(w, http.StatusOK, response)
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if !(parsed >= min && parsed <= max) {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
