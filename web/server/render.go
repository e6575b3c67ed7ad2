package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/df07/go-polynomial-optics/pkg/config"
	"github.com/df07/go-polynomial-optics/pkg/core"
	"github.com/df07/go-polynomial-optics/pkg/lens"
	"github.com/df07/go-polynomial-optics/pkg/loaders"
	"github.com/df07/go-polynomial-optics/pkg/renderer"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Lens      string  `json:"lens"`      // Preset name or lens file name
	Source    string  `json:"source"`    // Generated source image: "points" or "checker"
	Width     int     `json:"width"`     // Sensor width in pixels
	Height    int     `json:"height"`    // Sensor height in pixels
	Degree    int     `json:"degree"`    // Truncation degree of the lens system
	Lambdas   int     `json:"lambdas"`   // Number of wavelength passes
	SampleMul float64 `json:"sampleMul"` // Samples per unit of spectral power
	Pupil     float64 `json:"pupil"`     // Entrance pupil radius in mm
	Defocus   float64 `json:"defocus"`   // Sensor offset from the back focus in mm
	Seed      int64   `json:"seed"`
}

// requestLimits are the accepted ranges of the numeric request parameters
var requestLimits = map[string][2]float64{
	"width":     {16, 2000},
	"height":    {16, 2000},
	"degree":    {1, 5},
	"lambdas":   {1, 64},
	"sampleMul": {0.1, 10000},
	"pupil":     {0.1, 50},
	"defocus":   {-20, 20},
}

// PassUpdate is sent via SSE after every wavelength pass
type PassUpdate struct {
	PassNumber  int     `json:"passNumber"`
	TotalPasses int     `json:"totalPasses"`
	Lambda      float64 `json:"lambda"`
	ImageData   string  `json:"imageData"` // Base64 encoded PNG
	Stats       Stats   `json:"stats"`
	IsComplete  bool    `json:"isComplete"`
	ElapsedMs   int64   `json:"elapsedMs"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels        int     `json:"totalPixels"`
	TotalSamples       int     `json:"totalSamples"`
	AverageSamples     float64 `json:"averageSamples"`
	MinSamples         int     `json:"minSamples"`
	MaxSamplesUsed     int     `json:"maxSamplesUsed"`
	ApertureRejections int     `json:"apertureRejections"`
	NumericAnomalies   int     `json:"numericAnomalies"`
	OffSensor          int     `json:"offSensor"`
}

// SSEEvent represents a unified SSE event for thread-safe writing
type SSEEvent struct {
	Type string `json:"type"` // "console", "setup", "pass", "error", "complete"
	Data string `json:"data"` // JSON-encoded data
}

// RenderingPipeline contains the focused lens and the renderer built for it
type RenderingPipeline struct {
	Lens     *lens.Prescription
	Setup    *lens.Setup
	Source   *loaders.ImageData
	Renderer *renderer.SpectralRenderer
}

// handleRender handles progressive spectral rendering with one SSE event per pass
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	s.setSSEHeaders(w)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Create unified SSE event channel; the writer goroutine is the only one touching w
	sseEventChan := make(chan SSEEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeSSEEvents(w, ctx, sseEventChan)
	}()
	defer func() {
		close(sseEventChan)
		<-writerDone
	}()

	req, err := s.parseRenderRequest(r)
	if err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	// Setup console logging and streaming
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan, s.logger)
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, sseEventChan)
	}()
	defer func() {
		close(consoleChan)
		<-consoleDone
	}()

	pipeline, err := s.setupRenderingPipeline(req, webLogger)
	if err != nil {
		s.handleError(ctx, sseEventChan, err.Error())
		return
	}
	s.sendJSONEvent(ctx, sseEventChan, "setup", map[string]interface{}{
		"lens":          pipeline.Lens.Name,
		"focus":         pipeline.Setup.Focus,
		"magnification": pipeline.Setup.Magnification,
		"pupilRadius":   pipeline.Setup.PupilRadius,
		"axis":          pipeline.Setup.Axis.String(),
		"wavelengths":   pipeline.Renderer.Wavelengths(),
	})

	startTime := time.Now()
	passChan, errChan := pipeline.Renderer.RenderProgressive(ctx, pipeline.Source)
	s.handleRenderingEvents(ctx, sseEventChan, passChan, errChan, startTime)
}

// setSSEHeaders sets the required headers for Server-Sent Events
func (s *Server) setSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
}

// writeSSEEvents handles writing all SSE events in a single goroutine (thread-safe)
func (s *Server) writeSSEEvents(w http.ResponseWriter, ctx context.Context, sseEventChan <-chan SSEEvent) {
	for event := range sseEventChan {
		// Client gone: keep draining so senders never block
		if ctx.Err() != nil {
			continue
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data); err != nil {
			continue
		}
		if flusher, ok := w.(http.Flusher); ok {
			flusher.Flush()
		}
	}
}

// streamConsoleMessages forwards console messages until the console channel is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, sseEventChan chan<- SSEEvent) {
	for consoleMsg := range consoleChan {
		data, err := json.Marshal(consoleMsg)
		if err != nil {
			log.Printf("Error marshaling console message: %v", err)
			continue
		}

		select {
		case sseEventChan <- SSEEvent{Type: "console", Data: string(data)}:
		case <-ctx.Done():
		default:
			// Channel full, skip message to avoid blocking
		}
	}
}

// renderConfig converts a request into render settings
func renderConfig(req *RenderRequest) config.Render {
	cfg := config.Default()
	cfg.SensorXRes = req.Width
	cfg.SensorYRes = req.Height
	cfg.Degree = req.Degree
	cfg.NumLambdas = req.Lambdas
	cfg.SampleMul = req.SampleMul
	cfg.PupilRadius = req.Pupil
	cfg.Defocus = req.Defocus
	cfg.Seed = req.Seed
	return cfg
}

// createSource builds the generated source image with the sensor's aspect ratio
func createSource(name string, width, height int) (*loaders.ImageData, error) {
	sw := 256
	sh := max(1, sw*height/width)
	switch name {
	case "points":
		return loaders.NewPointChart(sw, sh, 16), nil
	case "checker":
		return loaders.NewCheckerboard(sw, sh, 16, core.Gray(1), core.Gray(0.05)), nil
	default:
		return nil, fmt.Errorf("unknown source: %s", name)
	}
}

// setupRenderingPipeline focuses the lens and creates the renderer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger core.Logger) (*RenderingPipeline, error) {
	p, err := s.loadLens(req.Lens)
	if err != nil {
		return nil, err
	}
	source, err := createSource(req.Source, req.Width, req.Height)
	if err != nil {
		return nil, err
	}

	cfg := renderConfig(req)
	setup, err := lens.Pipeline(p, cfg, logger)
	if err != nil {
		return nil, err
	}
	cfg.PupilRadius = setup.PupilRadius

	sr, err := renderer.NewSpectralRenderer(setup.Lambert, setup.Magnification, cfg, logger)
	if err != nil {
		return nil, err
	}
	return &RenderingPipeline{Lens: p, Setup: setup, Source: source, Renderer: sr}, nil
}

// handleRenderingEvents processes the main rendering event loop
func (s *Server) handleRenderingEvents(ctx context.Context, sseEventChan chan<- SSEEvent,
	passChan <-chan renderer.PassResult, errChan <-chan error, startTime time.Time) {

	for passResult := range passChan {
		s.handlePassComplete(ctx, sseEventChan, passResult, startTime)
	}
	if err := <-errChan; err != nil {
		s.handleError(ctx, sseEventChan, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	select {
	case sseEventChan <- SSEEvent{Type: "complete", Data: "Rendering completed"}:
	case <-ctx.Done():
	}
}

// handlePassComplete encodes the pass preview and sends it
func (s *Server) handlePassComplete(ctx context.Context, sseEventChan chan<- SSEEvent, passResult renderer.PassResult, startTime time.Time) {
	imageData, err := s.imageToBase64PNG(passResult.Image)
	if err != nil {
		log.Printf("Error encoding pass %d: %v", passResult.PassNumber, err)
		return
	}

	st := passResult.Stats
	update := PassUpdate{
		PassNumber:  passResult.PassNumber,
		TotalPasses: passResult.TotalPasses,
		Lambda:      passResult.Lambda,
		ImageData:   imageData,
		Stats: Stats{
			TotalPixels:        st.TotalPixels,
			TotalSamples:       st.TotalSamples,
			AverageSamples:     st.AverageSamples,
			MinSamples:         st.MinSamples,
			MaxSamplesUsed:     st.MaxSamplesUsed,
			ApertureRejections: st.ApertureRejections,
			NumericAnomalies:   st.NumericAnomalies,
			OffSensor:          st.OffSensor,
		},
		IsComplete: passResult.IsLast,
		ElapsedMs:  time.Since(startTime).Milliseconds(),
	}
	s.sendJSONEvent(ctx, sseEventChan, "pass", update)
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	q := r.URL.Query()
	defaults := config.Default()
	req := &RenderRequest{Lens: q.Get("lens"), Source: q.Get("source")}
	if req.Lens == "" {
		req.Lens = "achromat" // Default lens
	}
	if req.Source == "" {
		req.Source = "points"
	}

	// Parse and validate all parameters using helper functions
	var err error
	if req.Width, err = intParam(q, "width", 640); err != nil {
		return nil, err
	}
	if req.Height, err = intParam(q, "height", 360); err != nil {
		return nil, err
	}
	if req.Degree, err = intParam(q, "degree", defaults.Degree); err != nil {
		return nil, err
	}
	if req.Lambdas, err = intParam(q, "lambdas", defaults.NumLambdas); err != nil {
		return nil, err
	}
	if req.SampleMul, err = floatParam(q, "sampleMul", 100); err != nil {
		return nil, err
	}
	if req.Pupil, err = floatParam(q, "pupil", defaults.PupilRadius); err != nil {
		return nil, err
	}
	if req.Defocus, err = floatParam(q, "defocus", defaults.Defocus); err != nil {
		return nil, err
	}
	req.Seed = defaults.Seed
	if v := q.Get("seed"); v != "" {
		if req.Seed, err = strconv.ParseInt(v, 10, 64); err != nil {
			return nil, fmt.Errorf("invalid seed: %s", v)
		}
	}

	// Performance warning
	if float64(req.Width*req.Height)*req.SampleMul > 1e9 {
		log.Printf("Render warning: %dx%d at %g samples may render slowly", req.Width, req.Height, req.SampleMul)
	}
	return req, nil
}

// intParam parses an integer parameter within its requestLimits range
func intParam(values url.Values, key string, defaultValue int) (int, error) {
	limits := requestLimits[key]
	return parseIntParam(values, key, defaultValue, int(limits[0]), int(limits[1]))
}

// floatParam parses a float parameter within its requestLimits range
func floatParam(values url.Values, key string, defaultValue float64) (float64, error) {
	limits := requestLimits[key]
	return parseFloatParam(values, key, defaultValue, limits[0], limits[1])
}

// imageToBase64PNG converts an image to base64-encoded PNG
func (s *Server) imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// sendJSONEvent marshals v and queues it as an SSE event
func (s *Server) sendJSONEvent(ctx context.Context, sseEventChan chan<- SSEEvent, eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}
	select {
	case sseEventChan <- SSEEvent{Type: eventType, Data: string(data)}:
	case <-ctx.Done():
	}
}

// handleError sends an error event to the SSE channel
func (s *Server) handleError(ctx context.Context, sseEventChan chan<- SSEEvent, message string) {
	select {
	case sseEventChan <- SSEEvent{Type: "error", Data: message}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}
