package server

import (
	"fmt"
	"strings"
	"time"

	"github.com/df07/go-polynomial-optics/pkg/core"
)

// ConsoleMessage represents a console message with timestamp
type ConsoleMessage struct {
	RenderID  string    `json:"renderId"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"` // "info", "warning", "error"
}

// WebLogger implements core.Logger by sending messages to a console channel and mirroring
// them to a server-side logger
type WebLogger struct {
	renderID    string
	consoleChan chan<- ConsoleMessage
	mirror      core.Logger
}

// NewWebLogger creates a new web logger for a specific render. mirror may be nil.
func NewWebLogger(renderID string, consoleChan chan<- ConsoleMessage, mirror core.Logger) core.Logger {
	return &WebLogger{
		renderID:    renderID,
		consoleChan: consoleChan,
		mirror:      mirror,
	}
}

// messageLevel classifies renderer output for the web console
func messageLevel(message string) string {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "error") || strings.Contains(lower, "failed"):
		return "error"
	case strings.Contains(lower, "anomal") || strings.Contains(lower, "fallback") || strings.Contains(lower, "cancelled"):
		return "warning"
	default:
		return "info"
	}
}

// Printf implements core.Logger interface
func (wl *WebLogger) Printf(format string, args ...interface{}) {
	message := fmt.Sprintf(format, args...)

	if wl.mirror != nil {
		wl.mirror.Printf("[%s] %s", wl.renderID, message)
	}

	// Send to web console if channel is available (non-blocking)
	if wl.consoleChan != nil {
		select {
		case wl.consoleChan <- ConsoleMessage{
			RenderID:  wl.renderID,
			Message:   message,
			Timestamp: time.Now(),
			Level:     messageLevel(message),
		}:
		default:
			// Channel full, skip (don't block)
		}
	}
}
