package api

import (
	"net/http"

	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

// Component reports whether a collaborator is usable.
type Component struct {
	Ready bool   `json:"ready"`
	Error string `json:"error,omitempty"`
}

// Status is the service status.
type Status struct {
	Camera        Component         `json:"camera"`
	Detector      Component         `json:"detector"`
	Classifier    Component         `json:"classifier"`
	Audio         Component         `json:"audio"`
	SessionActive bool              `json:"session_active"`
	Generation    uint64            `json:"generation"`
	DroppedFrames uint64            `json:"dropped_frames"`
	Session       *recognizer.Stats `json:"session,omitempty"`
}

// StatusReporter provides the current status.
type StatusReporter interface {
	Status() Status
}

// StatusHandler serves GET /api/status.
type StatusHandler struct {
	reporter StatusReporter
}

// NewStatusHandler creates a StatusHandler.
func NewStatusHandler(r StatusReporter) *StatusHandler {
	return &StatusHandler{reporter: r}
}

func (h *StatusHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, h.reporter.Status())
}
