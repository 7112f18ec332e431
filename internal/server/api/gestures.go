package api

import (
	"net/http"
	"strings"

	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
)

// GestureHandler serves the label table.
type GestureHandler struct {
	table *gesture.Table
}

// NewGestureHandler creates a GestureHandler over table.
func NewGestureHandler(table *gesture.Table) *GestureHandler {
	return &GestureHandler{table: table}
}

type listGesturesResponse struct {
	Gestures []gesture.Gesture `json:"gestures"`
}

// ServeHTTP handles GET /api/gestures and GET /api/gestures/{name}.
func (h *GestureHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/gestures")
	name = strings.Trim(name, "/")

	if name == "" {
		writeJSON(w, http.StatusOK, listGesturesResponse{Gestures: h.table.All()})
		return
	}

	g, ok := h.table.ByName(name)
	if !ok {
		writeError(w, http.StatusNotFound, "Gesture not found")
		return
	}
	writeJSON(w, http.StatusOK, g)
}
