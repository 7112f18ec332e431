package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
)

var (
	// ErrSessionActive is returned when starting while a session runs.
	ErrSessionActive = errors.New("session already active")
	// ErrNoSession is returned when stopping without a session.
	ErrNoSession = errors.New("no active session")
)

// SessionController starts and stops camera sessions.
type SessionController interface {
	StartSession(ctx context.Context) (recognizer.Stats, error)
	StopSession(ctx context.Context) (recognizer.Stats, error)
	SessionStats() (recognizer.Stats, bool)
}

// SessionHandler serves /api/session.
type SessionHandler struct {
	sessions SessionController
}

// NewSessionHandler creates a SessionHandler.
func NewSessionHandler(c SessionController) *SessionHandler {
	return &SessionHandler{sessions: c}
}

type sessionResponse struct {
	Active  bool              `json:"active"`
	Session *recognizer.Stats `json:"session,omitempty"`
}

// ServeHTTP handles GET (current), POST (start) and DELETE (stop).
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		stats, ok := h.sessions.SessionStats()
		if !ok {
			writeJSON(w, http.StatusOK, sessionResponse{})
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Active: true, Session: &stats})

	case http.MethodPost:
		stats, err := h.sessions.StartSession(r.Context())
		if err != nil {
			if errors.Is(err, ErrSessionActive) {
				writeError(w, http.StatusConflict, "Session already active")
				return
			}
			writeError(w, http.StatusServiceUnavailable, err.Error())
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{Active: true, Session: &stats})

	case http.MethodDelete:
		stats, err := h.sessions.StopSession(r.Context())
		if err != nil {
			if errors.Is(err, ErrNoSession) {
				writeError(w, http.StatusNotFound, "No active session")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to stop session")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Active: false, Session: &stats})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}
