package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dukecorse1972/LSE-traductorv1/internal/store"
)

const maxListLimit = 1000

// HistoryHandler serves the stored recognition history.
type HistoryHandler struct {
	store *store.Store
}

// NewHistoryHandler creates a HistoryHandler over s.
func NewHistoryHandler(s *store.Store) *HistoryHandler {
	return &HistoryHandler{store: s}
}

type historyResponse struct {
	Recognitions []*store.Recognition `json:"recognitions"`
	Counts       []store.GestureCount `json:"counts"`
}

// ServeHTTP handles GET /api/history?limit=&session=.
func (h *HistoryHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	limit, ok := queryLimit(r, store.DefaultListLimit, maxListLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}

	recs, err := h.store.Recognitions().List(r.URL.Query().Get("session"), limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list history")
		return
	}
	counts, err := h.store.Recognitions().CountByGesture()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to count history")
		return
	}

	if recs == nil {
		recs = []*store.Recognition{}
	}
	if counts == nil {
		counts = []store.GestureCount{}
	}
	writeJSON(w, http.StatusOK, historyResponse{Recognitions: recs, Counts: counts})
}

// SessionsHandler serves stored sessions.
type SessionsHandler struct {
	store *store.Store
}

// NewSessionsHandler creates a SessionsHandler over s.
func NewSessionsHandler(s *store.Store) *SessionsHandler {
	return &SessionsHandler{store: s}
}

type listSessionsResponse struct {
	Sessions []*store.Session `json:"sessions"`
}

// ServeHTTP handles GET /api/sessions and GET /api/sessions/{id}.
func (h *SessionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	id := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/sessions"), "/")
	if id != "" {
		sess, err := h.store.Sessions().GetByID(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				writeError(w, http.StatusNotFound, "Session not found")
				return
			}
			writeError(w, http.StatusInternalServerError, "Failed to get session")
			return
		}
		writeJSON(w, http.StatusOK, sess)
		return
	}

	limit, ok := queryLimit(r, store.DefaultListLimit, maxListLimit)
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid limit")
		return
	}
	sessions, err := h.store.Sessions().List(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	if sessions == nil {
		sessions = []*store.Session{}
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: sessions})
}
