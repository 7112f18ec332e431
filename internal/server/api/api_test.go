package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/recognizer"
	"github.com/dukecorse1972/LSE-traductorv1/internal/store"
)

// newTestStore creates a Store with a temporary database.
func newTestStore(t *testing.T) *store.Store {
	t.Helper()

	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func serve(h http.Handler, method, target string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
}

func TestGestureHandler(t *testing.T) {
	h := NewGestureHandler(gesture.Default())

	t.Run("list", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/gestures")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
		if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
			t.Errorf("expected JSON content type, got %s", ct)
		}

		var resp listGesturesResponse
		decode(t, rec, &resp)
		if len(resp.Gestures) != 4 {
			t.Fatalf("expected 4 gestures, got %d", len(resp.Gestures))
		}
		for i, g := range resp.Gestures {
			if g.Index != i {
				t.Errorf("gesture %s has index %d, want %d", g.Name, g.Index, i)
			}
		}
	})

	t.Run("by name", func(t *testing.T) {
		rec := serve(h, http.MethodGet, "/api/gestures/Igualdad")
		var g gesture.Gesture
		decode(t, rec, &g)
		if g.Index != 3 || g.Cue != "sounds/igualdad.wav" {
			t.Errorf("unexpected gesture: %+v", g)
		}
	})

	t.Run("unknown name", func(t *testing.T) {
		if rec := serve(h, http.MethodGet, "/api/gestures/Gracias"); rec.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d", rec.Code)
		}
	})

	t.Run("method not allowed", func(t *testing.T) {
		if rec := serve(h, http.MethodPost, "/api/gestures"); rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405, got %d", rec.Code)
		}
	})
}

// fakeSessions implements SessionController.
type fakeSessions struct {
	active bool
	stats  recognizer.Stats
	err    error
}

func (f *fakeSessions) StartSession(context.Context) (recognizer.Stats, error) {
	if f.err != nil {
		return recognizer.Stats{}, f.err
	}
	if f.active {
		return recognizer.Stats{}, ErrSessionActive
	}
	f.active = true
	f.stats = recognizer.Stats{SessionID: "s1", Generation: f.stats.Generation + 1, StartedAt: time.Now()}
	return f.stats, nil
}

func (f *fakeSessions) StopSession(context.Context) (recognizer.Stats, error) {
	if !f.active {
		return recognizer.Stats{}, ErrNoSession
	}
	f.active = false
	return f.stats, nil
}

func (f *fakeSessions) SessionStats() (recognizer.Stats, bool) {
	return f.stats, f.active
}

func TestSessionHandler(t *testing.T) {
	fake := &fakeSessions{}
	h := NewSessionHandler(fake)

	var resp sessionResponse
	rec := serve(h, http.MethodGet, "/api/session")
	decode(t, rec, &resp)
	if resp.Active || resp.Session != nil {
		t.Errorf("expected no session, got %+v", resp)
	}

	rec = serve(h, http.MethodPost, "/api/session")
	if rec.Code != http.StatusCreated {
		t.Fatalf("POST: expected 201, got %d", rec.Code)
	}
	decode(t, rec, &resp)
	if !resp.Active || resp.Session.SessionID != "s1" || resp.Session.Generation != 1 {
		t.Errorf("unexpected start response: %+v", resp)
	}

	if rec := serve(h, http.MethodPost, "/api/session"); rec.Code != http.StatusConflict {
		t.Errorf("second POST: expected 409, got %d", rec.Code)
	}

	rec = serve(h, http.MethodGet, "/api/session")
	resp = sessionResponse{}
	decode(t, rec, &resp)
	if !resp.Active {
		t.Error("expected active session")
	}

	if rec := serve(h, http.MethodDelete, "/api/session"); rec.Code != http.StatusOK {
		t.Errorf("DELETE: expected 200, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodDelete, "/api/session"); rec.Code != http.StatusNotFound {
		t.Errorf("second DELETE: expected 404, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodPut, "/api/session"); rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("PUT: expected 405, got %d", rec.Code)
	}
}

func TestSessionHandler_StartFailure(t *testing.T) {
	h := NewSessionHandler(&fakeSessions{err: context.DeadlineExceeded})
	if rec := serve(h, http.MethodPost, "/api/session"); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

func TestHistoryHandler(t *testing.T) {
	s := newTestStore(t)
	s.Sessions().Create(&store.Session{ID: "s1"})
	base := time.Now().Add(-time.Minute)
	for i, name := range []string{"Hola", "Adios", "Hola"} {
		s.Recognitions().Create(&store.Recognition{
			SessionID:  "s1",
			Gesture:    name,
			Confidence: 0.9,
			CreatedAt:  base.Add(time.Duration(i) * time.Second),
		})
	}

	h := NewHistoryHandler(s)

	rec := serve(h, http.MethodGet, "/api/history?limit=2")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp historyResponse
	decode(t, rec, &resp)
	if len(resp.Recognitions) != 2 {
		t.Errorf("expected 2 recognitions, got %d", len(resp.Recognitions))
	}
	if resp.Recognitions[0].Gesture != "Hola" || resp.Recognitions[1].Gesture != "Adios" {
		t.Errorf("expected newest first, got %s, %s", resp.Recognitions[0].Gesture, resp.Recognitions[1].Gesture)
	}
	if len(resp.Counts) != 2 || resp.Counts[0].Count != 2 {
		t.Errorf("unexpected counts: %+v", resp.Counts)
	}

	for _, bad := range []string{"0", "-1", "abc", "5000"} {
		if rec := serve(h, http.MethodGet, "/api/history?limit="+bad); rec.Code != http.StatusBadRequest {
			t.Errorf("limit=%s: expected 400, got %d", bad, rec.Code)
		}
	}

	rec = serve(h, http.MethodGet, "/api/history?session=other")
	resp = historyResponse{}
	decode(t, rec, &resp)
	if resp.Recognitions == nil || len(resp.Recognitions) != 0 {
		t.Errorf("expected empty list for unknown session, got %+v", resp.Recognitions)
	}
}

func TestSessionsHandler(t *testing.T) {
	s := newTestStore(t)
	s.Sessions().Create(&store.Session{ID: "s1", Generation: 1})
	h := NewSessionsHandler(s)

	var list listSessionsResponse
	decode(t, serve(h, http.MethodGet, "/api/sessions"), &list)
	if len(list.Sessions) != 1 || list.Sessions[0].ID != "s1" {
		t.Errorf("unexpected sessions: %+v", list.Sessions)
	}

	if rec := serve(h, http.MethodGet, "/api/sessions/s1"); rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec := serve(h, http.MethodGet, "/api/sessions/nope"); rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}
}

type staticStatus Status

func (s staticStatus) Status() Status { return Status(s) }

func TestStatusHandler(t *testing.T) {
	h := NewStatusHandler(staticStatus{
		Camera:     Component{Ready: true},
		Classifier: Component{Error: "model not loaded"},
		Generation: 4,
	})

	var got Status
	decode(t, serve(h, http.MethodGet, "/api/status"), &got)
	if !got.Camera.Ready || got.Classifier.Ready || got.Classifier.Error != "model not loaded" || got.Generation != 4 {
		t.Errorf("unexpected status: %+v", got)
	}
}
