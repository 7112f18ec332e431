package server

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dukecorse1972/LSE-traductorv1/internal/capture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/presenter"
	"github.com/dukecorse1972/LSE-traductorv1/internal/store"
)

func dial(t *testing.T, ts *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error = %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("ReadMessage() error = %v", err)
	}
	var msg map[string]any
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("invalid message %s: %v", data, err)
	}
	return msg
}

func waitClients(t *testing.T, hub *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, have %d", n, hub.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHub_Workflow(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(New(Config{Hub: hub}))
	defer ts.Close()

	conn := dial(t, ts, "/api/events")

	// 1. New clients see the waiting state.
	msg := readMessage(t, conn)
	if msg["type"] != MessageRecognition || msg["label"] != nil || msg["confidence"] != nil {
		t.Errorf("expected waiting state, got %v", msg)
	}
	waitClients(t, hub, 1)

	// 2. A recognition is pushed.
	label, confidence := "Igualdad", 0.7
	hub.Show(presenter.Update{SessionID: "s1", Generation: 2, Label: &label, Confidence: &confidence})
	msg = readMessage(t, conn)
	if msg["label"] != "Igualdad" || msg["confidence"] != 0.7 || msg["generation"] != float64(2) {
		t.Errorf("unexpected recognition message: %v", msg)
	}

	// 3. A cue is pushed.
	hola, _ := gesture.Default().ByName("Hola")
	hub.PlayCue(presenter.Cue{SessionID: "s1", Generation: 2, Gesture: hola, Confidence: 0.9})
	msg = readMessage(t, conn)
	if msg["type"] != MessageCue || msg["gesture"] != "Hola" {
		t.Errorf("unexpected cue message: %v", msg)
	}

	// 4. A late client gets the last display state, not the cue.
	late := dial(t, ts, "/api/events")
	msg = readMessage(t, late)
	if msg["label"] != "Igualdad" {
		t.Errorf("late client should see the last label, got %v", msg)
	}

	// 5. Close disconnects everyone.
	hub.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to close")
	}
	if hub.Clients() != 0 {
		t.Errorf("expected no clients after Close, got %d", hub.Clients())
	}
}

func TestHub_ClientDisconnect(t *testing.T) {
	hub := NewHub(nil)
	ts := httptest.NewServer(hub)
	defer ts.Close()

	conn := dial(t, ts, "/")
	readMessage(t, conn)
	waitClients(t, hub, 1)

	conn.Close()
	waitClients(t, hub, 0)

	// Broadcasting without clients is harmless.
	hub.Show(presenter.WaitingUpdate("", 3))
}

func TestStream_MJPEG(t *testing.T) {
	preview := capture.NewPreview()
	ts := httptest.NewServer(New(Config{Preview: preview}))
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/stream", nil)

	go func() {
		for preview.Viewers() == 0 {
			time.Sleep(5 * time.Millisecond)
		}
		preview.PublishJPEG([]byte{0xFF, 0xD8, 0xFF, 0xD9})
	}()

	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("GET /api/stream error = %v", err)
	}
	defer resp.Body.Close()

	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("unexpected content type %q", ct)
	}

	r := bufio.NewReader(resp.Body)
	line, err := r.ReadString('\n')
	if err != nil {
		t.Fatalf("failed to read boundary: %v", err)
	}
	if strings.TrimSpace(line) != "--frame" {
		t.Errorf("expected frame boundary, got %q", line)
	}
	line, _ = r.ReadString('\n')
	if strings.TrimSpace(line) != "Content-Type: image/jpeg" {
		t.Errorf("expected JPEG part header, got %q", line)
	}
	line, _ = r.ReadString('\n')
	if strings.TrimSpace(line) != "Content-Length: 4" {
		t.Errorf("expected length header, got %q", line)
	}
}

func TestAPI_HistoryWorkflow(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	s.Sessions().Create(&store.Session{ID: "s1"})
	recorder := store.NewRecorder(s, nil)

	hola, _ := gesture.Default().ByName("Hola")
	recorder.PlayCue(presenter.Cue{SessionID: "s1", Gesture: hola, Confidence: 0.91, Time: time.Now()})

	ts := httptest.NewServer(New(Config{Store: s}))
	defer ts.Close()

	resp, err := ts.Client().Get(ts.URL + "/api/history?limit=10")
	if err != nil {
		t.Fatalf("GET /api/history error = %v", err)
	}
	defer resp.Body.Close()

	var body struct {
		Recognitions []store.Recognition `json:"recognitions"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode error = %v", err)
	}
	if len(body.Recognitions) != 1 || body.Recognitions[0].Gesture != "Hola" {
		t.Errorf("unexpected history: %+v", body.Recognitions)
	}
}
