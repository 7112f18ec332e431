package server

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/presenter"
	"github.com/dukecorse1972/LSE-traductorv1/internal/server/api"
)

// WebSocket message types.
const (
	MessageRecognition = "recognition"
	MessageCue         = "cue"
	MessageStatus      = "status"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

type recognitionMessage struct {
	Type string `json:"type"`
	presenter.Update
}

type cueMessage struct {
	Type       string  `json:"type"`
	SessionID  string  `json:"session_id"`
	Generation uint64  `json:"generation"`
	Gesture    string  `json:"gesture"`
	Index      int     `json:"index"`
	Confidence float64 `json:"confidence"`
}

type statusMessage struct {
	Type string `json:"type"`
	api.Status
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

// Hub pushes recognitions to browser clients over WebSocket. It is a
// presenter.Sink. New clients first receive the latest display state, which
// is the waiting state until something was recognized.
type Hub struct {
	mu      sync.RWMutex
	clients map[*client]struct{}
	last    []byte
	closed  bool
	log     *zap.Logger
}

// NewHub creates a Hub.
func NewHub(log *zap.Logger) *Hub {
	if log == nil {
		log = zap.NewNop()
	}
	h := &Hub{
		clients: make(map[*client]struct{}),
		log:     log.Named("ws"),
	}
	h.last = h.encode(recognitionMessage{Type: MessageRecognition, Update: presenter.WaitingUpdate("", 0)})
	return h
}

// ServeHTTP upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	c.send <- h.last
	h.mu.Unlock()

	go h.writePump(c)

	// Clients only listen; reading detects disconnects.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
	h.unregister(c)
}

func (h *Hub) writePump(c *client) {
	defer c.conn.Close()
	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			h.log.Debug("websocket write failed", zap.Error(err))
			return
		}
	}
	c.conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
}

// unregister must be the only place that closes a client's send channel.
func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *Hub) encode(v any) []byte {
	msg, err := json.Marshal(v)
	if err != nil {
		h.log.Error("failed to encode websocket message", zap.Error(err))
		return nil
	}
	return msg
}

func (h *Hub) broadcast(msg []byte, remember bool) {
	if msg == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if remember {
		h.last = msg
	}
	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			// A client that cannot keep up is disconnected.
			h.log.Warn("dropping slow websocket client")
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Show implements presenter.Sink.
func (h *Hub) Show(u presenter.Update) {
	h.broadcast(h.encode(recognitionMessage{Type: MessageRecognition, Update: u}), true)
}

// PlayCue implements presenter.Sink.
func (h *Hub) PlayCue(c presenter.Cue) {
	h.broadcast(h.encode(cueMessage{
		Type:       MessageCue,
		SessionID:  c.SessionID,
		Generation: c.Generation,
		Gesture:    c.Gesture.Name,
		Index:      c.Gesture.Index,
		Confidence: c.Confidence,
	}), false)
}

// PublishStatus sends a status message to every client.
func (h *Hub) PublishStatus(st api.Status) {
	h.broadcast(h.encode(statusMessage{Type: MessageStatus, Status: st}), false)
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client and refuses new ones.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}
