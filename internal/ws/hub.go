package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/pulserelay/pulserelay/internal/relay"
)

const (
	// writeTimeout is the deadline for a single write to a client.
	writeTimeout = 10 * time.Second

	// pongWait is how long to wait for a pong response before treating the
	// connection as dead.
	pongWait = 60 * time.Second

	// pingPeriod controls how often the server sends WebSocket ping frames.
	// Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// maxMessageSize bounds inbound client frames.
	maxMessageSize = 1 << 20

	// sendBufSize is the per-session outgoing message buffer depth.
	sendBufSize = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Upgrades are accepted from any origin; the configured CORS origin
	// applies to the HTTP surface only.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub owns all connected sessions, keyed by id. It upgrades HTTP requests to
// WebSocket connections, runs the per-session read/write pumps, and
// dispatches inbound client frames to the relay Router.
//
// Hub implements relay.Directory.
type Hub struct {
	router *relay.Router

	mu       sync.RWMutex
	sessions map[string]*session
}

// NewHub creates a Hub with no connected sessions. Bind must be called before
// the Hub serves its first connection.
func NewHub() *Hub {
	return &Hub{sessions: make(map[string]*session)}
}

// Bind wires the Router the Hub dispatches client frames to. Separate from
// NewHub because the Router itself needs the Hub as its session directory.
func (h *Hub) Bind(rt *relay.Router) { h.router = rt }

// Run blocks until ctx is cancelled, then closes all active connections.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()
	h.closeAll()
}

// ServeHTTP upgrades the HTTP connection to WebSocket and serves the client
// until it disconnects. The optional "instance" query parameter registers the
// connection into that instance immediately; without it the connection starts
// unaffiliated and is told so in the welcome event.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader has already written the error response.
		return
	}

	instance := r.URL.Query().Get("instance")
	s := newSession(uuid.NewString(), conn, instance)

	h.register(s)
	h.router.Register(s.id, instance)

	// The close reason is informational only: cleanup is identical for every
	// disconnect cause.
	var closeReason error
	defer func() {
		h.router.Remove(s.id)
		h.unregister(s)
		slog.Info("ws: client disconnected",
			"session", s.id, "instance", s.currentInstance(),
			"reason", reasonString(closeReason), "connections", h.Count())
	}()

	slog.Info("ws: client connected",
		"session", s.id, "instance", instance, "connections", h.Count())

	welcome := welcomePayload{
		Message:   "connected to relay",
		ID:        s.id,
		Instance:  instance,
		Timestamp: timestamp(),
	}
	if instance == "" {
		welcome.Warning = "no instance supplied; send join-instance to receive instance events"
	}
	s.Push("welcome", welcome) //nolint:errcheck // buffer is empty at connect

	go s.writePump()
	closeReason = h.readPump(s) // blocks until the connection closes
}

// Count returns the number of currently connected sessions.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Lookup returns the send handle for the given session id.
func (h *Hub) Lookup(id string) (relay.Sender, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[id]
	if !ok {
		return nil, false
	}
	return s, true
}

// All returns a snapshot of every connected session's send handle.
func (h *Hub) All() []relay.Sender {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]relay.Sender, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// --- internal ---------------------------------------------------------------

func (h *Hub) register(s *session) {
	h.mu.Lock()
	h.sessions[s.id] = s
	h.mu.Unlock()
}

func (h *Hub) unregister(s *session) {
	h.mu.Lock()
	delete(h.sessions, s.id)
	h.mu.Unlock()
	s.close()
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for id, s := range h.sessions {
		s.close()
		delete(h.sessions, id)
	}
}

// readPump reads client frames until the connection closes, keeping the pong
// deadline fresh and dispatching each frame. It returns the error that ended
// the connection.
func (h *Hub) readPump(s *session) error {
	defer s.close()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := s.conn.ReadMessage()
		if err != nil {
			return err
		}
		h.dispatch(s, raw)
	}
}

func reasonString(err error) string {
	if err == nil {
		return "server closed"
	}
	return err.Error()
}

// dispatch routes one inbound client frame. Protocol errors are reported to
// the sending client only.
func (h *Hub) dispatch(s *session, raw []byte) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		s.Push("error", errorPayload{ //nolint:errcheck
			Error:     "malformed frame: expected {\"event\": ..., \"data\": ...}",
			Timestamp: timestamp(),
		})
		return
	}

	switch env.Event {
	case "join-instance":
		h.joinInstance(s, env.Data)

	case "message":
		s.Push("message-response", messageResponsePayload{ //nolint:errcheck
			Original:  env.Data,
			Response:  "message received",
			Timestamp: timestamp(),
		})

	case "broadcast":
		n := h.router.BroadcastExceptSender(s.id, "broadcast-message", broadcastPayload{
			From:      s.id,
			Data:      env.Data,
			Timestamp: timestamp(),
		})
		slog.Debug("ws: broadcast relayed", "session", s.id, "reached", n)

	default:
		slog.Debug("ws: unknown event", "session", s.id, "event", env.Event)
	}
}

// joinInstance handles an instance switch request from the client and
// acknowledges it with instance-changed, or with an error event when the
// token is empty.
func (h *Hub) joinInstance(s *session, raw json.RawMessage) {
	token := instanceToken(raw)
	prev, err := h.router.SwitchInstance(s.id, token)
	if err != nil {
		s.Push("error", errorPayload{ //nolint:errcheck
			Error:     "instance is required",
			Timestamp: timestamp(),
		})
		return
	}

	s.setInstance(token)
	slog.Info("ws: instance switched", "session", s.id, "from", prev, "to", token)
	s.Push("instance-changed", instanceChangedPayload{ //nolint:errcheck
		Instance:  token,
		Timestamp: timestamp(),
	})
}
