package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

var (
	errSessionClosed  = errors.New("ws: session closed")
	errSendBufferFull = errors.New("ws: send buffer full")
)

// session is one connected client: its id, its current instance affiliation,
// and the exclusive handle used to push events to it.
type session struct {
	id   string
	conn *websocket.Conn

	mu       sync.Mutex
	instance string

	send chan []byte
	done chan struct{}
	stop sync.Once
}

func newSession(id string, conn *websocket.Conn, instance string) *session {
	return &session{
		id:       id,
		conn:     conn,
		instance: instance,
		send:     make(chan []byte, sendBufSize),
		done:     make(chan struct{}),
	}
}

// ID returns the immutable per-connection identifier.
func (s *session) ID() string { return s.id }

// Push queues a named event for delivery to this client. It never blocks: a
// closed session or a full outgoing buffer yields an error and the frame is
// dropped.
func (s *session) Push(event string, data any) error {
	b, err := json.Marshal(frame{Event: event, Data: data})
	if err != nil {
		return fmt.Errorf("ws: marshal %q frame: %w", event, err)
	}

	select {
	case <-s.done:
		return errSessionClosed
	default:
	}

	select {
	case s.send <- b:
		return nil
	default:
		return errSendBufferFull
	}
}

func (s *session) setInstance(instance string) {
	s.mu.Lock()
	s.instance = instance
	s.mu.Unlock()
}

func (s *session) currentInstance() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.instance
}

// close marks the session as closed. Safe to call more than once; the write
// pump notices and shuts the connection down.
func (s *session) close() {
	s.stop.Do(func() { close(s.done) })
}

// writePump drains the session's send channel and forwards frames to the
// WebSocket connection, interleaved with periodic ping frames. Runs in its
// own goroutine per session.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case <-s.done:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			s.conn.WriteMessage(websocket.CloseMessage, []byte{}) //nolint:errcheck
			return

		case msg := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
