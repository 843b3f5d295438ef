package ws

import (
	"encoding/json"
	"strings"
	"time"
)

// envelope is the JSON frame read from clients.
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// frame is the JSON message sent to clients.
type frame struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// welcomePayload is sent once on connect.
type welcomePayload struct {
	Message   string `json:"message"`
	ID        string `json:"id"`
	Instance  string `json:"instance,omitempty"`
	Warning   string `json:"warning,omitempty"`
	Timestamp string `json:"timestamp"`
}

// instanceChangedPayload acknowledges a successful join-instance.
type instanceChangedPayload struct {
	Instance  string `json:"instance"`
	Timestamp string `json:"timestamp"`
}

// errorPayload reports a connection-scoped protocol error.
type errorPayload struct {
	Error     string `json:"error"`
	Timestamp string `json:"timestamp"`
}

// messageResponsePayload echoes a client "message" back to its sender.
type messageResponsePayload struct {
	Original  json.RawMessage `json:"original"`
	Response  string          `json:"response"`
	Timestamp string          `json:"timestamp"`
}

// broadcastPayload is relayed to every connection except the sender.
type broadcastPayload struct {
	From      string          `json:"from"`
	Data      json.RawMessage `json:"data"`
	Timestamp string          `json:"timestamp"`
}

// instanceToken extracts the instance token from a join-instance payload.
// Clients may send either a bare JSON string or {"instance": "..."}.
func instanceToken(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var obj struct {
		Instance string `json:"instance"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil {
		return strings.TrimSpace(obj.Instance)
	}
	return ""
}

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339)
}
