package ingress

import "encoding/json"

// inboundEvent is the POST /events request body. Decoding into this struct
// drops any extra fields a producer submits alongside the required three.
type inboundEvent struct {
	Instance string          `json:"instance"`
	Event    string          `json:"event"`
	Data     json.RawMessage `json:"data"`
}

// healthResponse is the payload for GET / and GET /health.
type healthResponse struct {
	Status      string `json:"status"`
	Timestamp   string `json:"timestamp"` // RFC3339
	Connections int    `json:"connections"`
}

// acceptedResponse acknowledges a relayed event to the producer.
type acceptedResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Instance  string `json:"instance"`
	Event     string `json:"event"`
	Timestamp string `json:"timestamp"` // RFC3339
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

// parseErrorResponse reports an unparseable request body.
type parseErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}
