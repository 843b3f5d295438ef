package ingress

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/pulserelay/pulserelay/internal/metrics"
	"github.com/pulserelay/pulserelay/internal/relay"
)

// maxBodySize bounds POST /events request bodies.
const maxBodySize = 1 << 20

// ConnectionCounter reports the current number of live connections. Satisfied
// by the WebSocket hub.
type ConnectionCounter interface {
	Count() int
}

// Handler is the HTTP boundary for externally submitted events plus the
// liveness endpoints. It validates each submission and hands the
// {instance, event, data} triple to the relay Router; anything else a
// producer sends is stripped and never reaches clients.
type Handler struct {
	router *relay.Router
	conns  ConnectionCounter
	stats  *metrics.Collector
	origin atomic.Value // allowed CORS origin, hot-reloadable
	mux    *http.ServeMux
}

// New creates a Handler wired to the given router and registers all routes.
func New(rt *relay.Router, conns ConnectionCounter, stats *metrics.Collector, allowedOrigin string) *Handler {
	h := &Handler{router: rt, conns: conns, stats: stats, mux: http.NewServeMux()}
	h.origin.Store(allowedOrigin)

	h.mux.HandleFunc("/health", h.health)
	h.mux.HandleFunc("/events", h.events)
	h.mux.HandleFunc("/", h.root)

	return h
}

// SetAllowedOrigin swaps the allowed CORS origin at runtime (config reload).
func (h *Handler) SetAllowedOrigin(origin string) {
	if origin != "" {
		h.origin.Store(origin)
	}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	origin := h.origin.Load().(string)
	hdr := w.Header()
	hdr.Set("Access-Control-Allow-Origin", origin)
	hdr.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
	hdr.Set("Access-Control-Allow-Headers", "Content-Type")
	if origin != "*" {
		hdr.Add("Vary", "Origin")
	}

	// Preflight succeeds for any path, with an empty body.
	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	h.mux.ServeHTTP(w, r)
}

// --- route handlers ---------------------------------------------------------

// root serves GET / as a liveness alias and turns every other unknown path
// into a JSON 404.
func (h *Handler) root(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		jsonErr(w, http.StatusNotFound, "Not found")
		return
	}
	h.health(w, r)
}

// health returns the liveness payload. It reads the hub's connection count
// only — the per-instance registry is not touched.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Timestamp:   time.Now().UTC().Format(time.RFC3339),
		Connections: h.conns.Count(),
	})
}

// events accepts POST /events, validates the inbound event shape, and
// initiates best-effort delivery. The producer gets an acknowledgment
// immediately; it never learns which members, if any, received the event.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		jsonResp(w, http.StatusBadRequest, parseErrorResponse{
			Error:   "could not read request body",
			Details: err.Error(),
		})
		return
	}

	var ev inboundEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		jsonResp(w, http.StatusBadRequest, parseErrorResponse{
			Error:   "request body is not valid JSON",
			Details: err.Error(),
		})
		return
	}

	// A JSON null data field counts as absent, same as a missing key.
	if ev.Instance == "" || ev.Event == "" || len(ev.Data) == 0 || string(ev.Data) == "null" {
		jsonErr(w, http.StatusBadRequest, "instance, event and data are required")
		return
	}

	delivered := h.router.Deliver(ev.Instance, ev.Event, ev.Data)
	h.stats.EventIngested()
	slog.Debug("ingress: event relayed",
		"instance", ev.Instance, "event", ev.Event, "delivered", delivered)

	jsonResp(w, http.StatusOK, acceptedResponse{
		Success:   true,
		Message:   "event relayed",
		Instance:  ev.Instance,
		Event:     ev.Event,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}
