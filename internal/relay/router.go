package relay

import (
	"errors"
	"log/slog"

	"github.com/pulserelay/pulserelay/internal/metrics"
	"github.com/pulserelay/pulserelay/internal/registry"
)

// ErrEmptyInstance is returned by SwitchInstance when the requested instance
// token is empty. It is a client protocol error, reported only to the
// requesting connection.
var ErrEmptyInstance = errors.New("relay: instance must not be empty")

// Sender is the exclusive send handle of one connected session. Push fails
// when the underlying transport is closed or the session's outgoing buffer is
// full; either way the member is simply skipped.
type Sender interface {
	ID() string
	Push(event string, data any) error
}

// Directory resolves session ids to live send handles. Implemented by the
// WebSocket hub.
type Directory interface {
	Lookup(id string) (Sender, bool)
	All() []Sender
}

// Router coordinates instance membership changes and event fan-out. It holds
// no state of its own: the registry and the directory are the only sources of
// truth.
type Router struct {
	reg   *registry.Registry
	dir   Directory
	stats *metrics.Collector
}

// NewRouter creates a Router over the given registry and session directory.
func NewRouter(reg *registry.Registry, dir Directory, stats *metrics.Collector) *Router {
	return &Router{reg: reg, dir: dir, stats: stats}
}

// Register records a freshly connected session's handshake membership. An
// empty instance leaves the session unaffiliated, which is a supported
// degraded mode rather than an error.
func (rt *Router) Register(sessionID, instance string) {
	if instance == "" {
		return
	}
	rt.reg.Join(sessionID, instance)
}

// Remove drops the session from whichever instance it occupies. Called on
// disconnect, for every disconnect reason alike; idempotent.
func (rt *Router) Remove(sessionID string) {
	rt.reg.RemoveSession(sessionID)
}

// SwitchInstance atomically moves the session to newInstance and returns the
// instance it left, or "" if it was unaffiliated. An empty newInstance yields
// ErrEmptyInstance and no membership change.
func (rt *Router) SwitchInstance(sessionID, newInstance string) (previous string, err error) {
	if newInstance == "" {
		return "", ErrEmptyInstance
	}
	previous = rt.reg.Switch(sessionID, newInstance)
	return previous, nil
}

// Deliver pushes event/data to every current member of instance and returns
// the number of members reached. Delivery is best-effort and independent per
// member: an unreachable member is skipped without affecting the others, and
// an instance with no members is a legal no-op.
func (rt *Router) Deliver(instance, event string, data any) int {
	members := rt.reg.MembersOf(instance)
	if len(members) == 0 {
		return 0
	}

	delivered := 0
	for _, id := range members {
		s, ok := rt.dir.Lookup(id)
		if !ok {
			// Disconnected between the membership snapshot and the push.
			continue
		}
		if err := s.Push(event, data); err != nil {
			rt.stats.DeliveryDropped()
			slog.Debug("relay: delivery skipped", "session", id, "instance", instance, "err", err)
			continue
		}
		delivered++
	}

	rt.stats.EventsDelivered(delivered)
	return delivered
}

// BroadcastExceptSender pushes event/data to every connected session except
// the sender, regardless of instance membership, and returns the number of
// sessions reached.
func (rt *Router) BroadcastExceptSender(senderID, event string, data any) int {
	delivered := 0
	for _, s := range rt.dir.All() {
		if s.ID() == senderID {
			continue
		}
		if err := s.Push(event, data); err != nil {
			rt.stats.DeliveryDropped()
			slog.Debug("relay: broadcast skipped", "session", s.ID(), "err", err)
			continue
		}
		delivered++
	}
	rt.stats.BroadcastRelayed()
	return delivered
}
