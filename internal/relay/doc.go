// Package relay routes inbound events to the connections that are members of
// the addressed instance.
//
// Router is a stateless coordinator over two collaborators: the membership
// registry and a Directory of live send handles (the WebSocket hub). Deliver
// snapshots the member set first and then pushes to each member
// independently, so a member that disconnects or stalls mid-fan-out never
// blocks the rest.
//
// Deliver deliberately tolerates the race with a concurrent SwitchInstance: a
// client that is switching may miss an event whose membership lookup resolved
// a moment earlier. Producers get best-effort, at-most-once semantics; no
// lock spans both operations.
package relay
