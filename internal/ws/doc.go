// Package ws implements the WebSocket side of the relay: the Hub that owns
// all connected sessions and the per-session read/write pumps.
//
// Each connection gets a generated id and, if the handshake carried an
// "instance" query parameter, immediate membership in that instance. Every
// connection receives a "welcome" event on connect; a connection without an
// instance gets a warning in it and stays in a supported unaffiliated mode.
//
// Frames in both directions are JSON envelopes {"event": ..., "data": ...}.
// Client-originated events:
//
//	join-instance    switch instance membership; ack "instance-changed"
//	                 {instance, timestamp}, or an "error" event for an empty token
//	message          echoed back as "message-response" {original, response, timestamp}
//	broadcast        relayed to all other connections as "broadcast-message"
//	                 {from, data, timestamp}
//
// Sends to a client never block the relay: each session has a small buffered
// channel drained by its write pump, and a full buffer counts as a failed
// delivery for that member only.
package ws
