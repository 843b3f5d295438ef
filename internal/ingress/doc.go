// Package ingress is the HTTP boundary that accepts externally submitted
// events and hands them to the relay Router.
//
// POST /events takes {instance, event, data}; all three are required.
// Missing fields and unparseable bodies are validation errors reported to the
// producer with a 400 — delivery is never attempted for them. GET / and
// GET /health report liveness and the current connection count. Unknown paths
// get a JSON 404, and OPTIONS preflights succeed for any path with the
// configured allowed origin.
package ingress
