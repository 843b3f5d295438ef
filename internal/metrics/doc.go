// Package metrics exposes relay counters on GET /metrics in the Prometheus
// text exposition format.
package metrics
