package metrics

import (
	"net/http"
	"sync/atomic"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
	"google.golang.org/protobuf/proto"
)

// Collector accumulates relay counters. The zero value is ready to use and
// all methods are safe for concurrent use.
type Collector struct {
	ingested   atomic.Int64
	delivered  atomic.Int64
	dropped    atomic.Int64
	broadcasts atomic.Int64
}

// EventIngested records one accepted POST /events submission.
func (c *Collector) EventIngested() { c.ingested.Add(1) }

// EventsDelivered records n successful per-member pushes.
func (c *Collector) EventsDelivered(n int) { c.delivered.Add(int64(n)) }

// DeliveryDropped records one member that could not be reached.
func (c *Collector) DeliveryDropped() { c.dropped.Add(1) }

// BroadcastRelayed records one client-originated broadcast.
func (c *Collector) BroadcastRelayed() { c.broadcasts.Add(1) }

// Handler serves the relay's counters plus live connection/instance gauges in
// the Prometheus text exposition format. The gauge callbacks are invoked on
// every scrape.
func Handler(c *Collector, connections, instances func() int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}

		families := []*dto.MetricFamily{
			gauge("pulserelay_connections", "Currently connected WebSocket clients.", float64(connections())),
			gauge("pulserelay_instances", "Instances with at least one member.", float64(instances())),
			counter("pulserelay_events_ingested_total", "Events accepted on the ingress endpoint.", float64(c.ingested.Load())),
			counter("pulserelay_events_delivered_total", "Per-member event deliveries that succeeded.", float64(c.delivered.Load())),
			counter("pulserelay_deliveries_dropped_total", "Per-member event deliveries skipped because the member was unreachable.", float64(c.dropped.Load())),
			counter("pulserelay_broadcasts_total", "Client-originated broadcasts relayed to all other connections.", float64(c.broadcasts.Load())),
		}

		format := expfmt.NewFormat(expfmt.TypeTextPlain)
		w.Header().Set("Content-Type", string(format))
		enc := expfmt.NewEncoder(w, format)
		for _, mf := range families {
			if err := enc.Encode(mf); err != nil {
				return
			}
		}
	})
}

func counter(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_COUNTER.Enum(),
		Metric: []*dto.Metric{{Counter: &dto.Counter{Value: proto.Float64(v)}}},
	}
}

func gauge(name, help string, v float64) *dto.MetricFamily {
	return &dto.MetricFamily{
		Name:   proto.String(name),
		Help:   proto.String(help),
		Type:   dto.MetricType_GAUGE.Enum(),
		Metric: []*dto.Metric{{Gauge: &dto.Gauge{Value: proto.Float64(v)}}},
	}
}
