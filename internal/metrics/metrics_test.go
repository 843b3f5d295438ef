package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pulserelay/pulserelay/internal/metrics"
)

func scrape(t *testing.T, h http.Handler) string {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	resp, err := http.Get(srv.URL)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status: got %d, want 200", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Errorf("content-type: got %q, want text exposition format", ct)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return string(body)
}

func TestHandler_ExposesAllFamilies(t *testing.T) {
	c := &metrics.Collector{}
	body := scrape(t, metrics.Handler(c, func() int { return 4 }, func() int { return 2 }))

	for _, name := range []string{
		"pulserelay_connections",
		"pulserelay_instances",
		"pulserelay_events_ingested_total",
		"pulserelay_events_delivered_total",
		"pulserelay_deliveries_dropped_total",
		"pulserelay_broadcasts_total",
	} {
		if !strings.Contains(body, name) {
			t.Errorf("missing metric %s in:\n%s", name, body)
		}
	}
	if !strings.Contains(body, "pulserelay_connections 4") {
		t.Errorf("connections gauge: want 4 in:\n%s", body)
	}
	if !strings.Contains(body, "pulserelay_instances 2") {
		t.Errorf("instances gauge: want 2 in:\n%s", body)
	}
}

func TestCollector_Counts(t *testing.T) {
	c := &metrics.Collector{}
	c.EventIngested()
	c.EventsDelivered(3)
	c.DeliveryDropped()
	c.BroadcastRelayed()
	c.BroadcastRelayed()

	body := scrape(t, metrics.Handler(c, func() int { return 0 }, func() int { return 0 }))

	for _, want := range []string{
		"pulserelay_events_ingested_total 1",
		"pulserelay_events_delivered_total 3",
		"pulserelay_deliveries_dropped_total 1",
		"pulserelay_broadcasts_total 2",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("want %q in:\n%s", want, body)
		}
	}
}
