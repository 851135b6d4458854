package metrics

import (
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestFeedMetricsCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFeedMetrics(reg)

	m.ObservePersist("mark_read", nil)
	m.ObservePersist("mark_read", errors.New("boom"))
	m.ObservePersist("mark_all_read", nil)
	m.ObserveRefresh(nil)
	m.ObserveRefresh(nil)
	m.ObserveEvictions(3)
	m.ObserveEvictions(0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	checks := []struct {
		name   string
		labels map[string]string
		want   float64
	}{
		{"tunedash_feed_persist_total", map[string]string{"op": "mark_read", "result": "success"}, 1},
		{"tunedash_feed_persist_total", map[string]string{"op": "mark_read", "result": "failure"}, 1},
		{"tunedash_feed_persist_total", map[string]string{"op": "mark_all_read", "result": "success"}, 1},
		{"tunedash_feed_refresh_total", map[string]string{"result": "success"}, 2},
		{"tunedash_feed_sessions_evicted_total", map[string]string{}, 3},
	}
	for _, c := range checks {
		got, err := fetchCounterValue(mfs, c.name, c.labels)
		if err != nil {
			t.Fatalf("%s: %v", c.name, err)
		}
		if got != c.want {
			t.Fatalf("%s %v: expected %v got %v", c.name, c.labels, c.want, got)
		}
	}
}

func TestFeedMetricsNilSafe(t *testing.T) {
	var m *FeedMetrics
	m.ObservePersist("mark_read", nil)
	m.ObserveRefresh(errors.New("x"))
	m.ObserveEvictions(2)
	NewFeedMetrics(nil).ObserveRefresh(nil)
}
