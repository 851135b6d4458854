package metrics

import "github.com/prometheus/client_golang/prometheus"

// FeedMetrics counts dashboard feed refreshes and background persistence calls.
type FeedMetrics struct {
	persist *prometheus.CounterVec
	refresh *prometheus.CounterVec
	evicted prometheus.Counter
}

// NewFeedMetrics registers the feed counters on reg. A nil registerer yields a
// no-op recorder.
func NewFeedMetrics(reg prometheus.Registerer) *FeedMetrics {
	if reg == nil {
		return &FeedMetrics{}
	}
	persist := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_persist_total",
		Help:      "Background read-state persistence calls by operation and result.",
	}, []string{"op", "result"})
	refresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_refresh_total",
		Help:      "Feed reloads from the notification source by result.",
	}, []string{"result"})
	evicted := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "feed_sessions_evicted_total",
		Help:      "Idle dashboard sessions dropped from memory.",
	})
	reg.MustRegister(persist, refresh, evicted)
	return &FeedMetrics{persist: persist, refresh: refresh, evicted: evicted}
}

// ObservePersist counts one persistence call for op.
func (m *FeedMetrics) ObservePersist(op string, err error) {
	if m == nil || m.persist == nil {
		return
	}
	m.persist.WithLabelValues(labelOr(op, "unknown"), resultOf(err)).Inc()
}

// ObserveRefresh counts one feed reload.
func (m *FeedMetrics) ObserveRefresh(err error) {
	if m == nil || m.refresh == nil {
		return
	}
	m.refresh.WithLabelValues(resultOf(err)).Inc()
}

// ObserveEvictions adds n evicted sessions.
func (m *FeedMetrics) ObserveEvictions(n int) {
	if m == nil || m.evicted == nil || n <= 0 {
		return
	}
	m.evicted.Add(float64(n))
}

func resultOf(err error) string {
	if err != nil {
		return resultFailure
	}
	return resultSuccess
}
