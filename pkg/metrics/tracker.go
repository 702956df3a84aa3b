package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// TrackerMetrics records counters for the tracker store operations.
type TrackerMetrics struct {
	creates  *prometheus.CounterVec
	advances *prometheus.CounterVec
	queries  *prometheus.CounterVec
}

// NewTrackerMetrics registers the tracker metrics on the provided registerer.
func NewTrackerMetrics(reg prometheus.Registerer) *TrackerMetrics {
	if reg == nil {
		return &TrackerMetrics{}
	}
	creates := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_creates_total",
		Help: "Tracked artifacts created, by upload method.",
	}, []string{"method"})
	advances := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_advances_total",
		Help: "Status advance attempts, by target status and outcome.",
	}, []string{"status", "outcome"})
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "tracker_queries_total",
		Help: "Status queries, by outcome.",
	}, []string{"outcome"})
	reg.MustRegister(creates, advances, queries)
	return &TrackerMetrics{
		creates:  creates,
		advances: advances,
		queries:  queries,
	}
}

// IncCreate increments the create counter for the given upload method.
func (t *TrackerMetrics) IncCreate(method string) {
	if t == nil || t.creates == nil {
		return
	}
	t.creates.WithLabelValues(normalizeLabel(method)).Inc()
}

// IncAdvance increments the advance counter for the target status and outcome.
func (t *TrackerMetrics) IncAdvance(status, outcome string) {
	if t == nil || t.advances == nil {
		return
	}
	t.advances.WithLabelValues(normalizeLabel(status), normalizeLabel(outcome)).Inc()
}

// IncQuery increments the query counter for the outcome.
func (t *TrackerMetrics) IncQuery(outcome string) {
	if t == nil || t.queries == nil {
		return
	}
	t.queries.WithLabelValues(normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
