package ingest

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus counters owned by the coordinator.
// Created per-instance via NewMetrics so tests can inject a fresh
// registry instead of polluting the default one.
type Metrics struct {
	// outcomesTotal counts terminally handled messages, partitioned by
	// outcome: created, spam, duplicate, already_processed.
	outcomesTotal *prometheus.CounterVec

	// failuresTotal counts retryable pipeline failures (collaborator
	// errors). These messages were not marked processed.
	failuresTotal prometheus.Counter
}

// NewMetrics registers the ingestion metrics against reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		outcomesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobpulse",
			Subsystem: "ingest",
			Name:      "outcomes_total",
			Help:      "Messages terminally handled by the ingestion pipeline, partitioned by outcome.",
		}, []string{"outcome"}),

		failuresTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "jobpulse",
			Subsystem: "ingest",
			Name:      "failures_total",
			Help:      "Retryable ingestion failures; the message was not marked processed.",
		}),
	}
}

// observe records one terminal outcome. Nil-safe.
func (m *Metrics) observe(o Outcome) {
	if m == nil {
		return
	}
	m.outcomesTotal.WithLabelValues(string(o)).Inc()
}

// failure records one retryable failure. Nil-safe.
func (m *Metrics) failure() {
	if m == nil {
		return
	}
	m.failuresTotal.Inc()
}
