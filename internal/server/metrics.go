// Package server — metrics.go registers the Prometheus metrics owned by
// the HTTP server and exposes them to handlers and middleware.
package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// labelHandler partitions metrics by logical endpoint name rather than
// the raw URL path.
const labelHandler = "handler"

// serverMetrics holds all Prometheus metrics owned by the HTTP server.
// A single instance is created in New and stored on Server so that tests
// can inject a fresh prometheus.Registry without polluting the default
// one.
type serverMetrics struct {
	// httpRequestsTotal counts all HTTP requests handled by the mux,
	// partitioned by method, handler, and status code.
	httpRequestsTotal *prometheus.CounterVec

	// httpDurationSeconds records the latency of all HTTP requests.
	httpDurationSeconds *prometheus.HistogramVec

	// matchDurationSeconds records the wall-clock duration of hybrid
	// match computations served by /api/users/{id}/matches.
	matchDurationSeconds prometheus.Histogram
}

// newServerMetrics registers all server metrics against reg and returns
// the populated serverMetrics. promauto.With(reg) registers into the
// provided registry rather than the global default, keeping unit tests
// hermetic.
func newServerMetrics(reg prometheus.Registerer) *serverMetrics {
	factory := promauto.With(reg)

	return &serverMetrics{
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "jobpulse",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled by the server, partitioned by method, handler, and status code.",
		}, []string{"method", labelHandler, "code"}),

		httpDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "jobpulse",
			Subsystem: "http",
			Name:      "duration_seconds",
			Help:      "Latency of HTTP requests handled by the server.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", labelHandler}),

		matchDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "jobpulse",
			Subsystem: "match",
			Name:      "duration_seconds",
			Help:      "Wall-clock duration of hybrid match computations.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}
