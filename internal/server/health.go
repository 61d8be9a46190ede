package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/logging"
)

// probeTimeout is the maximum time allowed for each individual dependency
// probe during a readiness check. Kept short so /readyz responds quickly
// even when a dependency is slow rather than unreachable.
const probeTimeout = 5 * time.Second

// Pinger is the interface implemented by any dependency that can report
// its own reachability. Each implementation must return nil when the
// dependency is healthy and a descriptive error otherwise.
// Implementations must be safe to call from multiple goroutines.
type Pinger interface {
	// Ping checks whether the dependency is reachable within the given
	// context.
	Ping(ctx context.Context) error

	// Name returns a short human-readable label used in readiness
	// responses (e.g. "postgres", "redis").
	Name() string
}

// PingerFunc adapts a named ping function to the Pinger interface.
type PingerFunc struct {
	// Label identifies the dependency in readiness responses.
	Label string
	// Fn is the probe to run.
	Fn func(ctx context.Context) error
}

// Name returns the dependency label.
func (p PingerFunc) Name() string { return p.Label }

// Ping runs the probe.
func (p PingerFunc) Ping(ctx context.Context) error { return p.Fn(ctx) }

// readyCheck holds the per-dependency result of a readiness probe.
type readyCheck struct {
	Name string `json:"name"`
	OK   bool   `json:"ok"`
	// Error contains the failure reason when OK is false.
	Error string `json:"error,omitempty"`
}

// readyResponse is the JSON body returned by GET /readyz.
type readyResponse struct {
	// Ready is true only when every dependency probe succeeded.
	Ready  bool         `json:"ready"`
	Checks []readyCheck `json:"checks"`
}

// handleHealth handles GET /healthz for liveness checks.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady handles GET /readyz. It probes each registered Pinger with
// a short timeout and returns 200 when all dependencies are reachable,
// or 503 when any probe fails. Unlike /healthz (liveness), this endpoint
// reflects actual dependency state.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	log := logging.FromContext(r.Context())

	resp := readyResponse{Ready: true}

	for _, p := range s.cfg.Pingers {
		probeCtx, cancel := context.WithTimeout(r.Context(), probeTimeout)
		err := p.Ping(probeCtx)
		cancel()

		check := readyCheck{Name: p.Name(), OK: err == nil}
		if err != nil {
			check.Error = err.Error()
			resp.Ready = false
			log.Warn("readiness probe failed",
				slog.String("dependency", p.Name()),
				slog.Any("error", err),
			)
		}
		resp.Checks = append(resp.Checks, check)
	}

	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}
