// Package server implements the HTTP query surface of jobpulse: recent
// job listings, per-user saved postings and hybrid matches, profile
// upserts, and the operational endpoints (health, readiness, metrics).
// The server is started by the `jobpulse serve` CLI command; ingestion
// runs separately under `jobpulse monitor`.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/profile"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// New constructs a Server from its collaborators and config. reg is the
// registry metrics are registered against and served from; tests pass a
// fresh prometheus.NewRegistry so nothing leaks into the default one.
func New(store storage.Store, profiles *profile.Service, reg *prometheus.Registry, cfg *Config) (*Server, error) {
	if store == nil {
		return nil, fmt.Errorf("server: store must not be nil")
	}
	if profiles == nil {
		return nil, fmt.Errorf("server: profile service must not be nil")
	}
	if reg == nil {
		return nil, fmt.Errorf("server: metrics registry must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if cfg.Host == "" {
		cfg.Host = "127.0.0.1"
	}
	if cfg.Port == 0 {
		cfg.Port = 8080
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 10 * time.Second
	}
	if cfg.PageSize == 0 {
		cfg.PageSize = 20
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.NewFromEnv()
	}

	s := &Server{
		store:    store,
		profiles: profiles,
		cfg:      cfg,
		log:      cfg.Logger,
		metrics:  newServerMetrics(reg),
	}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", s.instrument("healthz", s.handleHealth))
	mux.Handle("GET /readyz", s.instrument("readyz", s.handleReady))
	mux.Handle("GET /metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	mux.Handle("GET /api/jobs/recent", s.instrument("jobs_recent", s.handleRecentJobs))
	mux.Handle("GET /api/users/{id}/profile", s.instrument("profile_get", s.handleProfileGet))
	mux.Handle("PUT /api/users/{id}/profile", s.instrument("profile_put", s.handleProfilePut))
	mux.Handle("GET /api/users/{id}/matches", s.instrument("matches", s.handleMatches))
	mux.Handle("GET /api/users/{id}/saved", s.instrument("saved_list", s.handleSavedList))
	mux.Handle("POST /api/users/{id}/saved/{jobID}", s.instrument("saved_add", s.handleSavedAdd))
	mux.Handle("DELETE /api/users/{id}/saved/{jobID}", s.instrument("saved_remove", s.handleSavedRemove))

	s.httpServer = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:      requestLogger(s.log, mux),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}

	return s, nil
}

// Start begins listening and serving HTTP requests. It blocks until the
// context is cancelled, then performs a graceful shutdown.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.log.Info("http server listening", "addr", s.httpServer.Addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: listen error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server: graceful shutdown failed: %w", err)
		}
		return nil
	}
}

// Handler returns the server's root handler. Test-only entry point for
// httptest.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// writeJSON encodes v as the response body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error body with the given status.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
