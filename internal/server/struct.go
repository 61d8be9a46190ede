package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/profile"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// Config holds the HTTP server configuration.
type Config struct {
	// Host is the address to bind to (default: 127.0.0.1).
	Host string
	// Port is the TCP port to listen on (default: 8080).
	Port int
	// ReadTimeout is the maximum duration for reading the request.
	ReadTimeout time.Duration
	// WriteTimeout is the maximum duration for writing the response.
	WriteTimeout time.Duration
	// ShutdownTimeout is the maximum duration for a graceful shutdown.
	ShutdownTimeout time.Duration
	// PageSize is the default page size for list endpoints (default: 20).
	PageSize int
	// Logger is the structured logger used by the server and its handlers.
	// If nil, [logging.NewFromEnv] is used.
	Logger *slog.Logger
	// Pingers is the ordered list of dependency probes run by GET /readyz.
	// If empty, /readyz returns 200 with no checks (liveness-only mode).
	Pingers []Pinger
}

// Server is the HTTP query surface over the store and profile service.
type Server struct {
	// store is the read side for job listings.
	store storage.Store
	// profiles handles profile upserts, saved postings, and matches.
	profiles *profile.Service
	// cfg holds the resolved server configuration.
	cfg *Config
	// httpServer is the underlying net/http server.
	httpServer *http.Server
	// log is the structured logger for this server instance.
	log *slog.Logger
	// metrics holds the Prometheus instruments owned by the server.
	metrics *serverMetrics
}

// profileRequest is the JSON body for PUT /api/users/{id}/profile.
type profileRequest struct {
	// Tags are the user's skill keywords.
	Tags []string `json:"tags"`
	// Experience is the declared seniority, empty if undeclared.
	Experience model.ExperienceLevel `json:"experienceLevel,omitempty"`
	// SalaryMin / SalaryMax bound the desired salary range.
	SalaryMin *int64 `json:"salaryMin,omitempty"`
	SalaryMax *int64 `json:"salaryMax,omitempty"`
	// Currency is the salary currency code.
	Currency model.Currency `json:"currency,omitempty"`
	// WorkType is the preferred working arrangement.
	WorkType model.WorkType `json:"workType,omitempty"`
	// City is the user's city for location-aware matching.
	City string `json:"city,omitempty"`
}

// errorResponse is the JSON body of every non-2xx response.
type errorResponse struct {
	Error string `json:"error"`
}
