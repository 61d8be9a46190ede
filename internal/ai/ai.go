// Package ai defines the AI completion collaborator consumed by the
// ingestion pipeline and the profile service: spam classification,
// structured field extraction, and text embedding. jobpulse never
// computes any of these locally — a concrete implementation is injected
// at construction time.
package ai

import (
	"context"
	"errors"
)

// ErrClassification marks a spam-classification failure. Retryable: the
// message is not marked processed and may be replayed.
var ErrClassification = errors.New("ai: spam classification failed")

// ErrExtraction marks a structured-extraction failure. Retryable, same
// as ErrClassification.
var ErrExtraction = errors.New("ai: field extraction failed")

// Fields is the best-effort structured extraction result for one raw
// message. Any field may be absent; the ingestion coordinator applies
// the documented defaults.
type Fields struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Company     string   `json:"company"`
	Tags        []string `json:"tags"`
	Experience  string   `json:"experienceLevel"`
	SalaryMin   *int64   `json:"salaryMin"`
	SalaryMax   *int64   `json:"salaryMax"`
	Currency    string   `json:"currency"`
	WorkType    string   `json:"workType"`
	Location    string   `json:"location"`
	ContactInfo string   `json:"contactInfo"`
}

// Service is the AI completion collaborator. Implementations must be
// safe to call from multiple goroutines.
type Service interface {
	// ClassifySpam reports whether text is spam / not a job posting.
	ClassifySpam(ctx context.Context, text string) (bool, error)

	// ExtractFields parses best-effort structured job fields out of text.
	ExtractFields(ctx context.Context, text string) (Fields, error)

	// Embed returns the semantic embedding vector for text. Results are
	// cacheable by content hash with a multi-day TTL.
	Embed(ctx context.Context, text string) ([]float32, error)
}
