// Package model defines the domain entities shared across jobpulse:
// channels, job postings, user profiles, and the raw messages flowing
// through the ingestion pipeline. The structs are storage-agnostic —
// persistence concerns live in internal/storage.
package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ExperienceLevel is the seniority extracted from a posting or declared
// on a profile. Empty string means the field could not be resolved.
type ExperienceLevel = string

// Known experience levels.
const (
	LevelIntern ExperienceLevel = "intern"
	LevelJunior ExperienceLevel = "junior"
	LevelMiddle ExperienceLevel = "middle"
	LevelSenior ExperienceLevel = "senior"
	LevelLead   ExperienceLevel = "lead"
)

// WorkType is the working arrangement of a posting or profile preference.
type WorkType = string

// Known work types.
const (
	WorkRemote WorkType = "remote"
	WorkOffice WorkType = "office"
	WorkHybrid WorkType = "hybrid"
)

// Currency is the ISO-ish currency code attached to a salary range.
type Currency = string

// Known currencies.
const (
	CurrencyUSD Currency = "USD"
	CurrencyUZS Currency = "UZS"
	CurrencyEUR Currency = "EUR"
	CurrencyRUB Currency = "RUB"
)

// RawMessage is a single free-text message delivered by the message
// source. It is ephemeral: consumed once by the ingestion coordinator and
// never persisted as-is.
type RawMessage struct {
	// ChannelExternalID is the source platform's numeric channel ID.
	ChannelExternalID int64

	// MessageID is the message's ID within its channel. Together with
	// ChannelExternalID it forms the idempotency anchor for replay.
	MessageID int

	// Text is the raw message body.
	Text string

	// ReceivedAt is when the message was handed to jobpulse.
	ReceivedAt time.Time
}

// Channel is a message source channel jobpulse has seen at least one
// message from. Created on first sighting with a placeholder title.
type Channel struct {
	ID         uuid.UUID
	ExternalID int64

	// Title is the channel's display name. PlaceholderTitle until the
	// monitor observes the real one.
	Title string

	// Handle is the channel's public @name, empty for private channels.
	Handle string

	IsActive bool

	// JobCount is the number of postings successfully ingested from this
	// channel. Incremented only for non-duplicate, non-spam ingestions.
	JobCount int

	// LastParsedAt is the time of the most recent successful ingestion
	// attributed to this channel. Nil until the first one.
	LastParsedAt *time.Time

	CreatedAt time.Time
}

// PlaceholderTitle returns the title given to a channel whose metadata
// has not been observed yet.
func PlaceholderTitle(externalID int64) string {
	return fmt.Sprintf("Channel_%d", externalID)
}

// JobPosting is a structured, deduplicated job record extracted from a
// raw message. Postings are never deleted by the core; moderation flips
// IsActive / IsSpam instead.
type JobPosting struct {
	ID          uuid.UUID       `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Company     string          `json:"company,omitempty"`
	Tags        []string        `json:"tags"`
	Experience  ExperienceLevel `json:"experienceLevel,omitempty"`
	SalaryMin   *int64          `json:"salaryMin,omitempty"`
	SalaryMax   *int64          `json:"salaryMax,omitempty"`
	Currency    Currency        `json:"currency,omitempty"`
	WorkType    WorkType        `json:"workType,omitempty"`
	Location    string          `json:"location,omitempty"`
	ContactInfo string          `json:"contactInfo,omitempty"`

	// RawText is the original message body the posting was extracted
	// from, kept for re-extraction and manual review.
	RawText string `json:"-"`

	// SourceChannelID / SourceMessageID identify the originating message.
	// Unique together among channel-originated postings.
	SourceChannelID *uuid.UUID `json:"sourceChannelId,omitempty"`
	SourceMessageID *int       `json:"-"`

	// Embedding is the semantic vector of RawText. Nil only for postings
	// created outside the ingestion pipeline.
	Embedding []float32 `json:"-"`

	IsActive   bool      `json:"isActive"`
	IsSpam     bool      `json:"-"`
	IsFeatured bool      `json:"isFeatured"`
	CreatedAt  time.Time `json:"createdAt"`
}

// UserProfile holds a user's matching preferences and the embedding
// derived from them. Owned exclusively by its user; the embedding is
// recomputed by the profile service whenever the matching-relevant
// fields change.
type UserProfile struct {
	UserID     uuid.UUID       `json:"userId"`
	Tags       []string        `json:"tags"`
	Experience ExperienceLevel `json:"experienceLevel,omitempty"`
	SalaryMin  *int64          `json:"salaryMin,omitempty"`
	SalaryMax  *int64          `json:"salaryMax,omitempty"`
	Currency   Currency        `json:"currency,omitempty"`
	WorkType   WorkType        `json:"workType,omitempty"`
	City       string          `json:"city,omitempty"`
	Embedding  []float32       `json:"-"`
	IsComplete bool            `json:"isComplete"`
}
