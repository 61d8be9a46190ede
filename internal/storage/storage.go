// Package storage defines the persistence boundary for jobpulse and its
// two implementations: Postgres (pgx + pgvector) for production and
// Memory for tests and local development. The store owns the two
// invariants the rest of the system leans on:
//
//   - (source_channel_id, source_message_id) is unique among postings —
//     the idempotency anchor that makes replay safe. A conflicting
//     insert fails atomically with ErrAlreadyProcessed.
//   - A posting and its channel counter update commit as one atomic
//     unit; no reader ever observes one without the other.
package storage

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/model"
)

// ErrAlreadyProcessed reports that the (channel, message) pair behind an
// insert has already been ingested. Callers treat it as success-no-op.
var ErrAlreadyProcessed = errors.New("storage: message already processed")

// ErrNotFound reports that the requested row does not exist.
var ErrNotFound = errors.New("storage: not found")

// Store is the persistence interface consumed by the coordinator,
// matcher, monitor, and query surface. Implementations must be safe for
// concurrent use; every method honors ctx cancellation.
type Store interface {
	// ChannelByExternalID returns the channel with the given source
	// platform ID, or ErrNotFound.
	ChannelByExternalID(ctx context.Context, externalID int64) (*model.Channel, error)

	// EnsureChannel resolves or creates the channel for externalID.
	// When title/handle are non-empty and differ from the stored values
	// the metadata is refreshed. A newly created channel with an empty
	// title gets the placeholder title.
	EnsureChannel(ctx context.Context, externalID int64, title, handle string) (*model.Channel, error)

	// WasProcessed reports whether the (channel, message) pair has been
	// terminally handled — either stored as a posting or skipped as a
	// duplicate.
	WasProcessed(ctx context.Context, channelExternalID int64, messageID int) (bool, error)

	// MarkProcessed records a pair as terminally handled without storing
	// a posting (the duplicate-skip path).
	MarkProcessed(ctx context.Context, channelExternalID int64, messageID int) error

	// CreatePosting persists p, increments the source channel's job
	// counter, stamps its last-parsed time, and records the message as
	// processed — all in one atomic unit. A uniqueness conflict on the
	// source pair returns ErrAlreadyProcessed with nothing written.
	// channelExternalID keys the processed-message record; it is ignored
	// when p has no source channel.
	CreatePosting(ctx context.Context, p *model.JobPosting, channelExternalID int64) error

	// NearestPosting returns the single active, non-spam posting closest
	// to embedding by cosine distance, and that distance. Returns
	// (nil, 0, nil) when no eligible posting exists.
	NearestPosting(ctx context.Context, embedding []float32) (*model.JobPosting, float64, error)

	// TopKByEmbedding returns up to k active, non-spam postings ordered
	// by ascending cosine distance from embedding.
	TopKByEmbedding(ctx context.Context, embedding []float32, k int) ([]model.JobPosting, error)

	// SearchByTags returns active, non-spam postings matching any term
	// (case-insensitive substring over tags, title, and description),
	// deduplicated, ordered by creation time descending, capped at limit.
	SearchByTags(ctx context.Context, terms []string, limit int) ([]model.JobPosting, error)

	// RecentPostings returns the page of active, non-spam postings
	// created at or after since, newest first, plus the total count.
	RecentPostings(ctx context.Context, since time.Time, pageNum, pageSize int) ([]model.JobPosting, int, error)

	// SavePosting links a posting into the user's saved list (idempotent).
	SavePosting(ctx context.Context, userID, postingID uuid.UUID) error

	// UnsavePosting removes a saved-list link if present.
	UnsavePosting(ctx context.Context, userID, postingID uuid.UUID) error

	// SavedPostings returns the page of the user's saved postings,
	// newest first, plus the total count.
	SavedPostings(ctx context.Context, userID uuid.UUID, pageNum, pageSize int) ([]model.JobPosting, int, error)

	// Profile returns the user's profile, or ErrNotFound.
	Profile(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)

	// UpsertProfile creates or replaces the user's profile.
	UpsertProfile(ctx context.Context, p *model.UserProfile) error
}

// offset converts a 1-based page number into a row offset.
func offset(pageNum, pageSize int) int {
	if pageNum < 1 {
		pageNum = 1
	}
	return (pageNum - 1) * pageSize
}

// sortByCreatedDesc orders postings newest first, breaking creation-time
// ties by ID so merged result sets stay deterministic.
func sortByCreatedDesc(postings []model.JobPosting) {
	sort.SliceStable(postings, func(i, j int) bool {
		if !postings[i].CreatedAt.Equal(postings[j].CreatedAt) {
			return postings[i].CreatedAt.After(postings[j].CreatedAt)
		}
		return postings[i].ID.String() > postings[j].ID.String()
	})
}
