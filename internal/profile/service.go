// Package profile implements the user-facing profile service: profile
// upserts with embedding recomputation, saved-posting bookkeeping, and
// personalized matches via the hybrid matcher.
package profile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/match"
	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// Embedder is the slice of the AI collaborator the service needs.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is the slice of the storage layer the service needs.
type Store interface {
	Profile(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error)
	UpsertProfile(ctx context.Context, p *model.UserProfile) error
	SavePosting(ctx context.Context, userID, postingID uuid.UUID) error
	UnsavePosting(ctx context.Context, userID, postingID uuid.UUID) error
	SavedPostings(ctx context.Context, userID uuid.UUID, pageNum, pageSize int) ([]model.JobPosting, int, error)
}

// Service owns user profiles. Each profile belongs to exactly one user;
// all mutation goes through Update so the embedding can never drift out
// of sync with the fields it was computed from.
type Service struct {
	store    Store
	embedder Embedder
	matcher  *match.Matcher
}

// New constructs a Service from its collaborators.
func New(store Store, embedder Embedder, matcher *match.Matcher) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("profile: store must not be nil")
	}
	if embedder == nil {
		return nil, fmt.Errorf("profile: embedder must not be nil")
	}
	if matcher == nil {
		return nil, fmt.Errorf("profile: matcher must not be nil")
	}
	return &Service{store: store, embedder: embedder, matcher: matcher}, nil
}

// Get returns the user's profile, or storage.ErrNotFound.
func (s *Service) Get(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	return s.store.Profile(ctx, userID)
}

// Update persists the profile, recomputing the embedding only when the
// canonical profile text actually changed. An unchanged profile keeps
// its embedding and costs no AI call.
func (s *Service) Update(ctx context.Context, p model.UserProfile) (*model.UserProfile, error) {
	if p.UserID == uuid.Nil {
		return nil, fmt.Errorf("profile: user id must not be nil")
	}

	text := model.ProfileText(&p)
	p.IsComplete = len(p.Tags) > 0 && p.Experience != ""

	existing, err := s.store.Profile(ctx, p.UserID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("profile: load existing: %w", err)
	}

	switch {
	case existing != nil && len(existing.Embedding) > 0 && model.ProfileText(existing) == text:
		p.Embedding = existing.Embedding
	case text == "":
		p.Embedding = nil
	default:
		embedding, err := s.embedder.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("profile: embed profile: %w", err)
		}
		p.Embedding = embedding
		logging.FromContext(ctx).Debug("profile embedding recomputed",
			slog.String("user_id", p.UserID.String()),
		)
	}

	if err := s.store.UpsertProfile(ctx, &p); err != nil {
		return nil, fmt.Errorf("profile: upsert: %w", err)
	}
	return &p, nil
}

// Matches returns the user's hybrid matches. A user with no profile gets
// storage.ErrNotFound; a profile with no tags and no embedding matches
// nothing.
func (s *Service) Matches(ctx context.Context, userID uuid.UUID, limit int) ([]model.JobPosting, error) {
	p, err := s.store.Profile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.matcher.Match(ctx, p.Tags, p.Embedding, limit)
}

// Save marks a posting as saved by the user. Saving twice is a no-op.
func (s *Service) Save(ctx context.Context, userID, postingID uuid.UUID) error {
	return s.store.SavePosting(ctx, userID, postingID)
}

// Unsave removes a saved posting. Removing one that was never saved is
// a no-op.
func (s *Service) Unsave(ctx context.Context, userID, postingID uuid.UUID) error {
	return s.store.UnsavePosting(ctx, userID, postingID)
}

// Saved returns one page of the user's saved postings, newest first,
// with the total count.
func (s *Service) Saved(ctx context.Context, userID uuid.UUID, pageNum, pageSize int) ([]model.JobPosting, int, error) {
	return s.store.SavedPostings(ctx, userID, pageNum, pageSize)
}
