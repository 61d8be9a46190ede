// Package match implements hybrid job matching: an exact keyword search
// blended with embedding similarity under a fixed, documented merge
// order. This is deliberately not a scoring model — keyword hits always
// precede similarity hits, each sub-group keeps its own ordering, and no
// cross-group re-ranking ever happens.
package match

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/model"
)

// DefaultLimit is the result cap used when the caller passes 0.
const DefaultLimit = 10

// keywordFetchFactor over-fetches the keyword query so identity
// deduplication still fills the limit.
const keywordFetchFactor = 3

// similarityFetchFactor over-fetches the similarity query so the
// keyword-overlap exclusion still fills the limit.
const similarityFetchFactor = 5

// Searcher is the slice of the storage layer the matcher needs.
type Searcher interface {
	// SearchByTags returns keyword matches, newest first, deduplicated.
	SearchByTags(ctx context.Context, terms []string, limit int) ([]model.JobPosting, error)

	// TopKByEmbedding returns similarity matches by ascending distance.
	TopKByEmbedding(ctx context.Context, embedding []float32, k int) ([]model.JobPosting, error)
}

// Matcher blends keyword and similarity retrieval for one profile.
type Matcher struct {
	store Searcher
}

// New constructs a Matcher over the given searcher.
func New(store Searcher) (*Matcher, error) {
	if store == nil {
		return nil, fmt.Errorf("match: searcher must not be nil")
	}
	return &Matcher{store: store}, nil
}

// Match returns up to limit postings for a profile described by its
// tags and optional embedding.
//
// Contract:
//  1. With tags, keyword search runs first (capped at limit×3). If it
//     alone satisfies the limit, its first limit items are returned in
//     recency order and no similarity query is issued — that
//     short-circuit is part of the contract, not an optimization.
//  2. A short keyword result is back-filled from a Top-K similarity
//     query (K = limit×5) in ascending-distance order, excluding
//     postings already present by identity.
//  3. Without tags, the result is a pure Top-K similarity query of size
//     limit, or empty when the profile has no embedding either.
func (m *Matcher) Match(ctx context.Context, tags []string, embedding []float32, limit int) ([]model.JobPosting, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	log := logging.FromContext(ctx)

	if len(tags) == 0 {
		if len(embedding) == 0 {
			log.Debug("profile has neither tags nor embedding, nothing to match")
			return nil, nil
		}
		hits, err := m.store.TopKByEmbedding(ctx, embedding, limit)
		if err != nil {
			return nil, fmt.Errorf("match: similarity query: %w", err)
		}
		return hits, nil
	}

	keyword, err := m.store.SearchByTags(ctx, tags, limit*keywordFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("match: keyword query: %w", err)
	}

	if len(keyword) >= limit {
		log.Debug("keyword search satisfied the limit",
			slog.Int("matches", len(keyword)), slog.Int("limit", limit))
		return keyword[:limit], nil
	}

	if len(embedding) == 0 {
		return keyword, nil
	}

	similar, err := m.store.TopKByEmbedding(ctx, embedding, limit*similarityFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("match: similarity back-fill: %w", err)
	}

	seen := make(map[uuid.UUID]struct{}, len(keyword))
	for _, p := range keyword {
		seen[p.ID] = struct{}{}
	}

	combined := keyword
	for _, p := range similar {
		if len(combined) >= limit {
			break
		}
		if _, dup := seen[p.ID]; dup {
			continue
		}
		combined = append(combined, p)
	}

	log.Debug("hybrid match combined",
		slog.Int("keyword", len(keyword)),
		slog.Int("total", len(combined)),
	)
	return combined, nil
}
