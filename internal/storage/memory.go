package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/vector"
)

// messageKey identifies a message within its source channel.
type messageKey struct {
	channelExternalID int64
	messageID         int
}

// savedEntry is one saved-list link with its save time for ordering.
type savedEntry struct {
	postingID uuid.UUID
	savedAt   time.Time
}

// Memory is an in-process Store used by tests and local development.
// It mirrors the Postgres implementation's semantics exactly — including
// the atomic insert-or-detect-conflict on the source pair — with cosine
// distance computed by internal/vector.
type Memory struct {
	mu        sync.Mutex
	channels  map[int64]*model.Channel
	postings  []model.JobPosting
	processed map[messageKey]struct{}
	saved     map[uuid.UUID][]savedEntry
	profiles  map[uuid.UUID]model.UserProfile

	// now is the clock; replaceable via SetClock for deterministic tests.
	now func() time.Time
}

// NewMemory returns an empty in-process store.
func NewMemory() *Memory {
	return &Memory{
		channels:  make(map[int64]*model.Channel),
		processed: make(map[messageKey]struct{}),
		saved:     make(map[uuid.UUID][]savedEntry),
		profiles:  make(map[uuid.UUID]model.UserProfile),
		now:       time.Now,
	}
}

// SetClock replaces the store's clock. Test-only.
func (m *Memory) SetClock(now func() time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.now = now
}

// ChannelByExternalID returns a copy of the channel, or ErrNotFound.
func (m *Memory) ChannelByExternalID(_ context.Context, externalID int64) (*model.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.channels[externalID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

// EnsureChannel resolves or creates the channel, refreshing non-empty
// metadata that differs from the stored values.
func (m *Memory) EnsureChannel(_ context.Context, externalID int64, title, handle string) (*model.Channel, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	c, ok := m.channels[externalID]
	if !ok {
		if title == "" {
			title = model.PlaceholderTitle(externalID)
		}
		c = &model.Channel{
			ID:         uuid.New(),
			ExternalID: externalID,
			Title:      title,
			Handle:     handle,
			IsActive:   true,
			CreatedAt:  m.now(),
		}
		m.channels[externalID] = c
	} else {
		if title != "" && c.Title != title {
			c.Title = title
		}
		if handle != "" && c.Handle != handle {
			c.Handle = handle
		}
	}

	cp := *c
	return &cp, nil
}

// WasProcessed reports whether the pair is in the processed ledger.
func (m *Memory) WasProcessed(_ context.Context, channelExternalID int64, messageID int) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.processed[messageKey{channelExternalID, messageID}]
	return ok, nil
}

// MarkProcessed records the pair in the ledger.
func (m *Memory) MarkProcessed(_ context.Context, channelExternalID int64, messageID int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.processed[messageKey{channelExternalID, messageID}] = struct{}{}
	return nil
}

// CreatePosting appends the posting, bumps the channel counter, and
// records the pair as processed under one lock — the in-process
// equivalent of the Postgres transaction.
func (m *Memory) CreatePosting(_ context.Context, p *model.JobPosting, channelExternalID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if p.SourceChannelID != nil && p.SourceMessageID != nil {
		key := messageKey{channelExternalID, *p.SourceMessageID}
		if _, done := m.processed[key]; done {
			return ErrAlreadyProcessed
		}
		for i := range m.postings {
			ex := &m.postings[i]
			if ex.SourceChannelID != nil && ex.SourceMessageID != nil &&
				*ex.SourceChannelID == *p.SourceChannelID && *ex.SourceMessageID == *p.SourceMessageID {
				return ErrAlreadyProcessed
			}
		}
		m.processed[key] = struct{}{}
	}

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := m.now()
	p.CreatedAt = now
	m.postings = append(m.postings, clonePosting(*p))

	if p.SourceChannelID != nil {
		for _, c := range m.channels {
			if c.ID == *p.SourceChannelID {
				c.JobCount++
				t := now
				c.LastParsedAt = &t
				break
			}
		}
	}

	return nil
}

// NearestPosting linearly scans eligible postings for the smallest
// cosine distance.
func (m *Memory) NearestPosting(_ context.Context, embedding []float32) (*model.JobPosting, float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var best *model.JobPosting
	bestDistance := 0.0
	for i := range m.postings {
		p := &m.postings[i]
		if !eligible(p) {
			continue
		}
		d := vector.CosineDistance(embedding, p.Embedding)
		if best == nil || d < bestDistance {
			cp := clonePosting(*p)
			best = &cp
			bestDistance = d
		}
	}
	if best == nil {
		return nil, 0, nil
	}
	return best, bestDistance, nil
}

// TopKByEmbedding returns up to k eligible postings by ascending
// cosine distance.
func (m *Memory) TopKByEmbedding(_ context.Context, embedding []float32, k int) ([]model.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	type scored struct {
		posting  model.JobPosting
		distance float64
	}
	var hits []scored
	for i := range m.postings {
		p := &m.postings[i]
		if !eligible(p) {
			continue
		}
		hits = append(hits, scored{clonePosting(*p), vector.CosineDistance(embedding, p.Embedding)})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].distance < hits[j].distance })

	if len(hits) > k {
		hits = hits[:k]
	}
	out := make([]model.JobPosting, len(hits))
	for i, h := range hits {
		out[i] = h.posting
	}
	return out, nil
}

// SearchByTags matches any term case-insensitively against tags, title,
// and description, newest first, capped at limit.
func (m *Memory) SearchByTags(_ context.Context, terms []string, limit int) ([]model.JobPosting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(terms) == 0 {
		return nil, nil
	}

	var out []model.JobPosting
	for i := range m.postings {
		p := &m.postings[i]
		if !p.IsActive || p.IsSpam {
			continue
		}
		if matchesAnyTerm(p, terms) {
			out = append(out, clonePosting(*p))
		}
	}

	sortByCreatedDesc(out)
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// RecentPostings pages eligible postings created at or after since,
// newest first.
func (m *Memory) RecentPostings(_ context.Context, since time.Time, pageNum, pageSize int) ([]model.JobPosting, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.JobPosting
	for i := range m.postings {
		p := &m.postings[i]
		if p.IsActive && !p.IsSpam && !p.CreatedAt.Before(since) {
			all = append(all, clonePosting(*p))
		}
	}
	sortByCreatedDesc(all)

	return pageOf(all, pageNum, pageSize), len(all), nil
}

// SavePosting links the posting into the user's saved list; idempotent.
func (m *Memory) SavePosting(_ context.Context, userID, postingID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, e := range m.saved[userID] {
		if e.postingID == postingID {
			return nil
		}
	}
	m.saved[userID] = append(m.saved[userID], savedEntry{postingID, m.now()})
	return nil
}

// UnsavePosting removes the saved-list link if present.
func (m *Memory) UnsavePosting(_ context.Context, userID, postingID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries := m.saved[userID]
	for i, e := range entries {
		if e.postingID == postingID {
			m.saved[userID] = append(entries[:i], entries[i+1:]...)
			return nil
		}
	}
	return nil
}

// SavedPostings pages the user's saved postings, newest first.
func (m *Memory) SavedPostings(_ context.Context, userID uuid.UUID, pageNum, pageSize int) ([]model.JobPosting, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var all []model.JobPosting
	for _, e := range m.saved[userID] {
		for i := range m.postings {
			if m.postings[i].ID == e.postingID {
				all = append(all, clonePosting(m.postings[i]))
				break
			}
		}
	}
	sortByCreatedDesc(all)

	return pageOf(all, pageNum, pageSize), len(all), nil
}

// Profile returns a copy of the user's profile, or ErrNotFound.
func (m *Memory) Profile(_ context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.profiles[userID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Embedding = append([]float32(nil), p.Embedding...)
	return &cp, nil
}

// UpsertProfile creates or replaces the profile.
func (m *Memory) UpsertProfile(_ context.Context, p *model.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cp := *p
	cp.Tags = append([]string(nil), p.Tags...)
	cp.Embedding = append([]float32(nil), p.Embedding...)
	m.profiles[p.UserID] = cp
	return nil
}

// eligible reports whether a posting participates in similarity queries.
func eligible(p *model.JobPosting) bool {
	return p.IsActive && !p.IsSpam && len(p.Embedding) > 0
}

// matchesAnyTerm reports whether any term appears (case-insensitive) in
// the posting's tags, title, or description.
func matchesAnyTerm(p *model.JobPosting, terms []string) bool {
	title := strings.ToLower(p.Title)
	desc := strings.ToLower(p.Description)
	for _, term := range terms {
		t := strings.ToLower(term)
		if t == "" {
			continue
		}
		if strings.Contains(title, t) || strings.Contains(desc, t) {
			return true
		}
		for _, tag := range p.Tags {
			if strings.Contains(strings.ToLower(tag), t) {
				return true
			}
		}
	}
	return false
}

// clonePosting deep-copies the slices so callers never alias store state.
func clonePosting(p model.JobPosting) model.JobPosting {
	p.Tags = append([]string(nil), p.Tags...)
	p.Embedding = append([]float32(nil), p.Embedding...)
	if p.SourceChannelID != nil {
		id := *p.SourceChannelID
		p.SourceChannelID = &id
	}
	if p.SourceMessageID != nil {
		id := *p.SourceMessageID
		p.SourceMessageID = &id
	}
	if p.SalaryMin != nil {
		v := *p.SalaryMin
		p.SalaryMin = &v
	}
	if p.SalaryMax != nil {
		v := *p.SalaryMax
		p.SalaryMax = &v
	}
	return p
}

// pageOf windows an already-ordered slice.
func pageOf(all []model.JobPosting, pageNum, pageSize int) []model.JobPosting {
	start := offset(pageNum, pageSize)
	if start > len(all) {
		start = len(all)
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end]
}
