package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/model"
)

// testClock hands out strictly increasing timestamps so creation-order
// assertions are deterministic.
func testClock() func() time.Time {
	t := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Second)
		return t
	}
}

func newPosting(title string, tags []string, embedding []float32) *model.JobPosting {
	return &model.JobPosting{
		Title:       title,
		Description: title + " description",
		Tags:        tags,
		Embedding:   embedding,
		IsActive:    true,
	}
}

func mustCreate(t *testing.T, m *Memory, p *model.JobPosting) uuid.UUID {
	t.Helper()
	if err := m.CreatePosting(context.Background(), p, 0); err != nil {
		t.Fatalf("CreatePosting(%q): %v", p.Title, err)
	}
	return p.ID
}

func TestEnsureChannel_PlaceholderThenRefresh(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	ch, err := m.EnsureChannel(ctx, 42, "", "")
	if err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}
	if ch.Title != model.PlaceholderTitle(42) {
		t.Errorf("title: got %q, want placeholder", ch.Title)
	}
	if !ch.IsActive {
		t.Error("new channels must be active")
	}

	refreshed, err := m.EnsureChannel(ctx, 42, "Go Jobs", "gojobs")
	if err != nil {
		t.Fatalf("EnsureChannel refresh: %v", err)
	}
	if refreshed.ID != ch.ID {
		t.Error("refresh must not create a second channel")
	}
	if refreshed.Title != "Go Jobs" || refreshed.Handle != "gojobs" {
		t.Errorf("metadata not refreshed: %+v", refreshed)
	}

	// Empty observations never clobber known metadata.
	again, err := m.EnsureChannel(ctx, 42, "", "")
	if err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}
	if again.Title != "Go Jobs" {
		t.Errorf("empty title clobbered the stored one: %q", again.Title)
	}
}

func TestCreatePosting_AtomicCounterAndLedger(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	ch, err := m.EnsureChannel(ctx, 7, "", "")
	if err != nil {
		t.Fatalf("EnsureChannel: %v", err)
	}

	messageID := 101
	p := newPosting("Go dev", nil, []float32{1, 0})
	p.SourceChannelID = &ch.ID
	p.SourceMessageID = &messageID

	if err := m.CreatePosting(ctx, p, 7); err != nil {
		t.Fatalf("CreatePosting: %v", err)
	}

	got, err := m.ChannelByExternalID(ctx, 7)
	if err != nil {
		t.Fatalf("channel lookup: %v", err)
	}
	if got.JobCount != 1 {
		t.Errorf("job count: got %d, want 1", got.JobCount)
	}
	if got.LastParsedAt == nil {
		t.Error("last parsed time missing")
	}

	done, err := m.WasProcessed(ctx, 7, messageID)
	if err != nil {
		t.Fatalf("WasProcessed: %v", err)
	}
	if !done {
		t.Error("CreatePosting must record the message in the ledger")
	}

	// The same source pair conflicts and writes nothing.
	dup := newPosting("Go dev again", nil, []float32{1, 0})
	dup.SourceChannelID = &ch.ID
	dup.SourceMessageID = &messageID
	if err := m.CreatePosting(ctx, dup, 7); !errors.Is(err, ErrAlreadyProcessed) {
		t.Fatalf("conflicting insert: got %v, want ErrAlreadyProcessed", err)
	}
	got, _ = m.ChannelByExternalID(ctx, 7)
	if got.JobCount != 1 {
		t.Errorf("job count after conflict: got %d, want 1", got.JobCount)
	}
}

func TestNearestPosting_FindsClosest(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	mustCreate(t, m, newPosting("far", nil, []float32{0, 1}))
	wantID := mustCreate(t, m, newPosting("near", nil, []float32{1, 0.1}))

	got, distance, err := m.NearestPosting(ctx, []float32{1, 0})
	if err != nil {
		t.Fatalf("NearestPosting: %v", err)
	}
	if got == nil || got.ID != wantID {
		t.Fatalf("nearest: got %v, want %s", got, wantID)
	}
	if distance < 0 || distance > 2 {
		t.Errorf("distance out of range: %v", distance)
	}
}

func TestNearestPosting_EmptyStore(t *testing.T) {
	t.Parallel()

	got, distance, err := NewMemory().NearestPosting(context.Background(), []float32{1})
	if err != nil {
		t.Fatalf("NearestPosting: %v", err)
	}
	if got != nil || distance != 0 {
		t.Errorf("empty store: got (%v, %v), want (nil, 0)", got, distance)
	}
}

func TestTopKByEmbedding_OrderAndEligibility(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()

	nearest := mustCreate(t, m, newPosting("nearest", nil, []float32{1, 0}))
	second := mustCreate(t, m, newPosting("second", nil, []float32{1, 0.5}))
	mustCreate(t, m, newPosting("distant", nil, []float32{0, 1}))

	spam := newPosting("spam", nil, []float32{1, 0})
	spam.IsSpam = true
	mustCreate(t, m, spam)

	inactive := newPosting("inactive", nil, []float32{1, 0})
	inactive.IsActive = false
	mustCreate(t, m, inactive)

	got, err := m.TopKByEmbedding(ctx, []float32{1, 0}, 2)
	if err != nil {
		t.Fatalf("TopKByEmbedding: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d postings, want 2", len(got))
	}
	if got[0].ID != nearest || got[1].ID != second {
		t.Errorf("ordering: got [%s %s], want [%s %s]", got[0].ID, got[1].ID, nearest, second)
	}
}

func TestSearchByTags_CaseInsensitiveAnyTerm(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.SetClock(testClock())
	ctx := context.Background()

	golang := mustCreate(t, m, newPosting("Backend role", []string{"Golang", "postgres"}, nil))
	python := mustCreate(t, m, newPosting("Python Developer", nil, nil))
	mustCreate(t, m, newPosting("Designer", []string{"figma"}, nil))

	got, err := m.SearchByTags(ctx, []string{"golang", "python"}, 10)
	if err != nil {
		t.Fatalf("SearchByTags: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d matches, want 2", len(got))
	}
	// Newest first: python was created after golang.
	if got[0].ID != python || got[1].ID != golang {
		t.Errorf("ordering: got [%s %s]", got[0].Title, got[1].Title)
	}
}

func TestRecentPostings_WindowAndTotal(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.SetClock(testClock())
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		mustCreate(t, m, newPosting("posting", nil, nil))
	}

	items, total, err := m.RecentPostings(ctx, time.Time{}, 2, 2)
	if err != nil {
		t.Fatalf("RecentPostings: %v", err)
	}
	if total != 5 {
		t.Errorf("total: got %d, want 5", total)
	}
	if len(items) != 2 {
		t.Errorf("page size: got %d, want 2", len(items))
	}

	// A cutoff after every creation excludes everything.
	items, total, err = m.RecentPostings(ctx, time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), 1, 10)
	if err != nil {
		t.Fatalf("RecentPostings: %v", err)
	}
	if total != 0 || len(items) != 0 {
		t.Errorf("future cutoff: got %d items / total %d, want none", len(items), total)
	}
}

func TestSavedPostings_Lifecycle(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	m.SetClock(testClock())
	ctx := context.Background()
	user := uuid.New()

	first := mustCreate(t, m, newPosting("first", nil, nil))
	second := mustCreate(t, m, newPosting("second", nil, nil))

	if err := m.SavePosting(ctx, user, first); err != nil {
		t.Fatalf("SavePosting: %v", err)
	}
	// Saving twice stays idempotent.
	if err := m.SavePosting(ctx, user, first); err != nil {
		t.Fatalf("SavePosting repeat: %v", err)
	}
	if err := m.SavePosting(ctx, user, second); err != nil {
		t.Fatalf("SavePosting: %v", err)
	}

	items, total, err := m.SavedPostings(ctx, user, 1, 10)
	if err != nil {
		t.Fatalf("SavedPostings: %v", err)
	}
	if total != 2 || len(items) != 2 {
		t.Fatalf("got %d/%d, want 2/2", len(items), total)
	}

	if err := m.UnsavePosting(ctx, user, first); err != nil {
		t.Fatalf("UnsavePosting: %v", err)
	}
	_, total, err = m.SavedPostings(ctx, user, 1, 10)
	if err != nil {
		t.Fatalf("SavedPostings: %v", err)
	}
	if total != 1 {
		t.Errorf("total after unsave: got %d, want 1", total)
	}

	// Unsaving something never saved is a no-op.
	if err := m.UnsavePosting(ctx, user, uuid.New()); err != nil {
		t.Errorf("UnsavePosting of unknown posting: %v", err)
	}
}

func TestProfile_RoundTrip(t *testing.T) {
	t.Parallel()

	m := NewMemory()
	ctx := context.Background()
	user := uuid.New()

	if _, err := m.Profile(ctx, user); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing profile: got %v, want ErrNotFound", err)
	}

	p := &model.UserProfile{
		UserID:     user,
		Tags:       []string{"go", "kubernetes"},
		Experience: model.LevelSenior,
		Embedding:  []float32{0.1, 0.2},
		IsComplete: true,
	}
	if err := m.UpsertProfile(ctx, p); err != nil {
		t.Fatalf("UpsertProfile: %v", err)
	}

	got, err := m.Profile(ctx, user)
	if err != nil {
		t.Fatalf("Profile: %v", err)
	}
	if got.Experience != model.LevelSenior || len(got.Tags) != 2 {
		t.Errorf("profile round trip: %+v", got)
	}

	// Returned copies never alias store state.
	got.Tags[0] = "mutated"
	fresh, _ := m.Profile(ctx, user)
	if fresh.Tags[0] != "go" {
		t.Error("store state was aliased by a returned copy")
	}
}
