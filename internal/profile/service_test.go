package profile

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/match"
	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// countingEmbedder returns a fixed vector and counts calls.
type countingEmbedder struct {
	vec   []float32
	err   error
	calls int
}

func (e *countingEmbedder) Embed(context.Context, string) ([]float32, error) {
	e.calls++
	return e.vec, e.err
}

func newTestService(t *testing.T, store *storage.Memory, e Embedder) *Service {
	t.Helper()
	matcher, err := match.New(store)
	if err != nil {
		t.Fatalf("match.New: %v", err)
	}
	s, err := New(store, e, matcher)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestUpdate_ComputesEmbeddingOnFirstWrite(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	emb := &countingEmbedder{vec: []float32{0.1, 0.2}}
	svc := newTestService(t, store, emb)

	p, err := svc.Update(context.Background(), model.UserProfile{
		UserID:     uuid.New(),
		Tags:       []string{"go"},
		Experience: model.LevelSenior,
	})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("embed calls: got %d, want 1", emb.calls)
	}
	if len(p.Embedding) != 2 {
		t.Errorf("embedding not stored: %v", p.Embedding)
	}
	if !p.IsComplete {
		t.Error("profile with tags and experience must be complete")
	}
}

func TestUpdate_UnchangedProfileKeepsEmbedding(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	emb := &countingEmbedder{vec: []float32{0.5}}
	svc := newTestService(t, store, emb)

	in := model.UserProfile{UserID: uuid.New(), Tags: []string{"go"}, Experience: model.LevelMiddle}
	if _, err := svc.Update(context.Background(), in); err != nil {
		t.Fatalf("first Update: %v", err)
	}

	out, err := svc.Update(context.Background(), in)
	if err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if emb.calls != 1 {
		t.Errorf("embed calls: got %d, want 1 (unchanged profile must not re-embed)", emb.calls)
	}
	if len(out.Embedding) != 1 {
		t.Errorf("embedding lost on no-op update: %v", out.Embedding)
	}
}

func TestUpdate_ChangedTagsRecomputeEmbedding(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	emb := &countingEmbedder{vec: []float32{0.5}}
	svc := newTestService(t, store, emb)

	user := uuid.New()
	if _, err := svc.Update(context.Background(), model.UserProfile{UserID: user, Tags: []string{"go"}}); err != nil {
		t.Fatalf("first Update: %v", err)
	}
	if _, err := svc.Update(context.Background(), model.UserProfile{UserID: user, Tags: []string{"go", "kafka"}}); err != nil {
		t.Fatalf("second Update: %v", err)
	}
	if emb.calls != 2 {
		t.Errorf("embed calls: got %d, want 2", emb.calls)
	}
}

func TestUpdate_EmptyProfileHasNoEmbedding(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	emb := &countingEmbedder{vec: []float32{1}}
	svc := newTestService(t, store, emb)

	p, err := svc.Update(context.Background(), model.UserProfile{UserID: uuid.New()})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if emb.calls != 0 {
		t.Errorf("embed calls: got %d, want 0 for an empty profile", emb.calls)
	}
	if p.Embedding != nil {
		t.Errorf("empty profile embedding: got %v, want nil", p.Embedding)
	}
	if p.IsComplete {
		t.Error("empty profile must not be complete")
	}
}

func TestUpdate_NilUserIDRejected(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, storage.NewMemory(), &countingEmbedder{})
	if _, err := svc.Update(context.Background(), model.UserProfile{}); err == nil {
		t.Fatal("expected an error for a nil user id")
	}
}

func TestMatches_RequiresProfile(t *testing.T) {
	t.Parallel()

	svc := newTestService(t, storage.NewMemory(), &countingEmbedder{})
	if _, err := svc.Matches(context.Background(), uuid.New(), 10); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("got %v, want ErrNotFound", err)
	}
}

func TestMatches_FindsTaggedPostings(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	emb := &countingEmbedder{vec: []float32{1, 0}}
	svc := newTestService(t, store, emb)
	ctx := context.Background()

	posting := &model.JobPosting{
		Title:     "Go developer",
		Tags:      []string{"go"},
		Embedding: []float32{1, 0},
		IsActive:  true,
	}
	if err := store.CreatePosting(ctx, posting, 0); err != nil {
		t.Fatalf("CreatePosting: %v", err)
	}

	user := uuid.New()
	if _, err := svc.Update(ctx, model.UserProfile{UserID: user, Tags: []string{"go"}}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	matches, err := svc.Matches(ctx, user, 10)
	if err != nil {
		t.Fatalf("Matches: %v", err)
	}
	if len(matches) != 1 || matches[0].ID != posting.ID {
		t.Errorf("matches: got %v", matches)
	}
}

func TestSavedLifecycleThroughService(t *testing.T) {
	t.Parallel()

	store := storage.NewMemory()
	svc := newTestService(t, store, &countingEmbedder{})
	ctx := context.Background()
	user := uuid.New()

	posting := &model.JobPosting{Title: "role", IsActive: true}
	if err := store.CreatePosting(ctx, posting, 0); err != nil {
		t.Fatalf("CreatePosting: %v", err)
	}

	if err := svc.Save(ctx, user, posting.ID); err != nil {
		t.Fatalf("Save: %v", err)
	}
	items, total, err := svc.Saved(ctx, user, 1, 10)
	if err != nil {
		t.Fatalf("Saved: %v", err)
	}
	if total != 1 || len(items) != 1 {
		t.Fatalf("saved: got %d/%d, want 1/1", len(items), total)
	}

	if err := svc.Unsave(ctx, user, posting.ID); err != nil {
		t.Fatalf("Unsave: %v", err)
	}
	_, total, _ = svc.Saved(ctx, user, 1, 10)
	if total != 0 {
		t.Errorf("total after unsave: got %d, want 0", total)
	}
}
