package monitor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/ingest"
	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/storage"
)

// recordingIngestor records every message handed to it.
type recordingIngestor struct {
	mu   sync.Mutex
	seen []model.RawMessage
	err  error
}

func (r *recordingIngestor) Ingest(_ context.Context, msg model.RawMessage) (ingest.Result, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return ingest.Result{}, r.err
	}
	r.seen = append(r.seen, msg)
	return ingest.Result{Outcome: ingest.OutcomeCreated}, nil
}

func (r *recordingIngestor) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.seen)
}

// scriptedSource is a Source with per-channel history and optional
// per-channel failures.
type scriptedSource struct {
	channels []ChannelInfo
	history  map[int64][]model.RawMessage
	failing  map[int64]bool
}

func (s *scriptedSource) Channels(context.Context) ([]ChannelInfo, error) {
	return s.channels, nil
}

func (s *scriptedSource) History(_ context.Context, id int64, limit int) ([]model.RawMessage, error) {
	if s.failing[id] {
		return nil, errors.New("flood wait")
	}
	msgs := s.history[id]
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

func (s *scriptedSource) Live(ctx context.Context) (<-chan model.RawMessage, error) {
	feed := make(chan model.RawMessage)
	close(feed)
	return feed, nil
}

// fastConfig keeps the pacers from actually sleeping in tests.
func fastConfig() *Config {
	return &Config{
		BackfillWindow:  10,
		MessageInterval: time.Nanosecond,
		ChannelInterval: time.Nanosecond,
	}
}

func msg(channel int64, id int) model.RawMessage {
	return model.RawMessage{ChannelExternalID: channel, MessageID: id, Text: "text", ReceivedAt: time.Now()}
}

func TestBackfill_ProcessesEveryChannel(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{
		channels: []ChannelInfo{
			{ExternalID: 1, Title: "Go Jobs", Handle: "gojobs"},
			{ExternalID: 2, Title: "Remote Dev"},
		},
		history: map[int64][]model.RawMessage{
			1: {msg(1, 1), msg(1, 2)},
			2: {msg(2, 1)},
		},
	}
	coord := &recordingIngestor{}
	store := storage.NewMemory()

	a, err := New(src, coord, store, fastConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Backfill(context.Background()); err != nil {
		t.Fatalf("Backfill: %v", err)
	}

	if coord.count() != 3 {
		t.Errorf("ingested messages: got %d, want 3", coord.count())
	}

	// Channel metadata observed at enumeration time replaces placeholders.
	ch, err := store.ChannelByExternalID(context.Background(), 1)
	if err != nil {
		t.Fatalf("channel lookup: %v", err)
	}
	if ch.Title != "Go Jobs" || ch.Handle != "gojobs" {
		t.Errorf("metadata not refreshed: %+v", ch)
	}
}

func TestBackfill_OneChannelFailureDoesNotAbortOthers(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{
		channels: []ChannelInfo{
			{ExternalID: 1, Title: "Broken"},
			{ExternalID: 2, Title: "Healthy"},
		},
		history: map[int64][]model.RawMessage{
			2: {msg(2, 1), msg(2, 2)},
		},
		failing: map[int64]bool{1: true},
	}
	coord := &recordingIngestor{}

	a, err := New(src, coord, storage.NewMemory(), fastConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Backfill(context.Background()); err != nil {
		t.Fatalf("Backfill must skip failed channels, got: %v", err)
	}

	if coord.count() != 2 {
		t.Errorf("ingested messages: got %d, want 2 from the healthy channel", coord.count())
	}
}

func TestBackfill_MessageFailureDoesNotStopTheChannel(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{
		channels: []ChannelInfo{{ExternalID: 1, Title: "Jobs"}},
		history:  map[int64][]model.RawMessage{1: {msg(1, 1), msg(1, 2)}},
	}
	coord := &recordingIngestor{err: errors.New("collaborator down")}

	a, err := New(src, coord, storage.NewMemory(), fastConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Backfill(context.Background()); err != nil {
		t.Fatalf("Backfill: %v", err)
	}
	// Failures are logged and skipped; nothing was recorded.
	if coord.count() != 0 {
		t.Errorf("got %d ingested, want 0", coord.count())
	}
}

func TestLive_ReturnsWhenFeedCloses(t *testing.T) {
	t.Parallel()

	src := &scriptedSource{}
	a, err := New(src, &recordingIngestor{}, storage.NewMemory(), fastConfig())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := a.Live(context.Background()); err != nil {
		t.Fatalf("Live on a closed feed: %v", err)
	}
}

func TestReplaySource_ChannelsAndHistory(t *testing.T) {
	t.Parallel()

	dump := strings.Join([]string{
		`{"channel_external_id": 10, "message_id": 1, "text": "a"}`,
		`{"channel_external_id": 20, "message_id": 1, "text": "b", "channel_title": "Remote"}`,
		`{"channel_external_id": 10, "message_id": 2, "text": "c", "channel_title": "Go Jobs", "channel_handle": "gojobs"}`,
		`{"channel_external_id": 10, "message_id": 3, "text": "d"}`,
	}, "\n")

	src, err := NewReplaySource(strings.NewReader(dump))
	if err != nil {
		t.Fatalf("NewReplaySource: %v", err)
	}

	channels, err := src.Channels(context.Background())
	if err != nil {
		t.Fatalf("Channels: %v", err)
	}
	if len(channels) != 2 {
		t.Fatalf("got %d channels, want 2", len(channels))
	}
	if channels[0].ExternalID != 10 || channels[1].ExternalID != 20 {
		t.Errorf("channel order: got %v, want first-appearance order", channels)
	}
	// Metadata from a later record backfills the first sighting.
	if channels[0].Title != "Go Jobs" || channels[0].Handle != "gojobs" {
		t.Errorf("metadata backfill failed: %+v", channels[0])
	}

	history, err := src.History(context.Background(), 10, 2)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("got %d messages, want the last 2", len(history))
	}
	if history[0].MessageID != 2 || history[1].MessageID != 3 {
		t.Errorf("history window: got %v", history)
	}
}

func TestReplaySource_MalformedLine(t *testing.T) {
	t.Parallel()

	if _, err := NewReplaySource(strings.NewReader("not json\n")); err == nil {
		t.Fatal("expected a parse error")
	}
}
