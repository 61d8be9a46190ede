package monitor

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/model"
)

// replayRecord is one NDJSON line of a captured message dump. The field
// names match what the skip/failure logs emit, so a dump can be built
// straight from log output for manual replay.
type replayRecord struct {
	ChannelExternalID int64  `json:"channel_external_id"`
	MessageID         int    `json:"message_id"`
	Text              string `json:"text"`
	ChannelTitle      string `json:"channel_title,omitempty"`
	ChannelHandle     string `json:"channel_handle,omitempty"`
}

// ReplaySource is a Source fed from an NDJSON message dump. It exists
// for manual replay drills and local development; the production source
// is the messaging platform client injected in its place. Its live feed
// delivers nothing and stays open until ctx is done.
type ReplaySource struct {
	records []replayRecord
}

// NewReplaySource reads an entire NDJSON dump. Blank lines are skipped;
// a malformed line is an error, not a silent drop.
func NewReplaySource(r io.Reader) (*ReplaySource, error) {
	var records []replayRecord

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var rec replayRecord
		if err := json.Unmarshal(raw, &rec); err != nil {
			return nil, fmt.Errorf("monitor: replay dump line %d: %w", line, err)
		}
		records = append(records, rec)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("monitor: read replay dump: %w", err)
	}

	return &ReplaySource{records: records}, nil
}

// Channels returns the distinct channels in order of first appearance.
func (s *ReplaySource) Channels(_ context.Context) ([]ChannelInfo, error) {
	seen := make(map[int64]int)
	var out []ChannelInfo
	for _, rec := range s.records {
		if i, ok := seen[rec.ChannelExternalID]; ok {
			// Later sightings may carry metadata earlier ones lacked.
			if out[i].Title == "" {
				out[i].Title = rec.ChannelTitle
			}
			if out[i].Handle == "" {
				out[i].Handle = rec.ChannelHandle
			}
			continue
		}
		seen[rec.ChannelExternalID] = len(out)
		out = append(out, ChannelInfo{
			ExternalID: rec.ChannelExternalID,
			Title:      rec.ChannelTitle,
			Handle:     rec.ChannelHandle,
		})
	}
	return out, nil
}

// History returns up to limit most-recent messages of the channel, in
// dump order.
func (s *ReplaySource) History(_ context.Context, channelExternalID int64, limit int) ([]model.RawMessage, error) {
	var msgs []model.RawMessage
	now := time.Now()
	for _, rec := range s.records {
		if rec.ChannelExternalID != channelExternalID {
			continue
		}
		msgs = append(msgs, model.RawMessage{
			ChannelExternalID: rec.ChannelExternalID,
			MessageID:         rec.MessageID,
			Text:              rec.Text,
			ReceivedAt:        now,
		})
	}
	if limit > 0 && len(msgs) > limit {
		msgs = msgs[len(msgs)-limit:]
	}
	return msgs, nil
}

// Live returns a feed that delivers nothing and closes when ctx is done.
func (s *ReplaySource) Live(ctx context.Context) (<-chan model.RawMessage, error) {
	feed := make(chan model.RawMessage)
	go func() {
		<-ctx.Done()
		close(feed)
	}()
	return feed, nil
}
