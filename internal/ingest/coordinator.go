// Package ingest implements the ingestion coordinator: the pipeline
// that turns one raw channel message into at most one stored job
// posting. The pipeline order is fixed: spam check, field extraction,
// embedding, duplicate check, channel attach, atomic persist. Every
// outcome is idempotent under replay.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/jobpulse/jobpulse-go/internal/ai"
	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/model"
	"github.com/jobpulse/jobpulse-go/internal/storage"
	"github.com/jobpulse/jobpulse-go/internal/vector"
)

// DefaultDuplicateThreshold is the cosine-similarity cutoff above which
// two postings are considered the same content.
const DefaultDuplicateThreshold = 0.95

// defaultTitle is the placeholder used when extraction yields no title.
// A posting title is never empty.
const defaultTitle = "Untitled vacancy"

// Outcome classifies how the coordinator terminally handled a message.
type Outcome string

// Terminal outcomes. None of them is an error: a skipped message is a
// correctly processed message.
const (
	// OutcomeCreated means a new posting was stored.
	OutcomeCreated Outcome = "created"
	// OutcomeSpam means the message was discarded by the spam filter.
	OutcomeSpam Outcome = "spam"
	// OutcomeDuplicate means an existing posting is too similar.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeAlreadyProcessed means this (channel, message) pair was
	// handled before; the replay no-op path.
	OutcomeAlreadyProcessed Outcome = "already_processed"
)

// Result is the coordinator's answer for one message.
type Result struct {
	// Outcome classifies the terminal handling of the message.
	Outcome Outcome
	// PostingID is set only when Outcome is OutcomeCreated.
	PostingID uuid.UUID
}

// Config holds the coordinator's tunables.
type Config struct {
	// DuplicateThreshold is the similarity cutoff for duplicate
	// detection. Defaults to DefaultDuplicateThreshold if zero.
	DuplicateThreshold float64
}

// Coordinator runs the ingestion pipeline. It holds no mutable state of
// its own; concurrent Ingest calls are safe and race only on the
// storage layer's uniqueness constraint.
type Coordinator struct {
	ai        ai.Service
	store     storage.Store
	threshold float64
	metrics   *Metrics
}

// New constructs a Coordinator. metrics may be nil to disable counters.
func New(aiSvc ai.Service, store storage.Store, cfg *Config, metrics *Metrics) (*Coordinator, error) {
	if aiSvc == nil {
		return nil, fmt.Errorf("ingest: ai service must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("ingest: store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	threshold := cfg.DuplicateThreshold
	if threshold <= 0 {
		threshold = DefaultDuplicateThreshold
	}

	return &Coordinator{
		ai:        aiSvc,
		store:     store,
		threshold: threshold,
		metrics:   metrics,
	}, nil
}

// Ingest processes one raw message end to end. It returns a Result for
// every terminally handled message, including spam, duplicates, and
// replays, and an error only for retryable failures (collaborator or
// storage trouble), in which case the message is not marked processed
// and the caller may replay it.
func (c *Coordinator) Ingest(ctx context.Context, msg model.RawMessage) (Result, error) {
	log := logging.FromContext(ctx).With(
		slog.Int64("channel_external_id", msg.ChannelExternalID),
		slog.Int("message_id", msg.MessageID),
	)

	done, err := c.store.WasProcessed(ctx, msg.ChannelExternalID, msg.MessageID)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: processed lookup: %w", err)
	}
	if done {
		log.Debug("message already processed, skipping")
		c.metrics.observe(OutcomeAlreadyProcessed)
		return Result{Outcome: OutcomeAlreadyProcessed}, nil
	}

	spam, err := c.ai.ClassifySpam(ctx, msg.Text)
	if err != nil {
		c.metrics.failure()
		return Result{}, fmt.Errorf("ingest: %w", err)
	}
	if spam {
		log.Info("spam detected, message discarded")
		c.metrics.observe(OutcomeSpam)
		return Result{Outcome: OutcomeSpam}, nil
	}

	fields, err := c.ai.ExtractFields(ctx, msg.Text)
	if err != nil {
		c.metrics.failure()
		return Result{}, fmt.Errorf("ingest: %w", err)
	}

	embedding, err := c.ai.Embed(ctx, msg.Text)
	if err != nil {
		c.metrics.failure()
		return Result{}, fmt.Errorf("ingest: embed: %w", err)
	}

	nearest, distance, err := c.store.NearestPosting(ctx, embedding)
	if err != nil {
		return Result{}, fmt.Errorf("ingest: duplicate lookup: %w", err)
	}
	if nearest != nil && vector.Similarity(distance) >= c.threshold {
		// The pair still counts as processed so a replay does not
		// re-attempt extraction.
		if err := c.store.MarkProcessed(ctx, msg.ChannelExternalID, msg.MessageID); err != nil {
			return Result{}, fmt.Errorf("ingest: mark duplicate processed: %w", err)
		}
		log.Info("duplicate posting detected, message discarded",
			slog.String("duplicate_of", nearest.ID.String()),
			slog.Float64("similarity", vector.Similarity(distance)),
		)
		c.metrics.observe(OutcomeDuplicate)
		return Result{Outcome: OutcomeDuplicate}, nil
	}

	channel, err := c.store.EnsureChannel(ctx, msg.ChannelExternalID, "", "")
	if err != nil {
		return Result{}, fmt.Errorf("ingest: ensure channel: %w", err)
	}

	posting := buildPosting(msg, fields, embedding, channel.ID)
	if err := c.store.CreatePosting(ctx, posting, msg.ChannelExternalID); err != nil {
		if errors.Is(err, storage.ErrAlreadyProcessed) {
			// Lost a duplicate-insert race or replayed a persisted
			// message: success-no-op, not an error.
			log.Debug("posting already stored for this message")
			c.metrics.observe(OutcomeAlreadyProcessed)
			return Result{Outcome: OutcomeAlreadyProcessed}, nil
		}
		return Result{}, fmt.Errorf("ingest: persist: %w", err)
	}

	log.Info("posting created",
		slog.String("posting_id", posting.ID.String()),
		slog.String("title", posting.Title),
	)
	c.metrics.observe(OutcomeCreated)
	return Result{Outcome: OutcomeCreated, PostingID: posting.ID}, nil
}

// buildPosting assembles the posting from extraction output, applying
// the documented defaults for unresolved fields.
func buildPosting(msg model.RawMessage, f ai.Fields, embedding []float32, channelID uuid.UUID) *model.JobPosting {
	title := f.Title
	if title == "" {
		title = defaultTitle
	}
	description := f.Description
	if description == "" {
		description = msg.Text
	}
	tags := f.Tags
	if tags == nil {
		tags = []string{}
	}

	messageID := msg.MessageID
	return &model.JobPosting{
		Title:           title,
		Description:     description,
		Company:         f.Company,
		Tags:            tags,
		Experience:      f.Experience,
		SalaryMin:       f.SalaryMin,
		SalaryMax:       f.SalaryMax,
		Currency:        f.Currency,
		WorkType:        f.WorkType,
		Location:        f.Location,
		ContactInfo:     f.ContactInfo,
		RawText:         msg.Text,
		SourceChannelID: &channelID,
		SourceMessageID: &messageID,
		Embedding:       embedding,
		IsActive:        true,
	}
}
