package monitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jobpulse/jobpulse-go/internal/ingest"
	"github.com/jobpulse/jobpulse-go/internal/logging"
	"github.com/jobpulse/jobpulse-go/internal/model"
)

// Default rate and window budgets, matching the collaborator limits the
// system was tuned against.
const (
	// DefaultBackfillWindow is the number of most-recent historical
	// messages fetched per channel.
	DefaultBackfillWindow = 200
	// DefaultMessageInterval spaces out messages within one channel
	// (AI collaborator budget).
	DefaultMessageInterval = 100 * time.Millisecond
	// DefaultChannelInterval spaces out channels (message source budget).
	DefaultChannelInterval = 500 * time.Millisecond
)

// Ingestor is the slice of the ingestion coordinator the agent needs.
type Ingestor interface {
	Ingest(ctx context.Context, msg model.RawMessage) (ingest.Result, error)
}

// ChannelStore is the slice of the storage layer the agent needs for
// channel metadata refresh.
type ChannelStore interface {
	EnsureChannel(ctx context.Context, externalID int64, title, handle string) (*model.Channel, error)
}

// Config holds the agent's rate and window budgets.
type Config struct {
	// BackfillWindow is the per-channel history window. Defaults to
	// DefaultBackfillWindow if zero.
	BackfillWindow int
	// MessageInterval is the delay budget between messages. Defaults to
	// DefaultMessageInterval if zero.
	MessageInterval time.Duration
	// ChannelInterval is the delay budget between channels. Defaults to
	// DefaultChannelInterval if zero.
	ChannelInterval time.Duration
}

// Agent drives the two-phase ingestion: sequential paced backfill of
// every visible channel, then concurrent dispatch of the live feed.
// Replays are harmless: the coordinator and the storage uniqueness
// constraint make re-ingestion a no-op.
type Agent struct {
	src       Source
	coord     Ingestor
	store     ChannelStore
	msgPacer  *Pacer
	chanPacer *Pacer
	window    int
}

// New constructs an Agent from its collaborators and budgets.
func New(src Source, coord Ingestor, store ChannelStore, cfg *Config) (*Agent, error) {
	if src == nil {
		return nil, fmt.Errorf("monitor: source must not be nil")
	}
	if coord == nil {
		return nil, fmt.Errorf("monitor: ingestor must not be nil")
	}
	if store == nil {
		return nil, fmt.Errorf("monitor: channel store must not be nil")
	}
	if cfg == nil {
		cfg = &Config{}
	}
	window := cfg.BackfillWindow
	if window <= 0 {
		window = DefaultBackfillWindow
	}
	msgInterval := cfg.MessageInterval
	if msgInterval <= 0 {
		msgInterval = DefaultMessageInterval
	}
	chanInterval := cfg.ChannelInterval
	if chanInterval <= 0 {
		chanInterval = DefaultChannelInterval
	}

	return &Agent{
		src:       src,
		coord:     coord,
		store:     store,
		msgPacer:  NewPacer(msgInterval),
		chanPacer: NewPacer(chanInterval),
		window:    window,
	}, nil
}

// Run backfills every visible channel, then serves the live feed until
// ctx is done.
func (a *Agent) Run(ctx context.Context) error {
	if err := a.Backfill(ctx); err != nil {
		return err
	}
	logging.FromContext(ctx).Info("backfill completed, switching to live feed")
	return a.Live(ctx)
}

// Backfill replays the history window of every visible channel through
// the coordinator. One channel's failure is logged and skipped; it never
// aborts the remaining channels.
func (a *Agent) Backfill(ctx context.Context) error {
	log := logging.FromContext(ctx)

	channels, err := a.src.Channels(ctx)
	if err != nil {
		return fmt.Errorf("monitor: enumerate channels: %w", err)
	}
	log.Info("starting backfill", slog.Int("channels", len(channels)))

	for _, ch := range channels {
		if err := ctx.Err(); err != nil {
			return err
		}

		if err := a.backfillChannel(ctx, ch); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn("channel backfill failed, skipping",
				slog.Int64("channel_external_id", ch.ExternalID),
				slog.String("title", ch.Title),
				slog.String("error", err.Error()),
			)
		}

		if err := a.chanPacer.Wait(ctx); err != nil {
			return err
		}
	}

	return nil
}

// backfillChannel refreshes one channel's metadata and replays its
// history window, paced per message. Per-message ingestion failures are
// logged and do not stop the loop.
func (a *Agent) backfillChannel(ctx context.Context, ch ChannelInfo) error {
	log := logging.FromContext(ctx).With(slog.Int64("channel_external_id", ch.ExternalID))

	if _, err := a.store.EnsureChannel(ctx, ch.ExternalID, ch.Title, ch.Handle); err != nil {
		return fmt.Errorf("refresh channel metadata: %w", err)
	}

	history, err := a.src.History(ctx, ch.ExternalID, a.window)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrChannelUnavailable, err)
	}
	log.Info("backfilling channel", slog.String("title", ch.Title), slog.Int("messages", len(history)))

	for _, msg := range history {
		if err := a.msgPacer.Wait(ctx); err != nil {
			return err
		}
		if _, err := a.coord.Ingest(ctx, msg); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Retryable collaborator failure: the message was not
			// marked processed and the next backfill picks it up.
			log.Error("message ingestion failed",
				slog.Int("message_id", msg.MessageID),
				slog.String("error", err.Error()),
			)
		}
	}

	return nil
}

// Live consumes the live subscription until ctx is done. Each message
// is dispatched in its own goroutine — an independent unit of work with
// no shared mutable state outside the storage layer.
func (a *Agent) Live(ctx context.Context) error {
	log := logging.FromContext(ctx)

	feed, err := a.src.Live(ctx)
	if err != nil {
		return fmt.Errorf("monitor: open live feed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-feed:
			if !ok {
				log.Info("live feed closed")
				return nil
			}
			go a.dispatch(ctx, msg)
		}
	}
}

// dispatch ingests one live message, logging failures without tearing
// down the subscription.
func (a *Agent) dispatch(ctx context.Context, msg model.RawMessage) {
	if _, err := a.coord.Ingest(ctx, msg); err != nil {
		logging.FromContext(ctx).Error("live message ingestion failed",
			slog.Int64("channel_external_id", msg.ChannelExternalID),
			slog.Int("message_id", msg.MessageID),
			slog.String("error", err.Error()),
		)
	}
}
