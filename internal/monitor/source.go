// Package monitor implements the backfill/monitor agent: on startup it
// replays a bounded window of each visible channel's history through the
// ingestion coordinator under an explicit rate budget, then switches to
// a live feed. The message source itself is an external collaborator
// behind the Source interface — transport reliability is its problem,
// idempotent replay is ours.
package monitor

import (
	"context"
	"errors"

	"github.com/jobpulse/jobpulse-go/internal/model"
)

// ErrChannelUnavailable reports that one channel could not be backfilled.
// The agent logs it and moves on to the next channel.
var ErrChannelUnavailable = errors.New("monitor: channel unavailable")

// ChannelInfo is the source platform's view of a channel, observed at
// enumeration time. Title and Handle refresh the stored metadata on
// every sighting.
type ChannelInfo struct {
	ExternalID int64
	Title      string
	Handle     string
}

// Source is the message source collaborator. It may redeliver messages
// and deliver them out of order; the ingestion layer tolerates both.
type Source interface {
	// Channels enumerates every channel the ingesting identity can see.
	Channels(ctx context.Context) ([]ChannelInfo, error)

	// History returns up to limit most-recent messages of a channel.
	History(ctx context.Context, channelExternalID int64, limit int) ([]model.RawMessage, error)

	// Live opens the live subscription. The returned channel is closed
	// when the subscription ends; transport-level hiccups inside the
	// source must not close it.
	Live(ctx context.Context) (<-chan model.RawMessage, error)
}
