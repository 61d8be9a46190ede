package monitor

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out successive operations with a token bucket. The
// backfill loops are intentionally sequential and paced — that is how
// the system stays under the external collaborator's rate limits, not
// an incidental bottleneck.
//
// The clock and the sleep are injectable so timing behavior is testable
// without real sleeps.
type Pacer struct {
	// limiter refills one token per interval.
	limiter *rate.Limiter

	// now is the clock used for reservations.
	now func() time.Time

	// sleep blocks for d or until ctx is done.
	sleep func(ctx context.Context, d time.Duration) error
}

// NewPacer returns a Pacer allowing one operation per interval. A zero
// or negative interval never blocks.
func NewPacer(interval time.Duration) *Pacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}
	return &Pacer{
		limiter: rate.NewLimiter(limit, 1),
		now:     time.Now,
		sleep:   sleepContext,
	}
}

// setClock replaces the clock and sleep functions. Test-only.
func (p *Pacer) setClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) {
	p.now = now
	p.sleep = sleep
}

// Wait reserves the next token and blocks until it becomes available or
// ctx is done.
func (p *Pacer) Wait(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r := p.limiter.ReserveN(p.now(), 1)
	if !r.OK() {
		return fmt.Errorf("monitor: pacer cannot reserve a token")
	}

	delay := r.DelayFrom(p.now())
	if delay <= 0 {
		return nil
	}
	return p.sleep(ctx, delay)
}

// sleepContext blocks for d, returning early with ctx.Err() on
// cancellation.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
