package monitor

import (
	"context"
	"testing"
	"time"
)

// fakeTimeline drives a Pacer without real sleeps: the clock only moves
// when the recorded sleep is "performed".
type fakeTimeline struct {
	now    time.Time
	sleeps []time.Duration
}

func (f *fakeTimeline) clock() time.Time { return f.now }

func (f *fakeTimeline) sleep(_ context.Context, d time.Duration) error {
	f.sleeps = append(f.sleeps, d)
	f.now = f.now.Add(d)
	return nil
}

func TestPacer_FirstWaitIsImmediate(t *testing.T) {
	t.Parallel()

	tl := &fakeTimeline{now: time.Unix(1000, 0)}
	p := NewPacer(100 * time.Millisecond)
	p.setClock(tl.clock, tl.sleep)

	if err := p.Wait(context.Background()); err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if len(tl.sleeps) != 0 {
		t.Errorf("first wait slept %v, want no sleep", tl.sleeps)
	}
}

func TestPacer_SecondWaitSleepsOneInterval(t *testing.T) {
	t.Parallel()

	tl := &fakeTimeline{now: time.Unix(1000, 0)}
	p := NewPacer(100 * time.Millisecond)
	p.setClock(tl.clock, tl.sleep)

	for i := 0; i < 3; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}

	if len(tl.sleeps) != 2 {
		t.Fatalf("got %d sleeps, want 2", len(tl.sleeps))
	}
	for i, d := range tl.sleeps {
		if d <= 0 || d > 100*time.Millisecond {
			t.Errorf("sleep %d: got %v, want (0, 100ms]", i, d)
		}
	}
}

func TestPacer_ZeroIntervalNeverBlocks(t *testing.T) {
	t.Parallel()

	tl := &fakeTimeline{now: time.Unix(1000, 0)}
	p := NewPacer(0)
	p.setClock(tl.clock, tl.sleep)

	for i := 0; i < 50; i++ {
		if err := p.Wait(context.Background()); err != nil {
			t.Fatalf("Wait %d: %v", i, err)
		}
	}
	if len(tl.sleeps) != 0 {
		t.Errorf("unpaced pacer slept %v", tl.sleeps)
	}
}

func TestPacer_CancelledContext(t *testing.T) {
	t.Parallel()

	p := NewPacer(time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := p.Wait(ctx); err == nil {
		t.Fatal("expected context error")
	}
}
