package progress

import (
	"context"
	"testing"
	"time"
)

func TestChannel_DeliversEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := NewChannel(ctx)

	ch.Report(Event{Phase: PhaseUpdate, Position: 1, Total: 10})
	ch.Report(Event{Phase: PhaseUpdate, Position: 2, Total: 10})
	ch.Close()

	var got []Event
	for e := range ch.Events() {
		got = append(got, e)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].Position != 1 || got[1].Position != 2 {
		t.Errorf("events out of order: %+v", got)
	}
	if got[0].Percent != 10 {
		t.Errorf("expected normalized percent 10, got %v", got[0].Percent)
	}
}

func TestChannel_ClosesWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := NewChannel(ctx)
	cancel()

	select {
	case _, ok := <-ch.Events():
		if ok {
			t.Error("expected closed channel, got event")
		}
	case <-time.After(time.Second):
		t.Fatal("channel did not close after context cancellation")
	}
}

func TestChannel_ReportAfterCloseIsSafe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := NewChannel(ctx)
	ch.Close()
	ch.Close() // idempotent

	// Must not panic on a closed reporter.
	ch.Report(Event{Phase: PhaseUpdate, Position: 1})
}

func TestChannel_DropsWhenBufferFull(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ch := NewChannel(ctx)

	// The buffer holds 100 events; nothing is consuming.
	for i := 0; i < 150; i++ {
		ch.Report(Event{Phase: PhaseUpdate, Position: float64(i), Total: 150})
	}
	if got := ch.Dropped(); got != 50 {
		t.Errorf("expected 50 dropped events, got %d", got)
	}
}
