package progress

import (
	"testing"
	"time"
)

func TestThrottled_FirstAndFinalAlwaysPass(t *testing.T) {
	rec := &recorder{}
	th := NewThrottled(rec, time.Hour) // suppress everything in between

	total := 100.0
	for i := 1.0; i <= total; i++ {
		th.Report(Event{Phase: PhaseUpdate, Position: i, Total: total})
	}

	events := rec.all()
	if len(events) != 2 {
		t.Fatalf("expected exactly first and final events, got %d", len(events))
	}
	if events[0].Position != 1 {
		t.Errorf("first forwarded event should be position 1, got %v", events[0].Position)
	}
	if events[1].Position != total {
		t.Errorf("final forwarded event should be position %v, got %v", total, events[1].Position)
	}
}

func TestThrottled_BoundaryPhasesAlwaysPass(t *testing.T) {
	rec := &recorder{}
	th := NewThrottled(rec, time.Hour)

	th.Report(Event{Phase: PhaseStart, Total: 10})
	th.Report(Event{Phase: PhaseUpdate, Position: 1, Total: 10})  // suppressed
	th.Report(Event{Phase: PhaseRefresh, Position: 1, Total: 20}) // passes
	th.Report(Event{Phase: PhaseUpdate, Position: 2, Total: 20})  // suppressed
	th.Report(Event{Phase: PhaseComplete, Position: 20, Total: 20})

	events := rec.all()
	if len(events) != 3 {
		t.Fatalf("expected 3 forwarded events, got %d", len(events))
	}
	if events[0].Phase != PhaseStart || events[1].Phase != PhaseRefresh || events[2].Phase != PhaseComplete {
		t.Errorf("unexpected phases: %v %v %v", events[0].Phase, events[1].Phase, events[2].Phase)
	}
}

func TestThrottled_IntervalElapsedPasses(t *testing.T) {
	rec := &recorder{}
	th := NewThrottled(rec, time.Nanosecond)

	th.Report(Event{Phase: PhaseUpdate, Position: 1, Total: 100})
	time.Sleep(time.Millisecond)
	th.Report(Event{Phase: PhaseUpdate, Position: 2, Total: 100})

	if got := len(rec.all()); got != 2 {
		t.Errorf("expected both events after interval elapsed, got %d", got)
	}
}

func TestThrottled_ResetReopensGate(t *testing.T) {
	rec := &recorder{}
	th := NewThrottled(rec, time.Hour)

	th.Report(Event{Phase: PhaseUpdate, Position: 1, Total: 100})
	th.Report(Event{Phase: PhaseUpdate, Position: 2, Total: 100}) // suppressed
	th.Reset()
	th.Report(Event{Phase: PhaseUpdate, Position: 3, Total: 100}) // first again

	events := rec.all()
	if len(events) != 2 {
		t.Fatalf("expected 2 forwarded events, got %d", len(events))
	}
	if events[1].Position != 3 {
		t.Errorf("expected position 3 after reset, got %v", events[1].Position)
	}
}

func TestThrottled_DefaultInterval(t *testing.T) {
	th := NewThrottled(&recorder{}, 0)
	if th.interval != DefaultThrottleInterval {
		t.Errorf("expected default interval, got %v", th.interval)
	}
}
