package progress

import (
	"sync"
	"time"
)

// DefaultThrottleInterval is the minimum wall-clock spacing between
// forwarded update events when no interval is configured.
const DefaultThrottleInterval = 500 * time.Millisecond

// Throttled wraps a Reporter and rate-limits the events it forwards.
//
// The first event, completion events, and explicit refreshes always pass
// through; so does any event that reaches the total. Intermediate updates
// are dropped unless the configured interval has elapsed since the last
// forwarded event. This keeps high-cadence simulations from flooding slow
// renderers or stream consumers.
type Throttled struct {
	reporter Reporter
	interval time.Duration

	mu   sync.Mutex
	last time.Time
	seen bool
}

// NewThrottled wraps r with the given minimum interval between forwarded
// updates. A non-positive interval falls back to DefaultThrottleInterval.
func NewThrottled(r Reporter, interval time.Duration) *Throttled {
	if interval <= 0 {
		interval = DefaultThrottleInterval
	}
	return &Throttled{reporter: r, interval: interval}
}

// Report implements Reporter.
func (t *Throttled) Report(e Event) {
	e.normalize()

	t.mu.Lock()
	now := e.Timestamp
	first := !t.seen
	boundary := e.Phase == PhaseStart || e.Phase == PhaseRefresh || e.Phase == PhaseComplete
	final := e.Total > 0 && e.Position >= e.Total
	elapsed := now.Sub(t.last) >= t.interval

	if !(first || boundary || final || elapsed) {
		t.mu.Unlock()
		return
	}
	t.seen = true
	t.last = now
	t.mu.Unlock()

	t.reporter.Report(e)
}

// Reset clears the throttling state so the next event passes through.
// Useful when reusing the reporter for a new run.
func (t *Throttled) Reset() {
	t.mu.Lock()
	t.last = time.Time{}
	t.seen = false
	t.mu.Unlock()
}
