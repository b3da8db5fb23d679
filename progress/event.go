// Package progress provides rank-local progress display for long-running
// simulations: a Bar widget with interactive and line-printing renderers,
// throttled and channel-based reporters for programmatic consumers, and a
// verbosity-gated sequence wrapper for loops.
package progress

import "time"

// Phase indicates what kind of display transition an event represents.
type Phase string

const (
	// PhaseStart is emitted once when a bar is constructed.
	PhaseStart Phase = "start"

	// PhaseUpdate is emitted when the bar position advances.
	PhaseUpdate Phase = "update"

	// PhaseRefresh is emitted when the total or description changed and
	// the display must redraw.
	PhaseRefresh Phase = "refresh"

	// PhaseComplete is emitted once when the bar is closed.
	PhaseComplete Phase = "complete"
)

// Event is a progress snapshot at a specific point in time. Renderers and
// reporters receive events pre-normalized: timestamp set, percent derived
// from position/total.
type Event struct {
	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Phase is the display transition this event represents.
	Phase Phase `json:"phase"`

	// Description is the human-readable label for the tracked run.
	Description string `json:"description,omitempty"`

	// Position is the current progress position, in the tracked quantity's
	// own units (typically simulated milliseconds).
	Position float64 `json:"position"`

	// Total is the target position.
	Total float64 `json:"total"`

	// Percent is the completion percentage (0-100), derived from
	// Position/Total when not set.
	Percent float64 `json:"percent"`

	// Elapsed is the wall-clock time since the bar was created, used for
	// rate and remaining-time estimation.
	Elapsed time.Duration `json:"elapsed"`
}

// Reporter receives progress events. Implementations must be safe for
// concurrent use and should not block.
type Reporter interface {
	Report(Event)
}

// LineWriter is implemented by renderers that can print a free-form line
// without corrupting their progress display.
type LineWriter interface {
	WriteLine(s string)
}

// normalize fills derived event fields in place.
func (e *Event) normalize() {
	if e.Timestamp.IsZero() {
		e.Timestamp = time.Now()
	}
	if e.Percent == 0 && e.Total > 0 {
		e.Percent = e.Position / e.Total * 100.0
	}
}
