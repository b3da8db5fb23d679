package progress

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"
)

// Interactive renders progress as an in-place redrawn bar. It updates the
// same terminal line using carriage returns, showing percentage, a visual
// bar, position/total, and elapsed/remaining/rate.
//
// This renderer assumes a TTY where ANSI-free carriage-return redraws work.
// For pipes, files, and batch logs use Line instead.
//
// Example output:
//
//	soma sweep  42% |██████████░░░░░░░░░░░░░░░| 420/1000 [00:12<00:16, 34.83/s]
type Interactive struct {
	w  io.Writer
	mu sync.Mutex

	barWidth    int
	lastLineLen int
	last        Event
	haveLast    bool
}

// NewInteractive creates an interactive bar renderer writing to w,
// typically os.Stderr.
func NewInteractive(w io.Writer) *Interactive {
	return &Interactive{
		w:        w,
		barWidth: 25,
	}
}

// Report implements Reporter.
func (r *Interactive) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.normalize()
	r.last = e
	r.haveLast = true

	switch e.Phase {
	case PhaseComplete:
		r.redrawLocked(e)
		fmt.Fprint(r.w, "\n")
		r.lastLineLen = 0
	default:
		r.redrawLocked(e)
	}
}

// WriteLine implements LineWriter: the current bar is cleared, the message
// printed on its own line, and the bar redrawn underneath.
func (r *Interactive) WriteLine(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.clearLocked()
	fmt.Fprintf(r.w, "%s\n", s)
	if r.haveLast {
		r.redrawLocked(r.last)
	}
}

func (r *Interactive) redrawLocked(e Event) {
	line := r.buildLine(e)
	r.clearLocked()
	fmt.Fprint(r.w, line)
	r.lastLineLen = utf8.RuneCountInString(line)
}

func (r *Interactive) clearLocked() {
	if r.lastLineLen > 0 {
		fmt.Fprint(r.w, "\r")
		fmt.Fprint(r.w, strings.Repeat(" ", r.lastLineLen))
		fmt.Fprint(r.w, "\r")
		r.lastLineLen = 0
	}
}

// buildLine assembles the full bar line for an event.
func (r *Interactive) buildLine(e Event) string {
	filled := int(float64(r.barWidth) * e.Percent / 100.0)
	if filled > r.barWidth {
		filled = r.barWidth
	}
	if filled < 0 {
		filled = 0
	}
	bar := fmt.Sprintf("|%s%s|",
		strings.Repeat("█", filled),
		strings.Repeat("░", r.barWidth-filled))

	counts := fmt.Sprintf("%s/%s", formatQuantity(e.Position), formatQuantity(e.Total))

	if e.Description != "" {
		return fmt.Sprintf("%s %3d%% %s %s %s",
			e.Description, int(e.Percent), bar, counts, formatTiming(e))
	}
	return fmt.Sprintf("%3d%% %s %s %s",
		int(e.Percent), bar, counts, formatTiming(e))
}
