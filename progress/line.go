package progress

import (
	"fmt"
	"io"
	"sync"
)

// Line renders progress as discrete printed lines, one per update. It is
// the fallback for output destinations that are not attached terminals:
// pipes, redirected files, batch-scheduler logs.
//
// Example output:
//
//	soma sweep: 420/1000 (42%) [00:12<00:16, 34.83/s]
//	soma sweep: 840/1000 (84%) [00:24<00:04, 34.91/s]
//	Completed 1000/1000 in 00:28.
type Line struct {
	w  io.Writer
	mu sync.Mutex
}

// NewLine creates a line-printing renderer writing to w.
func NewLine(w io.Writer) *Line {
	return &Line{w: w}
}

// Report implements Reporter.
func (r *Line) Report(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e.normalize()

	switch e.Phase {
	case PhaseComplete:
		fmt.Fprintf(r.w, "Completed %s/%s in %s.\n",
			formatQuantity(e.Position), formatQuantity(e.Total), formatClock(e.Elapsed))
	default:
		prefix := ""
		if e.Description != "" {
			prefix = e.Description + ": "
		}
		fmt.Fprintf(r.w, "%s%s/%s (%d%%) %s\n",
			prefix, formatQuantity(e.Position), formatQuantity(e.Total),
			int(e.Percent), formatTiming(e))
	}
}

// WriteLine implements LineWriter.
func (r *Line) WriteLine(s string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, "%s\n", s)
}
