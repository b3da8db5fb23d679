package progress

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
)

// Bar tracks the display state of one progress indicator: a monotonically
// non-decreasing position bounded by a total, a description label, and the
// start timestamp used for rate estimation.
//
// Rendering is delegated to a Reporter selected once at construction: an
// Interactive in-place bar when the output is an attached terminal, a Line
// printer otherwise. Additional reporters can mirror every event, e.g. a
// Channel for programmatic consumers.
type Bar struct {
	mu       sync.Mutex
	out      io.Writer
	renderer Reporter
	mirrors  []Reporter
	desc     string
	pos      float64
	total    float64
	start    time.Time
	closed   bool
}

type barOptions struct {
	out        io.Writer
	desc       string
	renderer   Reporter
	mirrors    []Reporter
	isTerminal func(io.Writer) bool
}

// BarOption configures a Bar during construction.
type BarOption func(*barOptions)

// WithOutput sets the writer renderers draw to. Defaults to os.Stderr.
func WithOutput(w io.Writer) BarOption {
	return func(o *barOptions) {
		o.out = w
	}
}

// WithDescription sets the bar's label.
func WithDescription(desc string) BarOption {
	return func(o *barOptions) {
		o.desc = desc
	}
}

// WithRenderer overrides renderer selection entirely.
func WithRenderer(r Reporter) BarOption {
	return func(o *barOptions) {
		o.renderer = r
	}
}

// WithMirror adds reporters that receive every event alongside the
// renderer.
func WithMirror(rs ...Reporter) BarOption {
	return func(o *barOptions) {
		o.mirrors = append(o.mirrors, rs...)
	}
}

// WithIsTerminal replaces the terminal-detection predicate used to choose
// between the interactive and line renderers. Primarily for tests.
func WithIsTerminal(fn func(io.Writer) bool) BarOption {
	return func(o *barOptions) {
		o.isTerminal = fn
	}
}

// IsTerminal reports whether w is an attached terminal. It is the default
// renderer-selection predicate.
func IsTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewBar creates a bar with the given total. The renderer is chosen at
// construction: interactive when the output is an attached terminal, line
// printing otherwise. A PhaseStart event is emitted immediately so the
// starting point is visible.
func NewBar(total float64, opts ...BarOption) (*Bar, error) {
	if total < 0 {
		return nil, fmt.Errorf("progress: total must not be negative, got %v", total)
	}
	o := barOptions{
		out:        os.Stderr,
		isTerminal: IsTerminal,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.renderer == nil {
		if o.out == nil {
			return nil, errors.New("progress: nil output writer")
		}
		if o.isTerminal(o.out) {
			o.renderer = NewInteractive(o.out)
		} else {
			o.renderer = NewLine(o.out)
		}
	}

	b := &Bar{
		out:      o.out,
		renderer: o.renderer,
		mirrors:  o.mirrors,
		desc:     o.desc,
		total:    total,
		start:    time.Now(),
	}
	b.emit(PhaseStart)
	return b, nil
}

// Set moves the position to pos. Positions never move backwards and never
// exceed the total; out-of-range values are clamped.
func (b *Bar) Set(pos float64) {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	if pos > b.pos {
		if b.total > 0 && pos > b.total {
			pos = b.total
		}
		b.pos = pos
	}
	b.mu.Unlock()
	b.emit(PhaseUpdate)
}

// Add advances the position by delta. Negative deltas are ignored.
func (b *Bar) Add(delta float64) {
	b.mu.Lock()
	pos := b.pos + delta
	b.mu.Unlock()
	b.Set(pos)
}

// SetTotal changes the target. The display is not redrawn until Refresh.
func (b *Bar) SetTotal(total float64) {
	b.mu.Lock()
	if total > 0 {
		b.total = total
		if b.pos > total {
			b.pos = total
		}
	}
	b.mu.Unlock()
}

// SetDescription changes the label. The display is not redrawn until
// Refresh.
func (b *Bar) SetDescription(desc string) {
	b.mu.Lock()
	b.desc = desc
	b.mu.Unlock()
}

// Refresh forces a redraw with the current state.
func (b *Bar) Refresh() {
	b.mu.Lock()
	closed := b.closed
	b.mu.Unlock()
	if !closed {
		b.emit(PhaseRefresh)
	}
}

// Write prints a message without corrupting an in-place display: renderers
// that implement LineWriter clear and redraw around it.
func (b *Bar) Write(s string) {
	if lw, ok := b.renderer.(LineWriter); ok {
		lw.WriteLine(s)
		return
	}
	if b.out != nil {
		fmt.Fprintln(b.out, s)
	}
}

// Close finalizes the display, emitting the completion summary. Safe to
// call more than once.
func (b *Bar) Close() {
	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	b.closed = true
	b.mu.Unlock()
	b.emit(PhaseComplete)
}

// Position returns the current position.
func (b *Bar) Position() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pos
}

// Total returns the current target.
func (b *Bar) Total() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.total
}

func (b *Bar) emit(phase Phase) {
	b.mu.Lock()
	e := Event{
		Timestamp:   time.Now(),
		Phase:       phase,
		Description: b.desc,
		Position:    b.pos,
		Total:       b.total,
		Elapsed:     time.Since(b.start),
	}
	b.mu.Unlock()

	e.normalize()
	b.renderer.Report(e)
	for _, m := range b.mirrors {
		m.Report(e)
	}
}
