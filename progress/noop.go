package progress

// Noop discards all events. It is the default reporter wherever progress
// display is disabled, keeping the disabled path free of overhead.
type Noop struct{}

// NewNoop creates a reporter that does nothing.
func NewNoop() *Noop {
	return &Noop{}
}

// Report implements Reporter.
func (n *Noop) Report(Event) {}
