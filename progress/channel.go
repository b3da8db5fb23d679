package progress

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/go-logr/logr"
)

// Channel sends progress events to a Go channel for programmatic
// consumption (custom UIs, notebooks, dashboards). Sends are non-blocking:
// if the consumer falls behind and the buffer fills, events are dropped
// rather than stalling the simulation.
//
// The channel closes when the construction context is cancelled or Close
// is called, whichever comes first.
type Channel struct {
	events  chan Event
	mu      sync.RWMutex
	closed  bool
	dropped atomic.Uint64
	log     logr.Logger
}

// ChannelOption configures a Channel reporter.
type ChannelOption func(*Channel)

// WithLogger sets a logger used to note dropped events.
func WithLogger(log logr.Logger) ChannelOption {
	return func(c *Channel) {
		c.log = log
	}
}

// NewChannel creates a channel reporter with a buffer of 100 events. The
// channel closes automatically when ctx is cancelled.
func NewChannel(ctx context.Context, opts ...ChannelOption) *Channel {
	c := &Channel{
		events: make(chan Event, 100),
		log:    logr.Discard(),
	}
	for _, opt := range opts {
		opt(c)
	}

	go func() {
		<-ctx.Done()
		c.Close()
	}()

	return c
}

// Report implements Reporter with a non-blocking send.
func (c *Channel) Report(e Event) {
	e.normalize()

	// The read lock spans the send so Close cannot close the channel
	// mid-send.
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}

	select {
	case c.events <- e:
	default:
		n := c.dropped.Add(1)
		c.log.V(1).Info("progress event dropped, consumer too slow",
			"phase", e.Phase, "position", e.Position, "totalDropped", n)
	}
}

// Events returns the read-only event stream. Consumers should range over
// it; the channel closes when the reporter does.
func (c *Channel) Events() <-chan Event {
	return c.events
}

// Dropped reports how many events were discarded because the buffer was
// full.
func (c *Channel) Dropped() uint64 {
	return c.dropped.Load()
}

// Close closes the event channel. Safe to call more than once.
func (c *Channel) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
}
