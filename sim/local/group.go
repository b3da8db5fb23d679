package local

import (
	"errors"
	"fmt"
	"sync"
)

// ErrDone is returned by collective calls made after the group completed.
var ErrDone = errors.New("local: coordination group is done")

// Group coordinates a fixed number of goroutine ranks with a cyclic
// barrier. It implements the collective half of sim.Context; per-rank
// handles are obtained from Context.
type Group struct {
	size int

	mu         sync.Mutex
	cond       *sync.Cond
	arrived    int
	generation int
	doneCount  int
	done       bool
	registered map[int]bool
	handles    map[int]bool
}

// NewGroup creates a coordination group for size ranks.
func NewGroup(size int) (*Group, error) {
	if size <= 0 {
		return nil, fmt.Errorf("local: group size must be positive, got %d", size)
	}
	g := &Group{
		size:       size,
		registered: make(map[int]bool, size),
		handles:    make(map[int]bool, size),
	}
	g.cond = sync.NewCond(&g.mu)
	return g, nil
}

// Context returns the coordination handle for the given rank. Each rank
// may be claimed once.
func (g *Group) Context(rank int) (*Context, error) {
	if rank < 0 || rank >= g.size {
		return nil, fmt.Errorf("local: rank %d out of range [0,%d)", rank, g.size)
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.handles[rank] {
		return nil, fmt.Errorf("local: rank %d already claimed", rank)
	}
	g.handles[rank] = true
	return &Context{group: g, rank: rank}, nil
}

// barrier blocks until all ranks of the current generation have arrived.
func (g *Group) barrier() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return ErrDone
	}
	gen := g.generation
	g.arrived++
	if g.arrived == g.size {
		g.arrived = 0
		g.generation++
		g.cond.Broadcast()
		return nil
	}
	for gen == g.generation && !g.done {
		g.cond.Wait()
	}
	if g.done && gen == g.generation {
		return ErrDone
	}
	return nil
}

// signalDone marks one rank complete and blocks until every rank has done
// the same, then releases all waiters permanently.
func (g *Group) signalDone() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.done {
		return ErrDone
	}
	g.doneCount++
	if g.doneCount == g.size {
		g.done = true
		g.cond.Broadcast()
		return nil
	}
	for !g.done {
		g.cond.Wait()
	}
	return nil
}

// Context is one rank's handle on a Group. It implements sim.Context.
type Context struct {
	group *Group
	rank  int

	mu      sync.Mutex
	maxStep float64
}

// Rank implements sim.Context.
func (c *Context) Rank() int { return c.rank }

// Size implements sim.Context.
func (c *Context) Size() int { return c.group.size }

// Barrier implements sim.Context.
func (c *Context) Barrier() error { return c.group.barrier() }

// Done implements sim.Context. It blocks until every rank has called Done.
func (c *Context) Done() error { return c.group.signalDone() }

// Registered implements sim.Context.
func (c *Context) Registered(rank int) bool {
	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	return c.group.registered[rank]
}

// Register implements sim.Context.
func (c *Context) Register(rank int) error {
	c.group.mu.Lock()
	defer c.group.mu.Unlock()
	if c.group.done {
		return ErrDone
	}
	c.group.registered[rank] = true
	return nil
}

// SetMaxStep implements sim.Context. The bound is recorded per rank; the
// local engine has no lookahead to limit.
func (c *Context) SetMaxStep(t float64) error {
	if t <= 0 {
		return fmt.Errorf("local: maxstep must be positive, got %v", t)
	}
	c.mu.Lock()
	c.maxStep = t
	c.mu.Unlock()
	return nil
}

// MaxStep returns the synchronization bound set for this rank.
func (c *Context) MaxStep() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.maxStep
}
