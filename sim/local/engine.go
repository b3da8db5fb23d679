// Package local provides in-process implementations of the sim collaborator
// interfaces: a fixed-step event engine and a goroutine-rank coordination
// group. They stand in for an external simulator and MPI context so the
// library can be exercised without either.
package local

import (
	"container/heap"
	"context"
	"errors"
	"math"
	"sync"
)

// ErrStopped is returned by engine operations after Stop.
var ErrStopped = errors.New("local: engine stopped")

// timeScale rounds simulated times to 4 decimal places so that scheduled
// callback times compare exactly against step boundaries.
const timeScale = 1e4

func roundTime(t float64) float64 {
	return math.Round(t*timeScale) / timeScale
}

type event struct {
	time float64
	seq  int
	fn   func()
}

// eventQueue orders events by time, then by scheduling order.
type eventQueue []*event

func (q eventQueue) Len() int { return len(q) }
func (q eventQueue) Less(i, j int) bool {
	if q[i].time != q[j].time {
		return q[i].time < q[j].time
	}
	return q[i].seq < q[j].seq
}
func (q eventQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }
func (q *eventQueue) Push(x any)   { *q = append(*q, x.(*event)) }
func (q *eventQueue) Pop() any {
	old := *q
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	*q = old[:n-1]
	return e
}

// Engine is a fixed-step simulation engine with a scheduled-callback queue.
// SolveUntil advances simulated time in Step increments, firing callbacks
// whose time has been reached in time order.
type Engine struct {
	mu       sync.Mutex
	now      float64
	step     float64
	horizon  float64
	order    int
	fixed    bool
	state    float64
	prepared bool
	stopped  bool
	seq      int
	queue    eventQueue
	onStep   func(t float64, state *float64)
	onInit   func(v float64)
}

// NewEngine returns an engine with the given step size. A non-positive
// step falls back to 1.0.
func NewEngine(step float64) *Engine {
	if step <= 0 {
		step = 1.0
	}
	return &Engine{step: step, fixed: true}
}

// OnStep registers a hook invoked after every time advance with the new
// simulated time and a pointer to the engine state. Used by callers to
// attach model dynamics.
func (e *Engine) OnStep(fn func(t float64, state *float64)) {
	e.mu.Lock()
	e.onStep = fn
	e.mu.Unlock()
}

// OnInit registers a hook invoked whenever Init resets the state.
func (e *Engine) OnInit(fn func(v float64)) {
	e.mu.Lock()
	e.onInit = fn
	e.mu.Unlock()
}

// UseFixedStep implements sim.Engine. The local engine only supports fixed
// steps; the flag is recorded for inspection.
func (e *Engine) UseFixedStep(on bool) {
	e.mu.Lock()
	e.fixed = on
	e.mu.Unlock()
}

// Prepare implements sim.Engine.
func (e *Engine) Prepare(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.prepared = true
	return ctx.Err()
}

// SetHorizon implements sim.Engine.
func (e *Engine) SetHorizon(t float64) {
	e.mu.Lock()
	e.horizon = t
	e.mu.Unlock()
}

// SetStep implements sim.Engine.
func (e *Engine) SetStep(dt float64) {
	e.mu.Lock()
	if dt > 0 {
		e.step = dt
	}
	e.mu.Unlock()
}

// SetOrder implements sim.Engine.
func (e *Engine) SetOrder(order int) {
	e.mu.Lock()
	e.order = order
	e.mu.Unlock()
}

// Init resets simulated time to zero, clears pending events, and seeds the
// state with v.
func (e *Engine) Init(v float64) error {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return ErrStopped
	}
	e.now = 0
	e.state = v
	e.queue = e.queue[:0]
	onInit := e.onInit
	e.mu.Unlock()
	if onInit != nil {
		onInit(v)
	}
	return nil
}

// Now implements sim.Engine.
func (e *Engine) Now() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

// State returns the current engine state value.
func (e *Engine) State() float64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// ScheduleAt implements sim.Engine. Events scheduled in the past fire on
// the next dispatch.
func (e *Engine) ScheduleAt(t float64, fn func()) {
	e.mu.Lock()
	e.seq++
	heap.Push(&e.queue, &event{time: roundTime(t), seq: e.seq, fn: fn})
	e.mu.Unlock()
}

// SolveUntil advances simulated time to t, dispatching due callbacks in
// time order after each step. Callbacks run without the engine lock held,
// so they may schedule further events.
func (e *Engine) SolveUntil(ctx context.Context, t float64) error {
	t = roundTime(t)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		e.mu.Lock()
		if e.stopped {
			e.mu.Unlock()
			return ErrStopped
		}
		e.dispatchDueLocked()
		if e.now >= t {
			e.mu.Unlock()
			return nil
		}
		next := roundTime(e.now + e.step)
		if next > t {
			next = t
		}
		e.now = next
		onStep := e.onStep
		e.mu.Unlock()
		if onStep != nil {
			onStep(next, &e.state)
		}
	}
}

// dispatchDueLocked fires queued events whose time has been reached. The
// lock is dropped around each callback so it can call back into the engine.
func (e *Engine) dispatchDueLocked() {
	for len(e.queue) > 0 && e.queue[0].time <= e.now {
		ev := heap.Pop(&e.queue).(*event)
		e.mu.Unlock()
		ev.fn()
		e.mu.Lock()
	}
}

// Stop implements sim.Engine. After Stop every operation fails.
func (e *Engine) Stop() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.stopped {
		return ErrStopped
	}
	e.stopped = true
	e.queue = nil
	return nil
}
