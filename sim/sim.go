// Package sim defines the collaborator interfaces the progress manager
// drives: a time-stepped simulation engine and a parallel coordination
// context. Both are injected so phase logic can be exercised against fakes;
// the sim/local subpackage provides in-process reference implementations.
package sim

import "context"

// Engine is a time-stepped simulation engine. It owns simulated time,
// executes the integration loop, and dispatches time-triggered callbacks
// while solving.
//
// Implementations wrap an external simulator runtime. The manager always
// puts the engine in fixed-step mode so that callback scheduling is
// deterministic.
type Engine interface {
	// UseFixedStep switches adaptive time-stepping off (true) or on (false).
	UseFixedStep(on bool)

	// Prepare loads the engine's run-time environment. Called once per
	// initialization, before any state is set.
	Prepare(ctx context.Context) error

	// SetHorizon sets the simulated-time stop target for the next solve.
	SetHorizon(t float64)

	// SetStep sets the per-step simulated-time increment.
	SetStep(dt float64)

	// SetOrder selects the numerical-integration order.
	SetOrder(order int)

	// Init resets the simulated state, seeding it with v.
	Init(v float64) error

	// Now reports the current simulated time.
	Now() float64

	// ScheduleAt registers fn to run once when simulated time reaches t.
	// Callbacks scheduled for times past the solve horizon never fire.
	ScheduleAt(t float64, fn func())

	// SolveUntil advances simulated time until it reaches t, dispatching
	// scheduled callbacks in time order as it goes. It blocks until t is
	// reached or ctx is cancelled.
	SolveUntil(ctx context.Context, t float64) error

	// Stop shuts the engine down. No call is valid afterwards.
	Stop() error
}

// Context is the parallel coordination context shared by all cooperating
// ranks. Collective operations (Barrier, Done) must be called by every rank
// in the same order; a missing participant deadlocks the collective. That
// ordering is a caller obligation, not something implementations enforce.
type Context interface {
	// Rank reports this process's 0-based rank. Fixed for the lifetime of
	// the context.
	Rank() int

	// Size reports the total number of cooperating ranks.
	Size() int

	// Barrier blocks until every rank has arrived. A barrier failure is
	// fatal to the run: distributed phase alignment cannot be locally
	// recovered, so callers must abort rather than retry.
	Barrier() error

	// Done signals collective completion. No collective call is valid
	// after Done returns.
	Done() error

	// Registered reports whether the given rank has a coordination
	// identity registered.
	Registered(rank int) bool

	// Register assigns a coordination identity to the given rank.
	Register(rank int) error

	// SetMaxStep bounds how far (in simulated time) this rank may run
	// ahead of the others during a solve.
	SetMaxStep(t float64) error
}
