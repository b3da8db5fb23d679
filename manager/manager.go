// Package manager drives a time-stepped simulation through its
// initialize/run/finalize phases while rendering progress on exactly one
// rank and keeping all ranks barrier-synchronized at phase boundaries.
//
// The engine and coordination context are injected interfaces (see the sim
// package); only rank 0 ever owns a progress bar. Collective calls must be
// made by every rank in the same order, which is the caller's obligation.
//
// Typical use:
//
//	mgr, err := manager.New(
//		manager.WithEngine(eng),
//		manager.WithCoordination(pc),
//		manager.WithConfig(sim.Config{Horizon: 1000, Step: 1}),
//	)
//	if err != nil { ... }
//	err = mgr.Session(ctx, func(ctx context.Context, m *manager.Manager) error {
//		// build the model here
//		return m.Execute(ctx, manager.InitOptions{Description: "soma sweep"})
//	})
package manager

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"context"

	"github.com/go-logr/logr"
	"go.opentelemetry.io/otel/attribute"

	"github.com/nrnutil/nrnutil/progress"
	"github.com/nrnutil/nrnutil/sim"
	"github.com/nrnutil/nrnutil/sim/local"
	"github.com/nrnutil/nrnutil/tracing"
)

// ErrQuit is returned by any operation invoked after Quit.
var ErrQuit = errors.New("manager: already quit")

// timePrecision rounds simulated times to 4 decimal places so that
// floating-point jitter cannot produce erratic position deltas or push a
// scheduled update just past the horizon.
const timePrecision = 1e4

func roundTime(t float64) float64 {
	return math.Round(t*timePrecision) / timePrecision
}

// Manager coordinates the engine, the coordination context, and the
// progress display across run phases.
type Manager struct {
	log  logr.Logger
	eng  sim.Engine
	pc   sim.Context
	cfg  sim.Config
	rank int
	size int

	out     io.Writer
	isTerm  func(io.Writer) bool
	mirrors []progress.Reporter

	bar  *progress.Bar
	quit bool
}

type options struct {
	eng     sim.Engine
	pc      sim.Context
	cfg     sim.Config
	log     logr.Logger
	out     io.Writer
	isTerm  func(io.Writer) bool
	mirrors []progress.Reporter
}

// Option configures a Manager during construction.
type Option func(*options)

// WithEngine injects the simulation engine. Required.
func WithEngine(eng sim.Engine) Option {
	return func(o *options) {
		o.eng = eng
	}
}

// WithCoordination injects the parallel coordination context. When absent
// a single-rank in-process context is created.
func WithCoordination(pc sim.Context) Option {
	return func(o *options) {
		o.pc = pc
	}
}

// WithConfig sets the run configuration. Unset fields get defaults.
func WithConfig(cfg sim.Config) Option {
	return func(o *options) {
		o.cfg = cfg
	}
}

// WithLogger sets the logger. Defaults to logr.Discard.
func WithLogger(log logr.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithOutput sets the writer the rank-0 display draws to. Defaults to
// os.Stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) {
		o.out = w
	}
}

// WithIsTerminal replaces the terminal-detection predicate used for
// renderer selection on rank 0.
func WithIsTerminal(fn func(io.Writer) bool) Option {
	return func(o *options) {
		o.isTerm = fn
	}
}

// WithMirror adds reporters that receive every rank-0 progress event
// alongside the rendered display.
func WithMirror(rs ...progress.Reporter) Option {
	return func(o *options) {
		o.mirrors = append(o.mirrors, rs...)
	}
}

// New creates a Manager: it establishes rank and size, stores the run
// configuration, forces the engine into fixed-step mode, and performs a
// barrier so all ranks start synchronized.
func New(opts ...Option) (*Manager, error) {
	o := options{
		log:    logr.Discard(),
		out:    os.Stderr,
		isTerm: progress.IsTerminal,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.eng == nil {
		return nil, errors.New("manager: an engine is required")
	}
	if o.pc == nil {
		group, err := local.NewGroup(1)
		if err != nil {
			return nil, fmt.Errorf("manager: creating coordination context: %w", err)
		}
		pc, err := group.Context(0)
		if err != nil {
			return nil, fmt.Errorf("manager: creating coordination context: %w", err)
		}
		o.pc = pc
	}
	o.cfg.Defaults()
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	m := &Manager{
		log:     o.log.WithValues("rank", o.pc.Rank()),
		eng:     o.eng,
		pc:      o.pc,
		cfg:     o.cfg,
		rank:    o.pc.Rank(),
		size:    o.pc.Size(),
		out:     o.out,
		isTerm:  o.isTerm,
		mirrors: o.mirrors,
	}

	// Adaptive stepping would make update scheduling nondeterministic.
	m.eng.UseFixedStep(true)

	if err := m.pc.Barrier(); err != nil {
		return nil, fmt.Errorf("manager: construction barrier: %w", err)
	}
	return m, nil
}

// Rank returns this process's coordination rank.
func (m *Manager) Rank() int { return m.rank }

// Size returns the number of cooperating ranks.
func (m *Manager) Size() int { return m.size }

// Config returns the current run configuration.
func (m *Manager) Config() sim.Config { return m.cfg }

// InitOptions configures one initialization of the engine.
type InitOptions struct {
	// Horizon overrides the configured simulated-time target when > 0.
	Horizon float64

	// Initial seeds the engine state. Nil means sim.DefaultInitialValue.
	Initial *float64

	// Order overrides the numerical-integration order when > 0.
	Order int

	// MaxStep bounds per-rank lookahead. Zero means sim.DefaultMaxStep.
	MaxStep float64

	// Description labels the rank-0 display.
	Description string
}

// Initialize prepares the engine for a run. All ranks barrier on entry and
// exit; rank 0 constructs the progress display between them and performs
// one immediate update so the starting point is visible.
//
// A display-construction failure on rank 0 is fatal to that rank: no
// secondary renderer is attempted.
func (m *Manager) Initialize(ctx context.Context, o InitOptions) error {
	if m.quit {
		return ErrQuit
	}
	ctx, span := tracing.StartSpan(ctx, "initialize",
		attribute.Int("rank", m.rank),
		attribute.Float64("horizon", m.cfg.Horizon))
	defer span.End()

	if err := m.pc.Barrier(); err != nil {
		return fmt.Errorf("manager: initialize barrier: %w", err)
	}

	if o.Horizon > 0 {
		m.cfg.Horizon = o.Horizon
	}
	if o.Order > 0 {
		m.cfg.Order = o.Order
		m.eng.SetOrder(o.Order)
	}

	if !m.pc.Registered(m.rank) {
		if err := m.pc.Register(m.rank); err != nil {
			return fmt.Errorf("manager: registering rank %d: %w", m.rank, err)
		}
	}

	if err := m.eng.Prepare(ctx); err != nil {
		return fmt.Errorf("manager: preparing engine: %w", err)
	}
	m.eng.SetHorizon(m.cfg.Horizon)
	m.eng.SetStep(m.cfg.Step)

	if m.rank == 0 {
		bar, err := progress.NewBar(m.cfg.Horizon,
			progress.WithOutput(m.out),
			progress.WithDescription(o.Description),
			progress.WithIsTerminal(m.isTerm),
			progress.WithMirror(m.mirrors...),
		)
		if err != nil {
			return fmt.Errorf("manager: constructing display: %w", err)
		}
		m.bar = bar
	}

	v := sim.DefaultInitialValue
	if o.Initial != nil {
		v = *o.Initial
	}
	if err := m.eng.Init(v); err != nil {
		return fmt.Errorf("manager: initializing engine state: %w", err)
	}

	maxStep := o.MaxStep
	if maxStep <= 0 {
		maxStep = m.cfg.MaxStep
	}
	if err := m.pc.SetMaxStep(maxStep); err != nil {
		return fmt.Errorf("manager: setting max step: %w", err)
	}

	m.update()

	if err := m.pc.Barrier(); err != nil {
		return fmt.Errorf("manager: initialize barrier: %w", err)
	}
	m.log.V(1).Info("initialized", "horizon", m.cfg.Horizon, "step", m.cfg.Step)
	return nil
}

// update advances the rank-0 display to the engine's current simulated
// time and re-registers itself one cadence ahead. The chain stops on its
// own: no callback is ever scheduled past the horizon, so the last fire is
// at the largest multiple of the cadence that is ≤ the horizon.
func (m *Manager) update() {
	if m.rank != 0 || m.bar == nil {
		return
	}
	t := roundTime(m.eng.Now())
	m.bar.Set(t)

	next := roundTime(t + m.cfg.Cadence)
	if next <= m.cfg.Horizon {
		m.eng.ScheduleAt(next, m.update)
	}
}

// Refresh redraws the rank-0 display, optionally changing the total
// (when total > 0) and/or the description (when desc is non-empty). All
// ranks barrier afterward so none proceeds while rank 0 is mid-redraw.
func (m *Manager) Refresh(total float64, desc string) error {
	if m.quit {
		return ErrQuit
	}
	if m.rank == 0 && m.bar != nil {
		if total > 0 {
			m.bar.SetTotal(total)
		}
		if desc != "" {
			m.bar.SetDescription(desc)
		}
		m.bar.Refresh()
	}
	if err := m.pc.Barrier(); err != nil {
		return fmt.Errorf("manager: refresh barrier: %w", err)
	}
	return nil
}

// Run solves until the horizon. A positive horizon argument that differs
// from the configured one replaces it, refreshing the display total first.
// Every rank logs a completion notice naming its rank.
func (m *Manager) Run(ctx context.Context, horizon float64) error {
	if m.quit {
		return ErrQuit
	}
	ctx, span := tracing.StartSpan(ctx, "run",
		attribute.Int("rank", m.rank),
		attribute.Float64("horizon", m.cfg.Horizon))
	defer span.End()

	if horizon > 0 && horizon != m.cfg.Horizon {
		m.cfg.Horizon = horizon
		m.eng.SetHorizon(horizon)
		if err := m.Refresh(horizon, ""); err != nil {
			return err
		}
	}

	if err := m.eng.SolveUntil(ctx, m.cfg.Horizon); err != nil {
		return fmt.Errorf("manager: solving to %v: %w", m.cfg.Horizon, err)
	}
	m.log.Info("run complete", "horizon", m.cfg.Horizon)
	return nil
}

// Finalize drains the display. All ranks barrier, rank 0 closes the bar
// (emitting its final summary line), and all ranks barrier again so the
// display is fully flushed before anyone proceeds to teardown.
func (m *Manager) Finalize() error {
	if m.quit {
		return ErrQuit
	}
	if err := m.pc.Barrier(); err != nil {
		return fmt.Errorf("manager: finalize barrier: %w", err)
	}
	if m.rank == 0 && m.bar != nil {
		m.bar.Close()
		m.bar = nil
	}
	if err := m.pc.Barrier(); err != nil {
		return fmt.Errorf("manager: finalize barrier: %w", err)
	}
	return nil
}

// Execute composes Initialize, Run, and Finalize with the same arguments
// threaded through.
func (m *Manager) Execute(ctx context.Context, o InitOptions) error {
	if err := m.Initialize(ctx, o); err != nil {
		return err
	}
	if err := m.Run(ctx, 0); err != nil {
		return err
	}
	return m.Finalize()
}

// Quit signals collective completion and stops the engine. Irreversible:
// every subsequent operation returns ErrQuit.
func (m *Manager) Quit() error {
	if m.quit {
		return ErrQuit
	}
	if err := m.pc.Barrier(); err != nil {
		return fmt.Errorf("manager: quit barrier: %w", err)
	}
	if err := m.pc.Done(); err != nil {
		return fmt.Errorf("manager: signaling done: %w", err)
	}
	m.quit = true
	if err := m.eng.Stop(); err != nil {
		return fmt.Errorf("manager: stopping engine: %w", err)
	}
	return nil
}
