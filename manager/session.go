package manager

import (
	"context"
	"fmt"
)

type sessionOptions struct {
	autoQuit bool
}

// SessionOption configures a scoped session.
type SessionOption func(*sessionOptions)

// WithAutoQuit controls whether the session calls Quit on exit.
// Default true.
func WithAutoQuit(on bool) SessionOption {
	return func(o *sessionOptions) {
		o.autoQuit = on
	}
}

// Session runs fn inside a scoped session with guaranteed teardown. On
// every exit path, including panics, the session:
//
//  1. reports any error or panic that is in flight (non-fatally),
//  2. closes this rank's progress display if one exists,
//  3. barriers so all ranks reach teardown together,
//  4. calls Quit unless disabled via WithAutoQuit(false).
//
// The original error (or panic) always propagates; teardown failures are
// logged, never substituted for it.
func (m *Manager) Session(ctx context.Context, fn func(context.Context, *Manager) error, opts ...SessionOption) (err error) {
	o := sessionOptions{autoQuit: true}
	for _, opt := range opts {
		opt(&o)
	}

	defer func() {
		if r := recover(); r != nil {
			m.log.Error(fmt.Errorf("panic: %v", r), "session panicked")
			m.teardown(o)
			panic(r)
		}
		if err != nil {
			m.log.Error(err, "session error")
		}
		m.teardown(o)
	}()

	err = fn(ctx, m)
	return err
}

func (m *Manager) teardown(o sessionOptions) {
	if m.quit {
		return
	}
	if m.bar != nil {
		m.bar.Close()
		m.bar = nil
	}
	if err := m.pc.Barrier(); err != nil {
		m.log.Error(err, "session teardown barrier failed")
		return
	}
	if o.autoQuit {
		if err := m.Quit(); err != nil {
			m.log.Error(err, "session quit failed")
		}
	}
}
