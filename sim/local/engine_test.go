package local

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEngine_SolveAdvancesToTarget(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Init(-65))

	require.NoError(t, e.SolveUntil(context.Background(), 10))
	assert.Equal(t, 10.0, e.Now())
}

func TestEngine_CallbacksFireInTimeOrder(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Init(0))

	var fired []float64
	e.ScheduleAt(5, func() { fired = append(fired, 5) })
	e.ScheduleAt(2, func() { fired = append(fired, 2) })
	e.ScheduleAt(8, func() { fired = append(fired, 8) })

	require.NoError(t, e.SolveUntil(context.Background(), 10))
	assert.Equal(t, []float64{2, 5, 8}, fired)
}

func TestEngine_CallbacksBeyondTargetDoNotFire(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Init(0))

	var fired int
	e.ScheduleAt(5, func() { fired++ })
	e.ScheduleAt(15, func() { fired++ })

	require.NoError(t, e.SolveUntil(context.Background(), 10))
	assert.Equal(t, 1, fired)
}

func TestEngine_SelfReschedulingChain(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Init(0))

	const horizon = 1000.0
	const cadence = 1.0

	var fired []float64
	var update func()
	update = func() {
		now := e.Now()
		fired = append(fired, now)
		if next := now + cadence; next <= horizon {
			e.ScheduleAt(next, update)
		}
	}
	update() // immediate first update, as the manager does

	require.NoError(t, e.SolveUntil(context.Background(), horizon))

	// Fires at 0,1,...,1000 inclusive; 1001 is never scheduled.
	require.Len(t, fired, 1001)
	assert.Equal(t, 0.0, fired[0])
	assert.Equal(t, horizon, fired[len(fired)-1])
	for i, tm := range fired {
		assert.Equal(t, float64(i), tm)
	}
}

func TestEngine_FractionalStepRounding(t *testing.T) {
	e := NewEngine(0.1)
	require.NoError(t, e.Init(0))

	var fired []float64
	e.ScheduleAt(0.3, func() { fired = append(fired, e.Now()) })

	require.NoError(t, e.SolveUntil(context.Background(), 1.0))
	// 0.1+0.1+0.1 accumulates float error without rounding; the event
	// must still fire exactly at 0.3.
	require.Len(t, fired, 1)
	assert.Equal(t, 0.3, fired[0])
}

func TestEngine_OnStepReceivesState(t *testing.T) {
	e := NewEngine(1.0)

	var states []float64
	e.OnStep(func(tm float64, v *float64) {
		*v += 1
		states = append(states, *v)
	})
	require.NoError(t, e.Init(0))
	require.NoError(t, e.SolveUntil(context.Background(), 3))

	assert.Equal(t, []float64{1, 2, 3}, states)
	assert.Equal(t, 3.0, e.State())
}

func TestEngine_InitResetsTimeAndQueue(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Init(0))

	fired := false
	e.ScheduleAt(5, func() { fired = true })
	require.NoError(t, e.SolveUntil(context.Background(), 2))

	require.NoError(t, e.Init(-65))
	assert.Equal(t, 0.0, e.Now())
	assert.Equal(t, -65.0, e.State())

	require.NoError(t, e.SolveUntil(context.Background(), 10))
	assert.False(t, fired, "queued events must not survive re-initialization")
}

func TestEngine_ContextCancellation(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Init(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, e.SolveUntil(ctx, 100))
}

func TestEngine_StoppedEngineRefusesWork(t *testing.T) {
	e := NewEngine(1.0)
	require.NoError(t, e.Stop())

	assert.ErrorIs(t, e.Init(0), ErrStopped)
	assert.ErrorIs(t, e.SolveUntil(context.Background(), 10), ErrStopped)
	assert.ErrorIs(t, e.Stop(), ErrStopped)
}
