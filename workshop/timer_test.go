package workshop

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTimer_Lifecycle(t *testing.T) {
	c, clock := newTestController(t)
	assert.Equal(t, TimerIdle, c.TimerStatus())
	assert.Zero(t, c.TimerRemaining())

	require.NoError(t, c.StartTimer(300))
	assert.Equal(t, TimerRunning, c.TimerStatus())
	assert.Equal(t, 300, c.TimerRemaining())

	clock.Advance(90*time.Second + 400*time.Millisecond)
	assert.Equal(t, 210, c.TimerRemaining())

	require.NoError(t, c.PauseTimer())
	assert.Equal(t, TimerPaused, c.TimerStatus())

	// Time passing while paused does not count.
	clock.Advance(10 * time.Minute)
	assert.Equal(t, 210, c.TimerRemaining())

	require.NoError(t, c.ResumeTimer())
	assert.Equal(t, TimerRunning, c.TimerStatus())
	assert.InDelta(t, 210, c.TimerRemaining(), 1)

	clock.Advance(210 * time.Second)
	assert.Equal(t, TimerExpired, c.TimerStatus())
	assert.Zero(t, c.TimerRemaining())

	// Expiry is one-way: pause and resume do nothing.
	before := c.Snapshot()
	require.NoError(t, c.PauseTimer())
	require.NoError(t, c.ResumeTimer())
	assert.Equal(t, before, c.Snapshot())

	clock.Advance(time.Hour)
	assert.Zero(t, c.TimerRemaining())

	require.NoError(t, c.StopTimer())
	assert.Equal(t, TimerIdle, c.TimerStatus())
	assert.Equal(t, 300, c.Snapshot().Timer.Duration)
}

func TestTimer_PauseResumeContinuity(t *testing.T) {
	c, clock := newTestController(t)
	require.NoError(t, c.StartTimer(600))

	for i := 0; i < 5; i++ {
		clock.Advance(37*time.Second + 730*time.Millisecond)
		require.NoError(t, c.PauseTimer())
		paused := c.TimerRemaining()

		clock.Advance(3 * time.Minute)
		require.NoError(t, c.ResumeTimer())
		assert.InDelta(t, paused, c.TimerRemaining(), 1, "iteration %d", i)
	}
}

func TestTimer_IdleOperationsAreNoOps(t *testing.T) {
	c, _ := newTestController(t)
	before := c.Snapshot()

	require.NoError(t, c.PauseTimer())
	require.NoError(t, c.ResumeTimer())
	require.NoError(t, c.StopTimer())
	assert.Equal(t, before, c.Snapshot())

	assert.ErrorIs(t, c.StartTimer(0), ErrInvalidDuration)
}

func TestTimer_StartRestarts(t *testing.T) {
	c, clock := newTestController(t)
	require.NoError(t, c.StartTimer(60))
	clock.Advance(50 * time.Second)
	require.NoError(t, c.PauseTimer())

	require.NoError(t, c.StartTimer(120))
	s := c.Snapshot().Timer
	assert.False(t, s.IsPaused)
	assert.Nil(t, s.RemainingSeconds)
	assert.Equal(t, 120, c.TimerRemaining())
}
