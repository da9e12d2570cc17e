package workshop

import "time"

// TimerStatus is the observable state of the countdown.
type TimerStatus string

// Timer states. Expired is reached only from running and is left only by
// StartTimer or StopTimer.
const (
	TimerIdle    TimerStatus = "idle"
	TimerRunning TimerStatus = "running"
	TimerPaused  TimerStatus = "paused"
	TimerExpired TimerStatus = "expired"
)

// Remaining returns the seconds left at now.
func (t Timer) Remaining(now time.Time) int {
	switch {
	case !t.IsActive:
		return 0
	case t.IsPaused:
		if t.RemainingSeconds != nil {
			return *t.RemainingSeconds
		}
		return t.Duration
	case t.StartedAt == nil:
		return t.Duration
	}
	elapsed := int(now.Sub(*t.StartedAt) / time.Second)
	return max(0, t.Duration-elapsed)
}

// Status returns the timer state at now.
func (t Timer) Status(now time.Time) TimerStatus {
	switch {
	case !t.IsActive:
		return TimerIdle
	case t.IsPaused:
		return TimerPaused
	case t.Remaining(now) == 0:
		return TimerExpired
	default:
		return TimerRunning
	}
}

// StartTimer (re)starts the countdown from seconds.
func (c *Controller) StartTimer(seconds int) error {
	if seconds <= 0 {
		return ErrInvalidDuration
	}
	return c.mutate(func(s *SessionState) error {
		now := c.now()
		s.Timer = Timer{IsActive: true, StartedAt: &now, Duration: seconds}
		return nil
	})
}

// PauseTimer freezes a running timer. Other states are a no-op.
func (c *Controller) PauseTimer() error {
	return c.mutate(func(s *SessionState) error {
		now := c.now()
		if s.Timer.Status(now) != TimerRunning {
			return errNoChange
		}
		remaining := s.Timer.Remaining(now)
		s.Timer.IsPaused = true
		s.Timer.RemainingSeconds = &remaining
		return nil
	})
}

// ResumeTimer continues a paused timer so that the remaining time picks up
// where it was paused.
func (c *Controller) ResumeTimer() error {
	return c.mutate(func(s *SessionState) error {
		now := c.now()
		if s.Timer.Status(now) != TimerPaused {
			return errNoChange
		}
		remaining := s.Timer.Remaining(now)
		startedAt := now.Add(-time.Duration(s.Timer.Duration-remaining) * time.Second)
		s.Timer.StartedAt = &startedAt
		s.Timer.IsPaused = false
		s.Timer.RemainingSeconds = nil
		return nil
	})
}

// StopTimer returns the timer to idle.
func (c *Controller) StopTimer() error {
	return c.mutate(func(s *SessionState) error {
		if !s.Timer.IsActive {
			return errNoChange
		}
		s.Timer = Timer{Duration: s.Timer.Duration}
		return nil
	})
}

// TimerRemaining returns the seconds left on the countdown.
func (c *Controller) TimerRemaining() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Timer.Remaining(c.now())
}

// TimerStatus returns the current timer state.
func (c *Controller) TimerStatus() TimerStatus {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.Timer.Status(c.now())
}
