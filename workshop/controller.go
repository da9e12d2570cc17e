// Package workshop implements the session state machine of the creative-brief
// workshop: the state tree, the ordered phases, and every mutator the UI
// layer calls.
//
// A Controller owns one SessionState. Each mutation works on a clone and
// swaps it in whole, so readers only ever see complete snapshots.
package workshop

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Controller owns a session and serializes every mutation of it.
type Controller struct {
	mu    sync.RWMutex
	state *SessionState

	clock        func() time.Time
	newID        func() string
	skipOptional bool
	logger       *slog.Logger

	subMu       sync.Mutex
	subscribers map[int]func(SessionState)
	nextSubID   int
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock sets the time source used for timestamps and the timer.
func WithClock(clock func() time.Time) Option {
	return func(c *Controller) {
		c.clock = clock
	}
}

// WithIDGenerator sets the generator used for session, note, cluster and
// card ids.
func WithIDGenerator(gen func() string) Option {
	return func(c *Controller) {
		c.newID = gen
	}
}

// WithSkipOptionalPhases controls whether NextPhase and PreviousPhase jump
// over the optional exercise phases. Defaults to false.
func WithSkipOptionalPhases(skip bool) Option {
	return func(c *Controller) {
		c.skipOptional = skip
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithState starts the controller from an existing (loaded) state instead of
// a fresh one. The state is copied.
func WithState(s *SessionState) Option {
	return func(c *Controller) {
		c.state = s.Clone()
	}
}

// NewController creates a controller. Without WithState it starts a new
// session at the first phase.
func NewController(opts ...Option) *Controller {
	c := &Controller{
		clock:       time.Now,
		newID:       uuid.NewString,
		logger:      slog.Default(),
		subscribers: make(map[int]func(SessionState)),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.state == nil {
		c.state = newSessionState(c.newID(), c.now())
	} else {
		c.state.Normalize()
	}
	return c
}

// now returns the clock time in UTC. UTC also drops the monotonic reading,
// which keeps timestamps equal across a JSON round-trip.
func (c *Controller) now() time.Time {
	return c.clock().UTC()
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return *c.state.Clone()
}

// SessionID returns the id of the current session.
func (c *Controller) SessionID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.SessionID
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.CurrentPhase
}

// Subscribe registers fn to be called with a snapshot after every change.
// Calls happen outside the controller lock, in the mutating goroutine. The
// returned function removes the subscription.
func (c *Controller) Subscribe(fn func(SessionState)) func() {
	c.subMu.Lock()
	defer c.subMu.Unlock()
	id := c.nextSubID
	c.nextSubID++
	c.subscribers[id] = fn
	return func() {
		c.subMu.Lock()
		defer c.subMu.Unlock()
		delete(c.subscribers, id)
	}
}

// mutate applies fn to a clone of the state and swaps it in. If fn returns
// errNoChange nothing is swapped and no one is notified.
func (c *Controller) mutate(fn func(s *SessionState) error) error {
	c.mu.Lock()
	next := c.state.Clone()
	if err := fn(next); err != nil {
		c.mu.Unlock()
		if errors.Is(err, errNoChange) {
			return nil
		}
		return err
	}
	next.UpdatedAt = c.now()
	c.state = next
	snapshot := *next.Clone()
	c.mu.Unlock()

	c.notify(snapshot)
	return nil
}

func (c *Controller) notify(s SessionState) {
	c.subMu.Lock()
	fns := make([]func(SessionState), 0, len(c.subscribers))
	for _, fn := range c.subscribers {
		fns = append(fns, fn)
	}
	c.subMu.Unlock()

	for _, fn := range fns {
		fn(s)
	}
}

// Reset replaces the session with a fresh one under a new id.
func (c *Controller) Reset() error {
	return c.mutate(func(s *SessionState) error {
		old := s.SessionID
		*s = *newSessionState(c.newID(), c.now())
		c.logger.Info("Session reset", "old_session", old, "session", s.SessionID)
		return nil
	})
}

// SetPhase jumps directly to p.
func (c *Controller) SetPhase(p Phase) error {
	if !p.Valid() {
		return ErrInvalidPhase
	}
	return c.mutate(func(s *SessionState) error {
		if s.CurrentPhase == p {
			return errNoChange
		}
		c.logger.Debug("Phase changed", "session", s.SessionID, "from", s.CurrentPhase, "to", p)
		s.CurrentPhase = p
		return nil
	})
}

// NextPhase advances one step. At the final phase it returns
// ErrTerminalPhase and leaves the state unchanged. Completion flags are not
// checked.
func (c *Controller) NextPhase() (Phase, error) {
	return c.step(nextPhase)
}

// PreviousPhase goes back one step, returning ErrFirstPhase at the start.
func (c *Controller) PreviousPhase() (Phase, error) {
	return c.step(previousPhase)
}

func (c *Controller) step(move func(Phase, bool) (Phase, error)) (Phase, error) {
	var to Phase
	err := c.mutate(func(s *SessionState) error {
		p, err := move(s.CurrentPhase, c.skipOptional)
		if err != nil {
			return err
		}
		c.logger.Debug("Phase changed", "session", s.SessionID, "from", s.CurrentPhase, "to", p)
		s.CurrentPhase = p
		to = p
		return nil
	})
	return to, err
}
