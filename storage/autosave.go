package storage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/c360studio/briefwork/workshop"
)

// Defaults for the auto-saver.
const (
	DefaultDebounce    = 500 * time.Millisecond
	DefaultSaveTimeout = 5 * time.Second
)

// AutoSaver persists a controller's state shortly after it changes. Every
// change restarts the debounce window, so a burst of mutations produces one
// write of the final state. Write failures are logged, not returned.
type AutoSaver struct {
	gw          *Gateway
	ctrl        *workshop.Controller
	delay       time.Duration
	saveTimeout time.Duration
	logger      *slog.Logger

	mu          sync.Mutex
	timer       *time.Timer
	dirty       bool
	closed      bool
	unsubscribe func()

	// saveMu serializes writes so an older snapshot never lands last.
	saveMu sync.Mutex
}

// AutoSaveOption configures an AutoSaver.
type AutoSaveOption func(*AutoSaver)

// WithDebounce sets the quiet period before a write.
func WithDebounce(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) {
		if d > 0 {
			a.delay = d
		}
	}
}

// WithSaveTimeout bounds each background write.
func WithSaveTimeout(d time.Duration) AutoSaveOption {
	return func(a *AutoSaver) {
		if d > 0 {
			a.saveTimeout = d
		}
	}
}

// WithAutoSaveLogger sets the logger.
func WithAutoSaveLogger(l *slog.Logger) AutoSaveOption {
	return func(a *AutoSaver) {
		a.logger = l
	}
}

// NewAutoSaver subscribes to ctrl and starts saving through gw.
func NewAutoSaver(gw *Gateway, ctrl *workshop.Controller, opts ...AutoSaveOption) *AutoSaver {
	a := &AutoSaver{
		gw:          gw,
		ctrl:        ctrl,
		delay:       DefaultDebounce,
		saveTimeout: DefaultSaveTimeout,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.unsubscribe = ctrl.Subscribe(func(workshop.SessionState) { a.schedule() })
	return a
}

func (a *AutoSaver) schedule() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.dirty = true
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.delay, a.fire)
}

func (a *AutoSaver) fire() {
	if !a.takeDirty() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()
	if err := a.save(ctx); err != nil {
		a.logger.Warn("Auto-save failed", "session", a.ctrl.SessionID(), "error", err)
	}
}

// takeDirty clears the pending timer and reports whether a write is due.
func (a *AutoSaver) takeDirty() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	dirty := a.dirty
	a.dirty = false
	return dirty
}

// save writes the controller's current state, not the snapshot that
// triggered the timer.
func (a *AutoSaver) save(ctx context.Context) error {
	a.saveMu.Lock()
	defer a.saveMu.Unlock()

	s := a.ctrl.Snapshot()
	if err := a.gw.SaveState(ctx, &s); err != nil {
		return err
	}
	a.logger.Debug("Session saved", "session", s.SessionID, "phase", s.CurrentPhase)
	return nil
}

// Flush writes any pending change now. With nothing pending it waits for an
// in-flight background write to finish.
func (a *AutoSaver) Flush(ctx context.Context) error {
	if !a.takeDirty() {
		a.saveMu.Lock()
		defer a.saveMu.Unlock()
		return nil
	}
	return a.save(ctx)
}

// Close stops listening for changes and flushes a pending write. Like the
// debounced saves, a failed final write is logged and swallowed; call Flush
// first to observe it.
func (a *AutoSaver) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.mu.Unlock()

	a.unsubscribe()

	ctx, cancel := context.WithTimeout(context.Background(), a.saveTimeout)
	defer cancel()
	if err := a.Flush(ctx); err != nil {
		a.logger.Warn("Final save failed", "session", a.ctrl.SessionID(), "error", err)
	}
	return nil
}
