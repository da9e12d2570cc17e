package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/briefwork/workshop"
)

// Gateway encodes session state onto a Store.
type Gateway struct {
	store  Store
	logger *slog.Logger
	onSave []func(ctx context.Context, s *workshop.SessionState)
}

// GatewayOption configures a Gateway.
type GatewayOption func(*Gateway)

// WithGatewayLogger sets the logger.
func WithGatewayLogger(l *slog.Logger) GatewayOption {
	return func(g *Gateway) {
		g.logger = l
	}
}

// WithOnSave registers fn to run after every successful save.
func WithOnSave(fn func(ctx context.Context, s *workshop.SessionState)) GatewayOption {
	return func(g *Gateway) {
		g.onSave = append(g.onSave, fn)
	}
}

// NewGateway wraps store.
func NewGateway(store Store, opts ...GatewayOption) *Gateway {
	g := &Gateway{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Store returns the wrapped back end.
func (g *Gateway) Store() Store {
	return g.store
}

// SaveState writes s under its session id.
func (g *Gateway) SaveState(ctx context.Context, s *workshop.SessionState) error {
	data, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := g.store.Save(ctx, s.SessionID, data); err != nil {
		return fmt.Errorf("save session %s: %w", s.SessionID, err)
	}
	for _, fn := range g.onSave {
		fn(ctx, s)
	}
	return nil
}

// LoadState reads the session stored under id. Fields missing from the
// snapshot get their creation defaults. A snapshot with broken cross
// references still loads; the problem is logged.
func (g *Gateway) LoadState(ctx context.Context, id string) (*workshop.SessionState, error) {
	data, err := g.store.Load(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}
	return g.decode(id, data)
}

func (g *Gateway) decode(id string, data []byte) (*workshop.SessionState, error) {
	s := workshop.NewSessionState()
	s.SessionID = ""
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("unmarshal session %s: %w", id, err)
	}
	if s.SessionID == "" {
		s.SessionID = id
	}
	s.Normalize()

	if err := s.CheckIntegrity(); err != nil {
		g.logger.Warn("Loaded session has inconsistent references",
			"session", id,
			"error", err)
	}
	return s, nil
}

// Delete removes the session stored under id.
func (g *Gateway) Delete(ctx context.Context, id string) error {
	return g.store.Delete(ctx, id)
}

// Summary describes a stored session for listings.
type Summary struct {
	SessionID   string         `json:"sessionId"`
	ProjectName string         `json:"projectName"`
	Phase       workshop.Phase `json:"currentPhase"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// List summarizes every stored session. Snapshots that fail to load are
// skipped.
func (g *Gateway) List(ctx context.Context) ([]Summary, error) {
	ids, err := g.store.List(ctx)
	if err != nil {
		return nil, err
	}

	summaries := make([]Summary, 0, len(ids))
	for _, id := range ids {
		s, err := g.LoadState(ctx, id)
		if err != nil {
			g.logger.Warn("Skipping unreadable session", "session", id, "error", err)
			continue
		}
		summaries = append(summaries, Summary{
			SessionID:   s.SessionID,
			ProjectName: s.ProjectContext.ProjectName,
			Phase:       s.CurrentPhase,
			UpdatedAt:   s.UpdatedAt,
		})
	}
	return summaries, nil
}
