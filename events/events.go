// Package events announces session changes on NATS so other tools, such as a
// shared board view, can follow a live workshop.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/briefwork/workshop"
)

// SubjectPrefix is the root of every session subject.
const SubjectPrefix = "briefwork.session"

// Publisher sends raw messages. *natsclient.Client satisfies it.
type Publisher interface {
	Publish(ctx context.Context, subject string, data []byte) error
}

// SessionSaved is published after each successful save.
type SessionSaved struct {
	SessionID    string         `json:"sessionId"`
	ProjectName  string         `json:"projectName"`
	CurrentPhase workshop.Phase `json:"currentPhase"`
	Notes        int            `json:"notes"`
	Clusters     int            `json:"clusters"`
	Cards        int            `json:"cards"`
	UpdatedAt    time.Time      `json:"updatedAt"`
}

// SavedSubject returns the subject for save events of one session.
func SavedSubject(sessionID string) string {
	return SubjectPrefix + "." + sessionID + ".saved"
}

// NewSessionSaved summarizes s.
func NewSessionSaved(s *workshop.SessionState) SessionSaved {
	p := s.Prioritization
	return SessionSaved{
		SessionID:    s.SessionID,
		ProjectName:  s.ProjectContext.ProjectName,
		CurrentPhase: s.CurrentPhase,
		Notes:        len(s.StickyNoteExercise.Notes),
		Clusters:     len(s.StickyNoteExercise.Clusters),
		Cards:        len(p.WillHave) + len(p.CouldHave) + len(p.WontHave),
		UpdatedAt:    s.UpdatedAt,
	}
}

// PublishSessionSaved publishes a SessionSaved event for s. A nil publisher
// publishes nothing.
func PublishSessionSaved(ctx context.Context, pub Publisher, s *workshop.SessionState) error {
	if pub == nil {
		return nil
	}
	data, err := json.Marshal(NewSessionSaved(s))
	if err != nil {
		return fmt.Errorf("marshal session event: %w", err)
	}
	subject := SavedSubject(s.SessionID)
	if err := pub.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish to %s: %w", subject, err)
	}
	return nil
}

// OnSave returns a save hook for storage.WithOnSave. Publish failures are
// logged and never fail the save.
func OnSave(pub Publisher, logger *slog.Logger) func(ctx context.Context, s *workshop.SessionState) {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, s *workshop.SessionState) {
		if err := PublishSessionSaved(ctx, pub, s); err != nil {
			logger.Warn("Failed to publish session event", "session", s.SessionID, "error", err)
		}
	}
}
