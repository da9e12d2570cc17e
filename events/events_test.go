package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/briefwork/workshop"
)

type recorded struct {
	subject string
	data    []byte
}

type fakePublisher struct {
	msgs []recorded
	err  error
}

func (f *fakePublisher) Publish(_ context.Context, subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, recorded{subject, data})
	return nil
}

func demoState(t *testing.T) *workshop.SessionState {
	t.Helper()
	ctrl := workshop.NewController()
	require.NoError(t, ctrl.FillDemoData())
	s := ctrl.Snapshot()
	return &s
}

func TestPublishSessionSaved(t *testing.T) {
	s := demoState(t)
	pub := &fakePublisher{}

	require.NoError(t, PublishSessionSaved(context.Background(), pub, s))
	require.Len(t, pub.msgs, 1)
	assert.Equal(t, "briefwork.session."+s.SessionID+".saved", pub.msgs[0].subject)

	var got SessionSaved
	require.NoError(t, json.Unmarshal(pub.msgs[0].data, &got))
	assert.Equal(t, s.SessionID, got.SessionID)
	assert.Equal(t, "Trailhead Launch Film", got.ProjectName)
	assert.Equal(t, len(s.StickyNoteExercise.Notes), got.Notes)
	assert.Equal(t, len(s.Prioritization.WillHave)+len(s.Prioritization.CouldHave)+len(s.Prioritization.WontHave), got.Cards)
}

func TestPublishSessionSaved_NilPublisher(t *testing.T) {
	assert.NoError(t, PublishSessionSaved(context.Background(), nil, demoState(t)))
}

func TestPublishSessionSaved_WrapsErrors(t *testing.T) {
	s := demoState(t)
	err := PublishSessionSaved(context.Background(), &fakePublisher{err: errors.New("no responders")}, s)
	require.Error(t, err)
	assert.Contains(t, err.Error(), SavedSubject(s.SessionID))
	assert.Contains(t, err.Error(), "no responders")
}

func TestOnSave_LogsFailures(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	hook := OnSave(&fakePublisher{err: errors.New("disconnected")}, logger)

	hook(context.Background(), demoState(t))
	assert.Contains(t, buf.String(), "Failed to publish session event")
	assert.Contains(t, buf.String(), "disconnected")
}
