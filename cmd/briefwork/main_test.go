package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/briefwork/config"
	"github.com/c360studio/briefwork/export"
	"github.com/c360studio/briefwork/storage"
	"github.com/c360studio/briefwork/workshop"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

// harness runs commands against a throwaway config dir and file store.
type harness struct {
	t          *testing.T
	configPath string
	sessions   string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	for _, key := range []string{
		"BRIEFWORK_LLM_PROVIDER", "BRIEFWORK_LLM_MODEL", "BRIEFWORK_LLM_API_KEY",
		"BRIEFWORK_LLM_BASE_URL", "BRIEFWORK_LLM_TIMEOUT", "BRIEFWORK_LLM_MAX_ATTEMPTS",
		"OPENAI_API_KEY", "ANTHROPIC_API_KEY", "NATS_URL", "REDIS_URL", "DATABASE_URL",
		"BRIEFWORK_STORAGE_DEBOUNCE", "BRIEFWORK_SERVER_ADDR", "BRIEFWORK_SKIP_OPTIONAL_PHASES",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}

	dir := t.TempDir()
	h := &harness{
		t:          t,
		configPath: filepath.Join(dir, "config", "config.yaml"),
		sessions:   filepath.Join(dir, "sessions"),
	}
	t.Setenv("BRIEFWORK_STORAGE_BACKEND", storage.BackendFile)
	t.Setenv("BRIEFWORK_STORAGE_DIR", h.sessions)
	t.Setenv("BRIEFWORK_LLM_MOCK_LATENCY", "0s")
	return h
}

// run executes one command line and returns stdout and stderr.
func (h *harness) run(args ...string) (string, string, error) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	c := newCLI(&out, &errOut)
	cmd := c.root()
	cmd.SetArgs(append([]string{"--config", h.configPath}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func (h *harness) mustRun(args ...string) string {
	h.t.Helper()
	out, errOut, err := h.run(args...)
	require.NoError(h.t, err, "briefwork %s\nstderr: %s", strings.Join(args, " "), errOut)
	return out
}

func (h *harness) state() workshop.SessionState {
	h.t.Helper()
	var s workshop.SessionState
	require.NoError(h.t, json.Unmarshal([]byte(h.mustRun("session", "show", "--json")), &s))
	return s
}

func (h *harness) activeSession() string {
	h.t.Helper()
	data, err := os.ReadFile(filepath.Join(filepath.Dir(h.configPath), activeSessionFile))
	require.NoError(h.t, err)
	return strings.TrimSpace(string(data))
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("session", "new")
	assert.Contains(t, out, "Started session")
	first := h.activeSession()
	require.NotEmpty(t, first)

	h.mustRun("context", "set", "--name", "Trailhead", "--duration", "90")
	s := h.state()
	assert.Equal(t, first, s.SessionID)
	assert.Equal(t, "Trailhead", s.ProjectContext.ProjectName)
	assert.Equal(t, 90, s.ProjectContext.Duration)

	h.mustRun("session", "new")
	second := h.activeSession()
	assert.NotEqual(t, first, second)

	list := h.mustRun("session", "list")
	assert.Contains(t, list, "Trailhead")
	assert.Contains(t, list, "* "+shortID(second))

	h.mustRun("session", "use", first[:6])
	assert.Equal(t, first, h.activeSession())
	assert.Equal(t, "Trailhead", h.state().ProjectContext.ProjectName)

	h.mustRun("session", "delete", second)
	assert.NotContains(t, h.mustRun("session", "list"), shortID(second))
}

func TestSessionReset(t *testing.T) {
	h := newHarness(t)
	h.mustRun("session", "new")
	old := h.activeSession()
	h.mustRun("context", "set", "--name", "Old project")

	h.mustRun("session", "reset")
	s := h.state()
	assert.NotEqual(t, old, s.SessionID)
	assert.Empty(t, s.ProjectContext.ProjectName)

	_, _, err := h.run("--session", old, "session", "show")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestExplicitMissingSession(t *testing.T) {
	h := newHarness(t)
	_, _, err := h.run("--session", "does-not-exist", "phase")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStaleActiveSessionStartsFresh(t *testing.T) {
	h := newHarness(t)
	h.mustRun("session", "new")
	old := h.activeSession()
	require.NoError(t, os.Remove(filepath.Join(h.sessions, old+".json")))

	s := h.state()
	assert.NotEqual(t, old, s.SessionID)
}

func TestPhaseCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("phase", "next")
	assert.Contains(t, out, workshop.PhaseCustomerDiscovery.Title())

	h.mustRun("phase", "next")
	assert.Equal(t, workshop.PhaseStickyNotesDiverge, h.state().CurrentPhase)
	h.mustRun("phase", "next")
	assert.Equal(t, workshop.PhaseStickyNotesConverge, h.state().CurrentPhase)

	h.mustRun("phase", "set", string(workshop.PhaseSpotExercises))
	h.mustRun("phase", "prev")
	assert.Equal(t, workshop.PhaseStickyNotesConverge, h.state().CurrentPhase)

	_, _, err := h.run("phase", "set", "lunch")
	assert.ErrorIs(t, err, workshop.ErrInvalidPhase)

	h.mustRun("phase", "set", string(workshop.PhaseProjectContext))
	_, _, err = h.run("phase", "prev")
	assert.ErrorIs(t, err, workshop.ErrFirstPhase)

	listing := h.mustRun("phase")
	assert.Contains(t, listing, "> 1. Project Context")
	assert.Contains(t, listing, "(optional)")
}

func TestDiscoveryCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("discovery", "set", "--who", "weekend runners", "--why-now", "spring season")
	h.mustRun("answer", "audience-primary", "trail", "runners")
	s := h.state()
	assert.Equal(t, "weekend runners", s.CustomerDiscovery.WhoIsThisFor)
	assert.Equal(t, "spring season", s.CustomerDiscovery.WhyNow)
	assert.Empty(t, s.CustomerDiscovery.WhatIsSuccess)
	for _, q := range s.CustomerDiscovery.GranularQuestions {
		if q.ID == "audience-primary" {
			assert.Equal(t, "trail runners", q.Answer)
		}
	}

	_, _, err := h.run("answer", "no-such-question", "x")
	assert.ErrorIs(t, err, workshop.ErrInvalidReference)

	_, _, err = h.run("discovery", "set")
	assert.Error(t, err)

	out := h.mustRun("discovery", "questions", "--category", "timing")
	assert.Contains(t, out, "timing-trigger")
	assert.NotContains(t, out, "audience-primary")
}

func TestBoardCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("note", "add", "big", "idea")
	h.mustRun("note", "add", "small idea", "--x", "10", "--y", "20")
	s := h.state()
	require.Len(t, s.StickyNoteExercise.Notes, 2)
	big, small := s.StickyNoteExercise.Notes[0], s.StickyNoteExercise.Notes[1]
	assert.Equal(t, "big idea", big.Text)
	assert.Equal(t, 10.0, small.X)

	h.mustRun("cluster", "add", "Themes", "--notes", big.ID[:8])
	s = h.state()
	require.Len(t, s.StickyNoteExercise.Clusters, 1)
	cl := s.StickyNoteExercise.Clusters[0]
	assert.Equal(t, []string{big.ID}, cl.NoteIDs)
	assert.Equal(t, float64(defaultClusterWidth), cl.Width)

	h.mustRun("note", "assign", small.ID, cl.ID[:8])
	assert.Len(t, h.state().StickyNoteExercise.Clusters[0].NoteIDs, 2)

	h.mustRun("note", "assign", small.ID, "none")
	assert.Nil(t, h.state().StickyNoteExercise.Notes[1].ClusterID)

	_, _, err := h.run("note", "assign", small.ID, "nope")
	assert.ErrorIs(t, err, workshop.ErrInvalidReference)

	out := h.mustRun("note", "rm", "ffffffff")
	assert.Contains(t, out, "nothing changed")

	h.mustRun("note", "edit", big.ID, "bigger", "idea")
	h.mustRun("cluster", "rename", cl.ID, "Core themes")
	h.mustRun("cluster", "resize", cl.ID, "100", "50")
	s = h.state()
	assert.Equal(t, "bigger idea", s.StickyNoteExercise.Notes[0].Text)
	assert.Equal(t, "Core themes", s.StickyNoteExercise.Clusters[0].Title)
	assert.Equal(t, 100.0, s.StickyNoteExercise.Clusters[0].Width)

	board := h.mustRun("note", "list")
	assert.Contains(t, board, "Core themes")
	assert.Contains(t, board, "Unclustered")

	h.mustRun("cluster", "rm", cl.ID)
	s = h.state()
	assert.Empty(t, s.StickyNoteExercise.Clusters)
	assert.Nil(t, s.StickyNoteExercise.Notes[0].ClusterID)
}

func TestCardCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("card", "add", "Show the shoe on a muddy trail", "--source", "discovery")
	h.mustRun("card", "add", "Drone shots")
	s := h.state()
	require.Len(t, s.Prioritization.WillHave, 2)
	first, second := s.Prioritization.WillHave[0], s.Prioritization.WillHave[1]
	assert.Equal(t, "discovery", first.Source)

	h.mustRun("card", "move", second.ID[:8], "could")
	s = h.state()
	assert.Len(t, s.Prioritization.WillHave, 1)
	require.Len(t, s.Prioritization.CouldHave, 1)
	assert.Equal(t, second.ID, s.Prioritization.CouldHave[0].ID)

	h.mustRun("card", "move", first.ID, "couldHave", "--index", "1")
	s = h.state()
	require.Len(t, s.Prioritization.CouldHave, 2)
	assert.Equal(t, first.ID, s.Prioritization.CouldHave[0].ID)

	_, _, err := h.run("card", "move", first.ID, "maybe")
	assert.ErrorIs(t, err, workshop.ErrInvalidBucket)

	h.mustRun("card", "rm", first.ID)
	listing := h.mustRun("card", "list")
	assert.Contains(t, listing, "Drone shots")
	assert.NotContains(t, listing, "muddy trail")
	assert.Contains(t, listing, "(none)")
}

func TestSpotCommands(t *testing.T) {
	h := newHarness(t)

	h.mustRun("spot", "set", "--sentence", "Mud is the point.")
	h.mustRun("spot", "failure", "add", "Looks like every other shoe ad")
	h.mustRun("spot", "promise", "add", "Grips wet rock", "close-up on a wet slab")
	h.mustRun("spot", "constraint", "add", "Two shoot days", "handheld, natural light")
	h.mustRun("spot", "beat", "setup", "A runner at dawn")

	s := h.state()
	se := s.SpotExercises
	assert.Equal(t, "Mud is the point.", se.OneSentence)
	assert.Equal(t, []string{"Looks like every other shoe ad"}, se.Failures)
	assert.Equal(t, "close-up on a wet slab", se.PromisesAndProofs[0].VisualProof)
	assert.Equal(t, "handheld, natural light", se.Constraints[0].StyleImplication)
	assert.Equal(t, "A runner at dawn", se.Story[0].Text)

	out := h.mustRun("spot", "failure", "rm", "5")
	assert.Contains(t, out, "nothing changed")
	h.mustRun("spot", "failure", "rm", "1")
	assert.Empty(t, h.state().SpotExercises.Failures)

	_, _, err := h.run("spot", "beat", "epilogue", "x")
	assert.ErrorIs(t, err, workshop.ErrInvalidReference)
}

func TestTimerCommands(t *testing.T) {
	h := newHarness(t)

	assert.Contains(t, h.mustRun("timer"), "idle")
	assert.Contains(t, h.mustRun("timer", "start", "10"), "of 10:00")
	assert.Contains(t, h.mustRun("timer", "pause"), "paused")
	assert.Contains(t, h.mustRun("timer", "resume"), "running")
	assert.Contains(t, h.mustRun("timer", "stop"), "idle")

	_, _, err := h.run("timer", "start", "soon")
	assert.ErrorIs(t, err, workshop.ErrInvalidDuration)
	_, _, err = h.run("timer", "start", "0")
	assert.ErrorIs(t, err, workshop.ErrInvalidDuration)
}

func TestLLMCommands(t *testing.T) {
	h := newHarness(t)

	out := h.mustRun("llm", "show")
	assert.Contains(t, out, "openai")
	assert.Contains(t, out, "offline mock")

	h.mustRun("llm", "config", "anthropic", "--api-key", "sk-ant-secret-9876")
	out = h.mustRun("llm", "show")
	assert.Contains(t, out, "anthropic")
	assert.Contains(t, out, "****9876")
	assert.NotContains(t, out, "secret")

	_, _, err := h.run("llm", "config", "gemini")
	assert.ErrorIs(t, err, workshop.ErrInvalidProvider)

	h.mustRun("llm", "config", "mock")
	assert.Contains(t, h.mustRun("llm", "test"), "answered")
}

func TestExtractAndSynthesize(t *testing.T) {
	h := newHarness(t)

	h.mustRun("extract", "a product launch film for a trail running shoe. Aimed at weekend runners.")
	s := h.state()
	assert.Equal(t, "A Product Launch Film For", s.ProjectContext.ProjectName)
	require.NotNil(t, s.AIPromptState)
	assert.Equal(t, workshop.SourceAI, s.ProjectContextMetadata[workshop.FieldProjectName].Source)

	h.mustRun("note", "add", "mud")
	h.mustRun("cluster", "add", "Terrain", "--notes", h.state().StickyNoteExercise.Notes[0].ID)
	h.mustRun("cluster", "add", "Empty")

	out := h.mustRun("synthesize", "all")
	assert.Contains(t, out, "Empty: skipped")

	s = h.state()
	assert.NotEmpty(t, s.StickyNoteExercise.Clusters[0].AISummary)
	assert.Empty(t, s.StickyNoteExercise.Clusters[1].AISummary)
	require.NotNil(t, s.CreativeBrief)
	assert.NotEmpty(t, s.CreativeBrief.DiscoverySummary)
	assert.NotEmpty(t, s.SpotExercises.AISynthesis)

	_, _, err := h.run("synthesize", "everything")
	assert.Error(t, err)
}

func TestBriefCommand(t *testing.T) {
	h := newHarness(t)
	h.mustRun("session", "demo")

	md := h.mustRun("brief")
	assert.True(t, strings.HasPrefix(md, "# Trailhead Launch Film\n"), md)
	assert.Contains(t, md, "## Overview")

	var doc struct {
		ProjectName string `json:"projectName"`
		GeneratedAt string `json:"generatedAt"`
	}
	require.NoError(t, json.Unmarshal([]byte(h.mustRun("brief", "--format", "json")), &doc))
	assert.Equal(t, "Trailhead Launch Film", doc.ProjectName)
	assert.NotEmpty(t, doc.GeneratedAt)

	path := filepath.Join(t.TempDir(), "brief.txt")
	assert.Contains(t, h.mustRun("brief", "--output", path), "Wrote")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "TRAILHEAD LAUNCH FILM\n===="), string(data))

	_, _, err = h.run("brief", "--format", "pdf")
	assert.ErrorIs(t, err, export.ErrUnknownFormat)
}

func TestBriefGenerate(t *testing.T) {
	h := newHarness(t)
	h.mustRun("session", "demo")

	out := h.mustRun("brief", "--generate", "--format", "markdown")
	assert.Contains(t, out, "## Overview")

	s := h.state()
	require.NotNil(t, s.CreativeBrief)
	assert.NotEmpty(t, s.CreativeBrief.Overview)
	assert.Equal(t, workshop.PhaseBriefComplete, s.CurrentPhase)
}

func TestConfigCommands(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BRIEFWORK_LLM_API_KEY", "sk-test-secret-1234")

	out := h.mustRun("config", "show")
	assert.Contains(t, out, "****1234")
	assert.NotContains(t, out, "sk-test-secret")
	assert.Contains(t, out, "backend: file")

	h.mustRun("config", "init")
	_, err := os.Stat(h.configPath)
	assert.NoError(t, err)
}

func TestInvalidConfig(t *testing.T) {
	h := newHarness(t)
	t.Setenv("BRIEFWORK_STORAGE_BACKEND", "postgres")

	_, _, err := h.run("session")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestVersion(t *testing.T) {
	h := newHarness(t)
	assert.Contains(t, h.mustRun("version"), "briefwork version "+Version)
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantTitle string
	}{
		{"missing session", fmt.Errorf("load: %w", storage.ErrNotFound), "Session not found"},
		{"bad id", storage.ErrInvalidID, "Invalid session id"},
		{"phase", workshop.ErrInvalidPhase, "Unknown phase"},
		{"terminal", workshop.ErrTerminalPhase, "Cannot move"},
		{"first", workshop.ErrFirstPhase, "Cannot move"},
		{"bucket", workshop.ErrInvalidBucket, "Unknown bucket"},
		{"reference", workshop.ErrInvalidReference, "Unknown reference"},
		{"provider", workshop.ErrInvalidProvider, "Unknown provider"},
		{"duration", workshop.ErrInvalidDuration, "Invalid duration"},
		{"format", export.ErrUnknownFormat, "Unknown format"},
		{"config", config.ErrInvalidConfig, "Invalid configuration"},
		{"other", errors.New("boom"), "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantTitle, describe(tt.err).Title)
		})
	}
}

func TestPrinterFailure(t *testing.T) {
	var out, errOut bytes.Buffer
	p := printer{out: &out, err: &errOut}
	m := describe(storage.ErrNotFound)
	p.Failure(m)

	assert.Empty(t, out.String())
	assert.Contains(t, errOut.String(), "Session not found")
	assert.Contains(t, errOut.String(), "Either:")
	assert.Contains(t, errOut.String(), "1. Run 'briefwork session list'")
}

func TestParseSeconds(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"10", 600, false},
		{"90s", 90, false},
		{"1m30s", 90, false},
		{"later", 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSeconds(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, workshop.ErrInvalidDuration)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveID(t *testing.T) {
	ids := []string{"abc123", "abd456", "xyz"}

	id, found, err := resolveID("note", "abc", ids)
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "abc123", id)

	_, _, err = resolveID("note", "ab", ids)
	assert.ErrorIs(t, err, workshop.ErrInvalidReference)

	id, found, err = resolveID("note", "qqq", ids)
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, "qqq", id)
}
