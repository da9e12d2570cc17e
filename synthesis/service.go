// Package synthesis runs the model-backed steps of a workshop: extracting a
// project context from a free-text description, summarizing clusters and
// exercises, and drafting the final brief. Results are written back through
// the workshop controller.
package synthesis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/workshop"
	"github.com/c360studio/briefwork/workshop/prompts"
)

// ErrUnparseable is returned when the model answered but the answer could not
// be parsed into the expected shape.
var ErrUnparseable = errors.New("could not parse model response")

// ErrNoSession is returned by session operations on a Service built without a
// controller.
var ErrNoSession = errors.New("no session controller")

// Default token limits per request family.
const (
	DefaultMaxTokens      = 1024
	DefaultBriefMaxTokens = 2048
)

// Completer is the subset of the LLM client used by the service.
type Completer interface {
	Complete(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Service ties a session controller to an LLM client.
type Service struct {
	ctrl   *workshop.Controller
	llm    Completer
	logger *slog.Logger

	maxTokens      int
	briefMaxTokens int
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) {
		s.logger = l
	}
}

// WithMaxTokens sets the token limit for extraction and synthesis requests.
func WithMaxTokens(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxTokens = n
		}
	}
}

// NewService creates a service. ctrl may be nil when only
// GenerateFromPrompt is needed.
func NewService(ctrl *workshop.Controller, client Completer, opts ...Option) *Service {
	s := &Service{
		ctrl:           ctrl,
		llm:            client,
		logger:         slog.Default(),
		maxTokens:      DefaultMaxTokens,
		briefMaxTokens: DefaultBriefMaxTokens,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ExtractProjectContext asks the model to extract a project context from
// description. A successful parse is applied to the session. The call is
// recorded in aiPromptState whenever the model answered. Transport errors are
// returned as errors; parse failures are reported in the result.
func (s *Service) ExtractProjectContext(ctx context.Context, description string) (prompts.ExtractionResult, error) {
	if s.ctrl == nil {
		return prompts.ExtractionResult{}, ErrNoSession
	}

	resp, err := s.complete(ctx, prompts.Extraction(description), s.maxTokens)
	if err != nil {
		return prompts.ExtractionResult{}, err
	}

	if err := s.ctrl.RecordPrompt(workshop.AIPromptState{
		OriginalPrompt: description,
		ModelUsed:      resp.Model,
		ProcessingTime: resp.Duration.Milliseconds(),
	}); err != nil {
		return prompts.ExtractionResult{}, err
	}

	result := prompts.ParseExtraction(resp.Text)
	if !result.Success {
		s.logger.Warn("Extraction response could not be parsed",
			"model", resp.Model,
			"error", result.Error)
		return result, nil
	}

	if err := s.ctrl.ApplyExtraction(*result.Data); err != nil {
		return result, fmt.Errorf("apply extraction: %w", err)
	}
	return result, nil
}

// Generated is the session-free extraction answer served by the backend.
type Generated struct {
	ProjectName        string            `json:"projectName"`
	ProjectDescription string            `json:"projectDescription"`
	GranularAnswers    map[string]string `json:"granularAnswers"`
}

// GenerateFromPrompt extracts a project context without touching a session.
func (s *Service) GenerateFromPrompt(ctx context.Context, description string) (*Generated, error) {
	return GenerateFromPrompt(ctx, s.llm, description)
}

// GenerateFromPrompt extracts a project context with client. A reply that
// does not parse yields an error wrapping ErrUnparseable.
func GenerateFromPrompt(ctx context.Context, client Completer, description string) (*Generated, error) {
	resp, err := client.Complete(ctx, prompts.Extraction(description).Request(DefaultMaxTokens))
	if err != nil {
		return nil, err
	}

	result := prompts.ParseExtraction(resp.Text)
	if !result.Success {
		return nil, fmt.Errorf("%w: %s", ErrUnparseable, result.Error)
	}

	answers := result.Data.GranularAnswers
	if answers == nil {
		answers = map[string]string{}
	}
	return &Generated{
		ProjectName:        result.Data.ProjectName,
		ProjectDescription: result.Data.ProjectDescription,
		GranularAnswers:    answers,
	}, nil
}

// ClusterReport is the outcome of synthesizing one cluster.
type ClusterReport struct {
	ClusterID string
	Title     string
	Summary   string
	Skipped   bool
	Err       error
}

// ErrorMarker is the summary stored on a cluster whose synthesis failed.
func ErrorMarker(err error) string {
	return "[Synthesis failed: " + UserMessage(err).Title + "]"
}

// SynthesizeClusters summarizes every cluster that has notes, one at a time.
// A failing cluster gets ErrorMarker as its summary and the loop moves on.
// The returned error is non-nil only when ctx ends; the reports gathered so
// far are returned with it.
func (s *Service) SynthesizeClusters(ctx context.Context) ([]ClusterReport, error) {
	if s.ctrl == nil {
		return nil, ErrNoSession
	}

	state := s.ctrl.Snapshot()
	exercise := state.StickyNoteExercise
	reports := make([]ClusterReport, 0, len(exercise.Clusters))

	for _, cluster := range exercise.Clusters {
		if err := ctx.Err(); err != nil {
			return reports, err
		}

		report := ClusterReport{ClusterID: cluster.ID, Title: cluster.Title}
		notes := state.ClusterNotes(cluster.ID)
		if len(notes) == 0 {
			report.Skipped = true
			reports = append(reports, report)
			continue
		}

		resp, err := s.complete(ctx, prompts.ClusterSynthesis(exercise.FocusPrompt, cluster, notes), s.maxTokens)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return reports, ctxErr
			}
			s.logger.Warn("Cluster synthesis failed",
				"cluster_id", cluster.ID,
				"error", err)
			report.Err = err
			report.Summary = ErrorMarker(err)
		} else {
			report.Summary = prompts.ParseSynthesis(resp.Text)
		}

		// The cluster may have been deleted while the model was working.
		if err := s.ctrl.SetClusterSummary(cluster.ID, report.Summary); err != nil && report.Err == nil {
			report.Err = err
		}
		reports = append(reports, report)
	}
	return reports, nil
}

// SynthesizeDiscovery summarizes the discovery answers into the brief's
// discovery summary.
func (s *Service) SynthesizeDiscovery(ctx context.Context) (string, error) {
	if s.ctrl == nil {
		return "", ErrNoSession
	}

	state := s.ctrl.Snapshot()
	resp, err := s.complete(ctx, prompts.DiscoverySynthesis(state.ProjectContext, state.CustomerDiscovery), s.maxTokens)
	if err != nil {
		return "", err
	}
	text := prompts.ParseSynthesis(resp.Text)
	return text, s.ctrl.SetDiscoverySummary(text)
}

// SynthesizeExercises synthesizes the spot exercises into aiSynthesis.
func (s *Service) SynthesizeExercises(ctx context.Context) (string, error) {
	if s.ctrl == nil {
		return "", ErrNoSession
	}

	state := s.ctrl.Snapshot()
	resp, err := s.complete(ctx, prompts.ExerciseSynthesis(state.SpotExercises), s.maxTokens)
	if err != nil {
		return "", err
	}
	text := prompts.ParseSynthesis(resp.Text)
	return text, s.ctrl.SetAISynthesis(text)
}

// GenerateBrief drafts the creative brief and stores its sections.
func (s *Service) GenerateBrief(ctx context.Context) (prompts.BriefResult, error) {
	if s.ctrl == nil {
		return prompts.BriefResult{}, ErrNoSession
	}

	state := s.ctrl.Snapshot()
	resp, err := s.complete(ctx, prompts.Brief(&state), s.briefMaxTokens)
	if err != nil {
		return prompts.BriefResult{}, err
	}

	result := prompts.ParseBrief(resp.Text)
	if !result.Success {
		s.logger.Warn("Brief response could not be parsed",
			"model", resp.Model,
			"error", result.Error)
		return result, nil
	}
	return result, s.ctrl.SetCreativeBrief(*result.Sections)
}

func (s *Service) complete(ctx context.Context, p prompts.Prompt, maxTokens int) (*llm.Response, error) {
	startedAt := time.Now()
	resp, err := s.llm.Complete(ctx, p.Request(maxTokens))
	if err != nil {
		return nil, err
	}
	if resp.Duration == 0 {
		resp.Duration = time.Since(startedAt)
	}

	s.logger.Debug("LLM response received",
		"task", p.Task,
		"model", resp.Model,
		"tokens_used", resp.TokensUsed,
		"attempts", resp.Attempts)
	return resp, nil
}
