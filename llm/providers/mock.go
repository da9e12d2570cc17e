package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/c360studio/briefwork/llm"
)

// DefaultMockLatency is the simulated response time of the mock adapter.
const DefaultMockLatency = 300 * time.Millisecond

// MockAdapter returns deterministic templated text keyed off prompt content.
// It needs no network and no credentials.
type MockAdapter struct {
	Model   string
	Latency time.Duration
}

// MockLatency is read by the registered factory. Hosts set it from config
// before building clients; tests set it to zero.
var MockLatency = DefaultMockLatency

func init() {
	llm.RegisterAdapter(llm.ProviderMock, func(cfg llm.Config) llm.Adapter {
		model := llm.DefaultModel(llm.ProviderMock)
		if cfg.Provider == llm.ProviderMock && cfg.Model != "" {
			model = cfg.Model
		}
		return &MockAdapter{Model: model, Latency: MockLatency}
	})
}

// Name returns the provider identifier.
func (m *MockAdapter) Name() llm.ProviderName {
	return llm.ProviderMock
}

// TestConnection always succeeds.
func (m *MockAdapter) TestConnection(context.Context) error {
	return nil
}

// Complete waits for the simulated latency and returns a canned answer.
func (m *MockAdapter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	text := Respond(req.Prompt)
	return &llm.Response{
		Text:         text,
		Provider:     llm.ProviderMock,
		Model:        m.Model,
		TokensUsed:   len(strings.Fields(req.SystemPrompt+" "+req.Prompt)) + len(strings.Fields(text)),
		FinishReason: "stop",
	}, nil
}

// Respond builds the mock answer for a prompt. Exported so cmd/mock-llm can
// serve the same answers over HTTP.
func Respond(prompt string) string {
	switch taskOf(prompt) {
	case llm.TaskExtraction:
		return mockExtraction(between(prompt, "<description>", "</description>"))
	case llm.TaskClusters:
		return mockClusterSummary(prompt)
	case llm.TaskDiscovery:
		return "Discovery summary: the audience, offering, timing and success answers " +
			"describe a focused launch. The strongest signal is the stated audience need; " +
			"timing is driven by an external trigger, and success is defined by a small set of measurable outcomes."
	case llm.TaskExercises:
		return "Exercise synthesis: the one-sentence pitch and the story beats agree on a single promise. " +
			"Each promise has a visual proof, and the listed constraints imply a restrained, documentary style."
	case llm.TaskBrief:
		return mockBrief(prompt)
	default:
		return "Mock response: " + firstLine(prompt)
	}
}

func taskOf(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(strings.TrimSpace(line), "Task:"); ok {
			return strings.TrimSpace(rest)
		}
	}
	return ""
}

func mockExtraction(description string) string {
	description = strings.TrimSpace(description)
	name := titleFromText(description)
	out := map[string]any{
		"projectName":        name,
		"projectDescription": description,
		"stakeholders":       "Project sponsor, marketing lead",
		"constraints":        "Budget and brand guidelines to be confirmed",
		"timeline":           "To be confirmed in the workshop",
		"duration":           60,
		"confidence": map[string]float64{
			"projectName":        0.8,
			"projectDescription": 0.9,
			"stakeholders":       0.4,
			"constraints":        0.3,
			"timeline":           0.3,
			"duration":           0.5,
		},
		"granularAnswers": map[string]string{
			"audience-primary": "People described in: " + name,
			"offering-core":    description,
		},
	}
	data, _ := json.MarshalIndent(out, "", "  ")
	return "Here is the extracted project context:\n" + string(data)
}

func mockClusterSummary(prompt string) string {
	title := strings.TrimSpace(between(prompt, "Cluster title:", "\n"))
	if title == "" {
		title = "Untitled cluster"
	}
	notes := 0
	for _, line := range strings.Split(prompt, "\n") {
		if strings.HasPrefix(strings.TrimSpace(line), "- ") {
			notes++
		}
	}
	return fmt.Sprintf("Theme \"%s\": %d notes converge on one idea the audience should remember.", title, notes)
}

func mockBrief(prompt string) string {
	name := strings.TrimSpace(between(prompt, "Project name:", "\n"))
	sections := map[string]string{
		"overview":       "A creative brief for " + name + ".",
		"audience":       "The primary audience identified in discovery.",
		"keyMessage":     "One clear promise, backed by visible proof.",
		"objectives":     "Raise awareness and drive the primary success metric.",
		"deliverables":   "Hero video, social cut-downs, landing page.",
		"toneAndStyle":   "Confident, warm, documentary.",
		"timeline":       "As agreed in the workshop.",
		"successMetrics": "Primary metric plus two supporting indicators.",
	}
	data, _ := json.Marshal(sections)
	return string(data)
}

func titleFromText(s string) string {
	sentence, _, _ := strings.Cut(s, ".")
	words := strings.Fields(sentence)
	if len(words) == 0 {
		return "Untitled Project"
	}
	if len(words) > 5 {
		words = words[:5]
	}
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

// between returns the text after start up to the next end, or "".
func between(s, start, end string) string {
	_, rest, ok := strings.Cut(s, start)
	if !ok {
		return ""
	}
	if inner, _, ok := strings.Cut(rest, end); ok {
		return inner
	}
	return rest
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	if len(line) > 80 {
		line = line[:80] + "..."
	}
	return line
}
