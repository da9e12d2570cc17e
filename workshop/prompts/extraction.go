package prompts

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/workshop"
)

// Extraction duration bounds, in minutes.
const (
	MinExtractedDuration     = 30
	MaxExtractedDuration     = 120
	DefaultExtractedDuration = 60
	DefaultConfidence        = 0.5
)

const extractionSystem = `You are a creative strategist preparing a briefing workshop.

Read the project description and extract the project context. Reply with a single JSON object and nothing else:

` + "```json" + `
{
  "projectName": "Short project name (max 6 words)",
  "projectDescription": "One or two sentences describing the work",
  "stakeholders": "Who approves and who contributes",
  "constraints": "Budget, brand, legal or production limits",
  "timeline": "Key dates if mentioned",
  "duration": 60,
  "confidence": {"projectName": 0.9, "projectDescription": 0.9, "stakeholders": 0.5, "constraints": 0.5, "timeline": 0.5, "duration": 0.5},
  "granularAnswers": {"<question id>": "answer"}
}
` + "```" + `

Rules:
- projectName and projectDescription are required.
- duration is the suggested workshop length in minutes, between 30 and 120.
- confidence values are between 0 and 1; use low values for guesses.
- Only answer granular questions the description actually covers, using the ids listed in the prompt.
- Do not invent facts.`

// Extraction builds the project-context extraction prompt.
func Extraction(description string) Prompt {
	var b strings.Builder
	b.WriteString(taskLine(llm.TaskExtraction))
	b.WriteString("Extract the project context from this description:\n\n")
	b.WriteString("<description>\n")
	b.WriteString(strings.TrimSpace(description))
	b.WriteString("\n</description>\n\n")
	b.WriteString("Granular question ids you may answer:\n")
	for _, q := range workshop.DefaultGranularQuestions() {
		fmt.Fprintf(&b, "- %s: %s\n", q.ID, q.Question)
	}
	return Prompt{Task: llm.TaskExtraction, System: extractionSystem, User: b.String()}
}

// ExtractionResult is the tagged outcome of parsing an extraction reply.
type ExtractionResult struct {
	Success bool                 `json:"success"`
	Data    *workshop.Extraction `json:"data,omitempty"`
	Error   string               `json:"error,omitempty"`
}

func extractionFailure(format string, args ...any) ExtractionResult {
	return ExtractionResult{Error: fmt.Sprintf(format, args...)}
}

// ParseExtraction parses a model reply into project context. It never
// panics and never returns an error: problems are reported in the result.
func ParseExtraction(text string) ExtractionResult {
	jsonText := llm.ExtractJSON(text)
	if jsonText == "" {
		return extractionFailure("no JSON object found in response")
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(jsonText), &raw); err != nil {
		return extractionFailure("invalid JSON in response: %v", err)
	}

	e := &workshop.Extraction{
		ProjectName:        textField(raw["projectName"]),
		ProjectDescription: textField(raw["projectDescription"]),
		Stakeholders:       textField(raw["stakeholders"]),
		Constraints:        textField(raw["constraints"]),
		Timeline:           textField(raw["timeline"]),
		Duration:           parseDuration(raw["duration"]),
		Confidence:         parseConfidence(raw["confidence"]),
		GranularAnswers:    parseGranular(raw["granularAnswers"]),
	}
	if e.ProjectName == "" {
		return extractionFailure("response is missing projectName")
	}
	if e.ProjectDescription == "" {
		return extractionFailure("response is missing projectDescription")
	}
	return ExtractionResult{Success: true, Data: e}
}

// textField accepts a string or a list of strings.
func textField(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		var parts []string
		for _, item := range t {
			if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
				parts = append(parts, strings.TrimSpace(s))
			}
		}
		return strings.Join(parts, ", ")
	}
	return ""
}

func parseDuration(v any) int {
	var minutes float64
	switch t := v.(type) {
	case float64:
		minutes = t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return DefaultExtractedDuration
		}
		minutes = f
	default:
		return DefaultExtractedDuration
	}
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return DefaultExtractedDuration
	}
	// Clamp before converting; huge floats overflow int.
	return int(math.Round(max(MinExtractedDuration, min(minutes, MaxExtractedDuration))))
}

var confidenceFields = []string{
	workshop.FieldProjectName,
	workshop.FieldProjectDescription,
	workshop.FieldStakeholders,
	workshop.FieldConstraints,
	workshop.FieldTimeline,
	workshop.FieldDuration,
}

// parseConfidence returns a value in [0,1] for every project context field.
func parseConfidence(v any) map[string]float64 {
	raw, _ := v.(map[string]any)
	out := make(map[string]float64, len(confidenceFields))
	for _, f := range confidenceFields {
		c, ok := raw[f].(float64)
		if !ok || math.IsNaN(c) {
			c = DefaultConfidence
		}
		out[f] = max(0, min(c, 1))
	}
	return out
}

// parseGranular keeps non-empty answers to known question ids.
func parseGranular(v any) map[string]string {
	raw, _ := v.(map[string]any)
	out := make(map[string]string)
	for id, a := range raw {
		if !workshop.IsGranularQuestion(id) {
			continue
		}
		if s := textField(a); s != "" {
			out[id] = s
		}
	}
	return out
}
