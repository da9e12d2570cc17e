// Package prompts builds the model prompts for the workshop and parses the
// answers back into state fields. Every builder is deterministic: the same
// state always produces the same prompt text.
package prompts

import (
	"fmt"
	"strings"

	"github.com/c360studio/briefwork/llm"
)

// Prompt is a system prompt and user prompt pair.
type Prompt struct {
	Task   string
	System string
	User   string
}

// Request converts the prompt into an LLM request.
func (p Prompt) Request(maxTokens int) llm.Request {
	return llm.Request{
		SystemPrompt: p.System,
		Prompt:       p.User,
		MaxTokens:    maxTokens,
	}
}

func taskLine(task string) string {
	return "Task: " + task + "\n\n"
}

// orDash renders empty answers visibly so the model knows they are missing.
func orDash(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return "-"
	}
	return s
}

func writeField(b *strings.Builder, label, value string) {
	fmt.Fprintf(b, "%s: %s\n", label, orDash(value))
}
