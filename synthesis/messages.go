package synthesis

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/workshop"
)

// Message is an error rendered for a workshop facilitator.
type Message struct {
	Title       string   `json:"title"`
	Explanation string   `json:"explanation"`
	Suggestions []string `json:"suggestions,omitempty"`
	Retryable   bool     `json:"retryable"`
}

// String renders the message as plain text.
func (m Message) String() string {
	var b strings.Builder
	b.WriteString(m.Title)
	if m.Explanation != "" {
		b.WriteString(": ")
		b.WriteString(m.Explanation)
	}
	for _, s := range m.Suggestions {
		b.WriteString("\n  - ")
		b.WriteString(s)
	}
	return b.String()
}

// UserMessage maps an error from the LLM client, the parsers or the session
// controller to an actionable message. A nil error yields the zero Message.
func UserMessage(err error) Message {
	if err == nil {
		return Message{}
	}

	switch {
	case errors.Is(err, context.Canceled):
		return Message{
			Title:       "Request cancelled",
			Explanation: "The request was stopped before the model answered.",
			Retryable:   true,
		}
	case errors.Is(err, context.DeadlineExceeded):
		return Message{
			Title:       "Request timed out",
			Explanation: "The model did not answer in time.",
			Suggestions: []string{
				"Try again in a moment",
				"Raise llm.timeout in the configuration",
			},
			Retryable: true,
		}
	case errors.Is(err, ErrUnparseable):
		return Message{
			Title:       "Unreadable answer",
			Explanation: "The model answered, but not in the expected format.",
			Suggestions: []string{
				"Try again; answers vary between calls",
				"Give a longer, more specific project description",
				"Switch to a more capable model",
			},
			Retryable: true,
		}
	case errors.Is(err, workshop.ErrInvalidProvider):
		return Message{
			Title:       "Unknown provider",
			Explanation: err.Error(),
			Suggestions: []string{"Use one of: " + providerList()},
		}
	case errors.Is(err, ErrNoSession):
		return Message{
			Title:       "No session loaded",
			Explanation: "This step needs an active workshop session.",
			Suggestions: []string{"Create one with: briefwork session new"},
		}
	}

	var llmErr *llm.Error
	if !errors.As(err, &llmErr) {
		return Message{
			Title:       "Something went wrong",
			Explanation: err.Error(),
		}
	}

	provider := string(llmErr.Provider)
	if provider == "" {
		provider = "the provider"
	}

	switch llmErr.Kind {
	case llm.KindAuth:
		return Message{
			Title:       "API key rejected",
			Explanation: fmt.Sprintf("%s refused the credentials.", provider),
			Suggestions: []string{
				"Check the API key with: briefwork llm test",
				"Set a new key with: briefwork llm config --api-key <key>",
				"Clear the key to use the offline mock provider",
			},
		}
	case llm.KindRateLimit:
		return Message{
			Title:       "Rate limited",
			Explanation: fmt.Sprintf("%s is throttling requests (%s).", provider, attemptsText(llmErr.Attempts)),
			Suggestions: []string{
				"Wait a minute and try again",
				"Check the account's usage quota",
			},
			Retryable: true,
		}
	case llm.KindNetwork:
		return Message{
			Title:       "Provider unreachable",
			Explanation: fmt.Sprintf("Could not reach %s (%s).", provider, attemptsText(llmErr.Attempts)),
			Suggestions: []string{
				"Check the network connection",
				"Check llm.baseURL if a custom endpoint is configured",
				"For ollama, make sure the server is running",
			},
			Retryable: true,
		}
	default:
		return Message{
			Title:       "Model request failed",
			Explanation: err.Error(),
			Suggestions: []string{"Try again in a moment"},
			Retryable:   true,
		}
	}
}

func attemptsText(n int) string {
	if n == 1 {
		return "1 attempt"
	}
	return fmt.Sprintf("%d attempts", n)
}

func providerList() string {
	names := make([]string, 0, len(llm.Providers()))
	for _, p := range llm.Providers() {
		names = append(names, string(p))
	}
	return strings.Join(names, ", ")
}
