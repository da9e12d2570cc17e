// Package providers implements LLM provider adapters. Importing it registers
// the OpenAI, Anthropic, Ollama and mock back ends with the llm package.
package providers

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/c360studio/briefwork/llm"
)

const (
	anthropicBaseURL = "https://api.anthropic.com"
	anthropicVersion = "2023-06-01"

	// anthropicMaxTokens is sent when the caller sets no limit; the API
	// requires one.
	anthropicMaxTokens = 4096
)

// AnthropicProvider implements the Anthropic Messages API.
type AnthropicProvider struct{}

func init() {
	llm.RegisterProvider(&AnthropicProvider{})
}

// Name returns the provider identifier.
func (a *AnthropicProvider) Name() llm.ProviderName {
	return llm.ProviderAnthropic
}

func (a *AnthropicProvider) root(baseURL string) string {
	return strings.TrimSuffix(cmp.Or(baseURL, anthropicBaseURL), "/")
}

// BuildURL returns the messages endpoint.
func (a *AnthropicProvider) BuildURL(baseURL string) string {
	return a.root(baseURL) + "/v1/messages"
}

// ModelsURL returns the model listing endpoint.
func (a *AnthropicProvider) ModelsURL(baseURL string) string {
	return a.root(baseURL) + "/v1/models"
}

// SetHeaders sets the API key and version headers.
func (a *AnthropicProvider) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("x-api-key", apiKey)
	}
	req.Header.Set("anthropic-version", anthropicVersion)
}

type messagesRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	System      string        `json:"system,omitempty"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
}

// BuildRequestBody moves system messages into the top-level system field,
// joined by blank lines when there are several.
func (a *AnthropicProvider) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	req := messagesRequest{
		Model:       model,
		MaxTokens:   maxTokens,
		Temperature: temperature,
	}
	if req.MaxTokens <= 0 {
		req.MaxTokens = anthropicMaxTokens
	}

	var system []string
	for _, m := range messages {
		if m.Role == "system" {
			system = append(system, m.Content)
			continue
		}
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	req.System = strings.Join(system, "\n\n")

	return json.Marshal(req)
}

type messagesResponse struct {
	Type    string `json:"type"`
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Usage      struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponse concatenates the text blocks. Non-text blocks are ignored.
func (a *AnthropicProvider) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp messagesResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse anthropic response: %w", err)
	}
	if resp.Type == "error" && resp.Error != nil {
		return nil, fmt.Errorf("anthropic %s: %s", resp.Error.Type, resp.Error.Message)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	return &llm.Response{
		Text:         text.String(),
		Model:        cmp.Or(resp.Model, model),
		TokensUsed:   resp.Usage.InputTokens + resp.Usage.OutputTokens,
		FinishReason: resp.StopReason,
	}, nil
}
