package providers

import (
	"cmp"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/c360studio/briefwork/llm"
)

const chatPath = "/chat/completions"

// chatCompletions is the OpenAI chat-completions wire format. OpenAI,
// Ollama, OpenRouter and vLLM all accept it; the providers embedding it
// differ only in their default host.
type chatCompletions struct{}

// chatEndpoint joins path onto baseURL (or fallback when empty). A base that
// already names the completions endpoint is reduced to its root first.
func chatEndpoint(baseURL, fallback, path string) string {
	root := strings.TrimSuffix(cmp.Or(baseURL, fallback), "/")
	root = strings.TrimSuffix(root, chatPath)
	return root + path
}

// SetHeaders adds bearer auth when a key is configured.
func (chatCompletions) SetHeaders(req *http.Request, apiKey string) {
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BuildRequestBody keeps the system prompt as the first message. A nil
// temperature leaves the server default; zero is sent as deterministic.
func (chatCompletions) BuildRequestBody(model string, messages []llm.Message, temperature *float64, maxTokens int) ([]byte, error) {
	req := chatRequest{
		Model:       model,
		Messages:    make([]chatMessage, 0, len(messages)),
		Temperature: temperature,
		MaxTokens:   max(maxTokens, 0),
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, chatMessage{Role: m.Role, Content: m.Content})
	}
	return json.Marshal(req)
}

type chatResponse struct {
	Model   string `json:"model"`
	Choices []struct {
		Message      chatMessage `json:"message"`
		FinishReason string      `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	// Some compatible servers report failures with a 200 and an error body.
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ParseResponse takes the first choice. The requested model is reported
// when the server omits it.
func (chatCompletions) ParseResponse(body []byte, model string) (*llm.Response, error) {
	var resp chatResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse chat completion: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("chat completion failed: %s", resp.Error.Message)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in response")
	}

	choice := resp.Choices[0]
	return &llm.Response{
		Text:         choice.Message.Content,
		Model:        cmp.Or(resp.Model, model),
		TokensUsed:   resp.Usage.TotalTokens,
		FinishReason: choice.FinishReason,
	}, nil
}
