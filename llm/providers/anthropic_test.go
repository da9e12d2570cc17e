package providers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/briefwork/llm"
)

func TestAnthropicProvider_Endpoints(t *testing.T) {
	p := &AnthropicProvider{}

	tests := []struct {
		baseURL  string
		messages string
		models   string
	}{
		{"", "https://api.anthropic.com/v1/messages", "https://api.anthropic.com/v1/models"},
		{"https://proxy.internal", "https://proxy.internal/v1/messages", "https://proxy.internal/v1/models"},
		{"https://api.anthropic.com/", "https://api.anthropic.com/v1/messages", "https://api.anthropic.com/v1/models"},
	}
	for _, tt := range tests {
		t.Run(tt.baseURL, func(t *testing.T) {
			assert.Equal(t, tt.messages, p.BuildURL(tt.baseURL))
			assert.Equal(t, tt.models, p.ModelsURL(tt.baseURL))
		})
	}
}

func TestAnthropicProvider_BuildRequestBody(t *testing.T) {
	p := &AnthropicProvider{}
	temp := 0.5
	body, err := p.BuildRequestBody("claude-3-5-haiku-latest", []llm.Message{
		{Role: "system", Content: "You are a brand strategist."},
		{Role: "system", Content: "Answer in JSON."},
		{Role: "user", Content: "Summarize the cluster"},
		{Role: "assistant", Content: "{}"},
		{Role: "user", Content: "Again, with the quotes"},
	}, &temp, 1024)
	require.NoError(t, err)

	assert.JSONEq(t, `{
		"model": "claude-3-5-haiku-latest",
		"max_tokens": 1024,
		"system": "You are a brand strategist.\n\nAnswer in JSON.",
		"messages": [
			{"role": "user", "content": "Summarize the cluster"},
			{"role": "assistant", "content": "{}"},
			{"role": "user", "content": "Again, with the quotes"}
		],
		"temperature": 0.5
	}`, string(body))
}

func TestAnthropicProvider_BuildRequestBody_Defaults(t *testing.T) {
	p := &AnthropicProvider{}

	body, err := p.BuildRequestBody("claude", []llm.Message{{Role: "user", Content: "hi"}}, nil, 0)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"max_tokens":4096`)
	assert.NotContains(t, string(body), `"temperature"`)
	assert.NotContains(t, string(body), `"system"`)

	zero := 0.0
	body, err = p.BuildRequestBody("claude", []llm.Message{{Role: "user", Content: "hi"}}, &zero, 0)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"temperature":0`)
}

func TestAnthropicProvider_ParseResponse(t *testing.T) {
	p := &AnthropicProvider{}

	resp, err := p.ParseResponse([]byte(`{
		"type": "message",
		"content": [
			{"type": "text", "text": "Tagline: "},
			{"type": "thinking", "text": "ignored"},
			{"type": "text", "text": "Run muddy."}
		],
		"model": "claude-3-5-haiku-20241022",
		"stop_reason": "end_turn",
		"usage": {"input_tokens": 15, "output_tokens": 8}
	}`), "claude-3-5-haiku-latest")
	require.NoError(t, err)

	assert.Equal(t, "Tagline: Run muddy.", resp.Text)
	assert.Equal(t, "claude-3-5-haiku-20241022", resp.Model)
	assert.Equal(t, 23, resp.TokensUsed)
	assert.Equal(t, "end_turn", resp.FinishReason)
}

func TestAnthropicProvider_ParseResponse_Errors(t *testing.T) {
	p := &AnthropicProvider{}

	_, err := p.ParseResponse([]byte(`{"type":"error","error":{"type":"overloaded_error","message":"Overloaded"}}`), "claude")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "overloaded_error")

	_, err = p.ParseResponse([]byte(`not json`), "claude")
	require.Error(t, err)

	resp, err := p.ParseResponse([]byte(`{"content":[{"type":"text","text":"ok"}]}`), "claude")
	require.NoError(t, err)
	assert.Equal(t, "claude", resp.Model)
}

func TestAnthropicProvider_SetHeaders(t *testing.T) {
	p := &AnthropicProvider{}

	req := httptest.NewRequest(http.MethodPost, p.BuildURL(""), nil)
	p.SetHeaders(req, "sk-ant-test")
	assert.Equal(t, "sk-ant-test", req.Header.Get("x-api-key"))
	assert.Equal(t, anthropicVersion, req.Header.Get("anthropic-version"))
	assert.Empty(t, req.Header.Get("Authorization"))

	bare := httptest.NewRequest(http.MethodPost, p.BuildURL(""), nil)
	p.SetHeaders(bare, "")
	assert.Empty(t, bare.Header.Get("x-api-key"))
}

func TestAnthropicProvider_ThroughHTTPAdapter(t *testing.T) {
	var gotBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"brief"}],"model":"claude-3-5-haiku-latest","stop_reason":"end_turn","usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	defer server.Close()

	adapter := llm.NewHTTPAdapter(&AnthropicProvider{}, llm.Config{
		Provider: llm.ProviderAnthropic,
		APIKey:   "key",
		BaseURL:  server.URL,
	}, nil)

	resp, err := adapter.Complete(context.Background(), llm.Request{SystemPrompt: "Be brief.", Prompt: "Write"})
	require.NoError(t, err)
	assert.Equal(t, "brief", resp.Text)
	assert.Equal(t, llm.ProviderAnthropic, resp.Provider)
	assert.Equal(t, 4, resp.TokensUsed)

	assert.Equal(t, "Be brief.", gotBody["system"])
	assert.Equal(t, "claude-3-5-haiku-latest", gotBody["model"])
}
