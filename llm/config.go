package llm

import (
	"fmt"
	"log/slog"
)

// ProviderName identifies a supported LLM back end.
type ProviderName string

// Supported providers.
const (
	ProviderOpenAI    ProviderName = "openai"
	ProviderAnthropic ProviderName = "anthropic"
	ProviderOllama    ProviderName = "ollama"
	ProviderMock      ProviderName = "mock"
)

// defaultModels maps each provider to the model used when none is configured.
var defaultModels = map[ProviderName]string{
	ProviderOpenAI:    "gpt-4o-mini",
	ProviderAnthropic: "claude-3-5-haiku-latest",
	ProviderOllama:    "llama3.1",
	ProviderMock:      "mock-model",
}

// Providers returns the supported provider names in display order.
func Providers() []ProviderName {
	return []ProviderName{ProviderOpenAI, ProviderAnthropic, ProviderOllama, ProviderMock}
}

// ParseProvider validates a provider name.
func ParseProvider(s string) (ProviderName, error) {
	p := ProviderName(s)
	if _, ok := defaultModels[p]; !ok {
		return "", fmt.Errorf("unknown provider %q", s)
	}
	return p, nil
}

// DefaultModel returns the default model for a provider, or "" if unknown.
func DefaultModel(p ProviderName) string {
	return defaultModels[p]
}

// Config selects the provider, credentials and model for a client.
// It is stored verbatim in the session state, so the JSON names are part of
// the persisted format.
type Config struct {
	Provider ProviderName `json:"provider"`
	APIKey   string       `json:"apiKey"`
	Model    string       `json:"model"`

	// BaseURL overrides the provider endpoint (OpenRouter, a local Ollama, the
	// mock-llm server). Empty uses the provider default.
	BaseURL string `json:"baseUrl,omitempty"`
}

// ResolvedModel returns Model, or the provider default when Model is empty.
func (c Config) ResolvedModel() string {
	if c.Model != "" {
		return c.Model
	}
	return DefaultModel(c.Provider)
}

// LogValue keeps API keys out of logs.
func (c Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("provider", string(c.Provider)),
		slog.String("model", c.ResolvedModel()),
		slog.String("api_key", MaskSecret(c.APIKey)),
	)
}

// MaskSecret hides all but the last four characters of a secret.
func MaskSecret(value string) string {
	if value == "" {
		return ""
	}
	if len(value) <= 4 {
		return "****"
	}
	return "****" + value[len(value)-4:]
}
