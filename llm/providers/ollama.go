package providers

import "github.com/c360studio/briefwork/llm"

const ollamaBaseURL = "http://localhost:11434/v1"

// OllamaProvider talks to a local Ollama (or any OpenAI-compatible server
// such as vLLM) through its /v1 compatibility layer.
type OllamaProvider struct {
	chatCompletions
}

func init() {
	llm.RegisterProvider(&OllamaProvider{})
}

// Name returns the provider identifier.
func (o *OllamaProvider) Name() llm.ProviderName {
	return llm.ProviderOllama
}

// BuildURL returns the chat completions endpoint.
func (o *OllamaProvider) BuildURL(baseURL string) string {
	return chatEndpoint(baseURL, ollamaBaseURL, chatPath)
}

// ModelsURL returns the model listing endpoint.
func (o *OllamaProvider) ModelsURL(baseURL string) string {
	return chatEndpoint(baseURL, ollamaBaseURL, "/models")
}
