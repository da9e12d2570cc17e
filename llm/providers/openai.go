package providers

import "github.com/c360studio/briefwork/llm"

const openAIBaseURL = "https://api.openai.com/v1"

// OpenAIProvider targets api.openai.com, or OpenRouter with a custom base URL.
type OpenAIProvider struct {
	chatCompletions
}

func init() {
	llm.RegisterProvider(&OpenAIProvider{})
}

// Name returns the provider identifier.
func (o *OpenAIProvider) Name() llm.ProviderName {
	return llm.ProviderOpenAI
}

// BuildURL returns the chat completions endpoint.
func (o *OpenAIProvider) BuildURL(baseURL string) string {
	return chatEndpoint(baseURL, openAIBaseURL, chatPath)
}

// ModelsURL returns the model listing endpoint.
func (o *OpenAIProvider) ModelsURL(baseURL string) string {
	return chatEndpoint(baseURL, openAIBaseURL, "/models")
}
