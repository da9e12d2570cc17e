package llm

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
)

// Adapter executes completion requests against one configured back end.
type Adapter interface {
	// Name returns the provider identifier.
	Name() ProviderName

	// Complete performs a single call. Errors should be *Error where the
	// adapter knows the kind; anything else is classified by the Client.
	Complete(ctx context.Context, req Request) (*Response, error)

	// TestConnection verifies that the credentials and endpoint work.
	TestConnection(ctx context.Context) error
}

// Provider defines the wire format of an HTTP chat-completion back end.
// HTTP providers are wrapped in an HTTPAdapter.
type Provider interface {
	// Name returns the provider identifier (e.g., "anthropic", "ollama").
	Name() ProviderName

	// BuildURL constructs the full completion endpoint URL.
	BuildURL(baseURL string) string

	// ModelsURL constructs the endpoint used to check credentials.
	ModelsURL(baseURL string) string

	// SetHeaders adds provider-specific authentication headers to the request.
	SetHeaders(req *http.Request, apiKey string)

	// BuildRequestBody creates the JSON request body for the provider.
	// temperature is nil to use provider default, or a pointer to explicit value.
	BuildRequestBody(model string, messages []Message, temperature *float64, maxTokens int) ([]byte, error)

	// ParseResponse extracts the response from provider-specific JSON.
	ParseResponse(body []byte, model string) (*Response, error)
}

// AdapterFactory builds an in-process adapter (one that does not speak HTTP).
type AdapterFactory func(cfg Config) Adapter

var (
	providerRegistry = make(map[ProviderName]Provider)
	adapterRegistry  = make(map[ProviderName]AdapterFactory)
	providerMu       sync.RWMutex
)

// RegisterProvider adds an HTTP provider to the registry.
func RegisterProvider(p Provider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerRegistry[p.Name()] = p
}

// RegisterAdapter adds an in-process adapter factory to the registry.
func RegisterAdapter(name ProviderName, f AdapterFactory) {
	providerMu.Lock()
	defer providerMu.Unlock()
	adapterRegistry[name] = f
}

// GetProvider retrieves an HTTP provider by name.
func GetProvider(name ProviderName) Provider {
	providerMu.RLock()
	defer providerMu.RUnlock()
	return providerRegistry[name]
}

// ListProviders returns all registered provider names, sorted.
func ListProviders() []ProviderName {
	providerMu.RLock()
	defer providerMu.RUnlock()

	names := make([]ProviderName, 0, len(providerRegistry)+len(adapterRegistry))
	for name := range providerRegistry {
		names = append(names, name)
	}
	for name := range adapterRegistry {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return names[i] < names[j] })
	return names
}

// NewAdapter selects the adapter for cfg. A config without an API key always
// gets the mock adapter so the rest of the system works offline.
func NewAdapter(cfg Config, httpClient *http.Client) (Adapter, error) {
	name := cfg.Provider
	if cfg.APIKey == "" {
		name = ProviderMock
	}

	providerMu.RLock()
	factory, isInProcess := adapterRegistry[name]
	provider, isHTTP := providerRegistry[name]
	providerMu.RUnlock()

	switch {
	case isInProcess:
		return factory(cfg), nil
	case isHTTP:
		return NewHTTPAdapter(provider, cfg, httpClient), nil
	default:
		return nil, fmt.Errorf("provider %q is not registered (missing import of llm/providers?)", name)
	}
}
