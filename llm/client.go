// Package llm provides a provider-agnostic LLM client with retry support.
// The adapter is chosen once, when the client is built; a client never
// switches providers afterwards.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Message represents a chat message.
type Message struct {
	Role    string `json:"role"`    // "system", "user", or "assistant"
	Content string `json:"content"` // Message content
}

// Request defines an LLM completion request.
type Request struct {
	// Prompt is the user message.
	Prompt string

	// SystemPrompt is optional instruction text sent ahead of the prompt.
	SystemPrompt string

	// MaxTokens limits response length. 0 uses the provider default.
	MaxTokens int

	// Temperature controls randomness. nil uses endpoint default, 0 is deterministic.
	Temperature *float64
}

// Messages renders the request as a chat history.
func (r Request) Messages() []Message {
	msgs := make([]Message, 0, 2)
	if r.SystemPrompt != "" {
		msgs = append(msgs, Message{Role: "system", Content: r.SystemPrompt})
	}
	return append(msgs, Message{Role: "user", Content: r.Prompt})
}

// Response contains the normalized completion result.
type Response struct {
	// Text is the generated text.
	Text string

	// Provider is the back end that produced the text.
	Provider ProviderName

	// Model is the actual model that was used.
	Model string

	// TokensUsed is the total tokens consumed, if the provider reports it.
	TokensUsed int

	// FinishReason indicates why generation stopped.
	FinishReason string

	// Attempts and Duration are filled in by the Client.
	Attempts int
	Duration time.Duration
}

// Client is a provider-agnostic LLM client with retry logic.
type Client struct {
	adapter     Adapter
	retryConfig RetryConfig
	httpClient  *http.Client
	logger      *slog.Logger
	metrics     *Metrics
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client for HTTP adapters.
func WithHTTPClient(c *http.Client) ClientOption {
	return func(client *Client) {
		client.httpClient = c
	}
}

// WithRetryConfig sets the retry configuration.
func WithRetryConfig(cfg RetryConfig) ClientOption {
	return func(client *Client) {
		client.retryConfig = cfg
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(client *Client) {
		client.logger = logger
	}
}

// WithMetrics records call outcomes on m.
func WithMetrics(m *Metrics) ClientOption {
	return func(client *Client) {
		client.metrics = m
	}
}

// WithAdapter bypasses adapter selection. Used by tests and by hosts that
// build their own adapter.
func WithAdapter(a Adapter) ClientOption {
	return func(client *Client) {
		client.adapter = a
	}
}

// NewClient creates a client for cfg. With no API key the mock adapter is used.
func NewClient(cfg Config, opts ...ClientOption) (*Client, error) {
	c := &Client{
		retryConfig: DefaultRetryConfig(),
		logger:      slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.adapter == nil {
		adapter, err := NewAdapter(cfg, c.httpClient)
		if err != nil {
			return nil, err
		}
		c.adapter = adapter
	}
	if c.retryConfig.MaxAttempts < 1 {
		c.retryConfig.MaxAttempts = 1
	}

	c.logger.Debug("LLM client ready", "provider", c.adapter.Name(), "config", cfg)
	return c, nil
}

// Provider returns the name of the adapter in use.
func (c *Client) Provider() ProviderName {
	return c.adapter.Name()
}

// TestConnection checks the configured provider without retrying.
func (c *Client) TestConnection(ctx context.Context) error {
	if err := c.adapter.TestConnection(ctx); err != nil {
		return c.classify(err)
	}
	return nil
}

// Complete sends a completion request, retrying retryable failures with
// exponential backoff. The returned error is the last classified *Error, or
// the context error if ctx ended first.
func (c *Client) Complete(ctx context.Context, req Request) (*Response, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	startedAt := time.Now()
	provider := c.adapter.Name()
	var lastErr *Error

	for attempt := 1; attempt <= c.retryConfig.MaxAttempts; attempt++ {
		resp, err := c.adapter.Complete(ctx, req)
		if err == nil {
			resp.Attempts = attempt
			resp.Duration = time.Since(startedAt)
			if resp.Provider == "" {
				resp.Provider = provider
			}
			c.metrics.observe(provider, "success", resp.Duration)
			return resp, nil
		}

		if ctxErr := ctx.Err(); ctxErr != nil {
			c.metrics.observe(provider, "canceled", time.Since(startedAt))
			return nil, ctxErr
		}

		lastErr = c.classify(err)
		lastErr.Attempts = attempt

		// Don't retry fatal errors
		if !lastErr.Kind.Retryable() {
			c.logger.Warn("LLM call failed with non-retryable error",
				"provider", provider,
				"kind", lastErr.Kind,
				"error", err)
			break
		}

		if attempt < c.retryConfig.MaxAttempts {
			backoff := c.retryConfig.Backoff(attempt)
			c.metrics.retried(provider, lastErr.Kind)
			c.logger.Debug("LLM call failed, retrying",
				"attempt", attempt,
				"max_attempts", c.retryConfig.MaxAttempts,
				"backoff", backoff,
				"kind", lastErr.Kind,
				"error", err)

			select {
			case <-ctx.Done():
				c.metrics.observe(provider, "canceled", time.Since(startedAt))
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}
	}

	c.metrics.observe(provider, string(lastErr.Kind), time.Since(startedAt))
	return nil, lastErr
}

// classify converts any adapter error into a *Error tagged with the provider.
func (c *Client) classify(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		if e.Provider == "" {
			e.Provider = c.adapter.Name()
		}
		return e
	}
	return &Error{Kind: Classify(err), Provider: c.adapter.Name(), err: err}
}
