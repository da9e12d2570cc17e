package llm_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/briefwork/llm"
	"github.com/c360studio/briefwork/llm/providers"
	"github.com/c360studio/briefwork/llm/testutil"
)

func fastRetry(attempts int) llm.RetryConfig {
	return llm.RetryConfig{
		MaxAttempts:       attempts,
		BackoffBase:       time.Millisecond,
		BackoffMultiplier: 2.0,
	}
}

const okBody = `{"model":"gpt-4o-mini","choices":[{"message":{"role":"assistant","content":"hello"},"finish_reason":"stop"}],"usage":{"total_tokens":7}}`

// statusSequence serves the given statuses in order, then 200 with okBody.
func statusSequence(t *testing.T, statuses ...int) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(calls.Add(1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			_, _ = w.Write([]byte(`{"error":{"message":"simulated"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(okBody))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func openAIConfig(baseURL string) llm.Config {
	return llm.Config{Provider: llm.ProviderOpenAI, APIKey: "sk-test-1234", BaseURL: baseURL}
}

func TestClient_RateLimitedTwiceThenSucceeds(t *testing.T) {
	server, calls := statusSequence(t, http.StatusTooManyRequests, http.StatusTooManyRequests)

	client, err := llm.NewClient(openAIConfig(server.URL), llm.WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "hello", resp.Text)
	assert.Equal(t, 3, resp.Attempts)
	assert.Equal(t, llm.ProviderOpenAI, resp.Provider)
	assert.Equal(t, 7, resp.TokensUsed)
	assert.EqualValues(t, 3, calls.Load())
}

func TestClient_AuthFailureIsNotRetried(t *testing.T) {
	server, calls := statusSequence(t, http.StatusUnauthorized, http.StatusUnauthorized, http.StatusUnauthorized)

	client, err := llm.NewClient(openAIConfig(server.URL), llm.WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.Error(t, err)

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.KindAuth, llmErr.Kind)
	assert.Equal(t, 1, llmErr.Attempts)
	assert.Equal(t, http.StatusUnauthorized, llmErr.StatusCode)
	assert.True(t, llm.IsFatal(err))
	assert.EqualValues(t, 1, calls.Load())
}

func TestClient_ExhaustsAttempts(t *testing.T) {
	server, calls := statusSequence(t,
		http.StatusServiceUnavailable, http.StatusServiceUnavailable, http.StatusServiceUnavailable)

	client, err := llm.NewClient(openAIConfig(server.URL), llm.WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.Error(t, err)

	var llmErr *llm.Error
	require.True(t, errors.As(err, &llmErr))
	assert.Equal(t, llm.KindNetwork, llmErr.Kind)
	assert.Equal(t, 3, llmErr.Attempts)
	assert.EqualValues(t, 3, calls.Load())
}

// bodySequence answers 200 with the given bodies in order, repeating the last.
func bodySequence(t *testing.T, bodies ...string) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := min(int(calls.Add(1)), len(bodies))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(bodies[n-1]))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func TestClient_ErrorEnvelopeInSuccessBody(t *testing.T) {
	tests := []struct {
		name      string
		provider  llm.ProviderName
		body      string
		wantKind  llm.ErrorKind
		wantCalls int32
	}{
		{"ollama auth", llm.ProviderOllama, `{"error":{"message":"Invalid API key provided"}}`, llm.KindAuth, 1},
		{"openai rate limit", llm.ProviderOpenAI, `{"error":{"message":"Rate limit reached for requests"}}`, llm.KindRateLimit, 3},
		{"anthropic auth", llm.ProviderAnthropic, `{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`, llm.KindAuth, 1},
		{"malformed json", llm.ProviderOpenAI, `{"choices": [`, llm.KindUnknown, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := bodySequence(t, tt.body)

			cfg := llm.Config{Provider: tt.provider, APIKey: "sk-test-1234", BaseURL: server.URL}
			client, err := llm.NewClient(cfg, llm.WithRetryConfig(fastRetry(3)))
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), llm.Request{Prompt: "hi"})
			require.Error(t, err)

			var llmErr *llm.Error
			require.True(t, errors.As(err, &llmErr))
			assert.Equal(t, tt.wantKind, llmErr.Kind)
			assert.EqualValues(t, tt.wantCalls, calls.Load())
		})
	}
}

func TestClient_ClassifiesAdapterMessages(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantKind  llm.ErrorKind
		wantCalls int
	}{
		{"rate limit text", errors.New("Rate limit reached for requests"), llm.KindRateLimit, 3},
		{"invalid key text", errors.New("Incorrect API key provided"), llm.KindAuth, 1},
		{"connection refused", errors.New("dial tcp: connection refused"), llm.KindNetwork, 3},
		{"anything else", errors.New("model overloaded, try later"), llm.KindUnknown, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock := &testutil.MockAdapter{Err: tt.err}
			client, err := llm.NewClient(llm.Config{}, llm.WithAdapter(mock), llm.WithRetryConfig(fastRetry(3)))
			require.NoError(t, err)

			_, err = client.Complete(context.Background(), llm.Request{Prompt: "hi"})
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, llm.KindOf(err))
			assert.Equal(t, tt.wantCalls, mock.GetCallCount())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestClient_SucceedsAfterTransientAdapterError(t *testing.T) {
	mock := &testutil.MockAdapter{
		Errs:      []error{errors.New("ECONNRESET")},
		Responses: []*llm.Response{{Text: "ok"}},
	}
	client, err := llm.NewClient(llm.Config{}, llm.WithAdapter(mock), llm.WithRetryConfig(fastRetry(3)))
	require.NoError(t, err)

	resp, err := client.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, 2, resp.Attempts)
	assert.Equal(t, llm.ProviderMock, resp.Provider)
}

func TestClient_ContextCanceledDuringBackoff(t *testing.T) {
	mock := &testutil.MockAdapter{Err: errors.New("429 too many requests")}
	client, err := llm.NewClient(llm.Config{}, llm.WithAdapter(mock), llm.WithRetryConfig(llm.RetryConfig{
		MaxAttempts:       3,
		BackoffBase:       time.Minute,
		BackoffMultiplier: 2.0,
	}))
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err = client.Complete(ctx, llm.Request{Prompt: "hi"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.Equal(t, 1, mock.GetCallCount())
}

func TestClient_EmptyPrompt(t *testing.T) {
	mock := &testutil.MockAdapter{}
	client, err := llm.NewClient(llm.Config{}, llm.WithAdapter(mock))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), llm.Request{})
	assert.Error(t, err)
	assert.Equal(t, 0, mock.GetCallCount())
}

func TestNewClient_EmptyKeySelectsMock(t *testing.T) {
	providers.MockLatency = 0

	for _, p := range llm.Providers() {
		t.Run(string(p), func(t *testing.T) {
			client, err := llm.NewClient(llm.Config{Provider: p})
			require.NoError(t, err)
			assert.Equal(t, llm.ProviderMock, client.Provider())

			resp, err := client.Complete(context.Background(), llm.Request{Prompt: "Say hello"})
			require.NoError(t, err)
			assert.NotEmpty(t, resp.Text)
			assert.Equal(t, llm.ProviderMock, resp.Provider)
		})
	}
}

func TestNewClient_KeySelectsHTTPProvider(t *testing.T) {
	for _, p := range []llm.ProviderName{llm.ProviderOpenAI, llm.ProviderAnthropic, llm.ProviderOllama} {
		client, err := llm.NewClient(llm.Config{Provider: p, APIKey: "key"})
		require.NoError(t, err)
		assert.Equal(t, p, client.Provider())
	}
}

func TestClient_TestConnection(t *testing.T) {
	var gotPath, gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath, gotAuth = r.URL.Path, r.Header.Get("Authorization")
		if gotAuth != "Bearer good-key" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer server.Close()

	cfg := llm.Config{Provider: llm.ProviderOpenAI, APIKey: "good-key", BaseURL: server.URL}
	client, err := llm.NewClient(cfg)
	require.NoError(t, err)
	require.NoError(t, client.TestConnection(context.Background()))
	assert.Equal(t, "/models", gotPath)

	cfg.APIKey = "bad-key"
	client, err = llm.NewClient(cfg)
	require.NoError(t, err)
	err = client.TestConnection(context.Background())
	assert.Equal(t, llm.KindAuth, llm.KindOf(err))
}

func TestClient_RecordsMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := llm.NewMetrics(reg)
	require.NoError(t, err)

	mock := &testutil.MockAdapter{
		Errs:      []error{errors.New("rate limit")},
		Responses: []*llm.Response{{Text: "ok"}},
	}
	client, err := llm.NewClient(llm.Config{},
		llm.WithAdapter(mock), llm.WithRetryConfig(fastRetry(3)), llm.WithMetrics(metrics))
	require.NoError(t, err)

	_, err = client.Complete(context.Background(), llm.Request{Prompt: "hi"})
	require.NoError(t, err)

	count, err := promtest.GatherAndCount(reg, "briefwork_llm_retries_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	count, err = promtest.GatherAndCount(reg, "briefwork_llm_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, err = llm.NewMetrics(reg)
	assert.Error(t, err, "registering twice should fail")
}
