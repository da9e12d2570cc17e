package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// maxResponseSize limits the LLM response body to prevent memory exhaustion.
const maxResponseSize = 10 * 1024 * 1024 // 10MB

// HTTPAdapter executes requests against an HTTP chat-completion endpoint
// described by a Provider.
type HTTPAdapter struct {
	provider   Provider
	cfg        Config
	httpClient *http.Client
}

// NewHTTPAdapter wraps provider with the given credentials.
func NewHTTPAdapter(provider Provider, cfg Config, httpClient *http.Client) *HTTPAdapter {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: 180 * time.Second, // Allow time for LLM responses
		}
	}
	return &HTTPAdapter{provider: provider, cfg: cfg, httpClient: httpClient}
}

// Name returns the wrapped provider's name.
func (a *HTTPAdapter) Name() ProviderName {
	return a.provider.Name()
}

// Complete executes a single HTTP request to the LLM endpoint.
func (a *HTTPAdapter) Complete(ctx context.Context, req Request) (*Response, error) {
	model := a.cfg.ResolvedModel()
	body, err := a.provider.BuildRequestBody(model, req.Messages(), req.Temperature, req.MaxTokens)
	if err != nil {
		return nil, a.fail(KindUnknown, fmt.Errorf("build request body: %w", err))
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, a.provider.BuildURL(a.cfg.BaseURL), bytes.NewReader(body))
	if err != nil {
		return nil, a.fail(KindUnknown, fmt.Errorf("create HTTP request: %w", err))
	}
	httpReq.Header.Set("Content-Type", "application/json")
	a.provider.SetHeaders(httpReq, a.cfg.APIKey)

	respBody, err := a.do(httpReq)
	if err != nil {
		return nil, err
	}

	resp, err := a.provider.ParseResponse(respBody, model)
	if err != nil {
		return nil, a.fail(responseKind(err), err)
	}
	resp.Provider = a.provider.Name()
	if resp.Model == "" {
		resp.Model = model
	}
	return resp, nil
}

// TestConnection lists models to verify the key and endpoint.
func (a *HTTPAdapter) TestConnection(ctx context.Context) error {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, a.provider.ModelsURL(a.cfg.BaseURL), nil)
	if err != nil {
		return a.fail(KindUnknown, fmt.Errorf("create HTTP request: %w", err))
	}
	a.provider.SetHeaders(httpReq, a.cfg.APIKey)

	_, err = a.do(httpReq)
	return err
}

func (a *HTTPAdapter) do(httpReq *http.Request) ([]byte, error) {
	httpResp, err := a.httpClient.Do(httpReq)
	if err != nil {
		if ctxErr := httpReq.Context().Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, a.fail(KindNetwork, fmt.Errorf("HTTP request failed: %w", err))
	}
	defer httpResp.Body.Close()

	// Read response body with size limit to prevent memory exhaustion
	respBody, err := io.ReadAll(io.LimitReader(httpResp.Body, maxResponseSize))
	if err != nil {
		return nil, a.fail(KindNetwork, fmt.Errorf("read response body: %w", err))
	}

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		return nil, classifyHTTPError(a.provider.Name(), httpResp.StatusCode, respBody)
	}
	return respBody, nil
}

// responseKind classifies a ParseResponse failure. Malformed JSON is
// unknown; an error envelope in a 2xx body is classified by its message.
func responseKind(err error) ErrorKind {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &syntaxErr) || errors.As(err, &typeErr) {
		return KindUnknown
	}
	return Classify(err)
}

func (a *HTTPAdapter) fail(kind ErrorKind, err error) *Error {
	return &Error{Kind: kind, Provider: a.provider.Name(), err: err}
}
