// Package testutil provides test doubles for code that talks to the llm package.
package testutil

import (
	"context"
	"sync"

	"github.com/c360studio/briefwork/llm"
)

// MockAdapter is a thread-safe scripted llm.Adapter.
//
// Each call consumes the next entry of Errs (if any remain) and otherwise the
// next entry of Responses. Err, when set, fails every call.
//
//	// Fail once with a transient error, then succeed
//	mock := &MockAdapter{
//	    Errs:      []error{errors.New("ECONNRESET")},
//	    Responses: []*llm.Response{{Text: "ok"}},
//	}
type MockAdapter struct {
	Provider  llm.ProviderName
	Responses []*llm.Response
	Errs      []error
	Err       error
	ConnErr   error

	mu              sync.Mutex
	capturedContext context.Context
	requests        []llm.Request
	callCount       int
	responseIndex   int
	errIndex        int
}

// Name returns Provider, defaulting to mock.
func (m *MockAdapter) Name() llm.ProviderName {
	if m.Provider == "" {
		return llm.ProviderMock
	}
	return m.Provider
}

// TestConnection returns ConnErr.
func (m *MockAdapter) TestConnection(context.Context) error {
	return m.ConnErr
}

// Complete implements llm.Adapter.
func (m *MockAdapter) Complete(ctx context.Context, req llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.capturedContext = ctx
	m.requests = append(m.requests, req)
	m.callCount++

	if m.Err != nil {
		return nil, m.Err
	}
	if m.errIndex < len(m.Errs) {
		err := m.Errs[m.errIndex]
		m.errIndex++
		return nil, err
	}

	if m.responseIndex < len(m.Responses) {
		resp := *m.Responses[m.responseIndex]
		m.responseIndex++
		return &resp, nil
	}

	// Default response if no responses configured
	return &llm.Response{Text: "", Model: "test-model"}, nil
}

// GetCapturedContext returns the last context passed to Complete().
func (m *MockAdapter) GetCapturedContext() context.Context {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.capturedContext
}

// GetCallCount returns the number of times Complete() was called.
func (m *MockAdapter) GetCallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Requests returns a copy of every request received.
func (m *MockAdapter) Requests() []llm.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]llm.Request(nil), m.requests...)
}

// Reset clears call history and rewinds the scripts.
func (m *MockAdapter) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.responseIndex = 0
	m.errIndex = 0
	m.requests = nil
	m.capturedContext = nil
}
