// Package testutil provides shared test helpers and mocks for PII Shield tests.
package testutil

import (
	"context"
	"sync"

	"github.com/omargawdat/pii-shield/internal/llm"
)

// MockProvider implements llm.Provider without network calls. Content is
// returned verbatim; set Err to simulate a failing provider.
type MockProvider struct {
	mu       sync.Mutex
	Content  string
	Err      error
	Requests []*llm.Request
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string { return "mock" }

// Generate records the request and returns the canned content or error.
func (m *MockProvider) Generate(_ context.Context, req *llm.Request) (*llm.Response, error) {
	m.mu.Lock()
	m.Requests = append(m.Requests, req)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return &llm.Response{
		Content:      m.Content,
		FinishReason: "stop",
		InputTokens:  100,
		OutputTokens: 20,
		Model:        req.Model,
	}, nil
}

// EstimateCost returns a fixed cost for tests.
func (m *MockProvider) EstimateCost(_ string, _, _ int) float64 { return 0.001 }

// Calls returns how many requests the provider received.
func (m *MockProvider) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

// MockSource hands out Provider for every model name, or Err when set.
// It satisfies validation.ClientSource.
type MockSource struct {
	Provider llm.Provider
	Err      error
}

// Get returns the configured provider.
func (s MockSource) Get(name string) (llm.Provider, llm.Model, error) {
	if s.Err != nil {
		return nil, llm.Model{}, s.Err
	}
	return s.Provider, llm.Model{ID: name, Provider: s.Provider.Name()}, nil
}
