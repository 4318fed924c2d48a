package llm

import (
	"fmt"
	"sync"
)

// Credentials holds what the providers need to authenticate. Base URLs are
// optional overrides for proxies and tests.
type Credentials struct {
	AnthropicAPIKey  string
	AnthropicBaseURL string
	OpenAIAPIKey     string
	OpenAIBaseURL    string
	OllamaBaseURL    string
}

// ClientCache hands out one Provider per resolved model ID, created on first
// use. It is safe for concurrent use and is the only state shared between
// requests.
type ClientCache struct {
	creds Credentials

	mu      sync.Mutex
	clients map[string]Provider
}

// NewClientCache creates an empty cache.
func NewClientCache(creds Credentials) *ClientCache {
	return &ClientCache{
		creds:   creds,
		clients: make(map[string]Provider),
	}
}

// Get resolves name and returns the cached provider for it, creating it if
// needed. Errors wrap ErrUnknownModel or ErrProviderNotAvailable and are not
// cached.
func (c *ClientCache) Get(name string) (Provider, Model, error) {
	m, err := ResolveModel(name)
	if err != nil {
		return nil, Model{}, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.clients[m.ID]; ok {
		return p, m, nil
	}
	p, err := newProvider(m, c.creds)
	if err != nil {
		return nil, Model{}, err
	}
	c.clients[m.ID] = p
	return p, m, nil
}

// Len returns the number of cached providers.
func (c *ClientCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.clients)
}

func newProvider(m Model, creds Credentials) (Provider, error) {
	switch m.Provider {
	case ProviderAnthropic:
		if creds.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("%w: %s: %w", ErrProviderNotAvailable, m.Provider, ErrMissingAPIKey)
		}
		return NewAnthropicProviderWithBaseURL(creds.AnthropicAPIKey, creds.AnthropicBaseURL), nil
	case ProviderOpenAI:
		if creds.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("%w: %s: %w", ErrProviderNotAvailable, m.Provider, ErrMissingAPIKey)
		}
		return NewOpenAIProviderWithBaseURL(creds.OpenAIAPIKey, creds.OpenAIBaseURL), nil
	case ProviderOllama:
		return NewOllamaProvider(creds.OllamaBaseURL), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrProviderNotAvailable, m.Provider)
	}
}
