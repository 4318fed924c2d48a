// Package llm provides the chat-completion backends used to re-score
// low-confidence PII matches: Anthropic, OpenAI and local Ollama models.
package llm

import (
	"context"
	"errors"
	"time"

	psotel "github.com/omargawdat/pii-shield/internal/otel"
)

var tracer = psotel.Tracer("github.com/omargawdat/pii-shield/internal/llm")

// TimeoutLLMCall bounds a single provider call.
const TimeoutLLMCall = 30 * time.Second

// Domain errors for the LLM package.
var (
	ErrProviderNotAvailable = errors.New("provider not available")
	ErrUnknownModel         = errors.New("unknown model")
	ErrMissingAPIKey        = errors.New("missing api key")
	ErrEmptyResponse        = errors.New("empty llm response")
)

// Provider is the interface all LLM providers implement.
type Provider interface {
	// Name returns the provider identifier (e.g. "anthropic").
	Name() string
	// Generate sends a completion request and returns the response.
	Generate(ctx context.Context, req *Request) (*Response, error)
	// EstimateCost estimates the cost in EUR for the given model and token counts.
	EstimateCost(model string, inputTokens, outputTokens int) float64
}

// Request is a single chat-completion request.
type Request struct {
	Model       string
	Messages    []Message
	Temperature float64
	MaxTokens   int
}

// Message is a chat message.
type Message struct {
	Role    string // "system", "user", "assistant"
	Content string
}

// Response is the provider's reply.
type Response struct {
	Content      string
	FinishReason string
	InputTokens  int
	OutputTokens int
	Model        string
}
