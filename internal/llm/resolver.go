package llm

import (
	"fmt"
	"strings"
)

// Provider identifiers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderOllama    = "ollama"
)

// Claude model IDs behind the short aliases.
const (
	ClaudeHaiku  = "claude-haiku-4-5-20250929"
	ClaudeSonnet = "claude-sonnet-4-5-20250929"
	ClaudeOpus   = "claude-opus-4-5-20251101"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "haiku"

var modelAliases = map[string]string{
	"haiku":  ClaudeHaiku,
	"sonnet": ClaudeSonnet,
	"opus":   ClaudeOpus,
}

// ollamaPrefix forces the Ollama backend for any model name, e.g.
// "ollama/llama3.1:8b".
const ollamaPrefix = "ollama/"

// Model is a resolved model: the ID sent to the API and the backend serving it.
type Model struct {
	ID       string
	Provider string
}

// ResolveModel maps a configured model name to its API ID and provider.
// Short aliases (haiku, sonnet, opus) resolve to Claude models; other names
// are routed by prefix. Unrecognised names fail closed with ErrUnknownModel.
func ResolveModel(name string) (Model, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		name = DefaultModel
	}
	if id, ok := modelAliases[strings.ToLower(name)]; ok {
		return Model{ID: id, Provider: ProviderAnthropic}, nil
	}
	if rest, ok := strings.CutPrefix(name, ollamaPrefix); ok && rest != "" {
		return Model{ID: rest, Provider: ProviderOllama}, nil
	}
	provider, err := inferProvider(name)
	if err != nil {
		return Model{}, err
	}
	return Model{ID: name, Provider: provider}, nil
}

func inferProvider(model string) (string, error) {
	switch {
	case strings.HasPrefix(model, "claude-"):
		return ProviderAnthropic, nil
	case strings.HasPrefix(model, "gpt-"),
		strings.HasPrefix(model, "o1"),
		strings.HasPrefix(model, "o3"),
		strings.HasPrefix(model, "o4"):
		return ProviderOpenAI, nil
	case strings.HasPrefix(model, "llama"),
		strings.HasPrefix(model, "mistral"),
		strings.HasPrefix(model, "gemma"),
		strings.HasPrefix(model, "qwen"),
		strings.HasPrefix(model, "phi"):
		return ProviderOllama, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
}

// ProviderUsesAPIKey reports whether the named provider requires an API key.
func ProviderUsesAPIKey(providerName string) bool {
	switch providerName {
	case ProviderOpenAI, ProviderAnthropic:
		return true
	default:
		return false
	}
}
