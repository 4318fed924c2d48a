package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newAnthropicTestServer(t *testing.T, handler http.HandlerFunc) *AnthropicProvider {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return NewAnthropicProviderWithBaseURL("test-anthropic-key", ts.URL)
}

func writeAnthropic(t *testing.T, w http.ResponseWriter, resp anthropicResponse) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	require.NoError(t, json.NewEncoder(w).Encode(resp))
}

func TestAnthropicGenerate_Success(t *testing.T) {
	provider := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/messages", r.URL.Path)
		assert.Equal(t, "test-anthropic-key", r.Header.Get("x-api-key"))
		assert.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var reqBody anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, ClaudeHaiku, reqBody.Model)
		assert.Equal(t, 300, reqBody.MaxTokens)
		require.Len(t, reqBody.Messages, 1)
		assert.Equal(t, "user", reqBody.Messages[0].Role)

		writeAnthropic(t, w, anthropicResponse{
			ID:         "msg_test123",
			Content:    []anthropicContentBlock{{Type: "text", Text: `[{"text":"Hans","is_pii":true}]`}},
			StopReason: "end_turn",
			Usage:      anthropicUsage{InputTokens: 120, OutputTokens: 20},
		})
	})

	resp, err := provider.Generate(context.Background(), &Request{
		Model:     ClaudeHaiku,
		Messages:  []Message{{Role: "user", Content: "Analyze these sentences"}},
		MaxTokens: 300,
	})
	require.NoError(t, err)
	assert.Equal(t, `[{"text":"Hans","is_pii":true}]`, resp.Content)
	assert.Equal(t, "end_turn", resp.FinishReason)
	assert.Equal(t, 120, resp.InputTokens)
	assert.Equal(t, 20, resp.OutputTokens)
	assert.Equal(t, ClaudeHaiku, resp.Model)
}

func TestAnthropicGenerate_SystemMessagesJoined(t *testing.T) {
	provider := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var reqBody anthropicRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
		assert.Equal(t, "You review PII.\n\nAnswer in JSON.", reqBody.System)
		require.Len(t, reqBody.Messages, 1, "system messages must not be sent as chat messages")
		writeAnthropic(t, w, anthropicResponse{Content: []anthropicContentBlock{{Type: "text", Text: "[]"}}})
	})

	_, err := provider.Generate(context.Background(), &Request{
		Model: ClaudeHaiku,
		Messages: []Message{
			{Role: "system", Content: "You review PII."},
			{Role: "user", Content: "Hello"},
			{Role: "system", Content: "Answer in JSON."},
		},
		MaxTokens: 150,
	})
	require.NoError(t, err)
}

func TestAnthropicGenerate_ConcatenatesTextBlocks(t *testing.T) {
	provider := newAnthropicTestServer(t, func(w http.ResponseWriter, _ *http.Request) {
		writeAnthropic(t, w, anthropicResponse{Content: []anthropicContentBlock{
			{Type: "text", Text: "[{\"text\":"},
			{Type: "tool_use"},
			{Type: "text", Text: "\"x\"}]"},
		}})
	})

	resp, err := provider.Generate(context.Background(), &Request{Model: ClaudeHaiku, MaxTokens: 150})
	require.NoError(t, err)
	assert.Equal(t, `[{"text":"x"}]`, resp.Content)
}

func TestAnthropicGenerate_ZeroTemperatureIsSent(t *testing.T) {
	provider := newAnthropicTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		tempJSON, ok := raw["temperature"]
		require.True(t, ok, "temperature must be present when zero")
		assert.JSONEq(t, "0", string(tempJSON))
		writeAnthropic(t, w, anthropicResponse{Content: []anthropicContentBlock{{Type: "text", Text: "[]"}}})
	})

	_, err := provider.Generate(context.Background(), &Request{Model: ClaudeHaiku, Temperature: 0, MaxTokens: 150})
	require.NoError(t, err)
}

func TestAnthropicGenerate_Errors(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		wantErr string
	}{
		{
			name: "rate limited",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error"}}`))
			},
			wantErr: "anthropic api error 429",
		},
		{
			name: "invalid json",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
			wantErr: "decoding anthropic response",
		},
		{
			name: "no text content",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{"id":"msg","content":[]}`))
			},
			wantErr: ErrEmptyResponse.Error(),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			provider := newAnthropicTestServer(t, tt.handler)
			_, err := provider.Generate(context.Background(), &Request{Model: ClaudeHaiku, MaxTokens: 150})
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestAnthropicCostEstimation(t *testing.T) {
	provider := NewAnthropicProvider("dummy")

	tests := []struct {
		name         string
		model        string
		inputTokens  int
		outputTokens int
		wantPositive bool
	}{
		{"haiku", ClaudeHaiku, 1000, 500, true},
		{"opus", ClaudeOpus, 1000, 500, true},
		{"unknown model priced as haiku", "claude-new-model", 1000, 500, true},
		{"zero tokens", ClaudeSonnet, 0, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cost := provider.EstimateCost(tt.model, tt.inputTokens, tt.outputTokens)
			if tt.wantPositive {
				assert.Greater(t, cost, 0.0)
			} else {
				assert.Equal(t, 0.0, cost)
			}
		})
	}

	assert.Greater(t, provider.EstimateCost(ClaudeOpus, 1000, 1000), provider.EstimateCost(ClaudeHaiku, 1000, 1000))
}
