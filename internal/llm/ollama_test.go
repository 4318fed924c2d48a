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

func TestOllamaGenerate(t *testing.T) {
	ctx := context.Background()

	t.Run("successful response", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)

			var reqBody ollamaRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&reqBody))
			assert.Equal(t, "llama3.1:8b", reqBody.Model)
			assert.False(t, reqBody.Stream)
			assert.Equal(t, 0.0, reqBody.Options.Temperature)
			assert.Equal(t, 300, reqBody.Options.NumPredict)

			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"message":{"role":"assistant","content":"[]"},"done_reason":"stop","prompt_eval_count":42,"eval_count":3}`))
		}))
		defer server.Close()

		resp, err := NewOllamaProvider(server.URL).Generate(ctx, &Request{
			Model:     "llama3.1:8b",
			Messages:  []Message{{Role: "user", Content: "Hi"}},
			MaxTokens: 300,
		})
		require.NoError(t, err)
		assert.Equal(t, "[]", resp.Content)
		assert.Equal(t, "stop", resp.FinishReason)
		assert.Equal(t, 42, resp.InputTokens)
		assert.Equal(t, 3, resp.OutputTokens)
	})

	t.Run("non-2xx status returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model not found", http.StatusNotFound)
		}))
		defer server.Close()

		_, err := NewOllamaProvider(server.URL).Generate(ctx, &Request{Model: "missing"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ollama api error 404")
	})

	t.Run("empty content returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`{"message":{"content":""}}`))
		}))
		defer server.Close()

		_, err := NewOllamaProvider(server.URL).Generate(ctx, &Request{Model: "llama3"})
		require.ErrorIs(t, err, ErrEmptyResponse)
	})

	t.Run("connection refused returns error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
		url := server.URL
		server.Close()

		_, err := NewOllamaProvider(url).Generate(ctx, &Request{Model: "llama3"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "ollama api call")
	})
}

func TestNewOllamaProvider(t *testing.T) {
	assert.Equal(t, DefaultOllamaBaseURL, NewOllamaProvider("").baseURL)
	assert.Equal(t, "http://gpu-box:11434", NewOllamaProvider("http://gpu-box:11434/").baseURL)
	assert.Equal(t, 0.0, NewOllamaProvider("").EstimateCost("llama3", 1000, 1000))
}
