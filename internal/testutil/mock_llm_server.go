package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
)

// MockLLMServer is an httptest.Server speaking enough of the Anthropic
// Messages and OpenAI chat completions APIs for the LLM validator.
type MockLLMServer struct {
	*httptest.Server
	calls atomic.Int64
}

// Calls returns how many completion requests the server answered.
func (s *MockLLMServer) Calls() int {
	return int(s.calls.Load())
}

type anthropicMessage struct {
	ID         string `json:"id"`
	Type       string `json:"type"`
	Model      string `json:"model"`
	StopReason string `json:"stop_reason"`
	Content    []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// NewAnthropicServer starts a server that answers POST /v1/messages with
// content as the assistant text. status != 200 makes every call fail with
// that status. Caller must call Close or register t.Cleanup(server.Close).
func NewAnthropicServer(content string, status int) *MockLLMServer {
	s := &MockLLMServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.calls.Add(1)
		if status != 0 && status != http.StatusOK {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"type":"error","error":{"type":"api_error","message":"mock failure"}}`))
			return
		}
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		var resp anthropicMessage
		resp.ID = "msg_test"
		resp.Type = "message"
		resp.Model = req.Model
		resp.StopReason = "end_turn"
		resp.Content = append(resp.Content, struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{Type: "text", Text: content})
		resp.Usage.InputTokens = 100
		resp.Usage.OutputTokens = 20
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	return s
}

// OpenAICompatibleResponse is the minimal chat completions response for tests.
type OpenAICompatibleResponse struct {
	ID      string `json:"id"`
	Object  string `json:"object"`
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// NewOpenAICompatibleServer starts a server that responds to
// POST /v1/chat/completions with content as the assistant message.
func NewOpenAICompatibleServer(content string) *MockLLMServer {
	s := &MockLLMServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		s.calls.Add(1)
		var req struct {
			Model string `json:"model"`
		}
		_ = json.NewDecoder(r.Body).Decode(&req)

		var resp OpenAICompatibleResponse
		resp.ID = "chatcmpl-test"
		resp.Object = "chat.completion"
		resp.Model = req.Model
		resp.Choices = make([]struct {
			Message struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"message"`
			FinishReason string `json:"finish_reason"`
		}, 1)
		resp.Choices[0].Message.Role = "assistant"
		resp.Choices[0].Message.Content = content
		resp.Choices[0].FinishReason = "stop"
		resp.Usage.PromptTokens = 100
		resp.Usage.CompletionTokens = 20
		resp.Usage.TotalTokens = 120
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	return s
}
