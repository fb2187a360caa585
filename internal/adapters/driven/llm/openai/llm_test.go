package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
)

func newTestLLM(t *testing.T, handler http.HandlerFunc) *LLMService {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	s, err := NewLLMService(LLMConfig{APIKey: "sk-test", BaseURL: srv.URL})
	require.NoError(t, err)
	return s
}

func completion(content string) map[string]any {
	return map[string]any{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  DefaultLLMModel,
		"choices": []map[string]any{{
			"index":         0,
			"message":       map[string]any{"role": "assistant", "content": content},
			"finish_reason": "stop",
		}},
	}
}

func TestNewLLMService_RequiresAPIKey(t *testing.T) {
	_, err := NewLLMService(LLMConfig{})
	assert.Error(t, err)
}

func TestNewLLMService_Defaults(t *testing.T) {
	s, err := NewLLMService(LLMConfig{APIKey: "sk-test"})
	require.NoError(t, err)
	assert.Equal(t, DefaultLLMModel, s.ModelName())
	assert.NoError(t, s.Close())
}

func TestLLMService_Generate(t *testing.T) {
	var body map[string]any
	s := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("Float 1902672 is deepest."))
	})

	out, err := s.Generate(context.Background(), "question", driven.GenerateOptions{
		MaxTokens: 128,
		StopWords: []string{"\n\n"},
	})
	require.NoError(t, err)

	assert.Equal(t, "Float 1902672 is deepest.", out)
	assert.Equal(t, DefaultLLMModel, body["model"])
	assert.EqualValues(t, 128, body["max_tokens"])
	assert.Equal(t, []any{"\n\n"}, body["stop"])
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	require.Len(t, messages, 1)
	assert.Equal(t, "user", messages[0].(map[string]any)["role"])
}

func TestLLMService_Chat(t *testing.T) {
	var body map[string]any
	s := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(completion("hello"))
	})

	out, err := s.Chat(context.Background(), []driven.ChatMessage{
		{Role: "system", Content: "You answer questions about ARGO floats."},
		{Role: "user", Content: "hi"},
	}, driven.ChatOptions{})
	require.NoError(t, err)

	assert.Equal(t, "hello", out)
	messages, ok := body["messages"].([]any)
	require.True(t, ok)
	assert.Len(t, messages, 2)
}

func TestLLMService_NoChoices(t *testing.T) {
	s := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"x","choices":[]}`))
	})

	_, err := s.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "no choices")
}

func TestLLMService_APIError(t *testing.T) {
	s := newTestLLM(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key","type":"invalid_request_error"}}`))
	})

	_, err := s.Generate(context.Background(), "q", driven.GenerateOptions{})
	assert.ErrorContains(t, err, "status 401")
}

func TestLLMService_Ping(t *testing.T) {
	s := newTestLLM(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"list","data":[]}`))
	})

	assert.NoError(t, s.Ping(context.Background()))
}
