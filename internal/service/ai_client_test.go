package service_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"samguk-server/internal/config"
	"samguk-server/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestOpenAIClientGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))

		var req struct {
			Model    string `json:"model"`
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-4o-mini", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)
		assert.Equal(t, "user", req.Messages[1].Role)

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1", "object": "chat.completion", "created": 1, "model": "gpt-4o-mini",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "{\"scenario\": \"ok\"}"}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 40, "total_tokens": 160}
		}`))
	}))
	defer srv.Close()

	client, err := service.NewAIClient(&config.Config{
		AIClientType: "openai",
		AIBaseURL:    srv.URL + "/v1",
		AIModel:      "gpt-4o-mini",
		AIAPIKey:     "sk-test",
		AITimeout:    5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	text, usage, err := client.GenerateText(context.Background(), "system prompt", "user input", service.GenerationParams{})
	require.NoError(t, err)
	assert.Equal(t, `{"scenario": "ok"}`, text)
	assert.Equal(t, 160, usage.TotalTokens)
	assert.False(t, usage.Estimated)
}

func TestOpenAIClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error": {"message": "overloaded", "type": "server_error"}}`))
	}))
	defer srv.Close()

	client, err := service.NewAIClient(&config.Config{
		AIClientType: "openai", AIBaseURL: srv.URL, AIModel: "m", AIAPIKey: "k", AITimeout: time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	_, _, err = client.GenerateText(context.Background(), "system", "user", service.GenerationParams{})
	assert.ErrorIs(t, err, service.ErrAIGenerationFailed)

	_, _, err = client.GenerateText(context.Background(), "   ", "user", service.GenerationParams{})
	assert.ErrorIs(t, err, service.ErrAIGenerationFailed)
}

func TestOllamaClientGenerateText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/chat", r.URL.Path)

		var req map[string]interface{}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req["model"])
		assert.Equal(t, false, req["stream"])

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"model": "llama3.2", "created_at": "2024-01-01T00:00:00Z",
			"message": {"role": "assistant", "content": "{\"scenario\": \"ollama\"}"},
			"done": true, "prompt_eval_count": 50, "eval_count": 25}` + "\n"))
	}))
	defer srv.Close()

	client, err := service.NewAIClient(&config.Config{
		AIClientType: "ollama",
		AIBaseURL:    srv.URL + "/v1",
		AIModel:      "llama3.2",
		AITimeout:    5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)

	maxTokens := 256
	text, usage, err := client.GenerateText(context.Background(), "system", "user", service.GenerationParams{MaxTokens: &maxTokens})
	require.NoError(t, err)
	assert.Equal(t, `{"scenario": "ollama"}`, text)
	assert.Equal(t, 75, usage.TotalTokens)
}

func TestNewAIClientUnsupportedType(t *testing.T) {
	_, err := service.NewAIClient(&config.Config{AIClientType: "llama-cpp"}, zap.NewNop())
	assert.Error(t, err)
}
