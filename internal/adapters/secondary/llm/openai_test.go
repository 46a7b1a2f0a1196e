package llm

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestClient(baseURL string) *OpenAIClient {
	return NewOpenAIClient(Config{
		APIKey:      "sk-test-key",
		BaseURL:     baseURL,
		Model:       "gpt-4o-mini",
		Temperature: 0.8,
		Timeout:     5 * time.Second,
	}, zap.NewNop())
}

func TestOpenAIClient_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "POST", r.Method)
		assert.Equal(t, "Bearer sk-test-key", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-test",
			"object": "chat.completion",
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"message": {"role": "assistant", "content": "{\"greeting\":\"Hi\",\"emoji\":\"\",\"tone\":\"friendly\"}"},
				"finish_reason": "stop"
			}],
			"usage": {"prompt_tokens": 40, "completion_tokens": 15, "total_tokens": 55}
		}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	content, err := client.Complete(context.Background(), "system prompt", "user prompt")

	require.NoError(t, err)
	assert.Equal(t, `{"greeting":"Hi","emoji":"","tone":"friendly"}`, content)
}

func TestOpenAIClient_EmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id": "chatcmpl-test", "object": "chat.completion", "choices": []}`))
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), "system", "user")

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestOpenAIClient_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(server.URL)

	_, err := client.Complete(context.Background(), "system", "user")

	assert.Error(t, err)
}
