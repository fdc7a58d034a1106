package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"docqa/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChatClient(baseURL string) *ChatClient {
	return NewChatClient(ChatClientConfig{
		BaseURL:     baseURL,
		Model:       "gpt-4o-mini",
		Temperature: 0.2,
	}, http.DefaultClient, discardLogger())
}

func TestChatClient_Complete(t *testing.T) {
	var received chatCompletionRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"the answer"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	answer, err := newTestChatClient(server.URL).Complete(context.Background(), []domain.ChatMessage{
		{Role: "system", Content: "be brief"},
		{Role: "user", Content: "question"},
	})

	require.NoError(t, err)
	assert.Equal(t, "the answer", answer)
	assert.Equal(t, "gpt-4o-mini", received.Model)
	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.InDelta(t, 0.2, received.Temperature, 1e-9)
}

func TestChatClient_SendsBearerToken(t *testing.T) {
	var auth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	client := NewChatClient(ChatClientConfig{
		BaseURL: server.URL,
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
	}, http.DefaultClient, discardLogger())

	_, err := client.Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})

	require.NoError(t, err)
	assert.Equal(t, "Bearer sk-test", auth)
}

func TestChatClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	_, err := newTestChatClient(server.URL).Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "no choices")
}

func TestChatClient_BadStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer server.Close()

	_, err := newTestChatClient(server.URL).Complete(context.Background(), []domain.ChatMessage{{Role: "user", Content: "hi"}})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}
