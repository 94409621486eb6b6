package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChatWithoutKeyIsNotConfigured(t *testing.T) {
	c := NewOpenAIClient(Options{Model: "m"})
	assert.False(t, c.Configured())

	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrNotConfigured)

	_, err = c.Summarize(context.Background(), "summarize", "text")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestChatSendsHistoryAndReturnsFirstChoice(t *testing.T) {
	var got struct {
		Model       string  `json:"model"`
		Temperature float32 `json:"temperature"`
		MaxTokens   int     `json:"max_tokens"`
		Messages    []struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"messages"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"index":0,"message":{"role":"assistant","content":"How long has it hurt?"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Options{APIKey: "key", BaseURL: srv.URL, Model: "llama", Temperature: 0.7, MaxTokens: 800, Timeout: 5 * time.Second})
	reply, err := c.Chat(context.Background(), []Message{
		{Role: "system", Content: "be kind"},
		{Role: "user", Content: "my head hurts"},
		{Role: "tool", Content: "odd"},
	})
	require.NoError(t, err)
	assert.Equal(t, "How long has it hurt?", reply)

	assert.Equal(t, "llama", got.Model)
	assert.Equal(t, 800, got.MaxTokens)
	require.Len(t, got.Messages, 3)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[2].Role, "unknown roles are coerced to user")
}

func TestChatReportsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":{"message":"overloaded","type":"server_error"}}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Options{APIKey: "key", BaseURL: srv.URL, Model: "m"})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestChatEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	c := NewOpenAIClient(Options{APIKey: "key", BaseURL: srv.URL, Model: "m"})
	_, err := c.Chat(context.Background(), []Message{{Role: "user", Content: "hi"}})
	assert.ErrorIs(t, err, ErrEmptyReply)
}
