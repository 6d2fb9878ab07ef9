package llm

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestOpenAIClient_ChatCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req chatCompletionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "gpt-3.5-turbo", req.Model)
		assert.Equal(t, 0.5, req.Temperature)
		assert.Equal(t, 2048, req.MaxTokens)
		require.Len(t, req.Messages, 1)
		assert.Equal(t, "user", req.Messages[0].Role)

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "looks fine"}},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewOpenAIClient("test-key", server.URL, testLogger())

	out, err := c.ChatCompletion(context.Background(), ChatRequest{
		Model:       "gpt-3.5-turbo",
		Temperature: 0.5,
		MaxTokens:   2048,
		Messages:    []Message{{Role: "user", Content: "review this"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "looks fine", out)
}

func TestOpenAIClient_Completion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/completions", r.URL.Path)

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "what does this do?", req.Prompt)
		assert.Equal(t, 1.0, req.TopP)
		assert.Zero(t, req.FrequencyPenalty)
		assert.Zero(t, req.PresencePenalty)

		resp := map[string]any{
			"choices": []map[string]any{{"text": "it parses the diff"}},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	c := NewOpenAIClient("test-key", server.URL, testLogger())

	out, err := c.Completion(context.Background(), CompletionRequest{
		Model:       "gpt-3.5-turbo",
		Prompt:      "what does this do?",
		Temperature: 0.5,
		MaxTokens:   256,
	})
	require.NoError(t, err)
	assert.Equal(t, "it parses the diff", out)
}

func TestOpenAIClient_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid api key"}`))
	}))
	defer server.Close()

	c := NewOpenAIClient("bad-key", server.URL, testLogger())

	_, err := c.ChatCompletion(context.Background(), ChatRequest{Model: "gpt-3.5-turbo"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}

func TestOpenAIClient_NoChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer server.Close()

	c := NewOpenAIClient("test-key", server.URL, testLogger())

	_, err := c.ChatCompletion(context.Background(), ChatRequest{Model: "gpt-3.5-turbo"})
	assert.Error(t, err)

	_, err = c.Completion(context.Background(), CompletionRequest{Model: "gpt-3.5-turbo"})
	assert.Error(t, err)
}
