// Package llm implements the OpenAI completion client and prompt templates.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Message is a single chat message.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest describes one chat completion call.
type ChatRequest struct {
	Model       string
	Temperature float64
	MaxTokens   int
	Messages    []Message
}

// CompletionRequest describes one legacy (non-chat) completion call.
type CompletionRequest struct {
	Model       string
	Prompt      string
	Temperature float64
	MaxTokens   int
}

// Client defines the completion operations the reviewer needs. Both calls
// are synchronous and return the first choice's text; errors from the
// service propagate to the caller without retries.
//
//go:generate mockgen -destination=../../mocks/mock_llm_client.go -package=mocks -mock_names=Client=MockLLMClient . Client
type Client interface {
	ChatCompletion(ctx context.Context, req ChatRequest) (string, error)
	Completion(ctx context.Context, req CompletionRequest) (string, error)
}

type openAIClient struct {
	apiKey  string
	baseURL string
	client  *http.Client
	logger  *slog.Logger
}

// NewOpenAIClient creates a completion client for the OpenAI API. baseURL
// may be empty, in which case the public endpoint is used; tests point it
// at an httptest server.
func NewOpenAIClient(apiKey, baseURL string, logger *slog.Logger) Client {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &openAIClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		client:  &http.Client{Timeout: 120 * time.Second},
		logger:  logger,
	}
}

type chatCompletionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
}

type completionRequest struct {
	Model            string  `json:"model"`
	Prompt           string  `json:"prompt"`
	Temperature      float64 `json:"temperature"`
	MaxTokens        int     `json:"max_tokens"`
	TopP             float64 `json:"top_p"`
	FrequencyPenalty float64 `json:"frequency_penalty"`
	PresencePenalty  float64 `json:"presence_penalty"`
}

type completionResponse struct {
	Choices []struct {
		Text string `json:"text"`
	} `json:"choices"`
}

// ChatCompletion issues a chat completion request and returns the first
// choice's message content.
func (c *openAIClient) ChatCompletion(ctx context.Context, req ChatRequest) (string, error) {
	body := chatCompletionRequest{
		Model:       req.Model,
		Messages:    req.Messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	var result chatCompletionResponse
	if err := c.post(ctx, "/chat/completions", body, &result); err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}
	return result.Choices[0].Message.Content, nil
}

// Completion issues a legacy completion request and returns the first
// choice's text. The sampling parameters beyond temperature are pinned to
// the service defaults the reply handler expects.
func (c *openAIClient) Completion(ctx context.Context, req CompletionRequest) (string, error) {
	body := completionRequest{
		Model:            req.Model,
		Prompt:           req.Prompt,
		Temperature:      req.Temperature,
		MaxTokens:        req.MaxTokens,
		TopP:             1,
		FrequencyPenalty: 0,
		PresencePenalty:  0,
	}

	var result completionResponse
	if err := c.post(ctx, "/completions", body, &result); err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	if len(result.Choices) == 0 {
		return "", fmt.Errorf("completion returned no choices")
	}
	return result.Choices[0].Text, nil
}

func (c *openAIClient) post(ctx context.Context, path string, body, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	httpResp, err := c.client.Do(httpReq)
	if err != nil {
		return fmt.Errorf("sending request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if httpResp.StatusCode != http.StatusOK {
		c.logger.Error("completion service returned an error", "path", path, "status", httpResp.StatusCode)
		return fmt.Errorf("API error (status %d): %s", httpResp.StatusCode, string(respBody))
	}

	if err := json.Unmarshal(respBody, result); err != nil {
		return fmt.Errorf("parsing response: %w", err)
	}
	return nil
}
