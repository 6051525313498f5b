package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"TimelineTracker/internal/config"
	"TimelineTracker/internal/ports"
)

// OpenAIClient implements ports.ChatModel against OpenAI-compatible chat
// completion APIs. Calls are issued strictly sequentially; the limiter
// enforces the configured inter-call delay to respect provider quotas.
type OpenAIClient struct {
	endpoint   string
	model      string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ ports.ChatModel = (*OpenAIClient)(nil)

// NewOpenAIClient builds a client from configuration.
func NewOpenAIClient(cfg config.OpenAIConfig) *OpenAIClient {
	delay := cfg.RateLimitDelay()
	limiter := rate.NewLimiter(rate.Inf, 1)
	if delay > 0 {
		limiter = rate.NewLimiter(rate.Every(delay), 1)
	}

	return &OpenAIClient{
		endpoint: cfg.Endpoint,
		model:    cfg.Model,
		apiKey:   cfg.APIKey,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
		limiter: limiter,
	}
}

// Model returns the configured model identifier.
func (c *OpenAIClient) Model() string {
	return c.model
}

type chatRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Complete posts one chat completion with a strict JSON object response
// format and returns the raw message content. Any transport or API failure
// is an error; the caller decides retry semantics.
func (c *OpenAIClient) Complete(ctx context.Context, system, user string) (string, error) {
	if c.apiKey == "" || c.endpoint == "" || c.model == "" {
		return "", fmt.Errorf("openai client misconfigured")
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limiter: %w", err)
	}

	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		ResponseFormat: &respFormat{Type: "json_object"},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("model call: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr apiError
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("model error %s: %s", resp.Status, apiErr.Error.Message)
		}
		return "", fmt.Errorf("model error %s: %s", resp.Status, strings.TrimSpace(string(payload)))
	}

	var chat chatResponse
	if err := json.Unmarshal(payload, &chat); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}

	return chat.Choices[0].Message.Content, nil
}
