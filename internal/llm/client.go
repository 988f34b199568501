// Package llm is the completion client for the OpenAI-compatible Groq API.
// It owns the rate-limit backoff policy and nothing else: sanitization and
// validation of what the model returns happen upstream in synth.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
)

// DefaultBaseURL is the Groq OpenAI-compatible endpoint.
const DefaultBaseURL = "https://api.groq.com/openai/v1"

// ErrRateLimited marks persistent rate limiting after the retry budget is
// spent. It is one of the two conditions fatal to a whole synthesis run.
var ErrRateLimited = errors.New("rate limit retries exhausted")

// Config holds client settings.
type Config struct {
	APIKey    string
	BaseURL   string
	Timeout   time.Duration
	BaseDelay time.Duration // backoff base, grown as BaseDelay * 2^attempt
}

// DefaultConfig returns production settings.
func DefaultConfig(apiKey string) Config {
	return Config{
		APIKey:    apiKey,
		BaseURL:   DefaultBaseURL,
		Timeout:   60 * time.Second,
		BaseDelay: 5 * time.Second,
	}
}

// Client talks to the chat-completions and model-discovery endpoints.
type Client struct {
	apiKey     string
	baseURL    string
	baseDelay  time.Duration
	httpClient *http.Client
	logger     *zap.Logger
	sleep      func(time.Duration) // swapped out in tests
}

// NewClient creates a completion client.
func NewClient(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}
	if cfg.BaseDelay == 0 {
		cfg.BaseDelay = 5 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		baseDelay:  cfg.BaseDelay,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		logger:     logger.Named("llm"),
		sleep:      time.Sleep,
	}
}

const maxAttempts = 3

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Complete sends a system+user prompt to the given model and returns the
// first choice's text. On 429 it waits the Retry-After hint when present,
// otherwise an exponential delay, and retries up to the fixed budget. Any
// other failure is returned immediately.
func (c *Client) Complete(ctx context.Context, model, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", fmt.Errorf("API key not configured")
	}

	reqBody := chatRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userPrompt},
		},
		MaxTokens:   1000,
		Temperature: 0.1,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	for attempt := 0; attempt < maxAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(jsonData))
		if err != nil {
			return "", fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return "", fmt.Errorf("request failed: %w", err)
		}
		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", fmt.Errorf("failed to read response: %w", err)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			wait := c.retryDelay(resp.Header.Get("Retry-After"), attempt)
			c.logger.Warn("rate limit exceeded, backing off",
				zap.Duration("wait", wait), zap.Int("attempt", attempt+1))
			c.sleep(wait)
			continue
		}
		if resp.StatusCode != http.StatusOK {
			return "", fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		var parsed chatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", fmt.Errorf("failed to parse response: %w", err)
		}
		if parsed.Error != nil {
			return "", fmt.Errorf("API error: %s", parsed.Error.Message)
		}
		if len(parsed.Choices) == 0 {
			return "", fmt.Errorf("no completion returned")
		}
		return parsed.Choices[0].Message.Content, nil
	}

	return "", fmt.Errorf("no response after %d attempts: %w", maxAttempts, ErrRateLimited)
}

// retryDelay prefers the server-provided Retry-After hint, falling back to
// baseDelay * 2^attempt.
func (c *Client) retryDelay(retryAfter string, attempt int) time.Duration {
	if secs, err := strconv.Atoi(retryAfter); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return c.baseDelay * time.Duration(1<<uint(attempt))
}
