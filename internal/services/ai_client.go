package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"complians/internal/models"

	"golang.org/x/time/rate"
)

// AIClient talks to an OpenAI-compatible chat completions endpoint. It is the
// only network-bound dependency on the assessment path, so every call is
// bounded by the configured timeout and a global outbound rate limit.
type AIClient struct {
	baseURL string
	apiKey  string
	model   string
	timeout time.Duration
	limiter *rate.Limiter
	client  *http.Client
}

// NewAIClient creates a provider client. ratePerSec bounds outbound calls
// across all concurrent assessments.
func NewAIClient(baseURL, apiKey, model string, timeout time.Duration, ratePerSec float64) *AIClient {
	if timeout <= 0 {
		timeout = 12 * time.Second
	}
	if ratePerSec <= 0 {
		ratePerSec = 5
	}
	// A fractional rate must still allow a burst of at least 1 or every
	// Wait fails immediately.
	burst := int(ratePerSec * 2)
	if burst < 1 {
		burst = 1
	}
	return &AIClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		apiKey:  apiKey,
		model:   model,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Limit(ratePerSec), burst),
		client:  &http.Client{Timeout: timeout},
	}
}

// Configured reports whether an API key is present. An unconfigured client
// fails every call, which the narrative generator turns into template verdicts.
func (c *AIClient) Configured() bool {
	return c.apiKey != ""
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Complete sends a single-turn prompt and returns the raw response text.
// Any failure (timeout, non-2xx, malformed body, empty choices) is returned
// as a *models.ProviderError so callers can recover uniformly.
func (c *AIClient) Complete(ctx context.Context, prompt string) (string, error) {
	if !c.Configured() {
		return "", &models.ProviderError{Reason: "no API key configured"}
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return "", &models.ProviderError{Reason: "rate limiter wait cancelled", Err: err}
	}

	reqBody, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "user", Content: prompt},
		},
		Stream:      false,
		Temperature: 0.2,
	})
	if err != nil {
		return "", &models.ProviderError{Reason: "failed to marshal request", Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+"/chat/completions", bytes.NewBuffer(reqBody))
	if err != nil {
		return "", &models.ProviderError{Reason: "failed to create request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &models.ProviderError{Reason: "request failed", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &models.ProviderError{Reason: fmt.Sprintf("API error (status %d): %s", resp.StatusCode, string(body))}
	}

	var result struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", &models.ProviderError{Reason: "failed to decode response", Err: err}
	}

	if len(result.Choices) == 0 {
		return "", &models.ProviderError{Reason: "no choices in response"}
	}

	content := strings.TrimSpace(result.Choices[0].Message.Content)
	if content == "" {
		return "", &models.ProviderError{Reason: "empty completion"}
	}

	return content, nil
}
