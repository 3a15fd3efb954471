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

	"github.com/alantheprice/autopatch/pkg/utils"
)

const defaultMaxTokens = 8192

// Client talks to an OpenAI-compatible chat completions endpoint. It is the
// only place generation-side rate limiting is handled; callers treat
// Generate as an opaque prompt-to-text function.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	MaxTokens  int
	HTTPClient *http.Client
	Retry      *RetryPolicy

	logger *utils.Logger
}

// NewClient builds a client for the given endpoint and model.
func NewClient(baseURL, apiKey, model string) *Client {
	return &Client{
		BaseURL:    strings.TrimSuffix(baseURL, "/"),
		APIKey:     apiKey,
		Model:      model,
		MaxTokens:  defaultMaxTokens,
		HTTPClient: &http.Client{Timeout: 5 * time.Minute},
		Retry:      NewRetryPolicy(),
		logger:     utils.GetLogger(false),
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Generate sends the prompt pair and returns the model's text. Rate limits
// are retried here with backoff; any other failure, or retry exhaustion,
// propagates to the caller unmasked.
func (c *Client) Generate(ctx context.Context, systemPrompt, userMessage string) (string, error) {
	for attempt := 0; ; attempt++ {
		text, resp, err := c.complete(ctx, systemPrompt, userMessage)
		if err == nil {
			return text, nil
		}

		statusCode := 0
		if resp != nil {
			statusCode = resp.StatusCode
		}
		if !c.Retry.IsRateLimit(err, statusCode) {
			return "", err
		}
		if !c.Retry.ShouldRetry(attempt) {
			return "", fmt.Errorf("rate limit retries exhausted after %d attempts: %w", attempt, err)
		}

		delay := c.Retry.Delay(resp, attempt)
		c.logger.LogProcessStep(fmt.Sprintf("Rate limited, waiting %s before retry %d/%d",
			delay.Round(time.Second), attempt+1, c.Retry.MaxRetries))

		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// complete performs one HTTP round trip. The response is returned alongside
// the error so the retry policy can read status and headers.
func (c *Client) complete(ctx context.Context, systemPrompt, userMessage string) (string, *http.Response, error) {
	payload := chatRequest{
		Model: c.Model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: userMessage},
		},
		MaxTokens: c.MaxTokens,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", nil, fmt.Errorf("could not encode chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", nil, fmt.Errorf("could not build chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("chat request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", resp, fmt.Errorf("could not read chat response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", resp, fmt.Errorf("chat request returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", resp, fmt.Errorf("could not decode chat response: %w", err)
	}
	if parsed.Error != nil {
		return "", resp, fmt.Errorf("chat API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return "", resp, fmt.Errorf("chat response contained no choices")
	}

	c.logger.Logf("Token usage - input: %d, output: %d", parsed.Usage.PromptTokens, parsed.Usage.CompletionTokens)
	return parsed.Choices[0].Message.Content, resp, nil
}
