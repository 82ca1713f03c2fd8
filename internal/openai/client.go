// Package openai streams chat completions over the OpenAI-compatible HTTP API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/Folusakin/Realtime-Copilot/internal/chat"
)

// Config controls the completion endpoint and model selection.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// DialTimeout bounds connection establishment; the streaming body
	// itself is bounded by the request context.
	DialTimeout time.Duration
}

// Client issues streaming chat-completion requests.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient validates config and constructs a completion client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("openai base URL is empty")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("openai API key is empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, errors.New("openai model is empty")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 10 * time.Second
	}

	transport := &http.Transport{
		ResponseHeaderTimeout: cfg.DialTimeout,
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Transport: transport},
	}, nil
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chat.Message `json:"messages"`
	Stream   bool           `json:"stream"`
}

// StreamCompletion opens one streaming completion over the given history.
func (c *Client) StreamCompletion(ctx context.Context, messages []chat.Message) (chat.CompletionStream, error) {
	body, err := json.Marshal(chatRequest{
		Model:    c.cfg.Model,
		Messages: messages,
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal completion request: %w", err)
	}

	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create completion request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}

	if resp.StatusCode >= 400 {
		defer resp.Body.Close()
		return nil, parseAPIError(resp)
	}

	return newStream(resp.Body), nil
}

type apiErrorPayload struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// parseAPIError extracts the service error message from a failed response.
func parseAPIError(resp *http.Response) error {
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil {
		return fmt.Errorf("completion service returned HTTP %d", resp.StatusCode)
	}

	var payload apiErrorPayload
	if err := json.Unmarshal(body, &payload); err == nil && payload.Error.Message != "" {
		return fmt.Errorf("completion service returned HTTP %d: %s", resp.StatusCode, payload.Error.Message)
	}
	return fmt.Errorf("completion service returned HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}
