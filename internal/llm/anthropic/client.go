// Package anthropic talks to the Anthropic Messages API.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/llm"
)

const apiVersion = "2023-06-01"

type Config struct {
	APIKey    string
	Model     string
	BaseURL   string
	MaxTokens int
	Timeout   time.Duration
}

type Client struct {
	apiKey    string
	model     string
	baseURL   string
	maxTokens int
	client    *http.Client
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.anthropic.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "claude-sonnet-4-5-20250929"
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 1024
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	return &Client{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		maxTokens: cfg.MaxTokens,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

type messagesRequest struct {
	Model       string    `json:"model"`
	MaxTokens   int       `json:"max_tokens"`
	System      string    `json:"system,omitempty"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type messagesResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string    `json:"stop_reason"`
	Error      *apiError `json:"error,omitempty"`
}

type apiError struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", llm.ErrNotConfigured
	}

	req := messagesRequest{
		Model:       c.model,
		MaxTokens:   c.maxTokens,
		System:      system,
		Messages:    []message{{Role: "user", Content: prompt}},
		Temperature: 0.2,
	}
	headers := map[string]string{
		"x-api-key":         c.apiKey,
		"anthropic-version": apiVersion,
	}

	respBody, statusCode, err := llm.PostJSON(ctx, c.client, c.baseURL+"/messages", headers, req)
	if err != nil {
		return "", err
	}

	if statusCode != http.StatusOK {
		return "", llm.HandleHTTPError(statusCode, respBody, c.logger, "anthropic")
	}

	var resp messagesResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s", llm.ErrRequestFailed, resp.Error.Message)
	}

	// берём только текстовые блоки
	var sb strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

var _ llm.Client = (*Client)(nil)
