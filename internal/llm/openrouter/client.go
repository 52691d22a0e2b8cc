package openrouter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/llm"
)

// ErrTruncated - ответ обрезан по max_tokens, JSON-список названий в нём неполный.
var ErrTruncated = errors.New("completion truncated by max_tokens")

const defaultMaxTokens = 512

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	// FallbackModels OpenRouter пробует по порядку, если основная модель недоступна.
	FallbackModels []string
	MaxTokens      int
}

type Client struct {
	apiKey    string
	model     string
	fallbacks []string
	maxTokens int
	baseURL   string
	client    *http.Client
	logger    *zap.Logger
}

func New(cfg Config, logger *zap.Logger) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://openrouter.ai/api/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "deepseek/deepseek-chat"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = defaultMaxTokens
	}

	return &Client{
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		fallbacks: cfg.FallbackModels,
		maxTokens: cfg.MaxTokens,
		baseURL:   cfg.BaseURL,
		client:    &http.Client{Timeout: cfg.Timeout},
		logger:    logger,
	}
}

type completionRequest struct {
	llm.ChatRequest
	Models    []string `json:"models,omitempty"`
	MaxTokens int      `json:"max_tokens,omitempty"`
}

type completionResponse struct {
	Model   string    `json:"model"`
	Choices []choice  `json:"choices"`
	Error   *apiError `json:"error,omitempty"`
}

type choice struct {
	Message      llm.Message `json:"message"`
	FinishReason string      `json:"finish_reason"`
}

type apiError struct {
	Message string `json:"message"`
	Code    int    `json:"code"`
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	if c.apiKey == "" {
		return "", llm.ErrNotConfigured
	}

	headers := map[string]string{
		"Authorization": "Bearer " + c.apiKey,
		"HTTP-Referer":  "https://github.com/kitbuilder587/score-lookup",
		"X-Title":       "Score Lookup",
	}

	payload := completionRequest{
		ChatRequest: llm.NewChatRequest(c.model, system, prompt),
		MaxTokens:   c.maxTokens,
	}
	if len(c.fallbacks) > 0 {
		payload.Models = append([]string{c.model}, c.fallbacks...)
	}

	respBody, statusCode, err := llm.PostJSON(ctx, c.client, c.baseURL+"/chat/completions", headers, payload)
	if err != nil {
		return "", err
	}

	if statusCode != http.StatusOK {
		return "", llm.HandleHTTPError(statusCode, respBody, c.logger, "openrouter")
	}

	var resp completionResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	if resp.Error != nil {
		return "", fmt.Errorf("%w: %s", llm.ErrRequestFailed, resp.Error.Message)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", llm.ErrEmptyResponse
	}

	first := resp.Choices[0]
	if first.FinishReason == "length" {
		return "", ErrTruncated
	}
	if resp.Model != "" && resp.Model != c.model {
		c.logger.Debug("openrouter served fallback model",
			zap.String("requested", c.model),
			zap.String("served", resp.Model),
		)
	}

	return first.Message.Content, nil
}

var _ llm.Client = (*Client)(nil)
