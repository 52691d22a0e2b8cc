// Package gemini adapts the Google GenAI SDK to llm.Client.
package gemini

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/kitbuilder587/score-lookup/internal/llm"
)

type Config struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
}

type Client struct {
	genai  *genai.Client
	model  string
	logger *zap.Logger
}

func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrNotConfigured
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.5-flash"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	cc := &genai.ClientConfig{
		APIKey:     cfg.APIKey,
		Backend:    genai.BackendGeminiAPI,
		HTTPClient: &http.Client{Timeout: cfg.Timeout},
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{genai: client, model: cfg.Model, logger: logger}, nil
}

func (c *Client) CompleteWithSystem(ctx context.Context, system, prompt string) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(system, genai.RoleUser),
		Temperature:       genai.Ptr[float32](0.2),
	}

	resp, err := c.genai.Models.GenerateContent(ctx, c.model, genai.Text(prompt), config)
	if err != nil {
		c.logger.Warn("gemini request failed", zap.Error(err))
		return "", fmt.Errorf("%w: %v", llm.ErrRequestFailed, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", llm.ErrEmptyResponse
	}
	return text, nil
}

var _ llm.Client = (*Client)(nil)
