package llm

import (
	"context"
	"errors"
)

var (
	ErrNotConfigured = errors.New("llm provider not configured")
	ErrAuthFailed    = errors.New("authentication failed")
	ErrRequestFailed = errors.New("request failed")
	ErrEmptyResponse = errors.New("empty response")
	ErrRateLimit     = errors.New("rate limit exceeded")
)

// Client - текстовый оракул: инструкции + запрос на входе, сырой текст на выходе.
type Client interface {
	CompleteWithSystem(ctx context.Context, system, prompt string) (string, error)
}
