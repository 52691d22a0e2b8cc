// Package oracle asks a text-generation model for extra archive-style title variants.
//
// The model is treated as unreliable: any failure, missing credentials or unparseable
// output yields an empty list, never an error.
package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/llm"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
)

const (
	MaxVariants    = 8
	defaultTimeout = 15 * time.Second
)

const systemPrompt = `You help search IMSLP (the Petrucci Music Library).

Task: given a user's description of a musical work, produce 5 to 8 likely IMSLP page titles.

Rules:
1. Use IMSLP naming: "Work Title, Op.N (Surname, Given names)" or "Surname, Given names"
2. Spell composer names the way IMSLP does, including diacritics
3. Include the catalogue number (Op., BWV, K., Hob.) when you know it
4. Do not invent works you are unsure exist

Response format: a JSON array of strings only, no prose, no markdown.
Example: ["Violin Sonata No.6 (Ysaÿe, Eugène)", "6 Sonatas for Solo Violin, Op.27 (Ysaÿe, Eugène)"]`

var fenceRe = regexp.MustCompile("(?s)^\\s*```[a-zA-Z]*\\s*\\n?(.*?)\\s*```\\s*$")

type Config struct {
	Provider string
	Timeout  time.Duration
}

type Expander struct {
	llm      llm.Client
	provider string
	timeout  time.Duration
	logger   *zap.Logger
	metrics  *metrics.Metrics
}

// New принимает nil client - тогда Expand всегда возвращает пустой список.
func New(client llm.Client, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Expander {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.Provider == "" {
		cfg.Provider = "unknown"
	}
	return &Expander{
		llm:      client,
		provider: cfg.Provider,
		timeout:  cfg.Timeout,
		logger:   logger,
		metrics:  m,
	}
}

func (e *Expander) Enabled() bool {
	return e != nil && e.llm != nil
}

// Expand returns up to MaxVariants titles proposed by the model for query.
func (e *Expander) Expand(ctx context.Context, query string) []string {
	if !e.Enabled() || strings.TrimSpace(query) == "" {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	start := time.Now()
	raw, err := e.llm.CompleteWithSystem(ctx, systemPrompt, "Query: "+query)
	if err != nil {
		status := "error"
		if errors.Is(err, llm.ErrNotConfigured) || errors.Is(err, llm.ErrAuthFailed) {
			status = "unconfigured"
		}
		e.record(status, start)
		e.logger.Warn("oracle expansion failed, continuing without it",
			zap.String("provider", e.provider),
			zap.Error(err),
		)
		return nil
	}

	variants, ok := ParseList(raw)
	if !ok {
		e.record("parse_error", start)
		e.logger.Warn("oracle returned unparseable output",
			zap.String("provider", e.provider),
			zap.Int("length", len(raw)),
		)
		return nil
	}

	e.record("success", start)
	e.logger.Debug("oracle expansion done",
		zap.String("query", query),
		zap.Int("variants", len(variants)),
	)
	return variants
}

func (e *Expander) record(status string, start time.Time) {
	if e.metrics != nil {
		e.metrics.RecordLLMRequest(e.provider, status, time.Since(start))
	}
}

// ParseList разбирает ответ модели как плоский JSON-массив строк.
// Обёртку ```json ... ``` снимаем; всё остальное (объекты, числа, вложенные массивы) - отказ.
func ParseList(raw string) ([]string, bool) {
	text := StripCodeFence(raw)
	if text == "" {
		return nil, false
	}

	var items []string
	if err := json.Unmarshal([]byte(text), &items); err != nil {
		return nil, false
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
		if len(out) == MaxVariants {
			break
		}
	}
	return out, true
}

func StripCodeFence(raw string) string {
	if m := fenceRe.FindStringSubmatch(raw); m != nil {
		return strings.TrimSpace(m[1])
	}
	return strings.TrimSpace(raw)
}
