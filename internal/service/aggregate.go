package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/score-lookup/internal/domain"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
	"github.com/kitbuilder587/score-lookup/internal/search"
	"github.com/kitbuilder587/score-lookup/internal/textutil"
)

type AggregatorConfig struct {
	Fanout        int
	SearchTimeout time.Duration
}

// Aggregator прогоняет варианты запроса через поиск окнами по Fanout штук.
// Порядок результата определяется порядком вариантов, а не временем ответа.
type Aggregator struct {
	search  search.SearchClient
	config  AggregatorConfig
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewAggregator(client search.SearchClient, cfg AggregatorConfig, logger *zap.Logger, m *metrics.Metrics) *Aggregator {
	if cfg.Fanout <= 0 {
		cfg.Fanout = 4
	}
	if cfg.SearchTimeout <= 0 {
		cfg.SearchTimeout = 10 * time.Second
	}
	return &Aggregator{
		search:  client,
		config:  cfg,
		logger:  logger,
		metrics: m,
	}
}

// Collect никогда не возвращает ошибку: упавшие варианты просто ничего не добавляют.
func (a *Aggregator) Collect(ctx context.Context, variants []string, settings domain.ModeSettings) []domain.ArchiveResult {
	results := []domain.ArchiveResult{}
	if a.search == nil {
		return results
	}
	if err := settings.Validate(); err != nil {
		a.logger.Warn("invalid mode settings, skipping search",
			zap.Int("quota", settings.Quota),
			zap.Int("per_variant_limit", settings.PerVariantLimit),
			zap.Error(err),
		)
		return results
	}

	seen := make(map[string]struct{})
	fanout := a.config.Fanout

	for start := 0; start < len(variants) && len(results) < settings.Quota; start += fanout {
		if ctx.Err() != nil {
			break
		}

		end := min(start+fanout, len(variants))
		window := variants[start:end]
		slots := make([][]search.SearchResult, len(window))

		var g errgroup.Group
		g.SetLimit(fanout)
		for i, variant := range window {
			g.Go(func() error {
				slots[i] = a.searchOne(ctx, variant, settings.PerVariantLimit)
				return nil
			})
		}
		g.Wait()

	merge:
		for _, slot := range slots {
			for _, r := range slot {
				title := strings.TrimSpace(r.Title)
				if title == "" {
					continue
				}
				if _, dup := seen[title]; dup {
					continue
				}
				seen[title] = struct{}{}
				results = append(results, toArchiveResult(title, r))
				if len(results) >= settings.Quota {
					break merge
				}
			}
		}
	}

	return results
}

func (a *Aggregator) searchOne(ctx context.Context, variant string, limit int) []search.SearchResult {
	ctx, cancel := context.WithTimeout(ctx, a.config.SearchTimeout)
	defer cancel()

	start := time.Now()
	resp, err := a.search.Search(ctx, search.SearchRequest{
		Query:          variant,
		IncludeDomains: []string{search.ArchiveDomain},
		MaxResults:     limit,
	})
	switch {
	case errors.Is(err, search.ErrEmptyResults):
		a.record("empty", start)
		return nil
	case err != nil:
		a.record("error", start)
		a.logger.Warn("variant search failed",
			zap.String("variant", variant),
			zap.Error(err),
		)
		return nil
	}

	a.record("success", start)
	if limit > 0 && len(resp.Results) > limit {
		return resp.Results[:limit]
	}
	return resp.Results
}

func (a *Aggregator) record(status string, start time.Time) {
	if a.metrics != nil {
		a.metrics.RecordSearchRequest(status, time.Since(start))
	}
}

func toArchiveResult(title string, r search.SearchResult) domain.ArchiveResult {
	link := r.URL
	if link == "" {
		link = search.PageURL(title)
	}
	return domain.ArchiveResult{
		Title:   title,
		Snippet: textutil.StripHTML(r.Snippet),
		Link:    link,
	}
}
