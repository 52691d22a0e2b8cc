package pages

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/cache"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
)

var ErrNotFound = errors.New("page not found")

// Source отдаёт сырую вики-разметку страницы по каноническому названию.
type Source interface {
	Content(ctx context.Context, title string) (string, error)
}

type Fetcher struct {
	source  Source
	timeout time.Duration
	logger  *zap.Logger
	metrics *metrics.Metrics
}

func NewFetcher(source Source, timeout time.Duration, logger *zap.Logger, m *metrics.Metrics) *Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Fetcher{
		source:  source,
		timeout: timeout,
		logger:  logger,
		metrics: m,
	}
}

// Fetch никогда не возвращает ошибку: любая неудача означает "страницы нет".
func (f *Fetcher) Fetch(ctx context.Context, title string) (string, bool) {
	if f == nil || f.source == nil || strings.TrimSpace(title) == "" {
		return "", false
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	content, err := f.source.Content(ctx, title)
	switch {
	case errors.Is(err, ErrNotFound):
		f.record("not_found")
		f.logger.Debug("page not found", zap.String("title", title))
		return "", false
	case err != nil:
		f.record("error")
		f.logger.Debug("page fetch failed", zap.String("title", title), zap.Error(err))
		return "", false
	case strings.TrimSpace(content) == "":
		f.record("empty")
		return "", false
	}

	f.record("success")
	return content, true
}

func (f *Fetcher) record(status string) {
	if f.metrics != nil {
		f.metrics.RecordPageFetch(status)
	}
}

type cachedSource struct {
	source  Source
	cache   cache.Cache
	ttl     time.Duration
	metrics *metrics.Metrics
}

// NewCachedSource кеширует только успешные ответы. При ttl <= 0 возвращает source как есть.
func NewCachedSource(source Source, c cache.Cache, ttl time.Duration, m *metrics.Metrics) Source {
	if c == nil || ttl <= 0 {
		return source
	}
	return &cachedSource{source: source, cache: c, ttl: ttl, metrics: m}
}

func (s *cachedSource) Content(ctx context.Context, title string) (string, error) {
	key := "page:" + title
	if content, ok := s.cache.Get(key); ok {
		if s.metrics != nil {
			s.metrics.RecordCacheHit()
		}
		return content, nil
	}
	if s.metrics != nil {
		s.metrics.RecordCacheMiss()
	}

	content, err := s.source.Content(ctx, title)
	if err != nil {
		return "", err
	}
	s.cache.Set(key, content, s.ttl)
	return content, nil
}
