package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/domain"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
	"github.com/kitbuilder587/score-lookup/internal/search"
	searchMock "github.com/kitbuilder587/score-lookup/internal/search/mock"
)

// slowSearch отвечает с задержкой, своей для каждого варианта
type slowSearch struct {
	mu      sync.Mutex
	delays  map[string]time.Duration
	results map[string][]search.SearchResult
	calls   []string
}

func (s *slowSearch) Search(ctx context.Context, req search.SearchRequest) (*search.SearchResponse, error) {
	s.mu.Lock()
	s.calls = append(s.calls, req.Query)
	delay := s.delays[req.Query]
	results := s.results[req.Query]
	s.mu.Unlock()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-time.After(delay):
	}
	if len(results) == 0 {
		return nil, search.ErrEmptyResults
	}
	return &search.SearchResponse{Query: req.Query, Results: results}, nil
}

func titles(rs []domain.ArchiveResult) []string {
	out := make([]string, len(rs))
	for i, r := range rs {
		out[i] = r.Title
	}
	return out
}

func results(names ...string) []search.SearchResult {
	out := make([]search.SearchResult, len(names))
	for i, n := range names {
		out[i] = search.SearchResult{Title: n, URL: search.PageURL(n)}
	}
	return out
}

func TestAggregator_QuotaAndUniqueness(t *testing.T) {
	client := searchMock.New().
		WithQueryResults("a", results("T1", "T2", "T3")).
		WithQueryResults("b", results("T2", "T4", "T5")).
		WithQueryResults("c", results("T6", "T1", "T7"))

	tests := []struct {
		name     string
		settings domain.ModeSettings
		want     []string
	}{
		{"quota cuts mid window", domain.ModeSettings{Quota: 4, PerVariantLimit: 3}, []string{"T1", "T2", "T3", "T4"}},
		{"per-variant limit", domain.ModeSettings{Quota: 10, PerVariantLimit: 1}, []string{"T1", "T2", "T6"}},
		{"all unique titles", domain.ModeSettings{Quota: 10, PerVariantLimit: 3}, []string{"T1", "T2", "T3", "T4", "T5", "T6", "T7"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg := NewAggregator(client, AggregatorConfig{Fanout: 2}, zap.NewNop(), nil)
			got := agg.Collect(context.Background(), []string{"a", "b", "c"}, tt.settings)

			assert.Equal(t, tt.want, titles(got))
			assert.LessOrEqual(t, len(got), tt.settings.Quota)
		})
	}
}

func TestAggregator_AllFail(t *testing.T) {
	m := metrics.NewWithRegistry(prometheus.NewRegistry())
	client := searchMock.New().WithError(search.ErrSearchFailed)
	agg := NewAggregator(client, AggregatorConfig{Fanout: 4}, zap.NewNop(), m)

	got := agg.Collect(context.Background(), []string{"a", "b", "c"}, domain.ModeSearch.Settings())

	require.NotNil(t, got)
	assert.Empty(t, got)
	assert.Equal(t, 3.0, testutil.ToFloat64(m.SearchRequestsTotal.WithLabelValues("error")))
}

func TestAggregator_PartialFailure(t *testing.T) {
	client := searchMock.New().
		WithQueryError("a", errors.New("connection reset")).
		WithQueryResults("b", results("T1")).
		WithQueryError("c", search.ErrRateLimit).
		WithQueryResults("d", results("T2"))

	agg := NewAggregator(client, AggregatorConfig{Fanout: 2}, zap.NewNop(), nil)
	got := agg.Collect(context.Background(), []string{"a", "b", "c", "d"}, domain.ModeSearch.Settings())

	assert.Equal(t, []string{"T1", "T2"}, titles(got))
}

func TestAggregator_OrderIndependentOfArrival(t *testing.T) {
	client := &slowSearch{
		delays: map[string]time.Duration{"first": 60 * time.Millisecond, "second": 0},
		results: map[string][]search.SearchResult{
			"first":  results("Slow", "Shared"),
			"second": results("Shared", "Fast"),
		},
	}

	agg := NewAggregator(client, AggregatorConfig{Fanout: 2}, zap.NewNop(), nil)
	got := agg.Collect(context.Background(), []string{"first", "second"}, domain.ModeSettings{Quota: 10, PerVariantLimit: 5})

	assert.Equal(t, []string{"Slow", "Shared", "Fast"}, titles(got))
}

func TestAggregator_StopsAfterQuota(t *testing.T) {
	client := searchMock.New()
	variants := make([]string, 6)
	for i := range variants {
		variants[i] = fmt.Sprintf("v%d", i)
		client.WithQueryResults(variants[i], results(fmt.Sprintf("T%d-a", i), fmt.Sprintf("T%d-b", i)))
	}

	agg := NewAggregator(client, AggregatorConfig{Fanout: 2}, zap.NewNop(), nil)
	got := agg.Collect(context.Background(), variants, domain.ModeSettings{Quota: 4, PerVariantLimit: 2})

	assert.Len(t, got, 4)
	assert.Equal(t, 2, client.CallCount, "second window must not start once quota is met")
}

func TestAggregator_SearchTimeout(t *testing.T) {
	client := &slowSearch{
		delays: map[string]time.Duration{"stuck": time.Second},
		results: map[string][]search.SearchResult{
			"stuck": results("Never"),
			"ok":    results("Found"),
		},
	}

	agg := NewAggregator(client, AggregatorConfig{Fanout: 2, SearchTimeout: 30 * time.Millisecond}, zap.NewNop(), nil)

	start := time.Now()
	got := agg.Collect(context.Background(), []string{"stuck", "ok"}, domain.ModeSearch.Settings())

	assert.Equal(t, []string{"Found"}, titles(got))
	assert.Less(t, time.Since(start), 500*time.Millisecond)
}

func TestAggregator_SnippetAndLink(t *testing.T) {
	client := searchMock.New().WithResults([]search.SearchResult{
		{Title: " Poème, Op.25 (Chausson, Ernest) ", Snippet: `<span class="searchmatch">Poème</span> for violin &amp; orchestra`},
	})

	agg := NewAggregator(client, AggregatorConfig{}, zap.NewNop(), nil)
	got := agg.Collect(context.Background(), []string{"chausson poeme"}, domain.ModeSearch.Settings())

	require.Len(t, got, 1)
	assert.Equal(t, "Poème, Op.25 (Chausson, Ernest)", got[0].Title)
	assert.Equal(t, "Poème for violin & orchestra", got[0].Snippet)
	assert.Equal(t, search.PageURL("Poème, Op.25 (Chausson, Ernest)"), got[0].Link)
}

func TestAggregator_NoVariants(t *testing.T) {
	agg := NewAggregator(searchMock.New(), AggregatorConfig{}, zap.NewNop(), nil)
	got := agg.Collect(context.Background(), nil, domain.ModeSearch.Settings())
	assert.Empty(t, got)
}

func TestAggregator_InvalidSettings(t *testing.T) {
	client := &slowSearch{results: map[string][]search.SearchResult{"q": results("T1")}}
	agg := NewAggregator(client, AggregatorConfig{}, zap.NewNop(), nil)

	for _, s := range []domain.ModeSettings{
		{Quota: 0, PerVariantLimit: 3},
		{Quota: 51, PerVariantLimit: 3},
		{Quota: 5, PerVariantLimit: 0},
	} {
		got := agg.Collect(context.Background(), []string{"q"}, s)
		assert.Empty(t, got)
	}
	assert.Empty(t, client.calls)
}
