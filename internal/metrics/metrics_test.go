package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetrics_Record(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.RecordRequest("pd", "success", 2*time.Second)
	m.RecordRequest("pd", "success", time.Second)
	m.RecordLLMRequest("anthropic", "parse_error", time.Second)
	m.RecordSearchRequest("error", 100*time.Millisecond)
	m.RecordPageFetch("missing")
	m.RecordVerdict("LIKELY_YES")
	m.RecordCacheHit()
	m.RecordRateLimitHit("http")

	if got := testutil.ToFloat64(m.RequestsTotal.WithLabelValues("pd", "success")); got != 2 {
		t.Errorf("requests_total = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.LLMRequestsTotal.WithLabelValues("anthropic", "parse_error")); got != 1 {
		t.Errorf("oracle_requests_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.PageFetchesTotal.WithLabelValues("missing")); got != 1 {
		t.Errorf("page_fetches_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VerdictsTotal.WithLabelValues("LIKELY_YES")); got != 1 {
		t.Errorf("verdicts_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheHitsTotal); got != 1 {
		t.Errorf("cache_hits_total = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.RateLimitHitsTotal.WithLabelValues("http")); got != 1 {
		t.Errorf("rate_limit_hits_total = %v, want 1", got)
	}
}

func TestMetrics_InFlight(t *testing.T) {
	m := NewWithRegistry(prometheus.NewRegistry())

	m.IncRequestsInFlight()
	m.IncRequestsInFlight()
	m.DecRequestsInFlight()

	if got := testutil.ToFloat64(m.RequestsInFlight); got != 1 {
		t.Errorf("in_flight = %v, want 1", got)
	}
}
