package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	LLMRequestsTotal   *prometheus.CounterVec
	LLMRequestDuration *prometheus.HistogramVec

	SearchRequestsTotal   *prometheus.CounterVec
	SearchRequestDuration *prometheus.HistogramVec

	PageFetchesTotal *prometheus.CounterVec
	VerdictsTotal    *prometheus.CounterVec

	CacheHitsTotal   prometheus.Counter
	CacheMissesTotal prometheus.Counter

	RateLimitHitsTotal *prometheus.CounterVec
}

// New регистрирует метрики в дефолтном реестре. Вызывать один раз на процесс.
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry нужен тестам: у каждого свой реестр, без паники на повторной регистрации
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		RequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_lookup_requests_total",
				Help: "Total number of lookups processed",
			},
			[]string{"mode", "status"},
		),
		RequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "score_lookup_request_duration_seconds",
				Help:    "Lookup duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
			},
			[]string{"mode"},
		),
		RequestsInFlight: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "score_lookup_requests_in_flight",
				Help: "Number of lookups currently being processed",
			},
		),

		LLMRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_lookup_oracle_requests_total",
				Help: "Total number of oracle (LLM) expansion requests",
			},
			[]string{"provider", "status"},
		),
		LLMRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "score_lookup_oracle_request_duration_seconds",
				Help:    "Oracle request duration in seconds",
				Buckets: []float64{0.5, 1, 2, 5, 10, 30},
			},
			[]string{"provider"},
		),

		SearchRequestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_lookup_search_requests_total",
				Help: "Total number of search index requests",
			},
			[]string{"status"},
		),
		SearchRequestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "score_lookup_search_request_duration_seconds",
				Help:    "Search request duration in seconds",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10},
			},
			[]string{},
		),

		PageFetchesTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_lookup_page_fetches_total",
				Help: "Total number of archive page fetches",
			},
			[]string{"status"},
		),
		VerdictsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_lookup_verdicts_total",
				Help: "Verdicts produced, by verdict",
			},
			[]string{"verdict"},
		),

		CacheHitsTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "score_lookup_page_cache_hits_total",
				Help: "Total number of page cache hits",
			},
		),
		CacheMissesTotal: f.NewCounter(
			prometheus.CounterOpts{
				Name: "score_lookup_page_cache_misses_total",
				Help: "Total number of page cache misses",
			},
		),

		RateLimitHitsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "score_lookup_rate_limit_hits_total",
				Help: "Total number of rate limit hits",
			},
			[]string{"channel"},
		),
	}
}

func Handler() http.Handler {
	return promhttp.Handler()
}

func (m *Metrics) RecordRequest(mode, status string, duration time.Duration) {
	m.RequestsTotal.WithLabelValues(mode, status).Inc()
	m.RequestDuration.WithLabelValues(mode).Observe(duration.Seconds())
}

func (m *Metrics) RecordLLMRequest(provider, status string, duration time.Duration) {
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordSearchRequest(status string, duration time.Duration) {
	m.SearchRequestsTotal.WithLabelValues(status).Inc()
	m.SearchRequestDuration.WithLabelValues().Observe(duration.Seconds())
}

func (m *Metrics) RecordPageFetch(status string) {
	m.PageFetchesTotal.WithLabelValues(status).Inc()
}

func (m *Metrics) RecordVerdict(verdict string) {
	m.VerdictsTotal.WithLabelValues(verdict).Inc()
}

func (m *Metrics) RecordCacheHit() {
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) RecordCacheMiss() {
	m.CacheMissesTotal.Inc()
}

// channel - "http" или "telegram"
func (m *Metrics) RecordRateLimitHit(channel string) {
	m.RateLimitHitsTotal.WithLabelValues(channel).Inc()
}

func (m *Metrics) IncRequestsInFlight() {
	m.RequestsInFlight.Inc()
}

func (m *Metrics) DecRequestsInFlight() {
	m.RequestsInFlight.Dec()
}
