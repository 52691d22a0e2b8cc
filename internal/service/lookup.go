package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/score-lookup/internal/copyright"
	"github.com/kitbuilder587/score-lookup/internal/domain"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
	"github.com/kitbuilder587/score-lookup/internal/normalize"
	"github.com/kitbuilder587/score-lookup/internal/oracle"
	"github.com/kitbuilder587/score-lookup/internal/pages"
	"github.com/kitbuilder587/score-lookup/internal/repository"
	"github.com/kitbuilder587/score-lookup/internal/search"
)

const historyTimeout = 3 * time.Second

type LookupService interface {
	Search(ctx context.Context, req *domain.LookupRequest) (*domain.SearchResponse, error)
	CheckPublicDomain(ctx context.Context, req *domain.LookupRequest) (*domain.CheckResponse, error)
	History(ctx context.Context, limit int) ([]domain.LookupRecord, error)
	OracleEnabled() bool
}

type LookupConfig struct {
	Fanout        int
	SearchTimeout time.Duration
	TotalTimeout  time.Duration
}

// LookupServiceDeps - зависимости пайплайна. Expander, Pages и History опциональны.
type LookupServiceDeps struct {
	Search   search.SearchClient
	Pages    *pages.Fetcher
	Expander *oracle.Expander
	Verdicts *copyright.Engine
	History  repository.LookupRepository
	Logger   *zap.Logger
	Metrics  *metrics.Metrics
	Config   LookupConfig
}

type lookupService struct {
	aggregator *Aggregator
	pages      *pages.Fetcher
	expander   *oracle.Expander
	verdicts   *copyright.Engine
	history    repository.LookupRepository
	logger     *zap.Logger
	metrics    *metrics.Metrics
	config     LookupConfig
}

func NewLookupService(deps LookupServiceDeps) LookupService {
	if deps.Config.Fanout <= 0 {
		deps.Config.Fanout = 4
	}
	if deps.Config.TotalTimeout <= 0 {
		deps.Config.TotalTimeout = 45 * time.Second
	}
	if deps.Verdicts == nil {
		deps.Verdicts = copyright.NewEngine()
	}

	return &lookupService{
		aggregator: NewAggregator(deps.Search, AggregatorConfig{
			Fanout:        deps.Config.Fanout,
			SearchTimeout: deps.Config.SearchTimeout,
		}, deps.Logger, deps.Metrics),
		pages:    deps.Pages,
		expander: deps.Expander,
		verdicts: deps.Verdicts,
		history:  deps.History,
		logger:   deps.Logger,
		metrics:  deps.Metrics,
		config:   deps.Config,
	}
}

func (s *lookupService) OracleEnabled() bool {
	return s.expander.Enabled()
}

func (s *lookupService) Search(ctx context.Context, req *domain.LookupRequest) (*domain.SearchResponse, error) {
	startTime := time.Now()
	req.Mode = domain.ModeSearch

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	if err := s.prepare(req, startTime); err != nil {
		return nil, err
	}

	resp := &domain.SearchResponse{
		Query:    req.Text,
		Variants: []string{},
		Results:  []domain.ArchiveResult{},
	}
	if req.IsEmpty() {
		s.recordRequest(req.Mode, "empty", startTime)
		return resp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.TotalTimeout)
	defer cancel()

	resp.Variants = s.variants(ctx, req.Text)
	resp.Results = s.aggregator.Collect(ctx, resp.Variants, req.Mode.Settings())

	s.loggerFor(req).Info("search processed",
		zap.String("query", req.Text),
		zap.Int("variants", len(resp.Variants)),
		zap.Int("results", len(resp.Results)),
	)
	s.recordRequest(req.Mode, "success", startTime)
	s.saveHistory(ctx, req, domain.NewSearchRecord(req, resp))

	return resp, nil
}

func (s *lookupService) CheckPublicDomain(ctx context.Context, req *domain.LookupRequest) (*domain.CheckResponse, error) {
	startTime := time.Now()
	req.Mode = domain.ModePublicDomain

	if s.metrics != nil {
		s.metrics.IncRequestsInFlight()
		defer s.metrics.DecRequestsInFlight()
	}

	if err := s.prepare(req, startTime); err != nil {
		return nil, err
	}

	resp := &domain.CheckResponse{
		Query:    req.Text,
		Variants: []string{},
		Results:  []domain.TitleVerdict{},
	}
	if req.IsEmpty() {
		s.recordRequest(req.Mode, "empty", startTime)
		return resp, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.TotalTimeout)
	defer cancel()

	resp.Variants = s.variants(ctx, req.Text)
	found := s.aggregator.Collect(ctx, resp.Variants, req.Mode.Settings())
	resp.Results = s.assess(ctx, found)

	s.loggerFor(req).Info("public domain check processed",
		zap.String("query", req.Text),
		zap.Int("variants", len(resp.Variants)),
		zap.Int("results", len(resp.Results)),
	)
	s.recordRequest(req.Mode, "success", startTime)
	s.saveHistory(ctx, req, domain.NewCheckRecord(req, resp))

	return resp, nil
}

func (s *lookupService) History(ctx context.Context, limit int) ([]domain.LookupRecord, error) {
	if s.history == nil {
		return []domain.LookupRecord{}, nil
	}
	return s.history.Recent(ctx, domain.ClampHistoryLimit(limit))
}

func (s *lookupService) prepare(req *domain.LookupRequest, startTime time.Time) error {
	if err := req.Validate(); err != nil {
		s.recordRequest(req.Mode, "validation_error", startTime)
		return err
	}
	req.Sanitize()
	return nil
}

// variants запускает нормализатор и оракула параллельно. Варианты оракула идут первыми.
func (s *lookupService) variants(ctx context.Context, query string) []string {
	var normalized, proposed []string

	var g errgroup.Group
	g.Go(func() error {
		normalized = normalize.Variants(query)
		return nil
	})
	g.Go(func() error {
		proposed = s.expander.Expand(ctx, query)
		return nil
	})
	g.Wait()

	return normalize.Merge(proposed, normalized)
}

// assess скачивает страницы параллельно, но раскладывает вердикты по индексам найденных страниц.
func (s *lookupService) assess(ctx context.Context, found []domain.ArchiveResult) []domain.TitleVerdict {
	verdicts := make([]domain.TitleVerdict, len(found))

	var g errgroup.Group
	g.SetLimit(s.config.Fanout)
	for i, r := range found {
		g.Go(func() error {
			facts := copyright.Extract(s.pages.Fetch(ctx, r.Title))
			a := s.verdicts.Assess(facts)
			verdicts[i] = domain.TitleVerdict{
				Title:     r.Title,
				Link:      r.Link,
				Verdict:   a.Verdict,
				Rationale: a.Rationale,
			}
			return nil
		})
	}
	g.Wait()

	if s.metrics != nil {
		for _, v := range verdicts {
			s.metrics.RecordVerdict(v.Verdict.String())
		}
	}
	return verdicts
}

// saveHistory пишет журнал синхронно и не влияет на ответ.
func (s *lookupService) saveHistory(ctx context.Context, req *domain.LookupRequest, rec *domain.LookupRecord) {
	if s.history == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyTimeout)
	defer cancel()

	if err := s.history.Save(ctx, rec); err != nil {
		s.loggerFor(req).Warn("failed to save lookup history",
			zap.String("mode", rec.Mode.String()),
			zap.Error(err),
		)
	}
}

func (s *lookupService) loggerFor(req *domain.LookupRequest) *zap.Logger {
	if req.RequestID == "" {
		return s.logger
	}
	return s.logger.With(zap.String("request_id", req.RequestID))
}

func (s *lookupService) recordRequest(mode domain.Mode, status string, startTime time.Time) {
	if s.metrics != nil {
		s.metrics.RecordRequest(mode.String(), status, time.Since(startTime))
	}
}
