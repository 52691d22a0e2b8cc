package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/cache/memory"
	"github.com/kitbuilder587/score-lookup/internal/config"
	"github.com/kitbuilder587/score-lookup/internal/copyright"
	"github.com/kitbuilder587/score-lookup/internal/llm"
	"github.com/kitbuilder587/score-lookup/internal/llm/anthropic"
	"github.com/kitbuilder587/score-lookup/internal/llm/gemini"
	"github.com/kitbuilder587/score-lookup/internal/llm/gigachat"
	"github.com/kitbuilder587/score-lookup/internal/llm/openrouter"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
	"github.com/kitbuilder587/score-lookup/internal/oracle"
	"github.com/kitbuilder587/score-lookup/internal/pages"
	"github.com/kitbuilder587/score-lookup/internal/repository"
	"github.com/kitbuilder587/score-lookup/internal/repository/postgres"
	"github.com/kitbuilder587/score-lookup/internal/repository/sqlite"
	"github.com/kitbuilder587/score-lookup/internal/search"
	"github.com/kitbuilder587/score-lookup/internal/search/imslp"
	"github.com/kitbuilder587/score-lookup/internal/search/tavily"
	"github.com/kitbuilder587/score-lookup/internal/service"
)

// app - собранный пайплайн и всё, что надо закрыть при выходе.
type app struct {
	svc     service.LookupService
	closers []func()
}

func newApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{}

	client, err := newLLMClient(ctx, cfg.Oracle, logger)
	if err != nil {
		return nil, err
	}
	expander := oracle.New(client, oracle.Config{
		Provider: cfg.Oracle.Provider,
		Timeout:  cfg.Oracle.Timeout,
	}, logger, m)

	archive := imslp.New(imslp.Config{
		BaseURL:        cfg.Search.IMSLP.BaseURL,
		Timeout:        cfg.Timeouts.Search,
		RequestsPerSec: cfg.Search.IMSLP.RequestsPerSec,
	}, logger)

	var searchClient search.SearchClient = archive
	if cfg.Search.Backend == config.BackendTavily {
		searchClient = tavily.New(tavily.Config{
			APIKey:  cfg.Search.Tavily.APIKey,
			BaseURL: cfg.Search.Tavily.BaseURL,
			Timeout: cfg.Timeouts.Search,
		}, logger)
	}

	var source pages.Source = archive
	if cfg.Cache.TTL > 0 {
		pageCache := memory.NewWithContext(ctx, memory.Options{})
		a.closers = append(a.closers, pageCache.Stop)
		source = pages.NewCachedSource(source, pageCache, cfg.Cache.TTL, m)
		logger.Info("page cache enabled", zap.Duration("ttl", cfg.Cache.TTL))
	}

	history, err := openHistory(ctx, cfg.History, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if history != nil {
		a.closers = append(a.closers, func() {
			if err := history.Close(); err != nil {
				logger.Warn("failed to close history", zap.Error(err))
			}
		})
	}

	a.svc = service.NewLookupService(service.LookupServiceDeps{
		Search:   searchClient,
		Pages:    pages.NewFetcher(source, cfg.Timeouts.Page, logger, m),
		Expander: expander,
		Verdicts: copyright.NewEngine(),
		History:  history,
		Logger:   logger,
		Metrics:  m,
		Config: service.LookupConfig{
			Fanout:        cfg.Search.Fanout,
			SearchTimeout: cfg.Timeouts.Search,
			TotalTimeout:  cfg.Timeouts.Total,
		},
	})

	return a, nil
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

// newLLMClient возвращает nil без ошибки, если у выбранного провайдера нет ключа.
func newLLMClient(ctx context.Context, cfg config.OracleConfig, logger *zap.Logger) (llm.Client, error) {
	if cfg.Provider == config.OracleNone || cfg.OracleAPIKey() == "" {
		logger.Info("oracle disabled, using normalizer variants only",
			zap.String("provider", cfg.Provider),
		)
		return nil, nil
	}

	switch cfg.Provider {
	case config.OracleAnthropic:
		return anthropic.New(anthropic.Config{
			APIKey:  cfg.Anthropic.APIKey,
			Model:   cfg.Anthropic.Model,
			BaseURL: cfg.Anthropic.BaseURL,
			Timeout: cfg.Timeout,
		}, logger), nil
	case config.OracleOpenRouter:
		return openrouter.New(openrouter.Config{
			APIKey:  cfg.OpenRouter.APIKey,
			Model:   cfg.OpenRouter.Model,
			BaseURL: cfg.OpenRouter.BaseURL,
			Timeout: cfg.Timeout,

			FallbackModels: cfg.OpenRouter.FallbackModels,
		}, logger), nil
	case config.OracleGemini:
		client, err := gemini.New(ctx, gemini.Config{
			APIKey:  cfg.Gemini.APIKey,
			Model:   cfg.Gemini.Model,
			Timeout: cfg.Timeout,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("init gemini: %w", err)
		}
		return client, nil
	case config.OracleGigaChat:
		return gigachat.New(gigachat.Config{
			AuthKey:            cfg.GigaChat.AuthKey,
			Scope:              cfg.GigaChat.Scope,
			Model:              cfg.GigaChat.Model,
			Timeout:            cfg.Timeout,
			InsecureSkipVerify: cfg.GigaChat.InsecureSkipVerify,
		}, logger), nil
	default:
		return nil, config.ErrUnknownOracleProvider
	}
}

// openHistory возвращает nil, если журнал не настроен.
func openHistory(ctx context.Context, cfg config.HistoryConfig, logger *zap.Logger) (repository.LookupRepository, error) {
	kind, target, err := cfg.Backend()
	if err != nil {
		return nil, err
	}

	switch kind {
	case config.HistoryPostgres:
		db, err := postgres.New(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("connect history database: %w", err)
		}
		if err := db.Migrate(ctx); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate history database: %w", err)
		}
		logger.Info("lookup history enabled", zap.String("backend", kind))
		return postgres.NewLookupRepo(db), nil
	case config.HistorySQLite:
		repo, err := sqlite.Open(ctx, target)
		if err != nil {
			return nil, fmt.Errorf("open history database: %w", err)
		}
		logger.Info("lookup history enabled", zap.String("backend", kind), zap.String("path", target))
		return repo, nil
	default:
		logger.Info("lookup history disabled")
		return nil, nil
	}
}
