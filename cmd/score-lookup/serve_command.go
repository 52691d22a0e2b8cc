package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kitbuilder587/score-lookup/internal/api"
	"github.com/kitbuilder587/score-lookup/internal/config"
	"github.com/kitbuilder587/score-lookup/internal/metrics"
	"github.com/kitbuilder587/score-lookup/internal/ratelimit"
	"github.com/kitbuilder587/score-lookup/internal/telegram"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API (and the Telegram bot when a token is configured)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), ctx)
		},
	}
}

func runServe(cmdCtx context.Context, ctx *commandContext) error {
	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := ctx.ensureConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := config.NewLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer logger.Sync()

	m := metrics.New()

	a, err := newApp(signalCtx, cfg, logger, m)
	if err != nil {
		return err
	}
	defer a.Close()

	limiter := ratelimit.New(ratelimit.Config{RequestsPerMinute: cfg.RateLimit.RequestsPerMinute})
	defer limiter.Stop()

	server := api.NewServer(a.svc, limiter, api.Options{
		Addr:          cfg.HTTP.Addr,
		Version:       version,
		SearchBackend: cfg.Search.Backend,
	}, logger, m)

	g, gctx := errgroup.WithContext(signalCtx)
	g.Go(func() error {
		return server.Run(gctx)
	})

	if cfg.Telegram.Token != "" {
		bot, err := telegram.New(telegram.BotConfig{
			Token:             cfg.Telegram.Token,
			RequestsPerMinute: cfg.RateLimit.RequestsPerMinute,
		}, a.svc, logger, m)
		if err != nil {
			cancel()
			_ = g.Wait()
			return err
		}
		g.Go(func() error {
			return bot.Run(gctx)
		})
	} else {
		logger.Info("telegram bot disabled, TELEGRAM_BOT_TOKEN is empty")
	}

	logger.Info("score-lookup started",
		zap.String("version", version),
		zap.String("search_backend", cfg.Search.Backend),
		zap.Bool("oracle", a.svc.OracleEnabled()),
	)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		err = nil
	}
	logger.Info("score-lookup stopped")
	return err
}
