package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/kitbuilder587/score-lookup/internal/metrics"
	"github.com/kitbuilder587/score-lookup/internal/ratelimit"
	"github.com/kitbuilder587/score-lookup/internal/service"
)

type Options struct {
	Addr          string
	Version       string
	SearchBackend string
}

type Server struct {
	svc     service.LookupService
	limiter *ratelimit.Limiter
	logger  *zap.Logger
	metrics *metrics.Metrics
	opts    Options
	server  *http.Server
}

// NewServer: limiter и metrics могут быть nil.
func NewServer(svc service.LookupService, limiter *ratelimit.Limiter, opts Options, logger *zap.Logger, m *metrics.Metrics) *Server {
	if opts.Addr == "" {
		opts.Addr = ":8080"
	}
	s := &Server{
		svc:     svc,
		limiter: limiter,
		logger:  logger,
		metrics: m,
		opts:    opts,
	}
	s.server = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /api/search", s.limited(s.handleSearch))
	mux.HandleFunc("GET /api/pd", s.limited(s.handlePublicDomain))
	mux.HandleFunc("POST /api/check", s.limited(s.handleCheck))
	mux.HandleFunc("GET /api/history", s.handleHistory)
	mux.HandleFunc("GET /api/health", s.handleHealth)
	mux.Handle("GET /metrics", metrics.Handler())

	return s.withRequestID(mux)
}

// Run слушает до отмены ctx, потом даёт текущим запросам 10 секунд на завершение.
func (s *Server) Run(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("api listen: %w", err)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.server.Serve(listener)
	}()

	s.logger.Info("http api listening", zap.String("address", listener.Addr().String()))

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	return nil
}
