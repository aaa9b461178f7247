package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/reelcraft/newsreel/internal/ratelimit"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/logger"
	"go.uber.org/fx"
)

type Opts struct {
	fx.In

	Lc       fx.Lifecycle
	Config   *config.Config
	Logger   logger.Logger
	Renderer renderer.Client
}

type Server struct {
	config   *config.Config
	logger   logger.Logger
	renderer renderer.Client
	limiter  ratelimit.Limiter
}

func New(opts Opts) (*Server, error) {
	s := &Server{
		config:   opts.Config,
		logger:   opts.Logger.WithComponent("Server"),
		renderer: opts.Renderer,
		limiter:  ratelimit.NewInMemoryLimiter(10, time.Minute, 5),
	}

	for _, dir := range []string{opts.Config.Video.OutputDir, opts.Config.Video.UploadDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	for _, sub := range []string{"images", "audio"} {
		if err := os.MkdirAll(filepath.Join(opts.Config.Video.UploadDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create upload dir %s: %w", sub, err)
		}
	}

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", opts.Config.App.Port),
		Handler: s.Handler(),
	}

	opts.Lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			s.logger.Info("Starting HTTP server", "addr", httpServer.Addr)
			go func() {
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					s.logger.Error("HTTP server stopped unexpectedly", "error", err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			s.logger.Info("Stopping HTTP server")
			return httpServer.Shutdown(ctx)
		},
	})

	return s, nil
}

// Handler builds the route tree with CORS on everything and rate limiting
// on the expensive endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("POST /generate", s.rateLimitMiddleware(http.HandlerFunc(s.handleGenerate)))
	mux.HandleFunc("GET /healthz", s.handleHealthz)
	return s.corsMiddleware(mux)
}
