package app

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"go.uber.org/fx"

	"github.com/reelcraft/newsreel/internal/cache"
	_ "github.com/reelcraft/newsreel/internal/migrations"
	"github.com/reelcraft/newsreel/internal/newswire"
	"github.com/reelcraft/newsreel/internal/newswire/newswireimpl"
	"github.com/reelcraft/newsreel/internal/pipeline"
	"github.com/reelcraft/newsreel/internal/pipeline/pipelineimpl"
	"github.com/reelcraft/newsreel/internal/publisher/telegramimpl"
	"github.com/reelcraft/newsreel/internal/renderer"
	"github.com/reelcraft/newsreel/internal/renderer/rendererimpl"
	repositories "github.com/reelcraft/newsreel/internal/repositories/fx"
	"github.com/reelcraft/newsreel/internal/server"
	"github.com/reelcraft/newsreel/internal/studio"
	"github.com/reelcraft/newsreel/internal/studio/studioimpl"
	"github.com/reelcraft/newsreel/pkg/config"
	"github.com/reelcraft/newsreel/pkg/executor"
	"github.com/reelcraft/newsreel/pkg/logger"
	"github.com/reelcraft/newsreel/pkg/pgx"
)

var Module = fx.Options(
	fx.Provide(
		config.New,
		logger.FxOption,
		pgx.New,
		executor.New,
		cache.New,
	),
	fx.Provide(
		fx.Annotate(
			rendererimpl.New,
			fx.As(new(renderer.Client)),
		),
		fx.Annotate(
			newswireimpl.New,
			fx.As(new(newswire.Client)),
		),
		fx.Annotate(
			studioimpl.New,
			fx.As(new(studio.Client)),
		),
		fx.Annotate(
			pipelineimpl.New,
			fx.As(new(pipeline.Client)),
		),
		telegramimpl.NewClient,
	),
	repositories.Module,
	fx.Invoke(migrate),
	fx.Invoke(server.New),
	fx.Invoke(run),
)

func migrate(cfg *config.Config, log logger.Logger) error {
	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}

	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := goose.Up(db, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	log.Info("Database migrations applied")
	return nil
}

func run(lc fx.Lifecycle, log logger.Logger, cfg *config.Config, rendererClient renderer.Client, pipelineClient pipeline.Client) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if err := rendererClient.CheckBinaries(ctx); err != nil {
				return err
			}

			if !cfg.Pipeline.Enabled {
				log.Info("Pipeline disabled, serving render requests only")
				return nil
			}

			schedulerCtx := context.Background()
			if err := pipelineClient.ScheduleRuns(schedulerCtx); err != nil {
				log.Error("Failed to schedule pipeline runs", "error", err)
				return err
			}
			if err := pipelineClient.ScheduleCleanup(schedulerCtx); err != nil {
				log.Error("Failed to schedule cleanup", "error", err)
				return err
			}
			return nil
		},
	})
}
