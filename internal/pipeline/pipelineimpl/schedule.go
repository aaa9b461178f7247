package pipelineimpl

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
)

// schedulerLocation keeps job times aligned with the feed the service
// follows, not with wherever the host happens to run.
const schedulerLocation = "Europe/Rome"

func (p *PipelineImpl) location() *time.Location {
	loc, err := time.LoadLocation(schedulerLocation)
	if err != nil {
		loc = time.Local
		p.Logger.Warn("Failed to load timezone, using local timezone", "timezone", schedulerLocation, "error", err)
	}
	return loc
}

// ScheduleRuns starts the periodic pipeline runs.
func (p *PipelineImpl) ScheduleRuns(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(p.location()))
	if err != nil {
		return fmt.Errorf("failed to create pipeline scheduler: %w", err)
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(p.Config.Pipeline.Interval),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				p.Logger.Info("Context cancelled, stopping pipeline runs")
				return
			}

			taskCtx, cancel := context.WithTimeout(ctx, 30*time.Minute)
			defer cancel()

			if err := p.RunOnce(taskCtx); err != nil {
				p.Logger.Error("Pipeline run failed", "error", err)
				p.Publisher.NotifyError(fmt.Sprintf("Pipeline run failed: %v", err))
			}
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule pipeline runs: %w", err)
	}

	scheduler.Start()
	p.Logger.Info("Pipeline runs scheduled", "interval", p.Config.Pipeline.Interval.String())

	go func() {
		<-ctx.Done()
		p.Logger.Info("Stopping pipeline scheduler")
		if err := scheduler.Shutdown(); err != nil {
			p.Logger.Error("Failed to shut down pipeline scheduler", "error", err)
		}
	}()

	return nil
}

// ScheduleCleanup sets up a daily job that evicts expired cache entries and
// deletes render records past the retention window.
func (p *PipelineImpl) ScheduleCleanup(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler(gocron.WithLocation(p.location()))
	if err != nil {
		return fmt.Errorf("failed to create cleanup scheduler: %w", err)
	}

	// Run at 3:00 AM every day
	_, err = scheduler.NewJob(
		gocron.DailyJob(
			1,
			gocron.NewAtTimes(gocron.NewAtTime(3, 0, 0)),
		),
		gocron.NewTask(func() {
			if ctx.Err() != nil {
				p.Logger.Info("Context cancelled, stopping cleanup job")
				return
			}

			p.Logger.Info("Starting scheduled cleanup job")

			cleanupCtx, cancel := context.WithTimeout(ctx, 5*time.Minute)
			defer cancel()

			evicted, err := p.Cache.EvictOlderThan(p.Config.Cache.TTL)
			if err != nil {
				p.Logger.Error("Failed to evict expired cache entries", "error", err)
			} else {
				p.Logger.Info("Cache eviction completed", "entries_evicted", evicted)
			}

			rowsDeleted, err := p.RenderRepo.CleanupOldRecords(cleanupCtx, p.Config.Pipeline.Retention)
			if err != nil {
				p.Logger.Error("Failed to clean up old render records", "error", err)
				return
			}

			p.Logger.Info("Database cleanup completed successfully", "rows_deleted", rowsDeleted)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule cleanup: %w", err)
	}

	scheduler.Start()

	go func() {
		<-ctx.Done()
		p.Logger.Info("Stopping cleanup scheduler")
		if err := scheduler.Shutdown(); err != nil {
			p.Logger.Error("Failed to shut down cleanup scheduler", "error", err)
		}
	}()

	return nil
}
