package main

import (
	"context"
	"errors"
	"os"
	"time"

	"playdash/internal/amqp"
	"playdash/internal/cli"
	"playdash/internal/log"
	"playdash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	cli.LoadEnvFile()

	logger := cli.SetupLogger(os.Getenv("LOG_LEVEL"))
	logger.Info("Starting playdash-worker")

	cfg, err := cli.LoadAndValidateConfig(logger)
	if err != nil {
		os.Exit(1)
	}

	app, err := cli.Bootstrap(context.Background(), cfg, logger, cli.AppOptions{})
	if err != nil {
		logger.Error("Failed to initialize dashboard", log.FieldError, err.Error())
		os.Exit(1)
	}

	refresher := worker.NewRefreshWorker(app.Dashboard, app.Runs, logger)

	var scheduler *worker.Scheduler
	if cfg.RefreshSchedule != "" {
		scheduler, err = worker.NewScheduler(cfg.RefreshSchedule, cfg.Location(), refresher, cfg.RefreshTimeout, logger)
		if err != nil {
			logger.Error("Failed to create scheduler", log.FieldError, err.Error())
			_ = app.Close()
			os.Exit(1)
		}
	} else {
		logger.Info("Scheduled refresh disabled - no REFRESH_SCHEDULE provided")
	}

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(context.Context) {
		if scheduler != nil {
			scheduler.Stop()
		}
		if err := app.Close(); err != nil {
			logger.Error("Cleanup failed", log.FieldError, err.Error())
		}
	})

	// On startup, refresh once so the cache is warm before the first request.
	startupCtx, cancel := context.WithTimeout(ctx, cfg.RefreshTimeout)
	if err := refresher.RunNow(startupCtx, amqp.ReasonStartup); err != nil {
		logger.Error("Startup refresh failed", log.FieldError, err.Error())
		// Don't exit - the schedule and the queue will retry
	}
	cancel()

	if scheduler != nil {
		scheduler.Start()
	}

	if app.Queue != nil {
		go func() {
			handle := func(ctx context.Context, msg *amqp.RefreshRequest) error {
				ctx, cancel := context.WithTimeout(ctx, cfg.RefreshTimeout)
				defer cancel()
				return refresher.HandleRefreshRequest(ctx, msg)
			}
			if err := app.Queue.ConsumeRefresh(ctx, handle); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
		}()
	} else {
		logger.Info("Skipping AMQP message consumption - no AMQP_URL provided")
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
