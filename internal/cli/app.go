package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"playdash/internal/amqp"
	"playdash/internal/backend"
	"playdash/internal/cache"
	"playdash/internal/config"
	"playdash/internal/dashboard"
	"playdash/internal/log"
	"playdash/internal/normalize"
)

// cacheCleanupInterval is how often expired panel cache entries are swept.
const cacheCleanupInterval = 10 * time.Minute

// App is a ready orchestrator with the resources it owns.
type App struct {
	Config    *config.Config
	Dashboard *dashboard.Orchestrator
	Runs      backend.RunStore
	Queue     *amqp.Client
	Logger    *log.Logger

	backend   *backend.BackendResult
	caches    *cache.Manager
	closeOnce sync.Once
	closeErr  error
}

// AppOptions adjusts Bootstrap.
type AppOptions struct {
	Presenter dashboard.Presenter
	// PublishRefresh routes stale-cache refreshes through the AMQP queue
	// when one is configured, instead of refreshing in process.
	PublishRefresh bool
	Now            func() time.Time
}

// Bootstrap builds the backend, the normalizer and the orchestrator from cfg.
// An unreachable AMQP broker is logged and the app continues without it.
func Bootstrap(ctx context.Context, cfg *config.Config, logger *log.Logger, opts AppOptions) (*App, error) {
	logger = log.OrDiscard(logger)

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	res, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return nil, err
	}

	norm, err := normalize.New(cfg.ImageOrigin, logger.WithComponent(log.ComponentNormalize))
	if err != nil {
		_ = res.Close()
		return nil, fmt.Errorf("normalizer: %w", err)
	}

	app := &App{Config: cfg, Runs: res.Runs, Logger: logger, backend: res}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, refreshing in process", log.FieldError, err.Error())
		} else {
			app.Queue = client
			logger.Info("Initialized AMQP client", "exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
		}
	}

	dopts := dashboard.Options{
		Source:         res.Source,
		Store:          res.Store,
		Normalizer:     norm,
		Policy:         cache.Policy{TTL: cfg.CacheTTL},
		Presenter:      opts.Presenter,
		PanelCacheSize: cfg.PanelCacheSize,
		PanelCacheTTL:  cfg.PanelCacheTTL,
		Now:            opts.Now,
		Logger:         logger,
	}
	if opts.PublishRefresh && app.Queue != nil {
		dopts.Refresher = app.Queue
	}
	app.Dashboard, err = dashboard.New(dopts)
	if err != nil {
		_ = app.Close()
		return nil, err
	}

	app.caches = cache.NewManager(logger.WithComponent(log.ComponentCache))
	for _, c := range app.Dashboard.Caches() {
		app.caches.Register(c)
	}
	app.caches.StartCleanup(cacheCleanupInterval)
	return app, nil
}

// Close waits for background refreshes and releases every resource.
// Calls after the first return the first result.
func (a *App) Close() error {
	a.closeOnce.Do(func() {
		if a.caches != nil {
			a.caches.Stop()
		}
		if a.Dashboard != nil {
			a.Dashboard.Wait()
		}
		var errs []error
		if a.Queue != nil {
			errs = append(errs, a.Queue.Close())
		}
		errs = append(errs, a.backend.Close())
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
