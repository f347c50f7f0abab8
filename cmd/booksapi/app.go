package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"bookshelf-hq/booksapi/pkg/catalogue"
	"bookshelf-hq/booksapi/pkg/catalogue/storage"
	"bookshelf-hq/booksapi/pkg/config"
	"bookshelf-hq/booksapi/pkg/server"
	"bookshelf-hq/booksapi/pkg/telemetry/health"
	"bookshelf-hq/booksapi/pkg/telemetry/metrics"
	"bookshelf-hq/booksapi/pkg/telemetry/tracing"
)

// app holds the components started by the run command.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     catalogue.Store
	service   *catalogue.Service
	metrics   *metrics.Interceptor
	tracer    *tracing.Tracer
	health    *health.Checker
	refresher *catalogue.Refresher
	server    *server.Server
}

// newApp wires storage, telemetry and the HTTP server for cfg. On error
// everything already opened is released.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.close(context.Background())
		}
	}()

	if cfg.Telemetry.Metrics.Enabled {
		a.metrics, err = metrics.NewInterceptor(metrics.NewRegistry(), metrics.Options{
			Namespace:       cfg.Telemetry.Metrics.Namespace,
			DurationBuckets: cfg.Telemetry.Metrics.RequestDurationBuckets,
			Logger:          logger,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}

	if cfg.Telemetry.Tracing.Enabled {
		a.tracer, err = tracing.New(cfg.Telemetry.Tracing, Version)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
	} else {
		a.tracer = tracing.Disabled()
	}

	a.store, err = storage.Open(cfg.Storage)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", cfg.Storage.Backend, err)
	}

	// A nil *Interceptor must not become a non-nil Recorder.
	var rec catalogue.Recorder
	if a.metrics != nil {
		rec = a.metrics
	}
	a.service = catalogue.NewService(a.store, rec, cfg.Storage.Backend)

	if cfg.Storage.Seed {
		n, err := a.service.Seed(ctx, catalogue.SeedBooks)
		if err != nil {
			return nil, fmt.Errorf("failed to seed catalogue: %w", err)
		}
		if n > 0 {
			logger.Info("seeded catalogue", "books", n)
		}
	}
	if _, err := a.service.SyncCount(ctx); err != nil {
		logger.Warn("failed to publish initial book count", "error", err)
	}

	if cfg.Catalogue.RefreshEnabled {
		a.refresher = catalogue.NewRefresher(a.service, cfg.Catalogue.RefreshSchedule)
	}

	a.health = health.New(cfg.Telemetry.Health.CheckTimeout)
	a.health.RegisterCheck("storage", a.service.Ping)

	a.server, err = server.New(cfg, server.Deps{
		Service: a.service,
		Metrics: a.metrics,
		Tracer:  a.tracer,
		Health:  a.health,
		Build:   buildInfo(),
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}

	return a, nil
}

// run starts the background jobs and serves until ctx is canceled.
func (a *app) run(ctx context.Context) error {
	if a.refresher != nil {
		if err := a.refresher.Start(ctx); err != nil {
			return err
		}
		if next := a.refresher.NextRun(); next != nil {
			a.logger.Debug("book count refresher started", "next_run", next)
		}
	}
	return a.server.Start(ctx)
}

// close stops background jobs, flushes spans and closes the store.
func (a *app) close(ctx context.Context) error {
	var errs []error
	if a.refresher != nil {
		a.refresher.Stop()
	}
	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer shutdown: %w", err))
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("store close: %w", err))
		}
	}
	return errors.Join(errs...)
}
