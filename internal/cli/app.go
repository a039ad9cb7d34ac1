package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/aretw0/courselet"
	"github.com/aretw0/courselet/internal/config"
	"github.com/aretw0/courselet/pkg/adapters/memory"
	"github.com/aretw0/courselet/pkg/adapters/postgres"
	"github.com/aretw0/courselet/pkg/adapters/specfile"
	"github.com/aretw0/courselet/pkg/flows"
	"github.com/aretw0/courselet/pkg/live"
	"github.com/aretw0/courselet/pkg/observability"
	"github.com/aretw0/courselet/pkg/ports"
	"github.com/aretw0/courselet/pkg/registry"
	"github.com/aretw0/courselet/pkg/routes"
	"github.com/aretw0/courselet/pkg/session"
)

// App is a fully wired engine with the adapters selected by configuration.
type App struct {
	Engine      *courselet.Engine
	Registry    *registry.Registry
	Coordinator *live.Coordinator
	Catalog     ports.Catalog
	Live        ports.LiveRepository
	Store       ports.SessionStore
	// Metrics is nil when metrics are disabled.
	Metrics *observability.Metrics

	closers []func() error
}

// Build assembles an App from cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *App, err error) {
	app := &App{}
	defer func() {
		if err != nil {
			_ = app.Close()
		}
	}()

	if err := app.openRepositories(ctx, cfg, logger); err != nil {
		return nil, err
	}
	app.Coordinator = live.NewCoordinator(app.Live, live.WithLogger(logger))

	app.Registry, err = NewRegistry(app.Catalog, app.Coordinator, cfg.Engine.Specs, logger)
	if err != nil {
		return nil, err
	}

	persistence, err := OpenStore(cfg, logger)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, persistence.Close)
	app.Store = persistence.Store

	sessOpts := []session.Option{
		session.WithLogger(logger),
		session.WithLockTTL(cfg.Store.LockTTL),
	}
	if persistence.Locker != nil {
		sessOpts = append(sessOpts, session.WithLocker(persistence.Locker))
	}

	engOpts := []courselet.Option{
		courselet.WithLogger(logger),
		courselet.WithDefaultSpec(cfg.Engine.DefaultSpec),
		courselet.WithMaxHops(cfg.Engine.MaxHops),
		courselet.WithEntityResolver(courselet.NewResolver(app.Catalog, app.Live)),
	}
	if cfg.LogLevel() <= slog.LevelDebug {
		engOpts = append(engOpts, courselet.WithLifecycleHooks(observability.LogHooks(logger)))
	}
	if cfg.Metrics.Enabled {
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
		app.Metrics = observability.NewMetrics(reg)
		engOpts = append(engOpts, courselet.WithMetrics(app.Metrics))
	}

	app.Engine, err = courselet.New(app.Registry, session.NewManager(app.Store, sessOpts...), routes.New(nil), engOpts...)
	if err != nil {
		return nil, err
	}
	logger.Info("engine ready",
		"specs", app.Registry.Names(),
		"store", cfg.Store.Backend,
		"postgres", cfg.Postgres.DSN != "",
	)
	return app, nil
}

func (a *App) openRepositories(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Postgres.DSN == "" {
		a.Catalog = memory.NewCatalog()
		a.Live = memory.NewLiveRepository()
		return nil
	}
	pool, err := postgres.NewPool(ctx, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	a.closers = append(a.closers, func() error { pool.Close(); return nil })
	if cfg.Postgres.Migrate {
		if err := postgres.RunMigrations(ctx, pool); err != nil {
			return err
		}
		logger.Info("postgres migrations applied")
	}
	a.Catalog = postgres.NewCatalog(pool)
	a.Live = postgres.NewLiveRepository(pool)
	return nil
}

// NewRegistry loads the built-in specifications plus the YAML files matched
// by patterns.
func NewRegistry(catalog ports.Catalog, coord *live.Coordinator, patterns []string, logger *slog.Logger) (*registry.Registry, error) {
	providers := []registry.Provider{
		flows.Provider(catalog),
		live.Provider(coord),
	}
	if len(patterns) > 0 {
		providers = append(providers, specfile.NewLoader().Provider(patterns...))
	}
	reg, err := registry.New(providers, registry.WithLogger(logger))
	if err != nil {
		return nil, fmt.Errorf("failed to load specifications: %w", err)
	}
	return reg, nil
}

// Close releases every backend connection.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}
