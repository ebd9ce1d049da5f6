// Package app wires configuration, storage, localization, metrics and the
// reference flows into a ready Router.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"

	"github.com/aretw0/arbor/internal/compiler"
	"github.com/aretw0/arbor/internal/config"
	"github.com/aretw0/arbor/internal/flows"
	"github.com/aretw0/arbor/internal/logging"
	"github.com/aretw0/arbor/internal/runtime"
	"github.com/aretw0/arbor/internal/validator"
	"github.com/aretw0/arbor/pkg/adapters/i18n"
	"github.com/aretw0/arbor/pkg/adapters/memory"
	"github.com/aretw0/arbor/pkg/adapters/redis"
	"github.com/aretw0/arbor/pkg/adapters/sqlite"
	"github.com/aretw0/arbor/pkg/domain"
	"github.com/aretw0/arbor/pkg/observability"
	"github.com/aretw0/arbor/pkg/persistence/middleware"
	"github.com/aretw0/arbor/pkg/ports"
	"github.com/aretw0/arbor/pkg/router"
	"github.com/aretw0/arbor/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// App is a fully wired engine.
type App struct {
	Config    config.Config
	Logger    *slog.Logger
	Router    *router.Router
	Engine    *runtime.Engine
	Sessions  *session.Manager
	Messenger ports.Messenger
	Dialogs   map[int]*domain.Dialog

	registry *prometheus.Registry
	closers  []func() error
}

type options struct {
	messenger ports.Messenger
	logger    *slog.Logger
}

// Option configures New.
type Option func(*options)

// WithMessenger sets the delivery channel. The default is an in-memory outbox.
func WithMessenger(m ports.Messenger) Option {
	return func(o *options) {
		o.messenger = m
	}
}

// WithLogger overrides the logger built from the config.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// New builds the application. Close releases what it opened.
func New(ctx context.Context, cfg config.Config, opts ...Option) (a *App, err error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = NewLogger(cfg.Log)
	}
	if o.messenger == nil {
		o.messenger = memory.NewMessenger()
	}

	a = &App{
		Config:    cfg,
		Logger:    o.logger,
		Messenger: o.messenger,
		registry:  prometheus.NewRegistry(),
	}
	defer func() {
		if err != nil {
			_ = a.Close()
		}
	}()

	if a.Dialogs, err = LoadDialogs(cfg.Dialogs.Dir); err != nil {
		return nil, err
	}

	store, locker, data, err := a.openStorage(ctx)
	if err != nil {
		return nil, err
	}
	if cfg.Store.EncryptionKey != "" {
		keys, err := middleware.ParseKeys(cfg.Store.EncryptionKey, cfg.Store.FallbackKeys...)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		encrypt, err := middleware.NewEncryptionMiddleware(keys)
		if err != nil {
			return nil, fmt.Errorf("store.encryption_key: %w", err)
		}
		store = middleware.Chain(store, encrypt)
	}

	resolver, err := NewResolver(cfg.Locale, a.Logger)
	if err != nil {
		return nil, err
	}

	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics, err := observability.NewMetrics(a.registry)
	if err != nil {
		return nil, err
	}
	hooks := observability.Chain(observability.LogHooks(a.Logger), metrics.Hooks())

	sessionOpts := []session.Option{session.WithLogger(a.Logger)}
	if cfg.Store.LockTTL > 0 {
		sessionOpts = append(sessionOpts, session.WithLockTTL(cfg.Store.LockTTL))
	}
	if locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(locker))
	}
	a.Sessions = session.NewManager(store, sessionOpts...)

	deps := flows.Deps{
		Profiles: data.profiles,
		Catalog:  data.catalog,
		PageSize: cfg.Engine.PageSize,
		Dialogs:  a.Dialogs,
	}
	a.Engine = runtime.NewEngine(a.Sessions, a.Messenger, flows.Callbacks(deps),
		runtime.WithLogger(a.Logger),
		runtime.WithLifecycleHooks(hooks),
		runtime.WithTextResolver(resolver),
		runtime.WithRouteID(cfg.Engine.RouteID),
		runtime.WithDefaultScreen(cfg.Engine.DefaultScreen),
		runtime.WithBackLabel(cfg.Engine.BackLabel),
	)

	screens, err := flows.Screens(deps)
	if err != nil {
		return nil, err
	}
	a.Router = router.New(a.Sessions, a.Engine, screens,
		router.WithDefaultScreen(cfg.Engine.DefaultScreen),
		router.WithApologyKey(cfg.Engine.ApologyKey),
		router.WithBackLabel(cfg.Engine.BackLabel),
		router.WithLogger(a.Logger),
		router.WithEventObserver(metrics.ObserveEvent),
	)

	a.Logger.Info("Arbor ready",
		"store", cfg.Store.Driver,
		"dialogs", len(a.Dialogs),
		"locale", cfg.Locale.Default,
		"encrypted", cfg.Store.EncryptionKey != "",
	)
	return a, nil
}

// MetricsHandler serves the application's Prometheus registry.
func (a *App) MetricsHandler() http.Handler {
	return promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{Registry: a.registry})
}

// Close releases storage connections in reverse opening order.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	a.closers = nil
	return errors.Join(errs...)
}

type dataSources struct {
	profiles ports.ProfileRepository
	catalog  ports.CatalogSource
}

// openStorage picks the session store and the durable data sources.
// Redis holds sessions only; profiles and the catalog then live in SQLite.
func (a *App) openStorage(ctx context.Context) (ports.SessionStore, ports.DistributedLocker, dataSources, error) {
	cfg := a.Config.Store
	switch cfg.Driver {
	case config.DriverMemory:
		sample, err := flows.SampleCatalog()
		if err != nil {
			return nil, nil, dataSources{}, err
		}
		return memory.NewStore(), nil, dataSources{
			profiles: memory.NewProfiles(),
			catalog:  memory.Catalog(sample),
		}, nil

	case config.DriverSQLite:
		db, data, err := a.openSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, dataSources{}, err
		}
		store, err := sqlite.NewStore(db)
		if err != nil {
			return nil, nil, dataSources{}, err
		}
		return store, nil, data, nil

	case config.DriverRedis:
		store := redis.New(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB,
			redis.WithPrefix(cfg.RedisPrefix),
			redis.WithTTL(cfg.TTL),
		)
		a.closers = append(a.closers, store.Close)
		if err := store.Client().Ping(ctx).Err(); err != nil {
			return nil, nil, dataSources{}, fmt.Errorf("connect redis %s: %w", cfg.RedisAddr, err)
		}
		locker := redis.NewLocker(store.Client(), cfg.RedisPrefix+"lock:")
		_, data, err := a.openSQLite(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, nil, dataSources{}, err
		}
		return store, locker, data, nil
	}
	return nil, nil, dataSources{}, fmt.Errorf("unknown store driver %q", cfg.Driver)
}

func (a *App) openSQLite(ctx context.Context, path string) (*sql.DB, dataSources, error) {
	db, err := sqlite.Open(path)
	if err != nil {
		return nil, dataSources{}, err
	}
	a.closers = append(a.closers, db.Close)

	profiles, err := sqlite.NewProfiles(db)
	if err != nil {
		return nil, dataSources{}, err
	}
	cat, err := sqlite.NewCatalog(db)
	if err != nil {
		return nil, dataSources{}, err
	}
	sample, err := flows.SampleCatalog()
	if err != nil {
		return nil, dataSources{}, err
	}
	seeded, err := cat.Seed(ctx, sample)
	if err != nil {
		return nil, dataSources{}, fmt.Errorf("seed catalog: %w", err)
	}
	if seeded {
		a.Logger.Info("Seeded empty catalog with sample data", "path", path)
	}
	return db, dataSources{profiles: profiles, catalog: cat}, nil
}

// NewLogger builds the process logger from the log config.
func NewLogger(cfg config.LogConfig) *slog.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Format == "json" {
		return logging.NewJSON(os.Stderr, level)
	}
	return logging.New(level)
}

// NewResolver loads the bundled locales, then cfg.Dir on top of them.
func NewResolver(cfg config.LocaleConfig, logger *slog.Logger) (*i18n.Resolver, error) {
	bundle, err := i18n.NewBundle(cfg.Default, i18n.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	bundled, err := fs.Sub(flows.Locales, "locales")
	if err != nil {
		return nil, err
	}
	if err := bundle.LoadFS(bundled); err != nil {
		return nil, fmt.Errorf("bundled locales: %w", err)
	}
	if cfg.Dir != "" {
		if err := bundle.LoadDir(cfg.Dir); err != nil {
			return nil, err
		}
	}
	return bundle.Resolver(cfg.Default), nil
}

// LoadDialogs converts and checks every dialog document in dir. An empty dir loads nothing.
func LoadDialogs(dir string) (map[int]*domain.Dialog, error) {
	out := make(map[int]*domain.Dialog)
	if dir == "" {
		return out, nil
	}
	dialogs, err := compiler.NewConverter().ConvertDir(dir)
	if err != nil {
		return nil, err
	}
	for _, d := range dialogs {
		if err := validator.ValidateDialog(d); err != nil {
			return nil, fmt.Errorf("dialog %d: %w", d.ID, err)
		}
		out[d.ID] = d
	}
	return out, nil
}
