// Package app wires the state stores, job queue, sandbox and demo
// components into one application context.
package app

import (
	"context"
	"fmt"
	"log"

	"github.com/uncase/dashboard/internal/api"
	"github.com/uncase/dashboard/internal/bootstrap"
	"github.com/uncase/dashboard/internal/bus"
	"github.com/uncase/dashboard/internal/catalog"
	"github.com/uncase/dashboard/internal/config"
	"github.com/uncase/dashboard/internal/demo"
	"github.com/uncase/dashboard/internal/jobs"
	"github.com/uncase/dashboard/internal/kv"
	"github.com/uncase/dashboard/internal/sandbox"
	"github.com/uncase/dashboard/internal/snapshot"
	"github.com/uncase/dashboard/internal/storage"
)

type App struct {
	Config      *config.Config
	KV          kv.Store
	Bus         *bus.Bus
	Store       *snapshot.Store
	Queue       *jobs.Queue
	Sessions    *sandbox.Manager
	Provisioner *sandbox.Provisioner
	Demo        *demo.Activator
	API         *api.Client
	Logger      *log.Logger
}

// Open creates the configured backend and builds the app on it.
func Open(cfg *config.Config, logger *log.Logger) (*App, error) {
	if err := cfg.EnsureDataDir(); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	store, err := OpenStore(cfg)
	if err != nil {
		return nil, err
	}

	a, err := New(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, err
	}
	return a, nil
}

// OpenStore returns the kv backend named by cfg.Store.
func OpenStore(cfg *config.Config) (kv.Store, error) {
	switch cfg.Store {
	case config.StoreSQLite, "":
		s, err := storage.New(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		return s, nil
	case config.StoreFile:
		s, err := kv.NewFileStore(cfg.StateDir())
		if err != nil {
			return nil, fmt.Errorf("failed to open state dir: %w", err)
		}
		return s, nil
	case config.StoreMemory:
		return kv.NewMemory(), nil
	case config.StoreRedis:
		return kv.NewRedisStore(kv.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}), nil
	default:
		return nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}

// New builds the app over an already open store. The app owns store from here on.
func New(cfg *config.Config, store kv.Store, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Default()
	}

	extra, err := catalog.LoadAll(cfg.SeedDirs())
	if err != nil {
		return nil, fmt.Errorf("failed to load seed templates: %w", err)
	}

	b := bus.New()
	snap := snapshot.New(store, b)
	queue := jobs.NewQueue(snap)
	sessions := sandbox.NewManager(snap)

	client := api.New(cfg.APIURL, api.WithBaseURLResolver(func(ctx context.Context) string {
		return sessions.APIURL(ctx, cfg.APIURL)
	}))

	return &App{
		Config:      cfg,
		KV:          store,
		Bus:         b,
		Store:       snap,
		Queue:       queue,
		Sessions:    sessions,
		Provisioner: sandbox.NewProvisioner(api.New(cfg.APIURL), sessions, cfg.SandboxTimeout),
		Demo:        demo.NewActivator(snap, queue, sessions, extra),
		API:         client,
		Logger:      logger,
	}, nil
}

// Bootstrap returns a fresh one-shot bootstrap flow.
func (a *App) Bootstrap(nav bootstrap.Navigator, onStatus func(bootstrap.Status, error)) *bootstrap.Flow {
	return bootstrap.New(bootstrap.Options{
		Store:        a.Store,
		Demo:         a.Demo,
		Sessions:     a.Sessions,
		Navigator:    nav,
		DashboardURL: a.Config.DashboardPath(),
		FetchTimeout: a.Config.SeedFetchTimeout,
		OnStatus:     onStatus,
		Logger:       a.Logger,
	})
}

// Simulator advances jobs only while demo mode is on.
func (a *App) Simulator() *jobs.Simulator {
	sim := jobs.NewSimulator(a.Queue, a.Config.SimInterval, jobs.DefaultSimStep, a.Logger)
	sim.Enabled = a.Demo.IsActive
	return sim
}

// Start launches the background loops: the cross-process change feed,
// the demo job simulator, and the sandbox expiry watcher whose events
// are returned. Everything stops with ctx.
func (a *App) Start(ctx context.Context) <-chan sandbox.Expired {
	if w, ok := a.KV.(kv.Watcher); ok {
		go func() {
			if err := w.Watch(ctx, a.Bus.PublishRemote); err != nil {
				a.Logger.Printf("store watch stopped: %v", err)
			}
		}()
	}

	go a.Simulator().Run(ctx)

	return sandbox.NewWatcher(a.Sessions, sandbox.DefaultWatchInterval, a.Logger).Run(ctx)
}

func (a *App) Close() error {
	return a.KV.Close()
}
