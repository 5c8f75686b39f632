// Package control wires the API client and its supporting services from
// configuration and manages their lifecycle.
package control

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/vietddude/paydash/internal/api"
	"github.com/vietddude/paydash/internal/core/activity"
	"github.com/vietddude/paydash/internal/core/config"
	"github.com/vietddude/paydash/internal/core/domain"
	"github.com/vietddude/paydash/internal/core/events"
	"github.com/vietddude/paydash/internal/core/worker"
	"github.com/vietddude/paydash/internal/health"
	redisclient "github.com/vietddude/paydash/internal/infra/redis"
	"github.com/vietddude/paydash/internal/infra/session"
	"github.com/vietddude/paydash/internal/infra/storage"
	"github.com/vietddude/paydash/internal/infra/storage/memory"
	"github.com/vietddude/paydash/internal/infra/storage/postgres"
	"github.com/vietddude/paydash/internal/infra/transport"
)

// App holds the wired client and everything around it.
type App struct {
	cfg *config.AppConfig

	Bus       *events.Bus
	Activity  *activity.Counter
	Tokens    session.Store
	Transport *transport.HTTPTransport
	Client    *api.Client
	Failures  storage.FailureRepository
	Health    *health.Monitor

	prober       *health.Prober
	pruner       *worker.Pruner
	healthServer *health.Server
	db           *postgres.DB
	redisClient  *redisclient.Client
	log          *slog.Logger
}

// New creates an App with all dependencies initialized.
func New(ctx context.Context, cfg *config.AppConfig) (*App, error) {
	a := &App{
		cfg: cfg,
		log: slog.Default().With("component", "control"),
	}

	// 1. Failure journal
	if cfg.Database.URL != "" {
		db, err := postgres.NewDB(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("failed to init db: %w", err)
		}
		if err := postgres.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
		a.db = db
		a.Failures = postgres.NewFailureRepo(db)
	} else {
		a.Failures = memory.NewFailureRepo()
	}

	// 2. Session
	tokens, err := a.initSession(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.Tokens = tokens

	// 3. Signals
	a.Bus = events.NewBus()
	a.Activity = activity.NewCounter(a.Bus)

	// 4. Client
	a.Transport = transport.NewHTTPTransport(cfg.API.Timeout)
	a.Client = api.New(cfg.API.BaseURL, a.Transport, a.Tokens,
		api.WithActivity(a.Activity),
		api.WithNotifier(api.NewBusNotifier(a.Bus)),
		api.WithNavigator(api.NewBusNavigator(a.Bus)),
		api.WithRecorder(a.Failures),
		api.WithPolicy(policyFromConfig(cfg.API)),
	)

	// 5. Health
	a.prober = health.NewProber(a.Client, cfg.Probe.Path, cfg.Probe.Interval)
	a.Health = health.NewMonitor(a.Activity, a.Tokens, a.Transport.Monitor, a.Failures, a.prober)
	a.healthServer = health.NewServer(a.Health, a.Failures, cfg.Server.Port)
	a.pruner = worker.NewPruner(a.Failures, cfg.Journal.Retain, cfg.Journal.PruneInterval)

	return a, nil
}

func (a *App) initSession(ctx context.Context) (session.Store, error) {
	seed := domain.TokenPair{
		AccessToken:  a.cfg.Session.AccessToken,
		RefreshToken: a.cfg.Session.RefreshToken,
	}

	if a.cfg.Session.Backend != "redis" {
		return session.NewMemoryStore(seed), nil
	}

	rc, err := redisclient.NewClient(a.cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("failed to init redis: %w", err)
	}
	a.redisClient = rc

	store := session.NewRedisStore(rc, a.cfg.Session.Key)
	if err := store.Load(ctx); err != nil {
		return nil, err
	}
	// Persisted sessions win over configured seeds
	if store.AccessToken() == "" && !seed.Empty() {
		store.Seed(seed)
	}
	return store, nil
}

func policyFromConfig(c config.APIConfig) api.Policy {
	p := api.DefaultPolicy()
	p.RefreshPath = c.RefreshPath
	p.AuthLoginPath = c.AuthLoginPath
	p.LoginPath = c.LoginPath
	p.ServerRetries = c.ServerRetryCount()
	p.NetworkRetries = c.NetworkRetryCount()
	p.NetworkRetryDelay = c.NetworkRetryDelay
	p.MaxRateLimitRetries = c.RateLimitRetries()
	return p
}

// Start runs the background services: admin server, backend probe,
// journal pruner and DB metrics.
func (a *App) Start(ctx context.Context) error {
	go func() {
		if err := a.healthServer.Start(); err != nil {
			a.log.Error("Health server failed", "error", err)
		}
	}()

	go a.prober.Run(ctx)
	go a.pruner.Start(ctx)

	if a.db != nil {
		a.db.StartMetricsCollector(ctx)
	}

	a.log.Info("Services started",
		"port", a.cfg.Server.Port,
		"probe", a.cfg.Probe.Path,
		"interval", a.cfg.Probe.Interval,
	)
	return nil
}

// Stop shuts the admin server down and releases connections.
func (a *App) Stop(ctx context.Context) error {
	a.log.Info("Stopping services...")

	err := a.healthServer.Stop(ctx)
	a.Close()
	return err
}

// Close releases connections. It is safe to call on a partially built App.
func (a *App) Close() {
	if a.Transport != nil {
		_ = a.Transport.Close()
	}
	if a.redisClient != nil {
		if err := a.redisClient.Close(); err != nil {
			a.log.Warn("Failed to close Redis", "error", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn("Failed to close database", "error", err)
		}
	}
}
