// Package app holds the running CodeSage service: the HTTP server, the
// webhook job dispatcher and the review pipeline behind them.
package app

import (
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/sevigo/codesage/internal/config"
	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/jobs"
	"github.com/sevigo/codesage/internal/review"
	"github.com/sevigo/codesage/internal/server"
	"github.com/sevigo/codesage/internal/storage"
)

// App holds the main application components. The exported fields are used
// by the CLI, which drives the same pipeline without the HTTP server.
type App struct {
	Cfg       *config.Config
	Logger    *slog.Logger
	Reviews   *review.Service
	ReviewJob *jobs.ReviewJob
	// Redis is nil when the key-value store was unreachable at startup.
	Redis *redis.Client
	// Store is nil when no database is configured.
	Store storage.Store

	server     *server.Server
	dispatcher core.JobDispatcher
}

// NewApp assembles the application from its wired components.
func NewApp(
	cfg *config.Config,
	srv *server.Server,
	dispatcher core.JobDispatcher,
	reviews *review.Service,
	reviewJob *jobs.ReviewJob,
	redisClient *redis.Client,
	store storage.Store,
	logger *slog.Logger,
) *App {
	return &App{
		Cfg:        cfg,
		Logger:     logger,
		Reviews:    reviews,
		ReviewJob:  reviewJob,
		Redis:      redisClient,
		Store:      store,
		server:     srv,
		dispatcher: dispatcher,
	}
}

// Start runs the HTTP server and blocks until it stops.
func (a *App) Start() error {
	a.Logger.Info("starting CodeSage",
		"server_port", a.Cfg.Server.Port,
		"llm_provider", a.Cfg.AI.LLMProvider,
		"generator_model", a.Cfg.AI.GeneratorModel,
		"max_workers", a.Cfg.Jobs.MaxWorkers,
		"rate_limit", a.Cfg.RateLimit.Limit,
		"rate_window", a.Cfg.RateLimit.Window,
		"cache_enabled", a.Redis != nil,
		"archive_enabled", a.Store != nil,
	)

	if err := a.server.Start(); err != nil {
		a.Logger.Error("failed to start HTTP server", "error", err)
		return err
	}
	return nil
}

// Stop shuts down the application cleanly. The server stops accepting
// requests first, then queued review jobs and pending cache writes drain.
func (a *App) Stop() error {
	a.Logger.Info("shutting down CodeSage services")

	serverErr := a.server.Stop()
	if serverErr != nil {
		a.Logger.Error("error during HTTP server shutdown", "error", serverErr)
	}

	a.Shutdown()

	if serverErr != nil {
		return serverErr
	}
	a.Logger.Info("CodeSage stopped")
	return nil
}

// Shutdown drains background work without touching the HTTP server. The CLI
// calls it before exiting.
func (a *App) Shutdown() {
	a.dispatcher.Stop()
	a.Reviews.Wait()
}
