package wire

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/wire"
	"github.com/redis/go-redis/v9"

	"github.com/sevigo/codesage/internal/app"
	"github.com/sevigo/codesage/internal/cache"
	"github.com/sevigo/codesage/internal/config"
	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/db"
	"github.com/sevigo/codesage/internal/github"
	"github.com/sevigo/codesage/internal/jobs"
	"github.com/sevigo/codesage/internal/llm"
	"github.com/sevigo/codesage/internal/logger"
	"github.com/sevigo/codesage/internal/metrics"
	"github.com/sevigo/codesage/internal/ratelimit"
	"github.com/sevigo/codesage/internal/review"
	"github.com/sevigo/codesage/internal/server"
	"github.com/sevigo/codesage/internal/server/handler"
	"github.com/sevigo/codesage/internal/storage"
	"github.com/sevigo/codesage/internal/webhook"
)

var AppSet = wire.NewSet(
	app.NewApp,
	server.NewServer,
	server.NewRouter,
	handler.NewReviewHandler,
	handler.NewWebhookHandler,
	review.NewService,
	llm.NewReviewer,
	llm.NewPromptManager,
	metrics.New,
	github.NewClientFactory,
	jobs.NewReviewJob,
	provideLogger,
	provideRedis,
	provideCache,
	provideLimiter,
	provideGenerator,
	provideRetryConfig,
	provideStore,
	provideDispatcher,
	provideVerifier,
	provideCacheTTL,
	provideGitHubConfig,
	wire.Bind(new(core.Reviewer), new(*llm.Reviewer)),
	wire.Bind(new(handler.ReviewService), new(*review.Service)),
	wire.Bind(new(jobs.ClientProvider), new(*github.ClientFactory)),
	wire.Bind(new(core.Job), new(*jobs.ReviewJob)),
	wire.Bind(new(http.Handler), new(*chi.Mux)),
)

func provideLogger(cfg *config.Config) *slog.Logger {
	l := logger.NewLogger(cfg.Logging, nil)
	slog.SetDefault(l)
	return l
}

func provideRedis(cfg *config.Config, logger *slog.Logger) (*redis.Client, func()) {
	client := cache.NewRedisClient(cfg.Redis, logger)
	return client, func() {
		if client != nil {
			_ = client.Close()
		}
	}
}

func provideCache(client *redis.Client, logger *slog.Logger) core.ReviewCache {
	return cache.NewStore(client, logger)
}

func provideLimiter(cfg *config.Config, client *redis.Client, logger *slog.Logger) core.RateLimiter {
	return ratelimit.New(client, cfg.RateLimit.Limit, cfg.RateLimit.Window, logger)
}

func provideGenerator(ctx context.Context, cfg *config.Config, logger *slog.Logger) (llm.Generator, error) {
	return llm.NewGenerator(ctx, cfg.AI, logger)
}

func provideRetryConfig(cfg *config.Config) llm.RetryConfig {
	rc := llm.DefaultRetryConfig()
	rc.MaxAttempts = cfg.AI.Retry.MaxAttempts
	if cfg.AI.Retry.BaseDelay > 0 {
		rc.BaseDelay = cfg.AI.Retry.BaseDelay
	}
	if cfg.AI.Retry.MaxDelay > 0 {
		rc.MaxDelay = cfg.AI.Retry.MaxDelay
	}
	return rc
}

// provideStore opens the review archive when a database is configured.
func provideStore(cfg *config.Config, logger *slog.Logger) (storage.Store, func(), error) {
	if !cfg.Database.Enabled() {
		logger.Info("no database configured, pull request reviews will not be archived")
		return nil, func() {}, nil
	}
	conn, cleanup, err := db.NewDatabase(&cfg.Database, logger)
	if err != nil {
		return nil, cleanup, err
	}
	return storage.NewStore(conn.DB), cleanup, nil
}

func provideDispatcher(cfg *config.Config, job core.Job, logger *slog.Logger) core.JobDispatcher {
	return jobs.NewDispatcher(job, cfg.Jobs, logger)
}

func provideVerifier(cfg *config.Config, logger *slog.Logger) *webhook.Verifier {
	return webhook.NewVerifier(cfg.GitHub.WebhookSecret, logger)
}

func provideCacheTTL(cfg *config.Config) time.Duration {
	return cfg.Cache.TTL
}

func provideGitHubConfig(cfg *config.Config) config.GitHubConfig {
	return cfg.GitHub
}
