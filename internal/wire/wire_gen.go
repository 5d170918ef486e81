// Code generated manually. DO NOT EDIT.

//go:generate go run -mod=mod github.com/google/wire/cmd/wire
//go:build !wireinject
// +build !wireinject

package wire

import (
	"context"
	"fmt"

	"github.com/sevigo/codesage/internal/app"
	"github.com/sevigo/codesage/internal/config"
	"github.com/sevigo/codesage/internal/github"
	"github.com/sevigo/codesage/internal/jobs"
	"github.com/sevigo/codesage/internal/llm"
	"github.com/sevigo/codesage/internal/metrics"
	"github.com/sevigo/codesage/internal/review"
	"github.com/sevigo/codesage/internal/server"
	"github.com/sevigo/codesage/internal/server/handler"
)

// InitializeApp creates and wires all application dependencies.
func InitializeApp(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger := provideLogger(cfg)

	redisClient, redisCleanup := provideRedis(cfg, logger)
	reviewCache := provideCache(redisClient, logger)
	limiter := provideLimiter(cfg, redisClient, logger)

	generator, err := provideGenerator(ctx, cfg, logger)
	if err != nil {
		redisCleanup()
		return nil, nil, fmt.Errorf("failed to create generator: %w", err)
	}
	promptManager, err := llm.NewPromptManager()
	if err != nil {
		redisCleanup()
		return nil, nil, fmt.Errorf("failed to create prompt manager: %w", err)
	}
	reviewer := llm.NewReviewer(generator, promptManager, provideRetryConfig(cfg), logger)

	m := metrics.New()
	reviewService := review.NewService(reviewer, reviewCache, limiter, m, provideCacheTTL(cfg), logger)

	store, storeCleanup, err := provideStore(cfg, logger)
	if err != nil {
		redisCleanup()
		return nil, nil, fmt.Errorf("failed to open review archive: %w", err)
	}

	clientFactory := github.NewClientFactory(provideGitHubConfig(cfg), logger)
	reviewJob := jobs.NewReviewJob(clientFactory, reviewer, store, m, logger)
	dispatcher := provideDispatcher(cfg, reviewJob, logger)

	reviewHandler := handler.NewReviewHandler(reviewService, logger)
	webhookHandler := handler.NewWebhookHandler(provideVerifier(cfg, logger), dispatcher, m, logger)
	router := server.NewRouter(cfg, reviewHandler, webhookHandler, m, logger)
	srv := server.NewServer(cfg, router, logger)

	application := app.NewApp(cfg, srv, dispatcher, reviewService, reviewJob, redisClient, store, logger)

	cleanup := func() {
		storeCleanup()
		redisCleanup()
	}
	return application, cleanup, nil
}
