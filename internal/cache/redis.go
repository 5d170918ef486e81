package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevigo/codesage/internal/config"
)

const pingTimeout = 5 * time.Second

// NewRedisClient connects to Redis and verifies the connection. When Redis is
// unreachable it logs a warning and returns nil; callers treat a nil client as
// "caching and rate limiting disabled".
func NewRedisClient(cfg config.RedisConfig, logger *slog.Logger) *redis.Client {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis unavailable, caching and rate limiting disabled", "addr", cfg.Addr(), "error", err)
		_ = client.Close()
		return nil
	}

	logger.Info("connected to redis", "addr", cfg.Addr())
	return client
}
