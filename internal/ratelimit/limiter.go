// Package ratelimit implements per-user sliding-window admission control on a
// Redis sorted set.
package ratelimit

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/sevigo/codesage/internal/core"
)

const keyPrefix = "ratelimit:"

// slidingWindow prunes, counts and records in one script so that the
// check-and-record step is atomic per key. Entries at exactly now-window are
// pruned, so a caller that waits a full window is admitted again.
//
// KEYS[1] rate window key
// ARGV[1] now in milliseconds
// ARGV[2] window in milliseconds
// ARGV[3] limit
// ARGV[4] unique member for this request
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)
if count < limit then
	redis.call('ZADD', key, now, ARGV[4])
	redis.call('PEXPIRE', key, window)
	return 1
end
return 0
`)

// Limiter is a core.RateLimiter. It fails open: any store error admits the
// request.
type Limiter struct {
	client *redis.Client
	limit  int
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

var _ core.RateLimiter = (*Limiter)(nil)

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock replaces the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a limiter admitting at most limit requests per user in any
// trailing window. A nil client disables limiting.
func New(client *redis.Client, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Limiter {
	l := &Limiter{
		client: client,
		limit:  limit,
		window: window,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(l)
	}
	if client == nil {
		logger.Warn("rate limiter disabled: no redis client, all requests will be admitted")
	}
	return l
}

// Admit reports whether userID may issue another request now.
func (l *Limiter) Admit(ctx context.Context, userID string) bool {
	if l.client == nil {
		return true
	}

	now := l.now().UnixMilli()
	member := strconv.FormatInt(now, 10) + "-" + uuid.NewString()

	admitted, err := slidingWindow.Run(ctx, l.client,
		[]string{keyPrefix + userID},
		now, l.window.Milliseconds(), l.limit, member,
	).Int()
	if err != nil {
		l.logger.Warn("rate limit check failed, admitting request", "user_id", userID, "error", err)
		return true
	}
	return admitted == 1
}
