// Package review composes rate limiting, caching and the model-backed
// reviewer into the request path used by the HTTP API and the CLI.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/sevigo/codesage/internal/cache"
	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/metrics"
)

// ErrRateLimited is returned when the caller has used up its window.
var ErrRateLimited = errors.New("rate limit exceeded")

// HistoryLimit is how many history entries are returned to callers.
const HistoryLimit = 10

const backgroundTimeout = 10 * time.Second

// Service is the cache-aside review pipeline.
type Service struct {
	reviewer core.Reviewer
	cache    core.ReviewCache
	limiter  core.RateLimiter
	metrics  *metrics.Metrics
	cacheTTL time.Duration
	now      func() time.Time
	logger   *slog.Logger

	background sync.WaitGroup
}

func NewService(
	reviewer core.Reviewer,
	reviewCache core.ReviewCache,
	limiter core.RateLimiter,
	m *metrics.Metrics,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Service {
	return &Service{
		reviewer: reviewer,
		cache:    reviewCache,
		limiter:  limiter,
		metrics:  m,
		cacheTTL: cacheTTL,
		now:      time.Now,
		logger:   logger,
	}
}

// Review admits the request, serves it from cache when possible and
// otherwise asks the model. A fresh result is cached and recorded in the
// user's history in the background, after the response is ready.
func (s *Service) Review(ctx context.Context, userID string, req core.ReviewRequest) (*core.ReviewResult, error) {
	if userID == "" {
		userID = core.AnonymousUser
	}

	if !s.limiter.Admit(ctx, userID) {
		s.metrics.RateLimitExceeded.Inc()
		return nil, ErrRateLimited
	}

	s.metrics.ReviewRequests.WithLabelValues(req.Language).Inc()
	s.metrics.ActiveReviews.Inc()
	defer s.metrics.ActiveReviews.Dec()
	start := s.now()

	fingerprint := cache.Fingerprint(req.Code, req.Language)

	if cached, ok := s.cache.Get(ctx, fingerprint); ok {
		s.metrics.CacheHits.Inc()
		s.metrics.ReviewLatency.Observe(s.now().Sub(start).Seconds())
		s.logger.Debug("review served from cache", "user_id", userID, "request_id", cached.RequestID)

		s.recordHistory(ctx, userID, historyEntry(req, fingerprint, cached, true, s.now()))
		return s.stamp(cached), nil
	}
	s.metrics.CacheMisses.Inc()

	result, err := s.reviewer.Review(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("review failed: %w", err)
	}
	s.metrics.ObserveReview(result, s.now().Sub(start))

	s.populate(ctx, userID, fingerprint, result, historyEntry(req, fingerprint, result, false, s.now()))
	return s.stamp(result), nil
}

// SubmitFeedback records feedback on an earlier review. It reports whether
// the store accepted it.
func (s *Service) SubmitFeedback(ctx context.Context, record core.FeedbackRecord) bool {
	if record.UserID == "" {
		record.UserID = core.AnonymousUser
	}
	s.metrics.ObserveFeedback(record.Helpful)
	return s.cache.StoreFeedback(ctx, record)
}

// History returns the user's most recent reviews.
func (s *Service) History(ctx context.Context, userID string) []core.HistoryEntry {
	if userID == "" {
		userID = core.AnonymousUser
	}
	return s.cache.History(ctx, userID, HistoryLimit)
}

// Wait blocks until background cache writes have finished.
func (s *Service) Wait() {
	s.background.Wait()
}

// populate caches the raw result and appends history without holding up the
// response. It is detached from the request context so a client disconnect
// does not cancel it.
func (s *Service) populate(ctx context.Context, userID, fingerprint string, result *core.ReviewResult, entry core.HistoryEntry) {
	raw := *result
	raw.Timestamp = nil

	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()

		if !s.cache.Put(ctx, fingerprint, &raw, s.cacheTTL) {
			s.logger.Debug("review not cached", "request_id", raw.RequestID)
		}
		s.cache.AppendHistory(ctx, userID, entry)
	}()
}

func (s *Service) recordHistory(ctx context.Context, userID string, entry core.HistoryEntry) {
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), backgroundTimeout)
		defer cancel()
		s.cache.AppendHistory(ctx, userID, entry)
	}()
}

// stamp returns a copy of result carrying the response time.
func (s *Service) stamp(result *core.ReviewResult) *core.ReviewResult {
	out := *result
	now := s.now().UTC()
	out.Timestamp = &now
	return &out
}

func historyEntry(req core.ReviewRequest, fingerprint string, result *core.ReviewResult, cached bool, at time.Time) core.HistoryEntry {
	return core.HistoryEntry{
		RequestID:       result.RequestID,
		Language:        req.Language,
		Fingerprint:     fingerprint,
		BugCount:        len(result.Findings),
		SuggestionCount: len(result.Suggestions),
		Cached:          cached,
		CreatedAt:       at.UTC(),
	}
}
