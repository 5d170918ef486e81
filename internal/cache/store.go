// Package cache implements the best-effort Redis layer that sits around model
// invocation: cached reviews, user feedback and per-user conversation history.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sevigo/codesage/internal/core"
)

const (
	reviewPrefix   = "review:"
	feedbackPrefix = "feedback:"
	historyPrefix  = "history:"
	feedbackLog    = "all_feedback"

	// HistoryCap is the maximum number of entries kept per user.
	HistoryCap = 20
	// HistoryTTL is reset on every append.
	HistoryTTL = 7 * 24 * time.Hour
)

// Store is a core.ReviewCache backed by Redis. A Store built on a nil client
// is disabled: reads miss and writes report false.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

var _ core.ReviewCache = (*Store)(nil)

// NewStore creates a cache store. client may be nil.
func NewStore(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Enabled reports whether the store has a backend.
func (s *Store) Enabled() bool {
	return s.client != nil
}

// Get returns the cached review for fingerprint, if present and unexpired.
func (s *Store) Get(ctx context.Context, fingerprint string) (*core.ReviewResult, bool) {
	if s.client == nil {
		return nil, false
	}

	data, err := s.client.Get(ctx, reviewPrefix+fingerprint).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.logger.Warn("cache read failed", "fingerprint", fingerprint, "error", err)
		}
		return nil, false
	}

	var result core.ReviewResult
	if err := json.Unmarshal(data, &result); err != nil {
		s.logger.Warn("discarding undecodable cache entry", "fingerprint", fingerprint, "error", err)
		return nil, false
	}
	return &result, true
}

// Put stores result under fingerprint, replacing any previous entry.
func (s *Store) Put(ctx context.Context, fingerprint string, result *core.ReviewResult, ttl time.Duration) bool {
	if s.client == nil || result == nil {
		return false
	}

	data, err := json.Marshal(result)
	if err != nil {
		s.logger.Warn("failed to encode review for cache", "fingerprint", fingerprint, "error", err)
		return false
	}
	if err := s.client.Set(ctx, reviewPrefix+fingerprint, data, ttl).Err(); err != nil {
		s.logger.Warn("cache write failed", "fingerprint", fingerprint, "error", err)
		return false
	}
	return true
}

// StoreFeedback writes the record under its request id and appends it to the
// global feedback log. The two writes are independent.
func (s *Store) StoreFeedback(ctx context.Context, record core.FeedbackRecord) bool {
	if s.client == nil {
		return false
	}
	if record.UserID == "" {
		record.UserID = core.AnonymousUser
	}

	data, err := json.Marshal(record)
	if err != nil {
		s.logger.Warn("failed to encode feedback", "request_id", record.RequestID, "error", err)
		return false
	}
	if err := s.client.Set(ctx, feedbackPrefix+record.RequestID, data, 0).Err(); err != nil {
		s.logger.Warn("failed to store feedback", "request_id", record.RequestID, "error", err)
		return false
	}
	if err := s.client.LPush(ctx, feedbackLog, data).Err(); err != nil {
		s.logger.Warn("failed to append feedback log", "request_id", record.RequestID, "error", err)
		return false
	}
	return true
}

// AppendHistory prepends entry to the user's history, keeps the most recent
// HistoryCap entries and resets the expiry, all in one MULTI/EXEC.
func (s *Store) AppendHistory(ctx context.Context, userID string, entry core.HistoryEntry) bool {
	if s.client == nil {
		return false
	}

	data, err := json.Marshal(entry)
	if err != nil {
		s.logger.Warn("failed to encode history entry", "user_id", userID, "error", err)
		return false
	}

	key := historyPrefix + userID
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, key, data)
		pipe.LTrim(ctx, key, 0, HistoryCap-1)
		pipe.Expire(ctx, key, HistoryTTL)
		return nil
	})
	if err != nil {
		s.logger.Warn("failed to append history", "user_id", userID, "error", err)
		return false
	}
	return true
}

// History returns up to limit entries, most recent first.
func (s *Store) History(ctx context.Context, userID string, limit int) []core.HistoryEntry {
	if s.client == nil || limit <= 0 {
		return nil
	}

	raw, err := s.client.LRange(ctx, historyPrefix+userID, 0, int64(limit-1)).Result()
	if err != nil {
		s.logger.Warn("failed to read history", "user_id", userID, "error", err)
		return nil
	}

	entries := make([]core.HistoryEntry, 0, len(raw))
	for _, item := range raw {
		var entry core.HistoryEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			s.logger.Debug("skipping undecodable history entry", "user_id", userID, "error", err)
			continue
		}
		entries = append(entries, entry)
	}
	return entries
}
