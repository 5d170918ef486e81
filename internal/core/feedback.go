package core

import (
	"context"
	"time"
)

// AnonymousUser is the identity used when a caller does not provide one.
const AnonymousUser = "anonymous"

// FeedbackRecord is a user's verdict on a previously returned review.
type FeedbackRecord struct {
	RequestID string `json:"request_id"`
	Helpful   bool   `json:"helpful"`
	Comment   string `json:"comment,omitempty"`
	UserID    string `json:"user_id"`
}

// HistoryEntry summarises one review interaction for a user.
type HistoryEntry struct {
	RequestID       string    `json:"request_id"`
	Language        string    `json:"language"`
	Fingerprint     string    `json:"fingerprint"`
	BugCount        int       `json:"bug_count"`
	SuggestionCount int       `json:"suggestion_count"`
	Cached          bool      `json:"cached"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReviewCache is the best-effort key-value layer around model invocation.
// None of its methods return errors: backend failures degrade to misses.
type ReviewCache interface {
	Get(ctx context.Context, fingerprint string) (*ReviewResult, bool)
	Put(ctx context.Context, fingerprint string, result *ReviewResult, ttl time.Duration) bool
	StoreFeedback(ctx context.Context, record FeedbackRecord) bool
	AppendHistory(ctx context.Context, userID string, entry HistoryEntry) bool
	History(ctx context.Context, userID string, limit int) []HistoryEntry
}

// RateLimiter decides whether a user may issue another review request.
type RateLimiter interface {
	Admit(ctx context.Context, userID string) bool
}
