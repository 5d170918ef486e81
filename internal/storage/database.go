// Package storage persists completed pull request reviews in Postgres.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	// import db drivers
	_ "github.com/lib/pq"

	"github.com/sevigo/codesage/internal/core"
)

// ErrNotFound is returned when no review matches a lookup.
var ErrNotFound = errors.New("review not found")

// Store defines the interface for all database operations.
type Store interface {
	SaveReview(ctx context.Context, review *core.Review) error
	GetLatestReviewForPR(ctx context.Context, repoFullName string, prNumber int) (*core.Review, error)
	HasReviewForHead(ctx context.Context, repoFullName string, prNumber int, headSHA string) (bool, error)
	ListReviews(ctx context.Context, repoFullName string, limit int) ([]core.Review, error)
}

type postgresStore struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore creates a new Store
func NewStore(db *sqlx.DB) Store {
	return &postgresStore{db: db, now: time.Now}
}

// SaveReview inserts a review. A second review of the same head commit
// replaces the first.
func (s *postgresStore) SaveReview(ctx context.Context, review *core.Review) error {
	query := `
		INSERT INTO reviews (repo_full_name, pr_number, head_sha, review_content, request_id, file_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (repo_full_name, pr_number, head_sha)
		DO UPDATE SET review_content = EXCLUDED.review_content,
		              request_id = EXCLUDED.request_id,
		              file_count = EXCLUDED.file_count,
		              created_at = EXCLUDED.created_at
		RETURNING id`

	createdAt := s.now().UTC()
	err := s.db.QueryRowxContext(ctx, query,
		review.RepoFullName, review.PRNumber, review.HeadSHA, review.ReviewContent,
		review.RequestID, review.FileCount, createdAt,
	).Scan(&review.ID)
	if err != nil {
		return fmt.Errorf("failed to save review for %s#%d: %w", review.RepoFullName, review.PRNumber, err)
	}
	review.CreatedAt = createdAt
	return nil
}

// GetLatestReviewForPR retrieves the most recent review for a given pull request.
func (s *postgresStore) GetLatestReviewForPR(ctx context.Context, repoFullName string, prNumber int) (*core.Review, error) {
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, review_content, request_id, file_count, created_at
		FROM reviews
		WHERE repo_full_name = $1 AND pr_number = $2
		ORDER BY created_at DESC
		LIMIT 1`

	var r core.Review
	if err := s.db.GetContext(ctx, &r, query, repoFullName, prNumber); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: PR %s#%d", ErrNotFound, repoFullName, prNumber)
		}
		return nil, err
	}
	return &r, nil
}

// HasReviewForHead reports whether the given head commit was already reviewed.
func (s *postgresStore) HasReviewForHead(ctx context.Context, repoFullName string, prNumber int, headSHA string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM reviews WHERE repo_full_name = $1 AND pr_number = $2 AND head_sha = $3)`

	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, repoFullName, prNumber, headSHA); err != nil {
		return false, fmt.Errorf("failed to check existing review: %w", err)
	}
	return exists, nil
}

// ListReviews returns the most recent reviews for a repository.
func (s *postgresStore) ListReviews(ctx context.Context, repoFullName string, limit int) ([]core.Review, error) {
	query := `
		SELECT id, repo_full_name, pr_number, head_sha, review_content, request_id, file_count, created_at
		FROM reviews
		WHERE repo_full_name = $1
		ORDER BY created_at DESC
		LIMIT $2`

	reviews := []core.Review{}
	if err := s.db.SelectContext(ctx, &reviews, query, repoFullName, limit); err != nil {
		return nil, fmt.Errorf("failed to list reviews for %s: %w", repoFullName, err)
	}
	return reviews, nil
}
