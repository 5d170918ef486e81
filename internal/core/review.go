package core

import (
	"context"
	"time"
)

// ReviewRequest is a single code snippet submitted for review.
type ReviewRequest struct {
	Code     string `json:"code"`
	Language string `json:"language"`
	Context  string `json:"context,omitempty"`
}

// ReviewResult is the outcome of one model review. Timestamp is only set on
// responses handed back to clients, never on the raw model result.
type ReviewResult struct {
	ReviewText  string       `json:"review"`
	Findings    []BugFinding `json:"bugs_detected"`
	Suggestions []Suggestion `json:"suggestions"`
	RequestID   string       `json:"request_id"`
	Timestamp   *time.Time   `json:"timestamp,omitempty"`
}

// Reviewer produces reviews from the model backend.
type Reviewer interface {
	// Review runs a single-snippet review. Backend failures are returned as errors.
	Review(ctx context.Context, req ReviewRequest) (*ReviewResult, error)
	// ReviewPullRequest runs an aggregated review over a batch of pull request files.
	ReviewPullRequest(ctx context.Context, pr PullRequestReview) (*ReviewResult, error)
}

// PullRequestReview carries the prompt inputs for a batch review.
type PullRequestReview struct {
	RepoFullName       string
	Title              string
	Description        string
	Files              []ReviewFile
	CustomInstructions []string
}

// ReviewFile is one changed file fetched at the commit under review.
type ReviewFile struct {
	Filename string
	Language string
	Content  string
}

// Review represents a single pull request review stored in the database.
type Review struct {
	ID            int64     `db:"id"`
	RepoFullName  string    `db:"repo_full_name"`
	PRNumber      int       `db:"pr_number"`
	HeadSHA       string    `db:"head_sha"`
	ReviewContent string    `db:"review_content"`
	RequestID     string    `db:"request_id"`
	FileCount     int       `db:"file_count"`
	CreatedAt     time.Time `db:"created_at"`
}
