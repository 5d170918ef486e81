// Package llm turns review requests into model prompts, calls the configured
// model backend and extracts structured findings from its answer.
package llm

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/sevigo/codesage/internal/core"
)

// ErrEmptyCode is returned for review requests without any code.
var ErrEmptyCode = errors.New("no code to review")

type codeReviewData struct {
	Language string
	Context  string
	Code     string
}

type pullRequestData struct {
	Repo               string
	Title              string
	Description        string
	Files              []core.ReviewFile
	CustomInstructions []string
}

// Reviewer is the core.Reviewer backed by a Generator.
type Reviewer struct {
	generator Generator
	prompts   *PromptManager
	retry     RetryConfig
	logger    *slog.Logger
}

var _ core.Reviewer = (*Reviewer)(nil)

func NewReviewer(generator Generator, prompts *PromptManager, retry RetryConfig, logger *slog.Logger) *Reviewer {
	return &Reviewer{
		generator: generator,
		prompts:   prompts,
		retry:     retry,
		logger:    logger,
	}
}

// Review generates a review for a single snippet. Backend failures are
// returned to the caller; extraction failures only leave the findings empty.
func (r *Reviewer) Review(ctx context.Context, req core.ReviewRequest) (*core.ReviewResult, error) {
	if req.Code == "" {
		return nil, &PermanentError{Err: ErrEmptyCode}
	}

	prompt, err := r.prompts.Render(CodeReviewPrompt, r.generator.Provider(), codeReviewData{
		Language: req.Language,
		Context:  req.Context,
		Code:     req.Code,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render code review prompt: %w", err)
	}

	return r.run(ctx, prompt, "language", req.Language)
}

// ReviewPullRequest reviews a batch of changed files as one prompt.
func (r *Reviewer) ReviewPullRequest(ctx context.Context, pr core.PullRequestReview) (*core.ReviewResult, error) {
	if len(pr.Files) == 0 {
		return nil, &PermanentError{Err: ErrEmptyCode}
	}

	prompt, err := r.prompts.Render(PullRequestPrompt, r.generator.Provider(), pullRequestData{
		Repo:               pr.RepoFullName,
		Title:              pr.Title,
		Description:        pr.Description,
		Files:              pr.Files,
		CustomInstructions: pr.CustomInstructions,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to render pull request prompt: %w", err)
	}

	return r.run(ctx, prompt, "repo", pr.RepoFullName)
}

func (r *Reviewer) run(ctx context.Context, prompt string, logArgs ...any) (*core.ReviewResult, error) {
	text, err := retry(ctx, r.retry, r.logger, func(ctx context.Context) (string, error) {
		return r.generator.Generate(ctx, prompt)
	})
	if err != nil {
		r.logger.Error("model call failed", append(logArgs, "error", err)...)
		return nil, fmt.Errorf("failed to generate review: %w", err)
	}

	findings, suggestions := ExtractFindings(text)
	result := &core.ReviewResult{
		ReviewText:  text,
		Findings:    findings,
		Suggestions: suggestions,
		RequestID:   uuid.NewString(),
	}

	r.logger.Debug("review generated",
		append(logArgs, "request_id", result.RequestID, "bugs", len(findings), "suggestions", len(suggestions))...)
	return result, nil
}
