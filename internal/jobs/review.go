package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/sevigo/codesage/internal/config"
	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/github"
	"github.com/sevigo/codesage/internal/llm"
	"github.com/sevigo/codesage/internal/metrics"
	"github.com/sevigo/codesage/internal/storage"
)

const fetchConcurrency = 4

// ClientProvider hands out GitHub API clients per app installation.
type ClientProvider interface {
	ForInstallation(ctx context.Context, installationID int64) (github.Client, error)
}

// ReviewJob reviews a batch of changed pull request files and posts one
// aggregated comment.
type ReviewJob struct {
	clients  ClientProvider
	reviewer core.Reviewer
	store    storage.Store
	metrics  *metrics.Metrics
	logger   *slog.Logger
}

// NewReviewJob creates a ReviewJob. store may be nil, in which case reviews
// are not archived and repeated heads are reviewed again.
func NewReviewJob(clients ClientProvider, reviewer core.Reviewer, store storage.Store, m *metrics.Metrics, logger *slog.Logger) *ReviewJob {
	if clients == nil {
		panic("client provider cannot be nil")
	}
	if reviewer == nil {
		panic("reviewer cannot be nil")
	}
	if logger == nil {
		panic("logger cannot be nil")
	}
	return &ReviewJob{clients: clients, reviewer: reviewer, store: store, metrics: m, logger: logger}
}

// Run executes the review job for a given GitHub event.
func (j *ReviewJob) Run(ctx context.Context, event *core.GitHubEvent) error {
	if err := validateEvent(event); err != nil {
		return fmt.Errorf("input validation failed: %w", err)
	}

	logger := j.logger.With("repo", event.RepoFullName, "pr", event.PRNumber)
	logger.Info("starting pull request review", "action", event.Action)

	client, err := j.clients.ForInstallation(ctx, event.InstallationID)
	if err != nil {
		j.count("failed")
		return fmt.Errorf("failed to create GitHub client: %w", err)
	}

	if event.HeadSHA == "" {
		if err := resolveHead(ctx, client, event); err != nil {
			j.count("failed")
			return err
		}
	}

	if j.alreadyReviewed(ctx, logger, event) {
		logger.Info("head commit already reviewed, skipping", "head_sha", event.HeadSHA)
		j.count("skipped")
		return nil
	}

	status := github.NewStatusUpdater(client)
	checkRunID, err := status.InProgress(ctx, event, "Code Review", "Review in progress...")
	if err != nil {
		// Check runs need app permissions a token may lack; the review itself can still be posted.
		logger.Warn("failed to set in-progress status", "error", err)
		checkRunID = 0
	}

	repoCfg := j.loadRepoConfig(ctx, logger, client, event)

	changed, err := client.ListChangedFiles(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		j.fail(ctx, logger, status, event, checkRunID, "Failed to list changed files")
		return fmt.Errorf("failed to list changed files: %w", err)
	}

	selected := selectFiles(changed, repoCfg)
	if len(selected) == 0 {
		logger.Info("no reviewable files in pull request")
		j.complete(ctx, logger, status, event, checkRunID, "neutral", "Nothing to Review", "No reviewable files were changed.")
		j.count("skipped")
		return nil
	}

	files, err := j.fetchFiles(ctx, logger, client, event, selected)
	if err != nil {
		j.fail(ctx, logger, status, event, checkRunID, "Failed to fetch file contents")
		return err
	}
	if len(files) == 0 {
		j.fail(ctx, logger, status, event, checkRunID, "None of the selected files could be fetched")
		return fmt.Errorf("no file contents could be fetched for %s#%d", event.RepoFullName, event.PRNumber)
	}

	result, err := j.reviewer.ReviewPullRequest(ctx, core.PullRequestReview{
		RepoFullName:       event.RepoFullName,
		Title:              event.PRTitle,
		Description:        event.PRBody,
		Files:              files,
		CustomInstructions: repoCfg.CustomInstructions,
	})
	if err != nil {
		j.fail(ctx, logger, status, event, checkRunID, "Failed to generate review")
		return fmt.Errorf("failed to generate review: %w", err)
	}

	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.Filename
	}

	if err := status.PostReview(ctx, event, result, names); err != nil {
		j.fail(ctx, logger, status, event, checkRunID, "Failed to post review comment")
		return fmt.Errorf("failed to post review comment: %w", err)
	}

	j.archive(ctx, logger, event, result, names)

	summary := fmt.Sprintf("Reviewed %d file(s): %d potential issue(s), %d suggestion(s).",
		len(files), len(result.Findings), len(result.Suggestions))
	j.complete(ctx, logger, status, event, checkRunID, "success", "Review Complete", summary)
	j.count("posted")

	logger.Info("pull request review posted", "files", len(files), "request_id", result.RequestID)
	return nil
}

func validateEvent(event *core.GitHubEvent) error {
	if event == nil {
		return fmt.Errorf("event cannot be nil")
	}
	if event.RepoOwner == "" {
		return fmt.Errorf("repository owner cannot be empty")
	}
	if event.RepoName == "" {
		return fmt.Errorf("repository name cannot be empty")
	}
	if event.RepoFullName == "" {
		return fmt.Errorf("repository full name cannot be empty")
	}
	if event.PRNumber <= 0 {
		return fmt.Errorf("pull request number must be positive, got: %d", event.PRNumber)
	}
	return nil
}

// resolveHead fills in the head commit for comment-triggered reviews.
func resolveHead(ctx context.Context, client github.Client, event *core.GitHubEvent) error {
	pr, err := client.GetPullRequest(ctx, event.RepoOwner, event.RepoName, event.PRNumber)
	if err != nil {
		return fmt.Errorf("failed to get PR details: %w", err)
	}
	if pr.GetHead().GetSHA() == "" {
		return fmt.Errorf("PR %d has no valid head SHA", event.PRNumber)
	}
	event.HeadSHA = pr.GetHead().GetSHA()
	if event.PRTitle == "" {
		event.PRTitle = pr.GetTitle()
	}
	if event.PRBody == "" {
		event.PRBody = pr.GetBody()
	}
	return nil
}

// alreadyReviewed reports whether the archive holds a review of this head.
// An explicit /review command always runs.
func (j *ReviewJob) alreadyReviewed(ctx context.Context, logger *slog.Logger, event *core.GitHubEvent) bool {
	if j.store == nil || event.Action == "review_command" {
		return false
	}
	exists, err := j.store.HasReviewForHead(ctx, event.RepoFullName, event.PRNumber, event.HeadSHA)
	if err != nil {
		logger.Warn("failed to check review archive", "error", err)
		return false
	}
	return exists
}

// loadRepoConfig reads .codesage.yml at the head commit. A missing or broken
// file falls back to the defaults.
func (j *ReviewJob) loadRepoConfig(ctx context.Context, logger *slog.Logger, client github.Client, event *core.GitHubEvent) *core.RepoConfig {
	raw, err := client.GetFileContent(ctx, event.RepoOwner, event.RepoName, config.RepoConfigFile, event.HeadSHA)
	if err != nil {
		logger.Debug("no repository config, using defaults", "error", err)
		return core.DefaultRepoConfig()
	}
	cfg, err := config.ParseRepoConfig([]byte(raw))
	if err != nil {
		logger.Warn("invalid repository config, using defaults", "file", config.RepoConfigFile, "error", err)
		return core.DefaultRepoConfig()
	}
	return cfg
}

// fetchFiles downloads the selected files at the head commit. Output order
// follows the selection; files that fail to download are left out.
func (j *ReviewJob) fetchFiles(ctx context.Context, logger *slog.Logger, client github.Client, event *core.GitHubEvent, selected []github.ChangedFile) ([]core.ReviewFile, error) {
	fetched := make([]*core.ReviewFile, len(selected))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(fetchConcurrency)
	for i, f := range selected {
		g.Go(func() error {
			content, err := client.GetFileContent(gctx, event.RepoOwner, event.RepoName, f.Filename, event.HeadSHA)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warn("skipping file that could not be fetched", "file", f.Filename, "error", err)
				return nil
			}
			fetched[i] = &core.ReviewFile{
				Filename: f.Filename,
				Language: llm.LanguageForFile(f.Filename),
				Content:  content,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("fetching files: %w", err)
	}

	files := make([]core.ReviewFile, 0, len(fetched))
	for _, f := range fetched {
		if f != nil {
			files = append(files, *f)
		}
	}
	return files, nil
}

func (j *ReviewJob) archive(ctx context.Context, logger *slog.Logger, event *core.GitHubEvent, result *core.ReviewResult, files []string) {
	if j.store == nil {
		return
	}
	err := j.store.SaveReview(ctx, &core.Review{
		RepoFullName:  event.RepoFullName,
		PRNumber:      event.PRNumber,
		HeadSHA:       event.HeadSHA,
		ReviewContent: result.ReviewText,
		RequestID:     result.RequestID,
		FileCount:     len(files),
	})
	if err != nil {
		logger.Error("failed to archive review", "error", err)
	}
}

func (j *ReviewJob) complete(ctx context.Context, logger *slog.Logger, status github.StatusUpdater, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) {
	if checkRunID == 0 {
		return
	}
	if err := status.Completed(ctx, event, checkRunID, conclusion, title, summary); err != nil {
		logger.Warn("failed to update check run", "conclusion", conclusion, "error", err)
	}
}

func (j *ReviewJob) fail(ctx context.Context, logger *slog.Logger, status github.StatusUpdater, event *core.GitHubEvent, checkRunID int64, message string) {
	j.count("failed")
	// The job context may already be done; the failure status should still land.
	ctx = context.WithoutCancel(ctx)
	j.complete(ctx, logger, status, event, checkRunID, "failure", "Review Failed", message)
}

func (j *ReviewJob) count(status string) {
	if j.metrics != nil {
		j.metrics.PullRequestReviews.WithLabelValues(status).Inc()
	}
}

var (
	_ core.Job       = (*ReviewJob)(nil)
	_ ClientProvider = (*github.ClientFactory)(nil)
)
