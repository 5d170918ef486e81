package github

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/go-github/v73/github"

	"github.com/sevigo/codesage/internal/core"
)

const checkRunName = "CodeSage Review"

// StatusUpdater defines the contract for updating the status of a GitHub Check Run
// and posting review comments on pull requests.
type StatusUpdater interface {
	InProgress(ctx context.Context, event *core.GitHubEvent, title, summary string) (int64, error)
	Completed(ctx context.Context, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) error
	PostReview(ctx context.Context, event *core.GitHubEvent, result *core.ReviewResult, files []string) error
	PostSimpleComment(ctx context.Context, event *core.GitHubEvent, body string) error
}

type statusUpdater struct {
	client Client
	now    func() time.Time
}

// NewStatusUpdater creates and returns a new instance of a statusUpdater.
func NewStatusUpdater(client Client) StatusUpdater {
	return &statusUpdater{client: client, now: time.Now}
}

// PostSimpleComment posts a single, general comment on the pull request.
func (s *statusUpdater) PostSimpleComment(ctx context.Context, event *core.GitHubEvent, body string) error {
	return s.client.CreateComment(ctx, event.RepoOwner, event.RepoName, event.PRNumber, body)
}

// PostReview posts the aggregated review as one pull request comment.
func (s *statusUpdater) PostReview(ctx context.Context, event *core.GitHubEvent, result *core.ReviewResult, files []string) error {
	return s.PostSimpleComment(ctx, event, FormatReviewComment(result, files))
}

// InProgress creates a new GitHub Check Run with an "in_progress" status.
func (s *statusUpdater) InProgress(ctx context.Context, event *core.GitHubEvent, title, summary string) (int64, error) {
	opts := github.CreateCheckRunOptions{
		Name:    checkRunName,
		HeadSHA: event.HeadSHA,
		Status:  github.Ptr("in_progress"),
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	checkRun, err := s.client.CreateCheckRun(ctx, event.RepoOwner, event.RepoName, opts)
	if err != nil {
		return 0, fmt.Errorf("failed to create check run: %w", err)
	}
	return checkRun.GetID(), nil
}

// Completed updates an existing GitHub Check Run to a "completed" status.
func (s *statusUpdater) Completed(ctx context.Context, event *core.GitHubEvent, checkRunID int64, conclusion, title, summary string) error {
	opts := github.UpdateCheckRunOptions{
		Status:      github.Ptr("completed"),
		Conclusion:  &conclusion,
		CompletedAt: &github.Timestamp{Time: s.now()},
		Output: &github.CheckRunOutput{
			Title:   &title,
			Summary: &summary,
		},
	}
	_, err := s.client.UpdateCheckRun(ctx, event.RepoOwner, event.RepoName, checkRunID, opts)
	return err
}

// FormatReviewComment wraps the model's narrative in the comment header and
// footer, adding a findings table when structured findings were extracted.
func FormatReviewComment(result *core.ReviewResult, files []string) string {
	var sb strings.Builder

	sb.WriteString("# 🤖 Automated Code Review\n\n")
	sb.WriteString("I've reviewed this pull request and here's my feedback:\n\n")
	sb.WriteString(strings.TrimSpace(result.ReviewText))
	sb.WriteString("\n\n")

	if len(result.Findings) > 0 {
		counts := map[core.Severity]int{}
		for _, f := range result.Findings {
			counts[f.Severity]++
		}

		sb.WriteString("---\n")
		sb.WriteString("#### 📊 Issue Statistics\n\n")
		sb.WriteString("| Severity | Count |\n")
		sb.WriteString("|----------|-------|\n")
		for _, sev := range []core.Severity{core.SeverityHigh, core.SeverityMedium, core.SeverityLow} {
			if count := counts[sev]; count > 0 {
				fmt.Fprintf(&sb, "| %s %s | %d |\n", severityEmoji(sev), sev, count)
			}
		}
		sb.WriteString("\n")
	}

	if len(files) > 0 {
		sb.WriteString("<details><summary>Files reviewed</summary>\n\n")
		for _, f := range files {
			fmt.Fprintf(&sb, "- `%s`\n", f)
		}
		sb.WriteString("\n</details>\n\n")
	}

	sb.WriteString("_This review was automatically generated by CodeSage._")
	return sb.String()
}

// severityEmoji returns an emoji for the given severity level.
func severityEmoji(severity core.Severity) string {
	switch severity {
	case core.SeverityHigh:
		return "🟠"
	case core.SeverityMedium:
		return "🟡"
	case core.SeverityLow:
		return "🟢"
	default:
		return "⚪"
	}
}
