package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sevigo/codesage/internal/github"
	"github.com/sevigo/codesage/internal/wire"
)

var installationID int64

var prCmd = &cobra.Command{
	Use:   "pr [pr-url]",
	Short: "Review a GitHub pull request and post the result as a comment",
	Long: `Review a GitHub pull request the same way the webhook does and post the
aggregated review as a pull request comment.

Without --installation-id the personal access token is used.

Examples:
  codesage-cli pr https://github.com/owner/repo/pull/123
  codesage-cli pr --installation-id 4242 https://github.com/owner/repo/pull/123`,
	Args: cobra.ExactArgs(1),
	RunE: runPullRequestReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	prCmd.Flags().Int64Var(&installationID, "installation-id", 0, "GitHub App installation to act as")
	rootCmd.AddCommand(prCmd)
}

func runPullRequestReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()

	event, err := github.EventFromURL(args[0])
	if err != nil {
		return fmt.Errorf("%w\n\nExpected format: https://github.com/owner/repo/pull/123", err)
	}
	event.InstallationID = installationID

	titleColor.Println("🚀 CodeSage - PR Review")
	dimColor.Printf("   Target: %s#%d\n\n", event.RepoFullName, event.PRNumber)

	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w", err)
	}
	defer cleanup()
	defer appInstance.Shutdown()

	if err := appInstance.ReviewJob.Run(ctx, event); err != nil {
		return fmt.Errorf("review failed: %w\n\nTip: Check that the PR exists and your token has access", err)
	}

	successColor.Printf("✅ Review posted on %s#%d (head %s)\n", event.RepoFullName, event.PRNumber, shortSHA(event.HeadSHA))
	return nil
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}
