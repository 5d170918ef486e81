package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/codesage/internal/core"
	"github.com/sevigo/codesage/internal/llm"
	"github.com/sevigo/codesage/internal/review"
	"github.com/sevigo/codesage/internal/wire"
)

var (
	verbose       bool
	reviewLang    string
	reviewContext string
	reviewUser    string
	reviewJSON    bool
)

var reviewCmd = &cobra.Command{
	Use:   "review [file]",
	Short: "Review a single source file",
	Long: `Review a single source file through the same pipeline the API uses:
rate limiting, the review cache, and the configured model backend.

Examples:
  codesage-cli review internal/cache/store.go
  codesage-cli review --language python --context "hot path" worker.py`,
	Args: cobra.ExactArgs(1),
	RunE: runReview,
}

func init() { //nolint:gochecknoinits // Cobra command registration
	reviewCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output with timing information")
	reviewCmd.Flags().StringVarP(&reviewLang, "language", "l", "", "Language of the file (default: derived from the extension)")
	reviewCmd.Flags().StringVarP(&reviewContext, "context", "c", "", "Extra context for the reviewer")
	reviewCmd.Flags().StringVarP(&reviewUser, "user", "u", "cli", "User id for rate limiting and history")
	reviewCmd.Flags().BoolVar(&reviewJSON, "json", false, "Print the result as JSON")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(_ *cobra.Command, args []string) error {
	ctx := context.Background()
	path := args[0]

	timer := newStepTimer(2, verbose)
	timer.quiet = reviewJSON
	overallStart := time.Now()

	code, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	language := reviewLang
	if language == "" {
		language = llm.LanguageForFile(path)
	}

	if !reviewJSON {
		titleColor.Println("🚀 CodeSage - File Review")
		dimColor.Printf("   Target: %s (%s)\n\n", path, language)
	}

	timer.step("Initializing application")
	appInstance, cleanup, err := wire.InitializeApp(ctx)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %w\n\nTip: Check your .env file and model credentials", err)
	}
	defer cleanup()
	defer appInstance.Shutdown()
	timer.done()

	timer.step("Generating review")
	result, err := appInstance.Reviews.Review(ctx, reviewUser, core.ReviewRequest{
		Code:     string(code),
		Language: language,
		Context:  reviewContext,
	})
	if errors.Is(err, review.ErrRateLimited) {
		return fmt.Errorf("%w\n\nTip: wait for the rate window (%s) to pass", err, appInstance.Cfg.RateLimit.Window)
	}
	if err != nil {
		return fmt.Errorf("failed to generate review: %w\n\nTip: Check that the model backend is reachable", err)
	}
	timer.done(fmt.Sprintf("%d bug(s), %d suggestion(s)", len(result.Findings), len(result.Suggestions)))

	if reviewJSON {
		encoder := json.NewEncoder(os.Stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(result)
	}

	if verbose {
		dimColor.Printf("\n⏱️  Total time: %s\n", time.Since(overallStart).Round(time.Millisecond))
	}
	printReview(result)
	return nil
}
