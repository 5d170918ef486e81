package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/sevigo/codesage/internal/wire"
)

var (
	outputJSON  bool
	statusLimit int
)

type serviceStatus struct {
	Provider string `json:"llm_provider"`
	Model    string `json:"generator_model"`
	Redis    string `json:"redis"`
	Archive  string `json:"archive"`
	Webhooks string `json:"webhooks"`
}

var statusCmd = &cobra.Command{
	Use:   "status [owner/repo]",
	Short: "Shows backing service health and, for a repository, its recent reviews",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx := context.Background()

		app, cleanup, err := wire.InitializeApp(ctx)
		if err != nil {
			return fmt.Errorf("failed to initialize app services: %w", err)
		}
		defer cleanup()
		defer app.Shutdown()

		status := serviceStatus{
			Provider: app.Cfg.AI.LLMProvider,
			Model:    app.Cfg.AI.GeneratorModel,
			Redis:    "unavailable (cache and rate limiting disabled)",
			Archive:  "disabled",
			Webhooks: "signed",
		}
		if app.Redis != nil {
			pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
			if err := app.Redis.Ping(pingCtx).Err(); err == nil {
				status.Redis = "connected " + app.Cfg.Redis.Addr()
			}
			cancel()
		}
		if app.Store != nil {
			status.Archive = "enabled"
		}
		if app.Cfg.GitHub.WebhookSecret == "" {
			status.Webhooks = "UNSIGNED (verification disabled)"
		}

		if outputJSON {
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			return encoder.Encode(status)
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintf(w, "LLM PROVIDER\t%s (%s)\n", status.Provider, status.Model)
		fmt.Fprintf(w, "REDIS\t%s\n", status.Redis)
		fmt.Fprintf(w, "REVIEW ARCHIVE\t%s\n", status.Archive)
		fmt.Fprintf(w, "WEBHOOKS\t%s\n", status.Webhooks)
		if err := w.Flush(); err != nil {
			return err
		}

		if len(args) == 0 || app.Store == nil {
			return nil
		}

		reviews, err := app.Store.ListReviews(ctx, args[0], statusLimit)
		if err != nil {
			return fmt.Errorf("failed to retrieve reviews: %w", err)
		}
		if len(reviews) == 0 {
			fmt.Printf("\nNo reviews recorded for %s.\n", args[0])
			return nil
		}

		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "PR\tHEAD SHA\tFILES\tREQUEST ID\tREVIEWED")
		for _, r := range reviews {
			fmt.Fprintf(w, "#%d\t%s\t%d\t%s\t%s\n",
				r.PRNumber,
				shortSHA(r.HeadSHA),
				r.FileCount,
				r.RequestID,
				r.CreatedAt.Format(time.RFC822),
			)
		}
		return w.Flush()
	},
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	statusCmd.Flags().BoolVar(&outputJSON, "json", false, "Output status as JSON")
	statusCmd.Flags().IntVar(&statusLimit, "limit", 10, "Number of recent reviews to list")
	rootCmd.AddCommand(statusCmd)
}
