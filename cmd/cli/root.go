package main

import (
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	githubToken string
)

var rootCmd = &cobra.Command{
	Use:   "codesage-cli",
	Short: "codesage-cli is the command-line interface for CodeSage.",
	Long:  `A CLI for running CodeSage reviews locally: review a source file, review a pull request by URL, or check the health of the backing services.`,
}

func init() { //nolint:gochecknoinits // Cobra's init function for command registration
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&githubToken, "github-token", "t", "", "GitHub Token")

	if err := viper.BindPFlag("GITHUB_TOKEN", rootCmd.PersistentFlags().Lookup("github-token")); err != nil {
		slog.Error("Error binding flag", "error", err)
		os.Exit(1)
	}
}

// initConfig lets CS_-prefixed variables stand in for the service's own.
func initConfig() {
	viper.SetEnvPrefix("CS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	if githubToken != "" {
		_ = os.Setenv("GITHUB_TOKEN", githubToken)
	} else if token := viper.GetString("GITHUB_TOKEN"); token != "" && os.Getenv("GITHUB_TOKEN") == "" {
		_ = os.Setenv("GITHUB_TOKEN", token)
	}
}
