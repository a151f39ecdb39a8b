// Package cmd defines the CLI commands for choreo-steps.
package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/config"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var (
	verbose bool
	noColor bool
	cfgFile string
)

// rootCmd is the base command for the choreo-steps CLI.
var rootCmd = &cobra.Command{
	Use:   "choreo-steps",
	Short: "Build pipeline steps for Choreo components",
	Long: `choreo-steps bundles the steps a Choreo build pipeline runs around a
component: validating source config files, generating config schemas and
OpenAPI stubs, reporting status, logging in to registries, pushing images,
triggering deployments and checking out GitOps repositories.

Every failure is printed to stderr prefixed with USER ERROR or INTERNAL ERROR.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		initLogger()
	},
}

// Execute runs the root command and reports any error on stderr.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil {
		ui.NewWriter(noColor).Fail(err)
	}

	return err
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/choreo-steps/config.yaml)")
}

func initLogger() {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})
	slog.SetDefault(slog.New(handler))
}

// loadSettings reads the settings file named by --config or the default path.
func loadSettings() (*config.Settings, error) {
	path := cfgFile
	if path == "" {
		path = config.DefaultConfigPath()
	}

	return config.LoadSettings(path)
}
