package cmd

import (
	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/callback"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Report pipeline status to the platform",
	Long:  `Commands for updating configurable generation and workflow run status.`,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func newCallbackClient() (*callback.Client, error) {
	settings, err := loadSettings()
	if err != nil {
		return nil, err
	}

	return callback.New(settings.HTTPTimeout, nil), nil
}
