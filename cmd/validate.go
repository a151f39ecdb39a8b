package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/ui"
	"github.com/choreo-dev/choreo-steps/internal/validate"
)

var (
	validateSourceRootDir string
	validateFileType      string
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate a source config file against its schema",
	Long: `Validate .choreo/<file-type> under the source root against the schema for
its type and version. Every violation is reported in a single message.

Supported file types: component.yaml, component-config.yaml, endpoints.yaml.`,
	Example: `  choreo-steps validate --source-root-dir . --file-type component.yaml`,
	RunE:    runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateSourceRootDir, "source-root-dir", "", "directory containing the .choreo directory (required)")
	validateCmd.Flags().StringVar(&validateFileType, "file-type", "", "source config file type (required)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, _ []string) error {
	res, err := validate.Run(&validate.Opts{
		SourceRootDir: validateSourceRootDir,
		FileType:      validateFileType,
		Logger:        slog.Default(),
	})
	if err != nil {
		return err
	}

	ui.NewWriter(noColor).Successf("%s conforms to schema %s", res.FileType, res.Version)

	return nil
}
