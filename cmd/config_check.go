package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/detect"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var configCheckOpts detect.Opts

var configCheckCmd = &cobra.Command{
	Use:   "config-check",
	Short: "Detect which source config file a component has",
	Long: `Look for .choreo/component.yaml, .choreo/component-config.yaml and
.choreo/endpoints.yaml in that order and write the first match to an env file
as hasSrcConfigFile, hasComponentYaml and srcConfigFileType.`,
	Example: `  choreo-steps config-check --base-path . --output "$GITHUB_ENV"`,
	RunE:    runConfigCheck,
}

func init() {
	configCheckCmd.Flags().StringVar(&configCheckOpts.BasePath, "base-path", "", "component source root (required)")
	configCheckCmd.Flags().StringVar(&configCheckOpts.EnvFile, "output", ".env", "env file to write")
	rootCmd.AddCommand(configCheckCmd)
}

func runConfigCheck(_ *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	configCheckOpts.Logger = slog.Default()

	res, err := detect.Run(&configCheckOpts)
	if err != nil {
		return err
	}

	if !res.HasSrcConfigFile {
		w.Warning("No source config file found")

		return nil
	}

	w.Successf("Found %s", res.FileType)

	return nil
}
