package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/configschema"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var configSchemaSourceRootDir string

var configSchemaCmd = &cobra.Command{
	Use:   "config-schema",
	Short: "Generate a JSON Schema for the component's configurables",
	Long: `Read configurations.schema from .choreo/component.yaml and write a
draft-07 JSON Schema to choreo-config-schema.json in the source root.`,
	Example: `  choreo-steps config-schema --source-root-dir .`,
	RunE:    runConfigSchema,
}

func init() {
	configSchemaCmd.Flags().StringVar(&configSchemaSourceRootDir, "source-root-dir", "", "component source root (required)")
	rootCmd.AddCommand(configSchemaCmd)
}

func runConfigSchema(_ *cobra.Command, _ []string) error {
	path, err := configschema.Run(&configschema.Opts{
		SourceRootDir: configSchemaSourceRootDir,
		Logger:        slog.Default(),
	})
	if err != nil {
		return err
	}

	ui.NewWriter(noColor).Successf("Config schema written to %s", path)

	return nil
}
