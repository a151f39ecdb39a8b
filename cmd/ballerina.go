package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/ballerina"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var (
	ballerinaOpts      ballerina.Opts
	ballerinaOperation string
)

var ballerinaTomlCmd = &cobra.Command{
	Use:   "ballerina-toml",
	Short: "Prepare Ballerina package TOML files for a build",
	Long: `edit sets the package name and org in Ballerina.toml, rewrites
Dependencies.toml for template packages and disables image builds in
Cloud.toml.

read writes the observability Config.toml and workspace.txt.`,
	Example: `  choreo-steps ballerina-toml --sub-path . --type edit --name greeter --org acme`,
	RunE:    runBallerinaToml,
}

func init() {
	f := ballerinaTomlCmd.Flags()
	f.StringVar(&ballerinaOpts.SubPath, "sub-path", "", "package directory holding Ballerina.toml (required)")
	f.StringVar(&ballerinaOperation, "type", string(ballerina.OpEdit), "operation: edit or read")
	f.StringVar(&ballerinaOpts.Name, "name", "", "package name (required for edit)")
	f.StringVar(&ballerinaOpts.Org, "org", "", "package org (required for edit)")
	f.StringVar(&ballerinaOpts.ComponentType, "component-type", "", "repository kind")
	f.StringVar(&ballerinaOpts.Template, "template", "", "component template")
	rootCmd.AddCommand(ballerinaTomlCmd)
}

func runBallerinaToml(_ *cobra.Command, _ []string) error {
	settings, err := loadSettings()
	if err != nil {
		return err
	}

	ballerinaOpts.Operation = ballerina.Operation(ballerinaOperation)
	ballerinaOpts.BasicTemplates = settings.Ballerina.BasicTemplates
	ballerinaOpts.Logger = slog.Default()

	if err := ballerina.Run(&ballerinaOpts); err != nil {
		return err
	}

	ui.NewWriter(noColor).Successf("Ballerina package %s completed", ballerinaOpts.Operation)

	return nil
}
