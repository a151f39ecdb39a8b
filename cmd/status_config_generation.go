package cmd

import (
	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/status"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var cfgGenOpts status.ConfigGenerationOpts

var statusConfigGenerationCmd = &cobra.Command{
	Use:   "config-generation",
	Short: "Update the configurable commit mapping status",
	Example: `  choreo-steps status config-generation --base-url $API --component-id c1 \
    --version-id v1 --source-commit $SHA --status SUCCESS --config-mapping-id m1`,
	RunE: runStatusConfigGeneration,
}

func init() {
	f := statusConfigGenerationCmd.Flags()
	f.StringVar(&cfgGenOpts.BaseURL, "base-url", "", "platform API base URL (required)")
	f.StringVar(&cfgGenOpts.ComponentID, "component-id", "", "component ID (required)")
	f.StringVar(&cfgGenOpts.VersionID, "version-id", "", "component version ID (required)")
	f.StringVar(&cfgGenOpts.SourceCommit, "source-commit", "", "source commit SHA (required)")
	f.StringVar(&cfgGenOpts.Status, "status", "", "generation status (required)")
	f.StringVar(&cfgGenOpts.ConfigMappingID, "config-mapping-id", "", "configurable commit mapping ID (required)")
	f.StringVar(&cfgGenOpts.GitOpsCommit, "gitops-commit", "", "GitOps commit SHA")
	statusCmd.AddCommand(statusConfigGenerationCmd)
}

func runStatusConfigGeneration(c *cobra.Command, _ []string) error {
	client, err := newCallbackClient()
	if err != nil {
		return err
	}

	if err := status.ConfigGeneration(c.Context(), client, &cfgGenOpts); err != nil {
		return err
	}

	ui.NewWriter(noColor).Successf("Configurable generation status set to %s", cfgGenOpts.Status)

	return nil
}
