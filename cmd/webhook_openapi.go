package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/openapi"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var webhookOpenAPIOpts openapi.Opts

var webhookOpenAPICmd = &cobra.Command{
	Use:   "webhook-openapi",
	Short: "Write the OpenAPI definition for webhook components",
	Long: `For the webhook template, or the buildpack webhook template with the
ballerina language, replace the swagger definitions with
swagger/webhook_openapi.yaml. Other components are left untouched.`,
	Example: `  choreo-steps webhook-openapi --template webhook --buildpack-language ballerina`,
	RunE:    runWebhookOpenAPI,
}

func init() {
	f := webhookOpenAPICmd.Flags()
	f.StringVar(&webhookOpenAPIOpts.Template, "template", "", "component template (required)")
	f.StringVar(&webhookOpenAPIOpts.BuildpackLanguage, "buildpack-language", "", "buildpack language (required)")
	f.StringVar(&webhookOpenAPIOpts.Dir, "dir", ".", "component root holding the swagger directory")
	rootCmd.AddCommand(webhookOpenAPICmd)
}

func runWebhookOpenAPI(c *cobra.Command, _ []string) error {
	webhookOpenAPIOpts.Logger = slog.Default()

	path, err := openapi.Run(c.Context(), &webhookOpenAPIOpts)
	if err != nil {
		return err
	}

	if path != "" {
		ui.NewWriter(noColor).Successf("Webhook OpenAPI definition written to %s", path)
	}

	return nil
}
