package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/deploy"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var deployOpts deploy.Opts

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Trigger a deployment of the built image",
	Long: `Build the deploy webhook body and post it to <domain>/image/deploy, or to
<domain>/image/deploy-byoc for container deployments.

Image ports are read from the Services in the Kubernetes workspace manifest.
Cluster image tags come from the mounted registry credentials. Without
--token the request is built and logged but not sent.`,
	RunE: runDeploy,
}

func init() {
	f := deployCmd.Flags()
	f.StringVar(&deployOpts.Domain, "domain", "", "deploy webhook base URL (required)")
	f.StringVar(&deployOpts.OrgID, "org-id", "", "organization ID (required)")
	f.StringVar(&deployOpts.ProjectID, "project-id", "", "project ID (required)")
	f.StringVar(&deployOpts.AppID, "app-id", "", "application ID (required)")
	f.StringVar(&deployOpts.ChoreoApp, "choreo-app", "", "image repository name (required)")
	f.StringVar(&deployOpts.EnvID, "env-id", "", "environment ID (required)")
	f.StringVar(&deployOpts.Version, "version", "", "API version ID (required)")
	f.StringVar(&deployOpts.ImageName, "image-name", "", "image name (required)")
	f.StringVar(&deployOpts.GitHash, "git-hash", "", "source commit SHA (required)")
	f.StringVar(&deployOpts.GitOpsHash, "gitops-hash", "", "GitOps commit SHA (required)")
	f.StringVar(&deployOpts.Token, "token", "", "registry token")
	f.BoolVar(&deployOpts.IsHTTPBased, "is-http-based", true, "add a default port when none are declared")
	f.StringVar(&deployOpts.PortExtractFilePath, "port-extract-file-path", deploy.DefaultPortExtractPath, "Kubernetes manifest to read ports from")
	f.StringVar(&deployOpts.ContainerID, "container-id", "", "container ID for container deployments")
	f.BoolVar(&deployOpts.IsContainerDeployment, "is-container-deployment", false, "deploy a single container")
	f.StringVar(&deployOpts.OASFilePath, "oas-file-path", "", "OpenAPI definition path")
	f.StringVar(&deployOpts.GitHashDate, "git-hash-date", "", "commit timestamp (default now)")
	f.BoolVar(&deployOpts.IsAutoDeploy, "is-auto-deploy", false, "mark the deployment as automatic")
	f.StringVar(&deployOpts.RunID, "run-id", "", "workflow run ID (required)")
	rootCmd.AddCommand(deployCmd)
}

func runDeploy(c *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	client, err := newCallbackClient()
	if err != nil {
		return err
	}

	deployOpts.CredentialsPath = settings.RegistryCredentialsPath()
	deployOpts.Logger = slog.Default()

	res, err := deploy.Run(c.Context(), client, &deployOpts)
	if err != nil {
		w.Status("deploy", ui.StateFailed)

		return err
	}

	if !res.Sent {
		w.Status("deploy", ui.StateSkipped)

		return nil
	}

	w.Status("deploy", ui.StateSucceeded)

	return nil
}
