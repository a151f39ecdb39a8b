package cmd

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/imagepush"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var imagePushOpts imagepush.Opts

var imagePushCmd = &cobra.Command{
	Use:   "image-push",
	Short: "Log in to container registries and push the built image",
	Long: `Read the mounted registry credentials and log in to each registry,
writing credentials to a docker config directory.

With --type login_and_push the image named by --image-name is copied from the
OCI layout at --image-layout to <registry>/<choreo-app>:<sha> on every
registry except the pull-only Docker Hub login. With --type login only
registries outside the platform's own data plane are logged in.

The docker config directory is printed as DOCKER_CONFIG=<dir> on stdout.`,
	Example: `  choreo-steps image-push --choreo-app greeter --sha $SHA --image-layout ./image`,
	RunE:    runImagePush,
}

func init() {
	f := imagePushCmd.Flags()
	f.StringVarP(&imagePushOpts.Type, "type", "t", imagepush.TypeLoginAndPush, "login_and_push or login")
	f.StringVarP(&imagePushOpts.ChoreoApp, "choreo-app", "c", "", "image repository name (required)")
	f.StringVarP(&imagePushOpts.SHA, "sha", "s", "", "commit SHA used as the image tag (required)")
	f.StringVarP(&imagePushOpts.ImageName, "image-name", "i", imagepush.DefaultImageName, "image name inside the layout")
	f.StringVar(&imagePushOpts.ImageLayout, "image-layout", "", "OCI image layout directory (required for login_and_push)")
	f.StringVar(&imagePushOpts.DockerConfigDir, "docker-config", "", "docker config directory (default $DOCKER_CONFIG or a new directory under the runner temp dir)")
	rootCmd.AddCommand(imagePushCmd)
}

func runImagePush(c *cobra.Command, _ []string) error {
	w := ui.NewWriter(noColor)

	settings, err := loadSettings()
	if err != nil {
		return err
	}

	imagePushOpts.CredentialsPath = settings.RegistryCredentialsPath()
	imagePushOpts.RunnerTemp = settings.RunnerTemp
	imagePushOpts.Logger = slog.Default()

	res, err := imagepush.Run(c.Context(), &imagePushOpts)
	if err != nil {
		return err
	}

	for _, ref := range res.Pushed {
		w.Successf("Pushed %s", ref)
	}

	fmt.Fprintf(c.OutOrStdout(), "DOCKER_CONFIG=%s\n", res.DockerConfigDir)

	return nil
}
