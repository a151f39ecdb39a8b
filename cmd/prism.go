package cmd

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/prism"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var prismOpts prism.Opts

var prismResourcesCmd = &cobra.Command{
	Use:   "prism-resources",
	Short: "Generate the build context for a Prism mock server image",
	Long: `Read the endpoints of the component at USER_REPO_PATH and write a
Dockerfile, entrypoint.sh, the endpoint schema files and the traffic router
sources to the output directory. Each schema gets its own Prism mock server
starting at port 4015 behind the traffic router. With an empty --router-dir
no router is built and each mock listens on its endpoint port.

--repo-path and --prism-image default to USER_REPO_PATH and
CHOREO_MANAGED_PRISM_IMAGE.`,
	Example: `  USER_REPO_PATH=./app CHOREO_MANAGED_PRISM_IMAGE=prism:5 \
    choreo-steps prism-resources --router-dir ./prism-traffic-router`,
	RunE: runPrismResources,
}

func init() {
	f := prismResourcesCmd.Flags()
	f.StringVar(&prismOpts.RepoPath, "repo-path", "", "user repository (default $USER_REPO_PATH)")
	f.StringVar(&prismOpts.PrismImage, "prism-image", "", "Prism base image (default $CHOREO_MANAGED_PRISM_IMAGE)")
	f.StringVar(&prismOpts.RouterDir, "router-dir", prism.RouterDirName, "traffic router source directory (empty serves each mock on its endpoint port)")
	f.StringVar(&prismOpts.Output, "output", prism.DefaultOutput, "build context directory")
	rootCmd.AddCommand(prismResourcesCmd)
}

func runPrismResources(_ *cobra.Command, _ []string) error {
	if prismOpts.RepoPath == "" {
		prismOpts.RepoPath = os.Getenv("USER_REPO_PATH")
	}

	if prismOpts.PrismImage == "" {
		prismOpts.PrismImage = os.Getenv("CHOREO_MANAGED_PRISM_IMAGE")
	}

	prismOpts.Logger = slog.Default()

	res, err := prism.Run(&prismOpts)
	if err != nil {
		return err
	}

	w := ui.NewWriter(noColor)
	for _, m := range res.Mocks {
		w.Infof("%s on port %d (endpoint %d%s)", m.Schema, m.MockPort, m.Port, m.BasePath)
	}

	w.Successf("Generated %d mock servers in %s", len(res.Mocks), res.Output)

	return nil
}
