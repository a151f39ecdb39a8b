package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	"github.com/choreo-dev/choreo-steps/internal/schema"
)

var (
	buildVersion = "dev"
	buildCommit  = "none"
)

// SetVersionInfo records the ldflags build info and exposes it as --version.
func SetVersionInfo(version, commit string) {
	buildVersion = version
	buildCommit = commit
	rootCmd.Version = version
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version and supported descriptor schemas",
	RunE:  runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(c *cobra.Command, _ []string) error {
	out := c.OutOrStdout()

	fmt.Fprintf(out, "choreo-steps %s (commit: %s)\n", buildVersion, buildCommit)
	fmt.Fprintln(out, "Descriptor schemas:")

	for _, ft := range descriptor.FileTypes {
		versions := schema.Versions(ft)

		names := make([]string, 0, len(versions))
		for _, v := range versions {
			names = append(names, string(v))
		}

		fmt.Fprintf(out, "  %-22s %s\n", ft, strings.Join(names, ", "))
	}

	return nil
}
