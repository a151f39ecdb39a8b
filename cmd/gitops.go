package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/choreo-dev/choreo-steps/internal/getter"
	"github.com/choreo-dev/choreo-steps/internal/gitops"
	"github.com/choreo-dev/choreo-steps/internal/ui"
)

var gitopsOpts gitops.Opts

var gitopsCheckoutCmd = &cobra.Command{
	Use:   "gitops-checkout",
	Short: "Clone the GitOps repository and set the commit identity",
	Long: `Clone --repo-url at --branch into <dir>/<repo-name> using the token as
HTTPS credentials, then set user.name and user.email in the clone.

The clone's origin keeps the credentials so later steps can push.`,
	Example: `  choreo-steps gitops-checkout --username bot --email bot@example.com \
    --token $PAT --repo-url https://github.com/acme/gitops.git --branch main`,
	RunE: runGitopsCheckout,
}

func init() {
	f := gitopsCheckoutCmd.Flags()
	f.StringVarP(&gitopsOpts.Username, "username", "u", "", "git user name (required)")
	f.StringVarP(&gitopsOpts.Email, "email", "e", "", "git user email (required)")
	f.StringVarP(&gitopsOpts.Token, "token", "p", "", "personal access token (required)")
	f.StringVarP(&gitopsOpts.RepoURL, "repo-url", "r", "", "HTTPS repository URL (required)")
	f.StringVarP(&gitopsOpts.Branch, "branch", "b", "", "branch to check out (required)")
	f.StringVar(&gitopsOpts.Dir, "dir", ".", "parent directory of the clone")
	rootCmd.AddCommand(gitopsCheckoutCmd)
}

func runGitopsCheckout(c *cobra.Command, _ []string) error {
	gitopsOpts.Stdout = c.OutOrStdout()
	gitopsOpts.Stderr = c.ErrOrStderr()
	gitopsOpts.Logger = slog.Default()

	res, err := gitops.Run(c.Context(), getter.New(slog.Default()), &gitopsOpts)
	if err != nil {
		return err
	}

	ui.NewWriter(noColor).Successf("Checked out %s at %s", res.RepoDir, gitopsOpts.Branch)

	return nil
}
