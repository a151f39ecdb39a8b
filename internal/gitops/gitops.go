// Package gitops checks out a GitOps repository and prepares it for commits.
package gitops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"path/filepath"
	"strings"

	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	"github.com/choreo-dev/choreo-steps/internal/getter"
)

// Fetcher downloads a source directory. *getter.Getter implements it.
type Fetcher interface {
	Fetch(ctx context.Context, src, dest string, opts getter.FetchOpts) error
}

var _ Fetcher = (*getter.Getter)(nil)

// Opts configures a checkout.
type Opts struct {
	Username string
	Email    string
	Token    string
	RepoURL  string
	Branch   string
	// Dir receives the clone as a subdirectory named after the repository.
	Dir    string
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// Result describes a completed checkout.
type Result struct {
	RepoDir string
}

// RepoName returns the last path segment of a repository URL without the
// .git suffix.
func RepoName(repoURL string) string {
	return strings.TrimSuffix(path.Base(strings.TrimSuffix(repoURL, "/")), ".git")
}

// Run clones opts.RepoURL at opts.Branch and sets the commit identity in
// the clone.
func Run(ctx context.Context, f Fetcher, opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Username == "" || opts.Email == "" || opts.Token == "" || opts.RepoURL == "" || opts.Branch == "" {
		return nil, apperrors.New(apperrors.CodeUser,
			"Missing required parameters: --username, --email, --token, --repo-url and --branch")
	}

	src, err := getter.GitURL(opts.RepoURL, opts.Username, opts.Token)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUser, "Invalid repository URL", err)
	}

	dir := opts.Dir
	if dir == "" {
		dir = "."
	}

	repoDir, err := filepath.Abs(filepath.Join(dir, RepoName(opts.RepoURL)))
	if err != nil {
		return nil, fmt.Errorf("resolving checkout dir: %w", err)
	}

	logger.Info("cloning repository", "repo", getter.Redact(opts.RepoURL), "branch", opts.Branch, "dir", repoDir)

	if err := f.Fetch(ctx, src, repoDir, getter.FetchOpts{Ref: opts.Branch}); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Error during Git operations", err)
	}

	identity := []ConfigEntry{
		{Key: "user.name", Value: opts.Username},
		{Key: "user.email", Value: opts.Email},
	}

	errs := Configure(ctx, &ConfigOpts{
		Entries: identity,
		WorkDir: repoDir,
		Stdout:  opts.Stdout,
		Stderr:  opts.Stderr,
		Logger:  logger,
	})
	if len(errs) > 0 {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Error during Git operations", errs[0])
	}

	logger.Info("Git configuration and checkout completed successfully.")

	return &Result{RepoDir: repoDir}, nil
}
