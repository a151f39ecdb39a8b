package gitops

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
)

// ConfigEntry is one git config key and value.
type ConfigEntry struct {
	Key   string
	Value string
}

// ConfigOpts configures local git config writes.
type ConfigOpts struct {
	Entries []ConfigEntry
	// WorkDir is the repository the entries are written to.
	WorkDir string
	// Stdout receives git standard output.
	Stdout io.Writer
	// Stderr receives git standard error.
	Stderr io.Writer
	// Logger for debug output.
	Logger *slog.Logger
}

// Configure runs git config for each entry in order. Every entry is tried
// and all failures are returned.
func Configure(ctx context.Context, opts *ConfigOpts) []error {
	if len(opts.Entries) == 0 {
		return nil
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var errs []error

	for _, e := range opts.Entries {
		logger.Debug("setting git config", "key", e.Key, "dir", opts.WorkDir)

		if err := gitConfig(ctx, e, opts); err != nil {
			logger.Warn("git config failed", "key", e.Key, "err", err)
			errs = append(errs, fmt.Errorf("git config %s: %w", e.Key, err))
		}
	}

	return errs
}

func gitConfig(ctx context.Context, e ConfigEntry, opts *ConfigOpts) error {
	cmd := exec.CommandContext(ctx, "git", "config", "--local", e.Key, e.Value)
	cmd.Dir = opts.WorkDir
	cmd.Stdout = opts.Stdout
	cmd.Stderr = opts.Stderr

	return cmd.Run()
}
