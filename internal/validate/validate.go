// Package validate runs the load, validate and report pipeline for a single
// source config file.
package validate

import (
	"fmt"
	"log/slog"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	"github.com/choreo-dev/choreo-steps/internal/report"
	"github.com/choreo-dev/choreo-steps/internal/rules"
	"github.com/choreo-dev/choreo-steps/internal/schema"
)

// Opts configures a validation run.
type Opts struct {
	// SourceRootDir contains the .choreo directory and is the base for
	// schema file references.
	SourceRootDir string
	// FileType is the descriptor to validate, as given on the command line.
	FileType string
	// Logger for progress output.
	Logger *slog.Logger
}

// Result describes a successful run.
type Result struct {
	FileType descriptor.FileType
	Version  schema.Version
}

// Run loads the descriptor, validates it against its schema and returns a
// tagged error describing every problem found.
func Run(opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.SourceRootDir == "" || opts.FileType == "" {
		return nil, apperrors.New(apperrors.CodeUser,
			"Both --source-root-dir and --file-type arguments are required")
	}

	ft := descriptor.FileType(opts.FileType)

	logger.Info(fmt.Sprintf("Validating %s in %s", ft, opts.SourceRootDir))

	doc, err := descriptor.Load(opts.SourceRootDir, ft)
	if err != nil {
		return nil, err
	}

	logger.Debug("source config file read succeeded", "path", descriptor.Path(opts.SourceRootDir, ft))

	s, vs, err := schema.Select(ft, doc)
	if err != nil {
		return nil, report.Internal(ft, err)
	}

	if s == nil {
		return nil, report.Build(ft, vs, nil)
	}

	logger.Debug("selected schema", "file_type", ft, "version", s.Version)

	vs, err = rules.Validate(doc, &s.Root, rules.Env{SourceRoot: opts.SourceRootDir})
	if reported := report.Build(ft, vs, err); reported != nil {
		return nil, reported
	}

	logger.Info("Source config file validation succeeded")

	return &Result{FileType: ft, Version: s.Version}, nil
}
