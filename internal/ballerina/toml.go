// Package ballerina prepares the TOML files of a Ballerina package for a
// platform build.
package ballerina

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"

	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// Package files.
const (
	BallerinaToml    = "Ballerina.toml"
	CloudToml        = "Cloud.toml"
	DependenciesToml = "Dependencies.toml"
	ConfigToml       = "Config.toml"
	WorkspaceFile    = "workspace.txt"
)

// Operation selects what Run does.
type Operation string

// Operations.
const (
	OpEdit Operation = "edit"
	OpRead Operation = "read"
)

// Repository kinds whose package identity belongs to the user.
const (
	RepoUserManagedNonEmpty  = "USER_MANAGE_NON_EMPTY"
	RepoUserManagedBuildpack = "USER_MANAGE_BUILDPACKS"
)

// Observability settings written by the read operation.
const (
	observeProvider  = "choreo"
	reporterHostname = "periscope.preview-dv.choreo.dev"
	reporterPort     = 443
)

var (
	invalidChars = regexp.MustCompile(`[^\w-]+`)
	nonWord      = regexp.MustCompile(`[^\w]+`)
)

// Opts configures a Ballerina.toml operation.
type Opts struct {
	// SubPath is the package directory holding Ballerina.toml.
	SubPath string
	// Operation is edit or read. Defaults to edit.
	Operation Operation
	// Name and Org become the package name and org on edit.
	Name string
	Org  string
	// ComponentType is the repository kind; user-managed kinds keep an
	// existing package identity.
	ComponentType string
	// Template is the component template the package was created from.
	Template string
	// BasicTemplates lists templates whose exports are left untouched.
	BasicTemplates []string
	// Logger for debug output.
	Logger *slog.Logger
}

// Sanitize turns s into a valid Ballerina identifier: characters other than
// letters, digits, '_' and '-' are dropped and '-' becomes '_'.
func Sanitize(s string) string {
	return nonWord.ReplaceAllString(invalidChars.ReplaceAllString(s, ""), "_")
}

// Run performs the requested operation on the package at SubPath. Problems
// with the arguments or the package sources are USER errors; failures to
// write the results are INTERNAL errors.
func Run(opts *Opts) error {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.SubPath == "" {
		return apperrors.New(apperrors.CodeUser, "Missing required parameter: the sub path is required")
	}

	op := opts.Operation
	if op == "" {
		op = OpEdit
	}

	if op != OpEdit && op != OpRead {
		return apperrors.Newf(apperrors.CodeUser, "invalid operation %q, use 'edit' or 'read'", op)
	}

	pkg, err := readToml(filepath.Join(opts.SubPath, BallerinaToml))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUser, "Failed to read "+BallerinaToml, err)
	}

	if op == OpRead {
		err = read(opts, pkg, logger)
	} else {
		err = edit(opts, pkg, logger)
	}

	var tagged *apperrors.StructuredError
	if err != nil && !errors.As(err, &tagged) {
		return apperrors.Wrap(apperrors.CodeInternal, fmt.Sprintf("Failed to %s Ballerina package files", op), err)
	}

	return err
}

func edit(opts *Opts, cfg map[string]any, logger *slog.Logger) error {
	if opts.Name == "" || opts.Org == "" {
		return apperrors.New(apperrors.CodeUser, "Missing required parameters: name and org are required for the edit operation")
	}

	name := Sanitize(opts.Name)
	org := Sanitize(opts.Org)

	pkg, _ := cfg["package"].(map[string]any)
	if pkg == nil {
		pkg = map[string]any{}
	}

	if opts.ComponentType == RepoUserManagedNonEmpty || opts.ComponentType == RepoUserManagedBuildpack {
		if s, _ := pkg["name"].(string); s == "" {
			pkg["name"] = name
		}

		if s, _ := pkg["org"].(string); s == "" {
			pkg["org"] = org
		}
	} else {
		pkg["name"] = name
		pkg["org"] = org

		if !slices.Contains(opts.BasicTemplates, opts.Template) {
			pkg["export"] = []string{name}

			if err := rewriteDependencies(opts.SubPath, org, name); err != nil {
				return err
			}
		}
	}

	cfg["package"] = pkg

	cloud, err := readOptionalToml(filepath.Join(opts.SubPath, CloudToml))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUser, "Failed to read "+CloudToml, err)
	}

	settings, _ := cloud["settings"].(map[string]any)
	if settings == nil {
		settings = map[string]any{}
	}

	settings["buildImage"] = false
	cloud["settings"] = settings

	if err := writeToml(filepath.Join(opts.SubPath, BallerinaToml), cfg); err != nil {
		return err
	}

	if err := writeToml(filepath.Join(opts.SubPath, CloudToml), cloud); err != nil {
		return err
	}

	logger.Debug("updated package identity", "name", pkg["name"], "org", pkg["org"])

	return nil
}

// rewriteDependencies replaces the template placeholders in Dependencies.toml.
func rewriteDependencies(dir, org, name string) error {
	path := filepath.Join(dir, DependenciesToml)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return apperrors.Wrap(apperrors.CodeUser, "Failed to read "+DependenciesToml, err)
	}

	out := strings.ReplaceAll(string(data), "choreo", org)
	out = strings.ReplaceAll(out, "proj", name)

	if err := os.WriteFile(path, []byte(out), 0o644); err != nil { //nolint:gosec // package sources are world-readable
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func read(opts *Opts, cfg map[string]any, logger *slog.Logger) error {
	observe := map[string]any{
		"ballerina": map[string]any{
			"observe": map[string]any{
				"enabled":  true,
				"provider": observeProvider,
			},
		},
		"ballerinax": map[string]any{
			"choreo": map[string]any{
				"reporterHostname": reporterHostname,
				"reporterPort":     reporterPort,
			},
		},
	}

	if err := writeToml(filepath.Join(opts.SubPath, ConfigToml), observe); err != nil {
		return err
	}

	workspace := "workspace"
	if pkg, ok := cfg["package"].(map[string]any); ok {
		if name, _ := pkg["name"].(string); name != "" {
			workspace = name
		}
	}

	path := filepath.Join(opts.SubPath, WorkspaceFile)
	if err := os.WriteFile(path, []byte(workspace), 0o644); err != nil { //nolint:gosec // read by later steps
		return fmt.Errorf("writing %s: %w", path, err)
	}

	logger.Debug("wrote observability config", "workspace", workspace)

	return nil
}

func readToml(path string) (map[string]any, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	out := map[string]any{}
	if err := toml.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return out, nil
}

func readOptionalToml(path string) (map[string]any, error) {
	m, err := readToml(path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]any{}, nil
	}

	return m, err
}

func writeToml(path string, v map[string]any) error {
	var buf bytes.Buffer

	enc := toml.NewEncoder(&buf)
	enc.SetIndentTables(true)

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encoding %s: %w", path, err)
	}

	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil { //nolint:gosec // package sources are world-readable
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}
