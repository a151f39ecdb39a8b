// Package prism generates the build context for an image that serves Prism
// mock servers for every endpoint schema of a component.
package prism

import (
	"embed"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	tmpl "github.com/choreo-dev/choreo-steps/internal/template"
)

// FirstMockPort is the port of the first Prism mock server. Each further
// schema gets the next port.
const FirstMockPort = 4015

// GoImage provides the Go toolchain for building the traffic router.
const GoImage = "choreocontrolplane.azurecr.io/golang:1.22.4-alpine"

// RouterDirName is the traffic router directory inside the build context.
const RouterDirName = "prism-traffic-router"

// DefaultOutput is the build context directory.
const DefaultOutput = "temp"

// routerFiles are copied from the traffic router source directory.
var routerFiles = []string{"main.go", "go.mod"}

//go:embed templates/*.tmpl
var templates embed.FS

// Opts configures resource generation.
type Opts struct {
	// RepoPath is the user repository containing .choreo.
	RepoPath string
	// PrismImage is the managed Prism base image.
	PrismImage string
	// RouterDir holds the traffic router main.go and go.mod.
	RouterDir string
	// Output receives the build context.
	Output string
	Logger *slog.Logger
}

// Mock is one Prism mock server and the endpoint it backs.
type Mock struct {
	Port     int
	BasePath string
	// Schema is the schema file path relative to the repository.
	Schema string
	// MockPort is the port the Prism server listens on. It equals Port
	// when no traffic router fronts the mocks.
	MockPort int
}

// Result lists the generated build context.
type Result struct {
	Output string
	Mocks  []Mock
	Files  []string
}

type templateData struct {
	Image     string
	GoImage   string
	RouterDir string
	// Router is set when the traffic router sources are in the context.
	Router    bool
	MockHost  string
	Mocks     []Mock
}

// Run writes the Dockerfile, entrypoint.sh, schema files and traffic router
// sources into opts.Output.
func Run(opts *Opts) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.RepoPath == "" {
		return nil, apperrors.New(apperrors.CodeUser, "USER_REPO_PATH environment variable is not set.")
	}

	if opts.PrismImage == "" {
		return nil, apperrors.New(apperrors.CodeUser, "CHOREO_MANAGED_PRISM_IMAGE environment variable is not set.")
	}

	if opts.Output == "" {
		opts.Output = DefaultOutput
	}

	endpoints, err := descriptor.ReadServedEndpoints(opts.RepoPath)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUser, "No valid configuration file found", err)
	}

	mocks, err := Mocks(endpoints, logger)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(opts.Output, 0o755); err != nil {
		return nil, fmt.Errorf("creating output dir %s: %w", opts.Output, err)
	}

	res := &Result{Output: opts.Output}

	router := opts.RouterDir != ""
	if router {
		for _, name := range routerFiles {
			dst := filepath.Join(opts.Output, RouterDirName, name)
			if err := copyFile(filepath.Join(opts.RouterDir, name), dst, 0o644); err != nil {
				return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to copy traffic router", err)
			}

			res.Files = append(res.Files, dst)
		}

		logger.Info("prism-traffic-router files copied successfully.")
	} else {
		// Without the router each mock serves its endpoint port directly.
		for i := range mocks {
			mocks[i].MockPort = mocks[i].Port
		}

		logger.Warn("no traffic router given, mock servers listen on the endpoint ports")
	}

	res.Mocks = mocks

	files, err := renderTemplates(opts, mocks, router)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "Failed to generate prism resources", err)
	}

	res.Files = append(res.Files, files...)
	logger.Info("Dockerfile and entrypoint.sh generated successfully.")

	for _, m := range mocks {
		dst := filepath.Join(opts.Output, filepath.FromSlash(m.Schema))
		if err := copyFile(filepath.Join(opts.RepoPath, filepath.FromSlash(m.Schema)), dst, 0o644); err != nil {
			return nil, apperrors.Wrap(apperrors.CodeUser, "Failed to copy schema file", err)
		}

		res.Files = append(res.Files, dst)
	}

	logger.Info("Schema files copied successfully.")

	return res, nil
}

// Mocks assigns a mock server port to every endpoint with a schema file.
// Schema paths must stay inside the repository.
func Mocks(endpoints []descriptor.ServedEndpoint, logger *slog.Logger) ([]Mock, error) {
	if logger == nil {
		logger = slog.Default()
	}

	mocks := make([]Mock, 0, len(endpoints))

	for _, ep := range endpoints {
		if ep.SchemaFilePath == "" {
			logger.Warn("endpoint has no schema file, no mock server started", "port", ep.Port)

			continue
		}

		schema := path.Clean(filepath.ToSlash(ep.SchemaFilePath))
		if path.IsAbs(schema) || schema == ".." || strings.HasPrefix(schema, "../") {
			return nil, apperrors.Newf(apperrors.CodeUser,
				"schema file %s must be a path inside the repository", ep.SchemaFilePath)
		}

		mocks = append(mocks, Mock{
			Port:     ep.Port,
			BasePath: ep.BasePath,
			Schema:   schema,
			MockPort: FirstMockPort + len(mocks),
		})
	}

	return mocks, nil
}

func renderTemplates(opts *Opts, mocks []Mock, router bool) ([]string, error) {
	data := templateData{
		Image:     opts.PrismImage,
		GoImage:   GoImage,
		RouterDir: RouterDirName,
		Router:    router,
		MockHost:  "0.0.0.0",
		Mocks:     mocks,
	}

	if router {
		data.MockHost = "localhost"
	}

	r := tmpl.NewRenderer()

	entries, err := fs.ReadDir(templates, "templates")
	if err != nil {
		return nil, fmt.Errorf("listing templates: %w", err)
	}

	var files []string

	for _, e := range entries {
		if !tmpl.IsTemplate(e.Name()) {
			continue
		}

		out, err := r.RenderFS(templates, "templates/"+e.Name(), data)
		if err != nil {
			return nil, err
		}

		name := tmpl.StripTemplateExtension(e.Name())

		mode := os.FileMode(0o644)
		if strings.HasSuffix(name, ".sh") {
			mode = 0o755
		}

		dst := filepath.Join(opts.Output, name)
		if err := os.WriteFile(dst, out, mode); err != nil {
			return nil, fmt.Errorf("writing %s: %w", dst, err)
		}

		files = append(files, dst)
	}

	return files, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(filepath.Clean(src))
	if err != nil {
		return fmt.Errorf("opening %s: %w", src, err)
	}
	defer in.Close() //nolint:errcheck // read-only file

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", dst, err)
	}

	out, err := os.OpenFile(filepath.Clean(dst), os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return fmt.Errorf("creating %s: %w", dst, err)
	}

	if _, err := io.Copy(out, in); err != nil {
		out.Close() //nolint:errcheck,gosec // already failing

		return fmt.Errorf("copying %s to %s: %w", src, dst, err)
	}

	if err := out.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", dst, err)
	}

	return nil
}
