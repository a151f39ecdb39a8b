// Package openapi writes the fixed OpenAPI definition that webhook
// components are exposed with.
package openapi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"

	"github.com/getkin/kin-openapi/openapi3"
	"gopkg.in/yaml.v3"
)

// Files under the swagger directory.
const (
	SwaggerDir  = "swagger"
	WebhookFile = "webhook_openapi.yaml"
	ServiceFile = "service_openapi.yaml"
	IgnoreFile  = "ignore_openapi.yaml"
)

// Opts configures webhook definition generation.
type Opts struct {
	// Template is the component template, e.g. "webhook".
	Template string
	// BuildpackLanguage is the buildpack language for buildpack templates.
	BuildpackLanguage string
	// Dir is the component root holding the swagger directory.
	Dir string
	// Logger for progress output.
	Logger *slog.Logger
}

// Applies reports whether the template needs the webhook definition.
func Applies(template, buildpackLanguage string) bool {
	return template == "webhook" ||
		(template == "buildpackWebhook" && buildpackLanguage == "ballerina")
}

// Run writes swagger/webhook_openapi.yaml and removes the service and ignore
// definitions when the template applies. It returns the written path, or ""
// when nothing was done.
func Run(ctx context.Context, opts *Opts) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.Template == "" || opts.BuildpackLanguage == "" {
		return "", fmt.Errorf("both template and buildpack language are required")
	}

	if !Applies(opts.Template, opts.BuildpackLanguage) {
		logger.Info("Condition not met. Exiting.", "template", opts.Template, "language", opts.BuildpackLanguage)
		return "", nil
	}

	swaggerDir := filepath.Join(opts.Dir, SwaggerDir)
	if err := os.MkdirAll(swaggerDir, 0o750); err != nil {
		return "", fmt.Errorf("creating %s: %w", swaggerDir, err)
	}

	for _, name := range []string{ServiceFile, IgnoreFile} {
		if err := os.Remove(filepath.Join(swaggerDir, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("removing %s: %w", name, err)
		}
	}

	doc := Webhook()
	if err := doc.Validate(ctx); err != nil {
		return "", fmt.Errorf("validating webhook definition: %w", err)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("encoding webhook definition: %w", err)
	}

	out := filepath.Join(swaggerDir, WebhookFile)
	if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // read by the gateway build
		return "", fmt.Errorf("writing %s: %w", out, err)
	}

	logger.Info("Generated OpenAPI file", "path", out)

	return out, nil
}

// Webhook returns the definition of a webhook receiver: POST / accepts an
// event and GET / answers health probes.
func Webhook() *openapi3.T {
	components := openapi3.NewComponents()

	return &openapi3.T{
		OpenAPI: "3.0.1",
		Info: &openapi3.Info{
			Title:   "Webhook Openapi Yaml",
			Version: "1.0.0",
		},
		Extensions: map[string]any{
			"x-wso2-disable-security": true,
		},
		Servers: openapi3.Servers{
			{
				URL: "{server}:{port}",
				Variables: map[string]*openapi3.ServerVariable{
					"server": {Default: "http://localhost"},
					"port":   {Default: "8090"},
				},
			},
		},
		Paths: openapi3.NewPaths(openapi3.WithPath("/", &openapi3.PathItem{
			Post: operation("operation_post_/", http.StatusOK),
			Get:  operation("operation_get_/", http.StatusAccepted),
		})),
		Components: &components,
	}
}

func operation(id string, success int) *openapi3.Operation {
	op := openapi3.NewOperation()
	op.OperationID = id
	op.Responses = openapi3.NewResponses(
		openapi3.WithStatus(success, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().
				WithDescription("Ok").
				WithContent(openapi3.NewContentWithSchema(openapi3.NewStringSchema(), []string{"text/plain"})),
		}),
		openapi3.WithStatus(http.StatusInternalServerError, &openapi3.ResponseRef{
			Value: openapi3.NewResponse().WithDescription("Found unexpected output"),
		}),
	)

	return op
}
