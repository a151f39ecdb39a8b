// Package configschema generates a JSON Schema describing the configurables
// declared in component.yaml.
package configschema

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xeipuuv/gojsonschema"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// FileName is the schema file written to the source root.
const FileName = "choreo-config-schema.json"

// Draft is the JSON Schema dialect of the generated document.
const Draft = "http://json-schema.org/draft-07/schema#"

// Opts configures schema generation.
type Opts struct {
	// SourceRootDir holds .choreo/component.yaml and receives the schema.
	SourceRootDir string
	// Logger for debug output.
	Logger *slog.Logger
}

// Run reads the configurables of component.yaml and writes FileName.
func Run(opts *Opts) (string, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	if opts.SourceRootDir == "" {
		return "", apperrors.New(apperrors.CodeUser, "The --source-root-dir argument is required")
	}

	c, err := descriptor.ReadComponent(opts.SourceRootDir)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUser, "Failed to read component.yaml", err)
	}

	var items []descriptor.ConfigItem
	if c.Configurations != nil {
		items = c.Configurations.Schema
	}

	doc, err := Generate(items)
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeUser, "Config schema generation failed", err)
	}

	if _, err := gojsonschema.NewSchema(gojsonschema.NewGoLoader(doc)); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "Generated config schema does not compile", err)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "Encoding config schema", err)
	}

	out := filepath.Join(opts.SourceRootDir, FileName)
	if err := os.WriteFile(out, data, 0o644); err != nil { //nolint:gosec // the schema is read by later pipeline steps
		return "", apperrors.Wrap(apperrors.CodeInternal, "Writing "+FileName, err)
	}

	logger.Debug("wrote config schema", "path", out, "properties", len(items))

	return out, nil
}

// Generate builds the root schema object for items.
func Generate(items []descriptor.ConfigItem) (map[string]any, error) {
	properties := map[string]any{}
	required := []string{}

	for i := range items {
		prop, err := generate(&items[i], &required)
		if err != nil {
			return nil, err
		}

		properties[items[i].Name] = prop
	}

	return map[string]any{
		"$schema":    Draft,
		"type":       "object",
		"properties": properties,
		"required":   required,
	}, nil
}

func isBaseType(t string) bool {
	return t == "string" || t == "integer" || t == "boolean"
}

// generate converts item. Only base-typed items are added to required;
// array and object members carry their own required lists.
func generate(item *descriptor.ConfigItem, required *[]string) (map[string]any, error) {
	switch {
	case isBaseType(item.Type):
		if item.IsRequired() {
			*required = append(*required, item.Name)
		}

		out := map[string]any{"type": item.Type}
		if len(item.Values) > 0 {
			out["enum"] = item.Values
		}

		withTitle(out, item.DisplayName)

		return out, nil
	case item.Type == "array":
		if item.Items == nil {
			return nil, fmt.Errorf("configurable %q: array requires items", item.Name)
		}

		out := map[string]any{"type": "array"}
		if isBaseType(item.Items.Type) {
			out["items"] = map[string]any{"type": item.Items.Type}
		} else {
			elem, err := generate(item.Items, required)
			if err != nil {
				return nil, err
			}

			out["items"] = elem
		}

		withTitle(out, item.DisplayName)

		return out, nil
	case item.Type == "object":
		properties := map[string]any{}
		nested := []string{}

		for i := range item.Properties {
			prop, err := generate(&item.Properties[i], &nested)
			if err != nil {
				return nil, err
			}

			properties[item.Properties[i].Name] = prop
		}

		out := map[string]any{
			"type":       "object",
			"properties": properties,
			"required":   nested,
		}
		withTitle(out, item.DisplayName)

		return out, nil
	default:
		return nil, fmt.Errorf("configurable %q: unsupported type %q", item.Name, item.Type)
	}
}

func withTitle(out map[string]any, title string) {
	if title != "" {
		out["title"] = title
	}
}
