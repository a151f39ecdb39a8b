// Package descriptor loads the source configuration files a component keeps
// under its .choreo directory.
package descriptor

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

// Dir is the directory under the source root that holds descriptor files.
const Dir = ".choreo"

// FileType names one of the supported descriptor files.
type FileType string

// Supported descriptor file types.
const (
	ComponentYAML       FileType = "component.yaml"
	ComponentConfigYAML FileType = "component-config.yaml"
	EndpointsYAML       FileType = "endpoints.yaml"
)

// FileTypes lists the descriptor types in detection precedence order.
var FileTypes = []FileType{ComponentYAML, ComponentConfigYAML, EndpointsYAML}

// ParseFileType converts s into a FileType, rejecting anything unknown.
func ParseFileType(s string) (FileType, error) {
	for _, ft := range FileTypes {
		if string(ft) == s {
			return ft, nil
		}
	}

	return "", fmt.Errorf("'%s' is not a valid source config file type", s)
}

// Document is the generic tree produced by decoding a descriptor.
type Document = any

// Path returns the location of the descriptor of type ft under root.
func Path(root string, ft FileType) string {
	return filepath.Join(root, Dir, string(ft))
}

// Load reads and decodes the descriptor of type ft under root. The type is
// checked before any file is touched.
func Load(root string, ft FileType) (Document, error) {
	if _, err := ParseFileType(string(ft)); err != nil {
		return nil, apperrors.Wrap(apperrors.CodeUser, "Failed to read source config file", err)
	}

	path := Path(root, ft)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, apperrors.WrapWithContext(
			apperrors.CodeUser,
			"Failed to read source config file",
			err,
			map[string]any{"path": path},
		)
	}

	doc, err := decode(data)
	if err != nil {
		return nil, apperrors.WrapWithContext(
			apperrors.CodeUser,
			"Failed to parse yaml",
			err,
			map[string]any{"path": path},
		)
	}

	return doc, nil
}

// decode reads a single YAML document into a generic tree. An empty file
// decodes to nil.
func decode(data []byte) (Document, error) {
	var doc any

	dec := yaml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, err
	}

	return doc, nil
}

// Detect returns the first descriptor type present under root, following
// FileTypes order. ok is false when none exists.
func Detect(root string) (ft FileType, ok bool, err error) {
	for _, candidate := range FileTypes {
		_, statErr := os.Stat(Path(root, candidate))
		if statErr == nil {
			return candidate, true, nil
		}

		if !errors.Is(statErr, os.ErrNotExist) {
			return "", false, fmt.Errorf("checking %s: %w", candidate, statErr)
		}
	}

	return "", false, nil
}
