// Package schema holds the versioned rule sets for every descriptor type.
package schema

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	"github.com/choreo-dev/choreo-steps/internal/rules"
)

// Version identifies a schema revision within a descriptor type.
type Version string

// Known schema versions.
const (
	ComponentV1_0          Version = "1.0"
	ComponentV1_1          Version = "1.1"
	ComponentConfigV1beta1 Version = "core.choreo.dev/v1beta1"
	EndpointsV0_1          Version = "0.1"
)

// ErrNotFound is returned by Get for an unknown (type, version) pair.
var ErrNotFound = errors.New("schema not found")

// Schema is an immutable rule set for one descriptor type and version.
type Schema struct {
	FileType descriptor.FileType
	Version  Version
	Root     rules.Rule
}

type key struct {
	ft descriptor.FileType
	v  Version
}

var registry = map[key]*Schema{
	{descriptor.ComponentYAML, ComponentV1_0}: {
		FileType: descriptor.ComponentYAML,
		Version:  ComponentV1_0,
		Root:     componentYAML(dependenciesV0_1()),
	},
	{descriptor.ComponentYAML, ComponentV1_1}: {
		FileType: descriptor.ComponentYAML,
		Version:  ComponentV1_1,
		Root:     componentYAML(dependenciesV0_2()),
	},
	{descriptor.ComponentConfigYAML, ComponentConfigV1beta1}: {
		FileType: descriptor.ComponentConfigYAML,
		Version:  ComponentConfigV1beta1,
		Root:     componentConfigYAML(),
	},
	{descriptor.EndpointsYAML, EndpointsV0_1}: {
		FileType: descriptor.EndpointsYAML,
		Version:  EndpointsV0_1,
		Root:     endpointsYAML(),
	},
}

// componentVersions lists the component.yaml versions in the order they are
// reported to users.
var componentVersions = []Version{ComponentV1_0, ComponentV1_1}

// Get returns the schema registered for ft at version v.
func Get(ft descriptor.FileType, v Version) (*Schema, error) {
	s, ok := registry[key{ft, v}]
	if !ok {
		return nil, fmt.Errorf("%w: %s version %s", ErrNotFound, ft, v)
	}

	return s, nil
}

// Versions returns the versions registered for ft in the order they are
// reported to users.
func Versions(ft descriptor.FileType) []Version {
	switch ft {
	case descriptor.ComponentYAML:
		return slices.Clone(componentVersions)
	case descriptor.ComponentConfigYAML:
		return []Version{ComponentConfigV1beta1}
	case descriptor.EndpointsYAML:
		return []Version{EndpointsV0_1}
	default:
		return nil
	}
}

// Select picks the schema for doc. For component.yaml the in-document
// schemaVersion decides; a missing or unsupported version is reported as a
// violation and no schema is returned. The other types have a single version
// whose identity fields are checked by the rules themselves.
func Select(ft descriptor.FileType, doc any) (*Schema, []rules.Violation, error) {
	switch ft {
	case descriptor.ComponentYAML:
		v, violation := componentVersion(doc)
		if violation != nil {
			return nil, []rules.Violation{*violation}, nil
		}

		s, err := Get(ft, v)

		return s, nil, err
	case descriptor.ComponentConfigYAML:
		s, err := Get(ft, ComponentConfigV1beta1)
		return s, nil, err
	case descriptor.EndpointsYAML:
		s, err := Get(ft, EndpointsV0_1)
		return s, nil, err
	default:
		return nil, nil, fmt.Errorf("'%s' is not a valid source config file type", ft)
	}
}

func componentVersion(doc any) (Version, *rules.Violation) {
	const field = "schemaVersion"

	m, _ := rules.AsMap(doc)

	raw, ok := m[field]
	if !ok || raw == nil {
		return "", &rules.Violation{Path: field, Message: field + " is a required field"}
	}

	if v, ok := normalizeVersion(raw); ok {
		for _, known := range componentVersions {
			if v == known {
				return v, nil
			}
		}
	}

	supported := make([]string, 0, len(componentVersions))
	for _, v := range componentVersions {
		supported = append(supported, string(v))
	}

	return "", &rules.Violation{
		Path:    field,
		Message: field + " must be one of the following values: " + strings.Join(supported, ", "),
	}
}

// normalizeVersion maps YAML numbers and numeric strings onto the canonical
// "major.minor" form, so 1, 1.0 and "1.0" all select version 1.0.
func normalizeVersion(raw any) (Version, bool) {
	var f float64

	switch x := raw.(type) {
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float64:
		f = x
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return "", false
		}

		f = parsed
	default:
		return "", false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return "", false
	}

	if f == math.Trunc(f) {
		return Version(strconv.FormatFloat(f, 'f', 1, 64)), true
	}

	return Version(strconv.FormatFloat(f, 'f', -1, 64)), true
}
