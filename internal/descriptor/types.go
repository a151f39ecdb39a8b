package descriptor

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Component is the typed view of component.yaml.
type Component struct {
	SchemaVersion  any                  `yaml:"schemaVersion"`
	Endpoints      []ComponentEndpoint  `yaml:"endpoints"`
	Dependencies   *Dependencies        `yaml:"dependencies"`
	Configurations *ConfigurationsBlock `yaml:"configurations"`
}

// ComponentEndpoint is a component.yaml endpoint entry.
type ComponentEndpoint struct {
	Name                string   `yaml:"name"`
	DisplayName         string   `yaml:"displayName"`
	Service             Service  `yaml:"service"`
	Type                string   `yaml:"type"`
	NetworkVisibilities []string `yaml:"networkVisibilities"`
	SchemaFilePath      string   `yaml:"schemaFilePath"`
}

// Service holds the port and base path an endpoint is served on.
type Service struct {
	BasePath string `yaml:"basePath"`
	Port     int    `yaml:"port"`
}

// Dependencies lists the services a component consumes.
type Dependencies struct {
	ServiceReferences    []ServiceReference    `yaml:"serviceReferences"`
	ConnectionReferences []ConnectionReference `yaml:"connectionReferences"`
}

// ServiceReference binds a service identifier to a connection and its env.
type ServiceReference struct {
	Name             string       `yaml:"name"`
	ConnectionConfig string       `yaml:"connectionConfig"`
	Env              []EnvMapping `yaml:"env"`
}

// EnvMapping maps a connection key to an environment variable.
type EnvMapping struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// ConnectionReference is a named reference to a resource.
type ConnectionReference struct {
	Name        string `yaml:"name"`
	ResourceRef string `yaml:"resourceRef"`
}

// ConfigurationsBlock carries the configurable schema of a component.
type ConfigurationsBlock struct {
	Schema []ConfigItem `yaml:"schema"`
}

// ConfigItem is one configurable entry. Items and Properties describe array
// elements and object members respectively.
type ConfigItem struct {
	Name        string       `yaml:"name"`
	DisplayName string       `yaml:"displayName"`
	Type        string       `yaml:"type"`
	Required    *bool        `yaml:"required"`
	Values      []any        `yaml:"values"`
	Items       *ConfigItem  `yaml:"items"`
	Properties  []ConfigItem `yaml:"properties"`
}

// IsRequired reports whether the item is required. Items are required unless
// they say otherwise.
func (c *ConfigItem) IsRequired() bool {
	return c.Required == nil || *c.Required
}

// ComponentConfig is the typed view of component-config.yaml.
type ComponentConfig struct {
	APIVersion string              `yaml:"apiVersion"`
	Kind       string              `yaml:"kind"`
	Spec       ComponentConfigSpec `yaml:"spec"`
}

// ComponentConfigSpec holds the inbound and outbound sections.
type ComponentConfigSpec struct {
	Inbound  []Endpoint    `yaml:"inbound"`
	Outbound *Dependencies `yaml:"outbound"`
}

// EndpointsFile is the typed view of endpoints.yaml.
type EndpointsFile struct {
	Version   string     `yaml:"version"`
	Endpoints []Endpoint `yaml:"endpoints"`
}

// Endpoint is an endpoints.yaml or component-config inbound entry.
type Endpoint struct {
	Name              string `yaml:"name"`
	Port              int    `yaml:"port"`
	Type              string `yaml:"type"`
	NetworkVisibility string `yaml:"networkVisibility"`
	Context           string `yaml:"context"`
	SchemaFilePath    string `yaml:"schemaFilePath"`
}

// ServedEndpoint is the flattened view of an endpoint used by the mock
// server generator, independent of which descriptor declared it.
type ServedEndpoint struct {
	Port           int
	BasePath       string
	SchemaFilePath string
}

// ReadComponent decodes component.yaml under root.
func ReadComponent(root string) (*Component, error) {
	var c Component
	if err := readTyped(root, ComponentYAML, &c); err != nil {
		return nil, err
	}

	return &c, nil
}

// ReadServedEndpoints returns the endpoints declared by the first descriptor
// present under root.
func ReadServedEndpoints(root string) ([]ServedEndpoint, error) {
	ft, ok, err := Detect(root)
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("no source config file found under %s", filepath.Join(root, Dir))
	}

	var served []ServedEndpoint

	switch ft {
	case ComponentYAML:
		c, err := ReadComponent(root)
		if err != nil {
			return nil, err
		}

		for _, ep := range c.Endpoints {
			served = append(served, ServedEndpoint{
				Port:           ep.Service.Port,
				BasePath:       ep.Service.BasePath,
				SchemaFilePath: ep.SchemaFilePath,
			})
		}
	case ComponentConfigYAML:
		var cc ComponentConfig
		if err := readTyped(root, ft, &cc); err != nil {
			return nil, err
		}

		served = flatten(cc.Spec.Inbound)
	case EndpointsYAML:
		var ef EndpointsFile
		if err := readTyped(root, ft, &ef); err != nil {
			return nil, err
		}

		served = flatten(ef.Endpoints)
	}

	return served, nil
}

func flatten(eps []Endpoint) []ServedEndpoint {
	served := make([]ServedEndpoint, 0, len(eps))
	for _, ep := range eps {
		served = append(served, ServedEndpoint{
			Port:           ep.Port,
			BasePath:       ep.Context,
			SchemaFilePath: ep.SchemaFilePath,
		})
	}

	return served
}

func readTyped(root string, ft FileType, out any) error {
	path := Path(root, ft)

	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}

	return nil
}
