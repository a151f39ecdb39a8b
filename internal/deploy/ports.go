package deploy

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	corev1 "k8s.io/api/core/v1"
	"k8s.io/apimachinery/pkg/apis/meta/v1/unstructured"
	"k8s.io/apimachinery/pkg/runtime"
	utilyaml "k8s.io/apimachinery/pkg/util/yaml"
)

// Default port reported for HTTP-based apps whose workspace declares none.
const (
	DefaultPort     = 8090
	DefaultPortName = "port-1-default"
)

// DefaultPortExtractPath is the generated Kubernetes workspace manifest.
const DefaultPortExtractPath = "target/kubernetes/workspace/workspace.yaml"

// ImagePort is a port exposed by the deployed image.
type ImagePort struct {
	Port int32  `json:"port"`
	Name string `json:"name"`
}

// PreparedPath lower-cases the last segment of a slash separated path. The
// build writes the workspace manifest with a lower-cased file name.
func PreparedPath(path string) string {
	i := strings.LastIndex(path, "/")

	return path[:i+1] + strings.ToLower(path[i+1:])
}

// ExtractPorts returns the ports of every Service in the multi-document
// manifest at path.
func ExtractPorts(path string) ([]ImagePort, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("opening manifest %s: %w", path, err)
	}
	defer f.Close() //nolint:errcheck // read-only file

	dec := utilyaml.NewYAMLOrJSONDecoder(f, 4096)

	var ports []ImagePort

	for {
		var obj map[string]any
		if err := dec.Decode(&obj); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}

			return nil, fmt.Errorf("decoding manifest %s: %w", path, err)
		}

		if len(obj) == 0 {
			continue
		}

		u := &unstructured.Unstructured{Object: obj}
		if u.GetKind() != "Service" {
			continue
		}

		var svc corev1.Service
		if err := runtime.DefaultUnstructuredConverter.FromUnstructured(u.Object, &svc); err != nil {
			return nil, fmt.Errorf("converting service %s: %w", u.GetName(), err)
		}

		for _, p := range svc.Spec.Ports {
			ports = append(ports, ImagePort{Port: p.Port, Name: p.Name})
		}
	}

	return ports, nil
}
