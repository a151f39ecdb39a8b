package validate_test

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
	"github.com/choreo-dev/choreo-steps/internal/schema"
	"github.com/choreo-dev/choreo-steps/internal/validate"
)

func setup(t *testing.T, ft descriptor.FileType, content string) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, descriptor.Dir)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, string(ft)), []byte(content), 0o644))

	return root
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
}

func TestRun_ComponentYAML(t *testing.T) {
	t.Parallel()

	root := setup(t, descriptor.ComponentYAML, `
schemaVersion: 1.1
endpoints:
  - name: greeter
    service:
      basePath: /greeter
      port: 9090
    type: REST
    schemaFilePath: openapi.yaml
`)
	require.NoError(t, os.WriteFile(filepath.Join(root, "openapi.yaml"), []byte("openapi: 3.0.0"), 0o644))

	res, err := validate.Run(&validate.Opts{
		SourceRootDir: root,
		FileType:      "component.yaml",
		Logger:        quietLogger(),
	})
	require.NoError(t, err)
	assert.Equal(t, descriptor.ComponentYAML, res.FileType)
	assert.Equal(t, schema.ComponentV1_1, res.Version)
}

func TestRun_Violations(t *testing.T) {
	t.Parallel()

	root := setup(t, descriptor.EndpointsYAML, `
version: "0.1"
endpoints:
  - {name: a, port: 8080, type: REST}
  - {name: a, port: 8081, type: TCP}
`)

	_, err := validate.Run(&validate.Opts{SourceRootDir: root, FileType: "endpoints.yaml", Logger: quietLogger()})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
	assert.Equal(t,
		"USER ERROR endpoints.yaml validation failed: "+
			"\n- endpoints[0].context is required for REST-type endpoints"+
			"\n- Endpoint names must be unique",
		err.Error())
}

func TestRun_UnreachableSchemaPath(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		path string
	}{
		{name: "path through a file", path: "openapi.yaml/extra"},
		{name: "name too long", path: strings.Repeat("s", 300) + ".yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			root := setup(t, descriptor.EndpointsYAML, `
version: "0.1"
endpoints:
  - {name: a, port: 80, type: REST, schemaFilePath: "`+tt.path+`"}
`)
			require.NoError(t, os.WriteFile(filepath.Join(root, "openapi.yaml"), []byte("openapi: 3.0.0"), 0o644))

			_, err := validate.Run(&validate.Opts{SourceRootDir: root, FileType: "endpoints.yaml", Logger: quietLogger()})
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
			assert.Equal(t,
				"USER ERROR endpoints.yaml validation failed: "+
					"\n- endpoints[0].port must be greater than 1000"+
					"\n- endpoints[0].context is required for REST-type endpoints"+
					"\n- Schema file does not exist at the given path "+tt.path+".",
				err.Error())
		})
	}
}

func TestRun_UnsupportedSchemaVersion(t *testing.T) {
	t.Parallel()

	root := setup(t, descriptor.ComponentYAML, "schemaVersion: 2.0\n")

	_, err := validate.Run(&validate.Opts{SourceRootDir: root, FileType: "component.yaml", Logger: quietLogger()})
	require.Error(t, err)
	assert.Equal(t,
		"USER ERROR component.yaml validation failed: schemaVersion must be one of the following values: 1.0, 1.1",
		err.Error())
}

func TestRun_UnknownFileType(t *testing.T) {
	t.Parallel()

	_, err := validate.Run(&validate.Opts{SourceRootDir: t.TempDir(), FileType: "svc.yaml", Logger: quietLogger()})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "'svc.yaml' is not a valid source config file type")
}

func TestRun_MissingComponentYAML(t *testing.T) {
	t.Parallel()

	_, err := validate.Run(&validate.Opts{SourceRootDir: t.TempDir(), FileType: "component.yaml", Logger: quietLogger()})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "USER ERROR Failed to read source config file")
}

func TestRun_MissingArguments(t *testing.T) {
	t.Parallel()

	_, err := validate.Run(&validate.Opts{FileType: "component.yaml", Logger: quietLogger()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Both --source-root-dir and --file-type arguments are required")
}
