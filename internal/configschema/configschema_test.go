package configschema_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/choreo-dev/choreo-steps/internal/configschema"
	"github.com/choreo-dev/choreo-steps/internal/descriptor"
	apperrors "github.com/choreo-dev/choreo-steps/internal/errors"
)

func writeComponent(t *testing.T, content string) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, descriptor.Dir), 0o755))
	require.NoError(t, os.WriteFile(descriptor.Path(root, descriptor.ComponentYAML), []byte(content), 0o644))

	return root
}

func TestRun(t *testing.T) {
	t.Parallel()

	root := writeComponent(t, `
schemaVersion: 1.1
configurations:
  schema:
    - name: greeting
      displayName: Greeting
      type: string
      values: [hello, hi]
    - name: retries
      type: integer
      required: false
    - name: hosts
      type: array
      items:
        type: string
    - name: db
      displayName: Database
      type: object
      properties:
        - name: url
          type: string
        - name: pool
          type: integer
          required: false
`)

	out, err := configschema.Run(&configschema.Opts{SourceRootDir: root})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, configschema.FileName), out)

	data, err := os.ReadFile(out)
	require.NoError(t, err)

	assert.JSONEq(t, `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["greeting"],
  "properties": {
    "greeting": {"type": "string", "enum": ["hello", "hi"], "title": "Greeting"},
    "retries": {"type": "integer"},
    "hosts": {"type": "array", "items": {"type": "string"}},
    "db": {
      "type": "object",
      "title": "Database",
      "required": ["url"],
      "properties": {
        "url": {"type": "string"},
        "pool": {"type": "integer"}
      }
    }
  }
}`, string(data))
}

func TestRun_NoConfigurations(t *testing.T) {
	t.Parallel()

	root := writeComponent(t, "schemaVersion: 1.0\n")

	out, err := configschema.Run(&configschema.Opts{SourceRootDir: root})
	require.NoError(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.JSONEq(t, `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {},
  "required": []
}`, string(data))
}

func TestRun_ArrayOfObjects(t *testing.T) {
	t.Parallel()

	doc, err := configschema.Generate([]descriptor.ConfigItem{
		{
			Name: "users",
			Type: "array",
			Items: &descriptor.ConfigItem{
				Type:       "object",
				Properties: []descriptor.ConfigItem{{Name: "name", Type: "string"}},
			},
		},
	})
	require.NoError(t, err)

	props, ok := doc["properties"].(map[string]any)
	require.True(t, ok)

	users, ok := props["users"].(map[string]any)
	require.True(t, ok)

	items, ok := users["items"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "object", items["type"])
	assert.Equal(t, []string{"name"}, items["required"])
	assert.Equal(t, []string{}, doc["required"])
}

func TestRun_Errors(t *testing.T) {
	t.Parallel()

	_, err := configschema.Run(&configschema.Opts{SourceRootDir: t.TempDir()})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeUser, apperrors.CodeOf(err))
	assert.Contains(t, err.Error(), "Failed to read component.yaml")

	root := writeComponent(t, `
configurations:
  schema:
    - name: when
      type: date
`)
	_, err = configschema.Run(&configschema.Opts{SourceRootDir: root})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `unsupported type "date"`)
}
