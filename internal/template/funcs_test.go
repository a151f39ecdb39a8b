package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tmpl "github.com/choreo-dev/choreo-steps/internal/template"
)

func TestFuncMap_StringFunctions(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	tests := []struct {
		tmplStr  string
		expected string
	}{
		{`{{ upper "hello" }}`, "HELLO"},
		{`{{ lower "HELLO" }}`, "hello"},
		{`{{ "foo-bar" | replace "-" "_" }}`, "foo_bar"},
		{`{{ "/api" | trimPrefix "/" }}`, "api"},
		{`{{ "file.tmpl" | trimSuffix ".tmpl" }}`, "file"},
		{`{{ add 4015 2 }}`, "4017"},
	}

	for _, tt := range tests {
		result, err := renderInline(r, tt.tmplStr, nil)
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "template: %s", tt.tmplStr)
	}
}

func TestFuncMap_Join(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	result, err := renderInline(r, `{{ .args | join " " }}`, map[string]any{"args": []string{"9090", "/api", "/choreo/oas.yaml"}})
	require.NoError(t, err)
	assert.Equal(t, "9090 /api /choreo/oas.yaml", result)
}

func TestFuncMap_ShellQuote(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	tests := []struct {
		in       string
		expected string
	}{
		{"/choreo/openapi.yaml", "/choreo/openapi.yaml"},
		{"", "''"},
		{"my schema.yaml", "'my schema.yaml'"},
		{"it's", `'it'\''s'`},
		{"$(rm -rf /)", "'$(rm -rf /)'"},
	}

	for _, tt := range tests {
		result, err := renderInline(r, `{{ shellQuote .v }}`, map[string]any{"v": tt.in})
		require.NoError(t, err)
		assert.Equal(t, tt.expected, result, "input: %q", tt.in)
	}
}

func TestFuncMap_Default(t *testing.T) {
	t.Parallel()

	r := tmpl.NewRenderer()

	result, err := renderInline(r, `{{ .desc | default "fallback" }}`, map[string]any{"desc": ""})
	require.NoError(t, err)
	assert.Equal(t, "fallback", result)

	result, err = renderInline(r, `{{ .desc | default "fallback" }}`, map[string]any{"desc": "actual"})
	require.NoError(t, err)
	assert.Equal(t, "actual", result)
}

func TestFuncMap_Env(t *testing.T) {
	r := tmpl.NewRenderer()

	t.Setenv("CHOREO_STEPS_TEST_VAR", "test_value")

	result, err := renderInline(r, `{{ env "CHOREO_STEPS_TEST_VAR" }}`, nil)
	require.NoError(t, err)
	assert.Equal(t, "test_value", result)
}
