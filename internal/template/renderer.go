package template

import (
	"bytes"
	"fmt"
	"io/fs"
	"path"
	"strings"
	"text/template"
)

// Renderer renders Go text/templates with the build file function map.
type Renderer struct {
	funcMap template.FuncMap
}

// NewRenderer creates a Renderer with the standard function map.
func NewRenderer() *Renderer {
	return &Renderer{
		funcMap: FuncMap(),
	}
}

// RenderFS reads a template from fsys and renders it with data.
func (r *Renderer) RenderFS(fsys fs.FS, name string, data any) ([]byte, error) {
	text, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, fmt.Errorf("reading template %s: %w", name, err)
	}

	return r.render(path.Base(name), string(text), data)
}

// StripTemplateExtension removes the .tmpl extension from a filename.
func StripTemplateExtension(name string) string {
	return strings.TrimSuffix(name, ".tmpl")
}

// IsTemplate returns true if the path ends with .tmpl.
func IsTemplate(name string) bool {
	return strings.HasSuffix(name, ".tmpl")
}

func (r *Renderer) render(name, text string, data any) ([]byte, error) {
	tmpl, err := template.New(name).
		Funcs(r.funcMap).
		Option("missingkey=error").
		Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parsing template %q: %w", name, err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("executing template %q: %w", name, err)
	}

	return buf.Bytes(), nil
}
