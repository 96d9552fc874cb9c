// Package web holds the HTTP handlers and HTML templates for the employees
// directory application.
package web

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Renderer renders the embedded named templates with a string-keyed
// variable map.
type Renderer struct {
	tmpl *template.Template
}

func NewRenderer() (*Renderer, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("web: parse templates: %w", err)
	}
	return &Renderer{tmpl: tmpl}, nil
}

// Render executes the named template and returns the HTML string.
func (r *Renderer) Render(name string, vars map[string]any) (string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, vars); err != nil {
		return "", fmt.Errorf("web: render %q: %w", name, err)
	}
	return buf.String(), nil
}
