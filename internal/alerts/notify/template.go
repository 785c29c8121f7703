package notify

import (
	"bytes"
	"errors"
	"text/template"
)

const DefaultTemplate = `[Waste Alert: {{.TypeLabel}}]
{{.Message}}
{{ if .Category }}Category: {{.Category}}
{{ end }}Fired: {{.FiredAt}}`

// TemplateData provides fields for rendering notification content.
type TemplateData struct {
	ID        string
	Type      string
	TypeLabel string
	Message   string
	Category  string
	FiredAt   string
}

// Template renders notification content.
type Template struct {
	tpl *template.Template
}

// NewTemplate parses a notification template, falling back to DefaultTemplate.
func NewTemplate(tpl string) (*Template, error) {
	if tpl == "" {
		tpl = DefaultTemplate
	}
	parsed, err := template.New("alert-notification").Parse(tpl)
	if err != nil {
		return nil, err
	}
	return &Template{tpl: parsed}, nil
}

// Render applies the template to data.
func (t *Template) Render(data TemplateData) (string, error) {
	if t == nil || t.tpl == nil {
		return "", errors.New("alert template: nil")
	}
	var buf bytes.Buffer
	if err := t.tpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
