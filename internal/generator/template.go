package generator

import (
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"text/template"

	"github.com/michael-freling/agent-hooks/internal/templates"
)

const (
	templateDir = "hooks"
	templateExt = ".yaml.tmpl"
)

// TemplateData holds data to pass to templates
type TemplateData struct {
	Name string

	// WarnAt is the budget fraction of the warning threshold.
	WarnAt float64

	// MaxTurns adds a turn limit hook when greater than zero.
	MaxTurns int
}

// DefaultTemplateData returns the values used when no options are given.
func DefaultTemplateData() TemplateData {
	return TemplateData{WarnAt: 0.8}
}

var templatesFS fs.FS = templates.FS

// Engine holds parsed starter hook templates. Templates use [[ ]] actions so
// {{ }} message placeholders pass through unchanged.
type Engine struct {
	templates     *template.Template
	templateNames []string
}

// NewEngine creates a new template engine by loading and parsing all templates from embedded FS
func NewEngine() (*Engine, error) {
	return NewEngineWithFS(templatesFS)
}

// NewEngineWithFS creates a new template engine by loading and parsing all templates from the provided FS
func NewEngineWithFS(fsys fs.FS) (*Engine, error) {
	engine := &Engine{
		templates: template.New("hooks").Delims("[[", "]]"),
	}

	entries, err := fs.ReadDir(fsys, templateDir)
	if err != nil {
		// Directory doesn't exist, return empty template set
		return engine, nil
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), templateExt) {
			continue
		}

		filePath := path.Join(templateDir, entry.Name())
		content, err := fs.ReadFile(fsys, filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read template file %s: %w", filePath, err)
		}

		name := strings.TrimSuffix(entry.Name(), templateExt)
		if _, err := engine.templates.New(name).Parse(string(content)); err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", filePath, err)
		}
		engine.templateNames = append(engine.templateNames, name)
	}
	sort.Strings(engine.templateNames)

	return engine, nil
}

// Generate executes a specific template and returns the result
func (e *Engine) Generate(name string, data TemplateData) (string, error) {
	tmpl := e.templates.Lookup(name)
	if tmpl == nil {
		return "", fmt.Errorf("template %s not found", name)
	}

	data.Name = name
	var result strings.Builder
	if err := tmpl.Execute(&result, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", name, err)
	}

	return result.String(), nil
}

// List returns available template names
func (e *Engine) List() []string {
	names := make([]string, len(e.templateNames))
	copy(names, e.templateNames)
	return names
}
