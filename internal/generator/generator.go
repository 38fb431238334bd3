// Package generator writes starter hook files from embedded templates.
package generator

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/michael-freling/agent-hooks/internal/config"
	"github.com/michael-freling/agent-hooks/internal/hooks"
)

// ErrFileExists is returned when the output file exists and force is not set.
var ErrFileExists = errors.New("hook file already exists")

type Generator struct {
	engine *Engine
}

func NewGenerator() (*Generator, error) {
	engine, err := NewEngine()
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &Generator{
		engine: engine,
	}, nil
}

func NewGeneratorWithFS(fsys fs.FS) (*Generator, error) {
	engine, err := NewEngineWithFS(fsys)
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	return &Generator{
		engine: engine,
	}, nil
}

func (g *Generator) List() []string {
	return g.engine.List()
}

// Definitions renders the named templates and parses the hooks they define,
// in template order. Every template must compile.
func (g *Generator) Definitions(names []string, data TemplateData) ([]hooks.Definition, error) {
	var defs []hooks.Definition
	for _, name := range names {
		content, err := g.engine.Generate(name, data)
		if err != nil {
			return nil, err
		}

		templateDefs, err := config.ParseHookFile([]byte(content), config.FormatYAML)
		if err != nil {
			return nil, fmt.Errorf("template %s: %w", name, err)
		}
		defs = append(defs, templateDefs...)
	}

	if _, err := hooks.Load(defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// InitHooksFile writes the hooks of the named templates to path, encoded by
// the path's extension.
func (g *Generator) InitHooksFile(path string, names []string, data TemplateData, force bool) (int, error) {
	format, err := config.FormatFromPath(path)
	if err != nil {
		return 0, err
	}

	if !force {
		if _, err := os.Stat(path); err == nil {
			return 0, fmt.Errorf("%w: %s", ErrFileExists, path)
		}
	}

	defs, err := g.Definitions(names, data)
	if err != nil {
		return 0, err
	}

	content, err := config.MarshalHookFile(defs, format)
	if err != nil {
		return 0, fmt.Errorf("failed to encode hooks: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return 0, fmt.Errorf("failed to write hook file: %w", err)
	}

	return len(defs), nil
}
