package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/michael-freling/agent-hooks/internal/hooks"
)

// Format is the encoding of a hook definition file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatFromPath selects the file format from the path's extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	case ".toml":
		return FormatTOML, nil
	}
	return "", fmt.Errorf("unsupported hook file extension: %s", path)
}

// hookFile is the on-disk shape: a mapping from event name to hooks, either
// at the top level or under a "hooks" key as in hook templates.
type hookFile struct {
	Hooks map[string][]hooks.Definition `json:"hooks" yaml:"hooks" toml:"hooks"`
}

// ParseHookFile decodes a hook definition document. Events are returned in
// name order; hooks within an event keep their declared order.
func ParseHookFile(data []byte, format Format) ([]hooks.Definition, error) {
	var doc map[string]interface{}
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse YAML: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse JSON: %w", err)
		}
	case FormatTOML:
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, fmt.Errorf("failed to parse TOML: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported hook file format: %q", format)
	}

	mapping := doc
	if value, ok := doc["hooks"]; ok {
		switch nested := value.(type) {
		case nil:
			return nil, nil
		case map[string]interface{}:
			mapping = nested
		}
	}
	if mapping == nil {
		return nil, nil
	}

	// Round-trip through JSON so every format is validated and decoded the same way.
	raw, err := json.Marshal(mapping)
	if err != nil {
		return nil, fmt.Errorf("failed to normalize hook file: %w", err)
	}

	var generic interface{}
	if err := json.Unmarshal(raw, &generic); err != nil {
		return nil, fmt.Errorf("failed to normalize hook file: %w", err)
	}
	if err := validateSchema(generic); err != nil {
		return nil, err
	}

	var events map[string]json.RawMessage
	if err := json.Unmarshal(raw, &events); err != nil {
		return nil, fmt.Errorf("failed to decode hooks: %w", err)
	}

	names := make([]string, 0, len(events))
	for name := range events {
		names = append(names, name)
	}
	sort.Strings(names)

	var defs []hooks.Definition
	for _, name := range names {
		list, err := decodeDefinitions(events[name])
		if err != nil {
			return nil, fmt.Errorf("failed to decode hooks for %s: %w", name, err)
		}
		for _, def := range list {
			def.Event = name
			defs = append(defs, def)
		}
	}

	return defs, nil
}

// decodeDefinitions accepts either one hook object or a list of them.
func decodeDefinitions(raw json.RawMessage) ([]hooks.Definition, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var list []hooks.Definition
		if err := json.Unmarshal(trimmed, &list); err != nil {
			return nil, err
		}
		return list, nil
	}

	var def hooks.Definition
	if err := json.Unmarshal(trimmed, &def); err != nil {
		return nil, err
	}
	return []hooks.Definition{def}, nil
}

// MarshalHookFile encodes definitions in the hook template shape, always
// writing each event's hooks as a list.
func MarshalHookFile(defs []hooks.Definition, format Format) ([]byte, error) {
	file := hookFile{Hooks: make(map[string][]hooks.Definition)}
	for _, def := range defs {
		file.Hooks[def.Event] = append(file.Hooks[def.Event], def)
	}

	switch format {
	case FormatYAML:
		return yaml.Marshal(file)
	case FormatJSON:
		return json.MarshalIndent(file, "", "  ")
	case FormatTOML:
		return toml.Marshal(file)
	}
	return nil, fmt.Errorf("unsupported hook file format: %q", format)
}

// LoadHookFiles reads hook definitions from each path in order.
func LoadHookFiles(paths ...string) ([]hooks.Definition, error) {
	var defs []hooks.Definition
	for _, path := range paths {
		format, err := FormatFromPath(path)
		if err != nil {
			return nil, err
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read hook file %s: %w", path, err)
		}

		fileDefs, err := ParseHookFile(data, format)
		if err != nil {
			return nil, fmt.Errorf("hook file %s: %w", path, err)
		}
		defs = append(defs, fileDefs...)
	}
	return defs, nil
}

// FileRegistryLoader builds registries from hook definition files.
type FileRegistryLoader struct {
	paths []string
}

// NewRegistryLoader creates a loader reading the given hook files.
func NewRegistryLoader(paths ...string) *FileRegistryLoader {
	return &FileRegistryLoader{paths: paths}
}

// Paths returns the hook files the loader reads.
func (l *FileRegistryLoader) Paths() []string {
	return l.paths
}

// LoadRegistry reads every hook file and builds a new Registry. No registry
// is returned when any file or definition is invalid.
func (l *FileRegistryLoader) LoadRegistry() (*hooks.Registry, error) {
	defs, err := LoadHookFiles(l.paths...)
	if err != nil {
		return nil, err
	}
	return hooks.Load(defs)
}
