package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/goliatone/go-formengine/pkg/model"
	"github.com/goliatone/go-formengine/pkg/registry"
)

// Definition is one form as a provider ships it.
type Definition struct {
	Entry    model.FormEntry    `json:"entry" yaml:"entry"`
	Metadata model.FormMetadata `json:"metadata" yaml:"metadata"`
	// Source is the file the definition was read from.
	Source string `json:"-" yaml:"-"`
}

// ID returns the form id, preferring the metadata id.
func (d Definition) ID() string {
	if id := strings.TrimSpace(d.Metadata.ID); id != "" {
		return id
	}
	return strings.TrimSpace(d.Entry.ID)
}

// Catalog is the merged content of one or more catalog files.
type Catalog struct {
	Forms        []Definition                `json:"forms" yaml:"forms"`
	Dependencies []model.ParameterDependency `json:"parameterDependencies,omitempty" yaml:"parameterDependencies,omitempty"`
	Rules        []model.ValidationRule      `json:"validationRules,omitempty" yaml:"validationRules,omitempty"`
}

// Form returns the definition with the given id.
func (c Catalog) Form(id string) (Definition, bool) {
	for _, def := range c.Forms {
		if def.ID() == id {
			return def, true
		}
	}
	return Definition{}, false
}

// Register adds every form to reg in catalog order as one batch, so forms
// may depend on forms loaded from later files. All forms are attempted; the
// returned error joins the failures.
func (c Catalog) Register(reg *registry.Registry) error {
	if reg == nil {
		return errors.New("catalog: registry is required")
	}
	forms := make([]registry.Registration, 0, len(c.Forms))
	for _, def := range c.Forms {
		forms = append(forms, registry.Registration{Entry: def.Entry, Metadata: def.Metadata})
	}
	if err := reg.RegisterAll(forms...); err != nil {
		return fmt.Errorf("catalog: register: %w", err)
	}
	return nil
}

type documentFile struct {
	Entry        *model.FormEntry            `json:"entry" yaml:"entry"`
	Metadata     *model.FormMetadata         `json:"metadata" yaml:"metadata"`
	Forms        []Definition                `json:"forms" yaml:"forms"`
	Dependencies []model.ParameterDependency `json:"parameterDependencies" yaml:"parameterDependencies"`
	Rules        []model.ValidationRule      `json:"validationRules" yaml:"validationRules"`
}

// LoadFS walks fsys and parses every JSON or YAML file into one catalog.
// A form id defined twice across the walk is an error. A nil fsys yields an
// empty catalog.
func LoadFS(fsys fs.FS) (Catalog, error) {
	var out Catalog
	if fsys == nil {
		return out, nil
	}
	seen := make(map[string]string)

	err := fs.WalkDir(fsys, ".", func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() || !isCatalogFile(path) {
			return nil
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return fmt.Errorf("catalog: read %s: %w", path, err)
		}
		parsed, err := Parse(data, path)
		if err != nil {
			return err
		}
		for _, def := range parsed.Forms {
			if previous, exists := seen[def.ID()]; exists {
				return fmt.Errorf("catalog: duplicate form %q (files %s and %s)", def.ID(), previous, path)
			}
			seen[def.ID()] = path
		}
		out.Forms = append(out.Forms, parsed.Forms...)
		out.Dependencies = append(out.Dependencies, parsed.Dependencies...)
		out.Rules = append(out.Rules, parsed.Rules...)
		return nil
	})
	if err != nil {
		return Catalog{}, err
	}
	return out, nil
}

// Parse decodes a single catalog document. JSON is tried first, then YAML.
func Parse(data []byte, source string) (Catalog, error) {
	if len(strings.TrimSpace(string(data))) == 0 {
		return Catalog{}, fmt.Errorf("catalog: file %s is empty", source)
	}

	var doc documentFile
	if err := json.Unmarshal(data, &doc); err != nil {
		doc = documentFile{}
		if yamlErr := yaml.Unmarshal(data, &doc); yamlErr != nil {
			return Catalog{}, fmt.Errorf("catalog: parse %s: invalid JSON or YAML", source)
		}
	}

	out := Catalog{
		Dependencies: doc.Dependencies,
		Rules:        doc.Rules,
	}
	if doc.Metadata != nil {
		def := Definition{Metadata: *doc.Metadata}
		if doc.Entry != nil {
			def.Entry = *doc.Entry
		}
		out.Forms = append(out.Forms, def)
	}
	out.Forms = append(out.Forms, doc.Forms...)

	seen := make(map[string]struct{}, len(out.Forms))
	for idx := range out.Forms {
		def := &out.Forms[idx]
		def.Source = source
		id := def.ID()
		if id == "" {
			return Catalog{}, fmt.Errorf("catalog: file %s defines a form without an id", source)
		}
		if _, exists := seen[id]; exists {
			return Catalog{}, fmt.Errorf("catalog: duplicate form %q (file %s)", id, source)
		}
		seen[id] = struct{}{}
		def.Metadata.ID = id
		if def.Entry.ID == "" {
			def.Entry.ID = id
		}
	}
	if len(out.Forms) == 0 && len(out.Dependencies) == 0 && len(out.Rules) == 0 {
		return Catalog{}, fmt.Errorf("catalog: file %s defines no forms, dependencies or rules", source)
	}
	return out, nil
}

// Marshal encodes a catalog as YAML.
func Marshal(c Catalog) ([]byte, error) {
	data, err := yaml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("catalog: marshal: %w", err)
	}
	return data, nil
}

func isCatalogFile(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}
