// Package sample holds the starter code the playground offers for each
// component type.
//
// The catalog is a YAML file compiled into the binary with go:embed, so a
// deployed server never depends on files next to it. Operators can still
// point the server at their own file with Load.
package sample

import (
	_ "embed"
	"fmt"
	"os"
	"sort"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"

	"github.com/sakif/component-playground/internal/apperror"
)

//go:embed samples.yaml
var builtin []byte

// Sample is the starter code for one component type.
type Sample struct {
	ComponentType string `json:"componentType" yaml:"-"`
	Title         string `json:"title" yaml:"title"`
	Description   string `json:"description" yaml:"description"`
	Source        string `json:"source" yaml:"source"`
}

// Catalog is a read-only set of samples keyed by component type.
type Catalog struct {
	samples map[string]Sample
	order   []string
}

// Builtin returns the catalog compiled into the binary.
func Builtin() (*Catalog, error) {
	return Parse(builtin)
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading samples %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog. Every entry needs a non-empty source.
func Parse(data []byte) (*Catalog, error) {
	var raw map[string]Sample
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing samples: %w", err)
	}

	titler := cases.Title(language.English)
	c := &Catalog{samples: make(map[string]Sample, len(raw))}
	for key, s := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			return nil, apperror.ValidationFailed("componentType", "sample key must not be empty")
		}
		if strings.TrimSpace(s.Source) == "" {
			return nil, apperror.ValidationFailed("source", fmt.Sprintf("sample %q has no source", key))
		}
		s.ComponentType = key
		if s.Title == "" {
			s.Title = titler.String(strings.NewReplacer("-", " ", "_", " ").Replace(key))
		}
		c.samples[key] = s
		c.order = append(c.order, key)
	}
	sort.Strings(c.order)
	return c, nil
}

// Get returns the sample for componentType.
func (c *Catalog) Get(componentType string) (Sample, error) {
	s, ok := c.samples[componentType]
	if !ok {
		return Sample{}, apperror.NotFound("sample", componentType)
	}
	return s, nil
}

// Source returns the starter source for componentType, or "" if there is none.
func (c *Catalog) Source(componentType string) string {
	return c.samples[componentType].Source
}

// List returns every sample sorted by component type.
func (c *Catalog) List() []Sample {
	out := make([]Sample, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.samples[key])
	}
	return out
}

// Types returns the component types in sorted order.
func (c *Catalog) Types() []string {
	return append([]string(nil), c.order...)
}
