// Package preset groups schema definitions into named bundles for common use
// cases, such as every tag a social network reads for link previews.
package preset

import (
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/sdtt/core/schema"
)

// ErrInvalidPreset is wrapped by every error NewRegistry returns.
var ErrInvalidPreset = errors.New("sdtt: invalid preset")

// Preset is a named, ordered list of schema references.
type Preset struct {
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Schemas     []schema.ID `json:"schemas" yaml:"-"`
}

// UnknownPresetError reports a selection naming no registered preset.
type UnknownPresetError struct {
	Name string
}

func (e *UnknownPresetError) Error() string {
	return fmt.Sprintf("%q is not a valid preset", e.Name)
}

// UnresolvedReferenceError reports a preset that lists a schema the schema
// registry does not define.
type UnresolvedReferenceError struct {
	Preset string
	Schema schema.ID
}

func (e *UnresolvedReferenceError) Error() string {
	return fmt.Sprintf("preset %q references unknown schema %s", e.Preset, e.Schema)
}

func (e *UnresolvedReferenceError) Unwrap() error {
	return ErrInvalidPreset
}

// Registry is an immutable set of presets whose references are all known to
// resolve against the schema registry it was built with.
type Registry struct {
	schemas *schema.Registry
	presets []Preset
	index   map[string]int
}

// NewRegistry validates presets against schemas and builds a registry.
func NewRegistry(schemas *schema.Registry, presets ...Preset) (*Registry, error) {
	if schemas == nil {
		return nil, fmt.Errorf("%w: nil schema registry", ErrInvalidPreset)
	}

	r := &Registry{
		schemas: schemas,
		presets: make([]Preset, 0, len(presets)),
		index:   make(map[string]int, len(presets)),
	}

	for _, p := range presets {
		name := strings.TrimSpace(p.Name)
		if name == "" || strings.ContainsAny(name, ":,") {
			return nil, fmt.Errorf("%w: bad name %q", ErrInvalidPreset, p.Name)
		}
		if _, dup := r.index[name]; dup {
			return nil, fmt.Errorf("%w: %q registered twice", ErrInvalidPreset, name)
		}
		if len(p.Schemas) == 0 {
			return nil, fmt.Errorf("%w: %q lists no schemas", ErrInvalidPreset, name)
		}
		for _, id := range p.Schemas {
			if !schemas.Has(id) {
				return nil, &UnresolvedReferenceError{Preset: name, Schema: id}
			}
		}

		p.Name = name
		p.Schemas = append([]schema.ID(nil), p.Schemas...)
		r.index[name] = len(r.presets)
		r.presets = append(r.presets, p)
	}

	return r, nil
}

// Resolve returns the preset called name. Matching falls back to a
// case-insensitive comparison when no exact match exists.
func (r *Registry) Resolve(name string) (Preset, error) {
	name = strings.TrimSpace(name)
	if i, ok := r.index[name]; ok {
		return r.presets[i].clone(), nil
	}
	for _, p := range r.presets {
		if strings.EqualFold(p.Name, name) {
			return p.clone(), nil
		}
	}
	return Preset{}, &UnknownPresetError{Name: name}
}

// Has reports whether a preset called name resolves.
func (r *Registry) Has(name string) bool {
	_, err := r.Resolve(name)
	return err == nil
}

// Expand resolves a preset and returns its schema definitions in order.
func (r *Registry) Expand(name string) ([]schema.Definition, error) {
	p, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	defs := make([]schema.Definition, 0, len(p.Schemas))
	for _, id := range p.Schemas {
		d, ok := r.schemas.Lookup(id)
		if !ok {
			// NewRegistry checked every reference.
			return nil, &UnresolvedReferenceError{Preset: p.Name, Schema: id}
		}
		defs = append(defs, d)
	}
	return defs, nil
}

// List returns every preset in registration order.
func (r *Registry) List() []Preset {
	out := make([]Preset, len(r.presets))
	for i, p := range r.presets {
		out[i] = p.clone()
	}
	return out
}

// Schemas returns the schema registry the presets were validated against.
func (r *Registry) Schemas() *schema.Registry {
	return r.schemas
}

func (p Preset) clone() Preset {
	p.Schemas = append([]schema.ID(nil), p.Schemas...)
	return p
}
