package schema

import (
	"fmt"
	"sort"
	"strings"
)

// Registry is an immutable set of schema definitions. It is safe for
// concurrent use; nothing mutates it after NewRegistry returns.
type Registry struct {
	defs  []Definition
	index map[ID]int
}

// NewRegistry validates defs and builds a registry from them. Definitions are
// stored in format declaration order, then in the order given.
func NewRegistry(defs ...Definition) (*Registry, error) {
	r := &Registry{
		defs:  make([]Definition, 0, len(defs)),
		index: make(map[ID]int, len(defs)),
	}

	for _, d := range defs {
		if err := d.validate(); err != nil {
			return nil, err
		}
		if _, dup := r.index[d.ID()]; dup {
			return nil, fmt.Errorf("%w: %s registered twice", ErrInvalidDefinition, d.ID())
		}
		d.Fields = append([]FieldSpec(nil), d.Fields...)
		r.index[d.ID()] = -1
		r.defs = append(r.defs, d)
	}

	sort.SliceStable(r.defs, func(i, j int) bool {
		return r.defs[i].Format.rank() < r.defs[j].Format.rank()
	})
	for i, d := range r.defs {
		r.index[d.ID()] = i
	}

	return r, nil
}

// Resolve returns the definitions matching name. With an empty format every
// format is searched and all matches are returned in format declaration
// order, so a bare "Article" may yield jsonld:Article, microdata:Article and
// rdfa:Article at once.
//
// Names match exactly first; when nothing matches exactly, a case-insensitive
// match is tried. Resolve fails with *UnknownSchemaError when nothing matches.
func (r *Registry) Resolve(format Format, name string) ([]Definition, error) {
	name = strings.TrimSpace(name)
	if format != "" && !format.Valid() {
		return nil, &UnknownSchemaError{Format: format, Name: name}
	}

	found := r.match(format, func(n string) bool { return n == name })
	if len(found) == 0 {
		found = r.match(format, func(n string) bool { return strings.EqualFold(n, name) })
	}
	if len(found) == 0 {
		return nil, &UnknownSchemaError{Format: format, Name: name}
	}
	return found, nil
}

func (r *Registry) match(format Format, same func(string) bool) []Definition {
	var found []Definition
	for _, d := range r.defs {
		if format != "" && d.Format != format {
			continue
		}
		if same(d.Name) {
			found = append(found, d.clone())
		}
	}
	return found
}

// Lookup returns the definition with the given ID.
func (r *Registry) Lookup(id ID) (Definition, bool) {
	i, ok := r.index[id]
	if !ok {
		return Definition{}, false
	}
	return r.defs[i].clone(), true
}

// Has reports whether a definition with the given ID is registered.
func (r *Registry) Has(id ID) bool {
	_, ok := r.index[id]
	return ok
}

// List returns every definition in format declaration order.
func (r *Registry) List() []Definition {
	out := make([]Definition, len(r.defs))
	for i, d := range r.defs {
		out[i] = d.clone()
	}
	return out
}

// Names returns the distinct schema names, sorted.
func (r *Registry) Names() []string {
	seen := make(map[string]bool)
	var names []string
	for _, d := range r.defs {
		if !seen[d.Name] {
			seen[d.Name] = true
			names = append(names, d.Name)
		}
	}
	sort.Strings(names)
	return names
}

// FormatsOf returns the formats that define a schema called name.
func (r *Registry) FormatsOf(name string) []Format {
	var formats []Format
	for _, d := range r.defs {
		if d.Name == name {
			formats = append(formats, d.Format)
		}
	}
	return formats
}

// Len returns the number of registered definitions.
func (r *Registry) Len() int {
	return len(r.defs)
}

func (d Definition) clone() Definition {
	d.Fields = append([]FieldSpec(nil), d.Fields...)
	return d
}
