package schema

import (
	"fmt"
	"strings"
)

// Format identifies the markup convention a schema is serialized in.
type Format string

const (
	// FormatJSONLD is schema.org markup in <script type="application/ld+json"> blocks.
	FormatJSONLD Format = "jsonld"
	// FormatMicrodata is schema.org markup in itemscope/itemprop attributes.
	FormatMicrodata Format = "microdata"
	// FormatRDFa is schema.org markup in vocab/typeof/property attributes.
	FormatRDFa Format = "rdfa"
	// FormatOpenGraph covers og:*, article:*, fb:*, book:* and profile:* meta properties.
	FormatOpenGraph Format = "og"
	// FormatTwitter covers twitter:* card meta tags.
	FormatTwitter Format = "twitter"
	// FormatMeta covers plain head metadata: <title>, named meta tags and canonical links.
	FormatMeta Format = "meta"
)

// formatOrder is the declaration order used whenever results span formats.
var formatOrder = []Format{
	FormatJSONLD,
	FormatMicrodata,
	FormatRDFa,
	FormatOpenGraph,
	FormatTwitter,
	FormatMeta,
}

// Formats returns every supported format in declaration order.
func Formats() []Format {
	return append([]Format(nil), formatOrder...)
}

// ParseFormat normalizes s to a known Format. It accepts a few common
// spellings ("json-ld", "opengraph", "html").
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "jsonld", "json-ld", "ld+json":
		return FormatJSONLD, nil
	case "microdata":
		return FormatMicrodata, nil
	case "rdfa":
		return FormatRDFa, nil
	case "og", "opengraph", "open-graph", "facebook":
		return FormatOpenGraph, nil
	case "twitter":
		return FormatTwitter, nil
	case "meta", "html":
		return FormatMeta, nil
	default:
		return "", fmt.Errorf("unknown format %q", s)
	}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f.rank() >= 0
}

func (f Format) rank() int {
	for i, known := range formatOrder {
		if f == known {
			return i
		}
	}
	return -1
}

func (f Format) String() string {
	return string(f)
}

// ExpectedType is the value shape a field is checked against once present.
// The zero value means the shape is not checked.
type ExpectedType string

const (
	TypeAny    ExpectedType = ""
	TypeString ExpectedType = "string"
	TypeURL    ExpectedType = "url"
	TypeImage  ExpectedType = "image"
	TypeDate   ExpectedType = "date"
	TypeNumber ExpectedType = "number"
)

// Valid reports whether t is a known expected type.
func (t ExpectedType) Valid() bool {
	switch t {
	case TypeAny, TypeString, TypeURL, TypeImage, TypeDate, TypeNumber:
		return true
	}
	return false
}

// FieldSpec describes one expected field of a schema.
type FieldSpec struct {
	Key      string       `json:"key" yaml:"key"`
	Required bool         `json:"required" yaml:"required"`
	Type     ExpectedType `json:"type,omitempty" yaml:"type,omitempty"`
}

// ID identifies a schema definition by format and name.
type ID struct {
	Format Format `json:"format"`
	Name   string `json:"name"`
}

// String renders the ID as "format:name", the same form selection tokens use.
func (id ID) String() string {
	return string(id.Format) + ":" + id.Name
}

// ParseID parses a fully qualified "format:name" token.
func ParseID(s string) (ID, error) {
	formatPart, name, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || strings.TrimSpace(name) == "" {
		return ID{}, fmt.Errorf("schema id %q: expected format:name", s)
	}
	format, err := ParseFormat(formatPart)
	if err != nil {
		return ID{}, fmt.Errorf("schema id %q: %w", s, err)
	}
	return ID{Format: format, Name: strings.TrimSpace(name)}, nil
}

// Definition is a named set of expected fields for one serialization format.
// Fields keep their declared order; reports list them in that order.
type Definition struct {
	Format      Format      `json:"format"`
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldSpec `json:"fields"`
}

// ID returns the identity of the definition.
func (d Definition) ID() ID {
	return ID{Format: d.Format, Name: d.Name}
}

// Required returns the keys of the required fields, in declared order.
func (d Definition) Required() []string {
	var keys []string
	for _, f := range d.Fields {
		if f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Optional returns the keys of the optional fields, in declared order.
func (d Definition) Optional() []string {
	var keys []string
	for _, f := range d.Fields {
		if !f.Required {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// validate checks the invariants NewRegistry relies on.
func (d Definition) validate() error {
	if !d.Format.Valid() {
		return fmt.Errorf("%w: %s: unknown format %q", ErrInvalidDefinition, d.Name, d.Format)
	}
	if strings.TrimSpace(d.Name) == "" {
		return fmt.Errorf("%w: empty name in format %q", ErrInvalidDefinition, d.Format)
	}
	if strings.ContainsAny(d.Name, ":,") {
		return fmt.Errorf("%w: %s: name must not contain ':' or ','", ErrInvalidDefinition, d.ID())
	}
	seen := make(map[string]bool, len(d.Fields))
	for _, f := range d.Fields {
		if strings.TrimSpace(f.Key) == "" {
			return fmt.Errorf("%w: %s: empty field key", ErrInvalidDefinition, d.ID())
		}
		if seen[f.Key] {
			return fmt.Errorf("%w: %s: duplicate field %q", ErrInvalidDefinition, d.ID(), f.Key)
		}
		if !f.Type.Valid() {
			return fmt.Errorf("%w: %s: field %q: unknown type %q", ErrInvalidDefinition, d.ID(), f.Key, f.Type)
		}
		seen[f.Key] = true
	}
	return nil
}
