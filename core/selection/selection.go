// Package selection parses the tokens a caller uses to choose what to test.
//
// A token is either a preset name ("SocialMedia"), a bare schema name
// ("Article") or a qualified schema name ("jsonld:Article"). Parsing checks
// every token against the registries, so an unknown name fails before any
// document is fetched or extracted.
package selection

import (
	"errors"
	"strings"

	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/schema"
)

// Selection is either a SchemaToken or a PresetToken.
type Selection interface {
	String() string
	selection()
}

// SchemaToken selects schemas by name. An empty Format selects the name in
// every format that defines it.
type SchemaToken struct {
	Format schema.Format
	Name   string
}

func (SchemaToken) selection() {}

func (t SchemaToken) String() string {
	if t.Format == "" {
		return t.Name
	}
	return string(t.Format) + ":" + t.Name
}

// PresetToken selects every schema a preset bundles.
type PresetToken struct {
	Name string
}

func (PresetToken) selection() {}

func (t PresetToken) String() string {
	return t.Name
}

// Parser turns raw tokens into selections that are known to resolve.
type Parser struct {
	Schemas *schema.Registry
	Presets *preset.Registry
}

// NewParser returns a parser backed by the given registries.
func NewParser(schemas *schema.Registry, presets *preset.Registry) *Parser {
	return &Parser{Schemas: schemas, Presets: presets}
}

// ParseSchema parses "name" or "format:name" and checks that it resolves.
func (p *Parser) ParseSchema(token string) (SchemaToken, error) {
	token = strings.TrimSpace(token)
	formatPart, name, qualified := strings.Cut(token, ":")
	if !qualified {
		name = formatPart
		formatPart = ""
	}
	name = strings.TrimSpace(name)

	var format schema.Format
	if qualified {
		f, err := schema.ParseFormat(formatPart)
		if err != nil {
			return SchemaToken{}, &schema.UnknownSchemaError{Format: schema.Format(strings.TrimSpace(formatPart)), Name: name}
		}
		format = f
	}
	if name == "" {
		return SchemaToken{}, &schema.UnknownSchemaError{Format: format, Name: token}
	}

	if _, err := p.Schemas.Resolve(format, name); err != nil {
		return SchemaToken{}, err
	}
	return SchemaToken{Format: format, Name: name}, nil
}

// ParsePreset checks that token names a registered preset.
func (p *Parser) ParsePreset(token string) (PresetToken, error) {
	name := strings.TrimSpace(token)
	if p.Presets == nil {
		return PresetToken{}, &preset.UnknownPresetError{Name: name}
	}
	resolved, err := p.Presets.Resolve(name)
	if err != nil {
		return PresetToken{}, err
	}
	return PresetToken{Name: resolved.Name}, nil
}

// Parse accepts any token. A qualified token is always a schema. A bare token
// is a schema when any format defines that name, otherwise a preset when one
// exists; unknown bare tokens fail as schemas.
func (p *Parser) Parse(token string) (Selection, error) {
	token = strings.TrimSpace(token)
	if strings.Contains(token, ":") || p.Presets == nil || !p.Presets.Has(token) {
		return p.ParseSchema(token)
	}
	if st, err := p.ParseSchema(token); err == nil {
		return st, nil
	}
	return p.ParsePreset(token)
}

// ParseSchemaList parses a comma-separated list of schema tokens. Every bad
// token is reported, joined into one error.
func (p *Parser) ParseSchemaList(list string) ([]Selection, error) {
	return parseList(list, func(tok string) (Selection, error) { return p.ParseSchema(tok) })
}

// ParsePresetList parses a comma-separated list of preset names. Every bad
// token is reported, joined into one error.
func (p *Parser) ParsePresetList(list string) ([]Selection, error) {
	return parseList(list, func(tok string) (Selection, error) { return p.ParsePreset(tok) })
}

// ParseList parses a comma-separated list of mixed tokens with Parse.
func (p *Parser) ParseList(list string) ([]Selection, error) {
	return parseList(list, p.Parse)
}

func parseList(list string, parse func(string) (Selection, error)) ([]Selection, error) {
	var (
		out  []Selection
		errs []error
	)
	for _, tok := range Split(list) {
		sel, err := parse(tok)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, sel)
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// Split splits a comma-separated token list, dropping empty entries.
func Split(list string) []string {
	var out []string
	for _, tok := range strings.Split(list, ",") {
		if tok = strings.TrimSpace(tok); tok != "" {
			out = append(out, tok)
		}
	}
	return out
}
