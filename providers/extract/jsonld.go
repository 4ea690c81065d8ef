package extract

import (
	"encoding/json"
	"strings"

	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/internal/utils"
	"github.com/leofalp/sdtt/providers/observability"
)

// addJSONLD decodes every collected block and merges its entities into the
// jsonld namespace. Top-level arrays and @graph members are entities of
// their own; nested objects stay as values.
func (p *page) addJSONLD() error {
	for i, raw := range p.jsonldBlocks {
		p.builder.Touch(schema.FormatJSONLD)

		data := unwrapScript(raw)
		if data == "" {
			continue
		}

		value, err := p.decodeBlock(data)
		if err != nil {
			if p.ex.strictJSONLD {
				return &Error{Op: "decode", Format: schema.FormatJSONLD, Err: err}
			}
			p.ex.observer.Warn(p.ctx, "skipping malformed JSON-LD block",
				observability.Int("block", i),
				observability.Error(err),
				observability.String("content", utils.TruncateString(data, 200)),
			)
			continue
		}

		for _, entity := range entities(value) {
			p.addEntity(entity)
		}
	}
	return nil
}

func (p *page) decodeBlock(data string) (any, error) {
	if p.ex.strictJSONLD {
		var v any
		err := json.Unmarshal([]byte(data), &v)
		return v, err
	}
	v, repaired, err := utils.DecodeJSONLenient([]byte(data))
	if repaired {
		p.repaired++
	}
	return v, err
}

func (p *page) addEntity(entity map[string]any) {
	for key, value := range entity {
		switch key {
		case "@context", "@graph":
			continue
		case record.TypeKey:
			for _, t := range typeNames(value) {
				p.builder.AddType(schema.FormatJSONLD, t)
			}
			continue
		}
		if !strings.HasPrefix(key, "@") {
			key = localName(key)
		}
		p.builder.Add(schema.FormatJSONLD, key, p.cleanValue(value))
	}
}

// entities flattens a decoded block into its top-level objects.
func entities(v any) []map[string]any {
	switch x := v.(type) {
	case []any:
		var out []map[string]any
		for _, item := range x {
			out = append(out, entities(item)...)
		}
		return out
	case map[string]any:
		graph, hasGraph := x["@graph"]
		if !hasGraph {
			return []map[string]any{x}
		}
		var out []map[string]any
		if _, typed := x[record.TypeKey]; typed {
			out = append(out, x)
		}
		return append(out, entities(graph)...)
	default:
		return nil
	}
}

func typeNames(v any) []string {
	var out []string
	switch x := v.(type) {
	case string:
		for _, t := range strings.Fields(x) {
			out = append(out, localName(t))
		}
	case []any:
		for _, item := range x {
			out = append(out, typeNames(item)...)
		}
	}
	return out
}

// unwrapScript removes the comment and CDATA guards some CMSs still wrap
// around inline scripts.
func unwrapScript(s string) string {
	s = strings.TrimSpace(s)
	for _, pair := range [][2]string{{"<!--", "-->"}, {"//<![CDATA[", "//]]>"}, {"<![CDATA[", "]]>"}} {
		if strings.HasPrefix(s, pair[0]) && strings.HasSuffix(s, pair[1]) {
			s = strings.TrimSpace(s[len(pair[0]) : len(s)-len(pair[1])])
		}
	}
	return s
}
