// Package record holds the normalized structured data an extractor pulled
// out of one document: format → field key → raw value.
//
// A Record is built once through a [Builder] and treated as read-only
// afterwards; the matcher and the tester never modify it.
package record

import (
	"sort"
	"strings"

	"github.com/leofalp/sdtt/core/schema"
)

// TypeKey is the field under which schema.org types (@type, itemtype,
// typeof) are collected for jsonld, microdata and rdfa.
const TypeKey = "@type"

// Fields maps a field key to its raw value. Values are string, float64, bool,
// []any, map[string]any or nil.
type Fields map[string]any

// Record maps a serialization format to the fields found in that format.
type Record map[schema.Format]Fields

// Namespace returns the fields recorded for format and whether the document
// carried that format at all.
func (r Record) Namespace(format schema.Format) (Fields, bool) {
	f, ok := r[format]
	return f, ok
}

// Get returns the raw value of key in format.
func (r Record) Get(format schema.Format, key string) (any, bool) {
	f, ok := r[format]
	if !ok {
		return nil, false
	}
	v, ok := f[key]
	return v, ok
}

// Formats returns the formats present in the record, in declaration order.
func (r Record) Formats() []schema.Format {
	var out []schema.Format
	for _, f := range schema.Formats() {
		if _, ok := r[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

// Keys returns the field keys recorded for format, sorted.
func (r Record) Keys(format schema.Format) []string {
	f := r[format]
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Types returns the schema.org types recorded for format.
func (r Record) Types(format schema.Format) []string {
	v, ok := r.Get(format, TypeKey)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range asSlice(v) {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// IsEmpty reports whether v counts as absent: nil, a blank string, or an
// empty slice or map.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case map[string]any:
		return len(x) == 0
	case Fields:
		return len(x) == 0
	}
	return false
}

func asSlice(v any) []any {
	switch x := v.(type) {
	case []any:
		return x
	case []string:
		out := make([]any, len(x))
		for i, s := range x {
			out[i] = s
		}
		return out
	default:
		return []any{v}
	}
}
