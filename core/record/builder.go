package record

import (
	"reflect"

	"github.com/leofalp/sdtt/core/schema"
)

// Builder accumulates values for a Record. It is not safe for concurrent use.
type Builder struct {
	rec Record
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{rec: make(Record)}
}

// Touch marks format as present in the document even when no field of it
// is recorded, e.g. an empty JSON-LD block.
func (b *Builder) Touch(format schema.Format) {
	if _, ok := b.rec[format]; !ok {
		b.rec[format] = make(Fields)
	}
}

// Add records value for key in format. A repeated key collects its distinct
// values into a []any in first-seen order; empty values are dropped.
func (b *Builder) Add(format schema.Format, key string, value any) {
	b.Touch(format)
	if IsEmpty(value) || key == "" {
		return
	}

	fields := b.rec[format]
	existing, ok := fields[key]
	if !ok {
		fields[key] = value
		return
	}

	values := asSlice(existing)
	for _, v := range asSlice(value) {
		if !containsValue(values, v) {
			values = append(values, v)
		}
	}
	if len(values) == 1 {
		fields[key] = values[0]
		return
	}
	fields[key] = values
}

// AddType records a schema.org type name for format.
func (b *Builder) AddType(format schema.Format, typeName string) {
	b.Add(format, TypeKey, typeName)
}

// Build returns the accumulated record. The builder must not be used
// afterwards.
func (b *Builder) Build() Record {
	rec := b.rec
	b.rec = nil
	return rec
}

func containsValue(values []any, v any) bool {
	for _, existing := range values {
		if reflect.DeepEqual(existing, v) {
			return true
		}
	}
	return false
}
