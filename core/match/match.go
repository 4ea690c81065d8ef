// Package match evaluates a single schema definition against an extracted
// record.
//
// Evaluation is pure: the same record and definition always produce the
// same result, and neither input is modified. A field counts as present when
// its key exists in the definition's format namespace and the value is not
// empty (see record.IsEmpty). Present fields with a declared expected type
// are additionally run through a type check; optional fields never make a
// schema fail.
//
// Example usage:
//
//	m := match.New(match.WithStrictTypes())
//	res := m.Evaluate(rec, def)
//	if !res.Passed {
//	    fmt.Println(res.Missing())
//	}
package match

import (
	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/internal/utils"
)

// Check reports whether a present value has the expected shape.
type Check func(value any) bool

// Option is a functional option for configuring a Matcher.
type Option func(*config)

type config struct {
	strict    bool
	overrides map[schema.ExpectedType]Check
}

// WithStrictTypes switches to the strict check table: url and image must be
// absolute http(s) URLs, dates must be YYYY-MM-DD or RFC 3339 and numbers
// must be JSON numbers.
func WithStrictTypes() Option {
	return func(c *config) {
		c.strict = true
	}
}

// WithCheck replaces the check used for t. It takes precedence over
// WithStrictTypes regardless of option order.
func WithCheck(t schema.ExpectedType, check Check) Option {
	return func(c *config) {
		if c.overrides == nil {
			c.overrides = make(map[schema.ExpectedType]Check)
		}
		c.overrides[t] = check
	}
}

// Matcher evaluates definitions against records. It is immutable and safe
// for concurrent use.
type Matcher struct {
	checks map[schema.ExpectedType]Check
	strict bool
}

// New creates a matcher. Without options it uses the lenient check table.
func New(opts ...Option) *Matcher {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	base := lenientChecks()
	if cfg.strict {
		base = strictChecks()
	}
	checks := make(map[schema.ExpectedType]Check, len(base)+len(cfg.overrides))
	for t, c := range base {
		checks[t] = c
	}
	for t, c := range cfg.overrides {
		if c == nil {
			delete(checks, t)
			continue
		}
		checks[t] = c
	}

	return &Matcher{checks: checks, strict: cfg.strict}
}

// Strict reports whether the strict check table is in use.
func (m *Matcher) Strict() bool { return m.strict }

// CheckValue runs the check registered for t. checked is false when t is
// TypeAny or has no registered check.
func (m *Matcher) CheckValue(t schema.ExpectedType, value any) (valid, checked bool) {
	if t == schema.TypeAny {
		return false, false
	}
	c, ok := m.checks[t]
	if !ok {
		return false, false
	}
	return c(value), true
}

// Evaluate checks every field of def against rec, in declared order.
func (m *Matcher) Evaluate(rec record.Record, def schema.Definition) report.SchemaResult {
	fields, _ := rec.Namespace(def.Format)

	res := report.SchemaResult{
		Schema:      def.ID(),
		Description: def.Description,
		Fields:      make([]report.FieldResult, 0, len(def.Fields)),
		Passed:      true,
	}

	for _, spec := range def.Fields {
		fr := report.FieldResult{
			Key:      spec.Key,
			Required: spec.Required,
			Type:     spec.Type,
		}

		value, ok := fields[spec.Key]
		if ok && !record.IsEmpty(value) {
			fr.Present = true
			fr.Value = value
			if valid, checked := m.CheckValue(spec.Type, value); checked {
				fr.TypeValid = utils.Ptr(valid)
			}
		}

		if !fr.Passed() {
			res.Passed = false
		}
		res.Fields = append(res.Fields, fr)
	}

	return res
}
