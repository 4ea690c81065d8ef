// Package tester turns a list of selections and an extracted record into a
// report.
//
// The tester is the only place where presets, schema tokens and records
// meet: it expands selections into schema definitions (deduplicated by ID,
// first occurrence wins), asks the matcher to evaluate each one and
// aggregates the results. Selections are expanded before any extraction
// runs, so an unknown preset or schema fails without touching the document.
//
// Example usage:
//
//	t, err := tester.New(schemas, presets, tester.WithObserver(obs))
//	rep, err := t.Run(ctx, input, rec, sels)
//	var failed *report.ValidationFailedError
//	if errors.As(err, &failed) {
//	    // rep is complete, at least one schema failed
//	}
package tester

import (
	"context"
	"errors"
	"fmt"

	"github.com/leofalp/sdtt/core/match"
	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/core/selection"
	"github.com/leofalp/sdtt/internal/utils"
	"github.com/leofalp/sdtt/providers/observability"
)

// ErrNoSelection is returned when a run has nothing to evaluate.
var ErrNoSelection = errors.New("no presets or schemas selected")

// ErrNoSchemas is returned by New when no schema registry is available.
var ErrNoSchemas = errors.New("tester: schema registry is required")

// ExtractFunc produces the record for a run. Its errors are returned to the
// caller unmodified.
type ExtractFunc func(ctx context.Context) (record.Record, error)

// Option configures a Tester.
type Option func(*Tester)

// WithMatcher replaces the default lenient matcher.
func WithMatcher(m *match.Matcher) Option {
	return func(t *Tester) {
		if m != nil {
			t.matcher = m
		}
	}
}

// WithObserver sets the provider used for the run span, schema events and
// metrics.
func WithObserver(p observability.Provider) Option {
	return func(t *Tester) {
		t.observer = observability.OrNop(p)
	}
}

// Tester evaluates selections against records. It holds no per-run state and
// is safe for concurrent use.
type Tester struct {
	schemas  *schema.Registry
	presets  *preset.Registry
	matcher  *match.Matcher
	observer observability.Provider
}

// New creates a Tester. presets may be nil, in which case only schema
// selections resolve. When schemas is nil the registry the presets were
// validated against is used.
func New(schemas *schema.Registry, presets *preset.Registry, opts ...Option) (*Tester, error) {
	if schemas == nil && presets != nil {
		schemas = presets.Schemas()
	}
	if schemas == nil {
		return nil, ErrNoSchemas
	}

	t := &Tester{
		schemas:  schemas,
		presets:  presets,
		matcher:  match.New(),
		observer: observability.Nop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Matcher returns the matcher used for evaluation.
func (t *Tester) Matcher() *match.Matcher {
	return t.matcher
}

// Expand resolves sels into schema definitions. Presets contribute their
// schemas in preset order, bare schema names every format that defines them.
// A definition selected more than once keeps its first position.
func (t *Tester) Expand(sels []selection.Selection) ([]schema.Definition, error) {
	if len(sels) == 0 {
		return nil, ErrNoSelection
	}

	var (
		out  []schema.Definition
		seen = make(map[schema.ID]bool)
	)
	for _, sel := range sels {
		defs, err := t.expandOne(sel)
		if err != nil {
			return nil, err
		}
		for _, d := range defs {
			if seen[d.ID()] {
				continue
			}
			seen[d.ID()] = true
			out = append(out, d)
		}
	}
	return out, nil
}

func (t *Tester) expandOne(sel selection.Selection) ([]schema.Definition, error) {
	switch s := sel.(type) {
	case selection.PresetToken:
		if t.presets == nil {
			return nil, &preset.UnknownPresetError{Name: s.Name}
		}
		return t.presets.Expand(s.Name)
	case selection.SchemaToken:
		return t.schemas.Resolve(s.Format, s.Name)
	case nil:
		return nil, fmt.Errorf("tester: nil selection")
	default:
		return nil, fmt.Errorf("tester: unsupported selection %T", sel)
	}
}

// Run evaluates the expanded selections against rec. When at least one
// schema fails the complete report is returned together with a
// *report.ValidationFailedError wrapping it.
func (t *Tester) Run(ctx context.Context, input report.Input, rec record.Record, sels []selection.Selection) (*report.Report, error) {
	return t.run(ctx, input, sels, func(context.Context) (record.Record, error) { return rec, nil })
}

// Test expands sels, then calls extract and evaluates the record it returns.
// extract is never called when a selection does not resolve.
func (t *Tester) Test(ctx context.Context, input report.Input, sels []selection.Selection, extract ExtractFunc) (*report.Report, error) {
	if extract == nil {
		return nil, fmt.Errorf("tester: nil extract func")
	}
	return t.run(ctx, input, sels, extract)
}

func (t *Tester) run(ctx context.Context, input report.Input, sels []selection.Selection, extract ExtractFunc) (*report.Report, error) {
	timer := utils.NewTimer()

	ctx, span := t.observer.StartSpan(ctx, observability.SpanRun,
		observability.String(observability.AttrInputKind, string(input.Kind)),
		observability.String(observability.AttrInputSource, input.Source),
		observability.Strings(observability.AttrSelections, selectionNames(sels)),
		observability.Bool(observability.AttrStrictTypes, t.matcher.Strict()),
	)
	defer span.End()

	defs, err := t.Expand(sels)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "selection")
		return nil, err
	}
	span.SetAttributes(observability.Int(observability.AttrSchemasCount, len(defs)))

	rec, err := extract(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, "extraction")
		return nil, err
	}
	span.AddEvent(observability.EventExtractionDone,
		observability.Strings(observability.AttrRecordFormats, formatNames(rec)))

	rep := t.evaluate(ctx, span, input, rec, defs)

	timer.Stop()
	t.observer.Histogram(observability.MetricRunDuration).Record(ctx, timer.Milliseconds(),
		observability.Bool(observability.AttrRunPassed, rep.Passed))
	span.SetAttributes(
		observability.Bool(observability.AttrRunPassed, rep.Passed),
		observability.Int(observability.AttrSchemasPassed, rep.Stats.SchemasPassed),
		observability.Int(observability.AttrSchemasFailed, rep.Stats.SchemasFailed),
	)

	if !rep.Passed {
		t.observer.Counter(observability.MetricRunsFailed).Add(ctx, 1)
		span.SetStatus(observability.StatusError, "validation failed")
		return rep, &report.ValidationFailedError{Report: rep}
	}
	span.SetStatus(observability.StatusOK, "")
	return rep, nil
}

func (t *Tester) evaluate(ctx context.Context, span observability.Span, input report.Input, rec record.Record, defs []schema.Definition) *report.Report {
	evaluated := t.observer.Counter(observability.MetricSchemasEvaluated)
	results := make([]report.SchemaResult, 0, len(defs))
	for _, def := range defs {
		res := t.matcher.Evaluate(rec, def)
		results = append(results, res)

		span.AddEvent(observability.EventSchemaEvaluated,
			observability.String(observability.AttrSchemaID, res.Schema.String()),
			observability.Bool(observability.AttrSchemaPassed, res.Passed),
			observability.Strings(observability.AttrFieldsMissing, res.Missing()),
		)
		evaluated.Add(ctx, 1, observability.String(observability.AttrSchemaFormat, string(def.Format)))
	}
	return report.New(input, results)
}

func selectionNames(sels []selection.Selection) []string {
	out := make([]string, 0, len(sels))
	for _, s := range sels {
		if s != nil {
			out = append(out, s.String())
		}
	}
	return out
}

func formatNames(rec record.Record) []string {
	formats := rec.Formats()
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}
