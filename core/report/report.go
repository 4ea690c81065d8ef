// Package report defines the result values produced by a test run: per-field
// results, per-schema results and the overall [Report].
package report

import (
	"fmt"

	"github.com/leofalp/sdtt/core/schema"
)

// InputKind describes how the tested document was supplied.
type InputKind string

const (
	InputURL  InputKind = "url"
	InputFile InputKind = "file"
	InputHTML InputKind = "html"
)

// Input describes the tested document.
type Input struct {
	Kind   InputKind `json:"kind"`
	Source string    `json:"source"`
	// FinalURL is the address after redirects, when the document was fetched.
	FinalURL string `json:"final_url,omitempty"`
}

func (in Input) String() string {
	if in.Source == "" {
		return string(in.Kind)
	}
	return in.Source
}

// FieldResult is the outcome for one expected field.
type FieldResult struct {
	Key      string              `json:"key"`
	Required bool                `json:"required"`
	Type     schema.ExpectedType `json:"type,omitempty"`
	Present  bool                `json:"present"`
	Value    any                 `json:"value,omitempty"`
	// TypeValid is nil when the value shape was not checked.
	TypeValid *bool `json:"type_valid,omitempty"`
}

// Passed reports whether the field satisfies its FieldSpec. Optional fields
// always pass.
func (f FieldResult) Passed() bool {
	if !f.Required {
		return true
	}
	return f.Present && (f.TypeValid == nil || *f.TypeValid)
}

// Status classifies the field for rendering.
func (f FieldResult) Status() Status {
	switch {
	case f.Present && (f.TypeValid == nil || *f.TypeValid):
		return StatusPass
	case f.Present:
		if f.Required {
			return StatusInvalid
		}
		return StatusWarning
	case f.Required:
		return StatusMissing
	default:
		return StatusOptionalMissing
	}
}

// Status is a render-oriented classification of a FieldResult.
type Status string

const (
	StatusPass            Status = "pass"
	StatusMissing         Status = "missing"
	StatusInvalid         Status = "invalid"
	StatusWarning         Status = "warning"
	StatusOptionalMissing Status = "optional"
)

// SchemaResult is the outcome for one schema definition.
type SchemaResult struct {
	Schema      schema.ID     `json:"schema"`
	Description string        `json:"description,omitempty"`
	Fields      []FieldResult `json:"fields"`
	// Passed is true iff every required field is present and type-valid.
	Passed bool `json:"passed"`
}

// Missing returns the keys of required fields that are absent or invalid.
func (s SchemaResult) Missing() []string {
	var keys []string
	for _, f := range s.Fields {
		if !f.Passed() {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Stats summarizes a report.
type Stats struct {
	SchemasPassed   int `json:"schemas_passed"`
	SchemasFailed   int `json:"schemas_failed"`
	FieldsPassed    int `json:"fields_passed"`
	FieldsFailed    int `json:"fields_failed"`
	OptionalMissing int `json:"optional_missing"`
	Warnings        int `json:"warnings"`
}

// Report is the outcome of one test run.
type Report struct {
	Input   Input          `json:"input"`
	Results []SchemaResult `json:"results"`
	// Passed is the logical AND of every SchemaResult.Passed.
	Passed bool  `json:"passed"`
	Stats  Stats `json:"stats"`
}

// New assembles a report from results in the given order and computes the
// overall outcome and the statistics.
func New(input Input, results []SchemaResult) *Report {
	r := &Report{
		Input:   input,
		Results: results,
		Passed:  true,
	}
	for _, res := range results {
		if res.Passed {
			r.Stats.SchemasPassed++
		} else {
			r.Passed = false
			r.Stats.SchemasFailed++
		}
		for _, f := range res.Fields {
			switch f.Status() {
			case StatusPass:
				r.Stats.FieldsPassed++
			case StatusMissing, StatusInvalid:
				r.Stats.FieldsFailed++
			case StatusOptionalMissing:
				r.Stats.OptionalMissing++
			case StatusWarning:
				r.Stats.Warnings++
			}
		}
	}
	return r
}

// Result returns the result for id.
func (r *Report) Result(id schema.ID) (SchemaResult, bool) {
	for _, res := range r.Results {
		if res.Schema == id {
			return res, true
		}
	}
	return SchemaResult{}, false
}

// Failed returns the results that did not pass, in report order.
func (r *Report) Failed() []SchemaResult {
	var out []SchemaResult
	for _, res := range r.Results {
		if !res.Passed {
			out = append(out, res)
		}
	}
	return out
}

// ValidationFailedError is returned when a run completed but at least one
// schema failed. Report is always the complete report.
type ValidationFailedError struct {
	Report *Report
}

func (e *ValidationFailedError) Error() string {
	if e.Report == nil {
		return "structured data validation failed"
	}
	return fmt.Sprintf("structured data validation failed for %s: %d of %d schemas failed",
		e.Report.Input, e.Report.Stats.SchemasFailed, len(e.Report.Results))
}
