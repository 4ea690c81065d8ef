package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/internal/utils"
)

func sampleReport() *report.Report {
	return report.New(report.Input{Kind: report.InputURL, Source: "https://example.com/post"}, []report.SchemaResult{
		{
			Schema:      schema.ID{Format: schema.FormatJSONLD, Name: "Article"},
			Description: "schema.org Article",
			Passed:      false,
			Fields: []report.FieldResult{
				{Key: "headline", Required: true, Type: schema.TypeString, Present: true, Value: "Big News", TypeValid: utils.Ptr(true)},
				{Key: "image", Required: true, Type: schema.TypeImage},
				{Key: "datePublished", Required: true, Type: schema.TypeDate, Present: true, Value: "yesterday", TypeValid: utils.Ptr(false)},
				{Key: "dateModified", Type: schema.TypeDate, Present: true, Value: "soon", TypeValid: utils.Ptr(false)},
				{Key: "author", Type: schema.TypeAny},
			},
		},
		{
			Schema: schema.ID{Format: schema.FormatTwitter, Name: "Card"},
			Passed: true,
			Fields: []report.FieldResult{
				{Key: "twitter:card", Required: true, Present: true, Value: "summary"},
			},
		},
	})
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatText, "TEXT": FormatText, " json ": FormatJSON} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("Expected error for yaml")
	}
}

func TestReport_Text(t *testing.T) {
	var buf bytes.Buffer
	if err := Report(&buf, sampleReport(), FormatText, Options{}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Testing https://example.com/post",
		"FAIL  jsonld:Article  schema.org Article",
		"PASS  twitter:Card",
		"✗ image",
		"missing",
		`not a valid date: "yesterday"`,
		`optional, not a valid date: "soon"`,
		"optional, not found",
		"Schemas: 1 passed, 1 failed  Fields: 2 passed, 2 failed  Optional missing: 1  Warnings: 1",
		"Result: FAILED",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "\033[") {
		t.Error("Expected no ANSI codes without color")
	}
	if strings.Contains(out, `"Big News"`) {
		t.Error("Expected values only in verbose mode")
	}
}

func TestReport_TextVerboseColor(t *testing.T) {
	var buf bytes.Buffer
	if err := Report(&buf, sampleReport(), FormatText, Options{Color: true, Verbose: true}); err != nil {
		t.Fatalf("Report: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, `"Big News"`) {
		t.Error("Expected present values in verbose mode")
	}
	if !strings.Contains(out, colorRed+"FAIL"+colorReset) {
		t.Error("Expected colored FAIL")
	}
}

func TestReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Report(&buf, sampleReport(), FormatJSON, Options{}); err != nil {
		t.Fatalf("Report: %v", err)
	}

	var decoded struct {
		Passed  bool `json:"passed"`
		Results []struct {
			Schema schema.ID `json:"schema"`
			Passed bool      `json:"passed"`
		} `json:"results"`
		Stats report.Stats `json:"stats"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if decoded.Passed || len(decoded.Results) != 2 || decoded.Results[0].Schema.Name != "Article" {
		t.Errorf("unexpected report %+v", decoded)
	}
	if decoded.Stats.SchemasFailed != 1 {
		t.Errorf("Stats = %+v", decoded.Stats)
	}
}

func TestListings(t *testing.T) {
	schemas, err := schema.NewBuiltinRegistry()
	if err != nil {
		t.Fatal(err)
	}
	presets, err := preset.NewBuiltinRegistry(schemas)
	if err != nil {
		t.Fatal(err)
	}

	var buf bytes.Buffer
	if err := Presets(&buf, presets, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "SocialMedia") || !strings.Contains(buf.String(), "og:Article, twitter:Card") {
		t.Errorf("preset listing:\n%s", buf.String())
	}

	buf.Reset()
	if err := Schemas(&buf, schemas, FormatText); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "twitter:Card") || !strings.Contains(buf.String(), "twitter:card, twitter:title") {
		t.Errorf("schema listing:\n%s", buf.String())
	}

	buf.Reset()
	if err := Schemas(&buf, schemas, FormatJSON); err != nil {
		t.Fatal(err)
	}
	var entries []SchemaEntry
	if err := json.Unmarshal(buf.Bytes(), &entries); err != nil {
		t.Fatal(err)
	}
	if len(entries) != schemas.Len() {
		t.Errorf("Expected %d entries, got %d", schemas.Len(), len(entries))
	}
}

func TestErrors(t *testing.T) {
	var buf bytes.Buffer
	Errors(&buf, []error{errors.New(`"Foo" is not a valid preset`), errors.New("second")}, false)
	if buf.String() != "Error: \"Foo\" is not a valid preset\nError: second\n" {
		t.Errorf("unexpected output %q", buf.String())
	}
}

func TestColorEnabled_NonFile(t *testing.T) {
	if ColorEnabled(&bytes.Buffer{}) {
		t.Error("Expected no color for a buffer")
	}
}
