package observability

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAttributeConstructors(t *testing.T) {
	tests := []struct {
		name string
		attr Attribute
		key  string
		want any
	}{
		{"string", String(AttrInputSource, "https://example.com"), AttrInputSource, "https://example.com"},
		{"int", Int(AttrSchemasCount, 3), AttrSchemasCount, 3},
		{"int64", Int64(AttrHTTPResponseBodySize, 1<<20), AttrHTTPResponseBodySize, int64(1 << 20)},
		{"float64", Float64("ratio", 0.5), "ratio", 0.5},
		{"bool", Bool(AttrRunPassed, false), AttrRunPassed, false},
		{"duration", Duration(AttrDuration, time.Second), AttrDuration, time.Second},
		{"error", Error(errors.New("boom")), AttrError, "boom"},
		{"nil error", Error(nil), AttrError, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.attr.Key != tt.key {
				t.Errorf("Expected key %q, got %q", tt.key, tt.attr.Key)
			}
			if tt.attr.Value != tt.want {
				t.Errorf("Expected value %v, got %v", tt.want, tt.attr.Value)
			}
		})
	}

	attr := Strings(AttrSelections, []string{"SocialMedia", "jsonld:Article"})
	if v, ok := attr.Value.([]string); !ok || len(v) != 2 {
		t.Errorf("Expected []string value, got %#v", attr.Value)
	}
}

func TestStatusCode_String(t *testing.T) {
	if StatusUnset.String() != "unset" || StatusOK.String() != "ok" || StatusError.String() != "error" {
		t.Errorf("unexpected status names: %s %s %s", StatusUnset, StatusOK, StatusError)
	}
}

func TestNop(t *testing.T) {
	p := Nop()
	ctx, span := p.StartSpan(context.Background(), SpanRun, String(AttrRunID, "x"))
	if ctx == nil || span == nil {
		t.Fatal("Expected non-nil context and span")
	}
	span.AddEvent(EventSchemaEvaluated)
	span.SetStatus(StatusOK, "")
	span.RecordError(errors.New("ignored"))
	span.End()

	p.Counter(MetricSchemasEvaluated).Add(ctx, 1)
	p.Histogram(MetricRunDuration).Record(ctx, 12.5)
	p.Info(ctx, "discarded")
}

func TestOrNop(t *testing.T) {
	if OrNop(nil) == nil {
		t.Fatal("Expected a provider for nil input")
	}
	custom := &mockProvider{label: "custom"}
	if OrNop(custom) != custom {
		t.Error("Expected the given provider to be returned")
	}
}
