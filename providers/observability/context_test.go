package observability

import (
	"context"
	"testing"
)

type mockSpan struct {
	name string
}

func (m *mockSpan) End()                                          {}
func (m *mockSpan) SetAttributes(attrs ...Attribute)              {}
func (m *mockSpan) SetStatus(code StatusCode, description string) {}
func (m *mockSpan) RecordError(err error)                         {}
func (m *mockSpan) AddEvent(name string, attrs ...Attribute)      {}

// mockProvider carries a label so tests can check instance identity.
type mockProvider struct {
	Provider
	label string
}

func TestSpanFromContext(t *testing.T) {
	if span := SpanFromContext(context.Background()); span != nil {
		t.Errorf("Expected nil span from empty context, got %v", span)
	}

	span := &mockSpan{name: "run"}
	ctx := ContextWithSpan(context.Background(), span)
	if got := SpanFromContext(ctx); got != span {
		t.Errorf("Expected stored span, got %v", got)
	}

	other := &mockSpan{name: "fetch"}
	ctx = ContextWithSpan(ctx, other)
	if got := SpanFromContext(ctx); got != other {
		t.Errorf("Expected overwritten span, got %v", got)
	}
}

func TestSpanFromContext_NilContext(t *testing.T) {
	//nolint:staticcheck // nil context on purpose
	if span := SpanFromContext(nil); span != nil {
		t.Errorf("Expected nil span, got %v", span)
	}
	//nolint:staticcheck // nil context on purpose
	ctx := ContextWithSpan(nil, &mockSpan{})
	if ctx == nil {
		t.Fatal("Expected non-nil context")
	}
}

func TestContextWithObserver_RoundTrip(t *testing.T) {
	observer := &mockProvider{label: "cli"}
	ctx := ContextWithObserver(context.Background(), observer)

	got, ok := ObserverFromContext(ctx).(*mockProvider)
	if !ok {
		t.Fatalf("Expected *mockProvider, got %T", ObserverFromContext(ctx))
	}
	if got.label != "cli" {
		t.Errorf("Expected label cli, got %q", got.label)
	}
}

func TestObserverFromContext_FallsBackToNop(t *testing.T) {
	if ObserverFromContext(context.Background()) == nil {
		t.Error("Expected no-op provider from empty context")
	}
	//nolint:staticcheck // nil context on purpose
	if ObserverFromContext(nil) == nil {
		t.Error("Expected no-op provider from nil context")
	}
}
