package overview

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/leofalp/sdtt/core/report"
)

// ========== OverviewFromContext / ToContext ==========

// TestOverviewFromContext_CreatesNew verifies that a new Overview is created and
// injected into the context pointer when none is stored yet.
func TestOverviewFromContext_CreatesNew(t *testing.T) {
	ctx := context.Background()
	overview := OverviewFromContext(&ctx)

	if overview == nil {
		t.Fatal("expected a new Overview, got nil")
	}
	if ctx.Value(overviewContextKey) == nil {
		t.Error("expected context to be updated with the new Overview")
	}
}

// TestOverviewFromContext_ReturnsExisting verifies that the same Overview pointer
// is returned when one is already present in the context.
func TestOverviewFromContext_ReturnsExisting(t *testing.T) {
	ctx := context.Background()
	first := OverviewFromContext(&ctx)
	second := OverviewFromContext(&ctx)

	if first != second {
		t.Error("expected the same Overview pointer on second call")
	}
}

// TestOverviewFromContext_WrongType verifies that nil is returned when the context
// carries a value under the overview key but of the wrong type.
func TestOverviewFromContext_WrongType(t *testing.T) {
	ctx := context.WithValue(context.Background(), overviewContextKey, "not-an-overview")
	if result := OverviewFromContext(&ctx); result != nil {
		t.Errorf("expected nil for wrong type, got %v", result)
	}
}

// TestToContext_NilContext verifies that ToContext falls back to
// context.Background() for a nil context.
func TestToContext_NilContext(t *testing.T) {
	overview := &Overview{}
	var nilCtx context.Context
	ctx := overview.ToContext(nilCtx)
	if ctx == nil || ctx.Value(overviewContextKey) != overview {
		t.Error("expected a usable context carrying the overview")
	}
}

// ========== AddRun / Totals ==========

func passingReport() *report.Report {
	return report.New(report.Input{Kind: report.InputURL, Source: "https://a.example"},
		[]report.SchemaResult{{Passed: true}})
}

func failingReport() *report.Report {
	return report.New(report.Input{Kind: report.InputURL, Source: "https://b.example"},
		[]report.SchemaResult{{Passed: true}, {Passed: false}})
}

func TestAddRun_Outcomes(t *testing.T) {
	overview := &Overview{}

	failed := failingReport()
	overview.AddRun(passingReport().Input, passingReport(), nil, time.Millisecond)
	overview.AddRun(failed.Input, failed, &report.ValidationFailedError{Report: failed}, time.Millisecond)
	overview.AddRun(report.Input{Kind: report.InputURL, Source: "https://c.example"}, nil, errors.New("connection refused"), 0)

	if len(overview.Runs) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(overview.Runs))
	}
	want := []Outcome{OutcomePassed, OutcomeFailed, OutcomeError}
	for i, run := range overview.Runs {
		if run.Outcome != want[i] {
			t.Errorf("run %d outcome = %s, want %s", i, run.Outcome, want[i])
		}
	}
	if overview.Runs[1].Schemas != 2 || overview.Runs[1].Failed != 1 {
		t.Errorf("unexpected failed run summary %+v", overview.Runs[1])
	}
	if overview.Runs[2].Error != "connection refused" {
		t.Errorf("expected error text, got %q", overview.Runs[2].Error)
	}

	totals := overview.Totals()
	if totals != (Totals{Runs: 3, Passed: 1, Failed: 1, Errors: 1}) {
		t.Errorf("Totals = %+v", totals)
	}
	if overview.Passed() {
		t.Error("expected batch to fail")
	}
}

func TestPassed_EmptyBatch(t *testing.T) {
	if (&Overview{}).Passed() {
		t.Error("an empty batch must not pass")
	}
}

func TestAddRun_Concurrent(t *testing.T) {
	overview := &Overview{}
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rep := passingReport()
			overview.AddRun(rep.Input, rep, nil, 0)
		}()
	}
	wg.Wait()

	if got := overview.Totals().Passed; got != 50 {
		t.Errorf("expected 50 passed runs, got %d", got)
	}
}

// ========== Execution timing ==========

func TestExecutionDuration(t *testing.T) {
	overview := &Overview{}
	if overview.ExecutionDuration() != 0 {
		t.Error("expected zero duration before start")
	}

	overview.StartExecution()
	time.Sleep(5 * time.Millisecond)
	overview.EndExecution()

	if d := overview.ExecutionDuration(); d < 5*time.Millisecond {
		t.Errorf("expected at least 5ms, got %v", d)
	}
}
