package overview

import (
	"context"
	"sync"
	"time"

	"github.com/leofalp/sdtt/core/report"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// overviewContextKey is the key used to store Overview in context.
const overviewContextKey contextKey = "overview"

// Outcome classifies how a run ended.
type Outcome string

const (
	OutcomePassed Outcome = "passed"
	OutcomeFailed Outcome = "failed"
	OutcomeError  Outcome = "error"
)

// Run is the summary of one test run in a batch.
type Run struct {
	Input    report.Input  `json:"input"`
	Outcome  Outcome       `json:"outcome"`
	Error    string        `json:"error,omitempty"`
	Schemas  int           `json:"schemas"`
	Failed   int           `json:"failed"`
	Duration time.Duration `json:"duration_ns"`
}

// Overview aggregates the runs of one batch. It is safe for concurrent use.
type Overview struct {
	mu sync.Mutex

	Runs []Run `json:"runs"`

	// ExecutionStartTime marks when the batch started
	ExecutionStartTime time.Time `json:"execution_start_time,omitempty"`
	// ExecutionEndTime marks when the batch ended
	ExecutionEndTime time.Time `json:"execution_end_time,omitempty"`
}

// Totals counts the runs of a batch by outcome.
type Totals struct {
	Runs   int `json:"runs"`
	Passed int `json:"passed"`
	Failed int `json:"failed"`
	Errors int `json:"errors"`
}

// OverviewFromContext retrieves the Overview from the context, creating one if
// it does not already exist. The context pointer is updated in-place when a new
// Overview is created so callers see the enriched context.
func OverviewFromContext(ctx *context.Context) *Overview {
	overviewVal := (*ctx).Value(overviewContextKey)
	if overviewVal == nil {
		overview := &Overview{}
		*ctx = overview.ToContext(*ctx)
		return overview
	}

	overview, ok := overviewVal.(*Overview)
	if !ok {
		return nil
	}
	return overview
}

// ToContext stores the Overview in the given context and returns the enriched context.
func (overview *Overview) ToContext(ctx context.Context) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}

	return context.WithValue(ctx, overviewContextKey, overview)
}

// AddRun records the end of one run. rep may be nil when err is set before a
// report existed; a *report.ValidationFailedError counts as failed, not as
// an error.
func (overview *Overview) AddRun(input report.Input, rep *report.Report, err error, duration time.Duration) {
	run := Run{Input: input, Duration: duration}
	if rep != nil {
		run.Schemas = len(rep.Results)
		run.Failed = rep.Stats.SchemasFailed
	}
	switch {
	case rep != nil && rep.Passed && err == nil:
		run.Outcome = OutcomePassed
	case rep != nil && !rep.Passed:
		run.Outcome = OutcomeFailed
	default:
		run.Outcome = OutcomeError
		if err != nil {
			run.Error = err.Error()
		}
	}

	overview.mu.Lock()
	overview.Runs = append(overview.Runs, run)
	overview.mu.Unlock()
}

// Totals counts the recorded runs.
func (overview *Overview) Totals() Totals {
	overview.mu.Lock()
	defer overview.mu.Unlock()

	t := Totals{Runs: len(overview.Runs)}
	for _, r := range overview.Runs {
		switch r.Outcome {
		case OutcomePassed:
			t.Passed++
		case OutcomeFailed:
			t.Failed++
		default:
			t.Errors++
		}
	}
	return t
}

// Passed reports whether at least one run was recorded and every run passed.
func (overview *Overview) Passed() bool {
	t := overview.Totals()
	return t.Runs > 0 && t.Passed == t.Runs
}

// StartExecution marks the start of the batch.
func (overview *Overview) StartExecution() {
	overview.mu.Lock()
	overview.ExecutionStartTime = time.Now()
	overview.mu.Unlock()
}

// EndExecution marks the end of the batch.
func (overview *Overview) EndExecution() {
	overview.mu.Lock()
	overview.ExecutionEndTime = time.Now()
	overview.mu.Unlock()
}

// ExecutionDuration returns the total batch duration.
// Returns 0 if execution hasn't started or ended.
func (overview *Overview) ExecutionDuration() time.Duration {
	overview.mu.Lock()
	defer overview.mu.Unlock()
	if overview.ExecutionStartTime.IsZero() || overview.ExecutionEndTime.IsZero() {
		return 0
	}
	return overview.ExecutionEndTime.Sub(overview.ExecutionStartTime)
}
