package sdtt

import (
	"context"
	"sync"
	"time"

	"github.com/leofalp/sdtt/core/overview"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/providers/observability"
)

// Result is the outcome of one request of a batch.
type Result struct {
	Request Request        `json:"request"`
	Report  *report.Report `json:"report,omitempty"`
	Err     error          `json:"-"`
}

// Passed reports whether the run completed and every schema passed.
func (r Result) Passed() bool {
	return r.Err == nil && r.Report != nil && r.Report.Passed
}

// TestMany runs reqs concurrently, at most WithMaxConcurrency at a time.
// Results keep the order of reqs. Every run is also recorded in the
// overview.Overview bound to ctx, which is created when missing; callers that
// need the batch summary bind one first with overview.ToContext.
func (c *Client) TestMany(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	if len(reqs) == 0 {
		return results
	}

	summary := overview.OverviewFromContext(&ctx)
	summary.StartExecution()
	defer summary.EndExecution()

	ctx, span := c.observer.StartSpan(ctx, observability.SpanBatch,
		observability.Int(observability.AttrBatchSize, len(reqs)),
	)
	defer span.End()

	var waitGroup sync.WaitGroup
	semaphore := make(chan struct{}, c.maxConcurrency)

	for i, req := range reqs {
		results[i].Request = req
		waitGroup.Add(1)

		go func(index int, req Request) {
			defer waitGroup.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				results[index].Err = ctx.Err()
				summary.AddRun(req.Input(), nil, ctx.Err(), 0)
				return
			}

			start := time.Now()
			rep, err := c.Test(ctx, req)
			results[index].Report = rep
			results[index].Err = err
			summary.AddRun(req.Input(), rep, err, time.Since(start))
		}(i, req)
	}

	waitGroup.Wait()

	totals := tally(results)
	span.SetAttributes(
		observability.Int("sdtt.batch.passed", totals.Passed),
		observability.Int("sdtt.batch.failed", totals.Failed+totals.Errors),
	)
	if totals.Failed+totals.Errors > 0 {
		span.SetStatus(observability.StatusError, "batch has failing runs")
	} else {
		span.SetStatus(observability.StatusOK, "")
	}
	c.observer.Info(ctx, "batch finished",
		observability.Int(observability.AttrBatchSize, len(reqs)),
		observability.Int("passed", totals.Passed),
		observability.Int("failed", totals.Failed),
		observability.Int("errors", totals.Errors),
	)
	return results
}

// tally counts the outcomes of one batch. The overview bound to the context
// may also hold runs from earlier batches.
func tally(results []Result) overview.Totals {
	totals := overview.Totals{Runs: len(results)}
	for _, res := range results {
		switch {
		case res.Passed():
			totals.Passed++
		case res.Report != nil && !res.Report.Passed:
			totals.Failed++
		default:
			totals.Errors++
		}
	}
	return totals
}
