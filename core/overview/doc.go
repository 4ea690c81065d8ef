// Package overview tracks a batch of test runs: which inputs were tested,
// how each ended and how long the batch took. The central type is
// [Overview]; use [OverviewFromContext] to obtain or create an instance bound
// to a [context.Context] so concurrent runs can report into the same batch.
package overview
