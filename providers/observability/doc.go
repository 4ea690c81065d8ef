// Package observability defines the tracing, metrics and logging interfaces
// used across sdtt, plus the attribute, span and metric names they record.
//
// [Provider] composes [Tracer], [Metrics] and [Logger] into one injectable
// dependency. A nil provider is never dereferenced by sdtt packages: they go
// through [OrNop]. Providers and spans travel through a [context.Context]
// with [ContextWithObserver] and [ContextWithSpan].
//
// The slogobs subpackage is the log/slog backed implementation used by the
// CLI and the servers.
package observability
