package observability

import "context"

type spanKey struct{}

type providerKey struct{}

// SpanFromContext returns the span stored in ctx, or nil.
func SpanFromContext(ctx context.Context) Span {
	if ctx == nil {
		return nil
	}
	span, _ := ctx.Value(spanKey{}).(Span)
	return span
}

// ContextWithSpan stores span in ctx. A nil ctx is treated as Background.
func ContextWithSpan(ctx context.Context, span Span) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, spanKey{}, span)
}

// ObserverFromContext returns the provider stored in ctx, or a no-op one.
func ObserverFromContext(ctx context.Context) Provider {
	if ctx == nil {
		return Nop()
	}
	p, _ := ctx.Value(providerKey{}).(Provider)
	return OrNop(p)
}

// ContextWithObserver stores p in ctx so loaders deep in a call chain log
// through the same provider as the caller.
func ContextWithObserver(ctx context.Context, p Provider) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, providerKey{}, p)
}
