package fetch

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/leofalp/sdtt/internal/utils"
	"github.com/leofalp/sdtt/providers/observability"
)

// RenderOption configures a Renderer.
type RenderOption func(*Renderer)

// WithRemoteURL connects to an already running Chrome (its DevTools
// WebSocket URL) instead of launching a local headless one.
func WithRemoteURL(u string) RenderOption {
	return func(r *Renderer) {
		r.remoteURL = u
	}
}

// WithRenderTimeout bounds navigation plus DOM serialisation.
func WithRenderTimeout(d time.Duration) RenderOption {
	return func(r *Renderer) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithRenderMaxBodySize caps the serialised DOM size.
func WithRenderMaxBodySize(n int64) RenderOption {
	return func(r *Renderer) {
		if n > 0 {
			r.maxBodySize = n
		}
	}
}

// WithRenderObserver sets the provider used for render spans.
func WithRenderObserver(p observability.Provider) RenderOption {
	return func(r *Renderer) {
		r.observer = observability.OrNop(p)
	}
}

// Renderer loads pages in headless Chrome so markup injected by scripts is
// part of the document. Chrome is started on the first Render call and
// shared until Close. Safe for concurrent use; each call opens its own tab.
type Renderer struct {
	remoteURL   string
	timeout     time.Duration
	maxBodySize int64
	observer    observability.Provider

	mu      sync.Mutex
	browser *rod.Browser
	lnch    *launcher.Launcher
	closed  bool
}

// NewRenderer creates a Renderer. No browser is started until Render.
func NewRenderer(opts ...RenderOption) *Renderer {
	r := &Renderer{
		timeout:     DefaultTimeout,
		maxBodySize: DefaultMaxBodySize,
		observer:    observability.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render navigates to rawURL, waits for the load event and returns the
// serialised DOM.
func (r *Renderer) Render(ctx context.Context, rawURL string) (*Document, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, &Error{Op: "url", Source: rawURL, Err: err}
	}

	ctx, span := r.observer.StartSpan(ctx, observability.SpanRender,
		observability.String(observability.AttrHTTPURL, target),
	)
	defer span.End()

	timer := utils.NewTimer()
	doc, err := r.render(ctx, rawURL, target)
	timer.Stop()
	r.observer.Histogram(observability.MetricFetchDuration).Record(ctx, timer.Milliseconds(),
		observability.Bool(observability.AttrStatus, err == nil),
		observability.Bool("rendered", true),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, err.Error())
		return nil, err
	}
	span.SetAttributes(observability.Int(observability.AttrHTTPResponseBodySize, len(doc.Body)))
	span.SetStatus(observability.StatusOK, "")
	return doc, nil
}

func (r *Renderer) render(ctx context.Context, source, target string) (*Document, error) {
	b, err := r.ensureBrowser()
	if err != nil {
		return nil, &Error{Op: "render", Source: source, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tab, err := b.Page(proto.TargetCreateTarget{URL: ""})
	if err != nil {
		return nil, &Error{Op: "render", Source: source, Err: fmt.Errorf("create tab: %w", err)}
	}
	defer func() {
		if err := tab.Close(); err != nil {
			r.observer.Debug(ctx, "failed to close tab", observability.Error(err))
		}
	}()

	page := tab.Context(ctx)
	if err := page.Navigate(target); err != nil {
		return nil, &Error{Op: "render", Source: source, Err: fmt.Errorf("navigate: %w", err)}
	}
	if err := page.WaitLoad(); err != nil {
		r.observer.Warn(ctx, "wait load failed, reading DOM as is",
			observability.String(observability.AttrHTTPURL, target),
			observability.Error(err),
		)
	}

	res, err := page.Eval(`() => [location.href, document.documentElement.outerHTML]`)
	if err != nil {
		return nil, &Error{Op: "render", Source: source, Err: fmt.Errorf("get DOM: %w", err)}
	}
	parts := res.Value.Arr()
	if len(parts) != 2 {
		return nil, &Error{Op: "render", Source: source, Err: fmt.Errorf("unexpected DOM result")}
	}
	body := []byte(parts[1].Str())
	if r.maxBodySize > 0 && int64(len(body)) > r.maxBodySize {
		return nil, &Error{Op: "read", Source: source, Err: fmt.Errorf("%w: more than %d bytes", utils.ErrTooLarge, r.maxBodySize)}
	}

	return &Document{
		Source:      source,
		FinalURL:    parts[0].Str(),
		ContentType: "text/html",
		Body:        body,
	}, nil
}

func (r *Renderer) ensureBrowser() (*rod.Browser, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, fmt.Errorf("renderer is closed")
	}
	if r.browser != nil {
		return r.browser, nil
	}

	controlURL := r.remoteURL
	if controlURL == "" {
		l := launcher.New().Headless(true).Set("disable-blink-features", "AutomationControlled")
		u, err := l.Launch()
		if err != nil {
			return nil, fmt.Errorf("launch chrome: %w", err)
		}
		controlURL = u
		r.lnch = l
	}

	b := rod.New().ControlURL(controlURL)
	if err := b.Connect(); err != nil {
		if r.lnch != nil {
			r.lnch.Kill()
			r.lnch = nil
		}
		return nil, fmt.Errorf("connect chrome: %w", err)
	}
	r.browser = b
	return b, nil
}

// Close shuts the browser down. A Renderer that never rendered has nothing
// to close.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	var err error
	if r.browser != nil {
		err = r.browser.Close()
		r.browser = nil
	}
	if r.lnch != nil {
		r.lnch.Kill()
		r.lnch = nil
	}
	return err
}
