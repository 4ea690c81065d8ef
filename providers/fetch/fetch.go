package fetch

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"

	"github.com/leofalp/sdtt/internal/utils"
	"github.com/leofalp/sdtt/providers/observability"
)

const (
	// DefaultTimeout bounds a whole fetch, body included.
	DefaultTimeout = 30 * time.Second
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "sdtt/1.0 (+https://github.com/leofalp/sdtt)"
	// DefaultMaxBodySize is the largest document accepted (10MB).
	DefaultMaxBodySize = 10 * 1024 * 1024
	// MaxRedirects is the number of redirects followed before giving up.
	MaxRedirects = 10

	dialTimeout           = 10 * time.Second
	tlsHandshakeTimeout   = 10 * time.Second
	responseHeaderTimeout = 10 * time.Second
	idleConnTimeout       = 90 * time.Second
)

var (
	// ErrEmptyURL is returned for a blank URL.
	ErrEmptyURL = errors.New("URL cannot be empty")
	// ErrUnsupportedScheme is returned for URLs that are not http or https.
	ErrUnsupportedScheme = errors.New("unsupported URL scheme")
	// ErrUnexpectedStatus is wrapped when the server answers with a non-200 status.
	ErrUnexpectedStatus = errors.New("unexpected status code")
)

// Error reports a document that could not be loaded.
type Error struct {
	Op         string
	Source     string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("fetch %s %s: %v (%d)", e.Op, e.Source, e.Err, e.StatusCode)
	}
	return fmt.Sprintf("fetch %s %s: %v", e.Op, e.Source, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Document is a loaded HTML document.
type Document struct {
	// Source is the URL or path the caller asked for.
	Source string `json:"source"`
	// FinalURL is the URL after redirects. Empty for files.
	FinalURL    string `json:"final_url,omitempty"`
	StatusCode  int    `json:"status_code,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	Body        []byte `json:"-"`
}

// BaseURL is the URL relative references in the document resolve against.
func (d *Document) BaseURL() string {
	return d.FinalURL
}

// Markdown converts the document body to Markdown, for page excerpts in
// verbose output and tool responses.
func (d *Document) Markdown() (string, error) {
	md, err := htmltomarkdown.ConvertString(string(d.Body))
	if err != nil {
		return "", fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}
	return md, nil
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout of a whole fetch. Non-positive values keep
// the default.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithMaxBodySize sets the largest accepted body. Non-positive values keep
// the default.
func WithMaxBodySize(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBodySize = n
		}
	}
}

// WithHTTPClient replaces the HTTP client. The client's own timeout and
// redirect policy are used as is.
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) {
		if c != nil {
			f.client = c
		}
	}
}

// WithObserver sets the provider used for fetch spans and durations.
func WithObserver(p observability.Provider) Option {
	return func(f *Fetcher) {
		f.observer = observability.OrNop(p)
	}
}

// Fetcher downloads HTML documents over HTTP. It is safe for concurrent use.
type Fetcher struct {
	client      *http.Client
	timeout     time.Duration
	userAgent   string
	maxBodySize int64
	observer    observability.Provider
}

// New creates a Fetcher with a client tuned for slow or unresponsive
// servers.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:     DefaultTimeout,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
		observer:    observability.Nop(),
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.client == nil {
		f.client = newHTTPClient(f.timeout)
	}
	return f
}

func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   dialTimeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			TLSHandshakeTimeout:   tlsHandshakeTimeout,
			ResponseHeaderTimeout: responseHeaderTimeout,
			IdleConnTimeout:       idleConnTimeout,
			MaxIdleConns:          100,
			MaxIdleConnsPerHost:   10,
			ForceAttemptHTTP2:     true,
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= MaxRedirects {
				return fmt.Errorf("too many redirects (>%d)", MaxRedirects)
			}
			return nil
		},
	}
}

// NormalizeURL trims raw, prepends https:// to scheme-less input such as
// "example.com/page" and rejects anything that is not http or https.
func NormalizeURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", ErrEmptyURL
	}
	if !strings.Contains(raw, "://") && (!strings.Contains(raw, ":") || looksLikeHostPort(raw)) {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedScheme, u.Scheme)
	}
	if u.Host == "" {
		return "", fmt.Errorf("missing host in %q", raw)
	}
	return u.String(), nil
}

// looksLikeHostPort reports whether s starts with host:port, e.g.
// "localhost:8080/page".
func looksLikeHostPort(s string) bool {
	host, _, _ := strings.Cut(s, "/")
	_, port, err := net.SplitHostPort(host)
	if err != nil || port == "" {
		return false
	}
	for _, r := range port {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// Fetch downloads the document at rawURL. Any status other than 200 OK is
// an error, as is a body larger than the configured maximum.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	target, err := NormalizeURL(rawURL)
	if err != nil {
		return nil, &Error{Op: "url", Source: rawURL, Err: err}
	}

	ctx, span := f.observer.StartSpan(ctx, observability.SpanFetch,
		observability.String(observability.AttrHTTPMethod, http.MethodGet),
		observability.String(observability.AttrHTTPURL, target),
	)
	defer span.End()

	timer := utils.NewTimer()
	doc, err := f.fetch(ctx, rawURL, target)
	timer.Stop()

	f.observer.Histogram(observability.MetricFetchDuration).Record(ctx, timer.Milliseconds(),
		observability.Bool(observability.AttrStatus, err == nil),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(observability.StatusError, err.Error())
		f.observer.Debug(ctx, "fetch failed",
			observability.String(observability.AttrHTTPURL, target),
			observability.Error(err),
		)
		return nil, err
	}

	span.SetAttributes(
		observability.Int(observability.AttrHTTPStatusCode, doc.StatusCode),
		observability.Int(observability.AttrHTTPResponseBodySize, len(doc.Body)),
	)
	span.SetStatus(observability.StatusOK, "")
	f.observer.Debug(ctx, "fetched document",
		observability.String(observability.AttrHTTPURL, doc.FinalURL),
		observability.Int(observability.AttrHTTPResponseBodySize, len(doc.Body)),
		observability.Duration(observability.AttrDuration, timer.GetDuration()),
	)
	return doc, nil
}

func (f *Fetcher) fetch(ctx context.Context, source, target string) (*Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, &Error{Op: "request", Source: source, Err: err}
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &Error{Op: "get", Source: source, Err: fmt.Errorf("request timeout or canceled (%w): %w", ctx.Err(), err)}
		}
		return nil, &Error{Op: "get", Source: source, Err: err}
	}
	defer utils.CloseWithLog(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, &Error{Op: "get", Source: source, StatusCode: resp.StatusCode, Err: ErrUnexpectedStatus}
	}

	body, err := utils.ReadAllLimit(resp.Body, f.maxBodySize)
	if err != nil {
		return nil, &Error{Op: "read", Source: source, StatusCode: resp.StatusCode, Err: err}
	}

	contentType := resp.Header.Get("Content-Type")
	if mediaType, _, err := mime.ParseMediaType(contentType); err == nil && !isHTMLMediaType(mediaType) {
		f.observer.Warn(ctx, "document is not HTML, extracting anyway",
			observability.String(observability.AttrHTTPURL, target),
			observability.String("content_type", mediaType),
		)
	}

	return &Document{
		Source:      source,
		FinalURL:    resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: contentType,
		Body:        body,
	}, nil
}

func isHTMLMediaType(mediaType string) bool {
	switch mediaType {
	case "text/html", "application/xhtml+xml", "text/plain":
		return true
	}
	return false
}
