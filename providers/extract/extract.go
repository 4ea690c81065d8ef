package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"

	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/providers/observability"
)

// ErrEmptyDocument is wrapped by Extract when the document has no content.
var ErrEmptyDocument = errors.New("empty document")

// Error reports a document that could not be turned into a record. Format is
// set when a single block of one format was malformed.
type Error struct {
	Op     string
	Format schema.Format
	Err    error
}

func (e *Error) Error() string {
	if e.Format != "" {
		return fmt.Sprintf("extract %s %s: %v", e.Format, e.Op, e.Err)
	}
	return fmt.Sprintf("extract %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Option configures an Extractor.
type Option func(*Extractor)

// WithStrictJSONLD makes a JSON-LD block that is not valid JSON fail the
// extraction. By default such blocks are repaired when possible and skipped
// otherwise.
func WithStrictJSONLD() Option {
	return func(e *Extractor) {
		e.strictJSONLD = true
	}
}

// WithObserver sets the provider used for the extraction span and for
// warnings about skipped blocks.
func WithObserver(p observability.Provider) Option {
	return func(e *Extractor) {
		e.observer = observability.OrNop(p)
	}
}

// WithFormats limits extraction to the given formats. Formats not listed are
// neither parsed nor present in the record.
func WithFormats(formats ...schema.Format) Option {
	return func(e *Extractor) {
		e.formats = make(map[schema.Format]bool, len(formats))
		for _, f := range formats {
			e.formats[f] = true
		}
	}
}

// Extractor reads meta tags, JSON-LD, microdata and RDFa out of an HTML
// document. It is safe for concurrent use.
type Extractor struct {
	strictJSONLD bool
	formats      map[schema.Format]bool
	observer     observability.Provider
	policy       *bluemonday.Policy
}

// New creates an Extractor.
func New(opts ...Option) *Extractor {
	e := &Extractor{
		observer: observability.Nop(),
		policy:   bluemonday.StrictPolicy(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Extractor) enabled(f schema.Format) bool {
	return e.formats == nil || e.formats[f]
}

// Extract parses doc and returns its structured data. baseURL, when not
// empty, resolves relative href and src values of microdata and RDFa
// properties. Meta tags and JSON-LD values are recorded as written.
func (e *Extractor) Extract(ctx context.Context, doc []byte, baseURL string) (record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(doc)) == 0 {
		return nil, &Error{Op: "parse", Err: ErrEmptyDocument}
	}

	var base *url.URL
	if baseURL != "" {
		u, err := url.Parse(baseURL)
		if err != nil {
			return nil, &Error{Op: "base url", Err: err}
		}
		base = u
	}

	ctx, span := e.observer.StartSpan(ctx, observability.SpanExtract,
		observability.String(observability.AttrInputSource, baseURL),
		observability.Int(observability.AttrHTTPResponseBodySize, len(doc)),
	)
	defer span.End()

	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		span.RecordError(err)
		return nil, &Error{Op: "parse", Err: err}
	}

	p := &page{
		ex:      e,
		ctx:     ctx,
		base:    base,
		builder: record.NewBuilder(),
	}
	p.walkHead(root)

	if e.enabled(schema.FormatJSONLD) {
		if err := p.addJSONLD(); err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(
			observability.Int(observability.AttrExtractBlocks, len(p.jsonldBlocks)),
			observability.Int(observability.AttrExtractRepaired, p.repaired),
		)
	}
	if e.enabled(schema.FormatMicrodata) {
		p.addMicrodata(root)
	}
	if e.enabled(schema.FormatRDFa) {
		p.addRDFa(root)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	rec := p.builder.Build()
	span.SetAttributes(observability.Strings(observability.AttrRecordFormats, formatNames(rec)))
	return rec, nil
}

// page is the per-call extraction state.
type page struct {
	ex      *Extractor
	ctx     context.Context
	base    *url.URL
	builder *record.Builder

	jsonldBlocks []string
	repaired     int
	titleSeen    bool
}

// clean strips markup from a scraped string and collapses whitespace.
func (p *page) clean(s string) string {
	if strings.ContainsAny(s, "<>") {
		s = html.UnescapeString(p.ex.policy.Sanitize(s))
	}
	return strings.Join(strings.Fields(s), " ")
}

// cleanValue applies clean to every string inside a decoded JSON value.
func (p *page) cleanValue(v any) any {
	switch x := v.(type) {
	case string:
		return p.clean(x)
	case []any:
		out := make([]any, len(x))
		for i, item := range x {
			out[i] = p.cleanValue(item)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, item := range x {
			out[k] = p.cleanValue(item)
		}
		return out
	default:
		return v
	}
}

// resolve makes ref absolute against the document base.
func (p *page) resolve(ref string) string {
	ref = strings.TrimSpace(ref)
	if p.base == nil || ref == "" {
		return ref
	}
	u, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return p.base.ResolveReference(u).String()
}

func attr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// textContent concatenates the text below n, skipping script and style.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			sb.WriteByte(' ')
			return
		case html.ElementNode:
			if n.Data == "script" || n.Data == "style" || n.Data == "template" {
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}

// localName reduces a vocabulary term to its last segment:
// "https://schema.org/Article", "schema:Article" and "Article" all give
// "Article".
func localName(term string) string {
	term = strings.TrimSpace(term)
	if i := strings.LastIndexAny(term, "/#"); i >= 0 && i < len(term)-1 {
		term = term[i+1:]
	}
	if i := strings.LastIndex(term, ":"); i >= 0 && i < len(term)-1 {
		term = term[i+1:]
	}
	return term
}

func formatNames(rec record.Record) []string {
	formats := rec.Formats()
	out := make([]string, len(formats))
	for i, f := range formats {
		out[i] = string(f)
	}
	return out
}
