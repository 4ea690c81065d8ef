// Package sdtt is the programmatic entry point of the structured data testing
// tool: load a document (URL, file or inline HTML), extract its structured
// data and test it against presets and schemas.
//
// Example usage:
//
//	c, err := sdtt.New(sdtt.WithStrictTypes())
//	if err != nil {
//	    return err
//	}
//	defer c.Close()
//
//	rep, err := c.Test(ctx, sdtt.Request{URL: "https://example.com", Presets: []string{"SocialMedia"}})
//	var failed *report.ValidationFailedError
//	switch {
//	case errors.As(err, &failed):
//	    // rep lists what is missing
//	case err != nil:
//	    return err
//	}
package sdtt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leofalp/sdtt/core/match"
	"github.com/leofalp/sdtt/core/preset"
	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/core/schema"
	"github.com/leofalp/sdtt/core/selection"
	"github.com/leofalp/sdtt/core/tester"
	"github.com/leofalp/sdtt/providers/extract"
	"github.com/leofalp/sdtt/providers/fetch"
	"github.com/leofalp/sdtt/providers/observability"
)

var (
	// ErrNoInput is returned for a request without URL, file or HTML.
	ErrNoInput = errors.New("no input: provide a URL, a file or HTML")
	// ErrAmbiguousInput is returned for a request naming more than one input.
	ErrAmbiguousInput = errors.New("provide either a URL, a file or HTML, not more than one")
)

// DefaultMaxConcurrency bounds TestMany when no limit is configured.
const DefaultMaxConcurrency = 4

// Request describes one test.
type Request struct {
	URL  string `json:"url,omitempty"`
	File string `json:"file,omitempty"`
	HTML string `json:"html,omitempty"`
	// BaseURL resolves relative references in HTML input.
	BaseURL string   `json:"base_url,omitempty"`
	Presets []string `json:"presets,omitempty"`
	Schemas []string `json:"schemas,omitempty"`
	// Select holds mixed tokens: a bare name is a schema when any format
	// defines it, otherwise a preset.
	Select []string `json:"select,omitempty"`
	// Render loads URL input through headless Chrome.
	Render bool `json:"render,omitempty"`
}

// Input describes the request's document for reports.
func (r Request) Input() report.Input {
	switch {
	case r.URL != "":
		return report.Input{Kind: report.InputURL, Source: strings.TrimSpace(r.URL)}
	case r.File != "":
		return report.Input{Kind: report.InputFile, Source: r.File}
	default:
		return report.Input{Kind: report.InputHTML, Source: r.BaseURL}
	}
}

func (r Request) validate() error {
	n := 0
	for _, s := range []string{r.URL, r.File, r.HTML} {
		if strings.TrimSpace(s) != "" {
			n++
		}
	}
	switch n {
	case 0:
		return ErrNoInput
	case 1:
		return nil
	default:
		return ErrAmbiguousInput
	}
}

// Option configures a Client.
type Option func(*options)

type options struct {
	schemas        *schema.Registry
	presets        *preset.Registry
	matchOpts      []match.Option
	extractOpts    []extract.Option
	fetchOpts      []fetch.Option
	renderOpts     []fetch.RenderOption
	observer       observability.Provider
	maxBodySize    int64
	maxConcurrency int
}

// WithRegistries replaces the builtin registries. presets may be nil.
func WithRegistries(schemas *schema.Registry, presets *preset.Registry) Option {
	return func(o *options) {
		o.schemas = schemas
		o.presets = presets
	}
}

// WithStrictTypes uses the strict type checks.
func WithStrictTypes() Option {
	return func(o *options) {
		o.matchOpts = append(o.matchOpts, match.WithStrictTypes())
	}
}

// WithMatchOptions passes options to the matcher.
func WithMatchOptions(opts ...match.Option) Option {
	return func(o *options) {
		o.matchOpts = append(o.matchOpts, opts...)
	}
}

// WithExtractOptions passes options to the extractor.
func WithExtractOptions(opts ...extract.Option) Option {
	return func(o *options) {
		o.extractOpts = append(o.extractOpts, opts...)
	}
}

// WithFetchOptions passes options to the HTTP fetcher.
func WithFetchOptions(opts ...fetch.Option) Option {
	return func(o *options) {
		o.fetchOpts = append(o.fetchOpts, opts...)
	}
}

// WithRenderOptions passes options to the headless renderer.
func WithRenderOptions(opts ...fetch.RenderOption) Option {
	return func(o *options) {
		o.renderOpts = append(o.renderOpts, opts...)
	}
}

// WithObserver sets the provider for every component.
func WithObserver(p observability.Provider) Option {
	return func(o *options) {
		o.observer = p
	}
}

// WithMaxBodySize caps file input. URL input is capped through
// fetch.WithMaxBodySize.
func WithMaxBodySize(n int64) Option {
	return func(o *options) {
		o.maxBodySize = n
	}
}

// WithMaxConcurrency bounds the number of parallel runs in TestMany.
func WithMaxConcurrency(n int) Option {
	return func(o *options) {
		o.maxConcurrency = n
	}
}

// Client wires the loaders, the extractor and the tester together. It is
// safe for concurrent use.
type Client struct {
	schemas        *schema.Registry
	presets        *preset.Registry
	parser         *selection.Parser
	tester         *tester.Tester
	extractor      *extract.Extractor
	fetcher        *fetch.Fetcher
	renderer       *fetch.Renderer
	observer       observability.Provider
	maxBodySize    int64
	maxConcurrency int
}

// New creates a Client. Without WithRegistries it uses the builtin schemas
// and presets.
func New(opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	if o.schemas == nil && o.presets != nil {
		o.schemas = o.presets.Schemas()
	}
	if o.schemas == nil {
		schemas, err := schema.NewBuiltinRegistry()
		if err != nil {
			return nil, err
		}
		o.schemas = schemas
		if o.presets == nil {
			presets, err := preset.NewBuiltinRegistry(schemas)
			if err != nil {
				return nil, err
			}
			o.presets = presets
		}
	}
	if o.maxConcurrency <= 0 {
		o.maxConcurrency = DefaultMaxConcurrency
	}
	obs := observability.OrNop(o.observer)

	t, err := tester.New(o.schemas, o.presets,
		tester.WithMatcher(match.New(o.matchOpts...)),
		tester.WithObserver(obs),
	)
	if err != nil {
		return nil, err
	}

	return &Client{
		schemas:        o.schemas,
		presets:        o.presets,
		parser:         selection.NewParser(o.schemas, o.presets),
		tester:         t,
		extractor:      extract.New(append([]extract.Option{extract.WithObserver(obs)}, o.extractOpts...)...),
		fetcher:        fetch.New(append([]fetch.Option{fetch.WithObserver(obs)}, o.fetchOpts...)...),
		renderer:       fetch.NewRenderer(append([]fetch.RenderOption{fetch.WithRenderObserver(obs)}, o.renderOpts...)...),
		observer:       obs,
		maxBodySize:    o.maxBodySize,
		maxConcurrency: o.maxConcurrency,
	}, nil
}

// Schemas returns the schema registry.
func (c *Client) Schemas() *schema.Registry { return c.schemas }

// Presets returns the preset registry. It may be nil.
func (c *Client) Presets() *preset.Registry { return c.presets }

// Strict reports whether strict type checks are in use.
func (c *Client) Strict() bool { return c.tester.Matcher().Strict() }

// Selections parses preset and schema tokens, presets first. Each entry may
// itself be a comma-separated list. Every invalid token is reported in the
// joined error.
func (c *Client) Selections(presets, schemas []string) ([]selection.Selection, error) {
	var (
		out  []selection.Selection
		errs []error
	)
	for _, list := range presets {
		sels, err := c.parser.ParsePresetList(list)
		out = append(out, sels...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	for _, list := range schemas {
		sels, err := c.parser.ParseSchemaList(list)
		out = append(out, sels...)
		if err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// SelectionsFor parses every token of req: presets, then schemas, then mixed
// tokens. Every invalid token is reported in the joined error.
func (c *Client) SelectionsFor(req Request) ([]selection.Selection, error) {
	out, err := c.Selections(req.Presets, req.Schemas)
	errs := []error{err}
	for _, list := range req.Select {
		sels, err := c.parser.ParseList(list)
		out = append(out, sels...)
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

// Test runs one request. Selections are checked before the document is
// loaded. A completed run with failing schemas returns the report together
// with a *report.ValidationFailedError.
func (c *Client) Test(ctx context.Context, req Request) (*report.Report, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	sels, err := c.SelectionsFor(req)
	if err != nil {
		return nil, err
	}

	return c.testSelected(ctx, req, sels)
}

// TestURL tests the document at url.
func (c *Client) TestURL(ctx context.Context, url string, sels []selection.Selection) (*report.Report, error) {
	return c.testSelected(ctx, Request{URL: url}, sels)
}

// TestFile tests a local HTML file.
func (c *Client) TestFile(ctx context.Context, path string, sels []selection.Selection) (*report.Report, error) {
	return c.testSelected(ctx, Request{File: path}, sels)
}

// TestHTML tests an in-memory document. baseURL may be empty.
func (c *Client) TestHTML(ctx context.Context, html []byte, baseURL string, sels []selection.Selection) (*report.Report, error) {
	input := report.Input{Kind: report.InputHTML, Source: baseURL}
	return c.tester.Test(ctx, input, sels, func(ctx context.Context) (record.Record, error) {
		return c.extractor.Extract(ctx, html, baseURL)
	})
}

// Extract loads and extracts the request's document without testing it.
func (c *Client) Extract(ctx context.Context, req Request) (record.Record, error) {
	doc, err := c.Load(ctx, req)
	if err != nil {
		return nil, err
	}
	return c.extractor.Extract(ctx, doc.Body, doc.BaseURL())
}

// Load fetches, renders or reads the request's document.
func (c *Client) Load(ctx context.Context, req Request) (*fetch.Document, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	return c.load(ctx, req)
}

// TestDocument tests a document obtained with Load. req supplies the
// selections and the report input.
func (c *Client) TestDocument(ctx context.Context, req Request, doc *fetch.Document) (*report.Report, error) {
	sels, err := c.SelectionsFor(req)
	if err != nil {
		return nil, err
	}
	rep, err := c.tester.Test(ctx, req.Input(), sels, func(ctx context.Context) (record.Record, error) {
		return c.extractor.Extract(ctx, doc.Body, doc.BaseURL())
	})
	if rep != nil && doc.FinalURL != "" && req.HTML == "" {
		rep.Input.FinalURL = doc.FinalURL
	}
	return rep, err
}

func (c *Client) testSelected(ctx context.Context, req Request, sels []selection.Selection) (*report.Report, error) {
	var finalURL string
	rep, err := c.tester.Test(ctx, req.Input(), sels, func(ctx context.Context) (record.Record, error) {
		doc, err := c.load(ctx, req)
		if err != nil {
			return nil, err
		}
		finalURL = doc.FinalURL
		return c.extractor.Extract(ctx, doc.Body, doc.BaseURL())
	})
	if rep != nil && finalURL != "" && req.HTML == "" {
		rep.Input.FinalURL = finalURL
	}
	return rep, err
}

func (c *Client) load(ctx context.Context, req Request) (*fetch.Document, error) {
	switch {
	case req.URL != "" && req.Render:
		return c.renderer.Render(ctx, req.URL)
	case req.URL != "":
		return c.fetcher.Fetch(ctx, req.URL)
	case req.File != "":
		return fetch.ReadFile(req.File, c.maxBodySize)
	case req.HTML != "":
		return &fetch.Document{Source: req.BaseURL, FinalURL: req.BaseURL, ContentType: "text/html", Body: []byte(req.HTML)}, nil
	default:
		return nil, fmt.Errorf("sdtt: %w", ErrNoInput)
	}
}

// Close releases the headless browser, if one was started.
func (c *Client) Close() error {
	return c.renderer.Close()
}
