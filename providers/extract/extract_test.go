package extract

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/schema"
)

const socialPage = `<!DOCTYPE html>
<html lang="en">
<head>
  <title>  Hello
     World </title>
  <meta name="Description" content="A short description">
  <meta property="og:title" content="Hello World">
  <meta property="og:image" content="/cover.png">
  <meta property="article:tag" content="go">
  <meta property="article:tag" content="html">
  <meta name="twitter:card" content="summary_large_image">
  <meta name="twitter:title" content="Hello <b>World</b>">
  <link rel="canonical" href="https://example.com/hello">
</head>
<body><svg><title>icon</title></svg></body>
</html>`

func extract(t *testing.T, doc string, opts ...Option) record.Record {
	t.Helper()
	rec, err := New(opts...).Extract(context.Background(), []byte(doc), "https://example.com/posts/hello")
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	return rec
}

func assertField(t *testing.T, rec record.Record, format schema.Format, key string, want any) {
	t.Helper()
	got, ok := rec.Get(format, key)
	if !ok {
		t.Errorf("%s %q missing, record has %v", format, key, rec.Keys(format))
		return
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("%s %q = %#v, want %#v", format, key, got, want)
	}
}

func TestExtract_MetaTags(t *testing.T) {
	rec := extract(t, socialPage)

	assertField(t, rec, schema.FormatMeta, "title", "Hello World")
	assertField(t, rec, schema.FormatMeta, "description", "A short description")
	assertField(t, rec, schema.FormatMeta, "lang", "en")
	assertField(t, rec, schema.FormatMeta, "canonical", "https://example.com/hello")

	assertField(t, rec, schema.FormatOpenGraph, "og:title", "Hello World")
	assertField(t, rec, schema.FormatOpenGraph, "og:image", "/cover.png")
	assertField(t, rec, schema.FormatOpenGraph, "article:tag", []any{"go", "html"})

	assertField(t, rec, schema.FormatTwitter, "twitter:card", "summary_large_image")
	assertField(t, rec, schema.FormatTwitter, "twitter:title", "Hello World")

	for _, f := range []schema.Format{schema.FormatJSONLD, schema.FormatMicrodata, schema.FormatRDFa} {
		if _, ok := rec.Namespace(f); ok {
			t.Errorf("Expected no %s namespace for a page without it", f)
		}
	}
}

func TestExtract_JSONLD(t *testing.T) {
	doc := `<html><head>
<script type="application/ld+json">
{
  "@context": "https://schema.org",
  "@graph": [
    {"@type": "WebSite", "name": "Example", "url": "https://example.com"},
    {"@type": "schema:Article", "headline": "  Big   News ", "author": {"@type": "Person", "name": "Ann"}}
  ]
}
</script>
<script type="application/ld+json; charset=utf-8">
<!-- [{"@type": "BreadcrumbList", "itemListElement": []}] -->
</script>
</head><body></body></html>`

	rec := extract(t, doc)

	if got := rec.Types(schema.FormatJSONLD); !reflect.DeepEqual(got, []string{"WebSite", "Article", "BreadcrumbList"}) {
		t.Errorf("Types = %v", got)
	}
	assertField(t, rec, schema.FormatJSONLD, "name", "Example")
	assertField(t, rec, schema.FormatJSONLD, "headline", "Big News")
	assertField(t, rec, schema.FormatJSONLD, "author", map[string]any{"@type": "Person", "name": "Ann"})
	if _, ok := rec.Get(schema.FormatJSONLD, "@context"); ok {
		t.Error("Expected @context to be dropped")
	}
	if _, ok := rec.Get(schema.FormatJSONLD, "itemListElement"); ok {
		t.Error("Expected empty itemListElement to be dropped")
	}
}

func TestExtract_JSONLDRepair(t *testing.T) {
	doc := `<script type="application/ld+json">{"@type": "Article", "headline": "Fixed",}</script>`

	rec := extract(t, doc)
	assertField(t, rec, schema.FormatJSONLD, "headline", "Fixed")

	_, err := New(WithStrictJSONLD()).Extract(context.Background(), []byte(doc), "")
	var extractErr *Error
	if !errors.As(err, &extractErr) {
		t.Fatalf("Expected *Error in strict mode, got %v", err)
	}
	if extractErr.Format != schema.FormatJSONLD {
		t.Errorf("Format = %q, want jsonld", extractErr.Format)
	}
}

func TestExtract_EmptyJSONLDBlock(t *testing.T) {
	rec := extract(t, `<script type="application/ld+json">   </script><p>text</p>`)

	fields, ok := rec.Namespace(schema.FormatJSONLD)
	if !ok {
		t.Fatal("Expected jsonld namespace for a page with a JSON-LD block")
	}
	if len(fields) != 0 {
		t.Errorf("Expected no fields, got %v", fields)
	}
}

func TestExtract_Microdata(t *testing.T) {
	doc := `<html><body>
<article itemscope itemtype="https://schema.org/Article">
  <h1 itemprop="headline">Microdata   Title</h1>
  <img itemprop="image" src="/img/cover.png" alt="">
  <time itemprop="datePublished" datetime="2024-01-02">January 2</time>
  <meta itemprop="wordCount" content="420">
  <div itemprop="author" itemscope itemtype="https://schema.org/Person">
    <span itemprop="name">Ann</span>
    <a itemprop="url" href="../authors/ann">profile</a>
  </div>
  <section>
    <span itemprop="keywords">go</span>
    <span itemprop="keywords">html</span>
  </section>
</article>
<div itemscope itemtype="https://schema.org/Organization">
  <span itemprop="name">Example Inc</span>
</div>
</body></html>`

	rec := extract(t, doc)

	if got := rec.Types(schema.FormatMicrodata); !reflect.DeepEqual(got, []string{"Article", "Organization"}) {
		t.Errorf("Types = %v", got)
	}
	assertField(t, rec, schema.FormatMicrodata, "headline", "Microdata Title")
	assertField(t, rec, schema.FormatMicrodata, "image", "https://example.com/img/cover.png")
	assertField(t, rec, schema.FormatMicrodata, "datePublished", "2024-01-02")
	assertField(t, rec, schema.FormatMicrodata, "wordCount", "420")
	assertField(t, rec, schema.FormatMicrodata, "keywords", []any{"go", "html"})
	assertField(t, rec, schema.FormatMicrodata, "author", map[string]any{
		"@type": "Person",
		"name":  "Ann",
		"url":   "https://example.com/authors/ann",
	})
	// The nested Person's name must not leak into the Article.
	assertField(t, rec, schema.FormatMicrodata, "name", "Example Inc")
}

func TestExtract_RDFa(t *testing.T) {
	doc := `<html><head><meta property="og:title" content="Not RDFa"></head><body>
<div vocab="https://schema.org/" typeof="Product">
  <span property="name">Widget</span>
  <a property="url" href="/widget">details</a>
  <div property="offers" typeof="Offer">
    <span property="price" content="9.99">$9.99</span>
    <span property="priceCurrency">USD</span>
  </div>
</div>
</body></html>`

	rec := extract(t, doc)

	if got := rec.Types(schema.FormatRDFa); !reflect.DeepEqual(got, []string{"Product"}) {
		t.Errorf("Types = %v", got)
	}
	assertField(t, rec, schema.FormatRDFa, "name", "Widget")
	assertField(t, rec, schema.FormatRDFa, "url", "https://example.com/widget")
	assertField(t, rec, schema.FormatRDFa, "offers", map[string]any{
		"@type":         "Offer",
		"price":         "9.99",
		"priceCurrency": "USD",
	})
	if _, ok := rec.Get(schema.FormatRDFa, "og:title"); ok {
		t.Error("Expected meta properties outside a typeof scope to be ignored")
	}
	if _, ok := rec.Get(schema.FormatRDFa, "title"); ok {
		t.Error("Expected meta properties outside a typeof scope to be ignored")
	}
}

func TestExtract_WithFormats(t *testing.T) {
	rec := extract(t, socialPage, WithFormats(schema.FormatOpenGraph))

	if got := rec.Formats(); !reflect.DeepEqual(got, []schema.Format{schema.FormatOpenGraph}) {
		t.Errorf("Formats = %v, want [og]", got)
	}
}

func TestExtract_Errors(t *testing.T) {
	ex := New()

	_, err := ex.Extract(context.Background(), []byte(" \n\t "), "")
	if !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}
	var extractErr *Error
	if !errors.As(err, &extractErr) || extractErr.Op != "parse" {
		t.Errorf("Expected *Error with op parse, got %v", err)
	}

	if _, err := ex.Extract(context.Background(), []byte("<p>x</p>"), "http://[::1"); !errors.As(err, &extractErr) {
		t.Errorf("Expected *Error for a bad base URL, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ex.Extract(ctx, []byte("<p>x</p>"), ""); !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestLocalName(t *testing.T) {
	tests := map[string]string{
		"https://schema.org/Article": "Article",
		"http://schema.org/Person":   "Person",
		"schema:headline":            "headline",
		"Article":                    "Article",
		" og:title ":                 "title",
	}
	for in, want := range tests {
		if got := localName(in); got != want {
			t.Errorf("localName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMetaFormat(t *testing.T) {
	tests := map[string]schema.Format{
		"og:title":               schema.FormatOpenGraph,
		"article:published_time": schema.FormatOpenGraph,
		"fb:app_id":              schema.FormatOpenGraph,
		"twitter:card":           schema.FormatTwitter,
		"Twitter:Site":           schema.FormatTwitter,
		"description":            schema.FormatMeta,
		"robots":                 schema.FormatMeta,
	}
	for key, want := range tests {
		if got := metaFormat(key); got != want {
			t.Errorf("metaFormat(%q) = %q, want %q", key, got, want)
		}
	}
}
