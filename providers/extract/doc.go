// Package extract turns an HTML document into a record.Record.
//
// One pass over the parsed tree fills six namespaces:
//
//   - og, twitter and meta from <meta>, <title>, <link rel=canonical> and <html lang>
//   - jsonld from <script type="application/ld+json"> blocks, including
//     top-level arrays and @graph members
//   - microdata from itemscope/itemprop trees
//   - rdfa from typeof/property trees
//
// schema.org vocabulary terms are reduced to their local name, so
// "https://schema.org/Article" and "schema:headline" are recorded as
// "Article" and "headline". Malformed JSON-LD is repaired when possible
// unless WithStrictJSONLD is set.
//
// Example usage:
//
//	ex := extract.New(extract.WithObserver(obs))
//	rec, err := ex.Extract(ctx, body, "https://example.com/post")
package extract
