package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leofalp/sdtt/core/schema"
)

// Property prefixes recorded under the og format. Open Graph object types
// put their own namespaces next to og:.
var ogPrefixes = []string{"og:", "article:", "fb:", "book:", "profile:", "music:", "video:", "product:"}

// metaFormat picks the format a <meta> key belongs to.
func metaFormat(key string) schema.Format {
	lower := strings.ToLower(key)
	if strings.HasPrefix(lower, "twitter:") {
		return schema.FormatTwitter
	}
	for _, prefix := range ogPrefixes {
		if strings.HasPrefix(lower, prefix) {
			return schema.FormatOpenGraph
		}
	}
	return schema.FormatMeta
}

// walkHead records <title>, <meta>, <link rel=canonical>, <html lang> and
// collects the raw text of JSON-LD scripts. Meta tags are read anywhere in
// the document since broken markup often moves them into <body>.
func (p *page) walkHead(n *html.Node) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Html:
			if lang, ok := attr(n, "lang"); ok {
				p.addMeta(schema.FormatMeta, "lang", lang)
			}
		case atom.Title:
			if !p.titleSeen && !inSVG(n) {
				p.titleSeen = true
				p.addMeta(schema.FormatMeta, "title", textContent(n))
			}
			return
		case atom.Meta:
			p.addMetaTag(n)
		case atom.Link:
			p.addLink(n)
		case atom.Script:
			if t, _ := attr(n, "type"); isJSONLDType(t) {
				p.jsonldBlocks = append(p.jsonldBlocks, textContentRaw(n))
			}
			return
		case atom.Style, atom.Noscript, atom.Template:
			return
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.walkHead(c)
	}
}

func (p *page) addMetaTag(n *html.Node) {
	content, ok := attr(n, "content")
	if !ok {
		return
	}
	// property is the Open Graph attribute, name the HTML one; some pages
	// set both to the same key.
	seen := map[string]bool{}
	for _, a := range []string{"property", "name"} {
		key, ok := attr(n, a)
		key = strings.TrimSpace(key)
		if !ok || key == "" || seen[key] {
			continue
		}
		seen[key] = true
		format := metaFormat(key)
		if format == schema.FormatMeta {
			key = strings.ToLower(key)
		}
		p.addMeta(format, key, content)
	}
}

func (p *page) addLink(n *html.Node) {
	rel, _ := attr(n, "rel")
	href, ok := attr(n, "href")
	if !ok {
		return
	}
	for _, r := range strings.Fields(strings.ToLower(rel)) {
		switch r {
		case "canonical":
			p.addMeta(schema.FormatMeta, "canonical", href)
		case "amphtml":
			p.addMeta(schema.FormatMeta, "amphtml", href)
		}
	}
}

func (p *page) addMeta(format schema.Format, key, value string) {
	if !p.ex.enabled(format) {
		return
	}
	p.builder.Add(format, key, p.clean(value))
}

func isJSONLDType(t string) bool {
	mediaType, _, _ := strings.Cut(t, ";")
	return strings.EqualFold(strings.TrimSpace(mediaType), "application/ld+json")
}

// textContentRaw returns the unmodified text children of a raw-text element.
func textContentRaw(n *html.Node) string {
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
	}
	return sb.String()
}

func inSVG(n *html.Node) bool {
	for p := n.Parent; p != nil; p = p.Parent {
		if p.Type == html.ElementNode && p.Namespace == "svg" {
			return true
		}
	}
	return n.Namespace == "svg"
}
