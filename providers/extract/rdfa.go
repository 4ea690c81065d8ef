package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/schema"
)

// addRDFa merges every top-level typeof scope into the rdfa namespace. A
// scope is top-level when it has no property attribute or no enclosing
// scope. Properties outside any typeof scope are ignored, which keeps Open
// Graph meta tags out of the rdfa namespace.
func (p *page) addRDFa(root *html.Node) {
	var walk func(n *html.Node, inScope bool)
	walk = func(n *html.Node, inScope bool) {
		if n.Type == html.ElementNode && hasAttr(n, "typeof") {
			if !hasAttr(n, "property") || !inScope {
				p.builder.Touch(schema.FormatRDFa)
				for key, value := range p.rdfaItem(n) {
					if key == record.TypeKey {
						for _, t := range asStrings(value) {
							p.builder.AddType(schema.FormatRDFa, t)
						}
						continue
					}
					p.builder.Add(schema.FormatRDFa, key, value)
				}
			}
			inScope = true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inScope)
		}
	}
	walk(root, false)
}

// rdfaItem collects the properties of the typeof scope rooted at n.
func (p *page) rdfaItem(n *html.Node) map[string]any {
	item := map[string]any{}
	types, _ := attr(n, "typeof")
	for _, t := range strings.Fields(types) {
		mergeProp(item, record.TypeKey, localName(t))
	}
	if id, ok := attr(n, "resource"); ok {
		mergeProp(item, "@id", p.resolve(id))
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			props, isProp := attr(c, "property")
			scoped := hasAttr(c, "typeof")
			switch {
			case isProp:
				var value any
				if scoped {
					value = p.rdfaItem(c)
				} else {
					value = p.rdfaValue(c)
				}
				for _, name := range strings.Fields(props) {
					mergeProp(item, localName(name), value)
				}
				if !scoped {
					walk(c)
				}
			case scoped:
				// a separate scope, picked up by addRDFa
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return item
}

// rdfaValue picks the object of a property: content, then a resource
// reference, then a time's datetime, then the element text.
func (p *page) rdfaValue(n *html.Node) any {
	if v, ok := attr(n, "content"); ok {
		return p.clean(v)
	}
	for _, key := range []string{"resource", "href", "src"} {
		if v, ok := attr(n, key); ok {
			return p.resolve(v)
		}
	}
	if n.DataAtom == atom.Time {
		if v, ok := attr(n, "datetime"); ok {
			return strings.TrimSpace(v)
		}
	}
	return p.clean(textContent(n))
}
