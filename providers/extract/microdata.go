package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/leofalp/sdtt/core/record"
	"github.com/leofalp/sdtt/core/schema"
)

// addMicrodata merges every top-level item (itemscope without itemprop) into
// the microdata namespace.
func (p *page) addMicrodata(n *html.Node) {
	if n.Type == html.ElementNode && hasAttr(n, "itemscope") && !hasAttr(n, "itemprop") {
		p.builder.Touch(schema.FormatMicrodata)
		for key, value := range p.microdataItem(n) {
			if key == record.TypeKey {
				for _, t := range asStrings(value) {
					p.builder.AddType(schema.FormatMicrodata, t)
				}
				continue
			}
			p.builder.Add(schema.FormatMicrodata, key, value)
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		p.addMicrodata(c)
	}
}

// microdataItem collects the properties of the item rooted at n. Nested
// items become map values.
func (p *page) microdataItem(n *html.Node) map[string]any {
	item := map[string]any{}
	if types, ok := attr(n, "itemtype"); ok {
		for _, t := range strings.Fields(types) {
			mergeProp(item, record.TypeKey, localName(t))
		}
	}
	if id, ok := attr(n, "itemid"); ok {
		mergeProp(item, "@id", p.resolve(id))
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}
			props, isProp := attr(c, "itemprop")
			scoped := hasAttr(c, "itemscope")
			switch {
			case isProp:
				var value any
				if scoped {
					value = p.microdataItem(c)
				} else {
					value = p.microdataValue(c)
				}
				for _, name := range strings.Fields(props) {
					mergeProp(item, localName(name), value)
				}
				if !scoped {
					walk(c)
				}
			case scoped:
				// an unrelated item, picked up by addMicrodata
			default:
				walk(c)
			}
		}
	}
	walk(n)
	return item
}

// microdataValue follows the HTML microdata rules for property values.
func (p *page) microdataValue(n *html.Node) any {
	switch n.DataAtom {
	case atom.Meta:
		v, _ := attr(n, "content")
		return p.clean(v)
	case atom.Audio, atom.Embed, atom.Iframe, atom.Img, atom.Source, atom.Track, atom.Video:
		v, _ := attr(n, "src")
		return p.resolve(v)
	case atom.A, atom.Area, atom.Link:
		v, _ := attr(n, "href")
		return p.resolve(v)
	case atom.Object:
		v, _ := attr(n, "data")
		return p.resolve(v)
	case atom.Data, atom.Meter:
		v, _ := attr(n, "value")
		return strings.TrimSpace(v)
	case atom.Time:
		if v, ok := attr(n, "datetime"); ok {
			return strings.TrimSpace(v)
		}
	}
	if v, ok := attr(n, "content"); ok {
		return p.clean(v)
	}
	return p.clean(textContent(n))
}

func hasAttr(n *html.Node, key string) bool {
	_, ok := attr(n, key)
	return ok
}

// mergeProp adds value under key, turning repeated keys into a list.
func mergeProp(item map[string]any, key string, value any) {
	if key == "" || record.IsEmpty(value) {
		return
	}
	existing, ok := item[key]
	if !ok {
		item[key] = value
		return
	}
	if list, ok := existing.([]any); ok {
		item[key] = append(list, value)
		return
	}
	item[key] = []any{existing, value}
}

func asStrings(v any) []string {
	switch x := v.(type) {
	case string:
		return []string{x}
	case []any:
		var out []string
		for _, item := range x {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
