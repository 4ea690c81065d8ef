package preset

import "github.com/leofalp/sdtt/core/schema"

func id(f schema.Format, name string) schema.ID { return schema.ID{Format: f, Name: name} }

// Builtin returns the presets shipped with sdtt. They only reference
// schema.Builtin definitions.
func Builtin() []Preset {
	return []Preset{
		{
			Name:        "Google",
			Description: "Markup inspected by Google Search",
			Schemas: []schema.ID{
				id(schema.FormatMeta, "Page"),
				id(schema.FormatJSONLD, "WebSite"),
			},
		},
		{
			Name:        "Twitter",
			Description: "Twitter card tags",
			Schemas:     []schema.ID{id(schema.FormatTwitter, "Card")},
		},
		{
			Name:        "Facebook",
			Description: "Open Graph tags read by Facebook",
			Schemas:     []schema.ID{id(schema.FormatOpenGraph, "Facebook")},
		},
		{
			Name:        "SocialMedia",
			Description: "Open Graph and Twitter card tags used for social previews",
			Schemas: []schema.ID{
				id(schema.FormatOpenGraph, "Article"),
				id(schema.FormatTwitter, "Card"),
			},
		},
		{
			Name:        "SEO",
			Description: "Head metadata plus basic social tags",
			Schemas: []schema.ID{
				id(schema.FormatMeta, "Page"),
				id(schema.FormatOpenGraph, "Basic"),
				id(schema.FormatTwitter, "Card"),
			},
		},
		{
			Name:        "ArticlePage",
			Description: "An article page: JSON-LD Article with social tags",
			Schemas: []schema.ID{
				id(schema.FormatJSONLD, "Article"),
				id(schema.FormatOpenGraph, "Article"),
				id(schema.FormatTwitter, "Card"),
			},
		},
		{
			Name:        "ProductPage",
			Description: "A product page: JSON-LD Product with Open Graph",
			Schemas: []schema.ID{
				id(schema.FormatJSONLD, "Product"),
				id(schema.FormatOpenGraph, "Basic"),
			},
		},
	}
}

// NewBuiltinRegistry builds a registry of the builtin presets plus extra
// ones, validated against schemas.
func NewBuiltinRegistry(schemas *schema.Registry, extra ...Preset) (*Registry, error) {
	return NewRegistry(schemas, append(Builtin(), extra...)...)
}
