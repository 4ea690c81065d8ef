package schema

// schema.org types are declared once and instantiated for every format that
// can carry schema.org vocabulary. Property names are identical across
// JSON-LD, microdata and RDFa.
var schemaOrgFormats = []Format{FormatJSONLD, FormatMicrodata, FormatRDFa}

type template struct {
	name        string
	description string
	fields      []FieldSpec
}

func req(key string, t ExpectedType) FieldSpec { return FieldSpec{Key: key, Required: true, Type: t} }
func opt(key string, t ExpectedType) FieldSpec { return FieldSpec{Key: key, Type: t} }

func articleFields() []FieldSpec {
	return []FieldSpec{
		req("headline", TypeString),
		req("image", TypeImage),
		opt("author", TypeString),
		opt("datePublished", TypeDate),
		opt("dateModified", TypeDate),
		opt("publisher", TypeString),
		opt("description", TypeString),
		opt("mainEntityOfPage", TypeURL),
	}
}

var schemaOrgTemplates = []template{
	{"Article", "schema.org Article", articleFields()},
	{"NewsArticle", "schema.org NewsArticle", articleFields()},
	{"BlogPosting", "schema.org BlogPosting", articleFields()},
	{"Product", "schema.org Product", []FieldSpec{
		req("name", TypeString),
		opt("image", TypeImage),
		opt("description", TypeString),
		opt("sku", TypeString),
		opt("brand", TypeString),
		opt("offers", TypeAny),
		opt("aggregateRating", TypeAny),
		opt("review", TypeAny),
	}},
	{"Organization", "schema.org Organization", []FieldSpec{
		req("name", TypeString),
		req("url", TypeURL),
		opt("logo", TypeImage),
		opt("sameAs", TypeURL),
		opt("contactPoint", TypeAny),
		opt("address", TypeAny),
		opt("telephone", TypeString),
	}},
	{"LocalBusiness", "schema.org LocalBusiness", []FieldSpec{
		req("name", TypeString),
		req("address", TypeAny),
		opt("telephone", TypeString),
		opt("image", TypeImage),
		opt("url", TypeURL),
		opt("openingHours", TypeString),
		opt("geo", TypeAny),
		opt("priceRange", TypeString),
	}},
	{"Person", "schema.org Person", []FieldSpec{
		req("name", TypeString),
		opt("url", TypeURL),
		opt("image", TypeImage),
		opt("jobTitle", TypeString),
		opt("sameAs", TypeURL),
	}},
	{"Event", "schema.org Event", []FieldSpec{
		req("name", TypeString),
		req("startDate", TypeDate),
		req("location", TypeAny),
		opt("endDate", TypeDate),
		opt("image", TypeImage),
		opt("description", TypeString),
		opt("offers", TypeAny),
		opt("performer", TypeAny),
		opt("eventStatus", TypeString),
	}},
	{"Recipe", "schema.org Recipe", []FieldSpec{
		req("name", TypeString),
		req("image", TypeImage),
		opt("author", TypeString),
		opt("datePublished", TypeDate),
		opt("description", TypeString),
		opt("recipeIngredient", TypeString),
		opt("recipeInstructions", TypeAny),
		opt("totalTime", TypeString),
		opt("recipeYield", TypeString),
		opt("nutrition", TypeAny),
		opt("aggregateRating", TypeAny),
	}},
	{"BreadcrumbList", "schema.org BreadcrumbList", []FieldSpec{
		req("itemListElement", TypeAny),
	}},
	{"WebSite", "schema.org WebSite", []FieldSpec{
		req("name", TypeString),
		req("url", TypeURL),
		opt("potentialAction", TypeAny),
	}},
	{"FAQPage", "schema.org FAQPage", []FieldSpec{
		req("mainEntity", TypeAny),
	}},
	{"VideoObject", "schema.org VideoObject", []FieldSpec{
		req("name", TypeString),
		req("description", TypeString),
		req("thumbnailUrl", TypeImage),
		req("uploadDate", TypeDate),
		opt("contentUrl", TypeURL),
		opt("embedUrl", TypeURL),
		opt("duration", TypeString),
	}},
}

var metaTagDefinitions = []Definition{
	{
		Format:      FormatOpenGraph,
		Name:        "Basic",
		Description: "Open Graph basic metadata",
		Fields: []FieldSpec{
			req("og:title", TypeString),
			req("og:type", TypeString),
			req("og:image", TypeImage),
			req("og:url", TypeURL),
			opt("og:description", TypeString),
			opt("og:site_name", TypeString),
			opt("og:locale", TypeString),
		},
	},
	{
		Format:      FormatOpenGraph,
		Name:        "Article",
		Description: "Open Graph article",
		Fields: []FieldSpec{
			req("og:title", TypeString),
			req("og:type", TypeString),
			req("og:image", TypeImage),
			req("og:url", TypeURL),
			opt("og:description", TypeString),
			opt("article:published_time", TypeDate),
			opt("article:modified_time", TypeDate),
			opt("article:author", TypeString),
			opt("article:section", TypeString),
			opt("article:tag", TypeString),
		},
	},
	{
		Format:      FormatOpenGraph,
		Name:        "Facebook",
		Description: "Open Graph tags read by Facebook link previews",
		Fields: []FieldSpec{
			req("og:title", TypeString),
			req("og:type", TypeString),
			req("og:image", TypeImage),
			req("og:url", TypeURL),
			req("og:description", TypeString),
			opt("fb:app_id", TypeNumber),
			opt("og:site_name", TypeString),
			opt("og:locale", TypeString),
		},
	},
	{
		Format:      FormatTwitter,
		Name:        "Card",
		Description: "Twitter summary card",
		Fields: []FieldSpec{
			req("twitter:card", TypeString),
			req("twitter:title", TypeString),
			opt("twitter:description", TypeString),
			opt("twitter:image", TypeImage),
			opt("twitter:image:alt", TypeString),
			opt("twitter:site", TypeString),
			opt("twitter:creator", TypeString),
		},
	},
	{
		Format:      FormatTwitter,
		Name:        "SummaryLargeImage",
		Description: "Twitter summary card with large image",
		Fields: []FieldSpec{
			req("twitter:card", TypeString),
			req("twitter:title", TypeString),
			req("twitter:image", TypeImage),
			opt("twitter:description", TypeString),
			opt("twitter:image:alt", TypeString),
			opt("twitter:site", TypeString),
		},
	},
	{
		Format:      FormatTwitter,
		Name:        "Player",
		Description: "Twitter player card",
		Fields: []FieldSpec{
			req("twitter:card", TypeString),
			req("twitter:title", TypeString),
			req("twitter:site", TypeString),
			req("twitter:player", TypeURL),
			req("twitter:player:width", TypeNumber),
			req("twitter:player:height", TypeNumber),
			req("twitter:image", TypeImage),
		},
	},
	{
		Format:      FormatTwitter,
		Name:        "App",
		Description: "Twitter app card",
		Fields: []FieldSpec{
			req("twitter:card", TypeString),
			req("twitter:site", TypeString),
			opt("twitter:app:id:iphone", TypeString),
			opt("twitter:app:id:ipad", TypeString),
			opt("twitter:app:id:googleplay", TypeString),
			opt("twitter:app:country", TypeString),
		},
	},
	{
		Format:      FormatMeta,
		Name:        "Page",
		Description: "HTML head metadata used by search engines",
		Fields: []FieldSpec{
			req("title", TypeString),
			req("description", TypeString),
			opt("canonical", TypeURL),
			opt("robots", TypeString),
			opt("viewport", TypeString),
			opt("keywords", TypeString),
		},
	},
}

// Builtin returns the definitions shipped with sdtt. Each call returns a
// fresh slice the caller may extend before passing it to NewRegistry.
func Builtin() []Definition {
	defs := make([]Definition, 0, len(schemaOrgTemplates)*len(schemaOrgFormats)+len(metaTagDefinitions))
	for _, format := range schemaOrgFormats {
		for _, t := range schemaOrgTemplates {
			defs = append(defs, Definition{
				Format:      format,
				Name:        t.name,
				Description: t.description,
				Fields:      append([]FieldSpec(nil), t.fields...),
			})
		}
	}
	for _, d := range metaTagDefinitions {
		defs = append(defs, d.clone())
	}
	return defs
}

// NewBuiltinRegistry builds a registry holding the builtin definitions plus
// any extra ones.
func NewBuiltinRegistry(extra ...Definition) (*Registry, error) {
	return NewRegistry(append(Builtin(), extra...)...)
}
