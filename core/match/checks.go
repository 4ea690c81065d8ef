package match

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/leofalp/sdtt/core/schema"
)

var (
	isoDate     = regexp.MustCompile(`^\d{4}(-\d{2}(-\d{2})?)?$`)
	isoDateTime = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}[T ]\d{2}:\d{2}(:\d{2}(\.\d+)?)?(Z|[+-]\d{2}:?\d{2})?$`)
	numeric     = regexp.MustCompile(`^[+-]?(\d+(\.\d*)?|\.\d+)([eE][+-]?\d+)?$`)
)

// Keys of nested objects that carry the scalar a type check looks at.
var (
	textKeys  = []string{"name", "@value", "text"}
	urlKeys   = []string{"url", "@id"}
	imageKeys = []string{"url", "contentUrl", "@id"}
)

func lenientChecks() map[schema.ExpectedType]Check {
	return map[schema.ExpectedType]Check{
		schema.TypeString: each(isText),
		schema.TypeURL:    each(nested(urlKeys, isAbsoluteURL)),
		schema.TypeImage:  each(nested(imageKeys, isImageRef)),
		schema.TypeDate:   each(nested([]string{"@value"}, isISODate)),
		schema.TypeNumber: each(nested([]string{"@value"}, isNumber)),
	}
}

func strictChecks() map[schema.ExpectedType]Check {
	return map[schema.ExpectedType]Check{
		schema.TypeString: each(isText),
		schema.TypeURL:    each(nested(urlKeys, isHTTPURL)),
		schema.TypeImage:  each(nested(imageKeys, isHTTPURL)),
		schema.TypeDate:   each(nested([]string{"@value"}, isStrictDate)),
		schema.TypeNumber: each(isJSONNumber),
	}
}

// each accepts a list when every element passes check and the list is not
// empty.
func each(check Check) Check {
	return func(value any) bool {
		list, ok := value.([]any)
		if !ok {
			return check(value)
		}
		if len(list) == 0 {
			return false
		}
		for _, v := range list {
			if !check(v) {
				return false
			}
		}
		return true
	}
}

// nested lets an object pass when one of keys holds a passing value.
func nested(keys []string, check Check) Check {
	return func(value any) bool {
		obj, ok := value.(map[string]any)
		if !ok {
			return check(value)
		}
		for _, k := range keys {
			if v, ok := obj[k]; ok && check(v) {
				return true
			}
		}
		return false
	}
}

func isText(value any) bool {
	switch v := value.(type) {
	case string:
		return strings.TrimSpace(v) != ""
	case float64, int, int64, json.Number, bool:
		return true
	case map[string]any:
		for _, k := range textKeys {
			if s, ok := v[k]; ok && isText(s) {
				return true
			}
		}
	}
	return false
}

func parseURL(value any) (*url.URL, bool) {
	s, ok := value.(string)
	if !ok {
		return nil, false
	}
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, " \t\n") {
		return nil, false
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, false
	}
	return u, true
}

func isAbsoluteURL(value any) bool {
	u, ok := parseURL(value)
	return ok && u.Scheme != "" && u.Host != ""
}

func isHTTPURL(value any) bool {
	u, ok := parseURL(value)
	if !ok || u.Host == "" {
		return false
	}
	scheme := strings.ToLower(u.Scheme)
	return scheme == "http" || scheme == "https"
}

func isImageRef(value any) bool {
	s, ok := value.(string)
	if ok && strings.HasPrefix(strings.ToLower(strings.TrimSpace(s)), "data:image/") {
		return true
	}
	u, ok := parseURL(value)
	if !ok {
		return false
	}
	switch {
	case u.Scheme != "":
		// javascript:, mailto: and friends have no host.
		return u.Host != ""
	case strings.HasPrefix(s, "//"):
		return u.Host != ""
	default:
		return u.Path != ""
	}
}

func isISODate(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	return isoDate.MatchString(s) || isoDateTime.MatchString(s)
}

func isStrictDate(value any) bool {
	s, ok := value.(string)
	if !ok {
		return false
	}
	s = strings.TrimSpace(s)
	if _, err := time.Parse(time.DateOnly, s); err == nil {
		return true
	}
	_, err := time.Parse(time.RFC3339, s)
	return err == nil
}

func isNumber(value any) bool {
	if isJSONNumber(value) {
		return true
	}
	s, ok := value.(string)
	return ok && numeric.MatchString(strings.TrimSpace(s))
}

func isJSONNumber(value any) bool {
	switch value.(type) {
	case float64, float32, int, int64, json.Number:
		return true
	}
	return false
}
