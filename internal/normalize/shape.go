// Package normalize turns CMS payloads of any historical shape into the
// canonical records rendered by the site. Every function here is total: bad
// input degrades to empty values instead of an error.
package normalize

import (
	"strings"
)

// Shape is the structural kind of a raw CMS value.
type Shape uint8

const (
	ShapeAbsent Shape = iota
	// ShapeLegacyScalar is a lone string, number, bool or object.
	ShapeLegacyScalar
	// ShapeFlatArray is an array of plain values, usually strings.
	ShapeFlatArray
	// ShapeObjectArray is an array of objects such as {name} or {attributes: {name}}.
	ShapeObjectArray
	// ShapeWrapped is a {data: ...} envelope.
	ShapeWrapped
)

func (s Shape) String() string {
	switch s {
	case ShapeLegacyScalar:
		return "legacy-scalar"
	case ShapeFlatArray:
		return "flat-array"
	case ShapeObjectArray:
		return "object-array"
	case ShapeWrapped:
		return "wrapped"
	default:
		return "absent"
	}
}

// DetectShape classifies v as decoded by encoding/json into any.
func DetectShape(v any) Shape {
	switch t := v.(type) {
	case nil:
		return ShapeAbsent
	case []any:
		for _, item := range t {
			if item == nil {
				continue
			}
			if _, ok := item.(map[string]any); ok {
				return ShapeObjectArray
			}
			return ShapeFlatArray
		}
		return ShapeFlatArray
	case map[string]any:
		if _, ok := t["data"]; ok {
			return ShapeWrapped
		}
		return ShapeLegacyScalar
	default:
		return ShapeLegacyScalar
	}
}

// FacetValues extracts the tag names of a facet field. Blank names are
// dropped and duplicates keep their first position.
func FacetValues(v any) []string {
	out := make([]string, 0)
	seen := map[string]struct{}{}
	add := func(s string) {
		s = strings.TrimSpace(s)
		if s == "" {
			return
		}
		if _, dup := seen[s]; dup {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	collectFacet(v, add, 0)
	return out
}

const maxDepth = 8

func collectFacet(v any, add func(string), depth int) {
	if depth > maxDepth {
		return
	}
	switch DetectShape(v) {
	case ShapeAbsent:
	case ShapeWrapped:
		collectFacet(v.(map[string]any)["data"], add, depth+1)
	case ShapeFlatArray, ShapeObjectArray:
		for _, item := range v.([]any) {
			switch t := item.(type) {
			case string:
				add(t)
			case map[string]any:
				add(tagName(t))
			}
		}
	case ShapeLegacyScalar:
		switch t := v.(type) {
		case string:
			add(t)
		case map[string]any:
			add(tagName(t))
		}
	}
}

// tagName reads .name, .title, .attributes.name or .attributes.title.
func tagName(obj map[string]any) string {
	for _, key := range []string{"name", "title"} {
		if s, ok := obj[key].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	if attrs, ok := obj["attributes"].(map[string]any); ok {
		for _, key := range []string{"name", "title"} {
			if s, ok := attrs[key].(string); ok && strings.TrimSpace(s) != "" {
				return s
			}
		}
	}
	return ""
}
