package normalize

import (
	"fmt"
	"net/url"
	"strings"
)

const sanityCDN = "https://cdn.sanity.io"

// MediaURL resolves any supported media shape to one URL, or "" when v holds
// no usable image.
func (o Options) MediaURL(v any) string {
	return o.resolveURL(o.mediaRef(v, 0))
}

// MediaURLs resolves a list of media values, dropping the empty ones.
func (o Options) MediaURLs(v any) []string {
	out := make([]string, 0)
	var items []any
	switch DetectShape(v) {
	case ShapeWrapped:
		return o.MediaURLs(v.(map[string]any)["data"])
	case ShapeFlatArray, ShapeObjectArray:
		items = v.([]any)
	case ShapeLegacyScalar:
		items = []any{v}
	}
	for _, item := range items {
		if u := o.MediaURL(item); u != "" {
			out = append(out, u)
		}
	}
	return out
}

func (o Options) mediaRef(v any, depth int) string {
	if depth > maxDepth {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case []any:
		for _, item := range t {
			if u := o.mediaRef(item, depth+1); u != "" {
				return u
			}
		}
		return ""
	case map[string]any:
		if s, ok := t["url"].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
		if formats, ok := t["formats"].(map[string]any); ok {
			for _, size := range []string{"medium", "small", "thumbnail"} {
				if f, ok := formats[size].(map[string]any); ok {
					if s, ok := f["url"].(string); ok && strings.TrimSpace(s) != "" {
						return strings.TrimSpace(s)
					}
				}
			}
		}
		for _, key := range []string{"data", "attributes", "_sanityAsset", "asset"} {
			if inner, ok := t[key]; ok && inner != nil {
				if u := o.mediaRef(inner, depth+1); u != "" {
					return u
				}
			}
		}
		if ref, ok := t["_ref"].(string); ok {
			return o.sanityImageURL(ref)
		}
	}
	return ""
}

// sanityImageURL maps an asset reference like image-<id>-<w>x<h>-<ext> to
// its CDN location.
func (o Options) sanityImageURL(ref string) string {
	if o.SanityProjectID == "" || !strings.HasPrefix(ref, "image-") {
		return ""
	}
	body := strings.TrimPrefix(ref, "image-")
	dash := strings.LastIndex(body, "-")
	if dash <= 0 || dash == len(body)-1 {
		return ""
	}
	name, ext := body[:dash], body[dash+1:]
	dataset := o.SanityDataset
	if dataset == "" {
		dataset = "production"
	}
	return fmt.Sprintf("%s/images/%s/%s/%s.%s", sanityCDN, o.SanityProjectID, dataset, name, ext)
}

func (o Options) resolveURL(raw string) string {
	if raw == "" {
		return ""
	}
	lower := strings.ToLower(raw)
	if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") || strings.HasPrefix(raw, "//") {
		return raw
	}
	if strings.HasPrefix(lower, "image-") && !strings.Contains(raw, "/") {
		if u := o.sanityImageURL(raw); u != "" {
			return u
		}
	}
	if o.MediaBaseURL == "" {
		return raw
	}
	base, err := url.Parse(strings.TrimRight(o.MediaBaseURL, "/") + "/")
	if err != nil {
		return raw
	}
	rel, err := url.Parse(strings.TrimLeft(raw, "/"))
	if err != nil {
		return raw
	}
	return base.ResolveReference(rel).String()
}

// YouTubeEmbedURL converts watch, short and embed links to the embed form.
// Anything else is returned unchanged.
func YouTubeEmbedURL(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")
	var id string
	switch host {
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
	case "youtube.com", "m.youtube.com", "youtube-nocookie.com":
		switch {
		case strings.HasPrefix(u.Path, "/embed/"):
			return raw
		case strings.HasPrefix(u.Path, "/shorts/"):
			id = strings.TrimPrefix(u.Path, "/shorts/")
		default:
			id = u.Query().Get("v")
		}
	default:
		return raw
	}
	if id == "" || strings.Contains(id, "/") {
		return raw
	}
	return "https://www.youtube.com/embed/" + id
}
