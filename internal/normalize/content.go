package normalize

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

// BlogPost is the canonical blog record. Body and Outro hold portable text
// per locale.
type BlogPost struct {
	ID          string                      `json:"id"`
	Slug        string                      `json:"slug"`
	Title       i18n.Field[string]          `json:"title"`
	Excerpt     i18n.Field[string]          `json:"excerpt"`
	Body        i18n.Field[json.RawMessage] `json:"body"`
	Outro       i18n.Field[json.RawMessage] `json:"outro"`
	MainImage   string                      `json:"mainImage,omitempty"`
	PublishedAt time.Time                   `json:"publishedAt"`
}

// OfferVariant is one package within an offer item.
type OfferVariant struct {
	Name        i18n.Field[string] `json:"name"`
	Description i18n.Field[string] `json:"description"`
}

// OfferItem is one block of the offer page.
type OfferItem struct {
	ID       string                      `json:"id"`
	Heading  i18n.Field[string]          `json:"heading"`
	Subtitle i18n.Field[string]          `json:"subtitle"`
	Body     i18n.Field[json.RawMessage] `json:"body"`
	Image    string                      `json:"image,omitempty"`
	ImageAlt i18n.Field[string]          `json:"imageAlt"`
	Variants []OfferVariant              `json:"variants"`
	Order    int                         `json:"order"`
}

// TaxonomyItem is one selectable value of a facet.
type TaxonomyItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// NormalizeBlogPost maps a blog payload onto the canonical record.
func NormalizeBlogPost(raw any, opts Options) BlogPost {
	rec := record(raw)
	p := BlogPost{
		ID:          firstString(rec, "id", "_id"),
		Slug:        slugOf(rec["slug"]),
		Title:       i18n.FromAny[string](rec["title"]),
		Excerpt:     i18n.FromAny[string](rec["excerpt"]),
		Body:        i18n.FromAny[json.RawMessage](rec["body"]),
		Outro:       i18n.FromAny[json.RawMessage](rec["outro"]),
		MainImage:   opts.MediaURL(rec["mainImage"]),
		PublishedAt: timestamp(rec, "publishedAt", "_createdAt", "createdAt"),
	}
	return p
}

// BlogPosts normalizes a list payload and sorts it newest first.
func BlogPosts(raw any, opts Options) []BlogPost {
	items := listItems(raw)
	out := make([]BlogPost, 0, len(items))
	for _, item := range items {
		out = append(out, NormalizeBlogPost(item, opts))
	}
	SortBlogPosts(out)
	return out
}

// SortBlogPosts orders posts by publication date, newest first, with the
// slug as tie breaker.
func SortBlogPosts(posts []BlogPost) {
	sort.SliceStable(posts, func(i, j int) bool {
		if !posts[i].PublishedAt.Equal(posts[j].PublishedAt) {
			return posts[i].PublishedAt.After(posts[j].PublishedAt)
		}
		return posts[i].Slug < posts[j].Slug
	})
}

// NormalizeOfferItem maps an offer payload onto the canonical record.
func NormalizeOfferItem(raw any, opts Options) OfferItem {
	rec := record(raw)
	item := OfferItem{
		ID:       firstString(rec, "id", "_id"),
		Heading:  i18n.FromAny[string](rec["heading"]),
		Subtitle: i18n.FromAny[string](rec["subtitle"]),
		Body:     i18n.FromAny[json.RawMessage](rec["body"]),
		Image:    opts.MediaURL(rec["image"]),
		ImageAlt: i18n.FromAny[string](rec["imageAlt"]),
		Variants: []OfferVariant{},
		Order:    integer(rec["order"]),
	}
	variants, _ := rec["variants"].([]any)
	for _, v := range variants {
		obj, ok := v.(map[string]any)
		if !ok {
			continue
		}
		item.Variants = append(item.Variants, OfferVariant{
			Name:        i18n.FromAny[string](obj["name"]),
			Description: i18n.FromAny[string](obj["description"]),
		})
	}
	return item
}

// OfferItems normalizes a list payload, keeping the CMS order.
func OfferItems(raw any, opts Options) []OfferItem {
	items := listItems(raw)
	out := make([]OfferItem, 0, len(items))
	for _, item := range items {
		out = append(out, NormalizeOfferItem(item, opts))
	}
	return out
}

// TaxonomyItems reads taxonomy values in either {_id, title} or Strapi
// {id, attributes: {name}} form, dropping blank names and sorting by name.
func TaxonomyItems(raw any) []TaxonomyItem {
	items := listItems(raw)
	out := make([]TaxonomyItem, 0, len(items))
	for _, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			if s, isStr := item.(string); isStr && strings.TrimSpace(s) != "" {
				out = append(out, TaxonomyItem{ID: s, Name: strings.TrimSpace(s)})
			}
			continue
		}
		name := strings.TrimSpace(tagName(obj))
		if name == "" {
			continue
		}
		out = append(out, TaxonomyItem{ID: firstString(obj, "id", "_id"), Name: name})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// listItems unwraps {data: [...]} and {result: [...]} envelopes.
func listItems(raw any) []any {
	for depth := 0; depth < maxDepth; depth++ {
		obj, ok := raw.(map[string]any)
		if !ok {
			break
		}
		next, found := obj["data"]
		if !found {
			next, found = obj["result"]
		}
		if !found {
			return nil
		}
		raw = next
	}
	items, _ := raw.([]any)
	return items
}

func slugOf(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case map[string]any:
		return strings.TrimSpace(str(t["current"]))
	}
	return ""
}

// BlogPostJSON, OfferItemsJSON and friends decode raw bytes first.
func BlogPostJSON(b []byte, opts Options) BlogPost { return NormalizeBlogPost(decode(b), opts) }

func BlogPostsJSON(b []byte, opts Options) []BlogPost { return BlogPosts(decode(b), opts) }

func OfferItemsJSON(b []byte, opts Options) []OfferItem { return OfferItems(decode(b), opts) }

func TaxonomyItemsJSON(b []byte) []TaxonomyItem { return TaxonomyItems(decode(b)) }

// ToolsJSON normalizes a list of tools.
func ToolsJSON(b []byte, opts Options) []Tool { return Tools(decode(b), opts) }

// Tools normalizes every element of a list payload.
func Tools(raw any, opts Options) []Tool {
	items := listItems(raw)
	out := make([]Tool, 0, len(items))
	for _, item := range items {
		out = append(out, NormalizeTool(item, opts))
	}
	return out
}
