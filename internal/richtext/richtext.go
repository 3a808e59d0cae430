// Package richtext renders CMS rich text (portable text blocks, Markdown and
// the older Strapi block format) to sanitized HTML.
package richtext

import (
	"bytes"
	"encoding/json"
	"fmt"
	"html"
	"html/template"
	"net/url"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
)

var youtubeEmbed = regexp.MustCompile(`^https://www\.youtube(-nocookie)?\.com/embed/[A-Za-z0-9_-]+$`)

// Renderer is safe for concurrent use.
type Renderer struct {
	md      goldmark.Markdown
	policy  *bluemonday.Policy
	media   normalize.Options
	toolURL func(title string) string
}

// Option customises a Renderer.
type Option func(*Renderer)

// WithMedia sets how image references inside rich text resolve to URLs.
func WithMedia(opts normalize.Options) Option {
	return func(r *Renderer) { r.media = opts }
}

// WithToolURL sets the link target of embedded tool cards.
func WithToolURL(fn func(title string) string) Option {
	return func(r *Renderer) {
		if fn != nil {
			r.toolURL = fn
		}
	}
}

// New builds a renderer with GitHub flavoured Markdown and a UGC sanitizer
// that also admits YouTube embeds.
func New(opts ...Option) *Renderer {
	r := &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
		),
		policy:  newPolicy(),
		toolURL: func(title string) string { return "/tools/" + url.PathEscape(title) },
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func newPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowElements("figure", "figcaption", "iframe", "u", "s")
	policy.AllowAttrs("class").OnElements("figure", "figcaption", "p", "span", "div", "a", "iframe")
	policy.AllowAttrs("loading").OnElements("img", "iframe")
	policy.AllowAttrs("src").Matching(youtubeEmbed).OnElements("iframe")
	policy.AllowAttrs("title", "allow", "allowfullscreen", "frameborder").OnElements("iframe")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

// Markdown renders Markdown source.
func (r *Renderer) Markdown(src string) template.HTML {
	if strings.TrimSpace(src) == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return template.HTML(r.policy.Sanitize("<p>" + html.EscapeString(src) + "</p>"))
	}
	return template.HTML(r.policy.SanitizeBytes(buf.Bytes()))
}

// Render accepts any stored rich text value: a Markdown string, a portable
// text block array, a Strapi {blocks: [...]} document or {markdown|text}.
func (r *Renderer) Render(raw json.RawMessage, locale i18n.Locale) template.HTML {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return r.Markdown(s)
	case '[':
		var blocks []Block
		if err := json.Unmarshal(raw, &blocks); err != nil {
			return ""
		}
		return r.PortableText(blocks, locale)
	case '{':
		var doc struct {
			Blocks   []strapiBlock `json:"blocks"`
			Markdown string        `json:"markdown"`
			Text     string        `json:"text"`
		}
		if err := json.Unmarshal(raw, &doc); err != nil {
			return ""
		}
		if len(doc.Blocks) > 0 {
			return r.Markdown(strapiBlocksToMarkdown(doc.Blocks))
		}
		if doc.Markdown != "" {
			return r.Markdown(doc.Markdown)
		}
		return r.Markdown(doc.Text)
	}
	return ""
}

// Localized resolves a localized rich text field and renders it.
func (r *Renderer) Localized(f i18n.Field[json.RawMessage], active, fallback i18n.Locale) template.HTML {
	raw, ok := f.Resolve(active, fallback)
	if !ok {
		return ""
	}
	return r.Render(raw, active)
}

// PlainText flattens rich text to its visible text, for excerpts and meta
// descriptions.
func PlainText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return ""
	}
	if raw[0] == '"' {
		var s string
		_ = json.Unmarshal(raw, &s)
		return strings.TrimSpace(s)
	}
	var blocks []Block
	if err := json.Unmarshal(raw, &blocks); err != nil {
		return ""
	}
	parts := make([]string, 0, len(blocks))
	for _, b := range blocks {
		if b.Type != "" && b.Type != "block" {
			continue
		}
		var sb strings.Builder
		for _, c := range b.Children {
			sb.WriteString(c.Text)
		}
		if s := strings.TrimSpace(sb.String()); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

type strapiBlock struct {
	Type     string   `json:"type"`
	Text     string   `json:"text"`
	Level    int      `json:"level"`
	Items    []string `json:"items"`
	Language string   `json:"language"`
	Alt      string   `json:"alt"`
	URL      string   `json:"url"`
}

func strapiBlocksToMarkdown(blocks []strapiBlock) string {
	out := make([]string, 0, len(blocks))
	for _, b := range blocks {
		switch b.Type {
		case "heading":
			level := b.Level
			if level < 1 || level > 6 {
				level = 1
			}
			out = append(out, strings.Repeat("#", level)+" "+b.Text+"\n")
		case "list":
			items := make([]string, len(b.Items))
			for i, it := range b.Items {
				items[i] = "- " + it
			}
			out = append(out, strings.Join(items, "\n"))
		case "code":
			out = append(out, fmt.Sprintf("```%s\n%s\n```", b.Language, b.Text))
		case "quote":
			out = append(out, "> "+b.Text+"\n")
		case "image":
			out = append(out, fmt.Sprintf("![%s](%s)", b.Alt, b.URL))
		default:
			out = append(out, b.Text)
		}
	}
	return strings.Join(out, "\n\n")
}
