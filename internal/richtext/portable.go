package richtext

import (
	"encoding/json"
	"html"
	"html/template"
	"strings"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
)

// Block is one portable text node.
type Block struct {
	Type     string          `json:"_type"`
	Key      string          `json:"_key"`
	Style    string          `json:"style"`
	ListItem string          `json:"listItem"`
	Level    int             `json:"level"`
	Children []Span          `json:"children"`
	MarkDefs []MarkDef       `json:"markDefs"`
	URL      string          `json:"url"`
	Alt      string          `json:"alt"`
	Caption  string          `json:"caption"`
	Asset    json.RawMessage `json:"asset"`
	Tool     json.RawMessage `json:"tool"`
}

type Span struct {
	Type  string   `json:"_type"`
	Text  string   `json:"text"`
	Marks []string `json:"marks"`
}

// MarkDef is an annotation referenced from span marks, usually a link.
type MarkDef struct {
	Key  string `json:"_key"`
	Type string `json:"_type"`
	Href string `json:"href"`
}

var blockTags = map[string]string{
	"normal":     "p",
	"h1":         "h1",
	"h2":         "h2",
	"h3":         "h3",
	"h4":         "h4",
	"h5":         "h5",
	"h6":         "h6",
	"blockquote": "blockquote",
}

var decoratorTags = map[string]string{
	"strong":         "strong",
	"em":             "em",
	"code":           "code",
	"underline":      "u",
	"strike-through": "s",
}

// PortableText renders a block list. Consecutive list items are grouped into
// <ul>/<ol>, nesting by level.
func (r *Renderer) PortableText(blocks []Block, locale i18n.Locale) template.HTML {
	var sb strings.Builder
	var open []string
	closeLists := func(depth int) {
		for len(open) > depth {
			sb.WriteString("</li></" + open[len(open)-1] + ">")
			open = open[:len(open)-1]
		}
	}
	for _, b := range blocks {
		if b.ListItem == "" || (b.Type != "" && b.Type != "block") {
			closeLists(0)
			r.writeBlock(&sb, b, locale)
			continue
		}
		tag := "ul"
		if b.ListItem == "number" {
			tag = "ol"
		}
		level := max(b.Level, 1)
		if len(open) > level {
			closeLists(level)
		}
		switch {
		case len(open) == level && open[level-1] == tag:
			sb.WriteString("</li><li>")
		case len(open) == level:
			closeLists(level - 1)
			sb.WriteString("<" + tag + "><li>")
			open = append(open, tag)
		default:
			for len(open) < level {
				sb.WriteString("<" + tag + "><li>")
				open = append(open, tag)
			}
		}
		sb.WriteString(renderSpans(b.Children, b.MarkDefs))
	}
	closeLists(0)
	return template.HTML(r.policy.Sanitize(sb.String()))
}

func (r *Renderer) writeBlock(sb *strings.Builder, b Block, locale i18n.Locale) {
	switch b.Type {
	case "", "block":
		tag, ok := blockTags[b.Style]
		if !ok {
			tag = "p"
		}
		inner := renderSpans(b.Children, b.MarkDefs)
		if strings.TrimSpace(inner) == "" {
			return
		}
		sb.WriteString("<" + tag + ">" + inner + "</" + tag + ">")
	case "youtube":
		embed := normalize.YouTubeEmbedURL(b.URL)
		if !youtubeEmbed.MatchString(embed) {
			return
		}
		sb.WriteString(`<div class="video-embed"><iframe src="` + html.EscapeString(embed) +
			`" title="YouTube video" loading="lazy" allowfullscreen></iframe></div>`)
	case "image":
		src := r.media.MediaURL(map[string]any{"asset": rawToAny(b.Asset), "url": b.URL})
		if src == "" {
			return
		}
		sb.WriteString(`<figure><img src="` + html.EscapeString(src) + `" alt="` + html.EscapeString(b.Alt) + `" loading="lazy">`)
		if b.Caption != "" {
			sb.WriteString("<figcaption>" + html.EscapeString(b.Caption) + "</figcaption>")
		}
		sb.WriteString("</figure>")
	case "toolEmbed":
		if len(b.Tool) == 0 {
			return
		}
		tool := normalize.ToolJSON(b.Tool, r.media)
		title := tool.DisplayTitle(locale, locale.Other())
		sentence := tool.Toolsentence.Value(locale, locale.Other())
		sb.WriteString(`<div class="tool-embed"><a class="tool-embed__link" href="` + html.EscapeString(r.toolURL(title)) + `">`)
		sb.WriteString(`<span class="tool-embed__title">` + html.EscapeString(title) + `</span>`)
		if sentence != "" {
			sb.WriteString(`<span class="tool-embed__sentence">` + html.EscapeString(sentence) + `</span>`)
		}
		sb.WriteString(`</a></div>`)
	}
}

func renderSpans(children []Span, defs []MarkDef) string {
	links := make(map[string]string, len(defs))
	for _, d := range defs {
		if d.Type == "link" && d.Href != "" {
			links[d.Key] = d.Href
		}
	}
	var sb strings.Builder
	for _, c := range children {
		text := html.EscapeString(c.Text)
		text = strings.ReplaceAll(text, "\n", "<br>")
		for _, m := range c.Marks {
			if tag, ok := decoratorTags[m]; ok {
				text = "<" + tag + ">" + text + "</" + tag + ">"
				continue
			}
			if href, ok := links[m]; ok {
				text = `<a href="` + html.EscapeString(href) + `">` + text + "</a>"
			}
		}
		sb.WriteString(text)
	}
	return sb.String()
}

func rawToAny(raw json.RawMessage) any {
	if len(raw) == 0 {
		return nil
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil
	}
	return v
}
