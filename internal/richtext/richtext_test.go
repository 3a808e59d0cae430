package richtext

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
)

func parse(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestPortableTextBlocks(t *testing.T) {
	raw := json.RawMessage(`[
		{"_type":"block","style":"h2","children":[{"_type":"span","text":"Intro"}]},
		{"_type":"block","style":"normal","markDefs":[{"_key":"l1","_type":"link","href":"https://aiupdate.be"}],
		 "children":[{"_type":"span","text":"Read "},{"_type":"span","text":"more","marks":["strong","l1"]}]},
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"one"}]},
		{"_type":"block","listItem":"bullet","level":1,"children":[{"_type":"span","text":"two"}]},
		{"_type":"block","listItem":"bullet","level":2,"children":[{"_type":"span","text":"two.a"}]},
		{"_type":"block","listItem":"number","level":1,"children":[{"_type":"span","text":"first"}]},
		{"_type":"block","style":"normal","children":[{"_type":"span","text":"<script>alert(1)</script>"}]}
	]`)
	out := New().Render(raw, i18n.EN)
	doc := parse(t, string(out))

	assert.Equal(t, "Intro", doc.Find("h2").Text())
	link := doc.Find("p a")
	assert.Equal(t, "https://aiupdate.be", link.AttrOr("href", ""))
	assert.Equal(t, "more", link.Find("strong").Text())
	assert.Equal(t, 2, doc.Find("body > ul > li").Length())
	assert.Equal(t, "two.a", doc.Find("ul ul li").Text())
	assert.Equal(t, "first", doc.Find("ol li").Text())
	assert.NotContains(t, string(out), "<script>")
}

func TestYouTubeAndToolEmbeds(t *testing.T) {
	raw := json.RawMessage(`[
		{"_type":"youtube","url":"https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{"_type":"youtube","url":"https://evil.example/embed"},
		{"_type":"toolEmbed","tool":{"_id":"t1","title":[{"_key":"nl","value":"Maker"},{"_key":"en","value":"Builder"}],"toolsentence":"Builds"}}
	]`)
	r := New(WithToolURL(func(title string) string { return "/tools/" + strings.ToLower(title) }))
	doc := parse(t, string(r.Render(raw, i18n.EN)))

	require.Equal(t, 1, doc.Find("iframe").Length())
	assert.Equal(t, "https://www.youtube.com/embed/dQw4w9WgXcQ", doc.Find("iframe").AttrOr("src", ""))
	assert.Equal(t, "Builder", doc.Find(".tool-embed__title").Text())
	assert.Equal(t, "/tools/builder", doc.Find(".tool-embed a").AttrOr("href", ""))
}

func TestImageBlockUsesMediaOptions(t *testing.T) {
	raw := json.RawMessage(`[{"_type":"image","alt":"A cat","asset":{"_ref":"image-abc-10x20-png"}}]`)
	r := New(WithMedia(normalize.Options{SanityProjectID: "p1", SanityDataset: "production"}))
	doc := parse(t, string(r.Render(raw, i18n.NL)))
	img := doc.Find("figure img")
	assert.Equal(t, "https://cdn.sanity.io/images/p1/production/abc-10x20.png", img.AttrOr("src", ""))
	assert.Equal(t, "A cat", img.AttrOr("alt", ""))
}

func TestMarkdownShapes(t *testing.T) {
	r := New()
	assert.Contains(t, string(r.Render(json.RawMessage(`"# Title"`), i18n.NL)), "<h1")
	assert.Contains(t, string(r.Render(json.RawMessage(`{"markdown":"**bold**"}`), i18n.NL)), "<strong>bold</strong>")

	strapi := json.RawMessage(`{"blocks":[{"type":"heading","level":2,"text":"Hi"},{"type":"list","items":["a","b"]},{"type":"quote","text":"q"}]}`)
	doc := parse(t, string(r.Render(strapi, i18n.NL)))
	assert.Equal(t, "Hi", doc.Find("h2").Text())
	assert.Equal(t, 2, doc.Find("li").Length())
	assert.Equal(t, 1, doc.Find("blockquote").Length())

	assert.Empty(t, string(r.Render(nil, i18n.NL)))
	assert.Empty(t, string(r.Render(json.RawMessage(`42`), i18n.NL)))
}

func TestLocalizedFallsBack(t *testing.T) {
	var f i18n.Field[json.RawMessage]
	require.NoError(t, json.Unmarshal([]byte(`[{"_key":"nl","value":[{"_type":"block","children":[{"text":"Hallo"}]}]}]`), &f))
	out := New().Localized(f, i18n.EN, i18n.NL)
	assert.Contains(t, string(out), "Hallo")
}

func TestPlainText(t *testing.T) {
	raw := json.RawMessage(`[{"_type":"block","children":[{"text":"Hello "},{"text":"world"}]},{"_type":"youtube","url":"x"},{"_type":"block","children":[{"text":"again"}]}]`)
	assert.Equal(t, "Hello world again", PlainText(raw))
	assert.Equal(t, "md", PlainText(json.RawMessage(`"md"`)))
}
