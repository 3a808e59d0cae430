package cms

import (
	"context"
	"embed"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
)

//go:embed fixtures/*.json
var fixtureFS embed.FS

// FixtureBackend serves the content bundled with the binary. It keeps the
// site browsable in local development when no Sanity project is configured.
type FixtureBackend struct {
	tools    []json.RawMessage
	blog     []json.RawMessage
	offer    json.RawMessage
	taxonomy map[string]json.RawMessage
}

// NewFixtureBackend parses the embedded fixtures.
func NewFixtureBackend() (*FixtureBackend, error) {
	b := &FixtureBackend{}
	if err := readFixture("tools.json", &b.tools); err != nil {
		return nil, err
	}
	if err := readFixture("blog.json", &b.blog); err != nil {
		return nil, err
	}
	if err := readFixture("offer.json", &b.offer); err != nil {
		return nil, err
	}
	if err := readFixture("taxonomy.json", &b.taxonomy); err != nil {
		return nil, err
	}
	return b, nil
}

func readFixture(name string, dst any) error {
	raw, err := fixtureFS.ReadFile("fixtures/" + name)
	if err != nil {
		return fmt.Errorf("cms: read fixture %s: %w", name, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("cms: parse fixture %s: %w", name, err)
	}
	return nil
}

func (b *FixtureBackend) Tools(context.Context) (json.RawMessage, error) {
	return json.Marshal(b.tools)
}

func (b *FixtureBackend) Tool(_ context.Context, title string) (json.RawMessage, error) {
	for _, raw := range b.tools {
		if normalize.ToolJSON(raw, normalize.Options{}).HasTitle(title) {
			return raw, nil
		}
	}
	return nil, nil
}

// BlogPosts returns the list projection: bodies are only served per post.
func (b *FixtureBackend) BlogPosts(context.Context) (json.RawMessage, error) {
	out := make([]map[string]json.RawMessage, 0, len(b.blog))
	for _, raw := range b.blog {
		var doc map[string]json.RawMessage
		if err := json.Unmarshal(raw, &doc); err != nil {
			continue
		}
		delete(doc, "body")
		delete(doc, "outro")
		out = append(out, doc)
	}
	return json.Marshal(out)
}

func (b *FixtureBackend) BlogPost(_ context.Context, slug string) (json.RawMessage, error) {
	for _, raw := range b.blog {
		var doc struct {
			Slug string `json:"slug"`
		}
		if err := json.Unmarshal(raw, &doc); err == nil && strings.EqualFold(doc.Slug, slug) {
			return raw, nil
		}
	}
	return nil, nil
}

func (b *FixtureBackend) OfferItems(context.Context) (json.RawMessage, error) {
	return b.offer, nil
}

func (b *FixtureBackend) Taxonomy(_ context.Context, docType string) (json.RawMessage, error) {
	if raw, ok := b.taxonomy[docType]; ok {
		return raw, nil
	}
	return json.RawMessage("[]"), nil
}
