package cms

import (
	"context"
	"encoding/json"
)

// Backend fetches raw CMS documents. Single-document lookups return a JSON
// null (or nil) when nothing matches.
type Backend interface {
	Tools(ctx context.Context) (json.RawMessage, error)
	Tool(ctx context.Context, title string) (json.RawMessage, error)
	BlogPosts(ctx context.Context) (json.RawMessage, error)
	BlogPost(ctx context.Context, slug string) (json.RawMessage, error)
	OfferItems(ctx context.Context) (json.RawMessage, error)
	Taxonomy(ctx context.Context, docType string) (json.RawMessage, error)
}

// SanityBackend serves documents from a Sanity dataset.
type SanityBackend struct {
	client *Client
}

func NewSanityBackend(client *Client) *SanityBackend {
	return &SanityBackend{client: client}
}

func (b *SanityBackend) Tools(ctx context.Context) (json.RawMessage, error) {
	return b.client.Query(ctx, queryTools, nil)
}

func (b *SanityBackend) Tool(ctx context.Context, title string) (json.RawMessage, error) {
	return b.client.Query(ctx, queryTool, map[string]any{"title": title})
}

func (b *SanityBackend) BlogPosts(ctx context.Context) (json.RawMessage, error) {
	return b.client.Query(ctx, queryBlogPosts, nil)
}

func (b *SanityBackend) BlogPost(ctx context.Context, slug string) (json.RawMessage, error) {
	return b.client.Query(ctx, queryBlogPost, map[string]any{"slug": slug})
}

func (b *SanityBackend) OfferItems(ctx context.Context) (json.RawMessage, error) {
	return b.client.Query(ctx, queryOfferItems, nil)
}

func (b *SanityBackend) Taxonomy(ctx context.Context, docType string) (json.RawMessage, error) {
	return b.client.Query(ctx, queryTaxonomy, map[string]any{"type": docType})
}
