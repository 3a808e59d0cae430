package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/httpx"
	"github.com/HowestAILab/AIUPD8-Website/internal/translate"
)

// ContentService is the read side of the CMS used by both the pages and the
// JSON API.
type ContentService interface {
	ListTools(ctx context.Context) ([]cms.Tool, error)
	GetTool(ctx context.Context, title string) (cms.Tool, error)
	ListBlogPosts(ctx context.Context) ([]cms.BlogPost, error)
	GetBlogPost(ctx context.Context, slug string) (cms.BlogPost, error)
	ListOfferItems(ctx context.Context) ([]cms.OfferItem, error)
	ListTaxonomy(ctx context.Context, slug string) ([]cms.TaxonomyItem, error)
}

var errorMappings = []httpx.StatusMapping{
	{Target: cms.ErrNotFound, Code: "not_found", Status: http.StatusNotFound, Message: "resource not found"},
	{Target: cms.ErrUnknownTaxonomy, Code: "unknown_taxonomy", Status: http.StatusBadRequest},
	{Target: cms.ErrUpstream, Code: "content_unavailable", Status: http.StatusBadGateway, Message: "content service unavailable"},
	{Target: favorites.ErrInvalidID, Code: "invalid_id", Status: http.StatusBadRequest},
	{Target: translate.ErrInvalidRequest, Code: "invalid_request", Status: http.StatusBadRequest},
	{Target: translate.ErrNotConfigured, Code: "not_configured", Status: http.StatusInternalServerError, Message: "translation service is not configured"},
	{Target: translate.ErrUpstream, Code: "translation_failed", Status: http.StatusBadGateway, Message: "translation service failed"},
}

func classify(err error) httpx.Error {
	return httpx.Classify(err, errorMappings...)
}

// findTool looks a tool up by title and falls back to its id, which is what
// links to untitled tools carry.
func findTool(ctx context.Context, content ContentService, key string) (cms.Tool, error) {
	tool, err := content.GetTool(ctx, key)
	if err == nil || !errors.Is(err, cms.ErrNotFound) {
		return tool, err
	}
	tools, listErr := content.ListTools(ctx)
	if listErr != nil {
		return cms.Tool{}, err
	}
	for _, t := range tools {
		if t.ID == key {
			return t, nil
		}
	}
	return cms.Tool{}, err
}

// pathParam unescapes a route parameter; chi hands out the raw segment when
// the path carried escapes.
func pathParam(raw string) string {
	if v, err := url.PathUnescape(raw); err == nil {
		return v
	}
	return raw
}
