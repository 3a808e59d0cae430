package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/httpx"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/observability"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
	"github.com/HowestAILab/AIUPD8-Website/internal/translate"
)

const (
	contentCacheControl  = "public, max-age=300"
	taxonomyCacheControl = "public, max-age=900"
	maxTranslateBody     = 1 << 20
)

// Translator runs one translation request.
type Translator interface {
	Translate(ctx context.Context, req translate.Request) (translate.Response, error)
}

type rateLimiter interface {
	Allow(key string) bool
}

// APIHandlers exposes the JSON endpoints under /api.
type APIHandlers struct {
	content    ContentService
	favorites  favorites.Store
	translator Translator
	limiter    rateLimiter
	metrics    *observability.Metrics
}

// APIOption customises construction of APIHandlers.
type APIOption func(*APIHandlers)

// WithAPIContent injects the CMS service.
func WithAPIContent(svc ContentService) APIOption {
	return func(h *APIHandlers) { h.content = svc }
}

// WithAPIFavorites injects the visitor favourites store.
func WithAPIFavorites(store favorites.Store) APIOption {
	return func(h *APIHandlers) { h.favorites = store }
}

// WithAPITranslator injects the translation service.
func WithAPITranslator(t Translator) APIOption {
	return func(h *APIHandlers) { h.translator = t }
}

// WithAPIRateLimiter throttles /api/translate per client address.
func WithAPIRateLimiter(l *translate.Limiter) APIOption {
	return func(h *APIHandlers) {
		if l != nil {
			h.limiter = l
		}
	}
}

// WithAPIMetrics records favourite toggles.
func WithAPIMetrics(m *observability.Metrics) APIOption {
	return func(h *APIHandlers) { h.metrics = m }
}

// NewAPIHandlers constructs the JSON handlers.
func NewAPIHandlers(opts ...APIOption) *APIHandlers {
	h := &APIHandlers{}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes registers the JSON endpoints against a router mounted at /api.
func (h *APIHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/tools", h.listTools)
	r.Get("/tools/{title}", h.getTool)
	r.Get("/blog", h.listBlogPosts)
	r.Get("/blog/{slug}", h.getBlogPost)
	r.Get("/offer", h.listOfferItems)
	r.Get("/taxonomy/{type}", h.listTaxonomy)
	r.Get("/favorites", h.listFavorites)
	r.Post("/favorites/{id}", h.toggleFavorite)
	r.Post("/translate", h.translate)
}

type dataEnvelope struct {
	Data any `json:"data"`
}

func (h *APIHandlers) listTools(w http.ResponseWriter, r *http.Request) {
	tools, err := h.content.ListTools(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", contentCacheControl)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: tools})
}

func (h *APIHandlers) getTool(w http.ResponseWriter, r *http.Request) {
	tool, err := findTool(r.Context(), h.content, pathParam(chi.URLParam(r, "title")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", contentCacheControl)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: tool})
}

func (h *APIHandlers) listBlogPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.content.ListBlogPosts(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", contentCacheControl)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: posts})
}

func (h *APIHandlers) getBlogPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetBlogPost(r.Context(), pathParam(chi.URLParam(r, "slug")))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", contentCacheControl)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: post})
}

func (h *APIHandlers) listOfferItems(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListOfferItems(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", contentCacheControl)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: items})
}

func (h *APIHandlers) listTaxonomy(w http.ResponseWriter, r *http.Request) {
	items, err := h.content.ListTaxonomy(r.Context(), chi.URLParam(r, "type"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Cache-Control", taxonomyCacheControl)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: items})
}

type favoriteState struct {
	ID       string `json:"id"`
	Favorite bool   `json:"favorite"`
}

func (h *APIHandlers) listFavorites(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}
	ids, err := h.favorites.List(r.Context(), visitor)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if ids == nil {
		ids = []string{}
	}
	w.Header().Set("Cache-Control", "private, no-store")
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: ids})
}

func (h *APIHandlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	visitor, ok := h.visitor(w, r)
	if !ok {
		return
	}
	id := pathParam(chi.URLParam(r, "id"))
	state, err := h.favorites.Toggle(r.Context(), visitor, id)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.metrics.FavoriteToggled(requestctx.Project(r.Context()), state)
	httpx.WriteJSON(w, http.StatusOK, dataEnvelope{Data: favoriteState{ID: id, Favorite: state}})
}

func (h *APIHandlers) visitor(w http.ResponseWriter, r *http.Request) (string, bool) {
	if h.favorites == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("favorites_unavailable", "favorites are not available", http.StatusServiceUnavailable))
		return "", false
	}
	visitor, ok := requestctx.Visitor(r.Context())
	if !ok {
		httpx.WriteError(r.Context(), w, httpx.NewError("visitor_required", "visitor cookie missing", http.StatusBadRequest))
		return "", false
	}
	return visitor, true
}

func (h *APIHandlers) translate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.limiter != nil && !h.limiter.Allow(clientAddr(r)) {
		w.Header().Set("Retry-After", "60")
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many translation requests", http.StatusTooManyRequests))
		return
	}
	if h.translator == nil {
		h.fail(w, r, translate.ErrNotConfigured)
		return
	}
	var req translate.Request
	body := http.MaxBytesReader(w, r.Body, maxTranslateBody)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		if errors.Is(err, io.EOF) {
			err = errors.New("empty body")
		}
		h.fail(w, r, fmt.Errorf("%w: decode body: %v", translate.ErrInvalidRequest, err))
		return
	}
	resp, err := h.translator.Translate(ctx, req)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, resp)
}

func (h *APIHandlers) fail(w http.ResponseWriter, r *http.Request, err error) {
	envelope := classify(err)
	if envelope.Status >= http.StatusInternalServerError {
		requestctx.Logger(r.Context()).Warn("api request failed", zap.Int("status", envelope.Status), zap.Error(err))
	}
	httpx.WriteError(r.Context(), w, envelope)
}

// clientAddr is the client IP. RealIP has already replaced RemoteAddr when
// the request came through a proxy.
func clientAddr(r *http.Request) string {
	addr := strings.TrimSpace(r.RemoteAddr)
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}
