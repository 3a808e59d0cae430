package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/middleware"
	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
	"github.com/HowestAILab/AIUPD8-Website/internal/translate"
	"github.com/HowestAILab/AIUPD8-Website/internal/views"
)

var testNow = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

type testEnv struct {
	router  chi.Router
	store   *favorites.MemoryStore
	visitor string
}

type stubTranslator struct {
	resp translate.Response
	err  error
	got  translate.Request
}

func (s *stubTranslator) Translate(_ context.Context, req translate.Request) (translate.Response, error) {
	s.got = req
	return s.resp, s.err
}

func newTestEnv(t *testing.T, apiOpts ...APIOption) *testEnv {
	t.Helper()
	reg := projects.MustDefault()
	backend, err := cms.NewFixtureBackend()
	require.NoError(t, err)
	content := cms.NewService(backend, reg, cms.WithMedia(normalize.Options{SanityProjectID: "demo"}))
	bundle, err := i18n.LoadEmbedded()
	require.NoError(t, err)
	renderer, err := views.New(bundle)
	require.NoError(t, err)
	store := favorites.NewMemoryStore()

	site := NewSiteHandlers(
		WithSiteContent(content),
		WithSiteFavorites(store),
		WithSiteProjects(reg),
		WithSiteBundle(bundle),
		WithSiteViews(renderer),
		WithSiteBaseURL("https://aiupd8.example"),
		WithSiteClock(func() time.Time { return testNow }),
	)
	api := NewAPIHandlers(append([]APIOption{
		WithAPIContent(content),
		WithAPIFavorites(store),
	}, apiOpts...)...)

	router := NewRouter(
		WithMiddlewares(
			middleware.Visitor(false),
			middleware.Locale(i18n.Default, false),
			middleware.Project(reg, false),
			middleware.HTMX,
		),
		WithHealthHandlers(NewHealthHandlers(WithHealthClock(func() time.Time { return testNow }))),
		WithSiteRoutes(site.Routes),
		WithAPIRoutes(api.Routes),
		WithNotFound(site.NotFound),
	)
	return &testEnv{router: router, store: store, visitor: favorites.NewVisitorID()}
}

func (e *testEnv) do(req *http.Request) *httptest.ResponseRecorder {
	req.AddCookie(&http.Cookie{Name: middleware.VisitorCookie, Value: e.visitor})
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) get(path string) *httptest.ResponseRecorder {
	return e.do(httptest.NewRequest(http.MethodGet, path, nil))
}

func document(t *testing.T, rec *httptest.ResponseRecorder) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rec.Body.String()))
	require.NoError(t, err)
	return doc
}

func cookieValue(rec *httptest.ResponseRecorder, name string) string {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

func toolIDs(doc *goquery.Document) []string {
	var ids []string
	doc.Find("article.tool-card").Each(func(_ int, s *goquery.Selection) {
		ids = append(ids, s.AttrOr("data-tool-id", ""))
	})
	return ids
}

func TestDatabaseHidesOutdatedTools(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/database")
	require.Equal(t, http.StatusOK, rec.Code)
	ids := toolIDs(document(t, rec))
	assert.Len(t, ids, 4)
	assert.NotContains(t, ids, "tool-midjourney")

	rec = env.get("/database?old=1")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	assert.Contains(t, toolIDs(doc), "tool-midjourney")
	assert.Equal(t, 1, doc.Find(`article[data-tool-id="tool-midjourney"].is-outdated`).Length())
	assert.Equal(t, 0, doc.Find(`meta[name="robots"]`).Length())
}

func TestDatabaseSearchAndProjectOrder(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/database?q=whis")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	assert.Equal(t, []string{"tool-whisper"}, toolIDs(doc))
	assert.Equal(t, "noindex, follow", doc.Find(`meta[name="robots"]`).AttrOr("content", ""))

	rec = env.get("/database?project=aiupd8")
	require.Equal(t, http.StatusOK, rec.Code)
	doc = document(t, rec)
	first := doc.Find("article.tool-card").First()
	assert.True(t, first.HasClass("is-project-favorite"))
	assert.Equal(t, 1, doc.Find(`article[data-tool-id="tool-chatgpt"].is-project-favorite`).Length())
	assert.Equal(t, "aiupd8", cookieValue(rec, middleware.ProjectCookie))
}

func TestToolDetail(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/tools/ChatGPT")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	assert.Contains(t, doc.Find("article.tool-detail h1").Text(), "ChatGPT")
	assert.Equal(t, "https://aiupd8.example/tools/ChatGPT?lang=nl", doc.Find(`link[rel="canonical"]`).AttrOr("href", ""))
	assert.Contains(t, doc.Find(`script[type="application/ld+json"]`).Text(), "SoftwareApplication")

	rec = env.get("/tools/Runway")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.get("/tools/tool-whisper")
	assert.Equal(t, http.StatusOK, rec.Code, "id lookup")

	rec = env.get("/tools/Onbekend")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, document(t, rec).Find(".notice-error").Text(), "Deze tool werd niet gevonden.")
}

func TestToolDetailEnglish(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/tools/ChatGPT?lang=en")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	assert.Equal(t, "en", doc.Find("html").AttrOr("lang", ""))
	assert.Equal(t, "en_GB", doc.Find(`meta[property="og:locale"]`).AttrOr("content", ""))
	assert.Equal(t, "en", cookieValue(rec, middleware.LocaleCookie))
}

func TestBlogPages(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/blog")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/blog/genai-workflows-voor-creatieven")

	rec = env.get("/blog/genai-workflows-voor-creatieven")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, document(t, rec).Find(`script[type="application/ld+json"]`).Text(), `"Article"`)

	rec = env.get("/blog/bestaat-niet")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Deze blogpost werd niet gevonden.")
}

func TestHomeAndOffer(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/?project=psyaid")
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	assert.Contains(t, doc.Find(`script[type="application/ld+json"]`).Text(), `"WebSite"`)
	assert.Equal(t, 1, doc.Find(`article[data-tool-id="tool-chatgpt"]`).Length(), "project favourite is featured")

	rec = env.get("/offer")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestProjectPage(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/projects/psyaid")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "psyaid", cookieValue(rec, middleware.ProjectCookie))

	rec = env.get("/projects/bestaat-niet")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestUnknownRoutes(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/nergens")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "text/html; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Body.String(), "Deze pagina bestaat niet.")

	rec = env.get("/api/nergens")
	require.Equal(t, http.StatusNotFound, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "route_not_found", body["error"])
}

func postForm(path string, form url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestFavoriteToggleRedirects(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(postForm("/favorites/tool-chatgpt", url.Values{"return": {"/database?q=chat"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/database?q=chat", rec.Header().Get("Location"))
	ok, err := env.store.Contains(context.Background(), env.visitor, "tool-chatgpt")
	require.NoError(t, err)
	assert.True(t, ok)

	rec = env.get("/database?favorites=1")
	assert.Equal(t, []string{"tool-chatgpt"}, toolIDs(document(t, rec)))

	rec = env.do(postForm("/favorites/tool-chatgpt", url.Values{"return": {"https://elders.example/"}}))
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/database", rec.Header().Get("Location"))
	ok, err = env.store.Contains(context.Background(), env.visitor, "tool-chatgpt")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFavoriteToggleHTMX(t *testing.T) {
	env := newTestEnv(t)

	req := postForm("/favorites/tool-whisper", url.Values{"return": {"/tools/Whisper"}})
	req.Header.Set("HX-Request", "true")
	rec := env.do(req)
	require.Equal(t, http.StatusOK, rec.Code)
	doc := document(t, rec)
	form := doc.Find("form.favorite")
	require.Equal(t, 1, form.Length())
	assert.Equal(t, "/favorites/tool-whisper", form.AttrOr("hx-post", ""))
	assert.Equal(t, "true", form.Find("button").AttrOr("aria-pressed", ""))
	assert.Equal(t, "/tools/Whisper", form.Find(`input[name="return"]`).AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find("header").Length(), "fragment only")
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAPIContent(t *testing.T) {
	env := newTestEnv(t)

	rec := env.get("/api/tools")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, contentCacheControl, rec.Header().Get("Cache-Control"))
	data, ok := decodeEnvelope(t, rec)["data"].([]any)
	require.True(t, ok)
	assert.Len(t, data, 5)

	rec = env.get("/api/tools/" + url.PathEscape("ChatGPT"))
	require.Equal(t, http.StatusOK, rec.Code)
	tool := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "tool-chatgpt", tool["id"])

	rec = env.get("/api/tools/Onbekend")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeEnvelope(t, rec)["error"])

	rec = env.get("/api/taxonomy/use-types")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, taxonomyCacheControl, rec.Header().Get("Cache-Control"))

	rec = env.get("/api/taxonomy/kleuren")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "unknown_taxonomy", decodeEnvelope(t, rec)["error"])

	rec = env.get("/api/blog/genai-workflows-voor-creatieven")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = env.get("/api/offer")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAPIFavorites(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/favorites/tool-elevenlabs", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	state := decodeEnvelope(t, rec)["data"].(map[string]any)
	assert.Equal(t, "tool-elevenlabs", state["id"])
	assert.Equal(t, true, state["favorite"])

	rec = env.get("/api/favorites")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"tool-elevenlabs"}, decodeEnvelope(t, rec)["data"])
	assert.Equal(t, "private, no-store", rec.Header().Get("Cache-Control"))
}

func TestAPITranslate(t *testing.T) {
	stub := &stubTranslator{resp: translate.Response{Patch: map[string]any{"title": "Hello"}}}
	env := newTestEnv(t, WithAPITranslator(stub), WithAPIRateLimiter(translate.NewLimiter(2)))

	body := `{"documentId":"tool-chatgpt","documentType":"tool","doc":{"title":"Hallo"},"from":"nl","to":"en","textFields":["title"]}`
	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(body)))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"patch":{"title":"Hello"}}`, rec.Body.String())
	assert.Equal(t, "tool-chatgpt", stub.got.DocumentID)

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader("{")))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeEnvelope(t, rec)["error"])

	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(body)))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestAPITranslateErrors(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "not_configured", decodeEnvelope(t, rec)["error"])

	stub := &stubTranslator{err: errors.Join(translate.ErrUpstream, errors.New("boom"))}
	env = newTestEnv(t, WithAPITranslator(stub))
	rec = env.do(httptest.NewRequest(http.MethodPost, "/api/translate", strings.NewReader(`{}`)))
	require.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "translation_failed", decodeEnvelope(t, rec)["error"])
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t)
	rec := env.get("/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeEnvelope(t, rec)["status"])

	h := NewHealthHandlers(WithHealthCheck("cms", func(context.Context) error { return errors.New("down") }))
	router := NewRouter(WithHealthHandlers(h))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decodeEnvelope(t, rec)
	assert.Equal(t, "degraded", body["status"])
	checks := body["checks"].(map[string]any)
	assert.Equal(t, "error", checks["cms"].(map[string]any)["status"])
}
