package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
)

var okHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
})

func cookie(rec *httptest.ResponseRecorder, name string) *http.Cookie {
	for _, c := range rec.Result().Cookies() {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func TestCORS(t *testing.T) {
	h := CORS([]string{"https://aiupdate.be", "https://localhost:3000/"})(okHandler)

	tests := []struct {
		name, method, origin string
		wantOrigin           string
		wantStatus           int
	}{
		{"known origin", http.MethodGet, "https://localhost:3000", "https://localhost:3000", http.StatusOK},
		{"unknown origin gets first", http.MethodGet, "https://evil.example", "https://aiupdate.be", http.StatusOK},
		{"preflight", http.MethodOptions, "https://aiupdate.be", "https://aiupdate.be", http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/api/tools", nil)
			req.Header.Set("Origin", tt.origin)
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
			assert.Equal(t, "GET,HEAD,PUT,PATCH,POST,DELETE", rec.Header().Get("Access-Control-Allow-Methods"))
			assert.Equal(t, "Content-Type, Authorization", rec.Header().Get("Access-Control-Allow-Headers"))
		})
	}
}

func TestLocalePrecedence(t *testing.T) {
	var got i18n.Locale
	h := Locale(i18n.NL, false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestctx.Locale(r.Context())
	}))

	tests := []struct {
		name       string
		url        string
		cookie     string
		accept     string
		want       i18n.Locale
		wantCookie bool
	}{
		{"query wins", "/?lang=en", "nl", "nl-BE", i18n.EN, true},
		{"cookie over header", "/", "en", "nl-BE,nl;q=0.9", i18n.EN, false},
		{"header", "/", "", "en-US,en;q=0.8", i18n.EN, false},
		{"default", "/", "", "fr-FR", i18n.NL, false},
		{"bad query ignored", "/?lang=de", "", "", i18n.NL, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: LocaleCookie, Value: tt.cookie})
			}
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, string(tt.want), rec.Header().Get("Content-Language"))
			assert.Equal(t, tt.wantCookie, cookie(rec, LocaleCookie) != nil)
		})
	}
}

func TestProjectPrecedence(t *testing.T) {
	var got string
	h := Project(projects.MustDefault(), true)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = requestctx.Project(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/database?project=psyaid", nil)
	req.AddCookie(&http.Cookie{Name: ProjectCookie, Value: "aiupd8"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "psyaid", got)
	c := cookie(rec, ProjectCookie)
	require.NotNil(t, c)
	assert.Equal(t, "psyaid", c.Value)
	assert.True(t, c.Secure)

	req = httptest.NewRequest(http.MethodGet, "/database", nil)
	req.AddCookie(&http.Cookie{Name: ProjectCookie, Value: "aiupd8"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "aiupd8", got)

	req = httptest.NewRequest(http.MethodGet, "/database?project=unknown", nil)
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, projects.General, got)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, projects.General, got)
}

func TestVisitorIssuesAndKeepsIDs(t *testing.T) {
	var got string
	h := Visitor(false)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got, _ = requestctx.Visitor(r.Context())
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	issued := cookie(rec, VisitorCookie)
	require.NotNil(t, issued)
	assert.Equal(t, issued.Value, got)
	assert.True(t, issued.HttpOnly)

	existing := favorites.NewVisitorID()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: existing})
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, existing, got)
	assert.Nil(t, cookie(rec, VisitorCookie))

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: VisitorCookie, Value: "forged"})
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.NotEqual(t, "forged", got)
	assert.True(t, favorites.ValidVisitorID(got))
}

func TestHTMX(t *testing.T) {
	var is bool
	h := HTMX(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		is = IsHTMX(r.Context())
	}))
	req := httptest.NewRequest(http.MethodPost, "/favorites/x", nil)
	req.Header.Set("HX-Request", "true")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.True(t, is)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/favorites/x", nil))
	assert.False(t, is)
}

func TestAssetsWithCache(t *testing.T) {
	fsys := fstest.MapFS{"site.css": {Data: []byte("body{}")}}
	h := AssetsWithCache(fsys)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/site.css", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)
	assert.Contains(t, rec.Header().Get("Cache-Control"), "max-age=604800")

	req := httptest.NewRequest(http.MethodGet, "/site.css", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}
