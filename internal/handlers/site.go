package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HowestAILab/AIUPD8-Website/internal/catalog"
	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/format"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/middleware"
	"github.com/HowestAILab/AIUPD8-Website/internal/nav"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/observability"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
	"github.com/HowestAILab/AIUPD8-Website/internal/richtext"
	"github.com/HowestAILab/AIUPD8-Website/internal/seo"
	"github.com/HowestAILab/AIUPD8-Website/internal/views"
)

const (
	homePostCount     = 3
	homeFeaturedCount = 6
)

// SiteHandlers serves the HTML pages.
type SiteHandlers struct {
	content   ContentService
	catalog   *catalog.Service
	favorites favorites.Store
	projects  *projects.Registry
	bundle    *i18n.Bundle
	views     *views.Renderer
	rich      *richtext.Renderer
	metrics   *observability.Metrics
	baseURL   string
	analytics Analytics
	secure    bool
	clock     func() time.Time
}

// SiteOption customises construction of SiteHandlers.
type SiteOption func(*SiteHandlers)

// WithSiteContent injects the CMS service.
func WithSiteContent(svc ContentService) SiteOption {
	return func(h *SiteHandlers) { h.content = svc }
}

// WithSiteCatalog injects the database view service.
func WithSiteCatalog(svc *catalog.Service) SiteOption {
	return func(h *SiteHandlers) { h.catalog = svc }
}

// WithSiteFavorites injects the visitor favourites store.
func WithSiteFavorites(store favorites.Store) SiteOption {
	return func(h *SiteHandlers) { h.favorites = store }
}

// WithSiteProjects sets the project table.
func WithSiteProjects(reg *projects.Registry) SiteOption {
	return func(h *SiteHandlers) { h.projects = reg }
}

// WithSiteBundle sets the UI string tables.
func WithSiteBundle(bundle *i18n.Bundle) SiteOption {
	return func(h *SiteHandlers) { h.bundle = bundle }
}

// WithSiteViews sets the template renderer.
func WithSiteViews(r *views.Renderer) SiteOption {
	return func(h *SiteHandlers) { h.views = r }
}

// WithSiteRichText sets the rich text renderer.
func WithSiteRichText(r *richtext.Renderer) SiteOption {
	return func(h *SiteHandlers) { h.rich = r }
}

// WithSiteMetrics records favourite toggles.
func WithSiteMetrics(m *observability.Metrics) SiteOption {
	return func(h *SiteHandlers) { h.metrics = m }
}

// WithSiteBaseURL sets the absolute origin used for canonical links.
func WithSiteBaseURL(base string) SiteOption {
	return func(h *SiteHandlers) { h.baseURL = strings.TrimRight(base, "/") }
}

// WithSiteAnalytics surfaces the analytics beacon.
func WithSiteAnalytics(a Analytics) SiteOption {
	return func(h *SiteHandlers) { h.analytics = a }
}

// WithSiteSecureCookies marks cookies set by handlers Secure.
func WithSiteSecureCookies(secure bool) SiteOption {
	return func(h *SiteHandlers) { h.secure = secure }
}

// WithSiteClock overrides the clock used to flag outdated tools.
func WithSiteClock(clock func() time.Time) SiteOption {
	return func(h *SiteHandlers) {
		if clock != nil {
			h.clock = clock
		}
	}
}

// NewSiteHandlers constructs the page handlers. A catalog service is built
// over the content service when none is given.
func NewSiteHandlers(opts ...SiteOption) *SiteHandlers {
	h := &SiteHandlers{
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	if h.projects == nil {
		h.projects = projects.MustDefault()
	}
	if h.rich == nil {
		h.rich = richtext.New()
	}
	if h.catalog == nil && h.content != nil {
		h.catalog = catalog.NewService(h.content, h.projects, nil)
	}
	return h
}

// Routes registers the page routes.
func (h *SiteHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.home)
	r.Get("/database", h.database)
	r.Get("/tools/{title}", h.tool)
	r.Get("/blog", h.blog)
	r.Get("/blog/{slug}", h.post)
	r.Get("/offer", h.offer)
	r.Get("/projects/{slug}", h.project)
	r.Post("/favorites/{id}", h.toggleFavorite)
}

// NotFound renders the error page with a 404.
func (h *SiteHandlers) NotFound(w http.ResponseWriter, r *http.Request) {
	rc := h.renderContext(r)
	data := h.page(r, rc, "")
	data.Error = h.bundle.T(rc.Locale, "error.notFound")
	data.SEO = seo.New(h.baseURL, r.URL.Path, rc.Locale, h.bundle.T(rc.Locale, "error.title"), "", "")
	data.SEO.Robots = "noindex"
	h.render(w, r, http.StatusNotFound, "error", data)
}

func (h *SiteHandlers) home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := h.renderContext(r)
	data := h.page(r, rc, "")
	home := &HomeView{Posts: PostList{Lang: rc.Locale}}

	var g errgroup.Group
	g.Go(func() error {
		posts, err := h.content.ListBlogPosts(ctx)
		if err != nil {
			requestctx.Logger(ctx).Warn("home: blog unavailable", zap.Error(err))
			return nil
		}
		for i, p := range posts {
			if i == homePostCount {
				break
			}
			home.Posts.Items = append(home.Posts.Items, postCard(p, rc))
		}
		return nil
	})
	g.Go(func() error {
		tools, err := h.content.ListTools(ctx)
		if err != nil {
			requestctx.Logger(ctx).Warn("home: tools unavailable", zap.Error(err))
			return nil
		}
		for _, e := range catalog.Apply(tools, rc) {
			if len(home.Featured) == homeFeaturedCount || !e.ProjectFavorite {
				break
			}
			home.Featured = append(home.Featured, toolCard(e, rc, "/"))
		}
		return nil
	})
	_ = g.Wait()

	for _, p := range h.projects.Active() {
		if p.ID == projects.General {
			continue
		}
		home.Projects = append(home.Projects, ProjectCard{
			Name:             p.Name,
			Profile:          p.Profile.Name,
			ShortDescription: p.ShortDescription,
			Color:            p.Color,
			Image:            p.Image,
			Href:             "/projects/" + url.PathEscape(p.Slug),
		})
	}
	data.Home = home
	data.SEO = seo.New(h.baseURL, "/", rc.Locale, seo.SiteName, h.bundle.T(rc.Locale, "home.heroSubtitle"), "")
	data.SEO.JSONLD = []any{
		seo.Organization(seo.SiteName, h.baseURL, ""),
		seo.WebSite(seo.SiteName, h.baseURL, h.baseURL+databasePath+"?q=", string(rc.Locale)),
	}
	h.render(w, r, http.StatusOK, "home", data)
}

func (h *SiteHandlers) database(w http.ResponseWriter, r *http.Request) {
	rc := h.renderContext(r)
	rc.Filter = h.catalog.ParseFilter(r.URL.Query(), rc.Project)
	page := h.catalog.Page(r.Context(), rc)

	data := h.page(r, rc, "")
	data.Database = databaseView(page, rc, data.Project, r.URL.RequestURI())
	title := h.bundle.T(rc.Locale, "database.title")
	data.SEO = seo.New(h.baseURL, databasePath, rc.Locale, title, h.bundle.T(rc.Locale, "home.curationTitle"), "")
	if rc.Filter.HasFacets() || rc.Filter.Query != "" {
		data.SEO.Robots = "noindex, follow"
	}
	data.SEO.JSONLD = []any{h.breadcrumbLD(data)}
	h.render(w, r, http.StatusOK, "database", data)
}

func (h *SiteHandlers) tool(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := h.renderContext(r)
	key := pathParam(chi.URLParam(r, "title"))
	tool, err := findTool(ctx, h.content, key)
	if err != nil {
		h.renderContentError(w, r, rc, "tool", err, "tool.notFound")
		return
	}
	view := toolView(tool, rc, h.projects, h.rich, r.URL.RequestURI())
	data := h.page(r, rc, view.Title)
	data.Tool = view
	data.SEO = seo.New(h.baseURL, r.URL.Path, rc.Locale, view.Title, view.Sentence, view.Image)
	category := ""
	if outputs := tool.Facet("outputs"); len(outputs) > 0 {
		category = outputs[0]
	}
	data.SEO.JSONLD = []any{
		seo.SoftwareApplication(view.Title, view.Sentence, data.SEO.Canonical, view.Image, category),
		h.breadcrumbLD(data),
	}
	h.render(w, r, http.StatusOK, "tool", data)
}

func (h *SiteHandlers) blog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := h.renderContext(r)
	data := h.page(r, rc, "")
	data.Posts = PostList{Lang: rc.Locale}
	posts, err := h.content.ListBlogPosts(ctx)
	if err != nil {
		requestctx.Logger(ctx).Warn("blog unavailable", zap.Error(err))
		data.Error = h.bundle.T(rc.Locale, "error.cms")
	}
	for _, p := range posts {
		data.Posts.Items = append(data.Posts.Items, postCard(p, rc))
	}
	data.SEO = seo.New(h.baseURL, "/blog", rc.Locale, h.bundle.T(rc.Locale, "blog.title"), "", "")
	h.render(w, r, http.StatusOK, "blog", data)
}

func (h *SiteHandlers) post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := h.renderContext(r)
	post, err := h.content.GetBlogPost(ctx, pathParam(chi.URLParam(r, "slug")))
	if err != nil {
		h.renderContentError(w, r, rc, "post", err, "blog.notFound")
		return
	}
	view := postView(post, rc, h.rich)
	data := h.page(r, rc, view.Title)
	data.Post = view
	data.SEO = seo.New(h.baseURL, r.URL.Path, rc.Locale, view.Title, view.Excerpt, view.Image)
	data.SEO.OG.Type = "article"
	data.SEO.JSONLD = []any{
		seo.Article(view.Title, data.SEO.Canonical, view.Image, seo.SiteName, format.ISODate(view.Published), string(rc.Locale)),
		h.breadcrumbLD(data),
	}
	h.render(w, r, http.StatusOK, "post", data)
}

func (h *SiteHandlers) offer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rc := h.renderContext(r)
	data := h.page(r, rc, "")
	items, err := h.content.ListOfferItems(ctx)
	if err != nil {
		requestctx.Logger(ctx).Warn("offer unavailable", zap.Error(err))
		data.Error = h.bundle.T(rc.Locale, "error.cms")
	}
	for _, item := range items {
		data.Offer = append(data.Offer, offerView(item, rc, h.rich))
	}
	data.SEO = seo.New(h.baseURL, "/offer", rc.Locale, h.bundle.T(rc.Locale, "nav.offer"), h.bundle.T(rc.Locale, "offer.intro"), "")
	h.render(w, r, http.StatusOK, "offer", data)
}

// project shows a research project and makes it the active one.
func (h *SiteHandlers) project(w http.ResponseWriter, r *http.Request) {
	p, ok := h.projects.BySlug(pathParam(chi.URLParam(r, "slug")))
	if !ok || !p.Active {
		h.NotFound(w, r)
		return
	}
	middleware.RememberProject(w, p.ID, h.secure)
	rc := h.renderContext(r)
	rc.Project = p.ID
	data := h.page(r, rc, p.Name)
	data.ProjectPage = projectView(p)
	data.SEO = seo.New(h.baseURL, r.URL.Path, rc.Locale, p.Name, p.ShortDescription, p.Image)
	data.SEO.JSONLD = []any{h.breadcrumbLD(data)}
	h.render(w, r, http.StatusOK, "project", data)
}

func (h *SiteHandlers) toggleFavorite(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	locale := requestctx.Locale(ctx)
	visitor, ok := requestctx.Visitor(ctx)
	if !ok || h.favorites == nil {
		http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		return
	}
	toolID := pathParam(chi.URLParam(r, "id"))
	state, err := h.favorites.Toggle(ctx, visitor, toolID)
	if err != nil {
		if errors.Is(err, favorites.ErrInvalidID) {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		requestctx.Logger(ctx).Error("favorite toggle failed", zap.String("tool", toolID), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}
	h.metrics.FavoriteToggled(requestctx.Project(ctx), state)

	returnTo := safeReturn(r.FormValue("return"))
	if middleware.IsHTMX(ctx) {
		button := FavoriteButton{ToolID: toolID, Favorite: state, Lang: locale, Return: returnTo}
		if err := h.views.Fragment(w, http.StatusOK, "database", "favorite-button", button); err != nil {
			requestctx.Logger(ctx).Error("render favorite button", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}
	http.Redirect(w, r, returnTo, http.StatusSeeOther)
}

// safeReturn keeps redirects on this site.
func safeReturn(target string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") || strings.HasPrefix(target, "/\\") {
		return databasePath
	}
	return target
}

func (h *SiteHandlers) renderContext(r *http.Request) catalog.RenderContext {
	ctx := r.Context()
	rc := catalog.NewRenderContext(requestctx.Locale(ctx), h.projects.Resolve(requestctx.Project(ctx)).ID)
	rc.Now = h.clock().UTC()
	if visitor, ok := requestctx.Visitor(ctx); ok && h.favorites != nil {
		set, err := favorites.Set(ctx, h.favorites, visitor)
		if err != nil {
			requestctx.Logger(ctx).Warn("favorites unavailable", zap.Error(err))
		}
		rc.Favorites = set
	}
	return rc
}

func (h *SiteHandlers) page(r *http.Request, rc catalog.RenderContext, crumb string) PageData {
	project := h.projects.Resolve(rc.Project)
	path := r.URL.Path
	other := rc.Locale.Other()
	data := PageData{
		Title:       crumb,
		Lang:        rc.Locale,
		OtherLang:   other,
		LangHref:    withQuery(r.URL, "lang", string(other)),
		Analytics:   h.analytics,
		Path:        path,
		Nav:         nav.Build(path),
		Breadcrumbs: nav.Breadcrumbs(path, crumb),
		Project:     project,
	}
	for _, p := range h.projects.Active() {
		data.Projects = append(data.Projects, ProjectLink{
			ID:     p.ID,
			Name:   p.Name,
			Color:  p.Color,
			Href:   databasePath + "?project=" + url.QueryEscape(p.ID),
			Active: p.ID == project.ID,
		})
	}
	return data
}

func (h *SiteHandlers) breadcrumbLD(data PageData) map[string]any {
	items := make([]seo.BreadcrumbItem, 0, len(data.Breadcrumbs))
	for _, c := range data.Breadcrumbs {
		name := c.Label
		if c.LabelKey != "" {
			name = h.bundle.T(data.Lang, c.LabelKey)
		}
		items = append(items, seo.BreadcrumbItem{Name: name, Item: seo.Absolute(h.baseURL, c.Href, data.Lang)})
	}
	return seo.BreadcrumbList(items)
}

// renderContentError answers a failed detail lookup: 404 with notFoundKey
// for missing documents, 502 with the generic CMS message otherwise.
func (h *SiteHandlers) renderContentError(w http.ResponseWriter, r *http.Request, rc catalog.RenderContext, page string, err error, notFoundKey string) {
	data := h.page(r, rc, "")
	data.SEO = seo.New(h.baseURL, r.URL.Path, rc.Locale, h.bundle.T(rc.Locale, "error.title"), "", "")
	data.SEO.Robots = "noindex"
	status := http.StatusNotFound
	if errors.Is(err, cms.ErrNotFound) {
		data.Error = h.bundle.T(rc.Locale, notFoundKey)
	} else {
		requestctx.Logger(r.Context()).Warn("content unavailable", zap.String("page", page), zap.Error(err))
		status = http.StatusBadGateway
		data.Error = h.bundle.T(rc.Locale, "error.cms")
	}
	h.render(w, r, status, "error", data)
}

func (h *SiteHandlers) render(w http.ResponseWriter, r *http.Request, status int, page string, data PageData) {
	if err := h.views.Render(w, status, page, data); err != nil {
		requestctx.Logger(r.Context()).Error("render page", zap.String("page", page), zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func withQuery(u *url.URL, key, value string) string {
	q := u.Query()
	q.Set(key, value)
	return u.Path + "?" + q.Encode()
}
