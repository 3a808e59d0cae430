package handlers

import (
	"encoding/json"
	"html/template"
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/catalog"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/nav"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
	"github.com/HowestAILab/AIUPD8-Website/internal/seo"
)

// Analytics holds client instrumentation configuration surfaced to templates.
type Analytics struct {
	CloudflareToken string
}

// Beacon is the data-cf-beacon attribute value, empty when analytics is off.
func (a Analytics) Beacon() string {
	if a.CloudflareToken == "" {
		return ""
	}
	b, _ := json.Marshal(map[string]string{"token": a.CloudflareToken})
	return string(b)
}

// PageData is the view model shared by every page using the base layout.
type PageData struct {
	Title     string
	Lang      i18n.Locale
	OtherLang i18n.Locale
	// LangHref is the current page in the other language.
	LangHref  string
	SEO       seo.Meta
	Analytics Analytics
	Error     string

	Path        string
	Nav         []nav.RenderedItem
	Breadcrumbs []nav.Crumb
	Project     projects.Project
	Projects    []ProjectLink

	// Optional per-page view model payloads
	Home        *HomeView
	Database    *DatabaseView
	Tool        *ToolView
	Posts       PostList
	Post        *PostView
	Offer       []OfferView
	ProjectPage *ProjectView
}

// ProjectLink is an entry of the project switcher.
type ProjectLink struct {
	ID     string
	Name   string
	Color  string
	Href   string
	Active bool
}

type HomeView struct {
	Featured []ToolCard
	Projects []ProjectCard
	Posts    PostList
}

type ProjectCard struct {
	Name             string
	Profile          string
	ShortDescription string
	Color            string
	Image            string
	Href             string
}

// FavoriteButton renders the toggle form; it is also the htmx fragment
// returned after a toggle.
type FavoriteButton struct {
	ToolID   string
	Favorite bool
	Lang     i18n.Locale
	Return   string
}

type ToolCard struct {
	ID              string
	Title           string
	Sentence        string
	Image           string
	Href            string
	Outdated        bool
	ProjectFavorite bool
	Experimental    bool
	LastChanged     time.Time
	Lang            i18n.Locale
	Favorite        FavoriteButton
}

// Param is a query parameter carried through the search form.
type Param struct {
	Name  string
	Value string
}

type DatabaseView struct {
	Cards  []ToolCard
	Count  int
	Total  int
	Facets []catalog.Facet
	Query  string
	Hidden []Param

	ShowOld       bool
	FavoritesOnly bool
	LocalizedOnly bool
	ShowOldHref   string
	FavoritesHref string
	LocalizedHref string
	HasFilters    bool
	ClearHref     string

	SpecificCount int
	ToolsError    bool
}

type Spec struct {
	Label  string
	Values []string
}

type StepView struct {
	Number      int
	Title       string
	Description string
	Image       string
	ImageAlt    string
}

type WorkflowView struct {
	Name  string
	Steps []StepView
}

type ToolView struct {
	ID            string
	Title         string
	Sentence      string
	Description   template.HTML
	About         template.HTML
	Advantages    []string
	Disadvantages []string
	Limitations   []string
	Specs         []Spec
	Image         string
	Showcase      []string
	Link          string
	PrivacyPolicy string
	YouTubeEmbed  string
	Experimental  bool
	Outdated      bool
	CreatedAt     time.Time
	LastChanged   time.Time
	Favorite      FavoriteButton
	Workflows     []WorkflowView
}

type PostCard struct {
	Href      string
	Title     string
	Excerpt   string
	Image     string
	Published time.Time
}

// PostList carries the locale so the shared partial can translate labels.
type PostList struct {
	Lang  i18n.Locale
	Items []PostCard
}

type PostView struct {
	Title     string
	Excerpt   string
	Image     string
	Published time.Time
	Body      template.HTML
	Outro     template.HTML
}

type VariantView struct {
	Name        string
	Description string
}

type OfferView struct {
	Heading  string
	Subtitle string
	Image    string
	ImageAlt string
	Body     template.HTML
	Variants []VariantView
}

type ProjectView struct {
	ID             string
	Name           string
	Profile        string
	Color          string
	Image          string
	Description    string
	TargetAudience []string
	Logos          []projects.Logo
	DatabaseHref   string
}
