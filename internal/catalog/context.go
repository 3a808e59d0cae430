package catalog

import (
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
)

// RenderContext is the per-request view state: locale pair, active project,
// the visitor's favourites and the filter selection. Middleware builds it
// once per request and handlers pass it down explicitly.
type RenderContext struct {
	Locale    i18n.Locale
	Fallback  i18n.Locale
	Project   string
	Favorites map[string]bool
	Filter    FilterState
	Now       time.Time
}

// NewRenderContext fills the defaults for missing fields.
func NewRenderContext(locale i18n.Locale, project string) RenderContext {
	if _, ok := i18n.Parse(string(locale)); !ok {
		locale = i18n.Default
	}
	if project == "" {
		project = projects.General
	}
	return RenderContext{
		Locale:    locale,
		Fallback:  locale.Other(),
		Project:   project,
		Favorites: map[string]bool{},
		Filter:    FilterState{Facets: map[string][]string{}},
	}
}

// IsFavorite reports whether the visitor marked the tool.
func (rc RenderContext) IsFavorite(toolID string) bool {
	return rc.Favorites[toolID]
}

func (rc RenderContext) now() time.Time {
	if rc.Now.IsZero() {
		return time.Now().UTC()
	}
	return rc.Now
}
