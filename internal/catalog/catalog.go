package catalog

import (
	"sort"
	"strings"
	"time"

	"golang.org/x/text/collate"

	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

// Entry is one tool as listed in the database view.
type Entry struct {
	Tool            cms.Tool
	Title           string
	Outdated        bool
	ProjectFavorite bool
	Favorite        bool
}

// IsOutdated reports whether the tool has not changed for more than a year.
// Tools without any timestamp are never outdated.
func IsOutdated(t cms.Tool, now time.Time) bool {
	changed := t.LastChanged()
	return !changed.IsZero() && changed.Before(now.AddDate(-1, 0, 0))
}

// Apply filters tools with rc.Filter and returns them ordered: favourites of
// the active project first, then by title in the active locale's collation.
// Facets combine with AND; values within one facet with OR.
func Apply(tools []cms.Tool, rc RenderContext) []Entry {
	now := rc.now()
	query := strings.ToLower(rc.Filter.Query)
	out := make([]Entry, 0, len(tools))
	for _, t := range tools {
		e := Entry{
			Tool:            t,
			Title:           t.DisplayTitle(rc.Locale, rc.Fallback),
			Outdated:        IsOutdated(t, now),
			ProjectFavorite: t.IsFavoriteFor(rc.Project),
			Favorite:        rc.IsFavorite(t.ID),
		}
		if e.Outdated && !rc.Filter.ShowOld {
			continue
		}
		if rc.Filter.FavoritesOnly && !e.Favorite {
			continue
		}
		if rc.Filter.LocalizedOnly && !t.HasLocaleContent(rc.Locale) {
			continue
		}
		if query != "" && !titleContains(t, e.Title, query) {
			continue
		}
		if !matchesFacets(t, rc.Filter.Facets) {
			continue
		}
		out = append(out, e)
	}
	Sort(out, rc.Locale)
	return out
}

func titleContains(t cms.Tool, display, query string) bool {
	if strings.Contains(strings.ToLower(display), query) {
		return true
	}
	for _, l := range i18n.Supported() {
		if v, ok := t.Title.Lookup(l); ok && strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}

func matchesFacets(t cms.Tool, selected map[string][]string) bool {
	for facet, want := range selected {
		if len(want) == 0 {
			continue
		}
		if !anyValue(t.Facet(facet), want) {
			return false
		}
	}
	return true
}

func anyValue(have, want []string) bool {
	for _, w := range want {
		for _, h := range have {
			if strings.EqualFold(h, w) {
				return true
			}
		}
	}
	return false
}

// Sort orders entries in place: project favourites first, then title.
func Sort(entries []Entry, locale i18n.Locale) {
	col := collate.New(locale.Tag(), collate.IgnoreCase)
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ProjectFavorite != b.ProjectFavorite {
			return a.ProjectFavorite
		}
		if c := col.CompareString(a.Title, b.Title); c != 0 {
			return c < 0
		}
		return a.Tool.ID < b.Tool.ID
	})
}
