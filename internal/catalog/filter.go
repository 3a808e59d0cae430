// Package catalog filters, orders and facets the tool database for one
// visitor request.
package catalog

import (
	"net/url"
	"sort"
	"strings"
)

// Query parameters of the database view. Facets use their filter id, for
// example ?uses=no-code&uses=code.
const (
	ParamQuery     = "q"
	ParamOld       = "old"
	ParamFavorites = "favorites"
	ParamLocalized = "localized"
)

// FilterState is the filter selection carried in the database URL.
type FilterState struct {
	Query         string
	Facets        map[string][]string
	ShowOld       bool
	FavoritesOnly bool
	LocalizedOnly bool
}

// ParseFilterState reads the selection from query values. Only facets listed
// in facetIDs are kept, so a facet of another project is ignored.
func ParseFilterState(values url.Values, facetIDs []string) FilterState {
	state := FilterState{
		Query:         strings.TrimSpace(values.Get(ParamQuery)),
		Facets:        map[string][]string{},
		ShowOld:       flag(values.Get(ParamOld)),
		FavoritesOnly: flag(values.Get(ParamFavorites)),
		LocalizedOnly: flag(values.Get(ParamLocalized)),
	}
	for _, id := range facetIDs {
		var selected []string
		seen := map[string]struct{}{}
		for _, raw := range values[id] {
			for _, v := range strings.Split(raw, ",") {
				v = strings.TrimSpace(v)
				if v == "" {
					continue
				}
				key := strings.ToLower(v)
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				selected = append(selected, v)
			}
		}
		if len(selected) > 0 {
			state.Facets[id] = selected
		}
	}
	return state
}

func flag(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "on", "yes":
		return true
	}
	return false
}

// Selected reports whether value is chosen for facet.
func (f FilterState) Selected(facet, value string) bool {
	for _, v := range f.Facets[facet] {
		if strings.EqualFold(v, value) {
			return true
		}
	}
	return false
}

// HasFacets reports whether any facet value or search text is set.
func (f FilterState) HasFacets() bool {
	if f.Query != "" {
		return true
	}
	for _, v := range f.Facets {
		if len(v) > 0 {
			return true
		}
	}
	return false
}

func (f FilterState) clone() FilterState {
	out := f
	out.Facets = make(map[string][]string, len(f.Facets))
	for k, v := range f.Facets {
		out.Facets[k] = append([]string(nil), v...)
	}
	return out
}

// Toggle returns a copy with value added to or removed from facet.
func (f FilterState) Toggle(facet, value string) FilterState {
	out := f.clone()
	current := out.Facets[facet]
	kept := current[:0]
	removed := false
	for _, v := range current {
		if strings.EqualFold(v, value) {
			removed = true
			continue
		}
		kept = append(kept, v)
	}
	if !removed {
		kept = append(kept, value)
	}
	if len(kept) == 0 {
		delete(out.Facets, facet)
	} else {
		out.Facets[facet] = kept
	}
	return out
}

// Cleared drops the search text and every facet but keeps the view toggles.
func (f FilterState) Cleared() FilterState {
	out := f
	out.Query = ""
	out.Facets = map[string][]string{}
	return out
}

// Values encodes the state back into query values.
func (f FilterState) Values() url.Values {
	v := url.Values{}
	if f.Query != "" {
		v.Set(ParamQuery, f.Query)
	}
	ids := make([]string, 0, len(f.Facets))
	for id := range f.Facets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		for _, value := range f.Facets[id] {
			v.Add(id, value)
		}
	}
	if f.ShowOld {
		v.Set(ParamOld, "1")
	}
	if f.FavoritesOnly {
		v.Set(ParamFavorites, "1")
	}
	if f.LocalizedOnly {
		v.Set(ParamLocalized, "1")
	}
	return v
}

// Encode is Values().Encode().
func (f FilterState) Encode() string {
	return f.Values().Encode()
}
