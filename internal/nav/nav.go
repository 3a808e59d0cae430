// Package nav builds the site navigation and breadcrumbs.
package nav

import (
	"path"
	"strings"
)

// Item represents a top-level navigation item.
type Item struct {
	Path     string // e.g. "/database"
	LabelKey string // i18n key, e.g. "nav.database"
}

// RenderedItem is a view model for templates.
type RenderedItem struct {
	Href     string
	LabelKey string
	Active   bool
}

// Crumb represents a breadcrumb entry. If LabelKey is empty, use Label.
type Crumb struct {
	Href     string
	LabelKey string
	Label    string
	Active   bool
}

// Main is the primary navigation definition.
var Main = []Item{
	{Path: "/", LabelKey: "nav.home"},
	{Path: "/database", LabelKey: "nav.database"},
	{Path: "/blog", LabelKey: "nav.blog"},
	{Path: "/offer", LabelKey: "nav.offer"},
}

// sections maps path prefixes that have no nav item of their own onto the
// section they belong to.
var sections = map[string]string{
	"/tools": "/database",
}

// Build renders navigation items with active state given the current path.
func Build(currentPath string) []RenderedItem {
	if currentPath == "" {
		currentPath = "/"
	}
	items := make([]RenderedItem, 0, len(Main))
	for _, it := range Main {
		items = append(items, RenderedItem{
			Href:     it.Path,
			LabelKey: it.LabelKey,
			Active:   isActive(it.Path, currentPath),
		})
	}
	return items
}

func isActive(itemPath, currentPath string) bool {
	if itemPath == "/" {
		return currentPath == "/"
	}
	if currentPath == itemPath || strings.HasPrefix(currentPath, itemPath+"/") {
		return true
	}
	for prefix, section := range sections {
		if section == itemPath && (currentPath == prefix || strings.HasPrefix(currentPath, prefix+"/")) {
			return true
		}
	}
	return false
}

// Breadcrumbs builds breadcrumb entries from the current path.
// Rules:
// - Always start with Home
// - Sections use their nav label key; /tools/... hangs under the database
// - The last segment uses label when given, else a prettified segment
func Breadcrumbs(currentPath, label string) []Crumb {
	if currentPath == "" {
		currentPath = "/"
	}
	crumbs := []Crumb{{Href: "/", LabelKey: "nav.home", Active: currentPath == "/"}}
	if currentPath == "/" {
		return crumbs
	}

	clean := path.Clean(currentPath)
	parts := strings.Split(strings.TrimPrefix(clean, "/"), "/")
	top := "/" + parts[0]
	if section, ok := sections[top]; ok {
		crumbs = append(crumbs, Crumb{Href: section, LabelKey: labelKeyFor(section)})
	} else {
		crumbs = append(crumbs, Crumb{Href: top, LabelKey: labelKeyFor(top), Label: titleFromSegment(parts[0]), Active: len(parts) == 1})
	}
	if len(parts) == 1 {
		return crumbs
	}

	href := top
	for i := 1; i < len(parts); i++ {
		href = href + "/" + parts[i]
		last := i == len(parts)-1
		text := titleFromSegment(parts[i])
		if last && label != "" {
			text = label
		}
		crumbs = append(crumbs, Crumb{Href: href, Label: text, Active: last})
	}
	return crumbs
}

func labelKeyFor(p string) string {
	for _, it := range Main {
		if it.Path == p {
			return it.LabelKey
		}
	}
	return ""
}

func titleFromSegment(seg string) string {
	if seg == "" {
		return seg
	}
	s := strings.ReplaceAll(seg, "-", " ")
	s = strings.ReplaceAll(s, "_", " ")
	r := []rune(s)
	if r[0] >= 'a' && r[0] <= 'z' {
		r[0] -= 'a' - 'A'
	}
	return string(r)
}
