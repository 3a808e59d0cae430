package handlers

import (
	"net/url"
	"sort"
	"strings"

	"github.com/HowestAILab/AIUPD8-Website/internal/catalog"
	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/normalize"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
	"github.com/HowestAILab/AIUPD8-Website/internal/richtext"
)

const databasePath = "/database"

// toolHref links to the detail page by title, which is how tools are looked
// up. Untitled tools fall back to their id.
func toolHref(t cms.Tool, display string) string {
	if !t.HasTitle(display) {
		if nl, ok := t.Title.Resolve(i18n.NL, i18n.EN); ok && strings.TrimSpace(nl) != "" {
			display = nl
		} else {
			display = t.ID
		}
	}
	return "/tools/" + url.PathEscape(display)
}

func toolCard(e catalog.Entry, rc catalog.RenderContext, returnTo string) ToolCard {
	t := e.Tool
	return ToolCard{
		ID:              t.ID,
		Title:           e.Title,
		Sentence:        t.Toolsentence.Value(rc.Locale, rc.Fallback),
		Image:           t.Image,
		Href:            toolHref(t, e.Title),
		Outdated:        e.Outdated,
		ProjectFavorite: e.ProjectFavorite,
		Experimental:    t.IsExperimental,
		LastChanged:     t.LastChanged(),
		Lang:            rc.Locale,
		Favorite:        FavoriteButton{ToolID: t.ID, Favorite: e.Favorite, Lang: rc.Locale, Return: returnTo},
	}
}

func databaseView(page catalog.Page, rc catalog.RenderContext, project projects.Project, returnTo string) *DatabaseView {
	f := rc.Filter
	v := &DatabaseView{
		Cards:         make([]ToolCard, 0, len(page.Entries)),
		Count:         len(page.Entries),
		Total:         page.Total,
		Facets:        page.Facets,
		Query:         f.Query,
		ShowOld:       f.ShowOld,
		FavoritesOnly: f.FavoritesOnly,
		LocalizedOnly: f.LocalizedOnly,
		HasFilters:    f.HasFacets() || f.Query != "",
		ClearHref:     filterHref(f.Cleared()),
		SpecificCount: len(project.SpecificFilters),
		ToolsError:    page.ToolsErr != nil,
	}
	for _, e := range page.Entries {
		v.Cards = append(v.Cards, toolCard(e, rc, returnTo))
	}

	old := f
	old.ShowOld = !f.ShowOld
	v.ShowOldHref = filterHref(old)
	favs := f
	favs.FavoritesOnly = !f.FavoritesOnly
	v.FavoritesHref = filterHref(favs)
	loc := f
	loc.LocalizedOnly = !f.LocalizedOnly
	v.LocalizedHref = filterHref(loc)

	values := f.Values()
	values.Del(catalog.ParamQuery)
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		for _, value := range values[name] {
			v.Hidden = append(v.Hidden, Param{Name: name, Value: value})
		}
	}
	return v
}

func filterHref(f catalog.FilterState) string {
	if q := f.Encode(); q != "" {
		return databasePath + "?" + q
	}
	return databasePath
}

func toolView(t cms.Tool, rc catalog.RenderContext, reg *projects.Registry, rich *richtext.Renderer, returnTo string) *ToolView {
	l, fb := rc.Locale, rc.Fallback
	v := &ToolView{
		ID:            t.ID,
		Title:         t.DisplayTitle(l, fb),
		Sentence:      t.Toolsentence.Value(l, fb),
		Description:   rich.Markdown(t.Description.Value(l, fb)),
		About:         rich.Markdown(t.About.Value(l, fb)),
		Advantages:    t.Advantages.Value(l, fb),
		Disadvantages: t.Disadvantages.Value(l, fb),
		Limitations:   t.Limitations.Value(l, fb),
		Image:         t.Image,
		Showcase:      t.ShowcaseImages,
		Link:          t.Link,
		PrivacyPolicy: t.PrivacyPolicy,
		Experimental:  t.IsExperimental,
		Outdated:      catalog.IsOutdated(t, rc.Now),
		CreatedAt:     t.CreatedAt,
		LastChanged:   t.LastChanged(),
		Favorite:      FavoriteButton{ToolID: t.ID, Favorite: rc.IsFavorite(t.ID), Lang: l, Return: returnTo},
	}
	if t.YoutubeLink != "" {
		v.YouTubeEmbed = normalize.YouTubeEmbedURL(t.YoutubeLink)
	}
	for _, f := range reg.Filters(rc.Project) {
		values := t.Facet(f.ID)
		if len(values) == 0 {
			continue
		}
		labels := make([]string, len(values))
		for i, value := range values {
			labels[i] = reg.Label(f.ID, value)
		}
		v.Specs = append(v.Specs, Spec{Label: f.Title, Values: labels})
	}
	for _, wf := range workflowsFor(t, rc.Project) {
		view := WorkflowView{Name: wf.Name.Value(l, fb)}
		for _, s := range wf.Steps {
			view.Steps = append(view.Steps, StepView{
				Number:      s.Number,
				Title:       s.Title.Value(l, fb),
				Description: s.ShortDescription.Value(l, fb),
				Image:       s.Image,
				ImageAlt:    s.ImageAlt.Value(l, fb),
			})
		}
		v.Workflows = append(v.Workflows, view)
	}
	return v
}

// workflowsFor returns the workflows of project. The general view shows the
// workflows of every project.
func workflowsFor(t cms.Tool, project string) []normalize.Workflow {
	if project != projects.General {
		return t.WorkflowsFor(project)
	}
	ids := make([]string, 0, len(t.Workflows))
	for id := range t.Workflows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	var out []normalize.Workflow
	for _, id := range ids {
		out = append(out, t.Workflows[id]...)
	}
	return out
}

func postCard(p cms.BlogPost, rc catalog.RenderContext) PostCard {
	return PostCard{
		Href:      "/blog/" + url.PathEscape(p.Slug),
		Title:     p.Title.Value(rc.Locale, rc.Fallback),
		Excerpt:   p.Excerpt.Value(rc.Locale, rc.Fallback),
		Image:     p.MainImage,
		Published: p.PublishedAt,
	}
}

func postView(p cms.BlogPost, rc catalog.RenderContext, rich *richtext.Renderer) *PostView {
	return &PostView{
		Title:     p.Title.Value(rc.Locale, rc.Fallback),
		Excerpt:   p.Excerpt.Value(rc.Locale, rc.Fallback),
		Image:     p.MainImage,
		Published: p.PublishedAt,
		Body:      rich.Localized(p.Body, rc.Locale, rc.Fallback),
		Outro:     rich.Localized(p.Outro, rc.Locale, rc.Fallback),
	}
}

func offerView(o cms.OfferItem, rc catalog.RenderContext, rich *richtext.Renderer) OfferView {
	v := OfferView{
		Heading:  o.Heading.Value(rc.Locale, rc.Fallback),
		Subtitle: o.Subtitle.Value(rc.Locale, rc.Fallback),
		Image:    o.Image,
		ImageAlt: o.ImageAlt.Value(rc.Locale, rc.Fallback),
		Body:     rich.Localized(o.Body, rc.Locale, rc.Fallback),
	}
	for _, variant := range o.Variants {
		v.Variants = append(v.Variants, VariantView{
			Name:        variant.Name.Value(rc.Locale, rc.Fallback),
			Description: variant.Description.Value(rc.Locale, rc.Fallback),
		})
	}
	return v
}

func projectView(p projects.Project) *ProjectView {
	return &ProjectView{
		ID:             p.ID,
		Name:           p.Name,
		Profile:        p.Profile.Name,
		Color:          p.Color,
		Image:          p.Image,
		Description:    p.Description,
		TargetAudience: p.TargetAudience,
		Logos:          p.Logos,
		DatabaseHref:   databasePath + "?project=" + url.QueryEscape(p.ID),
	}
}
