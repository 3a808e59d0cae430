package normalize

import (
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
)

// Tool is the canonical tool record.
type Tool struct {
	ID             string
	Title          i18n.Field[string]
	Toolsentence   i18n.Field[string]
	Description    i18n.Field[string]
	About          i18n.Field[string]
	Advantages     i18n.Field[[]string]
	Disadvantages  i18n.Field[[]string]
	Limitations    i18n.Field[[]string]
	Facets         map[string][]string
	Image          string
	ShowcaseImages []string
	Link           string
	PrivacyPolicy  string
	YoutubeLink    string
	IsExperimental bool
	// IsFavourite is the project-less favourite flag of older documents.
	IsFavourite bool
	Favorites   map[string]bool
	Workflows   map[string][]Workflow
	CreatedAt   time.Time
	UpdatedAt   time.Time
	PublishedAt time.Time
}

// Workflow is an ordered how-to attached to a tool for one project.
type Workflow struct {
	Key   string
	Name  i18n.Field[string]
	Steps []WorkflowStep
}

type WorkflowStep struct {
	Key              string
	Number           int
	Title            i18n.Field[string]
	ShortDescription i18n.Field[string]
	Image            string
	ImageAlt         i18n.Field[string]
}

// Fields carried as localized arrays in the i18n sub-object of detail
// payloads, where they take precedence over the coalesced top-level values.
var localizedTextFields = []string{"title", "toolsentence", "description", "about"}
var localizedListFields = []string{"advantages", "disadvantages", "limitations"}

// ToolJSON normalizes a JSON document.
func ToolJSON(b []byte, opts Options) Tool {
	return NormalizeTool(decode(b), opts)
}

// NormalizeTool maps any tool payload onto the canonical record.
func NormalizeTool(raw any, opts Options) Tool {
	rec := record(raw)
	table := opts.table()

	t := Tool{
		ID:             firstString(rec, "id", "_id"),
		Facets:         map[string][]string{},
		Favorites:      map[string]bool{},
		Workflows:      map[string][]Workflow{},
		Link:           strings.TrimSpace(str(rec["link"])),
		PrivacyPolicy:  strings.TrimSpace(str(rec["privacyPolicy"])),
		YoutubeLink:    strings.TrimSpace(str(rec["youtubeLink"])),
		IsExperimental: boolean(rec["isExperimental"]),
		IsFavourite:    boolean(rec["isFavourite"]),
		CreatedAt:      timestamp(rec, "createdAt", "_createdAt"),
		UpdatedAt:      timestamp(rec, "updatedAt", "_updatedAt"),
	}
	t.PublishedAt = timestamp(rec, "publishedAt")
	if t.PublishedAt.IsZero() {
		t.PublishedAt = t.CreatedAt
	}

	sub, _ := rec["i18n"].(map[string]any)
	text := func(key string) i18n.Field[string] {
		if f := i18n.FromAny[string](sub[key]); f.Kind() == i18n.KindLocalized {
			return f
		}
		return i18n.FromAny[string](rec[key])
	}
	list := func(key string) i18n.Field[[]string] {
		if f := i18n.FromAny[[]string](sub[key]); f.Kind() == i18n.KindLocalized {
			return f
		}
		return i18n.FromAny[[]string](rec[key])
	}
	t.Title = text("title")
	t.Toolsentence = text("toolsentence")
	t.Description = text("description")
	t.About = text("about")
	t.Advantages = list("advantages")
	t.Disadvantages = list("disadvantages")
	t.Limitations = list("limitations")

	for _, id := range table.FacetIDs() {
		t.Facets[id] = FacetValues(rec[id])
	}
	for legacy, plural := range table.FacetAliases() {
		extra := FacetValues(rec[legacy])
		if len(extra) == 0 {
			continue
		}
		t.Facets[plural] = mergeValues(t.Facets[plural], extra)
	}

	t.Image = opts.MediaURL(firstPresent(rec, "image", "Image"))
	t.ShowcaseImages = opts.MediaURLs(rec["showcaseImages"])

	t.Favorites = favorites(rec, table)
	t.Workflows = workflows(rec, table, opts)
	return t
}

func firstPresent(obj map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := obj[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func mergeValues(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, v := range base {
		seen[v] = struct{}{}
	}
	for _, v := range extra {
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		base = append(base, v)
	}
	return base
}

// favorites collects every is<Project>Favourite flag set to true, plus an
// already canonical favorites map.
func favorites(rec map[string]any, table ProjectTable) map[string]bool {
	out := map[string]bool{}
	if existing, ok := rec["favorites"].(map[string]any); ok {
		for id, v := range existing {
			if id != "" && boolean(v) {
				out[id] = true
			}
		}
	}
	for key, v := range rec {
		if !strings.HasPrefix(key, "is") || !boolean(v) {
			continue
		}
		if id, _ := table.ProjectFromFavouriteField(key); id != "" {
			out[id] = true
		}
	}
	return out
}

func workflows(rec map[string]any, table ProjectTable, opts Options) map[string][]Workflow {
	out := map[string][]Workflow{}
	if existing, ok := rec["workflows"].(map[string]any); ok {
		for id, v := range existing {
			if wf := workflowList(v, opts); id != "" && len(wf) > 0 {
				out[id] = wf
			}
		}
	}
	fields := table.WorkflowFields()
	names := make([]string, 0, len(fields))
	for f := range fields {
		names = append(names, f)
	}
	sort.Strings(names)
	for _, field := range names {
		if wf := workflowList(rec[field], opts); len(wf) > 0 {
			out[fields[field]] = wf
		}
	}
	return out
}

func workflowList(v any, opts Options) []Workflow {
	if DetectShape(v) == ShapeWrapped {
		v = v.(map[string]any)["data"]
	}
	items, _ := v.([]any)
	out := make([]Workflow, 0, len(items))
	for _, item := range items {
		obj := record(item)
		if len(obj) == 0 {
			continue
		}
		wf := Workflow{
			Key:  firstString(obj, "_key", "key", "id"),
			Name: localizedPreferred(obj, "nameI18n", "name"),
		}
		steps, _ := obj["steps"].([]any)
		for _, s := range steps {
			so := record(s)
			if len(so) == 0 {
				continue
			}
			wf.Steps = append(wf.Steps, WorkflowStep{
				Key:              firstString(so, "_key", "key", "id"),
				Number:           integer(so["stepNumber"]),
				Title:            localizedPreferred(so, "titleI18n", "title"),
				ShortDescription: localizedPreferred(so, "shortDescriptionI18n", "shortDescription"),
				Image:            opts.MediaURL(so["image"]),
				ImageAlt:         localizedPreferred(so, "imageAltI18n", "imageAlt"),
			})
		}
		sort.SliceStable(wf.Steps, func(i, j int) bool { return wf.Steps[i].Number < wf.Steps[j].Number })
		out = append(out, wf)
	}
	return out
}

func localizedPreferred(obj map[string]any, i18nKey, key string) i18n.Field[string] {
	if f := i18n.FromAny[string](obj[i18nKey]); f.Kind() == i18n.KindLocalized {
		return f
	}
	return i18n.FromAny[string](obj[key])
}

// Facet returns the values of one facet, never nil.
func (t Tool) Facet(id string) []string {
	if v := t.Facets[id]; v != nil {
		return v
	}
	return []string{}
}

// IsFavoriteFor reports whether the tool is a favourite of project.
func (t Tool) IsFavoriteFor(project string) bool {
	return t.Favorites[project]
}

// WorkflowsFor returns the workflows attached for project.
func (t Tool) WorkflowsFor(project string) []Workflow {
	return t.Workflows[project]
}

// HasLocaleContent reports whether the tool has been written in locale. The
// title stands in for the whole record; a tool without a localized title
// predates localisation and is always shown.
func (t Tool) HasLocaleContent(locale i18n.Locale) bool {
	if t.Title.Kind() != i18n.KindLocalized || len(t.Title.Entries()) == 0 {
		return true
	}
	return t.Title.HasContent(locale)
}

// DisplayTitle resolves the title, defaulting to "Untitled".
func (t Tool) DisplayTitle(active, fallback i18n.Locale) string {
	if s, ok := t.Title.Resolve(active, fallback); ok && strings.TrimSpace(s) != "" {
		return s
	}
	return "Untitled"
}

// HasTitle reports whether title equals the Dutch, English or legacy title
// exactly.
func (t Tool) HasTitle(title string) bool {
	if title == "" {
		return false
	}
	if t.Title.Kind() == i18n.KindLegacyScalar {
		v, _ := t.Title.Resolve(i18n.NL, i18n.EN)
		return v == title
	}
	for _, l := range []i18n.Locale{i18n.NL, i18n.EN} {
		if v, ok := t.Title.Lookup(l); ok && v == title {
			return true
		}
	}
	return false
}

// LastChanged is the most recent of the update and creation times.
func (t Tool) LastChanged() time.Time {
	if t.UpdatedAt.After(t.CreatedAt) {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

type workflowStepJSON struct {
	Key              string             `json:"_key,omitempty"`
	Number           int                `json:"stepNumber"`
	Title            i18n.Field[string] `json:"title"`
	ShortDescription i18n.Field[string] `json:"shortDescription"`
	Image            *string            `json:"image"`
	ImageAlt         i18n.Field[string] `json:"imageAlt"`
}

type workflowJSON struct {
	Key   string             `json:"_key,omitempty"`
	Name  i18n.Field[string] `json:"name"`
	Steps []workflowStepJSON `json:"steps"`
}

// MarshalJSON writes the canonical shape: facets as flat string arrays at
// the top level, a favorites map, workflows keyed by project and a single
// image URL or null. Feeding the output back through NormalizeTool yields an
// equal record.
func (t Tool) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		"id":             t.ID,
		"title":          t.Title,
		"toolsentence":   t.Toolsentence,
		"description":    t.Description,
		"about":          t.About,
		"advantages":     t.Advantages,
		"disadvantages":  t.Disadvantages,
		"limitations":    t.Limitations,
		"image":          nullable(t.Image),
		"showcaseImages": nonNil(t.ShowcaseImages),
		"link":           t.Link,
		"privacyPolicy":  t.PrivacyPolicy,
		"youtubeLink":    t.YoutubeLink,
		"isExperimental": t.IsExperimental,
		"isFavourite":    t.IsFavourite,
		"favorites":      nonNilMap(t.Favorites),
	}
	for id, values := range t.Facets {
		out[id] = nonNil(values)
	}
	wfs := make(map[string][]workflowJSON, len(t.Workflows))
	for project, list := range t.Workflows {
		enc := make([]workflowJSON, len(list))
		for i, wf := range list {
			steps := make([]workflowStepJSON, len(wf.Steps))
			for j, s := range wf.Steps {
				steps[j] = workflowStepJSON{
					Key:              s.Key,
					Number:           s.Number,
					Title:            s.Title,
					ShortDescription: s.ShortDescription,
					Image:            nullable(s.Image),
					ImageAlt:         s.ImageAlt,
				}
			}
			enc[i] = workflowJSON{Key: wf.Key, Name: wf.Name, Steps: steps}
		}
		wfs[project] = enc
	}
	out["workflows"] = wfs
	for key, ts := range map[string]time.Time{"createdAt": t.CreatedAt, "updatedAt": t.UpdatedAt, "publishedAt": t.PublishedAt} {
		if s := formatTime(ts); s != "" {
			out[key] = s
		}
	}
	return json.Marshal(out)
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nonNil(v []string) []string {
	if v == nil {
		return []string{}
	}
	return v
}

func nonNilMap(m map[string]bool) map[string]bool {
	if m == nil {
		return map[string]bool{}
	}
	return m
}
