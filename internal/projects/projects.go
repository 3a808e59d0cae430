// Package projects holds the project, profile and filter table that drives
// the tool database views.
package projects

import (
	_ "embed"
	"errors"
	"fmt"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// General is the project shown when no research project is selected.
const General = "general"

//go:embed projects.yaml
var defaultTable []byte

// ErrUnknownProject is returned for ids missing from the table.
var ErrUnknownProject = errors.New("projects: unknown project")

type Logo struct {
	Src string `yaml:"src" json:"src"`
	Alt string `yaml:"alt" json:"alt"`
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}

type Profile struct {
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

// Project is one research project and the audience profile it targets.
type Project struct {
	ID               string   `yaml:"id" json:"id"`
	Name             string   `yaml:"name" json:"name"`
	Slug             string   `yaml:"slug" json:"slug"`
	Color            string   `yaml:"color" json:"color"`
	Profile          Profile  `yaml:"profile" json:"profile"`
	Description      string   `yaml:"description" json:"description"`
	ShortDescription string   `yaml:"shortDescription" json:"shortDescription"`
	TargetAudience   []string `yaml:"targetAudience" json:"targetAudience"`
	Logos            []Logo   `yaml:"logos" json:"logos"`
	Image            string   `yaml:"image" json:"image"`
	Active           bool     `yaml:"active" json:"isActive"`
	FavouriteField   string   `yaml:"favouriteField" json:"favouriteField,omitempty"`
	WorkflowsField   string   `yaml:"workflowsField" json:"workflowsField,omitempty"`
	SpecificFilters  []string `yaml:"specificFilters" json:"-"`
	HiddenFilters    []string `yaml:"hiddenFilters" json:"-"`
}

// Filter describes one facet of the tool database.
type Filter struct {
	ID          string `yaml:"id" json:"id"`
	Title       string `yaml:"title" json:"title"`
	FilterType  string `yaml:"filterType" json:"filterType"`
	Endpoint    string `yaml:"endpoint" json:"apiEndpoint"`
	Description string `yaml:"description" json:"description,omitempty"`
	Specific    bool   `yaml:"-" json:"projectSpecific"`
}

// Option is a facet value with its display label.
type Option struct {
	Value string `yaml:"value" json:"value"`
	Label string `yaml:"label" json:"label"`
}

type table struct {
	Default        string              `yaml:"default"`
	DefaultColor   string              `yaml:"defaultColor"`
	Projects       []Project           `yaml:"projects"`
	GeneralFilters []string            `yaml:"generalFilters"`
	Filters        []Filter            `yaml:"filters"`
	Aliases        map[string]string   `yaml:"aliases"`
	Labels         map[string][]Option `yaml:"labels"`
	SelectionOrder map[string][]string `yaml:"selectionOrder"`
	Taxonomy       map[string]string   `yaml:"taxonomy"`
}

// Registry answers lookups against the project table. It is read-only after
// construction and safe for concurrent use.
type Registry struct {
	t          table
	byID       map[string]int
	filterByID map[string]Filter
	favourites map[string]string
	workflows  map[string]string
}

// Default parses the table compiled into the binary.
func Default() (*Registry, error) {
	return Parse(defaultTable)
}

// MustDefault is Default for package-level wiring and tests.
func MustDefault() *Registry {
	r, err := Default()
	if err != nil {
		panic(err)
	}
	return r
}

// Parse builds a registry from a YAML document.
func Parse(raw []byte) (*Registry, error) {
	var t table
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return nil, fmt.Errorf("projects: parse table: %w", err)
	}
	if len(t.Projects) == 0 {
		return nil, errors.New("projects: table defines no projects")
	}
	if t.Default == "" {
		t.Default = General
	}
	if t.DefaultColor == "" {
		t.DefaultColor = "#3B82F6"
	}

	r := &Registry{
		t:          t,
		byID:       make(map[string]int, len(t.Projects)),
		filterByID: make(map[string]Filter, len(t.Filters)),
		favourites: map[string]string{},
		workflows:  map[string]string{},
	}
	for i, p := range t.Projects {
		if p.ID == "" {
			return nil, fmt.Errorf("projects: entry %d has no id", i)
		}
		if _, dup := r.byID[p.ID]; dup {
			return nil, fmt.Errorf("projects: duplicate id %q", p.ID)
		}
		r.byID[p.ID] = i
		if p.FavouriteField != "" {
			r.favourites[p.FavouriteField] = p.ID
		}
		if p.WorkflowsField != "" {
			r.workflows[p.WorkflowsField] = p.ID
		}
	}
	if _, ok := r.byID[t.Default]; !ok {
		return nil, fmt.Errorf("projects: default %q not defined", t.Default)
	}
	general := make(map[string]struct{}, len(t.GeneralFilters))
	for _, id := range t.GeneralFilters {
		general[id] = struct{}{}
	}
	for _, f := range t.Filters {
		_, isGeneral := general[f.ID]
		f.Specific = !isGeneral
		r.filterByID[f.ID] = f
	}
	for _, id := range t.GeneralFilters {
		if _, ok := r.filterByID[id]; !ok {
			return nil, fmt.Errorf("projects: general filter %q not defined", id)
		}
	}
	for _, p := range t.Projects {
		for _, id := range p.SpecificFilters {
			if _, ok := r.filterByID[id]; !ok {
				return nil, fmt.Errorf("projects: %s: filter %q not defined", p.ID, id)
			}
		}
	}
	return r, nil
}

// DefaultID is the project used when none is selected.
func (r *Registry) DefaultID() string { return r.t.Default }

// Get returns the project with id.
func (r *Registry) Get(id string) (Project, bool) {
	i, ok := r.byID[id]
	if !ok {
		return Project{}, false
	}
	return r.t.Projects[i], true
}

// BySlug looks a project up by its URL slug.
func (r *Registry) BySlug(slug string) (Project, bool) {
	slug = strings.ToLower(strings.TrimSpace(slug))
	for _, p := range r.t.Projects {
		if p.Slug == slug {
			return p, true
		}
	}
	return Project{}, false
}

// Resolve returns the project for id, or the default project when id is
// unknown or inactive.
func (r *Registry) Resolve(id string) Project {
	if p, ok := r.Get(id); ok && p.Active {
		return p
	}
	p, _ := r.Get(r.t.Default)
	return p
}

// All returns every project in table order.
func (r *Registry) All() []Project {
	out := make([]Project, len(r.t.Projects))
	copy(out, r.t.Projects)
	return out
}

// Active returns the projects currently offered to visitors.
func (r *Registry) Active() []Project {
	out := make([]Project, 0, len(r.t.Projects))
	for _, p := range r.t.Projects {
		if p.Active {
			out = append(out, p)
		}
	}
	return out
}

// Color returns the theme colour of a project, or the default colour.
func (r *Registry) Color(id string) string {
	if p, ok := r.Get(id); ok && p.Color != "" {
		return p.Color
	}
	return r.t.DefaultColor
}

// FavouriteFieldName returns the CMS flag marking a tool as favourite for a
// project, for example isAiupdateFavourite for aiupd8.
func (r *Registry) FavouriteFieldName(id string) string {
	p, ok := r.Get(id)
	if !ok || id == General {
		return ""
	}
	if p.FavouriteField != "" {
		return p.FavouriteField
	}
	return "is" + strings.ToUpper(p.ID[:1]) + p.ID[1:] + "Favourite"
}

// ProjectFromFavouriteField maps an is<Project>Favourite field name to a
// project id. Unknown names map to the lower-cased middle part and report
// false; names without the is...Favourite frame map to "".
func (r *Registry) ProjectFromFavouriteField(field string) (string, bool) {
	if id, ok := r.favourites[field]; ok {
		return id, true
	}
	middle, ok := FavouriteMiddle(field)
	if !ok {
		return "", false
	}
	for _, p := range r.t.Projects {
		if strings.EqualFold(p.ID, middle) {
			return p.ID, true
		}
	}
	return strings.ToLower(middle), false
}

// FavouriteMiddle extracts <Project> from is<Project>Favourite. The bare
// isFavourite flag has no project and reports false.
func FavouriteMiddle(field string) (string, bool) {
	if !strings.HasPrefix(field, "is") {
		return "", false
	}
	rest := strings.TrimPrefix(field, "is")
	var middle string
	switch {
	case strings.HasSuffix(rest, "Favourite"):
		middle = strings.TrimSuffix(rest, "Favourite")
	case strings.HasSuffix(rest, "Favorite"):
		middle = strings.TrimSuffix(rest, "Favorite")
	default:
		return "", false
	}
	if middle == "" {
		return "", false
	}
	return middle, true
}

// FavouriteFields maps CMS favourite flags to project ids.
func (r *Registry) FavouriteFields() map[string]string {
	out := make(map[string]string, len(r.favourites))
	for k, v := range r.favourites {
		out[k] = v
	}
	return out
}

// WorkflowFields maps CMS workflow list fields to project ids.
func (r *Registry) WorkflowFields() map[string]string {
	out := make(map[string]string, len(r.workflows))
	for k, v := range r.workflows {
		out[k] = v
	}
	return out
}

// ProjectFromWorkflowField maps a workflows field such as psyaidWorkflows to
// its project id.
func (r *Registry) ProjectFromWorkflowField(field string) (string, bool) {
	id, ok := r.workflows[field]
	return id, ok
}

// Filter returns the facet definition for id.
func (r *Registry) Filter(id string) (Filter, bool) {
	f, ok := r.filterByID[id]
	return f, ok
}

// Filters returns the facets shown for a project: the general facets
// followed by the project's own, minus the ones the project hides.
func (r *Registry) Filters(projectID string) []Filter {
	p := r.Resolve(projectID)
	hidden := make(map[string]struct{}, len(p.HiddenFilters))
	for _, id := range p.HiddenFilters {
		hidden[id] = struct{}{}
	}
	out := make([]Filter, 0, len(r.t.GeneralFilters)+len(p.SpecificFilters))
	for _, id := range append(append([]string{}, r.t.GeneralFilters...), p.SpecificFilters...) {
		if _, skip := hidden[id]; skip {
			continue
		}
		out = append(out, r.filterByID[id])
	}
	return out
}

// IsFilterAvailable reports whether projectID shows the facet.
func (r *Registry) IsFilterAvailable(filterID, projectID string) bool {
	for _, f := range r.Filters(projectID) {
		if f.ID == filterID {
			return true
		}
	}
	return false
}

// FacetIDs lists every facet field known to the table, sorted.
func (r *Registry) FacetIDs() []string {
	out := make([]string, 0, len(r.filterByID))
	for id := range r.filterByID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// FacetAliases maps legacy single-value fields to their plural facet.
func (r *Registry) FacetAliases() map[string]string {
	out := make(map[string]string, len(r.t.Aliases))
	for k, v := range r.t.Aliases {
		out[k] = v
	}
	return out
}

// Label returns the display label of a facet value. Unknown values are
// title-cased from their kebab-case form.
func (r *Registry) Label(facet, value string) string {
	for _, o := range r.t.Labels[facet] {
		if o.Value == value {
			return o.Label
		}
	}
	return titleFromKebab(value)
}

// Options returns the labelled values configured for a facet.
func (r *Registry) Options(facet string) []Option {
	src := r.t.Labels[facet]
	out := make([]Option, len(src))
	copy(out, src)
	return out
}

// OptionsFor labels the given values for a facet, keeping their order.
func (r *Registry) OptionsFor(facet string, values []string) []Option {
	out := make([]Option, 0, len(values))
	for _, v := range values {
		out = append(out, Option{Value: v, Label: r.Label(facet, v)})
	}
	return out
}

// SelectionOrder returns the preferred ordering of values for a facet.
func (r *Registry) SelectionOrder(facet string) []string {
	return append([]string(nil), r.t.SelectionOrder[facet]...)
}

// TaxonomyType maps a public taxonomy slug such as "use-types" to its CMS
// document type.
func (r *Registry) TaxonomyType(slug string) (string, bool) {
	t, ok := r.t.Taxonomy[slug]
	return t, ok
}

// TaxonomySlugFor maps a CMS document type back to its public slug.
func (r *Registry) TaxonomySlugFor(docType string) (string, bool) {
	for slug, t := range r.t.Taxonomy {
		if t == docType {
			return slug, true
		}
	}
	return "", false
}

// TaxonomySlugs lists the taxonomy slugs served by the API.
func (r *Registry) TaxonomySlugs() []string {
	out := make([]string, 0, len(r.t.Taxonomy))
	for k := range r.t.Taxonomy {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UsesButtonGroup reports whether a facet renders as toggle buttons rather
// than a multi-select, which is the case for short option lists.
func UsesButtonGroup(optionCount int) bool {
	return optionCount <= 3
}

func titleFromKebab(value string) string {
	parts := strings.Split(value, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " ")
}
