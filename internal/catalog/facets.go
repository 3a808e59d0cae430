package catalog

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"

	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
)

// Option is one selectable facet value.
type Option struct {
	Value    string
	Label    string
	Selected bool
	// Href toggles this value while keeping the rest of the selection.
	Href string
}

// Facet is a filter of the active project with its options.
type Facet struct {
	Filter      projects.Filter
	Options     []Option
	ButtonGroup bool
	// Err is set when the options could not be loaded; Options is then
	// built from what the tool list itself carries.
	Err error
}

// OrderValues sorts values by the configured selection order. Values outside
// the order follow, in reverse alphabetical order.
func OrderValues(values, order []string) []string {
	rank := make(map[string]int, len(order))
	for i, v := range order {
		rank[strings.ToLower(v)] = i
	}
	out := append([]string(nil), values...)
	col := collate.New(i18n.Default.Tag(), collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		ri, iok := rank[strings.ToLower(out[i])]
		rj, jok := rank[strings.ToLower(out[j])]
		switch {
		case iok && jok:
			return ri < rj
		case iok:
			return true
		case jok:
			return false
		}
		return col.CompareString(out[i], out[j]) > 0
	})
	return out
}

// BuildFacet assembles the options of filter. Values come from the taxonomy
// when it loaded, else from the configured labels, else from the tools.
func BuildFacet(reg *projects.Registry, filter projects.Filter, taxonomy []cms.TaxonomyItem, tools []cms.Tool, state FilterState, basePath string) Facet {
	values := make([]string, 0, len(taxonomy))
	for _, item := range taxonomy {
		values = append(values, item.Name)
	}
	if len(values) == 0 {
		for _, o := range reg.Options(filter.ID) {
			values = append(values, o.Value)
		}
	}
	if len(values) == 0 {
		values = toolValues(tools, filter.ID)
	}
	values = dedupe(values)
	values = OrderValues(values, reg.SelectionOrder(filter.ID))

	facet := Facet{
		Filter:      filter,
		Options:     make([]Option, 0, len(values)),
		ButtonGroup: projects.UsesButtonGroup(len(values)),
	}
	for _, v := range values {
		facet.Options = append(facet.Options, Option{
			Value:    v,
			Label:    reg.Label(filter.ID, v),
			Selected: state.Selected(filter.ID, v),
			Href:     link(basePath, state.Toggle(filter.ID, v)),
		})
	}
	return facet
}

func toolValues(tools []cms.Tool, facet string) []string {
	var out []string
	for _, t := range tools {
		out = append(out, t.Facet(facet)...)
	}
	return out
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := values[:0:0]
	for _, v := range values {
		key := strings.ToLower(v)
		if _, dup := seen[key]; dup || v == "" {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func link(basePath string, state FilterState) string {
	if q := state.Encode(); q != "" {
		return basePath + "?" + q
	}
	return basePath
}
