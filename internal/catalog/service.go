package catalog

import (
	"context"
	"net/url"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/HowestAILab/AIUPD8-Website/internal/cms"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
)

// Source is the content the database view is built from.
type Source interface {
	ListTools(ctx context.Context) ([]cms.Tool, error)
	ListTaxonomy(ctx context.Context, slug string) ([]cms.TaxonomyItem, error)
}

// Page is the database view for one request.
type Page struct {
	Entries []Entry
	// Total counts the tools before filtering.
	Total    int
	Facets   []Facet
	Filter   FilterState
	ToolsErr error
}

// Service builds database pages.
type Service struct {
	source   Source
	projects *projects.Registry
	logger   *zap.Logger
	basePath string
}

func NewService(source Source, reg *projects.Registry, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{source: source, projects: reg, logger: logger.Named("catalog"), basePath: "/database"}
}

// ParseFilter reads the filter selection valid for project.
func (s *Service) ParseFilter(values url.Values, project string) FilterState {
	filters := s.projects.Filters(project)
	ids := make([]string, 0, len(filters))
	for _, f := range filters {
		ids = append(ids, f.ID)
	}
	return ParseFilterState(values, ids)
}

// Page loads the tool list and the taxonomy of every facet in parallel. A
// failed load leaves its own slice empty and records the error; the others
// still complete.
func (s *Service) Page(ctx context.Context, rc RenderContext) Page {
	filters := s.projects.Filters(rc.Project)
	taxonomy := make([][]cms.TaxonomyItem, len(filters))
	taxonomyErrs := make([]error, len(filters))
	var tools []cms.Tool
	var toolsErr error

	var g errgroup.Group
	g.Go(func() error {
		tools, toolsErr = s.source.ListTools(ctx)
		if toolsErr != nil {
			s.logger.Warn("tool list unavailable", zap.Error(toolsErr))
			tools = nil
		}
		return nil
	})
	for i, f := range filters {
		slug, ok := s.projects.TaxonomySlugFor(f.FilterType)
		if !ok {
			continue
		}
		g.Go(func() error {
			items, err := s.source.ListTaxonomy(ctx, slug)
			if err != nil {
				s.logger.Warn("taxonomy unavailable", zap.String("slug", slug), zap.Error(err))
				taxonomyErrs[i] = err
				return nil
			}
			taxonomy[i] = items
			return nil
		})
	}
	_ = g.Wait()

	page := Page{
		Entries:  Apply(tools, rc),
		Total:    len(tools),
		Facets:   make([]Facet, 0, len(filters)),
		Filter:   rc.Filter,
		ToolsErr: toolsErr,
	}
	for i, f := range filters {
		facet := BuildFacet(s.projects, f, taxonomy[i], tools, rc.Filter, s.basePath)
		facet.Err = taxonomyErrs[i]
		page.Facets = append(page.Facets, facet)
	}
	return page
}
