package normalize

import (
	"sync"

	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
)

// ProjectTable is the slice of the project registry the normalizer needs to
// map favourite and workflow fields onto project ids.
type ProjectTable interface {
	ProjectFromFavouriteField(field string) (string, bool)
	ProjectFromWorkflowField(field string) (string, bool)
	WorkflowFields() map[string]string
	FacetIDs() []string
	FacetAliases() map[string]string
}

// Options configures media resolution and project lookups. The zero value
// uses the built-in project table and leaves relative media paths as is.
type Options struct {
	Projects ProjectTable
	// MediaBaseURL prefixes relative media paths.
	MediaBaseURL string
	// SanityProjectID and SanityDataset locate image asset references on the CDN.
	SanityProjectID string
	SanityDataset   string
}

var builtinProjects = sync.OnceValue(func() ProjectTable {
	return projects.MustDefault()
})

func (o Options) table() ProjectTable {
	if o.Projects != nil {
		return o.Projects
	}
	return builtinProjects()
}
