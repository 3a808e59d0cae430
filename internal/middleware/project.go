package middleware

import (
	"net/http"

	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
	"github.com/HowestAILab/AIUPD8-Website/internal/projects"
)

const (
	ProjectCookie = "aiupd8-active-project"
	projectParam  = "project"
)

// Project resolves the active project: ?project, then the
// aiupd8-active-project cookie, then the registry default. Unknown or
// inactive ids fall back to the default.
func Project(reg *projects.Registry, secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if q := r.URL.Query().Get(projectParam); q != "" {
				id = reg.Resolve(q).ID
				setCookie(w, ProjectCookie, id, secure)
			} else if c, err := r.Cookie(ProjectCookie); err == nil {
				id = reg.Resolve(c.Value).ID
			} else {
				id = reg.Resolve(reg.DefaultID()).ID
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithProject(r.Context(), id)))
		})
	}
}

// RememberProject stores id as the active project for later requests.
func RememberProject(w http.ResponseWriter, id string, secure bool) {
	setCookie(w, ProjectCookie, id, secure)
}
