package middleware

import (
	"net/http"

	"github.com/HowestAILab/AIUPD8-Website/internal/favorites"
	"github.com/HowestAILab/AIUPD8-Website/internal/platform/requestctx"
)

const VisitorCookie = "aiupd8-visitor"

// Visitor makes sure every request carries an anonymous visitor id. A new id
// is issued when the cookie is missing or malformed.
func Visitor(secure bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := ""
			if c, err := r.Cookie(VisitorCookie); err == nil && favorites.ValidVisitorID(c.Value) {
				id = c.Value
			} else {
				id = favorites.NewVisitorID()
				setCookie(w, VisitorCookie, id, secure)
			}
			next.ServeHTTP(w, r.WithContext(requestctx.WithVisitor(r.Context(), id)))
		})
	}
}
