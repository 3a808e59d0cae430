// Package views parses the embedded page templates and serves static assets.
package views

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/HowestAILab/AIUPD8-Website/internal/format"
	"github.com/HowestAILab/AIUPD8-Website/internal/i18n"
	"github.com/HowestAILab/AIUPD8-Website/internal/seo"
)

//go:embed templates
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the asset tree served under /assets/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Renderer executes pages inside the shared "base" layout. Each page is
// parsed into its own template set so every page can define "content".
type Renderer struct {
	pages map[string]*template.Template
}

// New parses the layout, the partials and every page.
func New(bundle *i18n.Bundle) (*Renderer, error) {
	if bundle == nil {
		return nil, fmt.Errorf("views: bundle is required")
	}
	layout, err := template.New("_root").Funcs(funcMap(bundle)).ParseFS(templateFS, "templates/layout.tmpl", "templates/partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("views: parse layout: %w", err)
	}
	files, err := fs.Glob(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template, len(files))}
	for _, file := range files {
		name := strings.TrimSuffix(path.Base(file), ".tmpl")
		if name == "layout" {
			continue
		}
		page, err := layout.Clone()
		if err != nil {
			return nil, err
		}
		if _, err := page.ParseFS(templateFS, file); err != nil {
			return nil, fmt.Errorf("views: parse %s: %w", name, err)
		}
		r.pages[name] = page
	}
	return r, nil
}

// Has reports whether page exists.
func (r *Renderer) Has(page string) bool {
	_, ok := r.pages[page]
	return ok
}

// Render writes page with status. The page is rendered to a buffer first so
// a template error never leaves a half-written response.
func (r *Renderer) Render(w http.ResponseWriter, status int, page string, data any) error {
	return r.execute(w, status, page, "base", data)
}

// Fragment writes one named template of page, for htmx swaps.
func (r *Renderer) Fragment(w http.ResponseWriter, status int, page, name string, data any) error {
	return r.execute(w, status, page, name, data)
}

func (r *Renderer) execute(w http.ResponseWriter, status int, page, name string, data any) error {
	t, ok := r.pages[page]
	if !ok {
		return fmt.Errorf("views: unknown page %q", page)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("views: execute %s/%s: %w", page, name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := io.Copy(w, &buf)
	return err
}

func funcMap(bundle *i18n.Bundle) template.FuncMap {
	return template.FuncMap{
		"t": func(locale i18n.Locale, key string) string {
			return bundle.T(locale, key)
		},
		"tf": func(locale i18n.Locale, key string, args ...any) string {
			return bundle.Tf(locale, key, args...)
		},
		// Bundle strings are ours; a few carry <br>.
		"thtml": func(locale i18n.Locale, key string) template.HTML {
			return template.HTML(bundle.T(locale, key))
		},
		"date":    func(t time.Time, locale i18n.Locale) string { return format.FmtDate(t, locale) },
		"isodate": format.ISODate,
		"jsonld":  seo.Script,
		"now":     time.Now,
	}
}
