package handler

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"
)

// DefaultDescription is the meta description of every page.
const DefaultDescription = "Simple blog built with Go, chi and SQLite."

// Views lists every page template. Each one is parsed together with
// base.html, which defines the "base" layout and the shared partials.
var Views = []string{
	"index", "login", "register", "post", "search",
	"about", "profile", "add-post", "edit-post",
}

// PageData is what every template receives.
type PageData struct {
	Title        string
	Description  string
	CurrentRoute string
	LoggedIn     bool
	Data         any
}

// Renderer holds one parsed template set per view.
type Renderer struct {
	views  map[string]*template.Template
	logger *slog.Logger
}

// NewRenderer parses every view from fsys. Parsing happens once, at startup.
func NewRenderer(fsys fs.FS, md *Markdown, logger *slog.Logger) (*Renderer, error) {
	funcs := template.FuncMap{
		"markdown": md.Render,
		"formatDate": func(t time.Time) string {
			return t.Format("Jan 2, 2006")
		},
	}

	views := make(map[string]*template.Template, len(Views))
	for _, name := range Views {
		tmpl, err := template.New(name).Funcs(funcs).ParseFS(fsys, "base.html", name+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", name, err)
		}
		views[name] = tmpl
	}

	return &Renderer{views: views, logger: logger}, nil
}

// Render executes view into a buffer first so a template error can still
// produce a clean 500.
func (rd *Renderer) Render(w http.ResponseWriter, status int, view string, data PageData) {
	if data.Description == "" {
		data.Description = DefaultDescription
	}

	tmpl, ok := rd.views[view]
	if !ok {
		rd.logger.Error("unknown view", slog.String("view", view))
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, "base", data); err != nil {
		rd.logger.Error("failed to render template",
			slog.String("view", view),
			slog.String("error", err.Error()),
		)
		http.Error(w, internalErrorMessage, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
