// Package web holds the embedded HTML templates for the booking screens.
package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"time"
)

//go:embed templates/*.html
var files embed.FS

// pages are the screens rendered inside the shared layout.
var pages = []string{
	"login", "signup", "flights", "seats", "checkout", "bookings", "profile",
}

var funcs = template.FuncMap{
	"money": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"datetime": func(t time.Time) string {
		return t.Local().Format("02 Jan 2006 15:04")
	},
}

// Renderer renders a named page inside the layout.
type Renderer struct {
	templates map[string]*template.Template
}

func NewRenderer() (*Renderer, error) {
	r := &Renderer{templates: make(map[string]*template.Template, len(pages))}
	for _, page := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(
			files, "templates/layout.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("parsing template %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, page string, data interface{}) error {
	tmpl, ok := r.templates[page]
	if !ok {
		return fmt.Errorf("unknown page %q", page)
	}
	return tmpl.ExecuteTemplate(w, "layout.html", data)
}
