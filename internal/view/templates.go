package view

import (
	"fmt"
	"html/template"
	"net/http"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/pulseboard/pulseboard/web"
)

// Engine renders HTML templates.
type Engine struct {
	templates *template.Template
}

// TemplateData contains values shared across templates.
type TemplateData struct {
	Title       string
	CurrentPath string
	Query       string
	Data        any
}

// NewEngine parses templates at build-time.
func NewEngine() (*Engine, error) {
	printer := message.NewPrinter(language.English)
	funcMap := template.FuncMap{
		"formatNumber": func(n int) string {
			return printer.Sprintf("%d", n)
		},
		"formatPct": func(v float64) string {
			return fmt.Sprintf("%.1f%%", v)
		},
		"formatPctPtr": func(v *float64) string {
			if v == nil {
				return "-"
			}
			return fmt.Sprintf("%.1f%%", *v)
		},
		"formatDelta": func(v int) string {
			if v > 0 {
				return fmt.Sprintf("+%d%%", v)
			}
			return fmt.Sprintf("%d%%", v)
		},
		"formatPoints": func(v float64) string {
			if v > 0 {
				return fmt.Sprintf("+%.1f pts", v)
			}
			return fmt.Sprintf("%.1f pts", v)
		},
		"formatDate": func(t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format("02 Jan 2006 15:04")
		},
	}
	tpl, err := template.New("root").Funcs(funcMap).ParseFS(web.Templates, "templates/layouts/*.html", "templates/partials/*.html", "templates/pages/*.html")
	if err != nil {
		return nil, err
	}
	return &Engine{templates: tpl}, nil
}

// Render executes a named template with TemplateData.
func (e *Engine) Render(w http.ResponseWriter, name string, data TemplateData) error {
	if e == nil {
		return fmt.Errorf("template engine not initialised")
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	return e.templates.ExecuteTemplate(w, name, data)
}
