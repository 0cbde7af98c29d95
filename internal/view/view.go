// Package view renders the application pages around the invitation themes.
package view

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"

	"scrollvite/internal/client"
	"scrollvite/internal/render"
	"scrollvite/middleware"
	"scrollvite/pkg/logger"
)

//go:embed pages/*.html
var files embed.FS

const (
	Login            = "login"
	Categories       = "categories"
	Templates        = "templates"
	Preview          = "preview"
	Checkout         = "checkout"
	Editor           = "editor"
	Expired          = "expired"
	Invite           = "invite"
	MyTemplates      = "my_templates"
	AdminTemplate    = "admin_template"
	PreviewTemplates = "preview_templates"
	Demo             = "demo"
	Error            = "error"
)

var pageNames = []string{
	Login, Categories, Templates, Preview, Checkout, Editor, Expired,
	Invite, MyTemplates, AdminTemplate, PreviewTemplates, Demo, Error,
}

// Page is what every page template receives. Data holds the page-specific view model.
type Page struct {
	Title string
	User  *client.User
	Flash *middleware.Flash
	Bare  bool // public pages render without the app navigation
	Data  any
}

type Views struct {
	pages map[string]*template.Template
}

func New() (*Views, error) {
	funcs := template.FuncMap{
		"date":    render.FormatDate,
		"inr":     FormatINR,
		"ago":     humanize.Time,
		"longday": func(t time.Time) string { return t.Format("January 2, 2006") },
		"add":     func(a, b int) int { return a + b },
	}

	v := &Views{pages: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(files, "pages/layout.html", "pages/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		v.pages[name] = t
	}
	return v, nil
}

func Must() *Views {
	v, err := New()
	if err != nil {
		panic(err)
	}
	return v
}

// Render executes the page into a buffer first so a template error never
// leaves a half-written response.
func (v *Views) Render(w http.ResponseWriter, status int, name string, p Page) {
	t, ok := v.pages[name]
	if !ok {
		logger.Sugar.Errorf("Unknown page %q", name)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", p); err != nil {
		logger.Sugar.Errorf("Failed to render page %s: %v", name, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

// FormatINR renders a rupee price, dropping a zero paise part.
func FormatINR(d decimal.Decimal) string {
	s := d.StringFixed(2)
	s = strings.TrimSuffix(s, ".00")
	return "₹" + s
}
