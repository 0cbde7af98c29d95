package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"sort"

	"github.com/ghodss/yaml"

	"scrollvite/internal/schema"
	"scrollvite/pkg/logger"
)

const (
	RoyalWedding = "RoyalWeddingTemplate"
	PhotoStory   = "PhotoStoryTemplate"

	// DefaultTheme renders any template_component the registry does not know.
	DefaultTheme = RoyalWedding
)

//go:embed catalog.yaml themes/*.html
var files embed.FS

var themeFiles = map[string]string{
	RoyalWedding: "themes/royal_wedding.html",
	PhotoStory:   "themes/photo_story.html",
}

var defaultGallery = []string{
	"https://images.unsplash.com/photo-1519741497674-611481863552?w=800",
	"https://images.unsplash.com/photo-1511285560929-80b456fea0bc?w=800",
	"https://images.unsplash.com/photo-1465495976277-4387d4b0b4c6?w=800",
	"https://images.unsplash.com/photo-1606216794074-735e91aa2c92?w=800",
	"https://images.unsplash.com/photo-1583939003579-730e3918a45a?w=800",
	"https://images.unsplash.com/photo-1522673607200-164d1b6ce486?w=800",
}

// Theme describes one entry of the theme catalog.
type Theme struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Sample      schema.Schema `json:"sample"`
}

type catalog struct {
	Themes []Theme `json:"themes"`
}

// data is what a theme template executes against.
type data struct {
	schema.Invitation
	Gallery []string
}

// Renderer maps theme ids onto compiled templates. It is safe for concurrent use.
type Renderer struct {
	templates map[string]*template.Template
	themes    map[string]Theme
}

// New compiles every embedded theme and loads the catalog.
func New() (*Renderer, error) {
	r := &Renderer{
		templates: make(map[string]*template.Template, len(themeFiles)),
		themes:    make(map[string]Theme, len(themeFiles)),
	}

	funcs := template.FuncMap{"date": FormatDate, "longdate": FormatLongDate}
	for id, file := range themeFiles {
		t, err := template.New(id).Funcs(funcs).ParseFS(files, file)
		if err != nil {
			return nil, fmt.Errorf("parse theme %s: %w", id, err)
		}
		r.templates[id] = t
	}

	raw, err := files.ReadFile("catalog.yaml")
	if err != nil {
		return nil, fmt.Errorf("read theme catalog: %w", err)
	}
	var c catalog
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("parse theme catalog: %w", err)
	}
	for _, theme := range c.Themes {
		if _, ok := r.templates[theme.ID]; !ok {
			return nil, fmt.Errorf("catalog lists unknown theme %q", theme.ID)
		}
		r.themes[theme.ID] = theme
	}
	return r, nil
}

// Must is New for package initialization; it panics on a broken embed.
func Must() *Renderer {
	r, err := New()
	if err != nil {
		panic(err)
	}
	return r
}

// Resolve returns the theme id that Render will actually use for id.
func (r *Renderer) Resolve(id string) string {
	if _, ok := r.templates[id]; ok {
		return id
	}
	return DefaultTheme
}

// Render writes the invitation page body for the theme id. An unknown id
// renders with DefaultTheme. Missing or mistyped schema fields render their
// placeholders, so errors only come from the writer.
func (r *Renderer) Render(w io.Writer, id string, s schema.Schema) error {
	resolved := r.Resolve(id)
	if resolved != id {
		logger.Sugar.Warnf("Unknown template component %q, rendering %s", id, resolved)
	}

	d := data{Invitation: s.Invitation()}
	d.Gallery = d.PhotoGallery.Photos
	if len(d.Gallery) == 0 {
		d.Gallery = defaultGallery
	}

	return r.templates[resolved].ExecuteTemplate(w, "theme", d)
}

// RenderHTML renders into a buffer for embedding in a page or a socket message.
func (r *Renderer) RenderHTML(id string, s schema.Schema) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.Render(&buf, id, s); err != nil {
		return "", err
	}
	return template.HTML(buf.String()), nil
}

// Themes lists the catalog sorted by id.
func (r *Renderer) Themes() []Theme {
	out := make([]Theme, 0, len(r.themes))
	for _, t := range r.themes {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Sample returns the catalog sample schema for a theme.
func (r *Renderer) Sample(id string) (schema.Schema, bool) {
	t, ok := r.themes[r.Resolve(id)]
	if !ok {
		return schema.Empty(), false
	}
	return t.Sample, true
}
