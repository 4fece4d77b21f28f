// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package engine renders the public pages of the portal. Every page shares
// one frame: the school header, the navigation menu, a main column and the
// sidebar composed from display blocks for the page context.
package engine

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"
	"time"

	"schoolportal/internal/blocks"
	"schoolportal/internal/markdown"
	"schoolportal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// SettingsReader loads the site configuration aggregate.
type SettingsReader interface {
	SchoolConfig(ctx context.Context) (models.SchoolConfig, error)
}

// MenuLister loads the navigation menu.
type MenuLister interface {
	List(ctx context.Context) ([]models.MenuItem, error)
}

// PageData holds everything a public template can use.
type PageData struct {
	Title   string
	Section string // path of the active menu entry
	School  models.SchoolConfig
	Menu    []models.MenuItem
	Main    []blocks.Rendered
	Sidebar []blocks.Rendered
	Data    map[string]any
	Year    int
}

// Engine renders public pages.
type Engine struct {
	templates map[string]*template.Template
	settings  SettingsReader
	menu      MenuLister
	composer  *blocks.Composer
}

// pages are the public page templates, each paired with layout.html.
var pages = []string{
	"home", "news", "post", "documents", "gallery", "album",
	"staff", "about", "about_article", "not_found",
}

// New parses the public templates. media resolves stored references in
// page content and may be nil. In development the layout pulls its
// stylesheet from the Tailwind CDN instead of /static/.
func New(devMode bool, media blocks.MediaResolver, settings SettingsReader, menu MenuLister, composer *blocks.Composer) (*Engine, error) {
	urlFor := func(ref string) string { return ref }
	docURL := urlFor
	if media != nil {
		urlFor = media.URL
		docURL = media.DocumentURL
	}

	funcs := template.FuncMap{
		"isDev":   func() bool { return devMode },
		"media":   urlFor,
		"docurl":  docURL,
		"date":    func(t time.Time) string { return t.Format("02/01/2006") },
		"isodate": func(t time.Time) string { return t.Format("2006-01-02") },
		"excerpt": func(s string) string { return markdown.Excerpt(s, 160) },
		"activeClass": func(current, target string) string {
			if current == target {
				return "is-active"
			}
			return ""
		},
	}

	e := &Engine{
		templates: make(map[string]*template.Template, len(pages)),
		settings:  settings,
		menu:      menu,
		composer:  composer,
	}
	for _, name := range pages {
		tmpl, err := template.New("layout.html").Funcs(funcs).ParseFS(
			templateFS, "templates/layout.html", "templates/"+name+".html",
		)
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		e.templates[name] = tmpl
	}
	return e, nil
}

// Frame loads the shared parts of a page: the school configuration, the
// menu and the block regions for the page context. Home and detail pages
// get both regions; other pages only get the sidebar, the main column
// being their own content. Failures degrade to defaults.
func (e *Engine) Frame(ctx context.Context, page blocks.PageContext, title, section string) *PageData {
	cfg, err := e.settings.SchoolConfig(ctx)
	if err != nil {
		slog.Warn("load school config failed, using defaults", "error", err)
		cfg = models.DefaultSchoolConfig()
	}

	data := &PageData{
		Title:   title,
		Section: section,
		School:  cfg,
		Menu:    e.loadMenu(ctx),
		Data:    map[string]any{},
		Year:    time.Now().Year(),
	}

	switch page {
	case blocks.PageHome, blocks.PageDetail:
		layout := e.composer.ComposePage(ctx, page, cfg)
		data.Main, data.Sidebar = layout.Main, layout.Sidebar
	default:
		data.Sidebar = e.composer.Compose(ctx, page, models.PositionSidebar, cfg)
	}
	return data
}

func (e *Engine) loadMenu(ctx context.Context) []models.MenuItem {
	items, err := e.menu.List(ctx)
	if err != nil {
		slog.Warn("load menu failed, using default", "error", err)
	}
	items = blocks.ResolveOrdered(items, 0)
	if len(items) == 0 {
		return models.DefaultMenu
	}
	return items
}

// Page renders a public page with status 200. HTMX requests get only the
// "content" block.
func (e *Engine) Page(w http.ResponseWriter, r *http.Request, name string, data *PageData) {
	e.render(w, r, http.StatusOK, name, data)
}

// NotFound renders the 404 page inside the normal frame.
func (e *Engine) NotFound(w http.ResponseWriter, r *http.Request) {
	data := e.Frame(r.Context(), blocks.PageOther, "Không tìm thấy trang", "")
	e.render(w, r, http.StatusNotFound, "not_found", data)
}

func (e *Engine) render(w http.ResponseWriter, r *http.Request, status int, name string, data *PageData) {
	tmpl, ok := e.templates[name]
	if !ok {
		http.Error(w, fmt.Sprintf("template %q not found", name), http.StatusInternalServerError)
		return
	}

	exec := "layout.html"
	if r.Header.Get("HX-Request") == "true" {
		exec = "content"
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, exec, data); err != nil {
		slog.Error("render public page failed", "page", name, "error", err)
		http.Error(w, "template error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
