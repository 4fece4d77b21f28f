// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"time"

	"github.com/google/uuid"

	"schoolportal/internal/models"
)

//go:embed templates/*.html
var templateFS embed.FS

// MediaResolver turns stored media references into URLs a browser can load.
type MediaResolver interface {
	URL(ref string) string
	DocumentURL(ref string) string
}

// Items is everything a block may draw from once resolved. Post-backed
// blocks only look at Posts; the other fields feed docs, video and stats.
type Items struct {
	Posts         []models.Post
	Documents     []models.Document
	DocCategories []models.DocumentCategory
	Videos        []models.Video
	Stats         models.VisitorStats
}

type renderFunc func(r *Renderer, b models.DisplayBlock, items Items) (template.HTML, error)

// dispatch maps each block type to its rendering strategy.
var dispatch = map[models.BlockType]renderFunc{
	models.BlockHero:      renderHero,
	models.BlockGrid:      renderPostList("block_grid"),
	models.BlockList:      renderPostList("block_list"),
	models.BlockHighlight: renderPostList("block_highlight"),
	models.BlockDocs:      renderDocs,
	models.BlockHTML:      renderHTML,
	models.BlockStats:     renderStats,
	models.BlockVideo:     renderVideo,
}

// Renderer renders display blocks into HTML fragments.
type Renderer struct {
	tmpl          *template.Template
	statsInterval time.Duration
}

// NewRenderer parses the embedded block templates. media may be nil, in
// which case references are used as URLs unchanged.
func NewRenderer(media MediaResolver, statsInterval time.Duration) (*Renderer, error) {
	urlFor := func(ref string) string { return ref }
	docURL := urlFor
	if media != nil {
		urlFor = media.URL
		docURL = media.DocumentURL
	}

	funcs := template.FuncMap{
		"media":   urlFor,
		"docurl":  docURL,
		"date":    func(t time.Time) string { return t.Format("02/01/2006") },
		"isodate": func(t time.Time) string { return t.Format("2006-01-02") },
	}

	tmpl, err := template.New("blocks").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse block templates: %w", err)
	}
	return &Renderer{tmpl: tmpl, statsInterval: statsInterval}, nil
}

// Render renders one block from its resolved items. An empty result means
// the block has nothing to show. Unknown types return ErrUnknownType.
func (r *Renderer) Render(b models.DisplayBlock, items Items) (template.HTML, error) {
	fn, ok := dispatch[b.Type]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownType, b.Type)
	}
	return fn(r, b, items)
}

// RenderStatsRows renders just the four stats rows, for live updates.
func (r *Renderer) RenderStatsRows(stats models.VisitorStats) (template.HTML, error) {
	return r.execute("stats_rows", stats)
}

func (r *Renderer) execute(name string, data any) (template.HTML, error) {
	var buf bytes.Buffer
	if err := r.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return template.HTML(buf.String()), nil
}

func renderHero(r *Renderer, b models.DisplayBlock, items Items) (template.HTML, error) {
	if len(items.Posts) == 0 {
		return "", nil
	}
	subs := items.Posts[1:]
	if len(subs) > 2 {
		subs = subs[:2]
	}
	return r.execute("block_hero", struct {
		Block models.DisplayBlock
		Main  models.Post
		Subs  []models.Post
	}{b, items.Posts[0], subs})
}

func renderPostList(name string) renderFunc {
	return func(r *Renderer, b models.DisplayBlock, items Items) (template.HTML, error) {
		if len(items.Posts) == 0 {
			return "", nil
		}
		return r.execute(name, struct {
			Block models.DisplayBlock
			Posts []models.Post
		}{b, items.Posts})
	}
}

type docCategoryView struct {
	Category models.DocumentCategory
	Count    int
}

func renderDocs(r *Renderer, b models.DisplayBlock, items Items) (template.HTML, error) {
	counts := make(map[uuid.UUID]int)
	for _, d := range items.Documents {
		if d.CategoryID != nil {
			counts[*d.CategoryID]++
		}
	}

	var cats []docCategoryView
	for _, c := range ResolveOrdered(items.DocCategories, 0) {
		cats = append(cats, docCategoryView{Category: c, Count: counts[c.ID]})
	}

	recent := items.Documents
	if limit := b.Limit(); len(recent) > limit {
		recent = recent[:limit]
	}

	return r.execute("block_docs", struct {
		Block      models.DisplayBlock
		Categories []docCategoryView
		Recent     []models.Document
	}{b, cats, recent})
}

func renderHTML(r *Renderer, b models.DisplayBlock, _ Items) (template.HTML, error) {
	if b.RawMarkup == "" {
		return "", nil
	}
	return r.execute("block_html", struct {
		Block  models.DisplayBlock
		Markup template.HTML
	}{b, template.HTML(b.RawMarkup)})
}

func renderStats(r *Renderer, b models.DisplayBlock, items Items) (template.HTML, error) {
	return r.execute("block_stats", struct {
		Block       models.DisplayBlock
		Stats       models.VisitorStats
		StreamURL   string
		PollSeconds int
	}{b, items.Stats, StatsStreamPath(b.ID), int(r.statsInterval / time.Second)})
}

func renderVideo(r *Renderer, b models.DisplayBlock, items Items) (template.HTML, error) {
	playlist := Playlist(items.Videos)
	var active PlayableVideo
	if len(playlist) > 0 {
		active = playlist[0]
	}
	return r.execute("block_video", struct {
		Block  models.DisplayBlock
		Videos []PlayableVideo
		Active PlayableVideo
	}{b, playlist, active})
}

// StatsStreamPath is the server-sent events endpoint a stats block listens on.
func StatsStreamPath(id uuid.UUID) string {
	return "/blocks/" + id.String() + "/stats"
}
