// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package handlers

import (
	"context"
	"html/template"
	"log/slog"
	"net/http"
	"slices"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"schoolportal/internal/blocks"
	"schoolportal/internal/engine"
	"schoolportal/internal/markdown"
	"schoolportal/internal/models"
)

// PostReader reads news posts for the public site.
type PostReader interface {
	List(ctx context.Context) ([]models.Post, error)
	FindBySlug(ctx context.Context, slug string) (*models.Post, error)
	IncrementViews(ctx context.Context, id uuid.UUID) error
}

// DocumentReader reads the document registry.
type DocumentReader interface {
	List(ctx context.Context) ([]models.Document, error)
	Categories(ctx context.Context) ([]models.DocumentCategory, error)
}

// GalleryReader reads photo albums.
type GalleryReader interface {
	Albums(ctx context.Context) ([]models.GalleryAlbum, error)
	FindAlbum(ctx context.Context, id uuid.UUID) (*models.GalleryAlbum, error)
	Images(ctx context.Context, albumID uuid.UUID) ([]models.GalleryImage, error)
}

// StaffLister lists staff members.
type StaffLister interface {
	List(ctx context.Context) ([]models.StaffMember, error)
}

// IntroReader reads the "about the school" articles.
type IntroReader interface {
	List(ctx context.Context) ([]models.IntroArticle, error)
	FindBySlug(ctx context.Context, slug string) (*models.IntroArticle, error)
}

// PublicStores bundles the content sources of the public site.
type PublicStores struct {
	Posts      PostReader
	Categories blocks.CategoryLister
	Documents  DocumentReader
	Gallery    GalleryReader
	Staff      StaffLister
	Intro      IntroReader
}

// Public groups handlers for the public site. Every page is framed by the
// engine, which composes the display blocks around the page content.
type Public struct {
	engine *engine.Engine
	stores PublicStores
}

// NewPublic creates a new Public handler group.
func NewPublic(eng *engine.Engine, stores PublicStores) *Public {
	return &Public{engine: eng, stores: stores}
}

// documentRow is a document with its category name resolved.
type documentRow struct {
	models.Document
	CategoryName string
}

// Home renders the homepage, which consists only of display blocks.
func (p *Public) Home(w http.ResponseWriter, r *http.Request) {
	data := p.engine.Frame(r.Context(), blocks.PageHome, "Trang chủ", "home")
	p.engine.Page(w, r, "home", data)
}

// News lists published posts, optionally filtered by ?category=.
func (p *Public) News(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))

	all, err := p.stores.Posts.List(ctx)
	if err != nil {
		slog.Error("list posts failed", "error", err)
	}
	var posts []models.Post
	for _, post := range all {
		if !post.IsPublished() {
			continue
		}
		if category != "" && post.Category != category {
			continue
		}
		posts = append(posts, post)
	}
	slices.SortStableFunc(posts, func(a, b models.Post) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	cats, err := p.stores.Categories.List(ctx)
	if err != nil {
		slog.Warn("list post categories failed", "error", err)
	}

	data := p.engine.Frame(ctx, blocks.PageOther, "Tin tức", "news")
	data.Data = map[string]any{
		"Posts":      posts,
		"Categories": blocks.ResolveOrdered(cats, 0),
		"Category":   category,
	}
	p.engine.Page(w, r, "news", data)
}

// Post renders a single published post and counts the view. Detail pages
// also show the main blocks targeted at them below the article.
func (p *Public) Post(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	post, err := p.stores.Posts.FindBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find post failed", "error", err)
		http.Error(w, "Đã có lỗi xảy ra. Vui lòng thử lại sau.", http.StatusInternalServerError)
		return
	}
	if post == nil || !post.IsPublished() {
		p.engine.NotFound(w, r)
		return
	}

	if err := p.stores.Posts.IncrementViews(ctx, post.ID); err != nil {
		slog.Warn("increment post views failed", "post_id", post.ID, "error", err)
	} else {
		post.Views++
	}

	data := p.engine.Frame(ctx, blocks.PageDetail, post.Title, "news")
	data.Data = map[string]any{
		"Post": post,
		"Body": p.markdown(post.Content, "post_id", post.ID),
	}
	p.engine.Page(w, r, "post", data)
}

// Documents lists official documents filtered by ?category= (a slug) and
// a ?q= search over number and title.
func (p *Public) Documents(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	category := strings.TrimSpace(r.URL.Query().Get("category"))
	query := strings.TrimSpace(r.URL.Query().Get("q"))

	cats, err := p.stores.Documents.Categories(ctx)
	if err != nil {
		slog.Warn("list document categories failed", "error", err)
	}
	cats = blocks.ResolveOrdered(cats, 0)
	byID := make(map[uuid.UUID]models.DocumentCategory, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	docs, err := p.stores.Documents.List(ctx)
	if err != nil {
		slog.Error("list documents failed", "error", err)
	}

	needle := strings.ToLower(query)
	var rows []documentRow
	for _, d := range docs {
		row := documentRow{Document: d}
		if d.CategoryID != nil {
			row.CategoryName = byID[*d.CategoryID].Name
		}
		if category != "" && (d.CategoryID == nil || byID[*d.CategoryID].Slug != category) {
			continue
		}
		if needle != "" &&
			!strings.Contains(strings.ToLower(d.Number), needle) &&
			!strings.Contains(strings.ToLower(d.Title), needle) {
			continue
		}
		rows = append(rows, row)
	}

	data := p.engine.Frame(ctx, blocks.PageOther, "Văn bản", "documents")
	data.Data = map[string]any{
		"Documents":  rows,
		"Categories": cats,
		"Category":   category,
		"Query":      query,
	}
	p.engine.Page(w, r, "documents", data)
}

// Gallery lists photo albums.
func (p *Public) Gallery(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	albums, err := p.stores.Gallery.Albums(ctx)
	if err != nil {
		slog.Error("list albums failed", "error", err)
	}

	data := p.engine.Frame(ctx, blocks.PageOther, "Thư viện ảnh", "gallery")
	data.Data = map[string]any{"Albums": albums}
	p.engine.Page(w, r, "gallery", data)
}

// Album renders one album with its images.
func (p *Public) Album(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		p.engine.NotFound(w, r)
		return
	}

	album, err := p.stores.Gallery.FindAlbum(ctx, id)
	if err != nil {
		slog.Error("find album failed", "album_id", id, "error", err)
		http.Error(w, "Đã có lỗi xảy ra. Vui lòng thử lại sau.", http.StatusInternalServerError)
		return
	}
	if album == nil {
		p.engine.NotFound(w, r)
		return
	}

	images, err := p.stores.Gallery.Images(ctx, id)
	if err != nil {
		slog.Error("list album images failed", "album_id", id, "error", err)
	}

	data := p.engine.Frame(ctx, blocks.PageOther, album.Title, "gallery")
	data.Data = map[string]any{"Album": album, "Images": images}
	p.engine.Page(w, r, "album", data)
}

// Staff lists the visible staff members.
func (p *Public) Staff(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	staff, err := p.stores.Staff.List(ctx)
	if err != nil {
		slog.Error("list staff failed", "error", err)
	}

	data := p.engine.Frame(ctx, blocks.PageOther, "Đội ngũ", "staff")
	data.Data = map[string]any{"Staff": blocks.ResolveOrdered(staff, 0)}
	p.engine.Page(w, r, "staff", data)
}

// About lists the visible introduction articles.
func (p *Public) About(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := p.engine.Frame(ctx, blocks.PageOther, "Giới thiệu", "about")
	data.Data = map[string]any{"Articles": p.introArticles(ctx)}
	p.engine.Page(w, r, "about", data)
}

// AboutArticle renders one introduction article. Hidden articles are not
// found.
func (p *Public) AboutArticle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	article, err := p.stores.Intro.FindBySlug(ctx, chi.URLParam(r, "slug"))
	if err != nil {
		slog.Error("find intro article failed", "error", err)
		http.Error(w, "Đã có lỗi xảy ra. Vui lòng thử lại sau.", http.StatusInternalServerError)
		return
	}
	if article == nil || !article.IsVisible {
		p.engine.NotFound(w, r)
		return
	}

	data := p.engine.Frame(ctx, blocks.PageOther, article.Title, "about")
	data.Data = map[string]any{
		"Article":  article,
		"Body":     p.markdown(article.Content, "article_id", article.ID),
		"Articles": p.introArticles(ctx),
	}
	p.engine.Page(w, r, "about_article", data)
}

// NotFound renders the 404 page inside the site layout.
func (p *Public) NotFound(w http.ResponseWriter, r *http.Request) {
	p.engine.NotFound(w, r)
}

func (p *Public) introArticles(ctx context.Context) []models.IntroArticle {
	articles, err := p.stores.Intro.List(ctx)
	if err != nil {
		slog.Error("list intro articles failed", "error", err)
	}
	return blocks.ResolveOrdered(articles, 0)
}

// markdown renders a content body, logging and returning an empty body on
// failure so the rest of the page still renders.
func (p *Public) markdown(src string, idKey string, id uuid.UUID) template.HTML {
	body, err := markdown.Render(src)
	if err != nil {
		slog.Error("render markdown failed", idKey, id, "error", err)
		return ""
	}
	return body
}
