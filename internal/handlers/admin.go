// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package handlers contains the HTTP handlers of the school portal.
// Handlers are grouped by concern (admin, auth, public, stats stream) and
// receive their dependencies through the handler struct.
package handlers

import (
	"context"
	"errors"
	"html/template"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"schoolportal/internal/blocks"
	"schoolportal/internal/middleware"
	"schoolportal/internal/models"
	"schoolportal/internal/render"
	"schoolportal/internal/session"
)

// Sessions is the part of the session store handlers use.
// *session.Store implements it.
type Sessions interface {
	Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error)
	Update(ctx context.Context, r *http.Request, data *session.Data) error
	SetFlash(ctx context.Context, r *http.Request, data *session.Data, kind, msg string) error
	PopFlash(ctx context.Context, r *http.Request, data *session.Data) (kind, msg string)
	Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error
}

// SettingsStore loads and saves the school configuration.
type SettingsStore interface {
	SchoolConfig(ctx context.Context) (models.SchoolConfig, error)
	SaveSchoolConfig(ctx context.Context, cfg models.SchoolConfig) error
}

// PostCounter reports post counts for the dashboard.
type PostCounter interface {
	CountByStatus(ctx context.Context) (map[models.PostStatus]int, error)
}

// DocumentCounter reports the document count for the dashboard.
type DocumentCounter interface {
	Count(ctx context.Context) (int, error)
}

// Admin groups the back office handlers and their dependencies.
type Admin struct {
	renderer   *render.Renderer
	sessions   Sessions
	blocks     *blocks.Service
	composer   *blocks.Composer
	categories blocks.CategoryLister
	settings   SettingsStore
	posts      PostCounter
	documents  DocumentCounter
	stats      blocks.StatsSource
}

// NewAdmin creates the Admin handler group. stats may be nil.
func NewAdmin(renderer *render.Renderer, sessions Sessions, service *blocks.Service, composer *blocks.Composer, categories blocks.CategoryLister, settings SettingsStore, posts PostCounter, documents DocumentCounter, stats blocks.StatsSource) *Admin {
	return &Admin{
		renderer:   renderer,
		sessions:   sessions,
		blocks:     service,
		composer:   composer,
		categories: categories,
		settings:   settings,
		posts:      posts,
		documents:  documents,
		stats:      stats,
	}
}

// previewView is the data of the block preview pane.
type previewView struct {
	HTML  template.HTML
	Error string
}

// blockGroup is one position's blocks on the list page.
type blockGroup struct {
	Position models.Position
	Blocks   []models.DisplayBlock
}

// Dashboard renders the overview page with content counts and traffic.
func (a *Admin) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	counts, err := a.posts.CountByStatus(ctx)
	if err != nil {
		slog.Error("count posts failed", "error", err)
	}
	docCount, err := a.documents.Count(ctx)
	if err != nil {
		slog.Error("count documents failed", "error", err)
	}
	all, err := a.blocks.List(ctx)
	if err != nil {
		slog.Error("list blocks failed", "error", err)
	}
	visible := 0
	for _, b := range all {
		if b.IsVisible {
			visible++
		}
	}

	var stats *models.VisitorStats
	if a.stats != nil {
		if s, err := a.stats.Stats(ctx); err != nil {
			slog.Warn("read visitor stats failed", "error", err)
		} else {
			stats = &s
		}
	}

	a.page(w, r, http.StatusOK, "dashboard", &render.PageData{
		Title:   "Tổng quan",
		Section: "dashboard",
		Data: map[string]any{
			"PublishedCount": counts[models.PostPublished],
			"DraftCount":     counts[models.PostDraft] + counts[models.PostScheduled],
			"DocumentCount":  docCount,
			"BlockCount":     len(all),
			"VisibleBlocks":  visible,
			"Stats":          stats,
		},
	})
}

// --- Display blocks ---

// BlocksList renders the registry grouped by position.
func (a *Admin) BlocksList(w http.ResponseWriter, r *http.Request) {
	all, err := a.blocks.List(r.Context())
	if err != nil {
		slog.Error("list blocks failed", "error", err)
		http.Error(w, "Không tải được danh sách khối. Vui lòng thử lại.", http.StatusInternalServerError)
		return
	}

	groups := make([]blockGroup, 0, len(models.Positions))
	for _, pos := range models.Positions {
		g := blockGroup{Position: pos}
		for _, b := range all {
			if b.Position == pos {
				g.Blocks = append(g.Blocks, b)
			}
		}
		groups = append(groups, g)
	}

	a.page(w, r, http.StatusOK, "blocks_list", &render.PageData{
		Title:   "Khối hiển thị",
		Section: "blocks",
		Data:    map[string]any{"Groups": groups},
	})
}

// BlockNew renders the empty block form. A ?type= query applies that
// type's preset, so choosing "video" pre-fills the name and position.
func (a *Admin) BlockNew(w http.ResponseWriter, r *http.Request) {
	draft := blocks.NewDraft()
	if t := r.URL.Query().Get("type"); t != "" {
		draft = blocks.NewDraftOfType(models.BlockType(t))
	}
	a.blockForm(w, r, http.StatusOK, draft, true, nil)
}

// BlockCreate validates and stores a new block.
func (a *Admin) BlockCreate(w http.ResponseWriter, r *http.Request) {
	form := parseBlockForm(r)
	if form.ItemCountErr != "" {
		a.blockForm(w, r, http.StatusUnprocessableEntity, form.Block, true, map[string]string{"item_count": form.ItemCountErr})
		return
	}

	created, err := a.blocks.Create(r.Context(), form.Block)
	if err != nil {
		if msgs := blockErrorMessages(err); msgs != nil {
			a.blockForm(w, r, http.StatusUnprocessableEntity, form.Block, true, msgs)
			return
		}
		slog.Error("create block failed", "error", err)
		a.blockForm(w, r, http.StatusInternalServerError, form.Block, true, map[string]string{
			"form": "Không lưu được khối. Vui lòng thử lại.",
		})
		return
	}

	slog.Info("block created", "block_id", created.ID, "name", created.Name)
	a.flash(r, session.FlashSuccess, "Đã thêm khối "+created.Name+".")
	http.Redirect(w, r, "/admin/blocks", http.StatusSeeOther)
}

// BlockEdit renders the form for an existing block.
func (a *Admin) BlockEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	b, err := a.blocks.Get(r.Context(), id)
	if err != nil {
		a.blockLookupFailed(w, err)
		return
	}
	a.blockForm(w, r, http.StatusOK, *b, false, nil)
}

// BlockUpdate applies the submitted form to an existing block.
func (a *Admin) BlockUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	form := parseBlockForm(r)
	form.Block.ID = id
	if form.ItemCountErr != "" {
		a.blockForm(w, r, http.StatusUnprocessableEntity, form.Block, false, map[string]string{"item_count": form.ItemCountErr})
		return
	}

	updated, err := a.blocks.Update(r.Context(), id, form.patch())
	if err != nil {
		if errors.Is(err, blocks.ErrNotFound) {
			http.Error(w, "Block not found", http.StatusNotFound)
			return
		}
		if msgs := blockErrorMessages(err); msgs != nil {
			a.blockForm(w, r, http.StatusUnprocessableEntity, form.Block, false, msgs)
			return
		}
		slog.Error("update block failed", "block_id", id, "error", err)
		a.blockForm(w, r, http.StatusInternalServerError, form.Block, false, map[string]string{
			"form": "Không lưu được khối. Vui lòng thử lại.",
		})
		return
	}

	slog.Info("block updated", "block_id", id)
	a.flash(r, session.FlashSuccess, "Đã lưu khối "+updated.Name+".")
	http.Redirect(w, r, "/admin/blocks", http.StatusSeeOther)
}

// BlockDelete removes a block.
func (a *Admin) BlockDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	if err := a.blocks.Delete(r.Context(), id); err != nil {
		slog.Error("delete block failed", "block_id", id, "error", err)
		a.flash(r, session.FlashError, "Không xóa được khối. Vui lòng thử lại.")
	} else {
		slog.Info("block deleted", "block_id", id)
		a.flash(r, session.FlashSuccess, "Đã xóa khối.")
	}
	http.Redirect(w, r, "/admin/blocks", http.StatusSeeOther)
}

// BlockToggle shows or hides a block.
func (a *Admin) BlockToggle(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}
	b, err := a.blocks.ToggleVisibility(r.Context(), id)
	switch {
	case errors.Is(err, blocks.ErrNotFound):
		http.Error(w, "Block not found", http.StatusNotFound)
		return
	case blockErrorMessages(err) != nil:
		a.flash(r, session.FlashError, "Khối có cấu hình không hợp lệ, hãy sửa trước khi bật/tắt.")
	case err != nil:
		slog.Error("toggle block failed", "block_id", id, "error", err)
		a.flash(r, session.FlashError, "Không cập nhật được trạng thái khối.")
	case b.IsVisible:
		a.flash(r, session.FlashSuccess, "Đã hiện khối "+b.Name+".")
	default:
		a.flash(r, session.FlashSuccess, "Đã ẩn khối "+b.Name+".")
	}
	http.Redirect(w, r, "/admin/blocks", http.StatusSeeOther)
}

// BlockMove moves a block one step up or down within its position.
func (a *Admin) BlockMove(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var dir blocks.Direction
	switch r.FormValue("dir") {
	case "up":
		dir = blocks.Up
	case "down":
		dir = blocks.Down
	default:
		http.Error(w, "Invalid direction", http.StatusBadRequest)
		return
	}

	if _, err := a.blocks.Move(r.Context(), id, dir); err != nil {
		if errors.Is(err, blocks.ErrNotFound) {
			http.Error(w, "Block not found", http.StatusNotFound)
			return
		}
		slog.Error("move block failed", "block_id", id, "error", err)
		a.flash(r, session.FlashError, "Không lưu được thứ tự mới. Danh sách đã được tải lại.")
	}
	http.Redirect(w, r, "/admin/blocks", http.StatusSeeOther)
}

// BlockPreview renders the submitted form as a block, ignoring its
// visibility and target page, into the preview pane.
func (a *Admin) BlockPreview(w http.ResponseWriter, r *http.Request) {
	form := parseBlockForm(r)
	b := form.Block
	b.ID = uuid.New()
	blocks.ApplyTypePreset(&b)
	b.Normalize()

	var view previewView
	html, err := a.composer.Preview(r.Context(), b)
	if err != nil {
		slog.Warn("block preview failed", "type", b.Type, "error", err)
		view.Error = "Không thể xem trước khối này: kiểu hiển thị không hợp lệ."
	} else {
		view.HTML = html
	}
	a.renderer.Fragment(w, "block_form", "preview", view)
}

func (a *Admin) blockForm(w http.ResponseWriter, r *http.Request, status int, b models.DisplayBlock, isNew bool, errs map[string]string) {
	cats, err := a.categories.List(r.Context())
	if err != nil {
		slog.Warn("load post categories failed", "error", err)
	}

	title := "Sửa khối"
	if isNew {
		title = "Thêm khối"
	}
	data := &render.PageData{
		Title:   title,
		Section: "blocks",
		Data: map[string]any{
			"Block":      b,
			"IsNew":      isNew,
			"Errors":     errs,
			"Categories": blocks.ResolveOrdered(cats, 0),
			"Types":      models.BlockTypes,
			"Positions":  models.Positions,
			"Targets":    models.TargetPages,
			"Preview":    previewView{},
		},
	}
	if msg := errs["form"]; msg != "" {
		data.Flashes = append(data.Flashes, render.Flash{Type: "error", Message: msg})
	} else if len(errs) > 0 {
		data.Flashes = append(data.Flashes, render.Flash{Type: "error", Message: "Vui lòng kiểm tra lại các trường được đánh dấu."})
	}
	a.page(w, r, status, "block_form", data)
}

func (a *Admin) blockLookupFailed(w http.ResponseWriter, err error) {
	if errors.Is(err, blocks.ErrNotFound) {
		http.Error(w, "Block not found", http.StatusNotFound)
		return
	}
	slog.Error("load block failed", "error", err)
	http.Error(w, "Không tải được khối. Vui lòng thử lại.", http.StatusInternalServerError)
}

// --- Settings ---

// SettingsPage renders the school configuration form.
func (a *Admin) SettingsPage(w http.ResponseWriter, r *http.Request) {
	cfg, err := a.settings.SchoolConfig(r.Context())
	if err != nil {
		slog.Error("load school config failed", "error", err)
	}
	a.page(w, r, http.StatusOK, "settings", &render.PageData{
		Title:   "Cấu hình trường",
		Section: "settings",
		Data:    map[string]any{"Config": cfg},
	})
}

// SettingsSave validates and stores the school configuration.
func (a *Admin) SettingsSave(w http.ResponseWriter, r *http.Request) {
	cfg := parseSettingsForm(r)
	if errs := validateSettings(cfg); errs != nil {
		a.page(w, r, http.StatusUnprocessableEntity, "settings", &render.PageData{
			Title:   "Cấu hình trường",
			Section: "settings",
			Data:    map[string]any{"Config": cfg, "Errors": errs},
			Flashes: []render.Flash{{Type: "error", Message: "Vui lòng kiểm tra lại các trường được đánh dấu."}},
		})
		return
	}

	if err := a.settings.SaveSchoolConfig(r.Context(), cfg); err != nil {
		slog.Error("save school config failed", "error", err)
		a.page(w, r, http.StatusInternalServerError, "settings", &render.PageData{
			Title:   "Cấu hình trường",
			Section: "settings",
			Data:    map[string]any{"Config": cfg},
			Flashes: []render.Flash{{Type: "error", Message: "Không lưu được cấu hình. Vui lòng thử lại."}},
		})
		return
	}

	slog.Info("school config saved")
	a.flash(r, session.FlashSuccess, "Đã lưu cấu hình trường.")
	http.Redirect(w, r, "/admin/settings", http.StatusSeeOther)
}

// page renders an admin page, adding any pending flash message.
func (a *Admin) page(w http.ResponseWriter, r *http.Request, status int, name string, data *render.PageData) {
	if sess := middleware.SessionFromCtx(r.Context()); sess != nil {
		if kind, msg := a.sessions.PopFlash(r.Context(), r, sess); msg != "" {
			data.Flashes = append([]render.Flash{{Type: kind, Message: msg}}, data.Flashes...)
		}
	}
	a.renderer.PageStatus(w, r, status, name, data)
}

// flash queues a message for the next page. Without a session there is
// nowhere to keep it.
func (a *Admin) flash(r *http.Request, kind, msg string) {
	sess := middleware.SessionFromCtx(r.Context())
	if sess == nil {
		return
	}
	if err := a.sessions.SetFlash(r.Context(), r, sess, kind, msg); err != nil {
		slog.Warn("set flash failed", "error", err)
	}
}

// parseID reads the {id} URL parameter, writing a 400 when it is invalid.
func parseID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid ID", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}
