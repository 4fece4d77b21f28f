package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"schoolportal/internal/blocks"
	"schoolportal/internal/engine"
	"schoolportal/internal/middleware"
	"schoolportal/internal/models"
	"schoolportal/internal/render"
	"schoolportal/internal/session"
)

var errDown = errors.New("backend unreachable")

// memBlocks is an in-memory blocks.Repository.
type memBlocks struct {
	mu      sync.Mutex
	blocks  map[uuid.UUID]models.DisplayBlock
	saveErr error
}

func newMemBlocks(bs ...models.DisplayBlock) *memBlocks {
	m := &memBlocks{blocks: make(map[uuid.UUID]models.DisplayBlock)}
	for _, b := range bs {
		m.blocks[b.ID] = b
	}
	return m
}

func (m *memBlocks) List(ctx context.Context) ([]models.DisplayBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.DisplayBlock, 0, len(m.blocks))
	for _, b := range m.blocks {
		out = append(out, b)
	}
	slices.SortFunc(out, func(a, b models.DisplayBlock) int { return a.Order - b.Order })
	return out, nil
}

func (m *memBlocks) FindByID(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (m *memBlocks) Create(ctx context.Context, b *models.DisplayBlock) (*models.DisplayBlock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return nil, m.saveErr
	}
	created := *b
	created.ID = uuid.New()
	m.blocks[created.ID] = created
	return &created, nil
}

func (m *memBlocks) Update(ctx context.Context, b *models.DisplayBlock) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	next := *b
	if stored, ok := m.blocks[b.ID]; ok && stored.Position == next.Position {
		next.Order = stored.Order
	}
	m.blocks[b.ID] = next
	return nil
}

func (m *memBlocks) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	delete(m.blocks, id)
	return nil
}

func (m *memBlocks) MaxOrder(ctx context.Context, pos models.Position) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	max := 0
	for _, b := range m.blocks {
		if b.Position == pos && b.Order > max {
			max = b.Order
		}
	}
	return max, nil
}

func (m *memBlocks) SaveOrder(ctx context.Context, items []models.BlockOrder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	for _, it := range items {
		b := m.blocks[it.ID]
		b.Order = it.Order
		m.blocks[it.ID] = b
	}
	return nil
}

func (m *memBlocks) get(id uuid.UUID) (models.DisplayBlock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.blocks[id]
	return b, ok
}

// fakeSessions records session writes instead of talking to Valkey.
type fakeSessions struct {
	created   *session.Data
	updated   *session.Data
	destroyed bool
	flashKind string
	flash     string
	createErr error
}

func (f *fakeSessions) Create(ctx context.Context, w http.ResponseWriter, data *session.Data) (string, error) {
	if f.createErr != nil {
		return "", f.createErr
	}
	f.created = data
	return "test-session", nil
}

func (f *fakeSessions) Update(ctx context.Context, r *http.Request, data *session.Data) error {
	f.updated = data
	return nil
}

func (f *fakeSessions) SetFlash(ctx context.Context, r *http.Request, data *session.Data, kind, msg string) error {
	f.flashKind, f.flash = kind, msg
	return nil
}

func (f *fakeSessions) PopFlash(ctx context.Context, r *http.Request, data *session.Data) (string, string) {
	kind, msg := f.flashKind, f.flash
	f.flashKind, f.flash = "", ""
	return kind, msg
}

func (f *fakeSessions) Destroy(ctx context.Context, w http.ResponseWriter, r *http.Request) error {
	f.destroyed = true
	return nil
}

type fakeCategories []models.PostCategory

func (c fakeCategories) List(ctx context.Context) ([]models.PostCategory, error) {
	return c, nil
}

type fakeSettingsStore struct {
	cfg     models.SchoolConfig
	saved   *models.SchoolConfig
	saveErr error
}

func (f *fakeSettingsStore) SchoolConfig(ctx context.Context) (models.SchoolConfig, error) {
	return f.cfg, nil
}

func (f *fakeSettingsStore) SaveSchoolConfig(ctx context.Context, cfg models.SchoolConfig) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = &cfg
	f.cfg = cfg
	return nil
}

type fakeCounts struct {
	posts map[models.PostStatus]int
	docs  int
}

func (f fakeCounts) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	return f.posts, nil
}

func (f fakeCounts) Count(ctx context.Context) (int, error) {
	return f.docs, nil
}

type fakeStats struct {
	stats models.VisitorStats
	err   error
}

func (f fakeStats) Stats(ctx context.Context) (models.VisitorStats, error) {
	return f.stats, f.err
}

type fakeMedia struct{}

func (fakeMedia) URL(ref string) string         { return "/media/" + ref }
func (fakeMedia) DocumentURL(ref string) string { return "/docs/" + ref }

type fakeMenu struct{}

func (fakeMenu) List(ctx context.Context) ([]models.MenuItem, error) { return nil, nil }

// testBlock builds a visible block with the form defaults.
func testBlock(name string, pos models.Position, typ models.BlockType, order int) models.DisplayBlock {
	b := blocks.NewDraft()
	b.ID = uuid.New()
	b.Name = name
	b.Position = pos
	b.Type = typ
	b.Order = order
	if typ == models.BlockHTML {
		b.RawMarkup = "<p>" + name + "</p>"
	}
	return b
}

func newTestRenderer(t *testing.T) *render.Renderer {
	t.Helper()
	rn, err := render.New(false)
	if err != nil {
		t.Fatalf("render.New: %v", err)
	}
	return rn
}

func newTestComposer(t *testing.T, lister blocks.BlockLister, src blocks.Sources) *blocks.Composer {
	t.Helper()
	br, err := blocks.NewRenderer(fakeMedia{}, 20*time.Second)
	if err != nil {
		t.Fatalf("blocks.NewRenderer: %v", err)
	}
	src.Blocks = lister
	return blocks.NewComposer(src, br)
}

func newTestEngine(t *testing.T, composer *blocks.Composer) *engine.Engine {
	t.Helper()
	settings := &fakeSettingsStore{cfg: models.DefaultSchoolConfig()}
	eng, err := engine.New(false, fakeMedia{}, settings, fakeMenu{}, composer)
	if err != nil {
		t.Fatalf("engine.New: %v", err)
	}
	return eng
}

// adminFixture wires an Admin over in-memory collaborators.
type adminFixture struct {
	admin    *Admin
	repo     *memBlocks
	sessions *fakeSessions
	settings *fakeSettingsStore
}

func newAdminFixture(t *testing.T, bs ...models.DisplayBlock) *adminFixture {
	t.Helper()
	repo := newMemBlocks(bs...)
	cats := fakeCategories{{Name: "Tin trường", Slug: "tin-truong", SortOrder: 1}}
	f := &adminFixture{
		repo:     repo,
		sessions: &fakeSessions{},
		settings: &fakeSettingsStore{cfg: models.DefaultSchoolConfig()},
	}
	counts := fakeCounts{posts: map[models.PostStatus]int{models.PostPublished: 7, models.PostDraft: 2}, docs: 3}
	f.admin = NewAdmin(
		newTestRenderer(t),
		f.sessions,
		blocks.NewService(repo, cats),
		newTestComposer(t, repo, blocks.Sources{}),
		cats,
		f.settings,
		counts,
		counts,
		fakeStats{stats: models.VisitorStats{Total: 1234, Today: 56}},
	)
	return f
}

func adminSession() *session.Data {
	return &session.Data{
		UserID:      uuid.New(),
		Email:       "admin@school.test",
		DisplayName: "Cô Lan",
		Role:        models.RoleAdmin,
		TwoFADone:   true,
	}
}

// withSession attaches a session the way LoadSession does.
func withSession(r *http.Request, sess *session.Data) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), middleware.SessionKey, sess))
}

// withParam sets a chi URL parameter on the request.
func withParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		rctx = chi.NewRouteContext()
	}
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// postForm builds a form POST request.
func postForm(target string, form url.Values) *http.Request {
	r, _ := http.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

// validBlockForm is a complete, valid block form submission.
func validBlockForm(name string) url.Values {
	return url.Values{
		"name":              {name},
		"type":              {string(models.BlockGrid)},
		"position":          {string(models.PositionMain)},
		"target_page":       {string(models.TargetAll)},
		"source":            {string(models.SourceAll)},
		"item_count":        {"4"},
		"custom_color":      {"#1e3a8a"},
		"custom_text_color": {"#ffffff"},
		"is_visible":        {"true"},
	}
}
