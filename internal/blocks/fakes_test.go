// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"schoolportal/internal/models"
)

var errStoreDown = errors.New("store unreachable")

// memRepo is an in-memory Repository.
type memRepo struct {
	mu        sync.Mutex
	blocks    map[uuid.UUID]models.DisplayBlock
	saveErr   error
	listCalls int
}

func newMemRepo(blocks ...models.DisplayBlock) *memRepo {
	r := &memRepo{blocks: make(map[uuid.UUID]models.DisplayBlock)}
	for _, b := range blocks {
		if b.ID == uuid.Nil {
			b.ID = uuid.New()
		}
		r.blocks[b.ID] = b
	}
	return r
}

func (r *memRepo) List(ctx context.Context) ([]models.DisplayBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listCalls++
	out := make([]models.DisplayBlock, 0, len(r.blocks))
	for _, b := range r.blocks {
		out = append(out, b)
	}
	// Map order is random; give the registry a deterministic base order.
	slices.SortFunc(out, func(a, b models.DisplayBlock) int {
		if a.Order != b.Order {
			return a.Order - b.Order
		}
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return out, nil
}

func (r *memRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.blocks[id]
	if !ok {
		return nil, nil
	}
	return &b, nil
}

func (r *memRepo) Create(ctx context.Context, b *models.DisplayBlock) (*models.DisplayBlock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	created := *b
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	r.blocks[created.ID] = created
	return &created, nil
}

func (r *memRepo) Update(ctx context.Context, b *models.DisplayBlock) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.blocks[b.ID]
	if !ok {
		return nil
	}
	next := *b
	if next.Position == stored.Position {
		next.Order = stored.Order
	}
	r.blocks[b.ID] = next
	return nil
}

func (r *memRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.blocks, id)
	return nil
}

func (r *memRepo) MaxOrder(ctx context.Context, pos models.Position) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	max := 0
	for _, b := range r.blocks {
		if b.Position == pos && b.Order > max {
			max = b.Order
		}
	}
	return max, nil
}

func (r *memRepo) SaveOrder(ctx context.Context, items []models.BlockOrder) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	for _, it := range items {
		b := r.blocks[it.ID]
		b.Order = it.Order
		r.blocks[it.ID] = b
	}
	return nil
}

// orders returns the order values of one position group, in render order.
func (r *memRepo) orders(t *testing.T, pos models.Position) []int {
	t.Helper()
	all, _ := r.List(context.Background())
	var out []int
	for _, b := range inPosition(all, pos) {
		out = append(out, b.Order)
	}
	return out
}

// inPosition is SelectBlocks without the visibility and page filters.
func inPosition(all []models.DisplayBlock, pos models.Position) []models.DisplayBlock {
	var out []models.DisplayBlock
	for _, b := range all {
		if b.Position == pos {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, byOrder)
	return out
}

type staticCategories []models.PostCategory

func (c staticCategories) List(ctx context.Context) ([]models.PostCategory, error) {
	return c, nil
}

type failingCategories struct{}

func (failingCategories) List(ctx context.Context) ([]models.PostCategory, error) {
	return nil, errStoreDown
}

type staticPosts struct {
	posts []models.Post
	err   error
}

func (s staticPosts) List(ctx context.Context) ([]models.Post, error) {
	return s.posts, s.err
}

type staticDocs struct {
	docs []models.Document
	cats []models.DocumentCategory
	err  error
}

func (s staticDocs) List(ctx context.Context) ([]models.Document, error) {
	return s.docs, s.err
}

func (s staticDocs) Categories(ctx context.Context) ([]models.DocumentCategory, error) {
	return s.cats, s.err
}

type staticVideos []models.Video

func (v staticVideos) List(ctx context.Context) ([]models.Video, error) {
	return v, nil
}

type staticStats struct {
	stats models.VisitorStats
	err   error
}

func (s staticStats) Stats(ctx context.Context) (models.VisitorStats, error) {
	return s.stats, s.err
}

// post builds a published post in a category on a given day.
func post(title, category, day string) models.Post {
	t, err := time.Parse("2006-01-02", day)
	if err != nil {
		panic(err)
	}
	return models.Post{
		ID:          uuid.New(),
		Title:       title,
		Slug:        title,
		Category:    category,
		Status:      models.PostPublished,
		PublishedAt: t,
	}
}

// block builds a visible block with sensible defaults.
func block(name string, pos models.Position, typ models.BlockType, order int) models.DisplayBlock {
	return models.DisplayBlock{
		ID:              uuid.New(),
		Name:            name,
		Position:        pos,
		Type:            typ,
		Order:           order,
		ItemCount:       4,
		IsVisible:       true,
		TargetPage:      models.TargetAll,
		Source:          models.SourceAll,
		CustomColor:     models.DefaultBlockColor,
		CustomTextColor: models.DefaultBlockTextColor,
	}
}

func newTestRenderer(t *testing.T) *Renderer {
	t.Helper()
	r, err := NewRenderer(nil, 20*time.Second)
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	return r
}
