// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"slices"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"schoolportal/internal/models"
)

// BlockLister reads the block registry.
type BlockLister interface {
	List(ctx context.Context) ([]models.DisplayBlock, error)
}

// PostLister reads every post. Filtering happens in ResolvePosts.
type PostLister interface {
	List(ctx context.Context) ([]models.Post, error)
}

// DocumentLister reads documents and document categories.
type DocumentLister interface {
	List(ctx context.Context) ([]models.Document, error)
	Categories(ctx context.Context) ([]models.DocumentCategory, error)
}

// VideoLister reads the video playlist.
type VideoLister interface {
	List(ctx context.Context) ([]models.Video, error)
}

// Sources are the collaborators a Composer reads from. Any field other
// than Blocks may be nil; the matching content is then treated as empty.
type Sources struct {
	Blocks    BlockLister
	Posts     PostLister
	Documents DocumentLister
	Videos    VideoLister
	Stats     StatsSource
}

// Rendered is one block's HTML, ready to place in a page region.
type Rendered struct {
	BlockID uuid.UUID
	Type    models.BlockType
	HTML    template.HTML
}

// Layout is a composed page: the main column and the sidebar.
type Layout struct {
	Main    []Rendered
	Sidebar []Rendered
}

// Composer assembles page regions from the block registry. Every call reads
// fresh data; nothing is cached between compositions.
type Composer struct {
	src      Sources
	renderer *Renderer
}

// NewComposer creates a Composer.
func NewComposer(src Sources, renderer *Renderer) *Composer {
	return &Composer{src: src, renderer: renderer}
}

// Compose renders the blocks of one region for a page. A failure in any
// single block, or in loading any single content kind, only removes the
// affected blocks; it never fails the region.
func (c *Composer) Compose(ctx context.Context, page PageContext, pos models.Position, cfg models.SchoolConfig) []Rendered {
	registry, ok := c.registry(ctx)
	if !ok {
		return nil
	}
	selected := c.selectFor(registry, page, pos, cfg)
	snap := c.load(ctx, selected)
	return c.renderAll(selected, snap)
}

// ComposePage renders both regions of a page from a single snapshot.
func (c *Composer) ComposePage(ctx context.Context, page PageContext, cfg models.SchoolConfig) Layout {
	registry, ok := c.registry(ctx)
	if !ok {
		return Layout{}
	}
	main := c.selectFor(registry, page, models.PositionMain, cfg)
	side := c.selectFor(registry, page, models.PositionSidebar, cfg)

	snap := c.load(ctx, slices.Concat(main, side))
	return Layout{
		Main:    c.renderAll(main, snap),
		Sidebar: c.renderAll(side, snap),
	}
}

// Preview renders a single block regardless of its visibility or target
// page. The back office uses it to show what a block will look like.
func (c *Composer) Preview(ctx context.Context, b models.DisplayBlock) (template.HTML, error) {
	snap := c.load(ctx, []models.DisplayBlock{b})
	return c.renderOne(b, snap)
}

func (c *Composer) registry(ctx context.Context) ([]models.DisplayBlock, bool) {
	all, err := c.src.Blocks.List(ctx)
	if err != nil {
		slog.Error("load block registry failed", "error", err)
		return nil, false
	}
	return all, true
}

func (c *Composer) selectFor(all []models.DisplayBlock, page PageContext, pos models.Position, cfg models.SchoolConfig) []models.DisplayBlock {
	selected := SelectBlocks(all, page, pos)
	if cfg.ShowWelcomeBanner {
		return selected
	}
	return slices.DeleteFunc(selected, func(b models.DisplayBlock) bool {
		return b.Type == models.BlockHero
	})
}

func (c *Composer) renderAll(selected []models.DisplayBlock, snap *snapshot) []Rendered {
	var out []Rendered
	for _, b := range selected {
		html, err := c.renderOne(b, snap)
		if err != nil {
			slog.Warn("block render failed", "block_id", b.ID, "type", b.Type, "error", err)
			continue
		}
		if html == "" {
			continue
		}
		out = append(out, Rendered{BlockID: b.ID, Type: b.Type, HTML: html})
	}
	return out
}

// renderOne resolves and renders a single block, converting a panic into
// an error so one bad block cannot take down the page.
func (c *Composer) renderOne(b models.DisplayBlock, snap *snapshot) (html template.HTML, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			html, err = "", fmt.Errorf("block %s panicked: %v", b.ID, rec)
		}
	}()
	return c.renderer.Render(b, snap.itemsFor(b))
}

// snapshot is the content read for one composition.
type snapshot struct {
	posts         []models.Post
	documents     []models.Document
	docCategories []models.DocumentCategory
	videos        []models.Video
	stats         models.VisitorStats
}

func (s *snapshot) itemsFor(b models.DisplayBlock) Items {
	switch {
	case b.Type.UsesPosts():
		return Items{Posts: ResolvePosts(b, s.posts)}
	case b.Type == models.BlockDocs:
		return Items{Documents: s.documents, DocCategories: s.docCategories}
	case b.Type == models.BlockVideo:
		return Items{Videos: s.videos}
	case b.Type == models.BlockStats:
		return Items{Stats: s.stats}
	}
	return Items{}
}

// load reads, in parallel, only the content kinds the given blocks need.
// Each kind that fails is logged and left empty.
func (c *Composer) load(ctx context.Context, selected []models.DisplayBlock) *snapshot {
	var needPosts, needDocs, needVideos, needStats bool
	for _, b := range selected {
		switch {
		case b.Type.UsesPosts():
			needPosts = true
		case b.Type == models.BlockDocs:
			needDocs = true
		case b.Type == models.BlockVideo:
			needVideos = true
		case b.Type == models.BlockStats:
			needStats = true
		}
	}

	snap := &snapshot{}
	var g errgroup.Group

	if needPosts && c.src.Posts != nil {
		g.Go(func() error {
			posts, err := c.src.Posts.List(ctx)
			if err != nil {
				slog.Warn("load posts failed, treating as empty", "error", err)
				return nil
			}
			snap.posts = posts
			return nil
		})
	}
	if needDocs && c.src.Documents != nil {
		g.Go(func() error {
			docs, err := c.src.Documents.List(ctx)
			if err != nil {
				slog.Warn("load documents failed, treating as empty", "error", err)
				return nil
			}
			slices.SortStableFunc(docs, func(a, b models.Document) int {
				return b.IssuedAt.Compare(a.IssuedAt)
			})
			snap.documents = docs
			return nil
		})
		g.Go(func() error {
			cats, err := c.src.Documents.Categories(ctx)
			if err != nil {
				slog.Warn("load document categories failed, treating as empty", "error", err)
				return nil
			}
			snap.docCategories = cats
			return nil
		})
	}
	if needVideos && c.src.Videos != nil {
		g.Go(func() error {
			videos, err := c.src.Videos.List(ctx)
			if err != nil {
				slog.Warn("load videos failed, treating as empty", "error", err)
				return nil
			}
			snap.videos = videos
			return nil
		})
	}
	if needStats && c.src.Stats != nil {
		g.Go(func() error {
			stats, err := c.src.Stats.Stats(ctx)
			if err != nil {
				slog.Warn("load visitor stats failed, treating as zero", "error", err)
				return nil
			}
			snap.stats = stats
			return nil
		})
	}

	// Loaders never return errors; failures were already degraded above.
	_ = g.Wait()
	return snap
}
