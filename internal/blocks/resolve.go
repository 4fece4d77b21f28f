// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"slices"

	"schoolportal/internal/models"
)

// ResolvePosts computes the posts a block displays: published posts that
// match the block's source, newest first, capped at the block's limit.
// The input slice is never modified. Posts with equal publish dates keep
// their snapshot order, so repeated calls return identical results.
func ResolvePosts(block models.DisplayBlock, posts []models.Post) []models.Post {
	var out []models.Post
	for _, p := range posts {
		if !p.IsPublished() {
			continue
		}
		if !matchesSource(block.Source, p) {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b models.Post) int {
		return b.PublishedAt.Compare(a.PublishedAt)
	})

	if limit := block.Limit(); len(out) > limit {
		out = out[:limit]
	}
	return out
}

func matchesSource(src models.Source, p models.Post) bool {
	switch src {
	case "", models.SourceAll:
		return true
	case models.SourceFeatured:
		return p.IsFeatured
	default:
		return p.Category == string(src)
	}
}

// Orderable is implemented by content kinds that carry a visibility flag
// and an explicit display order.
type Orderable interface {
	Visible() bool
	Rank() int
}

// ResolveOrdered returns the visible items sorted by ascending order.
// A limit of zero or less returns every visible item.
func ResolveOrdered[T Orderable](items []T, limit int) []T {
	var out []T
	for _, it := range items {
		if it.Visible() {
			out = append(out, it)
		}
	}

	slices.SortStableFunc(out, func(a, b T) int {
		return a.Rank() - b.Rank()
	})

	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}
