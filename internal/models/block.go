// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Position is the page region a display block is placed in.
type Position string

const (
	PositionMain    Position = "main"
	PositionSidebar Position = "sidebar"
)

// Positions lists every valid position in display order.
var Positions = []Position{PositionMain, PositionSidebar}

// BlockType selects how a display block is rendered.
type BlockType string

const (
	BlockHero      BlockType = "hero"
	BlockGrid      BlockType = "grid"
	BlockList      BlockType = "list"
	BlockHighlight BlockType = "highlight"
	BlockDocs      BlockType = "docs"
	BlockHTML      BlockType = "html"
	BlockStats     BlockType = "stats"
	BlockVideo     BlockType = "video"
)

// BlockTypes lists every known block type, in the order the admin form shows them.
var BlockTypes = []BlockType{
	BlockHero, BlockGrid, BlockList, BlockHighlight,
	BlockDocs, BlockHTML, BlockStats, BlockVideo,
}

// UsesPosts reports whether blocks of this type draw their items from
// published posts through the source filter.
func (t BlockType) UsesPosts() bool {
	switch t {
	case BlockHero, BlockGrid, BlockList, BlockHighlight:
		return true
	}
	return false
}

// TargetPage restricts the page contexts a block may appear on.
type TargetPage string

const (
	TargetAll    TargetPage = "all"
	TargetHome   TargetPage = "home"
	TargetDetail TargetPage = "detail"
)

// TargetPages lists every valid target page.
var TargetPages = []TargetPage{TargetAll, TargetHome, TargetDetail}

// Source selects the subset of posts a block draws from: every published
// post, only featured ones, or a single post category identified by slug.
type Source string

const (
	SourceAll      Source = "all"
	SourceFeatured Source = "featured"
)

// IsCategory reports whether the source names a post category rather
// than one of the reserved tokens.
func (s Source) IsCategory() bool {
	return s != "" && s != SourceAll && s != SourceFeatured
}

// Default values applied to new blocks.
const (
	DefaultBlockColor     = "#1e3a8a"
	DefaultBlockTextColor = "#ffffff"
	DefaultItemCount      = 4
	DefaultVideoBlockName = "VIDEO HOẠT ĐỘNG"

	// ResolveFallbackLimit caps resolution when a block has no item count.
	ResolveFallbackLimit = 5
)

// DisplayBlock is a configured, positioned unit of page content. Source
// and RawMarkup are mutually exclusive: html blocks carry markup, every
// other type carries a source. Call Normalize before persisting.
type DisplayBlock struct {
	ID              uuid.UUID  `json:"id"`
	Name            string     `json:"name"`
	Position        Position   `json:"position"`
	Type            BlockType  `json:"type"`
	Order           int        `json:"order"`
	ItemCount       int        `json:"item_count"`
	IsVisible       bool       `json:"is_visible"`
	TargetPage      TargetPage `json:"target_page"`
	Source          Source     `json:"source,omitempty"`
	RawMarkup       string     `json:"raw_markup,omitempty"`
	CustomColor     string     `json:"custom_color"`
	CustomTextColor string     `json:"custom_text_color"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

// Normalize enforces the markup/source split for the block's type and
// fills in an empty source with SourceAll for non-html types.
func (b *DisplayBlock) Normalize() {
	if b.Type == BlockHTML {
		b.Source = ""
		return
	}
	b.RawMarkup = ""
	if b.Source == "" {
		b.Source = SourceAll
	}
}

// Limit returns the number of items the block displays, falling back to
// ResolveFallbackLimit when ItemCount is unset.
func (b *DisplayBlock) Limit() int {
	if b.ItemCount <= 0 {
		return ResolveFallbackLimit
	}
	return b.ItemCount
}

// AppliesTo reports whether the block may render on the given page. Blocks
// targeted at "all" render everywhere.
func (b *DisplayBlock) AppliesTo(page TargetPage) bool {
	return b.TargetPage == TargetAll || b.TargetPage == page
}

// BlockOrder assigns a new order value to one block.
type BlockOrder struct {
	ID    uuid.UUID
	Order int
}
