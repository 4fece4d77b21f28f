// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// Video is an entry in the school's video playlist. YouTubeURL may hold a
// watch link, a share link, embed markup or a bare video ID.
type Video struct {
	ID         uuid.UUID `json:"id"`
	Title      string    `json:"title"`
	YouTubeURL string    `json:"youtube_url"`
	SortOrder  int       `json:"sort_order"`
	CreatedAt  time.Time `json:"created_at"`
}

func (v Video) Visible() bool { return true }
func (v Video) Rank() int     { return v.SortOrder }

// StaffMember is a teacher or staff listing.
type StaffMember struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Title      string    `json:"title"`
	Department string    `json:"department"`
	PhotoRef   string    `json:"photo_ref"`
	Email      string    `json:"email"`
	SortOrder  int       `json:"sort_order"`
	IsVisible  bool      `json:"is_visible"`
	CreatedAt  time.Time `json:"created_at"`
}

func (s StaffMember) Visible() bool { return s.IsVisible }
func (s StaffMember) Rank() int     { return s.SortOrder }

// IntroArticle is an entry of the "about the school" section.
type IntroArticle struct {
	ID        uuid.UUID `json:"id"`
	Title     string    `json:"title"`
	Slug      string    `json:"slug"`
	Content   string    `json:"content"` // Markdown
	SortOrder int       `json:"sort_order"`
	IsVisible bool      `json:"is_visible"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (a IntroArticle) Visible() bool { return a.IsVisible }
func (a IntroArticle) Rank() int     { return a.SortOrder }

// MenuItem is a link in the public navigation bar.
type MenuItem struct {
	ID        uuid.UUID `json:"id"`
	Label     string    `json:"label"`
	Path      string    `json:"path"`
	SortOrder int       `json:"sort_order"`
}

func (m MenuItem) Visible() bool { return true }
func (m MenuItem) Rank() int     { return m.SortOrder }

// DefaultMenu is shown when no menu items are configured.
var DefaultMenu = []MenuItem{
	{Label: "Trang chủ", Path: "/", SortOrder: 1},
	{Label: "Tin tức", Path: "/news", SortOrder: 2},
	{Label: "Giới thiệu", Path: "/about", SortOrder: 3},
	{Label: "Đội ngũ", Path: "/staff", SortOrder: 4},
	{Label: "Văn bản", Path: "/documents", SortOrder: 5},
	{Label: "Thư viện ảnh", Path: "/gallery", SortOrder: 6},
}

// VisitorStats is a point-in-time reading of site traffic.
type VisitorStats struct {
	Total  int64 `json:"total"`
	Today  int64 `json:"today"`
	Month  int64 `json:"month"`
	Online int64 `json:"online"`
}
