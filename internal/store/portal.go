// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"schoolportal/internal/models"
)

// VideoStore manages the video playlist.
type VideoStore struct {
	db *sql.DB
}

// NewVideoStore returns a new VideoStore.
func NewVideoStore(db *sql.DB) *VideoStore {
	return &VideoStore{db: db}
}

// List returns the playlist in display order.
func (s *VideoStore) List(ctx context.Context) ([]models.Video, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, youtube_url, sort_order, created_at
		FROM videos ORDER BY sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list videos: %w", err)
	}
	defer rows.Close()

	var videos []models.Video
	for rows.Next() {
		var v models.Video
		if err := rows.Scan(&v.ID, &v.Title, &v.YouTubeURL, &v.SortOrder, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan video: %w", err)
		}
		videos = append(videos, v)
	}
	return videos, rows.Err()
}

// StaffStore manages the staff directory.
type StaffStore struct {
	db *sql.DB
}

// NewStaffStore returns a new StaffStore.
func NewStaffStore(db *sql.DB) *StaffStore {
	return &StaffStore{db: db}
}

// List returns every staff member, hidden ones included.
func (s *StaffStore) List(ctx context.Context) ([]models.StaffMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, title, department, photo_ref, email, sort_order, is_visible, created_at
		FROM staff_members ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	defer rows.Close()

	var staff []models.StaffMember
	for rows.Next() {
		var m models.StaffMember
		if err := rows.Scan(
			&m.ID, &m.Name, &m.Title, &m.Department, &m.PhotoRef, &m.Email,
			&m.SortOrder, &m.IsVisible, &m.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan staff member: %w", err)
		}
		staff = append(staff, m)
	}
	return staff, rows.Err()
}

// IntroStore manages the "about the school" articles.
type IntroStore struct {
	db *sql.DB
}

// NewIntroStore returns a new IntroStore.
func NewIntroStore(db *sql.DB) *IntroStore {
	return &IntroStore{db: db}
}

const introColumns = `id, title, slug, content, sort_order, is_visible, created_at, updated_at`

func scanIntro(scanner interface{ Scan(...any) error }) (*models.IntroArticle, error) {
	var a models.IntroArticle
	err := scanner.Scan(&a.ID, &a.Title, &a.Slug, &a.Content, &a.SortOrder, &a.IsVisible, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// List returns every intro article, hidden ones included.
func (s *IntroStore) List(ctx context.Context) ([]models.IntroArticle, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+introColumns+` FROM intro_articles ORDER BY sort_order, title`)
	if err != nil {
		return nil, fmt.Errorf("list intro articles: %w", err)
	}
	defer rows.Close()

	var items []models.IntroArticle
	for rows.Next() {
		a, err := scanIntro(rows)
		if err != nil {
			return nil, fmt.Errorf("scan intro article: %w", err)
		}
		items = append(items, *a)
	}
	return items, rows.Err()
}

// FindBySlug retrieves an intro article by slug. Returns nil if not found.
func (s *IntroStore) FindBySlug(ctx context.Context, slug string) (*models.IntroArticle, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+introColumns+` FROM intro_articles WHERE slug = $1`, slug)
	a, err := scanIntro(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find intro article: %w", err)
	}
	return a, nil
}

// MenuStore manages the public navigation menu.
type MenuStore struct {
	db *sql.DB
}

// NewMenuStore returns a new MenuStore.
func NewMenuStore(db *sql.DB) *MenuStore {
	return &MenuStore{db: db}
}

// List returns the menu items in display order.
func (s *MenuStore) List(ctx context.Context) ([]models.MenuItem, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, label, path, sort_order FROM menu_items ORDER BY sort_order`)
	if err != nil {
		return nil, fmt.Errorf("list menu items: %w", err)
	}
	defer rows.Close()

	var items []models.MenuItem
	for rows.Next() {
		var m models.MenuItem
		if err := rows.Scan(&m.ID, &m.Label, &m.Path, &m.SortOrder); err != nil {
			return nil, fmt.Errorf("scan menu item: %w", err)
		}
		items = append(items, m)
	}
	return items, rows.Err()
}
