// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"schoolportal/internal/models"
)

// PostStore manages news posts.
type PostStore struct {
	db *sql.DB
}

// NewPostStore returns a new PostStore.
func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db}
}

const postColumns = `id, title, slug, summary, content, thumbnail, author, category, tags,
	views, status, is_featured, published_at, created_at, updated_at`

// scanPost scans a row into a Post. database/sql has no native array
// support, so the tags column goes through a pgtype scanner.
func scanPost(scanner interface{ Scan(...any) error }) (*models.Post, error) {
	var p models.Post
	m := pgtype.NewMap()
	err := scanner.Scan(
		&p.ID, &p.Title, &p.Slug, &p.Summary, &p.Content, &p.Thumbnail, &p.Author,
		&p.Category, m.SQLScanner(&p.Tags), &p.Views, &p.Status, &p.IsFeatured,
		&p.PublishedAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns every post regardless of status, newest first. Filtering by
// status, category or feature flag is left to the caller.
func (s *PostStore) List(ctx context.Context) ([]models.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+postColumns+` FROM posts ORDER BY published_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	var posts []models.Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

// FindBySlug retrieves a post by slug. Returns nil if not found.
func (s *PostStore) FindBySlug(ctx context.Context, slug string) (*models.Post, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE slug = $1`, slug)
	p, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find post by slug: %w", err)
	}
	return p, nil
}

// Create inserts a post and returns it.
func (s *PostStore) Create(ctx context.Context, p *models.Post) (*models.Post, error) {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (title, slug, summary, content, thumbnail, author, category, tags,
			status, is_featured, published_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+postColumns,
		p.Title, p.Slug, p.Summary, p.Content, p.Thumbnail, p.Author, p.Category, tags,
		p.Status, p.IsFeatured, p.PublishedAt,
	)
	created, err := scanPost(row)
	if err != nil {
		return nil, fmt.Errorf("create post: %w", err)
	}
	return created, nil
}

// Delete removes a post by ID.
func (s *PostStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return nil
}

// IncrementViews bumps the view counter of a post by one.
func (s *PostStore) IncrementViews(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `UPDATE posts SET views = views + 1 WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("increment post views: %w", err)
	}
	return nil
}

// CountByStatus returns how many posts exist per status.
func (s *PostStore) CountByStatus(ctx context.Context) (map[models.PostStatus]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM posts GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("count posts: %w", err)
	}
	defer rows.Close()

	counts := make(map[models.PostStatus]int)
	for rows.Next() {
		var status models.PostStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("scan post count: %w", err)
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// PostCategoryStore manages post categories.
type PostCategoryStore struct {
	db *sql.DB
}

// NewPostCategoryStore returns a new PostCategoryStore.
func NewPostCategoryStore(db *sql.DB) *PostCategoryStore {
	return &PostCategoryStore{db: db}
}

// List returns all post categories in display order.
func (s *PostCategoryStore) List(ctx context.Context) ([]models.PostCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, color, sort_order, created_at
		FROM post_categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list post categories: %w", err)
	}
	defer rows.Close()

	var cats []models.PostCategory
	for rows.Next() {
		var c models.PostCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Color, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan post category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Create inserts a post category. SortOrder is assigned as MAX+1.
func (s *PostCategoryStore) Create(ctx context.Context, c *models.PostCategory) (*models.PostCategory, error) {
	out := &models.PostCategory{}
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO post_categories (name, slug, color, sort_order)
		VALUES ($1, $2, $3, (SELECT COALESCE(MAX(sort_order), 0) + 1 FROM post_categories))
		RETURNING id, name, slug, color, sort_order, created_at
	`, c.Name, c.Slug, c.Color).Scan(
		&out.ID, &out.Name, &out.Slug, &out.Color, &out.SortOrder, &out.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("create post category: %w", err)
	}
	return out, nil
}

// Delete removes a post category. Posts keep their category slug.
func (s *PostCategoryStore) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM post_categories WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post category: %w", err)
	}
	return nil
}
