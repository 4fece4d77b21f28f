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

	"schoolportal/internal/models"
)

// GalleryStore manages photo albums and their images.
type GalleryStore struct {
	db *sql.DB
}

// NewGalleryStore returns a new GalleryStore.
func NewGalleryStore(db *sql.DB) *GalleryStore {
	return &GalleryStore{db: db}
}

// Albums returns all albums, newest first, with their image counts.
func (s *GalleryStore) Albums(ctx context.Context) ([]models.GalleryAlbum, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.id, a.title, a.description, a.cover_ref, a.created_at, COUNT(i.id)
		FROM gallery_albums a
		LEFT JOIN gallery_images i ON i.album_id = a.id
		GROUP BY a.id
		ORDER BY a.created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list albums: %w", err)
	}
	defer rows.Close()

	var albums []models.GalleryAlbum
	for rows.Next() {
		var a models.GalleryAlbum
		if err := rows.Scan(&a.ID, &a.Title, &a.Description, &a.CoverRef, &a.CreatedAt, &a.ImageCount); err != nil {
			return nil, fmt.Errorf("scan album: %w", err)
		}
		albums = append(albums, a)
	}
	return albums, rows.Err()
}

// FindAlbum retrieves an album by ID. Returns nil if not found.
func (s *GalleryStore) FindAlbum(ctx context.Context, id uuid.UUID) (*models.GalleryAlbum, error) {
	a := &models.GalleryAlbum{}
	err := s.db.QueryRowContext(ctx, `
		SELECT id, title, description, cover_ref, created_at FROM gallery_albums WHERE id = $1
	`, id).Scan(&a.ID, &a.Title, &a.Description, &a.CoverRef, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find album: %w", err)
	}
	return a, nil
}

// Images returns the images of one album in upload order.
func (s *GalleryStore) Images(ctx context.Context, albumID uuid.UUID) ([]models.GalleryImage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, album_id, image_ref, caption, created_at
		FROM gallery_images WHERE album_id = $1 ORDER BY created_at`, albumID)
	if err != nil {
		return nil, fmt.Errorf("list album images: %w", err)
	}
	defer rows.Close()

	var images []models.GalleryImage
	for rows.Next() {
		var img models.GalleryImage
		if err := rows.Scan(&img.ID, &img.AlbumID, &img.ImageRef, &img.Caption, &img.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan album image: %w", err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}
