// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// GalleryAlbum is a named collection of photos.
type GalleryAlbum struct {
	ID          uuid.UUID `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	CoverRef    string    `json:"cover_ref"`
	CreatedAt   time.Time `json:"created_at"`

	// Virtual field populated by store methods.
	ImageCount int `json:"image_count"`
}

// GalleryImage is a single photo inside an album.
type GalleryImage struct {
	ID        uuid.UUID `json:"id"`
	AlbumID   uuid.UUID `json:"album_id"`
	ImageRef  string    `json:"image_ref"`
	Caption   string    `json:"caption"`
	CreatedAt time.Time `json:"created_at"`
}
