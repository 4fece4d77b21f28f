// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentCategory groups official school documents (decisions, plans,
// announcements).
type DocumentCategory struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	SortOrder   int       `json:"sort_order"`
	CreatedAt   time.Time `json:"created_at"`
}

func (c DocumentCategory) Visible() bool { return true }
func (c DocumentCategory) Rank() int     { return c.SortOrder }

// Document is an official document with an issue number and a downloadable
// file. FileRef is either an absolute URL or an object storage key in the
// private bucket.
type Document struct {
	ID         uuid.UUID  `json:"id"`
	Number     string     `json:"number"`
	Title      string     `json:"title"`
	IssuedAt   time.Time  `json:"issued_at"`
	CategoryID *uuid.UUID `json:"category_id,omitempty"`
	FileRef    string     `json:"file_ref"`
	CreatedAt  time.Time  `json:"created_at"`
}
