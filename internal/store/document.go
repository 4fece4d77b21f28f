// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"fmt"

	"schoolportal/internal/models"
)

// DocumentStore manages official documents and their categories.
type DocumentStore struct {
	db *sql.DB
}

// NewDocumentStore returns a new DocumentStore.
func NewDocumentStore(db *sql.DB) *DocumentStore {
	return &DocumentStore{db: db}
}

// List returns every document, most recently issued first.
func (s *DocumentStore) List(ctx context.Context) ([]models.Document, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, number, title, issued_at, category_id, file_ref, created_at
		FROM documents ORDER BY issued_at DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var docs []models.Document
	for rows.Next() {
		var d models.Document
		if err := rows.Scan(&d.ID, &d.Number, &d.Title, &d.IssuedAt, &d.CategoryID, &d.FileRef, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

// Categories returns all document categories in display order.
func (s *DocumentStore) Categories(ctx context.Context) ([]models.DocumentCategory, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, slug, description, sort_order, created_at
		FROM document_categories ORDER BY sort_order, name`)
	if err != nil {
		return nil, fmt.Errorf("list document categories: %w", err)
	}
	defer rows.Close()

	var cats []models.DocumentCategory
	for rows.Next() {
		var c models.DocumentCategory
		if err := rows.Scan(&c.ID, &c.Name, &c.Slug, &c.Description, &c.SortOrder, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan document category: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// Count returns the number of stored documents.
func (s *DocumentStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}
