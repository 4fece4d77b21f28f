// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"schoolportal/internal/models"
)

// BlockStore persists display blocks.
type BlockStore struct {
	db *sql.DB
}

// NewBlockStore returns a new BlockStore.
func NewBlockStore(db *sql.DB) *BlockStore {
	return &BlockStore{db: db}
}

const blockColumns = `id, name, position, type, sort_order, item_count, is_visible,
	target_page, source, raw_markup, custom_color, custom_text_color, created_at, updated_at`

func scanBlock(scanner interface{ Scan(...any) error }) (*models.DisplayBlock, error) {
	var b models.DisplayBlock
	err := scanner.Scan(
		&b.ID, &b.Name, &b.Position, &b.Type, &b.Order, &b.ItemCount, &b.IsVisible,
		&b.TargetPage, &b.Source, &b.RawMarkup, &b.CustomColor, &b.CustomTextColor,
		&b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// List returns every block, grouped by position and ordered within it.
func (s *BlockStore) List(ctx context.Context) ([]models.DisplayBlock, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+blockColumns+` FROM display_blocks
		ORDER BY position, sort_order, created_at`)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	defer rows.Close()

	var blocks []models.DisplayBlock
	for rows.Next() {
		b, err := scanBlock(rows)
		if err != nil {
			return nil, fmt.Errorf("scan block: %w", err)
		}
		blocks = append(blocks, *b)
	}
	return blocks, rows.Err()
}

// FindByID retrieves a block by ID. Returns nil if not found.
func (s *BlockStore) FindByID(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+blockColumns+` FROM display_blocks WHERE id = $1`, id)
	b, err := scanBlock(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find block by id: %w", err)
	}
	return b, nil
}

// Create inserts a new block and returns it with its generated ID.
func (s *BlockStore) Create(ctx context.Context, b *models.DisplayBlock) (*models.DisplayBlock, error) {
	row := s.db.QueryRowContext(ctx, `
		INSERT INTO display_blocks (name, position, type, sort_order, item_count, is_visible,
			target_page, source, raw_markup, custom_color, custom_text_color)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING `+blockColumns,
		b.Name, b.Position, b.Type, b.Order, b.ItemCount, b.IsVisible,
		b.TargetPage, b.Source, b.RawMarkup, b.CustomColor, b.CustomTextColor,
	)
	created, err := scanBlock(row)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return created, nil
}

// Update writes the editable columns of an existing block. sort_order is
// owned by SaveOrder and only written here when the block changes position,
// so an edit never undoes a concurrent reorder.
func (s *BlockStore) Update(ctx context.Context, b *models.DisplayBlock) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE display_blocks SET
			name = $1, position = $2, type = $3,
			sort_order = CASE WHEN position <> $2 THEN $4 ELSE sort_order END,
			item_count = $5, is_visible = $6, target_page = $7, source = $8, raw_markup = $9,
			custom_color = $10, custom_text_color = $11, updated_at = NOW()
		WHERE id = $12
	`, b.Name, b.Position, b.Type, b.Order, b.ItemCount,
		b.IsVisible, b.TargetPage, b.Source, b.RawMarkup,
		b.CustomColor, b.CustomTextColor, b.ID)
	if err != nil {
		return fmt.Errorf("update block: %w", err)
	}
	return nil
}

// Delete removes a block by ID. Deleting a missing block is not an error.
func (s *BlockStore) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM display_blocks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// MaxOrder returns the highest sort_order within a position, or 0 for an
// empty group.
func (s *BlockStore) MaxOrder(ctx context.Context, pos models.Position) (int, error) {
	var maxOrder sql.NullInt64
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(sort_order) FROM display_blocks WHERE position = $1`, pos,
	).Scan(&maxOrder)
	if err != nil {
		return 0, fmt.Errorf("max block order: %w", err)
	}
	if maxOrder.Valid {
		return int(maxOrder.Int64), nil
	}
	return 0, nil
}

// SaveOrder writes new sort_order values for a batch of blocks in a single
// transaction.
func (s *BlockStore) SaveOrder(ctx context.Context, items []models.BlockOrder) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		UPDATE display_blocks SET sort_order = $1, updated_at = $2 WHERE id = $3`)
	if err != nil {
		return fmt.Errorf("prepare block reorder: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, item := range items {
		if _, err := stmt.ExecContext(ctx, item.Order, now, item.ID); err != nil {
			return fmt.Errorf("reorder block %s: %w", item.ID, err)
		}
	}

	return tx.Commit()
}
