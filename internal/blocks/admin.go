// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"schoolportal/internal/models"
	"schoolportal/internal/slug"
)

// Repository persists the block registry.
type Repository interface {
	BlockLister
	FindByID(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error)
	Create(ctx context.Context, b *models.DisplayBlock) (*models.DisplayBlock, error)
	Update(ctx context.Context, b *models.DisplayBlock) error
	Delete(ctx context.Context, id uuid.UUID) error
	MaxOrder(ctx context.Context, pos models.Position) (int, error)
	SaveOrder(ctx context.Context, items []models.BlockOrder) error
}

// CategoryLister reads the live post categories a block source may name.
type CategoryLister interface {
	List(ctx context.Context) ([]models.PostCategory, error)
}

// Direction is a reorder step within a position group.
type Direction int

const (
	Up Direction = iota
	Down
)

// Service implements the block administration operations. Writes are
// confirmed by the repository before the caller sees the new state.
type Service struct {
	repo       Repository
	categories CategoryLister
}

// NewService creates a Service.
func NewService(repo Repository, categories CategoryLister) *Service {
	return &Service{repo: repo, categories: categories}
}

// NewDraft returns a block pre-filled with the defaults of the "new block"
// form.
func NewDraft() models.DisplayBlock {
	return models.DisplayBlock{
		Type:            models.BlockGrid,
		Position:        models.PositionMain,
		ItemCount:       models.DefaultItemCount,
		IsVisible:       true,
		TargetPage:      models.TargetAll,
		Source:          models.SourceAll,
		CustomColor:     models.DefaultBlockColor,
		CustomTextColor: models.DefaultBlockTextColor,
	}
}

// ApplyTypePreset fills in the fields a block type implies when the admin
// has left them blank. Video blocks get their standard title and go to the
// sidebar.
func ApplyTypePreset(b *models.DisplayBlock) {
	if b.Type != models.BlockVideo {
		return
	}
	if strings.TrimSpace(b.Name) == "" {
		b.Name = models.DefaultVideoBlockName
	}
	if b.Position == "" {
		b.Position = models.PositionSidebar
	}
}

// NewDraftOfType returns the "new block" form defaults for a block type,
// with that type's preset applied.
func NewDraftOfType(t models.BlockType) models.DisplayBlock {
	b := NewDraft()
	b.Type = t
	b.Position = ""
	ApplyTypePreset(&b)
	if b.Position == "" {
		b.Position = models.PositionMain
	}
	return b
}

// List returns the registry sorted by position, then order.
func (s *Service) List(ctx context.Context) ([]models.DisplayBlock, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blocks: %w", err)
	}
	SortRegistry(all)
	return all, nil
}

// Get returns a single block or ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error) {
	b, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find block: %w", err)
	}
	if b == nil {
		return nil, ErrNotFound
	}
	return b, nil
}

// Create validates and stores a new block at the end of its position group.
func (s *Service) Create(ctx context.Context, draft models.DisplayBlock) (*models.DisplayBlock, error) {
	b := draft
	b.ID = uuid.Nil
	ApplyTypePreset(&b)
	s.clean(&b)

	if err := s.validate(ctx, &b, true); err != nil {
		return nil, err
	}

	max, err := s.repo.MaxOrder(ctx, b.Position)
	if err != nil {
		return nil, fmt.Errorf("next block order: %w", err)
	}
	b.Order = max + 1

	created, err := s.repo.Create(ctx, &b)
	if err != nil {
		return nil, fmt.Errorf("create block: %w", err)
	}
	return created, nil
}

// BlockPatch lists the fields an update may change. Nil fields keep their
// stored value.
type BlockPatch struct {
	Name            *string
	Position        *models.Position
	Type            *models.BlockType
	ItemCount       *int
	IsVisible       *bool
	TargetPage      *models.TargetPage
	Source          *models.Source
	RawMarkup       *string
	CustomColor     *string
	CustomTextColor *string
}

// Update merges a patch into a stored block. Moving a block to another
// position puts it at the end of that group. The source category is only
// checked when the source or type changes, so a block whose category was
// deleted can still be hidden or renamed.
func (s *Service) Update(ctx context.Context, id uuid.UUID, patch BlockPatch) (*models.DisplayBlock, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	b := *current
	set(&b.Name, patch.Name)
	set(&b.Position, patch.Position)
	set(&b.Type, patch.Type)
	set(&b.ItemCount, patch.ItemCount)
	set(&b.IsVisible, patch.IsVisible)
	set(&b.TargetPage, patch.TargetPage)
	set(&b.Source, patch.Source)
	set(&b.RawMarkup, patch.RawMarkup)
	set(&b.CustomColor, patch.CustomColor)
	set(&b.CustomTextColor, patch.CustomTextColor)
	s.clean(&b)

	sourceChanged := b.Source != current.Source || b.Type != current.Type
	if err := s.validate(ctx, &b, sourceChanged); err != nil {
		return nil, err
	}

	if b.Position != current.Position {
		max, err := s.repo.MaxOrder(ctx, b.Position)
		if err != nil {
			return nil, fmt.Errorf("next block order: %w", err)
		}
		b.Order = max + 1
	}

	if err := s.repo.Update(ctx, &b); err != nil {
		return nil, fmt.Errorf("update block: %w", err)
	}
	return &b, nil
}

func set[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

// ToggleVisibility flips a block between shown and hidden.
func (s *Service) ToggleVisibility(ctx context.Context, id uuid.UUID) (*models.DisplayBlock, error) {
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	visible := !current.IsVisible
	return s.Update(ctx, id, BlockPatch{IsVisible: &visible})
}

// Delete removes a block. Nothing references blocks, so there is nothing
// to check first.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete block: %w", err)
	}
	return nil
}

// Move swaps a block with its neighbour inside its position group and
// renumbers the group 1..N. Moving the first block up or the last block
// down changes nothing. The registry is always re-read after a write, and
// that fresh copy is returned even when the write failed.
func (s *Service) Move(ctx context.Context, id uuid.UUID, dir Direction) ([]models.DisplayBlock, error) {
	all, err := s.List(ctx)
	if err != nil {
		return nil, err
	}

	i := slices.IndexFunc(all, func(b models.DisplayBlock) bool { return b.ID == id })
	if i < 0 {
		return all, ErrNotFound
	}
	pos := all[i].Position

	var group []models.DisplayBlock
	for _, b := range all {
		if b.Position == pos {
			group = append(group, b)
		}
	}
	idx := slices.IndexFunc(group, func(b models.DisplayBlock) bool { return b.ID == id })

	target := idx - 1
	if dir == Down {
		target = idx + 1
	}
	if target < 0 || target >= len(group) {
		return all, nil
	}

	group[idx], group[target] = group[target], group[idx]
	batch := Renumber(group)

	saveErr := s.repo.SaveOrder(ctx, batch)

	fresh, err := s.List(ctx)
	if err != nil {
		return nil, errors.Join(saveErr, err)
	}
	if saveErr != nil {
		return fresh, fmt.Errorf("save block order: %w", saveErr)
	}
	return fresh, nil
}

// Renumber assigns orders 1..N to a group in its current sequence and
// returns the batch to persist.
func Renumber(group []models.DisplayBlock) []models.BlockOrder {
	batch := make([]models.BlockOrder, len(group))
	for i := range group {
		group[i].Order = i + 1
		batch[i] = models.BlockOrder{ID: group[i].ID, Order: i + 1}
	}
	return batch
}

// clean trims free-text fields, normalises the source and enforces the
// markup/source split for the block's type.
func (s *Service) clean(b *models.DisplayBlock) {
	b.Name = strings.TrimSpace(b.Name)
	b.CustomColor = strings.ToLower(strings.TrimSpace(b.CustomColor))
	b.CustomTextColor = strings.ToLower(strings.TrimSpace(b.CustomTextColor))
	if b.CustomColor == "" {
		b.CustomColor = models.DefaultBlockColor
	}
	if b.CustomTextColor == "" {
		b.CustomTextColor = models.DefaultBlockTextColor
	}

	src := models.Source(strings.TrimSpace(string(b.Source)))
	if src.IsCategory() {
		src = models.Source(slug.Generate(string(src)))
	}
	b.Source = src
	b.Normalize()
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-f]{3}|[0-9a-f]{6})$`)

// validate checks a cleaned block. The live category list is consulted
// only when checkSource is set.
func (s *Service) validate(ctx context.Context, b *models.DisplayBlock, checkSource bool) error {
	var known map[string]bool
	if checkSource {
		var err error
		if known, err = s.knownCategories(ctx, b.Source); err != nil {
			return err
		}
	}

	err := validation.ValidateStruct(b,
		validation.Field(&b.Name,
			validation.By(sentinelIf(func(v any) bool { return v.(string) == "" }, ErrNameRequired)),
			validation.RuneLength(0, 255).Error("Tên khối tối đa 255 ký tự."),
		),
		validation.Field(&b.Position,
			validation.By(sentinelIf(func(v any) bool { return !slices.Contains(models.Positions, v.(models.Position)) }, ErrInvalidPosition)),
		),
		validation.Field(&b.Type,
			validation.By(sentinelIf(func(v any) bool { return !slices.Contains(models.BlockTypes, v.(models.BlockType)) }, ErrInvalidType)),
		),
		validation.Field(&b.TargetPage,
			validation.By(sentinelIf(func(v any) bool { return !slices.Contains(models.TargetPages, v.(models.TargetPage)) }, ErrInvalidTarget)),
		),
		validation.Field(&b.ItemCount,
			validation.Min(0).Error("Số mục không được âm."),
			validation.Max(50).Error("Số mục tối đa là 50."),
		),
		validation.Field(&b.Source,
			validation.By(sentinelIf(func(v any) bool {
				src := v.(models.Source)
				return src.IsCategory() && known != nil && !known[string(src)]
			}, ErrUnknownCategory)),
		),
		validation.Field(&b.RawMarkup,
			validation.When(b.Type == models.BlockHTML, validation.Required.Error("Khối HTML cần có nội dung.")),
		),
		validation.Field(&b.CustomColor, validation.Match(hexColor).Error("Màu nền phải có dạng #1e3a8a.")),
		validation.Field(&b.CustomTextColor, validation.Match(hexColor).Error("Màu chữ phải có dạng #ffffff.")),
	)
	if err == nil {
		return nil
	}

	var fields validation.Errors
	if errors.As(err, &fields) {
		return &ValidationError{Fields: fields}
	}
	return fmt.Errorf("validate block: %w", err)
}

// knownCategories loads the live category slugs, only when the source
// actually names a category. A nil map means there is nothing to check.
func (s *Service) knownCategories(ctx context.Context, src models.Source) (map[string]bool, error) {
	if !src.IsCategory() || s.categories == nil {
		return nil, nil
	}
	cats, err := s.categories.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load post categories: %w", err)
	}
	known := make(map[string]bool, len(cats))
	for _, c := range cats {
		known[c.Slug] = true
	}
	return known, nil
}

// sentinelIf builds a rule that reports err when bad(value) holds.
func sentinelIf(bad func(any) bool, err error) validation.RuleFunc {
	return func(value any) error {
		if bad(value) {
			return err
		}
		return nil
	}
}
