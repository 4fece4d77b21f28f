// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package blocks

import (
	"slices"

	"schoolportal/internal/models"
)

// PageContext is the kind of page a composition is for. Blocks targeted at
// home or detail only render on that page; list pages use PageOther.
type PageContext = models.TargetPage

const (
	PageHome   PageContext = models.TargetHome
	PageDetail PageContext = models.TargetDetail
	PageOther  PageContext = "other"
)

// SelectBlocks returns the visible blocks for one page region, in render order.
func SelectBlocks(all []models.DisplayBlock, page PageContext, pos models.Position) []models.DisplayBlock {
	var out []models.DisplayBlock
	for _, b := range all {
		if b.IsVisible && b.Position == pos && b.AppliesTo(page) {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, byOrder)
	return out
}

// SortRegistry sorts blocks by position (main before sidebar), then by order.
func SortRegistry(all []models.DisplayBlock) {
	slices.SortStableFunc(all, func(a, b models.DisplayBlock) int {
		if pa, pb := positionRank(a.Position), positionRank(b.Position); pa != pb {
			return pa - pb
		}
		return byOrder(a, b)
	})
}

func byOrder(a, b models.DisplayBlock) int {
	return a.Order - b.Order
}

func positionRank(p models.Position) int {
	if i := slices.Index(models.Positions, p); i >= 0 {
		return i
	}
	return len(models.Positions)
}
