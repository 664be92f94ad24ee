// Package catalog implements menu browsing rules, in particular the
// dietary-mode variant resolution policy: an item's variants are filtered to
// the active mode, then the item is hidden (no match), auto-resolved to a
// single SKU (one match), or presented as an explicit choice (several).
package catalog

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
	"github.com/spicegarden/api/internal/database"
	"github.com/spicegarden/api/internal/enum"
)

// Resolution is the outcome of applying the dietary mode to one menu item.
type Resolution int

const (
	// Hidden items have no purchasable SKU under the active mode.
	Hidden Resolution = iota
	// AutoResolved items collapse to exactly one SKU and are added to the
	// cart without a selector.
	AutoResolved
	// Prompt items require the shopper to pick a variant.
	Prompt
)

// SKU is a purchasable resolved item: the base item, or one of its variants.
type SKU struct {
	ID         string
	MenuItemID uuid.UUID
	VariantID  *uuid.UUID
	Name       string
	Price      decimal.Decimal
	IsVeg      bool
}

// Resolved pairs an item with its resolution under a dietary mode.
type Resolved struct {
	Item       database.MenuItem
	Resolution Resolution
	// SKU is set when Resolution is AutoResolved.
	SKU *SKU
	// Choices is set when Resolution is Prompt.
	Choices []SKU
}

// SKUID builds the cart line id for a resolved variant.
func SKUID(itemID uuid.UUID, variantID *uuid.UUID) string {
	if variantID == nil {
		return itemID.String()
	}
	return itemID.String() + ":" + variantID.String()
}

func matchesMode(isVeg bool, mode string) bool {
	switch mode {
	case enum.DietaryModeVeg:
		return isVeg
	case enum.DietaryModeNonVeg:
		return !isVeg
	default:
		return true
	}
}

// Resolve applies the dietary mode to one item and its variants.
func Resolve(item database.MenuItem, variants []database.MenuVariant, mode string) Resolved {
	if len(variants) == 0 {
		if !matchesMode(item.IsVeg, mode) || !item.Price.Valid {
			return Resolved{Item: item, Resolution: Hidden}
		}
		sku := baseSKU(item)
		return Resolved{Item: item, Resolution: AutoResolved, SKU: &sku}
	}

	var matched []SKU
	for _, v := range variants {
		if matchesMode(v.IsVeg, mode) {
			matched = append(matched, variantSKU(item, v))
		}
	}

	switch len(matched) {
	case 0:
		return Resolved{Item: item, Resolution: Hidden}
	case 1:
		sku := matched[0]
		return Resolved{Item: item, Resolution: AutoResolved, SKU: &sku}
	default:
		return Resolved{Item: item, Resolution: Prompt, Choices: matched}
	}
}

// ResolveAll filters a full menu, dropping hidden items.
func ResolveAll(items []database.MenuItem, variantsByItem map[uuid.UUID][]database.MenuVariant, mode string) []Resolved {
	var out []Resolved
	for _, item := range items {
		r := Resolve(item, variantsByItem[item.ID], mode)
		if r.Resolution == Hidden {
			continue
		}
		out = append(out, r)
	}
	return out
}

func baseSKU(item database.MenuItem) SKU {
	return SKU{
		ID:         SKUID(item.ID, nil),
		MenuItemID: item.ID,
		Name:       item.Name,
		Price:      numericToDecimal(item.Price),
		IsVeg:      item.IsVeg,
	}
}

func variantSKU(item database.MenuItem, v database.MenuVariant) SKU {
	vid := v.ID
	return SKU{
		ID:         SKUID(item.ID, &vid),
		MenuItemID: item.ID,
		VariantID:  &vid,
		Name:       item.Name + " (" + v.Label + ")",
		Price:      numericToDecimal(v.Price),
		IsVeg:      v.IsVeg,
	}
}

func numericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	val, err := n.Value()
	if err != nil || val == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(val.(string))
	if err != nil {
		return decimal.Zero
	}
	return d
}
