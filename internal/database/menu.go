package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

// ── Categories ──

const listCategories = `
SELECT id, name, description, sort_order, is_active, created_at
FROM categories
WHERE is_active = true
ORDER BY sort_order, name
`

func (q *Queries) ListCategories(ctx context.Context) ([]Category, error) {
	rows, err := q.db.Query(ctx, listCategories)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Category
	for rows.Next() {
		var c Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	return items, rows.Err()
}

const createCategory = `
INSERT INTO categories (name, description, sort_order)
VALUES ($1, $2, $3)
RETURNING id, name, description, sort_order, is_active, created_at
`

type CreateCategoryParams struct {
	Name        string
	Description pgtype.Text
	SortOrder   int32
}

func (q *Queries) CreateCategory(ctx context.Context, arg CreateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, createCategory, arg.Name, arg.Description, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

const updateCategory = `
UPDATE categories
SET name = $2, description = $3, sort_order = $4
WHERE id = $1 AND is_active = true
RETURNING id, name, description, sort_order, is_active, created_at
`

type UpdateCategoryParams struct {
	ID          uuid.UUID
	Name        string
	Description pgtype.Text
	SortOrder   int32
}

func (q *Queries) UpdateCategory(ctx context.Context, arg UpdateCategoryParams) (Category, error) {
	var c Category
	err := q.db.QueryRow(ctx, updateCategory, arg.ID, arg.Name, arg.Description, arg.SortOrder).
		Scan(&c.ID, &c.Name, &c.Description, &c.SortOrder, &c.IsActive, &c.CreatedAt)
	return c, err
}

const softDeleteCategory = `
UPDATE categories SET is_active = false WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteCategory(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteCategory, id).Scan(&out)
	return out, err
}

// ── Menu items ──

const listMenuItems = `
SELECT id, category_id, name, description, price, is_veg, image_url, is_available, sort_order, is_active, created_at
FROM menu_items
WHERE is_active = true
ORDER BY sort_order, name
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, listMenuItems)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []MenuItem
	for rows.Next() {
		var m MenuItem
		if err := scanMenuItem(rows, &m); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	return items, rows.Err()
}

const getMenuItem = `
SELECT id, category_id, name, description, price, is_veg, image_url, is_available, sort_order, is_active, created_at
FROM menu_items
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	var m MenuItem
	err := scanMenuItem(q.db.QueryRow(ctx, getMenuItem, id), &m)
	return m, err
}

const createMenuItem = `
INSERT INTO menu_items (category_id, name, description, price, is_veg, image_url, sort_order)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, category_id, name, description, price, is_veg, image_url, is_available, sort_order, is_active, created_at
`

type CreateMenuItemParams struct {
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsVeg       bool
	ImageUrl    pgtype.Text
	SortOrder   int32
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	var m MenuItem
	err := scanMenuItem(q.db.QueryRow(ctx, createMenuItem,
		arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.IsVeg, arg.ImageUrl, arg.SortOrder), &m)
	return m, err
}

const updateMenuItem = `
UPDATE menu_items
SET category_id = $2, name = $3, description = $4, price = $5, is_veg = $6, image_url = $7, sort_order = $8
WHERE id = $1 AND is_active = true
RETURNING id, category_id, name, description, price, is_veg, image_url, is_available, sort_order, is_active, created_at
`

type UpdateMenuItemParams struct {
	ID          uuid.UUID
	CategoryID  uuid.UUID
	Name        string
	Description pgtype.Text
	Price       pgtype.Numeric
	IsVeg       bool
	ImageUrl    pgtype.Text
	SortOrder   int32
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	var m MenuItem
	err := scanMenuItem(q.db.QueryRow(ctx, updateMenuItem,
		arg.ID, arg.CategoryID, arg.Name, arg.Description, arg.Price, arg.IsVeg, arg.ImageUrl, arg.SortOrder), &m)
	return m, err
}

const setMenuItemAvailability = `
UPDATE menu_items SET is_available = $2 WHERE id = $1 AND is_active = true
RETURNING id, category_id, name, description, price, is_veg, image_url, is_available, sort_order, is_active, created_at
`

type SetMenuItemAvailabilityParams struct {
	ID          uuid.UUID
	IsAvailable bool
}

func (q *Queries) SetMenuItemAvailability(ctx context.Context, arg SetMenuItemAvailabilityParams) (MenuItem, error) {
	var m MenuItem
	err := scanMenuItem(q.db.QueryRow(ctx, setMenuItemAvailability, arg.ID, arg.IsAvailable), &m)
	return m, err
}

const softDeleteMenuItem = `
UPDATE menu_items SET is_active = false WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteMenuItem(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteMenuItem, id).Scan(&out)
	return out, err
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanMenuItem(row scannable, m *MenuItem) error {
	return row.Scan(&m.ID, &m.CategoryID, &m.Name, &m.Description, &m.Price,
		&m.IsVeg, &m.ImageUrl, &m.IsAvailable, &m.SortOrder, &m.IsActive, &m.CreatedAt)
}

// ── Variants ──

const listVariantsByItem = `
SELECT id, menu_item_id, label, price, is_veg, sort_order, is_active
FROM menu_variants
WHERE menu_item_id = $1 AND is_active = true
ORDER BY sort_order, label
`

func (q *Queries) ListVariantsByItem(ctx context.Context, menuItemID uuid.UUID) ([]MenuVariant, error) {
	rows, err := q.db.Query(ctx, listVariantsByItem, menuItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var variants []MenuVariant
	for rows.Next() {
		var v MenuVariant
		if err := rows.Scan(&v.ID, &v.MenuItemID, &v.Label, &v.Price, &v.IsVeg, &v.SortOrder, &v.IsActive); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

// ListAllVariants returns active variants for all active items in one round
// trip so the menu listing avoids a per-item query.
const listAllVariants = `
SELECT v.id, v.menu_item_id, v.label, v.price, v.is_veg, v.sort_order, v.is_active
FROM menu_variants v
JOIN menu_items m ON m.id = v.menu_item_id
WHERE v.is_active = true AND m.is_active = true
ORDER BY v.menu_item_id, v.sort_order, v.label
`

func (q *Queries) ListAllVariants(ctx context.Context) ([]MenuVariant, error) {
	rows, err := q.db.Query(ctx, listAllVariants)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var variants []MenuVariant
	for rows.Next() {
		var v MenuVariant
		if err := rows.Scan(&v.ID, &v.MenuItemID, &v.Label, &v.Price, &v.IsVeg, &v.SortOrder, &v.IsActive); err != nil {
			return nil, err
		}
		variants = append(variants, v)
	}
	return variants, rows.Err()
}

const getVariant = `
SELECT id, menu_item_id, label, price, is_veg, sort_order, is_active
FROM menu_variants
WHERE id = $1 AND is_active = true
`

func (q *Queries) GetVariant(ctx context.Context, id uuid.UUID) (MenuVariant, error) {
	var v MenuVariant
	err := q.db.QueryRow(ctx, getVariant, id).
		Scan(&v.ID, &v.MenuItemID, &v.Label, &v.Price, &v.IsVeg, &v.SortOrder, &v.IsActive)
	return v, err
}

const createVariant = `
INSERT INTO menu_variants (menu_item_id, label, price, is_veg, sort_order)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, menu_item_id, label, price, is_veg, sort_order, is_active
`

type CreateVariantParams struct {
	MenuItemID uuid.UUID
	Label      string
	Price      pgtype.Numeric
	IsVeg      bool
	SortOrder  int32
}

func (q *Queries) CreateVariant(ctx context.Context, arg CreateVariantParams) (MenuVariant, error) {
	var v MenuVariant
	err := q.db.QueryRow(ctx, createVariant, arg.MenuItemID, arg.Label, arg.Price, arg.IsVeg, arg.SortOrder).
		Scan(&v.ID, &v.MenuItemID, &v.Label, &v.Price, &v.IsVeg, &v.SortOrder, &v.IsActive)
	return v, err
}

const updateVariant = `
UPDATE menu_variants
SET label = $2, price = $3, is_veg = $4, sort_order = $5
WHERE id = $1 AND is_active = true
RETURNING id, menu_item_id, label, price, is_veg, sort_order, is_active
`

type UpdateVariantParams struct {
	ID        uuid.UUID
	Label     string
	Price     pgtype.Numeric
	IsVeg     bool
	SortOrder int32
}

func (q *Queries) UpdateVariant(ctx context.Context, arg UpdateVariantParams) (MenuVariant, error) {
	var v MenuVariant
	err := q.db.QueryRow(ctx, updateVariant, arg.ID, arg.Label, arg.Price, arg.IsVeg, arg.SortOrder).
		Scan(&v.ID, &v.MenuItemID, &v.Label, &v.Price, &v.IsVeg, &v.SortOrder, &v.IsActive)
	return v, err
}

const softDeleteVariant = `
UPDATE menu_variants SET is_active = false WHERE id = $1 AND is_active = true
RETURNING id
`

func (q *Queries) SoftDeleteVariant(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	var out uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteVariant, id).Scan(&out)
	return out, err
}
