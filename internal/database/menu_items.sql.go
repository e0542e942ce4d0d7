package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const menuItemColumns = `id, name, category, cogm, add_on_eligibility, allowed_temperatures, allowed_sweetness, status, has_promo, discount_type, discount_value, promo_start_date, promo_end_date, promo_active, created_at, updated_at`

func scanMenuItem(row interface{ Scan(...interface{}) error }) (MenuItem, error) {
	var i MenuItem
	err := row.Scan(
		&i.ID,
		&i.Name,
		&i.Category,
		&i.Cogm,
		&i.AddOnEligibility,
		&i.AllowedTemperatures,
		&i.AllowedSweetness,
		&i.Status,
		&i.HasPromo,
		&i.DiscountType,
		&i.DiscountValue,
		&i.PromoStartDate,
		&i.PromoEndDate,
		&i.PromoActive,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

func (q *Queries) listMenuItems(ctx context.Context, query string, args ...interface{}) ([]MenuItem, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []MenuItem{}
	for rows.Next() {
		i, err := scanMenuItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listMenuItems = `-- name: ListMenuItems :many
SELECT ` + menuItemColumns + ` FROM menu_items
ORDER BY category, name
`

func (q *Queries) ListMenuItems(ctx context.Context) ([]MenuItem, error) {
	return q.listMenuItems(ctx, listMenuItems)
}

const listActiveMenuItems = `-- name: ListActiveMenuItems :many
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE status = 'active'
ORDER BY category, name
`

func (q *Queries) ListActiveMenuItems(ctx context.Context) ([]MenuItem, error) {
	return q.listMenuItems(ctx, listActiveMenuItems)
}

const listMenuItemsByIDs = `-- name: ListMenuItemsByIDs :many
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE id = ANY($1::uuid[])
`

func (q *Queries) ListMenuItemsByIDs(ctx context.Context, ids []uuid.UUID) ([]MenuItem, error) {
	return q.listMenuItems(ctx, listMenuItemsByIDs, ids)
}

const getMenuItem = `-- name: GetMenuItem :one
SELECT ` + menuItemColumns + ` FROM menu_items
WHERE id = $1
`

func (q *Queries) GetMenuItem(ctx context.Context, id uuid.UUID) (MenuItem, error) {
	row := q.db.QueryRow(ctx, getMenuItem, id)
	return scanMenuItem(row)
}

const createMenuItem = `-- name: CreateMenuItem :one
INSERT INTO menu_items (name, category, cogm, add_on_eligibility, allowed_temperatures, allowed_sweetness, status, has_promo)
VALUES ($1, $2, $3, $4, COALESCE($5::uuid[], '{}'), COALESCE($6::uuid[], '{}'), 'active', false)
RETURNING ` + menuItemColumns

type CreateMenuItemParams struct {
	Name                string         `json:"name"`
	Category            string         `json:"category"`
	Cogm                pgtype.Numeric `json:"cogm"`
	AddOnEligibility    string         `json:"add_on_eligibility"`
	AllowedTemperatures []uuid.UUID    `json:"allowed_temperatures"`
	AllowedSweetness    []uuid.UUID    `json:"allowed_sweetness"`
}

func (q *Queries) CreateMenuItem(ctx context.Context, arg CreateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, createMenuItem,
		arg.Name,
		arg.Category,
		arg.Cogm,
		arg.AddOnEligibility,
		arg.AllowedTemperatures,
		arg.AllowedSweetness,
	)
	return scanMenuItem(row)
}

const updateMenuItem = `-- name: UpdateMenuItem :one
UPDATE menu_items SET
    name                 = COALESCE($2, name),
    category             = COALESCE($3, category),
    cogm                 = COALESCE($4, cogm),
    add_on_eligibility   = COALESCE($5, add_on_eligibility),
    allowed_temperatures = COALESCE($6::uuid[], allowed_temperatures),
    allowed_sweetness    = COALESCE($7::uuid[], allowed_sweetness),
    status               = COALESCE($8, status),
    has_promo            = COALESCE($9, has_promo),
    discount_type        = COALESCE($10, discount_type),
    discount_value       = COALESCE($11, discount_value),
    promo_start_date     = COALESCE($12, promo_start_date),
    promo_end_date       = COALESCE($13, promo_end_date),
    promo_active         = COALESCE($14, promo_active),
    updated_at           = now()
WHERE id = $1
RETURNING ` + menuItemColumns

type UpdateMenuItemParams struct {
	ID                  uuid.UUID          `json:"id"`
	Name                pgtype.Text        `json:"name"`
	Category            pgtype.Text        `json:"category"`
	Cogm                pgtype.Numeric     `json:"cogm"`
	AddOnEligibility    pgtype.Text        `json:"add_on_eligibility"`
	AllowedTemperatures []uuid.UUID        `json:"allowed_temperatures"`
	AllowedSweetness    []uuid.UUID        `json:"allowed_sweetness"`
	Status              pgtype.Text        `json:"status"`
	HasPromo            pgtype.Bool        `json:"has_promo"`
	DiscountType        pgtype.Text        `json:"discount_type"`
	DiscountValue       pgtype.Numeric     `json:"discount_value"`
	PromoStartDate      pgtype.Timestamptz `json:"promo_start_date"`
	PromoEndDate        pgtype.Timestamptz `json:"promo_end_date"`
	PromoActive         pgtype.Bool        `json:"promo_active"`
}

func (q *Queries) UpdateMenuItem(ctx context.Context, arg UpdateMenuItemParams) (MenuItem, error) {
	row := q.db.QueryRow(ctx, updateMenuItem,
		arg.ID,
		arg.Name,
		arg.Category,
		arg.Cogm,
		arg.AddOnEligibility,
		arg.AllowedTemperatures,
		arg.AllowedSweetness,
		arg.Status,
		arg.HasPromo,
		arg.DiscountType,
		arg.DiscountValue,
		arg.PromoStartDate,
		arg.PromoEndDate,
		arg.PromoActive,
	)
	return scanMenuItem(row)
}

const bulkUpdateMenuItems = `-- name: BulkUpdateMenuItems :execrows
UPDATE menu_items SET
    status           = COALESCE($2, status),
    has_promo        = COALESCE($3, has_promo),
    discount_type    = COALESCE($4, discount_type),
    discount_value   = COALESCE($5, discount_value),
    promo_start_date = COALESCE($6, promo_start_date),
    promo_end_date   = COALESCE($7, promo_end_date),
    promo_active     = COALESCE($8, promo_active),
    updated_at       = now()
WHERE id = ANY($1::uuid[])
`

type BulkUpdateMenuItemsParams struct {
	IDs            []uuid.UUID        `json:"ids"`
	Status         pgtype.Text        `json:"status"`
	HasPromo       pgtype.Bool        `json:"has_promo"`
	DiscountType   pgtype.Text        `json:"discount_type"`
	DiscountValue  pgtype.Numeric     `json:"discount_value"`
	PromoStartDate pgtype.Timestamptz `json:"promo_start_date"`
	PromoEndDate   pgtype.Timestamptz `json:"promo_end_date"`
	PromoActive    pgtype.Bool        `json:"promo_active"`
}

func (q *Queries) BulkUpdateMenuItems(ctx context.Context, arg BulkUpdateMenuItemsParams) (int64, error) {
	result, err := q.db.Exec(ctx, bulkUpdateMenuItems,
		arg.IDs,
		arg.Status,
		arg.HasPromo,
		arg.DiscountType,
		arg.DiscountValue,
		arg.PromoStartDate,
		arg.PromoEndDate,
		arg.PromoActive,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const deleteMenuItem = `-- name: DeleteMenuItem :execrows
DELETE FROM menu_items WHERE id = $1
`

func (q *Queries) DeleteMenuItem(ctx context.Context, id uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, deleteMenuItem, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const bulkDeleteMenuItems = `-- name: BulkDeleteMenuItems :execrows
DELETE FROM menu_items WHERE id = ANY($1::uuid[])
`

func (q *Queries) BulkDeleteMenuItems(ctx context.Context, ids []uuid.UUID) (int64, error) {
	result, err := q.db.Exec(ctx, bulkDeleteMenuItems, ids)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}
