package database

import (
	"context"

	"github.com/google/uuid"
)

const listItemModifiers = `-- name: ListItemModifiers :many
SELECT id, name, type, sort_order, created_at FROM item_modifiers
ORDER BY CASE type WHEN 'temperature' THEN 0 ELSE 1 END, sort_order, name
`

func (q *Queries) ListItemModifiers(ctx context.Context) ([]ItemModifier, error) {
	return q.listItemModifiers(ctx, listItemModifiers)
}

const listItemModifiersByType = `-- name: ListItemModifiersByType :many
SELECT id, name, type, sort_order, created_at FROM item_modifiers
WHERE type = $1
ORDER BY sort_order, name
`

func (q *Queries) ListItemModifiersByType(ctx context.Context, modifierType string) ([]ItemModifier, error) {
	return q.listItemModifiers(ctx, listItemModifiersByType, modifierType)
}

const listItemModifiersByIDs = `-- name: ListItemModifiersByIDs :many
SELECT id, name, type, sort_order, created_at FROM item_modifiers
WHERE id = ANY($1::uuid[])
`

func (q *Queries) ListItemModifiersByIDs(ctx context.Context, ids []uuid.UUID) ([]ItemModifier, error) {
	return q.listItemModifiers(ctx, listItemModifiersByIDs, ids)
}

func (q *Queries) listItemModifiers(ctx context.Context, query string, args ...interface{}) ([]ItemModifier, error) {
	rows, err := q.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []ItemModifier{}
	for rows.Next() {
		var i ItemModifier
		if err := rows.Scan(&i.ID, &i.Name, &i.Type, &i.SortOrder, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getItemModifier = `-- name: GetItemModifier :one
SELECT id, name, type, sort_order, created_at FROM item_modifiers
WHERE id = $1
`

func (q *Queries) GetItemModifier(ctx context.Context, id uuid.UUID) (ItemModifier, error) {
	row := q.db.QueryRow(ctx, getItemModifier, id)
	var i ItemModifier
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.SortOrder, &i.CreatedAt)
	return i, err
}

const createItemModifier = `-- name: CreateItemModifier :one
INSERT INTO item_modifiers (name, type, sort_order)
VALUES ($1, $2, $3)
RETURNING id, name, type, sort_order, created_at
`

type CreateItemModifierParams struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	SortOrder int32  `json:"sort_order"`
}

func (q *Queries) CreateItemModifier(ctx context.Context, arg CreateItemModifierParams) (ItemModifier, error) {
	row := q.db.QueryRow(ctx, createItemModifier, arg.Name, arg.Type, arg.SortOrder)
	var i ItemModifier
	err := row.Scan(&i.ID, &i.Name, &i.Type, &i.SortOrder, &i.CreatedAt)
	return i, err
}
