package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const listAddOns = `-- name: ListAddOns :many
SELECT id, name, price, type, created_at FROM add_ons
ORDER BY name
`

func (q *Queries) ListAddOns(ctx context.Context) ([]AddOn, error) {
	rows, err := q.db.Query(ctx, listAddOns)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AddOn{}
	for rows.Next() {
		var i AddOn
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.Type, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listAddOnsByIDs = `-- name: ListAddOnsByIDs :many
SELECT id, name, price, type, created_at FROM add_ons
WHERE id = ANY($1::uuid[])
`

func (q *Queries) ListAddOnsByIDs(ctx context.Context, ids []uuid.UUID) ([]AddOn, error) {
	rows, err := q.db.Query(ctx, listAddOnsByIDs, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []AddOn{}
	for rows.Next() {
		var i AddOn
		if err := rows.Scan(&i.ID, &i.Name, &i.Price, &i.Type, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getAddOn = `-- name: GetAddOn :one
SELECT id, name, price, type, created_at FROM add_ons
WHERE id = $1
`

func (q *Queries) GetAddOn(ctx context.Context, id uuid.UUID) (AddOn, error) {
	row := q.db.QueryRow(ctx, getAddOn, id)
	var i AddOn
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.Type, &i.CreatedAt)
	return i, err
}

const createAddOn = `-- name: CreateAddOn :one
INSERT INTO add_ons (name, price, type)
VALUES ($1, $2, $3)
RETURNING id, name, price, type, created_at
`

type CreateAddOnParams struct {
	Name  string         `json:"name"`
	Price pgtype.Numeric `json:"price"`
	Type  string         `json:"type"`
}

func (q *Queries) CreateAddOn(ctx context.Context, arg CreateAddOnParams) (AddOn, error) {
	row := q.db.QueryRow(ctx, createAddOn, arg.Name, arg.Price, arg.Type)
	var i AddOn
	err := row.Scan(&i.ID, &i.Name, &i.Price, &i.Type, &i.CreatedAt)
	return i, err
}

const countAddOns = `-- name: CountAddOns :one
SELECT count(*) FROM add_ons
`

func (q *Queries) CountAddOns(ctx context.Context) (int64, error) {
	row := q.db.QueryRow(ctx, countAddOns)
	var count int64
	err := row.Scan(&count)
	return count, err
}
