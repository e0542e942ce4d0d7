package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const getSalesByDay = `-- name: GetSalesByDay :many
SELECT
    (completed_at AT TIME ZONE $1::text)::date AS day,
    COALESCE(SUM(total), 0)::numeric AS total,
    COUNT(*) AS transaction_count
FROM transactions
WHERE status = 'completed'
  AND completed_at >= $2
  AND completed_at < $3
GROUP BY day
ORDER BY day
`

type GetSalesByDayParams struct {
	Timezone string    `json:"timezone"`
	StartAt  time.Time `json:"start_at"`
	EndAt    time.Time `json:"end_at"`
}

type GetSalesByDayRow struct {
	Day              pgtype.Date    `json:"day"`
	Total            pgtype.Numeric `json:"total"`
	TransactionCount int64          `json:"transaction_count"`
}

func (q *Queries) GetSalesByDay(ctx context.Context, arg GetSalesByDayParams) ([]GetSalesByDayRow, error) {
	rows, err := q.db.Query(ctx, getSalesByDay, arg.Timezone, arg.StartAt, arg.EndAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetSalesByDayRow{}
	for rows.Next() {
		var i GetSalesByDayRow
		if err := rows.Scan(&i.Day, &i.Total, &i.TransactionCount); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getItemRanking = `-- name: GetItemRanking :many
SELECT
    mi.id AS menu_item_id,
    mi.name,
    mi.category,
    SUM((li->>'quantity')::int)::bigint AS quantity,
    SUM((li->>'item_total')::numeric)::numeric AS revenue
FROM transactions t
CROSS JOIN LATERAL jsonb_array_elements(t.items) AS li
JOIN menu_items mi ON mi.id = (li->>'menu_item_id')::uuid
WHERE t.status = 'completed'
  AND ($1::timestamptz IS NULL OR t.completed_at >= $1)
  AND ($2::timestamptz IS NULL OR t.completed_at <= $2)
GROUP BY mi.id, mi.name, mi.category
ORDER BY quantity DESC, mi.name
`

type GetItemRankingParams struct {
	StartAt pgtype.Timestamptz `json:"start_at"`
	EndAt   pgtype.Timestamptz `json:"end_at"`
}

type GetItemRankingRow struct {
	MenuItemID uuid.UUID      `json:"menu_item_id"`
	Name       string         `json:"name"`
	Category   string         `json:"category"`
	Quantity   int64          `json:"quantity"`
	Revenue    pgtype.Numeric `json:"revenue"`
}

func (q *Queries) GetItemRanking(ctx context.Context, arg GetItemRankingParams) ([]GetItemRankingRow, error) {
	rows, err := q.db.Query(ctx, getItemRanking, arg.StartAt, arg.EndAt)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []GetItemRankingRow{}
	for rows.Next() {
		var i GetItemRankingRow
		if err := rows.Scan(&i.MenuItemID, &i.Name, &i.Category, &i.Quantity, &i.Revenue); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
