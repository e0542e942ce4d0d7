package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const transactionColumns = `id, user_id, status, items, subtotal, total_discount, total, cogs, transaction_discount, version, created_at, updated_at, completed_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (Transaction, error) {
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.UserID,
		&i.Status,
		&i.Items,
		&i.Subtotal,
		&i.TotalDiscount,
		&i.Total,
		&i.Cogs,
		&i.TransactionDiscount,
		&i.Version,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
	)
	return i, err
}

const getDraftTransactionByUser = `-- name: GetDraftTransactionByUser :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE user_id = $1 AND status = 'draft'
`

func (q *Queries) GetDraftTransactionByUser(ctx context.Context, userID uuid.UUID) (Transaction, error) {
	row := q.db.QueryRow(ctx, getDraftTransactionByUser, userID)
	return scanTransaction(row)
}

const getTransaction = `-- name: GetTransaction :one
SELECT ` + transactionColumns + ` FROM transactions
WHERE id = $1
`

func (q *Queries) GetTransaction(ctx context.Context, id uuid.UUID) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransaction, id)
	return scanTransaction(row)
}

const createDraftTransaction = `-- name: CreateDraftTransaction :one
INSERT INTO transactions (user_id, status, items, subtotal, total_discount, total, cogs, transaction_discount)
VALUES ($1, 'draft', $2, $3, $4, $5, $6, $7)
RETURNING ` + transactionColumns

type CreateDraftTransactionParams struct {
	UserID              uuid.UUID      `json:"user_id"`
	Items               []byte         `json:"items"`
	Subtotal            pgtype.Numeric `json:"subtotal"`
	TotalDiscount       pgtype.Numeric `json:"total_discount"`
	Total               pgtype.Numeric `json:"total"`
	Cogs                pgtype.Numeric `json:"cogs"`
	TransactionDiscount []byte         `json:"transaction_discount"`
}

func (q *Queries) CreateDraftTransaction(ctx context.Context, arg CreateDraftTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, createDraftTransaction,
		arg.UserID,
		arg.Items,
		arg.Subtotal,
		arg.TotalDiscount,
		arg.Total,
		arg.Cogs,
		arg.TransactionDiscount,
	)
	return scanTransaction(row)
}

const updateDraftTransaction = `-- name: UpdateDraftTransaction :one
UPDATE transactions SET
    items                = $3,
    subtotal             = $4,
    total_discount       = $5,
    total                = $6,
    cogs                 = $7,
    transaction_discount = $8,
    version              = version + 1,
    updated_at           = now()
WHERE id = $1 AND version = $2 AND status = 'draft'
RETURNING ` + transactionColumns

type UpdateDraftTransactionParams struct {
	ID                  uuid.UUID      `json:"id"`
	Version             int32          `json:"version"`
	Items               []byte         `json:"items"`
	Subtotal            pgtype.Numeric `json:"subtotal"`
	TotalDiscount       pgtype.Numeric `json:"total_discount"`
	Total               pgtype.Numeric `json:"total"`
	Cogs                pgtype.Numeric `json:"cogs"`
	TransactionDiscount []byte         `json:"transaction_discount"`
}

// UpdateDraftTransaction returns pgx.ErrNoRows when the row has moved past
// arg.Version or is no longer a draft.
func (q *Queries) UpdateDraftTransaction(ctx context.Context, arg UpdateDraftTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, updateDraftTransaction,
		arg.ID,
		arg.Version,
		arg.Items,
		arg.Subtotal,
		arg.TotalDiscount,
		arg.Total,
		arg.Cogs,
		arg.TransactionDiscount,
	)
	return scanTransaction(row)
}

const deleteDraftTransaction = `-- name: DeleteDraftTransaction :execrows
DELETE FROM transactions
WHERE id = $1 AND version = $2 AND status = 'draft'
`

type DeleteDraftTransactionParams struct {
	ID      uuid.UUID `json:"id"`
	Version int32     `json:"version"`
}

func (q *Queries) DeleteDraftTransaction(ctx context.Context, arg DeleteDraftTransactionParams) (int64, error) {
	result, err := q.db.Exec(ctx, deleteDraftTransaction, arg.ID, arg.Version)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

const completeTransaction = `-- name: CompleteTransaction :one
UPDATE transactions SET
    status       = 'completed',
    completed_at = $3,
    version      = version + 1,
    updated_at   = now()
WHERE id = $1 AND version = $2 AND status = 'draft'
RETURNING ` + transactionColumns

type CompleteTransactionParams struct {
	ID          uuid.UUID          `json:"id"`
	Version     int32              `json:"version"`
	CompletedAt pgtype.Timestamptz `json:"completed_at"`
}

func (q *Queries) CompleteTransaction(ctx context.Context, arg CompleteTransactionParams) (Transaction, error) {
	row := q.db.QueryRow(ctx, completeTransaction, arg.ID, arg.Version, arg.CompletedAt)
	return scanTransaction(row)
}

const listCompletedTransactions = `-- name: ListCompletedTransactions :many
SELECT ` + transactionColumns + ` FROM transactions
WHERE status = 'completed'
  AND ($1::timestamptz IS NULL OR completed_at >= $1)
  AND ($2::timestamptz IS NULL OR completed_at <= $2)
ORDER BY completed_at DESC
LIMIT $3
`

type ListCompletedTransactionsParams struct {
	StartAt pgtype.Timestamptz `json:"start_at"`
	EndAt   pgtype.Timestamptz `json:"end_at"`
	Limit   int32              `json:"limit"`
}

func (q *Queries) ListCompletedTransactions(ctx context.Context, arg ListCompletedTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listCompletedTransactions, arg.StartAt, arg.EndAt, arg.Limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Transaction{}
	for rows.Next() {
		i, err := scanTransaction(rows)
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
