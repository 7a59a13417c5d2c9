package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransaction = `-- name: CreateTransaction :one
INSERT INTO transactions (sender_id, receiver_id, amount, commission_fee, total_debited, status, description, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id
`

type CreateTransactionParams struct {
	SenderID      pgtype.Int8        `json:"sender_id"`
	ReceiverID    int64              `json:"receiver_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	CommissionFee pgtype.Numeric     `json:"commission_fee"`
	TotalDebited  pgtype.Numeric     `json:"total_debited"`
	Status        string             `json:"status"`
	Description   pgtype.Text        `json:"description"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) CreateTransaction(ctx context.Context, arg CreateTransactionParams) (int64, error) {
	row := q.db.QueryRow(ctx, createTransaction,
		arg.SenderID,
		arg.ReceiverID,
		arg.Amount,
		arg.CommissionFee,
		arg.TotalDebited,
		arg.Status,
		arg.Description,
		arg.CreatedAt,
		arg.UpdatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getTransactionByID = `-- name: GetTransactionByID :one
SELECT id, sender_id, receiver_id, amount, commission_fee, total_debited, status, failure_reason, description, created_at, updated_at FROM transactions WHERE id = $1
`

func (q *Queries) GetTransactionByID(ctx context.Context, id int64) (Transaction, error) {
	row := q.db.QueryRow(ctx, getTransactionByID, id)
	var i Transaction
	err := row.Scan(
		&i.ID,
		&i.SenderID,
		&i.ReceiverID,
		&i.Amount,
		&i.CommissionFee,
		&i.TotalDebited,
		&i.Status,
		&i.FailureReason,
		&i.Description,
		&i.CreatedAt,
		&i.UpdatedAt,
	)
	return i, err
}

const listReceivedTransactions = `-- name: ListReceivedTransactions :many
SELECT id, sender_id, receiver_id, amount, commission_fee, total_debited, status, failure_reason, description, created_at, updated_at FROM transactions
WHERE receiver_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListReceivedTransactionsParams struct {
	ReceiverID int64 `json:"receiver_id"`
	Limit      int32 `json:"limit"`
	Offset     int32 `json:"offset"`
}

func (q *Queries) ListReceivedTransactions(ctx context.Context, arg ListReceivedTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listReceivedTransactions, arg.ReceiverID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const listSentTransactions = `-- name: ListSentTransactions :many
SELECT id, sender_id, receiver_id, amount, commission_fee, total_debited, status, failure_reason, description, created_at, updated_at FROM transactions
WHERE sender_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListSentTransactionsParams struct {
	SenderID pgtype.Int8 `json:"sender_id"`
	Limit    int32       `json:"limit"`
	Offset   int32       `json:"offset"`
}

func (q *Queries) ListSentTransactions(ctx context.Context, arg ListSentTransactionsParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listSentTransactions, arg.SenderID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const listTransactionsForAccount = `-- name: ListTransactionsForAccount :many
SELECT id, sender_id, receiver_id, amount, commission_fee, total_debited, status, failure_reason, description, created_at, updated_at FROM transactions
WHERE sender_id = $1 OR receiver_id = $1
ORDER BY created_at DESC, id DESC
LIMIT $2 OFFSET $3
`

type ListTransactionsForAccountParams struct {
	AccountID int64 `json:"account_id"`
	Limit     int32 `json:"limit"`
	Offset    int32 `json:"offset"`
}

func (q *Queries) ListTransactionsForAccount(ctx context.Context, arg ListTransactionsForAccountParams) ([]Transaction, error) {
	rows, err := q.db.Query(ctx, listTransactionsForAccount, arg.AccountID, arg.Limit, arg.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanTransactions(rows)
}

const updateTransactionStatus = `-- name: UpdateTransactionStatus :execrows
UPDATE transactions SET status = $2, failure_reason = $3, updated_at = $4 WHERE id = $1
`

type UpdateTransactionStatusParams struct {
	ID            int64              `json:"id"`
	Status        string             `json:"status"`
	FailureReason pgtype.Text        `json:"failure_reason"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

func (q *Queries) UpdateTransactionStatus(ctx context.Context, arg UpdateTransactionStatusParams) (int64, error) {
	result, err := q.db.Exec(ctx, updateTransactionStatus,
		arg.ID,
		arg.Status,
		arg.FailureReason,
		arg.UpdatedAt,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected(), nil
}

type transactionRows interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanTransactions(rows transactionRows) ([]Transaction, error) {
	items := []Transaction{}
	for rows.Next() {
		var i Transaction
		if err := rows.Scan(
			&i.ID,
			&i.SenderID,
			&i.ReceiverID,
			&i.Amount,
			&i.CommissionFee,
			&i.TotalDebited,
			&i.Status,
			&i.FailureReason,
			&i.Description,
			&i.CreatedAt,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
