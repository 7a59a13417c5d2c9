package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const checkLedgerConsistency = `-- name: CheckLedgerConsistency :one
SELECT
    COALESCE((SELECT SUM(bl.amount) FROM balance_ledgers bl
              JOIN transactions t ON t.id = bl.transaction_id
              WHERE t.status = 'completed'), 0)::numeric AS balance_ledger_sum,
    COALESCE((SELECT SUM(cl.amount) FROM commission_ledgers cl
              JOIN transactions t ON t.id = cl.transaction_id
              WHERE t.status = 'completed' AND cl.status = 'collected'), 0)::numeric AS commission_sum,
    COALESCE(SUM(total_debited), 0)::numeric AS total_debited,
    COALESCE(SUM(amount), 0)::numeric AS total_amount,
    COALESCE(SUM(commission_fee), 0)::numeric AS total_commission
FROM transactions
WHERE status = 'completed'
`

type CheckLedgerConsistencyRow struct {
	BalanceLedgerSum pgtype.Numeric `json:"balance_ledger_sum"`
	CommissionSum    pgtype.Numeric `json:"commission_sum"`
	TotalDebited     pgtype.Numeric `json:"total_debited"`
	TotalAmount      pgtype.Numeric `json:"total_amount"`
	TotalCommission  pgtype.Numeric `json:"total_commission"`
}

func (q *Queries) CheckLedgerConsistency(ctx context.Context) (CheckLedgerConsistencyRow, error) {
	row := q.db.QueryRow(ctx, checkLedgerConsistency)
	var i CheckLedgerConsistencyRow
	err := row.Scan(
		&i.BalanceLedgerSum,
		&i.CommissionSum,
		&i.TotalDebited,
		&i.TotalAmount,
		&i.TotalCommission,
	)
	return i, err
}

const createBalanceLedger = `-- name: CreateBalanceLedger :one
INSERT INTO balance_ledgers (account_id, transaction_id, amount, balance_before, balance_after, type, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id
`

type CreateBalanceLedgerParams struct {
	AccountID     int64              `json:"account_id"`
	TransactionID int64              `json:"transaction_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	BalanceBefore pgtype.Numeric     `json:"balance_before"`
	BalanceAfter  pgtype.Numeric     `json:"balance_after"`
	Type          string             `json:"type"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateBalanceLedger(ctx context.Context, arg CreateBalanceLedgerParams) (int64, error) {
	row := q.db.QueryRow(ctx, createBalanceLedger,
		arg.AccountID,
		arg.TransactionID,
		arg.Amount,
		arg.BalanceBefore,
		arg.BalanceAfter,
		arg.Type,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const createCommissionLedger = `-- name: CreateCommissionLedger :one
INSERT INTO commission_ledgers (transaction_id, amount, status, collected_at, created_at)
VALUES ($1, $2, $3, $4, $5)
RETURNING id
`

type CreateCommissionLedgerParams struct {
	TransactionID int64              `json:"transaction_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	Status        string             `json:"status"`
	CollectedAt   pgtype.Timestamptz `json:"collected_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateCommissionLedger(ctx context.Context, arg CreateCommissionLedgerParams) (int64, error) {
	row := q.db.QueryRow(ctx, createCommissionLedger,
		arg.TransactionID,
		arg.Amount,
		arg.Status,
		arg.CollectedAt,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const getCommissionLedgerByTransaction = `-- name: GetCommissionLedgerByTransaction :one
SELECT id, transaction_id, amount, status, collected_at, created_at FROM commission_ledgers WHERE transaction_id = $1
`

func (q *Queries) GetCommissionLedgerByTransaction(ctx context.Context, transactionID int64) (CommissionLedger, error) {
	row := q.db.QueryRow(ctx, getCommissionLedgerByTransaction, transactionID)
	var i CommissionLedger
	err := row.Scan(
		&i.ID,
		&i.TransactionID,
		&i.Amount,
		&i.Status,
		&i.CollectedAt,
		&i.CreatedAt,
	)
	return i, err
}

const getLatestBalanceLedgerByAccount = `-- name: GetLatestBalanceLedgerByAccount :one
SELECT id, account_id, transaction_id, amount, balance_before, balance_after, type, created_at FROM balance_ledgers
WHERE account_id = $1
ORDER BY id DESC
LIMIT 1
`

func (q *Queries) GetLatestBalanceLedgerByAccount(ctx context.Context, accountID int64) (BalanceLedger, error) {
	row := q.db.QueryRow(ctx, getLatestBalanceLedgerByAccount, accountID)
	var i BalanceLedger
	err := row.Scan(
		&i.ID,
		&i.AccountID,
		&i.TransactionID,
		&i.Amount,
		&i.BalanceBefore,
		&i.BalanceAfter,
		&i.Type,
		&i.CreatedAt,
	)
	return i, err
}

const listBalanceLedgersByTransaction = `-- name: ListBalanceLedgersByTransaction :many
SELECT id, account_id, transaction_id, amount, balance_before, balance_after, type, created_at FROM balance_ledgers
WHERE transaction_id = $1
ORDER BY id
`

func (q *Queries) ListBalanceLedgersByTransaction(ctx context.Context, transactionID int64) ([]BalanceLedger, error) {
	rows, err := q.db.Query(ctx, listBalanceLedgersByTransaction, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []BalanceLedger{}
	for rows.Next() {
		var i BalanceLedger
		if err := rows.Scan(
			&i.ID,
			&i.AccountID,
			&i.TransactionID,
			&i.Amount,
			&i.BalanceBefore,
			&i.BalanceAfter,
			&i.Type,
			&i.CreatedAt,
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
