package generated

import (
	"context"

	"github.com/jackc/pgx/v5/pgtype"
)

const createTransactionEvent = `-- name: CreateTransactionEvent :one
INSERT INTO transaction_events (transaction_id, event_type, payload, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id
`

type CreateTransactionEventParams struct {
	TransactionID int64              `json:"transaction_id"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

func (q *Queries) CreateTransactionEvent(ctx context.Context, arg CreateTransactionEventParams) (int64, error) {
	row := q.db.QueryRow(ctx, createTransactionEvent,
		arg.TransactionID,
		arg.EventType,
		arg.Payload,
		arg.CreatedAt,
	)
	var id int64
	err := row.Scan(&id)
	return id, err
}

const listTransactionEvents = `-- name: ListTransactionEvents :many
SELECT id, transaction_id, event_type, payload, created_at FROM transaction_events
WHERE transaction_id = $1
ORDER BY id
`

func (q *Queries) ListTransactionEvents(ctx context.Context, transactionID int64) ([]TransactionEvent, error) {
	rows, err := q.db.Query(ctx, listTransactionEvents, transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []TransactionEvent{}
	for rows.Next() {
		var i TransactionEvent
		if err := rows.Scan(
			&i.ID,
			&i.TransactionID,
			&i.EventType,
			&i.Payload,
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
