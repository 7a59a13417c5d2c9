package generated

import (
	"github.com/jackc/pgx/v5/pgtype"
)

type Account struct {
	ID           int64              `json:"id"`
	Name         string             `json:"name"`
	Email        string             `json:"email"`
	PasswordHash string             `json:"password_hash"`
	Balance      pgtype.Numeric     `json:"balance"`
	CreatedAt    pgtype.Timestamptz `json:"created_at"`
	UpdatedAt    pgtype.Timestamptz `json:"updated_at"`
}

type BalanceLedger struct {
	ID            int64              `json:"id"`
	AccountID     int64              `json:"account_id"`
	TransactionID int64              `json:"transaction_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	BalanceBefore pgtype.Numeric     `json:"balance_before"`
	BalanceAfter  pgtype.Numeric     `json:"balance_after"`
	Type          string             `json:"type"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type CommissionLedger struct {
	ID            int64              `json:"id"`
	TransactionID int64              `json:"transaction_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	Status        string             `json:"status"`
	CollectedAt   pgtype.Timestamptz `json:"collected_at"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}

type Transaction struct {
	ID            int64              `json:"id"`
	SenderID      pgtype.Int8        `json:"sender_id"`
	ReceiverID    int64              `json:"receiver_id"`
	Amount        pgtype.Numeric     `json:"amount"`
	CommissionFee pgtype.Numeric     `json:"commission_fee"`
	TotalDebited  pgtype.Numeric     `json:"total_debited"`
	Status        string             `json:"status"`
	FailureReason pgtype.Text        `json:"failure_reason"`
	Description   pgtype.Text        `json:"description"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
	UpdatedAt     pgtype.Timestamptz `json:"updated_at"`
}

type TransactionEvent struct {
	ID            int64              `json:"id"`
	TransactionID int64              `json:"transaction_id"`
	EventType     string             `json:"event_type"`
	Payload       []byte             `json:"payload"`
	CreatedAt     pgtype.Timestamptz `json:"created_at"`
}
