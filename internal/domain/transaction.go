package domain

import (
	"fmt"
	"time"
)

// TransactionStatus is the externally visible state of a transfer attempt.
type TransactionStatus string

const (
	TransactionStatusPending   TransactionStatus = "pending"
	TransactionStatusCompleted TransactionStatus = "completed"
	TransactionStatusFailed    TransactionStatus = "failed"
)

// IsValid reports whether s is a known status.
func (s TransactionStatus) IsValid() bool {
	switch s {
	case TransactionStatusPending, TransactionStatusCompleted, TransactionStatusFailed:
		return true
	}
	return false
}

// Transaction is the durable record of one transfer attempt.
// SenderID is nil for system-originated credits.
type Transaction struct {
	ID            int64
	SenderID      *int64
	ReceiverID    int64
	Amount        Money
	CommissionFee Money
	TotalDebited  Money
	Status        TransactionStatus
	FailureReason *string
	Description   *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewPendingTransaction computes the commission and total for amount and returns
// an unsaved transaction in pending state.
func NewPendingTransaction(senderID, receiverID int64, amount Money, description string, now time.Time) *Transaction {
	commission := amount.Commission()

	var desc *string
	if description != "" {
		desc = &description
	}

	return &Transaction{
		SenderID:      &senderID,
		ReceiverID:    receiverID,
		Amount:        amount,
		CommissionFee: commission,
		TotalDebited:  amount.Add(commission),
		Status:        TransactionStatusPending,
		Description:   desc,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Validate enforces total_debited == amount + commission_fee.
func (t *Transaction) Validate() error {
	if t.SenderID != nil && *t.SenderID == t.ReceiverID {
		return CannotTransferToSelf()
	}

	if expected := t.Amount.Add(t.CommissionFee); !t.TotalDebited.Equal(expected) {
		return fmt.Errorf("%w: total_debited %s != amount %s + commission %s",
			ErrLedgerMismatch, t.TotalDebited, t.Amount, t.CommissionFee)
	}

	if !t.Status.IsValid() {
		return fmt.Errorf("unknown transaction status %q", t.Status)
	}

	return nil
}

// IsSender reports whether accountID sent this transaction.
func (t *Transaction) IsSender(accountID int64) bool {
	return t.SenderID != nil && *t.SenderID == accountID
}

// Involves reports whether accountID is the sender or the receiver.
func (t *Transaction) Involves(accountID int64) bool {
	return t.IsSender(accountID) || t.ReceiverID == accountID
}
