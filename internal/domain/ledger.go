package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// LedgerType tags a balance ledger row.
type LedgerType string

const (
	LedgerTypeDebit  LedgerType = "debit"
	LedgerTypeCredit LedgerType = "credit"
)

// BalanceLedgerEntry is an append-only record of one signed balance change on one
// account caused by one transaction.
type BalanceLedgerEntry struct {
	ID            int64
	AccountID     int64
	TransactionID int64
	Amount        decimal.Decimal // negative for debit, positive for credit
	BalanceBefore Money
	BalanceAfter  Money
	Type          LedgerType
	CreatedAt     time.Time
}

// NewDebitEntry builds the sender-side row for a transfer.
func NewDebitEntry(accountID, transactionID int64, amount, before, after Money, now time.Time) (*BalanceLedgerEntry, error) {
	e := &BalanceLedgerEntry{
		AccountID:     accountID,
		TransactionID: transactionID,
		Amount:        amount.Negated(),
		BalanceBefore: before,
		BalanceAfter:  after,
		Type:          LedgerTypeDebit,
		CreatedAt:     now,
	}

	return e, e.Validate()
}

// NewCreditEntry builds the receiver-side row for a transfer.
func NewCreditEntry(accountID, transactionID int64, amount, before, after Money, now time.Time) (*BalanceLedgerEntry, error) {
	e := &BalanceLedgerEntry{
		AccountID:     accountID,
		TransactionID: transactionID,
		Amount:        amount.Decimal(),
		BalanceBefore: before,
		BalanceAfter:  after,
		Type:          LedgerTypeCredit,
		CreatedAt:     now,
	}

	return e, e.Validate()
}

// Validate enforces balance_after == balance_before + amount and the sign of the row.
func (e *BalanceLedgerEntry) Validate() error {
	switch e.Type {
	case LedgerTypeDebit:
		if e.Amount.IsPositive() {
			return fmt.Errorf("%w: debit entry with positive amount %s", ErrLedgerMismatch, e.Amount)
		}
	case LedgerTypeCredit:
		if e.Amount.IsNegative() {
			return fmt.Errorf("%w: credit entry with negative amount %s", ErrLedgerMismatch, e.Amount)
		}
	default:
		return fmt.Errorf("%w: unknown ledger type %q", ErrLedgerMismatch, e.Type)
	}

	expected := e.BalanceBefore.Decimal().Add(e.Amount)
	if !expected.Equal(e.BalanceAfter.Decimal()) {
		return fmt.Errorf("%w: account %d before %s + %s != after %s",
			ErrLedgerMismatch, e.AccountID, e.BalanceBefore, e.Amount.StringFixed(MoneyScale), e.BalanceAfter)
	}

	return nil
}

// CommissionStatus is the collection state of a commission row.
type CommissionStatus string

const (
	CommissionStatusPending   CommissionStatus = "pending"
	CommissionStatusCollected CommissionStatus = "collected"
	CommissionStatusFailed    CommissionStatus = "failed"
)

// CommissionLedgerEntry records the fee taken by one completed transaction.
type CommissionLedgerEntry struct {
	ID            int64
	TransactionID int64
	Amount        Money
	Status        CommissionStatus
	CollectedAt   time.Time
	CreatedAt     time.Time
}

// ReconcileTransfer checks the two ledger rows of a completed transfer against the
// transaction: the debit equals -total_debited, the credit equals amount, and so the
// signed sum equals -commission.
func ReconcileTransfer(t *Transaction, debit, credit *BalanceLedgerEntry) error {
	if debit.Type != LedgerTypeDebit || credit.Type != LedgerTypeCredit {
		return fmt.Errorf("%w: expected one debit and one credit", ErrLedgerMismatch)
	}

	if !debit.Amount.Equal(t.TotalDebited.Negated()) {
		return fmt.Errorf("%w: debit %s != -total_debited %s", ErrLedgerMismatch, debit.Amount, t.TotalDebited)
	}

	if !credit.Amount.Equal(t.Amount.Decimal()) {
		return fmt.Errorf("%w: credit %s != amount %s", ErrLedgerMismatch, credit.Amount, t.Amount)
	}

	if sum := debit.Amount.Add(credit.Amount); !sum.Equal(t.CommissionFee.Negated()) {
		return fmt.Errorf("%w: signed sum %s != -commission %s", ErrLedgerMismatch, sum, t.CommissionFee)
	}

	return nil
}
