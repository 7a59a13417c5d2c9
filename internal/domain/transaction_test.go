package domain

import (
	"errors"
	"testing"
	"time"
)

func TestNewPendingTransaction(t *testing.T) {
	txn := NewPendingTransaction(1, 2, MustParseMoney("100.00"), "rent", time.Now())

	if txn.Status != TransactionStatusPending {
		t.Fatalf("expected pending, got %s", txn.Status)
	}
	if txn.CommissionFee.Amount() != "1.5000" {
		t.Fatalf("expected commission 1.5000, got %s", txn.CommissionFee)
	}
	if txn.TotalDebited.Amount() != "101.5000" {
		t.Fatalf("expected total 101.5000, got %s", txn.TotalDebited)
	}
	if txn.Description == nil || *txn.Description != "rent" {
		t.Fatalf("expected description to be kept")
	}
	if err := txn.Validate(); err != nil {
		t.Fatalf("expected valid transaction, got %v", err)
	}

	if NewPendingTransaction(1, 2, MustParseMoney("1"), "", time.Now()).Description != nil {
		t.Fatalf("expected empty description to be nil")
	}
}

func TestTransaction_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Transaction)
		want   error
	}{
		{
			name:   "self transfer",
			mutate: func(tx *Transaction) { tx.ReceiverID = *tx.SenderID },
			want:   ErrInvalidTransfer,
		},
		{
			name:   "total does not match",
			mutate: func(tx *Transaction) { tx.TotalDebited = tx.Amount },
			want:   ErrLedgerMismatch,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			txn := NewPendingTransaction(1, 2, MustParseMoney("100"), "", time.Now())
			tt.mutate(txn)

			if err := txn.Validate(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	txn := NewPendingTransaction(1, 2, MustParseMoney("100"), "", time.Now())
	txn.Status = "archived"
	if err := txn.Validate(); err == nil {
		t.Fatalf("expected unknown status to fail")
	}
}

func TestTransaction_Involves(t *testing.T) {
	txn := NewPendingTransaction(5, 9, MustParseMoney("1"), "", time.Now())

	if !txn.IsSender(5) || txn.IsSender(9) {
		t.Fatalf("unexpected sender detection")
	}
	if !txn.Involves(9) || txn.Involves(6) {
		t.Fatalf("unexpected participant detection")
	}

	system := &Transaction{ReceiverID: 9}
	if system.IsSender(0) {
		t.Fatalf("system credit has no sender")
	}
}

func TestAccount_ValidateDebit(t *testing.T) {
	acc := &Account{ID: 5, Balance: MustParseMoney("50")}

	err := acc.ValidateDebit(MustParseMoney("101.5"))
	if !errors.Is(err, ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	want := "User 5 has insufficient balance. Required: 101.5000, Available: 50.0000"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	var ibe *InsufficientBalanceError
	if !errors.As(err, &ibe) || ibe.AccountID != 5 {
		t.Fatalf("expected InsufficientBalanceError for account 5, got %v", err)
	}

	if err := acc.ValidateDebit(MustParseMoney("50")); err != nil {
		t.Fatalf("exact balance must be allowed, got %v", err)
	}

	after, err := acc.ApplyDebit(MustParseMoney("20"))
	if err != nil || after.Amount() != "30.0000" {
		t.Fatalf("expected 30.0000, got %s (%v)", after, err)
	}
	if acc.ApplyCredit(MustParseMoney("0.5")).Amount() != "50.5000" {
		t.Fatalf("unexpected credit result")
	}
}

func TestInvalidTransferMessages(t *testing.T) {
	if got := CannotTransferToSelf().Error(); got != "Cannot transfer money to yourself" {
		t.Fatalf("unexpected message %q", got)
	}
	err := ReceiverNotFound(9)
	if err.Error() != "Receiver with ID 9 not found" || !errors.Is(err, ErrInvalidTransfer) {
		t.Fatalf("unexpected receiver error %v", err)
	}
}
