package domain

import (
	"errors"
	"fmt"
)

var (
	// Money errors
	ErrInvalidAmount = errors.New("invalid amount")

	// Transfer errors
	ErrInvalidTransfer     = errors.New("invalid transfer")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrLedgerMismatch      = errors.New("ledger entries do not reconcile with account balances")
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrLedgerEntryNotFound = errors.New("ledger entry not found")

	// Account errors
	ErrAccountNotFound    = errors.New("account not found")
	ErrAccountExists      = errors.New("account with this email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// InvalidTransferError explains why a transfer was rejected before any write.
// It matches ErrInvalidTransfer with errors.Is.
type InvalidTransferError struct {
	Reason string
}

func (e *InvalidTransferError) Error() string {
	return e.Reason
}

func (e *InvalidTransferError) Unwrap() error {
	return ErrInvalidTransfer
}

// CannotTransferToSelf is returned when sender and receiver are the same account.
func CannotTransferToSelf() error {
	return &InvalidTransferError{Reason: "Cannot transfer money to yourself"}
}

// ReceiverNotFound is returned when the receiver id does not resolve to an account.
func ReceiverNotFound(receiverID int64) error {
	return &InvalidTransferError{Reason: fmt.Sprintf("Receiver with ID %d not found", receiverID)}
}

// InsufficientBalanceError carries the amounts that failed the solvency guard.
// It matches ErrInsufficientBalance with errors.Is.
type InsufficientBalanceError struct {
	AccountID int64
	Required  Money
	Available Money
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("User %d has insufficient balance. Required: %s, Available: %s",
		e.AccountID, e.Required, e.Available)
}

func (e *InsufficientBalanceError) Unwrap() error {
	return ErrInsufficientBalance
}
