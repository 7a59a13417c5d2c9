package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id int64) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByIDs(ctx context.Context, ids []int64) ([]*domain.Account, error)
	// GetByIDsForUpdate locks the rows in ascending id order and returns the ones that exist.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []int64) ([]*domain.Account, error)
	GetBalance(ctx context.Context, tx Transaction, id int64) (domain.Money, error)
	Debit(ctx context.Context, tx Transaction, id int64, amount domain.Money, updatedAt time.Time) error
	Credit(ctx context.Context, tx Transaction, id int64, amount domain.Money, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// TransactionRepository defines data access for transfer records.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, transaction *domain.Transaction) error
	UpdateStatus(ctx context.Context, tx Transaction, id int64, status domain.TransactionStatus, failureReason *string, updatedAt time.Time) error
	GetByID(ctx context.Context, id int64) (*domain.Transaction, error)
	ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error)
	ListSent(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error)
	ListReceived(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error)
}

// BalanceLedgerRepository defines data access for balance ledger entries.
type BalanceLedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.BalanceLedgerEntry) error
	ListByTransaction(ctx context.Context, transactionID int64) ([]*domain.BalanceLedgerEntry, error)
	GetLatestByAccount(ctx context.Context, accountID int64) (*domain.BalanceLedgerEntry, error)
}

// CommissionLedgerRepository defines data access for commission entries.
type CommissionLedgerRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.CommissionLedgerEntry) error
	GetByTransaction(ctx context.Context, transactionID int64) (*domain.CommissionLedgerEntry, error)
}

// EventRepository defines data access for the transaction event log.
type EventRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.TransactionEvent) error
	// ListByTransaction returns events in creation order.
	ListByTransaction(ctx context.Context, transactionID int64) ([]*domain.TransactionEvent, error)
}

// LedgerTotals are the ledger-wide sums over completed transactions.
type LedgerTotals struct {
	BalanceLedgerSum decimal.Decimal
	CommissionSum    decimal.Decimal
	TotalDebited     decimal.Decimal
	TotalAmount      decimal.Decimal
	TotalCommission  decimal.Decimal
}

// LedgerRepository defines data access for ledger-wide operations.
type LedgerRepository interface {
	CheckConsistency(ctx context.Context) (LedgerTotals, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}
