package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// BalanceLedgerRepository implements usecase.BalanceLedgerRepository.
type BalanceLedgerRepository struct {
	queries *generated.Queries
}

// NewBalanceLedgerRepository creates a new BalanceLedgerRepository.
func NewBalanceLedgerRepository(db generated.DBTX) *BalanceLedgerRepository {
	return &BalanceLedgerRepository{queries: generated.New(db)}
}

// Create appends an entry. CHECK violations surface as ErrLedgerMismatch.
func (r *BalanceLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceLedgerEntry) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	id, err := queries.CreateBalanceLedger(ctx, generated.CreateBalanceLedgerParams{
		AccountID:     entry.AccountID,
		TransactionID: entry.TransactionID,
		Amount:        decimalToNumeric(entry.Amount),
		BalanceBefore: moneyToNumeric(entry.BalanceBefore),
		BalanceAfter:  moneyToNumeric(entry.BalanceAfter),
		Type:          string(entry.Type),
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
	})
	if err != nil {
		if pgErrorCode(err) == pgErrCheckViolation {
			return fmt.Errorf("%w: %v", domain.ErrLedgerMismatch, err)
		}
		return fmt.Errorf("create balance ledger entry: %w", err)
	}

	entry.ID = id
	return nil
}

func (r *BalanceLedgerRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*domain.BalanceLedgerEntry, error) {
	rows, err := r.queries.ListBalanceLedgersByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	entries := make([]*domain.BalanceLedgerEntry, 0, len(rows))
	for _, row := range rows {
		entry, err := rowToBalanceLedger(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

// GetLatestByAccount returns the most recent entry for the account.
func (r *BalanceLedgerRepository) GetLatestByAccount(ctx context.Context, accountID int64) (*domain.BalanceLedgerEntry, error) {
	row, err := r.queries.GetLatestBalanceLedgerByAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}

	return rowToBalanceLedger(row)
}

func rowToBalanceLedger(row generated.BalanceLedger) (*domain.BalanceLedgerEntry, error) {
	before, err := numericToMoney(row.BalanceBefore)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %d: %w", row.ID, err)
	}
	after, err := numericToMoney(row.BalanceAfter)
	if err != nil {
		return nil, fmt.Errorf("ledger entry %d: %w", row.ID, err)
	}

	return &domain.BalanceLedgerEntry{
		ID:            row.ID,
		AccountID:     row.AccountID,
		TransactionID: row.TransactionID,
		Amount:        numericToDecimal(row.Amount),
		BalanceBefore: before,
		BalanceAfter:  after,
		Type:          domain.LedgerType(row.Type),
		CreatedAt:     row.CreatedAt.Time,
	}, nil
}

// CommissionLedgerRepository implements usecase.CommissionLedgerRepository.
type CommissionLedgerRepository struct {
	queries *generated.Queries
}

// NewCommissionLedgerRepository creates a new CommissionLedgerRepository.
func NewCommissionLedgerRepository(db generated.DBTX) *CommissionLedgerRepository {
	return &CommissionLedgerRepository{queries: generated.New(db)}
}

func (r *CommissionLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CommissionLedgerEntry) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	id, err := queries.CreateCommissionLedger(ctx, generated.CreateCommissionLedgerParams{
		TransactionID: entry.TransactionID,
		Amount:        moneyToNumeric(entry.Amount),
		Status:        string(entry.Status),
		CollectedAt:   timeToPgTimestamptz(entry.CollectedAt),
		CreatedAt:     timeToPgTimestamptz(entry.CreatedAt),
	})
	if err != nil {
		return fmt.Errorf("create commission entry: %w", err)
	}

	entry.ID = id
	return nil
}

func (r *CommissionLedgerRepository) GetByTransaction(ctx context.Context, transactionID int64) (*domain.CommissionLedgerEntry, error) {
	row, err := r.queries.GetCommissionLedgerByTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrLedgerEntryNotFound
		}
		return nil, err
	}

	amount, err := numericToMoney(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("commission entry %d: %w", row.ID, err)
	}

	return &domain.CommissionLedgerEntry{
		ID:            row.ID,
		TransactionID: row.TransactionID,
		Amount:        amount,
		Status:        domain.CommissionStatus(row.Status),
		CollectedAt:   row.CollectedAt.Time,
		CreatedAt:     row.CreatedAt.Time,
	}, nil
}

// LedgerRepository implements usecase.LedgerRepository.
type LedgerRepository struct {
	queries *generated.Queries
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(db generated.DBTX) *LedgerRepository {
	return &LedgerRepository{queries: generated.New(db)}
}

// CheckConsistency sums the ledgers over completed transactions.
func (r *LedgerRepository) CheckConsistency(ctx context.Context) (usecase.LedgerTotals, error) {
	row, err := r.queries.CheckLedgerConsistency(ctx)
	if err != nil {
		return usecase.LedgerTotals{}, fmt.Errorf("ledger totals: %w", err)
	}

	return usecase.LedgerTotals{
		BalanceLedgerSum: numericToDecimal(row.BalanceLedgerSum),
		CommissionSum:    numericToDecimal(row.CommissionSum),
		TotalDebited:     numericToDecimal(row.TotalDebited),
		TotalAmount:      numericToDecimal(row.TotalAmount),
		TotalCommission:  numericToDecimal(row.TotalCommission),
	}, nil
}
