package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
)

// ReconciliationUseCase checks stored balances against the ledgers.
type ReconciliationUseCase struct {
	accountRepo   AccountRepository
	balanceLedger BalanceLedgerRepository
	ledgerRepo    LedgerRepository
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	balanceLedger BalanceLedgerRepository,
	ledgerRepo LedgerRepository,
) *ReconciliationUseCase {
	return &ReconciliationUseCase{
		accountRepo:   accountRepo,
		balanceLedger: balanceLedger,
		ledgerRepo:    ledgerRepo,
	}
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         int64
	RecordedBalance   domain.Money
	CalculatedBalance domain.Money
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ReconcileAccount compares the stored balance with the balance_after of the
// account's latest ledger entry. Accounts with no ledger history are reconciled
// by definition (their balance is the opening balance).
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID int64) (*ReconciliationResult, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	calculated := account.Balance

	latest, err := uc.balanceLedger.GetLatestByAccount(ctx, accountID)
	switch {
	case err == nil:
		calculated = latest.BalanceAfter
	case errors.Is(err, domain.ErrLedgerEntryNotFound):
	default:
		return nil, err
	}

	diff := account.Balance.Decimal().Sub(calculated.Decimal())

	return &ReconciliationResult{
		AccountID:         accountID,
		RecordedBalance:   account.Balance,
		CalculatedBalance: calculated,
		Difference:        diff,
		IsReconciled:      diff.IsZero(),
		LastChecked:       time.Now().UTC(),
	}, nil
}

// ReconcileAllAccounts reconciles every account, paging through the store.
func (uc *ReconciliationUseCase) ReconcileAllAccounts(ctx context.Context) ([]*ReconciliationResult, error) {
	var results []*ReconciliationResult

	for offset := 0; ; offset += domain.MaxPageSize {
		accounts, err := uc.accountRepo.List(ctx, domain.MaxPageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, account.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to reconcile account %d: %w", account.ID, err)
			}
			results = append(results, result)
		}

		if len(accounts) < domain.MaxPageSize {
			return results, nil
		}
	}
}

// CheckLedgerConsistency verifies, over completed transactions, that the signed
// balance ledger plus collected commission nets to zero and that every
// total_debited equals amount plus commission.
func (uc *ReconciliationUseCase) CheckLedgerConsistency(ctx context.Context) error {
	totals, err := uc.ledgerRepo.CheckConsistency(ctx)
	if err != nil {
		return err
	}

	if net := totals.BalanceLedgerSum.Add(totals.CommissionSum); !net.IsZero() {
		return fmt.Errorf(
			"%w: balance ledger=%s commission=%s difference=%s",
			domain.ErrLedgerMismatch,
			totals.BalanceLedgerSum.String(),
			totals.CommissionSum.String(),
			net.String(),
		)
	}

	if expected := totals.TotalAmount.Add(totals.TotalCommission); !totals.TotalDebited.Equal(expected) {
		return fmt.Errorf(
			"%w: total_debited=%s amount+commission=%s",
			domain.ErrLedgerMismatch,
			totals.TotalDebited.String(),
			expected.String(),
		)
	}

	return nil
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	LedgerConsistent   bool
	LedgerError        string
	CheckedAt          time.Time
}

// GenerateReconciliationReport generates a comprehensive reconciliation report
func (uc *ReconciliationUseCase) GenerateReconciliationReport(ctx context.Context) (*ReconciliationReport, error) {
	results, err := uc.ReconcileAllAccounts(ctx)
	if err != nil {
		return nil, err
	}

	ledgerErr := uc.CheckLedgerConsistency(ctx)

	report := &ReconciliationReport{
		TotalAccounts:    len(results),
		Discrepancies:    make([]*ReconciliationResult, 0),
		LedgerConsistent: ledgerErr == nil,
		CheckedAt:        time.Now().UTC(),
	}
	if ledgerErr != nil {
		report.LedgerError = ledgerErr.Error()
	}

	for _, result := range results {
		if result.IsReconciled {
			report.ReconciledAccounts++
		} else {
			report.Discrepancies = append(report.Discrepancies, result)
		}
	}

	return report, nil
}
