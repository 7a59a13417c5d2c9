package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// TransferUseCase moves money between two accounts.
type TransferUseCase struct {
	uow              *UnitOfWork
	accountRepo      AccountRepository
	transactionRepo  TransactionRepository
	balanceLedger    BalanceLedgerRepository
	commissionLedger CommissionLedgerRepository
	recorder         *EventRecorder
	notifier         Notifier
	idGen            IDGenerator
	metrics          TransferMetrics
	logger           zerolog.Logger
	now              func() time.Time
}

// NewTransferUseCase creates a new TransferUseCase. metrics may be nil.
func NewTransferUseCase(
	uow *UnitOfWork,
	accountRepo AccountRepository,
	transactionRepo TransactionRepository,
	balanceLedger BalanceLedgerRepository,
	commissionLedger CommissionLedgerRepository,
	recorder *EventRecorder,
	notifier Notifier,
	idGen IDGenerator,
	metrics TransferMetrics,
	logger zerolog.Logger,
) *TransferUseCase {
	return &TransferUseCase{
		uow:              uow,
		accountRepo:      accountRepo,
		transactionRepo:  transactionRepo,
		balanceLedger:    balanceLedger,
		commissionLedger: commissionLedger,
		recorder:         recorder,
		notifier:         notifier,
		idGen:            idGen,
		metrics:          metrics,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// TransferInput represents input for a transfer. Amount is a decimal string that
// the request layer has already shape-checked.
type TransferInput struct {
	SenderID    int64
	ReceiverID  int64
	Amount      string
	Description string
}

// Transfer debits amount plus commission from the sender, credits amount to the
// receiver and writes the transaction, its ledger rows, its commission row and
// its events as one unit. Nothing is persisted when an error is returned.
func (uc *TransferUseCase) Transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	start := time.Now()

	txn, err := uc.transfer(ctx, input)

	uc.observe(txn, err, time.Since(start))

	return txn, err
}

// EventHistory returns the event log of a transaction.
func (uc *TransferUseCase) EventHistory(ctx context.Context, transactionID int64) ([]domain.EventRecord, error) {
	return uc.recorder.History(ctx, transactionID)
}

func (uc *TransferUseCase) transfer(ctx context.Context, input TransferInput) (*domain.Transaction, error) {
	if input.SenderID == input.ReceiverID {
		return nil, domain.CannotTransferToSelf()
	}

	amount, err := domain.ParseMoney(input.Amount)
	if err != nil {
		return nil, err
	}

	if amount.IsZero() {
		return nil, fmt.Errorf("%w: transfer amount must be positive", domain.ErrInvalidAmount)
	}

	var result *domain.Transaction

	err = uc.uow.Do(ctx, func(ctx context.Context, tx Transaction, hooks *AfterCommit) error {
		now := uc.now()

		// Lock both rows in ascending id order (DEADLOCK PREVENTION)
		accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, domain.LockOrder(input.SenderID, input.ReceiverID))
		if err != nil {
			return fmt.Errorf("lock accounts: %w", err)
		}

		sender, receiver := pickAccount(accounts, input.SenderID), pickAccount(accounts, input.ReceiverID)
		if sender == nil {
			return fmt.Errorf("sender %d: %w", input.SenderID, domain.ErrAccountNotFound)
		}

		if receiver == nil {
			return domain.ReceiverNotFound(input.ReceiverID)
		}

		txn := domain.NewPendingTransaction(sender.ID, receiver.ID, amount, input.Description, now)

		// Solvency guard runs strictly before the first write
		if err := sender.ValidateDebit(txn.TotalDebited); err != nil {
			return err
		}

		if err := txn.Validate(); err != nil {
			return err
		}

		if err := uc.transactionRepo.Create(ctx, tx, txn); err != nil {
			return fmt.Errorf("create transaction: %w", err)
		}

		if _, err := uc.recorder.Record(ctx, tx, txn, domain.EventTypeInitiated, domain.InitiatedPayload{
			SenderID:              sender.ID,
			ReceiverID:            receiver.ID,
			Amount:                txn.Amount,
			Commission:            txn.CommissionFee,
			TotalDebit:            txn.TotalDebited,
			SenderBalanceBefore:   sender.Balance,
			ReceiverBalanceBefore: receiver.Balance,
		}); err != nil {
			return err
		}

		if _, err := uc.recorder.Record(ctx, tx, txn, domain.EventTypeValidated, domain.ValidatedPayload{
			ValidationChecks: domain.ValidationChecks{
				SufficientBalance: true,
				NotSelfTransfer:   true,
				ReceiverExists:    true,
			},
		}); err != nil {
			return err
		}

		if err := uc.accountRepo.Debit(ctx, tx, sender.ID, txn.TotalDebited, now); err != nil {
			return fmt.Errorf("debit sender %d: %w", sender.ID, err)
		}

		if _, err := uc.recorder.Record(ctx, tx, txn, domain.EventTypeDebited, domain.BalanceChangePayload{
			AccountID:     sender.ID,
			Amount:        txn.TotalDebited,
			BalanceBefore: sender.Balance,
		}); err != nil {
			return err
		}

		if err := uc.accountRepo.Credit(ctx, tx, receiver.ID, txn.Amount, now); err != nil {
			return fmt.Errorf("credit receiver %d: %w", receiver.ID, err)
		}

		if _, err := uc.recorder.Record(ctx, tx, txn, domain.EventTypeCredited, domain.BalanceChangePayload{
			AccountID:     receiver.ID,
			Amount:        txn.Amount,
			BalanceBefore: receiver.Balance,
		}); err != nil {
			return err
		}

		// Authoritative balances come from the store, not from in-memory deltas
		senderAfter, err := uc.accountRepo.GetBalance(ctx, tx, sender.ID)
		if err != nil {
			return fmt.Errorf("re-read sender balance: %w", err)
		}

		receiverAfter, err := uc.accountRepo.GetBalance(ctx, tx, receiver.ID)
		if err != nil {
			return fmt.Errorf("re-read receiver balance: %w", err)
		}

		if err := uc.writeLedger(ctx, tx, txn, sender, receiver, senderAfter, receiverAfter, now); err != nil {
			return err
		}

		if err := uc.commissionLedger.Create(ctx, tx, &domain.CommissionLedgerEntry{
			TransactionID: txn.ID,
			Amount:        txn.CommissionFee,
			Status:        domain.CommissionStatusCollected,
			CollectedAt:   now,
			CreatedAt:     now,
		}); err != nil {
			return fmt.Errorf("create commission entry: %w", err)
		}

		if err := uc.transactionRepo.UpdateStatus(ctx, tx, txn.ID, domain.TransactionStatusCompleted, nil, now); err != nil {
			return fmt.Errorf("complete transaction: %w", err)
		}
		txn.Status = domain.TransactionStatusCompleted
		txn.UpdatedAt = now

		if _, err := uc.recorder.Record(ctx, tx, txn, domain.EventTypeCompleted, domain.CompletedPayload{
			SenderBalanceAfter:   senderAfter,
			ReceiverBalanceAfter: receiverAfter,
			CommissionCollected:  txn.CommissionFee,
			CompletedAt:          now,
		}); err != nil {
			return err
		}

		hooks.Register(func(ctx context.Context) {
			if uc.notifier == nil {
				return
			}
			uc.notifier.Notify(ctx, domain.NewTransferCompleted(uc.idGen.Generate(), txn, now))
		})

		result = txn

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *TransferUseCase) writeLedger(
	ctx context.Context,
	tx Transaction,
	txn *domain.Transaction,
	sender, receiver *domain.Account,
	senderAfter, receiverAfter domain.Money,
	now time.Time,
) error {
	debit, err := domain.NewDebitEntry(sender.ID, txn.ID, txn.TotalDebited, sender.Balance, senderAfter, now)
	if err != nil {
		return err
	}

	credit, err := domain.NewCreditEntry(receiver.ID, txn.ID, txn.Amount, receiver.Balance, receiverAfter, now)
	if err != nil {
		return err
	}

	if err := domain.ReconcileTransfer(txn, debit, credit); err != nil {
		return err
	}

	if err := uc.balanceLedger.Create(ctx, tx, debit); err != nil {
		return fmt.Errorf("create debit entry: %w", err)
	}

	if err := uc.balanceLedger.Create(ctx, tx, credit); err != nil {
		return fmt.Errorf("create credit entry: %w", err)
	}

	return nil
}

func (uc *TransferUseCase) observe(txn *domain.Transaction, err error, elapsed time.Duration) {
	if err != nil {
		reason := FailureReason(err)
		if uc.metrics != nil {
			uc.metrics.TransferFailed(reason, elapsed)
		}

		event := uc.logger.Warn()
		if reason == "internal" {
			event = uc.logger.Error()
		}
		event.Err(err).Str("reason", reason).Dur("duration", elapsed).Msg("transfer rejected")

		return
	}

	if uc.metrics != nil {
		uc.metrics.TransferCompleted(txn.CommissionFee, elapsed)
	}

	uc.logger.Info().
		Int64("transaction_id", txn.ID).
		Int64("receiver_id", txn.ReceiverID).
		Str("amount", txn.Amount.String()).
		Str("commission", txn.CommissionFee.String()).
		Dur("duration", elapsed).
		Msg("transfer completed")
}

// FailureReason classifies a transfer error for metrics and logs.
func FailureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, domain.ErrInvalidTransfer):
		return "invalid_transfer"
	case errors.Is(err, domain.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, domain.ErrAccountNotFound):
		return "account_not_found"
	case errors.Is(err, domain.ErrLedgerMismatch):
		return "ledger_mismatch"
	default:
		return "internal"
	}
}

func pickAccount(accounts []*domain.Account, id int64) *domain.Account {
	for _, a := range accounts {
		if a.ID == id {
			return a
		}
	}
	return nil
}
