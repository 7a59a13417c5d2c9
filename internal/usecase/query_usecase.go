package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/domain"
)

// ErrCacheMiss is returned by Cache.Get when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Direction is a transaction seen from one participant.
type Direction string

const (
	DirectionSent     Direction = "sent"
	DirectionReceived Direction = "received"
)

// TransactionView pairs a transaction with the viewer's side of it.
type TransactionView struct {
	Transaction  *domain.Transaction
	Direction    Direction
	Counterparty *domain.Account // nil for system credits
}

// AccountStatement is the balance of an account and its recent transactions.
type AccountStatement struct {
	Account      *domain.Account
	Transactions []TransactionView
}

// TransactionLedger holds the ledger rows written by one transaction.
type TransactionLedger struct {
	Entries    []*domain.BalanceLedgerEntry
	Commission *domain.CommissionLedgerEntry
}

// TransactionQueryUseCase serves read-only views of transactions.
type TransactionQueryUseCase struct {
	transactionRepo  TransactionRepository
	accountRepo      AccountRepository
	balanceLedger    BalanceLedgerRepository
	commissionLedger CommissionLedgerRepository
	recorder         *EventRecorder
	cache            Cache
	cacheTTL         time.Duration
	logger           zerolog.Logger
}

// NewTransactionQueryUseCase creates a new TransactionQueryUseCase. cache may be nil.
func NewTransactionQueryUseCase(
	transactionRepo TransactionRepository,
	accountRepo AccountRepository,
	balanceLedger BalanceLedgerRepository,
	commissionLedger CommissionLedgerRepository,
	recorder *EventRecorder,
	cache Cache,
	cacheTTL time.Duration,
	logger zerolog.Logger,
) *TransactionQueryUseCase {
	if cacheTTL <= 0 {
		cacheTTL = DefaultHistoryCacheTTL
	}

	return &TransactionQueryUseCase{
		transactionRepo:  transactionRepo,
		accountRepo:      accountRepo,
		balanceLedger:    balanceLedger,
		commissionLedger: commissionLedger,
		recorder:         recorder,
		cache:            cache,
		cacheTTL:         cacheTTL,
		logger:           logger,
	}
}

// ListForAccount returns the account with its sent and received transactions, newest first.
func (uc *TransactionQueryUseCase) ListForAccount(ctx context.Context, accountID int64, limit, offset int) (*AccountStatement, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	transactions, err := uc.transactionRepo.ListForAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, err
	}

	views, err := uc.views(ctx, accountID, transactions)
	if err != nil {
		return nil, err
	}

	return &AccountStatement{Account: account, Transactions: views}, nil
}

// ListSent returns transactions the account sent, newest first.
func (uc *TransactionQueryUseCase) ListSent(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.transactionRepo.ListSent(ctx, accountID, limit, offset)
}

// ListReceived returns transactions the account received, newest first.
func (uc *TransactionQueryUseCase) ListReceived(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	limit, offset = domain.ValidatePagination(limit, offset)
	return uc.transactionRepo.ListReceived(ctx, accountID, limit, offset)
}

// Get returns one transaction as seen by accountID. Transactions the account did
// not take part in are reported as not found.
func (uc *TransactionQueryUseCase) Get(ctx context.Context, accountID, transactionID int64) (*TransactionView, error) {
	txn, err := uc.participantTransaction(ctx, accountID, transactionID)
	if err != nil {
		return nil, err
	}

	views, err := uc.views(ctx, accountID, []*domain.Transaction{txn})
	if err != nil {
		return nil, err
	}

	return &views[0], nil
}

// EventHistory returns the event log of a transaction the account took part in.
// Completed transactions never gain events, so their history is cached.
func (uc *TransactionQueryUseCase) EventHistory(ctx context.Context, accountID, transactionID int64) ([]domain.EventRecord, error) {
	txn, err := uc.participantTransaction(ctx, accountID, transactionID)
	if err != nil {
		return nil, err
	}

	cacheable := uc.cache != nil && txn.Status == domain.TransactionStatusCompleted
	key := fmt.Sprintf("%s%d", historyCachePrefix, transactionID)

	if cacheable {
		if records, ok := uc.cachedHistory(ctx, key); ok {
			return records, nil
		}
	}

	records, err := uc.recorder.History(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if data, err := json.Marshal(records); err == nil {
			if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
				uc.logger.Warn().Err(err).Int64("transaction_id", transactionID).Msg("failed to cache event history")
			}
		}
	}

	return records, nil
}

// LedgerEntries returns the balance and commission ledger rows of a transaction.
func (uc *TransactionQueryUseCase) LedgerEntries(ctx context.Context, transactionID int64) (*TransactionLedger, error) {
	entries, err := uc.balanceLedger.ListByTransaction(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	commission, err := uc.commissionLedger.GetByTransaction(ctx, transactionID)
	if err != nil && !errors.Is(err, domain.ErrLedgerEntryNotFound) {
		return nil, err
	}

	return &TransactionLedger{Entries: entries, Commission: commission}, nil
}

func (uc *TransactionQueryUseCase) cachedHistory(ctx context.Context, key string) ([]domain.EventRecord, bool) {
	data, err := uc.cache.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			uc.logger.Warn().Err(err).Str("key", key).Msg("event history cache unavailable")
		}
		return nil, false
	}

	var records []domain.EventRecord
	if err := json.Unmarshal(data, &records); err != nil {
		uc.logger.Warn().Err(err).Str("key", key).Msg("discarding corrupt event history cache entry")
		return nil, false
	}

	return records, true
}

func (uc *TransactionQueryUseCase) participantTransaction(ctx context.Context, accountID, transactionID int64) (*domain.Transaction, error) {
	txn, err := uc.transactionRepo.GetByID(ctx, transactionID)
	if err != nil {
		return nil, err
	}

	if !txn.Involves(accountID) {
		return nil, domain.ErrTransactionNotFound
	}

	return txn, nil
}

func (uc *TransactionQueryUseCase) views(ctx context.Context, accountID int64, transactions []*domain.Transaction) ([]TransactionView, error) {
	ids := make([]int64, 0, len(transactions))
	for _, t := range transactions {
		if other, ok := counterpartyID(t, accountID); ok {
			ids = append(ids, other)
		}
	}

	counterparties := make(map[int64]*domain.Account, len(ids))
	if len(ids) > 0 {
		accounts, err := uc.accountRepo.GetByIDs(ctx, domain.LockOrder(ids...))
		if err != nil {
			return nil, err
		}
		for _, a := range accounts {
			counterparties[a.ID] = a
		}
	}

	views := make([]TransactionView, 0, len(transactions))
	for _, t := range transactions {
		view := TransactionView{Transaction: t, Direction: DirectionReceived}
		if t.IsSender(accountID) {
			view.Direction = DirectionSent
		}
		if other, ok := counterpartyID(t, accountID); ok {
			view.Counterparty = counterparties[other]
		}
		views = append(views, view)
	}

	return views, nil
}

func counterpartyID(t *domain.Transaction, accountID int64) (int64, bool) {
	if t.IsSender(accountID) {
		return t.ReceiverID, true
	}
	if t.SenderID == nil {
		return 0, false
	}
	return *t.SenderID, true
}
