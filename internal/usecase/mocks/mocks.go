package mocks

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// Store is an in-memory database shared by the mock repositories. An open
// MockTransaction holds the store's write lock, which stands in for row locks,
// and Rollback restores the snapshot taken at Begin.
type Store struct {
	txLock sync.Mutex
	mu     sync.RWMutex

	accounts     map[int64]domain.Account
	transactions map[int64]domain.Transaction
	ledger       []domain.BalanceLedgerEntry
	commissions  []domain.CommissionLedgerEntry
	events       []domain.TransactionEvent
	seq          int64

	// LockRequests records every id list passed to GetByIDsForUpdate.
	LockRequests [][]int64
}

type storeState struct {
	accounts     map[int64]domain.Account
	transactions map[int64]domain.Transaction
	ledger       []domain.BalanceLedgerEntry
	commissions  []domain.CommissionLedgerEntry
	events       []domain.TransactionEvent
	seq          int64
}

func NewStore() *Store {
	return &Store{
		accounts:     make(map[int64]domain.Account),
		transactions: make(map[int64]domain.Transaction),
	}
}

// AddAccount seeds an account and returns its id.
func (s *Store) AddAccount(name, balance string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.accounts[s.seq] = domain.Account{
		ID:      s.seq,
		Name:    name,
		Email:   name + "@example.com",
		Balance: domain.MustParseMoney(balance),
	}

	return s.seq
}

// Balance returns the stored balance of an account.
func (s *Store) Balance(id int64) domain.Money {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.accounts[id].Balance
}

// Counts returns the number of transactions, ledger rows, commission rows and events.
func (s *Store) Counts() (transactions, ledger, commissions, events int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.transactions), len(s.ledger), len(s.commissions), len(s.events)
}

func (s *Store) nextID() int64 {
	s.seq++
	return s.seq
}

func (s *Store) snapshot() storeState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	accounts := make(map[int64]domain.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	transactions := make(map[int64]domain.Transaction, len(s.transactions))
	for k, v := range s.transactions {
		transactions[k] = v
	}

	return storeState{
		accounts:     accounts,
		transactions: transactions,
		ledger:       slices.Clone(s.ledger),
		commissions:  slices.Clone(s.commissions),
		events:       slices.Clone(s.events),
		seq:          s.seq,
	}
}

func (s *Store) restore(state storeState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = state.accounts
	s.transactions = state.transactions
	s.ledger = state.ledger
	s.commissions = state.commissions
	s.events = state.events
	s.seq = state.seq
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	store *Store

	BeginFunc func(ctx context.Context) (usecase.Transaction, error)

	mu        sync.Mutex
	Commits   int
	Rollbacks int
}

func NewMockTransactionManager(store *Store) *MockTransactionManager {
	return &MockTransactionManager{store: store}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}

	m.store.txLock.Lock()

	return &MockTransaction{manager: m, snapshot: m.store.snapshot()}, nil
}

// MockTransaction is a mock implementation of Transaction.
type MockTransaction struct {
	manager  *MockTransactionManager
	snapshot storeState
	done     bool

	CommitFunc   func(ctx context.Context) error
	RollbackFunc func(ctx context.Context) error
}

func (m *MockTransaction) Commit(ctx context.Context) error {
	if m.CommitFunc != nil {
		if err := m.CommitFunc(ctx); err != nil {
			return err
		}
	}
	if m.done {
		return errors.New("transaction already closed")
	}

	m.done = true
	m.manager.mu.Lock()
	m.manager.Commits++
	m.manager.mu.Unlock()
	m.manager.store.txLock.Unlock()

	return nil
}

func (m *MockTransaction) Rollback(ctx context.Context) error {
	if m.RollbackFunc != nil {
		return m.RollbackFunc(ctx)
	}
	if m.done {
		return nil
	}

	m.done = true
	m.manager.store.restore(m.snapshot)
	m.manager.mu.Lock()
	m.manager.Rollbacks++
	m.manager.mu.Unlock()
	m.manager.store.txLock.Unlock()

	return nil
}

// MockAccountRepository is a mock implementation of AccountRepository.
type MockAccountRepository struct {
	store *Store

	GetByIDsForUpdateFunc func(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error)
	GetBalanceFunc        func(ctx context.Context, tx usecase.Transaction, id int64) (domain.Money, error)
	DebitFunc             func(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error
	CreditFunc            func(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error
}

func NewMockAccountRepository(store *Store) *MockAccountRepository {
	return &MockAccountRepository{store: store}
}

func (m *MockAccountRepository) Create(ctx context.Context, account *domain.Account) error {
	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	for _, a := range m.store.accounts {
		if a.Email == account.Email {
			return domain.ErrAccountExists
		}
	}

	account.ID = m.store.nextID()
	m.store.accounts[account.ID] = *account

	return nil
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	if a, ok := m.store.accounts[id]; ok {
		return &a, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, a := range m.store.accounts {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	var accounts []*domain.Account
	for _, id := range ids {
		if a, ok := m.store.accounts[id]; ok {
			accounts = append(accounts, &a)
		}
	}
	return accounts, nil
}

func (m *MockAccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	m.store.mu.Lock()
	m.store.LockRequests = append(m.store.LockRequests, slices.Clone(ids))
	m.store.mu.Unlock()

	if m.GetByIDsForUpdateFunc != nil {
		return m.GetByIDsForUpdateFunc(ctx, tx, ids)
	}

	return m.GetByIDs(ctx, ids)
}

func (m *MockAccountRepository) GetBalance(ctx context.Context, tx usecase.Transaction, id int64) (domain.Money, error) {
	if m.GetBalanceFunc != nil {
		return m.GetBalanceFunc(ctx, tx, id)
	}

	a, err := m.GetByID(ctx, id)
	if err != nil {
		return domain.Money{}, err
	}
	return a.Balance, nil
}

func (m *MockAccountRepository) Debit(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error {
	if m.DebitFunc != nil {
		return m.DebitFunc(ctx, tx, id, amount, updatedAt)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	a, ok := m.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	// mirrors the accounts_balance_non_negative CHECK
	balance, err := a.ApplyDebit(amount)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInsufficientBalance, err)
	}

	a.Balance = balance
	a.UpdatedAt = updatedAt
	m.store.accounts[id] = a

	return nil
}

func (m *MockAccountRepository) Credit(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error {
	if m.CreditFunc != nil {
		return m.CreditFunc(ctx, tx, id, amount, updatedAt)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	a, ok := m.store.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}

	a.Balance = a.ApplyCredit(amount)
	a.UpdatedAt = updatedAt
	m.store.accounts[id] = a

	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	ids := make([]int64, 0, len(m.store.accounts))
	for id := range m.store.accounts {
		ids = append(ids, id)
	}
	slices.Sort(ids)

	var accounts []*domain.Account
	for _, id := range page(ids, limit, offset) {
		a := m.store.accounts[id]
		accounts = append(accounts, &a)
	}
	return accounts, nil
}

// MockTransactionRepository is a mock implementation of TransactionRepository.
type MockTransactionRepository struct {
	store *Store

	CreateFunc       func(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error
	UpdateStatusFunc func(ctx context.Context, tx usecase.Transaction, id int64, status domain.TransactionStatus, failureReason *string, updatedAt time.Time) error
}

func NewMockTransactionRepository(store *Store) *MockTransactionRepository {
	return &MockTransactionRepository{store: store}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, transaction)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	transaction.ID = m.store.nextID()
	m.store.transactions[transaction.ID] = *transaction

	return nil
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id int64, status domain.TransactionStatus, failureReason *string, updatedAt time.Time) error {
	if m.UpdateStatusFunc != nil {
		return m.UpdateStatusFunc(ctx, tx, id, status, failureReason, updatedAt)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	t, ok := m.store.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}

	t.Status = status
	t.FailureReason = failureReason
	t.UpdatedAt = updatedAt
	m.store.transactions[id] = t

	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	if t, ok := m.store.transactions[id]; ok {
		return &t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	return m.list(func(t domain.Transaction) bool { return t.Involves(accountID) }, limit, offset), nil
}

func (m *MockTransactionRepository) ListSent(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	return m.list(func(t domain.Transaction) bool { return t.IsSender(accountID) }, limit, offset), nil
}

func (m *MockTransactionRepository) ListReceived(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	return m.list(func(t domain.Transaction) bool { return t.ReceiverID == accountID }, limit, offset), nil
}

func (m *MockTransactionRepository) list(match func(domain.Transaction) bool, limit, offset int) []*domain.Transaction {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	var ids []int64
	for id, t := range m.store.transactions {
		if match(t) {
			ids = append(ids, id)
		}
	}
	// newest first
	sort.Slice(ids, func(i, j int) bool { return ids[i] > ids[j] })

	var result []*domain.Transaction
	for _, id := range page(ids, limit, offset) {
		t := m.store.transactions[id]
		result = append(result, &t)
	}
	return result
}

// MockBalanceLedgerRepository is a mock implementation of BalanceLedgerRepository.
type MockBalanceLedgerRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceLedgerEntry) error
}

func NewMockBalanceLedgerRepository(store *Store) *MockBalanceLedgerRepository {
	return &MockBalanceLedgerRepository{store: store}
}

func (m *MockBalanceLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.BalanceLedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	entry.ID = m.store.nextID()
	m.store.ledger = append(m.store.ledger, *entry)

	return nil
}

func (m *MockBalanceLedgerRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*domain.BalanceLedgerEntry, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	var entries []*domain.BalanceLedgerEntry
	for _, e := range m.store.ledger {
		if e.TransactionID == transactionID {
			entries = append(entries, &e)
		}
	}
	return entries, nil
}

func (m *MockBalanceLedgerRepository) GetLatestByAccount(ctx context.Context, accountID int64) (*domain.BalanceLedgerEntry, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for i := len(m.store.ledger) - 1; i >= 0; i-- {
		if e := m.store.ledger[i]; e.AccountID == accountID {
			return &e, nil
		}
	}
	return nil, domain.ErrLedgerEntryNotFound
}

// MockCommissionLedgerRepository is a mock implementation of CommissionLedgerRepository.
type MockCommissionLedgerRepository struct {
	store *Store

	CreateFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.CommissionLedgerEntry) error
}

func NewMockCommissionLedgerRepository(store *Store) *MockCommissionLedgerRepository {
	return &MockCommissionLedgerRepository{store: store}
}

func (m *MockCommissionLedgerRepository) Create(ctx context.Context, tx usecase.Transaction, entry *domain.CommissionLedgerEntry) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, entry)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	entry.ID = m.store.nextID()
	m.store.commissions = append(m.store.commissions, *entry)

	return nil
}

func (m *MockCommissionLedgerRepository) GetByTransaction(ctx context.Context, transactionID int64) (*domain.CommissionLedgerEntry, error) {
	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	for _, e := range m.store.commissions {
		if e.TransactionID == transactionID {
			return &e, nil
		}
	}
	return nil, domain.ErrLedgerEntryNotFound
}

// MockEventRepository is a mock implementation of EventRepository.
type MockEventRepository struct {
	store *Store

	CreateFunc            func(ctx context.Context, tx usecase.Transaction, event *domain.TransactionEvent) error
	ListByTransactionFunc func(ctx context.Context, transactionID int64) ([]*domain.TransactionEvent, error)

	mu    sync.Mutex
	Reads int
}

func NewMockEventRepository(store *Store) *MockEventRepository {
	return &MockEventRepository{store: store}
}

func (m *MockEventRepository) Create(ctx context.Context, tx usecase.Transaction, event *domain.TransactionEvent) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, event)
	}

	m.store.mu.Lock()
	defer m.store.mu.Unlock()

	event.ID = m.store.nextID()
	m.store.events = append(m.store.events, *event)

	return nil
}

func (m *MockEventRepository) ListByTransaction(ctx context.Context, transactionID int64) ([]*domain.TransactionEvent, error) {
	m.mu.Lock()
	m.Reads++
	m.mu.Unlock()

	if m.ListByTransactionFunc != nil {
		return m.ListByTransactionFunc(ctx, transactionID)
	}

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	var events []*domain.TransactionEvent
	for _, e := range m.store.events {
		if e.TransactionID == transactionID {
			events = append(events, &e)
		}
	}
	return events, nil
}

// MockLedgerRepository is a mock implementation of LedgerRepository that sums the store.
type MockLedgerRepository struct {
	store *Store

	CheckConsistencyFunc func(ctx context.Context) (usecase.LedgerTotals, error)
}

func NewMockLedgerRepository(store *Store) *MockLedgerRepository {
	return &MockLedgerRepository{store: store}
}

func (m *MockLedgerRepository) CheckConsistency(ctx context.Context) (usecase.LedgerTotals, error) {
	if m.CheckConsistencyFunc != nil {
		return m.CheckConsistencyFunc(ctx)
	}

	m.store.mu.RLock()
	defer m.store.mu.RUnlock()

	totals := usecase.LedgerTotals{
		BalanceLedgerSum: decimal.Zero,
		CommissionSum:    decimal.Zero,
		TotalDebited:     decimal.Zero,
		TotalAmount:      decimal.Zero,
		TotalCommission:  decimal.Zero,
	}

	for _, e := range m.store.ledger {
		totals.BalanceLedgerSum = totals.BalanceLedgerSum.Add(e.Amount)
	}
	for _, c := range m.store.commissions {
		totals.CommissionSum = totals.CommissionSum.Add(c.Amount.Decimal())
	}
	for _, t := range m.store.transactions {
		if t.Status != domain.TransactionStatusCompleted {
			continue
		}
		totals.TotalDebited = totals.TotalDebited.Add(t.TotalDebited.Decimal())
		totals.TotalAmount = totals.TotalAmount.Add(t.Amount.Decimal())
		totals.TotalCommission = totals.TotalCommission.Add(t.CommissionFee.Decimal())
	}

	return totals, nil
}

// SequentialIDGenerator returns "id-1", "id-2", ...
type SequentialIDGenerator struct {
	mu sync.Mutex
	n  int
}

func (g *SequentialIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return "id-" + strconv.Itoa(g.n)
}

// RecordingNotifier captures notifications in memory.
type RecordingNotifier struct {
	mu            sync.Mutex
	Notifications []domain.TransferCompleted
}

func (n *RecordingNotifier) Notify(ctx context.Context, notification domain.TransferCompleted) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Notifications = append(n.Notifications, notification)
}

// Sent returns a copy of the captured notifications.
func (n *RecordingNotifier) Sent() []domain.TransferCompleted {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.Notifications)
}

func page(ids []int64, limit, offset int) []int64 {
	if offset >= len(ids) {
		return nil
	}
	end := len(ids)
	if limit > 0 && offset+limit < end {
		end = offset + limit
	}
	return ids[offset:end]
}
