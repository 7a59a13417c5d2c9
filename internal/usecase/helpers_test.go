package usecase_test

import (
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

type harness struct {
	store        *mocks.Store
	txManager    *mocks.MockTransactionManager
	accounts     *mocks.MockAccountRepository
	transactions *mocks.MockTransactionRepository
	ledger       *mocks.MockBalanceLedgerRepository
	commissions  *mocks.MockCommissionLedgerRepository
	events       *mocks.MockEventRepository
	notifier     *mocks.RecordingNotifier
	recorder     *usecase.EventRecorder
	transfers    *usecase.TransferUseCase
}

func newHarness(t *testing.T, metrics usecase.TransferMetrics) *harness {
	t.Helper()

	store := mocks.NewStore()
	h := &harness{
		store:        store,
		txManager:    mocks.NewMockTransactionManager(store),
		accounts:     mocks.NewMockAccountRepository(store),
		transactions: mocks.NewMockTransactionRepository(store),
		ledger:       mocks.NewMockBalanceLedgerRepository(store),
		commissions:  mocks.NewMockCommissionLedgerRepository(store),
		events:       mocks.NewMockEventRepository(store),
		notifier:     &mocks.RecordingNotifier{},
	}

	h.recorder = usecase.NewEventRecorder(h.events)
	h.transfers = usecase.NewTransferUseCase(
		usecase.NewUnitOfWork(h.txManager, zerolog.Nop()),
		h.accounts,
		h.transactions,
		h.ledger,
		h.commissions,
		h.recorder,
		h.notifier,
		&mocks.SequentialIDGenerator{},
		metrics,
		zerolog.Nop(),
	)

	return h
}

func (h *harness) assertNothingPersisted(t *testing.T) {
	t.Helper()

	transactions, ledger, commissions, events := h.store.Counts()
	if transactions+ledger+commissions+events != 0 {
		t.Fatalf("expected no rows, got transactions=%d ledger=%d commissions=%d events=%d",
			transactions, ledger, commissions, events)
	}

	if n := len(h.notifier.Sent()); n != 0 {
		t.Fatalf("expected no notifications, got %d", n)
	}
}
