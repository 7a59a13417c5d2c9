package usecase_test

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestTransferUseCase_Transfer_CompletesScenario(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockTransferMetrics(ctrl)
	metrics.EXPECT().TransferCompleted(gomock.Any(), gomock.Any()).Times(1)

	h := newHarness(t, metrics)
	alice := h.store.AddAccount("alice", "1000")
	bob := h.store.AddAccount("bob", "500")

	txn, err := h.transfers.Transfer(context.Background(), usecase.TransferInput{
		SenderID:    alice,
		ReceiverID:  bob,
		Amount:      "100.00",
		Description: "dinner",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.Amount.Amount() != "100.0000" || txn.CommissionFee.Amount() != "1.5000" || txn.TotalDebited.Amount() != "101.5000" {
		t.Fatalf("unexpected amounts: %s / %s / %s", txn.Amount, txn.CommissionFee, txn.TotalDebited)
	}
	if txn.Status != domain.TransactionStatusCompleted {
		t.Fatalf("expected completed, got %s", txn.Status)
	}

	if got := h.store.Balance(alice).Amount(); got != "898.5000" {
		t.Fatalf("expected sender balance 898.5000, got %s", got)
	}
	if got := h.store.Balance(bob).Amount(); got != "600.0000" {
		t.Fatalf("expected receiver balance 600.0000, got %s", got)
	}

	stored, err := h.transactions.GetByID(context.Background(), txn.ID)
	if err != nil || stored.Status != domain.TransactionStatusCompleted {
		t.Fatalf("expected stored completed transaction, got %+v (%v)", stored, err)
	}

	entries, _ := h.ledger.ListByTransaction(context.Background(), txn.ID)
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}
	debit, credit := entries[0], entries[1]
	if debit.Type != domain.LedgerTypeDebit || debit.Amount.String() != "-101.5" ||
		debit.BalanceBefore.Amount() != "1000.0000" || debit.BalanceAfter.Amount() != "898.5000" {
		t.Fatalf("unexpected debit entry %+v", debit)
	}
	if credit.Type != domain.LedgerTypeCredit || credit.Amount.String() != "100" ||
		credit.BalanceBefore.Amount() != "500.0000" || credit.BalanceAfter.Amount() != "600.0000" {
		t.Fatalf("unexpected credit entry %+v", credit)
	}
	if sum := debit.Amount.Add(credit.Amount); !sum.Equal(txn.CommissionFee.Negated()) {
		t.Fatalf("expected signed ledger sum -1.5, got %s", sum)
	}

	commission, err := h.commissions.GetByTransaction(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("expected commission entry: %v", err)
	}
	if commission.Amount.Amount() != "1.5000" || commission.Status != domain.CommissionStatusCollected || commission.CollectedAt.IsZero() {
		t.Fatalf("unexpected commission entry %+v", commission)
	}

	history, err := h.transfers.EventHistory(context.Background(), txn.ID)
	if err != nil {
		t.Fatalf("unexpected history error: %v", err)
	}
	types := make([]domain.EventType, 0, len(history))
	for _, r := range history {
		types = append(types, r.EventType)
	}
	if !slices.Equal(types, domain.TransferEventSequence) {
		t.Fatalf("expected %v, got %v", domain.TransferEventSequence, types)
	}
	if history[0].Payload["sender_balance_before"] != "1000.0000" {
		t.Fatalf("expected initiated snapshot of sender balance, got %v", history[0].Payload)
	}
	if history[4].Payload["receiver_balance_after"] != "600.0000" {
		t.Fatalf("expected completed snapshot of receiver balance, got %v", history[4].Payload)
	}

	sent := h.notifier.Sent()
	if len(sent) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(sent))
	}
	if sent[0].TransactionID != txn.ID || !slices.Equal(sent[0].Channels(), []string{"user.1", "user.2"}) {
		t.Fatalf("unexpected notification %+v", sent[0])
	}

	if h.txManager.Commits != 1 {
		t.Fatalf("expected 1 commit, got %d", h.txManager.Commits)
	}
}

func TestTransferUseCase_Transfer_InsufficientBalanceIsAtomic(t *testing.T) {
	ctrl := gomock.NewController(t)
	metrics := mocks.NewMockTransferMetrics(ctrl)
	metrics.EXPECT().TransferFailed("insufficient_balance", gomock.Any()).Times(1)

	h := newHarness(t, metrics)
	sender := h.store.AddAccount("charlie", "50")
	receiver := h.store.AddAccount("bob", "500")

	_, err := h.transfers.Transfer(context.Background(), usecase.TransferInput{
		SenderID:   sender,
		ReceiverID: receiver,
		Amount:     "100.00",
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	want := "User 1 has insufficient balance. Required: 101.5000, Available: 50.0000"
	if err.Error() != want {
		t.Fatalf("expected %q, got %q", want, err.Error())
	}

	h.assertNothingPersisted(t)
	if h.store.Balance(sender).Amount() != "50.0000" || h.store.Balance(receiver).Amount() != "500.0000" {
		t.Fatalf("balances must be unchanged")
	}
}

func TestTransferUseCase_Transfer_Guards(t *testing.T) {
	tests := []struct {
		name    string
		input   func(sender, receiver int64) usecase.TransferInput
		wantErr error
		wantMsg string
	}{
		{
			name: "self transfer",
			input: func(sender, _ int64) usecase.TransferInput {
				return usecase.TransferInput{SenderID: sender, ReceiverID: sender, Amount: "1.00"}
			},
			wantErr: domain.ErrInvalidTransfer,
			wantMsg: "Cannot transfer money to yourself",
		},
		{
			name: "receiver not found",
			input: func(sender, _ int64) usecase.TransferInput {
				return usecase.TransferInput{SenderID: sender, ReceiverID: 99, Amount: "1.00"}
			},
			wantErr: domain.ErrInvalidTransfer,
			wantMsg: "Receiver with ID 99 not found",
		},
		{
			name: "malformed amount",
			input: func(sender, receiver int64) usecase.TransferInput {
				return usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "ten"}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "negative amount",
			input: func(sender, receiver int64) usecase.TransferInput {
				return usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "-1"}
			},
			wantErr: domain.ErrInvalidAmount,
		},
		{
			name: "zero amount",
			input: func(sender, receiver int64) usecase.TransferInput {
				return usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "0"}
			},
			wantErr: domain.ErrInvalidAmount,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, nil)
			sender := h.store.AddAccount("alice", "1000")
			receiver := h.store.AddAccount("bob", "500")

			_, err := h.transfers.Transfer(context.Background(), tt.input(sender, receiver))
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("expected %v, got %v", tt.wantErr, err)
			}
			if tt.wantMsg != "" && err.Error() != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, err.Error())
			}

			h.assertNothingPersisted(t)
			if h.store.Balance(sender).Amount() != "1000.0000" {
				t.Fatalf("sender balance must be unchanged")
			}
		})
	}
}

func TestTransferUseCase_Transfer_SelfTransferNeverOpensTransaction(t *testing.T) {
	h := newHarness(t, nil)
	id := h.store.AddAccount("alice", "1000")

	_, _ = h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: id, ReceiverID: id, Amount: "1.00"})

	if h.txManager.Commits+h.txManager.Rollbacks != 0 || len(h.store.LockRequests) != 0 {
		t.Fatalf("self transfer must be rejected before locking")
	}
}

func TestTransferUseCase_Transfer_LockOrder(t *testing.T) {
	h := newHarness(t, nil)
	for i := 0; i < 9; i++ {
		h.store.AddAccount("acc", "1000")
	}

	ctx := context.Background()
	if _, err := h.transfers.Transfer(ctx, usecase.TransferInput{SenderID: 9, ReceiverID: 5, Amount: "1.00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := h.transfers.Transfer(ctx, usecase.TransferInput{SenderID: 5, ReceiverID: 9, Amount: "1.00"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, req := range h.store.LockRequests {
		if !slices.Equal(req, []int64{5, 9}) {
			t.Fatalf("expected lock order [5 9], got %v", req)
		}
	}
}

func TestTransferUseCase_Transfer_RollsBackOnLateFailure(t *testing.T) {
	h := newHarness(t, nil)
	sender := h.store.AddAccount("alice", "1000")
	receiver := h.store.AddAccount("bob", "500")

	boom := errors.New("disk full")
	h.commissions.CreateFunc = func(context.Context, usecase.Transaction, *domain.CommissionLedgerEntry) error {
		return boom
	}

	_, err := h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "100.00"})
	if !errors.Is(err, boom) {
		t.Fatalf("expected storage error, got %v", err)
	}

	h.assertNothingPersisted(t)
	if h.store.Balance(sender).Amount() != "1000.0000" || h.store.Balance(receiver).Amount() != "500.0000" {
		t.Fatalf("balances must be restored after rollback")
	}
	if h.txManager.Rollbacks != 1 {
		t.Fatalf("expected 1 rollback, got %d", h.txManager.Rollbacks)
	}
}

func TestTransferUseCase_Transfer_LedgerMismatchRollsBack(t *testing.T) {
	h := newHarness(t, nil)
	sender := h.store.AddAccount("alice", "1000")
	receiver := h.store.AddAccount("bob", "500")

	// a store-side trigger that skims a cent from the receiver
	h.accounts.GetBalanceFunc = func(ctx context.Context, tx usecase.Transaction, id int64) (domain.Money, error) {
		if id == receiver {
			return domain.MustParseMoney("599.99"), nil
		}
		return h.store.Balance(id), nil
	}

	_, err := h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "100.00"})
	if !errors.Is(err, domain.ErrLedgerMismatch) {
		t.Fatalf("expected ErrLedgerMismatch, got %v", err)
	}

	h.assertNothingPersisted(t)
}

func TestTransferUseCase_Transfer_CommissionIsNotRoundedToCents(t *testing.T) {
	h := newHarness(t, nil)
	sender := h.store.AddAccount("alice", "10")
	receiver := h.store.AddAccount("bob", "0")

	txn, err := h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "3.00"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if txn.CommissionFee.Amount() != "0.0450" {
		t.Fatalf("expected commission 0.0450, got %s", txn.CommissionFee)
	}
	if got := h.store.Balance(sender).Amount(); got != "6.9550" {
		t.Fatalf("expected sender balance 6.9550, got %s", got)
	}
}

func TestTransferUseCase_Transfer_ExactBalanceAllowed(t *testing.T) {
	h := newHarness(t, nil)
	sender := h.store.AddAccount("alice", "101.5")
	receiver := h.store.AddAccount("bob", "0")

	if _, err := h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: sender, ReceiverID: receiver, Amount: "100"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !h.store.Balance(sender).IsZero() {
		t.Fatalf("expected sender to be drained, got %s", h.store.Balance(sender))
	}
}

func TestTransferUseCase_Transfer_ConcurrentOpposingTransfersConserveMoney(t *testing.T) {
	h := newHarness(t, nil)
	a := h.store.AddAccount("alice", "1000")
	b := h.store.AddAccount("bob", "1000")

	const rounds = 50
	var wg sync.WaitGroup
	for i := 0; i < rounds; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _ = h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: a, ReceiverID: b, Amount: "1.00"})
		}()
		go func() {
			defer wg.Done()
			_, _ = h.transfers.Transfer(context.Background(), usecase.TransferInput{SenderID: b, ReceiverID: a, Amount: "1.00"})
		}()
	}

	done := make(chan struct{})
	go func() { wg.Wait(); close(done) }()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("opposing transfers deadlocked")
	}

	// every transfer burns 0.015 in commission
	total := h.store.Balance(a).Add(h.store.Balance(b))
	if total.Amount() != "1998.5000" {
		t.Fatalf("expected 1998.5000 left after %d transfers, got %s", 2*rounds, total)
	}

	transactions, ledger, commissions, events := h.store.Counts()
	if transactions != 2*rounds || ledger != 4*rounds || commissions != 2*rounds || events != 10*rounds {
		t.Fatalf("unexpected row counts %d/%d/%d/%d", transactions, ledger, commissions, events)
	}
}

func TestFailureReason(t *testing.T) {
	tests := map[string]error{
		"insufficient_balance": &domain.InsufficientBalanceError{},
		"invalid_transfer":     domain.CannotTransferToSelf(),
		"invalid_amount":       domain.ErrInvalidAmount,
		"account_not_found":    domain.ErrAccountNotFound,
		"ledger_mismatch":      domain.ErrLedgerMismatch,
		"internal":             errors.New("boom"),
	}

	for want, err := range tests {
		if got := usecase.FailureReason(err); got != want {
			t.Errorf("FailureReason(%v) = %s, want %s", err, got, want)
		}
	}
}
