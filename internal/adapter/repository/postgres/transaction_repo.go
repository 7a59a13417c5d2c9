package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/infrastructure/postgres/generated"
	"github.com/iho/gowallet/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	queries *generated.Queries
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(db generated.DBTX) *TransactionRepository {
	return &TransactionRepository{queries: generated.New(db)}
}

// Create inserts the transaction and fills in its generated id.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, transaction *domain.Transaction) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	id, err := queries.CreateTransaction(ctx, generated.CreateTransactionParams{
		SenderID:      ptrToInt8(transaction.SenderID),
		ReceiverID:    transaction.ReceiverID,
		Amount:        moneyToNumeric(transaction.Amount),
		CommissionFee: moneyToNumeric(transaction.CommissionFee),
		TotalDebited:  moneyToNumeric(transaction.TotalDebited),
		Status:        string(transaction.Status),
		Description:   ptrToText(transaction.Description),
		CreatedAt:     timeToPgTimestamptz(transaction.CreatedAt),
		UpdatedAt:     timeToPgTimestamptz(transaction.UpdatedAt),
	})
	if err != nil {
		return fmt.Errorf("create transaction: %w", err)
	}

	transaction.ID = id
	return nil
}

func (r *TransactionRepository) UpdateStatus(
	ctx context.Context,
	tx usecase.Transaction,
	id int64,
	status domain.TransactionStatus,
	failureReason *string,
	updatedAt time.Time,
) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := queries.UpdateTransactionStatus(ctx, generated.UpdateTransactionStatusParams{
		ID:            id,
		Status:        string(status),
		FailureReason: ptrToText(failureReason),
		UpdatedAt:     timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return fmt.Errorf("update transaction %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id int64) (*domain.Transaction, error) {
	row, err := r.queries.GetTransactionByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	return rowToTransaction(row)
}

// ListForAccount lists sent and received transactions, newest first.
func (r *TransactionRepository) ListForAccount(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListTransactionsForAccount(ctx, generated.ListTransactionsForAccountParams{
		AccountID: accountID,
		Limit:     int32(limit),
		Offset:    int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

func (r *TransactionRepository) ListSent(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListSentTransactions(ctx, generated.ListSentTransactionsParams{
		SenderID: ptrToInt8(&accountID),
		Limit:    int32(limit),
		Offset:   int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

func (r *TransactionRepository) ListReceived(ctx context.Context, accountID int64, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.queries.ListReceivedTransactions(ctx, generated.ListReceivedTransactionsParams{
		ReceiverID: accountID,
		Limit:      int32(limit),
		Offset:     int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToTransactions(rows)
}

func rowsToTransactions(rows []generated.Transaction) ([]*domain.Transaction, error) {
	transactions := make([]*domain.Transaction, 0, len(rows))
	for _, row := range rows {
		t, err := rowToTransaction(row)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, t)
	}

	return transactions, nil
}

func rowToTransaction(row generated.Transaction) (*domain.Transaction, error) {
	amount, err := numericToMoney(row.Amount)
	if err != nil {
		return nil, fmt.Errorf("transaction %d amount: %w", row.ID, err)
	}
	commission, err := numericToMoney(row.CommissionFee)
	if err != nil {
		return nil, fmt.Errorf("transaction %d commission: %w", row.ID, err)
	}
	total, err := numericToMoney(row.TotalDebited)
	if err != nil {
		return nil, fmt.Errorf("transaction %d total: %w", row.ID, err)
	}

	return &domain.Transaction{
		ID:            row.ID,
		SenderID:      int8ToPtr(row.SenderID),
		ReceiverID:    row.ReceiverID,
		Amount:        amount,
		CommissionFee: commission,
		TotalDebited:  total,
		Status:        domain.TransactionStatus(row.Status),
		FailureReason: textToPtr(row.FailureReason),
		Description:   textToPtr(row.Description),
		CreatedAt:     row.CreatedAt.Time,
		UpdatedAt:     row.UpdatedAt.Time,
	}, nil
}
