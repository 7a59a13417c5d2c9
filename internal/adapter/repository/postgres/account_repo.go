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

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	queries *generated.Queries
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(db generated.DBTX) *AccountRepository {
	return &AccountRepository{queries: generated.New(db)}
}

// Create inserts the account and fills in its generated id.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	row, err := r.queries.CreateAccount(ctx, generated.CreateAccountParams{
		Name:         account.Name,
		Email:        account.Email,
		PasswordHash: account.PasswordHash,
		Balance:      moneyToNumeric(account.Balance),
		CreatedAt:    timeToPgTimestamptz(account.CreatedAt),
		UpdatedAt:    timeToPgTimestamptz(account.UpdatedAt),
	})
	if err != nil {
		if pgErrorCode(err) == pgErrUniqueViolation {
			return domain.ErrAccountExists
		}
		return fmt.Errorf("create account: %w", err)
	}

	account.ID = row.ID
	return nil
}

// GetByID retrieves an account by ID.
func (r *AccountRepository) GetByID(ctx context.Context, id int64) (*domain.Account, error) {
	row, err := r.queries.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return rowToAccount(row)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	row, err := r.queries.GetAccountByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}

	return rowToAccount(row)
}

// GetByIDs retrieves the accounts that exist among ids, ordered by id.
func (r *AccountRepository) GetByIDs(ctx context.Context, ids []int64) ([]*domain.Account, error) {
	rows, err := r.queries.GetAccountsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	return rowsToAccounts(rows)
}

// GetByIDsForUpdate locks the account rows in ascending id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []int64) ([]*domain.Account, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return nil, err
	}

	rows, err := queries.GetAccountsByIDsForUpdate(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("lock accounts %v: %w", ids, err)
	}

	return rowsToAccounts(rows)
}

// GetBalance reads the current balance inside the unit of work.
func (r *AccountRepository) GetBalance(ctx context.Context, tx usecase.Transaction, id int64) (domain.Money, error) {
	queries, err := txQueries(tx)
	if err != nil {
		return domain.Money{}, err
	}

	balance, err := queries.GetAccountBalance(ctx, id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Money{}, domain.ErrAccountNotFound
		}
		return domain.Money{}, err
	}

	return numericToMoney(balance)
}

// Debit decrements the balance in place. The balance CHECK constraint rejects overdrafts.
func (r *AccountRepository) Debit(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := queries.DebitAccount(ctx, generated.DebitAccountParams{
		ID:        id,
		Amount:    moneyToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		if pgErrorCode(err) == pgErrCheckViolation {
			return fmt.Errorf("debit account %d: %w", id, domain.ErrInsufficientBalance)
		}
		return fmt.Errorf("debit account %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// Credit increments the balance in place.
func (r *AccountRepository) Credit(ctx context.Context, tx usecase.Transaction, id int64, amount domain.Money, updatedAt time.Time) error {
	queries, err := txQueries(tx)
	if err != nil {
		return err
	}

	n, err := queries.CreditAccount(ctx, generated.CreditAccountParams{
		ID:        id,
		Amount:    moneyToNumeric(amount),
		UpdatedAt: timeToPgTimestamptz(updatedAt),
	})
	if err != nil {
		return fmt.Errorf("credit account %d: %w", id, err)
	}
	if n == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with pagination.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.queries.ListAccounts(ctx, generated.ListAccountsParams{
		Limit:  int32(limit),
		Offset: int32(offset),
	})
	if err != nil {
		return nil, err
	}

	return rowsToAccounts(rows)
}

func rowsToAccounts(rows []generated.Account) ([]*domain.Account, error) {
	accounts := make([]*domain.Account, 0, len(rows))
	for _, row := range rows {
		account, err := rowToAccount(row)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	return accounts, nil
}

func rowToAccount(row generated.Account) (*domain.Account, error) {
	balance, err := numericToMoney(row.Balance)
	if err != nil {
		return nil, fmt.Errorf("account %d balance: %w", row.ID, err)
	}

	return &domain.Account{
		ID:           row.ID,
		Name:         row.Name,
		Email:        row.Email,
		PasswordHash: row.PasswordHash,
		Balance:      balance,
		CreatedAt:    row.CreatedAt.Time,
		UpdatedAt:    row.UpdatedAt.Time,
	}, nil
}
