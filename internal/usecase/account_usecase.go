package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/iho/gowallet/internal/domain"
)

// AccountUseCase handles account and login operations.
type AccountUseCase struct {
	accountRepo AccountRepository
	tokens      TokenIssuer
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(accountRepo AccountRepository, tokens TokenIssuer) *AccountUseCase {
	return &AccountUseCase{
		accountRepo: accountRepo,
		tokens:      tokens,
	}
}

// CreateAccountInput represents input for creating an account.
type CreateAccountInput struct {
	Name     string
	Email    string
	Password string
	Balance  string // opening balance, "0" when empty
}

// CreateAccount validates input, hashes the password and stores the account.
func (uc *AccountUseCase) CreateAccount(ctx context.Context, input CreateAccountInput) (*domain.Account, error) {
	v := domain.NewValidationError()
	if err := domain.ValidateAccountName(input.Name); err != nil {
		v.Add("name", domain.FieldMessage(err))
	}
	if err := domain.ValidateEmail(input.Email); err != nil {
		v.Add("email", domain.FieldMessage(err))
	}
	if err := domain.ValidatePassword(input.Password); err != nil {
		v.Add("password", domain.FieldMessage(err))
	}

	balance := domain.ZeroMoney()
	if input.Balance != "" {
		b, err := domain.ParseMoney(input.Balance)
		if err != nil {
			v.Add("balance", domain.FieldMessage(err))
		}
		balance = b
	}

	if err := v.OrNil(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))

	existing, err := uc.accountRepo.GetByEmail(ctx, email)
	if err == nil && existing != nil {
		return nil, domain.ErrAccountExists
	}
	if err != nil && !errors.Is(err, domain.ErrAccountNotFound) {
		return nil, err
	}

	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	account := &domain.Account{
		Name:         strings.TrimSpace(input.Name),
		Email:        email,
		PasswordHash: hash,
		Balance:      balance,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	account.PasswordHash = ""
	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	account, err := uc.accountRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	account.PasswordHash = ""
	return account, nil
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	limit, offset = domain.ValidatePagination(limit, offset)

	accounts, err := uc.accountRepo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	for _, a := range accounts {
		a.PasswordHash = ""
	}

	return accounts, nil
}

// AuthenticateInput represents login credentials.
type AuthenticateInput struct {
	Email    string
	Password string
}

// AuthResult is a signed-in account with its access token.
type AuthResult struct {
	Account *domain.Account
	Token   string
}

// Authenticate verifies credentials and issues a token.
func (uc *AccountUseCase) Authenticate(ctx context.Context, input AuthenticateInput) (*AuthResult, error) {
	account, err := uc.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(input.Email)))
	if err != nil {
		if errors.Is(err, domain.ErrAccountNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(input.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := uc.tokens.Generate(account)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}

	account.PasswordHash = ""
	return &AuthResult{Account: account, Token: token}, nil
}

// HashPassword hashes a password with bcrypt's default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hash), nil
}
