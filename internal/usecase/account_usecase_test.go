package usecase_test

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
	"github.com/iho/gowallet/internal/usecase/mocks"
)

func TestAccountUseCase_CreateAccount(t *testing.T) {
	store := mocks.NewStore()
	repo := mocks.NewMockAccountRepository(store)
	uc := usecase.NewAccountUseCase(repo, nil)

	account, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:     "Alice Johnson",
		Email:    "Alice@Example.com",
		Password: "password",
		Balance:  "1000.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if account.ID == 0 || account.Email != "alice@example.com" || account.Balance.Amount() != "1000.0000" {
		t.Fatalf("unexpected account %+v", account)
	}
	if account.PasswordHash != "" {
		t.Fatalf("password hash must not be returned")
	}

	stored, _ := repo.GetByID(context.Background(), account.ID)
	if stored.PasswordHash == "" || stored.PasswordHash == "password" {
		t.Fatalf("expected bcrypt hash to be stored")
	}

	_, err = uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:     "Alice Again",
		Email:    "alice@example.com",
		Password: "password",
	})
	if !errors.Is(err, domain.ErrAccountExists) {
		t.Fatalf("expected ErrAccountExists, got %v", err)
	}
}

func TestAccountUseCase_CreateAccount_Validation(t *testing.T) {
	uc := usecase.NewAccountUseCase(mocks.NewMockAccountRepository(mocks.NewStore()), nil)

	_, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name:     "",
		Email:    "nope",
		Password: "short",
		Balance:  "-5",
	})

	var verr *domain.ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	for _, field := range []string{"name", "email", "password", "balance"} {
		if len(verr.Fields[field]) == 0 {
			t.Errorf("expected error on %s, got %v", field, verr.Fields)
		}
	}
}

func TestAccountUseCase_Authenticate(t *testing.T) {
	ctrl := gomock.NewController(t)
	tokens := mocks.NewMockTokenIssuer(ctrl)

	store := mocks.NewStore()
	repo := mocks.NewMockAccountRepository(store)
	uc := usecase.NewAccountUseCase(repo, tokens)

	created, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{
		Name: "Bob", Email: "bob@example.com", Password: "password",
	})
	if err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	tokens.EXPECT().Generate(gomock.Any()).DoAndReturn(func(a *domain.Account) (string, error) {
		if a.ID != created.ID {
			t.Errorf("token issued for wrong account %d", a.ID)
		}
		return "signed-token", nil
	})

	result, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{Email: " BOB@example.com ", Password: "password"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Token != "signed-token" || result.Account.PasswordHash != "" {
		t.Fatalf("unexpected auth result %+v", result)
	}

	if _, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{Email: "bob@example.com", Password: "wrong"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", err)
	}
	if _, err := uc.Authenticate(context.Background(), usecase.AuthenticateInput{Email: "nobody@example.com", Password: "password"}); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown email, got %v", err)
	}
}

func TestAccountUseCase_ListAccountsHidesHashes(t *testing.T) {
	store := mocks.NewStore()
	repo := mocks.NewMockAccountRepository(store)
	uc := usecase.NewAccountUseCase(repo, nil)

	for _, email := range []string{"a@example.com", "b@example.com"} {
		if _, err := uc.CreateAccount(context.Background(), usecase.CreateAccountInput{Name: email, Email: email, Password: "password"}); err != nil {
			t.Fatalf("seed failed: %v", err)
		}
	}

	accounts, err := uc.ListAccounts(context.Background(), 0, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(accounts) != 2 {
		t.Fatalf("expected 2 accounts, got %d", len(accounts))
	}
	for _, a := range accounts {
		if a.PasswordHash != "" {
			t.Fatalf("password hash leaked for %s", a.Email)
		}
	}
}
