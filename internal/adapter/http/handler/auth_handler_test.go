package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

type accountServiceStub struct {
	authenticateFn func(ctx context.Context, input usecase.AuthenticateInput) (*usecase.AuthResult, error)
	getFn          func(ctx context.Context, id int64) (*domain.Account, error)
}

func (s *accountServiceStub) Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*usecase.AuthResult, error) {
	return s.authenticateFn(ctx, input)
}

func (s *accountServiceStub) GetAccount(ctx context.Context, id int64) (*domain.Account, error) {
	return s.getFn(ctx, id)
}

func TestAuthHandler_Login(t *testing.T) {
	h := NewAuthHandler(&accountServiceStub{
		authenticateFn: func(ctx context.Context, input usecase.AuthenticateInput) (*usecase.AuthResult, error) {
			if input.Password != "password" {
				return nil, domain.ErrInvalidCredentials
			}
			return &usecase.AuthResult{
				Account: &domain.Account{ID: 5, Name: "Alice", Email: input.Email, Balance: domain.MustParseMoney("1000")},
				Token:   "signed-token",
			}, nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"alice@example.com","password":"password"}`))
	rec := httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body dto.LoginResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Token != "signed-token" || body.TokenType != "Bearer" || body.User.ID != 5 || body.User.Balance.Amount() != "1000.0000" {
		t.Fatalf("unexpected body %+v", body)
	}

	req = httptest.NewRequest(http.MethodPost, "/auth/login", bytes.NewBufferString(`{"email":"alice@example.com","password":"wrong"}`))
	rec = httptest.NewRecorder()
	h.Login(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for bad credentials, got %d", rec.Code)
	}
}

func TestAuthHandler_Me(t *testing.T) {
	h := NewAuthHandler(&accountServiceStub{
		getFn: func(ctx context.Context, id int64) (*domain.Account, error) {
			return &domain.Account{ID: id, Name: "Alice", Email: "alice@example.com", Balance: domain.MustParseMoney("12.5")}, nil
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
	rec := serve(t, http.MethodGet, "/auth/me", h.Me, req, 5)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body dto.AccountResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.ID != 5 || body.Email != "alice@example.com" {
		t.Fatalf("unexpected body %+v", body)
	}
}
