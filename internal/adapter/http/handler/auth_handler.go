package handler

import (
	"context"
	"net/http"

	"github.com/iho/gowallet/internal/adapter/http/dto"
	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// AccountService is the part of the account use case the auth endpoints need.
type AccountService interface {
	Authenticate(ctx context.Context, input usecase.AuthenticateInput) (*usecase.AuthResult, error)
	GetAccount(ctx context.Context, id int64) (*domain.Account, error)
}

// AuthHandler handles authentication endpoints
type AuthHandler struct {
	accounts AccountService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(accounts AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Login exchanges email and password for a bearer token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := req.Validate(); err != nil {
		writeDomainError(w, err)
		return
	}

	result, err := h.accounts.Authenticate(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.LoginResponse{
		User:      dto.AccountFromDomain(result.Account),
		Token:     result.Token,
		TokenType: "Bearer",
		Message:   "Login successful",
	})
}

// Me returns the authenticated account with its current balance.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	accountID, ok := currentAccountID(w, r)
	if !ok {
		return
	}

	account, err := h.accounts.GetAccount(r.Context(), accountID)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}
