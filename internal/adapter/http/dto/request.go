package dto

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

// CreateTransactionRequest is the body of POST /api/v1/transactions.
// Fields stay raw so numbers and numeric strings are both accepted
// and the amount keeps its literal digits.
type CreateTransactionRequest struct {
	ReceiverID  json.RawMessage `json:"receiver_id"`
	Amount      json.RawMessage `json:"amount"`
	Description *string         `json:"description"`
}

// ToUseCaseInput validates the request and builds the transfer input for senderID.
func (r *CreateTransactionRequest) ToUseCaseInput(senderID int64) (usecase.TransferInput, error) {
	v := domain.NewValidationError()

	receiverID, ok := parseReceiverID(r.ReceiverID)
	switch {
	case isBlank(r.ReceiverID):
		v.Add("receiver_id", "The receiver id field is required.")
	case !ok:
		v.Add("receiver_id", "The receiver id field must be an integer.")
	}

	amount := scalar(r.Amount)
	if isBlank(r.Amount) {
		amount = ""
	}
	if err := domain.ValidateTransferAmount(amount); err != nil {
		v.Add("amount", domain.FieldMessage(err))
	}

	var description string
	if r.Description != nil {
		description = *r.Description
		if err := domain.ValidateDescription(description); err != nil {
			v.Add("description", domain.FieldMessage(err))
		}
	}

	if err := v.OrNil(); err != nil {
		return usecase.TransferInput{}, err
	}

	return usecase.TransferInput{
		SenderID:    senderID,
		ReceiverID:  receiverID,
		Amount:      amount,
		Description: description,
	}, nil
}

// LoginRequest is the body of POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Validate checks required fields.
func (r *LoginRequest) Validate() error {
	v := domain.NewValidationError()

	if strings.TrimSpace(r.Email) == "" {
		v.Add("email", "The email field is required.")
	} else if err := domain.ValidateEmail(r.Email); err != nil {
		v.Add("email", "The email field must be a valid email address.")
	}

	if r.Password == "" {
		v.Add("password", "The password field is required.")
	}

	return v.OrNil()
}

// ToUseCaseInput converts to use case input.
func (r *LoginRequest) ToUseCaseInput() usecase.AuthenticateInput {
	return usecase.AuthenticateInput{Email: r.Email, Password: r.Password}
}

func isBlank(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) || bytes.Equal(trimmed, []byte(`""`))
}

// scalar returns a JSON number or string literal without its quotes.
func scalar(raw json.RawMessage) string {
	trimmed := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(trimmed); err == nil {
		return strings.TrimSpace(unquoted)
	}
	return trimmed
}

func parseReceiverID(raw json.RawMessage) (int64, bool) {
	if isBlank(raw) {
		return 0, false
	}

	id, err := strconv.ParseInt(scalar(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
