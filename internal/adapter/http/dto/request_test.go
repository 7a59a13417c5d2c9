package dto

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/iho/gowallet/internal/domain"
	"github.com/iho/gowallet/internal/usecase"
)

func decodeTransfer(t *testing.T, body string) *CreateTransactionRequest {
	t.Helper()

	var req CreateTransactionRequest
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatalf("decode %s: %v", body, err)
	}
	return &req
}

func TestCreateTransactionRequest_ToUseCaseInput(t *testing.T) {
	tests := []struct {
		name string
		body string
		want usecase.TransferInput
	}{
		{
			name: "numeric fields",
			body: `{"receiver_id": 9, "amount": 100.50, "description": "rent"}`,
			want: usecase.TransferInput{SenderID: 5, ReceiverID: 9, Amount: "100.50", Description: "rent"},
		},
		{
			name: "string fields",
			body: `{"receiver_id": "9", "amount": "0.01"}`,
			want: usecase.TransferInput{SenderID: 5, ReceiverID: 9, Amount: "0.01"},
		},
		{
			name: "null description",
			body: `{"receiver_id": 9, "amount": "10", "description": null}`,
			want: usecase.TransferInput{SenderID: 5, ReceiverID: 9, Amount: "10"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decodeTransfer(t, tt.body).ToUseCaseInput(5)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Fatalf("ToUseCaseInput() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestCreateTransactionRequest_ValidationErrors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		field   string
		message string
	}{
		{"missing receiver", `{"amount": "10"}`, "receiver_id", "The receiver id field is required."},
		{"non integer receiver", `{"receiver_id": "abc", "amount": "10"}`, "receiver_id", "The receiver id field must be an integer."},
		{"negative receiver", `{"receiver_id": -3, "amount": "10"}`, "receiver_id", "The receiver id field must be an integer."},
		{"missing amount", `{"receiver_id": 9}`, "amount", "The amount field is required."},
		{"three decimals", `{"receiver_id": 9, "amount": "10.123"}`, "amount", "Amount must have at most 2 decimal places."},
		{"below minimum", `{"receiver_id": 9, "amount": "0.001"}`, "amount", "Minimum transfer amount is $0.01"},
		{"not a number", `{"receiver_id": 9, "amount": "ten"}`, "amount", "The amount field must be a number."},
		{"long description", `{"receiver_id": 9, "amount": "1", "description": "` + strings.Repeat("x", 501) + `"}`,
			"description", "The description field must not be greater than 500 characters."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeTransfer(t, tt.body).ToUseCaseInput(5)

			var verr *domain.ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
			if msgs := verr.Fields[tt.field]; len(msgs) != 1 || msgs[0] != tt.message {
				t.Fatalf("expected %s: %q, got %v", tt.field, tt.message, verr.Fields)
			}
		})
	}
}

func TestLoginRequest_Validate(t *testing.T) {
	req := &LoginRequest{Email: "not-an-email"}

	var verr *domain.ValidationError
	if err := req.Validate(); !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(verr.Fields["email"]) != 1 || len(verr.Fields["password"]) != 1 {
		t.Fatalf("unexpected fields %v", verr.Fields)
	}

	req = &LoginRequest{Email: "alice@example.com", Password: "password"}
	if err := req.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if in := req.ToUseCaseInput(); in.Email != req.Email || in.Password != req.Password {
		t.Fatalf("unexpected input %+v", in)
	}
}
