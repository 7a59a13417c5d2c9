package domain

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateTransferAmount(t *testing.T) {
	tests := []struct {
		in      string
		wantMsg string
	}{
		{"100", ""},
		{"100.5", ""},
		{"0.01", ""},
		{"", "The amount field is required."},
		{"ten", "The amount field must be a number."},
		{"0.001", "Minimum transfer amount is $0.01"},
		{"0", "Minimum transfer amount is $0.01"},
		{"-5", "Minimum transfer amount is $0.01"},
		{"1.234", "Amount must have at most 2 decimal places."},
		{"1e3", "Amount must have at most 2 decimal places."},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			err := ValidateTransferAmount(tt.in)
			if tt.wantMsg == "" {
				if err != nil {
					t.Fatalf("expected valid amount, got %v", err)
				}
				return
			}

			if !errors.Is(err, ErrInvalidAmount) {
				t.Fatalf("expected ErrInvalidAmount, got %v", err)
			}
			if got := FieldMessage(err); got != tt.wantMsg {
				t.Fatalf("expected %q, got %q", tt.wantMsg, got)
			}
		})
	}
}

func TestValidateDescription(t *testing.T) {
	if err := ValidateDescription(strings.Repeat("é", MaxDescriptionLength)); err != nil {
		t.Fatalf("expected %d runes to pass, got %v", MaxDescriptionLength, err)
	}

	if err := ValidateDescription(strings.Repeat("a", MaxDescriptionLength+1)); !errors.Is(err, ErrDescriptionTooLong) {
		t.Fatalf("expected ErrDescriptionTooLong, got %v", err)
	}
}

func TestValidateAccountFields(t *testing.T) {
	if err := ValidateAccountName("  "); !errors.Is(err, ErrInvalidAccountName) {
		t.Fatalf("expected ErrInvalidAccountName, got %v", err)
	}
	if err := ValidateEmail("alice@example.com"); err != nil {
		t.Fatalf("expected valid email, got %v", err)
	}
	if err := ValidateEmail("alice"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected ErrInvalidEmail, got %v", err)
	}
	if err := ValidatePassword("password"); err != nil {
		t.Fatalf("expected valid password, got %v", err)
	}
	if err := ValidatePassword("short"); !errors.Is(err, ErrPasswordTooWeak) {
		t.Fatalf("expected ErrPasswordTooWeak, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	limit, offset := ValidatePagination(0, -1)
	if limit != DefaultPageSize || offset != 0 {
		t.Fatalf("expected defaults, got %d/%d", limit, offset)
	}

	limit, _ = ValidatePagination(500, 0)
	if limit != MaxPageSize {
		t.Fatalf("expected clamp to %d, got %d", MaxPageSize, limit)
	}
}

func TestValidationError(t *testing.T) {
	v := NewValidationError()
	if v.OrNil() != nil {
		t.Fatalf("expected nil for empty validation error")
	}

	v.Add("receiver_id", "The receiver id field is required.")
	v.Add("amount", "The amount field is required.")

	err := v.OrNil()
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if err.Error() != "The amount field is required." {
		t.Fatalf("unexpected message %q", err.Error())
	}
}
