package domain

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrValidation         = errors.New("the given data was invalid")
	ErrInvalidAccountName = errors.New("invalid account name")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrPasswordTooWeak    = errors.New("password does not meet requirements")
	ErrDescriptionTooLong = errors.New("description too long")
)

// Validation constants
const (
	MaxAccountNameLength = 255
	MaxDescriptionLength = 500
	MinTransferAmount    = "0.01"
	MaxTransferAmount    = "1000000000000"
	MinPasswordLength    = 8
	MaxPasswordLength    = 72 // bcrypt input limit
	DefaultPageSize      = 20
	MaxPageSize          = 100
)

var (
	emailRegex          = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	transferAmountRegex = regexp.MustCompile(`^\d+(\.\d{1,2})?$`)

	minTransferAmount = decimal.RequireFromString(MinTransferAmount)
	maxTransferAmount = decimal.RequireFromString(MaxTransferAmount)
)

// ValidationError collects field-level messages for request-shaped input.
// It matches ErrValidation with errors.Is.
type ValidationError struct {
	Fields map[string][]string
}

func NewValidationError() *ValidationError {
	return &ValidationError{Fields: make(map[string][]string)}
}

// Add appends a message for field.
func (e *ValidationError) Add(field, message string) {
	e.Fields[field] = append(e.Fields[field], message)
}

// Empty reports whether no field failed.
func (e *ValidationError) Empty() bool {
	return len(e.Fields) == 0
}

// OrNil returns nil when nothing was added, so callers can `return v.OrNil()`.
func (e *ValidationError) OrNil() error {
	if e.Empty() {
		return nil
	}
	return e
}

// Error returns the first message of the alphabetically first field.
func (e *ValidationError) Error() string {
	if e.Empty() {
		return ErrValidation.Error()
	}

	fields := make([]string, 0, len(e.Fields))
	for f := range e.Fields {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	return e.Fields[fields[0]][0]
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

// ValidateTransferAmount checks the request shape of a transfer amount: a plain
// decimal with at most two fractional digits, at least 0.01.
func ValidateTransferAmount(raw string) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fmt.Errorf("%w: The amount field is required.", ErrInvalidAmount)
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return fmt.Errorf("%w: The amount field must be a number.", ErrInvalidAmount)
	}

	if d.LessThan(minTransferAmount) {
		return fmt.Errorf("%w: Minimum transfer amount is $%s", ErrInvalidAmount, MinTransferAmount)
	}

	if !transferAmountRegex.MatchString(raw) {
		return fmt.Errorf("%w: Amount must have at most 2 decimal places.", ErrInvalidAmount)
	}

	if d.GreaterThan(maxTransferAmount) {
		return fmt.Errorf("%w: Maximum transfer amount is $%s", ErrInvalidAmount, MaxTransferAmount)
	}

	return nil
}

// ValidateDescription limits free-text transfer descriptions.
func ValidateDescription(description string) error {
	if utf8.RuneCountInString(description) > MaxDescriptionLength {
		return fmt.Errorf("%w: The description field must not be greater than %d characters.",
			ErrDescriptionTooLong, MaxDescriptionLength)
	}

	return nil
}

// ValidateAccountName validates account name
func ValidateAccountName(name string) error {
	name = strings.TrimSpace(name)

	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidAccountName)
	}

	if utf8.RuneCountInString(name) > MaxAccountNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidAccountName, MaxAccountNameLength)
	}

	return nil
}

// ValidateEmail validates email format
func ValidateEmail(email string) error {
	email = strings.TrimSpace(strings.ToLower(email))

	if !emailRegex.MatchString(email) {
		return ErrInvalidEmail
	}

	return nil
}

// ValidatePassword validates password length
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return fmt.Errorf("%w: must be at least %d characters", ErrPasswordTooWeak, MinPasswordLength)
	}

	if len(password) > MaxPasswordLength {
		return fmt.Errorf("%w: must not exceed %d characters", ErrPasswordTooWeak, MaxPasswordLength)
	}

	return nil
}

// ValidatePagination clamps limit and offset.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}

// FieldMessage strips the sentinel prefix from a validation error built by this
// package, leaving the user-facing sentence.
func FieldMessage(err error) string {
	msg := err.Error()
	if i := strings.Index(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}
