package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
)

// MoneyScale is the number of fractional digits every Money value carries.
const MoneyScale = 4

// CommissionRate is the fee charged on top of every transfer (1.5%).
const CommissionRate = "0.015"

var commissionRate = decimal.RequireFromString(CommissionRate)

// Money is an immutable, non-negative decimal amount with four fractional digits.
// Arithmetic truncates to MoneyScale, never rounds, and never goes through float64.
type Money struct {
	amount decimal.Decimal
}

// ZeroMoney returns 0.0000.
func ZeroMoney() Money {
	return Money{amount: decimal.Zero}
}

// ParseMoney parses a decimal string such as "100.50".
func ParseMoney(s string) (Money, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return Money{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	return MoneyFromDecimal(d)
}

// MustParseMoney is like ParseMoney but panics on error. Intended for constants and tests.
func MustParseMoney(s string) Money {
	m, err := ParseMoney(s)
	if err != nil {
		panic(err)
	}

	return m
}

// MoneyFromInt converts a whole amount.
func MoneyFromInt(i int64) (Money, error) {
	return MoneyFromDecimal(decimal.NewFromInt(i))
}

// MoneyFromFloat converts a float using its shortest decimal representation,
// so 100.5 becomes exactly 100.5000.
func MoneyFromFloat(f float64) (Money, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Money{}, fmt.Errorf("%w: %v is not a finite number", ErrInvalidAmount, f)
	}

	return MoneyFromDecimal(decimal.NewFromFloat(f))
}

// MoneyFromDecimal truncates d to four fractional digits and rejects negatives.
func MoneyFromDecimal(d decimal.Decimal) (Money, error) {
	truncated := d.Truncate(MoneyScale)
	if truncated.IsNegative() {
		return Money{}, fmt.Errorf("%w: money amount cannot be negative", ErrInvalidAmount)
	}

	return Money{amount: truncated}, nil
}

// Add returns m + other.
func (m Money) Add(other Money) Money {
	return Money{amount: m.decimal().Add(other.decimal()).Truncate(MoneyScale)}
}

// Sub returns m - other. It fails with ErrInvalidAmount if the result is negative.
func (m Money) Sub(other Money) (Money, error) {
	return MoneyFromDecimal(m.decimal().Sub(other.decimal()))
}

// Mul returns m * multiplier truncated to four digits.
func (m Money) Mul(multiplier decimal.Decimal) (Money, error) {
	return MoneyFromDecimal(m.decimal().Mul(multiplier))
}

// AddString adds a raw decimal operand such as "0.50".
func (m Money) AddString(operand string) (Money, error) {
	d, err := parseOperand(operand)
	if err != nil {
		return Money{}, err
	}

	return MoneyFromDecimal(m.decimal().Add(d))
}

// MulString multiplies by a raw decimal operand such as "0.015".
func (m Money) MulString(operand string) (Money, error) {
	d, err := parseOperand(operand)
	if err != nil {
		return Money{}, err
	}

	return m.Mul(d)
}

// Commission returns the transfer fee for m at CommissionRate.
// 100.00 yields 1.5000 and 3.00 yields 0.0450; no cent rounding is applied.
func (m Money) Commission() Money {
	return Money{amount: m.decimal().Mul(commissionRate).Truncate(MoneyScale)}
}

// GreaterThan reports whether m > other.
func (m Money) GreaterThan(other Money) bool {
	return m.decimal().GreaterThan(other.decimal())
}

// LessThan reports whether m < other.
func (m Money) LessThan(other Money) bool {
	return m.decimal().LessThan(other.decimal())
}

// Equal reports whether m == other at four-digit precision.
func (m Money) Equal(other Money) bool {
	return m.decimal().Equal(other.decimal())
}

// IsZero reports whether m is 0.0000.
func (m Money) IsZero() bool {
	return m.decimal().IsZero()
}

// RoundToCents rounds half-up to two digits. The result still renders with four
// digits, e.g. 0.045 -> "0.0500". Transfers never call this implicitly.
func (m Money) RoundToCents() Money {
	return Money{amount: m.decimal().Round(2)}
}

// Decimal exposes the underlying value.
func (m Money) Decimal() decimal.Decimal {
	return m.decimal()
}

// Negated returns -m as a signed decimal, used for debit ledger rows.
func (m Money) Negated() decimal.Decimal {
	return m.decimal().Neg()
}

// Amount returns the canonical fixed-point form, e.g. "100.5000".
func (m Money) Amount() string {
	return m.decimal().StringFixed(MoneyScale)
}

// String implements fmt.Stringer with the canonical form.
func (m Money) String() string {
	return m.Amount()
}

// Float64 is for display code only.
func (m Money) Float64() float64 {
	f, _ := m.decimal().Float64()
	return f
}

// Format renders the amount for humans, e.g. "$1,000.50".
func (m Money) Format() string {
	whole, cents, _ := strings.Cut(m.decimal().StringFixed(2), ".")
	units, _ := new(big.Int).SetString(whole, 10)

	return "$" + humanize.BigComma(units) + "." + cents
}

// MarshalJSON encodes the canonical string form.
func (m Money) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Amount())
}

// UnmarshalJSON accepts either a JSON string or a JSON number.
func (m *Money) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)

	parsed, err := ParseMoney(raw)
	if err != nil {
		return err
	}

	*m = parsed

	return nil
}

func (m Money) decimal() decimal.Decimal {
	return m.amount.Truncate(MoneyScale)
}

func parseOperand(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}

	return d, nil
}
