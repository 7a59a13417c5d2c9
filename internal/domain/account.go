package domain

import (
	"time"
)

// Account is a balance-holding user of the wallet. Its balance is only mutated by
// the transfer engine while the row is locked.
type Account struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Balance      Money
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ValidateDebit checks the account can cover amount without going negative.
func (a *Account) ValidateDebit(amount Money) error {
	if a.Balance.LessThan(amount) {
		return &InsufficientBalanceError{
			AccountID: a.ID,
			Required:  amount,
			Available: a.Balance,
		}
	}

	return nil
}

// ApplyDebit returns the balance after debiting amount.
func (a *Account) ApplyDebit(amount Money) (Money, error) {
	return a.Balance.Sub(amount)
}

// ApplyCredit returns the balance after crediting amount.
func (a *Account) ApplyCredit(amount Money) Money {
	return a.Balance.Add(amount)
}
