package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a partner's cash balance holder. Balance always equals the
// signed sum of the account's ledger entries.
type Account struct {
	ID        string
	Name      string
	Balance   decimal.Decimal
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDebit checks if account can be debited by amount. No account in
// this ledger may go negative.
func (a *Account) ValidateDebit(amount decimal.Decimal) error {
	if a.Balance.LessThan(amount) {
		return ErrInsufficientBalance
	}
	return nil
}

// ValidateEntry checks that applying an entry of kind and amount keeps the
// balance non-negative.
func (a *Account) ValidateEntry(kind EntryKind, amount decimal.Decimal) error {
	if kind.IsOutflow() {
		return a.ValidateDebit(amount)
	}
	return nil
}

// ApplyEntry returns the balance after applying an entry of kind and amount.
func (a *Account) ApplyEntry(kind EntryKind, amount decimal.Decimal) decimal.Decimal {
	return a.Balance.Add(kind.Signed(amount))
}
