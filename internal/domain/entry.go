package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry. The set is closed and the kind alone
// decides whether an entry is an inflow or an outflow.
type EntryKind string

const (
	EntryKindSaleCash             EntryKind = "sale_cash"
	EntryKindSaleCreditSettlement EntryKind = "sale_credit_settlement"
	EntryKindPurchase             EntryKind = "purchase"
	EntryKindExpense              EntryKind = "expense"
	EntryKindLaborPayment         EntryKind = "labor_payment"
	EntryKindTransferIn           EntryKind = "transfer_in"
	EntryKindTransferOut          EntryKind = "transfer_out"
)

var entryKinds = map[EntryKind]struct {
	sign     int64
	document DocumentKind
}{
	EntryKindSaleCash:             {1, DocumentKindInvoice},
	EntryKindSaleCreditSettlement: {1, DocumentKindPayment},
	EntryKindTransferIn:           {1, DocumentKindTransfer},
	EntryKindPurchase:             {-1, DocumentKindPurchase},
	EntryKindExpense:              {-1, DocumentKindExpense},
	EntryKindLaborPayment:         {-1, DocumentKindLaborPayment},
	EntryKindTransferOut:          {-1, DocumentKindTransfer},
}

// AllEntryKinds lists every entry kind in a stable order.
func AllEntryKinds() []EntryKind {
	return []EntryKind{
		EntryKindSaleCash,
		EntryKindSaleCreditSettlement,
		EntryKindPurchase,
		EntryKindExpense,
		EntryKindLaborPayment,
		EntryKindTransferIn,
		EntryKindTransferOut,
	}
}

// ParseEntryKind converts a string to an EntryKind.
func ParseEntryKind(s string) (EntryKind, error) {
	k := EntryKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownEntryKind, s)
	}
	return k, nil
}

// Valid reports whether k is a known kind.
func (k EntryKind) Valid() bool {
	_, ok := entryKinds[k]
	return ok
}

// Sign returns +1 for inflow kinds and -1 for outflow kinds.
func (k EntryKind) Sign() int64 {
	return entryKinds[k].sign
}

// IsInflow reports whether entries of this kind increase the balance.
func (k EntryKind) IsInflow() bool {
	return k.Sign() > 0
}

// IsOutflow reports whether entries of this kind decrease the balance.
func (k EntryKind) IsOutflow() bool {
	return k.Sign() < 0
}

// IsTransfer reports whether the kind is one of the transfer legs.
func (k EntryKind) IsTransfer() bool {
	return k == EntryKindTransferIn || k == EntryKindTransferOut
}

// Signed applies the kind's sign to a positive amount.
func (k EntryKind) Signed(amount decimal.Decimal) decimal.Decimal {
	if k.IsOutflow() {
		return amount.Neg()
	}
	return amount
}

// DocumentKind returns the sequence used to number entries of this kind.
func (k EntryKind) DocumentKind() DocumentKind {
	return entryKinds[k].document
}

// Entry is an immutable, signed record of one balance-affecting event.
// Amount is always positive; the sign comes from Kind.
type Entry struct {
	OccurredAt             time.Time
	ID                     string
	DocumentNumber         string
	Kind                   EntryKind
	AccountID              string
	Actor                  string
	Description            string
	Category               string
	Reference              string
	Amount                 decimal.Decimal
	AccountPreviousBalance decimal.Decimal
	AccountCurrentBalance  decimal.Decimal
	AccountVersion         int64
}

// SignedAmount returns the amount with the kind's sign applied.
func (e *Entry) SignedAmount() decimal.Decimal {
	return e.Kind.Signed(e.Amount)
}

// EntryFilter narrows ledger queries. Zero values mean "no restriction".
type EntryFilter struct {
	From   *time.Time
	To     *time.Time
	Kinds  []EntryKind
	Limit  int
	Offset int
}

// Matches reports whether e passes the kind and time filters. To is exclusive.
func (f EntryFilter) Matches(e *Entry) bool {
	if len(f.Kinds) > 0 {
		found := false
		for _, k := range f.Kinds {
			if e.Kind == k {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.From != nil && e.OccurredAt.Before(*f.From) {
		return false
	}
	if f.To != nil && !e.OccurredAt.Before(*f.To) {
		return false
	}
	return true
}
