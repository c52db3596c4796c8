package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransferStatus is the state of a transfer request.
type TransferStatus string

const (
	TransferStatusPending  TransferStatus = "pending"
	TransferStatusApproved TransferStatus = "approved"
	TransferStatusRejected TransferStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible.
func (s TransferStatus) IsTerminal() bool {
	return s == TransferStatusApproved || s == TransferStatusRejected
}

// Valid reports whether s is a known status.
func (s TransferStatus) Valid() bool {
	return s == TransferStatusPending || s.IsTerminal()
}

// TransferRequest is a proposed, approval-gated movement of cash between two
// accounts. While pending no balance has moved; once terminal it never changes.
type TransferRequest struct {
	CreatedAt      time.Time
	DecidedAt      *time.Time
	ID             string
	FromAccountID  string
	ToAccountID    string
	Reason         string
	DocumentNumber string
	DecidedBy      string
	Status         TransferStatus
	Amount         decimal.Decimal
}

// Validate validates transfer request.
func (t *TransferRequest) Validate() error {
	if t.FromAccountID == "" || t.ToAccountID == "" {
		return ErrMissingField
	}
	if t.FromAccountID == t.ToAccountID {
		return ErrSameAccount
	}
	if t.Amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if strings.TrimSpace(t.Reason) == "" {
		return ErrMissingField
	}
	return nil
}

// CheckApprover verifies that actor may approve the request.
func (t *TransferRequest) CheckApprover(actor string) error {
	if t.Status.IsTerminal() {
		return ErrTransferAlreadyDecided
	}
	if actor != t.ToAccountID {
		return ErrNotTransferRecipient
	}
	return nil
}

// CheckRejecter verifies that actor may reject the request. The proposer
// rejecting its own request is a cancellation.
func (t *TransferRequest) CheckRejecter(actor string) error {
	if t.Status.IsTerminal() {
		return ErrTransferAlreadyDecided
	}
	if actor != t.ToAccountID && actor != t.FromAccountID {
		return ErrNotTransferRecipient
	}
	return nil
}

// Decide moves a pending request to a terminal status.
func (t *TransferRequest) Decide(status TransferStatus, actor string, at time.Time) {
	t.Status = status
	t.DecidedBy = actor
	t.DecidedAt = &at
}

// TransferDirection filters transfer listings relative to an account.
type TransferDirection string

const (
	TransferDirectionAny      TransferDirection = ""
	TransferDirectionIncoming TransferDirection = "incoming"
	TransferDirectionOutgoing TransferDirection = "outgoing"
)

// TransferFilter narrows transfer request listings.
type TransferFilter struct {
	AccountID string
	Status    TransferStatus
	Direction TransferDirection
	Limit     int
	Offset    int
}

// Matches reports whether t passes the filter.
func (f TransferFilter) Matches(t *TransferRequest) bool {
	switch f.Direction {
	case TransferDirectionIncoming:
		if t.ToAccountID != f.AccountID {
			return false
		}
	case TransferDirectionOutgoing:
		if t.FromAccountID != f.AccountID {
			return false
		}
	default:
		if t.ToAccountID != f.AccountID && t.FromAccountID != f.AccountID {
			return false
		}
	}
	return f.Status == "" || t.Status == f.Status
}
