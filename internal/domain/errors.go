package domain

import (
	"errors"
	"fmt"
)

// ErrValidation is the parent of every input validation error. Validation
// failures are detected before any state is touched.
var ErrValidation = errors.New("validation error")

var (
	// Validation errors
	ErrInvalidAmount             = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrAmountTooLarge            = fmt.Errorf("%w: amount exceeds maximum allowed", ErrValidation)
	ErrAmountTooSmall            = fmt.Errorf("%w: amount below minimum allowed", ErrValidation)
	ErrSameAccount               = fmt.Errorf("%w: cannot transfer to same account", ErrValidation)
	ErrMissingField              = fmt.Errorf("%w: missing required field", ErrValidation)
	ErrUnknownEntryKind          = fmt.Errorf("%w: unknown entry kind", ErrValidation)
	ErrUnknownDocumentKind       = fmt.Errorf("%w: unknown document kind", ErrValidation)
	ErrTransferKindNotRecordable = fmt.Errorf("%w: transfer entries are only created by transfer approval", ErrValidation)
	ErrInvalidPaymentType        = fmt.Errorf("%w: payment type must be cash or credit", ErrValidation)
	ErrOverSettlement            = fmt.Errorf("%w: settlement exceeds outstanding amount", ErrValidation)
	ErrNotCreditSale             = fmt.Errorf("%w: sale is not a credit sale", ErrValidation)
	ErrInvalidAccountName        = fmt.Errorf("%w: invalid account name", ErrValidation)
	ErrInvalidWindow             = fmt.Errorf("%w: window end must not precede start", ErrValidation)
	ErrInvalidGranularity        = fmt.Errorf("%w: granularity must be day, week or month", ErrValidation)

	// Account errors
	ErrAccountNotFound     = errors.New("account not found")
	ErrAccountExists       = errors.New("account already exists")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrNotAccountOwner     = errors.New("actor does not own the account")

	// Transfer errors
	ErrTransferNotFound       = errors.New("transfer request not found")
	ErrTransferAlreadyDecided = errors.New("transfer request already decided")
	ErrNotTransferRecipient   = errors.New("only the recipient may decide this transfer request")

	// Sale errors
	ErrSaleNotFound = errors.New("sale not found")

	// ErrConcurrentModification means the account changed between read and
	// write. It is retried internally and never returned to callers.
	ErrConcurrentModification = errors.New("account was modified concurrently")
	// ErrLedgerBusy is returned once concurrent-modification retries are exhausted.
	ErrLedgerBusy = errors.New("ledger busy, retry later")

	ErrSequenceUnavailable = errors.New("document sequence unavailable")
	ErrLedgerDrift         = errors.New("ledger drift detected")

	// Authentication errors
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
