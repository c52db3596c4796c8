package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// LedgerUseCase is the only path by which a single-account cash event
// becomes durable.
type LedgerUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	sequences   *SequenceUseCase
	poster      *poster
	retrier     Retrier
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(repos Repositories, sequences *SequenceUseCase, retrier Retrier) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:   repos.TxManager,
		accountRepo: repos.Accounts,
		sequences:   sequences,
		poster:      repos.poster(),
		retrier:     retrier,
	}
}

// RecordInput represents input for recording one ledger entry.
type RecordInput struct {
	Kind        domain.EntryKind
	AccountID   string
	Actor       string
	Description string
	Category    string
	Reference   string
	Amount      decimal.Decimal
}

func (in RecordInput) validate() error {
	if !in.Kind.Valid() {
		return fmt.Errorf("%w: %q", domain.ErrUnknownEntryKind, in.Kind)
	}
	if in.Kind.IsTransfer() {
		return domain.ErrTransferKindNotRecordable
	}
	if strings.TrimSpace(in.AccountID) == "" {
		return fmt.Errorf("%w: account_id", domain.ErrMissingField)
	}
	if strings.TrimSpace(in.Actor) == "" {
		return fmt.Errorf("%w: actor", domain.ErrMissingField)
	}
	if in.Actor != in.AccountID {
		return domain.ErrNotAccountOwner
	}
	if err := domain.ValidateDescription(in.Description); err != nil {
		return err
	}
	return domain.ValidateAmount(in.Amount)
}

// Record appends one entry and moves the account balance by its signed amount.
//
// The account is read without a lock and written with a version check.
// A conflicting writer causes the whole attempt to be retried with a fresh
// read; when attempts run out the caller gets ErrLedgerBusy.
func (uc *LedgerUseCase) Record(ctx context.Context, input RecordInput) (*domain.Entry, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var entry *domain.Entry
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		entry, err = uc.recordOnce(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

func (uc *LedgerUseCase) recordOnce(ctx context.Context, input RecordInput) (*domain.Entry, error) {
	account, err := uc.accountRepo.GetByID(ctx, input.AccountID)
	if err != nil {
		return nil, err
	}

	// Checked before any write so an overdraft never opens a transaction.
	if err := account.ValidateEntry(input.Kind, input.Amount); err != nil {
		return nil, err
	}

	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return nil, err
	}
	defer done()

	now := time.Now().UTC()
	before := *account

	entry, err := uc.poster.post(ctx, tx, account, postInput{
		Kind:        input.Kind,
		Amount:      input.Amount,
		Actor:       input.Actor,
		Description: input.Description,
		Category:    input.Category,
		Reference:   input.Reference,
		OccurredAt:  now,
		Mint: func() (string, error) {
			return uc.sequences.NextTx(ctx, tx, input.Kind.DocumentKind())
		},
	})
	if err != nil {
		return nil, err
	}

	err = uc.poster.audit(ctx, tx, domain.AuditActionEntryRecord, domain.ResourceTypeEntry, entry.ID,
		input.Actor, &before, entry, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// OutflowInput represents input for the single-kind outflow shortcuts.
type OutflowInput struct {
	AccountID   string
	Actor       string
	Description string
	Category    string
	Reference   string
	Amount      decimal.Decimal
}

func (in OutflowInput) record(kind domain.EntryKind) RecordInput {
	return RecordInput{
		Kind:        kind,
		AccountID:   in.AccountID,
		Actor:       in.Actor,
		Description: in.Description,
		Category:    in.Category,
		Reference:   in.Reference,
		Amount:      in.Amount,
	}
}

// CreateExpense records an expense paid from the account.
func (uc *LedgerUseCase) CreateExpense(ctx context.Context, input OutflowInput) (*domain.Entry, error) {
	return uc.Record(ctx, input.record(domain.EntryKindExpense))
}

// CreateLaborPayment records a payment to a worker. Reference names the worker.
func (uc *LedgerUseCase) CreateLaborPayment(ctx context.Context, input OutflowInput) (*domain.Entry, error) {
	return uc.Record(ctx, input.record(domain.EntryKindLaborPayment))
}

// CreatePurchase records a purchase from a supplier. Reference names the supplier.
func (uc *LedgerUseCase) CreatePurchase(ctx context.Context, input OutflowInput) (*domain.Entry, error) {
	return uc.Record(ctx, input.record(domain.EntryKindPurchase))
}
