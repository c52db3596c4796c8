package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// poster applies entries to accounts and writes the audit and outbox rows
// that accompany every mutation. All methods run inside the caller's
// transaction; none of them commit.
type poster struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	outboxRepo  OutboxRepository
	auditRepo   AuditRepository
	idGen       IDGenerator
}

type postInput struct {
	Kind           domain.EntryKind
	Amount         decimal.Decimal
	DocumentNumber string
	Actor          string
	Description    string
	Category       string
	Reference      string
	OccurredAt     time.Time
	// Mint supplies DocumentNumber when it is empty. It runs after the
	// balance write so the sequence row is locked after the account row.
	Mint func() (string, error)
}

// post moves account by one entry. The balance write is version-checked
// against account.Version, so a stale account yields ErrConcurrentModification.
// On success account reflects the new balance and version.
func (p *poster) post(ctx context.Context, tx Transaction, account *domain.Account, in postInput) (*domain.Entry, error) {
	if err := account.ValidateEntry(in.Kind, in.Amount); err != nil {
		return nil, err
	}

	newBalance := account.ApplyEntry(in.Kind, in.Amount)
	if err := p.accountRepo.UpdateBalance(ctx, tx, account.ID, newBalance, account.Version, in.OccurredAt); err != nil {
		return nil, err
	}

	if in.DocumentNumber == "" && in.Mint != nil {
		number, err := in.Mint()
		if err != nil {
			return nil, err
		}
		in.DocumentNumber = number
	}

	entry := &domain.Entry{
		ID:                     p.idGen.Generate(),
		DocumentNumber:         in.DocumentNumber,
		Kind:                   in.Kind,
		AccountID:              account.ID,
		Actor:                  in.Actor,
		Description:            in.Description,
		Category:               in.Category,
		Reference:              in.Reference,
		Amount:                 in.Amount,
		AccountPreviousBalance: account.Balance,
		AccountCurrentBalance:  newBalance,
		AccountVersion:         account.Version + 1,
		OccurredAt:             in.OccurredAt,
	}

	if err := p.entryRepo.Create(ctx, tx, entry); err != nil {
		return nil, err
	}

	account.Balance = newBalance
	account.Version++
	account.UpdatedAt = in.OccurredAt

	err := p.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            p.idGen.Generate(),
		AggregateID:   account.ID,
		AggregateType: domain.ResourceTypeAccount,
		EventType:     domain.EventTypeEntryRecorded,
		Payload:       domain.EntryRecordedPayload(entry),
		CreatedAt:     in.OccurredAt,
	})
	if err != nil {
		return nil, err
	}

	return entry, nil
}

// audit appends one audit log row.
func (p *poster) audit(ctx context.Context, tx Transaction, action domain.AuditAction, resourceType, resourceID, actor string, before, after any, at time.Time) error {
	return p.auditRepo.CreateTx(ctx, tx, &domain.AuditLog{
		Actor:        actor,
		Action:       string(action),
		ResourceType: resourceType,
		ResourceID:   resourceID,
		RequestID:    domain.RequestIDFromContext(ctx),
		BeforeState:  domain.MarshalState(before),
		AfterState:   domain.MarshalState(after),
		CreatedAt:    at,
	})
}

// publish appends one outbox event.
func (p *poster) publish(ctx context.Context, tx Transaction, aggregateType, aggregateID, eventType string, payload map[string]any, at time.Time) error {
	return p.outboxRepo.Create(ctx, tx, &domain.OutboxEvent{
		ID:            p.idGen.Generate(),
		AggregateID:   aggregateID,
		AggregateType: aggregateType,
		EventType:     eventType,
		Payload:       payload,
		CreatedAt:     at,
	})
}

// Repositories groups the storage ports shared by the write-side use cases.
type Repositories struct {
	TxManager TransactionManager
	Accounts  AccountRepository
	Entries   EntryRepository
	Transfers TransferRepository
	Sequences SequenceRepository
	Sales     SaleRepository
	Outbox    OutboxRepository
	Audit     AuditRepository
	IDGen     IDGenerator
}

func (r Repositories) poster() *poster {
	return &poster{
		accountRepo: r.Accounts,
		entryRepo:   r.Entries,
		outboxRepo:  r.Outbox,
		auditRepo:   r.Audit,
		idGen:       r.IDGen,
	}
}

// beginTx starts a transaction bounded by DefaultTransactionTimeout. The
// returned cleanup rolls back (a no-op after commit) and releases the timer.
func beginTx(ctx context.Context, txManager TransactionManager) (context.Context, Transaction, func(), error) {
	ctx, cancel := context.WithTimeout(ctx, DefaultTransactionTimeout)

	tx, err := txManager.Begin(ctx)
	if err != nil {
		cancel()
		return nil, nil, nil, err
	}

	return ctx, tx, func() {
		_ = tx.Rollback(ctx)
		cancel()
	}, nil
}
