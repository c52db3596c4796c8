package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// TransferUseCase drives transfer requests from proposal to a terminal
// decision. Balances only move on approval, once, with recipient consent.
type TransferUseCase struct {
	txManager    TransactionManager
	accountRepo  AccountRepository
	transferRepo TransferRepository
	sequences    *SequenceUseCase
	poster       *poster
	idGen        IDGenerator
	retrier      Retrier
}

// NewTransferUseCase creates a new TransferUseCase.
func NewTransferUseCase(repos Repositories, sequences *SequenceUseCase, retrier Retrier) *TransferUseCase {
	return &TransferUseCase{
		txManager:    repos.TxManager,
		accountRepo:  repos.Accounts,
		transferRepo: repos.Transfers,
		sequences:    sequences,
		poster:       repos.poster(),
		idGen:        repos.IDGen,
		retrier:      retrier,
	}
}

// ProposeTransferInput represents input for proposing a transfer.
type ProposeTransferInput struct {
	FromAccountID string
	ToAccountID   string
	Reason        string
	Actor         string
	Amount        decimal.Decimal
}

// Propose creates a pending request. No balance moves; the proposer's
// balance is checked only to fail fast.
func (uc *TransferUseCase) Propose(ctx context.Context, input ProposeTransferInput) (*domain.TransferRequest, error) {
	now := time.Now().UTC()

	req := &domain.TransferRequest{
		ID:            uc.idGen.Generate(),
		FromAccountID: input.FromAccountID,
		ToAccountID:   input.ToAccountID,
		Amount:        input.Amount,
		Reason:        strings.TrimSpace(input.Reason),
		Status:        domain.TransferStatusPending,
		CreatedAt:     now,
	}

	if err := req.Validate(); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := domain.ValidateDescription(req.Reason); err != nil {
		return nil, err
	}
	if input.Actor == "" {
		return nil, fmt.Errorf("%w: actor", domain.ErrMissingField)
	}
	if input.Actor != input.FromAccountID {
		return nil, domain.ErrNotAccountOwner
	}

	from, err := uc.accountRepo.GetByID(ctx, req.FromAccountID)
	if err != nil {
		return nil, err
	}
	if _, err := uc.accountRepo.GetByID(ctx, req.ToAccountID); err != nil {
		return nil, err
	}

	if err := from.ValidateDebit(req.Amount); err != nil {
		return nil, err
	}

	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return nil, err
	}
	defer done()

	if err := uc.transferRepo.Create(ctx, tx, req); err != nil {
		return nil, err
	}

	err = uc.poster.audit(ctx, tx, domain.AuditActionTransferPropose, domain.ResourceTypeTransfer, req.ID,
		input.Actor, nil, req, now)
	if err != nil {
		return nil, err
	}

	err = uc.poster.publish(ctx, tx, domain.ResourceTypeTransfer, req.ID, domain.EventTypeTransferProposed,
		domain.TransferPayload(req), now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return req, nil
}

// Approve moves the requested amount and closes the request as approved.
//
// Lock order: request row, then both accounts in ascending id order, then the
// transfer sequence row. Two approvals racing on one request serialize on the
// request row; the loser observes a terminal status.
func (uc *TransferUseCase) Approve(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error) {
	if requestID == "" || actor == "" {
		return nil, domain.ErrMissingField
	}

	var req *domain.TransferRequest
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		req, err = uc.approveOnce(ctx, requestID, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (uc *TransferUseCase) approveOnce(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error) {
	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return nil, err
	}
	defer done()

	req, err := uc.transferRepo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	if err := req.CheckApprover(actor); err != nil {
		return nil, err
	}

	ids := []string{req.FromAccountID, req.ToAccountID}
	sort.Strings(ids)

	accounts, err := uc.accountRepo.GetByIDsForUpdate(ctx, tx, ids)
	if err != nil {
		return nil, err
	}

	accountMap := buildAccountMap(accounts)
	from, to := accountMap[req.FromAccountID], accountMap[req.ToAccountID]
	if from == nil || to == nil {
		return nil, domain.ErrAccountNotFound
	}

	// The balance may have dropped since the proposal. On failure the
	// transaction rolls back and the request stays pending.
	if err := from.ValidateDebit(req.Amount); err != nil {
		return nil, err
	}

	number, err := uc.sequences.NextTx(ctx, tx, domain.DocumentKindTransfer)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	before := *req

	legs := []struct {
		account *domain.Account
		kind    domain.EntryKind
	}{
		{from, domain.EntryKindTransferOut},
		{to, domain.EntryKindTransferIn},
	}
	for _, leg := range legs {
		_, err := uc.poster.post(ctx, tx, leg.account, postInput{
			Kind:           leg.kind,
			Amount:         req.Amount,
			DocumentNumber: number,
			Actor:          actor,
			Description:    req.Reason,
			Reference:      req.ID,
			OccurredAt:     now,
		})
		if err != nil {
			return nil, err
		}
	}

	req.DocumentNumber = number
	req.Decide(domain.TransferStatusApproved, actor, now)

	if err := uc.transferRepo.UpdateDecision(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := uc.journalDecision(ctx, tx, &before, req, actor, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return req, nil
}

// Reject closes a pending request without moving any balance. The recipient
// declines it or the proposer cancels it.
func (uc *TransferUseCase) Reject(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error) {
	if requestID == "" || actor == "" {
		return nil, domain.ErrMissingField
	}

	var req *domain.TransferRequest
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		req, err = uc.rejectOnce(ctx, requestID, actor)
		return err
	})
	if err != nil {
		return nil, err
	}

	return req, nil
}

func (uc *TransferUseCase) rejectOnce(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error) {
	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return nil, err
	}
	defer done()

	req, err := uc.transferRepo.GetByIDForUpdate(ctx, tx, requestID)
	if err != nil {
		return nil, err
	}

	if err := req.CheckRejecter(actor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	before := *req
	req.Decide(domain.TransferStatusRejected, actor, now)

	if err := uc.transferRepo.UpdateDecision(ctx, tx, req); err != nil {
		return nil, err
	}

	if err := uc.journalDecision(ctx, tx, &before, req, actor, now); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return req, nil
}

func (uc *TransferUseCase) journalDecision(ctx context.Context, tx Transaction, before, after *domain.TransferRequest, actor string, now time.Time) error {
	action, event := domain.AuditActionTransferApprove, domain.EventTypeTransferApproved
	if after.Status == domain.TransferStatusRejected {
		action, event = domain.AuditActionTransferReject, domain.EventTypeTransferRejected
	}

	if err := uc.poster.audit(ctx, tx, action, domain.ResourceTypeTransfer, after.ID, actor, before, after, now); err != nil {
		return err
	}

	return uc.poster.publish(ctx, tx, domain.ResourceTypeTransfer, after.ID, event, domain.TransferPayload(after), now)
}

// GetTransfer retrieves a transfer request by ID.
func (uc *TransferUseCase) GetTransfer(ctx context.Context, id string) (*domain.TransferRequest, error) {
	return uc.transferRepo.GetByID(ctx, id)
}

// ListTransfersByAccountInput represents input for listing transfers.
type ListTransfersByAccountInput struct {
	AccountID string
	Status    domain.TransferStatus
	Direction domain.TransferDirection
	Limit     int
	Offset    int
}

// ListTransfersByAccount lists requests where the account is sender or recipient.
func (uc *TransferUseCase) ListTransfersByAccount(ctx context.Context, input ListTransfersByAccountInput) ([]*domain.TransferRequest, error) {
	if input.Status != "" && !input.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown status %q", domain.ErrValidation, input.Status)
	}

	switch input.Direction {
	case domain.TransferDirectionAny, domain.TransferDirectionIncoming, domain.TransferDirectionOutgoing:
	default:
		return nil, fmt.Errorf("%w: unknown direction %q", domain.ErrValidation, input.Direction)
	}

	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)

	return uc.transferRepo.List(ctx, domain.TransferFilter{
		AccountID: input.AccountID,
		Status:    input.Status,
		Direction: input.Direction,
		Limit:     limit,
		Offset:    offset,
	})
}

func buildAccountMap(accounts []*domain.Account) map[string]*domain.Account {
	m := make(map[string]*domain.Account, len(accounts))
	for _, a := range accounts {
		m[a.ID] = a
	}

	return m
}
