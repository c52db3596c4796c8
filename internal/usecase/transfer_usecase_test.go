package usecase_test

import (
	"context"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

func propose(t *testing.T, f *fixture, from, to string, amount int64) *domain.TransferRequest {
	t.Helper()

	req, err := f.transfers.Propose(context.Background(), usecase.ProposeTransferInput{
		FromAccountID: from,
		ToAccountID:   to,
		Reason:        "float",
		Actor:         from,
		Amount:        decimal.NewFromInt(amount),
	})
	require.NoError(t, err)
	return req
}

func TestTransferUseCase_ProposeAndApprove(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)
	f.openAccount(t, "y", 0)

	req := propose(t, f, "x", "y", 400)
	assert.Equal(t, domain.TransferStatusPending, req.Status)
	f.requireBalance(t, "x", 1000)
	f.requireBalance(t, "y", 0)

	approved, err := f.transfers.Approve(ctx, req.ID, "y")
	require.NoError(t, err)

	assert.Equal(t, domain.TransferStatusApproved, approved.Status)
	assert.Equal(t, "y", approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, "TRF-000001", approved.DocumentNumber)

	f.requireBalance(t, "x", 600)
	f.requireBalance(t, "y", 400)

	legs, err := f.entries.GetEntriesByReference(ctx, req.ID)
	require.NoError(t, err)
	require.Len(t, legs, 2)
	kinds := map[domain.EntryKind]*domain.Entry{}
	for _, e := range legs {
		kinds[e.Kind] = e
		assert.Equal(t, "TRF-000001", e.DocumentNumber)
	}
	assert.Equal(t, "x", kinds[domain.EntryKindTransferOut].AccountID)
	assert.Equal(t, "y", kinds[domain.EntryKindTransferIn].AccountID)

	stored, err := f.transfers.GetTransfer(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusApproved, stored.Status)

	f.requireBalanceInvariant(t, "x", "y")
}

func TestTransferUseCase_ApproveAfterBalanceDropped(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)
	f.openAccount(t, "y", 0)

	req := propose(t, f, "x", "y", 400)

	_, err := f.ledger.CreateExpense(ctx, usecase.OutflowInput{
		AccountID: "x", Actor: "x", Description: "rent", Amount: decimal.NewFromInt(700),
	})
	require.NoError(t, err)
	f.requireBalance(t, "x", 300)

	_, err = f.transfers.Approve(ctx, req.ID, "y")
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	stored, err := f.transfers.GetTransfer(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusPending, stored.Status)

	legs, err := f.entries.GetEntriesByReference(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, legs)

	f.requireBalance(t, "x", 300)
	f.requireBalance(t, "y", 0)
	f.requireBalanceInvariant(t, "x", "y")

	// A failed approval must not burn a transfer number.
	number, err := f.sequences.Next(ctx, domain.DocumentKindTransfer)
	require.NoError(t, err)
	assert.Equal(t, "TRF-000001", number)
}

func TestTransferUseCase_ConcurrentApprovals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)
	f.openAccount(t, "y", 0)

	req := propose(t, f, "x", "y", 400)

	const racers = 2
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = f.transfers.Approve(ctx, req.ID, "y")
		}()
	}
	wg.Wait()

	var ok, decided int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		default:
			assert.ErrorIs(t, err, domain.ErrTransferAlreadyDecided)
			decided++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, decided)

	legs, err := f.entries.GetEntriesByReference(ctx, req.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	f.requireBalance(t, "x", 600)
	f.requireBalance(t, "y", 400)
	f.requireBalanceInvariant(t, "x", "y")
}

func TestTransferUseCase_Reject(t *testing.T) {
	tests := []struct {
		name  string
		actor string
	}{
		{"recipient declines", "y"},
		{"proposer cancels", "x"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx := context.Background()
			f := newFixture(t)
			f.openAccount(t, "x", 1000)
			f.openAccount(t, "y", 0)

			req := propose(t, f, "x", "y", 400)

			rejected, err := f.transfers.Reject(ctx, req.ID, tt.actor)
			require.NoError(t, err)
			assert.Equal(t, domain.TransferStatusRejected, rejected.Status)
			assert.Equal(t, tt.actor, rejected.DecidedBy)
			assert.Empty(t, rejected.DocumentNumber)

			f.requireBalance(t, "x", 1000)
			f.requireBalance(t, "y", 0)

			legs, err := f.entries.GetEntriesByReference(ctx, req.ID)
			require.NoError(t, err)
			assert.Empty(t, legs)
		})
	}
}

func TestTransferUseCase_DecisionsAreTerminal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)
	f.openAccount(t, "y", 0)

	approved := propose(t, f, "x", "y", 100)
	_, err := f.transfers.Approve(ctx, approved.ID, "y")
	require.NoError(t, err)

	_, err = f.transfers.Approve(ctx, approved.ID, "y")
	assert.ErrorIs(t, err, domain.ErrTransferAlreadyDecided)
	_, err = f.transfers.Reject(ctx, approved.ID, "y")
	assert.ErrorIs(t, err, domain.ErrTransferAlreadyDecided)

	rejected := propose(t, f, "x", "y", 100)
	_, err = f.transfers.Reject(ctx, rejected.ID, "y")
	require.NoError(t, err)

	_, err = f.transfers.Approve(ctx, rejected.ID, "y")
	assert.ErrorIs(t, err, domain.ErrTransferAlreadyDecided)

	legs, err := f.entries.GetEntriesByReference(ctx, approved.ID)
	require.NoError(t, err)
	assert.Len(t, legs, 2)

	legs, err = f.entries.GetEntriesByReference(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Empty(t, legs)

	f.requireBalance(t, "x", 900)
	f.requireBalance(t, "y", 100)
	f.requireBalanceInvariant(t, "x", "y")
}

func TestTransferUseCase_Authorization(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)
	f.openAccount(t, "y", 0)
	f.openAccount(t, "z", 0)

	_, err := f.transfers.Propose(ctx, usecase.ProposeTransferInput{
		FromAccountID: "x", ToAccountID: "y", Reason: "float", Actor: "z", Amount: decimal.NewFromInt(10),
	})
	assert.ErrorIs(t, err, domain.ErrNotAccountOwner)

	req := propose(t, f, "x", "y", 10)

	_, err = f.transfers.Approve(ctx, req.ID, "x")
	assert.ErrorIs(t, err, domain.ErrNotTransferRecipient, "proposer cannot approve")

	_, err = f.transfers.Approve(ctx, req.ID, "z")
	assert.ErrorIs(t, err, domain.ErrNotTransferRecipient)

	_, err = f.transfers.Reject(ctx, req.ID, "z")
	assert.ErrorIs(t, err, domain.ErrNotTransferRecipient)

	stored, err := f.transfers.GetTransfer(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TransferStatusPending, stored.Status)
}

func TestTransferUseCase_ProposeValidation(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 100)
	f.openAccount(t, "y", 0)

	valid := usecase.ProposeTransferInput{
		FromAccountID: "x", ToAccountID: "y", Reason: "float", Actor: "x", Amount: decimal.NewFromInt(10),
	}

	tests := []struct {
		name    string
		mutate  func(*usecase.ProposeTransferInput)
		wantErr error
	}{
		{"same account", func(in *usecase.ProposeTransferInput) { in.ToAccountID = "x" }, domain.ErrSameAccount},
		{"zero amount", func(in *usecase.ProposeTransferInput) { in.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"blank reason", func(in *usecase.ProposeTransferInput) { in.Reason = "  " }, domain.ErrMissingField},
		{"missing actor", func(in *usecase.ProposeTransferInput) { in.Actor = "" }, domain.ErrMissingField},
		{"unknown recipient", func(in *usecase.ProposeTransferInput) { in.ToAccountID = "nobody" }, domain.ErrAccountNotFound},
		{"more than balance", func(in *usecase.ProposeTransferInput) { in.Amount = decimal.NewFromInt(101) }, domain.ErrInsufficientBalance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := f.transfers.Propose(ctx, in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	_, err := f.transfers.Approve(ctx, "missing", "y")
	assert.ErrorIs(t, err, domain.ErrTransferNotFound)
}

func TestTransferUseCase_ListTransfersByAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)
	f.openAccount(t, "y", 1000)

	toY := propose(t, f, "x", "y", 10)
	propose(t, f, "y", "x", 20)
	_, err := f.transfers.Approve(ctx, toY.ID, "y")
	require.NoError(t, err)

	all, err := f.transfers.ListTransfersByAccount(ctx, usecase.ListTransfersByAccountInput{AccountID: "x"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	incomingPending, err := f.transfers.ListTransfersByAccount(ctx, usecase.ListTransfersByAccountInput{
		AccountID: "x",
		Status:    domain.TransferStatusPending,
		Direction: domain.TransferDirectionIncoming,
	})
	require.NoError(t, err)
	require.Len(t, incomingPending, 1)
	assert.Equal(t, "y", incomingPending[0].FromAccountID)

	outgoingApproved, err := f.transfers.ListTransfersByAccount(ctx, usecase.ListTransfersByAccountInput{
		AccountID: "x",
		Status:    domain.TransferStatusApproved,
		Direction: domain.TransferDirectionOutgoing,
	})
	require.NoError(t, err)
	require.Len(t, outgoingApproved, 1)
	assert.Equal(t, toY.ID, outgoingApproved[0].ID)

	_, err = f.transfers.ListTransfersByAccount(ctx, usecase.ListTransfersByAccountInput{AccountID: "x", Status: "done"})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.transfers.ListTransfersByAccount(ctx, usecase.ListTransfersByAccountInput{AccountID: "x", Direction: "sideways"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}
