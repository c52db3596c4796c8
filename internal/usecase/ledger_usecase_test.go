package usecase_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/adapter/repository/memory"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/idgen"
	"github.com/iho/cashledger/internal/usecase"
)

func TestLedgerUseCase_Record_InsufficientBalance(t *testing.T) {
	f := newFixture(t)
	f.openAccount(t, "x", 1000)

	_, err := f.ledger.Record(context.Background(), usecase.RecordInput{
		Kind:        domain.EntryKindExpense,
		AccountID:   "x",
		Actor:       "x",
		Description: "diesel",
		Amount:      decimal.NewFromInt(1500),
	})

	require.ErrorIs(t, err, domain.ErrInsufficientBalance)
	f.requireBalance(t, "x", 1000)
	assert.Equal(t, 1, f.entryCount(t, "x"))
	f.requireBalanceInvariant(t, "x")
}

func TestLedgerUseCase_Record_AppliesSignAndNumbers(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)

	expense, err := f.ledger.Record(ctx, usecase.RecordInput{
		Kind:        domain.EntryKindExpense,
		AccountID:   "x",
		Actor:       "x",
		Description: "diesel",
		Category:    "fuel",
		Amount:      decimal.NewFromInt(250),
	})
	require.NoError(t, err)

	assert.Equal(t, "EXP-000001", expense.DocumentNumber)
	assert.True(t, expense.AccountPreviousBalance.Equal(decimal.NewFromInt(1000)))
	assert.True(t, expense.AccountCurrentBalance.Equal(decimal.NewFromInt(750)))
	assert.Equal(t, int64(2), expense.AccountVersion)
	assert.True(t, expense.SignedAmount().Equal(decimal.NewFromInt(-250)))

	settlement, err := f.ledger.Record(ctx, usecase.RecordInput{
		Kind:        domain.EntryKindSaleCreditSettlement,
		AccountID:   "x",
		Actor:       "x",
		Description: "customer paid",
		Amount:      decimal.NewFromInt(40),
	})
	require.NoError(t, err)
	assert.Equal(t, "PAY-000001", settlement.DocumentNumber)

	second, err := f.ledger.CreateExpense(ctx, usecase.OutflowInput{
		AccountID:   "x",
		Actor:       "x",
		Description: "lunch",
		Amount:      decimal.NewFromInt(10),
	})
	require.NoError(t, err)
	assert.Equal(t, "EXP-000002", second.DocumentNumber)

	f.requireBalance(t, "x", 780)
	f.requireBalanceInvariant(t, "x")
}

func TestLedgerUseCase_OutflowShortcuts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)

	in := usecase.OutflowInput{
		AccountID:   "x",
		Actor:       "x",
		Description: "weekly",
		Reference:   "worker-7",
		Amount:      decimal.NewFromInt(100),
	}

	labor, err := f.ledger.CreateLaborPayment(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindLaborPayment, labor.Kind)
	assert.Equal(t, "LPAY-000001", labor.DocumentNumber)
	assert.Equal(t, "worker-7", labor.Reference)

	in.Reference = "supplier-3"
	purchase, err := f.ledger.CreatePurchase(ctx, in)
	require.NoError(t, err)
	assert.Equal(t, domain.EntryKindPurchase, purchase.Kind)
	assert.Equal(t, "PUR-000001", purchase.DocumentNumber)

	f.requireBalance(t, "x", 800)
	f.requireBalanceInvariant(t, "x")
}

func TestLedgerUseCase_Record_Validation(t *testing.T) {
	f := newFixture(t)
	f.openAccount(t, "x", 100)

	valid := usecase.RecordInput{
		Kind:        domain.EntryKindExpense,
		AccountID:   "x",
		Actor:       "x",
		Description: "ok",
		Amount:      decimal.NewFromInt(1),
	}

	tests := []struct {
		name    string
		mutate  func(*usecase.RecordInput)
		wantErr error
	}{
		{"unknown kind", func(in *usecase.RecordInput) { in.Kind = "refund" }, domain.ErrUnknownEntryKind},
		{"transfer in", func(in *usecase.RecordInput) { in.Kind = domain.EntryKindTransferIn }, domain.ErrTransferKindNotRecordable},
		{"transfer out", func(in *usecase.RecordInput) { in.Kind = domain.EntryKindTransferOut }, domain.ErrTransferKindNotRecordable},
		{"missing account", func(in *usecase.RecordInput) { in.AccountID = " " }, domain.ErrMissingField},
		{"missing actor", func(in *usecase.RecordInput) { in.Actor = "" }, domain.ErrMissingField},
		{"zero amount", func(in *usecase.RecordInput) { in.Amount = decimal.Zero }, domain.ErrInvalidAmount},
		{"negative amount", func(in *usecase.RecordInput) { in.Amount = decimal.NewFromInt(-5) }, domain.ErrInvalidAmount},
		{"too small", func(in *usecase.RecordInput) { in.Amount = decimal.RequireFromString("0.001") }, domain.ErrAmountTooSmall},
		{"sub-cent amount", func(in *usecase.RecordInput) { in.Amount = decimal.RequireFromString("10.005") }, domain.ErrInvalidAmount},
		{"actor does not own account", func(in *usecase.RecordInput) { in.Actor = "y" }, domain.ErrNotAccountOwner},
		{"long description", func(in *usecase.RecordInput) { in.Description = strings.Repeat("a", domain.MaxDescriptionLength+1) }, domain.ErrValidation},
		{"unknown account", func(in *usecase.RecordInput) { in.AccountID, in.Actor = "nobody", "nobody" }, domain.ErrAccountNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.mutate(&in)

			_, err := f.ledger.Record(context.Background(), in)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}

	f.requireBalance(t, "x", 100)
	assert.Equal(t, 1, f.entryCount(t, "x"))
}

func TestLedgerUseCase_Record_ValidationFailureConsumesNoNumber(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 100)

	_, err := f.ledger.CreateExpense(ctx, usecase.OutflowInput{
		AccountID: "x", Actor: "x", Description: "too much", Amount: decimal.NewFromInt(500),
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	entry, err := f.ledger.CreateExpense(ctx, usecase.OutflowInput{
		AccountID: "x", Actor: "x", Description: "fits", Amount: decimal.NewFromInt(50),
	})
	require.NoError(t, err)
	assert.Equal(t, "EXP-000001", entry.DocumentNumber)
}

func TestLedgerUseCase_CreateExpense_OtherPartnersAccount(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 100)
	f.openAccount(t, "y", 100)

	_, err := f.ledger.CreateExpense(ctx, usecase.OutflowInput{
		AccountID: "x", Actor: "y", Description: "not mine", Amount: decimal.NewFromInt(50),
	})
	require.ErrorIs(t, err, domain.ErrNotAccountOwner)

	f.requireBalance(t, "x", 100)
	f.requireBalance(t, "y", 100)
	assert.Equal(t, 1, f.entryCount(t, "x"))
}

func TestLedgerUseCase_Record_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 1000)

	const workers = 20
	var (
		wg        sync.WaitGroup
		succeeded atomic.Int64
		mu        sync.Mutex
		failures  []error
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			_, err := f.ledger.CreateExpense(ctx, usecase.OutflowInput{
				AccountID:   "x",
				Actor:       "x",
				Description: "petty cash",
				Amount:      decimal.NewFromInt(10),
			})
			if err != nil {
				mu.Lock()
				failures = append(failures, err)
				mu.Unlock()
				return
			}
			succeeded.Add(1)
		}()
	}
	wg.Wait()

	for _, err := range failures {
		assert.ErrorIs(t, err, domain.ErrLedgerBusy)
	}

	f.requireBalance(t, "x", 1000-10*succeeded.Load())
	assert.Equal(t, int(1+succeeded.Load()), f.entryCount(t, "x"))
	f.requireBalanceInvariant(t, "x")
}

func TestLedgerUseCase_Record_ConcurrentNeverOverdraws(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.openAccount(t, "x", 100)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = f.ledger.CreateExpense(ctx, usecase.OutflowInput{
				AccountID: "x", Actor: "x", Description: "race", Amount: decimal.NewFromInt(60),
			})
		}()
	}
	wg.Wait()

	assert.True(t, f.balance(t, "x").Equal(decimal.NewFromInt(40)))
	f.requireBalanceInvariant(t, "x")
}

// conflictingAccounts reports every versioned write as stale.
type conflictingAccounts struct {
	usecase.AccountRepository
	writes atomic.Int64
}

func (r *conflictingAccounts) UpdateBalance(context.Context, usecase.Transaction, string, decimal.Decimal, int64, time.Time) error {
	r.writes.Add(1)
	return domain.ErrConcurrentModification
}

func TestLedgerUseCase_Record_ExhaustedRetriesAreLedgerBusy(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	repos := store.Repositories(idgen.NewULIDGenerator())

	seed := newFixtureWith(store, repos)
	seed.openAccount(t, "x", 0)

	conflicting := &conflictingAccounts{AccountRepository: repos.Accounts}
	repos.Accounts = conflicting
	f := newFixtureWith(store, repos)

	_, err := f.ledger.Record(ctx, usecase.RecordInput{
		Kind:        domain.EntryKindSaleCash,
		AccountID:   "x",
		Actor:       "x",
		Description: "blocked",
		Amount:      decimal.NewFromInt(10),
	})

	require.ErrorIs(t, err, domain.ErrLedgerBusy)
	assert.False(t, errors.Is(err, domain.ErrConcurrentModification))
	assert.Equal(t, int64(3), conflicting.writes.Load())
	assert.Equal(t, 0, f.entryCount(t, "x"))

	number, err := f.sequences.Next(ctx, domain.DocumentKindInvoice)
	require.NoError(t, err)
	assert.Equal(t, "INV-000001", number, "failed attempts must not consume numbers")
}
