package usecase_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/adapter/repository/memory"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/idgen"
	"github.com/iho/cashledger/internal/infrastructure/retry"
	"github.com/iho/cashledger/internal/usecase"
)

type fixture struct {
	store     *memory.Store
	repos     usecase.Repositories
	sequences *usecase.SequenceUseCase
	ledger    *usecase.LedgerUseCase
	transfers *usecase.TransferUseCase
	sales     *usecase.SaleUseCase
	accounts  *usecase.AccountUseCase
	entries   *usecase.EntryUseCase
	recon     *usecase.ReconciliationUseCase
}

func newRetrier() *retry.Retrier {
	return retry.New(retry.WithIntervals(time.Millisecond, 5*time.Millisecond))
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := memory.New()
	repos := store.Repositories(idgen.NewULIDGenerator())
	return newFixtureWith(store, repos)
}

func newFixtureWith(store *memory.Store, repos usecase.Repositories) *fixture {
	retrier := newRetrier()
	sequences := usecase.NewSequenceUseCase(repos.TxManager, repos.Sequences)

	return &fixture{
		store:     store,
		repos:     repos,
		sequences: sequences,
		ledger:    usecase.NewLedgerUseCase(repos, sequences, retrier),
		transfers: usecase.NewTransferUseCase(repos, sequences, retrier),
		sales:     usecase.NewSaleUseCase(repos, sequences, retrier),
		accounts:  usecase.NewAccountUseCase(repos),
		entries:   usecase.NewEntryUseCase(repos.Accounts, repos.Entries),
		recon:     usecase.NewReconciliationUseCase(repos.Accounts, repos.Entries),
	}
}

// openAccount opens id and funds it with one cash sale entry.
func (f *fixture) openAccount(t *testing.T, id string, funding int64) *domain.Account {
	t.Helper()
	ctx := context.Background()

	account, err := f.accounts.OpenAccount(ctx, usecase.OpenAccountInput{ID: id, Name: "Partner " + id})
	require.NoError(t, err)

	if funding > 0 {
		_, err := f.ledger.Record(ctx, usecase.RecordInput{
			Kind:        domain.EntryKindSaleCash,
			AccountID:   id,
			Actor:       id,
			Description: "opening float",
			Amount:      decimal.NewFromInt(funding),
		})
		require.NoError(t, err)
	}

	return account
}

func (f *fixture) balance(t *testing.T, id string) decimal.Decimal {
	t.Helper()

	account, err := f.repos.Accounts.GetByID(context.Background(), id)
	require.NoError(t, err)
	return account.Balance
}

func (f *fixture) requireBalance(t *testing.T, id string, want int64) {
	t.Helper()

	got := f.balance(t, id)
	require.Truef(t, got.Equal(decimal.NewFromInt(want)), "balance of %s = %s, want %d", id, got, want)
}

func (f *fixture) entryCount(t *testing.T, id string) int {
	t.Helper()

	entries, err := f.repos.Entries.ListByAccount(context.Background(), id, domain.EntryFilter{Limit: 1000})
	require.NoError(t, err)
	return len(entries)
}

// requireBalanceInvariant checks that every stored balance equals the signed
// sum of the account's entries and is never negative.
func (f *fixture) requireBalanceInvariant(t *testing.T, ids ...string) {
	t.Helper()
	ctx := context.Background()

	for _, id := range ids {
		account, err := f.repos.Accounts.GetByID(ctx, id)
		require.NoError(t, err)

		sum, err := f.repos.Entries.SumSigned(ctx, id)
		require.NoError(t, err)

		require.Truef(t, account.Balance.Equal(sum), "account %s: balance %s, entries sum %s", id, account.Balance, sum)
		require.Falsef(t, account.Balance.IsNegative(), "account %s went negative: %s", id, account.Balance)
	}
}
