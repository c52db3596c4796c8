package postgres_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iho/cashledger/internal/adapter/repository/postgres"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/infrastructure/idgen"
	infrapg "github.com/iho/cashledger/internal/infrastructure/postgres"
	"github.com/iho/cashledger/internal/infrastructure/retry"
	"github.com/iho/cashledger/internal/usecase"
)

// newIntegrationRepos connects to DATABASE_URL, applies migrations and
// empties every table.
func newIntegrationRepos(t *testing.T) usecase.Repositories {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}
	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		t.Skip("DATABASE_URL not set")
	}

	require.NoError(t, infrapg.RunMigrations(dbURL, zerolog.Nop()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `TRUNCATE accounts, ledger_entries, transfer_requests, document_sequences,
		sales, audit_logs, outbox_events CASCADE`)
	require.NoError(t, err)

	return postgres.NewRepositories(pool, idgen.NewULIDGenerator())
}

type integrationLedger struct {
	accounts  *usecase.AccountUseCase
	ledger    *usecase.LedgerUseCase
	transfers *usecase.TransferUseCase
	sequences *usecase.SequenceUseCase
	recon     *usecase.ReconciliationUseCase
}

func newIntegrationLedger(t *testing.T) integrationLedger {
	repos := newIntegrationRepos(t)
	retrier := retry.New(retry.WithMaxAttempts(10), retry.WithIntervals(5*time.Millisecond, 50*time.Millisecond))
	sequences := usecase.NewSequenceUseCase(repos.TxManager, repos.Sequences)

	return integrationLedger{
		accounts:  usecase.NewAccountUseCase(repos),
		ledger:    usecase.NewLedgerUseCase(repos, sequences, retrier),
		transfers: usecase.NewTransferUseCase(repos, sequences, retrier),
		sequences: sequences,
		recon:     usecase.NewReconciliationUseCase(repos.Accounts, repos.Entries),
	}
}

func (l integrationLedger) open(t *testing.T, id string, funding int64) {
	t.Helper()
	ctx := context.Background()

	_, err := l.accounts.OpenAccount(ctx, usecase.OpenAccountInput{ID: id, Name: "Partner " + id})
	require.NoError(t, err)

	if funding > 0 {
		_, err = l.ledger.Record(ctx, usecase.RecordInput{
			Kind: domain.EntryKindSaleCash, AccountID: id, Actor: id,
			Description: "opening float", Amount: decimal.NewFromInt(funding),
		})
		require.NoError(t, err)
	}
}

func TestIntegration_ConcurrentApprovalPostsOnce(t *testing.T) {
	l := newIntegrationLedger(t)
	ctx := context.Background()
	l.open(t, "x", 1000)
	l.open(t, "y", 0)

	req, err := l.transfers.Propose(ctx, usecase.ProposeTransferInput{
		FromAccountID: "x", ToAccountID: "y", Reason: "float", Actor: "x", Amount: decimal.NewFromInt(400),
	})
	require.NoError(t, err)

	const racers = 4
	errs := make([]error, racers)
	var wg sync.WaitGroup
	for i := range racers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = l.transfers.Approve(ctx, req.ID, "y")
		}()
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, domain.ErrTransferAlreadyDecided)
	}
	assert.Equal(t, 1, ok)

	x, err := l.accounts.GetAccount(ctx, "x")
	require.NoError(t, err)
	assert.True(t, x.Balance.Equal(decimal.NewFromInt(600)), "got %s", x.Balance)

	report, err := l.recon.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Discrepancies)
}

func TestIntegration_CrossingTransfersDoNotDeadlock(t *testing.T) {
	l := newIntegrationLedger(t)
	ctx := context.Background()
	l.open(t, "x", 1000)
	l.open(t, "y", 1000)

	const pairs = 10
	var ids []string
	for range pairs {
		for _, p := range [][2]string{{"x", "y"}, {"y", "x"}} {
			req, err := l.transfers.Propose(ctx, usecase.ProposeTransferInput{
				FromAccountID: p[0], ToAccountID: p[1], Reason: "swap", Actor: p[0], Amount: decimal.NewFromInt(10),
			})
			require.NoError(t, err)
			ids = append(ids, req.ID)
		}
	}

	errs := make(chan error, len(ids))
	var wg sync.WaitGroup
	for i, id := range ids {
		approver := "y"
		if i%2 == 1 {
			approver = "x"
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := l.transfers.Approve(ctx, id, approver)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		if errors.Is(err, domain.ErrLedgerBusy) {
			continue
		}
		require.NoError(t, err)
	}

	report, err := l.recon.ReconcileAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Discrepancies)
}

func TestIntegration_SequenceHasNoGapsUnderContention(t *testing.T) {
	l := newIntegrationLedger(t)
	ctx := context.Background()

	const callers = 50
	seen := make(chan string, callers)
	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			n, err := l.sequences.Next(ctx, domain.DocumentKindProduction)
			assert.NoError(t, err)
			seen <- n
		}()
	}
	wg.Wait()
	close(seen)

	numbers := map[string]bool{}
	for n := range seen {
		assert.False(t, numbers[n], "duplicate %s", n)
		numbers[n] = true
	}
	for i := int64(1); i <= callers; i++ {
		assert.True(t, numbers[domain.FormatDocumentNumber(domain.DocumentKindProduction, i)])
	}
}
