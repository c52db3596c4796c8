package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// ReconciliationUseCase recomputes balances from the entry log and serves
// the read-side aggregates. It never writes to accounts or entries.
type ReconciliationUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
	cache       Cache
	cacheTTL    time.Duration
	drift       DriftRecorder
	logger      zerolog.Logger
}

// ReconciliationOption configures a ReconciliationUseCase.
type ReconciliationOption func(*ReconciliationUseCase)

// WithAggregateCache serves aggregates through cache for ttl.
func WithAggregateCache(cache Cache, ttl time.Duration) ReconciliationOption {
	return func(uc *ReconciliationUseCase) {
		uc.cache = cache
		uc.cacheTTL = ttl
	}
}

// WithDriftRecorder reports every drifting account to r.
func WithDriftRecorder(r DriftRecorder) ReconciliationOption {
	return func(uc *ReconciliationUseCase) {
		uc.drift = r
	}
}

// WithLogger sets the logger drift is reported to.
func WithLogger(logger zerolog.Logger) ReconciliationOption {
	return func(uc *ReconciliationUseCase) {
		uc.logger = logger
	}
}

// NewReconciliationUseCase creates a new reconciliation use case
func NewReconciliationUseCase(
	accountRepo AccountRepository,
	entryRepo EntryRepository,
	opts ...ReconciliationOption,
) *ReconciliationUseCase {
	uc := &ReconciliationUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
		cacheTTL:    DefaultAggregateCacheTTL,
		logger:      zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(uc)
	}

	return uc
}

// ReconciliationResult represents the result of a reconciliation check
type ReconciliationResult struct {
	AccountID         string
	RecordedBalance   decimal.Decimal
	CalculatedBalance decimal.Decimal
	Difference        decimal.Decimal
	IsReconciled      bool
	LastChecked       time.Time
}

// ProjectedBalance returns the signed sum of the account's entries.
func (uc *ReconciliationUseCase) ProjectedBalance(ctx context.Context, accountID string) (decimal.Decimal, error) {
	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return decimal.Zero, err
	}

	return uc.entryRepo.SumSigned(ctx, accountID)
}

// snapshotAttempts bounds how often a reconciliation re-reads an account that
// keeps changing underneath it.
const snapshotAttempts = 3

// ReconcileAccount compares the stored balance with the projected one. A
// mismatch is logged, reported to the drift recorder and returned as
// ErrLedgerDrift alongside the result. The stored balance is never rewritten.
func (uc *ReconciliationUseCase) ReconcileAccount(ctx context.Context, accountID string) (*ReconciliationResult, error) {
	for range snapshotAttempts {
		account, err := uc.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}

		projected, err := uc.entryRepo.SumSigned(ctx, accountID)
		if err != nil {
			return nil, err
		}

		// Entries and balance commit together, so an unchanged version means
		// the sum saw exactly the entries behind account.Balance.
		after, err := uc.accountRepo.GetByID(ctx, accountID)
		if err != nil {
			return nil, err
		}
		if after.Version != account.Version {
			continue
		}

		result := &ReconciliationResult{
			AccountID:         accountID,
			RecordedBalance:   account.Balance,
			CalculatedBalance: projected,
			Difference:        account.Balance.Sub(projected),
			IsReconciled:      account.Balance.Equal(projected),
			LastChecked:       time.Now().UTC(),
		}

		if !result.IsReconciled {
			uc.reportDrift(result)
			return result, fmt.Errorf("%w: account %s stored=%s projected=%s",
				domain.ErrLedgerDrift, accountID, account.Balance, projected)
		}

		return result, nil
	}

	return nil, domain.ErrLedgerBusy
}

func (uc *ReconciliationUseCase) reportDrift(result *ReconciliationResult) {
	uc.logger.Error().
		Str("account_id", result.AccountID).
		Str("recorded_balance", result.RecordedBalance.String()).
		Str("calculated_balance", result.CalculatedBalance.String()).
		Str("difference", result.Difference.String()).
		Msg("ledger drift detected")

	if uc.drift != nil {
		uc.drift.RecordDrift(result.AccountID)
	}
}

// ReconciliationReport represents a full reconciliation report
type ReconciliationReport struct {
	TotalAccounts      int
	ReconciledAccounts int
	Discrepancies      []*ReconciliationResult
	CheckedAt          time.Time
}

// ReconcileAll reconciles every account. Drift is collected into the report,
// not returned as an error.
func (uc *ReconciliationUseCase) ReconcileAll(ctx context.Context) (*ReconciliationReport, error) {
	report := &ReconciliationReport{
		Discrepancies: make([]*ReconciliationResult, 0),
		CheckedAt:     time.Now().UTC(),
	}

	for offset := 0; ; offset += reconcilePageSize {
		accounts, err := uc.accountRepo.List(ctx, reconcilePageSize, offset)
		if err != nil {
			return nil, err
		}

		for _, account := range accounts {
			result, err := uc.ReconcileAccount(ctx, account.ID)
			switch {
			case errors.Is(err, domain.ErrLedgerDrift):
				report.Discrepancies = append(report.Discrepancies, result)
			case err != nil:
				return nil, fmt.Errorf("failed to reconcile account %s: %w", account.ID, err)
			default:
				report.ReconciledAccounts++
			}
			report.TotalAccounts++
		}

		if len(accounts) < reconcilePageSize {
			return report, nil
		}
	}
}

// WindowedTotalInput selects the entries of one account inside [From, To).
type WindowedTotalInput struct {
	From      *time.Time
	To        *time.Time
	AccountID string
	Kinds     []domain.EntryKind
}

func (in WindowedTotalInput) filter() (domain.EntryFilter, error) {
	if in.From != nil && in.To != nil && in.To.Before(*in.From) {
		return domain.EntryFilter{}, domain.ErrInvalidWindow
	}
	for _, k := range in.Kinds {
		if !k.Valid() {
			return domain.EntryFilter{}, fmt.Errorf("%w: %q", domain.ErrUnknownEntryKind, k)
		}
	}

	return domain.EntryFilter{From: in.From, To: in.To, Kinds: in.Kinds}, nil
}

func (in WindowedTotalInput) cacheKey(prefix string) string {
	kinds := make([]string, len(in.Kinds))
	for i, k := range in.Kinds {
		kinds[i] = string(k)
	}
	sort.Strings(kinds)

	return fmt.Sprintf("%s:%s:%s:%s:%s", prefix, in.AccountID, strings.Join(kinds, ","),
		formatBound(in.From), formatBound(in.To))
}

func formatBound(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.UTC().Format(time.RFC3339Nano)
}

// WindowedTotal sums inflows and outflows of the account in the window.
func (uc *ReconciliationUseCase) WindowedTotal(ctx context.Context, input WindowedTotalInput) (*domain.Totals, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}

	var totals domain.Totals
	err = uc.cached(ctx, input.cacheKey("totals"), &totals, func() (any, error) {
		if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
			return nil, err
		}
		return uc.entryRepo.Totals(ctx, input.AccountID, filter)
	})
	if err != nil {
		return nil, err
	}

	return &totals, nil
}

// PeriodTotalsInput selects entries and the bucket size.
type PeriodTotalsInput struct {
	WindowedTotalInput
	Granularity domain.Granularity
}

// PeriodTotals breaks the window into day, week or month buckets. Buckets
// without entries are omitted.
func (uc *ReconciliationUseCase) PeriodTotals(ctx context.Context, input PeriodTotalsInput) ([]domain.PeriodTotals, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}
	granularity, err := domain.ParseGranularity(string(input.Granularity))
	if err != nil {
		return nil, err
	}

	var periods []domain.PeriodTotals
	err = uc.cached(ctx, input.cacheKey("periods:"+string(granularity)), &periods, func() (any, error) {
		if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
			return nil, err
		}
		return uc.entryRepo.PeriodTotals(ctx, input.AccountID, filter, granularity)
	})
	if err != nil {
		return nil, err
	}

	return periods, nil
}

// CategoryTotals returns per-category subtotals, largest first.
func (uc *ReconciliationUseCase) CategoryTotals(ctx context.Context, input WindowedTotalInput) ([]domain.CategoryTotal, error) {
	filter, err := input.filter()
	if err != nil {
		return nil, err
	}

	var totals []domain.CategoryTotal
	err = uc.cached(ctx, input.cacheKey("categories"), &totals, func() (any, error) {
		if _, err := uc.accountRepo.GetByID(ctx, input.AccountID); err != nil {
			return nil, err
		}
		return uc.entryRepo.CategoryTotals(ctx, input.AccountID, filter)
	})
	if err != nil {
		return nil, err
	}

	return totals, nil
}

// cached decodes key into dst, or computes, stores and decodes a fresh value.
// Cache failures degrade to a direct read.
func (uc *ReconciliationUseCase) cached(ctx context.Context, key string, dst any, compute func() (any, error)) error {
	if uc.cache != nil {
		if data, err := uc.cache.Get(ctx, key); err == nil && data != nil {
			if err := json.Unmarshal(data, dst); err == nil {
				return nil
			}
		}
	}

	value, err := compute()
	if err != nil {
		return err
	}

	data, err := json.Marshal(value)
	if err != nil {
		return err
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, key, data, uc.cacheTTL); err != nil {
			uc.logger.Warn().Err(err).Str("key", key).Msg("failed to cache aggregate")
		}
	}

	return json.Unmarshal(data, dst)
}
