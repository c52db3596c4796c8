package memory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const uncategorized = "uncategorized"

// EntryRepository implements usecase.EntryRepository.
type EntryRepository struct {
	store *Store
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(store *Store) *EntryRepository {
	return &EntryRepository{store: store}
}

// Create stages an entry; it becomes visible when tx commits.
func (r *EntryRepository) Create(_ context.Context, tx usecase.Transaction, entry *domain.Entry) error {
	t := asTx(tx)
	e := copyEntry(entry)
	return t.stage(func() {
		t.entries = append(t.entries, e)
	})
}

// ListByAccount returns matching entries, newest first.
func (r *EntryRepository) ListByAccount(_ context.Context, accountID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	matched := r.collect(accountID, filter)

	// Newest first; entries committed later win ties.
	for i, j := 0, len(matched)-1; i < j; i, j = i+1, j-1 {
		matched[i], matched[j] = matched[j], matched[i]
	}
	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].OccurredAt.After(matched[j].OccurredAt)
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}

// ListByReference returns the entries created for one business document.
func (r *EntryRepository) ListByReference(_ context.Context, reference string) ([]*domain.Entry, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	entries := make([]*domain.Entry, 0)
	for _, e := range r.store.entries {
		if e.Reference == reference {
			entries = append(entries, copyEntry(e))
		}
	}
	return entries, nil
}

// SumSigned returns the signed sum of the account's entries.
func (r *EntryRepository) SumSigned(_ context.Context, accountID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range r.collect(accountID, domain.EntryFilter{}) {
		sum = sum.Add(e.SignedAmount())
	}
	return sum, nil
}

// Totals folds matching entries into inflow, outflow and net.
func (r *EntryRepository) Totals(_ context.Context, accountID string, filter domain.EntryFilter) (domain.Totals, error) {
	var totals domain.Totals
	for _, e := range r.collect(accountID, filter) {
		totals.Add(e)
	}
	return totals, nil
}

// PeriodTotals buckets matching entries by granularity, oldest bucket first.
func (r *EntryRepository) PeriodTotals(_ context.Context, accountID string, filter domain.EntryFilter, granularity domain.Granularity) ([]domain.PeriodTotals, error) {
	buckets := make(map[int64]*domain.PeriodTotals)
	for _, e := range r.collect(accountID, filter) {
		start := granularity.PeriodStart(e.OccurredAt)
		b, ok := buckets[start.Unix()]
		if !ok {
			b = &domain.PeriodTotals{Start: start, End: granularity.Next(start)}
			buckets[start.Unix()] = b
		}
		b.Add(e)
	}

	periods := make([]domain.PeriodTotals, 0, len(buckets))
	for _, b := range buckets {
		periods = append(periods, *b)
	}
	sort.Slice(periods, func(i, j int) bool {
		return periods[i].Start.Before(periods[j].Start)
	})
	return periods, nil
}

// CategoryTotals sums amounts per category, largest first.
func (r *EntryRepository) CategoryTotals(_ context.Context, accountID string, filter domain.EntryFilter) ([]domain.CategoryTotal, error) {
	byCategory := make(map[string]*domain.CategoryTotal)
	for _, e := range r.collect(accountID, filter) {
		name := e.Category
		if name == "" {
			name = uncategorized
		}
		c, ok := byCategory[name]
		if !ok {
			c = &domain.CategoryTotal{Category: name}
			byCategory[name] = c
		}
		c.Amount = c.Amount.Add(e.Amount)
		c.Count++
	}

	totals := make([]domain.CategoryTotal, 0, len(byCategory))
	for _, c := range byCategory {
		totals = append(totals, *c)
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Amount.Equal(totals[j].Amount) {
			return totals[i].Category < totals[j].Category
		}
		return totals[i].Amount.GreaterThan(totals[j].Amount)
	})
	return totals, nil
}

// collect copies the committed entries of accountID that pass filter, in
// commit order.
func (r *EntryRepository) collect(accountID string, filter domain.EntryFilter) []*domain.Entry {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	matched := make([]*domain.Entry, 0)
	for _, e := range r.store.entries {
		if e.AccountID == accountID && filter.Matches(e) {
			matched = append(matched, copyEntry(e))
		}
	}
	return matched
}
