package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestEntryKind_Classification(t *testing.T) {
	inflows := map[EntryKind]bool{
		EntryKindSaleCash:             true,
		EntryKindSaleCreditSettlement: true,
		EntryKindTransferIn:           true,
	}

	for _, k := range AllEntryKinds() {
		if !k.Valid() {
			t.Fatalf("%s should be valid", k)
		}
		if k.IsInflow() == k.IsOutflow() {
			t.Errorf("%s must be exactly one of inflow/outflow", k)
		}
		if k.IsInflow() != inflows[k] {
			t.Errorf("%s: IsInflow = %v", k, k.IsInflow())
		}
		if k.DocumentKind().Prefix() == "" {
			t.Errorf("%s has no document sequence", k)
		}
	}
}

func TestEntryKind_DocumentKind(t *testing.T) {
	tests := map[EntryKind]DocumentKind{
		EntryKindSaleCash:             DocumentKindInvoice,
		EntryKindSaleCreditSettlement: DocumentKindPayment,
		EntryKindPurchase:             DocumentKindPurchase,
		EntryKindExpense:              DocumentKindExpense,
		EntryKindLaborPayment:         DocumentKindLaborPayment,
		EntryKindTransferIn:           DocumentKindTransfer,
		EntryKindTransferOut:          DocumentKindTransfer,
	}
	for kind, want := range tests {
		if got := kind.DocumentKind(); got != want {
			t.Errorf("%s: expected %s, got %s", kind, want, got)
		}
	}
}

func TestParseEntryKind(t *testing.T) {
	if k, err := ParseEntryKind("expense"); err != nil || k != EntryKindExpense {
		t.Fatalf("unexpected result: %v %v", k, err)
	}

	_, err := ParseEntryKind("refund")
	if !errors.Is(err, ErrUnknownEntryKind) {
		t.Errorf("expected ErrUnknownEntryKind, got %v", err)
	}
	if !errors.Is(err, ErrValidation) {
		t.Errorf("unknown kind should be a validation error")
	}
}

func TestEntry_SignedAmount(t *testing.T) {
	e := &Entry{Kind: EntryKindExpense, Amount: decimal.NewFromInt(25)}
	if !e.SignedAmount().Equal(decimal.NewFromInt(-25)) {
		t.Errorf("expected -25, got %s", e.SignedAmount())
	}

	e.Kind = EntryKindSaleCash
	if !e.SignedAmount().Equal(decimal.NewFromInt(25)) {
		t.Errorf("expected 25, got %s", e.SignedAmount())
	}
}

func TestEntryFilter_Matches(t *testing.T) {
	base := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	from := base.Add(-time.Hour)
	to := base.Add(time.Hour)

	tests := []struct {
		name     string
		filter   EntryFilter
		entry    Entry
		expected bool
	}{
		{"empty filter", EntryFilter{}, Entry{Kind: EntryKindExpense, OccurredAt: base}, true},
		{"inside window", EntryFilter{From: &from, To: &to}, Entry{OccurredAt: base}, true},
		{"at window start", EntryFilter{From: &from, To: &to}, Entry{OccurredAt: from}, true},
		{"at window end is excluded", EntryFilter{From: &from, To: &to}, Entry{OccurredAt: to}, false},
		{"before window", EntryFilter{From: &from}, Entry{OccurredAt: from.Add(-time.Second)}, false},
		{"kind match", EntryFilter{Kinds: []EntryKind{EntryKindExpense, EntryKindPurchase}}, Entry{Kind: EntryKindPurchase}, true},
		{"kind mismatch", EntryFilter{Kinds: []EntryKind{EntryKindExpense}}, Entry{Kind: EntryKindSaleCash}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.Matches(&tt.entry); got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}
