package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestTotals_Add(t *testing.T) {
	var totals Totals
	totals.Add(&Entry{Kind: EntryKindSaleCash, Amount: decimal.NewFromInt(100)})
	totals.Add(&Entry{Kind: EntryKindExpense, Amount: decimal.NewFromInt(30)})
	totals.Add(&Entry{Kind: EntryKindTransferOut, Amount: decimal.NewFromInt(20)})

	if !totals.Inflow.Equal(decimal.NewFromInt(100)) {
		t.Errorf("inflow: got %s", totals.Inflow)
	}
	if !totals.Outflow.Equal(decimal.NewFromInt(50)) {
		t.Errorf("outflow: got %s", totals.Outflow)
	}
	if !totals.Net.Equal(decimal.NewFromInt(50)) {
		t.Errorf("net: got %s", totals.Net)
	}
	if totals.Count != 3 {
		t.Errorf("count: got %d", totals.Count)
	}
}

func TestGranularity_PeriodStart(t *testing.T) {
	// Thursday
	ts := time.Date(2024, 2, 15, 17, 30, 0, 0, time.UTC)

	tests := []struct {
		g        Granularity
		expected time.Time
		next     time.Time
	}{
		{GranularityDay, time.Date(2024, 2, 15, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 16, 0, 0, 0, 0, time.UTC)},
		{GranularityWeek, time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC), time.Date(2024, 2, 19, 0, 0, 0, 0, time.UTC)},
		{GranularityMonth, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(string(tt.g), func(t *testing.T) {
			start := tt.g.PeriodStart(ts)
			if !start.Equal(tt.expected) {
				t.Errorf("start: expected %s, got %s", tt.expected, start)
			}
			if next := tt.g.Next(start); !next.Equal(tt.next) {
				t.Errorf("next: expected %s, got %s", tt.next, next)
			}
		})
	}
}

func TestGranularity_WeekStartsMonday(t *testing.T) {
	sunday := time.Date(2024, 2, 18, 23, 0, 0, 0, time.UTC)
	monday := time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)

	if got := GranularityWeek.PeriodStart(sunday); !got.Equal(monday) {
		t.Errorf("expected %s, got %s", monday, got)
	}
	if got := GranularityWeek.PeriodStart(monday); !got.Equal(monday) {
		t.Errorf("monday should be its own week start, got %s", got)
	}
}

func TestParseGranularity(t *testing.T) {
	if g, err := ParseGranularity(""); err != nil || g != GranularityDay {
		t.Errorf("empty should default to day, got %s %v", g, err)
	}
	if _, err := ParseGranularity("year"); !errors.Is(err, ErrInvalidGranularity) {
		t.Errorf("expected ErrInvalidGranularity, got %v", err)
	}
}
