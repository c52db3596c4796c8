package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Totals summarizes the entries of one account inside a window.
// Inflow and Outflow are positive magnitudes; Net = Inflow - Outflow.
type Totals struct {
	Inflow  decimal.Decimal
	Outflow decimal.Decimal
	Net     decimal.Decimal
	Count   int64
}

// Add folds one entry into the totals.
func (t *Totals) Add(e *Entry) {
	if e.Kind.IsInflow() {
		t.Inflow = t.Inflow.Add(e.Amount)
	} else {
		t.Outflow = t.Outflow.Add(e.Amount)
	}
	t.Net = t.Inflow.Sub(t.Outflow)
	t.Count++
}

// Granularity is the bucket size of period totals.
type Granularity string

const (
	GranularityDay   Granularity = "day"
	GranularityWeek  Granularity = "week"
	GranularityMonth Granularity = "month"
)

// ParseGranularity converts a string to a Granularity, defaulting to day.
func ParseGranularity(s string) (Granularity, error) {
	switch g := Granularity(s); g {
	case "":
		return GranularityDay, nil
	case GranularityDay, GranularityWeek, GranularityMonth:
		return g, nil
	default:
		return "", ErrInvalidGranularity
	}
}

// PeriodStart truncates t (in UTC) to the start of its bucket. Weeks start on Monday.
func (g Granularity) PeriodStart(t time.Time) time.Time {
	t = t.UTC()
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)

	switch g {
	case GranularityWeek:
		offset := (int(day.Weekday()) + 6) % 7
		return day.AddDate(0, 0, -offset)
	case GranularityMonth:
		return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return day
	}
}

// Next returns the start of the bucket after the one starting at start.
func (g Granularity) Next(start time.Time) time.Time {
	switch g {
	case GranularityWeek:
		return start.AddDate(0, 0, 7)
	case GranularityMonth:
		return start.AddDate(0, 1, 0)
	default:
		return start.AddDate(0, 0, 1)
	}
}

// PeriodTotals is one bucket of a period breakdown.
type PeriodTotals struct {
	Start time.Time
	End   time.Time
	Totals
}

// CategoryTotal is a per-category subtotal used by expense analysis.
type CategoryTotal struct {
	Category string
	Amount   decimal.Decimal
	Count    int64
}
