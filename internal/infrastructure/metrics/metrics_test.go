package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/iho/cashledger/internal/usecase"
)

func TestNewRegistersMetrics(t *testing.T) {
	registry := prometheus.NewRegistry()

	m := New(registry)

	if m.LedgerDrift == nil || m.ReconciliationRuns == nil || m.OutboxPublished == nil {
		t.Fatalf("expected key metrics to be initialized: %+v", m)
	}

	m.OutboxPublished.Inc()

	metricFamilies, err := registry.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}

	if len(metricFamilies) == 0 {
		t.Fatalf("expected registered metrics, got none")
	}
}

func TestRecordDrift(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordDrift("x")
	m.RecordDrift("x")
	m.RecordDrift("y")

	if got := testutil.ToFloat64(m.LedgerDrift.WithLabelValues("x")); got != 2 {
		t.Fatalf("expected 2 drift events for x, got %v", got)
	}
	if got := testutil.ToFloat64(m.LedgerDrift.WithLabelValues("y")); got != 1 {
		t.Fatalf("expected 1 drift event for y, got %v", got)
	}
}

func TestObserveReconciliation(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.ObserveReconciliation(&usecase.ReconciliationReport{
		TotalAccounts:      3,
		ReconciledAccounts: 2,
		Discrepancies:      []*usecase.ReconciliationResult{{AccountID: "z"}},
	}, 10*time.Millisecond, nil)

	if got := testutil.ToFloat64(m.ReconciliationRuns.WithLabelValues("drift")); got != 1 {
		t.Fatalf("expected one drift run, got %v", got)
	}
	if got := testutil.ToFloat64(m.DriftingAccounts); got != 1 {
		t.Fatalf("expected drifting gauge 1, got %v", got)
	}
	if got := testutil.ToFloat64(m.ReconciledAccounts); got != 2 {
		t.Fatalf("expected reconciled gauge 2, got %v", got)
	}

	m.ObserveReconciliation(nil, time.Millisecond, errors.New("db down"))
	if got := testutil.ToFloat64(m.ReconciliationRuns.WithLabelValues("error")); got != 1 {
		t.Fatalf("expected one failed run, got %v", got)
	}
}

func TestOutboxObserver(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.Published()
	m.Published()
	m.Failed("mark")

	if got := testutil.ToFloat64(m.OutboxPublished); got != 2 {
		t.Fatalf("expected 2 published, got %v", got)
	}
	if got := testutil.ToFloat64(m.OutboxFailures.WithLabelValues("mark")); got != 1 {
		t.Fatalf("expected 1 mark failure, got %v", got)
	}
}
