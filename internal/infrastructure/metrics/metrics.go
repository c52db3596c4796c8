// Package metrics exposes ledger-level Prometheus collectors.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/iho/cashledger/internal/usecase"
)

// Metrics holds the ledger's Prometheus metrics. HTTP metrics live with the
// HTTP middleware.
type Metrics struct {
	// Reconciliation metrics
	LedgerDrift        *prometheus.CounterVec
	ReconciliationRuns *prometheus.CounterVec
	ReconciliationTime prometheus.Histogram
	DriftingAccounts   prometheus.Gauge
	ReconciledAccounts prometheus.Gauge

	// Outbox metrics
	OutboxPublished prometheus.Counter
	OutboxFailures  *prometheus.CounterVec

	// Rate limiting metrics
	RateLimitEvictions prometheus.Counter
}

var _ usecase.DriftRecorder = (*Metrics)(nil)

// New creates and registers all ledger metrics on reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		LedgerDrift: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_ledger_drift_total",
				Help: "Reconciliation checks where the recorded balance disagreed with the entry projection",
			},
			[]string{"account_id"},
		),
		ReconciliationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_reconciliation_runs_total",
				Help: "Scheduled reconciliation runs by outcome",
			},
			[]string{"status"},
		),
		ReconciliationTime: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "cashledger_reconciliation_duration_seconds",
			Help:    "Duration of a full reconciliation run",
			Buckets: prometheus.DefBuckets,
		}),
		DriftingAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cashledger_drifting_accounts",
			Help: "Accounts found drifting by the last reconciliation run",
		}),
		ReconciledAccounts: factory.NewGauge(prometheus.GaugeOpts{
			Name: "cashledger_reconciled_accounts",
			Help: "Accounts found consistent by the last reconciliation run",
		}),

		OutboxPublished: factory.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_outbox_published_total",
			Help: "Outbox events handed to the publisher",
		}),
		OutboxFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cashledger_outbox_failures_total",
				Help: "Outbox events that could not be published or marked",
			},
			[]string{"stage"},
		),

		RateLimitEvictions: factory.NewCounter(prometheus.CounterOpts{
			Name: "cashledger_rate_limit_evictions_total",
			Help: "Idle per-client rate limiters removed",
		}),
	}
}

// RecordDrift counts one drifting account.
func (m *Metrics) RecordDrift(accountID string) {
	m.LedgerDrift.WithLabelValues(accountID).Inc()
}

// ObserveReconciliation records the outcome of a full run.
func (m *Metrics) ObserveReconciliation(report *usecase.ReconciliationReport, took time.Duration, err error) {
	m.ReconciliationTime.Observe(took.Seconds())
	if err != nil {
		m.ReconciliationRuns.WithLabelValues("error").Inc()
		return
	}

	status := "ok"
	if len(report.Discrepancies) > 0 {
		status = "drift"
	}
	m.ReconciliationRuns.WithLabelValues(status).Inc()
	m.DriftingAccounts.Set(float64(len(report.Discrepancies)))
	m.ReconciledAccounts.Set(float64(report.ReconciledAccounts))
}

// Published counts one outbox event handed off.
func (m *Metrics) Published() {
	m.OutboxPublished.Inc()
}

// Failed counts one outbox failure at stage.
func (m *Metrics) Failed(stage string) {
	m.OutboxFailures.WithLabelValues(stage).Inc()
}
