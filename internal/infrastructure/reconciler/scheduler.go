// Package reconciler periodically checks every account against its entries.
package reconciler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/usecase"
)

// Reconciler runs a full reconciliation pass.
type Reconciler interface {
	ReconcileAll(ctx context.Context) (*usecase.ReconciliationReport, error)
}

// Observer receives the outcome of every pass.
type Observer interface {
	ObserveReconciliation(report *usecase.ReconciliationReport, took time.Duration, err error)
}

// Scheduler runs Reconciler on a fixed interval. Drift is only reported.
type Scheduler struct {
	reconciler Reconciler
	observer   Observer
	logger     zerolog.Logger
	interval   time.Duration
}

// NewScheduler creates a Scheduler. observer may be nil.
func NewScheduler(reconciler Reconciler, interval time.Duration, observer Observer, logger zerolog.Logger) *Scheduler {
	if interval <= 0 {
		interval = time.Hour
	}
	return &Scheduler{
		reconciler: reconciler,
		observer:   observer,
		logger:     logger.With().Str("component", "reconciler").Logger(),
		interval:   interval,
	}
}

// Start runs passes until ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) error {
	s.logger.Info().Dur("interval", s.interval).Msg("reconciler started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("reconciler shutting down")
			return ctx.Err()
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce performs a single pass and returns its report, or nil on failure.
func (s *Scheduler) RunOnce(ctx context.Context) *usecase.ReconciliationReport {
	start := time.Now()
	report, err := s.reconciler.ReconcileAll(ctx)
	took := time.Since(start)

	if s.observer != nil {
		s.observer.ObserveReconciliation(report, took, err)
	}

	if err != nil {
		s.logger.Error().Err(err).Msg("reconciliation failed")
		return nil
	}

	for _, d := range report.Discrepancies {
		s.logger.Warn().
			Str("account_id", d.AccountID).
			Str("recorded_balance", d.RecordedBalance.String()).
			Str("calculated_balance", d.CalculatedBalance.String()).
			Str("difference", d.Difference.String()).
			Msg("ledger drift detected")
	}

	s.logger.Info().
		Int("total_accounts", report.TotalAccounts).
		Int("reconciled_accounts", report.ReconciledAccounts).
		Int("drifting_accounts", len(report.Discrepancies)).
		Dur("took", took).
		Msg("reconciliation finished")

	return report
}
