package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// DefaultAggregateCacheTTL bounds how stale a cached aggregate may be.
	DefaultAggregateCacheTTL = 30 * time.Second

	// reconcilePageSize is the page size used when walking every account.
	reconcilePageSize = 500

	// recentEntriesWindow is the look-back of the dashboard's recent activity count.
	recentEntriesWindow = 7 * 24 * time.Hour
)
