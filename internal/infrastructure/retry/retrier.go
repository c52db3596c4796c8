package retry

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"

	"github.com/iho/cashledger/internal/domain"
)

// PostgreSQL error codes for retryable errors.
const (
	pgErrDeadlock             = "40P01"
	pgErrSerializationFailure = "40001"
)

// DefaultMaxAttempts is the number of tries, including the first, before a
// conflicting write is reported as domain.ErrLedgerBusy.
const DefaultMaxAttempts = 3

// Retrier implements usecase.Retrier with exponential backoff.
type Retrier struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	maxElapsedTime  time.Duration
	logger          zerolog.Logger
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxAttempts overrides the attempt budget.
func WithMaxAttempts(n int) Option {
	return func(r *Retrier) {
		if n > 0 {
			r.maxAttempts = n
		}
	}
}

// WithIntervals overrides the backoff intervals.
func WithIntervals(initial, max time.Duration) Option {
	return func(r *Retrier) {
		r.initialInterval = initial
		r.maxInterval = max
	}
}

// WithLogger sets the logger retries are reported to.
func WithLogger(logger zerolog.Logger) Option {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// New creates a new retrier with default settings.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		maxAttempts:     DefaultMaxAttempts,
		initialInterval: 50 * time.Millisecond,
		maxInterval:     1 * time.Second,
		maxElapsedTime:  10 * time.Second,
		logger:          zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Retry executes an operation with exponential backoff on retryable errors.
// Once attempts are exhausted the caller gets ErrLedgerBusy; the conflict
// itself is only kept as text.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = r.maxInterval
	b.MaxElapsedTime = r.maxElapsedTime

	attempt := 0

	err := backoff.Retry(func() error {
		attempt++

		err := operation()
		if err == nil {
			return nil
		}

		if !IsRetryable(err) {
			return backoff.Permanent(err)
		}

		if attempt >= r.maxAttempts {
			return backoff.Permanent(fmt.Errorf("%w: %v", domain.ErrLedgerBusy, err))
		}

		r.logger.Warn().
			Err(err).
			Int("attempt", attempt).
			Msg("retryable ledger conflict, retrying")

		return err
	}, backoff.WithContext(b, ctx))

	if err != nil && IsRetryable(err) && !errors.Is(err, domain.ErrLedgerBusy) {
		// Backoff gave up on elapsed time or context before the attempt budget.
		return fmt.Errorf("%w: %v", domain.ErrLedgerBusy, err)
	}

	return err
}

// IsRetryable reports whether err is a transient write conflict: a stale
// optimistic version, a deadlock or a serialization failure.
func IsRetryable(err error) bool {
	if errors.Is(err, domain.ErrConcurrentModification) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgErrDeadlock, pgErrSerializationFailure:
			return true
		}
	}
	return false
}
