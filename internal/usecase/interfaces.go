package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

//go:generate mockgen -destination=mocks/mock_interfaces.go -package=mocks github.com/iho/cashledger/internal/usecase Cache,IdempotencyStore,DriftRecorder,SequenceRepository

// AccountRepository defines data access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Account, error)
	// GetByIDsForUpdate locks the accounts in ascending id order.
	GetByIDsForUpdate(ctx context.Context, tx Transaction, ids []string) ([]*domain.Account, error)
	// UpdateBalance writes balance and increments the version, but only if the
	// stored version still equals expectedVersion. Otherwise it returns
	// domain.ErrConcurrentModification.
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// EntryRepository defines data access for ledger entries. Entries are
// append-only: there is no update or delete.
type EntryRepository interface {
	Create(ctx context.Context, tx Transaction, entry *domain.Entry) error
	ListByAccount(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.Entry, error)
	ListByReference(ctx context.Context, reference string) ([]*domain.Entry, error)
	// SumSigned returns the signed sum of every entry of the account.
	SumSigned(ctx context.Context, accountID string) (decimal.Decimal, error)
	Totals(ctx context.Context, accountID string, filter domain.EntryFilter) (domain.Totals, error)
	PeriodTotals(ctx context.Context, accountID string, filter domain.EntryFilter, granularity domain.Granularity) ([]domain.PeriodTotals, error)
	CategoryTotals(ctx context.Context, accountID string, filter domain.EntryFilter) ([]domain.CategoryTotal, error)
}

// TransferRepository defines data access for transfer requests.
type TransferRepository interface {
	Create(ctx context.Context, tx Transaction, req *domain.TransferRequest) error
	GetByID(ctx context.Context, id string) (*domain.TransferRequest, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.TransferRequest, error)
	// UpdateDecision persists the terminal status of a request.
	UpdateDecision(ctx context.Context, tx Transaction, req *domain.TransferRequest) error
	List(ctx context.Context, filter domain.TransferFilter) ([]*domain.TransferRequest, error)
}

// SequenceRepository mints document counter values.
type SequenceRepository interface {
	// Next increments and returns the counter for kind inside tx. The counter
	// row stays locked until tx ends.
	Next(ctx context.Context, tx Transaction, kind domain.DocumentKind) (int64, error)
}

// SaleRepository defines data access for sales.
type SaleRepository interface {
	Create(ctx context.Context, tx Transaction, sale *domain.Sale) error
	GetByID(ctx context.Context, id string) (*domain.Sale, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Sale, error)
	UpdatePayment(ctx context.Context, tx Transaction, sale *domain.Sale) error
}

// OutboxRepository defines data access for outbox events.
type OutboxRepository interface {
	Create(ctx context.Context, tx Transaction, event *domain.OutboxEvent) error
	GetUnpublished(ctx context.Context, limit int) ([]*domain.OutboxEvent, error)
	MarkPublished(ctx context.Context, id string, publishedAt time.Time) error
	DeletePublished(ctx context.Context, before time.Time) error
}

// AuditRepository defines data access for audit logs.
type AuditRepository interface {
	CreateTx(ctx context.Context, tx Transaction, log *domain.AuditLog) error
	List(ctx context.Context, filter domain.AuditFilter) ([]*domain.AuditLog, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique IDs.
type IDGenerator interface {
	Generate() string
}

// Retrier re-runs an operation while it fails with a transient error.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// Cache defines caching operations.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
	// Release drops a claimed key so the request can be retried.
	Release(ctx context.Context, key string) error
}

// DriftRecorder is notified whenever reconciliation finds a drifting account.
type DriftRecorder interface {
	RecordDrift(accountID string)
}
