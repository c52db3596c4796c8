// Package memory is a transactional in-process implementation of the
// repository ports. Rows touched for update are locked until the owning
// transaction ends, and writes become visible atomically on commit.
package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ErrTxDone is returned when a finished transaction is used again.
var ErrTxDone = errors.New("memory: transaction already finished")

// Store holds committed state. Readers outside a transaction see only
// committed rows.
type Store struct {
	mu sync.RWMutex

	accounts  map[string]*domain.Account
	entries   []*domain.Entry
	transfers map[string]*domain.TransferRequest
	sales     map[string]*domain.Sale
	sequences map[domain.DocumentKind]int64
	outbox    []*domain.OutboxEvent
	audit     []*domain.AuditLog

	locksMu sync.Mutex
	locks   map[string]chan struct{}
}

// New creates an empty store.
func New() *Store {
	return &Store{
		accounts:  make(map[string]*domain.Account),
		entries:   make([]*domain.Entry, 0),
		transfers: make(map[string]*domain.TransferRequest),
		sales:     make(map[string]*domain.Sale),
		sequences: make(map[domain.DocumentKind]int64),
		outbox:    make([]*domain.OutboxEvent, 0),
		audit:     make([]*domain.AuditLog, 0),
		locks:     make(map[string]chan struct{}),
	}
}

func (s *Store) rowLock(key string) chan struct{} {
	s.locksMu.Lock()
	defer s.locksMu.Unlock()

	ch, ok := s.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		s.locks[key] = ch
	}
	return ch
}

// TxManager implements usecase.TransactionManager.
type TxManager struct {
	store *Store
}

// NewTxManager creates a new TxManager.
func NewTxManager(store *Store) *TxManager {
	return &TxManager{store: store}
}

// Begin starts a new transaction.
func (m *TxManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return &Tx{
		store:     m.store,
		held:      make(map[string]chan struct{}),
		accounts:  make(map[string]*domain.Account),
		transfers: make(map[string]*domain.TransferRequest),
		sales:     make(map[string]*domain.Sale),
		sequences: make(map[domain.DocumentKind]int64),
	}, nil
}

// Tx stages writes and holds row locks until Commit or Rollback.
type Tx struct {
	store *Store
	mu    sync.Mutex
	done  bool

	held map[string]chan struct{}

	// Rows written by this transaction, visible only to it.
	accounts  map[string]*domain.Account
	transfers map[string]*domain.TransferRequest
	sales     map[string]*domain.Sale
	sequences map[domain.DocumentKind]int64
	entries   []*domain.Entry
	outbox    []*domain.OutboxEvent
	audit     []*domain.AuditLog
}

func asTx(tx usecase.Transaction) *Tx {
	return tx.(*Tx)
}

// lock acquires the row lock for key, waiting until it is free or ctx ends.
// Locks are re-entrant within one transaction.
func (t *Tx) lock(ctx context.Context, key string) error {
	t.mu.Lock()
	if t.done {
		t.mu.Unlock()
		return ErrTxDone
	}
	if _, ok := t.held[key]; ok {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	ch := t.store.rowLock(key)
	select {
	case ch <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done {
		<-ch
		return ErrTxDone
	}
	t.held[key] = ch
	return nil
}

func (t *Tx) release() {
	for key, ch := range t.held {
		<-ch
		delete(t.held, key)
	}
}

// Commit applies every staged write atomically and releases the locks.
func (t *Tx) Commit(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}
	t.done = true
	defer t.release()

	if err := ctx.Err(); err != nil {
		return err
	}

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, a := range t.accounts {
		s.accounts[id] = a
	}
	for id, r := range t.transfers {
		s.transfers[id] = r
	}
	for id, sale := range t.sales {
		s.sales[id] = sale
	}
	for kind, v := range t.sequences {
		s.sequences[kind] = v
	}
	s.entries = append(s.entries, t.entries...)
	s.outbox = append(s.outbox, t.outbox...)
	s.audit = append(s.audit, t.audit...)

	return nil
}

// Rollback discards staged writes. It is a no-op after Commit.
func (t *Tx) Rollback(_ context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return nil
	}
	t.done = true
	t.release()

	return nil
}

func (t *Tx) stage(fn func()) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done {
		return ErrTxDone
	}
	fn()
	return nil
}

func copyAccount(a *domain.Account) *domain.Account {
	c := *a
	return &c
}

func copyTransfer(r *domain.TransferRequest) *domain.TransferRequest {
	c := *r
	if r.DecidedAt != nil {
		at := *r.DecidedAt
		c.DecidedAt = &at
	}
	return &c
}

func copySale(s *domain.Sale) *domain.Sale {
	c := *s
	c.Items = append([]domain.SaleItem(nil), s.Items...)
	return &c
}

func copyEntry(e *domain.Entry) *domain.Entry {
	c := *e
	return &c
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// Repositories wires every memory repository over one store.
func (s *Store) Repositories(idGen usecase.IDGenerator) usecase.Repositories {
	return usecase.Repositories{
		TxManager: NewTxManager(s),
		Accounts:  NewAccountRepository(s),
		Entries:   NewEntryRepository(s),
		Transfers: NewTransferRepository(s),
		Sequences: NewSequenceRepository(s),
		Sales:     NewSaleRepository(s),
		Outbox:    NewOutboxRepository(s),
		Audit:     NewAuditRepository(s),
		IDGen:     idGen,
	}
}
