package memory

import (
	"context"
	"sort"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	store *Store
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(store *Store) *TransferRepository {
	return &TransferRepository{store: store}
}

// Create stages a new request.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, req *domain.TransferRequest) error {
	t := asTx(tx)
	if err := t.lock(ctx, "transfer:"+req.ID); err != nil {
		return err
	}
	c := copyTransfer(req)
	return t.stage(func() {
		t.transfers[c.ID] = c
	})
}

// GetByID retrieves a committed request.
func (r *TransferRepository) GetByID(_ context.Context, id string) (*domain.TransferRequest, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	req, ok := r.store.transfers[id]
	if !ok {
		return nil, domain.ErrTransferNotFound
	}
	return copyTransfer(req), nil
}

// GetByIDForUpdate locks the request row for the rest of tx.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TransferRequest, error) {
	t := asTx(tx)
	if err := t.lock(ctx, "transfer:"+id); err != nil {
		return nil, err
	}

	t.mu.Lock()
	staged, ok := t.transfers[id]
	t.mu.Unlock()
	if ok {
		return copyTransfer(staged), nil
	}

	return r.GetByID(ctx, id)
}

// UpdateDecision stages the terminal status of a request.
func (r *TransferRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, req *domain.TransferRequest) error {
	t := asTx(tx)
	if err := t.lock(ctx, "transfer:"+req.ID); err != nil {
		return err
	}
	c := copyTransfer(req)
	return t.stage(func() {
		t.transfers[c.ID] = c
	})
}

// List returns matching requests, newest first.
func (r *TransferRepository) List(_ context.Context, filter domain.TransferFilter) ([]*domain.TransferRequest, error) {
	r.store.mu.RLock()
	matched := make([]*domain.TransferRequest, 0)
	for _, req := range r.store.transfers {
		if filter.Matches(req) {
			matched = append(matched, copyTransfer(req))
		}
	}
	r.store.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})

	return paginate(matched, filter.Limit, filter.Offset), nil
}
