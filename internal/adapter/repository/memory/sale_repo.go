package memory

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// SaleRepository implements usecase.SaleRepository.
type SaleRepository struct {
	store *Store
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(store *Store) *SaleRepository {
	return &SaleRepository{store: store}
}

// Create stages a new sale.
func (r *SaleRepository) Create(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	return r.put(ctx, tx, sale)
}

// GetByID retrieves a committed sale.
func (r *SaleRepository) GetByID(_ context.Context, id string) (*domain.Sale, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	sale, ok := r.store.sales[id]
	if !ok {
		return nil, domain.ErrSaleNotFound
	}
	return copySale(sale), nil
}

// GetByIDForUpdate locks the sale row for the rest of tx.
func (r *SaleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Sale, error) {
	t := asTx(tx)
	if err := t.lock(ctx, "sale:"+id); err != nil {
		return nil, err
	}

	t.mu.Lock()
	staged, ok := t.sales[id]
	t.mu.Unlock()
	if ok {
		return copySale(staged), nil
	}

	return r.GetByID(ctx, id)
}

// UpdatePayment stages the paid amount and status of a sale.
func (r *SaleRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	return r.put(ctx, tx, sale)
}

func (r *SaleRepository) put(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	t := asTx(tx)
	if err := t.lock(ctx, "sale:"+sale.ID); err != nil {
		return err
	}
	c := copySale(sale)
	return t.stage(func() {
		t.sales[c.ID] = c
	})
}
