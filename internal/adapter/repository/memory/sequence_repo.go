package memory

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// SequenceRepository implements usecase.SequenceRepository.
type SequenceRepository struct {
	store *Store
}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository(store *Store) *SequenceRepository {
	return &SequenceRepository{store: store}
}

// Next increments the counter for kind. The counter stays locked until tx
// ends; a rolled back value is never handed out.
func (r *SequenceRepository) Next(ctx context.Context, tx usecase.Transaction, kind domain.DocumentKind) (int64, error) {
	t := asTx(tx)
	if err := t.lock(ctx, "sequence:"+string(kind)); err != nil {
		return 0, err
	}

	t.mu.Lock()
	value, ok := t.sequences[kind]
	t.mu.Unlock()

	if !ok {
		r.store.mu.RLock()
		value = r.store.sequences[kind]
		r.store.mu.RUnlock()
	}

	value++
	if err := t.stage(func() { t.sequences[kind] = value }); err != nil {
		return 0, err
	}
	return value, nil
}
