package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// AccountRepository implements usecase.AccountRepository.
type AccountRepository struct {
	store *Store
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(store *Store) *AccountRepository {
	return &AccountRepository{store: store}
}

// Create creates a new account.
func (r *AccountRepository) Create(_ context.Context, account *domain.Account) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, exists := r.store.accounts[account.ID]; exists {
		return domain.ErrAccountExists
	}
	r.store.accounts[account.ID] = copyAccount(account)
	return nil
}

// GetByID retrieves the committed account.
func (r *AccountRepository) GetByID(_ context.Context, id string) (*domain.Account, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}

// GetByIDForUpdate locks the account row for the rest of tx.
func (r *AccountRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Account, error) {
	t := asTx(tx)
	if err := t.lock(ctx, "account:"+id); err != nil {
		return nil, err
	}
	return r.read(t, id)
}

// GetByIDsForUpdate locks the accounts in ascending id order.
func (r *AccountRepository) GetByIDsForUpdate(ctx context.Context, tx usecase.Transaction, ids []string) ([]*domain.Account, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)

	accounts := make([]*domain.Account, 0, len(sorted))
	for _, id := range sorted {
		a, err := r.GetByIDForUpdate(ctx, tx, id)
		if err == domain.ErrAccountNotFound {
			continue
		}
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, a)
	}
	return accounts, nil
}

// UpdateBalance takes the row lock like an UPDATE would, then applies the
// version check against the latest state visible to tx.
func (r *AccountRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance decimal.Decimal, expectedVersion int64, updatedAt time.Time) error {
	t := asTx(tx)
	if err := t.lock(ctx, "account:"+id); err != nil {
		return err
	}

	current, err := r.read(t, id)
	if err != nil {
		return err
	}
	if current.Version != expectedVersion {
		return domain.ErrConcurrentModification
	}

	current.Balance = balance
	current.Version++
	current.UpdatedAt = updatedAt

	return t.stage(func() {
		t.accounts[id] = current
	})
}

// List lists committed accounts ordered by creation time.
func (r *AccountRepository) List(_ context.Context, limit, offset int) ([]*domain.Account, error) {
	r.store.mu.RLock()
	all := make([]*domain.Account, 0, len(r.store.accounts))
	for _, a := range r.store.accounts {
		all = append(all, copyAccount(a))
	}
	r.store.mu.RUnlock()

	sort.Slice(all, func(i, j int) bool {
		if all[i].CreatedAt.Equal(all[j].CreatedAt) {
			return all[i].ID < all[j].ID
		}
		return all[i].CreatedAt.Before(all[j].CreatedAt)
	})

	return paginate(all, limit, offset), nil
}

// read returns the account as tx sees it: its own write if any, else committed.
func (r *AccountRepository) read(t *Tx, id string) (*domain.Account, error) {
	t.mu.Lock()
	staged, ok := t.accounts[id]
	t.mu.Unlock()
	if ok {
		return copyAccount(staged), nil
	}

	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	a, ok := r.store.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return copyAccount(a), nil
}
