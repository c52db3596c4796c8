package usecase

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
)

// EntryUseCase serves ledger reads.
type EntryUseCase struct {
	accountRepo AccountRepository
	entryRepo   EntryRepository
}

// NewEntryUseCase creates a new EntryUseCase.
func NewEntryUseCase(accountRepo AccountRepository, entryRepo EntryRepository) *EntryUseCase {
	return &EntryUseCase{
		accountRepo: accountRepo,
		entryRepo:   entryRepo,
	}
}

// GetLedger lists an account's entries, newest first.
func (uc *EntryUseCase) GetLedger(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.Entry, error) {
	if filter.From != nil && filter.To != nil && filter.To.Before(*filter.From) {
		return nil, domain.ErrInvalidWindow
	}

	if _, err := uc.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, err
	}

	filter.Limit, filter.Offset = domain.ValidatePagination(filter.Limit, filter.Offset)

	return uc.entryRepo.ListByAccount(ctx, accountID, filter)
}

// GetEntriesByReference lists the entries created for one business document
// (a transfer request or a sale).
func (uc *EntryUseCase) GetEntriesByReference(ctx context.Context, reference string) ([]*domain.Entry, error) {
	return uc.entryRepo.ListByReference(ctx, reference)
}
