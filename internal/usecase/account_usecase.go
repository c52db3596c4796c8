package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// AccountUseCase handles account business logic.
type AccountUseCase struct {
	accountRepo  AccountRepository
	entryRepo    EntryRepository
	transferRepo TransferRepository
	idGen        IDGenerator
}

// NewAccountUseCase creates a new AccountUseCase.
func NewAccountUseCase(repos Repositories) *AccountUseCase {
	return &AccountUseCase{
		accountRepo:  repos.Accounts,
		entryRepo:    repos.Entries,
		transferRepo: repos.Transfers,
		idGen:        repos.IDGen,
	}
}

// OpenAccountInput represents input for provisioning an account.
type OpenAccountInput struct {
	ID   string
	Name string
}

// OpenAccount provisions a zero-balance account for a partner. ID is optional
// and lets the caller reuse the partner id issued by the identity provider.
func (uc *AccountUseCase) OpenAccount(ctx context.Context, input OpenAccountInput) (*domain.Account, error) {
	if err := domain.ValidateAccountName(input.Name); err != nil {
		return nil, err
	}

	id := strings.TrimSpace(input.ID)
	if id == "" {
		id = uc.idGen.Generate()
	}

	now := time.Now().UTC()
	account := &domain.Account{
		ID:        id,
		Name:      strings.TrimSpace(input.Name),
		Balance:   decimal.Zero,
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	return account, nil
}

// GetAccount retrieves an account by ID.
func (uc *AccountUseCase) GetAccount(ctx context.Context, id string) (*domain.Account, error) {
	return uc.accountRepo.GetByID(ctx, id)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *AccountUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}

// Dashboard is the landing view of one partner.
type Dashboard struct {
	Account          *domain.Account
	Partners         []*domain.Account
	PendingApprovals []*domain.TransferRequest
	RecentEntries    int64
}

// Dashboard gathers the partner's balance, every other partner's balance,
// the requests awaiting the partner's decision and the recent entry count.
func (uc *AccountUseCase) Dashboard(ctx context.Context, accountID string) (*Dashboard, error) {
	account, err := uc.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}

	limit, _ := domain.ValidatePagination(1000, 0)

	all, err := uc.accountRepo.List(ctx, limit, 0)
	if err != nil {
		return nil, err
	}

	partners := make([]*domain.Account, 0, len(all))
	for _, a := range all {
		if a.ID != accountID {
			partners = append(partners, a)
		}
	}

	pending, err := uc.transferRepo.List(ctx, domain.TransferFilter{
		AccountID: accountID,
		Status:    domain.TransferStatusPending,
		Direction: domain.TransferDirectionIncoming,
		Limit:     limit,
	})
	if err != nil {
		return nil, err
	}

	since := time.Now().UTC().Add(-recentEntriesWindow)
	recent, err := uc.entryRepo.Totals(ctx, accountID, domain.EntryFilter{From: &since})
	if err != nil {
		return nil, err
	}

	return &Dashboard{
		Account:          account,
		Partners:         partners,
		PendingApprovals: pending,
		RecentEntries:    recent.Count,
	}, nil
}
