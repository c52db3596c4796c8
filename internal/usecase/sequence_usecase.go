package usecase

import (
	"context"
	"fmt"

	"github.com/iho/cashledger/internal/domain"
)

// SequenceUseCase mints human-readable document numbers.
type SequenceUseCase struct {
	txManager TransactionManager
	seqRepo   SequenceRepository
}

// NewSequenceUseCase creates a new SequenceUseCase.
func NewSequenceUseCase(txManager TransactionManager, seqRepo SequenceRepository) *SequenceUseCase {
	return &SequenceUseCase{
		txManager: txManager,
		seqRepo:   seqRepo,
	}
}

// Next mints a number in its own transaction. Used for documents that do not
// move cash (production orders, labor entries).
func (uc *SequenceUseCase) Next(ctx context.Context, kind domain.DocumentKind) (string, error) {
	if _, err := domain.ParseDocumentKind(string(kind)); err != nil {
		return "", err
	}

	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSequenceUnavailable, err)
	}
	defer done()

	number, err := uc.NextTx(ctx, tx, kind)
	if err != nil {
		return "", err
	}

	if err := tx.Commit(ctx); err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSequenceUnavailable, err)
	}

	return number, nil
}

// NextTx mints a number inside tx. The number is only consumed if tx commits.
// There is no fallback: any storage failure surfaces as ErrSequenceUnavailable.
func (uc *SequenceUseCase) NextTx(ctx context.Context, tx Transaction, kind domain.DocumentKind) (string, error) {
	if _, err := domain.ParseDocumentKind(string(kind)); err != nil {
		return "", err
	}

	value, err := uc.seqRepo.Next(ctx, tx, kind)
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrSequenceUnavailable, err)
	}

	return domain.FormatDocumentNumber(kind, value), nil
}
