package postgres

import (
	"context"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// SequenceRepository implements usecase.SequenceRepository on the
// document_sequences table.
type SequenceRepository struct{}

// NewSequenceRepository creates a new SequenceRepository.
func NewSequenceRepository() *SequenceRepository {
	return &SequenceRepository{}
}

// Next increments the counter for kind. The upsert takes the row lock, which
// concurrent callers wait on until tx ends; a rolled back value is reissued.
func (r *SequenceRepository) Next(ctx context.Context, tx usecase.Transaction, kind domain.DocumentKind) (int64, error) {
	var value int64

	err := txDB(tx).QueryRow(ctx, `
		INSERT INTO document_sequences (kind, last_value)
		VALUES ($1, 1)
		ON CONFLICT (kind) DO UPDATE SET last_value = document_sequences.last_value + 1
		RETURNING last_value`, string(kind)).Scan(&value)
	if err != nil {
		return 0, err
	}

	return value, nil
}
