package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const transferColumns = `id, from_account_id, to_account_id, amount, reason, status,
	document_number, decided_by, decided_at, created_at`

// TransferRepository implements usecase.TransferRepository.
type TransferRepository struct {
	db DBTX
}

// NewTransferRepository creates a new TransferRepository.
func NewTransferRepository(db DBTX) *TransferRepository {
	return &TransferRepository{db: db}
}

// Create inserts a pending request.
func (r *TransferRepository) Create(ctx context.Context, tx usecase.Transaction, req *domain.TransferRequest) error {
	_, err := txDB(tx).Exec(ctx, `
		INSERT INTO transfer_requests (`+transferColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		req.ID,
		req.FromAccountID,
		req.ToAccountID,
		decimalToNumeric(req.Amount),
		req.Reason,
		string(req.Status),
		req.DocumentNumber,
		req.DecidedBy,
		req.DecidedAt,
		req.CreatedAt,
	)

	return err
}

// GetByID retrieves a transfer request by ID.
func (r *TransferRepository) GetByID(ctx context.Context, id string) (*domain.TransferRequest, error) {
	row := r.db.QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1`, id)
	return scanTransfer(row)
}

// GetByIDForUpdate retrieves a transfer request with a FOR UPDATE lock.
func (r *TransferRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.TransferRequest, error) {
	row := txDB(tx).QueryRow(ctx, `SELECT `+transferColumns+` FROM transfer_requests WHERE id = $1 FOR UPDATE`, id)
	return scanTransfer(row)
}

// UpdateDecision persists the terminal status of a request. Only a pending
// row can be decided.
func (r *TransferRepository) UpdateDecision(ctx context.Context, tx usecase.Transaction, req *domain.TransferRequest) error {
	tag, err := txDB(tx).Exec(ctx, `
		UPDATE transfer_requests
		SET status = $2, document_number = $3, decided_by = $4, decided_at = $5
		WHERE id = $1 AND status = 'pending'`,
		req.ID,
		string(req.Status),
		req.DocumentNumber,
		req.DecidedBy,
		req.DecidedAt,
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransferAlreadyDecided
	}

	return nil
}

// List returns matching requests, newest first.
func (r *TransferRepository) List(ctx context.Context, filter domain.TransferFilter) ([]*domain.TransferRequest, error) {
	args := []any{filter.AccountID}

	var query string
	switch filter.Direction {
	case domain.TransferDirectionIncoming:
		query = ` WHERE to_account_id = $1`
	case domain.TransferDirectionOutgoing:
		query = ` WHERE from_account_id = $1`
	default:
		query = ` WHERE (from_account_id = $1 OR to_account_id = $1)`
	}

	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}

	query += " ORDER BY created_at DESC, id DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	rows, err := r.db.Query(ctx, `SELECT `+transferColumns+` FROM transfer_requests`+query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	requests := make([]*domain.TransferRequest, 0)
	for rows.Next() {
		req, err := scanTransfer(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

func scanTransfer(row pgx.Row) (*domain.TransferRequest, error) {
	var (
		t      domain.TransferRequest
		amount pgtype.Numeric
		status string
	)

	err := row.Scan(
		&t.ID,
		&t.FromAccountID,
		&t.ToAccountID,
		&amount,
		&t.Reason,
		&status,
		&t.DocumentNumber,
		&t.DecidedBy,
		&t.DecidedAt,
		&t.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransferNotFound
		}
		return nil, err
	}

	t.Amount = numericToDecimal(amount)
	t.Status = domain.TransferStatus(status)

	return &t, nil
}
