package postgres

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

const saleColumns = `id, number, customer_ref, collected_by, notes, payment_type, status,
	items, subtotal, discount, total, paid_amount, created_at`

// SaleRepository implements usecase.SaleRepository.
type SaleRepository struct {
	db DBTX
}

// NewSaleRepository creates a new SaleRepository.
func NewSaleRepository(db DBTX) *SaleRepository {
	return &SaleRepository{db: db}
}

// Create inserts a sale with its items.
func (r *SaleRepository) Create(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	items, err := json.Marshal(sale.Items)
	if err != nil {
		return err
	}

	_, err = txDB(tx).Exec(ctx, `
		INSERT INTO sales (`+saleColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		sale.ID,
		sale.Number,
		sale.CustomerRef,
		sale.CollectedBy,
		sale.Notes,
		string(sale.PaymentType),
		string(sale.Status),
		items,
		decimalToNumeric(sale.Subtotal),
		decimalToNumeric(sale.Discount),
		decimalToNumeric(sale.Total),
		decimalToNumeric(sale.PaidAmount),
		sale.CreatedAt,
	)

	return err
}

// GetByID retrieves a sale by ID.
func (r *SaleRepository) GetByID(ctx context.Context, id string) (*domain.Sale, error) {
	row := r.db.QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1`, id)
	return scanSale(row)
}

// GetByIDForUpdate retrieves a sale with a FOR UPDATE lock.
func (r *SaleRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Sale, error) {
	row := txDB(tx).QueryRow(ctx, `SELECT `+saleColumns+` FROM sales WHERE id = $1 FOR UPDATE`, id)
	return scanSale(row)
}

// UpdatePayment persists the paid amount and status.
func (r *SaleRepository) UpdatePayment(ctx context.Context, tx usecase.Transaction, sale *domain.Sale) error {
	tag, err := txDB(tx).Exec(ctx, `
		UPDATE sales SET paid_amount = $2, status = $3 WHERE id = $1`,
		sale.ID, decimalToNumeric(sale.PaidAmount), string(sale.Status),
	)
	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrSaleNotFound
	}

	return nil
}

func scanSale(row pgx.Row) (*domain.Sale, error) {
	var (
		sale                            domain.Sale
		paymentType, status             string
		items                           []byte
		subtotal, discount, total, paid pgtype.Numeric
	)

	err := row.Scan(
		&sale.ID,
		&sale.Number,
		&sale.CustomerRef,
		&sale.CollectedBy,
		&sale.Notes,
		&paymentType,
		&status,
		&items,
		&subtotal,
		&discount,
		&total,
		&paid,
		&sale.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrSaleNotFound
		}
		return nil, err
	}

	if len(items) > 0 {
		if err := json.Unmarshal(items, &sale.Items); err != nil {
			return nil, err
		}
	}

	sale.PaymentType = domain.PaymentType(paymentType)
	sale.Status = domain.SaleStatus(status)
	sale.Subtotal = numericToDecimal(subtotal)
	sale.Discount = numericToDecimal(discount)
	sale.Total = numericToDecimal(total)
	sale.PaidAmount = numericToDecimal(paid)

	return &sale, nil
}
