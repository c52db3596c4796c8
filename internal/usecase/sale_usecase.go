package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
)

// SaleUseCase records the cash side of sales. A cash sale reaches the
// collector's balance at once; a credit sale only through settlements.
type SaleUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	saleRepo    SaleRepository
	sequences   *SequenceUseCase
	poster      *poster
	idGen       IDGenerator
	retrier     Retrier
}

// NewSaleUseCase creates a new SaleUseCase.
func NewSaleUseCase(repos Repositories, sequences *SequenceUseCase, retrier Retrier) *SaleUseCase {
	return &SaleUseCase{
		txManager:   repos.TxManager,
		accountRepo: repos.Accounts,
		saleRepo:    repos.Sales,
		sequences:   sequences,
		poster:      repos.poster(),
		idGen:       repos.IDGen,
		retrier:     retrier,
	}
}

// CreateSaleInput represents input for creating a sale.
type CreateSaleInput struct {
	Actor       string
	CustomerRef string
	CollectedBy string
	Notes       string
	PaymentType domain.PaymentType
	Items       []domain.SaleItem
	Discount    decimal.Decimal
}

func (in CreateSaleInput) build() (*domain.Sale, error) {
	if err := checkCollector(in.Actor, in.CollectedBy); err != nil {
		return nil, err
	}
	if len(in.Items) == 0 {
		return nil, fmt.Errorf("%w: items", domain.ErrMissingField)
	}
	if in.Discount.IsNegative() {
		return nil, fmt.Errorf("%w: discount must not be negative", domain.ErrValidation)
	}
	if err := domain.ValidateScale(in.Discount); err != nil {
		return nil, fmt.Errorf("discount: %w", err)
	}

	items := make([]domain.SaleItem, len(in.Items))
	subtotal := decimal.Zero
	for i, item := range in.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return nil, fmt.Errorf("%w: product_name", domain.ErrMissingField)
		}
		if !item.Quantity.IsPositive() || item.UnitPrice.IsNegative() {
			return nil, fmt.Errorf("%w: item %d has invalid quantity or price", domain.ErrValidation, i)
		}
		item.Total = item.Quantity.Mul(item.UnitPrice)
		if err := domain.ValidateScale(item.Total); err != nil {
			return nil, fmt.Errorf("item %d total: %w", i, err)
		}
		items[i] = item
		subtotal = subtotal.Add(item.Total)
	}

	if in.Discount.GreaterThan(subtotal) {
		return nil, fmt.Errorf("%w: discount exceeds subtotal", domain.ErrValidation)
	}

	sale := &domain.Sale{
		CustomerRef: strings.TrimSpace(in.CustomerRef),
		CollectedBy: in.CollectedBy,
		Notes:       in.Notes,
		PaymentType: in.PaymentType,
		Status:      domain.SaleStatusPending,
		Items:       items,
		Subtotal:    subtotal,
		Discount:    in.Discount,
		Total:       subtotal.Sub(in.Discount),
		PaidAmount:  decimal.Zero,
	}

	if err := sale.Validate(); err != nil {
		return nil, err
	}

	return sale, nil
}

// checkCollector only lets an actor collect cash into their own account.
func checkCollector(actor, collectedBy string) error {
	if strings.TrimSpace(actor) == "" {
		return fmt.Errorf("%w: actor", domain.ErrMissingField)
	}
	if collectedBy != actor {
		return domain.ErrNotAccountOwner
	}
	return nil
}

// SaleResult is a sale together with the entry it produced, if any.
type SaleResult struct {
	Sale  *domain.Sale
	Entry *domain.Entry
}

// CreateSale numbers the sale as an invoice. A cash sale is settled
// immediately with one sale_cash entry on the collector's account that
// shares the invoice number.
func (uc *SaleUseCase) CreateSale(ctx context.Context, input CreateSaleInput) (*SaleResult, error) {
	template, err := input.build()
	if err != nil {
		return nil, err
	}

	var result *SaleResult
	err = uc.retrier.Retry(ctx, func() error {
		sale := *template
		var err error
		result, err = uc.createOnce(ctx, &sale)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *SaleUseCase) createOnce(ctx context.Context, sale *domain.Sale) (*SaleResult, error) {
	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return nil, err
	}
	defer done()

	now := time.Now().UTC()
	sale.ID = uc.idGen.Generate()
	sale.CreatedAt = now

	result := &SaleResult{Sale: sale}

	if sale.PaymentType == domain.PaymentTypeCash {
		account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, sale.CollectedBy)
		if err != nil {
			return nil, err
		}

		sale.PaidAmount = sale.Total
		sale.Status = domain.SaleStatusSettled

		result.Entry, err = uc.poster.post(ctx, tx, account, postInput{
			Kind:        domain.EntryKindSaleCash,
			Amount:      sale.Total,
			Actor:       sale.CollectedBy,
			Description: "cash sale to " + sale.CustomerRef,
			Reference:   sale.ID,
			OccurredAt:  now,
			Mint: func() (string, error) {
				return uc.sequences.NextTx(ctx, tx, domain.DocumentKindInvoice)
			},
		})
		if err != nil {
			return nil, err
		}
		sale.Number = result.Entry.DocumentNumber
	} else {
		if _, err := uc.accountRepo.GetByID(ctx, sale.CollectedBy); err != nil {
			return nil, err
		}

		sale.Number, err = uc.sequences.NextTx(ctx, tx, domain.DocumentKindInvoice)
		if err != nil {
			return nil, err
		}
	}

	if err := uc.saleRepo.Create(ctx, tx, sale); err != nil {
		return nil, err
	}

	err = uc.poster.audit(ctx, tx, domain.AuditActionSaleCreate, domain.ResourceTypeSale, sale.ID,
		sale.CollectedBy, nil, sale, now)
	if err != nil {
		return nil, err
	}

	err = uc.poster.publish(ctx, tx, domain.ResourceTypeSale, sale.ID, domain.EventTypeSaleCreated, map[string]any{
		"sale_id":      sale.ID,
		"number":       sale.Number,
		"payment_type": string(sale.PaymentType),
		"total":        sale.Total.String(),
	}, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return result, nil
}

// SettleCreditInput represents a payment collected against a credit sale.
type SettleCreditInput struct {
	Actor       string
	SaleID      string
	CollectedBy string
	Amount      decimal.Decimal
}

// SettleCredit records one sale_credit_settlement entry on the collector's
// account and advances the sale to partial or settled.
func (uc *SaleUseCase) SettleCredit(ctx context.Context, input SettleCreditInput) (*SaleResult, error) {
	if input.SaleID == "" || input.CollectedBy == "" {
		return nil, domain.ErrMissingField
	}
	if err := checkCollector(input.Actor, input.CollectedBy); err != nil {
		return nil, err
	}
	if err := domain.ValidateAmount(input.Amount); err != nil {
		return nil, err
	}

	var result *SaleResult
	err := uc.retrier.Retry(ctx, func() error {
		var err error
		result, err = uc.settleOnce(ctx, input)
		return err
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (uc *SaleUseCase) settleOnce(ctx context.Context, input SettleCreditInput) (*SaleResult, error) {
	ctx, tx, done, err := beginTx(ctx, uc.txManager)
	if err != nil {
		return nil, err
	}
	defer done()

	sale, err := uc.saleRepo.GetByIDForUpdate(ctx, tx, input.SaleID)
	if err != nil {
		return nil, err
	}

	before := *sale
	if err := sale.ApplySettlement(input.Amount); err != nil {
		return nil, err
	}

	account, err := uc.accountRepo.GetByIDForUpdate(ctx, tx, input.CollectedBy)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()

	entry, err := uc.poster.post(ctx, tx, account, postInput{
		Kind:        domain.EntryKindSaleCreditSettlement,
		Amount:      input.Amount,
		Actor:       input.CollectedBy,
		Description: "settlement of " + sale.Number,
		Reference:   sale.ID,
		OccurredAt:  now,
		Mint: func() (string, error) {
			return uc.sequences.NextTx(ctx, tx, domain.DocumentKindPayment)
		},
	})
	if err != nil {
		return nil, err
	}

	if err := uc.saleRepo.UpdatePayment(ctx, tx, sale); err != nil {
		return nil, err
	}

	err = uc.poster.audit(ctx, tx, domain.AuditActionSaleSettle, domain.ResourceTypeSale, sale.ID,
		input.CollectedBy, &before, sale, now)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &SaleResult{Sale: sale, Entry: entry}, nil
}

// GetSale retrieves a sale by ID.
func (uc *SaleUseCase) GetSale(ctx context.Context, id string) (*domain.Sale, error) {
	return uc.saleRepo.GetByID(ctx, id)
}
