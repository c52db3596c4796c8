package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeCash   PaymentType = "cash"
	PaymentTypeCredit PaymentType = "credit"
)

type SaleStatus string

const (
	SaleStatusPending SaleStatus = "pending"
	SaleStatusPartial SaleStatus = "partial"
	SaleStatusSettled SaleStatus = "settled"
)

// SaleItem is one line of a sale. Totals are computed by the caller.
type SaleItem struct {
	ProductName string          `json:"product_name"`
	Quantity    decimal.Decimal `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Total       decimal.Decimal `json:"total"`
}

// Sale tracks the cash side of a sale: how much was charged and how much of
// it has reached a partner's cash balance.
type Sale struct {
	CreatedAt   time.Time
	ID          string
	Number      string
	CustomerRef string
	CollectedBy string
	Notes       string
	PaymentType PaymentType
	Status      SaleStatus
	Items       []SaleItem
	Subtotal    decimal.Decimal
	Discount    decimal.Decimal
	Total       decimal.Decimal
	PaidAmount  decimal.Decimal
}

// Validate checks the sale header.
func (s *Sale) Validate() error {
	if s.PaymentType != PaymentTypeCash && s.PaymentType != PaymentTypeCredit {
		return ErrInvalidPaymentType
	}
	if s.CustomerRef == "" || s.CollectedBy == "" {
		return ErrMissingField
	}
	return ValidateAmount(s.Total)
}

// Outstanding returns the unpaid part of the sale.
func (s *Sale) Outstanding() decimal.Decimal {
	return s.Total.Sub(s.PaidAmount)
}

// ApplySettlement records a payment against a credit sale.
func (s *Sale) ApplySettlement(amount decimal.Decimal) error {
	if s.PaymentType != PaymentTypeCredit {
		return ErrNotCreditSale
	}
	if amount.GreaterThan(s.Outstanding()) {
		return ErrOverSettlement
	}

	s.PaidAmount = s.PaidAmount.Add(amount)
	if s.PaidAmount.GreaterThanOrEqual(s.Total) {
		s.Status = SaleStatusSettled
	} else {
		s.Status = SaleStatusPartial
	}
	return nil
}
