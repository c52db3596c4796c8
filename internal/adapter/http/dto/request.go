package dto

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// parseAmount parses a decimal string. Amounts travel as strings so that
// no client ever rounds them through a float.
func parseAmount(field, s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, fmt.Errorf("%w: %s", domain.ErrMissingField, field)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %s is not a decimal", domain.ErrValidation, field)
	}
	return d, nil
}

// OpenAccountRequest represents a request to open a partner account.
type OpenAccountRequest struct {
	ID   string `json:"id,omitempty"`
	Name string `json:"name"`
}

// ToUseCaseInput converts to use case input.
func (r *OpenAccountRequest) ToUseCaseInput() usecase.OpenAccountInput {
	return usecase.OpenAccountInput{
		ID:   r.ID,
		Name: r.Name,
	}
}

// RecordEntryRequest represents a request to record a non-transfer entry.
type RecordEntryRequest struct {
	Kind        string `json:"kind"`
	AccountID   string `json:"account_id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Amount      string `json:"amount"`
}

// ToUseCaseInput converts to use case input for actor.
func (r *RecordEntryRequest) ToUseCaseInput(actor string) (usecase.RecordInput, error) {
	kind, err := domain.ParseEntryKind(r.Kind)
	if err != nil {
		return usecase.RecordInput{}, err
	}
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.RecordInput{}, err
	}

	return usecase.RecordInput{
		Kind:        kind,
		AccountID:   r.AccountID,
		Actor:       actor,
		Description: r.Description,
		Category:    r.Category,
		Reference:   r.Reference,
		Amount:      amount,
	}, nil
}

// OutflowRequest is the body of the expense, labor payment and purchase
// shortcuts.
type OutflowRequest struct {
	AccountID   string `json:"account_id"`
	Description string `json:"description"`
	Category    string `json:"category,omitempty"`
	Reference   string `json:"reference,omitempty"`
	Amount      string `json:"amount"`
}

// ToUseCaseInput converts to use case input for actor. An empty account
// defaults to the actor's own account.
func (r *OutflowRequest) ToUseCaseInput(actor string) (usecase.OutflowInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.OutflowInput{}, err
	}

	accountID := r.AccountID
	if accountID == "" {
		accountID = actor
	}

	return usecase.OutflowInput{
		AccountID:   accountID,
		Actor:       actor,
		Description: r.Description,
		Category:    r.Category,
		Reference:   r.Reference,
		Amount:      amount,
	}, nil
}

// ProposeTransferRequest represents a request to propose a transfer.
type ProposeTransferRequest struct {
	FromAccountID string `json:"from_account_id"`
	ToAccountID   string `json:"to_account_id"`
	Reason        string `json:"reason"`
	Amount        string `json:"amount"`
}

// ToUseCaseInput converts to use case input for actor. An empty source
// account defaults to the actor's own account.
func (r *ProposeTransferRequest) ToUseCaseInput(actor string) (usecase.ProposeTransferInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.ProposeTransferInput{}, err
	}

	from := r.FromAccountID
	if from == "" {
		from = actor
	}

	return usecase.ProposeTransferInput{
		FromAccountID: from,
		ToAccountID:   r.ToAccountID,
		Reason:        r.Reason,
		Actor:         actor,
		Amount:        amount,
	}, nil
}

// SaleItemRequest is one line of a sale.
type SaleItemRequest struct {
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
}

// CreateSaleRequest represents a request to record a sale.
type CreateSaleRequest struct {
	CustomerRef string            `json:"customer_ref"`
	CollectedBy string            `json:"collected_by,omitempty"`
	Notes       string            `json:"notes,omitempty"`
	PaymentType string            `json:"payment_type"`
	Discount    string            `json:"discount,omitempty"`
	Items       []SaleItemRequest `json:"items"`
}

// ToUseCaseInput converts to use case input for actor. The collector
// defaults to the actor.
func (r *CreateSaleRequest) ToUseCaseInput(actor string) (usecase.CreateSaleInput, error) {
	discount := decimal.Zero
	if r.Discount != "" {
		d, err := parseAmount("discount", r.Discount)
		if err != nil {
			return usecase.CreateSaleInput{}, err
		}
		discount = d
	}

	items := make([]domain.SaleItem, len(r.Items))
	for i, item := range r.Items {
		qty, err := parseAmount(fmt.Sprintf("items[%d].quantity", i), item.Quantity)
		if err != nil {
			return usecase.CreateSaleInput{}, err
		}
		price, err := parseAmount(fmt.Sprintf("items[%d].unit_price", i), item.UnitPrice)
		if err != nil {
			return usecase.CreateSaleInput{}, err
		}
		items[i] = domain.SaleItem{
			ProductName: item.ProductName,
			Quantity:    qty,
			UnitPrice:   price,
		}
	}

	collector := r.CollectedBy
	if collector == "" {
		collector = actor
	}

	return usecase.CreateSaleInput{
		Actor:       actor,
		CustomerRef: r.CustomerRef,
		CollectedBy: collector,
		Notes:       r.Notes,
		PaymentType: domain.PaymentType(r.PaymentType),
		Items:       items,
		Discount:    discount,
	}, nil
}

// SettleCreditRequest represents a payment received against a credit sale.
type SettleCreditRequest struct {
	CollectedBy string `json:"collected_by,omitempty"`
	Amount      string `json:"amount"`
}

// ToUseCaseInput converts to use case input for actor.
func (r *SettleCreditRequest) ToUseCaseInput(saleID, actor string) (usecase.SettleCreditInput, error) {
	amount, err := parseAmount("amount", r.Amount)
	if err != nil {
		return usecase.SettleCreditInput{}, err
	}

	collector := r.CollectedBy
	if collector == "" {
		collector = actor
	}

	return usecase.SettleCreditInput{
		Actor:       actor,
		SaleID:      saleID,
		CollectedBy: collector,
		Amount:      amount,
	}, nil
}

// WindowQuery is the parsed form of the kind/from/to query parameters
// shared by the entry and aggregate endpoints.
type WindowQuery struct {
	From  *time.Time
	To    *time.Time
	Kinds []domain.EntryKind
}

// ParseWindowQuery parses repeated or comma separated kinds and RFC3339
// bounds.
func ParseWindowQuery(kinds []string, from, to string) (WindowQuery, error) {
	var q WindowQuery

	for _, k := range kinds {
		kind, err := domain.ParseEntryKind(k)
		if err != nil {
			return WindowQuery{}, err
		}
		q.Kinds = append(q.Kinds, kind)
	}

	if from != "" {
		t, err := time.Parse(time.RFC3339, from)
		if err != nil {
			return WindowQuery{}, fmt.Errorf("%w: from must be RFC3339", domain.ErrValidation)
		}
		q.From = &t
	}
	if to != "" {
		t, err := time.Parse(time.RFC3339, to)
		if err != nil {
			return WindowQuery{}, fmt.Errorf("%w: to must be RFC3339", domain.ErrValidation)
		}
		q.To = &t
	}

	return q, nil
}
