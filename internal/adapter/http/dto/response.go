package dto

import (
	"time"

	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// AccountResponse represents an account in API responses.
type AccountResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Balance   string    `json:"balance"`
	Version   int64     `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AccountFromDomain converts domain account to response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	return &AccountResponse{
		ID:        a.ID,
		Name:      a.Name,
		Balance:   a.Balance.String(),
		Version:   a.Version,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ListAccountsResponse wraps a page of accounts.
type ListAccountsResponse struct {
	Accounts []*AccountResponse `json:"accounts"`
	Total    int64              `json:"total"`
}

// BalanceResponse is the recorded balance of one account.
type BalanceResponse struct {
	AccountID string `json:"account_id"`
	Balance   string `json:"balance"`
	Version   int64  `json:"version"`
}

// EntryResponse represents an entry in API responses.
type EntryResponse struct {
	ID                     string    `json:"id"`
	DocumentNumber         string    `json:"document_number"`
	Kind                   string    `json:"kind"`
	AccountID              string    `json:"account_id"`
	Actor                  string    `json:"actor"`
	Description            string    `json:"description"`
	Category               string    `json:"category,omitempty"`
	Reference              string    `json:"reference,omitempty"`
	Amount                 string    `json:"amount"`
	SignedAmount           string    `json:"signed_amount"`
	AccountPreviousBalance string    `json:"account_previous_balance"`
	AccountCurrentBalance  string    `json:"account_current_balance"`
	AccountVersion         int64     `json:"account_version"`
	OccurredAt             time.Time `json:"occurred_at"`
}

// EntryFromDomain converts domain entry to response.
func EntryFromDomain(e *domain.Entry) *EntryResponse {
	return &EntryResponse{
		ID:                     e.ID,
		DocumentNumber:         e.DocumentNumber,
		Kind:                   string(e.Kind),
		AccountID:              e.AccountID,
		Actor:                  e.Actor,
		Description:            e.Description,
		Category:               e.Category,
		Reference:              e.Reference,
		Amount:                 e.Amount.String(),
		SignedAmount:           e.SignedAmount().String(),
		AccountPreviousBalance: e.AccountPreviousBalance.String(),
		AccountCurrentBalance:  e.AccountCurrentBalance.String(),
		AccountVersion:         e.AccountVersion,
		OccurredAt:             e.OccurredAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.Entry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// TransferResponse represents a transfer request in API responses.
type TransferResponse struct {
	ID             string     `json:"id"`
	FromAccountID  string     `json:"from_account_id"`
	ToAccountID    string     `json:"to_account_id"`
	Amount         string     `json:"amount"`
	Reason         string     `json:"reason"`
	Status         string     `json:"status"`
	DocumentNumber string     `json:"document_number,omitempty"`
	DecidedBy      string     `json:"decided_by,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
}

// TransferFromDomain converts domain transfer request to response.
func TransferFromDomain(t *domain.TransferRequest) *TransferResponse {
	return &TransferResponse{
		ID:             t.ID,
		FromAccountID:  t.FromAccountID,
		ToAccountID:    t.ToAccountID,
		Amount:         t.Amount.String(),
		Reason:         t.Reason,
		Status:         string(t.Status),
		DocumentNumber: t.DocumentNumber,
		DecidedBy:      t.DecidedBy,
		CreatedAt:      t.CreatedAt,
		DecidedAt:      t.DecidedAt,
	}
}

// TransfersFromDomain converts domain transfer requests to responses.
func TransfersFromDomain(transfers []*domain.TransferRequest) []*TransferResponse {
	result := make([]*TransferResponse, len(transfers))
	for i, t := range transfers {
		result[i] = TransferFromDomain(t)
	}
	return result
}

// SaleItemResponse is one line of a sale.
type SaleItemResponse struct {
	ProductName string `json:"product_name"`
	Quantity    string `json:"quantity"`
	UnitPrice   string `json:"unit_price"`
	Total       string `json:"total"`
}

// SaleResponse represents a sale in API responses.
type SaleResponse struct {
	ID          string             `json:"id"`
	Number      string             `json:"number"`
	CustomerRef string             `json:"customer_ref"`
	CollectedBy string             `json:"collected_by"`
	Notes       string             `json:"notes,omitempty"`
	PaymentType string             `json:"payment_type"`
	Status      string             `json:"status"`
	Items       []SaleItemResponse `json:"items"`
	Subtotal    string             `json:"subtotal"`
	Discount    string             `json:"discount"`
	Total       string             `json:"total"`
	PaidAmount  string             `json:"paid_amount"`
	Outstanding string             `json:"outstanding"`
	CreatedAt   time.Time          `json:"created_at"`
}

// SaleFromDomain converts domain sale to response.
func SaleFromDomain(s *domain.Sale) *SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ProductName: item.ProductName,
			Quantity:    item.Quantity.String(),
			UnitPrice:   item.UnitPrice.String(),
			Total:       item.Total.String(),
		}
	}

	return &SaleResponse{
		ID:          s.ID,
		Number:      s.Number,
		CustomerRef: s.CustomerRef,
		CollectedBy: s.CollectedBy,
		Notes:       s.Notes,
		PaymentType: string(s.PaymentType),
		Status:      string(s.Status),
		Items:       items,
		Subtotal:    s.Subtotal.String(),
		Discount:    s.Discount.String(),
		Total:       s.Total.String(),
		PaidAmount:  s.PaidAmount.String(),
		Outstanding: s.Outstanding().String(),
		CreatedAt:   s.CreatedAt,
	}
}

// SaleResultResponse is a sale plus the entry it produced, if any.
type SaleResultResponse struct {
	Sale  *SaleResponse  `json:"sale"`
	Entry *EntryResponse `json:"entry,omitempty"`
}

// SaleResultFromUseCase converts a sale result to response.
func SaleResultFromUseCase(r *usecase.SaleResult) *SaleResultResponse {
	resp := &SaleResultResponse{Sale: SaleFromDomain(r.Sale)}
	if r.Entry != nil {
		resp.Entry = EntryFromDomain(r.Entry)
	}
	return resp
}

// TotalsResponse is a windowed aggregate.
type TotalsResponse struct {
	AccountID string `json:"account_id,omitempty"`
	Inflow    string `json:"inflow"`
	Outflow   string `json:"outflow"`
	Net       string `json:"net"`
	Count     int64  `json:"count"`
}

// TotalsFromDomain converts domain totals to response.
func TotalsFromDomain(accountID string, t *domain.Totals) *TotalsResponse {
	return &TotalsResponse{
		AccountID: accountID,
		Inflow:    t.Inflow.String(),
		Outflow:   t.Outflow.String(),
		Net:       t.Net.String(),
		Count:     t.Count,
	}
}

// PeriodTotalsResponse is one bucket of a period breakdown.
type PeriodTotalsResponse struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	TotalsResponse
}

// PeriodTotalsFromDomain converts period buckets to responses.
func PeriodTotalsFromDomain(periods []domain.PeriodTotals) []PeriodTotalsResponse {
	result := make([]PeriodTotalsResponse, len(periods))
	for i, p := range periods {
		result[i] = PeriodTotalsResponse{
			Start:          p.Start,
			End:            p.End,
			TotalsResponse: *TotalsFromDomain("", &p.Totals),
		}
	}
	return result
}

// CategoryTotalResponse is a per-category subtotal.
type CategoryTotalResponse struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Count    int64  `json:"count"`
}

// CategoryTotalsFromDomain converts category totals to responses.
func CategoryTotalsFromDomain(categories []domain.CategoryTotal) []CategoryTotalResponse {
	result := make([]CategoryTotalResponse, len(categories))
	for i, c := range categories {
		result[i] = CategoryTotalResponse{
			Category: c.Category,
			Amount:   c.Amount.String(),
			Count:    c.Count,
		}
	}
	return result
}

// ReconciliationResponse is the outcome of reconciling one account.
type ReconciliationResponse struct {
	AccountID         string    `json:"account_id"`
	RecordedBalance   string    `json:"recorded_balance"`
	CalculatedBalance string    `json:"calculated_balance"`
	Difference        string    `json:"difference"`
	IsReconciled      bool      `json:"is_reconciled"`
	LastChecked       time.Time `json:"last_checked"`
}

// ReconciliationFromUseCase converts a reconciliation result to response.
func ReconciliationFromUseCase(r *usecase.ReconciliationResult) *ReconciliationResponse {
	return &ReconciliationResponse{
		AccountID:         r.AccountID,
		RecordedBalance:   r.RecordedBalance.String(),
		CalculatedBalance: r.CalculatedBalance.String(),
		Difference:        r.Difference.String(),
		IsReconciled:      r.IsReconciled,
		LastChecked:       r.LastChecked,
	}
}

// ReconciliationReportResponse is the ledger-wide reconciliation report.
type ReconciliationReportResponse struct {
	TotalAccounts      int                       `json:"total_accounts"`
	ReconciledAccounts int                       `json:"reconciled_accounts"`
	Discrepancies      []*ReconciliationResponse `json:"discrepancies"`
	CheckedAt          time.Time                 `json:"checked_at"`
}

// ReconciliationReportFromUseCase converts a full report to response.
func ReconciliationReportFromUseCase(r *usecase.ReconciliationReport) *ReconciliationReportResponse {
	drift := make([]*ReconciliationResponse, len(r.Discrepancies))
	for i, d := range r.Discrepancies {
		drift[i] = ReconciliationFromUseCase(d)
	}
	return &ReconciliationReportResponse{
		TotalAccounts:      r.TotalAccounts,
		ReconciledAccounts: r.ReconciledAccounts,
		Discrepancies:      drift,
		CheckedAt:          r.CheckedAt,
	}
}

// DashboardResponse is a partner's landing view.
type DashboardResponse struct {
	Account          *AccountResponse    `json:"account"`
	Partners         []*AccountResponse  `json:"partners"`
	PendingApprovals []*TransferResponse `json:"pending_approvals"`
	RecentEntries    int64               `json:"recent_entries"`
}

// DashboardFromUseCase converts a dashboard to response.
func DashboardFromUseCase(d *usecase.Dashboard) *DashboardResponse {
	return &DashboardResponse{
		Account:          AccountFromDomain(d.Account),
		Partners:         AccountsFromDomain(d.Partners),
		PendingApprovals: TransfersFromDomain(d.PendingApprovals),
		RecentEntries:    d.RecentEntries,
	}
}

// DocumentNumberResponse is a freshly minted document number.
type DocumentNumberResponse struct {
	Kind   string `json:"kind"`
	Number string `json:"number"`
}

// AuditLogResponse represents one audit trail row.
type AuditLogResponse struct {
	ID           string         `json:"id"`
	Actor        string         `json:"actor"`
	Action       string         `json:"action"`
	ResourceType string         `json:"resource_type"`
	ResourceID   string         `json:"resource_id"`
	RequestID    string         `json:"request_id,omitempty"`
	BeforeState  map[string]any `json:"before_state,omitempty"`
	AfterState   map[string]any `json:"after_state,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// AuditLogsFromDomain converts audit rows to responses.
func AuditLogsFromDomain(logs []*domain.AuditLog) []*AuditLogResponse {
	result := make([]*AuditLogResponse, len(logs))
	for i, l := range logs {
		result[i] = &AuditLogResponse{
			ID:           l.ID,
			Actor:        l.Actor,
			Action:       l.Action,
			ResourceType: l.ResourceType,
			ResourceID:   l.ResourceID,
			RequestID:    l.RequestID,
			BeforeState:  l.BeforeState,
			AfterState:   l.AfterState,
			CreatedAt:    l.CreatedAt,
		}
	}
	return result
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
