package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

type reconciliationServiceStub struct {
	accountFn    func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	allFn        func(ctx context.Context) (*usecase.ReconciliationReport, error)
	totalsFn     func(ctx context.Context, input usecase.WindowedTotalInput) (*domain.Totals, error)
	periodsFn    func(ctx context.Context, input usecase.PeriodTotalsInput) ([]domain.PeriodTotals, error)
	categoriesFn func(ctx context.Context, input usecase.WindowedTotalInput) ([]domain.CategoryTotal, error)
}

func (s *reconciliationServiceStub) ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
	return s.accountFn(ctx, accountID)
}

func (s *reconciliationServiceStub) ReconcileAll(ctx context.Context) (*usecase.ReconciliationReport, error) {
	return s.allFn(ctx)
}

func (s *reconciliationServiceStub) WindowedTotal(ctx context.Context, input usecase.WindowedTotalInput) (*domain.Totals, error) {
	return s.totalsFn(ctx, input)
}

func (s *reconciliationServiceStub) PeriodTotals(ctx context.Context, input usecase.PeriodTotalsInput) ([]domain.PeriodTotals, error) {
	return s.periodsFn(ctx, input)
}

func (s *reconciliationServiceStub) CategoryTotals(ctx context.Context, input usecase.WindowedTotalInput) ([]domain.CategoryTotal, error) {
	return s.categoriesFn(ctx, input)
}

func TestLedgerHandler_ReconcileAccount_DriftIsConflict(t *testing.T) {
	handler := NewLedgerHandler(&reconciliationServiceStub{
		accountFn: func(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error) {
			return &usecase.ReconciliationResult{
				AccountID:         accountID,
				RecordedBalance:   decimal.NewFromInt(1000),
				CalculatedBalance: decimal.NewFromInt(975),
				Difference:        decimal.NewFromInt(25),
			}, domain.ErrLedgerDrift
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/x/reconciliation", nil), "id", "x")
	rec := httptest.NewRecorder()

	handler.ReconcileAccount(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp dto.ReconciliationResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Difference != "25" || resp.IsReconciled {
		t.Fatalf("unexpected result %+v", resp)
	}
}

func TestLedgerHandler_ReconcileAll_ReportsDriftWith200(t *testing.T) {
	handler := NewLedgerHandler(&reconciliationServiceStub{
		allFn: func(ctx context.Context) (*usecase.ReconciliationReport, error) {
			return &usecase.ReconciliationReport{
				TotalAccounts:      3,
				ReconciledAccounts: 2,
				Discrepancies:      []*usecase.ReconciliationResult{{AccountID: "z"}},
			}, nil
		},
	})

	rec := httptest.NewRecorder()
	handler.ReconcileAll(rec, httptest.NewRequest(http.MethodGet, "/ledger/reconciliation", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var resp dto.ReconciliationReportResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp.Discrepancies) != 1 || resp.Discrepancies[0].AccountID != "z" {
		t.Fatalf("unexpected report %+v", resp)
	}
}

func TestLedgerHandler_Totals(t *testing.T) {
	var captured usecase.WindowedTotalInput
	handler := NewLedgerHandler(&reconciliationServiceStub{
		totalsFn: func(ctx context.Context, input usecase.WindowedTotalInput) (*domain.Totals, error) {
			captured = input
			return &domain.Totals{Inflow: decimal.NewFromInt(1000), Outflow: decimal.NewFromInt(375), Net: decimal.NewFromInt(625), Count: 4}, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/x/totals?kind=expense", nil), "id", "x")
	rec := httptest.NewRecorder()

	handler.Totals(rec, req)

	if captured.AccountID != "x" || len(captured.Kinds) != 1 {
		t.Fatalf("unexpected input %+v", captured)
	}

	var resp dto.TotalsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Net != "625" || resp.Count != 4 {
		t.Fatalf("unexpected totals %+v", resp)
	}
}

func TestLedgerHandler_Periods_BadGranularity(t *testing.T) {
	handler := NewLedgerHandler(&reconciliationServiceStub{})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/x/totals/periods?granularity=year", nil), "id", "x")
	rec := httptest.NewRecorder()

	handler.Periods(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestLedgerHandler_Categories(t *testing.T) {
	handler := NewLedgerHandler(&reconciliationServiceStub{
		categoriesFn: func(ctx context.Context, input usecase.WindowedTotalInput) ([]domain.CategoryTotal, error) {
			return []domain.CategoryTotal{{Category: "rent", Amount: decimal.NewFromInt(300), Count: 1}}, nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/accounts/x/totals/categories", nil), "id", "x")
	rec := httptest.NewRecorder()

	handler.Categories(rec, req)

	var resp []dto.CategoryTotalResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if len(resp) != 1 || resp[0].Category != "rent" {
		t.Fatalf("unexpected categories %+v", resp)
	}
}
