package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// ReconciliationService projects balances from the ledger and aggregates it.
type ReconciliationService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
	ReconcileAll(ctx context.Context) (*usecase.ReconciliationReport, error)
	WindowedTotal(ctx context.Context, input usecase.WindowedTotalInput) (*domain.Totals, error)
	PeriodTotals(ctx context.Context, input usecase.PeriodTotalsInput) ([]domain.PeriodTotals, error)
	CategoryTotals(ctx context.Context, input usecase.WindowedTotalInput) ([]domain.CategoryTotal, error)
}

// LedgerHandler handles reconciliation and aggregate queries.
type LedgerHandler struct {
	reconUC ReconciliationService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(reconUC ReconciliationService) *LedgerHandler {
	return &LedgerHandler{reconUC: reconUC}
}

// ReconcileAll checks every account. Drift is listed in the body; the
// request itself still succeeds.
func (h *LedgerHandler) ReconcileAll(w http.ResponseWriter, r *http.Request) {
	report, err := h.reconUC.ReconcileAll(r.Context())
	if err != nil {
		writeDomainError(w, "failed to reconcile ledger", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ReconciliationReportFromUseCase(report))
}

// ReconcileAccount checks one account and answers 409 when it drifts.
func (h *LedgerHandler) ReconcileAccount(w http.ResponseWriter, r *http.Request) {
	result, err := h.reconUC.ReconcileAccount(r.Context(), chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, domain.ErrLedgerDrift) && result != nil:
		writeJSON(w, http.StatusConflict, dto.ReconciliationFromUseCase(result))
	case err != nil:
		writeDomainError(w, "failed to reconcile account", err)
	default:
		writeJSON(w, http.StatusOK, dto.ReconciliationFromUseCase(result))
	}
}

func windowInput(w http.ResponseWriter, r *http.Request) (usecase.WindowedTotalInput, bool) {
	window, ok := parseWindow(w, r)
	if !ok {
		return usecase.WindowedTotalInput{}, false
	}
	return usecase.WindowedTotalInput{
		AccountID: chi.URLParam(r, "id"),
		From:      window.From,
		To:        window.To,
		Kinds:     window.Kinds,
	}, true
}

// Totals returns inflow, outflow and net over a window.
func (h *LedgerHandler) Totals(w http.ResponseWriter, r *http.Request) {
	input, ok := windowInput(w, r)
	if !ok {
		return
	}

	totals, err := h.reconUC.WindowedTotal(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to compute totals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TotalsFromDomain(input.AccountID, totals))
}

// Periods breaks the window down by day, week or month.
func (h *LedgerHandler) Periods(w http.ResponseWriter, r *http.Request) {
	input, ok := windowInput(w, r)
	if !ok {
		return
	}

	granularity, err := domain.ParseGranularity(r.URL.Query().Get("granularity"))
	if err != nil {
		writeDomainError(w, "invalid granularity", err)
		return
	}

	periods, err := h.reconUC.PeriodTotals(r.Context(), usecase.PeriodTotalsInput{
		WindowedTotalInput: input,
		Granularity:        granularity,
	})
	if err != nil {
		writeDomainError(w, "failed to compute period totals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.PeriodTotalsFromDomain(periods))
}

// Categories returns per-category subtotals, largest first.
func (h *LedgerHandler) Categories(w http.ResponseWriter, r *http.Request) {
	input, ok := windowInput(w, r)
	if !ok {
		return
	}

	categories, err := h.reconUC.CategoryTotals(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to compute category totals", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.CategoryTotalsFromDomain(categories))
}
