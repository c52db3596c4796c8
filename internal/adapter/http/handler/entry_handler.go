package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// EntryService reads an account's ledger.
type EntryService interface {
	GetLedger(ctx context.Context, accountID string, filter domain.EntryFilter) ([]*domain.Entry, error)
}

// LedgerService records entries.
type LedgerService interface {
	Record(ctx context.Context, input usecase.RecordInput) (*domain.Entry, error)
	CreateExpense(ctx context.Context, input usecase.OutflowInput) (*domain.Entry, error)
	CreateLaborPayment(ctx context.Context, input usecase.OutflowInput) (*domain.Entry, error)
	CreatePurchase(ctx context.Context, input usecase.OutflowInput) (*domain.Entry, error)
}

// EntryHandler handles entry-related HTTP requests.
type EntryHandler struct {
	entryUC  EntryService
	ledgerUC LedgerService
}

// NewEntryHandler creates a new EntryHandler.
func NewEntryHandler(entryUC EntryService, ledgerUC LedgerService) *EntryHandler {
	return &EntryHandler{entryUC: entryUC, ledgerUC: ledgerUC}
}

// ListByAccount lists entries for an account, newest first.
func (h *EntryHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	window, ok := parseWindow(w, r)
	if !ok {
		return
	}

	entries, err := h.entryUC.GetLedger(r.Context(), accountID, domain.EntryFilter{
		From:   window.From,
		To:     window.To,
		Kinds:  window.Kinds,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list entries", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.EntriesFromDomain(entries))
}

// Record records an entry of any non-transfer kind.
func (h *EntryHandler) Record(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.RecordEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(actor)
	if err != nil {
		writeDomainError(w, "invalid entry", err)
		return
	}

	entry, err := h.ledgerUC.Record(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record entry", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}

// CreateExpense records an expense.
func (h *EntryHandler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	h.outflow(w, r, "expense", h.ledgerUC.CreateExpense)
}

// CreateLaborPayment records a wage payment.
func (h *EntryHandler) CreateLaborPayment(w http.ResponseWriter, r *http.Request) {
	h.outflow(w, r, "labor payment", h.ledgerUC.CreateLaborPayment)
}

// CreatePurchase records a raw material purchase.
func (h *EntryHandler) CreatePurchase(w http.ResponseWriter, r *http.Request) {
	h.outflow(w, r, "purchase", h.ledgerUC.CreatePurchase)
}

func (h *EntryHandler) outflow(
	w http.ResponseWriter,
	r *http.Request,
	what string,
	create func(context.Context, usecase.OutflowInput) (*domain.Entry, error),
) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.OutflowRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(actor)
	if err != nil {
		writeDomainError(w, "invalid "+what, err)
		return
	}

	entry, err := create(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to record "+what, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EntryFromDomain(entry))
}
