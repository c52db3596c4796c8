package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// SaleService defines the behavior needed by SaleHandler.
type SaleService interface {
	CreateSale(ctx context.Context, input usecase.CreateSaleInput) (*usecase.SaleResult, error)
	SettleCredit(ctx context.Context, input usecase.SettleCreditInput) (*usecase.SaleResult, error)
	GetSale(ctx context.Context, id string) (*domain.Sale, error)
}

// SaleHandler handles sale HTTP requests.
type SaleHandler struct {
	saleUC SaleService
}

// NewSaleHandler creates a new SaleHandler.
func NewSaleHandler(saleUC SaleService) *SaleHandler {
	return &SaleHandler{saleUC: saleUC}
}

// Create records a cash or credit sale.
func (h *SaleHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.CreateSaleRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(actor)
	if err != nil {
		writeDomainError(w, "invalid sale", err)
		return
	}

	result, err := h.saleUC.CreateSale(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to create sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SaleResultFromUseCase(result))
}

// Get retrieves a sale by ID.
func (h *SaleHandler) Get(w http.ResponseWriter, r *http.Request) {
	sale, err := h.saleUC.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeDomainError(w, "failed to get sale", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.SaleFromDomain(sale))
}

// Settle records a payment received against a credit sale.
func (h *SaleHandler) Settle(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.SettleCreditRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(chi.URLParam(r, "id"), actor)
	if err != nil {
		writeDomainError(w, "invalid settlement", err)
		return
	}

	result, err := h.saleUC.SettleCredit(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to settle sale", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.SaleResultFromUseCase(result))
}
