package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
	"github.com/iho/cashledger/internal/usecase"
)

// TransferService defines the behavior needed by TransferHandler.
type TransferService interface {
	Propose(ctx context.Context, input usecase.ProposeTransferInput) (*domain.TransferRequest, error)
	Approve(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error)
	Reject(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error)
	GetTransfer(ctx context.Context, id string) (*domain.TransferRequest, error)
	ListTransfersByAccount(ctx context.Context, input usecase.ListTransfersByAccountInput) ([]*domain.TransferRequest, error)
}

// TransferHandler handles transfer request HTTP requests.
type TransferHandler struct {
	transferUC TransferService
}

// NewTransferHandler creates a new TransferHandler.
func NewTransferHandler(transferUC TransferService) *TransferHandler {
	return &TransferHandler{transferUC: transferUC}
}

// Propose creates a pending transfer request from the actor's account.
func (h *TransferHandler) Propose(w http.ResponseWriter, r *http.Request) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	var req dto.ProposeTransferRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	input, err := req.ToUseCaseInput(actor)
	if err != nil {
		writeDomainError(w, "invalid transfer", err)
		return
	}

	transfer, err := h.transferUC.Propose(r.Context(), input)
	if err != nil {
		writeDomainError(w, "failed to propose transfer", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.TransferFromDomain(transfer))
}

// Approve executes a pending request on behalf of its recipient.
func (h *TransferHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "approve", h.transferUC.Approve)
}

// Reject closes a pending request without moving money.
func (h *TransferHandler) Reject(w http.ResponseWriter, r *http.Request) {
	h.decide(w, r, "reject", h.transferUC.Reject)
}

func (h *TransferHandler) decide(
	w http.ResponseWriter,
	r *http.Request,
	verb string,
	decide func(ctx context.Context, requestID, actor string) (*domain.TransferRequest, error),
) {
	actor, ok := requireActor(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := decide(r.Context(), id, actor)
	if err != nil {
		writeDomainError(w, "failed to "+verb+" transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// Get retrieves a transfer request by ID.
func (h *TransferHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transfer ID", "")
		return
	}

	transfer, err := h.transferUC.GetTransfer(r.Context(), id)
	if err != nil {
		writeDomainError(w, "failed to get transfer", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransferFromDomain(transfer))
}

// ListByAccount lists transfer requests touching an account.
func (h *TransferHandler) ListByAccount(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "id")
	if accountID == "" {
		writeError(w, http.StatusBadRequest, "missing account ID", "")
		return
	}

	q := r.URL.Query()
	transfers, err := h.transferUC.ListTransfersByAccount(r.Context(), usecase.ListTransfersByAccountInput{
		AccountID: accountID,
		Status:    domain.TransferStatus(q.Get("status")),
		Direction: domain.TransferDirection(q.Get("direction")),
		Limit:     parseIntQuery(r, "limit", 20),
		Offset:    parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeDomainError(w, "failed to list transfers", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransfersFromDomain(transfers))
}
