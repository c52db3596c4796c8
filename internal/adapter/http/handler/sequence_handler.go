package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

// SequenceService mints document numbers.
type SequenceService interface {
	Next(ctx context.Context, kind domain.DocumentKind) (string, error)
}

// SequenceHandler mints numbers for documents that live outside the ledger,
// such as production batches and labor entries.
type SequenceHandler struct {
	sequenceUC SequenceService
}

// NewSequenceHandler creates a new SequenceHandler.
func NewSequenceHandler(sequenceUC SequenceService) *SequenceHandler {
	return &SequenceHandler{sequenceUC: sequenceUC}
}

// Next returns the next number for the kind in the path.
func (h *SequenceHandler) Next(w http.ResponseWriter, r *http.Request) {
	kind, err := domain.ParseDocumentKind(chi.URLParam(r, "kind"))
	if err != nil {
		writeDomainError(w, "invalid document kind", err)
		return
	}

	number, err := h.sequenceUC.Next(r.Context(), kind)
	if err != nil {
		writeDomainError(w, "failed to mint document number", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.DocumentNumberResponse{
		Kind:   string(kind),
		Number: number,
	})
}
