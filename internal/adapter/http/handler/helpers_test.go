package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

func TestParseIntQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/accounts?limit=50", nil)
	if got := parseIntQuery(req, "limit", 10); got != 50 {
		t.Fatalf("expected limit=50, got %d", got)
	}

	req = httptest.NewRequest(http.MethodGet, "/accounts?limit=invalid", nil)
	if got := parseIntQuery(req, "limit", 10); got != 10 {
		t.Fatalf("expected fallback to default, got %d", got)
	}

	req.URL = &url.URL{RawQuery: ""}
	if got := parseIntQuery(req, "limit", 25); got != 25 {
		t.Fatalf("expected default when missing, got %d", got)
	}
}

func TestParseListQuery(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/x?kind=expense,purchase&kind=labor_payment&kind=", nil)

	got := parseListQuery(req, "kind")
	if len(got) != 3 || got[0] != "expense" || got[2] != "labor_payment" {
		t.Fatalf("unexpected kinds: %v", got)
	}
}

func TestMapDomainError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"invalid amount", domain.ErrInvalidAmount, http.StatusBadRequest},
		{"same account", domain.ErrSameAccount, http.StatusBadRequest},
		{"over settlement", domain.ErrOverSettlement, http.StatusBadRequest},
		{"transfer kind", domain.ErrTransferKindNotRecordable, http.StatusBadRequest},
		{"insufficient balance", domain.ErrInsufficientBalance, http.StatusUnprocessableEntity},
		{"account not found", domain.ErrAccountNotFound, http.StatusNotFound},
		{"transfer not found", domain.ErrTransferNotFound, http.StatusNotFound},
		{"sale not found", domain.ErrSaleNotFound, http.StatusNotFound},
		{"not recipient", domain.ErrNotTransferRecipient, http.StatusForbidden},
		{"not owner", domain.ErrNotAccountOwner, http.StatusForbidden},
		{"already decided", domain.ErrTransferAlreadyDecided, http.StatusConflict},
		{"wrapped decided", fmt.Errorf("approve: %w", domain.ErrTransferAlreadyDecided), http.StatusConflict},
		{"busy", domain.ErrLedgerBusy, http.StatusServiceUnavailable},
		{"sequence", domain.ErrSequenceUnavailable, http.StatusServiceUnavailable},
		{"expired token", domain.ErrExpiredToken, http.StatusUnauthorized},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := mapDomainError(tt.err); got != tt.expected {
				t.Fatalf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestWriteDomainError_BusySetsRetryAfter(t *testing.T) {
	rr := httptest.NewRecorder()

	writeDomainError(rr, "failed", fmt.Errorf("%w: %v", domain.ErrLedgerBusy, "conflict"))

	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestWriteDomainError_HidesInternalDetails(t *testing.T) {
	rr := httptest.NewRecorder()

	writeDomainError(rr, "failed", errors.New("pq: password authentication failed"))

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Message != "" {
		t.Fatalf("expected no details for internal errors, got %q", resp.Message)
	}
}

func TestWriteJSON(t *testing.T) {
	rr := httptest.NewRecorder()
	payload := map[string]string{"status": "ok"}

	writeJSON(rr, http.StatusCreated, payload)

	if rr.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rr.Code)
	}

	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Fatalf("expected content-type application/json, got %s", ct)
	}

	var decoded map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &decoded); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if decoded["status"] != "ok" {
		t.Fatalf("expected payload to round-trip, got %+v", decoded)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()

	writeError(rr, http.StatusBadRequest, "bad request", "detail")

	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}

	var resp dto.ErrorResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if resp.Error != "bad request" || resp.Message != "detail" {
		t.Fatalf("expected error message to propagate, got %+v", resp)
	}
}
