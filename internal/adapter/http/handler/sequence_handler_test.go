package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

type sequenceServiceStub struct {
	nextFn func(ctx context.Context, kind domain.DocumentKind) (string, error)
}

func (s *sequenceServiceStub) Next(ctx context.Context, kind domain.DocumentKind) (string, error) {
	return s.nextFn(ctx, kind)
}

func TestSequenceHandler_Next(t *testing.T) {
	handler := NewSequenceHandler(&sequenceServiceStub{
		nextFn: func(ctx context.Context, kind domain.DocumentKind) (string, error) {
			return domain.FormatDocumentNumber(kind, 7), nil
		},
	})

	req := withURLParams(httptest.NewRequest(http.MethodPost, "/sequences/production/next", nil), "kind", "production")
	rec := httptest.NewRecorder()

	handler.Next(rec, req)

	var resp dto.DocumentNumberResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Number != "PROD-000007" {
		t.Fatalf("unexpected number %+v", resp)
	}
}

func TestSequenceHandler_Errors(t *testing.T) {
	tests := []struct {
		name       string
		kind       string
		err        error
		wantStatus int
	}{
		{"unknown kind", "receipt", nil, http.StatusBadRequest},
		{"store down", "labor-entry", domain.ErrSequenceUnavailable, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := NewSequenceHandler(&sequenceServiceStub{
				nextFn: func(ctx context.Context, kind domain.DocumentKind) (string, error) {
					return "", tt.err
				},
			})

			req := withURLParams(httptest.NewRequest(http.MethodPost, "/", nil), "kind", tt.kind)
			rec := httptest.NewRecorder()

			handler.Next(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d", tt.wantStatus, rec.Code)
			}
		})
	}
}
