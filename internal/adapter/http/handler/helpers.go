// Package handler exposes the ledger use cases over HTTP/JSON.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/iho/cashledger/internal/adapter/http/dto"
	"github.com/iho/cashledger/internal/domain"
)

// retryAfterSeconds is sent with 503 responses caused by lock contention.
const retryAfterSeconds = "1"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response.
func writeError(w http.ResponseWriter, status int, message, details string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(dto.ErrorResponse{
		Error:   message,
		Message: details,
	})
}

// writeDomainError maps err to a status and writes it. Internal errors are
// not echoed to the client.
func writeDomainError(w http.ResponseWriter, message string, err error) {
	status := mapDomainError(err)
	if errors.Is(err, domain.ErrLedgerBusy) {
		w.Header().Set("Retry-After", retryAfterSeconds)
	}

	details := err.Error()
	if status == http.StatusInternalServerError {
		details = ""
	}
	writeError(w, status, message, details)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrInsufficientBalance):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrTransferNotFound),
		errors.Is(err, domain.ErrSaleNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrNotTransferRecipient),
		errors.Is(err, domain.ErrNotAccountOwner):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrTransferAlreadyDecided),
		errors.Is(err, domain.ErrAccountExists),
		errors.Is(err, domain.ErrLedgerDrift):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLedgerBusy),
		errors.Is(err, domain.ErrSequenceUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrInvalidToken),
		errors.Is(err, domain.ErrExpiredToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

// decodeJSON decodes the request body into dst, writing a 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return false
	}
	return true
}

// requireActor returns the authenticated partner, writing a 401 when the
// request carries none.
func requireActor(w http.ResponseWriter, r *http.Request) (string, bool) {
	actor, ok := domain.ActorFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "missing actor", "authenticate or send X-Actor-ID")
		return "", false
	}
	return actor, true
}

// parseIntQuery parses an integer query parameter with a default value.
func parseIntQuery(r *http.Request, key string, defaultValue int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}
	return i
}

// parseListQuery collects a repeatable query parameter, also splitting
// comma separated values.
func parseListQuery(r *http.Request, key string) []string {
	var out []string
	for _, v := range r.URL.Query()[key] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

// parseWindow reads the kind/from/to parameters.
func parseWindow(w http.ResponseWriter, r *http.Request) (dto.WindowQuery, bool) {
	q := r.URL.Query()
	window, err := dto.ParseWindowQuery(parseListQuery(r, "kind"), q.Get("from"), q.Get("to"))
	if err != nil {
		writeDomainError(w, "invalid query", err)
		return dto.WindowQuery{}, false
	}
	return window, true
}
