package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/domain"
)

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeError writes an error response with a bilingual message when one
// is attached to the error.
func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := dto.ErrorResponse{Error: message}
	if err != nil {
		resp.Message = err.Error()
		resp.MessageAr = domain.ArabicMessage(err)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(resp)
}

// mapDomainError maps domain errors to HTTP status codes.
func mapDomainError(err error) int {
	switch {
	case errors.Is(err, domain.ErrAccountNotFound),
		errors.Is(err, domain.ErrEntryNotFound),
		errors.Is(err, domain.ErrTransactionNotFound),
		errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrAgentNotFound),
		errors.Is(err, domain.ErrMerchantNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrAlreadyReversed),
		errors.Is(err, domain.ErrNotReversible):
		return http.StatusConflict
	case errors.Is(err, domain.ErrEmptyEntry),
		errors.Is(err, domain.ErrMissingAccountCode),
		errors.Is(err, domain.ErrNegativeLineAmount),
		errors.Is(err, domain.ErrUnbalancedEntry),
		errors.Is(err, domain.ErrUnsupportedCurrency),
		errors.Is(err, domain.ErrInvalidAmount),
		errors.Is(err, domain.ErrAmountOutOfBounds),
		errors.Is(err, domain.ErrSameParty),
		errors.Is(err, domain.ErrInsufficientBalance),
		errors.Is(err, domain.ErrInsufficientAgentCredit),
		errors.Is(err, domain.ErrInsufficientAgentCash),
		errors.Is(err, domain.ErrInsufficientFrozen):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
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
