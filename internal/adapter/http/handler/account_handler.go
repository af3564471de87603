package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// AccountHandler handles internal account HTTP requests.
type AccountHandler struct {
	registryUC *usecase.RegistryUseCase
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(registryUC *usecase.RegistryUseCase) *AccountHandler {
	return &AccountHandler{registryUC: registryUC}
}

// Get retrieves an account by code.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", nil)
		return
	}

	account, err := h.registryUC.GetAccount(r.Context(), code)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get account", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountFromDomain(account))
}

// GetBalance reads one currency balance of an account.
func (h *AccountHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing account code", nil)
		return
	}

	currency := domain.Currency(r.URL.Query().Get("currency"))
	if currency == "" {
		currency = domain.CurrencySYP
	}

	balance, err := h.registryUC.GetBalance(r.Context(), code, currency)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get balance", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"code":     code,
		"currency": string(currency),
		"balance":  balance,
	})
}

// List lists accounts with their balances.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts, err := h.registryUC.ListAccounts(r.Context(), usecase.ListAccountsInput{
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list accounts", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.AccountsFromDomain(accounts))
}
