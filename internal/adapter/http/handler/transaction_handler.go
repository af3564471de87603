package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// TransactionHandler handles money movement HTTP requests.
type TransactionHandler struct {
	transactionUC *usecase.TransactionUseCase
	reversalUC    *usecase.ReversalUseCase
}

// NewTransactionHandler creates a new TransactionHandler.
func NewTransactionHandler(transactionUC *usecase.TransactionUseCase, reversalUC *usecase.ReversalUseCase) *TransactionHandler {
	return &TransactionHandler{
		transactionUC: transactionUC,
		reversalUC:    reversalUC,
	}
}

func (h *TransactionHandler) writeResult(w http.ResponseWriter, result *usecase.TransactionResult) {
	status := http.StatusCreated
	if !result.Success {
		status = mapDomainError(result.Err)
	}

	writeJSON(w, status, dto.TransactionResultFromUseCase(result))
}

// Deposit processes an agent-funded cash deposit.
func (h *TransactionHandler) Deposit(w http.ResponseWriter, r *http.Request) {
	var req dto.DepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.transactionUC.ProcessDeposit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to process deposit", err)
		return
	}

	h.writeResult(w, result)
}

// Withdraw processes a cash withdrawal via an agent.
func (h *TransactionHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	var req dto.WithdrawRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.transactionUC.ProcessWithdrawal(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to process withdrawal", err)
		return
	}

	h.writeResult(w, result)
}

// Transfer processes a wallet-to-wallet transfer.
func (h *TransactionHandler) Transfer(w http.ResponseWriter, r *http.Request) {
	var req dto.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.transactionUC.ProcessTransfer(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to process transfer", err)
		return
	}

	h.writeResult(w, result)
}

// QRPayment processes a payment to a merchant.
func (h *TransactionHandler) QRPayment(w http.ResponseWriter, r *http.Request) {
	var req dto.QRPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.transactionUC.ProcessQRPayment(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to process payment", err)
		return
	}

	h.writeResult(w, result)
}

// IssueAgentCredit funds an agent credit line from the system reserve.
func (h *TransactionHandler) IssueAgentCredit(w http.ResponseWriter, r *http.Request) {
	var req dto.IssueAgentCreditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.transactionUC.IssueAgentCredit(r.Context(), req.ToUseCaseInput())
	if err != nil {
		writeError(w, mapDomainError(err), "failed to issue agent credit", err)
		return
	}

	h.writeResult(w, result)
}

// Get retrieves a transaction by ID.
func (h *TransactionHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", nil)
		return
	}

	transaction, err := h.transactionUC.GetTransaction(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// GetByReference retrieves a transaction by reference number.
func (h *TransactionHandler) GetByReference(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if ref == "" {
		writeError(w, http.StatusBadRequest, "missing reference number", nil)
		return
	}

	transaction, err := h.transactionUC.GetTransactionByReference(r.Context(), ref)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get transaction", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionFromDomain(transaction))
}

// ListByUser lists transactions a user sent or received.
func (h *TransactionHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "id")
	if userID == "" {
		writeError(w, http.StatusBadRequest, "missing user ID", nil)
		return
	}

	transactions, err := h.transactionUC.ListTransactionsByUser(r.Context(), usecase.ListTransactionsByUserInput{
		UserID: userID,
		Limit:  parseIntQuery(r, "limit", 20),
		Offset: parseIntQuery(r, "offset", 0),
	})
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list transactions", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TransactionsFromDomain(transactions))
}

// Reverse creates the compensating transaction for a completed one.
func (h *TransactionHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	transactionID := chi.URLParam(r, "id")
	if transactionID == "" {
		writeError(w, http.StatusBadRequest, "missing transaction ID", nil)
		return
	}

	var req dto.ReverseTransactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	result, err := h.reversalUC.Reverse(r.Context(), req.ToUseCaseInput(transactionID))
	if err != nil {
		writeError(w, mapDomainError(err), "failed to reverse transaction", err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.ReverseResultResponse{
		ReversalTransactionID: result.ReversalTransactionID,
		LedgerEntryID:         result.LedgerEntryID,
	})
}

// Freeze moves part of a wallet balance into the frozen bucket.
func (h *TransactionHandler) Freeze(w http.ResponseWriter, r *http.Request) {
	h.freeze(w, r, h.transactionUC.FreezeFunds)
}

// Unfreeze releases previously frozen funds.
func (h *TransactionHandler) Unfreeze(w http.ResponseWriter, r *http.Request) {
	h.freeze(w, r, h.transactionUC.UnfreezeFunds)
}

func (h *TransactionHandler) freeze(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, userID string, currency domain.Currency, amount decimal.Decimal) error) {
	var req dto.FreezeFundsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	if err := op(r.Context(), req.UserID, domain.Currency(req.Currency), req.Amount); err != nil {
		writeError(w, mapDomainError(err), "failed to update frozen funds", err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
