package handler

import (
	"net/http"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/usecase"
)

// VerifyHandler handles integrity verification HTTP requests.
type VerifyHandler struct {
	verifyUC *usecase.VerifyUseCase
}

// NewVerifyHandler creates a new VerifyHandler.
func NewVerifyHandler(verifyUC *usecase.VerifyUseCase) *VerifyHandler {
	return &VerifyHandler{verifyUC: verifyUC}
}

// SystemBalance runs the solvency check across all currencies.
func (h *VerifyHandler) SystemBalance(w http.ResponseWriter, r *http.Request) {
	report, err := h.verifyUC.VerifySystemBalance(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify system balance", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceReportFromUseCase(report))
}

// Chain walks the full hash chain and reports its integrity.
func (h *VerifyHandler) Chain(w http.ResponseWriter, r *http.Request) {
	report, err := h.verifyUC.VerifyChain(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to verify chain", err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ChainReportResponse{
		Valid:        report.Valid,
		EntriesTotal: report.EntriesTotal,
		BrokenAt:     report.BrokenAt,
	})
}
