package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// TransactionResultResponse is the synchronous outcome of a money movement.
type TransactionResultResponse struct {
	Success         bool   `json:"success"`
	TransactionID   string `json:"transaction_id,omitempty"`
	ReferenceNumber string `json:"reference_number,omitempty"`
	LedgerEntryID   string `json:"ledger_entry_id,omitempty"`
	Error           string `json:"error,omitempty"`
	ErrorAr         string `json:"error_ar,omitempty"`
}

// TransactionResultFromUseCase converts a use case result to a response.
func TransactionResultFromUseCase(r *usecase.TransactionResult) *TransactionResultResponse {
	return &TransactionResultResponse{
		Success:         r.Success,
		TransactionID:   r.TransactionID,
		ReferenceNumber: r.ReferenceNumber,
		LedgerEntryID:   r.LedgerEntryID,
		Error:           r.Error,
		ErrorAr:         r.ErrorAr,
	}
}

// TransactionResponse represents a transaction in API responses.
type TransactionResponse struct {
	ID              string          `json:"id"`
	ReferenceNumber string          `json:"reference_number"`
	Type            string          `json:"type"`
	Status          string          `json:"status"`
	SenderID        *string         `json:"sender_id,omitempty"`
	ReceiverID      *string         `json:"receiver_id,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	PlatformFee     decimal.Decimal `json:"platform_fee"`
	AgentFee        decimal.Decimal `json:"agent_fee"`
	TotalFee        decimal.Decimal `json:"total_fee"`
	NetAmount       decimal.Decimal `json:"net_amount"`
	Description     string          `json:"description,omitempty"`
	DescriptionAr   string          `json:"description_ar,omitempty"`
	LedgerEntryID   *string         `json:"ledger_entry_id,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// TransactionFromDomain converts a domain transaction to a response.
func TransactionFromDomain(t *domain.Transaction) *TransactionResponse {
	return &TransactionResponse{
		ID:              t.ID,
		ReferenceNumber: t.ReferenceNumber,
		Type:            string(t.Type),
		Status:          string(t.Status),
		SenderID:        t.SenderID,
		ReceiverID:      t.ReceiverID,
		Amount:          t.Amount,
		Currency:        string(t.Currency),
		PlatformFee:     t.PlatformFee,
		AgentFee:        t.AgentFee,
		TotalFee:        t.TotalFee,
		NetAmount:       t.NetAmount,
		Description:     t.Description,
		DescriptionAr:   t.DescriptionAr,
		LedgerEntryID:   t.LedgerEntryID,
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

// TransactionsFromDomain converts domain transactions to responses.
func TransactionsFromDomain(transactions []*domain.Transaction) []*TransactionResponse {
	result := make([]*TransactionResponse, len(transactions))
	for i, t := range transactions {
		result[i] = TransactionFromDomain(t)
	}
	return result
}

// EntryLineResponse is one leg of a ledger entry in API responses.
type EntryLineResponse struct {
	ID          string          `json:"id"`
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// EntryResponse represents a ledger entry in API responses.
type EntryResponse struct {
	ID            string              `json:"id"`
	EntryNumber   string              `json:"entry_number"`
	Description   string              `json:"description"`
	DescriptionAr string              `json:"description_ar,omitempty"`
	Currency      string              `json:"currency"`
	Hash          string              `json:"hash"`
	PreviousHash  string              `json:"previous_hash"`
	TotalDebit    decimal.Decimal     `json:"total_debit"`
	TotalCredit   decimal.Decimal     `json:"total_credit"`
	CreatedBy     string              `json:"created_by"`
	TransactionID *string             `json:"transaction_id,omitempty"`
	Lines         []EntryLineResponse `json:"lines"`
	CreatedAt     time.Time           `json:"created_at"`
}

// EntryFromDomain converts a domain entry to a response.
func EntryFromDomain(e *domain.LedgerEntry) *EntryResponse {
	lines := make([]EntryLineResponse, len(e.Lines))
	for i, l := range e.Lines {
		lines[i] = EntryLineResponse{
			ID:          l.ID,
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}

	return &EntryResponse{
		ID:            e.ID,
		EntryNumber:   e.EntryNumber,
		Description:   e.Description,
		DescriptionAr: e.DescriptionAr,
		Currency:      string(e.Currency),
		Hash:          e.Hash,
		PreviousHash:  e.PreviousHash,
		TotalDebit:    e.TotalDebit,
		TotalCredit:   e.TotalCredit,
		CreatedBy:     e.CreatedBy,
		TransactionID: e.TransactionID,
		Lines:         lines,
		CreatedAt:     e.CreatedAt,
	}
}

// EntriesFromDomain converts domain entries to responses.
func EntriesFromDomain(entries []*domain.LedgerEntry) []*EntryResponse {
	result := make([]*EntryResponse, len(entries))
	for i, e := range entries {
		result[i] = EntryFromDomain(e)
	}
	return result
}

// AccountResponse represents an internal account in API responses.
type AccountResponse struct {
	ID        string                     `json:"id"`
	Code      string                     `json:"code"`
	Name      string                     `json:"name"`
	NameAr    string                     `json:"name_ar,omitempty"`
	Type      string                     `json:"type"`
	IsSystem  bool                       `json:"is_system"`
	Balances  map[string]decimal.Decimal `json:"balances"`
	CreatedAt time.Time                  `json:"created_at"`
	UpdatedAt time.Time                  `json:"updated_at"`
}

// AccountFromDomain converts a domain account to a response.
func AccountFromDomain(a *domain.Account) *AccountResponse {
	balances := make(map[string]decimal.Decimal, len(a.Balances))
	for currency, balance := range a.Balances {
		balances[string(currency)] = balance
	}

	return &AccountResponse{
		ID:        a.ID,
		Code:      a.Code,
		Name:      a.Name,
		NameAr:    a.NameAr,
		Type:      string(a.Type),
		IsSystem:  a.IsSystem,
		Balances:  balances,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

// AccountsFromDomain converts domain accounts to responses.
func AccountsFromDomain(accounts []*domain.Account) []*AccountResponse {
	result := make([]*AccountResponse, len(accounts))
	for i, a := range accounts {
		result[i] = AccountFromDomain(a)
	}
	return result
}

// ReverseResultResponse identifies the records created by a reversal.
type ReverseResultResponse struct {
	ReversalTransactionID string `json:"reversal_transaction_id"`
	LedgerEntryID         string `json:"ledger_entry_id,omitempty"`
}

// ChainReportResponse is the hash chain verification result.
type ChainReportResponse struct {
	Valid        bool   `json:"valid"`
	EntriesTotal int    `json:"entries_total"`
	BrokenAt     string `json:"broken_at,omitempty"`
}

// CurrencyBalanceResponse is the per-currency solvency check result.
type CurrencyBalanceResponse struct {
	SystemReserve decimal.Decimal `json:"system_reserve"`
	TotalOther    decimal.Decimal `json:"total_other"`
	Difference    decimal.Decimal `json:"difference"`
	IsBalanced    bool            `json:"is_balanced"`
}

// BalanceReportResponse is the full solvency check result.
type BalanceReportResponse struct {
	IsBalanced  bool                               `json:"is_balanced"`
	PerCurrency map[string]CurrencyBalanceResponse `json:"per_currency"`
	CheckedAt   time.Time                          `json:"checked_at"`
}

// BalanceReportFromUseCase converts a use case report to a response.
func BalanceReportFromUseCase(r *usecase.BalanceReport) *BalanceReportResponse {
	perCurrency := make(map[string]CurrencyBalanceResponse, len(r.PerCurrency))
	for currency, report := range r.PerCurrency {
		perCurrency[string(currency)] = CurrencyBalanceResponse{
			SystemReserve: report.SystemReserve,
			TotalOther:    report.TotalOther,
			Difference:    report.Difference,
			IsBalanced:    report.IsBalanced,
		}
	}

	return &BalanceReportResponse{
		IsBalanced:  r.IsBalanced,
		PerCurrency: perCurrency,
		CheckedAt:   r.CheckedAt,
	}
}

// ErrorResponse represents an error in API responses.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	MessageAr string `json:"message_ar,omitempty"`
}
