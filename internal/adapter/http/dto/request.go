package dto

import (
	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// DepositRequest represents an agent-funded cash deposit.
type DepositRequest struct {
	UserID   string          `json:"user_id"`
	AgentID  string          `json:"agent_id"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *DepositRequest) ToUseCaseInput() usecase.DepositInput {
	return usecase.DepositInput{
		UserID:   r.UserID,
		AgentID:  r.AgentID,
		Currency: domain.Currency(r.Currency),
		Amount:   r.Amount,
	}
}

// WithdrawRequest represents a cash withdrawal via an agent.
type WithdrawRequest struct {
	UserID   string          `json:"user_id"`
	AgentID  string          `json:"agent_id"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *WithdrawRequest) ToUseCaseInput() usecase.WithdrawInput {
	return usecase.WithdrawInput{
		UserID:   r.UserID,
		AgentID:  r.AgentID,
		Currency: domain.Currency(r.Currency),
		Amount:   r.Amount,
	}
}

// TransferRequest represents a wallet-to-wallet transfer.
type TransferRequest struct {
	SenderID   string          `json:"sender_id"`
	ReceiverID string          `json:"receiver_id"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *TransferRequest) ToUseCaseInput() usecase.TransferInput {
	return usecase.TransferInput{
		SenderID:   r.SenderID,
		ReceiverID: r.ReceiverID,
		Currency:   domain.Currency(r.Currency),
		Amount:     r.Amount,
		Note:       r.Note,
	}
}

// QRPaymentRequest represents a payment to a merchant.
type QRPaymentRequest struct {
	PayerID    string          `json:"payer_id"`
	MerchantID string          `json:"merchant_id"`
	Currency   string          `json:"currency"`
	Amount     decimal.Decimal `json:"amount"`
	Note       string          `json:"note,omitempty"`
}

// ToUseCaseInput converts to use case input.
func (r *QRPaymentRequest) ToUseCaseInput() usecase.QRPaymentInput {
	return usecase.QRPaymentInput{
		PayerID:    r.PayerID,
		MerchantID: r.MerchantID,
		Currency:   domain.Currency(r.Currency),
		Amount:     r.Amount,
		Note:       r.Note,
	}
}

// IssueAgentCreditRequest represents a platform credit issuance.
type IssueAgentCreditRequest struct {
	AgentID  string          `json:"agent_id"`
	IssuedBy string          `json:"issued_by"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}

// ToUseCaseInput converts to use case input.
func (r *IssueAgentCreditRequest) ToUseCaseInput() usecase.IssueAgentCreditInput {
	return usecase.IssueAgentCreditInput{
		AgentID:  r.AgentID,
		IssuedBy: r.IssuedBy,
		Currency: domain.Currency(r.Currency),
		Amount:   r.Amount,
	}
}

// ReverseTransactionRequest represents a request to reverse a transaction.
type ReverseTransactionRequest struct {
	Reason     string `json:"reason"`
	ReasonAr   string `json:"reason_ar,omitempty"`
	ReversedBy string `json:"reversed_by"`
}

// ToUseCaseInput converts to use case input.
func (r *ReverseTransactionRequest) ToUseCaseInput(transactionID string) usecase.ReverseInput {
	return usecase.ReverseInput{
		TransactionID: transactionID,
		Reason:        r.Reason,
		ReasonAr:      r.ReasonAr,
		ReversedBy:    r.ReversedBy,
	}
}

// EntryLineRequest is one leg of a manual ledger entry.
type EntryLineRequest struct {
	AccountCode string          `json:"account_code"`
	Debit       decimal.Decimal `json:"debit"`
	Credit      decimal.Decimal `json:"credit"`
}

// CreateEntryRequest represents a manual ledger entry posting.
type CreateEntryRequest struct {
	Description   string             `json:"description"`
	DescriptionAr string             `json:"description_ar,omitempty"`
	Currency      string             `json:"currency"`
	CreatedBy     string             `json:"created_by"`
	Lines         []EntryLineRequest `json:"lines"`
}

// ToUseCaseInput converts to use case input.
func (r *CreateEntryRequest) ToUseCaseInput() usecase.CreateEntryInput {
	lines := make([]usecase.LineInput, len(r.Lines))
	for i, l := range r.Lines {
		lines[i] = usecase.LineInput{
			AccountCode: l.AccountCode,
			Debit:       l.Debit,
			Credit:      l.Credit,
		}
	}

	return usecase.CreateEntryInput{
		Description:   r.Description,
		DescriptionAr: r.DescriptionAr,
		Currency:      domain.Currency(r.Currency),
		CreatedBy:     r.CreatedBy,
		Lines:         lines,
	}
}

// FreezeFundsRequest represents a freeze or unfreeze of wallet funds.
type FreezeFundsRequest struct {
	UserID   string          `json:"user_id"`
	Currency string          `json:"currency"`
	Amount   decimal.Decimal `json:"amount"`
}
