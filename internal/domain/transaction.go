package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType classifies a domain-level money movement.
type TransactionType string

const (
	TransactionDeposit          TransactionType = "DEPOSIT"
	TransactionWithdraw         TransactionType = "WITHDRAW"
	TransactionTransfer         TransactionType = "TRANSFER"
	TransactionQRPayment        TransactionType = "QR_PAYMENT"
	TransactionInternalTransfer TransactionType = "INTERNAL_TRANSFER"
	TransactionRefund           TransactionType = "REFUND"
	TransactionServicePurchase  TransactionType = "SERVICE_PURCHASE"
)

// TransactionStatus is the lifecycle state of a transaction.
// COMPLETED transitions to REVERSED via the reversal engine and never back.
type TransactionStatus string

const (
	StatusPending   TransactionStatus = "PENDING"
	StatusCompleted TransactionStatus = "COMPLETED"
	StatusFailed    TransactionStatus = "FAILED"
	StatusReversed  TransactionStatus = "REVERSED"
)

// Transaction is a domain-level money movement with its fee breakdown.
// Financial fields are immutable after creation; only Status may change.
type Transaction struct {
	CreatedAt       time.Time
	UpdatedAt       time.Time
	SenderID        *string
	ReceiverID      *string
	LedgerEntryID   *string
	ID              string
	ReferenceNumber string
	Type            TransactionType
	Status          TransactionStatus
	Currency        Currency
	Description     string
	DescriptionAr   string
	Amount          decimal.Decimal
	PlatformFee     decimal.Decimal
	AgentFee        decimal.Decimal
	TotalFee        decimal.Decimal
	NetAmount       decimal.Decimal
}

// Commission is the fee breakdown of a transaction.
type Commission struct {
	PlatformFee decimal.Decimal
	AgentFee    decimal.Decimal
	TotalFee    decimal.Decimal
	NetAmount   decimal.Decimal
}

// ReversalTransaction links an original transaction to its compensating
// transaction. Created once, never modified.
type ReversalTransaction struct {
	CreatedAt             time.Time
	ID                    string
	OriginalTransactionID string
	ReversalTransactionID string
	Reason                string
	ReasonAr              string
	ReversedBy            string
}

// ReferencePrefix returns the human-readable reference number prefix for
// a transaction type.
func (t TransactionType) ReferencePrefix() string {
	switch t {
	case TransactionDeposit:
		return "DEP-"
	case TransactionWithdraw:
		return "WTD-"
	case TransactionTransfer:
		return "TRF-"
	case TransactionQRPayment:
		return "QRP-"
	case TransactionInternalTransfer:
		return "INT-"
	case TransactionRefund:
		return "REF-"
	case TransactionServicePurchase:
		return "SRV-"
	default:
		return "TXN-"
	}
}
