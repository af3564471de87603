package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	// Account registry errors
	ErrAccountNotFound     = errors.New("ledger account not found")
	ErrUnsupportedCurrency = errors.New("unsupported currency")

	// Ledger entry errors
	ErrEmptyEntry         = errors.New("ledger entry has no lines")
	ErrMissingAccountCode = errors.New("ledger line is missing an account code")
	ErrNegativeLineAmount = errors.New("ledger line amounts must be non-negative")
	ErrUnbalancedEntry    = errors.New("ledger entry debits do not equal credits")
	ErrEntryNotFound      = errors.New("ledger entry not found")
	ErrChainBroken        = errors.New("ledger hash chain is broken")
	ErrDuplicateReference = errors.New("reference number already exists")

	// Orchestrator errors
	ErrUserNotFound            = errors.New("user wallet not found")
	ErrAgentNotFound           = errors.New("agent profile not found")
	ErrMerchantNotFound        = errors.New("merchant profile not found")
	ErrInvalidAmount           = errors.New("amount must be positive")
	ErrAmountOutOfBounds       = errors.New("amount is outside the allowed transaction bounds")
	ErrSameParty               = errors.New("sender and receiver must differ")
	ErrInsufficientBalance     = errors.New("insufficient balance")
	ErrInsufficientAgentCredit = errors.New("insufficient agent credit")
	ErrInsufficientAgentCash   = errors.New("insufficient agent cash")
	ErrInsufficientFrozen      = errors.New("insufficient frozen balance")

	// Reversal errors
	ErrTransactionNotFound = errors.New("transaction not found")
	ErrAlreadyReversed     = errors.New("transaction is already reversed")
	ErrNotReversible       = errors.New("only completed transactions can be reversed")
)

// LocalizedError carries a bilingual, user-facing message alongside the
// underlying domain error. Business-rule violations are reported this way
// so callers can surface the message in either language.
type LocalizedError struct {
	Err       error
	Message   string
	MessageAr string
}

func (e *LocalizedError) Error() string { return e.Message }

func (e *LocalizedError) Unwrap() error { return e.Err }

// NewInsufficientBalanceError builds the localized insufficient-balance
// failure naming the amount actually available.
func NewInsufficientBalanceError(available decimal.Decimal, currency Currency) *LocalizedError {
	return &LocalizedError{
		Err:       ErrInsufficientBalance,
		Message:   fmt.Sprintf("insufficient balance: available %s %s", available.StringFixed(2), currency),
		MessageAr: fmt.Sprintf("الرصيد غير كافٍ: المتاح %s %s", available.StringFixed(2), currency),
	}
}

// NewInsufficientAgentCreditError builds the localized agent-credit failure.
func NewInsufficientAgentCreditError(available decimal.Decimal, currency Currency) *LocalizedError {
	return &LocalizedError{
		Err:       ErrInsufficientAgentCredit,
		Message:   fmt.Sprintf("insufficient agent credit: available %s %s", available.StringFixed(2), currency),
		MessageAr: fmt.Sprintf("رصيد الوكيل غير كافٍ: المتاح %s %s", available.StringFixed(2), currency),
	}
}

// NewInsufficientAgentCashError builds the localized agent-cash failure.
func NewInsufficientAgentCashError(available decimal.Decimal, currency Currency) *LocalizedError {
	return &LocalizedError{
		Err:       ErrInsufficientAgentCash,
		Message:   fmt.Sprintf("insufficient agent cash: available %s %s", available.StringFixed(2), currency),
		MessageAr: fmt.Sprintf("النقد المتوفر لدى الوكيل غير كافٍ: المتاح %s %s", available.StringFixed(2), currency),
	}
}

// NewAmountOutOfBoundsError builds the localized bounds failure.
func NewAmountOutOfBoundsError(min, max decimal.Decimal) *LocalizedError {
	return &LocalizedError{
		Err:       ErrAmountOutOfBounds,
		Message:   fmt.Sprintf("amount must be between %s and %s", min.StringFixed(2), max.StringFixed(2)),
		MessageAr: fmt.Sprintf("يجب أن يكون المبلغ بين %s و %s", min.StringFixed(2), max.StringFixed(2)),
	}
}

// ArabicMessage returns the Arabic message for err if it carries one,
// falling back to the English error text.
func ArabicMessage(err error) string {
	var lerr *LocalizedError
	if errors.As(err, &lerr) && lerr.MessageAr != "" {
		return lerr.MessageAr
	}
	return err.Error()
}
