package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLocalizedError_Unwrap(t *testing.T) {
	err := NewInsufficientBalanceError(decimal.NewFromFloat(5.5), CurrencyUSD)

	if !errors.Is(err, ErrInsufficientBalance) {
		t.Error("localized error should unwrap to ErrInsufficientBalance")
	}
	if err.Error() != "insufficient balance: available 5.50 USD" {
		t.Errorf("unexpected message: %s", err.Error())
	}
	if err.MessageAr == "" {
		t.Error("expected an Arabic message")
	}
}

func TestArabicMessage(t *testing.T) {
	localized := NewInsufficientAgentCreditError(decimal.NewFromInt(10), CurrencySYP)
	if got := ArabicMessage(localized); got != localized.MessageAr {
		t.Errorf("expected Arabic message, got %s", got)
	}

	// Plain errors fall back to the English text.
	if got := ArabicMessage(ErrUserNotFound); got != ErrUserNotFound.Error() {
		t.Errorf("expected English fallback, got %s", got)
	}

	// Wrapped localized errors are still found.
	wrapped := errors.Join(errors.New("context"), localized)
	if got := ArabicMessage(wrapped); got != localized.MessageAr {
		t.Errorf("expected Arabic message through wrapping, got %s", got)
	}
}

func TestNewAmountOutOfBoundsError(t *testing.T) {
	err := NewAmountOutOfBoundsError(decimal.NewFromFloat(0.01), decimal.NewFromInt(1000))

	if !errors.Is(err, ErrAmountOutOfBounds) {
		t.Error("expected ErrAmountOutOfBounds")
	}
	if err.Error() != "amount must be between 0.01 and 1000.00" {
		t.Errorf("unexpected message: %s", err.Error())
	}
}
