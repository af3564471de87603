package domain

import (
	"github.com/shopspring/decimal"
)

const (
	DefaultPageLimit = 20
	MaxPageLimit     = 100
)

// ValidatePagination clamps limit/offset to sane values.
func ValidatePagination(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ValidateAmount checks that amount is positive and within [min, max].
// A zero max means unbounded.
func ValidateAmount(amount, min, max decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}
	if amount.LessThan(min) || (max.IsPositive() && amount.GreaterThan(max)) {
		return NewAmountOutOfBoundsError(min, max)
	}
	return nil
}
