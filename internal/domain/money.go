package domain

import (
	"github.com/shopspring/decimal"
)

// Currency is an ISO-4217 style currency code supported by the ledger.
type Currency string

const (
	CurrencyUSD Currency = "USD"
	CurrencySYP Currency = "SYP"
)

// SupportedCurrencies lists every currency the ledger tracks balances for.
var SupportedCurrencies = []Currency{CurrencyUSD, CurrencySYP}

// BalanceTolerance is the maximum discrepancy tolerated when comparing
// monetary sums. All monetary values are rounded to two decimal places,
// so anything above one cent is a real imbalance.
var BalanceTolerance = decimal.NewFromFloat(0.01)

// IsSupportedCurrency reports whether c is a currency the ledger handles.
func IsSupportedCurrency(c Currency) bool {
	for _, s := range SupportedCurrencies {
		if s == c {
			return true
		}
	}
	return false
}

// RoundMoney rounds d to two decimal places, half away from zero.
// Every monetary value that is persisted or compared goes through this
// single rounding point to avoid cumulative drift between components.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// WithinTolerance reports whether |a - b| is within BalanceTolerance.
func WithinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(BalanceTolerance)
}
