package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountType determines the debit/credit sign convention of an account.
type AccountType string

const (
	AccountTypeAsset         AccountType = "ASSET"
	AccountTypeLiability     AccountType = "LIABILITY"
	AccountTypeRevenue       AccountType = "REVENUE"
	AccountTypeExpense       AccountType = "EXPENSE"
	AccountTypeEquity        AccountType = "EQUITY"
	AccountTypeSystemReserve AccountType = "SYSTEM_RESERVE"
)

// Well-known internal account codes. These are created on demand and
// flagged as system accounts.
const (
	AccountSystemReserve   = "SYSTEM_RESERVE"
	AccountUserWallets     = "USER_WALLETS"
	AccountAgentCredits    = "AGENT_CREDITS"
	AccountMerchantWallets = "MERCHANT_WALLETS"
	AccountFeesRevenue     = "FEES_REVENUE"
	AccountAgentCommission = "AGENT_COMMISSION_PAYABLE"
)

// Account is a chart-of-accounts entry holding one balance per currency.
type Account struct {
	CreatedAt time.Time
	UpdatedAt time.Time
	Balances  map[Currency]decimal.Decimal
	ID        string
	Code      string
	Name      string
	NameAr    string
	Type      AccountType
	IsSystem  bool
}

// Balance returns the account balance for the given currency.
func (a *Account) Balance(currency Currency) decimal.Decimal {
	if a.Balances == nil {
		return decimal.Zero
	}
	return a.Balances[currency]
}

// increasesWithDebit reports whether a debit increases the balance for
// this account type. Debits increase ASSET/EXPENSE, credits increase
// LIABILITY/EQUITY/REVENUE/SYSTEM_RESERVE.
func (t AccountType) increasesWithDebit() bool {
	return t == AccountTypeAsset || t == AccountTypeExpense
}

// BalanceDelta converts a (debit, credit) pair into a signed balance
// change for this account type.
func (t AccountType) BalanceDelta(debit, credit decimal.Decimal) decimal.Decimal {
	if t.increasesWithDebit() {
		return debit.Sub(credit)
	}
	return credit.Sub(debit)
}

// SystemAccountType returns the account type for a well-known internal
// account code, defaulting to LIABILITY for unknown codes.
func SystemAccountType(code string) AccountType {
	switch code {
	case AccountSystemReserve:
		return AccountTypeSystemReserve
	case AccountFeesRevenue:
		return AccountTypeRevenue
	default:
		return AccountTypeLiability
	}
}
