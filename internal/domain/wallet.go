package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wallet is the fast-path balance holder for one user in one currency.
// The aggregate USER_WALLETS ledger account tracks the same money
// independently; the integrity verifier reconciles the two.
type Wallet struct {
	CreatedAt     time.Time
	UpdatedAt     time.Time
	ID            string
	UserID        string
	Currency      Currency
	Balance       decimal.Decimal
	FrozenBalance decimal.Decimal
}

// Available returns the spendable balance (total minus frozen).
func (w *Wallet) Available() decimal.Decimal {
	return w.Balance.Sub(w.FrozenBalance)
}

// CanDebit reports whether amount can be taken from the wallet without
// going negative or touching frozen funds.
func (w *Wallet) CanDebit(amount decimal.Decimal) bool {
	return w.Available().GreaterThanOrEqual(amount)
}

// AgentProfile holds the operational balances of a cash-in/cash-out agent,
// per currency. CurrentCredit is credit fronted by the platform;
// CashCollected is physical cash the agent holds on the platform's behalf.
type AgentProfile struct {
	CreatedAt        time.Time
	UpdatedAt        time.Time
	CurrentCredit    map[Currency]decimal.Decimal
	CashCollected    map[Currency]decimal.Decimal
	TotalDeposits    map[Currency]decimal.Decimal
	TotalWithdrawals map[Currency]decimal.Decimal
	ID               string
	UserID           string
}

// Credit returns the agent's current credit in the given currency.
func (a *AgentProfile) Credit(currency Currency) decimal.Decimal {
	if a.CurrentCredit == nil {
		return decimal.Zero
	}
	return a.CurrentCredit[currency]
}

// Cash returns the agent's collected cash in the given currency.
func (a *AgentProfile) Cash(currency Currency) decimal.Decimal {
	if a.CashCollected == nil {
		return decimal.Zero
	}
	return a.CashCollected[currency]
}

// EnsureBalances allocates any nil per-currency map. Reads treat a nil
// map as zero, but assigning into one panics, so every mutation path
// must call this first.
func (a *AgentProfile) EnsureBalances() {
	if a.CurrentCredit == nil {
		a.CurrentCredit = make(map[Currency]decimal.Decimal)
	}
	if a.CashCollected == nil {
		a.CashCollected = make(map[Currency]decimal.Decimal)
	}
	if a.TotalDeposits == nil {
		a.TotalDeposits = make(map[Currency]decimal.Decimal)
	}
	if a.TotalWithdrawals == nil {
		a.TotalWithdrawals = make(map[Currency]decimal.Decimal)
	}
}

// MerchantProfile holds a merchant's receiving balances and sale counters,
// per currency.
type MerchantProfile struct {
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Balance           map[Currency]decimal.Decimal
	TotalSales        map[Currency]decimal.Decimal
	ID                string
	UserID            string
	TotalTransactions int64
}

// MerchantBalance returns the merchant balance in the given currency.
func (m *MerchantProfile) MerchantBalance(currency Currency) decimal.Decimal {
	if m.Balance == nil {
		return decimal.Zero
	}
	return m.Balance[currency]
}

// EnsureBalances allocates any nil per-currency map, mirroring
// AgentProfile.EnsureBalances.
func (m *MerchantProfile) EnsureBalances() {
	if m.Balance == nil {
		m.Balance = make(map[Currency]decimal.Decimal)
	}
	if m.TotalSales == nil {
		m.TotalSales = make(map[Currency]decimal.Decimal)
	}
}
