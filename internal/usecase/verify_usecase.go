package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
)

// verifyAccountsPageSize is how many accounts the verifier loads per page.
const verifyAccountsPageSize = 1000

// CurrencyBalanceReport is the solvency check result for one currency.
type CurrencyBalanceReport struct {
	SystemReserve decimal.Decimal
	TotalOther    decimal.Decimal
	Difference    decimal.Decimal
	IsBalanced    bool
}

// BalanceReport is the full solvency check result.
type BalanceReport struct {
	CheckedAt   time.Time
	PerCurrency map[domain.Currency]CurrencyBalanceReport
	IsBalanced  bool
}

// VerifyUseCase recomputes aggregate balances and asserts system solvency.
// It only reports; imbalances are operational incidents and are never
// auto-corrected.
type VerifyUseCase struct {
	accountRepo AccountRepository
	ledger      *LedgerUseCase
}

// NewVerifyUseCase creates a new VerifyUseCase.
func NewVerifyUseCase(accountRepo AccountRepository, ledger *LedgerUseCase) *VerifyUseCase {
	return &VerifyUseCase{
		accountRepo: accountRepo,
		ledger:      ledger,
	}
}

// VerifySystemBalance checks, independently per currency, that the system
// reserve balance plus the sum of every other internal account balance
// nets to zero within tolerance. Overall IsBalanced is the AND across
// currencies.
func (uc *VerifyUseCase) VerifySystemBalance(ctx context.Context) (*BalanceReport, error) {
	reserve := make(map[domain.Currency]decimal.Decimal, len(domain.SupportedCurrencies))
	other := make(map[domain.Currency]decimal.Decimal, len(domain.SupportedCurrencies))

	for _, c := range domain.SupportedCurrencies {
		reserve[c] = decimal.Zero
		other[c] = decimal.Zero
	}

	for offset := 0; ; offset += verifyAccountsPageSize {
		accounts, err := uc.accountRepo.List(ctx, verifyAccountsPageSize, offset)
		if err != nil {
			return nil, err
		}

		if len(accounts) == 0 {
			break
		}

		for _, account := range accounts {
			for _, c := range domain.SupportedCurrencies {
				if account.Code == domain.AccountSystemReserve {
					reserve[c] = reserve[c].Add(account.Balance(c))
				} else {
					other[c] = other[c].Add(account.Balance(c))
				}
			}
		}
	}

	report := &BalanceReport{
		CheckedAt:   time.Now().UTC(),
		PerCurrency: make(map[domain.Currency]CurrencyBalanceReport, len(domain.SupportedCurrencies)),
		IsBalanced:  true,
	}

	for _, c := range domain.SupportedCurrencies {
		difference := reserve[c].Add(other[c])
		balanced := difference.Abs().LessThan(domain.BalanceTolerance)

		report.PerCurrency[c] = CurrencyBalanceReport{
			SystemReserve: reserve[c],
			TotalOther:    other[c],
			Difference:    difference,
			IsBalanced:    balanced,
		}

		if !balanced {
			report.IsBalanced = false
		}
	}

	return report, nil
}

// VerifyChain delegates to the ledger engine's full hash-chain walk.
func (uc *VerifyUseCase) VerifyChain(ctx context.Context) (*ChainReport, error) {
	return uc.ledger.VerifyChain(ctx)
}
