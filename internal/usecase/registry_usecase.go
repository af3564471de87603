package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
)

// RegistryUseCase manages the chart of accounts.
type RegistryUseCase struct {
	txManager   TransactionManager
	accountRepo AccountRepository
	idGen       IDGenerator
}

// NewRegistryUseCase creates a new RegistryUseCase.
func NewRegistryUseCase(txManager TransactionManager, accountRepo AccountRepository, idGen IDGenerator) *RegistryUseCase {
	return &RegistryUseCase{
		txManager:   txManager,
		accountRepo: accountRepo,
		idGen:       idGen,
	}
}

// GetOrCreateAccount upserts an account by code. Existing accounts keep
// their balances; only missing accounts are created, with zero balances
// in every supported currency.
func (uc *RegistryUseCase) GetOrCreateAccount(ctx context.Context, code string) (*domain.Account, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	account, err := uc.getOrCreate(ctx, tx, code)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return account, nil
}

func (uc *RegistryUseCase) getOrCreate(ctx context.Context, tx Transaction, code string) (*domain.Account, error) {
	now := time.Now().UTC()

	balances := make(map[domain.Currency]decimal.Decimal, len(domain.SupportedCurrencies))
	for _, c := range domain.SupportedCurrencies {
		balances[c] = decimal.Zero
	}

	return uc.accountRepo.GetOrCreate(ctx, tx, &domain.Account{
		ID:        uc.idGen.Generate(),
		Code:      code,
		Name:      code,
		Type:      domain.SystemAccountType(code),
		IsSystem:  true,
		Balances:  balances,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

// GetBalance reads the current balance of an account in one currency.
func (uc *RegistryUseCase) GetBalance(ctx context.Context, code string, currency domain.Currency) (decimal.Decimal, error) {
	if !domain.IsSupportedCurrency(currency) {
		return decimal.Zero, domain.ErrUnsupportedCurrency
	}

	account, err := uc.accountRepo.GetByCode(ctx, code)
	if err != nil {
		return decimal.Zero, err
	}

	return account.Balance(currency), nil
}

// GetAccount retrieves an account by code.
func (uc *RegistryUseCase) GetAccount(ctx context.Context, code string) (*domain.Account, error) {
	return uc.accountRepo.GetByCode(ctx, code)
}

// ListAccountsInput represents input for listing accounts.
type ListAccountsInput struct {
	Limit  int
	Offset int
}

// ListAccounts lists accounts with pagination.
func (uc *RegistryUseCase) ListAccounts(ctx context.Context, input ListAccountsInput) ([]*domain.Account, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.accountRepo.List(ctx, limit, offset)
}
