package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// Agent and merchant balances are stored as one column per currency at
// the schema boundary; the domain sees currency-keyed maps.

// AgentRepository implements usecase.AgentRepository.
type AgentRepository struct {
	pool *pgxpool.Pool
}

// NewAgentRepository creates a new AgentRepository.
func NewAgentRepository(pool *pgxpool.Pool) *AgentRepository {
	return &AgentRepository{pool: pool}
}

const agentColumns = `id, user_id,
	current_credit_usd, current_credit_syp,
	cash_collected_usd, cash_collected_syp,
	total_deposits_usd, total_deposits_syp,
	total_withdrawals_usd, total_withdrawals_syp,
	created_at, updated_at`

// Create inserts a new agent profile.
func (r *AgentRepository) Create(ctx context.Context, agent *domain.AgentProfile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO agent_profiles (`+agentColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		agent.ID, agent.UserID,
		decimalToNumeric(agent.Credit(domain.CurrencyUSD)), decimalToNumeric(agent.Credit(domain.CurrencySYP)),
		decimalToNumeric(agent.Cash(domain.CurrencyUSD)), decimalToNumeric(agent.Cash(domain.CurrencySYP)),
		decimalToNumeric(agent.TotalDeposits[domain.CurrencyUSD]), decimalToNumeric(agent.TotalDeposits[domain.CurrencySYP]),
		decimalToNumeric(agent.TotalWithdrawals[domain.CurrencyUSD]), decimalToNumeric(agent.TotalWithdrawals[domain.CurrencySYP]),
		timeToPgTimestamptz(agent.CreatedAt), timeToPgTimestamptz(agent.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert agent profile: %w", err)
	}

	return nil
}

// GetByID retrieves an agent profile without locking.
func (r *AgentRepository) GetByID(ctx context.Context, id string) (*domain.AgentProfile, error) {
	return scanAgentRow(r.pool.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agent_profiles WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves an agent profile with a FOR UPDATE row lock.
func (r *AgentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.AgentProfile, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return scanAgentRow(pgxTx.QueryRow(ctx,
		`SELECT `+agentColumns+` FROM agent_profiles WHERE id = $1 FOR UPDATE`, id))
}

// UpdateBalances writes all per-currency balance columns of the profile.
func (r *AgentRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, agent *domain.AgentProfile, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE agent_profiles SET
			current_credit_usd = $2, current_credit_syp = $3,
			cash_collected_usd = $4, cash_collected_syp = $5,
			total_deposits_usd = $6, total_deposits_syp = $7,
			total_withdrawals_usd = $8, total_withdrawals_syp = $9,
			updated_at = $10
		 WHERE id = $1`,
		agent.ID,
		decimalToNumeric(agent.Credit(domain.CurrencyUSD)), decimalToNumeric(agent.Credit(domain.CurrencySYP)),
		decimalToNumeric(agent.Cash(domain.CurrencyUSD)), decimalToNumeric(agent.Cash(domain.CurrencySYP)),
		decimalToNumeric(agent.TotalDeposits[domain.CurrencyUSD]), decimalToNumeric(agent.TotalDeposits[domain.CurrencySYP]),
		decimalToNumeric(agent.TotalWithdrawals[domain.CurrencyUSD]), decimalToNumeric(agent.TotalWithdrawals[domain.CurrencySYP]),
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("update agent balances: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAgentNotFound
	}

	return nil
}

func scanAgentRow(row pgx.Row) (*domain.AgentProfile, error) {
	agent := &domain.AgentProfile{
		CurrentCredit:    make(map[domain.Currency]decimal.Decimal),
		CashCollected:    make(map[domain.Currency]decimal.Decimal),
		TotalDeposits:    make(map[domain.Currency]decimal.Decimal),
		TotalWithdrawals: make(map[domain.Currency]decimal.Decimal),
	}

	var creditUSD, creditSYP, cashUSD, cashSYP pgtype.Numeric
	var depositsUSD, depositsSYP, withdrawalsUSD, withdrawalsSYP pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&agent.ID, &agent.UserID,
		&creditUSD, &creditSYP, &cashUSD, &cashSYP,
		&depositsUSD, &depositsSYP, &withdrawalsUSD, &withdrawalsSYP,
		&createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAgentNotFound
		}
		return nil, fmt.Errorf("get agent profile: %w", err)
	}

	agent.CurrentCredit[domain.CurrencyUSD] = numericToDecimal(creditUSD)
	agent.CurrentCredit[domain.CurrencySYP] = numericToDecimal(creditSYP)
	agent.CashCollected[domain.CurrencyUSD] = numericToDecimal(cashUSD)
	agent.CashCollected[domain.CurrencySYP] = numericToDecimal(cashSYP)
	agent.TotalDeposits[domain.CurrencyUSD] = numericToDecimal(depositsUSD)
	agent.TotalDeposits[domain.CurrencySYP] = numericToDecimal(depositsSYP)
	agent.TotalWithdrawals[domain.CurrencyUSD] = numericToDecimal(withdrawalsUSD)
	agent.TotalWithdrawals[domain.CurrencySYP] = numericToDecimal(withdrawalsSYP)
	agent.CreatedAt = createdAt.Time
	agent.UpdatedAt = updatedAt.Time

	return agent, nil
}

// MerchantRepository implements usecase.MerchantRepository.
type MerchantRepository struct {
	pool *pgxpool.Pool
}

// NewMerchantRepository creates a new MerchantRepository.
func NewMerchantRepository(pool *pgxpool.Pool) *MerchantRepository {
	return &MerchantRepository{pool: pool}
}

const merchantColumns = `id, user_id,
	balance_usd, balance_syp,
	total_sales_usd, total_sales_syp,
	total_transactions, created_at, updated_at`

// Create inserts a new merchant profile.
func (r *MerchantRepository) Create(ctx context.Context, merchant *domain.MerchantProfile) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO merchant_profiles (`+merchantColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		merchant.ID, merchant.UserID,
		decimalToNumeric(merchant.MerchantBalance(domain.CurrencyUSD)), decimalToNumeric(merchant.MerchantBalance(domain.CurrencySYP)),
		decimalToNumeric(merchant.TotalSales[domain.CurrencyUSD]), decimalToNumeric(merchant.TotalSales[domain.CurrencySYP]),
		merchant.TotalTransactions,
		timeToPgTimestamptz(merchant.CreatedAt), timeToPgTimestamptz(merchant.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert merchant profile: %w", err)
	}

	return nil
}

// GetByID retrieves a merchant profile without locking.
func (r *MerchantRepository) GetByID(ctx context.Context, id string) (*domain.MerchantProfile, error) {
	return scanMerchantRow(r.pool.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchant_profiles WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a merchant profile with a FOR UPDATE row lock.
func (r *MerchantRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.MerchantProfile, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return scanMerchantRow(pgxTx.QueryRow(ctx,
		`SELECT `+merchantColumns+` FROM merchant_profiles WHERE id = $1 FOR UPDATE`, id))
}

// UpdateBalances writes all per-currency balance columns of the profile.
func (r *MerchantRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, merchant *domain.MerchantProfile, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE merchant_profiles SET
			balance_usd = $2, balance_syp = $3,
			total_sales_usd = $4, total_sales_syp = $5,
			total_transactions = $6, updated_at = $7
		 WHERE id = $1`,
		merchant.ID,
		decimalToNumeric(merchant.MerchantBalance(domain.CurrencyUSD)), decimalToNumeric(merchant.MerchantBalance(domain.CurrencySYP)),
		decimalToNumeric(merchant.TotalSales[domain.CurrencyUSD]), decimalToNumeric(merchant.TotalSales[domain.CurrencySYP]),
		merchant.TotalTransactions,
		timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("update merchant balances: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrMerchantNotFound
	}

	return nil
}

func scanMerchantRow(row pgx.Row) (*domain.MerchantProfile, error) {
	merchant := &domain.MerchantProfile{
		Balance:    make(map[domain.Currency]decimal.Decimal),
		TotalSales: make(map[domain.Currency]decimal.Decimal),
	}

	var balanceUSD, balanceSYP, salesUSD, salesSYP pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&merchant.ID, &merchant.UserID,
		&balanceUSD, &balanceSYP, &salesUSD, &salesSYP,
		&merchant.TotalTransactions, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMerchantNotFound
		}
		return nil, fmt.Errorf("get merchant profile: %w", err)
	}

	merchant.Balance[domain.CurrencyUSD] = numericToDecimal(balanceUSD)
	merchant.Balance[domain.CurrencySYP] = numericToDecimal(balanceSYP)
	merchant.TotalSales[domain.CurrencyUSD] = numericToDecimal(salesUSD)
	merchant.TotalSales[domain.CurrencySYP] = numericToDecimal(salesSYP)
	merchant.CreatedAt = createdAt.Time
	merchant.UpdatedAt = updatedAt.Time

	return merchant, nil
}
