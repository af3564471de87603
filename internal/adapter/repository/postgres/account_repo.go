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

// AccountRepository implements usecase.AccountRepository. Accounts keep
// one balance row per currency in account_balances.
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository.
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

// GetOrCreate upserts an account by code. An existing account is returned
// untouched; balances are never reset.
func (r *AccountRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, account *domain.Account) (*domain.Account, error) {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO accounts (id, code, name, name_ar, type, is_system, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (code) DO NOTHING`,
		account.ID, account.Code, account.Name, account.NameAr, string(account.Type),
		account.IsSystem, timeToPgTimestamptz(account.CreatedAt), timeToPgTimestamptz(account.UpdatedAt),
	)
	if err != nil {
		return nil, fmt.Errorf("upsert account: %w", err)
	}

	for currency, balance := range account.Balances {
		_, err := pgxTx.Exec(ctx,
			`INSERT INTO account_balances (account_code, currency, balance, updated_at)
			 VALUES ($1, $2, $3, $4)
			 ON CONFLICT (account_code, currency) DO NOTHING`,
			account.Code, string(currency), decimalToNumeric(balance), timeToPgTimestamptz(account.UpdatedAt),
		)
		if err != nil {
			return nil, fmt.Errorf("upsert account balance: %w", err)
		}
	}

	return r.getByCode(ctx, pgxTx, account.Code, false)
}

// GetByCode retrieves an account with its per-currency balances.
func (r *AccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	return r.getByCode(ctx, r.pool, code, false)
}

// GetByCodeForUpdate retrieves an account with a FOR UPDATE lock on its row.
func (r *AccountRepository) GetByCodeForUpdate(ctx context.Context, tx usecase.Transaction, code string) (*domain.Account, error) {
	return r.getByCode(ctx, tx.(*Tx).PgxTx(), code, true)
}

// rowQuerier is the read surface shared by pgxpool.Pool and pgx.Tx.
type rowQuerier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func (r *AccountRepository) getByCode(ctx context.Context, q rowQuerier, code string, forUpdate bool) (*domain.Account, error) {
	query := `SELECT id, code, name, name_ar, type, is_system, created_at, updated_at
		FROM accounts WHERE code = $1`
	if forUpdate {
		query += " FOR UPDATE"
	}

	account := &domain.Account{Balances: make(map[domain.Currency]decimal.Decimal)}

	var accountType string
	var createdAt, updatedAt pgtype.Timestamptz

	err := q.QueryRow(ctx, query, code).Scan(
		&account.ID, &account.Code, &account.Name, &account.NameAr,
		&accountType, &account.IsSystem, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, fmt.Errorf("get account by code: %w", err)
	}

	account.Type = domain.AccountType(accountType)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time

	rows, err := q.Query(ctx,
		`SELECT currency, balance FROM account_balances WHERE account_code = $1`, code)
	if err != nil {
		return nil, fmt.Errorf("get account balances: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var currency string
		var balance pgtype.Numeric

		if err := rows.Scan(&currency, &balance); err != nil {
			return nil, fmt.Errorf("scan account balance: %w", err)
		}

		account.Balances[domain.Currency(currency)] = numericToDecimal(balance)
	}

	return account, rows.Err()
}

// AdjustBalance atomically applies a signed delta to one currency balance.
func (r *AccountRepository) AdjustBalance(ctx context.Context, tx usecase.Transaction, code string, currency domain.Currency, delta decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE account_balances SET balance = balance + $3, updated_at = $4
		 WHERE account_code = $1 AND currency = $2`,
		code, string(currency), decimalToNumeric(delta), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("adjust account balance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}

	return nil
}

// List lists accounts with their balances, ordered by code.
func (r *AccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, code, name, name_ar, type, is_system, created_at, updated_at
		 FROM accounts ORDER BY code LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()

	var accounts []*domain.Account

	for rows.Next() {
		account := &domain.Account{Balances: make(map[domain.Currency]decimal.Decimal)}

		var accountType string
		var createdAt, updatedAt pgtype.Timestamptz

		if err := rows.Scan(
			&account.ID, &account.Code, &account.Name, &account.NameAr,
			&accountType, &account.IsSystem, &createdAt, &updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}

		account.Type = domain.AccountType(accountType)
		account.CreatedAt = createdAt.Time
		account.UpdatedAt = updatedAt.Time
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, account := range accounts {
		balances, err := r.pool.Query(ctx,
			`SELECT currency, balance FROM account_balances WHERE account_code = $1`, account.Code)
		if err != nil {
			return nil, fmt.Errorf("list account balances: %w", err)
		}

		for balances.Next() {
			var currency string
			var balance pgtype.Numeric

			if err := balances.Scan(&currency, &balance); err != nil {
				balances.Close()
				return nil, fmt.Errorf("scan account balance: %w", err)
			}

			account.Balances[domain.Currency(currency)] = numericToDecimal(balance)
		}

		balances.Close()

		if err := balances.Err(); err != nil {
			return nil, err
		}
	}

	return accounts, nil
}
