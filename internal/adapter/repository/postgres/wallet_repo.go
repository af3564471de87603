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

// WalletRepository implements usecase.WalletRepository. One wallet row
// exists per (user, currency) pair.
type WalletRepository struct {
	pool *pgxpool.Pool
}

// NewWalletRepository creates a new WalletRepository.
func NewWalletRepository(pool *pgxpool.Pool) *WalletRepository {
	return &WalletRepository{pool: pool}
}

const walletColumns = `id, user_id, currency, balance, frozen_balance, created_at, updated_at`

// Create inserts a new wallet.
func (r *WalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wallets (`+walletColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		wallet.ID, wallet.UserID, string(wallet.Currency),
		decimalToNumeric(wallet.Balance), decimalToNumeric(wallet.FrozenBalance),
		timeToPgTimestamptz(wallet.CreatedAt), timeToPgTimestamptz(wallet.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert wallet: %w", err)
	}

	return nil
}

// GetByUser retrieves a wallet without locking.
func (r *WalletRepository) GetByUser(ctx context.Context, userID string, currency domain.Currency) (*domain.Wallet, error) {
	return scanWalletRow(r.pool.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND currency = $2`,
		userID, string(currency)))
}

// GetByUserForUpdate retrieves a wallet with a FOR UPDATE row lock.
// Must be called inside a transaction.
func (r *WalletRepository) GetByUserForUpdate(ctx context.Context, tx usecase.Transaction, userID string, currency domain.Currency) (*domain.Wallet, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return scanWalletRow(pgxTx.QueryRow(ctx,
		`SELECT `+walletColumns+` FROM wallets WHERE user_id = $1 AND currency = $2 FOR UPDATE`,
		userID, string(currency)))
}

// UpdateBalance writes the wallet's balance and frozen balance.
func (r *WalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance, frozenBalance decimal.Decimal, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE wallets SET balance = $2, frozen_balance = $3, updated_at = $4 WHERE id = $1`,
		id, decimalToNumeric(balance), decimalToNumeric(frozenBalance), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("update wallet balance: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}

	return nil
}

func scanWalletRow(row pgx.Row) (*domain.Wallet, error) {
	wallet := &domain.Wallet{}

	var currency string
	var balance, frozen pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(&wallet.ID, &wallet.UserID, &currency, &balance, &frozen, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("get wallet: %w", err)
	}

	wallet.Currency = domain.Currency(currency)
	wallet.Balance = numericToDecimal(balance)
	wallet.FrozenBalance = numericToDecimal(frozen)
	wallet.CreatedAt = createdAt.Time
	wallet.UpdatedAt = updatedAt.Time

	return wallet, nil
}
