package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// ReversalRepository implements usecase.ReversalRepository. The unique
// constraint on original_transaction_id enforces at most one reversal
// per transaction at the storage layer.
type ReversalRepository struct {
	pool *pgxpool.Pool
}

// NewReversalRepository creates a new ReversalRepository.
func NewReversalRepository(pool *pgxpool.Pool) *ReversalRepository {
	return &ReversalRepository{pool: pool}
}

// Create persists a reversal link record.
func (r *ReversalRepository) Create(ctx context.Context, tx usecase.Transaction, rev *domain.ReversalTransaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO reversal_transactions
		 (id, original_transaction_id, reversal_transaction_id, reason, reason_ar, reversed_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rev.ID, rev.OriginalTransactionID, rev.ReversalTransactionID,
		rev.Reason, rev.ReasonAr, rev.ReversedBy, timeToPgTimestamptz(rev.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrAlreadyReversed
		}
		return fmt.Errorf("insert reversal: %w", err)
	}

	return nil
}

// GetByOriginal retrieves the reversal record for an original transaction.
func (r *ReversalRepository) GetByOriginal(ctx context.Context, originalTransactionID string) (*domain.ReversalTransaction, error) {
	rev := &domain.ReversalTransaction{}

	var createdAt pgtype.Timestamptz

	err := r.pool.QueryRow(ctx,
		`SELECT id, original_transaction_id, reversal_transaction_id, reason, reason_ar, reversed_by, created_at
		 FROM reversal_transactions WHERE original_transaction_id = $1`,
		originalTransactionID,
	).Scan(&rev.ID, &rev.OriginalTransactionID, &rev.ReversalTransactionID,
		&rev.Reason, &rev.ReasonAr, &rev.ReversedBy, &createdAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get reversal: %w", err)
	}

	rev.CreatedAt = createdAt.Time

	return rev, nil
}
