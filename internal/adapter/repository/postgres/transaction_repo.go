package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// TransactionRepository implements usecase.TransactionRepository.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository.
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = `id, reference_number, type, status, sender_id, receiver_id,
	amount, currency, platform_fee, agent_fee, total_fee, net_amount,
	description, description_ar, ledger_entry_id, created_at, updated_at`

// Create persists a new transaction row.
func (r *TransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO transactions (`+transactionColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		t.ID, t.ReferenceNumber, string(t.Type), string(t.Status), t.SenderID, t.ReceiverID,
		decimalToNumeric(t.Amount), string(t.Currency), decimalToNumeric(t.PlatformFee),
		decimalToNumeric(t.AgentFee), decimalToNumeric(t.TotalFee), decimalToNumeric(t.NetAmount),
		t.Description, t.DescriptionAr, t.LedgerEntryID,
		timeToPgTimestamptz(t.CreatedAt), timeToPgTimestamptz(t.UpdatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert transaction: %w", err)
	}

	return nil
}

// GetByID retrieves a transaction by ID.
func (r *TransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	return r.get(ctx, r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1`, id))
}

// GetByIDForUpdate retrieves a transaction with a FOR UPDATE lock.
func (r *TransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	pgxTx := tx.(*Tx).PgxTx()

	return r.get(ctx, pgxTx.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 FOR UPDATE`, id))
}

// GetByReference retrieves a transaction by reference number.
func (r *TransactionRepository) GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error) {
	return r.get(ctx, r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE reference_number = $1`, referenceNumber))
}

func (r *TransactionRepository) get(ctx context.Context, row pgx.Row) (*domain.Transaction, error) {
	t, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, fmt.Errorf("get transaction: %w", err)
	}

	return t, nil
}

// UpdateStatus updates only the status field of a transaction.
func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE transactions SET status = $2, updated_at = $3 WHERE id = $1`,
		id, string(status), timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("update transaction status: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// SetLedgerEntry links a transaction to the ledger entry created for it.
func (r *TransactionRepository) SetLedgerEntry(ctx context.Context, tx usecase.Transaction, id, entryID string) error {
	pgxTx := tx.(*Tx).PgxTx()

	tag, err := pgxTx.Exec(ctx,
		`UPDATE transactions SET ledger_entry_id = $2 WHERE id = $1`,
		id, entryID,
	)
	if err != nil {
		return fmt.Errorf("set transaction ledger entry: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	return nil
}

// ListByUser lists transactions the user sent or received, newest first.
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE sender_id = $1 OR receiver_id = $1
		 ORDER BY created_at DESC LIMIT $2 OFFSET $3`,
		userID, int32(limit), int32(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []*domain.Transaction

	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}

		transactions = append(transactions, t)
	}

	return transactions, rows.Err()
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	t := &domain.Transaction{}

	var txType, status, currency string
	var amount, platformFee, agentFee, totalFee, netAmount pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	err := row.Scan(
		&t.ID, &t.ReferenceNumber, &txType, &status, &t.SenderID, &t.ReceiverID,
		&amount, &currency, &platformFee, &agentFee, &totalFee, &netAmount,
		&t.Description, &t.DescriptionAr, &t.LedgerEntryID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Type = domain.TransactionType(txType)
	t.Status = domain.TransactionStatus(status)
	t.Currency = domain.Currency(currency)
	t.Amount = numericToDecimal(amount)
	t.PlatformFee = numericToDecimal(platformFee)
	t.AgentFee = numericToDecimal(agentFee)
	t.TotalFee = numericToDecimal(totalFee)
	t.NetAmount = numericToDecimal(netAmount)
	t.CreatedAt = createdAt.Time
	t.UpdatedAt = updatedAt.Time

	return t, nil
}
