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

// LedgerRepository implements usecase.LedgerRepository. The hash chain
// head lives in a single-row ledger_chain table; locking that row
// serializes all entry writers.
type LedgerRepository struct {
	pool *pgxpool.Pool
}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository(pool *pgxpool.Pool) *LedgerRepository {
	return &LedgerRepository{pool: pool}
}

// CreateEntry persists an entry header and its lines.
func (r *LedgerRepository) CreateEntry(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`INSERT INTO ledger_entries
		 (id, entry_number, description, description_ar, currency, hash, previous_hash,
		  total_debit, total_credit, created_by, transaction_id, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		entry.ID, entry.EntryNumber, entry.Description, entry.DescriptionAr, string(entry.Currency),
		entry.Hash, entry.PreviousHash, decimalToNumeric(entry.TotalDebit), decimalToNumeric(entry.TotalCredit),
		entry.CreatedBy, entry.TransactionID, timeToPgTimestamptz(entry.CreatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateReference
		}
		return fmt.Errorf("insert ledger entry: %w", err)
	}

	// line_no preserves input order; the entry hash depends on it.
	for i, line := range entry.Lines {
		_, err := pgxTx.Exec(ctx,
			`INSERT INTO ledger_lines (id, entry_id, line_no, account_code, debit, credit)
			 VALUES ($1, $2, $3, $4, $5, $6)`,
			line.ID, line.EntryID, i, line.AccountCode,
			decimalToNumeric(line.Debit), decimalToNumeric(line.Credit),
		)
		if err != nil {
			return fmt.Errorf("insert ledger line: %w", err)
		}
	}

	return nil
}

// LastHashForUpdate reads the chain head hash under an exclusive lock.
func (r *LedgerRepository) LastHashForUpdate(ctx context.Context, tx usecase.Transaction) (string, error) {
	pgxTx := tx.(*Tx).PgxTx()

	var lastHash string

	err := pgxTx.QueryRow(ctx,
		`SELECT last_hash FROM ledger_chain WHERE id = 1 FOR UPDATE`).Scan(&lastHash)
	if err != nil {
		return "", fmt.Errorf("lock chain head: %w", err)
	}

	return lastHash, nil
}

// SetLastHash advances the chain head.
func (r *LedgerRepository) SetLastHash(ctx context.Context, tx usecase.Transaction, hash string, updatedAt time.Time) error {
	pgxTx := tx.(*Tx).PgxTx()

	_, err := pgxTx.Exec(ctx,
		`UPDATE ledger_chain SET last_hash = $1, updated_at = $2 WHERE id = 1`,
		hash, timeToPgTimestamptz(updatedAt),
	)
	if err != nil {
		return fmt.Errorf("set chain head: %w", err)
	}

	return nil
}

const entryColumns = `id, entry_number, description, description_ar, currency, hash, previous_hash,
	total_debit, total_credit, created_by, transaction_id, created_at`

// GetByID retrieves an entry with its lines.
func (r *LedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return r.getEntry(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE id = $1`, id)
}

// GetByNumber retrieves an entry by entry number with its lines.
func (r *LedgerRepository) GetByNumber(ctx context.Context, entryNumber string) (*domain.LedgerEntry, error) {
	return r.getEntry(ctx, `SELECT `+entryColumns+` FROM ledger_entries WHERE entry_number = $1`, entryNumber)
}

func (r *LedgerRepository) getEntry(ctx context.Context, query, arg string) (*domain.LedgerEntry, error) {
	entry, err := scanEntry(r.pool.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrEntryNotFound
		}
		return nil, fmt.Errorf("get ledger entry: %w", err)
	}

	if err := r.loadLines(ctx, entry); err != nil {
		return nil, err
	}

	return entry, nil
}

// ListChain returns entries with lines in chain order, oldest first.
func (r *LedgerRepository) ListChain(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+entryColumns+` FROM ledger_entries ORDER BY seq LIMIT $1 OFFSET $2`,
		int32(limit), int32(offset),
	)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var entries []*domain.LedgerEntry

	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}

		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	for _, entry := range entries {
		if err := r.loadLines(ctx, entry); err != nil {
			return nil, err
		}
	}

	return entries, nil
}

func (r *LedgerRepository) loadLines(ctx context.Context, entry *domain.LedgerEntry) error {
	rows, err := r.pool.Query(ctx,
		`SELECT id, entry_id, account_code, debit, credit
		 FROM ledger_lines WHERE entry_id = $1 ORDER BY line_no`,
		entry.ID,
	)
	if err != nil {
		return fmt.Errorf("get ledger lines: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var line domain.LedgerLine
		var debit, credit pgtype.Numeric

		if err := rows.Scan(&line.ID, &line.EntryID, &line.AccountCode, &debit, &credit); err != nil {
			return fmt.Errorf("scan ledger line: %w", err)
		}

		line.Debit = numericToDecimal(debit)
		line.Credit = numericToDecimal(credit)
		entry.Lines = append(entry.Lines, line)
	}

	return rows.Err()
}

func scanEntry(row pgx.Row) (*domain.LedgerEntry, error) {
	entry := &domain.LedgerEntry{}

	var currency string
	var totalDebit, totalCredit pgtype.Numeric
	var createdAt pgtype.Timestamptz

	err := row.Scan(
		&entry.ID, &entry.EntryNumber, &entry.Description, &entry.DescriptionAr, &currency,
		&entry.Hash, &entry.PreviousHash, &totalDebit, &totalCredit,
		&entry.CreatedBy, &entry.TransactionID, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	entry.Currency = domain.Currency(currency)
	entry.TotalDebit = numericToDecimal(totalDebit)
	entry.TotalCredit = numericToDecimal(totalCredit)
	entry.CreatedAt = createdAt.Time

	return entry, nil
}
