package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
)

// entryNumberPrefix prefixes every ledger entry number.
const entryNumberPrefix = "LE-"

// LedgerUseCase is the ledger entry engine: it validates, hash-chains and
// persists balanced double-entry records.
type LedgerUseCase struct {
	txManager       TransactionManager
	accountRepo     AccountRepository
	ledgerRepo      LedgerRepository
	transactionRepo TransactionRepository
	idGen           IDGenerator
	refGen          ReferenceGenerator
	retrier         Retrier
	recorder        MetricsRecorder
}

// NewLedgerUseCase creates a new LedgerUseCase.
func NewLedgerUseCase(
	txManager TransactionManager,
	accountRepo AccountRepository,
	ledgerRepo LedgerRepository,
	transactionRepo TransactionRepository,
	idGen IDGenerator,
	refGen ReferenceGenerator,
) *LedgerUseCase {
	return &LedgerUseCase{
		txManager:       txManager,
		accountRepo:     accountRepo,
		ledgerRepo:      ledgerRepo,
		transactionRepo: transactionRepo,
		idGen:           idGen,
		refGen:          refGen,
	}
}

// WithRetrier configures retrying of transient storage failures.
func (uc *LedgerUseCase) WithRetrier(retrier Retrier) *LedgerUseCase {
	uc.retrier = retrier
	return uc
}

// WithMetrics configures operation outcome recording.
func (uc *LedgerUseCase) WithMetrics(recorder MetricsRecorder) *LedgerUseCase {
	uc.recorder = recorder
	return uc
}

// LineInput is one leg of an entry being created.
type LineInput struct {
	AccountCode string
	Debit       decimal.Decimal
	Credit      decimal.Decimal
}

// CreateEntryInput represents input for creating a ledger entry.
type CreateEntryInput struct {
	TransactionID *string
	Description   string
	DescriptionAr string
	CreatedBy     string
	Currency      domain.Currency
	Lines         []LineInput
}

// CreateEntry validates and persists a balanced double-entry record,
// chaining it to the previous entry's hash. Nothing is written when
// validation fails. The chain head is read under an exclusive lock, so
// concurrent writers produce a single totally ordered chain.
func (uc *LedgerUseCase) CreateEntry(ctx context.Context, input CreateEntryInput) (*domain.LedgerEntry, error) {
	if !domain.IsSupportedCurrency(input.Currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	lines := make([]domain.LedgerLine, 0, len(input.Lines))
	for _, li := range input.Lines {
		lines = append(lines, domain.LedgerLine{
			AccountCode: li.AccountCode,
			Debit:       domain.RoundMoney(li.Debit),
			Credit:      domain.RoundMoney(li.Credit),
		})
	}

	// Fail fast before any storage write.
	totalDebit, totalCredit, err := domain.ValidateLines(lines)
	if err != nil {
		return nil, err
	}

	var entry *domain.LedgerEntry

	op := func() error {
		var opErr error
		entry, opErr = uc.createEntryOnce(ctx, input, lines, totalDebit, totalCredit)
		return opErr
	}

	// Entry numbers are unique only probabilistically; regenerate on the
	// rare collision.
	for attempt := 0; ; attempt++ {
		if uc.retrier != nil {
			err = uc.retrier.Retry(ctx, op)
		} else {
			err = op()
		}

		if err == nil {
			return entry, nil
		}

		if !errors.Is(err, domain.ErrDuplicateReference) || attempt >= ReferenceRetryLimit {
			return nil, err
		}
	}
}

func (uc *LedgerUseCase) createEntryOnce(
	ctx context.Context,
	input CreateEntryInput,
	lines []domain.LedgerLine,
	totalDebit, totalCredit decimal.Decimal,
) (*domain.LedgerEntry, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	entry, err := uc.appendEntry(ctx, tx, input, lines, totalDebit, totalCredit)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return entry, nil
}

// appendEntry runs the chained append inside an existing transaction.
// The transaction orchestrator calls this to post an entry atomically
// with its wallet mutations.
func (uc *LedgerUseCase) appendEntry(
	ctx context.Context,
	tx Transaction,
	input CreateEntryInput,
	lines []domain.LedgerLine,
	totalDebit, totalCredit decimal.Decimal,
) (*domain.LedgerEntry, error) {
	// Critical section: the chain has a single global order.
	previousHash, err := uc.ledgerRepo.LastHashForUpdate(ctx, tx)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	entryNumber := uc.refGen.Generate(entryNumberPrefix)

	entry := &domain.LedgerEntry{
		ID:            uc.idGen.Generate(),
		EntryNumber:   entryNumber,
		Description:   input.Description,
		DescriptionAr: input.DescriptionAr,
		Currency:      input.Currency,
		PreviousHash:  previousHash,
		Hash:          domain.ComputeHash(entryNumber, input.Description, lines, previousHash, now),
		TotalDebit:    totalDebit,
		TotalCredit:   totalCredit,
		CreatedBy:     input.CreatedBy,
		TransactionID: input.TransactionID,
		CreatedAt:     now,
	}

	for i := range lines {
		lines[i].ID = uc.idGen.Generate()
		lines[i].EntryID = entry.ID
	}
	entry.Lines = lines

	if err := uc.ledgerRepo.CreateEntry(ctx, tx, entry); err != nil {
		return nil, err
	}

	// Apply each line's signed delta to its account. A missing account is
	// fatal to the whole entry.
	for _, line := range lines {
		account, err := uc.accountRepo.GetByCodeForUpdate(ctx, tx, line.AccountCode)
		if err != nil {
			return nil, err
		}

		delta := account.Type.BalanceDelta(line.Debit, line.Credit)
		if err := uc.accountRepo.AdjustBalance(ctx, tx, line.AccountCode, input.Currency, delta, now); err != nil {
			return nil, err
		}
	}

	if input.TransactionID != nil {
		if err := uc.transactionRepo.SetLedgerEntry(ctx, tx, *input.TransactionID, entry.ID); err != nil {
			return nil, err
		}
	}

	if err := uc.ledgerRepo.SetLastHash(ctx, tx, entry.Hash, now); err != nil {
		return nil, err
	}

	if uc.recorder != nil {
		uc.recorder.ObserveEntryAppended()
	}

	return entry, nil
}

// GetEntry retrieves a ledger entry with its lines by ID.
func (uc *LedgerUseCase) GetEntry(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	return uc.ledgerRepo.GetByID(ctx, id)
}

// GetEntryByNumber retrieves a ledger entry by its entry number.
func (uc *LedgerUseCase) GetEntryByNumber(ctx context.Context, entryNumber string) (*domain.LedgerEntry, error) {
	return uc.ledgerRepo.GetByNumber(ctx, entryNumber)
}

// ListEntriesInput represents input for listing entries in chain order.
type ListEntriesInput struct {
	Limit  int
	Offset int
}

// ListEntries lists ledger entries in chain order.
func (uc *LedgerUseCase) ListEntries(ctx context.Context, input ListEntriesInput) ([]*domain.LedgerEntry, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.ledgerRepo.ListChain(ctx, limit, offset)
}

// ChainReport is the result of a full hash-chain walk.
type ChainReport struct {
	BrokenAt     string
	EntriesTotal int
	Valid        bool
}

// VerifyChain walks the whole chain oldest-first, recomputing each hash
// and checking the previous-hash linkage and per-entry balance. It only
// reports; a broken chain is an operational incident, never auto-fixed.
func (uc *LedgerUseCase) VerifyChain(ctx context.Context) (*ChainReport, error) {
	report := &ChainReport{Valid: true}
	previousHash := domain.GenesisHash

	for offset := 0; ; offset += ChainVerifyPageSize {
		entries, err := uc.ledgerRepo.ListChain(ctx, ChainVerifyPageSize, offset)
		if err != nil {
			return nil, err
		}

		if len(entries) == 0 {
			uc.observeChain(report.Valid)
			return report, nil
		}

		for _, entry := range entries {
			report.EntriesTotal++

			if entry.PreviousHash != previousHash || !entry.VerifyHash() {
				report.Valid = false
				report.BrokenAt = entry.EntryNumber
				uc.observeChain(false)
				return report, nil
			}

			if _, _, err := domain.ValidateLines(entry.Lines); err != nil {
				report.Valid = false
				report.BrokenAt = entry.EntryNumber
				uc.observeChain(false)
				return report, nil
			}

			previousHash = entry.Hash
		}
	}
}

func (uc *LedgerUseCase) observeChain(valid bool) {
	if uc.recorder != nil {
		uc.recorder.ObserveChainVerification(valid)
	}
}
