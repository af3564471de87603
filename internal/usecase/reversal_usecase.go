package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shampay/ledger/internal/domain"
)

// ReversalUseCase produces compensating transactions and ledger entries
// for completed transactions. History is never mutated: the original row
// keeps all its financial fields and chain entry, only its status flips.
type ReversalUseCase struct {
	txManager       TransactionManager
	transactionRepo TransactionRepository
	reversalRepo    ReversalRepository
	walletRepo      WalletRepository
	agentRepo       AgentRepository
	merchantRepo    MerchantRepository
	ledgerRepo      LedgerRepository
	ledger          *LedgerUseCase
	idGen           IDGenerator
	refGen          ReferenceGenerator
	retrier         Retrier
	recorder        MetricsRecorder
}

// NewReversalUseCase creates a new ReversalUseCase.
func NewReversalUseCase(
	txManager TransactionManager,
	transactionRepo TransactionRepository,
	reversalRepo ReversalRepository,
	walletRepo WalletRepository,
	agentRepo AgentRepository,
	merchantRepo MerchantRepository,
	ledgerRepo LedgerRepository,
	ledger *LedgerUseCase,
	idGen IDGenerator,
	refGen ReferenceGenerator,
) *ReversalUseCase {
	return &ReversalUseCase{
		txManager:       txManager,
		transactionRepo: transactionRepo,
		reversalRepo:    reversalRepo,
		walletRepo:      walletRepo,
		agentRepo:       agentRepo,
		merchantRepo:    merchantRepo,
		ledgerRepo:      ledgerRepo,
		ledger:          ledger,
		idGen:           idGen,
		refGen:          refGen,
	}
}

// WithRetrier configures retrying of transient storage failures.
func (uc *ReversalUseCase) WithRetrier(retrier Retrier) *ReversalUseCase {
	uc.retrier = retrier
	return uc
}

// WithMetrics configures operation outcome recording.
func (uc *ReversalUseCase) WithMetrics(recorder MetricsRecorder) *ReversalUseCase {
	uc.recorder = recorder
	return uc
}

// ReverseInput represents input for reversing a transaction.
type ReverseInput struct {
	TransactionID string
	Reason        string
	ReasonAr      string
	ReversedBy    string
}

// ReverseResult identifies the compensating records created by a reversal.
type ReverseResult struct {
	ReversalTransactionID string
	LedgerEntryID         string
}

// Reverse creates the compensating transaction for an existing completed
// transaction: a REFUND with sender and receiver swapped, the mirrored
// ledger entry, the status flip on the original, and the immutable
// reversal link record, all in one storage transaction.
func (uc *ReversalUseCase) Reverse(ctx context.Context, input ReverseInput) (*ReverseResult, error) {
	var result *ReverseResult

	op := func() error {
		var opErr error
		result, opErr = uc.reverseOnce(ctx, input)
		return opErr
	}

	for attempt := 0; ; attempt++ {
		var err error
		if uc.retrier != nil {
			err = uc.retrier.Retry(ctx, op)
		} else {
			err = op()
		}

		if err == nil {
			if uc.recorder != nil {
				uc.recorder.ObserveReversal()
			}
			return result, nil
		}

		if !errors.Is(err, domain.ErrDuplicateReference) || attempt >= ReferenceRetryLimit {
			return nil, err
		}
	}
}

func (uc *ReversalUseCase) reverseOnce(ctx context.Context, input ReverseInput) (*ReverseResult, error) {
	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	original, err := uc.transactionRepo.GetByIDForUpdate(ctx, tx, input.TransactionID)
	if err != nil {
		return nil, err
	}

	switch original.Status {
	case domain.StatusReversed:
		return nil, domain.ErrAlreadyReversed
	case domain.StatusCompleted:
	default:
		return nil, domain.ErrNotReversible
	}

	now := time.Now().UTC()

	reversal := &domain.Transaction{
		ID:              uc.idGen.Generate(),
		ReferenceNumber: uc.refGen.Generate(domain.TransactionRefund.ReferencePrefix()),
		Type:            domain.TransactionRefund,
		Status:          domain.StatusCompleted,
		SenderID:        original.ReceiverID,
		ReceiverID:      original.SenderID,
		Amount:          original.Amount,
		Currency:        original.Currency,
		PlatformFee:     original.PlatformFee,
		AgentFee:        original.AgentFee,
		TotalFee:        original.TotalFee,
		NetAmount:       original.NetAmount,
		Description:     fmt.Sprintf("Reversal of %s: %s", original.ReferenceNumber, input.Reason),
		DescriptionAr:   fmt.Sprintf("عكس %s: %s", original.ReferenceNumber, input.ReasonAr),
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := uc.transactionRepo.Create(ctx, tx, reversal); err != nil {
		return nil, err
	}

	if err := uc.compensateBalances(ctx, tx, original, now); err != nil {
		return nil, err
	}

	var ledgerEntryID string

	if original.LedgerEntryID != nil {
		entryID, err := uc.mirrorEntry(ctx, tx, original, reversal)
		if err != nil {
			return nil, err
		}
		ledgerEntryID = entryID
	}

	// Status only; the original's financial fields and chain entry stay
	// untouched.
	if err := uc.transactionRepo.UpdateStatus(ctx, tx, original.ID, domain.StatusReversed, now); err != nil {
		return nil, err
	}

	if err := uc.reversalRepo.Create(ctx, tx, &domain.ReversalTransaction{
		ID:                    uc.idGen.Generate(),
		OriginalTransactionID: original.ID,
		ReversalTransactionID: reversal.ID,
		Reason:                input.Reason,
		ReasonAr:              input.ReasonAr,
		ReversedBy:            input.ReversedBy,
		CreatedAt:             now,
	}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &ReverseResult{
		ReversalTransactionID: reversal.ID,
		LedgerEntryID:         ledgerEntryID,
	}, nil
}

// compensateBalances undoes the fast-path balance effects of the original
// operation.
func (uc *ReversalUseCase) compensateBalances(ctx context.Context, tx Transaction, original *domain.Transaction, now time.Time) error {
	currency := original.Currency

	switch original.Type {
	case domain.TransactionDeposit:
		wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, *original.SenderID, currency)
		if err != nil {
			return err
		}

		if !wallet.CanDebit(original.NetAmount) {
			return domain.NewInsufficientBalanceError(wallet.Available(), currency)
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance.Sub(original.NetAmount), wallet.FrozenBalance, now); err != nil {
			return err
		}

		agent, err := uc.agentRepo.GetByIDForUpdate(ctx, tx, *original.ReceiverID)
		if err != nil {
			return err
		}

		agent.EnsureBalances()
		agent.CurrentCredit[currency] = agent.Credit(currency).Add(original.Amount)
		agent.CashCollected[currency] = agent.Cash(currency).Sub(original.Amount)
		agent.TotalDeposits[currency] = agent.TotalDeposits[currency].Sub(original.Amount)

		return uc.agentRepo.UpdateBalances(ctx, tx, agent, now)

	case domain.TransactionWithdraw:
		wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, *original.SenderID, currency)
		if err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance.Add(original.Amount), wallet.FrozenBalance, now); err != nil {
			return err
		}

		agent, err := uc.agentRepo.GetByIDForUpdate(ctx, tx, *original.ReceiverID)
		if err != nil {
			return err
		}

		if agent.Credit(currency).LessThan(original.NetAmount) {
			return domain.NewInsufficientAgentCreditError(agent.Credit(currency), currency)
		}

		agent.EnsureBalances()
		agent.CurrentCredit[currency] = agent.Credit(currency).Sub(original.NetAmount)
		agent.CashCollected[currency] = agent.Cash(currency).Add(original.Amount)
		agent.TotalWithdrawals[currency] = agent.TotalWithdrawals[currency].Sub(original.Amount)

		return uc.agentRepo.UpdateBalances(ctx, tx, agent, now)

	case domain.TransactionTransfer:
		receiver, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, *original.ReceiverID, currency)
		if err != nil {
			return err
		}

		if !receiver.CanDebit(original.Amount) {
			return domain.NewInsufficientBalanceError(receiver.Available(), currency)
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, receiver.ID, receiver.Balance.Sub(original.Amount), receiver.FrozenBalance, now); err != nil {
			return err
		}

		sender, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, *original.SenderID, currency)
		if err != nil {
			return err
		}

		refund := original.Amount.Add(original.TotalFee)

		return uc.walletRepo.UpdateBalance(ctx, tx, sender.ID, sender.Balance.Add(refund), sender.FrozenBalance, now)

	case domain.TransactionQRPayment:
		merchant, err := uc.merchantRepo.GetByIDForUpdate(ctx, tx, *original.ReceiverID)
		if err != nil {
			return err
		}

		if merchant.MerchantBalance(currency).LessThan(original.NetAmount) {
			return domain.NewInsufficientBalanceError(merchant.MerchantBalance(currency), currency)
		}

		merchant.EnsureBalances()
		merchant.Balance[currency] = merchant.MerchantBalance(currency).Sub(original.NetAmount)
		merchant.TotalSales[currency] = merchant.TotalSales[currency].Sub(original.Amount)

		if err := uc.merchantRepo.UpdateBalances(ctx, tx, merchant, now); err != nil {
			return err
		}

		payer, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, *original.SenderID, currency)
		if err != nil {
			return err
		}

		return uc.walletRepo.UpdateBalance(ctx, tx, payer.ID, payer.Balance.Add(original.Amount), payer.FrozenBalance, now)

	case domain.TransactionInternalTransfer:
		agent, err := uc.agentRepo.GetByIDForUpdate(ctx, tx, *original.ReceiverID)
		if err != nil {
			return err
		}

		if agent.Credit(currency).LessThan(original.Amount) {
			return domain.NewInsufficientAgentCreditError(agent.Credit(currency), currency)
		}

		agent.EnsureBalances()
		agent.CurrentCredit[currency] = agent.Credit(currency).Sub(original.Amount)

		return uc.agentRepo.UpdateBalances(ctx, tx, agent, now)

	default:
		return domain.ErrNotReversible
	}
}

// mirrorEntry appends a new ledger entry whose lines are the original
// entry's lines with debit and credit swapped per line.
func (uc *ReversalUseCase) mirrorEntry(ctx context.Context, tx Transaction, original, reversal *domain.Transaction) (string, error) {
	originalEntry, err := uc.ledgerRepo.GetByID(ctx, *original.LedgerEntryID)
	if err != nil {
		return "", err
	}

	mirrored := make([]domain.LedgerLine, 0, len(originalEntry.Lines))
	for _, line := range originalEntry.Lines {
		mirrored = append(mirrored, domain.LedgerLine{
			AccountCode: line.AccountCode,
			Debit:       line.Credit,
			Credit:      line.Debit,
		})
	}

	totalDebit, totalCredit, err := domain.ValidateLines(mirrored)
	if err != nil {
		return "", err
	}

	entry, err := uc.ledger.appendEntry(ctx, tx, CreateEntryInput{
		Description:   fmt.Sprintf("Reversal of entry %s", originalEntry.EntryNumber),
		DescriptionAr: reversal.DescriptionAr,
		Currency:      originalEntry.Currency,
		CreatedBy:     "reversal-engine",
		TransactionID: &reversal.ID,
	}, mirrored, totalDebit, totalCredit)
	if err != nil {
		return "", err
	}

	return entry.ID, nil
}
