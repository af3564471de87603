package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// TransactionUseCase orchestrates money movements: it validates business
// rules, computes fees, mutates fast-path balances and posts a matching
// ledger entry, all inside one storage transaction.
type TransactionUseCase struct {
	txManager       TransactionManager
	walletRepo      WalletRepository
	agentRepo       AgentRepository
	merchantRepo    MerchantRepository
	transactionRepo TransactionRepository
	registry        *RegistryUseCase
	ledger          *LedgerUseCase
	fees            FeeSettings
	idGen           IDGenerator
	refGen          ReferenceGenerator
	retrier         Retrier
	notifier        Notifier
	recorder        MetricsRecorder
}

// NewTransactionUseCase creates a new TransactionUseCase.
func NewTransactionUseCase(
	txManager TransactionManager,
	walletRepo WalletRepository,
	agentRepo AgentRepository,
	merchantRepo MerchantRepository,
	transactionRepo TransactionRepository,
	registry *RegistryUseCase,
	ledger *LedgerUseCase,
	fees FeeSettings,
	idGen IDGenerator,
	refGen ReferenceGenerator,
) *TransactionUseCase {
	return &TransactionUseCase{
		txManager:       txManager,
		walletRepo:      walletRepo,
		agentRepo:       agentRepo,
		merchantRepo:    merchantRepo,
		transactionRepo: transactionRepo,
		registry:        registry,
		ledger:          ledger,
		fees:            fees,
		idGen:           idGen,
		refGen:          refGen,
	}
}

// WithRetrier configures retrying of transient storage failures.
func (uc *TransactionUseCase) WithRetrier(retrier Retrier) *TransactionUseCase {
	uc.retrier = retrier
	return uc
}

// WithNotifier configures post-commit notification dispatch.
func (uc *TransactionUseCase) WithNotifier(notifier Notifier) *TransactionUseCase {
	uc.notifier = notifier
	return uc
}

// WithMetrics configures operation outcome recording.
func (uc *TransactionUseCase) WithMetrics(recorder MetricsRecorder) *TransactionUseCase {
	uc.recorder = recorder
	return uc
}

func (uc *TransactionUseCase) observe(t domain.TransactionType, currency domain.Currency, amount decimal.Decimal, start time.Time, success bool) {
	if uc.recorder == nil {
		return
	}

	status := "completed"
	if !success {
		status = "failed"
	}

	value, _ := amount.Float64()
	uc.recorder.ObserveTransaction(string(t), status, string(currency), value, time.Since(start))
}

// TransactionResult is the synchronous outcome of an orchestrated
// operation. Business-rule violations come back as Success=false with a
// bilingual message rather than as a fault.
type TransactionResult struct {
	Err             error
	TransactionID   string
	ReferenceNumber string
	LedgerEntryID   string
	Error           string
	ErrorAr         string
	Success         bool
}

func businessFailure(err error) *TransactionResult {
	return &TransactionResult{
		Success: false,
		Err:     err,
		Error:   err.Error(),
		ErrorAr: domain.ArabicMessage(err),
	}
}

// isBusinessRuleError reports whether err is a constraint the end user can
// act on, as opposed to a validation or internal fault.
func isBusinessRuleError(err error) bool {
	return errors.Is(err, domain.ErrInsufficientBalance) ||
		errors.Is(err, domain.ErrInsufficientAgentCredit) ||
		errors.Is(err, domain.ErrInsufficientAgentCash) ||
		errors.Is(err, domain.ErrAmountOutOfBounds) ||
		errors.Is(err, domain.ErrUserNotFound) ||
		errors.Is(err, domain.ErrAgentNotFound) ||
		errors.Is(err, domain.ErrMerchantNotFound)
}

// CalculateCommission computes the fee breakdown for amount under the
// configured policy for t. TRANSFER and QR_PAYMENT involve no agent, so
// the agent commission is forced to zero.
func (uc *TransactionUseCase) CalculateCommission(ctx context.Context, amount decimal.Decimal, t domain.TransactionType) (domain.Commission, error) {
	policy, err := uc.fees.Policy(ctx, t)
	if err != nil {
		return domain.Commission{}, err
	}

	agentPercent := policy.AgentCommissionPercent
	if t == domain.TransactionTransfer || t == domain.TransactionQRPayment {
		agentPercent = decimal.Zero
	}

	percentageFee := domain.RoundMoney(amount.Mul(policy.FeePercent).Div(oneHundred))
	totalFee := domain.RoundMoney(percentageFee.Add(policy.FeeFixed))
	agentFee := domain.RoundMoney(totalFee.Mul(agentPercent).Div(oneHundred))

	return domain.Commission{
		PlatformFee: totalFee.Sub(agentFee),
		AgentFee:    agentFee,
		TotalFee:    totalFee,
		NetAmount:   amount.Sub(totalFee),
	}, nil
}

func (uc *TransactionUseCase) validateAmount(ctx context.Context, amount decimal.Decimal, t domain.TransactionType, currency domain.Currency) error {
	if !domain.IsSupportedCurrency(currency) {
		return domain.ErrUnsupportedCurrency
	}

	policy, err := uc.fees.Policy(ctx, t)
	if err != nil {
		return err
	}

	return domain.ValidateAmount(amount, policy.MinAmount, policy.MaxAmount)
}

// run executes op with transient-failure retries and reference-collision
// regeneration. Every attempt starts from scratch; a failed attempt leaves
// no partial state behind.
func (uc *TransactionUseCase) run(ctx context.Context, op func() error) error {
	for attempt := 0; ; attempt++ {
		var err error
		if uc.retrier != nil {
			err = uc.retrier.Retry(ctx, op)
		} else {
			err = op()
		}

		if err == nil {
			return nil
		}

		if !errors.Is(err, domain.ErrDuplicateReference) || attempt >= ReferenceRetryLimit {
			return err
		}
	}
}

func (uc *TransactionUseCase) notify(ctx context.Context, t *domain.Transaction, userID string) {
	if uc.notifier == nil {
		return
	}

	uc.notifier.Notify(ctx, NotificationEvent{
		Type:            t.Type,
		TransactionID:   t.ID,
		ReferenceNumber: t.ReferenceNumber,
		UserID:          userID,
		Currency:        t.Currency,
		Amount:          t.Amount,
	})
}

// DepositInput represents an agent-funded cash deposit into a user wallet.
type DepositInput struct {
	UserID   string
	AgentID  string
	Currency domain.Currency
	Amount   decimal.Decimal
}

// ProcessDeposit credits a user wallet with the net amount of a cash
// deposit fronted by an agent's credit line.
func (uc *TransactionUseCase) ProcessDeposit(ctx context.Context, input DepositInput) (*TransactionResult, error) {
	start := time.Now()
	amount := domain.RoundMoney(input.Amount)

	if err := uc.validateAmount(ctx, amount, domain.TransactionDeposit, input.Currency); err != nil {
		if isBusinessRuleError(err) {
			return businessFailure(err), nil
		}
		return nil, err
	}

	commission, err := uc.CalculateCommission(ctx, amount, domain.TransactionDeposit)
	if err != nil {
		return nil, err
	}

	var result *TransactionResult

	op := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, input.UserID, input.Currency)
		if err != nil {
			return err
		}

		agent, err := uc.agentRepo.GetByIDForUpdate(ctx, tx, input.AgentID)
		if err != nil {
			return err
		}

		if agent.Credit(input.Currency).LessThan(amount) {
			return domain.NewInsufficientAgentCreditError(agent.Credit(input.Currency), input.Currency)
		}

		now := time.Now().UTC()

		transaction := uc.newTransaction(domain.TransactionDeposit, &input.UserID, &input.AgentID, amount, input.Currency, commission, now)
		transaction.Description = fmt.Sprintf("Cash deposit via agent %s", input.AgentID)
		transaction.DescriptionAr = fmt.Sprintf("إيداع نقدي عبر الوكيل %s", input.AgentID)

		if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance.Add(commission.NetAmount), wallet.FrozenBalance, now); err != nil {
			return err
		}

		agent.EnsureBalances()
		agent.CurrentCredit[input.Currency] = agent.Credit(input.Currency).Sub(amount)
		agent.CashCollected[input.Currency] = agent.Cash(input.Currency).Add(amount)
		agent.TotalDeposits[input.Currency] = agent.TotalDeposits[input.Currency].Add(amount)

		if err := uc.agentRepo.UpdateBalances(ctx, tx, agent, now); err != nil {
			return err
		}

		entry, err := uc.postEntry(ctx, tx, transaction,
			[]LineInput{
				{AccountCode: domain.AccountAgentCredits, Debit: amount},
				{AccountCode: domain.AccountUserWallets, Credit: commission.NetAmount},
				{AccountCode: domain.AccountFeesRevenue, Credit: commission.PlatformFee},
				{AccountCode: domain.AccountAgentCommission, Credit: commission.AgentFee},
			})
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransactionResult{
			Success:         true,
			TransactionID:   transaction.ID,
			ReferenceNumber: transaction.ReferenceNumber,
			LedgerEntryID:   entry.ID,
		}
		uc.notify(ctx, transaction, input.UserID)

		return nil
	}

	if err := uc.run(ctx, op); err != nil {
		if isBusinessRuleError(err) {
			uc.observe(domain.TransactionDeposit, input.Currency, amount, start, false)
			return businessFailure(err), nil
		}
		return nil, err
	}

	uc.observe(domain.TransactionDeposit, input.Currency, amount, start, true)
	return result, nil
}

// WithdrawInput represents a cash withdrawal handed over by an agent.
type WithdrawInput struct {
	UserID   string
	AgentID  string
	Currency domain.Currency
	Amount   decimal.Decimal
}

// ProcessWithdrawal debits a user wallet and moves the cash obligation to
// the agent, who is compensated in credit with the net amount.
func (uc *TransactionUseCase) ProcessWithdrawal(ctx context.Context, input WithdrawInput) (*TransactionResult, error) {
	start := time.Now()
	amount := domain.RoundMoney(input.Amount)

	if err := uc.validateAmount(ctx, amount, domain.TransactionWithdraw, input.Currency); err != nil {
		if isBusinessRuleError(err) {
			return businessFailure(err), nil
		}
		return nil, err
	}

	commission, err := uc.CalculateCommission(ctx, amount, domain.TransactionWithdraw)
	if err != nil {
		return nil, err
	}

	var result *TransactionResult

	op := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, input.UserID, input.Currency)
		if err != nil {
			return err
		}

		agent, err := uc.agentRepo.GetByIDForUpdate(ctx, tx, input.AgentID)
		if err != nil {
			return err
		}

		// Neither the user balance nor the agent cash may go negative;
		// both are checked before any mutation.
		if !wallet.CanDebit(amount) {
			return domain.NewInsufficientBalanceError(wallet.Available(), input.Currency)
		}

		if agent.Cash(input.Currency).LessThan(amount) {
			return domain.NewInsufficientAgentCashError(agent.Cash(input.Currency), input.Currency)
		}

		now := time.Now().UTC()

		transaction := uc.newTransaction(domain.TransactionWithdraw, &input.UserID, &input.AgentID, amount, input.Currency, commission, now)
		transaction.Description = fmt.Sprintf("Cash withdrawal via agent %s", input.AgentID)
		transaction.DescriptionAr = fmt.Sprintf("سحب نقدي عبر الوكيل %s", input.AgentID)

		if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance.Sub(amount), wallet.FrozenBalance, now); err != nil {
			return err
		}

		agent.EnsureBalances()
		agent.CurrentCredit[input.Currency] = agent.Credit(input.Currency).Add(commission.NetAmount)
		agent.CashCollected[input.Currency] = agent.Cash(input.Currency).Sub(amount)
		agent.TotalWithdrawals[input.Currency] = agent.TotalWithdrawals[input.Currency].Add(amount)

		if err := uc.agentRepo.UpdateBalances(ctx, tx, agent, now); err != nil {
			return err
		}

		entry, err := uc.postEntry(ctx, tx, transaction,
			[]LineInput{
				{AccountCode: domain.AccountUserWallets, Debit: amount},
				{AccountCode: domain.AccountAgentCredits, Credit: commission.NetAmount},
				{AccountCode: domain.AccountFeesRevenue, Credit: commission.PlatformFee},
				{AccountCode: domain.AccountAgentCommission, Credit: commission.AgentFee},
			})
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransactionResult{
			Success:         true,
			TransactionID:   transaction.ID,
			ReferenceNumber: transaction.ReferenceNumber,
			LedgerEntryID:   entry.ID,
		}
		uc.notify(ctx, transaction, input.UserID)

		return nil
	}

	if err := uc.run(ctx, op); err != nil {
		if isBusinessRuleError(err) {
			uc.observe(domain.TransactionWithdraw, input.Currency, amount, start, false)
			return businessFailure(err), nil
		}
		return nil, err
	}

	uc.observe(domain.TransactionWithdraw, input.Currency, amount, start, true)
	return result, nil
}

// TransferInput represents a wallet-to-wallet transfer.
type TransferInput struct {
	SenderID   string
	ReceiverID string
	Note       string
	Currency   domain.Currency
	Amount     decimal.Decimal
}

// ProcessTransfer moves money between two user wallets. The sender pays
// amount plus the transfer fee; the fee is posted to the revenue account.
// OTP confirmation happens out of band before this is invoked.
func (uc *TransactionUseCase) ProcessTransfer(ctx context.Context, input TransferInput) (*TransactionResult, error) {
	if input.SenderID == input.ReceiverID {
		return nil, domain.ErrSameParty
	}

	start := time.Now()
	amount := domain.RoundMoney(input.Amount)

	if err := uc.validateAmount(ctx, amount, domain.TransactionTransfer, input.Currency); err != nil {
		if isBusinessRuleError(err) {
			return businessFailure(err), nil
		}
		return nil, err
	}

	commission, err := uc.CalculateCommission(ctx, amount, domain.TransactionTransfer)
	if err != nil {
		return nil, err
	}

	required := amount.Add(commission.TotalFee)

	var result *TransactionResult

	op := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		// Lock both wallets in a stable order to avoid deadlocks between
		// crossing transfers.
		first, second := input.SenderID, input.ReceiverID
		if second < first {
			first, second = second, first
		}

		firstWallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, first, input.Currency)
		if err != nil {
			return err
		}

		secondWallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, second, input.Currency)
		if err != nil {
			return err
		}

		sender, receiver := firstWallet, secondWallet
		if sender.UserID != input.SenderID {
			sender, receiver = secondWallet, firstWallet
		}

		if !sender.CanDebit(required) {
			return domain.NewInsufficientBalanceError(sender.Available(), input.Currency)
		}

		now := time.Now().UTC()

		transaction := uc.newTransaction(domain.TransactionTransfer, &input.SenderID, &input.ReceiverID, amount, input.Currency, commission, now)
		transaction.Description = input.Note
		if transaction.Description == "" {
			transaction.Description = fmt.Sprintf("Transfer to %s", input.ReceiverID)
		}

		if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, sender.ID, sender.Balance.Sub(required), sender.FrozenBalance, now); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, receiver.ID, receiver.Balance.Add(amount), receiver.FrozenBalance, now); err != nil {
			return err
		}

		entry, err := uc.postEntry(ctx, tx, transaction,
			[]LineInput{
				{AccountCode: domain.AccountUserWallets, Debit: required},
				{AccountCode: domain.AccountUserWallets, Credit: amount},
				{AccountCode: domain.AccountFeesRevenue, Credit: commission.TotalFee},
			})
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransactionResult{
			Success:         true,
			TransactionID:   transaction.ID,
			ReferenceNumber: transaction.ReferenceNumber,
			LedgerEntryID:   entry.ID,
		}
		uc.notify(ctx, transaction, input.ReceiverID)

		return nil
	}

	if err := uc.run(ctx, op); err != nil {
		if isBusinessRuleError(err) {
			uc.observe(domain.TransactionTransfer, input.Currency, amount, start, false)
			return businessFailure(err), nil
		}
		return nil, err
	}

	uc.observe(domain.TransactionTransfer, input.Currency, amount, start, true)
	return result, nil
}

// QRPaymentInput represents a payment from a user wallet to a merchant.
type QRPaymentInput struct {
	PayerID    string
	MerchantID string
	Note       string
	Currency   domain.Currency
	Amount     decimal.Decimal
}

// ProcessQRPayment moves money from a payer wallet to a merchant. The
// merchant receives the net amount; with the default zero QR fee that is
// the full amount.
func (uc *TransactionUseCase) ProcessQRPayment(ctx context.Context, input QRPaymentInput) (*TransactionResult, error) {
	start := time.Now()
	amount := domain.RoundMoney(input.Amount)

	if err := uc.validateAmount(ctx, amount, domain.TransactionQRPayment, input.Currency); err != nil {
		if isBusinessRuleError(err) {
			return businessFailure(err), nil
		}
		return nil, err
	}

	commission, err := uc.CalculateCommission(ctx, amount, domain.TransactionQRPayment)
	if err != nil {
		return nil, err
	}

	var result *TransactionResult

	op := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, input.PayerID, input.Currency)
		if err != nil {
			return err
		}

		merchant, err := uc.merchantRepo.GetByIDForUpdate(ctx, tx, input.MerchantID)
		if err != nil {
			return err
		}

		if !wallet.CanDebit(amount) {
			return domain.NewInsufficientBalanceError(wallet.Available(), input.Currency)
		}

		now := time.Now().UTC()

		transaction := uc.newTransaction(domain.TransactionQRPayment, &input.PayerID, &input.MerchantID, amount, input.Currency, commission, now)
		transaction.Description = input.Note
		if transaction.Description == "" {
			transaction.Description = fmt.Sprintf("QR payment to merchant %s", input.MerchantID)
		}

		if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return err
		}

		if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance.Sub(amount), wallet.FrozenBalance, now); err != nil {
			return err
		}

		merchant.EnsureBalances()
		merchant.Balance[input.Currency] = merchant.MerchantBalance(input.Currency).Add(commission.NetAmount)
		merchant.TotalSales[input.Currency] = merchant.TotalSales[input.Currency].Add(amount)
		merchant.TotalTransactions++

		if err := uc.merchantRepo.UpdateBalances(ctx, tx, merchant, now); err != nil {
			return err
		}

		entry, err := uc.postEntry(ctx, tx, transaction,
			[]LineInput{
				{AccountCode: domain.AccountUserWallets, Debit: amount},
				{AccountCode: domain.AccountMerchantWallets, Credit: commission.NetAmount},
				{AccountCode: domain.AccountFeesRevenue, Credit: commission.TotalFee},
			})
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransactionResult{
			Success:         true,
			TransactionID:   transaction.ID,
			ReferenceNumber: transaction.ReferenceNumber,
			LedgerEntryID:   entry.ID,
		}
		uc.notify(ctx, transaction, input.PayerID)

		return nil
	}

	if err := uc.run(ctx, op); err != nil {
		if isBusinessRuleError(err) {
			uc.observe(domain.TransactionQRPayment, input.Currency, amount, start, false)
			return businessFailure(err), nil
		}
		return nil, err
	}

	uc.observe(domain.TransactionQRPayment, input.Currency, amount, start, true)
	return result, nil
}

// IssueAgentCreditInput represents a platform credit issuance to an agent.
type IssueAgentCreditInput struct {
	AgentID  string
	IssuedBy string
	Currency domain.Currency
	Amount   decimal.Decimal
}

// IssueAgentCredit funds an agent's credit line from the system reserve.
// This is the issuance point of new platform money, so the reserve takes
// the offsetting debit.
func (uc *TransactionUseCase) IssueAgentCredit(ctx context.Context, input IssueAgentCreditInput) (*TransactionResult, error) {
	start := time.Now()
	amount := domain.RoundMoney(input.Amount)

	if !domain.IsSupportedCurrency(input.Currency) {
		return nil, domain.ErrUnsupportedCurrency
	}

	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	var result *TransactionResult

	op := func() error {
		tx, err := uc.txManager.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		agent, err := uc.agentRepo.GetByIDForUpdate(ctx, tx, input.AgentID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		transaction := uc.newTransaction(domain.TransactionInternalTransfer, nil, &input.AgentID, amount, input.Currency, domain.Commission{NetAmount: amount}, now)
		transaction.Description = fmt.Sprintf("Credit issuance to agent %s", input.AgentID)
		transaction.DescriptionAr = fmt.Sprintf("إصدار رصيد للوكيل %s", input.AgentID)

		if err := uc.transactionRepo.Create(ctx, tx, transaction); err != nil {
			return err
		}

		agent.EnsureBalances()
		agent.CurrentCredit[input.Currency] = agent.Credit(input.Currency).Add(amount)

		if err := uc.agentRepo.UpdateBalances(ctx, tx, agent, now); err != nil {
			return err
		}

		entry, err := uc.postEntry(ctx, tx, transaction,
			[]LineInput{
				{AccountCode: domain.AccountSystemReserve, Debit: amount},
				{AccountCode: domain.AccountAgentCredits, Credit: amount},
			})
		if err != nil {
			return err
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}

		result = &TransactionResult{
			Success:         true,
			TransactionID:   transaction.ID,
			ReferenceNumber: transaction.ReferenceNumber,
			LedgerEntryID:   entry.ID,
		}

		return nil
	}

	if err := uc.run(ctx, op); err != nil {
		if isBusinessRuleError(err) {
			uc.observe(domain.TransactionInternalTransfer, input.Currency, amount, start, false)
			return businessFailure(err), nil
		}
		return nil, err
	}

	uc.observe(domain.TransactionInternalTransfer, input.Currency, amount, start, true)
	return result, nil
}

// FreezeFunds moves part of a wallet balance into the frozen bucket.
// Frozen funds stay inside the wallet, so no ledger entry is posted.
func (uc *TransactionUseCase) FreezeFunds(ctx context.Context, userID string, currency domain.Currency, amount decimal.Decimal) error {
	amount = domain.RoundMoney(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, userID, currency)
	if err != nil {
		return err
	}

	if !wallet.CanDebit(amount) {
		return domain.NewInsufficientBalanceError(wallet.Available(), currency)
	}

	now := time.Now().UTC()
	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance, wallet.FrozenBalance.Add(amount), now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// UnfreezeFunds releases previously frozen funds back to the spendable
// balance.
func (uc *TransactionUseCase) UnfreezeFunds(ctx context.Context, userID string, currency domain.Currency, amount decimal.Decimal) error {
	amount = domain.RoundMoney(amount)
	if amount.LessThanOrEqual(decimal.Zero) {
		return domain.ErrInvalidAmount
	}

	tx, err := uc.txManager.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	wallet, err := uc.walletRepo.GetByUserForUpdate(ctx, tx, userID, currency)
	if err != nil {
		return err
	}

	if wallet.FrozenBalance.LessThan(amount) {
		return domain.ErrInsufficientFrozen
	}

	now := time.Now().UTC()
	if err := uc.walletRepo.UpdateBalance(ctx, tx, wallet.ID, wallet.Balance, wallet.FrozenBalance.Sub(amount), now); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// GetTransaction retrieves a transaction by ID.
func (uc *TransactionUseCase) GetTransaction(ctx context.Context, id string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByID(ctx, id)
}

// GetTransactionByReference retrieves a transaction by reference number.
func (uc *TransactionUseCase) GetTransactionByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error) {
	return uc.transactionRepo.GetByReference(ctx, referenceNumber)
}

// ListTransactionsByUserInput represents input for listing transactions.
type ListTransactionsByUserInput struct {
	UserID string
	Limit  int
	Offset int
}

// ListTransactionsByUser lists transactions a user sent or received.
func (uc *TransactionUseCase) ListTransactionsByUser(ctx context.Context, input ListTransactionsByUserInput) ([]*domain.Transaction, error) {
	limit, offset := domain.ValidatePagination(input.Limit, input.Offset)
	return uc.transactionRepo.ListByUser(ctx, input.UserID, limit, offset)
}

func (uc *TransactionUseCase) newTransaction(
	t domain.TransactionType,
	senderID, receiverID *string,
	amount decimal.Decimal,
	currency domain.Currency,
	commission domain.Commission,
	now time.Time,
) *domain.Transaction {
	return &domain.Transaction{
		ID:              uc.idGen.Generate(),
		ReferenceNumber: uc.refGen.Generate(t.ReferencePrefix()),
		Type:            t,
		Status:          domain.StatusCompleted,
		SenderID:        senderID,
		ReceiverID:      receiverID,
		Amount:          amount,
		Currency:        currency,
		PlatformFee:     commission.PlatformFee,
		AgentFee:        commission.AgentFee,
		TotalFee:        commission.TotalFee,
		NetAmount:       commission.NetAmount,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// postEntry ensures the touched system accounts exist and appends the
// balanced ledger entry for transaction inside the same storage
// transaction. Zero-amount legs are dropped.
func (uc *TransactionUseCase) postEntry(ctx context.Context, tx Transaction, transaction *domain.Transaction, lines []LineInput) (*domain.LedgerEntry, error) {
	filtered := make([]LineInput, 0, len(lines))
	for _, line := range lines {
		if line.Debit.IsZero() && line.Credit.IsZero() {
			continue
		}

		if _, err := uc.registry.getOrCreate(ctx, tx, line.AccountCode); err != nil {
			return nil, err
		}

		filtered = append(filtered, line)
	}

	domainLines := make([]domain.LedgerLine, 0, len(filtered))
	for _, li := range filtered {
		domainLines = append(domainLines, domain.LedgerLine{
			AccountCode: li.AccountCode,
			Debit:       domain.RoundMoney(li.Debit),
			Credit:      domain.RoundMoney(li.Credit),
		})
	}

	totalDebit, totalCredit, err := domain.ValidateLines(domainLines)
	if err != nil {
		return nil, err
	}

	entry, err := uc.ledger.appendEntry(ctx, tx, CreateEntryInput{
		Description:   fmt.Sprintf("%s %s", transaction.Type, transaction.ReferenceNumber),
		DescriptionAr: transaction.DescriptionAr,
		Currency:      transaction.Currency,
		CreatedBy:     "orchestrator",
		TransactionID: &transaction.ID,
	}, domainLines, totalDebit, totalCredit)
	if err != nil {
		return nil, err
	}

	transaction.LedgerEntryID = &entry.ID

	return entry, nil
}
