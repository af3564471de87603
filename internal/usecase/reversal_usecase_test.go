package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
	"github.com/shampay/ledger/internal/usecase/mocks"
)

type reversalFixture struct {
	*orchestratorFixture
	reversalRepo *mocks.MockReversalRepository
	reversal     *usecase.ReversalUseCase
}

func newReversalFixture() *reversalFixture {
	base := newOrchestratorFixture()
	reversalRepo := mocks.NewMockReversalRepository()

	ledger := usecase.NewLedgerUseCase(base.txMgr, base.accountRepo, base.ledgerRepo, base.txRepo, base.idGen, base.refGen)

	return &reversalFixture{
		orchestratorFixture: base,
		reversalRepo:        reversalRepo,
		reversal: usecase.NewReversalUseCase(
			base.txMgr, base.txRepo, reversalRepo, base.walletRepo, base.agentRepo,
			base.merchantRepo, base.ledgerRepo, ledger, base.idGen, base.refGen,
		),
	}
}

func TestReversalUseCase_ReverseDeposit(t *testing.T) {
	f := newReversalFixture()
	f.seedWallet("user-1", domain.CurrencyUSD, decimal.Zero)
	f.seedAgent("agent-1", domain.CurrencyUSD, decimal.NewFromInt(500), decimal.Zero)

	deposit, err := f.uc.ProcessDeposit(context.Background(), usecase.DepositInput{
		UserID:   "user-1",
		AgentID:  "agent-1",
		Currency: domain.CurrencyUSD,
		Amount:   decimal.NewFromInt(100),
	})
	if err != nil || !deposit.Success {
		t.Fatalf("deposit failed: %v %+v", err, deposit)
	}

	result, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: deposit.TransactionID,
		Reason:        "customer dispute",
		ReasonAr:      "نزاع العميل",
		ReversedBy:    "admin-1",
	})
	if err != nil {
		t.Fatalf("reverse failed: %v", err)
	}
	if result.ReversalTransactionID == "" || result.LedgerEntryID == "" {
		t.Fatalf("incomplete reversal result: %+v", result)
	}

	// Fast-path balances are restored.
	wallet, _ := f.walletRepo.GetByUser(context.Background(), "user-1", domain.CurrencyUSD)
	if !wallet.Balance.IsZero() {
		t.Errorf("expected wallet balance 0, got %s", wallet.Balance)
	}

	agent, _ := f.agentRepo.GetByID(context.Background(), "agent-1")
	if !agent.Credit(domain.CurrencyUSD).Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected agent credit restored to 500, got %s", agent.Credit(domain.CurrencyUSD))
	}
	if !agent.Cash(domain.CurrencyUSD).IsZero() {
		t.Errorf("expected agent cash 0, got %s", agent.Cash(domain.CurrencyUSD))
	}

	// The original keeps its entry; a mirrored entry is appended.
	entries := f.ledgerRepo.Entries()
	if len(entries) != 2 {
		t.Fatalf("expected 2 ledger entries, got %d", len(entries))
	}

	original, mirror := entries[0], entries[1]
	if len(mirror.Lines) != len(original.Lines) {
		t.Fatalf("mirror has %d lines, original %d", len(mirror.Lines), len(original.Lines))
	}
	for i, line := range mirror.Lines {
		if !line.Debit.Equal(original.Lines[i].Credit) || !line.Credit.Equal(original.Lines[i].Debit) {
			t.Errorf("line %d not mirrored: %+v vs %+v", i, line, original.Lines[i])
		}
	}
	if mirror.PreviousHash != original.Hash {
		t.Error("mirror entry does not extend the chain")
	}

	// Status flipped, financial fields untouched.
	reversed, _ := f.txRepo.GetByID(context.Background(), deposit.TransactionID)
	if reversed.Status != domain.StatusReversed {
		t.Errorf("expected REVERSED, got %s", reversed.Status)
	}
	if !reversed.Amount.Equal(decimal.NewFromInt(100)) {
		t.Error("original amount mutated by reversal")
	}

	link, err := f.reversalRepo.GetByOriginal(context.Background(), deposit.TransactionID)
	if err != nil {
		t.Fatalf("reversal link not created: %v", err)
	}
	if link.ReversedBy != "admin-1" || link.Reason != "customer dispute" {
		t.Errorf("unexpected link record: %+v", link)
	}

	t.Run("second reversal rejected", func(t *testing.T) {
		_, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
			TransactionID: deposit.TransactionID,
			Reason:        "again",
		})
		if !errors.Is(err, domain.ErrAlreadyReversed) {
			t.Errorf("expected ErrAlreadyReversed, got %v", err)
		}
	})
}

func TestReversalUseCase_ReverseDeposit_SparseAgentMaps(t *testing.T) {
	f := newReversalFixture()
	f.seedWallet("user-1", domain.CurrencyUSD, decimal.NewFromInt(99))

	// Counter maps start nil on a profile that has never taken a deposit
	// through this process.
	f.agentRepo.Create(context.Background(), &domain.AgentProfile{
		ID:            "agent-1",
		UserID:        "user-agent-1",
		CurrentCredit: map[domain.Currency]decimal.Decimal{domain.CurrencyUSD: decimal.NewFromInt(400)},
		CashCollected: map[domain.Currency]decimal.Decimal{domain.CurrencyUSD: decimal.NewFromInt(100)},
	})

	userID, agentID := "user-1", "agent-1"
	now := time.Now().UTC()
	original := &domain.Transaction{
		ID:              "tx-dep-1",
		ReferenceNumber: "DEP-SEED01",
		Type:            domain.TransactionDeposit,
		Status:          domain.StatusCompleted,
		SenderID:        &userID,
		ReceiverID:      &agentID,
		Amount:          decimal.NewFromInt(100),
		NetAmount:       decimal.NewFromInt(99),
		TotalFee:        decimal.NewFromInt(1),
		Currency:        domain.CurrencyUSD,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.txRepo.Create(context.Background(), nil, original); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if _, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: "tx-dep-1",
		Reason:        "agent error",
	}); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	agent, _ := f.agentRepo.GetByID(context.Background(), "agent-1")
	if !agent.Credit(domain.CurrencyUSD).Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected agent credit 500, got %s", agent.Credit(domain.CurrencyUSD))
	}
	if !agent.Cash(domain.CurrencyUSD).IsZero() {
		t.Errorf("expected agent cash 0, got %s", agent.Cash(domain.CurrencyUSD))
	}
}

func TestReversalUseCase_ReverseTransfer(t *testing.T) {
	f := newReversalFixture()
	f.seedWallet("alice", domain.CurrencyUSD, decimal.NewFromInt(200))
	f.seedWallet("bob", domain.CurrencyUSD, decimal.Zero)

	transfer, err := f.uc.ProcessTransfer(context.Background(), usecase.TransferInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Currency:   domain.CurrencyUSD,
		Amount:     decimal.NewFromInt(100),
	})
	if err != nil || !transfer.Success {
		t.Fatalf("transfer failed: %v %+v", err, transfer)
	}

	if _, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: transfer.TransactionID,
		Reason:        "sent to wrong person",
		ReversedBy:    "support-1",
	}); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	// Sender gets amount plus fee back; receiver gives the amount up.
	alice, _ := f.walletRepo.GetByUser(context.Background(), "alice", domain.CurrencyUSD)
	if !alice.Balance.Equal(decimal.NewFromInt(200)) {
		t.Errorf("expected alice restored to 200, got %s", alice.Balance)
	}

	bob, _ := f.walletRepo.GetByUser(context.Background(), "bob", domain.CurrencyUSD)
	if !bob.Balance.IsZero() {
		t.Errorf("expected bob back to 0, got %s", bob.Balance)
	}
}

func TestReversalUseCase_ReverseTransfer_ReceiverSpentFunds(t *testing.T) {
	f := newReversalFixture()
	f.seedWallet("alice", domain.CurrencyUSD, decimal.NewFromInt(200))
	f.seedWallet("bob", domain.CurrencyUSD, decimal.Zero)
	f.seedWallet("carol", domain.CurrencyUSD, decimal.Zero)

	transfer, err := f.uc.ProcessTransfer(context.Background(), usecase.TransferInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Currency:   domain.CurrencyUSD,
		Amount:     decimal.NewFromInt(100),
	})
	if err != nil || !transfer.Success {
		t.Fatalf("transfer failed: %v %+v", err, transfer)
	}

	// Bob spends most of the money before the reversal lands.
	spend, err := f.uc.ProcessTransfer(context.Background(), usecase.TransferInput{
		SenderID:   "bob",
		ReceiverID: "carol",
		Currency:   domain.CurrencyUSD,
		Amount:     decimal.NewFromInt(90),
	})
	if err != nil || !spend.Success {
		t.Fatalf("spend failed: %v %+v", err, spend)
	}

	_, err = f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: transfer.TransactionID,
		Reason:        "fraud",
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected ErrInsufficientBalance, got %v", err)
	}

	// The failed reversal must leave everything untouched.
	original, _ := f.txRepo.GetByID(context.Background(), transfer.TransactionID)
	if original.Status != domain.StatusCompleted {
		t.Errorf("status changed by failed reversal: %s", original.Status)
	}
	if len(f.ledgerRepo.Entries()) != 2 {
		t.Error("mirror entry persisted despite failed reversal")
	}
}

func TestReversalUseCase_ReverseQRPayment(t *testing.T) {
	f := newReversalFixture()
	f.seedWallet("payer", domain.CurrencyUSD, decimal.NewFromInt(100))
	f.seedMerchant("merchant-1")

	payment, err := f.uc.ProcessQRPayment(context.Background(), usecase.QRPaymentInput{
		PayerID:    "payer",
		MerchantID: "merchant-1",
		Currency:   domain.CurrencyUSD,
		Amount:     decimal.NewFromInt(50),
	})
	if err != nil || !payment.Success {
		t.Fatalf("payment failed: %v %+v", err, payment)
	}

	if _, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: payment.TransactionID,
		Reason:        "order cancelled",
	}); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	payer, _ := f.walletRepo.GetByUser(context.Background(), "payer", domain.CurrencyUSD)
	if !payer.Balance.Equal(decimal.NewFromInt(100)) {
		t.Errorf("expected payer restored to 100, got %s", payer.Balance)
	}

	merchant, _ := f.merchantRepo.GetByID(context.Background(), "merchant-1")
	if !merchant.MerchantBalance(domain.CurrencyUSD).IsZero() {
		t.Errorf("expected merchant back to 0, got %s", merchant.MerchantBalance(domain.CurrencyUSD))
	}
}

func TestReversalUseCase_RecordsMetrics(t *testing.T) {
	f := newReversalFixture()
	rec := mocks.NewMockMetricsRecorder()
	f.reversal.WithMetrics(rec)

	f.seedWallet("alice", domain.CurrencyUSD, decimal.NewFromInt(200))
	f.seedWallet("bob", domain.CurrencyUSD, decimal.Zero)

	transfer, err := f.uc.ProcessTransfer(context.Background(), usecase.TransferInput{
		SenderID:   "alice",
		ReceiverID: "bob",
		Currency:   domain.CurrencyUSD,
		Amount:     decimal.NewFromInt(100),
	})
	if err != nil || !transfer.Success {
		t.Fatalf("transfer failed: %v %+v", err, transfer)
	}

	if _, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: transfer.TransactionID,
		Reason:        "requested by sender",
	}); err != nil {
		t.Fatalf("reverse failed: %v", err)
	}

	if rec.Reversals != 1 {
		t.Errorf("expected 1 reversal observation, got %d", rec.Reversals)
	}
}

func TestReversalUseCase_OnlyCompletedReversible(t *testing.T) {
	f := newReversalFixture()

	now := time.Now().UTC()
	pending := &domain.Transaction{
		ID:              "tx-pending",
		ReferenceNumber: "TRF-PENDING",
		Type:            domain.TransactionTransfer,
		Status:          domain.StatusPending,
		Currency:        domain.CurrencyUSD,
		Amount:          decimal.NewFromInt(10),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := f.txRepo.Create(context.Background(), nil, pending); err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	_, err := f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: "tx-pending",
		Reason:        "test",
	})
	if !errors.Is(err, domain.ErrNotReversible) {
		t.Errorf("expected ErrNotReversible, got %v", err)
	}

	_, err = f.reversal.Reverse(context.Background(), usecase.ReverseInput{
		TransactionID: "tx-missing",
		Reason:        "test",
	})
	if !errors.Is(err, domain.ErrTransactionNotFound) {
		t.Errorf("expected ErrTransactionNotFound, got %v", err)
	}
}
