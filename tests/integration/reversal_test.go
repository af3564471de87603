package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/domain"
)

func TestReverseDeposit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.DB.TruncateAll(ctx)

	env.DB.CreateWallet(ctx, "user-1", domain.CurrencyUSD, decimal.Zero)
	agent := env.DB.CreateAgent(ctx, "agent-user-1", domain.CurrencyUSD, decimal.NewFromInt(500))

	rec := env.do(t, http.MethodPost, "/api/v1/transactions/deposit", dto.DepositRequest{
		UserID:   "user-1",
		AgentID:  agent.ID,
		Currency: "USD",
		Amount:   decimal.NewFromInt(100),
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}
	deposit := decodeJSON[dto.TransactionResultResponse](t, rec)

	rec = env.do(t, http.MethodPost, "/api/v1/transactions/"+deposit.TransactionID+"/reverse", dto.ReverseTransactionRequest{
		Reason:     "customer dispute",
		ReversedBy: "admin-1",
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("reversal failed: %d %s", rec.Code, rec.Body.String())
	}

	reversal := decodeJSON[dto.ReverseResultResponse](t, rec)
	if reversal.ReversalTransactionID == "" {
		t.Fatal("expected reversal transaction ID")
	}

	wallet, err := env.WalletRepo.GetByUser(ctx, "user-1", domain.CurrencyUSD)
	if err != nil {
		t.Fatalf("failed to load wallet: %v", err)
	}
	if !wallet.Balance.IsZero() {
		t.Errorf("expected wallet restored to 0, got %s", wallet.Balance)
	}

	updatedAgent, err := env.AgentRepo.GetByID(ctx, agent.ID)
	if err != nil {
		t.Fatalf("failed to load agent: %v", err)
	}
	if !updatedAgent.Credit(domain.CurrencyUSD).Equal(decimal.NewFromInt(500)) {
		t.Errorf("expected agent credit restored to 500, got %s", updatedAgent.Credit(domain.CurrencyUSD))
	}
	if !updatedAgent.Cash(domain.CurrencyUSD).IsZero() {
		t.Errorf("expected agent cash restored to 0, got %s", updatedAgent.Cash(domain.CurrencyUSD))
	}

	original, err := env.TxRepo.GetByID(ctx, deposit.TransactionID)
	if err != nil {
		t.Fatalf("failed to load original transaction: %v", err)
	}
	if original.Status != domain.StatusReversed {
		t.Errorf("expected REVERSED status, got %s", original.Status)
	}

	if got := env.countRows(t, "ledger_entries"); got != 2 {
		t.Errorf("expected original plus mirror entry, got %d", got)
	}

	// Second reversal of the same transaction must be rejected.
	rec = env.do(t, http.MethodPost, "/api/v1/transactions/"+deposit.TransactionID+"/reverse", dto.ReverseTransactionRequest{
		Reason:     "duplicate",
		ReversedBy: "admin-1",
	}, nil)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 on double reversal, got %d: %s", rec.Code, rec.Body.String())
	}
}
