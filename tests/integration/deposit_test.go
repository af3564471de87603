package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/tests/testutil"
)

func TestDeposit(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	t.Run("agent deposit credits wallet net of fee", func(t *testing.T) {
		env.DB.TruncateAll(ctx)

		wallet := env.DB.CreateWallet(ctx, "user-1", domain.CurrencyUSD, decimal.Zero)
		agent := env.DB.CreateAgent(ctx, "agent-user-1", domain.CurrencyUSD, decimal.NewFromInt(500))

		rec := env.do(t, http.MethodPost, "/api/v1/transactions/deposit", dto.DepositRequest{
			UserID:   "user-1",
			AgentID:  agent.ID,
			Currency: "USD",
			Amount:   decimal.NewFromInt(100),
		}, nil)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}

		result := decodeJSON[dto.TransactionResultResponse](t, rec)
		if !result.Success || result.TransactionID == "" {
			t.Fatalf("incomplete result: %+v", result)
		}

		updated, err := env.WalletRepo.GetByUser(ctx, "user-1", domain.CurrencyUSD)
		if err != nil {
			t.Fatalf("failed to load wallet: %v", err)
		}
		if !updated.Balance.Equal(decimal.NewFromFloat(99)) {
			t.Errorf("expected wallet balance 99.00, got %s", updated.Balance)
		}
		if updated.ID != wallet.ID {
			t.Errorf("expected same wallet row, got %s", updated.ID)
		}

		updatedAgent, err := env.AgentRepo.GetByID(ctx, agent.ID)
		if err != nil {
			t.Fatalf("failed to load agent: %v", err)
		}
		if !updatedAgent.Credit(domain.CurrencyUSD).Equal(decimal.NewFromInt(400)) {
			t.Errorf("expected agent credit 400, got %s", updatedAgent.Credit(domain.CurrencyUSD))
		}
		if !updatedAgent.Cash(domain.CurrencyUSD).Equal(decimal.NewFromInt(100)) {
			t.Errorf("expected agent cash 100, got %s", updatedAgent.Cash(domain.CurrencyUSD))
		}

		tx, err := env.TxRepo.GetByID(ctx, result.TransactionID)
		if err != nil {
			t.Fatalf("failed to load transaction: %v", err)
		}
		if tx.Status != domain.StatusCompleted {
			t.Errorf("expected COMPLETED status, got %s", tx.Status)
		}
		if tx.LedgerEntryID == nil || *tx.LedgerEntryID == "" {
			t.Error("expected transaction to link its ledger entry")
		}

		if got := env.countRows(t, "ledger_entries"); got != 1 {
			t.Errorf("expected 1 ledger entry, got %d", got)
		}
	})

	t.Run("insufficient agent credit leaves no residue", func(t *testing.T) {
		env.DB.TruncateAll(ctx)

		env.DB.CreateWallet(ctx, "user-1", domain.CurrencyUSD, decimal.Zero)
		agent := env.DB.CreateAgent(ctx, "agent-user-1", domain.CurrencyUSD, decimal.NewFromInt(50))

		rec := env.do(t, http.MethodPost, "/api/v1/transactions/deposit", dto.DepositRequest{
			UserID:   "user-1",
			AgentID:  agent.ID,
			Currency: "USD",
			Amount:   decimal.NewFromInt(100),
		}, nil)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}

		result := decodeJSON[dto.TransactionResultResponse](t, rec)
		if result.Success {
			t.Fatal("expected failure result")
		}
		if result.Error == "" || result.ErrorAr == "" {
			t.Errorf("expected bilingual failure messages, got %+v", result)
		}

		wallet, err := env.WalletRepo.GetByUser(ctx, "user-1", domain.CurrencyUSD)
		if err != nil {
			t.Fatalf("failed to load wallet: %v", err)
		}
		if !wallet.Balance.IsZero() {
			t.Errorf("expected untouched wallet, got %s", wallet.Balance)
		}

		if got := env.countRows(t, "ledger_entries"); got != 0 {
			t.Errorf("expected no ledger entries, got %d", got)
		}
		if got := env.countRows(t, "transactions"); got != 0 {
			t.Errorf("expected no transaction rows, got %d", got)
		}
	})

	t.Run("idempotent replay debits once", func(t *testing.T) {
		env.DB.TruncateAll(ctx)

		env.DB.CreateWallet(ctx, "user-1", domain.CurrencyUSD, decimal.Zero)
		agent := env.DB.CreateAgent(ctx, "agent-user-1", domain.CurrencyUSD, decimal.NewFromInt(500))

		req := dto.DepositRequest{
			UserID:   "user-1",
			AgentID:  agent.ID,
			Currency: "USD",
			Amount:   decimal.NewFromInt(100),
		}
		headers := map[string]string{"Idempotency-Key": "dep-" + testutil.GenerateID()}

		rec1 := env.do(t, http.MethodPost, "/api/v1/transactions/deposit", req, headers)
		if rec1.Code != http.StatusCreated {
			t.Fatalf("first request failed: %d %s", rec1.Code, rec1.Body.String())
		}
		result1 := decodeJSON[dto.TransactionResultResponse](t, rec1)

		rec2 := env.do(t, http.MethodPost, "/api/v1/transactions/deposit", req, headers)
		if rec2.Header().Get("X-Idempotency-Replay") != "true" {
			t.Fatal("expected replay marker on second request")
		}
		result2 := decodeJSON[dto.TransactionResultResponse](t, rec2)

		if result1.TransactionID != result2.TransactionID {
			t.Errorf("expected same transaction ID, got %s vs %s", result1.TransactionID, result2.TransactionID)
		}

		wallet, err := env.WalletRepo.GetByUser(ctx, "user-1", domain.CurrencyUSD)
		if err != nil {
			t.Fatalf("failed to load wallet: %v", err)
		}
		if !wallet.Balance.Equal(decimal.NewFromInt(99)) {
			t.Errorf("expected wallet credited once (99.00), got %s", wallet.Balance)
		}

		if got := env.countRows(t, "transactions"); got != 1 {
			t.Errorf("expected a single transaction row, got %d", got)
		}
	})
}
