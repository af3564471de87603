package integration

import (
	"context"
	"net/http"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/adapter/http/dto"
	"github.com/shampay/ledger/internal/domain"
)

func TestSolvencyAndChainVerification(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	env.DB.TruncateAll(ctx)

	env.DB.CreateWallet(ctx, "alice", domain.CurrencyUSD, decimal.Zero)
	env.DB.CreateWallet(ctx, "bob", domain.CurrencyUSD, decimal.Zero)
	agent := env.DB.CreateAgent(ctx, "agent-user-1", domain.CurrencyUSD, decimal.Zero)

	// Issue credit, deposit and transfer; every operation is double-entry
	// so the reserve must offset all other balances throughout.
	rec := env.do(t, http.MethodPost, "/api/v1/agents/credit", dto.IssueAgentCreditRequest{
		AgentID:  agent.ID,
		IssuedBy: "treasury-1",
		Currency: "USD",
		Amount:   decimal.NewFromInt(1000),
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("credit issuance failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/transactions/deposit", dto.DepositRequest{
		UserID:   "alice",
		AgentID:  agent.ID,
		Currency: "USD",
		Amount:   decimal.NewFromInt(300),
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("deposit failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodPost, "/api/v1/transactions/transfer", dto.TransferRequest{
		SenderID:   "alice",
		ReceiverID: "bob",
		Currency:   "USD",
		Amount:     decimal.NewFromInt(100),
	}, nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("transfer failed: %d %s", rec.Code, rec.Body.String())
	}

	rec = env.do(t, http.MethodGet, "/api/v1/ledger/verify", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("solvency check failed: %d %s", rec.Code, rec.Body.String())
	}

	report := decodeJSON[dto.BalanceReportResponse](t, rec)
	if !report.IsBalanced {
		t.Fatalf("expected balanced system, got %+v", report)
	}
	usd, ok := report.PerCurrency["USD"]
	if !ok {
		t.Fatal("expected USD section in report")
	}
	if !usd.SystemReserve.Equal(decimal.NewFromInt(-1000)) {
		t.Errorf("expected reserve -1000, got %s", usd.SystemReserve)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/ledger/chain/verify", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chain check failed: %d %s", rec.Code, rec.Body.String())
	}

	chain := decodeJSON[dto.ChainReportResponse](t, rec)
	if !chain.Valid {
		t.Fatalf("expected valid chain, got %+v", chain)
	}
	if chain.EntriesTotal != 3 {
		t.Errorf("expected 3 entries in chain, got %d", chain.EntriesTotal)
	}

	// Tamper with a stored line; the recomputed hash must expose it.
	_, err := env.DB.Pool.Exec(ctx, `UPDATE ledger_lines SET debit = debit + 100, credit = credit + 100 WHERE entry_id = (SELECT id FROM ledger_entries ORDER BY seq LIMIT 1)`)
	if err != nil {
		t.Fatalf("failed to tamper with ledger: %v", err)
	}

	rec = env.do(t, http.MethodGet, "/api/v1/ledger/chain/verify", nil, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("chain check failed: %d %s", rec.Code, rec.Body.String())
	}

	chain = decodeJSON[dto.ChainReportResponse](t, rec)
	if chain.Valid {
		t.Fatal("expected tampered chain to fail verification")
	}
	if chain.BrokenAt == "" {
		t.Error("expected the broken entry number to be reported")
	}
}
