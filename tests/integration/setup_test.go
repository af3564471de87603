package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	miniredis "github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	adaptershttp "github.com/shampay/ledger/internal/adapter/http"
	"github.com/shampay/ledger/internal/adapter/http/handler"
	postgresrepo "github.com/shampay/ledger/internal/adapter/repository/postgres"
	redisrepo "github.com/shampay/ledger/internal/adapter/repository/redis"
	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
	"github.com/shampay/ledger/tests/testutil"
)

// testEnv wires the full stack against a real database, with Redis
// replaced by an in-process miniredis for the idempotency store.
type testEnv struct {
	DB           *testutil.TestDB
	Router       http.Handler
	WalletRepo   *postgresrepo.WalletRepository
	AgentRepo    *postgresrepo.AgentRepository
	MerchantRepo *postgresrepo.MerchantRepository
	TxRepo       *postgresrepo.TransactionRepository
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	ctx := context.Background()

	testDB := testutil.NewTestDB(t)
	t.Cleanup(testDB.Cleanup)
	testDB.TruncateAll(ctx)

	pool := testDB.Pool
	txManager := postgresrepo.NewTxManager(pool)
	accountRepo := postgresrepo.NewAccountRepository(pool)
	ledgerRepo := postgresrepo.NewLedgerRepository(pool)
	transactionRepo := postgresrepo.NewTransactionRepository(pool)
	reversalRepo := postgresrepo.NewReversalRepository(pool)
	walletRepo := postgresrepo.NewWalletRepository(pool)
	agentRepo := postgresrepo.NewAgentRepository(pool)
	merchantRepo := postgresrepo.NewMerchantRepository(pool)
	settingsRepo := postgresrepo.NewSettingsRepository(pool)
	idGen := postgresrepo.NewULIDGenerator()
	refGen := postgresrepo.NewReferenceNumberGenerator()
	retrier := postgresrepo.NewRetrier()

	mr := miniredis.RunT(t)
	redisClient := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { redisClient.Close() })

	fees := usecase.NewStoredFeeSettings(settingsRepo, testFeeDefaults())

	registryUC := usecase.NewRegistryUseCase(txManager, accountRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, ledgerRepo, transactionRepo, idGen, refGen).
		WithRetrier(retrier)
	transactionUC := usecase.NewTransactionUseCase(
		txManager, walletRepo, agentRepo, merchantRepo, transactionRepo,
		registryUC, ledgerUC, fees, idGen, refGen,
	).WithRetrier(retrier)
	reversalUC := usecase.NewReversalUseCase(
		txManager, transactionRepo, reversalRepo, walletRepo, agentRepo,
		merchantRepo, ledgerRepo, ledgerUC, idGen, refGen,
	).WithRetrier(retrier)
	verifyUC := usecase.NewVerifyUseCase(accountRepo, ledgerUC)

	router := adaptershttp.NewRouter(adaptershttp.RouterConfig{
		TransactionHandler: handler.NewTransactionHandler(transactionUC, reversalUC),
		LedgerHandler:      handler.NewLedgerHandler(ledgerUC),
		AccountHandler:     handler.NewAccountHandler(registryUC),
		VerifyHandler:      handler.NewVerifyHandler(verifyUC),
		HealthHandler:      handler.NewHealthHandler(pool, redisClient),
		IdempotencyStore:   redisrepo.NewIdempotencyStore(redisClient),
		Logger:             zerolog.Nop(),
	})

	return &testEnv{
		DB:           testDB,
		Router:       router,
		WalletRepo:   walletRepo,
		AgentRepo:    agentRepo,
		MerchantRepo: merchantRepo,
		TxRepo:       transactionRepo,
	}
}

// testFeeDefaults mirrors the production defaults: 1% fee split 50/50
// with the agent, amounts bounded to [0.01, 1000000].
func testFeeDefaults() map[domain.TransactionType]usecase.FeePolicy {
	policy := usecase.FeePolicy{
		FeePercent:             decimal.NewFromInt(1),
		FeeFixed:               decimal.Zero,
		AgentCommissionPercent: decimal.NewFromInt(50),
		MinAmount:              decimal.New(1, -2),
		MaxAmount:              decimal.NewFromInt(1000000),
	}

	return map[domain.TransactionType]usecase.FeePolicy{
		domain.TransactionDeposit:   policy,
		domain.TransactionWithdraw:  policy,
		domain.TransactionTransfer:  policy,
		domain.TransactionQRPayment: policy,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("failed to encode request body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	rec := httptest.NewRecorder()
	e.Router.ServeHTTP(rec, req)
	return rec
}

func decodeJSON[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("failed to decode response %s: %v", rec.Body.String(), err)
	}
	return v
}

func (e *testEnv) countRows(t *testing.T, table string) int {
	t.Helper()

	var n int
	if err := e.DB.Pool.QueryRow(context.Background(), "SELECT count(*) FROM "+table).Scan(&n); err != nil {
		t.Fatalf("failed to count %s: %v", table, err)
	}
	return n
}
