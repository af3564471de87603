package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	httpAdapter "github.com/shampay/ledger/internal/adapter/http"
	"github.com/shampay/ledger/internal/adapter/http/handler"
	"github.com/shampay/ledger/internal/adapter/http/middleware"
	postgresRepo "github.com/shampay/ledger/internal/adapter/repository/postgres"
	redisRepo "github.com/shampay/ledger/internal/adapter/repository/redis"
	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/infrastructure/config"
	"github.com/shampay/ledger/internal/infrastructure/metrics"
	"github.com/shampay/ledger/internal/infrastructure/notify"
	"github.com/shampay/ledger/internal/infrastructure/postgres"
	"github.com/shampay/ledger/internal/infrastructure/redis"
	"github.com/shampay/ledger/internal/usecase"
)

func main() {
	// Setup logger
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	if cfg.LogFormat != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}

	// Setup log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	ctx := context.Background()

	// Run migrations
	if err := postgres.RunMigrations(cfg.DatabaseURL, cfg.MigrationsPath); err != nil {
		log.Fatal().Err(err).Msg("failed to run migrations")
	}

	// Connect to PostgreSQL
	pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, cfg.DatabaseMaxConns, cfg.DatabaseMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to postgres")
	}
	defer pool.Close()
	log.Info().Msg("connected to postgres")

	// Connect to Redis
	redisClient, err := redis.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("connected to redis")

	// Initialize repositories
	txManager := postgresRepo.NewTxManager(pool)
	accountRepo := postgresRepo.NewAccountRepository(pool)
	ledgerRepo := postgresRepo.NewLedgerRepository(pool)
	transactionRepo := postgresRepo.NewTransactionRepository(pool)
	reversalRepo := postgresRepo.NewReversalRepository(pool)
	walletRepo := postgresRepo.NewWalletRepository(pool)
	agentRepo := postgresRepo.NewAgentRepository(pool)
	merchantRepo := postgresRepo.NewMerchantRepository(pool)
	settingsRepo := postgresRepo.NewSettingsRepository(pool)
	idempotencyStore := redisRepo.NewIdempotencyStore(redisClient)
	idGen := postgresRepo.NewULIDGenerator()
	refGen := postgresRepo.NewReferenceNumberGenerator()
	retrier := postgresRepo.NewRetrier()

	feeDefaults, err := feeDefaultsFromConfig(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid fee configuration")
	}
	fees := usecase.NewStoredFeeSettings(settingsRepo, feeDefaults)

	notifier := notify.NewRedisNotifier(redisClient, log.Logger)
	m := metrics.New()

	// Initialize use cases
	registryUC := usecase.NewRegistryUseCase(txManager, accountRepo, idGen)
	ledgerUC := usecase.NewLedgerUseCase(txManager, accountRepo, ledgerRepo, transactionRepo, idGen, refGen).
		WithRetrier(retrier).WithMetrics(m)
	transactionUC := usecase.NewTransactionUseCase(
		txManager, walletRepo, agentRepo, merchantRepo, transactionRepo,
		registryUC, ledgerUC, fees, idGen, refGen,
	).WithRetrier(retrier).WithNotifier(notifier).WithMetrics(m)
	reversalUC := usecase.NewReversalUseCase(
		txManager, transactionRepo, reversalRepo, walletRepo, agentRepo,
		merchantRepo, ledgerRepo, ledgerUC, idGen, refGen,
	).WithRetrier(retrier).WithMetrics(m)
	verifyUC := usecase.NewVerifyUseCase(accountRepo, ledgerUC)

	// Initialize handlers
	transactionHandler := handler.NewTransactionHandler(transactionUC, reversalUC)
	ledgerHandler := handler.NewLedgerHandler(ledgerUC)
	accountHandler := handler.NewAccountHandler(registryUC)
	verifyHandler := handler.NewVerifyHandler(verifyUC)
	healthHandler := handler.NewHealthHandler(pool, redisClient)

	rateLimiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go func() {
		ticker := time.NewTicker(10 * time.Minute)
		defer ticker.Stop()
		for range ticker.C {
			rateLimiter.Cleanup(time.Hour)
		}
	}()

	// Create router
	router := httpAdapter.NewRouter(httpAdapter.RouterConfig{
		TransactionHandler: transactionHandler,
		LedgerHandler:      ledgerHandler,
		AccountHandler:     accountHandler,
		VerifyHandler:      verifyHandler,
		HealthHandler:      healthHandler,
		IdempotencyStore:   idempotencyStore,
		RateLimiter:        rateLimiter,
		Logger:             log.Logger,
	})

	// Export solvency gauges in the background
	pollCtx, stopPolling := context.WithCancel(ctx)
	defer stopPolling()
	go pollSolvency(pollCtx, verifyUC, m)

	// Create server
	server := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  cfg.HTTPReadTimeout,
		WriteTimeout: cfg.HTTPWriteTimeout,
		IdleTimeout:  cfg.HTTPIdleTimeout,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

// feeDefaultsFromConfig parses the configured fee strings into per-type
// policies.
func feeDefaultsFromConfig(cfg *config.Config) (map[domain.TransactionType]usecase.FeePolicy, error) {
	parse := func(name, value string) (decimal.Decimal, error) {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("parse %s: %w", name, err)
		}
		return d, nil
	}

	fixed, err := parse("FEE_FIXED", cfg.FeeFixed)
	if err != nil {
		return nil, err
	}
	agentPct, err := parse("AGENT_COMMISSION_PERCENT", cfg.AgentCommissionPercent)
	if err != nil {
		return nil, err
	}
	minAmount, err := parse("MIN_TRANSACTION_AMOUNT", cfg.MinTransactionAmount)
	if err != nil {
		return nil, err
	}
	maxAmount, err := parse("MAX_TRANSACTION_AMOUNT", cfg.MaxTransactionAmount)
	if err != nil {
		return nil, err
	}

	percents := map[domain.TransactionType]string{
		domain.TransactionDeposit:   cfg.DepositFeePercent,
		domain.TransactionWithdraw:  cfg.WithdrawFeePercent,
		domain.TransactionTransfer:  cfg.TransferFeePercent,
		domain.TransactionQRPayment: cfg.QRPaymentFeePercent,
	}

	defaults := make(map[domain.TransactionType]usecase.FeePolicy, len(percents))
	for t, value := range percents {
		pct, err := parse(string(t)+" fee percent", value)
		if err != nil {
			return nil, err
		}

		defaults[t] = usecase.FeePolicy{
			FeePercent:             pct,
			FeeFixed:               fixed,
			AgentCommissionPercent: agentPct,
			MinAmount:              minAmount,
			MaxAmount:              maxAmount,
		}
	}

	return defaults, nil
}

// pollSolvency periodically recomputes system solvency and exports the
// result as Prometheus gauges.
func pollSolvency(ctx context.Context, verifyUC *usecase.VerifyUseCase, m *metrics.Metrics) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		report, err := verifyUC.VerifySystemBalance(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("solvency check failed")
		} else {
			for currency, cr := range report.PerCurrency {
				reserve, _ := cr.SystemReserve.Float64()
				m.SystemReserveBalance.WithLabelValues(string(currency)).Set(reserve)

				balanced := 0.0
				if cr.IsBalanced {
					balanced = 1.0
				}
				m.SolvencyBalanced.WithLabelValues(string(currency)).Set(balanced)
			}

			if !report.IsBalanced {
				log.Error().Msg("system solvency check failed: reserve does not offset balances")
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
