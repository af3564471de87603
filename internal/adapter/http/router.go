package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/shampay/ledger/internal/adapter/http/handler"
	"github.com/shampay/ledger/internal/adapter/http/middleware"
	"github.com/shampay/ledger/internal/usecase"
)

// RouterConfig holds dependencies for the router.
type RouterConfig struct {
	TransactionHandler *handler.TransactionHandler
	LedgerHandler      *handler.LedgerHandler
	AccountHandler     *handler.AccountHandler
	VerifyHandler      *handler.VerifyHandler
	HealthHandler      *handler.HealthHandler
	IdempotencyStore   usecase.IdempotencyStore
	RateLimiter        *middleware.RateLimiter
	Logger             zerolog.Logger
}

// NewRouter creates a new HTTP router.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger).Wrap)
	r.Use(middleware.Recovery)
	r.Use(middleware.Metrics)
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Wrap)
	}

	// Health and metrics endpoints
	r.Get("/health", cfg.HealthHandler.Liveness)
	r.Get("/ready", cfg.HealthHandler.Readiness)
	r.Handle("/metrics", promhttp.Handler())

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		// Idempotency middleware for mutating requests
		if cfg.IdempotencyStore != nil {
			idempotencyMiddleware := middleware.NewIdempotencyMiddleware(cfg.IdempotencyStore)
			r.Use(idempotencyMiddleware.Wrap)
		}

		// Transactions
		r.Route("/transactions", func(r chi.Router) {
			r.Post("/deposit", cfg.TransactionHandler.Deposit)
			r.Post("/withdraw", cfg.TransactionHandler.Withdraw)
			r.Post("/transfer", cfg.TransactionHandler.Transfer)
			r.Post("/qr-payment", cfg.TransactionHandler.QRPayment)
			r.Get("/reference/{ref}", cfg.TransactionHandler.GetByReference)
			r.Get("/{id}", cfg.TransactionHandler.Get)
			r.Post("/{id}/reverse", cfg.TransactionHandler.Reverse)
		})

		// Users
		r.Route("/users", func(r chi.Router) {
			r.Get("/{id}/transactions", cfg.TransactionHandler.ListByUser)
			r.Post("/freeze", cfg.TransactionHandler.Freeze)
			r.Post("/unfreeze", cfg.TransactionHandler.Unfreeze)
		})

		// Agents
		r.Post("/agents/credit", cfg.TransactionHandler.IssueAgentCredit)

		// Ledger
		r.Route("/ledger", func(r chi.Router) {
			r.Post("/entries", cfg.LedgerHandler.CreateEntry)
			r.Get("/entries", cfg.LedgerHandler.List)
			r.Get("/entries/number/{number}", cfg.LedgerHandler.GetByNumber)
			r.Get("/entries/{id}", cfg.LedgerHandler.Get)
			r.Get("/verify", cfg.VerifyHandler.SystemBalance)
			r.Get("/chain/verify", cfg.VerifyHandler.Chain)
		})

		// Accounts
		r.Route("/accounts", func(r chi.Router) {
			r.Get("/", cfg.AccountHandler.List)
			r.Get("/{code}", cfg.AccountHandler.Get)
			r.Get("/{code}/balance", cfg.AccountHandler.GetBalance)
		})
	})

	return r
}
