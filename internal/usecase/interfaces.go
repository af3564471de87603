package usecase

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
)

// AccountRepository defines data access for chart-of-accounts entries.
type AccountRepository interface {
	// GetOrCreate upserts an account by code without touching existing balances.
	GetOrCreate(ctx context.Context, tx Transaction, account *domain.Account) (*domain.Account, error)
	GetByCode(ctx context.Context, code string) (*domain.Account, error)
	GetByCodeForUpdate(ctx context.Context, tx Transaction, code string) (*domain.Account, error)
	// AdjustBalance atomically applies a signed delta to one currency balance.
	AdjustBalance(ctx context.Context, tx Transaction, code string, currency domain.Currency, delta decimal.Decimal, updatedAt time.Time) error
	List(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

// LedgerRepository defines data access for hash-chained ledger entries.
type LedgerRepository interface {
	CreateEntry(ctx context.Context, tx Transaction, entry *domain.LedgerEntry) error
	// LastHashForUpdate reads the chain head under an exclusive lock so
	// concurrent entry writers serialize on the single global chain.
	LastHashForUpdate(ctx context.Context, tx Transaction) (string, error)
	SetLastHash(ctx context.Context, tx Transaction, hash string, updatedAt time.Time) error
	GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error)
	GetByNumber(ctx context.Context, entryNumber string) (*domain.LedgerEntry, error)
	// ListChain returns entries with lines in chain order (oldest first).
	ListChain(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error)
}

// TransactionRepository defines data access for domain transactions.
type TransactionRepository interface {
	Create(ctx context.Context, tx Transaction, t *domain.Transaction) error
	GetByID(ctx context.Context, id string) (*domain.Transaction, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.Transaction, error)
	GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error)
	UpdateStatus(ctx context.Context, tx Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error
	SetLedgerEntry(ctx context.Context, tx Transaction, id, entryID string) error
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error)
}

// ReversalRepository defines data access for reversal link records.
type ReversalRepository interface {
	Create(ctx context.Context, tx Transaction, r *domain.ReversalTransaction) error
	GetByOriginal(ctx context.Context, originalTransactionID string) (*domain.ReversalTransaction, error)
}

// WalletRepository defines data access for user wallets.
type WalletRepository interface {
	Create(ctx context.Context, wallet *domain.Wallet) error
	GetByUser(ctx context.Context, userID string, currency domain.Currency) (*domain.Wallet, error)
	GetByUserForUpdate(ctx context.Context, tx Transaction, userID string, currency domain.Currency) (*domain.Wallet, error)
	UpdateBalance(ctx context.Context, tx Transaction, id string, balance, frozenBalance decimal.Decimal, updatedAt time.Time) error
}

// AgentRepository defines data access for agent profiles.
type AgentRepository interface {
	Create(ctx context.Context, agent *domain.AgentProfile) error
	GetByID(ctx context.Context, id string) (*domain.AgentProfile, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.AgentProfile, error)
	UpdateBalances(ctx context.Context, tx Transaction, agent *domain.AgentProfile, updatedAt time.Time) error
}

// MerchantRepository defines data access for merchant profiles.
type MerchantRepository interface {
	Create(ctx context.Context, merchant *domain.MerchantProfile) error
	GetByID(ctx context.Context, id string) (*domain.MerchantProfile, error)
	GetByIDForUpdate(ctx context.Context, tx Transaction, id string) (*domain.MerchantProfile, error)
	UpdateBalances(ctx context.Context, tx Transaction, merchant *domain.MerchantProfile, updatedAt time.Time) error
}

// SettingsRepository reads system-wide settings overrides.
type SettingsRepository interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// FeePolicy holds the configurable fee parameters for one transaction type.
type FeePolicy struct {
	FeePercent             decimal.Decimal
	FeeFixed               decimal.Decimal
	AgentCommissionPercent decimal.Decimal
	MinAmount              decimal.Decimal
	MaxAmount              decimal.Decimal
}

// FeeSettings resolves the fee policy for a transaction type.
type FeeSettings interface {
	Policy(ctx context.Context, t domain.TransactionType) (FeePolicy, error)
}

// Transaction represents a database transaction.
type Transaction interface {
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}

// TransactionManager handles transaction lifecycle.
type TransactionManager interface {
	Begin(ctx context.Context) (Transaction, error)
}

// IDGenerator generates unique row IDs.
type IDGenerator interface {
	Generate() string
}

// ReferenceGenerator generates human-inspectable reference and entry
// numbers. Uniqueness is probabilistic; callers retry on collision.
type ReferenceGenerator interface {
	Generate(prefix string) string
}

// Retrier retries an operation on transient storage failures.
type Retrier interface {
	Retry(ctx context.Context, operation func() error) error
}

// IdempotencyStore handles idempotency key storage.
type IdempotencyStore interface {
	// CheckAndSet atomically checks if key exists, sets if not.
	// Returns (exists, existingValue, error).
	CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error)
	// Update updates an existing key with the final response.
	Update(ctx context.Context, key string, response []byte, ttl time.Duration) error
}

// NotificationEvent describes a completed money movement for downstream
// notification channels.
type NotificationEvent struct {
	Type            domain.TransactionType
	TransactionID   string
	ReferenceNumber string
	UserID          string
	Currency        domain.Currency
	Amount          decimal.Decimal
}

// Notifier dispatches notifications after the financial mutation commits.
// Dispatch is fire-and-forget; failures never affect the committed state.
type Notifier interface {
	Notify(ctx context.Context, event NotificationEvent)
}

// MetricsRecorder exports operation outcomes to the monitoring system.
// Implementations must be safe for concurrent use.
type MetricsRecorder interface {
	ObserveTransaction(txType, status, currency string, amount float64, elapsed time.Duration)
	ObserveEntryAppended()
	ObserveReversal()
	ObserveChainVerification(valid bool)
}
