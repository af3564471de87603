package mocks

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
	"github.com/shampay/ledger/internal/usecase"
)

// MockTransaction is a no-op usecase.Transaction.
type MockTransaction struct {
	Committed  bool
	RolledBack bool
}

func (t *MockTransaction) Commit(ctx context.Context) error {
	t.Committed = true
	return nil
}

func (t *MockTransaction) Rollback(ctx context.Context) error {
	if !t.Committed {
		t.RolledBack = true
	}
	return nil
}

// MockTransactionManager is a mock implementation of TransactionManager.
type MockTransactionManager struct {
	BeginFunc func(ctx context.Context) (usecase.Transaction, error)
}

func NewMockTransactionManager() *MockTransactionManager {
	return &MockTransactionManager{}
}

func (m *MockTransactionManager) Begin(ctx context.Context) (usecase.Transaction, error) {
	if m.BeginFunc != nil {
		return m.BeginFunc(ctx)
	}
	return &MockTransaction{}, nil
}

// MockAccountRepository is an in-memory mock of AccountRepository.
type MockAccountRepository struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account

	GetOrCreateFunc   func(ctx context.Context, tx usecase.Transaction, account *domain.Account) (*domain.Account, error)
	GetByCodeFunc     func(ctx context.Context, code string) (*domain.Account, error)
	AdjustBalanceFunc func(ctx context.Context, tx usecase.Transaction, code string, currency domain.Currency, delta decimal.Decimal, updatedAt time.Time) error
	ListFunc          func(ctx context.Context, limit, offset int) ([]*domain.Account, error)
}

func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{
		accounts: make(map[string]*domain.Account),
	}
}

func (m *MockAccountRepository) GetOrCreate(ctx context.Context, tx usecase.Transaction, account *domain.Account) (*domain.Account, error) {
	if m.GetOrCreateFunc != nil {
		return m.GetOrCreateFunc(ctx, tx, account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.accounts[account.Code]; ok {
		return existing, nil
	}
	m.accounts[account.Code] = account
	return account, nil
}

func (m *MockAccountRepository) GetByCode(ctx context.Context, code string) (*domain.Account, error) {
	if m.GetByCodeFunc != nil {
		return m.GetByCodeFunc(ctx, code)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if account, ok := m.accounts[code]; ok {
		return account, nil
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetByCodeForUpdate(ctx context.Context, tx usecase.Transaction, code string) (*domain.Account, error) {
	return m.GetByCode(ctx, code)
}

func (m *MockAccountRepository) AdjustBalance(ctx context.Context, tx usecase.Transaction, code string, currency domain.Currency, delta decimal.Decimal, updatedAt time.Time) error {
	if m.AdjustBalanceFunc != nil {
		return m.AdjustBalanceFunc(ctx, tx, code, currency, delta, updatedAt)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[code]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if account.Balances == nil {
		account.Balances = make(map[domain.Currency]decimal.Decimal)
	}
	account.Balances[currency] = account.Balances[currency].Add(delta)
	account.UpdatedAt = updatedAt
	return nil
}

func (m *MockAccountRepository) List(ctx context.Context, limit, offset int) ([]*domain.Account, error) {
	if m.ListFunc != nil {
		return m.ListFunc(ctx, limit, offset)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	codes := make([]string, 0, len(m.accounts))
	for code := range m.accounts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	var accounts []*domain.Account
	for i := offset; i < len(codes) && len(accounts) < limit; i++ {
		accounts = append(accounts, m.accounts[codes[i]])
	}
	return accounts, nil
}

// MockLedgerRepository is an in-memory mock of LedgerRepository keeping a
// single ordered chain.
type MockLedgerRepository struct {
	mu       sync.RWMutex
	entries  []*domain.LedgerEntry
	numbers  map[string]bool
	lastHash string

	CreateEntryFunc func(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error
}

func NewMockLedgerRepository() *MockLedgerRepository {
	return &MockLedgerRepository{
		numbers:  make(map[string]bool),
		lastHash: domain.GenesisHash,
	}
}

func (m *MockLedgerRepository) CreateEntry(ctx context.Context, tx usecase.Transaction, entry *domain.LedgerEntry) error {
	if m.CreateEntryFunc != nil {
		return m.CreateEntryFunc(ctx, tx, entry)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.numbers[entry.EntryNumber] {
		return domain.ErrDuplicateReference
	}
	m.numbers[entry.EntryNumber] = true
	m.entries = append(m.entries, entry)
	return nil
}

func (m *MockLedgerRepository) LastHashForUpdate(ctx context.Context, tx usecase.Transaction) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastHash, nil
}

func (m *MockLedgerRepository) SetLastHash(ctx context.Context, tx usecase.Transaction, hash string, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastHash = hash
	return nil
}

func (m *MockLedgerRepository) GetByID(ctx context.Context, id string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockLedgerRepository) GetByNumber(ctx context.Context, entryNumber string) (*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, entry := range m.entries {
		if entry.EntryNumber == entryNumber {
			return entry, nil
		}
	}
	return nil, domain.ErrEntryNotFound
}

func (m *MockLedgerRepository) ListChain(ctx context.Context, limit, offset int) ([]*domain.LedgerEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var entries []*domain.LedgerEntry
	for i := offset; i < len(m.entries) && len(entries) < limit; i++ {
		entries = append(entries, m.entries[i])
	}
	return entries, nil
}

// Entries returns a snapshot of all stored entries in chain order.
func (m *MockLedgerRepository) Entries() []*domain.LedgerEntry {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*domain.LedgerEntry, len(m.entries))
	copy(out, m.entries)
	return out
}

// Tamper overwrites a stored entry field, for integrity tests.
func (m *MockLedgerRepository) Tamper(index int, mutate func(*domain.LedgerEntry)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	mutate(m.entries[index])
}

// MockTransactionRepository is an in-memory mock of TransactionRepository.
type MockTransactionRepository struct {
	mu           sync.RWMutex
	transactions map[string]*domain.Transaction
	references   map[string]string

	CreateFunc func(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error
}

func NewMockTransactionRepository() *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[string]*domain.Transaction),
		references:   make(map[string]string),
	}
}

func (m *MockTransactionRepository) Create(ctx context.Context, tx usecase.Transaction, t *domain.Transaction) error {
	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, tx, t)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.references[t.ReferenceNumber]; ok {
		return domain.ErrDuplicateReference
	}
	m.references[t.ReferenceNumber] = t.ID
	m.transactions[t.ID] = t
	return nil
}

func (m *MockTransactionRepository) GetByID(ctx context.Context, id string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if t, ok := m.transactions[id]; ok {
		return t, nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.Transaction, error) {
	return m.GetByID(ctx, id)
}

func (m *MockTransactionRepository) GetByReference(ctx context.Context, referenceNumber string) (*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if id, ok := m.references[referenceNumber]; ok {
		return m.transactions[id], nil
	}
	return nil, domain.ErrTransactionNotFound
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, tx usecase.Transaction, id string, status domain.TransactionStatus, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.Status = status
	t.UpdatedAt = updatedAt
	return nil
}

func (m *MockTransactionRepository) SetLedgerEntry(ctx context.Context, tx usecase.Transaction, id, entryID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.transactions[id]
	if !ok {
		return domain.ErrTransactionNotFound
	}
	t.LedgerEntryID = &entryID
	return nil
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*domain.Transaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var all []*domain.Transaction
	for _, t := range m.transactions {
		if (t.SenderID != nil && *t.SenderID == userID) || (t.ReceiverID != nil && *t.ReceiverID == userID) {
			all = append(all, t)
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	var out []*domain.Transaction
	for i := offset; i < len(all) && len(out) < limit; i++ {
		out = append(out, all[i])
	}
	return out, nil
}

// MockReversalRepository is an in-memory mock of ReversalRepository.
type MockReversalRepository struct {
	mu        sync.RWMutex
	reversals map[string]*domain.ReversalTransaction
}

func NewMockReversalRepository() *MockReversalRepository {
	return &MockReversalRepository{
		reversals: make(map[string]*domain.ReversalTransaction),
	}
}

func (m *MockReversalRepository) Create(ctx context.Context, tx usecase.Transaction, r *domain.ReversalTransaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.reversals[r.OriginalTransactionID]; ok {
		return domain.ErrAlreadyReversed
	}
	m.reversals[r.OriginalTransactionID] = r
	return nil
}

func (m *MockReversalRepository) GetByOriginal(ctx context.Context, originalTransactionID string) (*domain.ReversalTransaction, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if r, ok := m.reversals[originalTransactionID]; ok {
		return r, nil
	}
	return nil, domain.ErrTransactionNotFound
}

// MockWalletRepository is an in-memory mock of WalletRepository.
type MockWalletRepository struct {
	mu      sync.RWMutex
	wallets map[string]*domain.Wallet
}

func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		wallets: make(map[string]*domain.Wallet),
	}
}

func walletKey(userID string, currency domain.Currency) string {
	return userID + "/" + string(currency)
}

func (m *MockWalletRepository) Create(ctx context.Context, wallet *domain.Wallet) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.wallets[walletKey(wallet.UserID, wallet.Currency)] = wallet
	return nil
}

func (m *MockWalletRepository) GetByUser(ctx context.Context, userID string, currency domain.Currency) (*domain.Wallet, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if w, ok := m.wallets[walletKey(userID, currency)]; ok {
		return w, nil
	}
	return nil, domain.ErrUserNotFound
}

func (m *MockWalletRepository) GetByUserForUpdate(ctx context.Context, tx usecase.Transaction, userID string, currency domain.Currency) (*domain.Wallet, error) {
	return m.GetByUser(ctx, userID, currency)
}

func (m *MockWalletRepository) UpdateBalance(ctx context.Context, tx usecase.Transaction, id string, balance, frozenBalance decimal.Decimal, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, w := range m.wallets {
		if w.ID == id {
			w.Balance = balance
			w.FrozenBalance = frozenBalance
			w.UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrUserNotFound
}

// MockAgentRepository is an in-memory mock of AgentRepository.
type MockAgentRepository struct {
	mu     sync.RWMutex
	agents map[string]*domain.AgentProfile
}

func NewMockAgentRepository() *MockAgentRepository {
	return &MockAgentRepository{
		agents: make(map[string]*domain.AgentProfile),
	}
}

func (m *MockAgentRepository) Create(ctx context.Context, agent *domain.AgentProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.agents[agent.ID] = agent
	return nil
}

func (m *MockAgentRepository) GetByID(ctx context.Context, id string) (*domain.AgentProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if a, ok := m.agents[id]; ok {
		return a, nil
	}
	return nil, domain.ErrAgentNotFound
}

func (m *MockAgentRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.AgentProfile, error) {
	return m.GetByID(ctx, id)
}

func (m *MockAgentRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, agent *domain.AgentProfile, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.agents[agent.ID]; !ok {
		return domain.ErrAgentNotFound
	}
	agent.UpdatedAt = updatedAt
	m.agents[agent.ID] = agent
	return nil
}

// MockMerchantRepository is an in-memory mock of MerchantRepository.
type MockMerchantRepository struct {
	mu        sync.RWMutex
	merchants map[string]*domain.MerchantProfile
}

func NewMockMerchantRepository() *MockMerchantRepository {
	return &MockMerchantRepository{
		merchants: make(map[string]*domain.MerchantProfile),
	}
}

func (m *MockMerchantRepository) Create(ctx context.Context, merchant *domain.MerchantProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.merchants[merchant.ID] = merchant
	return nil
}

func (m *MockMerchantRepository) GetByID(ctx context.Context, id string) (*domain.MerchantProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.merchants[id]; ok {
		return p, nil
	}
	return nil, domain.ErrMerchantNotFound
}

func (m *MockMerchantRepository) GetByIDForUpdate(ctx context.Context, tx usecase.Transaction, id string) (*domain.MerchantProfile, error) {
	return m.GetByID(ctx, id)
}

func (m *MockMerchantRepository) UpdateBalances(ctx context.Context, tx usecase.Transaction, merchant *domain.MerchantProfile, updatedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.merchants[merchant.ID]; !ok {
		return domain.ErrMerchantNotFound
	}
	merchant.UpdatedAt = updatedAt
	m.merchants[merchant.ID] = merchant
	return nil
}

// MockSettingsRepository is an in-memory mock of SettingsRepository.
type MockSettingsRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMockSettingsRepository() *MockSettingsRepository {
	return &MockSettingsRepository{
		values: make(map[string]string),
	}
}

func (m *MockSettingsRepository) Set(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
}

func (m *MockSettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.values[key]
	return value, ok, nil
}

// MockFeeSettings is a mock of FeeSettings returning a fixed policy.
type MockFeeSettings struct {
	DefaultPolicy usecase.FeePolicy
	PolicyFunc    func(ctx context.Context, t domain.TransactionType) (usecase.FeePolicy, error)
}

func NewMockFeeSettings() *MockFeeSettings {
	return &MockFeeSettings{
		DefaultPolicy: usecase.FeePolicy{
			FeePercent:             decimal.NewFromInt(1),
			AgentCommissionPercent: decimal.NewFromInt(50),
			MinAmount:              decimal.New(1, -2),
			MaxAmount:              decimal.NewFromInt(1_000_000),
		},
	}
}

func (m *MockFeeSettings) Policy(ctx context.Context, t domain.TransactionType) (usecase.FeePolicy, error) {
	if m.PolicyFunc != nil {
		return m.PolicyFunc(ctx, t)
	}
	return m.DefaultPolicy, nil
}

// MockIDGenerator is a deterministic mock of IDGenerator.
type MockIDGenerator struct {
	mu           sync.Mutex
	counter      int
	GenerateFunc func() string
}

func NewMockIDGenerator() *MockIDGenerator {
	return &MockIDGenerator{}
}

func (m *MockIDGenerator) Generate() string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("id-%06d", m.counter)
}

// MockReferenceGenerator is a deterministic mock of ReferenceGenerator.
type MockReferenceGenerator struct {
	mu           sync.Mutex
	counter      int
	GenerateFunc func(prefix string) string
}

func NewMockReferenceGenerator() *MockReferenceGenerator {
	return &MockReferenceGenerator{}
}

func (m *MockReferenceGenerator) Generate(prefix string) string {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(prefix)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counter++
	return fmt.Sprintf("%s%06d", prefix, m.counter)
}

// MockMetricsRecorder counts observed operation outcomes.
type MockMetricsRecorder struct {
	mu                 sync.Mutex
	Transactions       map[string]int
	EntriesAppended    int
	Reversals          int
	ChainVerifications []bool
}

func NewMockMetricsRecorder() *MockMetricsRecorder {
	return &MockMetricsRecorder{Transactions: make(map[string]int)}
}

func (m *MockMetricsRecorder) ObserveTransaction(txType, status, currency string, amount float64, elapsed time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transactions[txType+"/"+status]++
}

func (m *MockMetricsRecorder) ObserveEntryAppended() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EntriesAppended++
}

func (m *MockMetricsRecorder) ObserveReversal() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Reversals++
}

func (m *MockMetricsRecorder) ObserveChainVerification(valid bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ChainVerifications = append(m.ChainVerifications, valid)
}

// MockNotifier records dispatched notification events.
type MockNotifier struct {
	mu     sync.Mutex
	Events []usecase.NotificationEvent
}

func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Notify(ctx context.Context, event usecase.NotificationEvent) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Events = append(m.Events, event)
}
