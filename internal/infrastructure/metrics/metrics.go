package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus collectors for ledger operations. HTTP
// request metrics live in the router middleware.
type Metrics struct {
	// Transaction metrics
	TransactionsProcessed *prometheus.CounterVec
	TransactionDuration   *prometheus.HistogramVec
	TransactionAmount     *prometheus.HistogramVec

	// Ledger metrics
	EntriesCreated     prometheus.Counter
	ReversalsProcessed prometheus.Counter
	ChainVerifications *prometheus.CounterVec

	// Solvency metrics
	SystemReserveBalance *prometheus.GaugeVec
	SolvencyBalanced     *prometheus.GaugeVec
}

// New creates and registers all Prometheus metrics
func New() *Metrics {
	return &Metrics{
		TransactionsProcessed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_transactions_total",
				Help: "Total transactions processed by type and status",
			},
			[]string{"type", "status"},
		),
		TransactionDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_transaction_duration_seconds",
				Help:    "Duration of transaction processing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"type"},
		),
		TransactionAmount: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_transaction_amount",
				Help:    "Transaction amounts by type and currency",
				Buckets: []float64{1, 10, 100, 1000, 10000, 100000, 1000000},
			},
			[]string{"type", "currency"},
		),

		EntriesCreated: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_entries_created_total",
			Help: "Total ledger entries appended to the chain",
		}),
		ReversalsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "ledger_reversals_total",
			Help: "Total transactions reversed",
		}),
		ChainVerifications: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_chain_verifications_total",
				Help: "Total hash chain verification runs by result",
			},
			[]string{"result"},
		),

		SystemReserveBalance: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledger_system_reserve_balance",
				Help: "Current system reserve balance per currency",
			},
			[]string{"currency"},
		),
		SolvencyBalanced: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "ledger_solvency_balanced",
				Help: "1 when reserve offsets all other balances for the currency, 0 otherwise",
			},
			[]string{"currency"},
		),
	}
}

// ObserveTransaction records one orchestrated operation outcome.
func (m *Metrics) ObserveTransaction(txType, status, currency string, amount float64, elapsed time.Duration) {
	m.TransactionsProcessed.WithLabelValues(txType, status).Inc()
	m.TransactionDuration.WithLabelValues(txType).Observe(elapsed.Seconds())
	if status == "completed" {
		m.TransactionAmount.WithLabelValues(txType, currency).Observe(amount)
	}
}

// ObserveEntryAppended counts one ledger entry added to the chain.
func (m *Metrics) ObserveEntryAppended() {
	m.EntriesCreated.Inc()
}

// ObserveReversal counts one completed reversal.
func (m *Metrics) ObserveReversal() {
	m.ReversalsProcessed.Inc()
}

// ObserveChainVerification records the result of a chain walk.
func (m *Metrics) ObserveChainVerification(valid bool) {
	result := "valid"
	if !valid {
		result = "broken"
	}
	m.ChainVerifications.WithLabelValues(result).Inc()
}
