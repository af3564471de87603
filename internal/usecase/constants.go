package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// ChainVerifyPageSize is how many entries the chain verifier loads per page.
	ChainVerifyPageSize = 500

	// ReferenceRetryLimit bounds how often a colliding reference number is
	// regenerated before the operation fails.
	ReferenceRetryLimit = 3
)
