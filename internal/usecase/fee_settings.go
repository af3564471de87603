package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/shampay/ledger/internal/domain"
)

// StoredFeeSettings resolves fee policies from configured defaults,
// letting rows in the settings store override individual parameters.
// Override keys follow "fees.<type>.<param>", e.g. "fees.deposit.percent".
type StoredFeeSettings struct {
	settings SettingsRepository
	defaults map[domain.TransactionType]FeePolicy
}

// NewStoredFeeSettings creates a StoredFeeSettings.
func NewStoredFeeSettings(settings SettingsRepository, defaults map[domain.TransactionType]FeePolicy) *StoredFeeSettings {
	return &StoredFeeSettings{settings: settings, defaults: defaults}
}

// Policy returns the effective fee policy for a transaction type.
func (s *StoredFeeSettings) Policy(ctx context.Context, t domain.TransactionType) (FeePolicy, error) {
	policy, ok := s.defaults[t]
	if !ok {
		// Types without a configured policy move money at face value.
		policy = FeePolicy{
			MinAmount: decimal.New(1, -2),
			MaxAmount: decimal.New(1, 9),
		}
	}

	prefix := "fees." + strings.ToLower(string(t)) + "."

	overrides := []struct {
		key    string
		target *decimal.Decimal
	}{
		{prefix + "percent", &policy.FeePercent},
		{prefix + "fixed", &policy.FeeFixed},
		{prefix + "agent_commission_percent", &policy.AgentCommissionPercent},
		{prefix + "min_amount", &policy.MinAmount},
		{prefix + "max_amount", &policy.MaxAmount},
	}

	for _, o := range overrides {
		value, found, err := s.settings.Get(ctx, o.key)
		if err != nil {
			return FeePolicy{}, err
		}
		if !found {
			continue
		}

		parsed, err := decimal.NewFromString(value)
		if err != nil {
			return FeePolicy{}, fmt.Errorf("parse setting %q: %w", o.key, err)
		}

		*o.target = parsed
	}

	return policy, nil
}
