package config_test

import (
	"testing"
	"time"

	"github.com/shampay/ledger/internal/infrastructure/config"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("REDIS_URL", "")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL == "" {
		t.Fatalf("expected default database URL to be set")
	}

	if cfg.HTTPPort != "8080" {
		t.Fatalf("expected default HTTP port 8080, got %s", cfg.HTTPPort)
	}

	if cfg.IdempotencyTTL != 24*time.Hour {
		t.Fatalf("expected default idempotency TTL 24h, got %s", cfg.IdempotencyTTL)
	}

	if cfg.DepositFeePercent != "1.0" {
		t.Fatalf("expected default deposit fee 1.0, got %s", cfg.DepositFeePercent)
	}

	if cfg.AgentCommissionPercent != "50" {
		t.Fatalf("expected default agent commission 50, got %s", cfg.AgentCommissionPercent)
	}

	// QR payments carry no fee unless explicitly configured.
	if cfg.QRPaymentFeePercent != "0" {
		t.Fatalf("expected default QR fee 0, got %s", cfg.QRPaymentFeePercent)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://example")
	t.Setenv("REDIS_URL", "redis://example")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("DATABASE_TIMEOUT", "45s")
	t.Setenv("TRANSFER_FEE_PERCENT", "0.75")
	t.Setenv("MAX_TRANSACTION_AMOUNT", "5000")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error loading config: %v", err)
	}

	if cfg.DatabaseURL != "postgres://example" {
		t.Fatalf("expected custom database URL, got %s", cfg.DatabaseURL)
	}

	if cfg.RedisURL != "redis://example" {
		t.Fatalf("expected custom redis URL, got %s", cfg.RedisURL)
	}

	if cfg.HTTPPort != "9090" {
		t.Fatalf("expected HTTP port override, got %s", cfg.HTTPPort)
	}

	if cfg.DatabaseTimeout != 45*time.Second {
		t.Fatalf("expected database timeout override, got %s", cfg.DatabaseTimeout)
	}

	if cfg.TransferFeePercent != "0.75" || cfg.MaxTransactionAmount != "5000" {
		t.Fatalf("expected fee overrides, got percent=%s max=%s", cfg.TransferFeePercent, cfg.MaxTransactionAmount)
	}
}

func TestLoadInvalidDuration(t *testing.T) {
	t.Setenv("HTTP_READ_TIMEOUT", "not-a-duration")

	if _, err := config.Load(); err == nil {
		t.Fatalf("expected error for invalid duration")
	}
}
