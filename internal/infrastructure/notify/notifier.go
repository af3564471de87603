package notify

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/shampay/ledger/internal/usecase"
)

const publishTimeout = 2 * time.Second

// RedisNotifier publishes completed-transaction events to a Redis channel
// consumed by the notification service. Delivery is best effort; a failed
// publish is logged and dropped, never surfaced to the caller.
type RedisNotifier struct {
	client  *redis.Client
	channel string
	logger  zerolog.Logger
}

// NewRedisNotifier creates a new RedisNotifier.
func NewRedisNotifier(client *redis.Client, logger zerolog.Logger) *RedisNotifier {
	return &RedisNotifier{
		client:  client,
		channel: "ledger:transactions",
		logger:  logger,
	}
}

// Notify publishes the event. The caller's context may already be done
// when this runs post-commit, so publishing uses its own timeout.
func (n *RedisNotifier) Notify(ctx context.Context, event usecase.NotificationEvent) {
	payload, err := json.Marshal(map[string]any{
		"type":             string(event.Type),
		"transaction_id":   event.TransactionID,
		"reference_number": event.ReferenceNumber,
		"user_id":          event.UserID,
		"currency":         string(event.Currency),
		"amount":           event.Amount.StringFixed(2),
	})
	if err != nil {
		n.logger.Error().Err(err).Msg("marshal notification event")
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	if err := n.client.Publish(pubCtx, n.channel, payload).Err(); err != nil {
		n.logger.Error().
			Err(err).
			Str("transaction_id", event.TransactionID).
			Msg("publish notification event")
		return
	}

	n.logger.Debug().
		Str("transaction_id", event.TransactionID).
		Str("reference_number", event.ReferenceNumber).
		Msg("notification event published")
}

// LogNotifier logs events instead of publishing them. Used when Redis is
// not configured.
type LogNotifier struct {
	logger zerolog.Logger
}

// NewLogNotifier creates a new LogNotifier.
func NewLogNotifier(logger zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

// Notify logs the event.
func (n *LogNotifier) Notify(ctx context.Context, event usecase.NotificationEvent) {
	n.logger.Info().
		Str("type", string(event.Type)).
		Str("transaction_id", event.TransactionID).
		Str("reference_number", event.ReferenceNumber).
		Str("user_id", event.UserID).
		Str("currency", string(event.Currency)).
		Str("amount", event.Amount.StringFixed(2)).
		Msg("transaction completed")
}
