package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers handled event IDs so at-least-once delivery
// from the outbox does not apply a handler twice
type IdempotencyStore interface {
	// MarkProcessed returns true if the key was newly marked, false if it was already present
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)
	IsProcessed(ctx context.Context, key string) (bool, error)
	Close() error
}

// IdempotencyConfig holds configuration for idempotent event handling
type IdempotencyConfig struct {
	// TTL after which the same key may be processed again
	TTL     time.Duration
	Enabled bool
}

// DefaultIdempotencyConfig returns a 24h TTL with checking enabled
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     24 * time.Hour,
		Enabled: true,
	}
}
