package cache

import (
	"github.com/redis/go-redis/v9"
	"github.com/resys/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a Redis store when a client is available and
// an in-memory store otherwise. The in-memory store does not share state
// between instances, so duplicate handling is per process.
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		logger.Info("using Redis idempotency store")
		return NewRedisIdempotencyStore(client, "")
	}
	logger.Warn("Redis disabled, using in-memory idempotency store")
	return NewInMemoryIdempotencyStore()
}
