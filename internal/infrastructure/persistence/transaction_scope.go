package persistence

import (
	"context"

	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// GormTransactionScope implements common.TransactionScope using GORM transactions.
//
// Recorded events take one of two routes. With an outbox saver they are
// serialized into the outbox inside the transaction. Without one they are
// published on the event bus after commit; publish errors are logged and do
// not undo the committed work.
type GormTransactionScope struct {
	db        *gorm.DB
	publisher shared.EventPublisher
	outbox    shared.OutboxEventSaver
	logger    *zap.Logger
}

// TransactionScopeOption configures a GormTransactionScope
type TransactionScopeOption func(*GormTransactionScope)

// WithEventPublisher publishes recorded events after commit
func WithEventPublisher(publisher shared.EventPublisher) TransactionScopeOption {
	return func(s *GormTransactionScope) {
		s.publisher = publisher
	}
}

// WithOutbox stores recorded events in the outbox inside the transaction.
// It takes precedence over WithEventPublisher.
func WithOutbox(saver shared.OutboxEventSaver) TransactionScopeOption {
	return func(s *GormTransactionScope) {
		s.outbox = saver
	}
}

// WithScopeLogger sets the logger
func WithScopeLogger(logger *zap.Logger) TransactionScopeOption {
	return func(s *GormTransactionScope) {
		s.logger = logger
	}
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB, opts ...TransactionScopeOption) *GormTransactionScope {
	s := &GormTransactionScope{db: db, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Execute runs the given function within a database transaction.
// If the function returns an error, the transaction is rolled back.
// If the function succeeds, the transaction is committed.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos common.TransactionalRepositories) error) error {
	var events []shared.DomainEvent

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := &gormTransactionalRepositories{tx: tx}
		if err := fn(repos); err != nil {
			return err
		}
		events = repos.events
		if s.outbox != nil && len(events) > 0 {
			return s.outbox.SaveEvents(ctx, tx, events...)
		}
		return nil
	})
	if err != nil {
		return err
	}

	if s.outbox == nil && s.publisher != nil && len(events) > 0 {
		if err := s.publisher.Publish(ctx, events...); err != nil {
			s.logger.Error("failed to publish events after commit",
				zap.Int("event_count", len(events)),
				zap.Error(err))
		}
	}
	return nil
}

// gormTransactionalRepositories provides access to all repositories within a transaction.
type gormTransactionalRepositories struct {
	tx     *gorm.DB
	events []shared.DomainEvent
}

// Orders returns the order repository scoped to the current transaction.
func (r *gormTransactionalRepositories) Orders() ordering.OrderRepository {
	return NewGormOrderRepository(r.tx)
}

// StockItems returns the stock item repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockItems() stock.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

// StockMovements returns the movement ledger scoped to the current transaction.
func (r *gormTransactionalRepositories) StockMovements() stock.StockMovementRepository {
	return NewGormStockMovementRepository(r.tx)
}

// StockLocations returns the stock location repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockLocations() stock.StockLocationRepository {
	return NewGormStockLocationRepository(r.tx)
}

// StockTransfers returns the stock transfer repository scoped to the current transaction.
func (r *gormTransactionalRepositories) StockTransfers() stock.StockTransferRepository {
	return NewGormStockTransferRepository(r.tx)
}

// RecordEvents queues events for delivery
func (r *gormTransactionalRepositories) RecordEvents(events ...shared.DomainEvent) {
	r.events = append(r.events, events...)
}

// Ensure GormTransactionScope implements TransactionScope
var _ common.TransactionScope = (*GormTransactionScope)(nil)

// Ensure gormTransactionalRepositories implements TransactionalRepositories
var _ common.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
