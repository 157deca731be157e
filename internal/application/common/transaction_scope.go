package common

import (
	"context"

	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
)

// TransactionScope runs a unit of work. Every repository handed to fn shares
// one database transaction, and the events recorded through it are delivered
// only once that transaction has committed.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back and
	// recorded events are discarded.
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides the repositories of a unit of work.
//
// Aggregate boundaries:
//   - Orders: the Order aggregate with its line items, units, shipments and payments
//   - StockItems: one StockItem per (variant, location), saved with a version check
//   - StockMovements: append-only ledger, written for every movement a stock item drains
//   - StockLocations: location master data and store links
//   - StockTransfers: transfers between locations with their item lines
type TransactionalRepositories interface {
	Orders() ordering.OrderRepository
	StockItems() stock.StockItemRepository
	StockMovements() stock.StockMovementRepository
	StockLocations() stock.StockLocationRepository
	StockTransfers() stock.StockTransferRepository
	// RecordEvents queues events for delivery after commit
	RecordEvents(events ...shared.DomainEvent)
}

// NoOpTransactionScope runs the unit of work without a real transaction and
// publishes recorded events when fn succeeds. Used by tests and tools.
type NoOpTransactionScope struct {
	orders    ordering.OrderRepository
	items     stock.StockItemRepository
	movements stock.StockMovementRepository
	locations stock.StockLocationRepository
	transfers stock.StockTransferRepository
	publisher shared.EventPublisher
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
// The publisher may be nil.
func NewNoOpTransactionScope(
	orders ordering.OrderRepository,
	items stock.StockItemRepository,
	movements stock.StockMovementRepository,
	locations stock.StockLocationRepository,
	publisher shared.EventPublisher,
) *NoOpTransactionScope {
	return &NoOpTransactionScope{
		orders:    orders,
		items:     items,
		movements: movements,
		locations: locations,
		publisher: publisher,
	}
}

// WithStockTransfers sets the transfer repository handed to the unit of work
func (s *NoOpTransactionScope) WithStockTransfers(transfers stock.StockTransferRepository) *NoOpTransactionScope {
	s.transfers = transfers
	return s
}

// Execute runs fn and then publishes what it recorded
func (s *NoOpTransactionScope) Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error {
	repos := &noOpRepositories{scope: s}
	if err := fn(repos); err != nil {
		return err
	}
	if s.publisher == nil || len(repos.events) == 0 {
		return nil
	}
	return s.publisher.Publish(ctx, repos.events...)
}

type noOpRepositories struct {
	scope  *NoOpTransactionScope
	events []shared.DomainEvent
}

func (r *noOpRepositories) Orders() ordering.OrderRepository { return r.scope.orders }
func (r *noOpRepositories) StockItems() stock.StockItemRepository { return r.scope.items }
func (r *noOpRepositories) StockMovements() stock.StockMovementRepository { return r.scope.movements }
func (r *noOpRepositories) StockLocations() stock.StockLocationRepository { return r.scope.locations }
func (r *noOpRepositories) StockTransfers() stock.StockTransferRepository { return r.scope.transfers }

func (r *noOpRepositories) RecordEvents(events ...shared.DomainEvent) {
	r.events = append(r.events, events...)
}

var (
	_ TransactionScope          = (*NoOpTransactionScope)(nil)
	_ TransactionalRepositories = (*noOpRepositories)(nil)
)
