package common

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
)

// SaveStockItem writes a stock item, appends the movements it recorded to the
// ledger and queues its events. New items are inserted, loaded ones are
// written with a version check.
func SaveStockItem(ctx context.Context, repos TransactionalRepositories, item *stock.StockItem) error {
	var err error
	if item.IsNew() {
		err = repos.StockItems().Create(ctx, item)
	} else {
		err = repos.StockItems().SaveWithLock(ctx, item)
	}
	if err != nil {
		return err
	}

	if movements := item.DrainMovements(); len(movements) > 0 {
		if err := repos.StockMovements().Create(ctx, movements...); err != nil {
			return fmt.Errorf("failed to record stock movements: %w", err)
		}
	}
	repos.RecordEvents(shared.DrainEvents(item)...)
	return nil
}

// SaveOrder writes an order and queues the events of the order, its shipments and its units
func SaveOrder(ctx context.Context, repos TransactionalRepositories, order *ordering.Order) error {
	if err := repos.Orders().Save(ctx, order); err != nil {
		return err
	}
	repos.RecordEvents(order.PullEvents()...)
	return nil
}

// SaveLocation writes a stock location and queues its events
func SaveLocation(ctx context.Context, repos TransactionalRepositories, loc *stock.StockLocation) error {
	if err := repos.StockLocations().Save(ctx, loc); err != nil {
		return err
	}
	repos.RecordEvents(shared.DrainEvents(loc)...)
	return nil
}

// StockItemSet loads the stock items of one unit of work at most once each
// and writes them back together
type StockItemSet struct {
	repos TransactionalRepositories
	items map[uuid.UUID]*stock.StockItem
	order []uuid.UUID
}

// NewStockItemSet creates an empty set bound to a unit of work
func NewStockItemSet(repos TransactionalRepositories) *StockItemSet {
	return &StockItemSet{repos: repos, items: make(map[uuid.UUID]*stock.StockItem)}
}

// Get loads a stock item by id
func (s *StockItemSet) Get(ctx context.Context, id uuid.UUID) (*stock.StockItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	item, err := s.repos.StockItems().FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Put(item)
	return item, nil
}

// Put tracks an item loaded or created elsewhere
func (s *StockItemSet) Put(item *stock.StockItem) {
	if _, ok := s.items[item.ID]; ok {
		return
	}
	s.items[item.ID] = item
	s.order = append(s.order, item.ID)
}

// Save writes every tracked item. Writers lock stock items in id order.
func (s *StockItemSet) Save(ctx context.Context) error {
	slices.SortFunc(s.order, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	for _, id := range s.order {
		if err := SaveStockItem(ctx, s.repos, s.items[id]); err != nil {
			return err
		}
	}
	return nil
}

// ReleaseCommitments gives back the reservations and backorder promises an
// order held. Commitments must be taken before the units change state.
func (s *StockItemSet) ReleaseCommitments(ctx context.Context, commitments []ordering.StockCommitment) error {
	for _, c := range commitments {
		item, err := s.Get(ctx, c.StockItemID)
		if err != nil {
			return err
		}
		if c.Reserved > 0 {
			if err := item.Release(c.Reserved); err != nil {
				return err
			}
		}
		if c.Backordered > 0 {
			if err := item.ReleaseBackorder(c.Backordered); err != nil {
				return err
			}
		}
	}
	return nil
}

// FulfillCommitments consumes the reservations of a shipment leaving its location
func (s *StockItemSet) FulfillCommitments(ctx context.Context, commitments []ordering.StockCommitment, reference string) error {
	for _, c := range commitments {
		if c.Backordered > 0 {
			return ordering.ErrUnitsNotReady
		}
		if c.Reserved == 0 {
			continue
		}
		item, err := s.Get(ctx, c.StockItemID)
		if err != nil {
			return err
		}
		if _, err := item.Fulfill(c.Reserved, reference); err != nil {
			return err
		}
	}
	return nil
}
