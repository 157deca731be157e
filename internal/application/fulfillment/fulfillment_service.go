package fulfillment

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	orderapp "github.com/resys/backend/internal/application/ordering"
	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlanRecorder observes planning runs
type PlanRecorder interface {
	RecordPlan(ctx context.Context, strategy string, d time.Duration, err error)
}

// FulfillmentService proposes fulfillment plans and commits them to orders
type FulfillmentService struct {
	planner *fulfillment.Planner
	orders  ordering.OrderRepository
	txScope common.TransactionScope
	metrics PlanRecorder
	logger  *zap.Logger
}

// NewFulfillmentService creates a new FulfillmentService. metrics may be nil.
func NewFulfillmentService(
	planner *fulfillment.Planner,
	orders ordering.OrderRepository,
	txScope common.TransactionScope,
	metrics PlanRecorder,
	logger *zap.Logger,
) *FulfillmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FulfillmentService{
		planner: planner,
		orders:  orders,
		txScope: txScope,
		metrics: metrics,
		logger:  logger,
	}
}

// Plan proposes a split of the requested quantities. Nothing is reserved.
func (s *FulfillmentService) Plan(ctx context.Context, req PlanRequest) (*PlanResponse, error) {
	plan, err := s.plan(ctx, req.ToDomain())
	if err != nil {
		return nil, err
	}
	resp := ToPlanResponse(plan)
	return &resp, nil
}

// PlanOrder proposes a split of the units an order still waits for
func (s *FulfillmentService) PlanOrder(ctx context.Context, orderID uuid.UUID, req AllocateRequest) (*PlanResponse, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	plan, err := s.plan(ctx, fulfillment.Request{
		StoreID:  order.StoreID,
		Items:    order.RequestedQuantities(),
		Strategy: req.Strategy,
	})
	if err != nil {
		return nil, err
	}
	resp := ToPlanResponse(plan)
	return &resp, nil
}

// AllocateOrder plans the order's pending units and commits the plan.
//
// The plan comes from a snapshot read outside the transaction. Inside it,
// every location the plan names must still be fulfillable and linked to the
// order's store, or the allocation fails with a retryable conflict. Every
// stock item the plan relies on is read again: each location keeps what it
// can still reserve and any shortfall is backordered at the same location.
// A stock item that refuses the backorder fails the whole allocation.
func (s *FulfillmentService) AllocateOrder(ctx context.Context, orderID uuid.UUID, req AllocateRequest) (_ *AllocationResponse, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "FulfillmentService", "AllocateOrder",
		telemetry.WithAttribute("order.id", orderID.String()))
	defer telemetry.EndSpan(span, &err)

	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	requested := order.RequestedQuantities()
	if len(requested) == 0 {
		if len(order.LiveUnits()) == 0 {
			return nil, ordering.ErrEmptyOrder
		}
		return nil, ordering.ErrAlreadyAllocated
	}

	plan, err := s.plan(ctx, fulfillment.Request{StoreID: order.StoreID, Items: requested, Strategy: req.Strategy})
	if err != nil {
		return nil, err
	}

	resp := &AllocationResponse{Strategy: plan.Strategy}
	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		current, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		if !maps.Equal(current.RequestedQuantities(), requested) {
			return shared.ErrConcurrencyConflict.WithMessage("Order %s changed while it was being planned", current.Number)
		}

		items := common.NewStockItemSet(repos)
		allocations, err := commitPlan(ctx, repos, items, current, plan)
		if err != nil {
			return err
		}
		shipments, err := current.Allocate(allocations, time.Now())
		if err != nil {
			return err
		}
		if err := items.Save(ctx); err != nil {
			return err
		}

		resp.OrderID = current.ID
		resp.Number = current.Number
		resp.FullFulfillment = true
		for _, sh := range shipments {
			resp.Shipments = append(resp.Shipments, orderapp.ToShipmentResponse(sh))
			for _, u := range current.ShipmentUnits(sh.ID) {
				if u.State == ordering.UnitStateBackordered {
					resp.Backordered++
					resp.FullFulfillment = false
				} else {
					resp.Reserved++
				}
			}
		}
		return common.SaveOrder(ctx, repos, current)
	})
	if err != nil {
		return nil, err
	}

	telemetry.SetAttributes(span, "allocation.shipments", len(resp.Shipments), "allocation.backordered", resp.Backordered)
	s.logger.Info("order allocated",
		zap.String("order_id", orderID.String()),
		zap.String("number", resp.Number),
		zap.String("strategy", resp.Strategy),
		zap.Int("shipments", len(resp.Shipments)),
		zap.Int("reserved", resp.Reserved),
		zap.Int("backordered", resp.Backordered),
	)
	return resp, nil
}

func (s *FulfillmentService) plan(ctx context.Context, req fulfillment.Request) (plan *fulfillment.Plan, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "FulfillmentService", "Plan",
		telemetry.WithAttribute("store.id", req.StoreID.String()),
		telemetry.WithAttribute("plan.variants", len(req.Items)))
	defer telemetry.EndSpan(span, &err)

	start := time.Now()
	telemetry.ProfileRegion(ctx, "fulfillment_plan", func(ctx context.Context) {
		plan, err = s.planner.PlanFulfillment(ctx, req)
	})
	if s.metrics != nil {
		name := req.Strategy
		if plan != nil {
			name = plan.Strategy
		}
		s.metrics.RecordPlan(ctx, name, time.Since(start), err)
	}
	if err != nil {
		s.logger.Warn("fulfillment planning failed",
			zap.String("store_id", req.StoreID.String()),
			zap.String("strategy", req.Strategy),
			zap.Error(err))
		return nil, err
	}
	telemetry.SetAttributes(span, "plan.shipments", len(plan.Shipments), "plan.full", plan.IsFullFulfillment())
	return plan, nil
}

// commitPlan re-validates a plan against current stock and applies the
// reservations and backorders to the stock items
func commitPlan(
	ctx context.Context,
	repos common.TransactionalRepositories,
	items *common.StockItemSet,
	order *ordering.Order,
	plan *fulfillment.Plan,
) ([]ordering.ShipmentAllocation, error) {
	loaded := make(map[fulfillment.AvailabilityKey]*stock.StockItem)
	allocations := make([]ordering.ShipmentAllocation, 0, len(plan.Shipments))
	for _, planned := range plan.Shipments {
		if err := checkLocation(ctx, repos, order, planned.LocationID); err != nil {
			return nil, err
		}
		alloc := ordering.ShipmentAllocation{StockLocationID: planned.LocationID}
		for _, p := range planned.Items {
			key := fulfillment.AvailabilityKey{LocationID: planned.LocationID, VariantID: p.VariantID}
			item, ok := loaded[key]
			if !ok {
				var err error
				item, err = stockItemAt(ctx, repos, order, p.VariantID, planned.LocationID)
				if err != nil {
					return nil, err
				}
				loaded[key] = item
				items.Put(item)
			}

			reserved := 0
			if !p.IsBackordered {
				reserved = min(p.Quantity, item.Available())
			}
			if reserved > 0 {
				if err := item.Reserve(reserved); err != nil {
					return nil, err
				}
				alloc.Items = append(alloc.Items, ordering.AllocatedItem{
					VariantID: p.VariantID, StockItemID: item.ID, Quantity: reserved,
				})
			}
			if short := p.Quantity - reserved; short > 0 {
				if err := item.Backorder(short); err != nil {
					return nil, err
				}
				alloc.Items = append(alloc.Items, ordering.AllocatedItem{
					VariantID: p.VariantID, StockItemID: item.ID, Quantity: short, Backordered: true,
				})
			}
		}
		if len(alloc.Items) > 0 {
			allocations = append(allocations, alloc)
		}
	}
	return allocations, nil
}

// checkLocation re-reads a planned location. One that was deactivated,
// deleted or unlinked from the order's store since the snapshot was taken
// fails the allocation with a conflict so the caller plans again.
func checkLocation(ctx context.Context, repos common.TransactionalRepositories, order *ordering.Order, locationID uuid.UUID) error {
	loc, err := repos.StockLocations().FindByID(ctx, locationID)
	if err != nil {
		if errors.Is(err, stock.ErrLocationNotFound) {
			return shared.ErrConcurrencyConflict.WithMessage("Stock location %s disappeared while order %s was being planned", locationID, order.Number)
		}
		return err
	}
	if !loc.IsFulfillable() || !loc.ServesStore(order.StoreID) {
		return shared.ErrConcurrencyConflict.WithMessage("Stock location %s can no longer fulfill order %s", loc.Code, order.Number)
	}
	return nil
}

// stockItemAt loads the stock item of a variant at a location. Backorders
// may target a location that never stocked the variant, in which case an
// empty stock item is started.
func stockItemAt(
	ctx context.Context,
	repos common.TransactionalRepositories,
	order *ordering.Order,
	variantID, locationID uuid.UUID,
) (*stock.StockItem, error) {
	item, err := repos.StockItems().FindByVariantAndLocation(ctx, variantID, locationID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, stock.ErrStockItemNotFound) {
		return nil, err
	}

	sku := ""
	for _, li := range order.LineItems {
		if li.VariantID == variantID {
			sku = li.SKU
			break
		}
	}
	return stock.NewStockItem(variantID, locationID, sku, 0, decimal.Zero)
}
