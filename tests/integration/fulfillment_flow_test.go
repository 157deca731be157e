package integration

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	fulfillmentapp "github.com/resys/backend/internal/application/fulfillment"
	orderapp "github.com/resys/backend/internal/application/ordering"
	stockapp "github.com/resys/backend/internal/application/stock"
	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/infrastructure/cache"
	"github.com/resys/backend/internal/infrastructure/event"
	"github.com/resys/backend/internal/infrastructure/persistence"
	"github.com/resys/backend/internal/infrastructure/strategy"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var mug = ordering.Variant{ID: uuid.MustParse("00000000-0000-0000-0000-0000000d0001"), SKU: "MUG-BLUE", PriceCents: 1200}

// collector records every event the bus delivers
type collector struct {
	mu    sync.Mutex
	types []string
}

func (c *collector) EventTypes() []string { return nil }

func (c *collector) Handle(_ context.Context, e shared.DomainEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.types = append(c.types, e.EventType())
	return nil
}

func (c *collector) seen() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.types...)
}

type stack struct {
	db          *TestDB
	storeID     uuid.UUID
	orders      *orderapp.OrderService
	shipments   *orderapp.ShipmentService
	fulfillment *fulfillmentapp.FulfillmentService
	locations   *stockapp.LocationService
	items       *stockapp.StockItemService
	processor   *event.OutboxProcessor
	events      *collector
}

func newStack(t *testing.T) *stack {
	t.Helper()
	tdb := NewTestDB(t)
	log := zap.NewNop()

	serializer := event.NewEventSerializer()
	event.RegisterAllEvents(serializer)
	bus := event.NewInMemoryEventBus(log)
	events := &collector{}
	bus.Subscribe(events)
	require.NoError(t, bus.Start(context.Background()))

	scope := persistence.NewGormTransactionScope(tdb.DB, persistence.WithOutbox(event.NewOutboxPublisher(serializer)))
	orders := persistence.NewGormOrderRepository(tdb.DB)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)
	planner := fulfillment.NewPlanner(persistence.NewGormFulfillmentStockQuery(tdb.DB), registry)

	return &stack{
		db:          tdb,
		storeID:     uuid.New(),
		orders:      orderapp.NewOrderService(orders, cache.NewInMemoryVariantCatalog(mug), scope, log),
		shipments:   orderapp.NewShipmentService(scope, log),
		fulfillment: fulfillmentapp.NewFulfillmentService(planner, orders, scope, nil, log),
		locations:   stockapp.NewLocationService(persistence.NewGormStockLocationRepository(tdb.DB), scope, log),
		items: stockapp.NewStockItemService(
			persistence.NewGormStockItemRepository(tdb.DB),
			persistence.NewGormStockMovementRepository(tdb.DB),
			scope, log,
		),
		processor: event.NewOutboxProcessor(event.NewGormOutboxRepository(tdb.DB), bus, serializer,
			event.DefaultOutboxProcessorConfig(), log),
		events: events,
	}
}

func (s *stack) stockedLocation(t *testing.T, code string, onHand int) *stockapp.StockItemResponse {
	t.Helper()
	ctx := context.Background()
	loc, err := s.locations.Create(ctx, stockapp.CreateLocationRequest{
		Name: code, Code: code, Type: "WAREHOUSE", StoreIDs: []uuid.UUID{s.storeID},
	})
	require.NoError(t, err)
	item, err := s.items.Receive(ctx, stockapp.ReceiveStockRequest{
		VariantID: mug.ID, LocationID: loc.ID, SKU: mug.SKU, Quantity: onHand, UnitCost: decimal.NewFromInt(4),
	})
	require.NoError(t, err)
	return item
}

func (s *stack) orderInDelivery(t *testing.T, qty int) *orderapp.OrderResponse {
	t.Helper()
	ctx := context.Background()
	order, err := s.orders.Create(ctx, orderapp.CreateOrderRequest{StoreID: s.storeID, Currency: "EUR", Email: "buyer@example.com"})
	require.NoError(t, err)
	_, err = s.orders.AddItem(ctx, order.ID, orderapp.AddItemRequest{VariantID: mug.ID, Quantity: qty})
	require.NoError(t, err)
	_, err = s.orders.Next(ctx, order.ID)
	require.NoError(t, err)
	addr := common.AddressInput{FirstName: "Grace", LastName: "Hopper", Line1: "1 Navy Yard", City: "Arlington", PostalCode: "22202", Country: "US"}
	_, err = s.orders.SetAddresses(ctx, order.ID, orderapp.AddressesRequest{ShipAddress: addr, BillAddress: addr})
	require.NoError(t, err)
	order, err = s.orders.Next(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "DELIVERY", order.State)
	return order
}

// =============================================================================
// End to end on PostgreSQL
// =============================================================================

func TestFulfillmentFlow_AllocateShipAndRelay(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	item := s.stockedLocation(t, "east", 5)
	order := s.orderInDelivery(t, 2)

	alloc, err := s.fulfillment.AllocateOrder(ctx, order.ID, fulfillmentapp.AllocateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 2, alloc.Reserved)
	assert.Zero(t, alloc.Backordered)
	require.Len(t, alloc.Shipments, 1)
	shipmentID := alloc.Shipments[0].ID

	_, err = s.fulfillment.AllocateOrder(ctx, order.ID, fulfillmentapp.AllocateRequest{})
	assert.ErrorIs(t, err, ordering.ErrAlreadyAllocated)

	_, err = s.shipments.Pick(ctx, shipmentID)
	require.NoError(t, err)
	_, err = s.shipments.Pack(ctx, shipmentID)
	require.NoError(t, err)
	shipped, err := s.shipments.Ship(ctx, shipmentID, orderapp.ShipRequest{TrackingNumber: "TRK-1"})
	require.NoError(t, err)
	assert.Equal(t, "SHIPPED", shipped.State)

	after, err := s.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, after.QuantityOnHand)
	assert.Zero(t, after.QuantityReserved)

	assert.Equal(t, int64(2), s.db.Count("stock_movements", "stock_item_id = ?", item.ID))
	assert.Equal(t, int64(1), s.db.Count("stock_movements", "stock_item_id = ? AND type = ?", item.ID, "SALE"))

	recon, err := s.items.Reconcile(ctx, item.ID)
	require.NoError(t, err)
	assert.True(t, recon.Consistent)

	// Events were written with each transaction and are relayed afterwards
	require.Positive(t, s.db.Count("outbox_entries", "status = ?", "PENDING"))
	assert.Positive(t, s.processor.ProcessOnce(ctx))
	assert.Contains(t, s.events.seen(), ordering.EventTypeOrderCreated)
	assert.Contains(t, s.events.seen(), ordering.EventTypeOrderAllocated)
	assert.Positive(t, s.db.Count("outbox_entries", "status = ?", "SENT"))
}

func TestFulfillmentFlow_SplitsAcrossLocations(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	s.stockedLocation(t, "north", 2)
	s.stockedLocation(t, "south", 2)
	order := s.orderInDelivery(t, 3)

	plan, err := s.fulfillment.PlanOrder(ctx, order.ID, fulfillmentapp.AllocateRequest{})
	require.NoError(t, err)
	assert.True(t, plan.IsFullFulfillment)
	assert.Equal(t, 3, plan.TotalUnits)
	assert.Len(t, plan.Shipments, 2)

	alloc, err := s.fulfillment.AllocateOrder(ctx, order.ID, fulfillmentapp.AllocateRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, alloc.Reserved)
	assert.Len(t, alloc.Shipments, 2)

	var reserved int64
	require.NoError(t, s.db.DB.Table("stock_items").Select("COALESCE(SUM(quantity_reserved), 0)").Scan(&reserved).Error)
	assert.Equal(t, int64(3), reserved)
	assert.Equal(t, int64(3), s.db.Count("inventory_units", "order_id = ? AND state = ?", order.ID, "ON_HAND"))
}

func TestFulfillmentFlow_ConcurrentAllocations(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()
	item := s.stockedLocation(t, "west", 3)
	first := s.orderInDelivery(t, 2)
	second := s.orderInDelivery(t, 2)

	type result struct {
		resp *fulfillmentapp.AllocationResponse
		err  error
	}
	results := make([]result, 2)
	var wg sync.WaitGroup
	for i, id := range []uuid.UUID{first.ID, second.ID} {
		wg.Add(1)
		go func(i int, id uuid.UUID) {
			defer wg.Done()
			resp, err := s.fulfillment.AllocateOrder(ctx, id, fulfillmentapp.AllocateRequest{})
			results[i] = result{resp, err}
		}(i, id)
	}
	wg.Wait()

	var reserved, backordered, succeeded int
	for _, r := range results {
		if r.err != nil {
			assert.Equal(t, shared.KindConflict, shared.KindOf(r.err), r.err.Error())
			continue
		}
		succeeded++
		reserved += r.resp.Reserved
		backordered += r.resp.Backordered
	}
	require.Positive(t, succeeded)

	// The stock item agrees with the sum of the committed allocations
	after, err := s.items.GetByID(ctx, item.ID)
	require.NoError(t, err)
	assert.Equal(t, reserved, after.QuantityReserved)
	assert.Equal(t, backordered, after.QuantityBackordered)
	assert.LessOrEqual(t, after.QuantityReserved, after.QuantityOnHand)
}
