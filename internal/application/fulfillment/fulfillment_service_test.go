package fulfillment

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	orderapp "github.com/resys/backend/internal/application/ordering"
	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/internal/infrastructure/cache"
	"github.com/resys/backend/internal/infrastructure/persistence"
	"github.com/resys/backend/internal/infrastructure/strategy"
	"github.com/resys/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	shirt = ordering.Variant{ID: uuid.MustParse("00000000-0000-0000-0000-00000000b001"), SKU: "SHIRT-M", PriceCents: 2500}
	mug   = ordering.Variant{ID: uuid.MustParse("00000000-0000-0000-0000-00000000b002"), SKU: "MUG", PriceCents: 900}
)

type recordedPlan struct {
	strategy string
	failed   bool
}

type planRecorder struct {
	mu    sync.Mutex
	plans []recordedPlan
}

func (r *planRecorder) RecordPlan(_ context.Context, strategy string, _ time.Duration, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.plans = append(r.plans, recordedPlan{strategy: strategy, failed: err != nil})
}

type fulfillmentHarness struct {
	scope     *persistence.GormTransactionScope
	items     *persistence.GormStockItemRepository
	locations *persistence.GormStockLocationRepository
	publisher *testutil.RecordingPublisher
	recorder  *planRecorder
	orders    *orderapp.OrderService
	orderRepo *persistence.GormOrderRepository
	registry  *strategy.StrategyRegistry
	query     fulfillment.StockQuery
	service   *FulfillmentService
	storeID   uuid.UUID
}

func newFulfillmentHarness(t *testing.T) *fulfillmentHarness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	logger := zaptest.NewLogger(t)
	registry, err := strategy.NewRegistryWithDefaults()
	require.NoError(t, err)

	h := &fulfillmentHarness{
		items:     persistence.NewGormStockItemRepository(db),
		locations: persistence.NewGormStockLocationRepository(db),
		publisher: testutil.NewRecordingPublisher(),
		recorder:  &planRecorder{},
		storeID:   uuid.New(),
	}
	h.scope = persistence.NewGormTransactionScope(db, persistence.WithEventPublisher(h.publisher))
	h.orderRepo = persistence.NewGormOrderRepository(db)
	h.registry = registry
	h.query = persistence.NewGormFulfillmentStockQuery(db)

	h.orders = orderapp.NewOrderService(h.orderRepo, cache.NewInMemoryVariantCatalog(shirt, mug), h.scope, logger)
	h.service = NewFulfillmentService(fulfillment.NewPlanner(h.query, registry), h.orderRepo, h.scope, h.recorder, logger)
	return h
}

// afterSnapshot runs fn once the planner has read its stock snapshot, before
// the allocation commits
func (h *fulfillmentHarness) afterSnapshot(t *testing.T, fn func()) {
	t.Helper()
	query := &hookedStockQuery{StockQuery: h.query, after: fn}
	h.service = NewFulfillmentService(fulfillment.NewPlanner(query, h.registry), h.orderRepo, h.scope, h.recorder, zaptest.NewLogger(t))
}

type hookedStockQuery struct {
	fulfillment.StockQuery
	after func()
}

func (q *hookedStockQuery) FetchFulfillableStock(ctx context.Context, storeID uuid.UUID, variantIDs []uuid.UUID) ([]fulfillment.StockLevel, error) {
	levels, err := q.StockQuery.FetchFulfillableStock(ctx, storeID, variantIDs)
	if err == nil && q.after != nil {
		q.after()
	}
	return levels, err
}

// changeLocation reloads a location, applies fn and saves it
func (h *fulfillmentHarness) changeLocation(t *testing.T, id uuid.UUID, fn func(loc *stock.StockLocation) error) {
	t.Helper()
	ctx := context.Background()
	loc, err := h.locations.FindByID(ctx, id)
	require.NoError(t, err)
	require.NoError(t, fn(loc))
	require.NoError(t, h.locations.Save(ctx, loc))
}

func (h *fulfillmentHarness) location(t *testing.T, code string, locType stock.LocationType, isDefault bool) *stock.StockLocation {
	t.Helper()
	loc, err := stock.NewStockLocation("Location "+code, code, locType)
	require.NoError(t, err)
	loc.LinkStore(h.storeID)
	if isDefault {
		require.NoError(t, loc.MarkDefault())
	}
	require.NoError(t, h.locations.Save(context.Background(), loc))
	return loc
}

func (h *fulfillmentHarness) stock(t *testing.T, loc *stock.StockLocation, v ordering.Variant, onHand int, backorderable bool) *stock.StockItem {
	t.Helper()
	item, err := stock.NewStockItem(v.ID, loc.ID, v.SKU, onHand, decimal.NewFromInt(2))
	require.NoError(t, err)
	require.NoError(t, item.SetBackorderPolicy(backorderable, 0))
	require.NoError(t, h.scope.Execute(context.Background(), func(repos common.TransactionalRepositories) error {
		return common.SaveStockItem(context.Background(), repos, item)
	}))
	return item
}

func (h *fulfillmentHarness) reload(t *testing.T, item *stock.StockItem) *stock.StockItem {
	t.Helper()
	found, err := h.items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	return found
}

// order creates an order for the given quantities and walks it to DELIVERY
func (h *fulfillmentHarness) order(t *testing.T, quantities map[ordering.Variant]int) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	order, err := h.orders.Create(ctx, orderapp.CreateOrderRequest{StoreID: h.storeID, Currency: "usd"})
	require.NoError(t, err)
	for v, qty := range quantities {
		_, err = h.orders.AddItem(ctx, order.ID, orderapp.AddItemRequest{VariantID: v.ID, Quantity: qty})
		require.NoError(t, err)
	}
	_, err = h.orders.Next(ctx, order.ID)
	require.NoError(t, err)
	addr := common.AddressInput{FirstName: "Ada", Line1: "1 Analytical Way", City: "London", PostalCode: "N1 9GU", Country: "GB"}
	_, err = h.orders.SetAddresses(ctx, order.ID, orderapp.AddressesRequest{ShipAddress: addr, BillAddress: addr})
	require.NoError(t, err)
	resp, err := h.orders.Next(ctx, order.ID)
	require.NoError(t, err)
	require.Equal(t, "DELIVERY", resp.State)
	return order.ID
}

// =============================================================================
// Plan
// =============================================================================

func TestFulfillmentService_Plan(t *testing.T) {
	ctx := context.Background()

	t.Run("default location first, then the best stocked", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		store := h.location(t, "STORE-1", stock.LocationTypeRetailStore, false)
		h.stock(t, main, shirt, 1, true)
		h.stock(t, store, shirt, 5, true)

		resp, err := h.service.Plan(ctx, PlanRequest{
			StoreID: h.storeID,
			Items:   []PlanItem{{VariantID: shirt.ID, Quantity: 2}, {VariantID: shirt.ID, Quantity: 1}},
		})

		require.NoError(t, err)
		assert.True(t, resp.IsFullFulfillment)
		assert.Equal(t, 3, resp.TotalUnits)
		assert.Equal(t, fulfillment.StrategyGreedy, resp.Strategy)
		require.Len(t, resp.Shipments, 2)
		assert.Equal(t, "WH-MAIN", resp.Shipments[0].LocationCode)
		assert.Equal(t, 1, resp.Shipments[0].Items[0].Quantity)
		assert.Equal(t, "STORE-1", resp.Shipments[1].LocationCode)
		assert.Equal(t, 2, resp.Shipments[1].Items[0].Quantity)
		assert.Equal(t, []recordedPlan{{strategy: fulfillment.StrategyGreedy}}, h.recorder.plans)
	})

	t.Run("non-fulfillable locations are never a source", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		damaged := h.location(t, "DMG", stock.LocationTypeDamaged, false)
		h.stock(t, damaged, mug, 10, true)

		resp, err := h.service.Plan(ctx, PlanRequest{StoreID: h.storeID, Items: []PlanItem{{VariantID: mug.ID, Quantity: 2}}})

		require.NoError(t, err)
		assert.False(t, resp.IsFullFulfillment)
		require.Len(t, resp.Shipments, 1)
		assert.Equal(t, main.ID, resp.Shipments[0].LocationID)
		assert.True(t, resp.Shipments[0].Items[0].IsBackordered)
	})

	t.Run("store without locations", func(t *testing.T) {
		h := newFulfillmentHarness(t)

		_, err := h.service.Plan(ctx, PlanRequest{StoreID: h.storeID, Items: []PlanItem{{VariantID: mug.ID, Quantity: 1}}})

		assert.ErrorIs(t, err, fulfillment.ErrNoFulfillableLocations)
		require.Len(t, h.recorder.plans, 1)
		assert.True(t, h.recorder.plans[0].failed)
	})

	t.Run("unregistered strategy", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)

		_, err := h.service.Plan(ctx, PlanRequest{
			StoreID:  h.storeID,
			Items:    []PlanItem{{VariantID: mug.ID, Quantity: 1}},
			Strategy: fulfillment.StrategyNearest,
		})

		assert.ErrorIs(t, err, fulfillment.ErrUnsupportedStrategy)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("empty request", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		_, err := h.service.Plan(ctx, PlanRequest{StoreID: h.storeID})
		assert.ErrorIs(t, err, fulfillment.ErrEmptyOrder)
	})
}

// =============================================================================
// AllocateOrder
// =============================================================================

func TestFulfillmentService_AllocateOrder(t *testing.T) {
	ctx := context.Background()

	t.Run("reserves stock and backorders the rest", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		shirts := h.stock(t, main, shirt, 2, true)
		orderID := h.order(t, map[ordering.Variant]int{shirt: 2, mug: 1})

		resp, err := h.service.AllocateOrder(ctx, orderID, AllocateRequest{})
		require.NoError(t, err)

		assert.False(t, resp.FullFulfillment)
		assert.Equal(t, 2, resp.Reserved)
		assert.Equal(t, 1, resp.Backordered)
		require.Len(t, resp.Shipments, 1)
		assert.Equal(t, "PENDING", resp.Shipments[0].State)
		assert.Len(t, resp.Shipments[0].UnitIDs, 3)

		assert.Equal(t, 2, h.reload(t, shirts).QuantityReserved)
		mugs, err := h.items.FindByVariantAndLocation(ctx, mug.ID, main.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, mugs.QuantityBackordered)
		assert.Equal(t, "MUG", mugs.SKU)
		assert.Len(t, h.publisher.EventsByType(ordering.EventTypeOrderAllocated), 1)

		_, err = h.service.AllocateOrder(ctx, orderID, AllocateRequest{})
		assert.ErrorIs(t, err, ordering.ErrAlreadyAllocated)
	})

	t.Run("fully stocked order starts ready", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		h.stock(t, main, shirt, 5, true)
		orderID := h.order(t, map[ordering.Variant]int{shirt: 3})

		resp, err := h.service.AllocateOrder(ctx, orderID, AllocateRequest{Strategy: fulfillment.StrategyGreedy})
		require.NoError(t, err)
		assert.True(t, resp.FullFulfillment)
		require.Len(t, resp.Shipments, 1)
		assert.Equal(t, "READY", resp.Shipments[0].State)

		order, err := h.orders.GetByID(ctx, orderID)
		require.NoError(t, err)
		assert.True(t, order.FullyAllocated)
	})

	t.Run("refused backorder rolls everything back", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		shirts := h.stock(t, main, shirt, 1, true)
		h.stock(t, main, mug, 0, false)
		orderID := h.order(t, map[ordering.Variant]int{shirt: 1, mug: 1})

		_, err := h.service.AllocateOrder(ctx, orderID, AllocateRequest{})
		assert.ErrorIs(t, err, stock.ErrBackorderNotAllowed)

		assert.Zero(t, h.reload(t, shirts).QuantityReserved)
		order, err := h.orders.GetByID(ctx, orderID)
		require.NoError(t, err)
		assert.Empty(t, order.Shipments)
		assert.Empty(t, h.publisher.EventsByType(ordering.EventTypeOrderAllocated))
	})

	t.Run("cart orders cannot be allocated", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		h.stock(t, main, shirt, 5, true)
		order, err := h.orders.Create(ctx, orderapp.CreateOrderRequest{StoreID: h.storeID, Currency: "usd"})
		require.NoError(t, err)
		_, err = h.orders.AddItem(ctx, order.ID, orderapp.AddItemRequest{VariantID: shirt.ID, Quantity: 1})
		require.NoError(t, err)

		_, err = h.service.AllocateOrder(ctx, order.ID, AllocateRequest{})
		assert.ErrorIs(t, err, ordering.ErrInvalidStateTransition)
	})

	t.Run("empty order", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		orderID := h.order(t, nil)

		_, err := h.service.AllocateOrder(ctx, orderID, AllocateRequest{})
		assert.ErrorIs(t, err, ordering.ErrEmptyOrder)
	})
}

// =============================================================================
// Commit re-validation
// =============================================================================

func TestCommitPlan_StockChangedSincePlanning(t *testing.T) {
	ctx := context.Background()
	h := newFulfillmentHarness(t)
	main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
	shirts := h.stock(t, main, shirt, 3, true)
	orderID := h.order(t, map[ordering.Variant]int{shirt: 3})

	// planned against a snapshot of three available shirts
	plan := fulfillment.NewPlanBuilder(h.storeID, fulfillment.StrategyGreedy)
	plan.Add(fulfillment.Location{ID: main.ID, Code: main.Code}, shirt.ID, 3, false)

	// two of them were reserved by someone else since
	require.NoError(t, h.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		item, err := repos.StockItems().FindByID(ctx, shirts.ID)
		if err != nil {
			return err
		}
		if err := item.Reserve(2); err != nil {
			return err
		}
		return common.SaveStockItem(ctx, repos, item)
	}))

	require.NoError(t, h.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		items := common.NewStockItemSet(repos)
		allocations, err := commitPlan(ctx, repos, items, order, plan.Build())
		if err != nil {
			return err
		}

		require.Len(t, allocations, 1)
		assert.Equal(t, []ordering.AllocatedItem{
			{VariantID: shirt.ID, StockItemID: shirts.ID, Quantity: 1},
			{VariantID: shirt.ID, StockItemID: shirts.ID, Quantity: 2, Backordered: true},
		}, allocations[0].Items)
		return items.Save(ctx)
	}))

	item := h.reload(t, shirts)
	assert.Equal(t, 3, item.QuantityReserved)
	assert.Equal(t, 2, item.QuantityBackordered)
}

func TestFulfillmentService_AllocateOrder_LocationChangedSincePlanning(t *testing.T) {
	ctx := context.Background()

	changes := map[string]func(h *fulfillmentHarness, loc *stock.StockLocation) error{
		"deactivated": func(_ *fulfillmentHarness, loc *stock.StockLocation) error {
			return loc.Deactivate()
		},
		"unlinked from the store": func(h *fulfillmentHarness, loc *stock.StockLocation) error {
			loc.UnlinkStore(h.storeID)
			return nil
		},
		"deleted": func(_ *fulfillmentHarness, loc *stock.StockLocation) error {
			return loc.Delete(time.Now())
		},
	}

	for name, change := range changes {
		t.Run(name, func(t *testing.T) {
			h := newFulfillmentHarness(t)
			h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
			store := h.location(t, "STORE-1", stock.LocationTypeRetailStore, false)
			shirts := h.stock(t, store, shirt, 5, true)
			orderID := h.order(t, map[ordering.Variant]int{shirt: 3})

			h.afterSnapshot(t, func() {
				h.changeLocation(t, store.ID, func(loc *stock.StockLocation) error { return change(h, loc) })
			})

			_, err := h.service.AllocateOrder(ctx, orderID, AllocateRequest{})

			require.ErrorIs(t, err, shared.ErrConcurrencyConflict)
			assert.Equal(t, shared.KindConflict, shared.KindOf(err))
			item := h.reload(t, shirts)
			assert.Zero(t, item.QuantityReserved)
			assert.Zero(t, item.QuantityBackordered)
			order, err := h.orders.GetByID(ctx, orderID)
			require.NoError(t, err)
			assert.Empty(t, order.Shipments)
		})
	}

	t.Run("a fresh plan avoids the location", func(t *testing.T) {
		h := newFulfillmentHarness(t)
		main := h.location(t, "WH-MAIN", stock.LocationTypeWarehouse, true)
		store := h.location(t, "STORE-1", stock.LocationTypeRetailStore, false)
		h.stock(t, store, shirt, 5, true)
		orderID := h.order(t, map[ordering.Variant]int{shirt: 3})
		h.changeLocation(t, store.ID, func(loc *stock.StockLocation) error { return loc.Deactivate() })

		resp, err := h.service.AllocateOrder(ctx, orderID, AllocateRequest{})

		require.NoError(t, err)
		assert.Equal(t, 3, resp.Backordered)
		require.Len(t, resp.Shipments, 1)
		assert.Equal(t, main.ID, resp.Shipments[0].StockLocationID)
	})
}
