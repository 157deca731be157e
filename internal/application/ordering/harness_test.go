package ordering

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/internal/infrastructure/cache"
	"github.com/resys/backend/internal/infrastructure/persistence"
	"github.com/resys/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var (
	shirt = ordering.Variant{ID: uuid.MustParse("00000000-0000-0000-0000-00000000a001"), SKU: "SHIRT-M", PriceCents: 2500}
	mug   = ordering.Variant{ID: uuid.MustParse("00000000-0000-0000-0000-00000000a002"), SKU: "MUG", PriceCents: 900}
)

// harness wires the services to an in-memory SQLite database
type harness struct {
	scope     *persistence.GormTransactionScope
	orders    *persistence.GormOrderRepository
	items     *persistence.GormStockItemRepository
	movements *persistence.GormStockMovementRepository
	locations *persistence.GormStockLocationRepository
	publisher *testutil.RecordingPublisher
	orderSvc  *OrderService
	shipSvc   *ShipmentService
	storeID   uuid.UUID
	location  *stock.StockLocation
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	logger := zaptest.NewLogger(t)

	h := &harness{
		orders:    persistence.NewGormOrderRepository(db),
		items:     persistence.NewGormStockItemRepository(db),
		movements: persistence.NewGormStockMovementRepository(db),
		locations: persistence.NewGormStockLocationRepository(db),
		publisher: testutil.NewRecordingPublisher(),
		storeID:   uuid.New(),
	}
	h.scope = persistence.NewGormTransactionScope(db,
		persistence.WithEventPublisher(h.publisher),
		persistence.WithScopeLogger(logger),
	)
	h.orderSvc = NewOrderService(h.orders, cache.NewInMemoryVariantCatalog(shirt, mug), h.scope, logger)
	h.shipSvc = NewShipmentService(h.scope, logger)

	loc, err := stock.NewStockLocation("Main warehouse", "WH-MAIN", stock.LocationTypeWarehouse)
	require.NoError(t, err)
	loc.LinkStore(h.storeID)
	require.NoError(t, h.locations.Save(context.Background(), loc))
	h.location = loc
	return h
}

// stockItem puts onHand units of a variant in the main warehouse
func (h *harness) stockItem(t *testing.T, v ordering.Variant, onHand int) *stock.StockItem {
	t.Helper()
	item, err := stock.NewStockItem(v.ID, h.location.ID, v.SKU, onHand, decimal.NewFromInt(3))
	require.NoError(t, err)
	require.NoError(t, h.scope.Execute(context.Background(), func(repos common.TransactionalRepositories) error {
		return common.SaveStockItem(context.Background(), repos, item)
	}))
	return item
}

func (h *harness) reload(t *testing.T, item *stock.StockItem) *stock.StockItem {
	t.Helper()
	found, err := h.items.FindByID(context.Background(), item.ID)
	require.NoError(t, err)
	return found
}

// checkout creates an order with two shirts and one mug and walks it to PAYMENT
func (h *harness) checkout(t *testing.T) *OrderResponse {
	t.Helper()
	ctx := context.Background()

	order, err := h.orderSvc.Create(ctx, CreateOrderRequest{StoreID: h.storeID, Email: "buyer@example.com", Currency: "usd"})
	require.NoError(t, err)
	_, err = h.orderSvc.AddItem(ctx, order.ID, AddItemRequest{VariantID: shirt.ID, Quantity: 2})
	require.NoError(t, err)
	_, err = h.orderSvc.AddItem(ctx, order.ID, AddItemRequest{VariantID: mug.ID, Quantity: 1})
	require.NoError(t, err)
	_, err = h.orderSvc.Next(ctx, order.ID)
	require.NoError(t, err)

	addr := testAddressInput()
	_, err = h.orderSvc.SetAddresses(ctx, order.ID, AddressesRequest{ShipAddress: addr, BillAddress: addr})
	require.NoError(t, err)
	_, err = h.orderSvc.Next(ctx, order.ID)
	require.NoError(t, err)
	_, err = h.orderSvc.SetShippingMethod(ctx, order.ID, ShippingMethodRequest{ShippingMethodID: uuid.New(), CostCents: 500})
	require.NoError(t, err)
	order, err = h.orderSvc.Next(ctx, order.ID)
	require.NoError(t, err)
	return order
}

// allocate reserves what the given stock items can cover and backorders the
// rest, all in one shipment from the main warehouse
func (h *harness) allocate(t *testing.T, orderID uuid.UUID, sources ...*stock.StockItem) *ordering.Shipment {
	t.Helper()
	ctx := context.Background()

	var shipment *ordering.Shipment
	require.NoError(t, h.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		items := common.NewStockItemSet(repos)
		alloc := ordering.ShipmentAllocation{StockLocationID: h.location.ID}
		for variantID, qty := range order.RequestedQuantities() {
			var source *stock.StockItem
			for _, s := range sources {
				if s.VariantID == variantID {
					source = s
				}
			}
			require.NotNil(t, source, "no stock item for variant %s", variantID)

			item, err := items.Get(ctx, source.ID)
			if err != nil {
				return err
			}
			reserved := min(qty, item.Available())
			if reserved > 0 {
				if err := item.Reserve(reserved); err != nil {
					return err
				}
				alloc.Items = append(alloc.Items, ordering.AllocatedItem{VariantID: variantID, StockItemID: item.ID, Quantity: reserved})
			}
			if rest := qty - reserved; rest > 0 {
				if err := item.Backorder(rest); err != nil {
					return err
				}
				alloc.Items = append(alloc.Items, ordering.AllocatedItem{VariantID: variantID, StockItemID: item.ID, Quantity: rest, Backordered: true})
			}
		}
		shipments, err := order.Allocate([]ordering.ShipmentAllocation{alloc}, time.Now())
		if err != nil {
			return err
		}
		shipment = shipments[0]
		if err := items.Save(ctx); err != nil {
			return err
		}
		return common.SaveOrder(ctx, repos, order)
	}))
	return shipment
}

func testAddressInput() common.AddressInput {
	return common.AddressInput{
		FirstName:  "Ada",
		LastName:   "Lovelace",
		Line1:      "1 Analytical Way",
		City:       "London",
		PostalCode: "N1 9GU",
		Country:    "GB",
	}
}

func unitsInState(resp *OrderResponse, state ordering.UnitState) []UnitResponse {
	var out []UnitResponse
	for _, u := range resp.Units {
		if u.State == state.String() {
			out = append(out, u)
		}
	}
	return out
}
