package stock

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/internal/infrastructure/persistence"
	"github.com/resys/backend/tests/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// transferHarness runs the transfer service on an in-memory SQLite database
type transferHarness struct {
	scope     *persistence.GormTransactionScope
	items     *persistence.GormStockItemRepository
	movements *persistence.GormStockMovementRepository
	locations *persistence.GormStockLocationRepository
	publisher *testutil.RecordingPublisher
	service   *TransferService
	east      *stock.StockLocation
	west      *stock.StockLocation
	variant   uuid.UUID
}

func newTransferHarness(t *testing.T) *transferHarness {
	t.Helper()
	db := testutil.NewSQLiteDB(t)
	logger := zaptest.NewLogger(t)

	h := &transferHarness{
		items:     persistence.NewGormStockItemRepository(db),
		movements: persistence.NewGormStockMovementRepository(db),
		locations: persistence.NewGormStockLocationRepository(db),
		publisher: testutil.NewRecordingPublisher(),
		variant:   uuid.New(),
	}
	h.scope = persistence.NewGormTransactionScope(db, persistence.WithEventPublisher(h.publisher))
	h.service = NewTransferService(persistence.NewGormStockTransferRepository(db), h.scope, logger)
	h.east = h.location(t, "EAST")
	h.west = h.location(t, "WEST")
	return h
}

func (h *transferHarness) location(t *testing.T, code string) *stock.StockLocation {
	t.Helper()
	loc, err := stock.NewStockLocation("Warehouse "+code, code, stock.LocationTypeWarehouse)
	require.NoError(t, err)
	require.NoError(t, h.locations.Save(context.Background(), loc))
	return loc
}

func (h *transferHarness) stockAt(t *testing.T, loc *stock.StockLocation, onHand int) *stock.StockItem {
	t.Helper()
	item, err := stock.NewStockItem(h.variant, loc.ID, "TEE-RED-M", onHand, decimal.NewFromInt(4))
	require.NoError(t, err)
	require.NoError(t, h.scope.Execute(context.Background(), func(repos common.TransactionalRepositories) error {
		return common.SaveStockItem(context.Background(), repos, item)
	}))
	return item
}

func (h *transferHarness) onHand(t *testing.T, loc *stock.StockLocation) int {
	t.Helper()
	item, err := h.items.FindByVariantAndLocation(context.Background(), h.variant, loc.ID)
	require.NoError(t, err)
	return item.QuantityOnHand
}

func (h *transferHarness) draft(t *testing.T, qty int) *StockTransferResponse {
	t.Helper()
	resp, err := h.service.Create(context.Background(), CreateStockTransferRequest{
		SourceLocationID:      h.east.ID,
		DestinationLocationID: h.west.ID,
		Reason:                "rebalance",
		Items:                 []TransferItemRequest{{VariantID: h.variant, Quantity: qty}},
	})
	require.NoError(t, err)
	return resp
}

// =============================================================================
// Create and items
// =============================================================================

func TestTransferService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("opens a draft with the source SKU on each line", func(t *testing.T) {
		h := newTransferHarness(t)
		h.stockAt(t, h.east, 10)

		resp := h.draft(t, 3)

		assert.Equal(t, "DRAFT", resp.Status)
		assert.Contains(t, resp.ReferenceNumber, stock.TransferReferencePrefix)
		require.Len(t, resp.Items, 1)
		assert.Equal(t, "TEE-RED-M", resp.Items[0].SKU)
		assert.Equal(t, 3, resp.TotalQuantity)
		assert.Len(t, h.publisher.EventsByType(stock.EventTypeStockTransferCreated), 1)
		assert.Equal(t, 10, h.onHand(t, h.east), "a draft moves nothing")
	})

	t.Run("variant must be stocked at the source", func(t *testing.T) {
		h := newTransferHarness(t)
		_, err := h.service.Create(ctx, CreateStockTransferRequest{
			SourceLocationID:      h.east.ID,
			DestinationLocationID: h.west.ID,
			Items:                 []TransferItemRequest{{VariantID: h.variant, Quantity: 1}},
		})
		assert.ErrorIs(t, err, stock.ErrStockItemNotFound)
	})

	t.Run("rejects unknown and deleted locations", func(t *testing.T) {
		h := newTransferHarness(t)
		_, err := h.service.Create(ctx, CreateStockTransferRequest{SourceLocationID: h.east.ID, DestinationLocationID: uuid.New()})
		assert.ErrorIs(t, err, stock.ErrLocationNotFound)

		gone := h.location(t, "GONE")
		require.NoError(t, h.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			loc, err := repos.StockLocations().FindByID(ctx, gone.ID)
			if err != nil {
				return err
			}
			if err := loc.Delete(time.Now()); err != nil {
				return err
			}
			return common.SaveLocation(ctx, repos, loc)
		}))
		_, err = h.service.Create(ctx, CreateStockTransferRequest{SourceLocationID: h.east.ID, DestinationLocationID: gone.ID})
		assert.ErrorIs(t, err, stock.ErrLocationDeleted)
	})

	t.Run("rejects the same location at both ends", func(t *testing.T) {
		h := newTransferHarness(t)
		_, err := h.service.Create(ctx, CreateStockTransferRequest{SourceLocationID: h.east.ID, DestinationLocationID: h.east.ID})
		assert.ErrorIs(t, err, stock.ErrSameLocation)
	})
}

func TestTransferService_Items(t *testing.T) {
	ctx := context.Background()
	h := newTransferHarness(t)
	h.stockAt(t, h.east, 10)
	draft := h.draft(t, 2)

	resp, err := h.service.AddItem(ctx, draft.ID, TransferItemRequest{VariantID: h.variant, Quantity: 3})
	require.NoError(t, err)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, 5, resp.Items[0].Quantity)

	reloaded, err := h.service.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, reloaded.TotalQuantity)
	assert.Greater(t, reloaded.Version, draft.Version)

	resp, err = h.service.RemoveItem(ctx, draft.ID, h.variant)
	require.NoError(t, err)
	assert.Empty(t, resp.Items)

	t.Run("an empty transfer cannot ship", func(t *testing.T) {
		_, err := h.service.Ship(ctx, draft.ID)
		assert.ErrorIs(t, err, stock.ErrEmptyTransfer)
	})

	t.Run("unknown transfer", func(t *testing.T) {
		_, err := h.service.GetByID(ctx, uuid.New())
		assert.ErrorIs(t, err, stock.ErrTransferNotFound)
	})
}

// =============================================================================
// Ship, receive and cancel
// =============================================================================

func TestTransferService_ShipAndReceive(t *testing.T) {
	ctx := context.Background()
	h := newTransferHarness(t)
	source := h.stockAt(t, h.east, 10)
	draft := h.draft(t, 4)

	shipped, err := h.service.Ship(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "IN_TRANSIT", shipped.Status)
	assert.NotNil(t, shipped.ShippedAt)
	assert.Equal(t, 6, h.onHand(t, h.east))

	t.Run("stock in transit is held nowhere", func(t *testing.T) {
		_, err := h.items.FindByVariantAndLocation(ctx, h.variant, h.west.ID)
		assert.ErrorIs(t, err, stock.ErrStockItemNotFound)
	})

	t.Run("items are frozen once shipped", func(t *testing.T) {
		_, err := h.service.AddItem(ctx, draft.ID, TransferItemRequest{VariantID: h.variant, Quantity: 1})
		assert.ErrorIs(t, err, stock.ErrInvalidTransferState)
	})

	received, err := h.service.Receive(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED", received.Status)
	assert.Equal(t, 4, h.onHand(t, h.west))

	t.Run("destination item inherits SKU and cost", func(t *testing.T) {
		dest, err := h.items.FindByVariantAndLocation(ctx, h.variant, h.west.ID)
		require.NoError(t, err)
		assert.Equal(t, "TEE-RED-M", dest.SKU)
		assert.True(t, decimal.NewFromInt(4).Equal(dest.LastUnitCost))
	})

	t.Run("both legs are in the ledger under the reference", func(t *testing.T) {
		movements, _, err := h.movements.FindByStockItem(ctx, source.ID, shared.DefaultFilter())
		require.NoError(t, err)
		var out *stock.StockMovement
		for _, m := range movements {
			if m.Type == stock.MovementTypeTransferOut {
				out = m
			}
		}
		require.NotNil(t, out)
		assert.Equal(t, -4, out.QuantityDelta)
		assert.Equal(t, draft.ReferenceNumber, out.Reference)
	})

	t.Run("a completed transfer cannot be canceled", func(t *testing.T) {
		_, err := h.service.Cancel(ctx, draft.ID)
		assert.ErrorIs(t, err, stock.ErrInvalidTransferState)
	})

	assert.Len(t, h.publisher.EventsByType(stock.EventTypeStockTransferShipped), 1)
	assert.Len(t, h.publisher.EventsByType(stock.EventTypeStockTransferReceived), 1)
}

func TestTransferService_Ship_InsufficientStock(t *testing.T) {
	ctx := context.Background()
	h := newTransferHarness(t)
	h.stockAt(t, h.east, 2)
	draft := h.draft(t, 5)

	_, err := h.service.Ship(ctx, draft.ID)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)

	reloaded, err := h.service.GetByID(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "DRAFT", reloaded.Status, "the failed ship rolls back")
	assert.Equal(t, 2, h.onHand(t, h.east))
}

func TestTransferService_Cancel(t *testing.T) {
	ctx := context.Background()

	t.Run("a draft cancels without touching stock", func(t *testing.T) {
		h := newTransferHarness(t)
		h.stockAt(t, h.east, 10)
		draft := h.draft(t, 4)

		resp, err := h.service.Cancel(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, "CANCELED", resp.Status)
		assert.Equal(t, 10, h.onHand(t, h.east))
	})

	t.Run("a transfer in transit puts its stock back at the source", func(t *testing.T) {
		h := newTransferHarness(t)
		source := h.stockAt(t, h.east, 10)
		draft := h.draft(t, 4)
		_, err := h.service.Ship(ctx, draft.ID)
		require.NoError(t, err)

		resp, err := h.service.Cancel(ctx, draft.ID)
		require.NoError(t, err)
		assert.Equal(t, "CANCELED", resp.Status)
		assert.NotNil(t, resp.CanceledAt)
		assert.Equal(t, 10, h.onHand(t, h.east))

		sum, err := h.movements.SumDeltas(ctx, source.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(10), sum)

		_, err = h.service.Receive(ctx, draft.ID)
		assert.ErrorIs(t, err, stock.ErrInvalidTransferState)
	})
}

func TestTransferService_List(t *testing.T) {
	ctx := context.Background()
	h := newTransferHarness(t)
	h.stockAt(t, h.east, 10)
	first := h.draft(t, 1)
	h.draft(t, 2)
	_, err := h.service.Ship(ctx, first.ID)
	require.NoError(t, err)

	page, err := h.service.List(ctx, TransferListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = h.service.List(ctx, TransferListFilter{Status: "IN_TRANSIT"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, first.ID, page.Items[0].ID)
}
