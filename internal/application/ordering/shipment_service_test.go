package ordering

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (h *harness) movementTypes(t *testing.T, item *stock.StockItem) []stock.MovementType {
	t.Helper()
	movements, _, err := h.movements.FindByStockItem(context.Background(), item.ID, shared.DefaultFilter())
	require.NoError(t, err)
	types := make([]stock.MovementType, 0, len(movements))
	for _, m := range movements {
		types = append(types, m.Type)
	}
	return types
}

func (h *harness) receive(t *testing.T, item *stock.StockItem, qty int) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, h.scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		fresh, err := repos.StockItems().FindByID(ctx, item.ID)
		if err != nil {
			return err
		}
		if _, err := fresh.Receive(qty, decimal.NewFromInt(3), "PO-1"); err != nil {
			return err
		}
		return common.SaveStockItem(ctx, repos, fresh)
	}))
}

func (h *harness) unitOf(t *testing.T, orderID uuid.UUID, variantID uuid.UUID, state ordering.UnitState) UnitResponse {
	t.Helper()
	order, err := h.orderSvc.GetByID(context.Background(), orderID)
	require.NoError(t, err)
	for _, u := range unitsInState(order, state) {
		if u.VariantID == variantID {
			return u
		}
	}
	require.FailNow(t, "unit not found", "no %s unit of variant %s", state, variantID)
	return UnitResponse{}
}

// =============================================================================
// Pipeline
// =============================================================================

func TestShipmentService_Pipeline(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	shirts := h.stockItem(t, shirt, 5)
	mugs := h.stockItem(t, mug, 5)
	order := h.checkout(t)
	shipment := h.allocate(t, order.ID, shirts, mugs)
	assert.Equal(t, ordering.ShipmentStateReady, shipment.State)

	resp, err := h.shipSvc.Pick(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "PICKED", resp.State)
	assert.NotNil(t, resp.PickedAt)

	resp, err = h.shipSvc.Pack(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "PACKED", resp.State)

	t.Run("shipping needs a tracking number and leaves stock alone", func(t *testing.T) {
		_, err := h.shipSvc.Ship(ctx, shipment.ID, ShipRequest{TrackingNumber: "  "})
		assert.ErrorIs(t, err, ordering.ErrTrackingNumberRequired)

		item := h.reload(t, shirts)
		assert.Equal(t, 5, item.QuantityOnHand)
		assert.Equal(t, 2, item.QuantityReserved)
	})

	t.Run("shipping consumes the reservations", func(t *testing.T) {
		resp, err := h.shipSvc.Ship(ctx, shipment.ID, ShipRequest{TrackingNumber: "1Z999"})
		require.NoError(t, err)
		assert.Equal(t, "SHIPPED", resp.State)
		assert.Equal(t, "1Z999", resp.TrackingNumber)

		item := h.reload(t, shirts)
		assert.Equal(t, 3, item.QuantityOnHand)
		assert.Zero(t, item.QuantityReserved)
		assert.Equal(t, 4, h.reload(t, mugs).QuantityOnHand)
		assert.Equal(t, []stock.MovementType{stock.MovementTypeSale, stock.MovementTypeReceipt}, h.movementTypes(t, shirts))

		movements, _, err := h.movements.FindByStockItem(ctx, shirts.ID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, resp.Number, movements[0].Reference)
		assert.Equal(t, -2, movements[0].QuantityDelta)

		full, err := h.orderSvc.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Len(t, unitsInState(full, ordering.UnitStateShipped), 3)
		assert.Len(t, h.publisher.EventsByType(ordering.EventTypeShipmentShipped), 1)
	})

	t.Run("shipped shipments cannot be canceled", func(t *testing.T) {
		_, err := h.shipSvc.Cancel(ctx, shipment.ID)
		assert.ErrorIs(t, err, ordering.ErrShipmentAlreadyShipped)
	})

	t.Run("delivery", func(t *testing.T) {
		resp, err := h.shipSvc.Deliver(ctx, shipment.ID)
		require.NoError(t, err)
		assert.Equal(t, "DELIVERED", resp.State)
		assert.NotNil(t, resp.DeliveredAt)
	})

	t.Run("a shipped unit cannot be written off before it is returned", func(t *testing.T) {
		unit := h.unitOf(t, order.ID, shirt.ID, ordering.UnitStateShipped)
		_, err := h.shipSvc.MarkUnitDamaged(ctx, order.ID, unit.ID)
		assert.ErrorIs(t, err, ordering.ErrAlreadyShipped)
	})

	t.Run("returns restock and damage writes off", func(t *testing.T) {
		unit := h.unitOf(t, order.ID, shirt.ID, ordering.UnitStateShipped)

		resp, err := h.shipSvc.ReturnUnit(ctx, order.ID, unit.ID)
		require.NoError(t, err)
		assert.Equal(t, "RETURNED", resp.State)
		assert.Equal(t, 4, h.reload(t, shirts).QuantityOnHand)

		resp, err = h.shipSvc.MarkUnitDamaged(ctx, order.ID, unit.ID)
		require.NoError(t, err)
		assert.Equal(t, "DAMAGED", resp.State)
		assert.Equal(t, 3, h.reload(t, shirts).QuantityOnHand)
		assert.Equal(t, []stock.MovementType{
			stock.MovementTypeLoss, stock.MovementTypeReturn, stock.MovementTypeSale, stock.MovementTypeReceipt,
		}, h.movementTypes(t, shirts))
	})

	t.Run("unknown shipment", func(t *testing.T) {
		_, err := h.shipSvc.Pick(ctx, uuid.New())
		assert.ErrorIs(t, err, ordering.ErrShipmentNotFound)
	})
}

// =============================================================================
// Backorders
// =============================================================================

func TestShipmentService_Backorders(t *testing.T) {
	ctx := context.Background()

	t.Run("a shipment with backordered units cannot ship", func(t *testing.T) {
		h := newHarness(t)
		shirts := h.stockItem(t, shirt, 1)
		mugs := h.stockItem(t, mug, 5)
		order := h.checkout(t)
		shipment := h.allocate(t, order.ID, shirts, mugs)
		assert.Equal(t, ordering.ShipmentStatePending, shipment.State)

		_, err := h.shipSvc.Pick(ctx, shipment.ID)
		require.NoError(t, err)
		_, err = h.shipSvc.Ship(ctx, shipment.ID, ShipRequest{TrackingNumber: "1Z1"})
		assert.ErrorIs(t, err, ordering.ErrUnitsNotReady)
		assert.Equal(t, 1, h.reload(t, shirts).QuantityOnHand)
	})

	t.Run("reserving a backordered unit needs stock", func(t *testing.T) {
		h := newHarness(t)
		shirts := h.stockItem(t, shirt, 1)
		mugs := h.stockItem(t, mug, 5)
		order := h.checkout(t)
		h.allocate(t, order.ID, shirts, mugs)
		unit := h.unitOf(t, order.ID, shirt.ID, ordering.UnitStateBackordered)

		_, err := h.shipSvc.ReserveBackorderedUnit(ctx, order.ID, unit.ID)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, 1, h.reload(t, shirts).QuantityBackordered)
	})

	t.Run("incoming stock turns the backorder into a reservation", func(t *testing.T) {
		h := newHarness(t)
		shirts := h.stockItem(t, shirt, 1)
		mugs := h.stockItem(t, mug, 5)
		order := h.checkout(t)
		shipment := h.allocate(t, order.ID, shirts, mugs)
		unit := h.unitOf(t, order.ID, shirt.ID, ordering.UnitStateBackordered)
		h.receive(t, shirts, 3)

		resp, err := h.shipSvc.ReserveBackorderedUnit(ctx, order.ID, unit.ID)
		require.NoError(t, err)
		assert.Equal(t, "ON_HAND", resp.State)

		item := h.reload(t, shirts)
		assert.Equal(t, 2, item.QuantityReserved)
		assert.Zero(t, item.QuantityBackordered)

		full, err := h.orderSvc.GetByID(ctx, order.ID)
		require.NoError(t, err)
		require.Len(t, full.Shipments, 1)
		assert.Equal(t, shipment.ID, full.Shipments[0].ID)
		assert.Equal(t, "READY", full.Shipments[0].State)

		_, err = h.shipSvc.ReserveBackorderedUnit(ctx, order.ID, unit.ID)
		assert.ErrorIs(t, err, ordering.ErrInvalidUnitTransition)
	})
}

// =============================================================================
// Cancel and write-offs
// =============================================================================

func TestShipmentService_Cancel(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	shirts := h.stockItem(t, shirt, 1)
	mugs := h.stockItem(t, mug, 5)
	order := h.checkout(t)
	shipment := h.allocate(t, order.ID, shirts, mugs)

	resp, err := h.shipSvc.Cancel(ctx, shipment.ID)
	require.NoError(t, err)
	assert.Equal(t, "CANCELED", resp.State)

	item := h.reload(t, shirts)
	assert.Zero(t, item.QuantityReserved)
	assert.Zero(t, item.QuantityBackordered)
	assert.Zero(t, h.reload(t, mugs).QuantityReserved)

	t.Run("canceling again is a no-op", func(t *testing.T) {
		_, err := h.shipSvc.Cancel(ctx, shipment.ID)
		require.NoError(t, err)
		assert.Len(t, h.publisher.EventsByType(ordering.EventTypeShipmentCanceled), 1)
	})

	t.Run("the order allocates the units again and completes", func(t *testing.T) {
		detached, err := h.orderSvc.GetByID(ctx, order.ID)
		require.NoError(t, err)
		for _, u := range detached.Units {
			assert.Equal(t, "CANCELED", u.State)
			assert.Nil(t, u.ShipmentID)
		}

		again := h.allocate(t, order.ID, shirts, mugs)
		assert.NotEqual(t, shipment.ID, again.ID)
		item := h.reload(t, shirts)
		assert.Equal(t, 1, item.QuantityReserved)
		assert.Equal(t, 1, item.QuantityBackordered)

		_, err = h.orderSvc.RecordPayment(ctx, order.ID, RecordPaymentRequest{AmountCents: order.Total, State: "COMPLETED"})
		require.NoError(t, err)
		_, err = h.orderSvc.Next(ctx, order.ID)
		require.NoError(t, err)
		resp, err := h.orderSvc.Next(ctx, order.ID)
		require.NoError(t, err)

		assert.Equal(t, "COMPLETE", resp.State)
		assert.Len(t, resp.Shipments, 2)
		assert.Empty(t, unitsInState(resp, ordering.UnitStateCanceled))
		assert.Len(t, unitsInState(resp, ordering.UnitStateBackordered), 1)
	})
}

func TestShipmentService_MarkUnitDamaged(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	shirts := h.stockItem(t, shirt, 1)
	mugs := h.stockItem(t, mug, 5)
	order := h.checkout(t)
	h.allocate(t, order.ID, shirts, mugs)

	t.Run("an on-hand unit releases its reservation and leaves stock", func(t *testing.T) {
		unit := h.unitOf(t, order.ID, mug.ID, ordering.UnitStateOnHand)

		resp, err := h.shipSvc.MarkUnitDamaged(ctx, order.ID, unit.ID)
		require.NoError(t, err)
		assert.Equal(t, "DAMAGED", resp.State)

		item := h.reload(t, mugs)
		assert.Zero(t, item.QuantityReserved)
		assert.Equal(t, 4, item.QuantityOnHand)
		assert.Equal(t, stock.MovementTypeLoss, h.movementTypes(t, mugs)[0])
	})

	t.Run("a backordered unit withdraws its promise", func(t *testing.T) {
		unit := h.unitOf(t, order.ID, shirt.ID, ordering.UnitStateBackordered)

		_, err := h.shipSvc.MarkUnitDamaged(ctx, order.ID, unit.ID)
		require.NoError(t, err)

		item := h.reload(t, shirts)
		assert.Zero(t, item.QuantityBackordered)
		assert.Equal(t, 1, item.QuantityOnHand)
		assert.Equal(t, 1, item.QuantityReserved)
	})
}
