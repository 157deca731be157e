package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
)

func TestFulfillmentMetrics_Handle(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewFulfillmentMetrics(mp.Meter("resys.fulfillment"))
	require.NoError(t, err)

	ctx := context.Background()
	orderID := uuid.New()
	storeID := uuid.New()

	events := []shared.DomainEvent{
		&ordering.OrderCreatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeOrderCreated, ordering.AggregateTypeOrder, orderID),
			OrderID:         orderID,
			StoreID:         storeID,
		},
		&ordering.OrderAllocatedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeOrderAllocated, ordering.AggregateTypeOrder, orderID),
			OrderID:         orderID,
			Shipments: []ordering.AllocatedShipmentInfo{
				{ShipmentID: uuid.New(), Units: 2},
				{ShipmentID: uuid.New(), Units: 3, Backordered: 2},
			},
		},
		&ordering.ShipmentStateChangedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeShipmentShipped, ordering.AggregateTypeShipment, uuid.New()),
			StockLocationID: uuid.New(),
		},
		&ordering.ShipmentStateChangedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeShipmentPacked, ordering.AggregateTypeShipment, uuid.New()),
		},
		&ordering.OrderCompletedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeOrderCompleted, ordering.AggregateTypeOrder, orderID),
			OrderID:         orderID,
			StoreID:         storeID,
			TotalCents:      5900,
			Currency:        "USD",
		},
		&ordering.OrderCanceledEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeOrderCanceled, ordering.AggregateTypeOrder, uuid.New()),
			FromState:       ordering.OrderStatePayment,
		},
	}
	for _, e := range events {
		require.NoError(t, m.Handle(ctx, e))
	}

	metrics := collect(t, reader)
	assert.Equal(t, int64(1), sumOf(t, metrics["orders_created_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["orders_completed_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["orders_canceled_total"]))
	assert.Equal(t, int64(5900), sumOf(t, metrics["order_revenue_cents_total"]))
	assert.Equal(t, int64(2), sumOf(t, metrics["inventory_units_backordered_total"]))
	assert.Equal(t, int64(1), sumOf(t, metrics["shipments_shipped_total"]))
	assert.NotContains(t, metrics, "shipments_canceled_total")

	allocations := metrics["order_allocations_total"].Data.(metricdata.Sum[int64])
	require.Len(t, allocations.DataPoints, 1)
	outcome, ok := allocations.DataPoints[0].Attributes.Value(AttrAllocation)
	require.True(t, ok)
	assert.Equal(t, "partial", outcome.AsString())
}

func TestFulfillmentMetrics_RecordPlan(t *testing.T) {
	mp, reader := newTestMeter(t)
	m, err := NewFulfillmentMetrics(mp.Meter("resys.fulfillment"))
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordPlan(ctx, "GREEDY", 3*time.Millisecond, nil)
	m.RecordPlan(ctx, "GREEDY", time.Millisecond, errors.New("no locations"))

	metrics := collect(t, reader)
	hist, ok := metrics["fulfillment_plan_duration_seconds"].Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.Equal(t, int64(1), sumOf(t, metrics["fulfillment_plan_errors_total"]))
}

func TestFulfillmentMetrics_EventTypes(t *testing.T) {
	m := &FulfillmentMetrics{}
	assert.Contains(t, m.EventTypes(), ordering.EventTypeOrderAllocated)
	assert.Contains(t, m.EventTypes(), ordering.EventTypeShipmentShipped)
	assert.NotContains(t, m.EventTypes(), ordering.EventTypeShipmentPicked)
}
