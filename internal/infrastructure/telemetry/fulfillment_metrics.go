package telemetry

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
)

// FulfillmentMetrics holds the business instruments of the service.
type FulfillmentMetrics struct {
	ordersCreated     *Counter
	ordersCompleted   *Counter
	ordersCanceled    *Counter
	orderRevenue      *Counter
	allocations       *Counter
	backorderedUnits  *Counter
	shipmentsShipped  *Counter
	shipmentsCanceled *Counter
	planDuration      *Histogram
	planErrors        *Counter
}

// NewFulfillmentMetrics creates the instruments on meter.
func NewFulfillmentMetrics(meter metric.Meter) (*FulfillmentMetrics, error) {
	m := &FulfillmentMetrics{}
	counters := []struct {
		dst        **Counter
		name, desc string
		unit       string
	}{
		{&m.ordersCreated, "orders_created_total", "Orders created", "{order}"},
		{&m.ordersCompleted, "orders_completed_total", "Orders completed", "{order}"},
		{&m.ordersCanceled, "orders_canceled_total", "Orders canceled", "{order}"},
		{&m.orderRevenue, "order_revenue_cents_total", "Total of completed orders in minor units", "{cent}"},
		{&m.allocations, "order_allocations_total", "Order allocations by outcome", "{allocation}"},
		{&m.backorderedUnits, "inventory_units_backordered_total", "Units allocated as backorders", "{unit}"},
		{&m.shipmentsShipped, "shipments_shipped_total", "Shipments handed to a carrier", "{shipment}"},
		{&m.shipmentsCanceled, "shipments_canceled_total", "Shipments canceled", "{shipment}"},
		{&m.planErrors, "fulfillment_plan_errors_total", "Failed fulfillment plans", "{plan}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	h, err := NewHistogram(meter, HistogramOpts{
		Name:        "fulfillment_plan_duration_seconds",
		Description: "Time spent computing a fulfillment plan",
		Unit:        "s",
		Boundaries:  SmallDurationBuckets,
	})
	if err != nil {
		return nil, err
	}
	m.planDuration = h
	return m, nil
}

// RecordPlan records one planning run.
func (m *FulfillmentMetrics) RecordPlan(ctx context.Context, strategy string, d time.Duration, err error) {
	attr := AttrStrategy.String(strategy)
	m.planDuration.RecordDuration(ctx, d, attr)
	if err != nil {
		m.planErrors.Inc(ctx, attr)
	}
}

// Handle implements shared.EventHandler.
func (m *FulfillmentMetrics) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *ordering.OrderCreatedEvent:
		m.ordersCreated.Inc(ctx, AttrStoreID.String(e.StoreID.String()))
	case *ordering.OrderCompletedEvent:
		store := AttrStoreID.String(e.StoreID.String())
		m.ordersCompleted.Inc(ctx, store)
		m.orderRevenue.Add(ctx, e.TotalCents, store, attribute.String("currency", e.Currency))
	case *ordering.OrderCanceledEvent:
		m.ordersCanceled.Inc(ctx, AttrOrderState.String(string(e.FromState)))
	case *ordering.OrderAllocatedEvent:
		outcome := "partial"
		if e.FullFulfillment {
			outcome = "full"
		}
		m.allocations.Inc(ctx, AttrAllocation.String(outcome))
		var backordered int64
		for _, s := range e.Shipments {
			backordered += int64(s.Backordered)
		}
		if backordered > 0 {
			m.backorderedUnits.Add(ctx, backordered)
		}
	case *ordering.ShipmentStateChangedEvent:
		loc := AttrStockLocationID.String(e.StockLocationID.String())
		switch e.EventType() {
		case ordering.EventTypeShipmentShipped:
			m.shipmentsShipped.Inc(ctx, loc)
		case ordering.EventTypeShipmentCanceled:
			m.shipmentsCanceled.Inc(ctx, loc)
		}
	}
	return nil
}

// EventTypes implements shared.EventHandler.
func (m *FulfillmentMetrics) EventTypes() []string {
	return []string{
		ordering.EventTypeOrderCreated,
		ordering.EventTypeOrderCompleted,
		ordering.EventTypeOrderCanceled,
		ordering.EventTypeOrderAllocated,
		ordering.EventTypeShipmentShipped,
		ordering.EventTypeShipmentCanceled,
	}
}
