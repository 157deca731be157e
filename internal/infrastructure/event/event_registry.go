package event

import (
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/stock"
)

// RegisterAllEvents registers every domain event type with the serializer so
// the outbox processor can rebuild them from stored payloads
func RegisterAllEvents(serializer *EventSerializer) {
	// Stock
	serializer.Register(stock.EventTypeStockLocationCreated, &stock.StockLocationCreatedEvent{})
	serializer.Register(stock.EventTypeStockLocationStatusChanged, &stock.StockLocationStatusChangedEvent{})
	serializer.Register(stock.EventTypeStockMovementRecorded, &stock.StockMovementRecordedEvent{})
	for _, eventType := range stock.TransferEventTypes {
		serializer.Register(eventType, &stock.StockTransferEvent{})
	}

	// Orders
	serializer.Register(ordering.EventTypeOrderCreated, &ordering.OrderCreatedEvent{})
	serializer.Register(ordering.EventTypeOrderStateChanged, &ordering.OrderStateChangedEvent{})
	serializer.Register(ordering.EventTypeOrderAllocated, &ordering.OrderAllocatedEvent{})
	serializer.Register(ordering.EventTypeOrderCompleted, &ordering.OrderCompletedEvent{})
	serializer.Register(ordering.EventTypeOrderCanceled, &ordering.OrderCanceledEvent{})
	serializer.Register(ordering.EventTypeInventoryUnitStateChanged, &ordering.InventoryUnitStateChangedEvent{})

	// Shipments share one payload type
	for _, eventType := range ordering.ShipmentEventTypes {
		serializer.Register(eventType, &ordering.ShipmentStateChangedEvent{})
	}
}
