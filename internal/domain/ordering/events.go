package ordering

import (
	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// Aggregate type names
const (
	AggregateTypeOrder         = "Order"
	AggregateTypeInventoryUnit = "InventoryUnit"
	AggregateTypeShipment      = "Shipment"
)

// Event type names
const (
	EventTypeOrderCreated              = "OrderCreated"
	EventTypeOrderStateChanged         = "OrderStateChanged"
	EventTypeOrderAllocated            = "OrderAllocated"
	EventTypeOrderCompleted            = "OrderCompleted"
	EventTypeOrderCanceled             = "OrderCanceled"
	EventTypeInventoryUnitStateChanged = "InventoryUnitStateChanged"
	EventTypeShipmentReady             = "ShipmentReady"
	EventTypeShipmentPicked            = "ShipmentPicked"
	EventTypeShipmentPacked            = "ShipmentPacked"
	EventTypeShipmentShipped           = "ShipmentShipped"
	EventTypeShipmentDelivered         = "ShipmentDelivered"
	EventTypeShipmentCanceled          = "ShipmentCanceled"
)

// ShipmentEventTypes lists every event type carried by ShipmentStateChangedEvent
var ShipmentEventTypes = []string{
	EventTypeShipmentReady,
	EventTypeShipmentPicked,
	EventTypeShipmentPacked,
	EventTypeShipmentShipped,
	EventTypeShipmentDelivered,
	EventTypeShipmentCanceled,
}

// OrderCreatedEvent is raised when a cart is started
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID  uuid.UUID `json:"order_id"`
	Number   string    `json:"number"`
	StoreID  uuid.UUID `json:"store_id"`
	Email    string    `json:"email"`
	Currency string    `json:"currency"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		StoreID:         o.StoreID,
		Email:           o.Email,
		Currency:        o.Currency,
	}
}

// OrderStateChangedEvent is raised on every checkout step
type OrderStateChangedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID  `json:"order_id"`
	Number    string     `json:"number"`
	FromState OrderState `json:"from_state"`
	ToState   OrderState `json:"to_state"`
}

// NewOrderStateChangedEvent creates a new OrderStateChangedEvent
func NewOrderStateChangedEvent(o *Order, from OrderState) *OrderStateChangedEvent {
	return &OrderStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderStateChanged, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		FromState:       from,
		ToState:         o.State,
	}
}

// AllocatedShipmentInfo summarizes one shipment created by allocation
type AllocatedShipmentInfo struct {
	ShipmentID      uuid.UUID `json:"shipment_id"`
	Number          string    `json:"number"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	Units           int       `json:"units"`
	Backordered     int       `json:"backordered"`
}

// OrderAllocatedEvent is raised when inventory has been committed to the order
type OrderAllocatedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID               `json:"order_id"`
	Number          string                  `json:"number"`
	Shipments       []AllocatedShipmentInfo `json:"shipments"`
	FullFulfillment bool                    `json:"full_fulfillment"`
}

// NewOrderAllocatedEvent creates a new OrderAllocatedEvent
func NewOrderAllocatedEvent(o *Order, shipments []*Shipment) *OrderAllocatedEvent {
	infos := make([]AllocatedShipmentInfo, 0, len(shipments))
	full := true
	for _, s := range shipments {
		info := AllocatedShipmentInfo{
			ShipmentID:      s.ID,
			Number:          s.Number,
			StockLocationID: s.StockLocationID,
			Units:           len(s.UnitIDs),
		}
		for _, u := range o.ShipmentUnits(s.ID) {
			if u.State == UnitStateBackordered {
				info.Backordered++
			}
		}
		if info.Backordered > 0 {
			full = false
		}
		infos = append(infos, info)
	}
	return &OrderAllocatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderAllocated, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		Shipments:       infos,
		FullFulfillment: full,
	}
}

// OrderCompletedEvent is raised when checkout completes
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	Number     string    `json:"number"`
	StoreID    uuid.UUID `json:"store_id"`
	TotalCents int64     `json:"total_cents"`
	Currency   string    `json:"currency"`
	UnitCount  int       `json:"unit_count"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(o *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		StoreID:         o.StoreID,
		TotalCents:      o.Total,
		Currency:        o.Currency,
		UnitCount:       len(o.LiveUnits()),
	}
}

// OrderCanceledEvent is raised when an order is canceled
type OrderCanceledEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID  `json:"order_id"`
	Number    string     `json:"number"`
	FromState OrderState `json:"from_state"`
	Reason    string     `json:"reason"`
}

// NewOrderCanceledEvent creates a new OrderCanceledEvent
func NewOrderCanceledEvent(o *Order, from OrderState) *OrderCanceledEvent {
	return &OrderCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCanceled, AggregateTypeOrder, o.ID),
		OrderID:         o.ID,
		Number:          o.Number,
		FromState:       from,
		Reason:          o.CancelReason,
	}
}

// InventoryUnitStateChangedEvent is raised whenever a unit changes state
type InventoryUnitStateChangedEvent struct {
	shared.BaseDomainEvent
	UnitID      uuid.UUID  `json:"unit_id"`
	OrderID     uuid.UUID  `json:"order_id"`
	VariantID   uuid.UUID  `json:"variant_id"`
	ShipmentID  *uuid.UUID `json:"shipment_id,omitempty"`
	StockItemID *uuid.UUID `json:"stock_item_id,omitempty"`
	FromState   UnitState  `json:"from_state"`
	ToState     UnitState  `json:"to_state"`
}

// NewInventoryUnitStateChangedEvent creates a new InventoryUnitStateChangedEvent
func NewInventoryUnitStateChangedEvent(u *InventoryUnit, from, to UnitState) *InventoryUnitStateChangedEvent {
	return &InventoryUnitStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryUnitStateChanged, AggregateTypeInventoryUnit, u.ID),
		UnitID:          u.ID,
		OrderID:         u.OrderID,
		VariantID:       u.VariantID,
		ShipmentID:      u.ShipmentID,
		StockItemID:     u.StockItemID,
		FromState:       from,
		ToState:         to,
	}
}

// ShipmentStateChangedEvent carries every shipment transition.
// The event type names the transition.
type ShipmentStateChangedEvent struct {
	shared.BaseDomainEvent
	ShipmentID      uuid.UUID     `json:"shipment_id"`
	OrderID         uuid.UUID     `json:"order_id"`
	Number          string        `json:"number"`
	StockLocationID uuid.UUID     `json:"stock_location_id"`
	FromState       ShipmentState `json:"from_state"`
	ToState         ShipmentState `json:"to_state"`
	TrackingNumber  string        `json:"tracking_number,omitempty"`
	UnitCount       int           `json:"unit_count"`
}

// NewShipmentStateChangedEvent creates a new ShipmentStateChangedEvent
func NewShipmentStateChangedEvent(eventType string, s *Shipment, from ShipmentState) *ShipmentStateChangedEvent {
	return &ShipmentStateChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeShipment, s.ID),
		ShipmentID:      s.ID,
		OrderID:         s.OrderID,
		Number:          s.Number,
		StockLocationID: s.StockLocationID,
		FromState:       from,
		ToState:         s.State,
		TrackingNumber:  s.TrackingNumber,
		UnitCount:       len(s.UnitIDs),
	}
}
