package stock

import (
	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Aggregate type names
const (
	AggregateTypeStockLocation = "StockLocation"
	AggregateTypeStockItem     = "StockItem"
	AggregateTypeStockTransfer = "StockTransfer"
)

// Event type names
const (
	EventTypeStockLocationCreated       = "StockLocationCreated"
	EventTypeStockLocationStatusChanged = "StockLocationStatusChanged"
	EventTypeStockMovementRecorded      = "StockMovementRecorded"
	EventTypeStockTransferCreated       = "StockTransferCreated"
	EventTypeStockTransferShipped       = "StockTransferShipped"
	EventTypeStockTransferReceived      = "StockTransferReceived"
	EventTypeStockTransferCanceled      = "StockTransferCanceled"
)

// TransferEventTypes lists the transfer events. They share one payload type.
var TransferEventTypes = []string{
	EventTypeStockTransferCreated,
	EventTypeStockTransferShipped,
	EventTypeStockTransferReceived,
	EventTypeStockTransferCanceled,
}

// StockLocationCreatedEvent is raised when a stock location is registered
type StockLocationCreatedEvent struct {
	shared.BaseDomainEvent
	LocationID uuid.UUID    `json:"location_id"`
	Code       string       `json:"code"`
	Name       string       `json:"name"`
	Type       LocationType `json:"type"`
}

// NewStockLocationCreatedEvent creates a new StockLocationCreatedEvent
func NewStockLocationCreatedEvent(loc *StockLocation) *StockLocationCreatedEvent {
	return &StockLocationCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLocationCreated, AggregateTypeStockLocation, loc.ID),
		LocationID:      loc.ID,
		Code:            loc.Code,
		Name:            loc.Name,
		Type:            loc.Type,
	}
}

// StockLocationStatusChangedEvent is raised when active, default or deleted status changes
type StockLocationStatusChangedEvent struct {
	shared.BaseDomainEvent
	LocationID uuid.UUID `json:"location_id"`
	Active     bool      `json:"active"`
	IsDefault  bool      `json:"is_default"`
	Deleted    bool      `json:"deleted"`
}

// NewStockLocationStatusChangedEvent creates a new StockLocationStatusChangedEvent
func NewStockLocationStatusChangedEvent(loc *StockLocation) *StockLocationStatusChangedEvent {
	return &StockLocationStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockLocationStatusChanged, AggregateTypeStockLocation, loc.ID),
		LocationID:      loc.ID,
		Active:          loc.Active,
		IsDefault:       loc.IsDefault,
		Deleted:         loc.IsDeleted(),
	}
}

// StockMovementRecordedEvent is raised for every ledger row
type StockMovementRecordedEvent struct {
	shared.BaseDomainEvent
	MovementID    uuid.UUID       `json:"movement_id"`
	StockItemID   uuid.UUID       `json:"stock_item_id"`
	VariantID     uuid.UUID       `json:"variant_id"`
	LocationID    uuid.UUID       `json:"location_id"`
	MovementType  MovementType    `json:"movement_type"`
	QuantityDelta int             `json:"quantity_delta"`
	BalanceBefore int             `json:"balance_before"`
	BalanceAfter  int             `json:"balance_after"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	Reference     string          `json:"reference,omitempty"`
}

// NewStockMovementRecordedEvent creates a new StockMovementRecordedEvent
func NewStockMovementRecordedEvent(item *StockItem, m *StockMovement) *StockMovementRecordedEvent {
	return &StockMovementRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockMovementRecorded, AggregateTypeStockItem, item.ID),
		MovementID:      m.ID,
		StockItemID:     item.ID,
		VariantID:       item.VariantID,
		LocationID:      item.LocationID,
		MovementType:    m.Type,
		QuantityDelta:   m.QuantityDelta,
		BalanceBefore:   m.BalanceBefore,
		BalanceAfter:    m.BalanceAfter,
		UnitCost:        m.UnitCost,
		Reference:       m.Reference,
	}
}

// StockTransferEvent is raised when a transfer is created or changes status
type StockTransferEvent struct {
	shared.BaseDomainEvent
	TransferID      uuid.UUID      `json:"transfer_id"`
	ReferenceNumber string         `json:"reference_number"`
	SourceID        uuid.UUID      `json:"source_location_id"`
	DestinationID   uuid.UUID      `json:"destination_location_id"`
	Status          TransferStatus `json:"status"`
	TotalQuantity   int            `json:"total_quantity"`
}

// NewStockTransferEvent creates a StockTransferEvent of the given type
func NewStockTransferEvent(eventType string, t *StockTransfer) *StockTransferEvent {
	return &StockTransferEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeStockTransfer, t.ID),
		TransferID:      t.ID,
		ReferenceNumber: t.ReferenceNumber,
		SourceID:        t.SourceLocationID,
		DestinationID:   t.DestinationLocationID,
		Status:          t.Status,
		TotalQuantity:   t.TotalQuantity(),
	}
}
