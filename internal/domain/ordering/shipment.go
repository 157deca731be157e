package ordering

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// ShipmentState tracks the pick/pack/ship pipeline
type ShipmentState string

const (
	ShipmentStatePending   ShipmentState = "PENDING"
	ShipmentStateReady     ShipmentState = "READY"
	ShipmentStatePicked    ShipmentState = "PICKED"
	ShipmentStatePacked    ShipmentState = "PACKED"
	ShipmentStateShipped   ShipmentState = "SHIPPED"
	ShipmentStateDelivered ShipmentState = "DELIVERED"
	ShipmentStateCanceled  ShipmentState = "CANCELED"
)

// IsValid checks if the shipment state is known
func (s ShipmentState) IsValid() bool {
	switch s {
	case ShipmentStatePending, ShipmentStateReady, ShipmentStatePicked, ShipmentStatePacked,
		ShipmentStateShipped, ShipmentStateDelivered, ShipmentStateCanceled:
		return true
	}
	return false
}

// HasShipped reports whether the goods have left the location
func (s ShipmentState) HasShipped() bool {
	return s == ShipmentStateShipped || s == ShipmentStateDelivered
}

// String returns the string representation
func (s ShipmentState) String() string {
	return string(s)
}

// Shipment groups the units of one order that leave from one stock location.
// Units are referenced by id; the owning Order resolves them.
type Shipment struct {
	shared.BaseEntity
	shared.EventBuffer
	OrderID         uuid.UUID
	Number          string
	StockLocationID uuid.UUID
	State           ShipmentState
	UnitIDs         []uuid.UUID
	CostCents       int64
	TrackingNumber  string
	ReadyAt         *time.Time
	PickedAt        *time.Time
	PackedAt        *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CanceledAt      *time.Time
}

// NewShipment creates an empty pending shipment
func NewShipment(orderID, stockLocationID uuid.UUID, now time.Time) *Shipment {
	s := &Shipment{
		BaseEntity:      shared.NewBaseEntity(),
		OrderID:         orderID,
		Number:          NewShipmentNumber(),
		StockLocationID: stockLocationID,
		State:           ShipmentStatePending,
	}
	s.CreatedAt = now
	s.UpdatedAt = now
	return s
}

// Contains reports whether the unit belongs to this shipment
func (s *Shipment) Contains(unitID uuid.UUID) bool {
	return slices.Contains(s.UnitIDs, unitID)
}

// SetReady moves a pending shipment to ready once every unit is on hand
func (s *Shipment) SetReady(units []*InventoryUnit) error {
	if s.State != ShipmentStatePending {
		return s.illegal("mark ready")
	}
	if !allOnHand(units) {
		return ErrUnitsNotReady
	}
	now := time.Now()
	s.ReadyAt = &now
	s.transition(ShipmentStateReady, EventTypeShipmentReady, now)
	return nil
}

// MarkAsPicked records that the units were picked from the shelves
func (s *Shipment) MarkAsPicked() error {
	if s.State != ShipmentStateReady && s.State != ShipmentStatePending {
		return s.illegal("pick")
	}
	now := time.Now()
	s.PickedAt = &now
	s.transition(ShipmentStatePicked, EventTypeShipmentPicked, now)
	return nil
}

// MarkAsPacked records that the picked units were packed
func (s *Shipment) MarkAsPacked() error {
	if s.State != ShipmentStatePicked {
		return s.illegal("pack")
	}
	now := time.Now()
	s.PackedAt = &now
	s.transition(ShipmentStatePacked, EventTypeShipmentPacked, now)
	return nil
}

// Ship hands the shipment to the carrier and ships every unit in it.
// units must be the shipment's units as resolved by the order.
func (s *Shipment) Ship(trackingNumber string, units []*InventoryUnit) error {
	if s.State != ShipmentStatePicked && s.State != ShipmentStatePacked {
		return s.illegal("ship")
	}
	trackingNumber = strings.TrimSpace(trackingNumber)
	if trackingNumber == "" {
		return ErrTrackingNumberRequired
	}
	if !allOnHand(units) {
		return ErrUnitsNotReady
	}

	for _, u := range units {
		if err := u.Ship(s.ID); err != nil {
			return err
		}
	}
	now := time.Now()
	s.TrackingNumber = trackingNumber
	s.ShippedAt = &now
	s.transition(ShipmentStateShipped, EventTypeShipmentShipped, now)
	return nil
}

// Deliver records carrier delivery
func (s *Shipment) Deliver() error {
	if s.State != ShipmentStateShipped {
		return s.illegal("deliver")
	}
	now := time.Now()
	s.DeliveredAt = &now
	s.transition(ShipmentStateDelivered, EventTypeShipmentDelivered, now)
	return nil
}

// Cancel cancels an unshipped shipment and every unit in it.
// Canceling an already canceled shipment does nothing.
func (s *Shipment) Cancel(units []*InventoryUnit) error {
	if s.State.HasShipped() {
		return ErrShipmentAlreadyShipped
	}
	if s.State == ShipmentStateCanceled {
		return nil
	}
	for _, u := range units {
		if u.State == UnitStateShipped {
			return ErrAlreadyShipped
		}
	}

	for _, u := range units {
		if !cancelable(u) {
			continue
		}
		if err := u.Cancel(); err != nil {
			return err
		}
	}
	now := time.Now()
	s.CanceledAt = &now
	s.transition(ShipmentStateCanceled, EventTypeShipmentCanceled, now)
	return nil
}

func (s *Shipment) transition(to ShipmentState, eventType string, now time.Time) {
	from := s.State
	s.State = to
	s.UpdatedAt = now
	s.AddDomainEvent(NewShipmentStateChangedEvent(eventType, s, from))
}

func (s *Shipment) illegal(action string) error {
	return ErrInvalidShipmentState.WithMessage("Cannot %s shipment %s in %s state", action, s.Number, s.State)
}

func allOnHand(units []*InventoryUnit) bool {
	for _, u := range units {
		if u.State != UnitStateOnHand {
			return false
		}
	}
	return true
}
