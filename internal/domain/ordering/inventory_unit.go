package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// UnitState is the custody state of a single physical item
type UnitState string

const (
	UnitStatePending     UnitState = "PENDING"
	UnitStateOnHand      UnitState = "ON_HAND"
	UnitStateBackordered UnitState = "BACKORDERED"
	UnitStateShipped     UnitState = "SHIPPED"
	UnitStateReturned    UnitState = "RETURNED"
	UnitStateDamaged     UnitState = "DAMAGED"
	UnitStateCanceled    UnitState = "CANCELED"
)

// IsValid checks if the unit state is known
func (s UnitState) IsValid() bool {
	switch s {
	case UnitStatePending, UnitStateOnHand, UnitStateBackordered, UnitStateShipped,
		UnitStateReturned, UnitStateDamaged, UnitStateCanceled:
		return true
	}
	return false
}

// IsAllocated reports whether the unit has been given a physical source
func (s UnitState) IsAllocated() bool {
	return s == UnitStateOnHand || s == UnitStateBackordered || s == UnitStateShipped
}

// String returns the string representation
func (s UnitState) String() string {
	return string(s)
}

// InventoryUnit tracks one physical item from cart placeholder to its final state.
// Pending is true while the unit holds a reservation that has not yet been
// decremented from stock.
type InventoryUnit struct {
	shared.BaseEntity
	shared.EventBuffer
	shared.SoftDelete
	OrderID         uuid.UUID
	LineItemID      uuid.UUID
	VariantID       uuid.UUID
	ShipmentID      *uuid.UUID
	StockItemID     *uuid.UUID
	StockLocationID *uuid.UUID
	State           UnitState
	Pending         bool
	SerialNumber    string
	LotNumber       string
}

// NewInventoryUnit creates a pending placeholder unit for a line item
func NewInventoryUnit(orderID, lineItemID, variantID uuid.UUID) *InventoryUnit {
	return &InventoryUnit{
		BaseEntity: shared.NewBaseEntity(),
		OrderID:    orderID,
		LineItemID: lineItemID,
		VariantID:  variantID,
		State:      UnitStatePending,
		Pending:    true,
	}
}

// Reserve moves a pending or backordered unit on hand
func (u *InventoryUnit) Reserve(orderID uuid.UUID) error {
	if u.State != UnitStatePending && u.State != UnitStateBackordered {
		return u.illegal("reserve")
	}
	u.OrderID = orderID
	u.transition(UnitStateOnHand)
	return nil
}

// Backorder marks the unit as promised once stock arrives. A canceled unit
// comes back this way when its order allocates it again.
func (u *InventoryUnit) Backorder(orderID uuid.UUID) error {
	if u.State != UnitStatePending && u.State != UnitStateCanceled {
		return u.illegal("backorder")
	}
	if u.State == UnitStateCanceled {
		u.Pending = true
	}
	u.OrderID = orderID
	u.transition(UnitStateBackordered)
	return nil
}

// AssignToShipment records the shipment the unit travels in. State is unchanged.
func (u *InventoryUnit) AssignToShipment(shipmentID uuid.UUID) error {
	if u.State == UnitStateShipped || u.State == UnitStateCanceled {
		return u.illegal("assign to a shipment")
	}
	u.ShipmentID = &shipmentID
	u.UpdatedAt = time.Now()
	return nil
}

// SetStockItem binds the unit to the stock item it is sourced from
func (u *InventoryUnit) SetStockItem(stockItemID, locationID uuid.UUID) error {
	if u.State == UnitStateShipped || u.State == UnitStateCanceled {
		return u.illegal("change the stock source of")
	}
	u.StockItemID = &stockItemID
	u.StockLocationID = &locationID
	u.UpdatedAt = time.Now()
	return nil
}

// Ship marks an on-hand unit as shipped and clears the pending flag
func (u *InventoryUnit) Ship(shipmentID uuid.UUID) error {
	if u.State != UnitStateOnHand {
		return u.illegal("ship")
	}
	u.ShipmentID = &shipmentID
	u.Pending = false
	u.transition(UnitStateShipped)
	return nil
}

// Cancel releases the unit. Shipped units must be returned instead.
func (u *InventoryUnit) Cancel() error {
	if u.State == UnitStateShipped {
		return ErrAlreadyShipped
	}
	u.Pending = false
	u.transition(UnitStateCanceled)
	return nil
}

// Return books a shipped unit back
func (u *InventoryUnit) Return() error {
	if u.State != UnitStateShipped {
		return u.illegal("return")
	}
	u.transition(UnitStateReturned)
	return nil
}

// MarkAsDamaged writes the unit off. Shipped units must be returned first.
func (u *InventoryUnit) MarkAsDamaged() error {
	if u.State == UnitStateShipped {
		return ErrAlreadyShipped.WithMessage("Inventory unit has shipped and must be returned before it can be marked damaged")
	}
	u.transition(UnitStateDamaged)
	return nil
}

// Detach unbinds a canceled unit from its shipment and stock source
func (u *InventoryUnit) Detach() error {
	if u.State != UnitStateCanceled {
		return u.illegal("detach")
	}
	u.ShipmentID = nil
	u.StockItemID = nil
	u.StockLocationID = nil
	u.UpdatedAt = time.Now()
	return nil
}

// AwaitsAllocation reports whether the unit still needs a shipment: a fresh
// placeholder, or a unit whose shipment was canceled
func (u *InventoryUnit) AwaitsAllocation() bool {
	if !u.IsLive() || u.ShipmentID != nil {
		return false
	}
	return u.State == UnitStatePending || u.State == UnitStateCanceled
}

// Finalize clears the pending flag once stock has been decremented
func (u *InventoryUnit) Finalize() {
	if !u.Pending {
		return
	}
	u.Pending = false
	u.UpdatedAt = time.Now()
}

// AssignSerial records serial and lot numbers
func (u *InventoryUnit) AssignSerial(serial, lot string) error {
	if u.State == UnitStateShipped {
		return ErrAlreadyShipped
	}
	u.SerialNumber = serial
	u.LotNumber = lot
	u.UpdatedAt = time.Now()
	return nil
}

// Delete tombstones the unit
func (u *InventoryUnit) Delete(now time.Time) {
	if u.IsDeleted() {
		return
	}
	u.MarkDeleted(now)
	u.UpdatedAt = now
}

// Restore clears the tombstone
func (u *InventoryUnit) Restore() {
	u.ClearDeleted()
	u.UpdatedAt = time.Now()
}

// IsLive reports whether the unit counts towards the order
func (u *InventoryUnit) IsLive() bool {
	return !u.IsDeleted()
}

func (u *InventoryUnit) transition(to UnitState) {
	from := u.State
	u.UpdatedAt = time.Now()
	if from == to {
		return
	}
	u.State = to
	u.AddDomainEvent(NewInventoryUnitStateChangedEvent(u, from, to))
}

func (u *InventoryUnit) illegal(action string) error {
	return ErrInvalidUnitTransition.WithMessage("Cannot %s inventory unit in %s state", action, u.State)
}
