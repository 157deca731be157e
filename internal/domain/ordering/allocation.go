package ordering

import (
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AllocatedItem is a re-validated quantity of one variant sourced from one stock item
type AllocatedItem struct {
	VariantID   uuid.UUID
	StockItemID uuid.UUID
	Quantity    int
	Backordered bool
}

// ShipmentAllocation is the committed content of one shipment
type ShipmentAllocation struct {
	StockLocationID uuid.UUID
	Items           []AllocatedItem
}

// StockCommitment is what an order's units currently hold at one stock item
type StockCommitment struct {
	StockItemID uuid.UUID
	Reserved    int
	Backordered int
}

// Allocate turns committed allocations into shipments for the units that
// await allocation: fresh placeholders and the units of canceled shipments.
// The allocated quantity per variant must equal the number of such units.
// All checks run before anything is changed.
func (o *Order) Allocate(allocations []ShipmentAllocation, now time.Time) ([]*Shipment, error) {
	switch o.State {
	case OrderStateDelivery, OrderStatePayment, OrderStateConfirm:
	default:
		return nil, o.illegal("allocate inventory")
	}
	if err := o.validateAllocations(allocations); err != nil {
		return nil, err
	}

	pools := make(map[uuid.UUID][]*InventoryUnit)
	for _, u := range o.LiveUnits() {
		if u.AwaitsAllocation() {
			pools[u.VariantID] = append(pools[u.VariantID], u)
		}
	}

	created := make([]*Shipment, 0, len(allocations))
	for i, alloc := range allocations {
		s := NewShipment(o.ID, alloc.StockLocationID, now)
		if i == 0 {
			s.CostCents = o.ShipmentTotal
		}
		var units []*InventoryUnit
		for _, item := range alloc.Items {
			pool := pools[item.VariantID]
			take := pool[:item.Quantity]
			pools[item.VariantID] = pool[item.Quantity:]

			for _, u := range take {
				// canceled units re-enter through backorder
				if u.State == UnitStateCanceled {
					if err := u.Backorder(o.ID); err != nil {
						return nil, err
					}
				}
				if err := u.SetStockItem(item.StockItemID, alloc.StockLocationID); err != nil {
					return nil, err
				}
				var err error
				switch {
				case !item.Backordered:
					err = u.Reserve(o.ID)
				case u.State != UnitStateBackordered:
					err = u.Backorder(o.ID)
				}
				if err != nil {
					return nil, err
				}
				if err := u.AssignToShipment(s.ID); err != nil {
					return nil, err
				}
				s.UnitIDs = append(s.UnitIDs, u.ID)
			}
			units = append(units, take...)
		}
		if allOnHand(units) {
			if err := s.SetReady(units); err != nil {
				return nil, err
			}
		}
		created = append(created, s)
	}

	o.Shipments = append(o.Shipments, created...)
	o.record(o.State, o.State, "inventory allocated", now)
	o.touch(now)
	o.AddDomainEvent(NewOrderAllocatedEvent(o, created))
	return created, nil
}

func (o *Order) validateAllocations(allocations []ShipmentAllocation) error {
	if len(allocations) == 0 {
		return ErrInvalidAllocation.WithMessage("At least one shipment is required")
	}

	live := o.LiveUnits()
	if len(live) == 0 {
		return ErrEmptyOrder
	}
	pending := make(map[uuid.UUID]int)
	for _, u := range live {
		if u.AwaitsAllocation() {
			pending[u.VariantID]++
		}
	}
	if len(pending) == 0 {
		return ErrAlreadyAllocated
	}

	allocated := make(map[uuid.UUID]int)
	for _, alloc := range allocations {
		if alloc.StockLocationID == uuid.Nil || len(alloc.Items) == 0 {
			return ErrInvalidAllocation.WithMessage("Every shipment needs a stock location and at least one item")
		}
		for _, item := range alloc.Items {
			if item.VariantID == uuid.Nil || item.StockItemID == uuid.Nil || item.Quantity <= 0 {
				return ErrInvalidAllocation.WithMessage("Every allocated item needs a variant, a stock item and a positive quantity")
			}
			allocated[item.VariantID] += item.Quantity
		}
	}

	if len(allocated) != len(pending) {
		return ErrAllocationMismatch
	}
	for variantID, want := range pending {
		if got := allocated[variantID]; got != want {
			return ErrAllocationMismatch.WithMessage("Variant %s: allocated %d of %d units", variantID, got, want)
		}
	}
	return nil
}

// Commitments returns the reservations and backorders held by every live unit
func (o *Order) Commitments() []StockCommitment {
	return commitmentsOf(o.LiveUnits())
}

// ShipmentCommitments returns the reservations and backorders held by a shipment's units
func (o *Order) ShipmentCommitments(shipmentID uuid.UUID) []StockCommitment {
	return commitmentsOf(o.ShipmentUnits(shipmentID))
}

func commitmentsOf(units []*InventoryUnit) []StockCommitment {
	byItem := make(map[uuid.UUID]*StockCommitment)
	var order []uuid.UUID
	for _, u := range units {
		if u.StockItemID == nil {
			continue
		}
		if u.State != UnitStateOnHand && u.State != UnitStateBackordered {
			continue
		}
		c, ok := byItem[*u.StockItemID]
		if !ok {
			c = &StockCommitment{StockItemID: *u.StockItemID}
			byItem[c.StockItemID] = c
			order = append(order, c.StockItemID)
		}
		if u.State == UnitStateOnHand {
			c.Reserved++
		} else {
			c.Backordered++
		}
	}

	// sorted so that writers lock stock items in the same order
	slices.SortFunc(order, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
	out := make([]StockCommitment, 0, len(order))
	for _, id := range order {
		out = append(out, *byItem[id])
	}
	return out
}

// PickShipment marks a shipment as picked
func (o *Order) PickShipment(shipmentID uuid.UUID) error {
	s, err := o.activeShipment(shipmentID)
	if err != nil {
		return err
	}
	if err := s.MarkAsPicked(); err != nil {
		return err
	}
	o.touch(time.Now())
	return nil
}

// PackShipment marks a shipment as packed
func (o *Order) PackShipment(shipmentID uuid.UUID) error {
	s, err := o.activeShipment(shipmentID)
	if err != nil {
		return err
	}
	if err := s.MarkAsPacked(); err != nil {
		return err
	}
	o.touch(time.Now())
	return nil
}

// ShipShipment ships a shipment and every unit in it
func (o *Order) ShipShipment(shipmentID uuid.UUID, trackingNumber string) error {
	s, err := o.activeShipment(shipmentID)
	if err != nil {
		return err
	}
	if err := s.Ship(trackingNumber, o.resolveUnits(s.UnitIDs)); err != nil {
		return err
	}
	o.touch(time.Now())
	return nil
}

// DeliverShipment records delivery of a shipped shipment
func (o *Order) DeliverShipment(shipmentID uuid.UUID) error {
	s, err := o.Shipment(shipmentID)
	if err != nil {
		return err
	}
	if err := s.Deliver(); err != nil {
		return err
	}
	o.touch(time.Now())
	return nil
}

// CancelShipment cancels one unshipped shipment and its units. Canceled
// units are detached from the shipment so that the order can allocate them
// again. Damaged units stay with the shipment.
func (o *Order) CancelShipment(shipmentID uuid.UUID) error {
	s, err := o.Shipment(shipmentID)
	if err != nil {
		return err
	}
	if s.State == ShipmentStateCanceled {
		return nil
	}
	units := o.resolveUnits(s.UnitIDs)
	if err := s.Cancel(units); err != nil {
		return err
	}
	var kept []uuid.UUID
	for _, u := range units {
		if u.State != UnitStateCanceled {
			kept = append(kept, u.ID)
			continue
		}
		if err := u.Detach(); err != nil {
			return err
		}
	}
	s.UnitIDs = kept
	o.touch(time.Now())
	return nil
}

// ReserveBackorderedUnit moves a backordered unit on hand once its stock
// has been reserved, readying its shipment when it was the last one missing
func (o *Order) ReserveBackorderedUnit(unitID uuid.UUID) error {
	if o.State == OrderStateCanceled {
		return o.illegal("reserve units")
	}
	u, err := o.Unit(unitID)
	if err != nil {
		return err
	}
	if u.State != UnitStateBackordered {
		return u.illegal("reserve backordered")
	}
	if err := u.Reserve(o.ID); err != nil {
		return err
	}
	if u.ShipmentID != nil {
		if s, err := o.Shipment(*u.ShipmentID); err == nil && s.State == ShipmentStatePending {
			units := o.resolveUnits(s.UnitIDs)
			if allOnHand(units) {
				if err := s.SetReady(units); err != nil {
					return err
				}
			}
		}
	}
	o.touch(time.Now())
	return nil
}

// ReturnUnit books a shipped unit back
func (o *Order) ReturnUnit(unitID uuid.UUID) error {
	u, err := o.Unit(unitID)
	if err != nil {
		return err
	}
	if err := u.Return(); err != nil {
		return err
	}
	o.touch(time.Now())
	return nil
}

// MarkUnitDamaged writes a unit off
func (o *Order) MarkUnitDamaged(unitID uuid.UUID) error {
	u, err := o.Unit(unitID)
	if err != nil {
		return err
	}
	if err := u.MarkAsDamaged(); err != nil {
		return err
	}
	o.touch(time.Now())
	return nil
}

func (o *Order) activeShipment(shipmentID uuid.UUID) (*Shipment, error) {
	if o.State == OrderStateCanceled {
		return nil, o.illegal("work on shipments")
	}
	return o.Shipment(shipmentID)
}
