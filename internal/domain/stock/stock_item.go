package stock

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const maxSKULength = 100

// StockItem holds the quantity counters of one variant at one location.
//
// Invariants:
//   - 0 <= QuantityReserved <= QuantityOnHand
//   - QuantityBackordered is a separate promise, never a negative on-hand value
//   - every change of QuantityOnHand produces exactly one StockMovement
type StockItem struct {
	shared.BaseAggregateRoot
	VariantID           uuid.UUID
	LocationID          uuid.UUID
	SKU                 string
	QuantityOnHand      int
	QuantityReserved    int
	QuantityBackordered int
	Backorderable       bool
	// BackorderLimit caps QuantityBackordered; 0 means unlimited
	BackorderLimit int
	LastUnitCost   decimal.Decimal

	movements []*StockMovement
}

// NewStockItem creates a stock item. A positive initial quantity is recorded as a Receipt.
func NewStockItem(variantID, locationID uuid.UUID, sku string, initialQty int, unitCost decimal.Decimal) (*StockItem, error) {
	if variantID == uuid.Nil || locationID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Stock item requires a variant and a location")
	}
	sku = strings.TrimSpace(sku)
	if len(sku) > maxSKULength {
		return nil, ErrInvalidSKU
	}
	if initialQty < 0 {
		return nil, shared.ErrInvalidQuantity.WithMessage("Initial quantity cannot be negative")
	}
	if unitCost.IsNegative() {
		return nil, ErrInvalidUnitCost
	}

	item := &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		VariantID:         variantID,
		LocationID:        locationID,
		SKU:               sku,
		Backorderable:     true,
		LastUnitCost:      unitCost,
	}

	if initialQty > 0 {
		if _, err := item.Adjust(initialQty, MovementTypeReceipt, unitCost, "initial stock", ""); err != nil {
			return nil, err
		}
	}
	return item, nil
}

// Available returns on-hand minus reserved, clamped at zero
func (s *StockItem) Available() int {
	return max(0, s.QuantityOnHand-s.QuantityReserved)
}

// CanSupply reports whether qty can be promised, either from stock or as a backorder
func (s *StockItem) CanSupply(qty int) bool {
	if qty <= s.Available() {
		return true
	}
	if !s.Backorderable {
		return false
	}
	short := qty - s.Available()
	return s.BackorderLimit == 0 || s.QuantityBackordered+short <= s.BackorderLimit
}

// Adjust changes the on-hand quantity and records the movement.
// The new on-hand quantity may not drop below zero or below what is reserved.
func (s *StockItem) Adjust(delta int, movementType MovementType, unitCost decimal.Decimal, reason, reference string) (*StockMovement, error) {
	if !movementType.IsValid() || !movementType.AllowsDelta(delta) {
		return nil, ErrInvalidMovement.WithMessage("Quantity delta %d is not valid for a %s movement", delta, movementType)
	}
	if s.QuantityOnHand+delta < s.QuantityReserved {
		return nil, shared.ErrInsufficientStock.WithMessage(
			"Cannot remove %d units: %d on hand, %d reserved", -delta, s.QuantityOnHand, s.QuantityReserved)
	}

	movement, err := NewStockMovement(s, movementType, delta, s.QuantityOnHand, unitCost, reason, reference)
	if err != nil {
		return nil, err
	}

	s.QuantityOnHand = movement.BalanceAfter
	if delta > 0 && unitCost.IsPositive() {
		s.LastUnitCost = unitCost
	}
	s.recordMovement(movement)
	return movement, nil
}

// Receive books incoming stock from a supplier
func (s *StockItem) Receive(qty int, unitCost decimal.Decimal, reference string) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	return s.Adjust(qty, MovementTypeReceipt, unitCost, "received", reference)
}

// Restock books a customer return back into sellable stock
func (s *StockItem) Restock(qty int, reference string) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	return s.Adjust(qty, MovementTypeReturn, s.LastUnitCost, "customer return", reference)
}

// Reserve promises available stock to an order without touching on-hand
func (s *StockItem) Reserve(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidQuantity
	}
	if qty > s.Available() {
		return shared.ErrInsufficientStock.WithMessage(
			"Cannot reserve %d units of %s: only %d available", qty, s.describe(), s.Available())
	}
	s.QuantityReserved += qty
	s.touch()
	return nil
}

// Release returns reserved stock to the available pool
func (s *StockItem) Release(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidQuantity
	}
	if qty > s.QuantityReserved {
		return shared.ErrInvalidQuantity.WithMessage("Cannot release %d units: only %d reserved", qty, s.QuantityReserved)
	}
	s.QuantityReserved -= qty
	s.touch()
	return nil
}

// Backorder records a promise to supply qty units once stock arrives
func (s *StockItem) Backorder(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidQuantity
	}
	if !s.Backorderable {
		return ErrBackorderNotAllowed.WithMessage("%s does not accept backorders", s.describe())
	}
	if s.BackorderLimit > 0 && s.QuantityBackordered+qty > s.BackorderLimit {
		return ErrBackorderLimitExceeded.WithMessage(
			"Backorder of %d units exceeds limit %d (%d already backordered)", qty, s.BackorderLimit, s.QuantityBackordered)
	}
	s.QuantityBackordered += qty
	s.touch()
	return nil
}

// ReleaseBackorder withdraws part of a backorder promise
func (s *StockItem) ReleaseBackorder(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidQuantity
	}
	if qty > s.QuantityBackordered {
		return shared.ErrInvalidQuantity.WithMessage("Cannot release %d backordered units: only %d backordered", qty, s.QuantityBackordered)
	}
	s.QuantityBackordered -= qty
	s.touch()
	return nil
}

// Fulfill consumes reserved stock for a shipment leaving the building
func (s *StockItem) Fulfill(qty int, reference string) (*StockMovement, error) {
	if qty <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if qty > s.QuantityReserved {
		return nil, shared.ErrInsufficientStock.WithMessage(
			"Cannot ship %d units of %s: only %d reserved", qty, s.describe(), s.QuantityReserved)
	}

	movement, err := NewStockMovement(s, MovementTypeSale, -qty, s.QuantityOnHand, s.LastUnitCost, "shipped", reference)
	if err != nil {
		return nil, err
	}
	s.QuantityReserved -= qty
	s.QuantityOnHand = movement.BalanceAfter
	s.recordMovement(movement)
	return movement, nil
}

// SetBackorderPolicy configures whether and how far the item can be backordered
func (s *StockItem) SetBackorderPolicy(backorderable bool, limit int) error {
	if limit < 0 {
		return shared.ErrInvalidQuantity.WithMessage("Backorder limit cannot be negative")
	}
	s.Backorderable = backorderable
	s.BackorderLimit = limit
	s.touch()
	return nil
}

// PendingMovements returns movements recorded since the last drain
func (s *StockItem) PendingMovements() []*StockMovement {
	return s.movements
}

// DrainMovements returns and clears the movements recorded since the last drain
func (s *StockItem) DrainMovements() []*StockMovement {
	movements := s.movements
	s.movements = nil
	return movements
}

func (s *StockItem) recordMovement(m *StockMovement) {
	s.movements = append(s.movements, m)
	s.touch()
	s.AddDomainEvent(NewStockMovementRecordedEvent(s, m))
}

func (s *StockItem) touch() {
	s.UpdatedAt = time.Now()
	s.IncrementVersion()
}

func (s *StockItem) describe() string {
	if s.SKU != "" {
		return s.SKU
	}
	return s.VariantID.String()
}
