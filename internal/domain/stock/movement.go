package stock

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MovementType is the reason a stock item's on-hand quantity changed
type MovementType string

const (
	MovementTypeAdjustment  MovementType = "ADJUSTMENT"
	MovementTypeReceipt     MovementType = "RECEIPT"
	MovementTypeSale        MovementType = "SALE"
	MovementTypeReturn      MovementType = "RETURN"
	MovementTypeLoss        MovementType = "LOSS"
	MovementTypeTransferIn  MovementType = "TRANSFER_IN"
	MovementTypeTransferOut MovementType = "TRANSFER_OUT"
	MovementTypeCorrection  MovementType = "CORRECTION"
)

// IsValid checks if the movement type is known
func (t MovementType) IsValid() bool {
	switch t {
	case MovementTypeAdjustment, MovementTypeReceipt, MovementTypeSale, MovementTypeReturn,
		MovementTypeLoss, MovementTypeTransferIn, MovementTypeTransferOut, MovementTypeCorrection:
		return true
	}
	return false
}

// IsInbound returns true for types that only ever add stock
func (t MovementType) IsInbound() bool {
	return t == MovementTypeReceipt || t == MovementTypeReturn || t == MovementTypeTransferIn
}

// IsOutbound returns true for types that only ever remove stock
func (t MovementType) IsOutbound() bool {
	return t == MovementTypeSale || t == MovementTypeLoss || t == MovementTypeTransferOut
}

// IsTransfer returns true for both legs of a transfer
func (t MovementType) IsTransfer() bool {
	return t == MovementTypeTransferIn || t == MovementTypeTransferOut
}

// AllowsDelta reports whether a delta of this sign is consistent with the type
func (t MovementType) AllowsDelta(delta int) bool {
	switch {
	case delta == 0:
		return false
	case t.IsInbound():
		return delta > 0
	case t.IsOutbound():
		return delta < 0
	default:
		return true
	}
}

// String returns the string representation
func (t MovementType) String() string {
	return string(t)
}

// StockMovement is an immutable ledger row. It is written exactly once, when a
// stock item's on-hand quantity changes, and never updated or deleted.
type StockMovement struct {
	ID            uuid.UUID
	StockItemID   uuid.UUID
	VariantID     uuid.UUID
	LocationID    uuid.UUID
	Type          MovementType
	QuantityDelta int
	BalanceBefore int
	BalanceAfter  int
	UnitCost      decimal.Decimal
	Reason        string
	Reference     string
	OccurredAt    time.Time
}

// NewStockMovement validates and creates a ledger row
func NewStockMovement(
	item *StockItem,
	movementType MovementType,
	delta int,
	balanceBefore int,
	unitCost decimal.Decimal,
	reason, reference string,
) (*StockMovement, error) {
	if item == nil {
		return nil, ErrInvalidMovement.WithMessage("Stock movement requires a stock item")
	}
	if !movementType.IsValid() {
		return nil, ErrInvalidMovement.WithMessage("Unknown movement type %q", movementType)
	}
	if !movementType.AllowsDelta(delta) {
		return nil, ErrInvalidMovement.WithMessage("Quantity delta %d is not valid for a %s movement", delta, movementType)
	}
	balanceAfter := balanceBefore + delta
	if balanceAfter < 0 {
		return nil, ErrInvalidMovement.WithMessage("Movement would leave a negative balance of %d", balanceAfter)
	}
	if unitCost.IsNegative() {
		return nil, ErrInvalidUnitCost
	}

	return &StockMovement{
		ID:            uuid.New(),
		StockItemID:   item.ID,
		VariantID:     item.VariantID,
		LocationID:    item.LocationID,
		Type:          movementType,
		QuantityDelta: delta,
		BalanceBefore: balanceBefore,
		BalanceAfter:  balanceAfter,
		UnitCost:      unitCost,
		Reason:        strings.TrimSpace(reason),
		Reference:     strings.TrimSpace(reference),
		OccurredAt:    time.Now(),
	}, nil
}

// TotalCost returns |delta| * unit cost
func (m *StockMovement) TotalCost() decimal.Decimal {
	qty := m.QuantityDelta
	if qty < 0 {
		qty = -qty
	}
	return m.UnitCost.Mul(decimal.NewFromInt(int64(qty)))
}
