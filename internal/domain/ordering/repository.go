package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// OrderFilter narrows order listings
type OrderFilter struct {
	shared.Filter
	StoreID *uuid.UUID
	State   *OrderState
}

// OrderRepository persists the order aggregate together with its line items,
// units, shipments and payments
type OrderRepository interface {
	// FindByID loads the full aggregate
	FindByID(ctx context.Context, id uuid.UUID) (*Order, error)
	FindByNumber(ctx context.Context, number string) (*Order, error)
	FindByShipment(ctx context.Context, shipmentID uuid.UUID) (*Order, error)
	FindAll(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	// Save inserts a new order or updates an existing one with a version check.
	// A version mismatch returns shared.ErrConcurrencyConflict.
	Save(ctx context.Context, order *Order) error
}

// VariantPriceProvider resolves the SKU and current price of a variant when
// it is added to a cart. An unknown variant returns ErrVariantNotFound.
type VariantPriceProvider interface {
	Variant(ctx context.Context, variantID uuid.UUID) (Variant, error)
}

// VariantCatalog is a price provider that can also be written to
type VariantCatalog interface {
	VariantPriceProvider
	SetVariant(ctx context.Context, v Variant) error
}
