package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/stock"
)

// Location is a stock location as seen by the planner
type Location struct {
	ID        uuid.UUID
	Code      string
	Type      stock.LocationType
	Active    bool
	IsDefault bool
}

// IsFulfillable reports whether the location may be used as an allocation source
func (l Location) IsFulfillable() bool {
	return l.Active && l.Type.CanShipFrom()
}

// LocationFromStock projects a stock location
func LocationFromStock(loc *stock.StockLocation) Location {
	return Location{
		ID:        loc.ID,
		Code:      loc.Code,
		Type:      loc.Type,
		Active:    loc.Active && !loc.IsDeleted(),
		IsDefault: loc.IsDefault,
	}
}

// StockLevel is a snapshot of one stock item
type StockLevel struct {
	StockItemID uuid.UUID
	LocationID  uuid.UUID
	VariantID   uuid.UUID
	OnHand      int
	Reserved    int
}

// Available returns on-hand minus reserved, clamped at zero
func (s StockLevel) Available() int {
	return max(0, s.OnHand-s.Reserved)
}

// StockQuery reads the stock a store can sell from
type StockQuery interface {
	// FulfillableLocations returns the active, fulfillable locations linked to the store
	FulfillableLocations(ctx context.Context, storeID uuid.UUID) ([]Location, error)
	// FetchFulfillableStock returns stock levels of the variants at those locations
	FetchFulfillableStock(ctx context.Context, storeID uuid.UUID, variantIDs []uuid.UUID) ([]StockLevel, error)
}

// Snapshot is the read-only input handed to a strategy
type Snapshot struct {
	Locations []Location
	Levels    []StockLevel
}

// AvailabilityKey identifies a variant at a location
type AvailabilityKey struct {
	LocationID uuid.UUID
	VariantID  uuid.UUID
}

// Availability returns a mutable working copy of availability per location and variant
func (s Snapshot) Availability() map[AvailabilityKey]int {
	avail := make(map[AvailabilityKey]int, len(s.Levels))
	for _, lvl := range s.Levels {
		avail[AvailabilityKey{LocationID: lvl.LocationID, VariantID: lvl.VariantID}] += lvl.Available()
	}
	return avail
}
