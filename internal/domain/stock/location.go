package stock

import (
	"regexp"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/shared/valueobject"
)

// LocationType classifies a stock location
type LocationType string

const (
	LocationTypeWarehouse    LocationType = "WAREHOUSE"
	LocationTypeRetailStore  LocationType = "RETAIL_STORE"
	LocationTypeReturnCenter LocationType = "RETURN_CENTER"
	LocationTypeTransit      LocationType = "TRANSIT"
	LocationTypeDamaged      LocationType = "DAMAGED"
)

// IsValid checks if the location type is known
func (t LocationType) IsValid() bool {
	switch t {
	case LocationTypeWarehouse, LocationTypeRetailStore, LocationTypeReturnCenter,
		LocationTypeTransit, LocationTypeDamaged:
		return true
	}
	return false
}

// CanShipFrom reports whether stock held at this type of location may be sold
func (t LocationType) CanShipFrom() bool {
	return t == LocationTypeWarehouse || t == LocationTypeRetailStore
}

// String returns the string representation
func (t LocationType) String() string {
	return string(t)
}

const (
	maxLocationNameLength = 100
	maxLocationCodeLength = 50
)

var locationCodePattern = regexp.MustCompile(`^[A-Z0-9_-]+$`)

// StockLocation is a physical place that holds stock.
// Code and type are fixed at creation; only status fields change afterwards.
type StockLocation struct {
	shared.BaseAggregateRoot
	shared.SoftDelete
	Name      string
	Code      string
	Type      LocationType
	Active    bool
	IsDefault bool
	Address   valueobject.Address
	StoreIDs  []uuid.UUID
}

// NewStockLocation creates an active, non-default stock location
func NewStockLocation(name, code string, locationType LocationType) (*StockLocation, error) {
	name = strings.TrimSpace(name)
	code = strings.ToUpper(strings.TrimSpace(code))

	if name == "" || len(name) > maxLocationNameLength {
		return nil, ErrInvalidLocationName
	}
	if code == "" || len(code) > maxLocationCodeLength || !locationCodePattern.MatchString(code) {
		return nil, ErrInvalidLocationCode
	}
	if !locationType.IsValid() {
		return nil, ErrInvalidLocationType
	}

	loc := &StockLocation{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Name:              name,
		Code:              code,
		Type:              locationType,
		Active:            true,
	}
	loc.AddDomainEvent(NewStockLocationCreatedEvent(loc))
	return loc, nil
}

// IsFulfillable reports whether the location may serve as an allocation source
func (l *StockLocation) IsFulfillable() bool {
	return l.Active && !l.IsDeleted() && l.Type.CanShipFrom()
}

// SetAddress sets the physical address of the location
func (l *StockLocation) SetAddress(addr valueobject.Address) {
	l.Address = addr
	l.touch()
}

// Activate makes the location available again
func (l *StockLocation) Activate() error {
	if l.IsDeleted() {
		return ErrLocationDeleted
	}
	if l.Active {
		return nil
	}
	l.Active = true
	l.touch()
	l.AddDomainEvent(NewStockLocationStatusChangedEvent(l))
	return nil
}

// Deactivate removes the location from allocation. The default location cannot be deactivated.
func (l *StockLocation) Deactivate() error {
	if l.IsDefault {
		return ErrCannotDeactivateDefault
	}
	if !l.Active {
		return nil
	}
	l.Active = false
	l.touch()
	l.AddDomainEvent(NewStockLocationStatusChangedEvent(l))
	return nil
}

// MarkDefault flags this location as the preferred allocation source
func (l *StockLocation) MarkDefault() error {
	if !l.Active || l.IsDeleted() {
		return ErrInactiveDefault
	}
	if l.IsDefault {
		return nil
	}
	l.IsDefault = true
	l.touch()
	l.AddDomainEvent(NewStockLocationStatusChangedEvent(l))
	return nil
}

// UnsetDefault clears the default flag
func (l *StockLocation) UnsetDefault() {
	if !l.IsDefault {
		return
	}
	l.IsDefault = false
	l.touch()
	l.AddDomainEvent(NewStockLocationStatusChangedEvent(l))
}

// LinkStore makes the location eligible for the store's orders
func (l *StockLocation) LinkStore(storeID uuid.UUID) {
	if l.ServesStore(storeID) {
		return
	}
	l.StoreIDs = append(l.StoreIDs, storeID)
	l.touch()
}

// UnlinkStore removes the store link
func (l *StockLocation) UnlinkStore(storeID uuid.UUID) {
	idx := slices.Index(l.StoreIDs, storeID)
	if idx < 0 {
		return
	}
	l.StoreIDs = slices.Delete(l.StoreIDs, idx, idx+1)
	l.touch()
}

// ServesStore reports whether the location is linked to the store
func (l *StockLocation) ServesStore(storeID uuid.UUID) bool {
	return slices.Contains(l.StoreIDs, storeID)
}

// Delete tombstones the location
func (l *StockLocation) Delete(now time.Time) error {
	if l.IsDefault {
		return ErrCannotDeleteDefault
	}
	if l.IsDeleted() {
		return nil
	}
	l.MarkDeleted(now)
	l.Active = false
	l.IncrementVersion()
	l.UpdatedAt = now
	l.AddDomainEvent(NewStockLocationStatusChangedEvent(l))
	return nil
}

// Restore clears the tombstone. The location stays inactive until activated.
func (l *StockLocation) Restore() {
	if !l.IsDeleted() {
		return
	}
	l.ClearDeleted()
	l.touch()
}

func (l *StockLocation) touch() {
	l.UpdatedAt = time.Now()
	l.IncrementVersion()
}
