package models

import (
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// StockLocationModel is the persistence model for the StockLocation aggregate root
type StockLocationModel struct {
	AggregateModel
	Name      string                    `gorm:"type:varchar(100);not null"`
	Code      string                    `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type      stock.LocationType        `gorm:"type:varchar(20);not null"`
	Active    bool                      `gorm:"not null;default:true"`
	IsDefault bool                      `gorm:"not null;default:false;index"`
	Address   AddressColumns            `gorm:"embedded;embeddedPrefix:address_"`
	DeletedAt *time.Time                `gorm:"index"`
	Stores    []StockLocationStoreModel `gorm:"foreignKey:StockLocationID;references:ID"`
}

// TableName returns the table name for GORM
func (StockLocationModel) TableName() string {
	return "stock_locations"
}

// ToDomain converts the persistence model to a domain StockLocation
func (m *StockLocationModel) ToDomain() *stock.StockLocation {
	loc := &stock.StockLocation{
		SoftDelete: shared.SoftDelete{DeletedAt: m.DeletedAt},
		Name:       m.Name,
		Code:       m.Code,
		Type:       m.Type,
		Active:     m.Active,
		IsDefault:  m.IsDefault,
		Address:    m.Address.ToDomain(),
		StoreIDs:   make([]uuid.UUID, 0, len(m.Stores)),
	}
	m.PopulateAggregateRoot(&loc.BaseAggregateRoot)
	for _, s := range m.Stores {
		loc.StoreIDs = append(loc.StoreIDs, s.StoreID)
	}
	return loc
}

// FromDomain populates the persistence model from a domain StockLocation
func (m *StockLocationModel) FromDomain(loc *stock.StockLocation) {
	m.FromDomainAggregateRoot(&loc.BaseAggregateRoot)
	m.Name = loc.Name
	m.Code = loc.Code
	m.Type = loc.Type
	m.Active = loc.Active
	m.IsDefault = loc.IsDefault
	m.Address.FromDomain(loc.Address)
	m.DeletedAt = loc.DeletedAt
	m.Stores = make([]StockLocationStoreModel, 0, len(loc.StoreIDs))
	for _, storeID := range loc.StoreIDs {
		m.Stores = append(m.Stores, StockLocationStoreModel{StockLocationID: loc.ID, StoreID: storeID})
	}
}

// StockLocationModelFromDomain creates a new persistence model from a domain StockLocation
func StockLocationModelFromDomain(loc *stock.StockLocation) *StockLocationModel {
	m := &StockLocationModel{}
	m.FromDomain(loc)
	return m
}

// StockLocationStoreModel links a stock location to a store it serves
type StockLocationStoreModel struct {
	StockLocationID uuid.UUID `gorm:"type:uuid;primaryKey"`
	StoreID         uuid.UUID `gorm:"type:uuid;primaryKey;index"`
}

// TableName returns the table name for GORM
func (StockLocationStoreModel) TableName() string {
	return "stock_location_stores"
}

// StockItemModel is the persistence model for the StockItem aggregate root
type StockItemModel struct {
	AggregateModel
	VariantID           uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_variant_location,priority:1"`
	StockLocationID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_stock_item_variant_location,priority:2;index"`
	SKU                 string          `gorm:"column:sku;type:varchar(100);not null"`
	QuantityOnHand      int             `gorm:"not null;default:0"`
	QuantityReserved    int             `gorm:"not null;default:0"`
	QuantityBackordered int             `gorm:"not null;default:0"`
	Backorderable       bool            `gorm:"not null;default:true"`
	BackorderLimit      int             `gorm:"not null;default:0"`
	LastUnitCost        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem
func (m *StockItemModel) ToDomain() *stock.StockItem {
	item := &stock.StockItem{
		VariantID:           m.VariantID,
		LocationID:          m.StockLocationID,
		SKU:                 m.SKU,
		QuantityOnHand:      m.QuantityOnHand,
		QuantityReserved:    m.QuantityReserved,
		QuantityBackordered: m.QuantityBackordered,
		Backorderable:       m.Backorderable,
		BackorderLimit:      m.BackorderLimit,
		LastUnitCost:        m.LastUnitCost,
	}
	m.PopulateAggregateRoot(&item.BaseAggregateRoot)
	return item
}

// FromDomain populates the persistence model from a domain StockItem
func (m *StockItemModel) FromDomain(item *stock.StockItem) {
	m.FromDomainAggregateRoot(&item.BaseAggregateRoot)
	m.VariantID = item.VariantID
	m.StockLocationID = item.LocationID
	m.SKU = item.SKU
	m.QuantityOnHand = item.QuantityOnHand
	m.QuantityReserved = item.QuantityReserved
	m.QuantityBackordered = item.QuantityBackordered
	m.Backorderable = item.Backorderable
	m.BackorderLimit = item.BackorderLimit
	m.LastUnitCost = item.LastUnitCost
}

// StockItemModelFromDomain creates a new persistence model from a domain StockItem
func StockItemModelFromDomain(item *stock.StockItem) *StockItemModel {
	m := &StockItemModel{}
	m.FromDomain(item)
	return m
}

// StockMovementModel is an append-only ledger row
type StockMovementModel struct {
	ID              uuid.UUID          `gorm:"type:uuid;primaryKey"`
	StockItemID     uuid.UUID          `gorm:"type:uuid;not null;index:idx_stock_movement_item_time,priority:1"`
	VariantID       uuid.UUID          `gorm:"type:uuid;not null;index"`
	StockLocationID uuid.UUID          `gorm:"type:uuid;not null"`
	Type            stock.MovementType `gorm:"type:varchar(20);not null"`
	QuantityDelta   int                `gorm:"not null"`
	BalanceBefore   int                `gorm:"not null"`
	BalanceAfter    int                `gorm:"not null"`
	UnitCost        decimal.Decimal    `gorm:"type:decimal(18,4);not null;default:0"`
	Reason          string             `gorm:"type:varchar(255)"`
	Reference       string             `gorm:"type:varchar(100);index"`
	OccurredAt      time.Time          `gorm:"not null;index:idx_stock_movement_item_time,priority:2"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// ToDomain converts the persistence model to a domain StockMovement
func (m *StockMovementModel) ToDomain() *stock.StockMovement {
	return &stock.StockMovement{
		ID:            m.ID,
		StockItemID:   m.StockItemID,
		VariantID:     m.VariantID,
		LocationID:    m.StockLocationID,
		Type:          m.Type,
		QuantityDelta: m.QuantityDelta,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		UnitCost:      m.UnitCost,
		Reason:        m.Reason,
		Reference:     m.Reference,
		OccurredAt:    m.OccurredAt,
	}
}

// StockMovementModelFromDomain creates a new persistence model from a domain StockMovement
func StockMovementModelFromDomain(mv *stock.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:              mv.ID,
		StockItemID:     mv.StockItemID,
		VariantID:       mv.VariantID,
		StockLocationID: mv.LocationID,
		Type:            mv.Type,
		QuantityDelta:   mv.QuantityDelta,
		BalanceBefore:   mv.BalanceBefore,
		BalanceAfter:    mv.BalanceAfter,
		UnitCost:        mv.UnitCost,
		Reason:          mv.Reason,
		Reference:       mv.Reference,
		OccurredAt:      mv.OccurredAt,
	}
}

// StockTransferModel is the persistence model for the StockTransfer aggregate root
type StockTransferModel struct {
	AggregateModel
	ReferenceNumber       string                   `gorm:"type:varchar(20);not null;uniqueIndex"`
	SourceLocationID      uuid.UUID                `gorm:"type:uuid;not null;index"`
	DestinationLocationID uuid.UUID                `gorm:"type:uuid;not null;index"`
	Status                stock.TransferStatus     `gorm:"type:varchar(20);not null;index"`
	Reason                string                   `gorm:"type:varchar(255)"`
	ShippedAt             *time.Time
	ReceivedAt            *time.Time
	CanceledAt            *time.Time
	Items                 []StockTransferItemModel `gorm:"foreignKey:TransferID;references:ID"`
}

// TableName returns the table name for GORM
func (StockTransferModel) TableName() string {
	return "stock_transfers"
}

// StockTransferItemModel is one variant line of a transfer
type StockTransferItemModel struct {
	TransferID uuid.UUID `gorm:"type:uuid;primaryKey"`
	VariantID  uuid.UUID `gorm:"type:uuid;primaryKey"`
	Position   int       `gorm:"not null"`
	SKU        string    `gorm:"column:sku;type:varchar(100);not null"`
	Quantity   int       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (StockTransferItemModel) TableName() string {
	return "stock_transfer_items"
}

// ToDomain converts the persistence model to a domain StockTransfer
func (m *StockTransferModel) ToDomain() *stock.StockTransfer {
	t := &stock.StockTransfer{
		ReferenceNumber:       m.ReferenceNumber,
		SourceLocationID:      m.SourceLocationID,
		DestinationLocationID: m.DestinationLocationID,
		Status:                m.Status,
		Reason:                m.Reason,
		ShippedAt:             m.ShippedAt,
		ReceivedAt:            m.ReceivedAt,
		CanceledAt:            m.CanceledAt,
		Items:                 make([]stock.TransferItem, 0, len(m.Items)),
	}
	m.PopulateAggregateRoot(&t.BaseAggregateRoot)
	items := slices.Clone(m.Items)
	slices.SortFunc(items, func(a, b StockTransferItemModel) int { return a.Position - b.Position })
	for _, item := range items {
		t.Items = append(t.Items, stock.TransferItem{VariantID: item.VariantID, SKU: item.SKU, Quantity: item.Quantity})
	}
	return t
}

// StockTransferModelFromDomain creates a new persistence model from a domain StockTransfer
func StockTransferModelFromDomain(t *stock.StockTransfer) *StockTransferModel {
	m := &StockTransferModel{
		ReferenceNumber:       t.ReferenceNumber,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		Status:                t.Status,
		Reason:                t.Reason,
		ShippedAt:             t.ShippedAt,
		ReceivedAt:            t.ReceivedAt,
		CanceledAt:            t.CanceledAt,
		Items:                 make([]StockTransferItemModel, 0, len(t.Items)),
	}
	m.FromDomainAggregateRoot(&t.BaseAggregateRoot)
	for i, item := range t.Items {
		m.Items = append(m.Items, StockTransferItemModel{
			TransferID: t.ID,
			VariantID:  item.VariantID,
			Position:   i,
			SKU:        item.SKU,
			Quantity:   item.Quantity,
		})
	}
	return m
}
