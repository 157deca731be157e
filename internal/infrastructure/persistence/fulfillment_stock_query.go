package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// fulfillableTypes are the location types stock may be sold from
var fulfillableTypes = []stock.LocationType{stock.LocationTypeWarehouse, stock.LocationTypeRetailStore}

// GormFulfillmentStockQuery implements fulfillment.StockQuery with plain reads.
// It never locks; the allocation commit re-reads the rows it touches.
type GormFulfillmentStockQuery struct {
	db *gorm.DB
}

// NewGormFulfillmentStockQuery creates a new GormFulfillmentStockQuery
func NewGormFulfillmentStockQuery(db *gorm.DB) *GormFulfillmentStockQuery {
	return &GormFulfillmentStockQuery{db: db}
}

// FulfillableLocations returns the active, live, fulfillable locations linked to the store
func (q *GormFulfillmentStockQuery) FulfillableLocations(ctx context.Context, storeID uuid.UUID) ([]fulfillment.Location, error) {
	var rows []models.StockLocationModel
	if err := q.eligible(ctx, storeID).
		Select("stock_locations.*").
		Order("stock_locations.code ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}

	locations := make([]fulfillment.Location, 0, len(rows))
	for i := range rows {
		locations = append(locations, fulfillment.LocationFromStock(rows[i].ToDomain()))
	}
	return locations, nil
}

// FetchFulfillableStock returns stock levels of the variants at the store's fulfillable locations
func (q *GormFulfillmentStockQuery) FetchFulfillableStock(ctx context.Context, storeID uuid.UUID, variantIDs []uuid.UUID) ([]fulfillment.StockLevel, error) {
	if len(variantIDs) == 0 {
		return []fulfillment.StockLevel{}, nil
	}

	var rows []struct {
		ID               uuid.UUID
		StockLocationID  uuid.UUID
		VariantID        uuid.UUID
		QuantityOnHand   int
		QuantityReserved int
	}
	if err := q.eligible(ctx, storeID).
		Joins("JOIN stock_items ON stock_items.stock_location_id = stock_locations.id").
		Where("stock_items.variant_id IN ?", variantIDs).
		Select("stock_items.id, stock_items.stock_location_id, stock_items.variant_id, " +
			"stock_items.quantity_on_hand, stock_items.quantity_reserved").
		Order("stock_locations.code ASC, stock_items.variant_id ASC").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	levels := make([]fulfillment.StockLevel, 0, len(rows))
	for _, r := range rows {
		levels = append(levels, fulfillment.StockLevel{
			StockItemID: r.ID,
			LocationID:  r.StockLocationID,
			VariantID:   r.VariantID,
			OnHand:      r.QuantityOnHand,
			Reserved:    r.QuantityReserved,
		})
	}
	return levels, nil
}

func (q *GormFulfillmentStockQuery) eligible(ctx context.Context, storeID uuid.UUID) *gorm.DB {
	return q.db.WithContext(ctx).
		Model(&models.StockLocationModel{}).
		Joins("JOIN stock_location_stores sls ON sls.stock_location_id = stock_locations.id").
		Where("sls.store_id = ?", storeID).
		Where("stock_locations.active = ? AND stock_locations.deleted_at IS NULL", true).
		Where("stock_locations.type IN ?", fulfillableTypes)
}

var _ fulfillment.StockQuery = (*GormFulfillmentStockQuery)(nil)
