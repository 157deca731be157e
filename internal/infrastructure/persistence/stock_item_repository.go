package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/resys/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStockItemRepository implements stock.StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockItem, error) {
	var row models.StockItemModel
	if err := r.db.WithContext(ctx).First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrStockItemNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindByVariantAndLocation finds the stock item of a variant at a location
func (r *GormStockItemRepository) FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*stock.StockItem, error) {
	var row models.StockItemModel
	if err := r.db.WithContext(ctx).
		Where("variant_id = ? AND stock_location_id = ?", variantID, locationID).
		First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrStockItemNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindByVariant finds the stock items of a variant across all locations
func (r *GormStockItemRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]*stock.StockItem, error) {
	var rows []models.StockItemModel
	if err := r.db.WithContext(ctx).
		Where("variant_id = ?", variantID).
		Order("stock_location_id ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return stockItemsToDomain(rows), nil
}

// FindByLocation lists the stock items held at a location
func (r *GormStockItemRepository) FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]*stock.StockItem, int64, error) {
	base := func() *gorm.DB { return r.db.WithContext(ctx).Model(&models.StockItemModel{}).Where("stock_location_id = ?", locationID) }

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockItemModel
	if err := applyFilter(base(), filter, StockItemSortFields, "sku").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	return stockItemsToDomain(rows), total, nil
}

// Create inserts a new stock item
func (r *GormStockItemRepository) Create(ctx context.Context, item *stock.StockItem) error {
	if err := r.db.WithContext(ctx).Create(models.StockItemModelFromDomain(item)).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return stock.ErrDuplicateStockItem
		}
		return err
	}
	item.MarkPersisted()
	return nil
}

// SaveWithLock saves with optimistic locking (checks the persisted version)
func (r *GormStockItemRepository) SaveWithLock(ctx context.Context, item *stock.StockItem) error {
	if item.IsNew() {
		return r.Create(ctx, item)
	}
	if item.Version == item.PersistedVersion() {
		return nil
	}

	result := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("id = ? AND version = ?", item.ID, item.PersistedVersion()).
		Updates(map[string]any{
			"quantity_on_hand":     item.QuantityOnHand,
			"quantity_reserved":    item.QuantityReserved,
			"quantity_backordered": item.QuantityBackordered,
			"backorderable":        item.Backorderable,
			"backorder_limit":      item.BackorderLimit,
			"last_unit_cost":       item.LastUnitCost,
			"version":              item.Version,
			"updated_at":           item.UpdatedAt,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("Stock item %s was modified by another transaction", item.ID)
	}
	item.MarkPersisted()
	return nil
}

func stockItemsToDomain(rows []models.StockItemModel) []*stock.StockItem {
	items := make([]*stock.StockItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToDomain())
	}
	return items
}

var _ stock.StockItemRepository = (*GormStockItemRepository)(nil)

// GormStockMovementRepository implements the append-only stock.StockMovementRepository
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends ledger rows
func (r *GormStockMovementRepository) Create(ctx context.Context, movements ...*stock.StockMovement) error {
	if len(movements) == 0 {
		return nil
	}
	rows := make([]*models.StockMovementModel, 0, len(movements))
	for _, m := range movements {
		rows = append(rows, models.StockMovementModelFromDomain(m))
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// FindByStockItem lists the ledger of a stock item, newest first by default
func (r *GormStockMovementRepository) FindByStockItem(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) ([]*stock.StockMovement, int64, error) {
	base := func() *gorm.DB { return r.db.WithContext(ctx).Model(&models.StockMovementModel{}).Where("stock_item_id = ?", stockItemID) }

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockMovementModel
	if err := applyFilter(base(), filter, StockMovementSortFields, "occurred_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	movements := make([]*stock.StockMovement, 0, len(rows))
	for i := range rows {
		movements = append(movements, rows[i].ToDomain())
	}
	return movements, total, nil
}

// SumDeltas returns the net quantity recorded for a stock item
func (r *GormStockMovementRepository) SumDeltas(ctx context.Context, stockItemID uuid.UUID) (int64, error) {
	var result struct {
		Total int64
	}
	if err := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Select("COALESCE(SUM(quantity_delta), 0) AS total").
		Where("stock_item_id = ?", stockItemID).
		Scan(&result).Error; err != nil {
		return 0, err
	}
	return result.Total, nil
}

var _ stock.StockMovementRepository = (*GormStockMovementRepository)(nil)
