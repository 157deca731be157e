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

// GormStockLocationRepository implements stock.StockLocationRepository using GORM
type GormStockLocationRepository struct {
	db *gorm.DB
}

// NewGormStockLocationRepository creates a new GormStockLocationRepository
func NewGormStockLocationRepository(db *gorm.DB) *GormStockLocationRepository {
	return &GormStockLocationRepository{db: db}
}

// FindByID finds a stock location by its ID, tombstoned ones included
func (r *GormStockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockLocation, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByCode finds a live stock location by its code
func (r *GormStockLocationRepository) FindByCode(ctx context.Context, code string) (*stock.StockLocation, error) {
	return r.first(ctx, "code = ? AND deleted_at IS NULL", code)
}

// FindDefault returns the default location
func (r *GormStockLocationRepository) FindDefault(ctx context.Context) (*stock.StockLocation, error) {
	return r.first(ctx, "is_default = ? AND deleted_at IS NULL", true)
}

// FindByStore returns the live locations linked to a store, ordered by code
func (r *GormStockLocationRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]*stock.StockLocation, error) {
	var rows []models.StockLocationModel
	err := r.db.WithContext(ctx).
		Preload("Stores").
		Joins("JOIN stock_location_stores sls ON sls.stock_location_id = stock_locations.id").
		Where("sls.store_id = ? AND stock_locations.deleted_at IS NULL", storeID).
		Order("stock_locations.code ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	locations := make([]*stock.StockLocation, 0, len(rows))
	for i := range rows {
		locations = append(locations, rows[i].ToDomain())
	}
	return locations, nil
}

// ExistsByCode checks whether a live location uses the code
func (r *GormStockLocationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockLocationModel{}).
		Where("code = ? AND deleted_at IS NULL", code).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save inserts a new location or updates an existing one with a version check.
// The store link set is replaced on every save.
func (r *GormStockLocationRepository) Save(ctx context.Context, loc *stock.StockLocation) error {
	model := models.StockLocationModelFromDomain(loc)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if loc.IsNew() {
			if err := tx.Omit("Stores").Create(model).Error; err != nil {
				if errors.Is(err, gorm.ErrDuplicatedKey) {
					return stock.ErrDuplicateCode
				}
				return err
			}
		} else {
			if loc.Version == loc.PersistedVersion() {
				return nil
			}
			result := tx.Model(&models.StockLocationModel{}).
				Where("id = ? AND version = ?", loc.ID, loc.PersistedVersion()).
				Updates(map[string]any{
					"name":                model.Name,
					"active":              model.Active,
					"is_default":          model.IsDefault,
					"address_first_name":  model.Address.FirstName,
					"address_last_name":   model.Address.LastName,
					"address_line1":       model.Address.Line1,
					"address_line2":       model.Address.Line2,
					"address_city":        model.Address.City,
					"address_region":      model.Address.Region,
					"address_postal_code": model.Address.PostalCode,
					"address_country":     model.Address.Country,
					"address_phone":       model.Address.Phone,
					"deleted_at":          model.DeletedAt,
					"version":             model.Version,
					"updated_at":          model.UpdatedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict.WithMessage("Stock location %s was modified by another transaction", loc.Code)
			}
			if err := tx.Where("stock_location_id = ?", loc.ID).Delete(&models.StockLocationStoreModel{}).Error; err != nil {
				return err
			}
		}

		if len(model.Stores) > 0 {
			if err := tx.Create(&model.Stores).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	loc.MarkPersisted()
	return nil
}

// FindAll lists live locations
func (r *GormStockLocationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*stock.StockLocation, int64, error) {
	var total int64
	base := func() *gorm.DB { return r.db.WithContext(ctx).Model(&models.StockLocationModel{}).Where("deleted_at IS NULL") }
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockLocationModel
	if err := applyFilter(base().Preload("Stores"), filter, StockLocationSortFields, "code").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	locations := make([]*stock.StockLocation, 0, len(rows))
	for i := range rows {
		locations = append(locations, rows[i].ToDomain())
	}
	return locations, total, nil
}

func (r *GormStockLocationRepository) first(ctx context.Context, query string, args ...any) (*stock.StockLocation, error) {
	var row models.StockLocationModel
	if err := r.db.WithContext(ctx).Preload("Stores").Where(query, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrLocationNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

var _ stock.StockLocationRepository = (*GormStockLocationRepository)(nil)
