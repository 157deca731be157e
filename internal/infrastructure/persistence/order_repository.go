package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements ordering.OrderRepository using GORM.
// The aggregate is stored across orders, line_items, inventory_units,
// shipments, payments, order_adjustments and order_state_changes.
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// FindByID loads the full aggregate
func (r *GormOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*ordering.Order, error) {
	return r.first(ctx, "id = ?", id)
}

// FindByNumber loads the full aggregate by its order number
func (r *GormOrderRepository) FindByNumber(ctx context.Context, number string) (*ordering.Order, error) {
	return r.first(ctx, "number = ?", number)
}

// FindByShipment loads the order owning a shipment
func (r *GormOrderRepository) FindByShipment(ctx context.Context, shipmentID uuid.UUID) (*ordering.Order, error) {
	sub := r.db.WithContext(ctx).Model(&models.ShipmentModel{}).Select("order_id").Where("id = ?", shipmentID)
	order, err := r.first(ctx, "id = (?)", sub)
	if errors.Is(err, ordering.ErrOrderNotFound) {
		return nil, ordering.ErrShipmentNotFound
	}
	return order, err
}

// FindAll lists orders matching the filter
func (r *GormOrderRepository) FindAll(ctx context.Context, filter ordering.OrderFilter) ([]*ordering.Order, int64, error) {
	query := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.OrderModel{})
		if filter.StoreID != nil {
			q = q.Where("store_id = ?", *filter.StoreID)
		}
		if filter.State != nil {
			q = q.Where("state = ?", *filter.State)
		}
		return q
	}

	var total int64
	if err := query().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.OrderModel
	if err := applyFilter(r.preload(query()), filter.Filter, OrderSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*ordering.Order, 0, len(rows))
	for i := range rows {
		orders = append(orders, rows[i].ToDomain())
	}
	return orders, total, nil
}

// Save inserts a new order or updates an existing one with a version check.
// Children are upserted; line items removed from the cart are deleted and
// the history table only ever grows.
func (r *GormOrderRepository) Save(ctx context.Context, order *ordering.Order) error {
	if !order.IsNew() && order.Version == order.PersistedVersion() {
		return nil
	}
	model := models.OrderModelFromDomain(order)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if order.IsNew() {
			if err := tx.Omit(clause.Associations).Create(model).Error; err != nil {
				return err
			}
		} else if err := r.updateHeader(tx, order, model); err != nil {
			return err
		}
		return r.saveChildren(tx, model)
	})
	if err != nil {
		return err
	}
	order.MarkPersisted()
	return nil
}

func (r *GormOrderRepository) updateHeader(tx *gorm.DB, order *ordering.Order, model *models.OrderModel) error {
	result := tx.Model(&models.OrderModel{}).
		Where("id = ? AND version = ?", order.ID, order.PersistedVersion()).
		Select("*").
		Omit("id", "created_at", "number", "store_id", clause.Associations).
		Updates(model)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithMessage("Order %s was modified by another transaction", order.Number)
	}
	return nil
}

func (r *GormOrderRepository) saveChildren(tx *gorm.DB, model *models.OrderModel) error {
	lineIDs := make([]uuid.UUID, 0, len(model.LineItems))
	for _, li := range model.LineItems {
		lineIDs = append(lineIDs, li.ID)
	}
	removed := tx.Where("order_id = ?", model.ID)
	if len(lineIDs) > 0 {
		removed = removed.Where("id NOT IN ?", lineIDs)
	}
	if err := removed.Delete(&models.LineItemModel{}).Error; err != nil {
		return err
	}

	upsert := func() *gorm.DB { return tx.Clauses(clause.OnConflict{UpdateAll: true}) }
	if len(model.LineItems) > 0 {
		if err := upsert().Create(&model.LineItems).Error; err != nil {
			return err
		}
	}
	if len(model.Units) > 0 {
		if err := upsert().CreateInBatches(&model.Units, 500).Error; err != nil {
			return err
		}
	}
	if len(model.Shipments) > 0 {
		if err := upsert().Create(&model.Shipments).Error; err != nil {
			return err
		}
	}
	if len(model.Payments) > 0 {
		if err := upsert().Create(&model.Payments).Error; err != nil {
			return err
		}
	}

	if err := tx.Where("order_id = ?", model.ID).Delete(&models.OrderAdjustmentModel{}).Error; err != nil {
		return err
	}
	if len(model.Adjustments) > 0 {
		if err := tx.Create(&model.Adjustments).Error; err != nil {
			return err
		}
	}

	if len(model.History) > 0 {
		if err := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.History).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *GormOrderRepository) first(ctx context.Context, query string, args ...any) (*ordering.Order, error) {
	var row models.OrderModel
	if err := r.preload(r.db.WithContext(ctx)).Where(query, args...).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ordering.ErrOrderNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

func (r *GormOrderRepository) preload(db *gorm.DB) *gorm.DB {
	return db.
		Preload("LineItems", orderedBy("position")).
		Preload("Units", orderedBy("position")).
		Preload("Shipments", orderedBy("created_at, number")).
		Preload("Payments", orderedBy("created_at")).
		Preload("Adjustments", orderedBy("position")).
		Preload("History", orderedBy("sequence"))
}

func orderedBy(columns string) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(columns)
	}
}

var _ ordering.OrderRepository = (*GormOrderRepository)(nil)
