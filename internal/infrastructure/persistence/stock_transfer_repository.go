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

// GormStockTransferRepository implements stock.StockTransferRepository using GORM
type GormStockTransferRepository struct {
	db *gorm.DB
}

// NewGormStockTransferRepository creates a new GormStockTransferRepository
func NewGormStockTransferRepository(db *gorm.DB) *GormStockTransferRepository {
	return &GormStockTransferRepository{db: db}
}

// FindByID finds a transfer with its item lines
func (r *GormStockTransferRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockTransfer, error) {
	var row models.StockTransferModel
	if err := r.db.WithContext(ctx).Preload("Items").Where("id = ?", id).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, stock.ErrTransferNotFound
		}
		return nil, err
	}
	return row.ToDomain(), nil
}

// FindAll lists transfers, newest first unless the filter sorts otherwise
func (r *GormStockTransferRepository) FindAll(ctx context.Context, status stock.TransferStatus, filter shared.Filter) ([]*stock.StockTransfer, int64, error) {
	base := func() *gorm.DB {
		q := r.db.WithContext(ctx).Model(&models.StockTransferModel{})
		if status != "" {
			q = q.Where("status = ?", status)
		}
		return q
	}

	var total int64
	if err := base().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockTransferModel
	if err := applyFilter(base().Preload("Items"), filter, StockTransferSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	transfers := make([]*stock.StockTransfer, 0, len(rows))
	for i := range rows {
		transfers = append(transfers, rows[i].ToDomain())
	}
	return transfers, total, nil
}

// Save inserts a new transfer or updates an existing one with a version check
func (r *GormStockTransferRepository) Save(ctx context.Context, t *stock.StockTransfer) error {
	model := models.StockTransferModelFromDomain(t)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if t.IsNew() {
			if err := tx.Omit("Items").Create(model).Error; err != nil {
				return err
			}
		} else {
			if t.Version == t.PersistedVersion() {
				return nil
			}
			result := tx.Model(&models.StockTransferModel{}).
				Where("id = ? AND version = ?", t.ID, t.PersistedVersion()).
				Updates(map[string]any{
					"status":      model.Status,
					"reason":      model.Reason,
					"shipped_at":  model.ShippedAt,
					"received_at": model.ReceivedAt,
					"canceled_at": model.CanceledAt,
					"version":     model.Version,
					"updated_at":  model.UpdatedAt,
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return shared.ErrConcurrencyConflict.WithMessage("Stock transfer %s was modified by another transaction", t.ReferenceNumber)
			}
			if err := tx.Where("transfer_id = ?", t.ID).Delete(&models.StockTransferItemModel{}).Error; err != nil {
				return err
			}
		}

		if len(model.Items) > 0 {
			if err := tx.Create(&model.Items).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}
	t.MarkPersisted()
	return nil
}

var _ stock.StockTransferRepository = (*GormStockTransferRepository)(nil)
