package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// StockLocationRepository persists stock locations and their store links
type StockLocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockLocation, error)
	FindByCode(ctx context.Context, code string) (*StockLocation, error)
	// FindByStore returns the non-deleted locations linked to a store
	FindByStore(ctx context.Context, storeID uuid.UUID) ([]*StockLocation, error)
	FindDefault(ctx context.Context) (*StockLocation, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]*StockLocation, int64, error)
	ExistsByCode(ctx context.Context, code string) (bool, error)
	// Save inserts new locations and updates existing ones with a version check
	Save(ctx context.Context, loc *StockLocation) error
}

// StockItemRepository persists stock items with optimistic concurrency
type StockItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)
	FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*StockItem, error)
	FindByVariant(ctx context.Context, variantID uuid.UUID) ([]*StockItem, error)
	FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]*StockItem, int64, error)
	// Create inserts a new stock item
	Create(ctx context.Context, item *StockItem) error
	// SaveWithLock compares the persisted version and fails with
	// shared.ErrConcurrencyConflict if another writer got there first
	SaveWithLock(ctx context.Context, item *StockItem) error
}

// StockMovementRepository is append-only
type StockMovementRepository interface {
	Create(ctx context.Context, movements ...*StockMovement) error
	FindByStockItem(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) ([]*StockMovement, int64, error)
	// SumDeltas returns the net quantity recorded for a stock item, used for ledger reconciliation
	SumDeltas(ctx context.Context, stockItemID uuid.UUID) (int64, error)
}

// StockTransferRepository persists stock transfers with their item lines
type StockTransferRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockTransfer, error)
	// FindAll lists transfers newest first, optionally narrowed to one status
	FindAll(ctx context.Context, status TransferStatus, filter shared.Filter) ([]*StockTransfer, int64, error)
	// Save inserts new transfers and updates existing ones with a version check.
	// The item lines are replaced on every save.
	Save(ctx context.Context, transfer *StockTransfer) error
}
