package stock

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/stretchr/testify/mock"
)

// MockStockLocationRepository is a mock implementation of stock.StockLocationRepository
type MockStockLocationRepository struct {
	mock.Mock
}

func (m *MockStockLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockLocation, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) FindByCode(ctx context.Context, code string) (*stock.StockLocation, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) FindByStore(ctx context.Context, storeID uuid.UUID) ([]*stock.StockLocation, error) {
	args := m.Called(ctx, storeID)
	return args.Get(0).([]*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) FindDefault(ctx context.Context) (*stock.StockLocation, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockLocation), args.Error(1)
}

func (m *MockStockLocationRepository) FindAll(ctx context.Context, filter shared.Filter) ([]*stock.StockLocation, int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]*stock.StockLocation), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockLocationRepository) ExistsByCode(ctx context.Context, code string) (bool, error) {
	args := m.Called(ctx, code)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockLocationRepository) Save(ctx context.Context, loc *stock.StockLocation) error {
	args := m.Called(ctx, loc)
	if args.Error(0) == nil {
		loc.MarkPersisted()
	}
	return args.Error(0)
}

// MockStockItemRepository is a mock implementation of stock.StockItemRepository
type MockStockItemRepository struct {
	mock.Mock
}

func (m *MockStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindByVariantAndLocation(ctx context.Context, variantID, locationID uuid.UUID) (*stock.StockItem, error) {
	args := m.Called(ctx, variantID, locationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*stock.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindByVariant(ctx context.Context, variantID uuid.UUID) ([]*stock.StockItem, error) {
	args := m.Called(ctx, variantID)
	return args.Get(0).([]*stock.StockItem), args.Error(1)
}

func (m *MockStockItemRepository) FindByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) ([]*stock.StockItem, int64, error) {
	args := m.Called(ctx, locationID, filter)
	return args.Get(0).([]*stock.StockItem), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockItemRepository) Create(ctx context.Context, item *stock.StockItem) error {
	args := m.Called(ctx, item)
	if args.Error(0) == nil {
		item.MarkPersisted()
	}
	return args.Error(0)
}

func (m *MockStockItemRepository) SaveWithLock(ctx context.Context, item *stock.StockItem) error {
	args := m.Called(ctx, item)
	if args.Error(0) == nil {
		item.MarkPersisted()
	}
	return args.Error(0)
}

// MockStockMovementRepository is a mock implementation of stock.StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Create(ctx context.Context, movements ...*stock.StockMovement) error {
	args := m.Called(ctx, movements)
	return args.Error(0)
}

func (m *MockStockMovementRepository) FindByStockItem(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) ([]*stock.StockMovement, int64, error) {
	args := m.Called(ctx, stockItemID, filter)
	return args.Get(0).([]*stock.StockMovement), args.Get(1).(int64), args.Error(2)
}

func (m *MockStockMovementRepository) SumDeltas(ctx context.Context, stockItemID uuid.UUID) (int64, error) {
	args := m.Called(ctx, stockItemID)
	return args.Get(0).(int64), args.Error(1)
}
