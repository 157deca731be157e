package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createTestLocation(t *testing.T, repo *GormStockLocationRepository, code string, locType stock.LocationType, stores ...uuid.UUID) *stock.StockLocation {
	t.Helper()
	loc, err := stock.NewStockLocation("Location "+code, code, locType)
	require.NoError(t, err)
	for _, s := range stores {
		loc.LinkStore(s)
	}
	require.NoError(t, repo.Save(context.Background(), loc))
	return loc
}

// ==================== Stock locations ====================

func TestGormStockLocationRepository_Save(t *testing.T) {
	ctx := context.Background()

	t.Run("round trips a new location with its stores", func(t *testing.T) {
		repo := NewGormStockLocationRepository(setupTestDB(t))
		storeID := uuid.New()
		loc := createTestLocation(t, repo, "WH-EAST", stock.LocationTypeWarehouse, storeID)

		found, err := repo.FindByID(ctx, loc.ID)
		require.NoError(t, err)
		assert.Equal(t, "WH-EAST", found.Code)
		assert.Equal(t, stock.LocationTypeWarehouse, found.Type)
		assert.True(t, found.Active)
		assert.Equal(t, []uuid.UUID{storeID}, found.StoreIDs)
		assert.False(t, found.IsNew())
	})

	t.Run("duplicate code is a conflict", func(t *testing.T) {
		repo := NewGormStockLocationRepository(setupTestDB(t))
		createTestLocation(t, repo, "WH-1", stock.LocationTypeWarehouse)

		dup, err := stock.NewStockLocation("Other", "WH-1", stock.LocationTypeRetailStore)
		require.NoError(t, err)
		err = repo.Save(ctx, dup)
		assert.ErrorIs(t, err, stock.ErrDuplicateCode)
		assert.Equal(t, shared.KindConflict, shared.KindOf(err))
	})

	t.Run("updates replace the store links", func(t *testing.T) {
		repo := NewGormStockLocationRepository(setupTestDB(t))
		a, b := uuid.New(), uuid.New()
		loc := createTestLocation(t, repo, "STORE-1", stock.LocationTypeRetailStore, a)

		loc.UnlinkStore(a)
		loc.LinkStore(b)
		require.NoError(t, loc.MarkDefault())
		require.NoError(t, repo.Save(ctx, loc))

		found, err := repo.FindByID(ctx, loc.ID)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{b}, found.StoreIDs)
		assert.True(t, found.IsDefault)

		def, err := repo.FindDefault(ctx)
		require.NoError(t, err)
		assert.Equal(t, loc.ID, def.ID)
	})

	t.Run("stale copy fails with a concurrency conflict", func(t *testing.T) {
		repo := NewGormStockLocationRepository(setupTestDB(t))
		loc := createTestLocation(t, repo, "WH-2", stock.LocationTypeWarehouse)

		first, err := repo.FindByID(ctx, loc.ID)
		require.NoError(t, err)
		second, err := repo.FindByID(ctx, loc.ID)
		require.NoError(t, err)

		require.NoError(t, first.Deactivate())
		require.NoError(t, repo.Save(ctx, first))

		require.NoError(t, second.MarkDefault())
		err = repo.Save(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		assert.True(t, shared.IsRetryable(err))
	})
}

func TestGormStockLocationRepository_Finders(t *testing.T) {
	ctx := context.Background()
	repo := NewGormStockLocationRepository(setupTestDB(t))
	storeID := uuid.New()

	b := createTestLocation(t, repo, "B-WH", stock.LocationTypeWarehouse, storeID)
	a := createTestLocation(t, repo, "A-SHOP", stock.LocationTypeRetailStore, storeID)
	createTestLocation(t, repo, "OTHER", stock.LocationTypeWarehouse, uuid.New())
	gone := createTestLocation(t, repo, "GONE", stock.LocationTypeWarehouse, storeID)
	require.NoError(t, gone.Delete(gone.UpdatedAt))
	require.NoError(t, repo.Save(ctx, gone))

	t.Run("by store skips tombstoned locations", func(t *testing.T) {
		found, err := repo.FindByStore(ctx, storeID)
		require.NoError(t, err)
		require.Len(t, found, 2)
		assert.Equal(t, a.ID, found[0].ID)
		assert.Equal(t, b.ID, found[1].ID)
	})

	t.Run("by code", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "A-SHOP")
		require.NoError(t, err)
		assert.Equal(t, a.ID, found.ID)

		_, err = repo.FindByCode(ctx, "GONE")
		assert.ErrorIs(t, err, stock.ErrLocationNotFound)
	})

	t.Run("exists by code", func(t *testing.T) {
		exists, err := repo.ExistsByCode(ctx, "B-WH")
		require.NoError(t, err)
		assert.True(t, exists)

		exists, err = repo.ExistsByCode(ctx, "NOPE")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("no default", func(t *testing.T) {
		_, err := repo.FindDefault(ctx)
		assert.ErrorIs(t, err, stock.ErrLocationNotFound)
	})

	t.Run("list pages live locations", func(t *testing.T) {
		found, total, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 2, OrderBy: "code", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, found, 2)
		assert.Equal(t, "A-SHOP", found[0].Code)
	})
}

// ==================== Stock items ====================

func TestGormStockItemRepository(t *testing.T) {
	ctx := context.Background()

	setup := func(t *testing.T) (*GormStockItemRepository, *GormStockMovementRepository, *stock.StockItem) {
		db := setupTestDB(t)
		items := NewGormStockItemRepository(db)
		movements := NewGormStockMovementRepository(db)
		item, err := stock.NewStockItem(uuid.New(), uuid.New(), "SKU-1", 10, decimal.NewFromInt(3))
		require.NoError(t, err)
		require.NoError(t, items.Create(ctx, item))
		require.NoError(t, movements.Create(ctx, item.DrainMovements()...))
		return items, movements, item
	}

	t.Run("create and find", func(t *testing.T) {
		items, _, item := setup(t)

		found, err := items.FindByVariantAndLocation(ctx, item.VariantID, item.LocationID)
		require.NoError(t, err)
		assert.Equal(t, 10, found.QuantityOnHand)
		assert.True(t, found.Backorderable)
		assert.True(t, found.LastUnitCost.Equal(decimal.NewFromInt(3)))
		assert.Equal(t, 1, found.PersistedVersion())
	})

	t.Run("one item per variant and location", func(t *testing.T) {
		items, _, item := setup(t)
		dup, err := stock.NewStockItem(item.VariantID, item.LocationID, "SKU-1", 0, decimal.Zero)
		require.NoError(t, err)
		assert.ErrorIs(t, items.Create(ctx, dup), stock.ErrDuplicateStockItem)
	})

	t.Run("missing item", func(t *testing.T) {
		items, _, _ := setup(t)
		_, err := items.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, stock.ErrStockItemNotFound)
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})

	t.Run("second writer loses", func(t *testing.T) {
		items, _, item := setup(t)

		first, err := items.FindByID(ctx, item.ID)
		require.NoError(t, err)
		second, err := items.FindByID(ctx, item.ID)
		require.NoError(t, err)

		require.NoError(t, first.Reserve(6))
		require.NoError(t, items.SaveWithLock(ctx, first))

		require.NoError(t, second.Reserve(6))
		err = items.SaveWithLock(ctx, second)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)

		fresh, err := items.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 6, fresh.QuantityReserved)
		assert.Equal(t, 2, fresh.Version)
	})

	t.Run("several mutations bump the version once", func(t *testing.T) {
		items, _, item := setup(t)

		require.NoError(t, item.Reserve(2))
		require.NoError(t, item.Backorder(3))
		require.NoError(t, items.SaveWithLock(ctx, item))

		fresh, err := items.FindByID(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, fresh.Version)
		assert.Equal(t, 3, fresh.QuantityBackordered)
	})

	t.Run("ledger reconciles with on hand", func(t *testing.T) {
		items, movements, item := setup(t)

		_, err := item.Adjust(-4, stock.MovementTypeLoss, decimal.Zero, "broken", "")
		require.NoError(t, err)
		require.NoError(t, items.SaveWithLock(ctx, item))
		require.NoError(t, movements.Create(ctx, item.DrainMovements()...))

		sum, err := movements.SumDeltas(ctx, item.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), sum)

		rows, total, err := movements.FindByStockItem(ctx, item.ID, shared.Filter{OrderBy: "occurred_at", OrderDir: "asc"})
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		require.Len(t, rows, 2)
		assert.Equal(t, stock.MovementTypeReceipt, rows[0].Type)
		assert.Equal(t, 6, rows[1].BalanceAfter)
	})

	t.Run("by location", func(t *testing.T) {
		items, _, item := setup(t)
		found, total, err := items.FindByLocation(ctx, item.LocationID, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Len(t, found, 1)

		byVariant, err := items.FindByVariant(ctx, item.VariantID)
		require.NoError(t, err)
		assert.Len(t, byVariant, 1)
	})
}

// ==================== Stock transfers ====================

func TestGormStockTransferRepository(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	locations := NewGormStockLocationRepository(db)
	repo := NewGormStockTransferRepository(db)
	east := createTestLocation(t, locations, "EAST", stock.LocationTypeWarehouse)
	west := createTestLocation(t, locations, "WEST", stock.LocationTypeWarehouse)
	first, second := uuid.New(), uuid.New()

	tr, err := stock.NewStockTransfer(east.ID, west.ID, "rebalance")
	require.NoError(t, err)
	require.NoError(t, tr.AddItem(second, "SKU-B", 2))
	require.NoError(t, tr.AddItem(first, "SKU-A", 5))
	require.NoError(t, repo.Save(ctx, tr))

	t.Run("round trips the lines in order", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, tr.ReferenceNumber, found.ReferenceNumber)
		assert.Equal(t, stock.TransferStatusDraft, found.Status)
		require.Len(t, found.Items, 2)
		assert.Equal(t, second, found.Items[0].VariantID)
		assert.Equal(t, "SKU-A", found.Items[1].SKU)
		assert.Equal(t, 7, found.TotalQuantity())
		assert.False(t, found.IsNew())
	})

	t.Run("updates replace the lines and status", func(t *testing.T) {
		found, err := repo.FindByID(ctx, tr.ID)
		require.NoError(t, err)
		require.NoError(t, found.RemoveItem(second))
		require.NoError(t, found.Ship(found.UpdatedAt))
		require.NoError(t, repo.Save(ctx, found))

		again, err := repo.FindByID(ctx, tr.ID)
		require.NoError(t, err)
		assert.Equal(t, stock.TransferStatusInTransit, again.Status)
		assert.NotNil(t, again.ShippedAt)
		require.Len(t, again.Items, 1)
		assert.Equal(t, first, again.Items[0].VariantID)
	})

	t.Run("stale version is a conflict", func(t *testing.T) {
		a, err := repo.FindByID(ctx, tr.ID)
		require.NoError(t, err)
		b, err := repo.FindByID(ctx, tr.ID)
		require.NoError(t, err)

		require.NoError(t, repo.Save(ctx, a))
		_, err = a.Cancel(a.UpdatedAt)
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, a))

		require.NoError(t, b.Receive(b.UpdatedAt))
		assert.ErrorIs(t, repo.Save(ctx, b), shared.ErrConcurrencyConflict)
	})

	t.Run("list filters by status", func(t *testing.T) {
		other, err := stock.NewStockTransfer(west.ID, east.ID, "")
		require.NoError(t, err)
		require.NoError(t, repo.Save(ctx, other))

		all, total, err := repo.FindAll(ctx, "", shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(2), total)
		assert.Len(t, all, 2)

		drafts, total, err := repo.FindAll(ctx, stock.TransferStatusDraft, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, other.ID, drafts[0].ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, stock.ErrTransferNotFound)
	})
}
