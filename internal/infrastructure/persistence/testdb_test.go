package persistence

import (
	"fmt"
	"strings"
	"testing"

	"github.com/resys/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with every table migrated
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.StockLocationModel{},
		&models.StockLocationStoreModel{},
		&models.StockItemModel{},
		&models.StockMovementModel{},
		&models.StockTransferModel{},
		&models.StockTransferItemModel{},
		&models.OrderModel{},
		&models.LineItemModel{},
		&models.InventoryUnitModel{},
		&models.ShipmentModel{},
		&models.PaymentModel{},
		&models.OrderAdjustmentModel{},
		&models.OrderStateChangeModel{},
		&models.OutboxEntryModel{},
	))
	return db
}
