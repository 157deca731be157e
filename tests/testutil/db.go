package testutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/resys/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// AllModels lists every persistent model in migration order
func AllModels() []any {
	return []any{
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
	}
}

// NewSQLiteDB opens a private in-memory SQLite database with every table migrated.
// A single connection keeps the memory database alive and serializes transactions.
func NewSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(AllModels()...))
	return db
}
