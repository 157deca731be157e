package integration

import (
	"database/sql"
	"testing"

	"github.com/resys/backend/internal/infrastructure/migration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var exists bool
	err := db.QueryRow(`SELECT EXISTS (
		SELECT 1 FROM information_schema.tables
		WHERE table_schema = 'public' AND table_name = $1
	)`, name).Scan(&exists)
	require.NoError(t, err)
	return exists
}

func TestMigrator_Lifecycle(t *testing.T) {
	dsn := NewIsolatedDSN(t)

	migratorDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	schemaDB, err := sql.Open("postgres", dsn)
	require.NoError(t, err)
	defer schemaDB.Close()

	m, err := migration.New(migratorDB, migration.WithLogger(zaptest.NewLogger(t)))
	require.NoError(t, err)
	defer m.Close()

	st, err := m.Status()
	require.NoError(t, err)
	assert.Zero(t, st.Version)
	assert.Len(t, st.Pending, 4)

	t.Run("up creates every table", func(t *testing.T) {
		require.NoError(t, m.Up())

		st, err := m.Status()
		require.NoError(t, err)
		assert.Equal(t, uint(4), st.Version)
		assert.False(t, st.Dirty)
		assert.Empty(t, st.Pending)

		for _, table := range []string{
			"stock_locations", "stock_location_stores", "stock_items", "stock_movements",
			"orders", "line_items", "shipments", "inventory_units", "payments",
			"order_adjustments", "order_state_changes", "outbox_entries",
			"stock_transfers", "stock_transfer_items",
		} {
			assert.True(t, tableExists(t, schemaDB, table), table)
		}
	})

	t.Run("up twice is a no-op", func(t *testing.T) {
		assert.NoError(t, m.Up())
	})

	t.Run("stepping back drops the newest migration", func(t *testing.T) {
		require.NoError(t, m.Steps(-1))

		st, err := m.Status()
		require.NoError(t, err)
		assert.Equal(t, uint(3), st.Version)
		require.Len(t, st.Pending, 1)
		assert.Equal(t, "create_stock_transfers", st.Pending[0].Name)
		assert.False(t, tableExists(t, schemaDB, "stock_transfers"))
		assert.True(t, tableExists(t, schemaDB, "outbox_entries"))
	})

	t.Run("to moves to an exact version", func(t *testing.T) {
		require.NoError(t, m.To(2))
		assert.False(t, tableExists(t, schemaDB, "outbox_entries"))
		require.NoError(t, m.To(4))
		assert.True(t, tableExists(t, schemaDB, "stock_transfer_items"))
	})

	t.Run("down removes everything", func(t *testing.T) {
		require.NoError(t, m.Down())

		st, err := m.Status()
		require.NoError(t, err)
		assert.Zero(t, st.Version)
		assert.False(t, tableExists(t, schemaDB, "stock_locations"))
	})
}

func TestSchema_Constraints(t *testing.T) {
	tdb := NewTestDB(t)

	t.Run("stock movement balance must add up", func(t *testing.T) {
		err := tdb.DB.Exec(`INSERT INTO stock_locations (id, name, code, type) VALUES
			('00000000-0000-0000-0000-0000000000a1', 'Main', 'main', 'WAREHOUSE')`).Error
		require.NoError(t, err)
		err = tdb.DB.Exec(`INSERT INTO stock_items (id, variant_id, stock_location_id, sku) VALUES
			('00000000-0000-0000-0000-0000000000b1', '00000000-0000-0000-0000-0000000000c1',
			 '00000000-0000-0000-0000-0000000000a1', 'SKU-1')`).Error
		require.NoError(t, err)

		err = tdb.DB.Exec(`INSERT INTO stock_movements
			(id, stock_item_id, variant_id, stock_location_id, type, quantity_delta, balance_before, balance_after, occurred_at)
			VALUES (gen_random_uuid(), '00000000-0000-0000-0000-0000000000b1', '00000000-0000-0000-0000-0000000000c1',
			 '00000000-0000-0000-0000-0000000000a1', 'RECEIPT', 5, 0, 4, now())`).Error
		assert.Error(t, err)
	})

	t.Run("unknown location type is rejected", func(t *testing.T) {
		err := tdb.DB.Exec(`INSERT INTO stock_locations (id, name, code, type) VALUES
			(gen_random_uuid(), 'Moon', 'moon', 'SPACEPORT')`).Error
		assert.Error(t, err)
	})

	t.Run("one stock item per variant and location", func(t *testing.T) {
		err := tdb.DB.Exec(`INSERT INTO stock_items (id, variant_id, stock_location_id, sku) VALUES
			(gen_random_uuid(), '00000000-0000-0000-0000-0000000000c1',
			 '00000000-0000-0000-0000-0000000000a1', 'SKU-1')`).Error
		assert.Error(t, err)
	})
}
