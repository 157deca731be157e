package persistence

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return p.err
}

type recordingOutbox struct {
	calls  int
	sawTx  bool
	events []shared.DomainEvent
}

func (o *recordingOutbox) SaveEvents(_ context.Context, txProvider any, events ...shared.DomainEvent) error {
	o.calls++
	_, o.sawTx = txProvider.(*gorm.DB)
	o.events = append(o.events, events...)
	return nil
}

func testEvent() shared.DomainEvent {
	e := shared.NewBaseDomainEvent("TestEvent", "Test", uuid.New())
	return &e
}

func TestGormTransactionScope_Execute(t *testing.T) {
	ctx := context.Background()

	t.Run("commits and publishes after commit", func(t *testing.T) {
		db := setupTestDB(t)
		pub := &recordingPublisher{}
		scope := NewGormTransactionScope(db, WithEventPublisher(pub))

		var locID uuid.UUID
		err := scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			loc, err := stock.NewStockLocation("Main", "MAIN", stock.LocationTypeWarehouse)
			if err != nil {
				return err
			}
			locID = loc.ID
			if err := repos.StockLocations().Save(ctx, loc); err != nil {
				return err
			}
			repos.RecordEvents(testEvent())
			return nil
		})
		require.NoError(t, err)
		assert.Len(t, pub.events, 1)

		_, err = NewGormStockLocationRepository(db).FindByID(ctx, locID)
		assert.NoError(t, err)
	})

	t.Run("rollback discards writes and events", func(t *testing.T) {
		db := setupTestDB(t)
		pub := &recordingPublisher{}
		scope := NewGormTransactionScope(db, WithEventPublisher(pub))
		boom := errors.New("boom")

		err := scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			loc, err := stock.NewStockLocation("Main", "MAIN", stock.LocationTypeWarehouse)
			require.NoError(t, err)
			require.NoError(t, repos.StockLocations().Save(ctx, loc))
			repos.RecordEvents(testEvent())
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Empty(t, pub.events)

		exists, err := NewGormStockLocationRepository(db).ExistsByCode(ctx, "MAIN")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("publish failure does not undo the commit", func(t *testing.T) {
		db := setupTestDB(t)
		pub := &recordingPublisher{err: errors.New("bus down")}
		scope := NewGormTransactionScope(db, WithEventPublisher(pub))

		err := scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			repos.RecordEvents(testEvent())
			return nil
		})
		assert.NoError(t, err)
	})

	t.Run("outbox takes precedence and runs inside the transaction", func(t *testing.T) {
		db := setupTestDB(t)
		pub := &recordingPublisher{}
		outbox := &recordingOutbox{}
		scope := NewGormTransactionScope(db, WithEventPublisher(pub), WithOutbox(outbox))

		err := scope.Execute(ctx, func(repos common.TransactionalRepositories) error {
			repos.RecordEvents(testEvent(), testEvent())
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, outbox.calls)
		assert.True(t, outbox.sawTx)
		assert.Len(t, outbox.events, 2)
		assert.Empty(t, pub.events)
	})

	t.Run("no events means no outbox write", func(t *testing.T) {
		outbox := &recordingOutbox{}
		scope := NewGormTransactionScope(setupTestDB(t), WithOutbox(outbox))

		require.NoError(t, scope.Execute(ctx, func(common.TransactionalRepositories) error { return nil }))
		assert.Zero(t, outbox.calls)
	})
}
