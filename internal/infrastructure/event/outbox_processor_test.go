package event

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/resys/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type failingPublisher struct{ err error }

func (p failingPublisher) Publish(context.Context, ...shared.DomainEvent) error { return p.err }

func newProcessorFixture(t *testing.T) (*GormOutboxRepository, *EventSerializer, *OutboxPublisher) {
	t.Helper()
	repo := NewGormOutboxRepository(setupOutboxDB(t))
	serializer := NewEventSerializer()
	serializer.Register("A", &testEvent{})
	return repo, serializer, NewOutboxPublisher(serializer)
}

func TestOutboxProcessor_ProcessOnce(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers pending entries and marks them sent", func(t *testing.T) {
		repo, serializer, publisher := newProcessorFixture(t)
		require.NoError(t, publisher.PublishWithTx(ctx, repo.db, newTestEvent("A"), newTestEvent("A")))

		bus := NewInMemoryEventBus(nil)
		h := newTestHandler("A")
		bus.Subscribe(h)

		p := NewOutboxProcessor(repo, bus, serializer, DefaultOutboxProcessorConfig(), zap.NewNop())
		assert.Equal(t, 2, p.ProcessOnce(ctx))
		assert.Equal(t, 2, h.count())

		counts, err := repo.CountByStatus(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(2), counts[shared.OutboxStatusSent])

		assert.Zero(t, p.ProcessOnce(ctx))
		assert.Equal(t, 2, h.count())
	})

	t.Run("publish failure schedules a retry", func(t *testing.T) {
		repo, serializer, publisher := newProcessorFixture(t)
		require.NoError(t, publisher.PublishWithTx(ctx, repo.db, newTestEvent("A")))

		p := NewOutboxProcessor(repo, failingPublisher{err: errors.New("down")}, serializer, DefaultOutboxProcessorConfig(), nil)
		assert.Zero(t, p.ProcessOnce(ctx))

		retry, err := repo.FindRetryable(ctx, time.Now().Add(time.Minute), 10)
		require.NoError(t, err)
		require.Len(t, retry, 1)
		assert.Equal(t, "down", retry[0].LastError)
	})

	t.Run("unknown event types end up dead", func(t *testing.T) {
		repo, serializer, publisher := newProcessorFixture(t)
		require.NoError(t, publisher.PublishWithTx(ctx, repo.db, newTestEvent("Unregistered")))

		pending, err := repo.FindPending(ctx, 1)
		require.NoError(t, err)
		entry := pending[0]
		entry.MaxRetries = 1
		require.NoError(t, repo.Update(ctx, entry))

		p := NewOutboxProcessor(repo, NewInMemoryEventBus(nil), serializer, DefaultOutboxProcessorConfig(), nil)
		assert.Zero(t, p.ProcessOnce(ctx))

		dead, total, err := repo.FindDead(ctx, 1, 10)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, entry.ID, dead[0].ID)
	})
}

func TestOutboxProcessor_StartStop(t *testing.T) {
	repo, serializer, _ := newProcessorFixture(t)
	cfg := DefaultOutboxProcessorConfig()
	cfg.PollInterval = 10 * time.Millisecond
	cfg.CleanupInterval = 10 * time.Millisecond

	p := NewOutboxProcessor(repo, NewInMemoryEventBus(nil), serializer, cfg, nil)
	require.NoError(t, p.Start(context.Background()))
	time.Sleep(30 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Stop(ctx))
}
