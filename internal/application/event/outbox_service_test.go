package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
	infraevent "github.com/resys/backend/internal/infrastructure/event"
	"github.com/resys/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type outboxFixture struct {
	store   *infraevent.GormOutboxRepository
	service *OutboxService
}

func newOutboxFixture(t *testing.T) *outboxFixture {
	t.Helper()
	store := infraevent.NewGormOutboxRepository(testutil.NewSQLiteDB(t))
	return &outboxFixture{store: store, service: NewOutboxService(store, zap.NewNop())}
}

func (f *outboxFixture) add(t *testing.T, status shared.OutboxStatus) *shared.OutboxEntry {
	t.Helper()
	event := testutil.NewTestEvent("OrderCreated")
	entry := shared.NewOutboxEntry(event, []byte(`{}`))
	entry.AggregateType = "Order"
	entry.Status = status
	if status == shared.OutboxStatusDead {
		entry.RetryCount = entry.MaxRetries
		entry.LastError = "handler exploded"
	}
	require.NoError(t, f.store.Save(context.Background(), entry))
	return entry
}

// =============================================================================
// Dead letters
// =============================================================================

func TestOutboxService_ListDeadLetters(t *testing.T) {
	ctx := context.Background()
	f := newOutboxFixture(t)
	for range 3 {
		f.add(t, shared.OutboxStatusDead)
	}
	f.add(t, shared.OutboxStatusPending)

	t.Run("only dead entries", func(t *testing.T) {
		page, err := f.service.ListDeadLetters(ctx, DeadLetterFilter{})
		require.NoError(t, err)
		assert.Equal(t, int64(3), page.Total)
		assert.Equal(t, 20, page.PageSize)
		for _, entry := range page.Items {
			assert.Equal(t, "DEAD", entry.Status)
			assert.Equal(t, "handler exploded", entry.LastError)
		}
	})

	t.Run("paginates", func(t *testing.T) {
		page, err := f.service.ListDeadLetters(ctx, DeadLetterFilter{Page: 2, PageSize: 2})
		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.Equal(t, 2, page.TotalPages)
	})
}

func TestOutboxService_RetryDeadEntry(t *testing.T) {
	ctx := context.Background()

	t.Run("requeues a dead entry", func(t *testing.T) {
		f := newOutboxFixture(t)
		dead := f.add(t, shared.OutboxStatusDead)

		resp, err := f.service.RetryDeadEntry(ctx, dead.ID)
		require.NoError(t, err)
		assert.Equal(t, "PENDING", resp.Status)
		assert.Zero(t, resp.RetryCount)
		assert.Empty(t, resp.LastError)

		stored, err := f.store.FindByID(ctx, dead.ID)
		require.NoError(t, err)
		assert.Equal(t, shared.OutboxStatusPending, stored.Status)
	})

	t.Run("live entries are refused", func(t *testing.T) {
		f := newOutboxFixture(t)
		pending := f.add(t, shared.OutboxStatusPending)

		_, err := f.service.RetryDeadEntry(ctx, pending.ID)
		assert.ErrorIs(t, err, ErrEntryNotRetryable)
	})

	t.Run("unknown entry", func(t *testing.T) {
		f := newOutboxFixture(t)
		_, err := f.service.RetryDeadEntry(ctx, uuid.New())
		assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
	})
}

func TestOutboxService_RetryAllDeadEntries(t *testing.T) {
	ctx := context.Background()
	f := newOutboxFixture(t)
	for range 3 {
		f.add(t, shared.OutboxStatusDead)
	}
	sent := f.add(t, shared.OutboxStatusSent)

	count, err := f.service.RetryAllDeadEntries(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)

	stats, err := f.service.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Pending)
	assert.Zero(t, stats.Dead)
	assert.Equal(t, int64(1), stats.Sent)
	assert.Equal(t, int64(4), stats.Total)

	stored, err := f.store.FindByID(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, shared.OutboxStatusSent, stored.Status)
}

func TestOutboxService_Stats(t *testing.T) {
	f := newOutboxFixture(t)
	for _, status := range []shared.OutboxStatus{
		shared.OutboxStatusPending,
		shared.OutboxStatusPending,
		shared.OutboxStatusProcessing,
		shared.OutboxStatusSent,
		shared.OutboxStatusFailed,
		shared.OutboxStatusDead,
	} {
		f.add(t, status)
	}

	stats, err := f.service.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, &OutboxStatsResponse{Pending: 2, Processing: 1, Sent: 1, Failed: 1, Dead: 1, Total: 6}, stats)
}
