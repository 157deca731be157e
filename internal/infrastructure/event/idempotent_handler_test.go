package event

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/resys/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mapStore struct {
	mu   sync.Mutex
	keys map[string]bool
	err  error
}

func newMapStore() *mapStore { return &mapStore{keys: map[string]bool{}} }

func (s *mapStore) MarkProcessed(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return false, s.err
	}
	if s.keys[key] {
		return false, nil
	}
	s.keys[key] = true
	return true, nil
}

func (s *mapStore) IsProcessed(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.keys[key], s.err
}

func (s *mapStore) Close() error { return nil }

func TestIdempotentHandler(t *testing.T) {
	ctx := context.Background()

	t.Run("redelivery is skipped", func(t *testing.T) {
		inner := newTestHandler("A")
		h := NewIdempotentHandler("audit", inner, newMapStore(), nil)
		e := newTestEvent("A")

		require.NoError(t, h.Handle(ctx, e))
		require.NoError(t, h.Handle(ctx, e))
		assert.Equal(t, 1, inner.count())
		assert.Equal(t, IdempotencyStats{Processed: 1, Duplicate: 1}, h.Stats())
		assert.Equal(t, []string{"A"}, h.EventTypes())
	})

	t.Run("handlers sharing a store are independent", func(t *testing.T) {
		store := newMapStore()
		first, second := newTestHandler("A"), newTestHandler("A")
		a := NewIdempotentHandler("audit", first, store, nil)
		b := NewIdempotentHandler("metrics", second, store, nil)
		e := newTestEvent("A")

		require.NoError(t, a.Handle(ctx, e))
		require.NoError(t, b.Handle(ctx, e))
		assert.Equal(t, 1, first.count())
		assert.Equal(t, 1, second.count())
	})

	t.Run("store errors do not drop the event", func(t *testing.T) {
		store := newMapStore()
		store.err = errors.New("redis down")
		inner := newTestHandler("A")
		h := NewIdempotentHandler("audit", inner, store, nil)

		require.NoError(t, h.Handle(ctx, newTestEvent("A")))
		assert.Equal(t, 1, inner.count())
	})

	t.Run("handler errors are returned and counted", func(t *testing.T) {
		inner := newTestHandler("A")
		inner.setError(errors.New("boom"))
		h := NewIdempotentHandler("audit", inner, newMapStore(), nil)

		assert.Error(t, h.Handle(ctx, newTestEvent("A")))
		assert.Equal(t, int64(1), h.Stats().Failed)
	})

	t.Run("disabled checking passes straight through", func(t *testing.T) {
		inner := newTestHandler("A")
		h := NewIdempotentHandler("audit", inner, newMapStore(), nil,
			WithIdempotencyConfig(shared.IdempotencyConfig{Enabled: false}))
		e := newTestEvent("A")

		require.NoError(t, h.Handle(ctx, e))
		require.NoError(t, h.Handle(ctx, e))
		assert.Equal(t, 2, inner.count())
		assert.Same(t, inner, h.Unwrap())
	})
}
