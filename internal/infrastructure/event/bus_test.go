package event

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryEventBus_Publish(t *testing.T) {
	ctx := context.Background()

	t.Run("delivers to subscribed handlers only", func(t *testing.T) {
		bus := NewInMemoryEventBus(zap.NewNop())
		created := newTestHandler("OrderCreated")
		canceled := newTestHandler("OrderCanceled")
		bus.Subscribe(created)
		bus.Subscribe(canceled)

		require.NoError(t, bus.Publish(ctx, newTestEvent("OrderCreated"), newTestEvent("OrderCreated")))
		assert.Equal(t, 2, created.count())
		assert.Zero(t, canceled.count())
	})

	t.Run("wildcard handler sees everything", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		all := newTestHandler()
		bus.Subscribe(all)

		require.NoError(t, bus.Publish(ctx, newTestEvent("A"), newTestEvent("B")))
		assert.Equal(t, 2, all.count())
	})

	t.Run("explicit types override the handler's own", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		h := newTestHandler("A")
		bus.Subscribe(h, "B")

		require.NoError(t, bus.Publish(ctx, newTestEvent("A"), newTestEvent("B")))
		assert.Equal(t, 1, h.count())
	})

	t.Run("a failing handler does not stop the others", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		failing := newTestHandler("A")
		failing.setError(errors.New("boom"))
		ok := newTestHandler("A")
		bus.Subscribe(failing)
		bus.Subscribe(ok)

		assert.NoError(t, bus.Publish(ctx, newTestEvent("A")))
		assert.Equal(t, 1, ok.count())

		delivered, failed := bus.Stats()
		assert.Equal(t, int64(1), delivered)
		assert.Equal(t, int64(1), failed)
	})

	t.Run("a panicking handler is contained", func(t *testing.T) {
		bus := NewInMemoryEventBus(nil)
		bad := newTestHandler("A")
		bad.panicWith = "kaboom"
		good := newTestHandler("A")
		bus.Subscribe(bad)
		bus.Subscribe(good)

		assert.NotPanics(t, func() { _ = bus.Publish(ctx, newTestEvent("A")) })
		assert.Equal(t, 1, good.count())
	})
}

func TestInMemoryEventBus_Lifecycle(t *testing.T) {
	ctx := context.Background()
	bus := NewInMemoryEventBus(nil)

	assert.False(t, bus.IsRunning())
	require.NoError(t, bus.Start(ctx))
	assert.True(t, bus.IsRunning())
	require.NoError(t, bus.Stop(ctx))
	assert.False(t, bus.IsRunning())
}

func TestInMemoryEventBus_Unsubscribe(t *testing.T) {
	bus := NewInMemoryEventBus(nil)
	h := newTestHandler("A")
	bus.Subscribe(h)
	bus.Unsubscribe(h)

	require.NoError(t, bus.Publish(context.Background(), newTestEvent("A")))
	assert.Zero(t, h.count())
}
