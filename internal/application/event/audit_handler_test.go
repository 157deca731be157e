package event

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/tests/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func TestAuditLogHandler(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := NewAuditLogHandler(zap.New(core))

	t.Run("subscribes to everything", func(t *testing.T) {
		assert.Empty(t, handler.EventTypes())
	})

	t.Run("order transitions carry their states", func(t *testing.T) {
		logs.TakeAll()
		event := &ordering.OrderStateChangedEvent{
			BaseDomainEvent: shared.NewBaseDomainEvent(ordering.EventTypeOrderStateChanged, ordering.AggregateTypeOrder, uuid.New()),
			Number:          "R20261017123456",
			FromState:       ordering.OrderStateCart,
			ToState:         ordering.OrderStateAddress,
		}

		require.NoError(t, handler.Handle(context.Background(), event))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Equal(t, "audit", entries[0].LoggerName)
		fields := entries[0].ContextMap()
		assert.Equal(t, ordering.EventTypeOrderStateChanged, fields["event_type"])
		assert.Equal(t, event.AggregateID().String(), fields["aggregate_id"])
		assert.Equal(t, "CART", fields["from"])
		assert.Equal(t, "ADDRESS", fields["to"])
	})

	t.Run("unknown events get the envelope only", func(t *testing.T) {
		logs.TakeAll()
		require.NoError(t, handler.Handle(context.Background(), testutil.NewTestEvent("Custom")))

		entries := logs.TakeAll()
		require.Len(t, entries, 1)
		assert.Len(t, entries[0].Context, 5)
	})
}
