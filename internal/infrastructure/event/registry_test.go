package event

import (
	"testing"

	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
)

func TestHandlerRegistry(t *testing.T) {
	t.Run("typed handlers come before wildcard handlers", func(t *testing.T) {
		r := NewHandlerRegistry()
		typed := newTestHandler("A")
		all := newTestHandler()
		r.Register(all)
		r.Register(typed, "A")

		handlers := r.GetHandlers("A")
		assert.Len(t, handlers, 2)
		assert.Same(t, typed, handlers[0])
		assert.Len(t, r.GetHandlers("B"), 1)
	})

	t.Run("count is distinct handlers", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newTestHandler()
		r.Register(h, "A", "B")
		r.Register(newTestHandler())
		assert.Equal(t, 2, r.Count())
	})

	t.Run("unregister clears every type", func(t *testing.T) {
		r := NewHandlerRegistry()
		h := newTestHandler()
		keep := newTestHandler()
		r.Register(h, "A", "B")
		r.Register(keep, "A")
		r.Unregister(h)

		assert.Len(t, r.GetHandlers("A"), 1)
		assert.Empty(t, r.GetHandlers("B"))
		assert.Equal(t, 1, r.Count())
	})
}

func TestRegisterAllEvents(t *testing.T) {
	s := NewEventSerializer()
	RegisterAllEvents(s)

	for _, eventType := range []string{
		stock.EventTypeStockLocationCreated,
		stock.EventTypeStockMovementRecorded,
		stock.EventTypeStockTransferShipped,
		stock.EventTypeStockTransferCanceled,
		ordering.EventTypeOrderCreated,
		ordering.EventTypeOrderAllocated,
		ordering.EventTypeOrderCanceled,
		ordering.EventTypeInventoryUnitStateChanged,
		ordering.EventTypeShipmentShipped,
		ordering.EventTypeShipmentCanceled,
	} {
		assert.True(t, s.IsRegistered(eventType), eventType)
	}
}
