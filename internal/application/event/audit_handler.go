package event

import (
	"context"

	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// AuditLogHandler writes one structured log line per domain event.
// It subscribes to every event type.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an audit log handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes implements shared.EventHandler
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}
	h.logger.Info("domain event", append(fields, detailFields(event)...)...)
	return nil
}

func detailFields(event shared.DomainEvent) []zap.Field {
	switch e := event.(type) {
	case *ordering.OrderCreatedEvent:
		return []zap.Field{zap.String("number", e.Number)}
	case *ordering.OrderStateChangedEvent:
		return []zap.Field{
			zap.String("number", e.Number),
			zap.String("from", string(e.FromState)),
			zap.String("to", string(e.ToState)),
		}
	case *ordering.OrderAllocatedEvent:
		return []zap.Field{
			zap.String("number", e.Number),
			zap.Int("shipments", len(e.Shipments)),
			zap.Bool("full_fulfillment", e.FullFulfillment),
		}
	case *ordering.OrderCompletedEvent:
		return []zap.Field{zap.String("number", e.Number), zap.Int64("total_cents", e.TotalCents)}
	case *ordering.OrderCanceledEvent:
		return []zap.Field{
			zap.String("number", e.Number),
			zap.String("from", string(e.FromState)),
			zap.String("reason", e.Reason),
		}
	case *ordering.InventoryUnitStateChangedEvent:
		return []zap.Field{
			zap.String("order_id", e.OrderID.String()),
			zap.String("from", string(e.FromState)),
			zap.String("to", string(e.ToState)),
		}
	case *ordering.ShipmentStateChangedEvent:
		return []zap.Field{
			zap.String("number", e.Number),
			zap.String("from", string(e.FromState)),
			zap.String("to", string(e.ToState)),
			zap.String("tracking_number", e.TrackingNumber),
		}
	case *stock.StockMovementRecordedEvent:
		return []zap.Field{
			zap.String("movement_type", string(e.MovementType)),
			zap.Int("delta", e.QuantityDelta),
			zap.Int("balance_after", e.BalanceAfter),
			zap.String("reference", e.Reference),
		}
	}
	return nil
}
