package ordering

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// ShipmentService moves shipments through the warehouse pipeline and keeps
// stock items in step with the units they carry
type ShipmentService struct {
	txScope common.TransactionScope
	logger  *zap.Logger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(txScope common.TransactionScope, logger *zap.Logger) *ShipmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ShipmentService{txScope: txScope, logger: logger}
}

// Pick marks a shipment as picked
func (s *ShipmentService) Pick(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	return s.onShipment(ctx, shipmentID, "picked", func(_ context.Context, _ common.TransactionalRepositories, o *ordering.Order) error {
		return o.PickShipment(shipmentID)
	})
}

// Pack marks a picked shipment as packed
func (s *ShipmentService) Pack(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	return s.onShipment(ctx, shipmentID, "packed", func(_ context.Context, _ common.TransactionalRepositories, o *ordering.Order) error {
		return o.PackShipment(shipmentID)
	})
}

// Ship hands a shipment to the carrier. The reservations of its units are
// consumed from their stock items as Sale movements.
func (s *ShipmentService) Ship(ctx context.Context, shipmentID uuid.UUID, req ShipRequest) (*ShipmentResponse, error) {
	return s.onShipment(ctx, shipmentID, "shipped", func(ctx context.Context, repos common.TransactionalRepositories, o *ordering.Order) error {
		shipment, err := o.Shipment(shipmentID)
		if err != nil {
			return err
		}
		commitments := o.ShipmentCommitments(shipmentID)
		if err := o.ShipShipment(shipmentID, req.TrackingNumber); err != nil {
			return err
		}

		items := common.NewStockItemSet(repos)
		if err := items.FulfillCommitments(ctx, commitments, shipment.Number); err != nil {
			return err
		}
		return items.Save(ctx)
	})
}

// Deliver records carrier delivery
func (s *ShipmentService) Deliver(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	return s.onShipment(ctx, shipmentID, "delivered", func(_ context.Context, _ common.TransactionalRepositories, o *ordering.Order) error {
		return o.DeliverShipment(shipmentID)
	})
}

// Cancel cancels an unshipped shipment and gives back what its units held
func (s *ShipmentService) Cancel(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	return s.onShipment(ctx, shipmentID, "canceled", func(ctx context.Context, repos common.TransactionalRepositories, o *ordering.Order) error {
		commitments := o.ShipmentCommitments(shipmentID)
		if err := o.CancelShipment(shipmentID); err != nil {
			return err
		}

		items := common.NewStockItemSet(repos)
		if err := items.ReleaseCommitments(ctx, commitments); err != nil {
			return err
		}
		return items.Save(ctx)
	})
}

// ReserveBackorderedUnit moves a backordered unit on hand once its stock item
// can cover it. The backorder promise turns into a reservation.
func (s *ShipmentService) ReserveBackorderedUnit(ctx context.Context, orderID, unitID uuid.UUID) (*UnitResponse, error) {
	return s.onUnit(ctx, orderID, unitID, "reserved", func(ctx context.Context, items *common.StockItemSet, o *ordering.Order, u *ordering.InventoryUnit) error {
		if u.State != ordering.UnitStateBackordered {
			return ordering.ErrInvalidUnitTransition.WithMessage("Unit %s is %s, not backordered", u.ID, u.State)
		}
		item, err := unitStockItem(ctx, items, u)
		if err != nil {
			return err
		}
		if err := item.Reserve(1); err != nil {
			return err
		}
		if err := item.ReleaseBackorder(1); err != nil {
			return err
		}
		return o.ReserveBackorderedUnit(unitID)
	})
}

// ReturnUnit books a shipped unit back into the stock item it left from
func (s *ShipmentService) ReturnUnit(ctx context.Context, orderID, unitID uuid.UUID) (*UnitResponse, error) {
	return s.onUnit(ctx, orderID, unitID, "returned", func(ctx context.Context, items *common.StockItemSet, o *ordering.Order, u *ordering.InventoryUnit) error {
		if err := o.ReturnUnit(unitID); err != nil {
			return err
		}
		item, err := unitStockItem(ctx, items, u)
		if err != nil {
			return err
		}
		_, err = item.Restock(1, o.Number)
		return err
	})
}

// MarkUnitDamaged writes a unit off. A unit that held a reservation releases
// it and the physical item leaves stock as a Loss; a returned unit leaves
// stock as a Loss; a backordered unit withdraws its promise.
func (s *ShipmentService) MarkUnitDamaged(ctx context.Context, orderID, unitID uuid.UUID) (*UnitResponse, error) {
	return s.onUnit(ctx, orderID, unitID, "damaged", func(ctx context.Context, items *common.StockItemSet, o *ordering.Order, u *ordering.InventoryUnit) error {
		from := u.State
		if err := o.MarkUnitDamaged(unitID); err != nil {
			return err
		}
		if u.StockItemID == nil {
			return nil
		}

		switch from {
		case ordering.UnitStateOnHand, ordering.UnitStateReturned:
			item, err := unitStockItem(ctx, items, u)
			if err != nil {
				return err
			}
			if from == ordering.UnitStateOnHand {
				if err := item.Release(1); err != nil {
					return err
				}
			}
			_, err = item.Adjust(-1, stock.MovementTypeLoss, item.LastUnitCost, "damaged", o.Number)
			return err
		case ordering.UnitStateBackordered:
			item, err := unitStockItem(ctx, items, u)
			if err != nil {
				return err
			}
			return item.ReleaseBackorder(1)
		}
		return nil
	})
}

type shipmentAction func(ctx context.Context, repos common.TransactionalRepositories, o *ordering.Order) error

func (s *ShipmentService) onShipment(ctx context.Context, shipmentID uuid.UUID, action string, fn shipmentAction) (*ShipmentResponse, error) {
	var order *ordering.Order
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		order, err = repos.Orders().FindByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}
		if err := fn(ctx, repos, order); err != nil {
			return err
		}
		return common.SaveOrder(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	shipment, err := order.Shipment(shipmentID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("shipment "+action,
		zap.String("shipment_id", shipment.ID.String()),
		zap.String("number", shipment.Number),
		zap.String("order_id", order.ID.String()),
		zap.String("state", shipment.State.String()),
	)
	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

type unitAction func(ctx context.Context, items *common.StockItemSet, o *ordering.Order, u *ordering.InventoryUnit) error

func (s *ShipmentService) onUnit(ctx context.Context, orderID, unitID uuid.UUID, action string, fn unitAction) (*UnitResponse, error) {
	var unit *ordering.InventoryUnit
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		order, err := repos.Orders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		unit, err = order.Unit(unitID)
		if err != nil {
			return err
		}

		items := common.NewStockItemSet(repos)
		if err := fn(ctx, items, order, unit); err != nil {
			return err
		}
		if err := items.Save(ctx); err != nil {
			return err
		}
		return common.SaveOrder(ctx, repos, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("inventory unit "+action,
		zap.String("unit_id", unitID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("state", unit.State.String()),
	)
	resp := ToUnitResponse(unit)
	return &resp, nil
}

func unitStockItem(ctx context.Context, items *common.StockItemSet, u *ordering.InventoryUnit) (*stock.StockItem, error) {
	if u.StockItemID == nil {
		return nil, ordering.ErrInvalidUnitTransition.WithMessage("Unit %s has no stock source", u.ID)
	}
	return items.Get(ctx, *u.StockItemID)
}
