package stock

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// StockItemService handles stock item counters and the movement ledger
type StockItemService struct {
	items     stock.StockItemRepository
	movements stock.StockMovementRepository
	txScope   common.TransactionScope
	logger    *zap.Logger
}

// NewStockItemService creates a new StockItemService
func NewStockItemService(
	items stock.StockItemRepository,
	movements stock.StockMovementRepository,
	txScope common.TransactionScope,
	logger *zap.Logger,
) *StockItemService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockItemService{
		items:     items,
		movements: movements,
		txScope:   txScope,
		logger:    logger,
	}
}

// GetByID retrieves a stock item
func (s *StockItemService) GetByID(ctx context.Context, id uuid.UUID) (*StockItemResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// ListByVariant returns the stock of a variant at every location
func (s *StockItemService) ListByVariant(ctx context.Context, variantID uuid.UUID) ([]StockItemResponse, error) {
	items, err := s.items.FindByVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	out := make([]StockItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToStockItemResponse(item))
	}
	return out, nil
}

// ListByLocation returns the stock items held at a location
func (s *StockItemService) ListByLocation(ctx context.Context, locationID uuid.UUID, filter shared.Filter) (*shared.Paginated[StockItemResponse], error) {
	items, total, err := s.items.FindByLocation(ctx, locationID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]StockItemResponse, 0, len(items))
	for _, item := range items {
		out = append(out, ToStockItemResponse(item))
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ListMovements returns the ledger of a stock item, newest first
func (s *StockItemService) ListMovements(ctx context.Context, stockItemID uuid.UUID, filter shared.Filter) (*shared.Paginated[MovementResponse], error) {
	movements, total, err := s.movements.FindByStockItem(ctx, stockItemID, filter)
	if err != nil {
		return nil, err
	}
	out := make([]MovementResponse, 0, len(movements))
	for _, m := range movements {
		out = append(out, ToMovementResponse(m))
	}
	page := shared.NewPaginated(out, total, filter.Page, filter.PageSize)
	return &page, nil
}

// Receive books incoming stock, creating the stock item on its first receipt
func (s *StockItemService) Receive(ctx context.Context, req ReceiveStockRequest) (*StockItemResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}

	var item *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		item, err = findOrCreate(ctx, repos, req.VariantID, req.LocationID, req.SKU, req.UnitCost)
		if err != nil {
			return err
		}
		if _, err := item.Receive(req.Quantity, req.UnitCost, req.Reference); err != nil {
			return err
		}
		return common.SaveStockItem(ctx, repos, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock received",
		zap.String("stock_item_id", item.ID.String()),
		zap.String("variant_id", item.VariantID.String()),
		zap.String("location_id", item.LocationID.String()),
		zap.Int("quantity", req.Quantity),
		zap.Int("on_hand", item.QuantityOnHand),
	)
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// Adjust records a manual change of the on-hand quantity
func (s *StockItemService) Adjust(ctx context.Context, id uuid.UUID, req AdjustStockRequest) (*StockItemResponse, error) {
	movementType := stock.MovementType(req.Type)
	if movementType.IsTransfer() || movementType == stock.MovementTypeSale {
		return nil, stock.ErrInvalidMovement.WithMessage("%s movements are recorded by their own operations", movementType)
	}

	var item *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		item, err = repos.StockItems().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if _, err := item.Adjust(req.Delta, movementType, req.UnitCost, req.Reason, req.Reference); err != nil {
			return err
		}
		return common.SaveStockItem(ctx, repos, item)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock adjusted",
		zap.String("stock_item_id", id.String()),
		zap.String("type", movementType.String()),
		zap.Int("delta", req.Delta),
		zap.Int("on_hand", item.QuantityOnHand),
	)
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// SetBackorderPolicy configures whether and how far a stock item can be backordered
func (s *StockItemService) SetBackorderPolicy(ctx context.Context, id uuid.UUID, req BackorderPolicyRequest) (*StockItemResponse, error) {
	var item *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		item, err = repos.StockItems().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := item.SetBackorderPolicy(req.Backorderable, req.Limit); err != nil {
			return err
		}
		return common.SaveStockItem(ctx, repos, item)
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockItemResponse(item)
	return &resp, nil
}

// Transfer moves on-hand stock of a variant between two locations. The
// source records a TransferOut and the destination a TransferIn, both in
// one transaction.
func (s *StockItemService) Transfer(ctx context.Context, req TransferStockRequest) (*TransferResponse, error) {
	if req.Quantity <= 0 {
		return nil, shared.ErrInvalidQuantity
	}
	if req.FromLocationID == req.ToLocationID {
		return nil, shared.ErrInvalidInput.WithMessage("Source and destination locations must differ")
	}

	var from, to *stock.StockItem
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		from, err = repos.StockItems().FindByVariantAndLocation(ctx, req.VariantID, req.FromLocationID)
		if err != nil {
			return err
		}
		to, err = findOrCreate(ctx, repos, req.VariantID, req.ToLocationID, from.SKU, from.LastUnitCost)
		if err != nil {
			return err
		}

		reference := req.Reference
		if _, err := from.Adjust(-req.Quantity, stock.MovementTypeTransferOut, from.LastUnitCost, "transfer out", reference); err != nil {
			return err
		}
		if _, err := to.Adjust(req.Quantity, stock.MovementTypeTransferIn, from.LastUnitCost, "transfer in", reference); err != nil {
			return err
		}

		// lock order follows id order across concurrent transfers
		first, second := from, to
		if second.ID.String() < first.ID.String() {
			first, second = second, first
		}
		if err := common.SaveStockItem(ctx, repos, first); err != nil {
			return err
		}
		return common.SaveStockItem(ctx, repos, second)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock transferred",
		zap.String("variant_id", req.VariantID.String()),
		zap.String("from_location_id", req.FromLocationID.String()),
		zap.String("to_location_id", req.ToLocationID.String()),
		zap.Int("quantity", req.Quantity),
	)
	return &TransferResponse{From: ToStockItemResponse(from), To: ToStockItemResponse(to)}, nil
}

// Summary reports the sellable position of a variant across every location it
// can ship from. Items and locations are read in one unit of work so the
// counters come from a single snapshot.
func (s *StockItemService) Summary(ctx context.Context, variantID uuid.UUID) (*StockSummaryResponse, error) {
	var summary stock.StockSummary
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		items, err := repos.StockItems().FindByVariant(ctx, variantID)
		if err != nil {
			return err
		}
		locations := make(map[uuid.UUID]*stock.StockLocation, len(items))
		for _, item := range items {
			if _, seen := locations[item.LocationID]; seen {
				continue
			}
			loc, err := repos.StockLocations().FindByID(ctx, item.LocationID)
			if err != nil {
				return err
			}
			locations[loc.ID] = loc
		}
		summary = stock.Summarize(variantID, items, locations)
		return nil
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockSummaryResponse(summary)
	return &resp, nil
}

// Reconcile compares the on-hand counter of a stock item with the sum of its ledger
func (s *StockItemService) Reconcile(ctx context.Context, id uuid.UUID) (*ReconcileResponse, error) {
	item, err := s.items.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	sum, err := s.movements.SumDeltas(ctx, id)
	if err != nil {
		return nil, err
	}

	resp := &ReconcileResponse{
		StockItemID:    id,
		QuantityOnHand: item.QuantityOnHand,
		LedgerBalance:  sum,
		Consistent:     int64(item.QuantityOnHand) == sum,
	}
	if !resp.Consistent {
		s.logger.Warn("stock ledger out of balance",
			zap.String("stock_item_id", id.String()),
			zap.Int("on_hand", item.QuantityOnHand),
			zap.Int64("ledger_balance", sum),
		)
	}
	return resp, nil
}

// findOrCreate loads the stock item of a variant at a live location, or starts an empty one
func findOrCreate(
	ctx context.Context,
	repos common.TransactionalRepositories,
	variantID, locationID uuid.UUID,
	sku string,
	unitCost decimal.Decimal,
) (*stock.StockItem, error) {
	loc, err := repos.StockLocations().FindByID(ctx, locationID)
	if err != nil {
		return nil, err
	}
	if loc.IsDeleted() {
		return nil, stock.ErrLocationDeleted
	}

	item, err := repos.StockItems().FindByVariantAndLocation(ctx, variantID, locationID)
	if err == nil {
		return item, nil
	}
	if !errors.Is(err, stock.ErrStockItemNotFound) {
		return nil, err
	}
	if unitCost.IsNegative() {
		return nil, stock.ErrInvalidUnitCost
	}
	return stock.NewStockItem(variantID, locationID, sku, 0, unitCost)
}
