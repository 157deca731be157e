package stock

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// TransferService runs stock transfers between locations. Shipping books a
// TransferOut at the source, receiving a TransferIn at the destination, and
// canceling a transfer in transit puts the stock back at the source.
type TransferService struct {
	transfers stock.StockTransferRepository
	txScope   common.TransactionScope
	logger    *zap.Logger
}

// NewTransferService creates a new TransferService
func NewTransferService(transfers stock.StockTransferRepository, txScope common.TransactionScope, logger *zap.Logger) *TransferService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TransferService{
		transfers: transfers,
		txScope:   txScope,
		logger:    logger,
	}
}

// GetByID retrieves a transfer
func (s *TransferService) GetByID(ctx context.Context, id uuid.UUID) (*StockTransferResponse, error) {
	t, err := s.transfers.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToStockTransferResponse(t)
	return &resp, nil
}

// List returns a page of transfers
func (s *TransferService) List(ctx context.Context, filter TransferListFilter) (*shared.Paginated[StockTransferResponse], error) {
	f := shared.DefaultFilter()
	if filter.Page > 0 {
		f.Page = filter.Page
	}
	if filter.PageSize > 0 {
		f.PageSize = filter.PageSize
	}
	if filter.OrderBy != "" {
		f.OrderBy = filter.OrderBy
	}
	if filter.OrderDir != "" {
		f.OrderDir = filter.OrderDir
	}

	transfers, total, err := s.transfers.FindAll(ctx, stock.TransferStatus(filter.Status), f)
	if err != nil {
		return nil, err
	}
	out := make([]StockTransferResponse, 0, len(transfers))
	for _, t := range transfers {
		out = append(out, ToStockTransferResponse(t))
	}
	page := shared.NewPaginated(out, total, f.Page, f.PageSize)
	return &page, nil
}

// Create opens a draft transfer between two live locations
func (s *TransferService) Create(ctx context.Context, req CreateStockTransferRequest) (*StockTransferResponse, error) {
	var t *stock.StockTransfer
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		for _, id := range []uuid.UUID{req.SourceLocationID, req.DestinationLocationID} {
			loc, err := repos.StockLocations().FindByID(ctx, id)
			if err != nil {
				return err
			}
			if loc.IsDeleted() {
				return stock.ErrLocationDeleted.WithMessage("Stock location %s is deleted", loc.Code)
			}
		}

		var err error
		t, err = stock.NewStockTransfer(req.SourceLocationID, req.DestinationLocationID, req.Reason)
		if err != nil {
			return err
		}
		for _, item := range req.Items {
			if err := addItem(ctx, repos, t, item); err != nil {
				return err
			}
		}
		return saveTransfer(ctx, repos, t)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock transfer created",
		zap.String("transfer_id", t.ID.String()),
		zap.String("reference", t.ReferenceNumber),
		zap.Int("lines", len(t.Items)),
	)
	resp := ToStockTransferResponse(t)
	return &resp, nil
}

// AddItem adds a variant line to a draft transfer. The variant must be stocked at the source.
func (s *TransferService) AddItem(ctx context.Context, id uuid.UUID, req TransferItemRequest) (*StockTransferResponse, error) {
	return s.mutate(ctx, id, func(repos common.TransactionalRepositories, t *stock.StockTransfer) error {
		return addItem(ctx, repos, t, req)
	})
}

// RemoveItem drops a variant line from a draft transfer
func (s *TransferService) RemoveItem(ctx context.Context, id, variantID uuid.UUID) (*StockTransferResponse, error) {
	return s.mutate(ctx, id, func(_ common.TransactionalRepositories, t *stock.StockTransfer) error {
		return t.RemoveItem(variantID)
	})
}

// Ship takes every line out of the source location and puts the transfer in transit
func (s *TransferService) Ship(ctx context.Context, id uuid.UUID) (*StockTransferResponse, error) {
	resp, err := s.mutate(ctx, id, func(repos common.TransactionalRepositories, t *stock.StockTransfer) error {
		if err := t.Ship(time.Now()); err != nil {
			return err
		}
		set := common.NewStockItemSet(repos)
		for _, line := range t.Items {
			item, err := repos.StockItems().FindByVariantAndLocation(ctx, line.VariantID, t.SourceLocationID)
			if err != nil {
				return err
			}
			set.Put(item)
			if _, err := item.Adjust(-line.Quantity, stock.MovementTypeTransferOut, item.LastUnitCost, "transfer out", t.ReferenceNumber); err != nil {
				return err
			}
		}
		return set.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock transfer shipped",
		zap.String("transfer_id", id.String()),
		zap.String("reference", resp.ReferenceNumber),
		zap.Int("quantity", resp.TotalQuantity),
	)
	return resp, nil
}

// Receive books every line in at the destination, creating stock items the
// destination has never held, and completes the transfer
func (s *TransferService) Receive(ctx context.Context, id uuid.UUID) (*StockTransferResponse, error) {
	resp, err := s.mutate(ctx, id, func(repos common.TransactionalRepositories, t *stock.StockTransfer) error {
		if err := t.Receive(time.Now()); err != nil {
			return err
		}
		set := common.NewStockItemSet(repos)
		for _, line := range t.Items {
			source, err := repos.StockItems().FindByVariantAndLocation(ctx, line.VariantID, t.SourceLocationID)
			if err != nil {
				return err
			}
			item, err := findOrCreate(ctx, repos, line.VariantID, t.DestinationLocationID, line.SKU, source.LastUnitCost)
			if err != nil {
				return err
			}
			set.Put(item)
			if _, err := item.Adjust(line.Quantity, stock.MovementTypeTransferIn, source.LastUnitCost, "transfer in", t.ReferenceNumber); err != nil {
				return err
			}
		}
		return set.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock transfer received",
		zap.String("transfer_id", id.String()),
		zap.String("reference", resp.ReferenceNumber),
		zap.Int("quantity", resp.TotalQuantity),
	)
	return resp, nil
}

// Cancel stops a transfer that has not completed. Stock of a transfer in
// transit is booked back in at the source.
func (s *TransferService) Cancel(ctx context.Context, id uuid.UUID) (*StockTransferResponse, error) {
	var restocked bool
	resp, err := s.mutate(ctx, id, func(repos common.TransactionalRepositories, t *stock.StockTransfer) error {
		wasInTransit, err := t.Cancel(time.Now())
		if err != nil || !wasInTransit {
			return err
		}
		restocked = true
		set := common.NewStockItemSet(repos)
		for _, line := range t.Items {
			item, err := repos.StockItems().FindByVariantAndLocation(ctx, line.VariantID, t.SourceLocationID)
			if err != nil {
				return err
			}
			set.Put(item)
			if _, err := item.Adjust(line.Quantity, stock.MovementTypeTransferIn, item.LastUnitCost, "transfer canceled", t.ReferenceNumber); err != nil {
				return err
			}
		}
		return set.Save(ctx)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("stock transfer canceled",
		zap.String("transfer_id", id.String()),
		zap.String("reference", resp.ReferenceNumber),
		zap.Bool("restocked", restocked),
	)
	return resp, nil
}

// mutate loads a transfer inside a unit of work, applies fn and saves the transfer
func (s *TransferService) mutate(
	ctx context.Context,
	id uuid.UUID,
	fn func(repos common.TransactionalRepositories, t *stock.StockTransfer) error,
) (*StockTransferResponse, error) {
	var t *stock.StockTransfer
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		t, err = repos.StockTransfers().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(repos, t); err != nil {
			return err
		}
		return saveTransfer(ctx, repos, t)
	})
	if err != nil {
		return nil, err
	}
	resp := ToStockTransferResponse(t)
	return &resp, nil
}

func addItem(ctx context.Context, repos common.TransactionalRepositories, t *stock.StockTransfer, req TransferItemRequest) error {
	item, err := repos.StockItems().FindByVariantAndLocation(ctx, req.VariantID, t.SourceLocationID)
	if err != nil {
		return err
	}
	return t.AddItem(req.VariantID, item.SKU, req.Quantity)
}

func saveTransfer(ctx context.Context, repos common.TransactionalRepositories, t *stock.StockTransfer) error {
	if err := repos.StockTransfers().Save(ctx, t); err != nil {
		return err
	}
	repos.RecordEvents(shared.DrainEvents(t)...)
	return nil
}
