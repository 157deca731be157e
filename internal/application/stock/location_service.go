package stock

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/stock"
	"go.uber.org/zap"
)

// LocationService manages the stock location registry
type LocationService struct {
	locations stock.StockLocationRepository
	txScope   common.TransactionScope
	logger    *zap.Logger
}

// NewLocationService creates a new LocationService
func NewLocationService(locations stock.StockLocationRepository, txScope common.TransactionScope, logger *zap.Logger) *LocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LocationService{
		locations: locations,
		txScope:   txScope,
		logger:    logger,
	}
}

// Create registers a new stock location
func (s *LocationService) Create(ctx context.Context, req CreateLocationRequest) (*LocationResponse, error) {
	loc, err := stock.NewStockLocation(req.Name, req.Code, stock.LocationType(req.Type))
	if err != nil {
		return nil, err
	}
	if req.Address != nil {
		addr, err := req.Address.ToAddress()
		if err != nil {
			return nil, err
		}
		loc.SetAddress(addr)
	}
	for _, storeID := range req.StoreIDs {
		if storeID == uuid.Nil {
			return nil, shared.ErrInvalidInput.WithMessage("Store ID cannot be empty")
		}
		loc.LinkStore(storeID)
	}

	err = s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		exists, err := repos.StockLocations().ExistsByCode(ctx, loc.Code)
		if err != nil {
			return err
		}
		if exists {
			return stock.ErrDuplicateCode.WithMessage("Stock location code %s is already in use", loc.Code)
		}
		if req.IsDefault {
			return s.switchDefault(ctx, repos, loc)
		}
		return common.SaveLocation(ctx, repos, loc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock location created",
		zap.String("location_id", loc.ID.String()),
		zap.String("code", loc.Code),
		zap.String("type", loc.Type.String()),
		zap.Bool("default", loc.IsDefault),
	)
	resp := ToLocationResponse(loc)
	return &resp, nil
}

// GetByID retrieves a stock location
func (s *LocationService) GetByID(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	loc, err := s.locations.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	resp := ToLocationResponse(loc)
	return &resp, nil
}

// List returns live stock locations
func (s *LocationService) List(ctx context.Context, filter LocationListFilter) (*shared.Paginated[LocationResponse], error) {
	f := shared.DefaultFilter()
	f.OrderBy = "code"
	f.OrderDir = "asc"
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

	locations, total, err := s.locations.FindAll(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]LocationResponse, 0, len(locations))
	for _, loc := range locations {
		items = append(items, ToLocationResponse(loc))
	}
	page := shared.NewPaginated(items, total, f.Page, f.PageSize)
	return &page, nil
}

// Activate makes a location available for allocation again
func (s *LocationService) Activate(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	return s.mutate(ctx, id, "activated", func(loc *stock.StockLocation) error {
		return loc.Activate()
	})
}

// Deactivate removes a location from allocation
func (s *LocationService) Deactivate(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	return s.mutate(ctx, id, "deactivated", func(loc *stock.StockLocation) error {
		return loc.Deactivate()
	})
}

// LinkStore makes a location eligible for a store's orders
func (s *LocationService) LinkStore(ctx context.Context, id, storeID uuid.UUID) (*LocationResponse, error) {
	if storeID == uuid.Nil {
		return nil, shared.ErrInvalidInput.WithMessage("Store ID cannot be empty")
	}
	return s.mutate(ctx, id, "store linked", func(loc *stock.StockLocation) error {
		if loc.IsDeleted() {
			return stock.ErrLocationDeleted
		}
		loc.LinkStore(storeID)
		return nil
	})
}

// UnlinkStore removes a store link
func (s *LocationService) UnlinkStore(ctx context.Context, id, storeID uuid.UUID) (*LocationResponse, error) {
	return s.mutate(ctx, id, "store unlinked", func(loc *stock.StockLocation) error {
		loc.UnlinkStore(storeID)
		return nil
	})
}

// Delete tombstones a location
func (s *LocationService) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := s.mutate(ctx, id, "deleted", func(loc *stock.StockLocation) error {
		return loc.Delete(time.Now())
	})
	return err
}

// Restore clears the tombstone of a deleted location
func (s *LocationService) Restore(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	return s.mutate(ctx, id, "restored", func(loc *stock.StockLocation) error {
		loc.Restore()
		return nil
	})
}

// MarkDefault makes a location the preferred allocation source. The previous
// default loses the flag in the same transaction.
func (s *LocationService) MarkDefault(ctx context.Context, id uuid.UUID) (*LocationResponse, error) {
	var loc *stock.StockLocation
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		loc, err = repos.StockLocations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		return s.switchDefault(ctx, repos, loc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("default stock location changed", zap.String("location_id", id.String()), zap.String("code", loc.Code))
	resp := ToLocationResponse(loc)
	return &resp, nil
}

func (s *LocationService) switchDefault(ctx context.Context, repos common.TransactionalRepositories, loc *stock.StockLocation) error {
	if loc.IsDefault {
		return nil
	}
	// validate before the current default is touched
	if !loc.Active || loc.IsDeleted() {
		return stock.ErrInactiveDefault
	}

	current, err := repos.StockLocations().FindDefault(ctx)
	switch {
	case errors.Is(err, stock.ErrLocationNotFound):
	case err != nil:
		return err
	case current.ID != loc.ID:
		current.UnsetDefault()
		if err := common.SaveLocation(ctx, repos, current); err != nil {
			return err
		}
	}

	if err := loc.MarkDefault(); err != nil {
		return err
	}
	return common.SaveLocation(ctx, repos, loc)
}

func (s *LocationService) mutate(ctx context.Context, id uuid.UUID, action string, fn func(loc *stock.StockLocation) error) (*LocationResponse, error) {
	var loc *stock.StockLocation
	err := s.txScope.Execute(ctx, func(repos common.TransactionalRepositories) error {
		var err error
		loc, err = repos.StockLocations().FindByID(ctx, id)
		if err != nil {
			return err
		}
		if err := fn(loc); err != nil {
			return err
		}
		return common.SaveLocation(ctx, repos, loc)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("stock location "+action, zap.String("location_id", id.String()), zap.String("code", loc.Code))
	resp := ToLocationResponse(loc)
	return &resp, nil
}
