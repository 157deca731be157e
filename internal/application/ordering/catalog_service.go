package ordering

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"go.uber.org/zap"
)

// PutVariantRequest sets the SKU and price of a variant
type PutVariantRequest struct {
	SKU        string `json:"sku" binding:"required,max=100"`
	PriceCents int64  `json:"price_cents" binding:"min=0"`
}

// VariantResponse represents a priced variant in API responses
type VariantResponse struct {
	ID         uuid.UUID `json:"id"`
	SKU        string    `json:"sku"`
	PriceCents int64     `json:"price_cents"`
}

// CatalogService maintains the variant prices that carts read from
type CatalogService struct {
	catalog ordering.VariantCatalog
	logger  *zap.Logger
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(catalog ordering.VariantCatalog, logger *zap.Logger) *CatalogService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CatalogService{catalog: catalog, logger: logger}
}

// GetVariant returns the current price of a variant
func (s *CatalogService) GetVariant(ctx context.Context, id uuid.UUID) (*VariantResponse, error) {
	v, err := s.catalog.Variant(ctx, id)
	if err != nil {
		return nil, err
	}
	return &VariantResponse{ID: v.ID, SKU: v.SKU, PriceCents: v.PriceCents}, nil
}

// PutVariant creates or reprices a variant. Line items already in carts keep
// the price they were added at.
func (s *CatalogService) PutVariant(ctx context.Context, id uuid.UUID, req PutVariantRequest) (*VariantResponse, error) {
	if id == uuid.Nil {
		return nil, ordering.ErrInvalidVariant
	}
	if req.PriceCents < 0 {
		return nil, ordering.ErrInvalidPrice
	}
	v := ordering.Variant{ID: id, SKU: strings.TrimSpace(req.SKU), PriceCents: req.PriceCents}
	if err := s.catalog.SetVariant(ctx, v); err != nil {
		return nil, err
	}
	s.logger.Info("variant priced",
		zap.String("variant_id", id.String()),
		zap.String("sku", v.SKU),
		zap.Int64("price_cents", v.PriceCents),
	)
	return &VariantResponse{ID: v.ID, SKU: v.SKU, PriceCents: v.PriceCents}, nil
}
