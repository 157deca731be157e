package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/shopspring/decimal"
)

// CreateLocationRequest represents a request to register a stock location
type CreateLocationRequest struct {
	Name      string               `json:"name" binding:"required,max=100"`
	Code      string               `json:"code" binding:"required,max=50"`
	Type      string               `json:"type" binding:"required,oneof=WAREHOUSE RETAIL_STORE RETURN_CENTER TRANSIT DAMAGED"`
	Address   *common.AddressInput `json:"address"`
	StoreIDs  []uuid.UUID          `json:"store_ids"`
	IsDefault bool                 `json:"is_default"`
}

// LocationListFilter represents filter options for location lists
type LocationListFilter struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// StoreLinkRequest links or unlinks a store
type StoreLinkRequest struct {
	StoreID uuid.UUID `json:"store_id" binding:"required"`
}

// LocationResponse represents a stock location in API responses
type LocationResponse struct {
	ID        uuid.UUID               `json:"id"`
	Name      string                  `json:"name"`
	Code      string                  `json:"code"`
	Type      string                  `json:"type"`
	Active    bool                    `json:"active"`
	IsDefault bool                    `json:"is_default"`
	Address   *common.AddressResponse `json:"address,omitempty"`
	StoreIDs  []uuid.UUID             `json:"store_ids"`
	DeletedAt *time.Time              `json:"deleted_at,omitempty"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Version   int                     `json:"version"`
}

// ToLocationResponse converts a domain StockLocation to LocationResponse
func ToLocationResponse(loc *stock.StockLocation) LocationResponse {
	storeIDs := loc.StoreIDs
	if storeIDs == nil {
		storeIDs = []uuid.UUID{}
	}
	return LocationResponse{
		ID:        loc.ID,
		Name:      loc.Name,
		Code:      loc.Code,
		Type:      loc.Type.String(),
		Active:    loc.Active,
		IsDefault: loc.IsDefault,
		Address:   common.ToAddressResponse(loc.Address),
		StoreIDs:  storeIDs,
		DeletedAt: loc.DeletedAt,
		CreatedAt: loc.CreatedAt,
		UpdatedAt: loc.UpdatedAt,
		Version:   loc.Version,
	}
}

// ReceiveStockRequest books incoming stock. The stock item is created on first receipt.
type ReceiveStockRequest struct {
	VariantID  uuid.UUID       `json:"variant_id" binding:"required"`
	LocationID uuid.UUID       `json:"location_id" binding:"required"`
	SKU        string          `json:"sku" binding:"max=100"`
	Quantity   int             `json:"quantity" binding:"required,min=1"`
	UnitCost   decimal.Decimal `json:"unit_cost"`
	Reference  string          `json:"reference" binding:"max=100"`
}

// AdjustStockRequest records a manual on-hand change
type AdjustStockRequest struct {
	Delta     int             `json:"delta" binding:"required"`
	Type      string          `json:"type" binding:"required,oneof=ADJUSTMENT LOSS CORRECTION RETURN RECEIPT"`
	UnitCost  decimal.Decimal `json:"unit_cost"`
	Reason    string          `json:"reason" binding:"required,max=255"`
	Reference string          `json:"reference" binding:"max=100"`
}

// BackorderPolicyRequest configures backorders of a stock item
type BackorderPolicyRequest struct {
	Backorderable bool `json:"backorderable"`
	Limit         int  `json:"limit" binding:"min=0"`
}

// TransferStockRequest moves on-hand stock between two locations
type TransferStockRequest struct {
	VariantID      uuid.UUID `json:"variant_id" binding:"required"`
	FromLocationID uuid.UUID `json:"from_location_id" binding:"required"`
	ToLocationID   uuid.UUID `json:"to_location_id" binding:"required,nefield=FromLocationID"`
	Quantity       int       `json:"quantity" binding:"required,min=1"`
	Reference      string    `json:"reference" binding:"max=100"`
}

// StockItemResponse represents a stock item in API responses
type StockItemResponse struct {
	ID                  uuid.UUID       `json:"id"`
	VariantID           uuid.UUID       `json:"variant_id"`
	LocationID          uuid.UUID       `json:"location_id"`
	SKU                 string          `json:"sku"`
	QuantityOnHand      int             `json:"quantity_on_hand"`
	QuantityReserved    int             `json:"quantity_reserved"`
	QuantityAvailable   int             `json:"quantity_available"`
	QuantityBackordered int             `json:"quantity_backordered"`
	Backorderable       bool            `json:"backorderable"`
	BackorderLimit      int             `json:"backorder_limit"`
	LastUnitCost        decimal.Decimal `json:"last_unit_cost"`
	UpdatedAt           time.Time       `json:"updated_at"`
	Version             int             `json:"version"`
}

// ToStockItemResponse converts a domain StockItem to StockItemResponse
func ToStockItemResponse(item *stock.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:                  item.ID,
		VariantID:           item.VariantID,
		LocationID:          item.LocationID,
		SKU:                 item.SKU,
		QuantityOnHand:      item.QuantityOnHand,
		QuantityReserved:    item.QuantityReserved,
		QuantityAvailable:   item.Available(),
		QuantityBackordered: item.QuantityBackordered,
		Backorderable:       item.Backorderable,
		BackorderLimit:      item.BackorderLimit,
		LastUnitCost:        item.LastUnitCost,
		UpdatedAt:           item.UpdatedAt,
		Version:             item.Version,
	}
}

// TransferResponse carries both sides of a transfer
type TransferResponse struct {
	From StockItemResponse `json:"from"`
	To   StockItemResponse `json:"to"`
}

// MovementResponse represents a ledger row in API responses
type MovementResponse struct {
	ID            uuid.UUID       `json:"id"`
	StockItemID   uuid.UUID       `json:"stock_item_id"`
	Type          string          `json:"type"`
	QuantityDelta int             `json:"quantity_delta"`
	BalanceBefore int             `json:"balance_before"`
	BalanceAfter  int             `json:"balance_after"`
	UnitCost      decimal.Decimal `json:"unit_cost"`
	TotalCost     decimal.Decimal `json:"total_cost"`
	Reason        string          `json:"reason,omitempty"`
	Reference     string          `json:"reference,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at"`
}

// ToMovementResponse converts a domain StockMovement to MovementResponse
func ToMovementResponse(m *stock.StockMovement) MovementResponse {
	return MovementResponse{
		ID:            m.ID,
		StockItemID:   m.StockItemID,
		Type:          m.Type.String(),
		QuantityDelta: m.QuantityDelta,
		BalanceBefore: m.BalanceBefore,
		BalanceAfter:  m.BalanceAfter,
		UnitCost:      m.UnitCost,
		TotalCost:     m.TotalCost(),
		Reason:        m.Reason,
		Reference:     m.Reference,
		OccurredAt:    m.OccurredAt,
	}
}

// ReconcileResponse compares a stock item's on-hand quantity with its ledger
type ReconcileResponse struct {
	StockItemID    uuid.UUID `json:"stock_item_id"`
	QuantityOnHand int       `json:"quantity_on_hand"`
	LedgerBalance  int64     `json:"ledger_balance"`
	Consistent     bool      `json:"consistent"`
}

// StockSummaryResponse is the sellable position of a variant across ship-from locations
type StockSummaryResponse struct {
	VariantID      uuid.UUID `json:"variant_id"`
	TotalOnHand    int       `json:"total_on_hand"`
	TotalReserved  int       `json:"total_reserved"`
	TotalAvailable int       `json:"total_available"`
	Backorderable  bool      `json:"backorderable"`
	IsBuyable      bool      `json:"is_buyable"`
	LocationCount  int       `json:"location_count"`
}

// ToStockSummaryResponse converts a domain StockSummary to StockSummaryResponse
func ToStockSummaryResponse(s stock.StockSummary) StockSummaryResponse {
	return StockSummaryResponse{
		VariantID:      s.VariantID,
		TotalOnHand:    s.TotalOnHand,
		TotalReserved:  s.TotalReserved,
		TotalAvailable: s.TotalAvailable,
		Backorderable:  s.Backorderable,
		IsBuyable:      s.IsBuyable(),
		LocationCount:  s.LocationCount,
	}
}

// TransferItemRequest is one variant line of a stock transfer
type TransferItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// CreateStockTransferRequest opens a draft transfer, optionally with its first lines
type CreateStockTransferRequest struct {
	SourceLocationID      uuid.UUID             `json:"source_location_id" binding:"required"`
	DestinationLocationID uuid.UUID             `json:"destination_location_id" binding:"required,nefield=SourceLocationID"`
	Reason                string                `json:"reason" binding:"max=255"`
	Items                 []TransferItemRequest `json:"items" binding:"omitempty,dive"`
}

// TransferListFilter represents filter options for transfer lists
type TransferListFilter struct {
	Status   string `form:"status" binding:"omitempty,oneof=DRAFT IN_TRANSIT COMPLETED CANCELED"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// TransferItemResponse is one line of a transfer in API responses
type TransferItemResponse struct {
	VariantID uuid.UUID `json:"variant_id"`
	SKU       string    `json:"sku"`
	Quantity  int       `json:"quantity"`
}

// StockTransferResponse represents a stock transfer in API responses
type StockTransferResponse struct {
	ID                    uuid.UUID              `json:"id"`
	ReferenceNumber       string                 `json:"reference_number"`
	SourceLocationID      uuid.UUID              `json:"source_location_id"`
	DestinationLocationID uuid.UUID              `json:"destination_location_id"`
	Status                string                 `json:"status"`
	Reason                string                 `json:"reason,omitempty"`
	Items                 []TransferItemResponse `json:"items"`
	TotalQuantity         int                    `json:"total_quantity"`
	ShippedAt             *time.Time             `json:"shipped_at,omitempty"`
	ReceivedAt            *time.Time             `json:"received_at,omitempty"`
	CanceledAt            *time.Time             `json:"canceled_at,omitempty"`
	CreatedAt             time.Time              `json:"created_at"`
	UpdatedAt             time.Time              `json:"updated_at"`
	Version               int                    `json:"version"`
}

// ToStockTransferResponse converts a domain StockTransfer to StockTransferResponse
func ToStockTransferResponse(t *stock.StockTransfer) StockTransferResponse {
	items := make([]TransferItemResponse, 0, len(t.Items))
	for _, item := range t.Items {
		items = append(items, TransferItemResponse{VariantID: item.VariantID, SKU: item.SKU, Quantity: item.Quantity})
	}
	return StockTransferResponse{
		ID:                    t.ID,
		ReferenceNumber:       t.ReferenceNumber,
		SourceLocationID:      t.SourceLocationID,
		DestinationLocationID: t.DestinationLocationID,
		Status:                t.Status.String(),
		Reason:                t.Reason,
		Items:                 items,
		TotalQuantity:         t.TotalQuantity(),
		ShippedAt:             t.ShippedAt,
		ReceivedAt:            t.ReceivedAt,
		CanceledAt:            t.CanceledAt,
		CreatedAt:             t.CreatedAt,
		UpdatedAt:             t.UpdatedAt,
		Version:               t.Version,
	}
}
