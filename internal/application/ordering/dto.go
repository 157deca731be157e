package ordering

import (
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/application/common"
	"github.com/resys/backend/internal/domain/ordering"
)

// CreateOrderRequest starts a cart
type CreateOrderRequest struct {
	StoreID  uuid.UUID `json:"store_id" binding:"required"`
	Email    string    `json:"email" binding:"omitempty,email,max=255"`
	Currency string    `json:"currency" binding:"required,len=3"`
}

// AddItemRequest adds a variant to a cart
type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// SetEmailRequest changes the contact email
type SetEmailRequest struct {
	Email string `json:"email" binding:"required,email,max=255"`
}

// AddressesRequest sets both checkout addresses
type AddressesRequest struct {
	ShipAddress common.AddressInput `json:"ship_address" binding:"required"`
	BillAddress common.AddressInput `json:"bill_address" binding:"required"`
}

// ShippingMethodRequest selects a shipping method and its cost
type ShippingMethodRequest struct {
	ShippingMethodID uuid.UUID `json:"shipping_method_id" binding:"required"`
	CostCents        int64     `json:"cost_cents" binding:"min=0"`
}

// AdjustmentInput is one pre-computed adjustment
type AdjustmentInput struct {
	Label       string `json:"label" binding:"required,max=100"`
	AmountCents int64  `json:"amount_cents"`
	Source      string `json:"source" binding:"max=100"`
}

// AdjustmentsRequest replaces the adjustments of an order
type AdjustmentsRequest struct {
	Adjustments []AdjustmentInput `json:"adjustments" binding:"dive"`
}

// RecordPaymentRequest records a payment reported by the payment collaborator
type RecordPaymentRequest struct {
	AmountCents int64  `json:"amount_cents" binding:"required,min=1"`
	State       string `json:"state" binding:"omitempty,oneof=PENDING COMPLETED FAILED VOID"`
	Reference   string `json:"reference" binding:"max=100"`
}

// CancelOrderRequest cancels an order
type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"max=255"`
}

// ShipRequest hands a shipment to the carrier
type ShipRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required,max=100"`
}

// OrderListFilter represents filter options for order lists
type OrderListFilter struct {
	StoreID  *uuid.UUID `form:"store_id"`
	State    string     `form:"state" binding:"omitempty,oneof=CART ADDRESS DELIVERY PAYMENT CONFIRM COMPLETE CANCELED"`
	Page     int        `form:"page" binding:"omitempty,min=1"`
	PageSize int        `form:"page_size" binding:"omitempty,min=1,max=100"`
	OrderBy  string     `form:"order_by"`
	OrderDir string     `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// OrderResponse represents an order in API responses
type OrderResponse struct {
	ID               uuid.UUID               `json:"id"`
	Number           string                  `json:"number"`
	StoreID          uuid.UUID               `json:"store_id"`
	Email            string                  `json:"email,omitempty"`
	Currency         string                  `json:"currency"`
	State            string                  `json:"state"`
	LineItems        []LineItemResponse      `json:"line_items"`
	Units            []UnitResponse          `json:"inventory_units"`
	Shipments        []ShipmentResponse      `json:"shipments"`
	Payments         []PaymentResponse       `json:"payments"`
	Adjustments      []AdjustmentResponse    `json:"adjustments"`
	ShipAddress      *common.AddressResponse `json:"ship_address,omitempty"`
	BillAddress      *common.AddressResponse `json:"bill_address,omitempty"`
	ShippingMethodID *uuid.UUID              `json:"shipping_method_id,omitempty"`
	ItemTotal        int64                   `json:"item_total"`
	ShipmentTotal    int64                   `json:"shipment_total"`
	AdjustmentTotal  int64                   `json:"adjustment_total"`
	Total            int64                   `json:"total"`
	CapturedTotal    int64                   `json:"captured_total"`
	FullyAllocated   bool                    `json:"fully_allocated"`
	CompletedAt      *time.Time              `json:"completed_at,omitempty"`
	CanceledAt       *time.Time              `json:"canceled_at,omitempty"`
	CancelReason     string                  `json:"cancel_reason,omitempty"`
	History          []StateChangeResponse   `json:"history"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
	Version          int                     `json:"version"`
}

// OrderListItemResponse is the summary of an order in lists
type OrderListItemResponse struct {
	ID        uuid.UUID `json:"id"`
	Number    string    `json:"number"`
	StoreID   uuid.UUID `json:"store_id"`
	Email     string    `json:"email,omitempty"`
	State     string    `json:"state"`
	Currency  string    `json:"currency"`
	Total     int64     `json:"total"`
	ItemCount int       `json:"item_count"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LineItemResponse represents a line item in API responses
type LineItemResponse struct {
	ID          uuid.UUID `json:"id"`
	VariantID   uuid.UUID `json:"variant_id"`
	SKU         string    `json:"sku"`
	Quantity    int       `json:"quantity"`
	PriceCents  int64     `json:"price_cents"`
	AmountCents int64     `json:"amount_cents"`
}

// UnitResponse represents an inventory unit in API responses
type UnitResponse struct {
	ID              uuid.UUID  `json:"id"`
	LineItemID      uuid.UUID  `json:"line_item_id"`
	VariantID       uuid.UUID  `json:"variant_id"`
	ShipmentID      *uuid.UUID `json:"shipment_id,omitempty"`
	StockItemID     *uuid.UUID `json:"stock_item_id,omitempty"`
	StockLocationID *uuid.UUID `json:"stock_location_id,omitempty"`
	State           string     `json:"state"`
	Pending         bool       `json:"pending"`
}

// ShipmentResponse represents a shipment in API responses
type ShipmentResponse struct {
	ID              uuid.UUID   `json:"id"`
	Number          string      `json:"number"`
	StockLocationID uuid.UUID   `json:"stock_location_id"`
	State           string      `json:"state"`
	UnitIDs         []uuid.UUID `json:"unit_ids"`
	CostCents       int64       `json:"cost_cents"`
	TrackingNumber  string      `json:"tracking_number,omitempty"`
	ReadyAt         *time.Time  `json:"ready_at,omitempty"`
	PickedAt        *time.Time  `json:"picked_at,omitempty"`
	PackedAt        *time.Time  `json:"packed_at,omitempty"`
	ShippedAt       *time.Time  `json:"shipped_at,omitempty"`
	DeliveredAt     *time.Time  `json:"delivered_at,omitempty"`
	CanceledAt      *time.Time  `json:"canceled_at,omitempty"`
}

// PaymentResponse represents a payment in API responses
type PaymentResponse struct {
	ID          uuid.UUID `json:"id"`
	AmountCents int64     `json:"amount_cents"`
	State       string    `json:"state"`
	Reference   string    `json:"reference,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// AdjustmentResponse represents an adjustment in API responses
type AdjustmentResponse struct {
	Label       string `json:"label"`
	AmountCents int64  `json:"amount_cents"`
	Source      string `json:"source,omitempty"`
}

// StateChangeResponse is one entry of the order history
type StateChangeResponse struct {
	FromState string    `json:"from_state"`
	ToState   string    `json:"to_state"`
	Note      string    `json:"note,omitempty"`
	At        time.Time `json:"at"`
}

// ToOrderResponse converts a domain Order to OrderResponse
func ToOrderResponse(o *ordering.Order) OrderResponse {
	resp := OrderResponse{
		ID:               o.ID,
		Number:           o.Number,
		StoreID:          o.StoreID,
		Email:            o.Email,
		Currency:         o.Currency,
		State:            o.State.String(),
		LineItems:        make([]LineItemResponse, 0, len(o.LineItems)),
		Units:            make([]UnitResponse, 0, len(o.Units)),
		Shipments:        make([]ShipmentResponse, 0, len(o.Shipments)),
		Payments:         make([]PaymentResponse, 0, len(o.Payments)),
		Adjustments:      make([]AdjustmentResponse, 0, len(o.Adjustments)),
		ShipAddress:      common.ToAddressResponse(o.ShipAddress),
		BillAddress:      common.ToAddressResponse(o.BillAddress),
		ShippingMethodID: o.ShippingMethodID,
		ItemTotal:        o.ItemTotal,
		ShipmentTotal:    o.ShipmentTotal,
		AdjustmentTotal:  o.AdjustmentTotal,
		Total:            o.Total,
		CapturedTotal:    o.CapturedTotal(),
		FullyAllocated:   o.IsFullyAllocated(),
		CompletedAt:      o.CompletedAt,
		CanceledAt:       o.CanceledAt,
		CancelReason:     o.CancelReason,
		History:          make([]StateChangeResponse, 0, len(o.History)),
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
		Version:          o.Version,
	}
	for _, li := range o.LineItems {
		resp.LineItems = append(resp.LineItems, LineItemResponse{
			ID:          li.ID,
			VariantID:   li.VariantID,
			SKU:         li.SKU,
			Quantity:    li.Quantity,
			PriceCents:  li.PriceCents,
			AmountCents: li.AmountCents(),
		})
	}
	for _, u := range o.LiveUnits() {
		resp.Units = append(resp.Units, ToUnitResponse(u))
	}
	for _, s := range o.Shipments {
		resp.Shipments = append(resp.Shipments, ToShipmentResponse(s))
	}
	for _, p := range o.Payments {
		resp.Payments = append(resp.Payments, PaymentResponse{
			ID:          p.ID,
			AmountCents: p.AmountCents,
			State:       string(p.State),
			Reference:   p.Reference,
			CreatedAt:   p.CreatedAt,
		})
	}
	for _, a := range o.Adjustments {
		resp.Adjustments = append(resp.Adjustments, AdjustmentResponse(a))
	}
	for _, h := range o.History {
		resp.History = append(resp.History, StateChangeResponse{
			FromState: h.FromState.String(),
			ToState:   h.ToState.String(),
			Note:      h.Note,
			At:        h.At,
		})
	}
	return resp
}

// ToOrderListItemResponse converts a domain Order to its list summary
func ToOrderListItemResponse(o *ordering.Order) OrderListItemResponse {
	count := 0
	for _, li := range o.LineItems {
		count += li.Quantity
	}
	return OrderListItemResponse{
		ID:        o.ID,
		Number:    o.Number,
		StoreID:   o.StoreID,
		Email:     o.Email,
		State:     o.State.String(),
		Currency:  o.Currency,
		Total:     o.Total,
		ItemCount: count,
		CreatedAt: o.CreatedAt,
		UpdatedAt: o.UpdatedAt,
	}
}

// ToUnitResponse converts a domain InventoryUnit to UnitResponse
func ToUnitResponse(u *ordering.InventoryUnit) UnitResponse {
	return UnitResponse{
		ID:              u.ID,
		LineItemID:      u.LineItemID,
		VariantID:       u.VariantID,
		ShipmentID:      u.ShipmentID,
		StockItemID:     u.StockItemID,
		StockLocationID: u.StockLocationID,
		State:           u.State.String(),
		Pending:         u.Pending,
	}
}

// ToShipmentResponse converts a domain Shipment to ShipmentResponse
func ToShipmentResponse(s *ordering.Shipment) ShipmentResponse {
	unitIDs := s.UnitIDs
	if unitIDs == nil {
		unitIDs = []uuid.UUID{}
	}
	return ShipmentResponse{
		ID:              s.ID,
		Number:          s.Number,
		StockLocationID: s.StockLocationID,
		State:           s.State.String(),
		UnitIDs:         unitIDs,
		CostCents:       s.CostCents,
		TrackingNumber:  s.TrackingNumber,
		ReadyAt:         s.ReadyAt,
		PickedAt:        s.PickedAt,
		PackedAt:        s.PackedAt,
		ShippedAt:       s.ShippedAt,
		DeliveredAt:     s.DeliveredAt,
		CanceledAt:      s.CanceledAt,
	}
}
