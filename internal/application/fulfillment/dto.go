package fulfillment

import (
	"github.com/google/uuid"
	orderapp "github.com/resys/backend/internal/application/ordering"
	"github.com/resys/backend/internal/domain/fulfillment"
)

// PlanItem is one requested variant
type PlanItem struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// PlanRequest asks for a fulfillment proposal
type PlanRequest struct {
	StoreID   uuid.UUID  `json:"store_id" binding:"required"`
	Items     []PlanItem `json:"items" binding:"required,min=1,dive"`
	AddressID *uuid.UUID `json:"address_id"`
	Strategy  string     `json:"strategy" binding:"omitempty,oneof=GREEDY COST_OPTIMIZED NEAREST"`
}

// ToDomain folds repeated variants into one requested quantity
func (r PlanRequest) ToDomain() fulfillment.Request {
	items := make(map[uuid.UUID]int, len(r.Items))
	for _, item := range r.Items {
		items[item.VariantID] += item.Quantity
	}
	return fulfillment.Request{
		StoreID:   r.StoreID,
		Items:     items,
		AddressID: r.AddressID,
		Strategy:  r.Strategy,
	}
}

// AllocateRequest commits inventory to an order
type AllocateRequest struct {
	Strategy string `json:"strategy" binding:"omitempty,oneof=GREEDY COST_OPTIMIZED NEAREST"`
}

// PlanResponse is a fulfillment proposal in API responses
type PlanResponse struct {
	StoreID           uuid.UUID                     `json:"store_id"`
	Strategy          string                        `json:"strategy"`
	IsFullFulfillment bool                          `json:"is_full_fulfillment"`
	TotalUnits        int                           `json:"total_units"`
	Shipments         []fulfillment.PlannedShipment `json:"shipments"`
}

// ToPlanResponse converts a domain Plan to PlanResponse
func ToPlanResponse(p *fulfillment.Plan) PlanResponse {
	return PlanResponse{
		StoreID:           p.StoreID,
		Strategy:          p.Strategy,
		IsFullFulfillment: p.IsFullFulfillment(),
		TotalUnits:        p.TotalUnits(),
		Shipments:         p.Shipments,
	}
}

// AllocationResponse reports what was committed to an order
type AllocationResponse struct {
	OrderID         uuid.UUID                   `json:"order_id"`
	Number          string                      `json:"number"`
	Strategy        string                      `json:"strategy"`
	FullFulfillment bool                        `json:"full_fulfillment"`
	Reserved        int                         `json:"reserved_units"`
	Backordered     int                         `json:"backordered_units"`
	Shipments       []orderapp.ShipmentResponse `json:"shipments"`
}
