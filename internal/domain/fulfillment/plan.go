package fulfillment

import (
	"github.com/google/uuid"
)

// PlannedItem is a quantity of one variant proposed for one location
type PlannedItem struct {
	VariantID     uuid.UUID `json:"variant_id"`
	Quantity      int       `json:"quantity"`
	IsBackordered bool      `json:"is_backordered"`
}

// PlannedShipment groups the items proposed for one location
type PlannedShipment struct {
	LocationID   uuid.UUID     `json:"location_id"`
	LocationCode string        `json:"location_code"`
	Items        []PlannedItem `json:"items"`
}

// Plan is a proposal only. Nothing is reserved until a commit step
// re-validates it against current stock.
type Plan struct {
	StoreID   uuid.UUID         `json:"store_id"`
	Strategy  string            `json:"strategy"`
	Shipments []PlannedShipment `json:"shipments"`
}

// IsFullFulfillment is true when no item is backordered
func (p *Plan) IsFullFulfillment() bool {
	for _, s := range p.Shipments {
		for _, item := range s.Items {
			if item.IsBackordered {
				return false
			}
		}
	}
	return true
}

// Quantities returns the allocated and backordered totals of a variant
func (p *Plan) Quantities(variantID uuid.UUID) (allocated, backordered int) {
	for _, s := range p.Shipments {
		for _, item := range s.Items {
			if item.VariantID != variantID {
				continue
			}
			if item.IsBackordered {
				backordered += item.Quantity
			} else {
				allocated += item.Quantity
			}
		}
	}
	return allocated, backordered
}

// ShipmentsFor returns the shipments that carry a variant
func (p *Plan) ShipmentsFor(variantID uuid.UUID) []PlannedShipment {
	var out []PlannedShipment
	for _, s := range p.Shipments {
		for _, item := range s.Items {
			if item.VariantID == variantID {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// TotalUnits returns every unit in the plan, backordered or not
func (p *Plan) TotalUnits() int {
	total := 0
	for _, s := range p.Shipments {
		for _, item := range s.Items {
			total += item.Quantity
		}
	}
	return total
}

// Verify checks that every requested unit appears exactly once
func (p *Plan) Verify(requested map[uuid.UUID]int) error {
	seen := make(map[uuid.UUID]int, len(requested))
	for _, s := range p.Shipments {
		for _, item := range s.Items {
			if item.Quantity <= 0 {
				return ErrPlanNotConserved.WithMessage("Plan has a non-positive quantity for variant %s", item.VariantID)
			}
			seen[item.VariantID] += item.Quantity
		}
	}
	if len(seen) != len(requested) {
		return ErrPlanNotConserved
	}
	for variantID, want := range requested {
		if got := seen[variantID]; got != want {
			return ErrPlanNotConserved.WithMessage("Variant %s: planned %d of %d units", variantID, got, want)
		}
	}
	return nil
}

// PlanBuilder accumulates items and groups them by location in the order
// locations were first used
type PlanBuilder struct {
	plan  *Plan
	index map[uuid.UUID]int
}

// NewPlanBuilder creates a builder for a store and strategy
func NewPlanBuilder(storeID uuid.UUID, strategyName string) *PlanBuilder {
	return &PlanBuilder{
		plan:  &Plan{StoreID: storeID, Strategy: strategyName, Shipments: []PlannedShipment{}},
		index: make(map[uuid.UUID]int),
	}
}

// Add appends qty of a variant to the location's shipment, merging with an
// existing item of the same variant and backorder flag
func (b *PlanBuilder) Add(loc Location, variantID uuid.UUID, qty int, backordered bool) {
	if qty <= 0 {
		return
	}
	idx, ok := b.index[loc.ID]
	if !ok {
		b.plan.Shipments = append(b.plan.Shipments, PlannedShipment{LocationID: loc.ID, LocationCode: loc.Code})
		idx = len(b.plan.Shipments) - 1
		b.index[loc.ID] = idx
	}
	s := &b.plan.Shipments[idx]
	for i := range s.Items {
		if s.Items[i].VariantID == variantID && s.Items[i].IsBackordered == backordered {
			s.Items[i].Quantity += qty
			return
		}
	}
	s.Items = append(s.Items, PlannedItem{VariantID: variantID, Quantity: qty, IsBackordered: backordered})
}

// Build returns the accumulated plan
func (b *PlanBuilder) Build() *Plan {
	return b.plan
}
