package fulfillment

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared"
)

// Planner computes fulfillment plans. It only reads stock.
type Planner struct {
	query      StockQuery
	strategies StrategyProvider
}

// NewPlanner creates a planner
func NewPlanner(query StockQuery, strategies StrategyProvider) *Planner {
	return &Planner{query: query, strategies: strategies}
}

// PlanFulfillment proposes how the requested quantities are split across the
// store's fulfillable locations. Quantities no location can supply are
// backordered, so the plan always accounts for every requested unit.
func (p *Planner) PlanFulfillment(ctx context.Context, req Request) (*Plan, error) {
	if req.StoreID == uuid.Nil {
		return nil, ErrInvalidStore
	}
	if len(req.Items) == 0 {
		return nil, ErrEmptyOrder
	}
	for variantID, qty := range req.Items {
		if variantID == uuid.Nil {
			return nil, shared.ErrInvalidInput.WithMessage("Variant ID cannot be empty")
		}
		if qty <= 0 {
			return nil, shared.ErrInvalidQuantity.WithMessage("Quantity for variant %s must be positive", variantID)
		}
	}

	strategy, err := p.strategies.GetFulfillmentStrategy(req.Strategy)
	if err != nil {
		return nil, err
	}

	snap, err := p.Snapshot(ctx, req.StoreID, req.VariantIDs())
	if err != nil {
		return nil, err
	}

	plan, err := strategy.Plan(ctx, req, snap)
	if err != nil {
		return nil, err
	}
	if err := plan.Verify(req.Items); err != nil {
		return nil, err
	}
	return plan, nil
}

// Snapshot reads the fulfillable locations of a store and the stock of the
// given variants at them
func (p *Planner) Snapshot(ctx context.Context, storeID uuid.UUID, variantIDs []uuid.UUID) (Snapshot, error) {
	found, err := p.query.FulfillableLocations(ctx, storeID)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load fulfillable locations: %w", err)
	}

	locations := make([]Location, 0, len(found))
	eligible := make(map[uuid.UUID]bool, len(found))
	for _, loc := range found {
		if !loc.IsFulfillable() || eligible[loc.ID] {
			continue
		}
		eligible[loc.ID] = true
		locations = append(locations, loc)
	}
	if len(locations) == 0 {
		return Snapshot{}, ErrNoFulfillableLocations
	}
	slices.SortFunc(locations, func(a, b Location) int { return strings.Compare(a.Code, b.Code) })

	levels, err := p.query.FetchFulfillableStock(ctx, storeID, variantIDs)
	if err != nil {
		return Snapshot{}, fmt.Errorf("failed to load stock levels: %w", err)
	}
	kept := make([]StockLevel, 0, len(levels))
	for _, lvl := range levels {
		if eligible[lvl.LocationID] {
			kept = append(kept, lvl)
		}
	}

	return Snapshot{Locations: locations, Levels: kept}, nil
}

// VariantIDs returns the requested variants in ascending id order
func (r Request) VariantIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(r.Items))
	for id := range r.Items {
		ids = append(ids, id)
	}
	SortVariantIDs(ids)
	return ids
}

// SortVariantIDs sorts ids by their canonical string form
func SortVariantIDs(ids []uuid.UUID) {
	slices.SortFunc(ids, func(a, b uuid.UUID) int { return strings.Compare(a.String(), b.String()) })
}
