package fulfillment

import (
	"context"
	"slices"
	"strings"

	"github.com/google/uuid"
	domain "github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/shared/strategy"
)

// GreedyStrategy fills each variant from the default location first, then
// from the locations with the most stock. Whatever no location can supply is
// backordered at the last location that contributed stock.
type GreedyStrategy struct {
	strategy.BaseStrategy
}

// NewGreedyStrategy creates a new greedy fulfillment strategy
func NewGreedyStrategy() *GreedyStrategy {
	return &GreedyStrategy{
		BaseStrategy: strategy.NewBaseStrategy(
			domain.StrategyGreedy,
			strategy.StrategyTypeFulfillment,
			"Fill from the default location, then the best-stocked ones; backorder the rest",
		),
	}
}

// Plan splits the requested quantities across the snapshot's locations
func (s *GreedyStrategy) Plan(
	ctx context.Context,
	req domain.Request,
	snap domain.Snapshot,
) (*domain.Plan, error) {
	if len(snap.Locations) == 0 {
		return nil, domain.ErrNoFulfillableLocations
	}

	// Working copy; units taken for one variant are never offered twice
	available := snap.Availability()
	builder := domain.NewPlanBuilder(req.StoreID, s.Name())

	for _, variantID := range req.VariantIDs() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		remaining := req.Items[variantID]
		candidates := rankLocations(snap.Locations, available, variantID)

		var last *domain.Location
		for i := range candidates {
			if remaining == 0 {
				break
			}
			loc := candidates[i]
			key := domain.AvailabilityKey{LocationID: loc.ID, VariantID: variantID}
			if available[key] <= 0 {
				continue
			}

			take := min(remaining, available[key])
			builder.Add(loc, variantID, take, false)
			available[key] -= take
			remaining -= take
			last = &candidates[i]
		}

		if remaining > 0 {
			target := candidates[0]
			if last != nil {
				target = *last
			}
			builder.Add(target, variantID, remaining, true)
		}
	}

	return builder.Build(), nil
}

// rankLocations orders locations for one variant: the default first, then by
// descending availability, then by ascending code
func rankLocations(locations []domain.Location, available map[domain.AvailabilityKey]int, variantID uuid.UUID) []domain.Location {
	ranked := slices.Clone(locations)
	slices.SortStableFunc(ranked, func(a, b domain.Location) int {
		if a.IsDefault != b.IsDefault {
			if a.IsDefault {
				return -1
			}
			return 1
		}
		availA := available[domain.AvailabilityKey{LocationID: a.ID, VariantID: variantID}]
		availB := available[domain.AvailabilityKey{LocationID: b.ID, VariantID: variantID}]
		if availA != availB {
			return availB - availA
		}
		return strings.Compare(a.Code, b.Code)
	})
	return ranked
}
