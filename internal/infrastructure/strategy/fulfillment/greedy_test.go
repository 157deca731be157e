package fulfillment

import (
	"context"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/google/uuid"
	domain "github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/stock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocation(code string, isDefault bool) domain.Location {
	return domain.Location{ID: uuid.New(), Code: code, Type: stock.LocationTypeWarehouse, Active: true, IsDefault: isDefault}
}

func level(loc domain.Location, variantID uuid.UUID, onHand, reserved int) domain.StockLevel {
	return domain.StockLevel{StockItemID: uuid.New(), LocationID: loc.ID, VariantID: variantID, OnHand: onHand, Reserved: reserved}
}

func plan(t *testing.T, items map[uuid.UUID]int, snap domain.Snapshot) *domain.Plan {
	t.Helper()
	req := domain.Request{StoreID: uuid.New(), Items: items}
	p, err := NewGreedyStrategy().Plan(context.Background(), req, snap)
	require.NoError(t, err)
	require.NoError(t, p.Verify(items))
	return p
}

func TestGreedyStrategy_Metadata(t *testing.T) {
	s := NewGreedyStrategy()
	assert.Equal(t, "GREEDY", s.Name())
	assert.Equal(t, "fulfillment", s.Type().String())
	assert.NotEmpty(t, s.Description())
}

func TestGreedyStrategy_Scenarios(t *testing.T) {
	variantX := uuid.New()

	t.Run("default location is drained before splitting", func(t *testing.T) {
		a := newLocation("A", true)
		b := newLocation("B", false)
		snap := domain.Snapshot{
			Locations: []domain.Location{a, b},
			Levels:    []domain.StockLevel{level(a, variantX, 4, 0), level(b, variantX, 10, 0)},
		}

		p := plan(t, map[uuid.UUID]int{variantX: 10}, snap)

		require.Len(t, p.Shipments, 2)
		assert.Equal(t, a.ID, p.Shipments[0].LocationID)
		assert.Equal(t, []domain.PlannedItem{{VariantID: variantX, Quantity: 4}}, p.Shipments[0].Items)
		assert.Equal(t, b.ID, p.Shipments[1].LocationID)
		assert.Equal(t, []domain.PlannedItem{{VariantID: variantX, Quantity: 6}}, p.Shipments[1].Items)
		assert.True(t, p.IsFullFulfillment())
	})

	t.Run("no stock anywhere backorders at the only location", func(t *testing.T) {
		only := newLocation("ONLY", false)
		snap := domain.Snapshot{
			Locations: []domain.Location{only},
			Levels:    []domain.StockLevel{level(only, variantX, 0, 0)},
		}

		p := plan(t, map[uuid.UUID]int{variantX: 5}, snap)

		require.Len(t, p.Shipments, 1)
		assert.Equal(t, []domain.PlannedItem{{VariantID: variantX, Quantity: 5, IsBackordered: true}}, p.Shipments[0].Items)
		assert.False(t, p.IsFullFulfillment())
	})
}

func TestGreedyStrategy_Backorders(t *testing.T) {
	variantID := uuid.New()

	t.Run("remainder goes to the last location that contributed", func(t *testing.T) {
		def := newLocation("DEF", true)
		big := newLocation("BIG", false)
		small := newLocation("SMALL", false)
		snap := domain.Snapshot{
			Locations: []domain.Location{big, def, small},
			Levels: []domain.StockLevel{
				level(def, variantID, 2, 0),
				level(big, variantID, 5, 0),
				level(small, variantID, 1, 0),
			},
		}

		p := plan(t, map[uuid.UUID]int{variantID: 12}, snap)

		require.Len(t, p.Shipments, 3)
		assert.Equal(t, []string{"DEF", "BIG", "SMALL"}, []string{p.Shipments[0].LocationCode, p.Shipments[1].LocationCode, p.Shipments[2].LocationCode})
		assert.Equal(t, []domain.PlannedItem{
			{VariantID: variantID, Quantity: 1},
			{VariantID: variantID, Quantity: 4, IsBackordered: true},
		}, p.Shipments[2].Items)
	})

	t.Run("no stock falls back to the default location", func(t *testing.T) {
		other := newLocation("AAA", false)
		def := newLocation("ZZZ", true)
		p := plan(t, map[uuid.UUID]int{variantID: 3}, domain.Snapshot{Locations: []domain.Location{other, def}})

		require.Len(t, p.Shipments, 1)
		assert.Equal(t, def.ID, p.Shipments[0].LocationID)
		assert.True(t, p.Shipments[0].Items[0].IsBackordered)
	})

	t.Run("reserved stock is not available", func(t *testing.T) {
		wh := newLocation("WH", true)
		p := plan(t, map[uuid.UUID]int{variantID: 3}, domain.Snapshot{
			Locations: []domain.Location{wh},
			Levels:    []domain.StockLevel{level(wh, variantID, 5, 4)},
		})

		allocated, backordered := p.Quantities(variantID)
		assert.Equal(t, 1, allocated)
		assert.Equal(t, 2, backordered)
	})
}

func TestGreedyStrategy_Priority(t *testing.T) {
	variantID := uuid.New()

	t.Run("default wins a tie", func(t *testing.T) {
		other := newLocation("AAA", false)
		def := newLocation("ZZZ", true)
		p := plan(t, map[uuid.UUID]int{variantID: 5}, domain.Snapshot{
			Locations: []domain.Location{other, def},
			Levels:    []domain.StockLevel{level(other, variantID, 8, 0), level(def, variantID, 8, 0)},
		})

		require.Len(t, p.Shipments, 1)
		assert.Equal(t, def.ID, p.Shipments[0].LocationID)
	})

	t.Run("single sufficient location avoids a split", func(t *testing.T) {
		def := newLocation("DEF", true)
		low := newLocation("LOW", false)
		high := newLocation("HIGH", false)
		p := plan(t, map[uuid.UUID]int{variantID: 7}, domain.Snapshot{
			Locations: []domain.Location{def, low, high},
			Levels:    []domain.StockLevel{level(low, variantID, 3, 0), level(high, variantID, 9, 0)},
		})

		require.Len(t, p.ShipmentsFor(variantID), 1)
		assert.Equal(t, high.ID, p.Shipments[0].LocationID)
	})

	t.Run("code breaks remaining ties", func(t *testing.T) {
		b := newLocation("B", false)
		a := newLocation("A", false)
		p := plan(t, map[uuid.UUID]int{variantID: 2}, domain.Snapshot{
			Locations: []domain.Location{b, a},
			Levels:    []domain.StockLevel{level(b, variantID, 4, 0), level(a, variantID, 4, 0)},
		})

		require.Len(t, p.Shipments, 1)
		assert.Equal(t, "A", p.Shipments[0].LocationCode)
	})

	t.Run("stock is not reused across variants", func(t *testing.T) {
		wh := newLocation("WH", true)
		other := uuid.New()
		snap := domain.Snapshot{
			Locations: []domain.Location{wh},
			Levels:    []domain.StockLevel{level(wh, variantID, 2, 0), level(wh, other, 1, 0)},
		}
		original := snap.Levels[0]

		p := plan(t, map[uuid.UUID]int{variantID: 2, other: 2}, snap)

		allocated, _ := p.Quantities(variantID)
		assert.Equal(t, 2, allocated)
		allocated, backordered := p.Quantities(other)
		assert.Equal(t, 1, allocated)
		assert.Equal(t, 1, backordered)
		assert.Equal(t, original, snap.Levels[0], "the snapshot is left untouched")
	})
}

func TestGreedyStrategy_Errors(t *testing.T) {
	_, err := NewGreedyStrategy().Plan(context.Background(), domain.Request{Items: map[uuid.UUID]int{uuid.New(): 1}}, domain.Snapshot{})
	assert.ErrorIs(t, err, domain.ErrNoFulfillableLocations)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewGreedyStrategy().Plan(ctx, domain.Request{Items: map[uuid.UUID]int{uuid.New(): 1}}, domain.Snapshot{
		Locations: []domain.Location{newLocation("WH", true)},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestGreedyStrategy_Conservation(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))

	for round := range 50 {
		t.Run(fmt.Sprintf("round %d", round), func(t *testing.T) {
			locations := make([]domain.Location, 1+rng.IntN(4))
			for i := range locations {
				locations[i] = newLocation(fmt.Sprintf("L%d", i), i == 0 && rng.IntN(2) == 0)
			}

			items := make(map[uuid.UUID]int)
			var levels []domain.StockLevel
			for range 1 + rng.IntN(3) {
				variantID := uuid.New()
				items[variantID] = 1 + rng.IntN(20)
				for _, loc := range locations {
					onHand := rng.IntN(15)
					levels = append(levels, level(loc, variantID, onHand, rng.IntN(onHand+1)))
				}
			}

			p := plan(t, items, domain.Snapshot{Locations: locations, Levels: levels})

			known := make(map[uuid.UUID]bool)
			for _, loc := range locations {
				known[loc.ID] = true
			}
			type slot struct{ location, variant uuid.UUID }
			available := make(map[slot]int)
			for _, l := range levels {
				available[slot{l.LocationID, l.VariantID}] += l.Available()
			}
			taken := make(map[slot]int)
			for _, s := range p.Shipments {
				assert.True(t, known[s.LocationID])
				for _, item := range s.Items {
					if !item.IsBackordered {
						taken[slot{s.LocationID, item.VariantID}] += item.Quantity
					}
				}
			}
			for k, qty := range taken {
				assert.LessOrEqual(t, qty, available[k], "location %s over-committed for variant %s", k.location, k.variant)
			}
		})
	}
}
