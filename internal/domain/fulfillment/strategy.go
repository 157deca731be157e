package fulfillment

import (
	"context"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/shared/strategy"
)

// Strategy names
const (
	StrategyGreedy        = "GREEDY"
	StrategyCostOptimized = "COST_OPTIMIZED"
	StrategyNearest       = "NEAREST"
)

// Request asks for a plan
type Request struct {
	StoreID uuid.UUID
	// Items maps variant ID to requested quantity
	Items map[uuid.UUID]int
	// AddressID is reserved for distance-aware strategies
	AddressID *uuid.UUID
	// Strategy selects a registered strategy; empty means the default
	Strategy string
}

// Strategy turns a request and a stock snapshot into a plan.
// Implementations must not mutate the snapshot and must account for every
// requested unit, as stock or as a backorder.
type Strategy interface {
	strategy.Strategy
	Plan(ctx context.Context, req Request, snap Snapshot) (*Plan, error)
}

// StrategyProvider resolves strategies by name
type StrategyProvider interface {
	GetFulfillmentStrategy(name string) (Strategy, error)
}
