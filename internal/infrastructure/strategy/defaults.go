package strategy

import (
	domain "github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/shared/strategy"
	"github.com/resys/backend/internal/infrastructure/strategy/fulfillment"
)

// NewRegistryWithDefaults creates a new registry with the built-in strategies
// registered and GREEDY as the default fulfillment strategy.
func NewRegistryWithDefaults() (*StrategyRegistry, error) {
	return NewRegistryWithDefault(domain.StrategyGreedy)
}

// NewRegistryWithDefault registers the built-in strategies and makes the
// named one the default. The name must be a registered strategy.
func NewRegistryWithDefault(defaultName string) (*StrategyRegistry, error) {
	r := NewStrategyRegistry()

	greedy := fulfillment.NewGreedyStrategy()
	if err := r.RegisterFulfillmentStrategy(greedy); err != nil {
		return nil, err
	}

	if defaultName == "" {
		defaultName = greedy.Name()
	}
	if err := r.SetDefault(strategy.StrategyTypeFulfillment, defaultName); err != nil {
		return nil, err
	}

	return r, nil
}
