package strategy

import (
	"fmt"
	"sort"
	"sync"

	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/shared/strategy"
)

// StrategyRegistry manages strategy registrations
type StrategyRegistry struct {
	mu                    sync.RWMutex
	fulfillmentStrategies map[string]fulfillment.Strategy
	defaults              map[strategy.StrategyType]string
}

// NewStrategyRegistry creates a new strategy registry
func NewStrategyRegistry() *StrategyRegistry {
	return &StrategyRegistry{
		fulfillmentStrategies: make(map[string]fulfillment.Strategy),
		defaults:              make(map[strategy.StrategyType]string),
	}
}

// RegisterFulfillmentStrategy registers a fulfillment strategy
func (r *StrategyRegistry) RegisterFulfillmentStrategy(s fulfillment.Strategy) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := s.Name()
	if _, exists := r.fulfillmentStrategies[name]; exists {
		return fmt.Errorf("%w: fulfillment strategy '%s' already registered", shared.ErrAlreadyExists, name)
	}
	r.fulfillmentStrategies[name] = s
	return nil
}

// GetFulfillmentStrategy returns a fulfillment strategy by name, or the default if name is empty.
// Unknown names fail with fulfillment.ErrUnsupportedStrategy.
func (r *StrategyRegistry) GetFulfillmentStrategy(name string) (fulfillment.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if name == "" {
		name = r.defaults[strategy.StrategyTypeFulfillment]
		if name == "" {
			return nil, fmt.Errorf("%w: no default fulfillment strategy set", shared.ErrNotFound)
		}
	}

	s, exists := r.fulfillmentStrategies[name]
	if !exists {
		return nil, fulfillment.ErrUnsupportedStrategy.WithMessage("Fulfillment strategy '%s' is not supported", name)
	}
	return s, nil
}

// GetFulfillmentStrategyOrDefault returns a fulfillment strategy by name, or the default if not found
func (r *StrategyRegistry) GetFulfillmentStrategyOrDefault(name string) fulfillment.Strategy {
	s, err := r.GetFulfillmentStrategy(name)
	if err != nil {
		s, _ = r.GetFulfillmentStrategy("")
	}
	return s
}

// ListFulfillmentStrategies returns all registered fulfillment strategy names
func (r *StrategyRegistry) ListFulfillmentStrategies() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.fulfillmentStrategies))
	for name := range r.fulfillmentStrategies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnregisterFulfillmentStrategy removes a fulfillment strategy
func (r *StrategyRegistry) UnregisterFulfillmentStrategy(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.fulfillmentStrategies[name]; !exists {
		return fmt.Errorf("%w: fulfillment strategy '%s' not found", shared.ErrNotFound, name)
	}
	delete(r.fulfillmentStrategies, name)

	// Clear default if it was this strategy
	if r.defaults[strategy.StrategyTypeFulfillment] == name {
		delete(r.defaults, strategy.StrategyTypeFulfillment)
	}
	return nil
}

// SetDefault sets the default strategy for a strategy type
func (r *StrategyRegistry) SetDefault(strategyType strategy.StrategyType, name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.isRegisteredLocked(strategyType, name) {
		return fmt.Errorf("%w: strategy '%s' of type '%s' not found", shared.ErrNotFound, name, strategyType)
	}

	r.defaults[strategyType] = name
	return nil
}

// GetDefault returns the default strategy name for a strategy type
func (r *StrategyRegistry) GetDefault(strategyType strategy.StrategyType) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType]
}

// HasDefault returns true if a default is set for the strategy type
func (r *StrategyRegistry) HasDefault(strategyType strategy.StrategyType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.defaults[strategyType] != ""
}

// IsRegistered returns true if a strategy with the given name is registered for the type
func (r *StrategyRegistry) IsRegistered(strategyType strategy.StrategyType, name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isRegisteredLocked(strategyType, name)
}

// isRegisteredLocked checks registration without locking (caller must hold lock)
func (r *StrategyRegistry) isRegisteredLocked(strategyType strategy.StrategyType, name string) bool {
	switch strategyType {
	case strategy.StrategyTypeFulfillment:
		_, exists := r.fulfillmentStrategies[name]
		return exists
	default:
		return false
	}
}

// Stats returns registration counts for each strategy type
func (r *StrategyRegistry) Stats() map[strategy.StrategyType]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return map[strategy.StrategyType]int{
		strategy.StrategyTypeFulfillment: len(r.fulfillmentStrategies),
	}
}

var _ fulfillment.StrategyProvider = (*StrategyRegistry)(nil)
