package strategy

// StrategyType groups strategies by the decision they make
type StrategyType string

const (
	// StrategyTypeFulfillment strategies decide which locations serve an order
	StrategyTypeFulfillment StrategyType = "fulfillment"
)

// String returns the string representation of the strategy type
func (t StrategyType) String() string {
	return string(t)
}

// IsValid returns true if the strategy type is known
func (t StrategyType) IsValid() bool {
	return t == StrategyTypeFulfillment
}

// Strategy is the base interface for all strategies
type Strategy interface {
	// Name returns the unique name of the strategy
	Name() string
	Type() StrategyType
	Description() string
}

// BaseStrategy provides the metadata half of a strategy
type BaseStrategy struct {
	name         string
	strategyType StrategyType
	description  string
}

// NewBaseStrategy creates a new BaseStrategy
func NewBaseStrategy(name string, strategyType StrategyType, description string) BaseStrategy {
	return BaseStrategy{
		name:         name,
		strategyType: strategyType,
		description:  description,
	}
}

// Name returns the strategy name
func (s BaseStrategy) Name() string {
	return s.name
}

// Type returns the strategy type
func (s BaseStrategy) Type() StrategyType {
	return s.strategyType
}

// Description returns the strategy description
func (s BaseStrategy) Description() string {
	return s.description
}
