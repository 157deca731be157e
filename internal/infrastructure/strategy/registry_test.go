package strategy

import (
	"context"
	"sync"
	"testing"

	"github.com/resys/backend/internal/domain/fulfillment"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/domain/shared/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Mock fulfillment strategy for testing
type mockFulfillmentStrategy struct {
	strategy.BaseStrategy
}

func newMockFulfillmentStrategy(name string) *mockFulfillmentStrategy {
	return &mockFulfillmentStrategy{
		BaseStrategy: strategy.NewBaseStrategy(name, strategy.StrategyTypeFulfillment, "Mock fulfillment strategy"),
	}
}

func (s *mockFulfillmentStrategy) Plan(ctx context.Context, req fulfillment.Request, snap fulfillment.Snapshot) (*fulfillment.Plan, error) {
	return fulfillment.NewPlanBuilder(req.StoreID, s.Name()).Build(), nil
}

func TestNewStrategyRegistry(t *testing.T) {
	r := NewStrategyRegistry()
	require.NotNil(t, r)
	assert.Empty(t, r.ListFulfillmentStrategies())
	assert.False(t, r.HasDefault(strategy.StrategyTypeFulfillment))
}

func TestRegisterFulfillmentStrategy(t *testing.T) {
	r := NewStrategyRegistry()

	t.Run("successful registration", func(t *testing.T) {
		err := r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("test"))
		require.NoError(t, err)
		assert.True(t, r.IsRegistered(strategy.StrategyTypeFulfillment, "test"))
	})

	t.Run("duplicate registration fails", func(t *testing.T) {
		err := r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("test"))
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
	})
}

func TestGetFulfillmentStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	s := newMockFulfillmentStrategy("test")
	require.NoError(t, r.RegisterFulfillmentStrategy(s))

	t.Run("get by name", func(t *testing.T) {
		got, err := r.GetFulfillmentStrategy("test")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	})

	t.Run("unknown name is unsupported", func(t *testing.T) {
		_, err := r.GetFulfillmentStrategy(fulfillment.StrategyCostOptimized)
		assert.ErrorIs(t, err, fulfillment.ErrUnsupportedStrategy)
		assert.Equal(t, shared.KindValidation, shared.KindOf(err))
	})

	t.Run("no default set", func(t *testing.T) {
		_, err := r.GetFulfillmentStrategy("")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("get default when name is empty", func(t *testing.T) {
		require.NoError(t, r.SetDefault(strategy.StrategyTypeFulfillment, "test"))
		got, err := r.GetFulfillmentStrategy("")
		require.NoError(t, err)
		assert.Equal(t, s, got)
	})
}

func TestGetFulfillmentStrategyOrDefault(t *testing.T) {
	r := NewStrategyRegistry()
	def := newMockFulfillmentStrategy("default")
	other := newMockFulfillmentStrategy("other")
	require.NoError(t, r.RegisterFulfillmentStrategy(def))
	require.NoError(t, r.RegisterFulfillmentStrategy(other))
	require.NoError(t, r.SetDefault(strategy.StrategyTypeFulfillment, "default"))

	t.Run("get existing by name", func(t *testing.T) {
		assert.Equal(t, other, r.GetFulfillmentStrategyOrDefault("other"))
	})

	t.Run("fallback to default when not found", func(t *testing.T) {
		assert.Equal(t, def, r.GetFulfillmentStrategyOrDefault("missing"))
	})
}

func TestListFulfillmentStrategies(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("b")))
	require.NoError(t, r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("a")))

	assert.Equal(t, []string{"a", "b"}, r.ListFulfillmentStrategies())
}

func TestUnregisterFulfillmentStrategy(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("test")))
	require.NoError(t, r.SetDefault(strategy.StrategyTypeFulfillment, "test"))

	t.Run("successful unregister clears the default", func(t *testing.T) {
		require.NoError(t, r.UnregisterFulfillmentStrategy("test"))
		assert.False(t, r.IsRegistered(strategy.StrategyTypeFulfillment, "test"))
		assert.False(t, r.HasDefault(strategy.StrategyTypeFulfillment))
	})

	t.Run("unregister nonexistent", func(t *testing.T) {
		err := r.UnregisterFulfillmentStrategy("test")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSetDefault(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("test")))

	t.Run("unregistered name fails", func(t *testing.T) {
		err := r.SetDefault(strategy.StrategyTypeFulfillment, "missing")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("unknown type fails", func(t *testing.T) {
		err := r.SetDefault(strategy.StrategyType("pricing"), "test")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("registered name", func(t *testing.T) {
		require.NoError(t, r.SetDefault(strategy.StrategyTypeFulfillment, "test"))
		assert.Equal(t, "test", r.GetDefault(strategy.StrategyTypeFulfillment))
	})
}

func TestStats(t *testing.T) {
	r := NewStrategyRegistry()
	require.NoError(t, r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy("a")))
	assert.Equal(t, 1, r.Stats()[strategy.StrategyTypeFulfillment])
}

func TestConcurrentAccess(t *testing.T) {
	r := NewStrategyRegistry()
	var wg sync.WaitGroup
	numGoroutines := 100

	for i := 0; i < numGoroutines; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			name := string(rune('a' + (idx % 26)))
			// Some registrations succeed, the rest hit the duplicate error
			_ = r.RegisterFulfillmentStrategy(newMockFulfillmentStrategy(name))
			_, _ = r.GetFulfillmentStrategy(name)
			r.Stats()
		}(i)
	}

	wg.Wait()

	list := r.ListFulfillmentStrategies()
	assert.Len(t, list, 26)
}

func TestNewRegistryWithDefaults(t *testing.T) {
	r, err := NewRegistryWithDefaults()
	require.NoError(t, err)

	assert.Equal(t, []string{fulfillment.StrategyGreedy}, r.ListFulfillmentStrategies())
	assert.Equal(t, fulfillment.StrategyGreedy, r.GetDefault(strategy.StrategyTypeFulfillment))

	s, err := r.GetFulfillmentStrategy("")
	require.NoError(t, err)
	assert.Equal(t, fulfillment.StrategyGreedy, s.Name())

	_, err = r.GetFulfillmentStrategy(fulfillment.StrategyNearest)
	assert.ErrorIs(t, err, fulfillment.ErrUnsupportedStrategy)
}

func TestNewRegistryWithDefault(t *testing.T) {
	t.Run("empty name falls back to greedy", func(t *testing.T) {
		r, err := NewRegistryWithDefault("")
		require.NoError(t, err)
		assert.Equal(t, fulfillment.StrategyGreedy, r.GetDefault(strategy.StrategyTypeFulfillment))
	})

	t.Run("unregistered default fails", func(t *testing.T) {
		_, err := NewRegistryWithDefault(fulfillment.StrategyCostOptimized)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
