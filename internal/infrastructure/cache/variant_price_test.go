package cache

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/domain/shared"
	"github.com/resys/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryVariantCatalog(t *testing.T) {
	ctx := context.Background()
	shirt := ordering.Variant{ID: uuid.New(), SKU: "SHIRT-M", PriceCents: 2500}
	catalog := NewInMemoryVariantCatalog(shirt)

	got, err := catalog.Variant(ctx, shirt.ID)
	require.NoError(t, err)
	assert.Equal(t, shirt, got)

	_, err = catalog.Variant(ctx, uuid.New())
	assert.ErrorIs(t, err, ordering.ErrVariantNotFound)
	assert.Equal(t, shared.KindNotFound, shared.KindOf(err))
}

func TestCachedVariantPriceProvider(t *testing.T) {
	ctx := context.Background()
	shirt := ordering.Variant{ID: uuid.New(), SKU: "SHIRT-M", PriceCents: 2500}
	catalog := NewInMemoryVariantCatalog(shirt)

	clock := &fakeClock{now: time.Now()}
	cached := NewCachedVariantPriceProvider(catalog, time.Minute)
	cached.now = clock.Now

	t.Run("serves repeated reads locally", func(t *testing.T) {
		_, err := cached.Variant(ctx, shirt.ID)
		require.NoError(t, err)

		require.NoError(t, catalog.SetVariant(ctx, ordering.Variant{ID: shirt.ID, SKU: "SHIRT-M", PriceCents: 3000}))
		got, err := cached.Variant(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2500), got.PriceCents)

		hits, misses := cached.Stats()
		assert.Equal(t, int64(1), hits)
		assert.Equal(t, int64(1), misses)
	})

	t.Run("expired entries are re-read", func(t *testing.T) {
		clock.Advance(2 * time.Minute)
		got, err := cached.Variant(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3000), got.PriceCents)
	})

	t.Run("invalidate forces a re-read", func(t *testing.T) {
		require.NoError(t, catalog.SetVariant(ctx, ordering.Variant{ID: shirt.ID, SKU: "SHIRT-M", PriceCents: 3500}))
		cached.Invalidate(shirt.ID)
		got, err := cached.Variant(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(3500), got.PriceCents)
	})

	t.Run("misses are not cached", func(t *testing.T) {
		missing := uuid.New()
		_, err := cached.Variant(ctx, missing)
		assert.ErrorIs(t, err, ordering.ErrVariantNotFound)

		require.NoError(t, catalog.SetVariant(ctx, ordering.Variant{ID: missing, SKU: "NEW", PriceCents: 10}))
		_, err = cached.Variant(ctx, missing)
		assert.NoError(t, err)
	})
}

type readOnlyPrices struct{}

func (readOnlyPrices) Variant(context.Context, uuid.UUID) (ordering.Variant, error) {
	return ordering.Variant{}, ordering.ErrVariantNotFound
}

func TestCachedVariantPriceProvider_SetVariant(t *testing.T) {
	ctx := context.Background()
	shirt := ordering.Variant{ID: uuid.New(), SKU: "SHIRT-M", PriceCents: 2500}

	t.Run("writes through and drops the cached copy", func(t *testing.T) {
		catalog := NewInMemoryVariantCatalog(shirt)
		cached := NewCachedVariantPriceProvider(catalog, time.Hour)
		_, err := cached.Variant(ctx, shirt.ID)
		require.NoError(t, err)

		require.NoError(t, cached.SetVariant(ctx, ordering.Variant{ID: shirt.ID, SKU: "SHIRT-M", PriceCents: 2700}))

		got, err := cached.Variant(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, int64(2700), got.PriceCents)
	})

	t.Run("read-only provider", func(t *testing.T) {
		cached := NewCachedVariantPriceProvider(readOnlyPrices{}, time.Hour)
		assert.Error(t, cached.SetVariant(ctx, shirt))
	})
}

func TestSeedVariantCatalog(t *testing.T) {
	ctx := context.Background()
	shirtID := uuid.New()

	t.Run("seeds every entry", func(t *testing.T) {
		catalog := NewInMemoryVariantCatalog()
		n, err := SeedVariantCatalog(ctx, catalog, []config.CatalogVariant{
			{ID: shirtID.String(), SKU: "SHIRT-M", PriceCents: 2500},
		})
		require.NoError(t, err)
		assert.Equal(t, 1, n)

		got, err := catalog.Variant(ctx, shirtID)
		require.NoError(t, err)
		assert.Equal(t, ordering.Variant{ID: shirtID, SKU: "SHIRT-M", PriceCents: 2500}, got)
	})

	t.Run("stops at a malformed id", func(t *testing.T) {
		catalog := NewInMemoryVariantCatalog()
		n, err := SeedVariantCatalog(ctx, catalog, []config.CatalogVariant{
			{ID: shirtID.String(), SKU: "SHIRT-M", PriceCents: 2500},
			{ID: "bogus", SKU: "MUG", PriceCents: 900},
		})
		require.Error(t, err)
		assert.Equal(t, 1, n)
	})
}
