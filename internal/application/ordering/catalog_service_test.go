package ordering

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/infrastructure/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestCatalogService(t *testing.T) {
	ctx := context.Background()

	t.Run("a priced variant can be added to a cart", func(t *testing.T) {
		h := newHarness(t)
		catalog := cache.NewInMemoryVariantCatalog()
		h.orderSvc = NewOrderService(h.orders, catalog, h.scope, zaptest.NewLogger(t))
		svc := NewCatalogService(catalog, zaptest.NewLogger(t))
		variantID := uuid.New()

		order, err := h.orderSvc.Create(ctx, CreateOrderRequest{StoreID: h.storeID, Currency: "USD"})
		require.NoError(t, err)
		_, err = h.orderSvc.AddItem(ctx, order.ID, AddItemRequest{VariantID: variantID, Quantity: 1})
		assert.ErrorIs(t, err, ordering.ErrVariantNotFound)

		_, err = svc.PutVariant(ctx, variantID, PutVariantRequest{SKU: " HAT ", PriceCents: 1500})
		require.NoError(t, err)

		resp, err := h.orderSvc.AddItem(ctx, order.ID, AddItemRequest{VariantID: variantID, Quantity: 2})
		require.NoError(t, err)
		require.Len(t, resp.LineItems, 1)
		assert.Equal(t, "HAT", resp.LineItems[0].SKU)
		assert.Equal(t, int64(3000), resp.ItemTotal)
	})

	t.Run("get", func(t *testing.T) {
		svc := NewCatalogService(cache.NewInMemoryVariantCatalog(shirt), nil)
		got, err := svc.GetVariant(ctx, shirt.ID)
		require.NoError(t, err)
		assert.Equal(t, &VariantResponse{ID: shirt.ID, SKU: shirt.SKU, PriceCents: shirt.PriceCents}, got)

		_, err = svc.GetVariant(ctx, uuid.New())
		assert.ErrorIs(t, err, ordering.ErrVariantNotFound)
	})

	t.Run("rejects a negative price", func(t *testing.T) {
		svc := NewCatalogService(cache.NewInMemoryVariantCatalog(), nil)
		_, err := svc.PutVariant(ctx, uuid.New(), PutVariantRequest{SKU: "HAT", PriceCents: -1})
		assert.ErrorIs(t, err, ordering.ErrInvalidPrice)
	})
}
