package cache

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/resys/backend/internal/domain/ordering"
	"github.com/resys/backend/internal/infrastructure/config"
)

const defaultVariantPrefix = "resys:variant:"

// RedisVariantPriceProvider reads variant prices from Redis hashes
// "<prefix><variant id>" with the fields sku and price_cents. The catalog
// service owns those keys; SetVariant exists for seeding and tests.
type RedisVariantPriceProvider struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisVariantPriceProvider creates a provider on an existing client
func NewRedisVariantPriceProvider(client redis.UniversalClient, keyPrefix string) *RedisVariantPriceProvider {
	if keyPrefix == "" {
		keyPrefix = defaultVariantPrefix
	}
	return &RedisVariantPriceProvider{client: client, keyPrefix: keyPrefix}
}

// Variant returns the current SKU and price of a variant
func (p *RedisVariantPriceProvider) Variant(ctx context.Context, variantID uuid.UUID) (ordering.Variant, error) {
	fields, err := p.client.HGetAll(ctx, p.keyPrefix+variantID.String()).Result()
	if err != nil {
		return ordering.Variant{}, fmt.Errorf("read variant %s: %w", variantID, err)
	}
	raw, ok := fields["price_cents"]
	if !ok {
		return ordering.Variant{}, ordering.ErrVariantNotFound.WithMessage("Variant %s has no price", variantID)
	}
	price, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return ordering.Variant{}, fmt.Errorf("variant %s has a malformed price %q: %w", variantID, raw, err)
	}
	return ordering.Variant{ID: variantID, SKU: fields["sku"], PriceCents: price}, nil
}

// SetVariant writes a variant's SKU and price
func (p *RedisVariantPriceProvider) SetVariant(ctx context.Context, v ordering.Variant) error {
	return p.client.HSet(ctx, p.keyPrefix+v.ID.String(),
		"sku", v.SKU,
		"price_cents", v.PriceCents,
	).Err()
}

// InMemoryVariantCatalog is a fixed variant price list for development and tests
type InMemoryVariantCatalog struct {
	mu       sync.RWMutex
	variants map[uuid.UUID]ordering.Variant
}

// NewInMemoryVariantCatalog creates a catalog holding the given variants
func NewInMemoryVariantCatalog(variants ...ordering.Variant) *InMemoryVariantCatalog {
	c := &InMemoryVariantCatalog{variants: make(map[uuid.UUID]ordering.Variant, len(variants))}
	for _, v := range variants {
		c.variants[v.ID] = v
	}
	return c
}

// Variant returns the stored variant
func (c *InMemoryVariantCatalog) Variant(_ context.Context, variantID uuid.UUID) (ordering.Variant, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	v, ok := c.variants[variantID]
	if !ok {
		return ordering.Variant{}, ordering.ErrVariantNotFound.WithMessage("Variant %s has no price", variantID)
	}
	return v, nil
}

// SetVariant stores or replaces a variant
func (c *InMemoryVariantCatalog) SetVariant(_ context.Context, v ordering.Variant) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[v.ID] = v
	return nil
}

// CachedVariantPriceProvider keeps recently read prices in process for a
// short TTL in front of a slower provider. Misses are not cached.
type CachedVariantPriceProvider struct {
	next ordering.VariantPriceProvider
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[uuid.UUID]cachedVariant

	hits, misses int64
}

type cachedVariant struct {
	variant   ordering.Variant
	expiresAt time.Time
}

// NewCachedVariantPriceProvider wraps next with a local TTL cache
func NewCachedVariantPriceProvider(next ordering.VariantPriceProvider, ttl time.Duration) *CachedVariantPriceProvider {
	return &CachedVariantPriceProvider{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[uuid.UUID]cachedVariant),
	}
}

// Variant serves from the local cache, falling through to the wrapped provider
func (c *CachedVariantPriceProvider) Variant(ctx context.Context, variantID uuid.UUID) (ordering.Variant, error) {
	c.mu.Lock()
	if e, ok := c.entries[variantID]; ok && c.now().Before(e.expiresAt) {
		c.hits++
		c.mu.Unlock()
		return e.variant, nil
	}
	c.misses++
	c.mu.Unlock()

	v, err := c.next.Variant(ctx, variantID)
	if err != nil {
		return ordering.Variant{}, err
	}

	c.mu.Lock()
	c.entries[variantID] = cachedVariant{variant: v, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return v, nil
}

// SetVariant writes through to the wrapped provider and drops the local copy
func (c *CachedVariantPriceProvider) SetVariant(ctx context.Context, v ordering.Variant) error {
	w, ok := c.next.(ordering.VariantCatalog)
	if !ok {
		return fmt.Errorf("variant provider %T is read-only", c.next)
	}
	if err := w.SetVariant(ctx, v); err != nil {
		return err
	}
	c.Invalidate(v.ID)
	return nil
}

// Invalidate drops a cached variant
func (c *CachedVariantPriceProvider) Invalidate(variantID uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, variantID)
}

// Stats returns local cache hits and misses
func (c *CachedVariantPriceProvider) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// SeedVariantCatalog writes configured variants into a catalog and returns
// how many were written
func SeedVariantCatalog(ctx context.Context, catalog ordering.VariantCatalog, entries []config.CatalogVariant) (int, error) {
	for i, e := range entries {
		id, err := uuid.Parse(e.ID)
		if err != nil {
			return i, fmt.Errorf("seed variant %q: %w", e.ID, err)
		}
		if err := catalog.SetVariant(ctx, ordering.Variant{ID: id, SKU: e.SKU, PriceCents: e.PriceCents}); err != nil {
			return i, fmt.Errorf("seed variant %s: %w", id, err)
		}
	}
	return len(entries), nil
}

var (
	_ ordering.VariantCatalog = (*RedisVariantPriceProvider)(nil)
	_ ordering.VariantCatalog = (*InMemoryVariantCatalog)(nil)
	_ ordering.VariantCatalog = (*CachedVariantPriceProvider)(nil)
)
