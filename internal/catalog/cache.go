package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/SonaliBaghel/Reviews-bundles/internal/domain"
)

const ratingKeyPrefix = "rating:"

// PublishCache remembers the last aggregate pushed to the catalog per product,
// so unchanged aggregates can skip the HTTP round-trip.
type PublishCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewPublishCache creates a Redis-backed publish cache. Entries expire after
// ttl so the catalog is refreshed periodically even without rating changes.
func NewPublishCache(client *redis.Client, ttl time.Duration) *PublishCache {
	return &PublishCache{
		client: client,
		ttl:    ttl,
	}
}

func ratingKey(shopID, productID string) string {
	return ratingKeyPrefix + shopID + ":" + productID
}

// LastPublished returns the aggregate most recently recorded for the product,
// or nil if none is cached.
func (c *PublishCache) LastPublished(ctx context.Context, shopID, productID string) (*domain.Aggregate, error) {
	data, err := c.client.Get(ctx, ratingKey(shopID, productID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("redis get rating: %w", err)
	}

	var agg domain.Aggregate
	if err := json.Unmarshal(data, &agg); err != nil {
		return nil, fmt.Errorf("unmarshal cached rating: %w", err)
	}

	return &agg, nil
}

// SetPublished records the aggregate that was just pushed for the product.
func (c *PublishCache) SetPublished(ctx context.Context, shopID, productID string, agg domain.Aggregate) error {
	data, err := json.Marshal(agg)
	if err != nil {
		return fmt.Errorf("marshal rating: %w", err)
	}

	if err := c.client.Set(ctx, ratingKey(shopID, productID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set rating: %w", err)
	}

	return nil
}

// Invalidate drops the cached aggregate for the product, forcing the next
// publish to go through to the catalog.
func (c *PublishCache) Invalidate(ctx context.Context, shopID, productID string) error {
	if err := c.client.Del(ctx, ratingKey(shopID, productID)).Err(); err != nil {
		return fmt.Errorf("redis del rating: %w", err)
	}
	return nil
}

// CachedPublisher wraps a Publisher with the publish cache: identical
// consecutive aggregates for a product are not re-sent to the catalog.
// Cache failures degrade to publishing unconditionally.
type CachedPublisher struct {
	inner  Publisher
	cache  *PublishCache
	logger *slog.Logger
}

// NewCachedPublisher wraps inner with dedup backed by cache.
func NewCachedPublisher(inner Publisher, cache *PublishCache, logger *slog.Logger) *CachedPublisher {
	return &CachedPublisher{
		inner:  inner,
		cache:  cache,
		logger: logger,
	}
}

// PublishRating publishes the aggregate unless it matches the last one sent
// for this product.
func (p *CachedPublisher) PublishRating(ctx context.Context, shopID, productID string, agg domain.Aggregate) error {
	last, err := p.cache.LastPublished(ctx, shopID, productID)
	if err != nil {
		p.logger.WarnContext(ctx, "publish cache lookup failed, publishing anyway",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	} else if last != nil && *last == agg {
		p.logger.DebugContext(ctx, "aggregate unchanged, skipping catalog publish",
			slog.String("product_id", productID),
		)
		return nil
	}

	if err := p.inner.PublishRating(ctx, shopID, productID, agg); err != nil {
		return err
	}

	if err := p.cache.SetPublished(ctx, shopID, productID, agg); err != nil {
		p.logger.WarnContext(ctx, "failed to record published aggregate",
			slog.String("product_id", productID),
			slog.String("error", err.Error()),
		)
	}

	return nil
}
