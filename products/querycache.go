package products

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ResultCache stores search results per query fingerprint, so distinct searches
// inside one freshness window do not all share the single products table.
type ResultCache interface {
	// Get returns the cached result and true on a hit.
	Get(ctx context.Context, fingerprint string) ([]Product, bool, error)
	Set(ctx context.Context, fingerprint string, products []Product) error
}

const resultCachePrefix = "catalog:search:"

// RedisResultCache keeps JSON-encoded result sets in Redis with a fixed TTL.
type RedisResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisResultCache creates a result cache whose entries expire after ttl.
func NewRedisResultCache(client *redis.Client, ttl time.Duration) *RedisResultCache {
	return &RedisResultCache{client: client, ttl: ttl}
}

func (c *RedisResultCache) key(fingerprint string) string {
	return resultCachePrefix + fingerprint
}

// Get looks up a result set. A missing key is a miss, not an error.
func (c *RedisResultCache) Get(ctx context.Context, fingerprint string) ([]Product, bool, error) {
	raw, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var products []Product
	if err := json.Unmarshal(raw, &products); err != nil {
		return nil, false, fmt.Errorf("decode cached result: %w", err)
	}
	if products == nil {
		products = []Product{}
	}
	return products, true, nil
}

// Set stores a result set under its fingerprint.
func (c *RedisResultCache) Set(ctx context.Context, fingerprint string, products []Product) error {
	if products == nil {
		products = []Product{}
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, c.key(fingerprint), raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}
