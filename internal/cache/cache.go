package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog/internal/logger"
	"catalog/internal/models"

	"github.com/redis/go-redis/v9"
)

const (
	versionKey = "catalog:products:version"
	keyPrefix  = "catalog:products"
)

// Connect opens a Redis client and verifies it answers PING.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("cache: ping %s: %w", addr, err)
	}
	return client, nil
}

// Cache stores list and search results under versioned keys. Bump makes every
// previously written key unreachable; stale entries expire through the TTL.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// New instantiates the cache helper. A nil client disables caching.
func New(client *redis.Client, ttl time.Duration, log *logger.Logger) *Cache {
	if log == nil {
		log = logger.NewNop()
	}
	return &Cache{client: client, ttl: ttl, log: log}
}

// Version returns the current cache version, initialising when missing.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	if c == nil || c.client == nil {
		return 0, nil
	}
	ver, err := c.client.Get(ctx, versionKey).Int64()
	if errors.Is(err, redis.Nil) {
		if err := c.client.SetNX(ctx, versionKey, 1, 0).Err(); err != nil {
			return 0, err
		}
		return c.client.Get(ctx, versionKey).Int64()
	}
	if err != nil {
		return 0, err
	}
	return ver, nil
}

// BuildKey composes the cache key with the current version.
func (c *Cache) BuildKey(ctx context.Context, parts ...string) (string, error) {
	joined := strings.Join(append([]string{keyPrefix}, parts...), ":")
	if c == nil || c.client == nil {
		return joined, nil
	}
	ver, err := c.Version(ctx)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:v%d", joined, ver), nil
}

// FetchProducts returns the cached list for key or fills it from loader.
// Redis failures degrade to calling loader directly.
func (c *Cache) FetchProducts(ctx context.Context, key string, loader func(context.Context) ([]models.Product, error)) ([]models.Product, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}
	full, err := c.BuildKey(ctx, key)
	if err != nil {
		c.log.Warn("cache unavailable", logger.Fields{"error": err.Error()})
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, full).Bytes()
	if err == nil {
		var products []models.Product
		if err := json.Unmarshal(payload, &products); err == nil {
			return products, nil
		}
		c.log.Warn("discarding unreadable cache entry", logger.Fields{"key": full})
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("cache read failed", logger.Fields{"key": full, "error": err.Error()})
		return loader(ctx)
	}

	products, err := loader(ctx)
	if err != nil {
		return nil, err
	}
	raw, err := json.Marshal(products)
	if err != nil {
		return products, nil
	}
	if err := c.client.Set(ctx, full, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", logger.Fields{"key": full, "error": err.Error()})
	}
	return products, nil
}

// Bump invalidates every cached result by incrementing the version.
func (c *Cache) Bump(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Incr(ctx, versionKey).Err()
}
