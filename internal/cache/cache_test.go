package cache_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog/internal/cache"
	"catalog/internal/models"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCache(t *testing.T) (*cache.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return cache.New(client, time.Minute, nil), mr
}

type countingLoader struct {
	calls    int
	products []models.Product
}

func (l *countingLoader) load(context.Context) ([]models.Product, error) {
	l.calls++
	return l.products, nil
}

func TestFetchProducts_ServesFromCacheUntilBump(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()
	loader := &countingLoader{products: []models.Product{{ID: 1, Name: "Laptop", Price: 999.99}}}

	first, err := c.FetchProducts(ctx, "all", loader.load)
	require.NoError(t, err)
	second, err := c.FetchProducts(ctx, "all", loader.load)
	require.NoError(t, err)

	assert.Equal(t, 1, loader.calls)
	require.Len(t, second, 1)
	assert.Equal(t, first[0].Name, second[0].Name)
	assert.Equal(t, 999.99, second[0].Price)

	require.NoError(t, c.Bump(ctx))
	_, err = c.FetchProducts(ctx, "all", loader.load)
	require.NoError(t, err)
	assert.Equal(t, 2, loader.calls)
}

func TestBuildKey_IncludesVersion(t *testing.T) {
	c, _ := newCache(t)
	ctx := context.Background()

	key, err := c.BuildKey(ctx, "search", "mouse")
	require.NoError(t, err)
	assert.Equal(t, "catalog:products:search:mouse:v1", key)

	require.NoError(t, c.Bump(ctx))
	key, err = c.BuildKey(ctx, "search", "mouse")
	require.NoError(t, err)
	assert.Equal(t, "catalog:products:search:mouse:v2", key)
}

func TestFetchProducts_FallsBackWhenRedisIsDown(t *testing.T) {
	c, mr := newCache(t)
	mr.Close()
	loader := &countingLoader{products: []models.Product{{ID: 2, Name: "Mouse"}}}

	products, err := c.FetchProducts(context.Background(), "all", loader.load)
	require.NoError(t, err)
	assert.Len(t, products, 1)
	assert.Equal(t, 1, loader.calls)
}

func TestFetchProducts_LoaderErrorIsReturned(t *testing.T) {
	c, _ := newCache(t)
	boom := errors.New("db down")

	_, err := c.FetchProducts(context.Background(), "all", func(context.Context) ([]models.Product, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)
}

func TestNilCache_CallsLoader(t *testing.T) {
	var c *cache.Cache
	loader := &countingLoader{}

	_, err := c.FetchProducts(context.Background(), "all", loader.load)
	require.NoError(t, err)
	assert.Equal(t, 1, loader.calls)
	assert.NoError(t, c.Bump(context.Background()))
}
