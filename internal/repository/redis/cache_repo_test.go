package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront-backend/pkg/clients"
	"github.com/DRSN-tech/storefront-backend/pkg/e"
	"github.com/DRSN-tech/storefront-backend/pkg/logger"
	"github.com/alicebob/miniredis/v2"
	r "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRepo(t *testing.T) (*CacheRepo, *miniredis.Miniredis) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := &clients.RedisClient{Client: r.NewClient(&r.Options{Addr: mr.Addr()})}
	t.Cleanup(func() { _ = client.Client.Close() })

	return NewCacheRepo(client, logger.Nop()), mr
}

func TestCacheRepoGetMiss(t *testing.T) {
	repo, _ := newTestRepo(t)

	_, err := repo.Get(context.Background(), "product-P1")
	assert.ErrorIs(t, err, e.ErrCacheMiss)
}

func TestCacheRepoSetGetWithTTL(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, repo.Set(ctx, "product-P1", []byte(`{"stock":10}`), time.Hour))

	got, err := repo.Get(ctx, "product-P1")
	require.NoError(t, err)
	assert.Equal(t, `{"stock":10}`, string(got))
	assert.Equal(t, time.Hour, mr.TTL("product-P1"))

	mr.FastForward(time.Hour + time.Second)

	_, err = repo.Get(ctx, "product-P1")
	assert.ErrorIs(t, err, e.ErrCacheMiss)
}

func TestCacheRepoDelete(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("product-P1", "1"))
	require.NoError(t, mr.Set("product-P2", "2"))

	require.NoError(t, repo.Delete(ctx, "product-P1", "absent"))
	require.NoError(t, repo.Delete(ctx))

	assert.False(t, mr.Exists("product-P1"))
	assert.True(t, mr.Exists("product-P2"))
}

func TestCacheRepoDeleteByPrefix(t *testing.T) {
	repo, mr := newTestRepo(t)
	ctx := context.Background()

	for i := 0; i < 3*scanBatch; i++ {
		require.NoError(t, mr.Set(fmt.Sprintf("products-shirt--%d", i), "x"))
	}
	require.NoError(t, mr.Set("product-P1", "keep"))
	require.NoError(t, mr.Set("latest-products", "keep"))

	require.NoError(t, repo.DeleteByPrefix(ctx, "products-"))

	assert.Equal(t, []string{"latest-products", "product-P1"}, mr.Keys())
}

func TestCacheRepoUnavailable(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := &clients.RedisClient{Client: r.NewClient(&r.Options{Addr: mr.Addr(), MaxRetries: -1})}
	t.Cleanup(func() { _ = client.Client.Close() })
	repo := NewCacheRepo(client, logger.Nop())
	mr.Close()

	_, err = repo.Get(context.Background(), "categories")
	require.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrCacheMiss)
}
