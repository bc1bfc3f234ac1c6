package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/matzehuels/techtree/pkg/httputil"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisCache) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisCacheFromClient(client)
}

func TestRedisCache(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Hour))
	assert.True(t, mr.Exists("techtree:k"))

	data, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, []byte("v"), data)

	require.NoError(t, c.Delete(ctx, "k"))
	_, hit, _ = c.Get(ctx, "k")
	assert.False(t, hit)
}

func TestRedisCacheTTL(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Second))
	mr.FastForward(2 * time.Second)

	_, hit, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "forever", []byte("v"), 0))
	assert.Equal(t, time.Duration(0), mr.TTL("techtree:forever"))
}

func TestRedisCacheClear(t *testing.T) {
	mr, c := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("other:key", "x"))
	for _, k := range []string{"a", "b"} {
		require.NoError(t, c.Set(ctx, k, []byte(k), 0))
	}

	n, err := c.Clear(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.True(t, mr.Exists("other:key"))
}

func TestRedisCachePrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewRedisCacheFromClient(client, WithPrefix("colony:"))
	require.NoError(t, c.Set(context.Background(), "k", []byte("v"), 0))
	assert.True(t, mr.Exists("colony:k"))
	require.NoError(t, c.Close())
	assert.NoError(t, client.Ping(context.Background()).Err(), "Close must not close a borrowed client")
}

func TestNewRedisCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	ctx := context.Background()

	c, err := NewRedisCache(ctx, mr.Addr(), 0)
	require.NoError(t, err)
	require.NoError(t, c.Set(ctx, "k", []byte("v"), 0))
	require.NoError(t, c.Close())

	addr := mr.Addr()
	mr.Close()
	_, err = NewRedisCache(ctx, addr, 0)
	require.Error(t, err)
	assert.True(t, httputil.IsRetryable(err))
	assert.ErrorIs(t, err, ErrUnavailable)
}
