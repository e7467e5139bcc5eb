package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type payload struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func TestMemoryCache_SetGetDelete(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer c.Stop()
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "k", payload{ID: "1", Name: "Ana"}, 0))

	var got payload
	hit, err := c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, payload{ID: "1", Name: "Ana"}, got)

	require.NoError(t, c.Delete(ctx, "k"))
	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestMemoryCache_Expiry(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer c.Stop()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, "short", 1, 10*time.Second))
	require.NoError(t, c.Set(ctx, "default", 2, 0))

	now = now.Add(11 * time.Second)
	var v int
	hit, _ := c.Get(ctx, "short", &v)
	assert.False(t, hit)
	hit, _ = c.Get(ctx, "default", &v)
	assert.True(t, hit)
	assert.Equal(t, 2, v)

	c.purgeExpired()
	assert.Equal(t, 1, c.Len())
}

func TestMemoryCache_StopIsIdempotent(t *testing.T) {
	c := NewMemoryCache(time.Minute, time.Millisecond)
	c.Stop()
	c.Stop()
}

func TestKey(t *testing.T) {
	assert.Equal(t, "todolab:todo:abc", Key("todo", "abc"))
}

// fakeRedis implementa solo los comandos que usa RedisCache.
type fakeRedis struct {
	redis.Cmdable
	data    map[string]string
	lastTTL time.Duration
	getErr  error
}

func (f *fakeRedis) Get(_ context.Context, key string) *redis.StringCmd {
	if f.getErr != nil {
		return redis.NewStringResult("", f.getErr)
	}
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeRedis) Set(_ context.Context, key string, value interface{}, ttl time.Duration) *redis.StatusCmd {
	f.data[key] = string(value.([]byte))
	f.lastTTL = ttl
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeRedis) Del(_ context.Context, keys ...string) *redis.IntCmd {
	for _, k := range keys {
		delete(f.data, k)
	}
	return redis.NewIntResult(int64(len(keys)), nil)
}

func TestRedisCache(t *testing.T) {
	rdb := &fakeRedis{data: map[string]string{}}
	c := NewRedisCache(rdb, 5*time.Minute)
	ctx := context.Background()

	var got payload
	hit, err := c.Get(ctx, "missing", &got)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "k", payload{ID: "7"}, 0))
	assert.Equal(t, 5*time.Minute, rdb.lastTTL)
	assert.JSONEq(t, `{"id":"7","name":""}`, rdb.data["k"])

	hit, err = c.Get(ctx, "k", &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "7", got.ID)

	require.NoError(t, c.Delete(ctx, "k"))
	assert.Empty(t, rdb.data)

	rdb.getErr = errors.New("i/o timeout")
	_, err = c.Get(ctx, "k", &got)
	assert.ErrorContains(t, err, "i/o timeout")
}

func TestSetAsyncAndInvalidate(t *testing.T) {
	c := NewMemoryCache(time.Minute, 0)
	defer c.Stop()
	log := zap.NewNop()

	SetAsync(c, "k", "v", 0, log)
	assert.Eventually(t, func() bool {
		var s string
		hit, _ := c.Get(context.Background(), "k", &s)
		return hit && s == "v"
	}, time.Second, 5*time.Millisecond)

	Invalidate(context.Background(), c, "k", log)
	assert.Equal(t, 0, c.Len())

	// sin caché configurada no hace nada
	SetAsync(nil, "k", "v", 0, log)
	Invalidate(context.Background(), nil, "k", log)
}

func TestRedisCache_Miniredis(t *testing.T) {
	mr := miniredis.RunT(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, mr.Addr(), "", 0)
	require.NoError(t, err)
	defer client.Close()
	c := NewRedisCache(client, time.Minute)

	require.NoError(t, c.Set(ctx, Key("todo", "1"), payload{ID: "1", Name: "pan"}, 0))
	assert.Equal(t, time.Minute, mr.TTL("todolab:todo:1"))

	var got payload
	hit, err := c.Get(ctx, Key("todo", "1"), &got)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "pan", got.Name)

	mr.FastForward(2 * time.Minute)
	hit, err = c.Get(ctx, Key("todo", "1"), &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestNewRedisClient_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedisClient(context.Background(), addr, "", 0)
	assert.Error(t, err)
}
