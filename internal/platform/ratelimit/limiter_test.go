package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemory_AllowsUpToLimitThenResets(t *testing.T) {
	l := NewInMemory(time.Minute)
	now := time.Date(2025, 12, 22, 10, 0, 0, 0, time.UTC)
	l.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		d := l.Allow(ctx, "ip:1", 3)
		require.True(t, d.Allowed, "request %d", i+1)
	}
	d := l.Allow(ctx, "ip:1", 3)
	assert.False(t, d.Allowed)
	assert.Equal(t, 0, d.Remaining)

	// otra key no se ve afectada
	assert.True(t, l.Allow(ctx, "ip:2", 3).Allowed)

	now = now.Add(time.Minute)
	assert.True(t, l.Allow(ctx, "ip:1", 3).Allowed)
}

func TestRedis_NilClientUsesFallback(t *testing.T) {
	l := NewRedis(nil, 0)
	assert.Equal(t, time.Minute, l.Window)
	assert.Equal(t, "wcu:rl:", l.Prefix)
	assert.True(t, l.Allow(context.Background(), "k", 1).Allowed)
	assert.False(t, l.Allow(context.Background(), "k", 1).Allowed)
}

func TestRedis_CountsInRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	l := NewRedis(client, time.Minute)
	ctx := context.Background()

	d1 := l.Allow(ctx, "ip:9", 2)
	d2 := l.Allow(ctx, "ip:9", 2)
	d3 := l.Allow(ctx, "ip:9", 2)

	assert.True(t, d1.Allowed)
	assert.True(t, d2.Allowed)
	assert.False(t, d3.Allowed)
	assert.Equal(t, 3, d3.Count)

	v, err := mr.Get("wcu:rl:ip:9")
	require.NoError(t, err)
	assert.Equal(t, "3", v)
	assert.True(t, mr.TTL("wcu:rl:ip:9") > 0)
}

func TestRedis_FallsBackWhenRedisDown(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	mr.Close()

	l := NewRedis(client, time.Minute)
	assert.True(t, l.Allow(context.Background(), "k", 1).Allowed)
}
