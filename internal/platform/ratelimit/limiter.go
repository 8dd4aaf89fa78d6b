package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Decision es el resultado de una consulta al limiter (ventana fija).
type Decision struct {
	Allowed   bool
	Count     int
	Limit     int
	Remaining int
	ResetAt   time.Time
}

type Limiter interface {
	Allow(ctx context.Context, key string, limit int) Decision
}

// -------------------------
// In-memory (dev / fallback)
// -------------------------

type window struct {
	count   int
	resetAt time.Time
}

type InMemoryLimiter struct {
	mu      sync.Mutex
	window  time.Duration
	buckets map[string]window
	now     func() time.Time
}

func NewInMemory(w time.Duration) *InMemoryLimiter {
	if w <= 0 {
		w = time.Minute
	}
	return &InMemoryLimiter{
		window:  w,
		buckets: make(map[string]window),
		now:     time.Now,
	}
}

func (l *InMemoryLimiter) Allow(_ context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	b, ok := l.buckets[key]
	if !ok || !now.Before(b.resetAt) {
		b = window{count: 0, resetAt: now.Add(l.window)}
	}
	b.count++
	l.buckets[key] = b

	// limpieza oportunista para que el mapa no crezca sin límite
	if len(l.buckets) > 10000 {
		for k, v := range l.buckets {
			if !now.Before(v.resetAt) {
				delete(l.buckets, k)
			}
		}
	}

	return decide(b.count, limit, b.resetAt)
}

// -------------------------
// Redis (ventana fija con INCR + PEXPIRE)
// -------------------------

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("PTTL", KEYS[1])
return {current, ttl}
`)

type RedisLimiter struct {
	Client   *redis.Client
	Window   time.Duration
	Prefix   string
	Fallback *InMemoryLimiter
}

func NewRedis(client *redis.Client, w time.Duration) *RedisLimiter {
	if w <= 0 {
		w = time.Minute
	}
	return &RedisLimiter{
		Client:   client,
		Window:   w,
		Prefix:   "wcu:rl:",
		Fallback: NewInMemory(w),
	}
}

// Allow nunca falla: si Redis no responde se usa el fallback en memoria.
func (l *RedisLimiter) Allow(ctx context.Context, key string, limit int) Decision {
	if limit <= 0 {
		limit = 1
	}
	if l.Client == nil {
		return l.Fallback.Allow(ctx, key, limit)
	}

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	res, err := rateLimitScript.Run(ctx, l.Client, []string{l.Prefix + key}, l.Window.Milliseconds()).Result()
	if err != nil {
		return l.Fallback.Allow(ctx, key, limit)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) < 2 {
		return l.Fallback.Allow(ctx, key, limit)
	}
	count, _ := vals[0].(int64)
	ttlMs, _ := vals[1].(int64)
	if ttlMs < 0 {
		ttlMs = l.Window.Milliseconds()
	}
	return decide(int(count), limit, time.Now().UTC().Add(time.Duration(ttlMs)*time.Millisecond))
}

// Open crea el cliente Redis desde una URL (redis://...). URL vacía => nil.
func Open(ctx context.Context, url string) (*redis.Client, error) {
	if url == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	c := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := c.Ping(pingCtx).Err(); err != nil {
		_ = c.Close()
		return nil, err
	}
	return c, nil
}

func decide(count, limit int, resetAt time.Time) Decision {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= limit,
		Count:     count,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
}
