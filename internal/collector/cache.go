package collector

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores encoded price histories with a TTL.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration)
}

// sweepInterval bounds how often Set scans for expired entries.
const sweepInterval = time.Minute

type memoryCache struct {
	mu        sync.Mutex
	m         map[string]entry
	now       func() time.Time
	lastSweep time.Time
}

type entry struct {
	b   []byte
	exp time.Time
}

// NewMemoryCache returns a process-local cache.
func NewMemoryCache() Cache {
	return &memoryCache{m: make(map[string]entry), now: time.Now}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.m[key]
	if !ok {
		return nil, false
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		delete(c.m, key)
		return nil, false
	}
	return e.b, true
}

func (c *memoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	if now.Sub(c.lastSweep) >= sweepInterval {
		for k, e := range c.m {
			if !e.exp.IsZero() && now.After(e.exp) {
				delete(c.m, k)
			}
		}
		c.lastSweep = now
	}
	e := entry{b: append([]byte(nil), val...)}
	if ttl > 0 {
		e.exp = now.Add(ttl)
	}
	c.m[key] = e
}

// RedisCache stores entries in Redis. Failures degrade to cache misses.
type RedisCache struct {
	r       *redis.Client
	timeout time.Duration
}

// NewRedisCache connects to addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{
		r:       redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db}),
		timeout: 500 * time.Millisecond,
	}
}

// Ping checks connectivity.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.r.Ping(ctx).Err()
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	v, err := r.r.Get(ctx, key).Bytes()
	if err != nil {
		return nil, false
	}
	return v, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	_ = r.r.Set(ctx, key, val, ttl).Err()
}

// Close releases the connection pool.
func (r *RedisCache) Close() error { return r.r.Close() }
