package cache

import (
	"fmt"
	"time"
)

// Backend types.
const (
	TypeMemory = "memory"
	TypeRedis  = "redis"
)

// Options selects and configures a cache backend.
type Options struct {
	Type          string
	TTL           time.Duration
	SweepInterval time.Duration
	RedisURL      string
	RedisPrefix   string
}

// New builds the configured cache. An empty type selects the memory store.
func New(opts Options) (Cache, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	switch opts.Type {
	case "", TypeMemory:
		return NewMemoryCache(ttl, opts.SweepInterval), nil
	case TypeRedis:
		if opts.RedisURL == "" {
			return nil, fmt.Errorf("cache type %q requires a redis url", TypeRedis)
		}
		return NewRedisCache(RedisConfig{URL: opts.RedisURL, Prefix: opts.RedisPrefix, TTL: ttl})
	default:
		return nil, fmt.Errorf("unknown cache type %q", opts.Type)
	}
}
