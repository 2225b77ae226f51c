package server

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// DefaultCacheTTL is used when a Cache is created with a non-positive TTL.
const DefaultCacheTTL = time.Hour

// Cache keeps JSON responses of GET queries in Redis.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewCache wraps client; keys are namespaced by prefix so that servers of
// different indexes can share one Redis database.
func NewCache(client *redis.Client, prefix string, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Cache{client: client, prefix: prefix, ttl: ttl}
}

// OpenRedis returns a client for addr, or nil when addr is empty.
func OpenRedis(addr, password string, db int) *redis.Client {
	if addr == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
}

// key joins the route and its canonical parameters. Coordinates keep full
// precision since rounding would change the answer near boundaries.
func (c *Cache) key(route string, values ...float64) string {
	if c == nil {
		return ""
	}
	parts := make([]string, 0, len(values)+2)
	parts = append(parts, c.prefix, route)
	for _, v := range values {
		parts = append(parts, strconv.FormatFloat(v, 'g', -1, 64))
	}
	return strings.Join(parts, ":")
}

func (c *Cache) get(ctx context.Context, key string, logger zerolog.Logger) ([]Stop, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Warn().Err(err).Str("key", key).Msg("Cache read failed")
		}
		return nil, false
	}
	var stops []Stop
	if err := json.Unmarshal(data, &stops); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache entry corrupt")
		return nil, false
	}
	return stops, true
}

func (c *Cache) set(ctx context.Context, key string, stops []Stop, logger zerolog.Logger) {
	if c == nil {
		return
	}
	data, err := json.Marshal(stops)
	if err != nil {
		return
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		logger.Warn().Err(err).Str("key", key).Msg("Cache write failed")
	}
}
