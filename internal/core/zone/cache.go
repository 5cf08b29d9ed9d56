package zone

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taibuivan/atelier/internal/platform/constants"
)

// Cache holds zone records by (page, name) for the render path. A miss is
// (nil, nil). Callers treat cache errors as misses.
type Cache interface {
	Get(context context.Context, pagePath, name string) (*Zone, error)
	Set(context context.Context, zone *Zone) error
	Invalidate(context context.Context, pagePath, name string) error
}

// CacheKey is the Redis key of a zone record.
func CacheKey(pagePath, name string) string {
	return constants.RedisPrefixZone + pagePath + "#" + name
}

// # Redis

// RedisCache implements [Cache] with JSON values and a fixed TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = constants.DefaultZoneCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (cache *RedisCache) Get(context context.Context, pagePath, name string) (*Zone, error) {
	raw, err := cache.client.Get(context, CacheKey(pagePath, name)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("redis_zone_get_failed: %w", err)
	}

	var zone Zone
	if err := json.Unmarshal(raw, &zone); err != nil {
		return nil, fmt.Errorf("redis_zone_decode_failed: %w", err)
	}
	return &zone, nil
}

func (cache *RedisCache) Set(context context.Context, zone *Zone) error {
	raw, err := json.Marshal(zone)
	if err != nil {
		return fmt.Errorf("redis_zone_encode_failed: %w", err)
	}

	if err := cache.client.Set(context, CacheKey(zone.PagePath, zone.Name), raw, cache.ttl).Err(); err != nil {
		return fmt.Errorf("redis_zone_set_failed: %w", err)
	}
	return nil
}

func (cache *RedisCache) Invalidate(context context.Context, pagePath, name string) error {
	if err := cache.client.Del(context, CacheKey(pagePath, name)).Err(); err != nil {
		return fmt.Errorf("redis_zone_delete_failed: %w", err)
	}
	return nil
}

// # Disabled

// NoCache is used when no Redis URL is configured.
type NoCache struct{}

func (NoCache) Get(context.Context, string, string) (*Zone, error) { return nil, nil }
func (NoCache) Set(context.Context, *Zone) error                   { return nil }
func (NoCache) Invalidate(context.Context, string, string) error   { return nil }
