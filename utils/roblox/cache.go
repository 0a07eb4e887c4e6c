package roblox

import (
	"fmt"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

const (
	profileTTL    = 10 * time.Minute
	localCacheTTL = time.Minute
)

// NewProfileCache caches profiles and avatars in-process, and in Redis when rdb is not nil.
func NewProfileCache(rdb *redis.Client) *cache.Cache {
	opts := &cache.Options{
		LocalCache: cache.NewTinyLFU(1000, localCacheTTL),
	}
	if rdb != nil {
		opts.Redis = rdb
	}
	return cache.New(opts)
}

// NewRedisClient parses a redis:// URL. An empty URL disables Redis.
func NewRedisClient(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

func profileKey(userID string) string { return "roblox:profile:" + userID }
func avatarKey(userID string) string  { return "roblox:avatar:" + userID }
