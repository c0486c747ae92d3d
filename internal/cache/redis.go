package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Config holds the redis connection settings
type Config struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// WeightCache caches device body weights in redis
type WeightCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewWeightCache connects to redis and verifies the connection
func NewWeightCache(ctx context.Context, cfg Config) (*WeightCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error connecting to redis at %s: %w", cfg.Addr, err)
	}
	return NewWeightCacheFromClient(client, cfg.TTL), nil
}

// NewWeightCacheFromClient wraps an existing client
func NewWeightCacheFromClient(client *redis.Client, ttl time.Duration) *WeightCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &WeightCache{client: client, ttl: ttl}
}

func weightKey(deviceID string) string {
	return "activity:weight:" + deviceID
}

// GetWeight returns the cached weight; ok is false on a miss
func (c *WeightCache) GetWeight(ctx context.Context, deviceID string) (float64, bool, error) {
	w, err := c.client.Get(ctx, weightKey(deviceID)).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("failed to read cached weight: %w", err)
	}
	return w, true, nil
}

// SetWeight stores a weight for the configured TTL
func (c *WeightCache) SetWeight(ctx context.Context, deviceID string, kg float64) error {
	if err := c.client.Set(ctx, weightKey(deviceID), kg, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache weight: %w", err)
	}
	return nil
}

// Invalidate drops a device's cached weight
func (c *WeightCache) Invalidate(ctx context.Context, deviceID string) error {
	if err := c.client.Del(ctx, weightKey(deviceID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cached weight: %w", err)
	}
	return nil
}

// Close closes the redis client
func (c *WeightCache) Close() error {
	return c.client.Close()
}
