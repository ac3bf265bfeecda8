package cache

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisCache is an implementation of the Cache interface using Redis.
type RedisCache struct {
	client *redis.Client
	ctx    context.Context
	logger *zap.Logger
}

// NewRedisCacheConfig contains options for creating a new RedisCache.
type NewRedisCacheConfig struct {
	Address  string
	Password string
	DB       int
}

// NewRedisCache creates a new RedisCache and verifies connectivity with a
// ping before returning.
func NewRedisCache(cfg NewRedisCacheConfig, logger *zap.Logger) (Cache, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if _, err := rdb.Ping(ctx).Result(); err != nil {
		logger.Error("Failed to connect to Redis", zap.String("address", cfg.Address), zap.Error(err))
		return nil, err
	}

	logger.Info("Connected to Redis", zap.String("address", cfg.Address))
	return &RedisCache{client: rdb, ctx: ctx, logger: logger}, nil
}

// Get retrieves a value from Redis. A missing key returns an empty string and
// no error.
func (r *RedisCache) Get(key string) (string, error) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	} else if err != nil {
		r.logger.Warn("Redis GET failed", zap.String("key", key), zap.Error(err))
		return "", err
	}
	return val, nil
}

// Set stores a value in Redis.
func (r *RedisCache) Set(key string, value interface{}, expiration time.Duration) error {
	if err := r.client.Set(r.ctx, key, value, expiration).Err(); err != nil {
		r.logger.Warn("Redis SET failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}

// Delete removes a value from Redis.
func (r *RedisCache) Delete(key string) error {
	if err := r.client.Del(r.ctx, key).Err(); err != nil {
		r.logger.Warn("Redis DEL failed", zap.String("key", key), zap.Error(err))
		return err
	}
	return nil
}
