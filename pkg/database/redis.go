package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

func NewRedisClient(redisURL string) (*redis.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Info().Msg("Connected to Redis")

	return client, nil
}

func CloseRedis(client *redis.Client) {
	if err := client.Close(); err != nil {
		log.Error().Err(err).Msg("Error closing Redis connection")
		return
	}
	log.Info().Msg("Closed Redis connection")
}

// Redis key prefixes for organization
const (
	KeyPrefixRateLimit = "ratelimit:"
	KeyEmojiCatalog    = "emojis:catalog"
	KeyEmojiCatalogGen = "emojis:catalog:gen"
	ChannelBroadcast   = "websocket:broadcast"
)

// IncrementRateLimit bumps a fixed-window counter and returns the new count
func IncrementRateLimit(ctx context.Context, client *redis.Client, key string, window time.Duration) (int64, error) {
	fullKey := KeyPrefixRateLimit + key
	pipe := client.Pipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.Expire(ctx, fullKey, window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

// CacheGet returns the raw cached payload for key. A miss is (nil, false, nil).
func CacheGet(ctx context.Context, client *redis.Client, key string) ([]byte, bool, error) {
	val, err := client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

// ErrStaleCache is returned when a guarded write lost a race with an invalidation
var ErrStaleCache = errors.New("cache generation changed")

// CacheGeneration reads the invalidation counter for a cached value. A missing
// counter is generation 0.
func CacheGeneration(ctx context.Context, client *redis.Client, genKey string) (int64, error) {
	gen, err := client.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// CacheSetIfGeneration writes payload only while genKey still holds gen. The
// WATCH makes a concurrent CacheInvalidate abort the write.
func CacheSetIfGeneration(ctx context.Context, client *redis.Client, key, genKey string, gen int64, payload []byte, ttl time.Duration) error {
	err := client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != gen {
			return ErrStaleCache
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, payload, ttl)
			return nil
		})
		return err
	}, genKey)
	if errors.Is(err, redis.TxFailedErr) {
		return ErrStaleCache
	}
	return err
}

// CacheInvalidate bumps the generation and drops the cached value
func CacheInvalidate(ctx context.Context, client *redis.Client, key, genKey string) error {
	pipe := client.TxPipeline()
	pipe.Incr(ctx, genKey)
	pipe.Del(ctx, key)
	_, err := pipe.Exec(ctx)
	return err
}

// Pub/Sub for real-time events
func Publish(ctx context.Context, client *redis.Client, channel string, message interface{}) error {
	return client.Publish(ctx, channel, message).Err()
}

func Subscribe(ctx context.Context, client *redis.Client, channels ...string) *redis.PubSub {
	return client.Subscribe(ctx, channels...)
}
