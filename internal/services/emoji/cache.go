package emoji

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/zentra/emojimatch/internal/models"
	"github.com/zentra/emojimatch/pkg/database"
)

// CatalogCache holds the full, ordered catalog between mutations. A miss
// reports the current generation; Set stores the catalog only if no
// Invalidate happened since that generation was read.
type CatalogCache interface {
	Get(ctx context.Context) (emojis []models.Emoji, generation int64, ok bool)
	Set(ctx context.Context, generation int64, emojis []models.Emoji)
	Invalidate(ctx context.Context)
}

// RedisCatalogCache stores the catalog as one JSON value. Cache errors are
// logged and treated as misses.
type RedisCatalogCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCatalogCache(client *redis.Client, ttl time.Duration) *RedisCatalogCache {
	return &RedisCatalogCache{client: client, ttl: ttl}
}

func (c *RedisCatalogCache) Get(ctx context.Context) ([]models.Emoji, int64, bool) {
	gen, err := database.CacheGeneration(ctx, c.client, database.KeyEmojiCatalogGen)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read emoji catalog generation")
		return nil, -1, false
	}

	payload, ok, err := database.CacheGet(ctx, c.client, database.KeyEmojiCatalog)
	if err != nil {
		log.Warn().Err(err).Msg("Failed to read emoji catalog cache")
		return nil, gen, false
	}
	if !ok {
		return nil, gen, false
	}

	var emojis []models.Emoji
	if err := json.Unmarshal(payload, &emojis); err != nil {
		log.Warn().Err(err).Msg("Discarding corrupt emoji catalog cache")
		c.Invalidate(ctx)
		return nil, -1, false
	}
	return emojis, gen, true
}

func (c *RedisCatalogCache) Set(ctx context.Context, generation int64, emojis []models.Emoji) {
	if generation < 0 {
		return
	}
	payload, err := json.Marshal(emojis)
	if err != nil {
		return
	}
	err = database.CacheSetIfGeneration(ctx, c.client,
		database.KeyEmojiCatalog, database.KeyEmojiCatalogGen, generation, payload, c.ttl)
	switch {
	case errors.Is(err, database.ErrStaleCache):
		log.Debug().Int64("generation", generation).Msg("Skipped caching stale emoji catalog")
	case err != nil:
		log.Warn().Err(err).Msg("Failed to write emoji catalog cache")
	}
}

func (c *RedisCatalogCache) Invalidate(ctx context.Context) {
	if err := database.CacheInvalidate(ctx, c.client, database.KeyEmojiCatalog, database.KeyEmojiCatalogGen); err != nil {
		log.Warn().Err(err).Msg("Failed to invalidate emoji catalog cache")
	}
}
