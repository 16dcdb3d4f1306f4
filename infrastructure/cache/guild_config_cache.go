package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"quizbot/domain/entities"
	"quizbot/domain/interfaces"

	"github.com/go-redis/redis/v8"
	log "github.com/sirupsen/logrus"
)

// GuildConfigCache keeps guild configurations in redis between transactions
type GuildConfigCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewGuildConfigCache creates a cache whose entries live for ttl
func NewGuildConfigCache(client *redis.Client, ttl time.Duration) *GuildConfigCache {
	return &GuildConfigCache{client: client, ttl: ttl}
}

func configKey(guildID int64) string {
	return fmt.Sprintf("quizbot:guild_config:%d", guildID)
}

// Get returns the cached configuration, or nil on a miss
func (c *GuildConfigCache) Get(ctx context.Context, guildID int64) (*entities.GuildConfig, error) {
	data, err := c.client.Get(ctx, configKey(guildID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cached config for guild %d: %w", guildID, err)
	}

	var cfg entities.GuildConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to decode cached config for guild %d: %w", guildID, err)
	}
	return &cfg, nil
}

// Set stores the configuration
func (c *GuildConfigCache) Set(ctx context.Context, cfg *entities.GuildConfig) error {
	data, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config for guild %d: %w", cfg.GuildID, err)
	}
	if err := c.client.Set(ctx, configKey(cfg.GuildID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache config for guild %d: %w", cfg.GuildID, err)
	}
	return nil
}

// Invalidate drops the cached configuration
func (c *GuildConfigCache) Invalidate(ctx context.Context, guildID int64) error {
	if err := c.client.Del(ctx, configKey(guildID)).Err(); err != nil {
		return fmt.Errorf("failed to invalidate config for guild %d: %w", guildID, err)
	}
	return nil
}

// Wrap returns a repository that reads through the cache. Cache failures fall back to the
// database and are only logged.
func (c *GuildConfigCache) Wrap(repo interfaces.GuildConfigRepository, guildID int64) interfaces.GuildConfigRepository {
	return &cachedGuildConfigRepository{inner: repo, cache: c, guildID: guildID}
}

type cachedGuildConfigRepository struct {
	inner   interfaces.GuildConfigRepository
	cache   *GuildConfigCache
	guildID int64
}

func (r *cachedGuildConfigRepository) GetOrCreate(ctx context.Context) (*entities.GuildConfig, error) {
	cfg, err := r.cache.Get(ctx, r.guildID)
	if err != nil {
		log.WithFields(log.Fields{
			"guild_id": r.guildID,
			"error":    err,
		}).Warn("Guild config cache read failed")
	}
	if cfg != nil {
		return cfg, nil
	}

	cfg, err = r.inner.GetOrCreate(ctx)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(ctx, cfg); err != nil {
		log.WithFields(log.Fields{
			"guild_id": r.guildID,
			"error":    err,
		}).Warn("Guild config cache write failed")
	}
	return cfg, nil
}

func (r *cachedGuildConfigRepository) Update(ctx context.Context, cfg *entities.GuildConfig) error {
	if err := r.inner.Update(ctx, cfg); err != nil {
		return err
	}
	if err := r.cache.Invalidate(ctx, r.guildID); err != nil {
		log.WithFields(log.Fields{
			"guild_id": r.guildID,
			"error":    err,
		}).Warn("Guild config cache invalidation failed")
	}
	return nil
}
