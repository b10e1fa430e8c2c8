package store

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"playerservice/internal/platform/redis"
	"playerservice/internal/profile"
)

// Cached decorates a Store with a read-through Redis cache for profile
// snapshots. The cache is never authoritative: any Redis failure is logged
// and the call falls back to the inner store, and every write path
// invalidates before returning.
type Cached struct {
	inner  Store
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

const defaultCacheTTL = 5 * time.Minute

func NewCached(inner Store, client *redis.Client, logger *slog.Logger) *Cached {
	return &Cached{
		inner:  inner,
		client: client,
		ttl:    defaultCacheTTL,
		logger: logger,
	}
}

// cacheEntry carries the version alongside the snapshot so a cached read can
// still drive an optimistic update.
type cacheEntry struct {
	Profile profile.PlayerProfile `json:"profile"`
	Version int64                 `json:"version"`
}

func cacheKey(playerID uuid.UUID) string {
	return "profile:" + playerID.String()
}

func (c *Cached) Get(ctx context.Context, playerID uuid.UUID) (profile.PlayerProfile, error) {
	key := cacheKey(playerID)

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var entry cacheEntry
		if err := json.Unmarshal(raw, &entry); err == nil {
			entry.Profile.Version = entry.Version
			return entry.Profile, nil
		}
		c.logger.WarnContext(ctx, "dropping undecodable cache entry", "key", key)
		c.invalidate(ctx, playerID)
	}

	p, err := c.inner.Get(ctx, playerID)
	if err != nil {
		return profile.PlayerProfile{}, err
	}

	if raw, err := json.Marshal(cacheEntry{Profile: p, Version: p.Version}); err == nil {
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			c.logger.WarnContext(ctx, "failed to populate profile cache", "key", key, "error", err)
		}
	}
	return p, nil
}

func (c *Cached) Insert(ctx context.Context, p profile.PlayerProfile) error {
	if err := c.inner.Insert(ctx, p); err != nil {
		return err
	}
	c.invalidate(ctx, p.PlayerID)
	return nil
}

func (c *Cached) Update(ctx context.Context, p profile.PlayerProfile) error {
	if err := c.inner.Update(ctx, p); err != nil {
		if errors.Is(err, ErrConflict) || errors.Is(err, ErrNotFound) {
			// The cached snapshot is behind the inner store; drop it so a
			// retry re-reads fresh state instead of losing the same race.
			c.invalidate(ctx, p.PlayerID)
		}
		return err
	}
	c.invalidate(ctx, p.PlayerID)
	return nil
}

func (c *Cached) Delete(ctx context.Context, playerID uuid.UUID) error {
	if err := c.inner.Delete(ctx, playerID); err != nil {
		return err
	}
	c.invalidate(ctx, playerID)
	return nil
}

func (c *Cached) invalidate(ctx context.Context, playerID uuid.UUID) {
	if err := c.client.Del(ctx, cacheKey(playerID)).Err(); err != nil {
		c.logger.WarnContext(ctx, "failed to invalidate profile cache",
			"player_id", playerID,
			"error", err,
		)
	}
}
