// Package cache holds the Redis-backed identity cache consulted by the auth
// middleware before it falls back to the user store.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/iliyamo/videohub-auth/internal/config"
	"github.com/iliyamo/videohub-auth/internal/model"
)

// UserLoader loads a user by id from the system of record.
type UserLoader interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// IdentityCache serves stripped user profiles by id. Only PublicUser is
// cached, so neither the password hash nor the refresh token digest ever
// reaches Redis. Redis failures are logged and the loader is used instead.
type IdentityCache struct {
	rdb    *redis.Client
	loader UserLoader
	ttl    time.Duration
	prefix string
	log    *zap.Logger
}

// NewIdentityCache wraps loader. When the cache is disabled or rdb is nil the
// returned cache passes every lookup straight to loader.
func NewIdentityCache(cfg config.CacheConfig, rdb *redis.Client, loader UserLoader, log *zap.Logger) *IdentityCache {
	if log == nil {
		log = zap.NewNop()
	}
	if !cfg.Enabled {
		rdb = nil
	}
	return &IdentityCache{rdb: rdb, loader: loader, ttl: cfg.TTL, prefix: cfg.Prefix, log: log}
}

// GetIdentity returns the public profile of user id. Loader errors (including
// the repository's not-found sentinel) are returned unchanged.
func (c *IdentityCache) GetIdentity(ctx context.Context, id uint64) (model.PublicUser, error) {
	if c.rdb == nil {
		u, err := c.loader.GetByID(ctx, id)
		if err != nil {
			return model.PublicUser{}, err
		}
		return u.Public(), nil
	}

	key := c.key(id)
	if bs, err := c.rdb.Get(ctx, key).Bytes(); err == nil {
		var pu model.PublicUser
		if jerr := json.Unmarshal(bs, &pu); jerr == nil {
			return pu, nil
		}
		c.log.Warn("identity cache: dropping undecodable entry", zap.String("key", key))
		_ = c.rdb.Del(ctx, key).Err()
	} else if !errors.Is(err, redis.Nil) {
		c.log.Warn("identity cache: get failed", zap.String("key", key), zap.Error(err))
	}

	u, err := c.loader.GetByID(ctx, id)
	if err != nil {
		return model.PublicUser{}, err
	}
	pu := u.Public()
	if bs, err := json.Marshal(pu); err == nil {
		if err := c.rdb.Set(ctx, key, bs, c.ttl).Err(); err != nil {
			c.log.Warn("identity cache: set failed", zap.String("key", key), zap.Error(err))
		}
	}
	return pu, nil
}

// Invalidate drops the cached profile of user id.
func (c *IdentityCache) Invalidate(ctx context.Context, id uint64) {
	if c.rdb == nil {
		return
	}
	if err := c.rdb.Del(ctx, c.key(id)).Err(); err != nil {
		c.log.Warn("identity cache: invalidate failed", zap.Uint64("user_id", id), zap.Error(err))
	}
}

func (c *IdentityCache) key(id uint64) string {
	return c.prefix + ":user:" + strconv.FormatUint(id, 10)
}
