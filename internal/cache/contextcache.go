package cache

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/studytrack-backend/internal/logger"
	"github.com/yungbote/studytrack-backend/internal/utils"
)

// ContextCache caches built personalization contexts in redis, keyed per
// user and invalidated on every reinforcement. Strictly best-effort: every
// failure is logged and treated as a miss. A nil *ContextCache is a no-op,
// so callers never need to branch on whether redis is configured.
type ContextCache struct {
	log *logger.Logger
	rdb *goredis.Client
	ttl time.Duration
}

func NewContextCache(log *logger.Logger) (*ContextCache, error) {
	addr := strings.TrimSpace(os.Getenv("REDIS_ADDR"))
	if addr == "" {
		return nil, fmt.Errorf("missing REDIS_ADDR")
	}

	rdb := goredis.NewClient(&goredis.Options{
		Addr:        addr,
		DialTimeout: 5 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	ttlSeconds := utils.GetEnvAsInt("CONTEXT_CACHE_TTL_SECONDS", 300, log)
	return &ContextCache{
		log: log.With("service", "ContextCache"),
		rdb: rdb,
		ttl: time.Duration(ttlSeconds) * time.Second,
	}, nil
}

func (c *ContextCache) Get(ctx context.Context, userID uuid.UUID) (string, bool) {
	if c == nil || userID == uuid.Nil {
		return "", false
	}
	val, err := c.rdb.Get(ctx, key(userID)).Result()
	if err != nil {
		if err != goredis.Nil {
			c.log.Warn("Context cache read failed", "error", err, "user_id", userID)
		}
		return "", false
	}
	return val, true
}

func (c *ContextCache) Set(ctx context.Context, userID uuid.UUID, personalization string) {
	if c == nil || userID == uuid.Nil {
		return
	}
	if err := c.rdb.Set(ctx, key(userID), personalization, c.ttl).Err(); err != nil {
		c.log.Warn("Context cache write failed", "error", err, "user_id", userID)
	}
}

func (c *ContextCache) Invalidate(ctx context.Context, userID uuid.UUID) {
	if c == nil || userID == uuid.Nil {
		return
	}
	if err := c.rdb.Del(ctx, key(userID)).Err(); err != nil {
		c.log.Warn("Context cache invalidation failed", "error", err, "user_id", userID)
	}
}

func (c *ContextCache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func key(userID uuid.UUID) string {
	return "studytrack:personalization:" + userID.String()
}
