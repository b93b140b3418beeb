package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const unreadTTL = 24 * time.Hour

// UnreadCache keeps per-recipient unread counters in Redis so the badge
// count doesn't hit Postgres on every poll. The store stays authoritative:
// on a miss the caller recounts and reseeds.
type UnreadCache struct {
	redisClient *redis.Client
	logger      *slog.Logger
}

func NewUnreadCache(redisClient *redis.Client, logger *slog.Logger) *UnreadCache {
	return &UnreadCache{redisClient: redisClient, logger: logger}
}

func unreadKey(userID string) string {
	return fmt.Sprintf("unread:%s", userID)
}

// IncrUnread bumps the counter after a notification is created. Only an
// existing counter is touched; a missing one stays missing until the next
// recount, so a stale zero is never fabricated.
func (c *UnreadCache) IncrUnread(ctx context.Context, userID string) {
	key := unreadKey(userID)

	exists, err := c.redisClient.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}

	if err := c.redisClient.Incr(ctx, key).Err(); err != nil {
		c.logger.Warn("failed to bump unread counter", "error", err, "user_id", userID)
	}
}

// DecrUnread lowers the counter after a notification is marked read.
func (c *UnreadCache) DecrUnread(ctx context.Context, userID string) {
	key := unreadKey(userID)

	exists, err := c.redisClient.Exists(ctx, key).Result()
	if err != nil || exists == 0 {
		return
	}

	n, err := c.redisClient.Decr(ctx, key).Result()
	if err != nil {
		c.logger.Warn("failed to lower unread counter", "error", err, "user_id", userID)
		return
	}
	if n < 0 {
		c.redisClient.Set(ctx, key, 0, unreadTTL)
	}
}

// GetUnread returns the cached counter. ok is false on a miss or a Redis
// error; the caller should recount from the store and Seed.
func (c *UnreadCache) GetUnread(ctx context.Context, userID string) (int, bool) {
	n, err := c.redisClient.Get(ctx, unreadKey(userID)).Int()
	if err != nil {
		return 0, false
	}
	return n, true
}

// Seed stores a freshly counted value.
func (c *UnreadCache) Seed(ctx context.Context, userID string, count int) {
	if err := c.redisClient.Set(ctx, unreadKey(userID), count, unreadTTL).Err(); err != nil {
		c.logger.Warn("failed to seed unread counter", "error", err, "user_id", userID)
	}
}
