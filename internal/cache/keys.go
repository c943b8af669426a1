package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	UserKeyPrefix    = "user:%d"
	CommunityFeedKey = "community:feed"
)

const (
	UserTTL          = 5 * time.Minute
	CommunityFeedTTL = 30 * time.Second
)

func UserKey(userID int64) string {
	return fmt.Sprintf(UserKeyPrefix, userID)
}

// GetJSON loads and decodes a cached value into dest. Returns false on
// a miss or when Redis is unavailable.
func GetJSON(ctx context.Context, rdb *redis.Client, key string, dest any) bool {
	if rdb == nil {
		return false
	}
	raw, err := rdb.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}

// SetJSON stores a value as JSON with a TTL. Failures are ignored; the
// cache is best-effort.
func SetJSON(ctx context.Context, rdb *redis.Client, key string, value any, ttl time.Duration) {
	if rdb == nil {
		return
	}
	raw, err := json.Marshal(value)
	if err != nil {
		return
	}
	rdb.Set(ctx, key, raw, ttl)
}

func Invalidate(ctx context.Context, rdb *redis.Client, key string) {
	if rdb != nil {
		rdb.Del(ctx, key)
	}
}

func InvalidateUser(ctx context.Context, rdb *redis.Client, userID int64) {
	Invalidate(ctx, rdb, UserKey(userID))
}

func InvalidateCommunityFeed(ctx context.Context, rdb *redis.Client) {
	Invalidate(ctx, rdb, CommunityFeedKey)
}
