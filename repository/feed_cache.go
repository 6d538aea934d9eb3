package repository

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	globalFeedKey  = "feed:global"
	feedWarmMarker = "feed:global:warm"
	feedCacheSize  = 1000
	feedCacheTTL   = time.Hour
)

// FeedCache keeps the ids of the newest posts in a redis sorted set
// scored by creation time. The set is only read while the warm marker
// exists; new posts are added whether or not it does.
type FeedCache struct {
	redis *redis.Client
}

func NewFeedCache(redisClient *redis.Client) *FeedCache {
	return &FeedCache{redis: redisClient}
}

// Window returns the post ids at positions [offset, offset+limit) of the
// global feed. ok is false when the cache is cold or the window falls past
// the cached range.
func (c *FeedCache) Window(ctx context.Context, offset, limit int) ([]int64, bool, error) {
	warm, err := c.redis.Exists(ctx, feedWarmMarker).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to check feed cache: %w", err)
	}
	if warm == 0 {
		return nil, false, nil
	}

	size, err := c.redis.ZCard(ctx, globalFeedKey).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to read feed cache size: %w", err)
	}
	if size >= feedCacheSize && offset+limit > feedCacheSize {
		return nil, false, nil
	}

	members, err := c.redis.ZRevRange(ctx, globalFeedKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, false, fmt.Errorf("failed to get cached feed: %w", err)
	}

	ids := make([]int64, 0, len(members))
	for _, member := range members {
		id, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, true, nil
}

// Warm merges keys into the cached feed and marks it warm. Entries added
// since keys were read are kept.
func (c *FeedCache) Warm(ctx context.Context, keys []PostKey) error {
	members := make([]redis.Z, len(keys))
	for i, key := range keys {
		members[i] = feedMember(key)
	}

	_, err := c.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if len(members) > 0 {
			pipe.ZAdd(ctx, globalFeedKey, members...)
			pipe.ZRemRangeByRank(ctx, globalFeedKey, 0, -(feedCacheSize + 1))
			pipe.Expire(ctx, globalFeedKey, feedCacheTTL)
		}
		pipe.Set(ctx, feedWarmMarker, "1", feedCacheTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to warm feed cache: %w", err)
	}
	return nil
}

// Add records a new post. The set always outlives the warm marker, so a
// post added while the cache is cold is still present once it is warmed.
func (c *FeedCache) Add(ctx context.Context, key PostKey) error {
	pipe := c.redis.Pipeline()
	pipe.ZAdd(ctx, globalFeedKey, feedMember(key))
	pipe.ZRemRangeByRank(ctx, globalFeedKey, 0, -(feedCacheSize + 1))
	pipe.Expire(ctx, globalFeedKey, feedCacheTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to cache feed item: %w", err)
	}
	return nil
}

func (c *FeedCache) Invalidate(ctx context.Context) error {
	if err := c.redis.Del(ctx, feedWarmMarker, globalFeedKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate feed cache: %w", err)
	}
	return nil
}

// feedMember zero-pads the id so posts sharing a timestamp sort by id,
// matching the database order.
func feedMember(key PostKey) redis.Z {
	return redis.Z{
		Score:  float64(key.CreatedAt.UnixMicro()),
		Member: fmt.Sprintf("%019d", key.ID),
	}
}
