// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/usecase"
)

// ProfileStore is a repository that also serves the event log.
type ProfileStore interface {
	usecase.ProfileRepository
	usecase.EventLog
}

// CachingHistory decorates a ProfileStore with Redis caching of Recent.
// Writes go straight through and invalidate the profile's cached pages.
type CachingHistory struct {
	inner     ProfileStore
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var (
	_ usecase.ProfileRepository = (*CachingHistory)(nil)
	_ usecase.EventLog          = (*CachingHistory)(nil)
)

// NewCachingHistory decorates inner with Redis caching.
// If ttl is 0, it defaults to 30 seconds. If namespace is empty, it uses "history".
func NewCachingHistory(rdb *redis.Client, ttl time.Duration, inner ProfileStore, namespace string) *CachingHistory {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	if namespace == "" {
		namespace = "history"
	}
	return &CachingHistory{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

func (c *CachingHistory) Find(ctx context.Context, name string) (entity.State, entity.ProfileSummary, error) {
	return c.inner.Find(ctx, name)
}

func (c *CachingHistory) List(ctx context.Context) ([]entity.ProfileSummary, error) {
	return c.inner.List(ctx)
}

func (c *CachingHistory) Since(ctx context.Context, profile string, after uint64) ([]entity.EventRecord, error) {
	return c.inner.Since(ctx, profile, after)
}

// Save stores the profile and invalidates its cached history.
func (c *CachingHistory) Save(ctx context.Context, name string, version uint64, st entity.State) error {
	if err := c.inner.Save(ctx, name, version, st); err != nil {
		return err
	}
	c.invalidate(ctx, name)
	return nil
}

// Commit stores the state and event, then invalidates the profile's cached history.
func (c *CachingHistory) Commit(ctx context.Context, st entity.State, rec entity.EventRecord) error {
	if err := c.inner.Commit(ctx, st, rec); err != nil {
		return err
	}
	c.invalidate(ctx, rec.Profile)
	return nil
}

// CommitAll stores the state and all events, then invalidates the cache of
// every profile they touch.
func (c *CachingHistory) CommitAll(ctx context.Context, st entity.State, recs []entity.EventRecord) error {
	if err := c.inner.CommitAll(ctx, st, recs); err != nil {
		return err
	}
	seen := make(map[string]bool, 1)
	for _, rec := range recs {
		if !seen[rec.Profile] {
			seen[rec.Profile] = true
			c.invalidate(ctx, rec.Profile)
		}
	}
	return nil
}

// Recent returns recent events, checking the cache first.
func (c *CachingHistory) Recent(ctx context.Context, profile string, limit int) ([]entity.EventRecord, error) {
	// Redis未設定ならキャッシュをバイパス
	if c.rdb == nil {
		return c.inner.Recent(ctx, profile, limit)
	}

	key := c.cacheKey(profile, limit)

	// 1) キャッシュ確認
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []entity.EventRecord
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// 壊れたエントリは削除
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) DBへフォールバック
	out, err := c.inner.Recent(ctx, profile, limit)
	if err != nil {
		return nil, err
	}

	// 3) キャッシュへ保存（ベストエフォート）
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// invalidate drops every cached page of profile. Failures only leave
// entries to expire with the TTL.
func (c *CachingHistory) invalidate(ctx context.Context, profile string) {
	if c.rdb == nil {
		return
	}
	_ = c.deleteByPattern(ctx, c.cacheKeyPrefix(profile)+"*")
}

func (c *CachingHistory) cacheKey(profile string, limit int) string {
	return fmt.Sprintf("%s%d", c.cacheKeyPrefix(profile), limit)
}

func (c *CachingHistory) cacheKeyPrefix(profile string) string {
	return fmt.Sprintf("%s:%s:", c.namespace, safe(profile))
}

// deleteByPattern deletes all cache keys matching a given pattern using SCAN.
func (c *CachingHistory) deleteByPattern(ctx context.Context, pattern string) error {
	var cursor uint64
	for {
		keys, cur, err := c.rdb.Scan(ctx, cursor, pattern, 200).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = cur
		if cursor == 0 {
			break
		}
	}
	return nil
}

// safe escapes characters that are problematic for Redis keys and glob patterns.
func safe(s string) string {
	return strings.NewReplacer(" ", "_", ":", "_", "*", "_", "?", "_", "[", "_").Replace(s)
}
