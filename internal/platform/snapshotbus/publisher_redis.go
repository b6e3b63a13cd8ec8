package snapshotbus

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"laser_backend/internal/feature/outputsettings/domain/entity"
	"laser_backend/internal/feature/outputsettings/usecase"
)

// DefaultChannel is used when no channel name is configured.
const DefaultChannel = "output:snapshots"

// RedisPublisher publishes snapshots to a Redis channel and keeps the latest
// one under "<channel>:latest" so that a restarting engine can catch up.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

var _ usecase.SnapshotPublisher = (*RedisPublisher)(nil)

// NewRedisPublisher creates a publisher. A nil client turns Publish into a
// no-op, for rigs without Redis. An empty channel uses DefaultChannel.
func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

// Publish stores snap as the latest snapshot and announces it on the channel.
func (p *RedisPublisher) Publish(ctx context.Context, snap entity.Snapshot) error {
	if p.rdb == nil {
		return nil
	}
	b, err := json.Marshal(FromSnapshot(snap))
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	if err := p.rdb.Set(ctx, LatestKey(p.channel), b, 0).Err(); err != nil {
		return fmt.Errorf("failed to store latest snapshot: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, b).Err(); err != nil {
		return fmt.Errorf("failed to publish snapshot: %w", err)
	}
	return nil
}

// LatestKey returns the key holding the most recent snapshot of channel.
func LatestKey(channel string) string {
	return strings.ReplaceAll(channel, " ", "_") + ":latest"
}
