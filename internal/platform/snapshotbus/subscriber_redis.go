package snapshotbus

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// ErrNoSnapshot is returned by Latest when nothing has been published yet.
var ErrNoSnapshot = errors.New("no snapshot published")

// RedisSubscriber reads snapshots published by RedisPublisher.
type RedisSubscriber struct {
	rdb     *redis.Client
	channel string
}

// NewRedisSubscriber creates a subscriber for channel.
func NewRedisSubscriber(rdb *redis.Client, channel string) *RedisSubscriber {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisSubscriber{rdb: rdb, channel: channel}
}

// Latest returns the most recently published snapshot.
func (s *RedisSubscriber) Latest(ctx context.Context) (Message, error) {
	b, err := s.rdb.Get(ctx, LatestKey(s.channel)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Message{}, ErrNoSnapshot
		}
		return Message{}, err
	}
	var m Message
	if err := json.Unmarshal(b, &m); err != nil {
		return Message{}, fmt.Errorf("failed to unmarshal snapshot: %w", err)
	}
	return m, nil
}

// Subscribe streams snapshots until ctx is cancelled. Messages that are
// older than one already delivered are dropped, so the stream is monotonic
// per profile.
func (s *RedisSubscriber) Subscribe(ctx context.Context) (<-chan Message, error) {
	ps := s.rdb.Subscribe(ctx, s.channel)
	// wait for the subscription confirmation so no message is missed
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()
		return nil, fmt.Errorf("failed to subscribe to %q: %w", s.channel, err)
	}

	out := make(chan Message)
	go func() {
		defer close(out)
		defer ps.Close()

		last := map[string]uint64{}
		in := ps.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-in:
				if !ok {
					return
				}
				var m Message
				if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
					slog.Warn("dropping malformed snapshot", "channel", s.channel, "error", err)
					continue
				}
				if v, seen := last[m.Profile]; seen && m.Version < v {
					continue
				}
				last[m.Profile] = m.Version
				select {
				case out <- m:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}
