package snapshotbus

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis instance for testing.
func setupTestRedis(t *testing.T) *redis.Client {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err, "failed to start miniredis")

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	t.Cleanup(func() {
		_ = client.Close()
		mr.Close()
	})

	return client
}

func TestRedisSubscriber_Latest(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	client := setupTestRedis(t)
	sub := NewRedisSubscriber(client, "rig")

	_, err := sub.Latest(ctx)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	snap := testSnapshot()
	require.NoError(t, NewRedisPublisher(client, "rig").Publish(ctx, snap))

	got, err := sub.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, snap.Version, got.Version)
	assert.Equal(t, snap.Config, got.Config())
}

func TestRedisSubscriber_Subscribe(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := setupTestRedis(t)
	sub := NewRedisSubscriber(client, "rig")
	pub := NewRedisPublisher(client, "rig")

	ch, err := sub.Subscribe(ctx)
	require.NoError(t, err)

	snap := testSnapshot()
	older := snap
	older.Version = snap.Version - 1
	newer := snap
	newer.Version = snap.Version + 1

	require.NoError(t, pub.Publish(ctx, snap))
	require.NoError(t, pub.Publish(ctx, older))
	require.NoError(t, pub.Publish(ctx, newer))

	var got []uint64
	for len(got) < 2 {
		select {
		case m := <-ch:
			got = append(got, m.Version)
		case <-ctx.Done():
			t.Fatalf("timed out, received %v", got)
		}
	}
	assert.Equal(t, []uint64{snap.Version, newer.Version}, got, "older versions must be dropped")

	cancel()
	for range ch {
	}
}
