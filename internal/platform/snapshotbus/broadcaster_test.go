package snapshotbus

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laser_backend/internal/feature/outputsettings/domain/entity"
)

func TestBroadcaster_SubscribeAndBroadcast(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()
	ch1 := b.Subscribe()
	ch2 := b.Subscribe()
	assert.Equal(t, 2, b.Len())

	b.Broadcast(entity.Snapshot{Profile: "stage", Version: 1})

	for _, ch := range []chan entity.Snapshot{ch1, ch2} {
		select {
		case s := <-ch:
			assert.Equal(t, uint64(1), s.Version)
		default:
			t.Fatal("expected a snapshot to be delivered")
		}
	}
}

// TestBroadcaster_SlowListenerGetsLatest は受信しないリスナーにも最新版だけが残ることを検証します。
func TestBroadcaster_SlowListenerGetsLatest(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()
	ch := b.Subscribe()

	for v := uint64(1); v <= 5; v++ {
		b.Broadcast(entity.Snapshot{Version: v})
	}

	s := <-ch
	assert.Equal(t, uint64(5), s.Version)
	select {
	case extra := <-ch:
		t.Fatalf("unexpected extra snapshot %d", extra.Version)
	default:
	}
}

func TestBroadcaster_Unsubscribe(t *testing.T) {
	t.Parallel()

	b := NewBroadcaster()
	ch := b.Subscribe()
	b.Unsubscribe(ch)

	_, ok := <-ch
	require.False(t, ok, "channel must be closed")
	assert.Equal(t, 0, b.Len())

	// a second unsubscribe and later broadcasts must not panic
	b.Unsubscribe(ch)
	b.Broadcast(entity.Snapshot{Version: 1})
}
