// Package snapshotbus distributes completed output snapshots: in process to
// stream listeners, and through Redis to the output engine.
package snapshotbus

import (
	"sync"

	"laser_backend/internal/feature/outputsettings/domain/entity"
)

// Broadcaster fans snapshots out to subscribed channels.
// Each channel holds at most one pending snapshot; a slow listener only
// ever misses intermediate versions, never the latest one.
type Broadcaster struct {
	mu        sync.RWMutex
	listeners map[chan entity.Snapshot]struct{}
}

// NewBroadcaster creates a new Broadcaster instance.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		listeners: make(map[chan entity.Snapshot]struct{}),
	}
}

// Subscribe returns a channel that receives published snapshots.
// The caller must call Unsubscribe when done to prevent goroutine leaks.
func (b *Broadcaster) Subscribe() chan entity.Snapshot {
	ch := make(chan entity.Snapshot, 1)
	b.mu.Lock()
	b.listeners[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (b *Broadcaster) Unsubscribe(ch chan entity.Snapshot) {
	b.mu.Lock()
	_, ok := b.listeners[ch]
	delete(b.listeners, ch)
	b.mu.Unlock()
	if ok {
		close(ch)
	}
}

// Broadcast delivers snap to every listener without blocking. A pending,
// undelivered snapshot is replaced by the newer one.
func (b *Broadcaster) Broadcast(snap entity.Snapshot) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for ch := range b.listeners {
		select {
		case ch <- snap:
			continue
		default:
		}
		// drop the stale snapshot and retry once
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// Len returns the number of subscribed listeners.
func (b *Broadcaster) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.listeners)
}
