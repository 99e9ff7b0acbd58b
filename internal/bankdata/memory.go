package bankdata

import (
	"context"
	"fmt"
	"sync"

	"finpulse/internal/core"
)

// MemoryProvider holds snapshots in memory. Used in tests and wherever a
// deterministic provider is needed.
type MemoryProvider struct {
	mu        sync.RWMutex
	snapshots map[string]core.Snapshot
}

func NewMemoryProvider() *MemoryProvider {
	return &MemoryProvider{snapshots: make(map[string]core.Snapshot)}
}

// Put stores or replaces a user's snapshot.
func (p *MemoryProvider) Put(snap core.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.snapshots[snap.UserID] = snap
}

func (p *MemoryProvider) FetchSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	select {
	case <-ctx.Done():
		return core.Snapshot{}, ctx.Err()
	default:
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	snap, ok := p.snapshots[userID]
	if !ok {
		return core.Snapshot{}, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	return snap, nil
}
