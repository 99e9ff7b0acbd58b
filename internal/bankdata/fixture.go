package bankdata

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finpulse/internal/core"
)

// FixtureProvider serves snapshots from JSON files on disk, one file per
// user named <user_id>.json. It stands in for a real aggregation feed in
// development and demos.
type FixtureProvider struct {
	dir string
	now func() time.Time
}

func NewFixtureProvider(dir string) *FixtureProvider {
	return &FixtureProvider{dir: dir, now: time.Now}
}

func (p *FixtureProvider) FetchSnapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	select {
	case <-ctx.Done():
		return core.Snapshot{}, ctx.Err()
	default:
	}

	path := filepath.Join(p.dir, filepath.Base(userID)+".json")
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return core.Snapshot{}, fmt.Errorf("user %s: %w", userID, ErrUserNotFound)
	}
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("read fixture %s: %w", path, err)
	}

	var snap core.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return core.Snapshot{}, fmt.Errorf("parse fixture %s: %w", path, err)
	}

	if snap.UserID == "" {
		snap.UserID = userID
	}
	if snap.Source == "" {
		snap.Source = "fixture"
	}
	if snap.FetchedAt.IsZero() {
		snap.FetchedAt = p.now().UTC()
	}

	if err := snap.Validate(); err != nil {
		return core.Snapshot{}, fmt.Errorf("fixture %s: %w", path, err)
	}
	return snap, nil
}
