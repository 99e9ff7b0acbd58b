// Package bankdata fetches linked-bank snapshots from an upstream source.
// Snapshots are read-only once fetched; refreshing replaces the whole thing.
package bankdata

import (
	"context"
	"errors"

	"finpulse/internal/core"
)

var ErrUserNotFound = errors.New("no bank data for user")

// Provider fetches the current snapshot for one user from the upstream
// source. Implementations must return complete, internally consistent
// snapshots; partial data is an error, not a degraded result.
type Provider interface {
	FetchSnapshot(ctx context.Context, userID string) (core.Snapshot, error)
}
