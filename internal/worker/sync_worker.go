package worker

import (
	"context"
	"fmt"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/bankdata"
	"finpulse/internal/core"
	"finpulse/internal/log"
)

// SnapshotStore is the persistence surface the worker needs.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snap core.Snapshot) error
	ListStale(ctx context.Context, cutoff time.Time) ([]string, error)
}

// SessionResetter discards a user's simulated session state after a fresh
// snapshot replaces the one it was layered on.
type SessionResetter interface {
	ResetSession(userID string)
}

// RefreshPublisher enqueues refresh requests for users the stale scan finds.
type RefreshPublisher interface {
	PublishSnapshotRefresh(ctx context.Context, userID, reason string) error
}

// SyncWorker refreshes stored snapshots from the bank data provider. It
// consumes refresh messages and runs a periodic scan that re-enqueues users
// whose snapshot has gone stale, so data keeps flowing even when no message
// arrives.
type SyncWorker struct {
	store      SnapshotStore
	provider   bankdata.Provider
	sessions   SessionResetter
	publisher  RefreshPublisher
	staleAfter time.Duration
	logger     *log.Logger
}

func NewSyncWorker(store SnapshotStore, provider bankdata.Provider, sessions SessionResetter, publisher RefreshPublisher, staleAfter time.Duration, logger *log.Logger) *SyncWorker {
	return &SyncWorker{
		store:      store,
		provider:   provider,
		sessions:   sessions,
		publisher:  publisher,
		staleAfter: staleAfter,
		logger:     logger.WithComponent(log.ComponentWorker),
	}
}

// HandleRefreshMessage processes a single snapshot refresh request.
func (w *SyncWorker) HandleRefreshMessage(ctx context.Context, msg *amqp.SnapshotRefreshMessage) error {
	w.logger.InfoContext(ctx, "Processing refresh message",
		log.FieldUserID, msg.UserID,
		log.FieldReason, msg.Reason)

	return w.RefreshUser(ctx, msg.UserID)
}

// RefreshUser fetches the user's bank data, replaces the stored snapshot and
// discards the session overlay built on the old one.
func (w *SyncWorker) RefreshUser(ctx context.Context, userID string) error {
	snap, err := w.provider.FetchSnapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch snapshot for %s: %w", userID, err)
	}

	if err := w.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot for %s: %w", userID, err)
	}

	if w.sessions != nil {
		w.sessions.ResetSession(userID)
	}

	w.logger.InfoContext(ctx, "Snapshot refreshed",
		log.FieldUserID, userID,
		"accounts", len(snap.Accounts),
		"agreements", len(snap.Agreements))

	return nil
}

// ScanStale enqueues a refresh for every user whose snapshot is older than
// the staleness threshold. Without a publisher it refreshes inline.
func (w *SyncWorker) ScanStale(ctx context.Context) error {
	cutoff := time.Now().Add(-w.staleAfter)
	userIDs, err := w.store.ListStale(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale snapshots: %w", err)
	}
	if len(userIDs) == 0 {
		return nil
	}

	w.logger.InfoContext(ctx, "Found stale snapshots", "count", len(userIDs))

	errorCount := 0
	for _, userID := range userIDs {
		var err error
		if w.publisher != nil {
			err = w.publisher.PublishSnapshotRefresh(ctx, userID, amqp.ReasonStale)
		} else {
			err = w.RefreshUser(ctx, userID)
		}
		if err != nil {
			w.logger.ErrorContext(ctx, "Failed to refresh stale snapshot",
				log.FieldUserID, userID, log.FieldError, err)
			errorCount++
		}
	}

	if errorCount > 0 {
		return fmt.Errorf("stale scan: %d of %d refreshes failed", errorCount, len(userIDs))
	}
	return nil
}

// RunStaleScan runs ScanStale on the given interval until the context is
// cancelled. A failed pass is logged and the next tick retries.
func (w *SyncWorker) RunStaleScan(ctx context.Context, interval time.Duration) error {
	// One pass up front so a restart does not wait a full interval to
	// recover missed refreshes.
	if err := w.ScanStale(ctx); err != nil {
		w.logger.ErrorContext(ctx, "Startup stale scan failed", log.FieldError, err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := w.ScanStale(ctx); err != nil {
				w.logger.ErrorContext(ctx, "Stale scan failed", log.FieldError, err)
			}
		}
	}
}
