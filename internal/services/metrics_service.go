package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"finpulse/internal/amqp"
	"finpulse/internal/bankdata"
	"finpulse/internal/cache"
	"finpulse/internal/core"
	"finpulse/internal/engine"
	"finpulse/internal/log"
)

var ErrInvalidSettings = errors.New("invalid allocator settings")

// SnapshotStore is the persistence surface the service needs.
type SnapshotStore interface {
	LoadSnapshot(ctx context.Context, userID string) (core.Snapshot, error)
	SaveSnapshot(ctx context.Context, snap core.Snapshot) error
}

// RefreshPublisher asks the sync worker to re-fetch a user's bank data.
type RefreshPublisher interface {
	PublishSnapshotRefresh(ctx context.Context, userID, reason string) error
}

// MetricsService serves the recommendation bundle and runs the session
// simulation operations on top of it. Every operation recomputes the full
// bundle; the cache only short-circuits identical (snapshot, overlay,
// settings) combinations.
type MetricsService struct {
	store     SnapshotStore
	provider  bankdata.Provider
	publisher RefreshPublisher
	engine    *engine.Engine
	sessions  *sessionRegistry
	records   *cache.LRUCache[core.MetricsRecord]
	cleanup   *cache.Manager
	logger    *log.Logger
	now       func() time.Time
}

func NewMetricsService(store SnapshotStore, provider bankdata.Provider, publisher RefreshPublisher, eng *engine.Engine, logger *log.Logger) *MetricsService {
	records := cache.NewLRUCache[core.MetricsRecord](cache.DefaultRecordCapacity, cache.RecordTTL)
	cleanup := cache.NewManager()
	cleanup.Register(records)
	cleanup.StartCleanup(10 * time.Minute)

	return &MetricsService{
		store:     store,
		provider:  provider,
		publisher: publisher,
		engine:    eng,
		sessions:  newSessionRegistry(),
		records:   records,
		cleanup:   cleanup,
		logger:    logger.WithComponent(log.ComponentMetrics),
		now:       time.Now,
	}
}

// Close stops the cache cleanup goroutine.
func (s *MetricsService) Close() {
	s.cleanup.Stop()
}

// Dashboard returns the current recommendation bundle for the user.
func (s *MetricsService) Dashboard(ctx context.Context, userID string) (core.MetricsRecord, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.MetricsRecord{}, err
	}
	return s.compute(snap, s.sessions.get(userID)), nil
}

// ApplyPayment simulates paying the amount toward an obligation and returns
// the recomputed bundle.
func (s *MetricsService) ApplyPayment(ctx context.Context, userID, obligationID string, amount core.Money) (core.MetricsRecord, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.MetricsRecord{}, err
	}

	sess := s.sessions.get(userID)
	today := core.DateOf(s.now())
	err = sess.Update(today, func(ov engine.Overlay) (engine.Overlay, error) {
		return ov.ApplyPayment(snap, obligationID, amount)
	})
	if err != nil {
		return core.MetricsRecord{}, err
	}

	ov, _ := sess.State(today)
	s.logger.InfoContext(ctx, "Payment simulated",
		log.FieldUserID, userID,
		log.FieldObligationID, obligationID,
		log.FieldAmountCents, amount.Cents,
		log.FieldSessionVer, ov.Version())

	return s.compute(snap, sess), nil
}

// SetBankEnabled switches a bank in or out of every computation.
func (s *MetricsService) SetBankEnabled(ctx context.Context, userID, bankID string, enabled bool) (core.MetricsRecord, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.MetricsRecord{}, err
	}

	known := false
	for _, b := range snap.Banks {
		if b.ID == bankID {
			known = true
			break
		}
	}
	if !known {
		return core.MetricsRecord{}, fmt.Errorf("bank %s: %w", bankID, core.ErrUnknownBank)
	}

	sess := s.sessions.get(userID)
	today := core.DateOf(s.now())
	if err := sess.Update(today, func(ov engine.Overlay) (engine.Overlay, error) {
		return ov.SetBankEnabled(bankID, enabled), nil
	}); err != nil {
		return core.MetricsRecord{}, err
	}

	s.logger.InfoContext(ctx, "Bank toggled",
		log.FieldUserID, userID,
		log.FieldBankID, bankID,
		"enabled", enabled)

	return s.compute(snap, sess), nil
}

// RecordSpend adds to today's discretionary spend and returns the
// recomputed bundle.
func (s *MetricsService) RecordSpend(ctx context.Context, userID string, amount core.Money) (core.MetricsRecord, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.MetricsRecord{}, err
	}

	sess := s.sessions.get(userID)
	today := core.DateOf(s.now())
	if err := sess.Update(today, func(ov engine.Overlay) (engine.Overlay, error) {
		return ov.AddSpend(amount)
	}); err != nil {
		return core.MetricsRecord{}, err
	}
	return s.compute(snap, sess), nil
}

// UpdateSettings replaces the session's allocator settings.
func (s *MetricsService) UpdateSettings(ctx context.Context, userID string, settings engine.Settings) (core.MetricsRecord, error) {
	if !settings.Valid() {
		return core.MetricsRecord{}, fmt.Errorf("%w: %+v", ErrInvalidSettings, settings)
	}

	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return core.MetricsRecord{}, err
	}

	sess := s.sessions.get(userID)
	sess.SetSettings(settings)
	return s.compute(snap, sess), nil
}

// Refinance returns the consolidation insight, or nil when no loan
// qualifies.
func (s *MetricsService) Refinance(ctx context.Context, userID string) (*core.RefinanceInsight, error) {
	record, err := s.Dashboard(ctx, userID)
	if err != nil {
		return nil, err
	}
	return record.Refinance, nil
}

// RequestRefresh asks the worker to re-fetch the user's bank data. Without
// a publisher the refresh runs inline.
func (s *MetricsService) RequestRefresh(ctx context.Context, userID string) error {
	if s.publisher != nil {
		return s.publisher.PublishSnapshotRefresh(ctx, userID, amqp.ReasonManual)
	}
	if s.provider == nil {
		return errors.New("no refresh path configured")
	}

	snap, err := s.provider.FetchSnapshot(ctx, userID)
	if err != nil {
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	s.ResetSession(userID)
	return nil
}

// ResetSession discards the user's simulated state. Called after a fresh
// snapshot lands so the overlay never spans two snapshots.
func (s *MetricsService) ResetSession(userID string) {
	s.sessions.reset(userID)
}

// SessionID returns the user's session identifier.
func (s *MetricsService) SessionID(userID string) string {
	return s.sessions.get(userID).ID()
}

// snapshot loads the stored snapshot, falling back to a direct provider
// fetch for first-time users.
func (s *MetricsService) snapshot(ctx context.Context, userID string) (core.Snapshot, error) {
	snap, err := s.store.LoadSnapshot(ctx, userID)
	if err == nil {
		return snap, nil
	}
	if !errors.Is(err, core.ErrSnapshotNotFound) || s.provider == nil {
		return core.Snapshot{}, err
	}

	snap, err = s.provider.FetchSnapshot(ctx, userID)
	if err != nil {
		return core.Snapshot{}, fmt.Errorf("fetch snapshot: %w", err)
	}
	if err := s.store.SaveSnapshot(ctx, snap); err != nil {
		s.logger.WarnContext(ctx, "Failed to persist fetched snapshot",
			log.FieldUserID, userID, log.FieldError, err)
	}
	return snap, nil
}

func (s *MetricsService) compute(snap core.Snapshot, sess *Session) core.MetricsRecord {
	today := core.DateOf(s.now())
	ov, settings := sess.State(today)

	key := fmt.Sprintf("%s|%s|%s|%d|%s|%s|%s",
		snap.UserID, snap.FetchedAt.UTC().Format(time.RFC3339), today.Format("2006-01-02"),
		ov.Version(), settings.Strategy, settings.Risk, settings.Goal)
	if record, ok := s.records.Get(key); ok {
		return record
	}

	record := s.engine.ComputeMetrics(snap, ov, settings)
	s.records.Set(key, record)
	return record
}
