package services

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"finpulse/internal/core"
	"finpulse/internal/engine"
)

// Session is one user's simulation state: the overlay on top of the stored
// snapshot plus the chosen allocator settings. Sessions never touch the
// snapshot itself; resetting one discards every simulated change.
type Session struct {
	mu        sync.Mutex
	id        string
	userID    string
	overlay   engine.Overlay
	settings  engine.Settings
	spendDay  core.Date
	createdAt time.Time
}

func newSession(userID string) *Session {
	return &Session{
		id:        uuid.NewString(),
		userID:    userID,
		overlay:   engine.NewOverlay(),
		settings:  engine.DefaultSettings(),
		spendDay:  core.Today(),
		createdAt: time.Now(),
	}
}

// ID returns the session identifier.
func (s *Session) ID() string {
	return s.id
}

// State returns the current overlay and settings as one consistent pair.
// The recorded spend is cleared first when the calendar day rolled over.
func (s *Session) State(today core.Date) (engine.Overlay, engine.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollSpendDayLocked(today)
	return s.overlay, s.settings
}

// Update applies a mutation to the overlay. The mutation receives the
// current overlay and returns its replacement.
func (s *Session) Update(today core.Date, mutate func(engine.Overlay) (engine.Overlay, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollSpendDayLocked(today)
	next, err := mutate(s.overlay)
	if err != nil {
		return err
	}
	s.overlay = next
	return nil
}

// SetSettings replaces the allocator settings.
func (s *Session) SetSettings(settings engine.Settings) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = settings
}

// Reset discards the overlay and settings, keeping the session identity.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.overlay = engine.NewOverlay()
	s.settings = engine.DefaultSettings()
	s.spendDay = core.Today()
}

func (s *Session) rollSpendDayLocked(today core.Date) {
	if !s.spendDay.Equal(today.Time) {
		s.overlay = s.overlay.ResetSpend()
		s.spendDay = today
	}
}

// sessionRegistry hands out one session per user.
type sessionRegistry struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func newSessionRegistry() *sessionRegistry {
	return &sessionRegistry{sessions: make(map[string]*Session)}
}

func (r *sessionRegistry) get(userID string) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[userID]
	if !ok {
		sess = newSession(userID)
		r.sessions[userID] = sess
	}
	return sess
}

func (r *sessionRegistry) reset(userID string) {
	r.mu.Lock()
	sess, ok := r.sessions[userID]
	r.mu.Unlock()
	if ok {
		sess.Reset()
	}
}
