// Package cache holds the small in-process caches behind the metrics
// service: computed records keyed per user and overlay version, aged out
// by a shared cleanup loop.
package cache

import "time"

// Cleaner is any cache that can shed its expired entries.
type Cleaner interface {
	CleanExpired() int
}

// Manager runs one cleanup goroutine over every registered cache so the
// caches themselves stay timer-free.
type Manager struct {
	caches []Cleaner
	stop   chan struct{}
	done   chan struct{}
}

func NewManager() *Manager {
	return &Manager{
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// Register adds a cache to the cleanup rotation. Register everything
// before StartCleanup; the slice is not guarded.
func (m *Manager) Register(c Cleaner) {
	m.caches = append(m.caches, c)
}

// StartCleanup begins sweeping the registered caches every interval.
func (m *Manager) StartCleanup(interval time.Duration) {
	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				for _, c := range m.caches {
					c.CleanExpired()
				}
			case <-m.stop:
				return
			}
		}
	}()
}

// Stop ends the cleanup loop and waits for it to exit. Call only after
// StartCleanup.
func (m *Manager) Stop() {
	close(m.stop)
	<-m.done
}
