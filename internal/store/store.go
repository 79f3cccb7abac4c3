package store

import (
	"sync"
	"time"

	"dealpulse/internal/model"
)

// Store holds the latest published snapshot and the pending win event. It is
// the only mutable state shared between the background loops and the HTTP
// handlers.
type Store struct {
	mu       sync.RWMutex
	snapshot *model.MetricsSnapshot

	winMu sync.Mutex
	win   *model.WinEvent
	ttl   time.Duration
}

// New creates a Store. Readers see an empty snapshot until the first cycle
// publishes.
func New(winEventTTL time.Duration) *Store {
	return &Store{
		snapshot: model.EmptySnapshot(),
		ttl:      winEventTTL,
	}
}

// Publish atomically replaces the current snapshot for all future readers.
func (s *Store) Publish(snap *model.MetricsSnapshot) {
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
}

// Current returns the latest published snapshot. Snapshots are immutable
// after publish, so the caller must not modify the result.
func (s *Store) Current() *model.MetricsSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// SetWinEvent stores evt as the pending notification, replacing any
// unconsumed one.
func (s *Store) SetWinEvent(evt model.WinEvent) {
	s.winMu.Lock()
	s.win = &evt
	s.winMu.Unlock()
}

// ReadAndClearWinEvent returns the pending event if it is younger than the
// freshness window. The slot is cleared on every read, fresh or stale, so a
// notification is delivered at most once and stale events cannot pile up.
func (s *Store) ReadAndClearWinEvent(now time.Time) (model.WinEvent, bool) {
	s.winMu.Lock()
	defer s.winMu.Unlock()
	evt := s.win
	s.win = nil
	if evt == nil || now.Sub(evt.ObservedAt) >= s.ttl {
		return model.WinEvent{}, false
	}
	return *evt, true
}
