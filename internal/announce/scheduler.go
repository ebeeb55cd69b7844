package announce

import (
	"sync"
	"time"
)

// Scheduler runs keyed, cancellable delayed callbacks. The kill-streak flow
// uses it to hold an announcement open for a beat: a death inside the window
// cancels it, a new streak event replaces it.
type Scheduler struct {
	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{timers: make(map[string]*time.Timer)}
}

// Schedule arms fn to run after delay under the given key, replacing any
// timer already armed for that key.
func (s *Scheduler) Schedule(key string, delay time.Duration, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.timers[key]; ok {
		existing.Stop()
	}
	s.timers[key] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, key)
		s.mu.Unlock()
		fn()
	})
}

// Cancel disarms the timer for key, reporting whether one was armed.
func (s *Scheduler) Cancel(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	timer, ok := s.timers[key]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.timers, key)
	return true
}

// CancelPrefix disarms every timer whose key starts with prefix. Session
// teardown uses it to drop all pending announcements for one viewer.
func (s *Scheduler) CancelPrefix(prefix string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for key, timer := range s.timers {
		if len(key) >= len(prefix) && key[:len(prefix)] == prefix {
			timer.Stop()
			delete(s.timers, key)
			n++
		}
	}
	return n
}

// Stop disarms everything.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for key, timer := range s.timers {
		timer.Stop()
		delete(s.timers, key)
	}
}

// Pending reports how many timers are armed.
func (s *Scheduler) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.timers)
}
